// Package config handles loading optimizer configuration from files and the
// environment.
//
// Configuration can be specified in a TOML file named fninline.toml or
// .fninline.toml. The config file is searched for in the current directory
// and parent directories. Environment variables override the file, and
// command line flags override both.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/xyproto/env/v2"

	"github.com/HugoDaniel/fninline/internal/optimizer"
)

// Environment variables read by ApplyEnv.
const (
	EnvAllowDecomposition = "FNINLINE_ALLOW_DECOMPOSITION"
	EnvKnownConstants     = "FNINLINE_KNOWN_CONSTANTS"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// InlineDirect replaces calls by the returned expression (default true)
	InlineDirect *bool `toml:"inline_direct"`

	// InlineBlock replaces call statements by the function body (default true)
	InlineBlock *bool `toml:"inline_block"`

	// AllowDecomposition hoists operands evaluated before a call (default true)
	AllowDecomposition *bool `toml:"allow_decomposition"`

	// RemoveInlined removes fully inlined declarations (default true)
	RemoveInlined *bool `toml:"remove_inlined"`

	// MinifyWhitespace prints compact output (default true)
	MinifyWhitespace *bool `toml:"minify_whitespace"`

	// KnownConstants lists global names that are never reassigned
	KnownConstants []string `toml:"known_constants"`

	// KeepNames lists functions that must be neither inlined nor removed
	KeepNames []string `toml:"keep_names"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"fninline.toml",
	".fninline.toml",
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. Unknown keys are
// rejected.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	defer f.Close()

	var cfg Config
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return &cfg, nil
}

// ApplyEnv overrides the configuration with the FNINLINE_* environment
// variables that are set. Known constants from the environment are added to
// those of the file.
func (c *Config) ApplyEnv() {
	// Read the live environment, not a snapshot cached by an earlier call.
	env.Unload()
	if env.Has(EnvAllowDecomposition) {
		allow := env.Bool(EnvAllowDecomposition)
		c.AllowDecomposition = &allow
	}
	c.KnownConstants = append(c.KnownConstants, SplitList(env.Str(EnvKnownConstants))...)
}

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ToOptions converts a Config to optimizer.Options, using defaults for unset fields.
func (c *Config) ToOptions() optimizer.Options {
	opts := optimizer.DefaultOptions()
	if c == nil {
		return opts
	}

	if c.InlineDirect != nil {
		opts.Pass.InlineDirect = *c.InlineDirect
	}
	if c.InlineBlock != nil {
		opts.Pass.InlineBlock = *c.InlineBlock
	}
	if c.AllowDecomposition != nil {
		opts.Pass.AllowDecomposition = *c.AllowDecomposition
	}
	if c.RemoveInlined != nil {
		opts.Pass.RemoveInlined = *c.RemoveInlined
	}
	if c.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *c.MinifyWhitespace
	}
	if len(c.KnownConstants) > 0 {
		opts.Pass.KnownConstants = c.KnownConstants
	}
	if len(c.KeepNames) > 0 {
		opts.Pass.KeepNames = c.KeepNames
	}

	return opts
}

// MergeOptions holds the command line flags that override the configuration.
type MergeOptions struct {
	// CLI flags (nil means not specified on CLI)
	MinifyWhitespace   *bool
	AllowDecomposition *bool
	NoDirect           bool
	NoBlock            bool
	NoRemove           bool
	KnownConstants     []string
	KeepNames          []string
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) optimizer.Options {
	opts := c.ToOptions()

	if cli.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *cli.MinifyWhitespace
	}
	if cli.AllowDecomposition != nil {
		opts.Pass.AllowDecomposition = *cli.AllowDecomposition
	}
	if cli.NoDirect {
		opts.Pass.InlineDirect = false
	}
	if cli.NoBlock {
		opts.Pass.InlineBlock = false
	}
	if cli.NoRemove {
		opts.Pass.RemoveInlined = false
	}
	if len(cli.KnownConstants) > 0 {
		opts.Pass.KnownConstants = append(opts.Pass.KnownConstants, cli.KnownConstants...)
	}
	if len(cli.KeepNames) > 0 {
		// Append CLI keep names to config keep names
		opts.Pass.KeepNames = append(opts.Pass.KeepNames, cli.KeepNames...)
	}

	return opts
}
