// Command fninline inlines function calls in JavaScript source code.
//
// Usage:
//
//	fninline [flags] <input.js>...
//	cat input.js | fninline [flags]
//
// Config file:
//
//	fninline looks for fninline.toml or .fninline.toml in the input's
//	directory and its parents. FNINLINE_ALLOW_DECOMPOSITION and
//	FNINLINE_KNOWN_CONSTANTS override the file, and flags override both.
//
// Example fninline.toml:
//
//	inline_direct = true
//	inline_block = true
//	allow_decomposition = true
//	remove_inlined = true
//	known_constants = ["DEBUG"]
//	keep_names = ["main"]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/HugoDaniel/fninline/internal/config"
	"github.com/HugoDaniel/fninline/internal/diagnostic"
	"github.com/HugoDaniel/fninline/internal/optimizer"
	"github.com/HugoDaniel/fninline/internal/pass"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	output         string
	outDir         string
	configFile     string
	noConfig       bool
	pretty         bool
	noDirect       bool
	noBlock        bool
	noDecompose    bool
	noRemove       bool
	keepNames      []string
	knownConstants []string
	stats          bool
	verbose        bool
	jobs           int
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "fninline [flags] [input.js...]",
		Short: "Inline JavaScript functions into their call sites",
		Long: "fninline replaces calls to top-level functions with the function bodies\n" +
			"when that makes the program smaller, and removes the functions that are\n" +
			"no longer used.",
		Example: "  fninline app.js -o app.min.js\n" +
			"  cat app.js | fninline > app.min.js\n" +
			"  fninline --out-dir dist --stats src/*.js",
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "write output to `file` (single input only)")
	fl.StringVar(&f.outDir, "out-dir", "", "write each output to `dir` under its input's base name")
	fl.StringVar(&f.configFile, "config", "", "use a specific config `file`")
	fl.BoolVar(&f.noConfig, "no-config", false, "ignore config files")
	fl.BoolVar(&f.pretty, "pretty", false, "print indented output")
	fl.BoolVar(&f.noDirect, "no-direct", false, "do not replace calls by returned expressions")
	fl.BoolVar(&f.noBlock, "no-block", false, "do not replace calls by function bodies")
	fl.BoolVar(&f.noDecompose, "no-decompose", false, "do not hoist operands to expose calls")
	fl.BoolVar(&f.noRemove, "no-remove", false, "keep declarations of fully inlined functions")
	fl.StringSliceVar(&f.keepNames, "keep-names", nil, "functions to leave alone")
	fl.StringSliceVar(&f.knownConstants, "known-constants", nil, "global names that are never reassigned")
	fl.BoolVar(&f.stats, "stats", false, "print a JSON report to stderr")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log every inlining decision")
	fl.IntVarP(&f.jobs, "jobs", "j", 4, "number of files processed concurrently")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

// input is one source to optimize. An empty path means stdin.
type input struct {
	path   string
	source string
	result optimizer.Result
}

func (in *input) name() string {
	if in.path == "" {
		return "<stdin>"
	}
	return in.path
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	if f.output != "" && len(args) > 1 {
		return errors.Errorf("-o accepts a single input, use --out-dir for %d inputs", len(args))
	}

	log, err := newLogger(f.verbose)
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	defer log.Sync() //nolint:errcheck

	opts, err := loadOptions(cmd, f, args)
	if err != nil {
		return err
	}
	opts.Logger = log

	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	// Inputs are independent programs. Wait returns only the first failure,
	// errs keeps all of them.
	errs := make([]error, len(inputs))
	g := new(errgroup.Group)
	g.SetLimit(max(f.jobs, 1))
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			in.result = optimizer.New(opts).Optimize(in.source)
			if in.result.Failed() {
				errs[i] = errors.Errorf("%s: optimization failed", in.name())
			}
			return errs[i]
		})
	}
	waitErr := g.Wait()

	for _, in := range inputs {
		if len(in.result.Diagnostics) > 0 {
			fmt.Fprint(cmd.ErrOrStderr(), formatDiagnostics(in))
		}
	}
	if waitErr != nil {
		return multierr.Combine(errs...)
	}

	if err := writeOutputs(cmd, f, inputs); err != nil {
		return err
	}

	if f.stats {
		return writeStats(cmd.ErrOrStderr(), inputs)
	}
	return nil
}

// loadOptions builds the optimizer options from the config file, the
// environment and the flags, in increasing priority.
func loadOptions(cmd *cobra.Command, f *flags, args []string) (optimizer.Options, error) {
	var cfg *config.Config
	if !f.noConfig {
		var err error
		if f.configFile != "" {
			cfg, err = config.LoadFile(f.configFile)
		} else {
			startDir, _ := os.Getwd()
			if len(args) > 0 {
				startDir = filepath.Dir(args[0])
			}
			var path string
			cfg, path, err = config.Load(startDir)
			if path != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config: %s\n", path)
			}
		}
		if err != nil {
			return optimizer.Options{}, errors.Wrap(err, "loading config")
		}
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.ApplyEnv()

	cli := config.MergeOptions{
		NoDirect:       f.noDirect,
		NoBlock:        f.noBlock,
		NoRemove:       f.noRemove,
		KeepNames:      f.keepNames,
		KnownConstants: f.knownConstants,
	}
	if f.noDecompose {
		allow := false
		cli.AllowDecomposition = &allow
	}
	if cmd.Flags().Changed("pretty") {
		minify := !f.pretty
		cli.MinifyWhitespace = &minify
	}
	return cfg.Merge(cli), nil
}

func readInputs(cmd *cobra.Command, args []string) ([]*input, error) {
	if len(args) == 0 {
		if stdin, ok := cmd.InOrStdin().(*os.File); ok {
			if stat, err := stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
				return nil, errors.New("no input file specified")
			}
		}
		source, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "reading stdin")
		}
		return []*input{{source: string(source)}}, nil
	}

	var inputs []*input
	var errs error
	for _, path := range args {
		source, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "reading input"))
			continue
		}
		inputs = append(inputs, &input{path: path, source: string(source)})
	}
	return inputs, errs
}

func writeOutputs(cmd *cobra.Command, f *flags, inputs []*input) error {
	switch {
	case f.outDir != "":
		if err := os.MkdirAll(f.outDir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
		var errs error
		for _, in := range inputs {
			name := filepath.Base(in.path)
			if in.path == "" {
				name = "stdin.js"
			}
			path := filepath.Join(f.outDir, name)
			if err := os.WriteFile(path, []byte(in.result.Code), 0o644); err != nil {
				errs = multierr.Append(errs, errors.Wrap(err, "writing output"))
			}
		}
		return errs

	case f.output != "":
		in := inputs[0]
		if err := os.WriteFile(f.output, []byte(in.result.Code), 0o644); err != nil {
			return errors.Wrap(err, "writing output")
		}
		stats := in.result.Stats
		ratio := float64(stats.OptimizedSize) / float64(max(stats.OriginalSize, 1)) * 100
		fmt.Fprintf(cmd.ErrOrStderr(), "Inlined %d call(s): %d -> %d bytes (%.1f%%)\n",
			stats.Inlined(), stats.OriginalSize, stats.OptimizedSize, ratio)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, in := range inputs {
		if _, err := io.WriteString(out, in.result.Code); err != nil {
			return errors.Wrap(err, "writing output")
		}
	}
	return nil
}

func formatDiagnostics(in *input) string {
	list := diagnostic.NewList(in.source)
	for _, d := range in.result.Diagnostics {
		list.Add(d)
	}
	return in.name() + ":\n" + list.Format()
}

// ----------------------------------------------------------------------------
// Stats Report
// ----------------------------------------------------------------------------

type fileReport struct {
	File      string          `json:"file"`
	Stats     optimizer.Stats `json:"stats"`
	Decisions []pass.Decision `json:"decisions"`
}

type report struct {
	Files []fileReport `json:"files"`
	Total pass.Stats   `json:"total"`
}

func writeStats(w io.Writer, inputs []*input) error {
	var r report
	for _, in := range inputs {
		r.Files = append(r.Files, fileReport{
			File:      in.name(),
			Stats:     in.result.Stats,
			Decisions: in.result.Decisions,
		})
		r.Total.Add(in.result.Stats.Stats)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "writing stats")
	}
	return nil
}
