package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "fninline.toml")
	writeFile(t, configPath, `
inline_direct = false
allow_decomposition = true
known_constants = ["DEBUG"]
keep_names = ["foo", "bar"]
`)

	cfg, err := LoadFile(configPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.InlineDirect)
	assert.False(t, *cfg.InlineDirect)
	require.NotNil(t, cfg.AllowDecomposition)
	assert.True(t, *cfg.AllowDecomposition)
	assert.Nil(t, cfg.InlineBlock)
	assert.Equal(t, []string{"DEBUG"}, cfg.KnownConstants)
	assert.Equal(t, []string{"foo", "bar"}, cfg.KeepNames)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "fninline.toml")
	writeFile(t, configPath, "inline_everything = true\n")

	_, err := LoadFile(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), configPath)
}

func TestLoadFileSyntaxError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "fninline.toml")
	writeFile(t, configPath, "inline_direct = \n")

	_, err := LoadFile(configPath)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	// Config in a parent directory
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "src")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	configPath := filepath.Join(tmpDir, "project", "fninline.toml")
	writeFile(t, configPath, "remove_inlined = false\n")

	cfg, foundPath, err := Load(subDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, configPath, foundPath)
	require.NotNil(t, cfg.RemoveInlined)
	assert.False(t, *cfg.RemoveInlined)
}

func TestLoadNoConfig(t *testing.T) {
	cfg, path, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Empty(t, path)
}

func TestConfigFileNames(t *testing.T) {
	tmpDir := t.TempDir()

	// The hidden file has the lower priority.
	writeFile(t, filepath.Join(tmpDir, ".fninline.toml"), "inline_block = true\n")
	cfg, foundPath, err := Load(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ".fninline.toml", filepath.Base(foundPath))

	writeFile(t, filepath.Join(tmpDir, "fninline.toml"), "inline_block = false\n")
	cfg, foundPath, err = Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "fninline.toml", filepath.Base(foundPath))
	require.NotNil(t, cfg.InlineBlock)
	assert.False(t, *cfg.InlineBlock)
}

func TestToOptions(t *testing.T) {
	falseVal := false
	cfg := &Config{
		InlineBlock:      &falseVal,
		MinifyWhitespace: &falseVal,
		KeepNames:        []string{"keep1", "keep2"},
	}

	opts := cfg.ToOptions()
	assert.False(t, opts.Pass.InlineBlock)
	assert.False(t, opts.MinifyWhitespace)
	// Unset fields keep their defaults.
	assert.True(t, opts.Pass.InlineDirect)
	assert.True(t, opts.Pass.AllowDecomposition)
	assert.True(t, opts.Pass.RemoveInlined)
	assert.Equal(t, []string{"keep1", "keep2"}, opts.Pass.KeepNames)
}

func TestNilConfigUsesDefaults(t *testing.T) {
	var cfg *Config
	opts := cfg.Merge(MergeOptions{NoRemove: true})
	assert.True(t, opts.Pass.InlineDirect)
	assert.False(t, opts.Pass.RemoveInlined)
}

func TestMerge(t *testing.T) {
	trueVal := true
	falseVal := false

	cfg := &Config{AllowDecomposition: &falseVal, MinifyWhitespace: &trueVal}
	opts := cfg.Merge(MergeOptions{
		AllowDecomposition: &trueVal,
		MinifyWhitespace:   &falseVal,
		NoDirect:           true,
		NoBlock:            true,
	})

	// CLI wins
	assert.True(t, opts.Pass.AllowDecomposition)
	assert.False(t, opts.MinifyWhitespace)
	assert.False(t, opts.Pass.InlineDirect)
	assert.False(t, opts.Pass.InlineBlock)
}

func TestMergeLists(t *testing.T) {
	cfg := &Config{
		KeepNames:      []string{"configName1", "configName2"},
		KnownConstants: []string{"A"},
	}
	opts := cfg.Merge(MergeOptions{
		KeepNames:      []string{"cliName"},
		KnownConstants: []string{"B"},
	})
	assert.Equal(t, []string{"configName1", "configName2", "cliName"}, opts.Pass.KeepNames)
	assert.Equal(t, []string{"A", "B"}, opts.Pass.KnownConstants)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAllowDecomposition, "false")
	t.Setenv(EnvKnownConstants, "DEBUG, VERSION,,")

	trueVal := true
	cfg := &Config{AllowDecomposition: &trueVal, KnownConstants: []string{"FILE"}}
	cfg.ApplyEnv()

	require.NotNil(t, cfg.AllowDecomposition)
	assert.False(t, *cfg.AllowDecomposition)
	assert.Equal(t, []string{"FILE", "DEBUG", "VERSION"}, cfg.KnownConstants)
}

func TestApplyEnvUnset(t *testing.T) {
	t.Setenv(EnvAllowDecomposition, "")
	os.Unsetenv(EnvAllowDecomposition)

	cfg := &Config{}
	cfg.ApplyEnv()
	assert.Nil(t, cfg.AllowDecomposition)
	assert.Empty(t, cfg.KnownConstants)
}

func TestApplyEnvSeesLaterChanges(t *testing.T) {
	t.Setenv(EnvAllowDecomposition, "")
	os.Unsetenv(EnvAllowDecomposition)
	cfg := &Config{}
	cfg.ApplyEnv()
	assert.Nil(t, cfg.AllowDecomposition)

	t.Setenv(EnvAllowDecomposition, "false")
	t.Setenv(EnvKnownConstants, "DEBUG")
	cfg = &Config{}
	cfg.ApplyEnv()
	require.NotNil(t, cfg.AllowDecomposition)
	assert.False(t, *cfg.AllowDecomposition)
	assert.Equal(t, []string{"DEBUG"}, cfg.KnownConstants)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,b,"))
	assert.Empty(t, SplitList(""))
}
