package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "glslmin.json")
	writeFile(t, configPath, `{
		"minifyWhitespace": false,
		"rewriteAllGlobals": true,
		"maxNameLength": 0,
		"keepNames": ["foo", "bar"]
	}`)

	cfg, err := LoadFile(configPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.MinifyWhitespace)
	require.False(t, *cfg.MinifyWhitespace)
	require.NotNil(t, cfg.RewriteAllGlobals)
	require.True(t, *cfg.RewriteAllGlobals)
	require.NotNil(t, cfg.MaxNameLength)
	require.Equal(t, 0, *cfg.MaxNameLength)
	require.Nil(t, cfg.TreeShaking)
	require.Equal(t, []string{"foo", "bar"}, cfg.KeepNames)
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "glslmin.json", `{"rewriteAllGlobals": true, "maxNameLength": 3, "keepNames": ["time"]}`},
		{"rc", ".glslminrc", `{"rewriteAllGlobals": true, "maxNameLength": 3, "keepNames": ["time"]}`},
		{"toml", "glslmin.toml", "rewriteAllGlobals = true\nmaxNameLength = 3\nkeepNames = [\"time\"]\n"},
		{"yaml", "glslmin.yaml", "rewriteAllGlobals: true\nmaxNameLength: 3\nkeepNames:\n  - time\n"},
		{"yml", "glslmin.yml", "rewriteAllGlobals: true\nmaxNameLength: 3\nkeepNames: [time]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)

			cfg, err := LoadFile(path)
			require.NoError(t, err)

			opts := cfg.ToOptions()
			require.True(t, opts.RewriteAllGlobals)
			require.Equal(t, 3, opts.MaxNameLength)
			require.Equal(t, []string{"time"}, opts.KeepNames)
			require.True(t, opts.TreeShaking, "unset fields keep their defaults")
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "glslmin.toml")
	writeFile(t, bad, "rewriteAllGlobals = [")
	_, err := LoadFile(bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), bad)

	negative := filepath.Join(dir, "glslmin.json")
	writeFile(t, negative, `{"maxNameLength": -1}`)
	_, err = LoadFile(negative)
	require.ErrorContains(t, err, "maxNameLength")

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad(t *testing.T) {
	// Config in a parent directory is found from a nested one
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "shaders")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	configPath := filepath.Join(tmpDir, "project", "glslmin.yaml")
	writeFile(t, configPath, "rewriteAllGlobals: true\n")

	cfg, foundPath, err := Load(subDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, configPath, foundPath)
	require.True(t, *cfg.RewriteAllGlobals)
}

func TestLoadNoConfig(t *testing.T) {
	cfg, path, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, cfg)
	require.Empty(t, path)
}

func TestToOptions(t *testing.T) {
	trueVal := true
	falseVal := false
	length := 0

	cfg := &Config{
		MinifyWhitespace: &falseVal,
		KeywordMacros:    &falseVal,
		InlineMacros:     &trueVal,
		MaxNameLength:    &length,
		KeepNames:        []string{"keep1", "keep2"},
	}

	opts := cfg.ToOptions()

	require.False(t, opts.MinifyWhitespace)
	require.False(t, opts.KeywordMacros)
	require.True(t, opts.InlineMacros)
	require.Equal(t, 0, opts.MaxNameLength)
	// Not set in config: defaults
	require.True(t, opts.RenameIdentifiers)
	require.False(t, opts.RewriteAllGlobals)
	require.Len(t, opts.KeepNames, 2)
}

func TestMerge(t *testing.T) {
	trueVal := true
	falseVal := false

	// Config keeps host names, CLI overrides
	cfg := &Config{RewriteAllGlobals: &falseVal}
	opts := cfg.Merge(MergeOptions{RewriteAllGlobals: &trueVal})
	require.True(t, opts.RewriteAllGlobals, "CLI should win")

	length := 4
	opts = cfg.Merge(MergeOptions{MaxNameLength: &length})
	require.Equal(t, 4, opts.MaxNameLength)
}

func TestMergeDisableStages(t *testing.T) {
	trueVal := true
	cfg := &Config{RenameIdentifiers: &trueVal, TreeShaking: &trueVal}

	opts := cfg.Merge(MergeOptions{
		NoRename:        true,
		NoTreeShaking:   true,
		NoMacros:        true,
		NoGrouping:      true,
		NoNumbers:       true,
		NoKeywordMacros: true,
	})

	require.False(t, opts.RenameIdentifiers)
	require.False(t, opts.TreeShaking)
	require.False(t, opts.InlineMacros)
	require.False(t, opts.GroupDeclarations)
	require.False(t, opts.CompactNumbers)
	require.False(t, opts.KeywordMacros)
	require.True(t, opts.MinifyWhitespace)
}

func TestMergeKeepNames(t *testing.T) {
	cfg := &Config{KeepNames: []string{"configName1", "configName2"}}
	opts := cfg.Merge(MergeOptions{KeepNames: []string{"cliName"}})
	require.Equal(t, []string{"configName1", "configName2", "cliName"}, opts.KeepNames)
}

func TestConfigFileNames(t *testing.T) {
	tmpDir := t.TempDir()

	// A lower-priority file alone is found
	writeFile(t, filepath.Join(tmpDir, "glslmin.toml"), "rewriteAllGlobals = true\n")
	cfg, foundPath, err := Load(tmpDir)
	require.NoError(t, err)
	require.Equal(t, "glslmin.toml", filepath.Base(foundPath))
	require.True(t, *cfg.RewriteAllGlobals)

	// .glslminrc takes precedence over TOML
	writeFile(t, filepath.Join(tmpDir, ".glslminrc"), `{"rewriteAllGlobals": false}`)
	cfg, foundPath, err = Load(tmpDir)
	require.NoError(t, err)
	require.Equal(t, ".glslminrc", filepath.Base(foundPath))
	require.False(t, *cfg.RewriteAllGlobals)

	// glslmin.json takes precedence over everything
	writeFile(t, filepath.Join(tmpDir, "glslmin.json"), `{"keepNames": ["x"]}`)
	cfg, foundPath, err = Load(tmpDir)
	require.NoError(t, err)
	require.Equal(t, "glslmin.json", filepath.Base(foundPath))
	require.Nil(t, cfg.RewriteAllGlobals)
}
