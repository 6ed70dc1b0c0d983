// Package config handles loading minifier configuration from files.
//
// Configuration can be specified in a JSON file named glslmin.json,
// .glslminrc or .glslminrc.json, in TOML as glslmin.toml, or in YAML as
// glslmin.yaml / glslmin.yml. The config file is searched for in the
// current directory and parent directories.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/HugoDaniel/glslmin/internal/minifier"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// RewriteAllGlobals renames uniforms and attributes as well
	RewriteAllGlobals *bool `json:"rewriteAllGlobals,omitempty" toml:"rewriteAllGlobals" yaml:"rewriteAllGlobals"`

	// TreeShaking enables dead function elimination (default true)
	TreeShaking *bool `json:"treeShaking,omitempty" toml:"treeShaking" yaml:"treeShaking"`

	// InlineMacros replaces constant macros by their value
	InlineMacros *bool `json:"inlineMacros,omitempty" toml:"inlineMacros" yaml:"inlineMacros"`

	// RenameIdentifiers renames identifiers to shorter names
	RenameIdentifiers *bool `json:"renameIdentifiers,omitempty" toml:"renameIdentifiers" yaml:"renameIdentifiers"`

	// GroupDeclarations merges declarations of the same qualifier and type
	GroupDeclarations *bool `json:"groupDeclarations,omitempty" toml:"groupDeclarations" yaml:"groupDeclarations"`

	// CompactNumbers shortens numeric literals
	CompactNumbers *bool `json:"compactNumbers,omitempty" toml:"compactNumbers" yaml:"compactNumbers"`

	// KeywordMacros abbreviates frequent keywords with #defines
	KeywordMacros *bool `json:"keywordMacros,omitempty" toml:"keywordMacros" yaml:"keywordMacros"`

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace *bool `json:"minifyWhitespace,omitempty" toml:"minifyWhitespace" yaml:"minifyWhitespace"`

	// MaxNameLength bounds generated names (0 = unbounded)
	MaxNameLength *int `json:"maxNameLength,omitempty" toml:"maxNameLength" yaml:"maxNameLength"`

	// KeepNames lists identifier names that should not be renamed
	KeepNames []string `json:"keepNames,omitempty" toml:"keepNames" yaml:"keepNames"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"glslmin.json",
	".glslminrc",
	".glslminrc.json",
	"glslmin.toml",
	"glslmin.yaml",
	"glslmin.yml",
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

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path. The format
// follows the extension; anything that is not TOML or YAML is JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.MaxNameLength != nil && *cfg.MaxNameLength < 0 {
		return nil, fmt.Errorf("%s: maxNameLength must not be negative", path)
	}

	return &cfg, nil
}

// ToOptions converts a Config to minifier.Options, using defaults for unset fields.
func (c *Config) ToOptions() minifier.Options {
	opts := minifier.DefaultOptions()

	setBool(&opts.RewriteAllGlobals, c.RewriteAllGlobals)
	setBool(&opts.TreeShaking, c.TreeShaking)
	setBool(&opts.InlineMacros, c.InlineMacros)
	setBool(&opts.RenameIdentifiers, c.RenameIdentifiers)
	setBool(&opts.GroupDeclarations, c.GroupDeclarations)
	setBool(&opts.CompactNumbers, c.CompactNumbers)
	setBool(&opts.KeywordMacros, c.KeywordMacros)
	setBool(&opts.MinifyWhitespace, c.MinifyWhitespace)
	if c.MaxNameLength != nil {
		opts.MaxNameLength = *c.MaxNameLength
	}
	if len(c.KeepNames) > 0 {
		opts.KeepNames = c.KeepNames
	}

	return opts
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// MergeOptions holds the options given on the command line.
// CLI options take precedence over config file options.
type MergeOptions struct {
	// CLI flags (nil means not specified on CLI)
	RewriteAllGlobals *bool
	MinifyWhitespace  *bool
	MaxNameLength     *int
	NoRename          bool
	NoTreeShaking     bool
	NoMacros          bool
	NoGrouping        bool
	NoNumbers         bool
	NoKeywordMacros   bool
	KeepNames         []string
}

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) minifier.Options {
	opts := c.ToOptions()

	// CLI overrides
	setBool(&opts.RewriteAllGlobals, cli.RewriteAllGlobals)
	setBool(&opts.MinifyWhitespace, cli.MinifyWhitespace)
	if cli.MaxNameLength != nil {
		opts.MaxNameLength = *cli.MaxNameLength
	}
	if cli.NoRename {
		opts.RenameIdentifiers = false
	}
	if cli.NoTreeShaking {
		opts.TreeShaking = false
	}
	if cli.NoMacros {
		opts.InlineMacros = false
	}
	if cli.NoGrouping {
		opts.GroupDeclarations = false
	}
	if cli.NoNumbers {
		opts.CompactNumbers = false
	}
	if cli.NoKeywordMacros {
		opts.KeywordMacros = false
	}
	if len(cli.KeepNames) > 0 {
		// Append CLI keep names to config keep names
		opts.KeepNames = append(opts.KeepNames, cli.KeepNames...)
	}

	return opts
}
