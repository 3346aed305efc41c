// Package config loads treeline.toml project files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up by Find.
const FileName = "treeline.toml"

// Config is the decoded project file.
type Config struct {
	// Indent is "tab" or "space".
	Indent      string   `toml:"indent"`
	IndentWidth int      `toml:"indent_width"`
	IncludeDirs []string `toml:"include_dirs"`
	Extensions  []string `toml:"extensions"`
	EnvPrefix   string   `toml:"env_prefix"`
	MaxDepth    int      `toml:"max_depth"`
	CacheSize   int      `toml:"cache_size"`

	Constants map[string]string `toml:"constants"`
	Builtins  []string          `toml:"builtins"`
	// Imports maps a symbol name to the module that provides it.
	Imports map[string]string `toml:"imports"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Indent:     "tab",
		Extensions: []string{".tl"},
		EnvPrefix:  "env.",
		MaxDepth:   16,
		Constants:  map[string]string{},
		Imports:    map[string]string{},
	}
}

// Root returns the directory holding the config file, or "." for defaults.
func (c *Config) Root() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// IndentUnit returns the string one indentation level is made of.
func (c *Config) IndentUnit() string {
	if c.Indent == "space" {
		return strings.Repeat(" ", c.IndentWidth)
	}
	return "\t"
}

// IncludePaths returns IncludeDirs resolved against the config root.
func (c *Config) IncludePaths() []string {
	out := make([]string, 0, len(c.IncludeDirs))
	for _, d := range c.IncludeDirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(c.Root(), d)
		}
		out = append(out, d)
	}
	return out
}

// Load decodes the file at path on top of Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	switch cfg.Indent {
	case "tab":
	case "space":
		if !meta.IsDefined("indent_width") {
			cfg.IndentWidth = 4
		}
		if cfg.IndentWidth <= 0 {
			return nil, fmt.Errorf("%s: indent_width must be positive", path)
		}
	default:
		return nil, fmt.Errorf("%s: indent must be \"tab\" or \"space\", got %q", path, cfg.Indent)
	}
	if cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("%s: max_depth must be positive", path)
	}
	for i, ext := range cfg.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			cfg.Extensions[i] = "." + ext
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cfg.Path = path
	return cfg, nil
}

// Find walks up from startDir to locate treeline.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest treeline.toml above startDir, or returns
// Default when there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
