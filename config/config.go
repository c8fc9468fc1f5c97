// Package config loads equatable.toml, the optional project configuration of
// the equatable command. Settings given on the command line override it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "equatable.toml"

// ErrNotFound is returned by Find when no configuration file exists in the
// given directory or any of its parents.
var ErrNotFound = errors.New("no " + FileName + " found")

const (
	DefaultFileSuffix     = ".eq.go"
	DefaultFormat         = "pretty"
	DefaultColor          = "auto"
	DefaultMaxDiagnostics = 100
)

// Config is the content of equatable.toml.
type Config struct {
	Generate    Generate    `toml:"generate"`
	Diagnostics Diagnostics `toml:"diagnostics"`

	// Path is the file the configuration was loaded from. It is empty for the
	// default configuration.
	Path string `toml:"-"`
}

// Generate configures code generation.
type Generate struct {
	IncludeTests bool   `toml:"include_tests"`
	OutputDir    string `toml:"output_dir"`
	FileSuffix   string `toml:"file_suffix"`
	Jobs         int    `toml:"jobs"`
}

// Diagnostics configures how diagnostics are reported.
type Diagnostics struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
	Max    int    `toml:"max"`
}

// Default returns the configuration used when there is no configuration file.
func Default() *Config {
	return &Config{
		Generate: Generate{
			FileSuffix: DefaultFileSuffix,
		},
		Diagnostics: Diagnostics{
			Format: DefaultFormat,
			Color:  DefaultColor,
			Max:    DefaultMaxDiagnostics,
		},
	}
}

// Find walks up from startDir to locate equatable.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotFound
}

// Load reads the configuration file at the given path. Keys that are absent
// keep their default values. Relative output directories are resolved
// against the directory that contains the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("generate", "file_suffix") && !strings.HasSuffix(cfg.Generate.FileSuffix, ".go") {
		return nil, fmt.Errorf("%s: [generate].file_suffix must end with .go", path)
	}
	if !meta.IsDefined("generate", "file_suffix") || strings.TrimSpace(cfg.Generate.FileSuffix) == "" {
		cfg.Generate.FileSuffix = DefaultFileSuffix
	}
	if cfg.Generate.Jobs < 0 {
		return nil, fmt.Errorf("%s: [generate].jobs must not be negative", path)
	}
	if cfg.Generate.OutputDir != "" && !filepath.IsAbs(cfg.Generate.OutputDir) {
		cfg.Generate.OutputDir = filepath.Join(filepath.Dir(path), filepath.FromSlash(cfg.Generate.OutputDir))
	}
	if !meta.IsDefined("diagnostics", "format") || strings.TrimSpace(cfg.Diagnostics.Format) == "" {
		cfg.Diagnostics.Format = DefaultFormat
	}
	if !meta.IsDefined("diagnostics", "color") || strings.TrimSpace(cfg.Diagnostics.Color) == "" {
		cfg.Diagnostics.Color = DefaultColor
	}
	if cfg.Diagnostics.Max < 0 {
		return nil, fmt.Errorf("%s: [diagnostics].max must not be negative", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Resolve loads the configuration file at the given path or, if the path is
// empty, the one found by Find starting from dir. The default configuration
// is returned when no file is found.
func Resolve(path, dir string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	found, err := Find(dir)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	} else if err != nil {
		return nil, err
	}
	return Load(found)
}
