package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[generate]
include_tests = true
output_dir = "gen"
jobs = 4

[diagnostics]
format = "json"
max = 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Generate.IncludeTests || cfg.Generate.Jobs != 4 {
		t.Fatalf("unexpected [generate]: %+v", cfg.Generate)
	}
	if cfg.Generate.OutputDir != filepath.Join(dir, "gen") {
		t.Fatalf("output_dir should be relative to the file: %s", cfg.Generate.OutputDir)
	}
	if cfg.Generate.FileSuffix != DefaultFileSuffix {
		t.Fatalf("file_suffix should default to %s: %s", DefaultFileSuffix, cfg.Generate.FileSuffix)
	}
	if cfg.Diagnostics.Format != "json" || cfg.Diagnostics.Color != DefaultColor || cfg.Diagnostics.Max != 10 {
		t.Fatalf("unexpected [diagnostics]: %+v", cfg.Diagnostics)
	}
	if cfg.Path != path {
		t.Fatalf("unexpected path: %s", cfg.Path)
	}
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Generate != def.Generate || cfg.Diagnostics != def.Diagnostics {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	testCases := map[string]string{
		"[generate]\nfile_suffix = \".eq\"\n": "file_suffix",
		"[generate]\njobs = -1\n":             "jobs",
		"[diagnostics]\nmax = -5\n":           "max",
		"[generate]\nparallel = true\n":       "unknown keys: generate.parallel",
		"[generate\n":                         "failed to parse TOML",
	}
	for content, want := range testCases {
		_, err := Load(writeConfig(t, t.TempDir(), content))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("for %q expected error containing %q, got %v", content, want, err)
		}
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := Find(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != path {
		t.Fatalf("expected %s, got %s", path, found)
	}
}

func TestResolve(t *testing.T) {
	// nothing above a fresh temp dir is expected to hold a configuration file
	dir := t.TempDir()
	if _, err := Find(dir); !errors.Is(err, ErrNotFound) {
		t.Skipf("a configuration file exists above %s", dir)
	}
	cfg, err := Resolve("", dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Path != "" || cfg.Diagnostics.Max != DefaultMaxDiagnostics {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	path := writeConfig(t, t.TempDir(), "[diagnostics]\ncolor = \"off\"\n")
	cfg, err = Resolve(path, dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Diagnostics.Color != "off" {
		t.Fatalf("explicit path should be loaded: %+v", cfg)
	}
}
