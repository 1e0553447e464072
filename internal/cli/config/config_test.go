package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with no config file: %v", err)
	}

	if cfg.Output != "docs/metadata" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if len(cfg.Formats) != 1 || cfg.Formats[0] != "html" {
		t.Errorf("Formats = %v", cfg.Formats)
	}
	if cfg.Serve.Port != 8080 {
		t.Errorf("Serve.Port = %d", cfg.Serve.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `output: build/fragments
formats: [html, markdown]
title: GFS Physics
serve:
  port: 9001
`
	if err := os.WriteFile(filepath.Join(dir, "ccppdoc.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Output != "build/fragments" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if len(cfg.Formats) != 2 {
		t.Errorf("Formats = %v", cfg.Formats)
	}
	if cfg.Title != "GFS Physics" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Serve.Port != 9001 {
		t.Errorf("Serve.Port = %d", cfg.Serve.Port)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ccppdoc.yaml"), []byte("formats: [pdf]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoadFromProjectRoot(t *testing.T) {
	root := t.TempDir()
	content := `output: build/fragments
title: GFS Physics
`
	if err := os.WriteFile(filepath.Join(root, "ccppdoc.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "schemes", "mp")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	chdir(t, nested)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The root config applies even though the working directory has none.
	if cfg.Output != "build/fragments" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Title != "GFS Physics" {
		t.Errorf("Title = %q", cfg.Title)
	}
}

func TestGetProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "ccppdoc.yaml"), []byte("output: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "schemes", "mp")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	chdir(t, nested)

	got, err := GetProjectRoot()
	if err != nil {
		t.Fatalf("GetProjectRoot: %v", err)
	}
	// Resolve symlinks: t.TempDir may sit behind one on some platforms.
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("root = %q, want %q", gotResolved, want)
	}
}
