package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceRoot(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "analysis", "scripts")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(nested, "main.R")
	if err := os.WriteFile(file, []byte("x <- 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := workspaceRoot(nested)
	if err != nil {
		t.Fatalf("workspaceRoot(dir): %v", err)
	}
	if got != nested {
		t.Fatalf("directory root = %q, want %q", got, nested)
	}

	got, err = workspaceRoot(file)
	if err != nil {
		t.Fatalf("workspaceRoot(file): %v", err)
	}
	if got != nested {
		t.Fatalf("file without manifest: root = %q, want %q", got, nested)
	}

	manifest := filepath.Join(dir, "analysis", "raven.toml")
	if err := os.WriteFile(manifest, []byte("[crossFile]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = workspaceRoot(file)
	if err != nil {
		t.Fatalf("workspaceRoot(file): %v", err)
	}
	if want := filepath.Dir(manifest); got != want {
		t.Fatalf("file with manifest: root = %q, want %q", got, want)
	}

	if _, err := workspaceRoot(filepath.Join(dir, "missing.R")); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestRelPath(t *testing.T) {
	s := &session{root: filepath.FromSlash("/project")}
	if got := s.relPath(filepath.FromSlash("/project/src/a.R")); got != filepath.FromSlash("src/a.R") {
		t.Fatalf("relPath inside root = %q", got)
	}
	outside := filepath.FromSlash("/other/b.R")
	if got := s.relPath(outside); got != outside {
		t.Fatalf("relPath outside root = %q, want %q", got, outside)
	}
}
