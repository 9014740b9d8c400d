package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"raven/internal/analysis"
	"raven/internal/config"
	"raven/internal/workspace"
)

// session is an indexed workspace for one CLI command.
type session struct {
	root  string
	cfg   config.Config
	state *analysis.State
	store *workspace.Store
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// workspaceRoot picks the root for a path given on the command line: a
// directory is its own root; a file uses the directory of the nearest
// raven.toml, else its own directory.
func workspaceRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return abs, nil
	}
	dir := filepath.Dir(abs)
	manifest, ok, err := config.FindManifest(dir)
	if err != nil {
		return "", err
	}
	if ok {
		return filepath.Dir(manifest), nil
	}
	return dir, nil
}

// openSession loads the configuration for root and indexes the workspace.
// An empty storePath falls back to the configured one.
func openSession(ctx context.Context, root, storePath string, progress workspace.Progress) (*session, error) {
	loader := config.NewLoader(root, run.log)
	cfg, err := loader.Load()
	if err != nil {
		run.log.Warn("configuration", "err", err)
	}
	if storePath == "" {
		storePath = cfg.StorePath
	}
	s := &session{root: root, cfg: cfg}
	if storePath != "" {
		if s.store, err = workspace.OpenStore(storePath, run.log); err != nil {
			return nil, fmt.Errorf("open index store: %w", err)
		}
	}
	// the CLI always indexes, whatever the editor setting says
	cfg.IndexWorkspace = true
	s.state = analysis.New(analysis.Options{
		Root:   root,
		Config: cfg,
		Logger: run.log,
		Store:  s.store,
	})
	err = run.timer.Measure("index", func() error {
		_, err := s.state.IndexWorkspace(ctx, progress)
		return err
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	return s, nil
}

// relPath shows uri relative to the session root when possible.
func (s *session) relPath(path string) string {
	if rel, err := filepath.Rel(s.root, path); err == nil && !filepath.IsAbs(rel) && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
