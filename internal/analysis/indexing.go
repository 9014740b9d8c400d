package analysis

import (
	"context"
	"errors"

	"raven/internal/metadata"
	"raven/internal/workspace"
)

// IndexWorkspace discovers and indexes every R file under the root.
func (s *State) IndexWorkspace(ctx context.Context, progress workspace.Progress) (int, error) {
	if s.root == "" || !s.Config().IndexWorkspace {
		return 0, nil
	}
	paths, err := workspace.Discover(s.root)
	if err != nil {
		return 0, err
	}
	s.log.Info("indexing workspace", "root", s.root, "files", len(paths))
	return len(paths), s.indexer.IndexAll(ctx, paths, progress)
}

// RunIndexer serves the on-demand queue until ctx is done.
func (s *State) RunIndexer(ctx context.Context) {
	s.indexer.Run(ctx)
}

// ensureIndexed queues the files a document refers to that the workspace
// does not know yet: its includes synchronously, the parents named by its
// backward directives, and further includes of both up to the configured
// transitive depth.
func (s *State) ensureIndexed(uri string, meta *metadata.FileMetadata) {
	cfg := s.Config()
	if !cfg.OnDemand.Enabled || meta == nil {
		return
	}
	var frontier []string
	ctx := s.paths.ForMetadata(uri, meta)
	for _, src := range meta.Sources {
		if target, ok := ctx.Resolve(src.Path); ok {
			s.enqueue(target, workspace.PrioritySourced)
			frontier = append(frontier, target)
		}
	}
	back := s.paths.ForBackward(uri)
	for _, d := range meta.SourcedBy {
		if parent, ok := back.Resolve(d.Path); ok {
			s.enqueue(parent, workspace.PriorityBackward)
		}
	}

	seen := map[string]struct{}{uri: {}}
	for depth := 0; depth < cfg.OnDemand.MaxTransitiveDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, u := range frontier {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			m, ok := s.Metadata(u)
			if !ok {
				continue
			}
			c := s.paths.ForMetadata(u, m)
			for _, src := range m.Sources {
				if target, ok := c.Resolve(src.Path); ok {
					s.enqueue(target, workspace.PriorityTransitive)
					next = append(next, target)
				}
			}
		}
		frontier = next
	}
}

func (s *State) enqueue(uri string, priority int) {
	if s.Known(uri) {
		return
	}
	if err := s.indexer.Enqueue(uri, priority); err != nil && !errors.Is(err, workspace.ErrQueueDisabled) {
		s.log.Debug("on-demand index failed", "uri", uri, "priority", priority, "err", err)
	}
}

// hydrate computes artifacts for closed files a query on uri may visit
// that were restored from the store without them. It reads from disk and
// must run before the lock is taken.
func (s *State) hydrate(uri string) {
	cfg := s.Config()
	roots := append([]string{uri}, s.graph.TransitiveDependents(uri, cfg.MaxBackwardDepth)...)
	seen := make(map[string]struct{})
	check := func(u string) {
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		if e, ok := s.index.Get(u); ok && e.Artifacts == nil {
			s.indexer.Artifacts(u)
		}
	}
	for _, r := range roots {
		check(r)
		for _, u := range s.graph.TransitiveDependencies(r, cfg.MaxForwardDepth) {
			check(u)
		}
	}
}

// Resolve maps a path written in uri to a URI, honouring @lsp-cd.
func (s *State) Resolve(uri, path string) (string, bool) {
	meta, _ := s.Metadata(uri)
	return s.paths.ForMetadata(uri, meta).Resolve(path)
}
