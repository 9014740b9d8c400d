package analysis

import (
	"errors"
	"os"

	"raven/internal/depgraph"
	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/revalidate"
	"raven/internal/scope"
	"raven/internal/source"
	"raven/internal/syntax"
	"raven/internal/workspace"
)

// Open registers an editor buffer. The returned plan lists the open files
// to revalidate, uri first.
func (s *State) Open(uri string, version int32, text string) revalidate.Plan {
	s.activity.Touch(uri)
	plan, meta := s.update(uri, version, text)
	s.ensureIndexed(uri, meta)
	return plan
}

// Edit replaces the text of an open buffer.
func (s *State) Edit(uri string, version int32, text string) revalidate.Plan {
	plan, meta := s.update(uri, version, text)
	s.ensureIndexed(uri, meta)
	return plan
}

// Save marks the on-disk copy stale and bumps the revision so that work
// started before the save is not published.
func (s *State) Save(uri string) revalidate.Plan {
	s.files.Invalidate(uri)
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	if !ok {
		return revalidate.Plan{}
	}
	s.revision++
	next := *d
	next.Revision = s.revision
	s.docs[uri] = &next
	return revalidate.BuildPlan(uri, nil, s.isOpenLocked, s.activity, 0)
}

// Close drops the buffer and falls back to the file on disk. Files that no
// longer exist leave the graph.
func (s *State) Close(uri string) revalidate.Plan {
	s.mu.Lock()
	_, ok := s.docs[uri]
	delete(s.docs, uri)
	delete(s.deferred, uri)
	s.metadata.Remove(uri)
	s.artifacts.Invalidate(uri)
	s.index.MarkClosed(uri)
	s.revision++
	s.mu.Unlock()

	s.gate.Clear(uri)
	s.activity.Remove(uri)
	if !ok {
		return revalidate.Plan{}
	}
	s.files.Invalidate(uri)
	if _, err := s.indexer.IndexFile(uri); err != nil {
		s.log.Debug("closed document not on disk", "uri", uri, "err", err)
		return s.forget(uri)
	}
	return revalidate.Plan{}
}

// FileChanged handles a watched-file create or change event. Open
// documents are authoritative and ignore it.
func (s *State) FileChanged(uri string) revalidate.Plan {
	if s.IsOpen(uri) {
		return revalidate.Plan{}
	}
	s.files.Invalidate(uri)
	if _, err := s.indexer.IndexFile(uri); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.forget(uri)
		}
		s.log.Warn("reindex failed", "uri", uri, "err", err)
	}
	return revalidate.Plan{}
}

// FileDeleted handles a watched-file delete event.
func (s *State) FileDeleted(uri string) revalidate.Plan {
	if s.IsOpen(uri) {
		return revalidate.Plan{}
	}
	s.files.Invalidate(uri)
	s.index.Remove(uri)
	return s.forget(uri)
}

func (s *State) update(uri string, version int32, text string) (revalidate.Plan, *metadata.FileMetadata) {
	file := source.FromString(pathres.URIToPath(uri), text)
	tree := syntax.Parse(file)
	meta := s.extractor.Extract(file, tree)
	art := scope.ComputeArtifacts(uri, meta, tree)
	parents := s.parentContents(uri, meta)
	s.index.MarkOpen(uri)

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, _ := s.metadataLocked(uri)
	s.revision++
	s.docs[uri] = &Document{
		URI:       uri,
		Version:   version,
		Revision:  s.revision,
		File:      file,
		Tree:      tree,
		Meta:      meta,
		Artifacts: art,
	}
	s.metadata.Insert(uri, meta)

	changed := s.applyLocked(uri, meta, parents, art)
	wdChanged := prev.WorkDir() != meta.WorkDir()
	affected := s.fanoutLocked(uri, changed, wdChanged)
	return s.planLocked(uri, affected), meta
}

// applyIndexed folds a closed file read from disk into the graph.
func (s *State) applyIndexed(uri string, e *workspace.Entry) {
	parents := s.parentContents(uri, e.Metadata)

	s.mu.Lock()
	if s.isOpenLocked(uri) {
		s.mu.Unlock()
		return
	}
	prev, _ := s.metadataLocked(uri)
	s.metadata.Insert(uri, e.Metadata)
	changed := s.applyLocked(uri, e.Metadata, parents, e.Artifacts)
	wdChanged := prev != nil && prev.WorkDir() != e.Metadata.WorkDir()
	affected := s.fanoutLocked(uri, changed, wdChanged)
	plan := s.planLocked("", affected)
	s.mu.Unlock()

	s.notify(plan)
}

// applyLocked updates the graph for uri and reports whether dependents can
// observe the change: edges moved or the exported interface differs. art
// may be nil for files restored from the store.
func (s *State) applyLocked(uri string, meta *metadata.FileMetadata, parents map[string]string, art *scope.Artifacts) bool {
	res := s.graph.UpdateFile(uri, meta, s.paths, s.contentFunc(parents))
	if len(res.Conflicts) > 0 {
		s.conflicts[uri] = res.Conflicts
	} else {
		delete(s.conflicts, uri)
	}
	s.artifacts.Invalidate(uri)
	s.parents.Invalidate(uri)
	s.refreshBackedLocked(uri)

	old, had := s.ifaces[uri]
	if art == nil {
		return res.Changed || !had
	}
	s.ifaces[uri] = art.InterfaceHash
	return res.Changed || !had || old != art.InterfaceHash
}

// refreshBackedLocked recomputes the edges children declared towards uri
// with their own backward directives, whose call sites may have been
// inferred from uri's previous content.
func (s *State) refreshBackedLocked(uri string) {
	for _, e := range s.graph.Dependencies(uri) {
		for _, ev := range s.graph.Evidence(e.To) {
			if ev.Parent != uri || ev.CallSite.Line != nil {
				continue
			}
			if meta, ok := s.metadataLocked(e.To); ok {
				s.graph.UpdateFile(e.To, meta, s.paths, s.contentFunc(nil))
				s.parents.Invalidate(e.To)
			}
			break
		}
	}
}

// fanoutLocked collects the files whose scope may depend on uri, drops
// their cached artifacts and parent choices, and forces a republish of the
// open ones. Dependents see uri's exports; files uri includes see uri as
// their parent, and so do they when uri's working directory moves.
func (s *State) fanoutLocked(uri string, changed, wdChanged bool) []string {
	if !changed && !wdChanged {
		return nil
	}
	seen := map[string]struct{}{uri: {}}
	var out []string
	add := func(list []string) {
		for _, u := range list {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	if changed {
		add(s.graph.TransitiveDependents(uri, s.cfg.MaxChainDepth))
	}
	add(s.graph.TransitiveDependencies(uri, s.cfg.MaxForwardDepth))

	for _, u := range out {
		s.artifacts.Invalidate(u)
		s.parents.Invalidate(u)
		if s.isOpenLocked(u) {
			s.gate.MarkForce(u)
		}
	}
	return out
}

func (s *State) planLocked(trigger string, affected []string) revalidate.Plan {
	plan := revalidate.BuildPlan(trigger, affected, s.isOpenLocked, s.activity, s.cfg.MaxRevalidationsPerTrigger)
	for _, u := range plan.Scheduled {
		delete(s.deferred, u)
	}
	for _, u := range plan.Deferred {
		s.deferred[u] = struct{}{}
	}
	return plan
}

// forget removes a file that no longer exists.
func (s *State) forget(uri string) revalidate.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	affected := s.fanoutLocked(uri, true, false)
	s.graph.RemoveFile(uri)
	delete(s.ifaces, uri)
	delete(s.conflicts, uri)
	s.metadata.Remove(uri)
	s.artifacts.Invalidate(uri)
	s.parents.Invalidate(uri)
	return s.planLocked("", affected)
}

// parentContents reads the parents named by backward directives, so that
// match= hints and call-site inference can run under the lock.
func (s *State) parentContents(uri string, meta *metadata.FileMetadata) map[string]string {
	if meta == nil || len(meta.SourcedBy) == 0 {
		return nil
	}
	ctx := s.paths.ForBackward(uri)
	out := make(map[string]string, len(meta.SourcedBy))
	for _, d := range meta.SourcedBy {
		parent, ok := ctx.Resolve(d.Path)
		if !ok || s.index.IsOpen(parent) {
			continue
		}
		if text, _, err := s.files.Read(parent); err == nil {
			out[parent] = text
		}
	}
	return out
}

// contentFunc serves file text under the lock: open buffers, then
// pre-read parents, then whatever the file cache already holds.
func (s *State) contentFunc(pre map[string]string) depgraph.ContentFunc {
	return func(uri string) (string, bool) {
		if d, ok := s.docs[uri]; ok {
			return d.File.Text(), true
		}
		if text, ok := pre[uri]; ok {
			return text, true
		}
		return s.files.Peek(uri)
	}
}
