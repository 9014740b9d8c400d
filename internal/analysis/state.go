// Package analysis owns the shared cross-file state of the server: open
// documents, the dependency graph, the caches and the workspace index.
// Queries take the read lock, document and configuration changes take the
// write lock, and nothing touches the disk while either is held.
package analysis

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"raven/internal/cache"
	"raven/internal/config"
	"raven/internal/depgraph"
	"raven/internal/extract"
	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/revalidate"
	"raven/internal/scope"
	"raven/internal/source"
	"raven/internal/syntax"
	"raven/internal/workspace"
)

// Document is an open editor buffer and everything derived from it.
type Document struct {
	URI       string
	Version   int32
	Revision  uint64
	File      *source.File
	Tree      *syntax.Tree
	Meta      *metadata.FileMetadata
	Artifacts *scope.Artifacts
}

// Snapshot identifies the buffer state diagnostics were computed from.
func (d *Document) Snapshot() revalidate.Snapshot {
	return revalidate.Snapshot{Version: d.Version, Revision: d.Revision}
}

// Options configure a State.
type Options struct {
	Root      string
	Config    config.Config
	Logger    *slog.Logger
	Extractor extract.Extractor
	// Store enables the persistent index; may be nil.
	Store *workspace.Store
}

type State struct {
	mu sync.RWMutex

	cfg       config.Config
	root      string
	paths     *pathres.Workspace
	extractor extract.Extractor
	log       *slog.Logger

	docs      map[string]*Document
	revision  uint64
	graph     *depgraph.Graph
	conflicts map[string][]depgraph.Conflict
	ifaces    map[string]uint64
	deferred  map[string]struct{}

	metadata  *cache.MetadataCache
	artifacts *cache.ArtifactsCache
	parents   *cache.ParentCache

	index   *workspace.Index
	files   *workspace.FileCache
	indexer *workspace.Indexer

	resolver *scope.Resolver
	gate     *revalidate.Gate
	activity *revalidate.Activity

	hookMu       sync.Mutex
	onRevalidate func(revalidate.Plan)
}

// New builds an empty state. Call IndexWorkspace to populate closed files.
func New(opts Options) *State {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	x := opts.Extractor
	if x == nil {
		x = extract.NewR(log)
	}
	cfg := opts.Config
	s := &State{
		cfg:       cfg,
		root:      opts.Root,
		paths:     pathres.NewWorkspace(opts.Root),
		extractor: x,
		log:       log,
		docs:      make(map[string]*Document),
		graph:     depgraph.New(),
		conflicts: make(map[string][]depgraph.Conflict),
		ifaces:    make(map[string]uint64),
		deferred:  make(map[string]struct{}),
		metadata:  cache.NewMetadataCache(cfg.MetadataCacheSize),
		artifacts: cache.NewArtifactsCache(),
		parents:   cache.NewParentCache(),
		index:     workspace.NewIndex(cfg.IndexCapacity),
		files:     workspace.NewFileCache(),
		gate:      revalidate.NewGate(),
		activity:  revalidate.NewActivity(),
	}
	s.indexer = workspace.NewIndexer(s.index, s.files, opts.Store, x, log)
	s.indexer.SetSettings(cfg.Indexing())
	s.indexer.OnIndexed = s.applyIndexed
	s.resolver = &scope.Resolver{
		Files:    provider{s},
		Graph:    s.graph,
		Paths:    s.paths,
		Parents:  s.parents,
		Settings: cfg.Scope(),
	}
	return s
}

// OnRevalidate registers the callback that receives plans produced
// outside document events, e.g. by background indexing.
func (s *State) OnRevalidate(fn func(revalidate.Plan)) {
	s.hookMu.Lock()
	s.onRevalidate = fn
	s.hookMu.Unlock()
}

func (s *State) notify(plan revalidate.Plan) {
	if len(plan.Scheduled) == 0 {
		return
	}
	s.hookMu.Lock()
	fn := s.onRevalidate
	s.hookMu.Unlock()
	if fn != nil {
		fn(plan)
	}
}

func (s *State) Root() string { return s.root }
func (s *State) Graph() *depgraph.Graph { return s.graph }
func (s *State) Index() *workspace.Index { return s.index }
func (s *State) Indexer() *workspace.Indexer { return s.indexer }
func (s *State) Activity() *revalidate.Activity { return s.activity }
func (s *State) Paths() pathres.Resolver { return s.paths }

func (s *State) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig installs new settings. Cache capacities are applied in place.
// A change to scope settings drops every cached artifact and parent choice;
// any change republishes all open documents, which the returned plan lists.
func (s *State) SetConfig(cfg config.Config) revalidate.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cfg
	s.cfg = cfg
	s.resolver.Settings = cfg.Scope()
	s.indexer.SetSettings(cfg.Indexing())
	if cfg.MetadataCacheSize != old.MetadataCacheSize {
		s.metadata.Resize(cfg.MetadataCacheSize)
	}
	if cfg.IndexCapacity != old.IndexCapacity {
		if n := s.index.Resize(cfg.IndexCapacity); n > 0 {
			s.log.Info("index shrunk", "capacity", cfg.IndexCapacity, "evicted", n)
		}
	}
	if old.ScopeSettingsChanged(cfg) {
		s.log.Info("scope settings changed; invalidating caches")
		s.artifacts.InvalidateAll()
		s.parents.InvalidateAll()
	}
	open := s.openLocked()
	for _, uri := range open {
		s.gate.MarkForce(uri)
		delete(s.deferred, uri)
	}
	return revalidate.BuildPlan("", open, nil, s.activity, 0)
}

// Document returns the open document for uri.
func (s *State) Document(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

// IsOpen reports whether uri is open in the editor.
func (s *State) IsOpen(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[uri]
	return ok
}

// OpenDocuments lists open URIs, sorted.
func (s *State) OpenDocuments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openLocked()
}

func (s *State) openLocked() []string {
	return slices.Sorted(maps.Keys(s.docs))
}

func (s *State) isOpenLocked(uri string) bool {
	_, ok := s.docs[uri]
	return ok
}

// Snapshot returns the current snapshot of an open document.
func (s *State) Snapshot(uri string) (revalidate.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok {
		return revalidate.Snapshot{}, false
	}
	return d.Snapshot(), true
}

// Fresh reports whether snap still describes the open document.
func (s *State) Fresh(uri string, snap revalidate.Snapshot) bool {
	cur, open := s.Snapshot(uri)
	return snap.Fresh(cur, open)
}

// CanPublish and RecordPublish guard diagnostics publication order.
func (s *State) CanPublish(uri string, version int32) bool {
	return s.gate.CanPublish(uri, version)
}

func (s *State) RecordPublish(uri string, version int32) {
	s.gate.RecordPublish(uri, version)
}

// ClaimDeferred reports whether uri was left out of an earlier revalidation
// and clears the mark; callers revalidate it now.
func (s *State) ClaimDeferred(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deferred[uri]; !ok {
		return false
	}
	delete(s.deferred, uri)
	return true
}

// Known reports whether uri is open or indexed.
func (s *State) Known(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.knownLocked(uri)
}

func (s *State) knownLocked(uri string) bool {
	if _, ok := s.docs[uri]; ok {
		return true
	}
	_, ok := s.index.Get(uri)
	return ok
}
