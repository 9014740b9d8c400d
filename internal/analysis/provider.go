package analysis

import (
	"raven/internal/cache"
	"raven/internal/metadata"
	"raven/internal/scope"
)

// provider serves the scope resolver. Its methods run with s.mu held by
// the caller and only touch fine-grained caches.
type provider struct{ s *State }

func (p provider) Metadata(uri string) (*metadata.FileMetadata, bool) {
	return p.s.metadataLocked(uri)
}

func (p provider) Artifacts(uri string) (*scope.Artifacts, bool) {
	return p.s.artifactsLocked(uri)
}

func (s *State) metadataLocked(uri string) (*metadata.FileMetadata, bool) {
	if d, ok := s.docs[uri]; ok {
		return d.Meta, true
	}
	if m, ok := s.metadata.Get(uri); ok {
		return m, true
	}
	e, ok := s.index.Get(uri)
	if !ok || e.Metadata == nil {
		return nil, false
	}
	s.metadata.Insert(uri, e.Metadata)
	return e.Metadata, true
}

// artifactsLocked returns the artifacts computed when the file was last
// opened, edited or indexed, along with the content hash they came from.
func (s *State) artifactsLocked(uri string) (*scope.Artifacts, bool) {
	a, _, ok := s.ownArtifactsLocked(uri)
	return a, ok
}

func (s *State) ownArtifactsLocked(uri string) (*scope.Artifacts, uint64, bool) {
	if d, ok := s.docs[uri]; ok {
		return d.Artifacts, d.File.Hash, true
	}
	e, ok := s.index.Get(uri)
	if !ok || e.Artifacts == nil {
		return nil, 0, false
	}
	return e.Artifacts, e.Snapshot.ContentHash, true
}

// fingerprintLocked covers the inputs of uri's resolved layers that can
// change without a fanout: its own content and edges, the interfaces of
// the files it includes and the content of the files that include it.
func (s *State) fingerprintLocked(uri string, self uint64) cache.Fingerprint {
	var upstream, parents []uint64
	for _, e := range s.graph.Dependencies(uri) {
		if a, _, ok := s.ownArtifactsLocked(e.To); ok {
			upstream = append(upstream, a.InterfaceHash)
		}
	}
	for _, e := range s.graph.Dependents(uri) {
		if _, h, ok := s.ownArtifactsLocked(e.From); ok {
			parents = append(parents, h)
		}
	}
	deps := cache.Combine(cache.Combine(upstream...), cache.Combine(parents...))
	return cache.FingerprintOf(self, s.graph.EdgesHash(uri), deps, s.index.Version())
}

// layersLocked returns the resolved environment of uri, reusing the cached
// one while its fingerprint holds. Changes further up or down the graph
// reach it through fanoutLocked.
func (s *State) layersLocked(uri string) *scope.Layers {
	_, self, ok := s.ownArtifactsLocked(uri)
	if !ok {
		return s.resolver.LayersOf(uri)
	}
	fp := s.fingerprintLocked(uri, self)
	if l, ok := s.artifacts.GetIfFresh(uri, fp); ok {
		return l
	}
	l := s.resolver.LayersOf(uri)
	s.artifacts.Insert(uri, fp, l)
	return l
}

// Artifacts returns the artifacts of an open or indexed file.
func (s *State) Artifacts(uri string) (*scope.Artifacts, bool) {
	s.hydrate(uri)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifactsLocked(uri)
}

// Metadata returns the metadata of an open or indexed file.
func (s *State) Metadata(uri string) (*metadata.FileMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadataLocked(uri)
}
