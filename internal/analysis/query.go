package analysis

import (
	"raven/internal/scope"
	"raven/internal/source"
)

// ScopeAt resolves the symbols visible at a zero-based line and UTF-16
// column of uri.
func (s *State) ScopeAt(uri string, line, col uint32) scope.Result {
	s.hydrate(uri)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver.ScopeAt(uri, source.Pos{Line: line, Col: col})
}

// Layers returns the whole-file environment of uri. The result is shared
// with the cache and must not be modified.
func (s *State) Layers(uri string) *scope.Layers {
	s.hydrate(uri)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layersLocked(uri)
}

// Parent returns the selected includer of uri.
func (s *State) Parent(uri string) scope.Parent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver.Parent(uri)
}

// Lookup finds the visible definition of name at a position.
func (s *State) Lookup(uri, name string, line, col uint32) (scope.Symbol, bool) {
	res := s.ScopeAt(uri, line, col)
	sym, ok := res.Symbols[name]
	return sym, ok
}
