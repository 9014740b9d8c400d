package revalidate

import "sync"

// Gate keeps diagnostic publication monotonic per URI: never older than
// what was last published, and the same version only when a republish was
// forced because a dependency changed.
type Gate struct {
	mu        sync.Mutex
	published map[string]int32
	force     map[string]struct{}
}

func NewGate() *Gate {
	return &Gate{
		published: make(map[string]int32),
		force:     make(map[string]struct{}),
	}
}

// CanPublish reports whether diagnostics for version may go out.
func (g *Gate) CanPublish(uri string, version int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.published[uri]
	if !ok {
		return true
	}
	if _, forced := g.force[uri]; forced {
		return version >= last
	}
	return version > last
}

// MarkForce allows one republish of the current version.
func (g *Gate) MarkForce(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.force[uri] = struct{}{}
}

// RecordPublish stores version as published and consumes a forced
// republish.
func (g *Gate) RecordPublish(uri string, version int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.published[uri]; !ok || version >= last {
		g.published[uri] = version
	}
	delete(g.force, uri)
}

// Clear forgets uri, e.g. when the document closes.
func (g *Gate) Clear(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.published, uri)
	delete(g.force, uri)
}

// Published returns the last published version of uri.
func (g *Gate) Published(uri string) (int32, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.published[uri]
	return v, ok
}
