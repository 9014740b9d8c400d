package depgraph

import (
	"maps"
	"slices"
)

// TransitiveDependents returns every file that includes uri directly or
// through other files, nearest first, at most maxDepth hops away.
func (g *Graph) TransitiveDependents(uri string, maxDepth int) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bfs(uri, maxDepth, func(u string) []string {
		return slices.Sorted(maps.Keys(g.reverse[u]))
	})
}

// TransitiveDependencies returns every file uri includes directly or
// through other files, nearest first, at most maxDepth hops away.
func (g *Graph) TransitiveDependencies(uri string, maxDepth int) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bfs(uri, maxDepth, func(u string) []string {
		out := make([]string, 0, len(g.forward[u]))
		for _, e := range g.forward[u] {
			out = append(out, e.To)
		}
		return out
	})
}

func (g *Graph) bfs(start string, maxDepth int, next func(string) []string) []string {
	visited := map[string]struct{}{start: {}}
	var out []string
	frontier := []string{start}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var level []string
		for _, u := range frontier {
			for _, v := range next(u) {
				if _, seen := visited[v]; seen {
					continue
				}
				visited[v] = struct{}{}
				level = append(level, v)
			}
		}
		out = append(out, level...)
		frontier = level
	}
	return out
}

// DetectCycle returns the first outgoing edge of uri that leads back to
// uri, with the cycle path starting and ending at uri.
func (g *Graph) DetectCycle(uri string) (Edge, []string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.forward[uri] {
		if e.To == uri {
			return e, []string{uri, uri}, true
		}
		visited := map[string]struct{}{uri: {}}
		if path, ok := g.pathTo(e.To, uri, visited); ok {
			return e, append([]string{uri}, path...), true
		}
	}
	return Edge{}, nil, false
}

// pathTo finds a path from -> ... -> target, both ends included.
func (g *Graph) pathTo(from, target string, visited map[string]struct{}) ([]string, bool) {
	if _, seen := visited[from]; seen {
		return nil, false
	}
	visited[from] = struct{}{}
	for _, e := range g.forward[from] {
		if e.To == target {
			return []string{from, target}, true
		}
		if rest, ok := g.pathTo(e.To, target, visited); ok {
			return append([]string{from}, rest...), true
		}
	}
	return nil, false
}
