package scope

import (
	"testing"

	"raven/internal/depgraph"
	"raven/internal/extract"
	"raven/internal/metadata"
	"raven/internal/pathres"
	"raven/internal/source"
	"raven/internal/syntax"
)

const root = "/project"

func uri(name string) string { return pathres.PathToURI(root + "/" + name) }

// memProvider serves artifacts computed from in-memory sources.
type memProvider struct {
	arts  map[string]*Artifacts
	metas map[string]*metadata.FileMetadata
}

func (m *memProvider) Artifacts(u string) (*Artifacts, bool) {
	a, ok := m.arts[u]
	return a, ok
}

func (m *memProvider) Metadata(u string) (*metadata.FileMetadata, bool) {
	md, ok := m.metas[u]
	return md, ok
}

type fixture struct {
	*Resolver
	provider *memProvider
	texts    map[string]string
}

// newFixture parses every file and registers it in a fresh graph.
func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		provider: &memProvider{
			arts:  make(map[string]*Artifacts),
			metas: make(map[string]*metadata.FileMetadata),
		},
		texts: make(map[string]string),
	}
	ws := pathres.NewWorkspace(root)
	f.Resolver = &Resolver{
		Files:    f.provider,
		Graph:    depgraph.New(),
		Paths:    ws,
		Settings: DefaultSettings(),
	}
	x := extract.NewR(nil)
	for name, text := range files {
		u := uri(name)
		file := source.FromString(root+"/"+name, text)
		tree := syntax.Parse(file)
		meta := x.Extract(file, tree)
		f.provider.metas[u] = meta
		f.provider.arts[u] = ComputeArtifacts(u, meta, tree)
		f.texts[u] = text
	}
	content := func(u string) (string, bool) {
		s, ok := f.texts[u]
		return s, ok
	}
	for u, meta := range f.provider.metas {
		f.Graph.UpdateFile(u, meta, ws, content)
	}
	return f
}

func (f *fixture) at(name string, line, col uint32) Result {
	return f.ScopeAt(uri(name), source.Pos{Line: line, Col: col})
}

func errorsOf[E Error](res Result) []E {
	var out []E
	for _, e := range res.Errors {
		if v, ok := e.(E); ok {
			out = append(out, v)
		}
	}
	return out
}
