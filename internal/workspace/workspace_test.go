package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raven/internal/extract"
	"raven/internal/metadata"
	"raven/internal/pathres"
)

func write(t *testing.T, root, rel, text string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	return p
}

func newIndexer(t *testing.T, store *Store) (*Indexer, *Index) {
	t.Helper()
	idx := NewIndex(0)
	return NewIndexer(idx, NewFileCache(), store, extract.NewR(nil), nil), idx
}

func TestDiscoverHonoursIgnoreRules(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write(t, root, "main.R", "")
	write(t, root, "R/utils.r", "")
	write(t, root, "notes.txt", "")
	write(t, root, "renv/library/x.R", "")
	write(t, root, ".hidden/y.R", "")
	write(t, root, "out/gen.R", "")
	write(t, root, "scratch.R", "")
	write(t, root, ".gitignore", "out/\nscratch.R\n")

	files, err := Discover(root)
	require.NoError(t, err)
	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"R/utils.r", "main.R"}, rel)
}

func TestFileCacheRefreshesOnStatChange(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	p := write(t, root, "a.R", "x <- 1\n")
	uri := pathres.PathToURI(p)
	c := NewFileCache()

	text, snap, err := c.Read(uri)
	require.NoError(t, err)
	assert.Equal(t, "x <- 1\n", text)
	assert.NotZero(t, snap.ContentHash)

	require.NoError(t, os.WriteFile(p, []byte("x <- 22\n"), 0o644))
	text, _, err = c.Read(uri)
	require.NoError(t, err)
	assert.Equal(t, "x <- 22\n", text)

	require.NoError(t, os.Remove(p))
	_, _, err = c.Read(uri)
	assert.Error(t, err)
	_, ok := c.Peek(uri)
	assert.False(t, ok)
}

func TestIndexRefusesOpenDocuments(t *testing.T) {
	t.Parallel()
	idx := NewIndex(2)
	uri := "file:///p/a.R"

	v0 := idx.Version()
	assert.True(t, idx.UpdateFromDisk(uri, &Entry{Metadata: &metadata.FileMetadata{}}))
	assert.Greater(t, idx.Version(), v0)

	idx.MarkOpen(uri)
	_, ok := idx.Get(uri)
	assert.False(t, ok)
	assert.False(t, idx.UpdateFromDisk(uri, &Entry{Metadata: &metadata.FileMetadata{}}))

	idx.MarkClosed(uri)
	assert.True(t, idx.UpdateFromDisk(uri, &Entry{Metadata: &metadata.FileMetadata{}}))

	idx.UpdateFromDisk("file:///p/b.R", &Entry{})
	idx.UpdateFromDisk("file:///p/c.R", &Entry{})
	assert.Equal(t, 2, idx.Len())
	_, ok = idx.Get(uri)
	assert.False(t, ok, "oldest entry evicted")
}

func TestIndexResizeEvictsAndBumpsVersion(t *testing.T) {
	t.Parallel()
	idx := NewIndex(3)
	for _, name := range []string{"a", "b", "c"} {
		idx.UpdateFromDisk("file:///p/"+name+".R", &Entry{})
	}

	v := idx.Version()
	assert.Zero(t, idx.Resize(5))
	assert.Equal(t, v, idx.Version(), "growing evicts nothing")

	assert.Equal(t, 2, idx.Resize(1))
	assert.Greater(t, idx.Version(), v)
	assert.Equal(t, []string{"file:///p/c.R"}, idx.URIs())
}

func TestIndexAllParsesAndReports(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	a := write(t, root, "a.R", "source(\"b.R\")\nf <- function(x) x\n")
	b := write(t, root, "b.R", "y <- 2\n")
	missing := filepath.Join(root, "gone.R")

	ix, idx := newIndexer(t, nil)
	var (
		mu   sync.Mutex
		seen []string
		errs int
	)
	var hook []string
	ix.OnIndexed = func(uri string, _ *Entry) {
		mu.Lock()
		hook = append(hook, uri)
		mu.Unlock()
	}
	err := ix.IndexAll(context.Background(), []string{a, b, missing}, func(done, total int, uri string, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		seen = append(seen, uri)
		if err != nil {
			errs++
		}
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Equal(t, 1, errs)
	assert.Len(t, hook, 2)

	e, ok := idx.Get(pathres.PathToURI(a))
	require.True(t, ok)
	require.Len(t, e.Metadata.Sources, 1)
	assert.Equal(t, "b.R", e.Metadata.Sources[0].Path)
	require.NotNil(t, e.Artifacts)
	assert.Contains(t, e.Artifacts.Exported, "f")
	assert.False(t, e.IndexedAt.IsZero())
}

func TestIndexAllStopsOnCancel(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	p := write(t, root, "a.R", "x <- 1\n")
	ix, _ := newIndexer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ix.IndexAll(ctx, []string{p}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreRoundTripAndWarmStart(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	p := write(t, root, "a.R", "# @lsp-cd ../data\nsource(\"b.R\", local = TRUE)\nz <- 3\n")
	uri := pathres.PathToURI(p)

	store, err := OpenStore(filepath.Join(root, ".cache", "index.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ix, _ := newIndexer(t, store)
	first, err := ix.IndexFile(uri)
	require.NoError(t, err)
	require.NotNil(t, first)

	row, ok, err := store.Get(uri)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Metadata.Fingerprint(), row.Metadata.Fingerprint())
	assert.True(t, row.Snapshot.SameStat(first.Snapshot))
	assert.Equal(t, first.Snapshot.ContentHash, row.Snapshot.ContentHash)

	// a second indexer restores metadata without parsing
	warm, idx := newIndexer(t, store)
	e, err := warm.IndexFile(uri)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Nil(t, e.Artifacts)
	assert.Equal(t, "../data", e.Metadata.WorkDir())

	art, ok := warm.Artifacts(uri)
	require.True(t, ok)
	assert.Contains(t, art.Exported, "z")
	got, _ := idx.Get(uri)
	assert.Same(t, art, got.Artifacts)

	all, err := store.Load()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uri, all[0].URI)

	require.NoError(t, store.Delete(uri))
	_, ok, err = store.Get(uri)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreClosed(t *testing.T) {
	t.Parallel()
	store, err := OpenStore(filepath.Join(t.TempDir(), "index.db"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	_, _, err = store.Get("file:///x.R")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestQueueOrderingAndCap(t *testing.T) {
	t.Parallel()
	ix, _ := newIndexer(t, nil)
	ix.SetSettings(Settings{Enabled: true, BackwardEnabled: true, TransitiveEnabled: true, MaxQueue: 3})

	require.NoError(t, ix.Enqueue("file:///p/t1.R", PriorityTransitive))
	require.NoError(t, ix.Enqueue("file:///p/b1.R", PriorityBackward))
	require.NoError(t, ix.Enqueue("file:///p/t2.R", PriorityTransitive))
	// promoted, not duplicated
	require.NoError(t, ix.Enqueue("file:///p/t2.R", PriorityBackward))
	assert.Equal(t, []string{"file:///p/b1.R", "file:///p/t2.R", "file:///p/t1.R"}, ix.Pending())

	require.NoError(t, ix.Enqueue("file:///p/b2.R", PriorityBackward))
	assert.Equal(t, []string{"file:///p/b1.R", "file:///p/t2.R", "file:///p/b2.R"}, ix.Pending())

	assert.True(t, ix.Cancel("file:///p/t2.R"))
	assert.False(t, ix.Cancel("file:///p/t2.R"))
	assert.Equal(t, []string{"file:///p/b1.R", "file:///p/b2.R"}, ix.Pending())
}

func TestQueueRespectsSettings(t *testing.T) {
	t.Parallel()
	ix, _ := newIndexer(t, nil)
	ix.SetSettings(Settings{Enabled: true, BackwardEnabled: false, TransitiveEnabled: true})
	assert.ErrorIs(t, ix.Enqueue("file:///p/a.R", PriorityBackward), ErrQueueDisabled)
	assert.NoError(t, ix.Enqueue("file:///p/a.R", PriorityTransitive))

	ix.SetSettings(Settings{Enabled: false})
	assert.ErrorIs(t, ix.Enqueue("file:///p/b.R", PriorityTransitive), ErrQueueDisabled)
}

func TestRunDrainsQueue(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	uri := pathres.PathToURI(write(t, root, "a.R", "x <- 1\n"))
	ix, idx := newIndexer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ix.Run(ctx)

	require.NoError(t, ix.Enqueue(uri, PriorityTransitive))
	assert.Eventually(t, func() bool {
		_, ok := idx.Get(uri)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, ix.Pending())
}

func TestSourcedPriorityIndexesSynchronously(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	uri := pathres.PathToURI(write(t, root, "a.R", "x <- 1\n"))
	ix, idx := newIndexer(t, nil)

	require.NoError(t, ix.Enqueue(uri, PrioritySourced))
	_, ok := idx.Get(uri)
	assert.True(t, ok)

	idx.MarkOpen(uri)
	e, err := ix.IndexFile(uri)
	require.NoError(t, err)
	assert.Nil(t, e)
}
