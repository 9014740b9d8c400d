package workspace

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"raven/internal/extract"
	"raven/internal/pathres"
	"raven/internal/scope"
	"raven/internal/source"
	"raven/internal/syntax"
)

// Priorities of on-demand indexing requests; lower runs first.
const (
	// PrioritySourced is for files sourced by a newly opened document and is
	// indexed synchronously by the caller.
	PrioritySourced = 1
	// PriorityBackward is for targets of backward directives.
	PriorityBackward = 2
	// PriorityTransitive is for files reached transitively.
	PriorityTransitive = 3
)

// DefaultMaxQueue bounds the on-demand queue.
const DefaultMaxQueue = 50

// Settings controls on-demand indexing.
type Settings struct {
	Enabled           bool
	BackwardEnabled   bool
	TransitiveEnabled bool
	MaxQueue          int
}

// DefaultSettings enables everything with DefaultMaxQueue.
func DefaultSettings() Settings {
	return Settings{Enabled: true, BackwardEnabled: true, TransitiveEnabled: true, MaxQueue: DefaultMaxQueue}
}

// Progress reports initial indexing: done of total files, the last one
// processed and its error, if any.
type Progress func(done, total int, uri string, err error)

// Indexer fills the Index from disk, either in bulk at startup or on demand
// through a priority queue.
type Indexer struct {
	index     *Index
	files     *FileCache
	store     *Store
	extractor extract.Extractor
	log       *slog.Logger
	workers   int

	// OnIndexed is called after an entry lands in the index.
	OnIndexed func(uri string, e *Entry)

	mu       sync.Mutex
	settings Settings
	queue    requestQueue
	queued   map[string]*request
	seq      uint64
	wake     chan struct{}

	indexed atomic.Int64
}

// NewIndexer wires an indexer; store may be nil.
func NewIndexer(index *Index, files *FileCache, store *Store, x extract.Extractor, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Indexer{
		index:     index,
		files:     files,
		store:     store,
		extractor: x,
		log:       log,
		workers:   runtime.GOMAXPROCS(0),
		settings:  DefaultSettings(),
		queued:    make(map[string]*request),
		wake:      make(chan struct{}, 1),
	}
}

// SetWorkers bounds IndexAll parallelism; n <= 0 means GOMAXPROCS.
func (ix *Indexer) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	ix.workers = n
}

func (ix *Indexer) SetSettings(s Settings) {
	if s.MaxQueue <= 0 {
		s.MaxQueue = DefaultMaxQueue
	}
	ix.mu.Lock()
	ix.settings = s
	ix.mu.Unlock()
}

// Indexed counts files indexed since start.
func (ix *Indexer) Indexed() int64 { return ix.indexed.Load() }

// IndexFile reads, parses and indexes one closed file. A store row with a
// matching mtime and size supplies the metadata without parsing; artifacts
// are then computed lazily by Artifacts.
func (ix *Indexer) IndexFile(uri string) (*Entry, error) {
	if ix.index.IsOpen(uri) {
		return nil, nil
	}
	path := pathres.URIToPath(uri)
	if path == "" {
		return nil, os.ErrNotExist
	}
	info, err := os.Stat(path)
	if err != nil {
		ix.index.Remove(uri)
		ix.files.Invalidate(uri)
		return nil, err
	}
	if e, ok := ix.index.Get(uri); ok && e.Snapshot.SameStat(SnapshotOf(info, nil)) {
		return e, nil
	}
	if e := ix.fromStore(uri, info); e != nil {
		return ix.commit(uri, e), nil
	}

	text, snap, err := ix.files.Read(uri)
	if err != nil {
		return nil, err
	}
	e := ix.parse(uri, text, snap)
	if ix.store != nil {
		if err := ix.store.Put(uri, snap, e.Metadata); err != nil {
			ix.log.Warn("index store write failed", "uri", uri, "err", err)
		}
	}
	return ix.commit(uri, e), nil
}

func (ix *Indexer) fromStore(uri string, info os.FileInfo) *Entry {
	if ix.store == nil {
		return nil
	}
	row, ok, err := ix.store.Get(uri)
	if err != nil {
		ix.log.Debug("index store read failed", "uri", uri, "err", err)
		return nil
	}
	if !ok || !row.Snapshot.SameStat(SnapshotOf(info, nil)) {
		return nil
	}
	return &Entry{Snapshot: row.Snapshot, Metadata: row.Metadata}
}

func (ix *Indexer) parse(uri, text string, snap FileSnapshot) *Entry {
	file := source.FromString(pathres.URIToPath(uri), text)
	tree := syntax.Parse(file)
	meta := ix.extractor.Extract(file, tree)
	return &Entry{
		Snapshot:  snap,
		Metadata:  meta,
		Artifacts: scope.ComputeArtifacts(uri, meta, tree),
	}
}

func (ix *Indexer) commit(uri string, e *Entry) *Entry {
	e.IndexedAt = time.Now()
	if !ix.index.UpdateFromDisk(uri, e) {
		return nil
	}
	ix.indexed.Add(1)
	if ix.OnIndexed != nil {
		ix.OnIndexed(uri, e)
	}
	return e
}

// Artifacts returns the artifacts of an indexed file, computing them for
// entries restored from the store.
func (ix *Indexer) Artifacts(uri string) (*scope.Artifacts, bool) {
	e, ok := ix.index.Get(uri)
	if !ok {
		return nil, false
	}
	if e.Artifacts != nil {
		return e.Artifacts, true
	}
	text, snap, err := ix.files.Read(uri)
	if err != nil {
		return nil, false
	}
	fresh := ix.parse(uri, text, snap)
	if fresh.Metadata.Fingerprint() != e.Metadata.Fingerprint() {
		// файл изменился после записи в store
		ix.commit(uri, fresh)
		return fresh.Artifacts, true
	}
	fresh.IndexedAt = e.IndexedAt
	ix.index.entries.Add(uri, fresh)
	return fresh.Artifacts, true
}

// IndexAll indexes paths in parallel. Per-file failures are reported via
// progress and do not stop the run; only cancellation does.
func (ix *Indexer) IndexAll(ctx context.Context, paths []string, progress Progress) error {
	if len(paths) == 0 {
		return nil
	}
	var done atomic.Int64
	total := len(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(ix.workers, total))
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			uri := pathres.PathToURI(path)
			_, err := ix.IndexFile(uri)
			if err != nil {
				ix.log.Debug("index failed", "uri", uri, "err", err)
			}
			n := done.Add(1)
			if progress != nil {
				progress(int(n), total, uri, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ErrQueueDisabled is returned by Enqueue when the requested priority is
// switched off.
var ErrQueueDisabled = errors.New("on-demand indexing disabled")

type request struct {
	uri      string
	priority int
	seq      uint64
	index    int
}

// requestQueue is a min-heap on (priority, seq).
type requestQueue []*request

func (q requestQueue) Len() int { return len(q) }
func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q requestQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *requestQueue) Push(x any) {
	r := x.(*request)
	r.index = len(*q)
	*q = append(*q, r)
}
func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*q = old[:n-1]
	return r
}

// Enqueue asks for uri to be indexed in the background. Priority 1 is
// indexed right away on the caller's goroutine. Re-enqueueing a queued URI
// keeps the better priority. When the queue is full the worst request is
// dropped, which may be the new one.
func (ix *Indexer) Enqueue(uri string, priority int) error {
	ix.mu.Lock()
	s := ix.settings
	if !s.Enabled ||
		(priority == PriorityBackward && !s.BackwardEnabled) ||
		(priority >= PriorityTransitive && !s.TransitiveEnabled) {
		ix.mu.Unlock()
		return ErrQueueDisabled
	}
	if priority <= PrioritySourced {
		ix.removeLocked(uri)
		ix.mu.Unlock()
		_, err := ix.IndexFile(uri)
		return err
	}
	if r, ok := ix.queued[uri]; ok {
		if priority < r.priority {
			r.priority = priority
			heap.Fix(&ix.queue, r.index)
		}
		ix.mu.Unlock()
		return nil
	}
	ix.seq++
	r := &request{uri: uri, priority: priority, seq: ix.seq}
	heap.Push(&ix.queue, r)
	ix.queued[uri] = r
	if ix.queue.Len() > s.MaxQueue {
		ix.removeLocked(ix.worstLocked().uri)
	}
	ix.mu.Unlock()

	select {
	case ix.wake <- struct{}{}:
	default:
	}
	return nil
}

func (ix *Indexer) worstLocked() *request {
	worst := ix.queue[0]
	for _, r := range ix.queue[1:] {
		if ix.queue.Less(worst.index, r.index) {
			worst = r
		}
	}
	return worst
}

func (ix *Indexer) removeLocked(uri string) bool {
	r, ok := ix.queued[uri]
	if !ok {
		return false
	}
	heap.Remove(&ix.queue, r.index)
	delete(ix.queued, uri)
	return true
}

// Cancel drops a pending request, typically because the file was opened.
func (ix *Indexer) Cancel(uri string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(uri)
}

// Pending reports queued URIs in the order they would run.
func (ix *Indexer) Pending() []string {
	ix.mu.Lock()
	cp := make(requestQueue, len(ix.queue))
	for i, r := range ix.queue {
		c := *r
		cp[i] = &c
	}
	ix.mu.Unlock()

	out := make([]string, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(*request).uri)
	}
	return out
}

func (ix *Indexer) next() (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.queue.Len() == 0 {
		return "", false
	}
	r := heap.Pop(&ix.queue).(*request)
	delete(ix.queued, r.uri)
	return r.uri, true
}

// Drain indexes everything queued and returns the number processed.
func (ix *Indexer) Drain(ctx context.Context) int {
	n := 0
	for ctx.Err() == nil {
		uri, ok := ix.next()
		if !ok {
			break
		}
		if _, err := ix.IndexFile(uri); err != nil {
			ix.log.Debug("on-demand index failed", "uri", uri, "err", err)
		}
		n++
	}
	return n
}

// Run processes the on-demand queue until ctx is done.
func (ix *Indexer) Run(ctx context.Context) {
	for {
		ix.Drain(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ix.wake:
		}
	}
}
