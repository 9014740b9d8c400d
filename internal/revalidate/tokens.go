package revalidate

import (
	"context"
	"sync"
)

type token struct {
	gen    uint64
	cancel context.CancelFunc
}

// Tokens keeps one cancellation context per URI. Starting new work for a
// URI cancels whatever was running for it before.
type Tokens struct {
	mu   sync.Mutex
	gen  uint64
	byID map[string]token
}

func NewTokens() *Tokens {
	return &Tokens{byID: make(map[string]token)}
}

// Begin cancels the previous context of uri and returns a fresh one with
// its generation.
func (t *Tokens) Begin(parent context.Context, uri string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.byID[uri]; ok {
		prev.cancel()
	}
	t.gen++
	t.byID[uri] = token{gen: t.gen, cancel: cancel}
	return ctx, t.gen
}

// Cancel stops the current work for uri, if any.
func (t *Tokens) Cancel(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.byID[uri]; ok {
		prev.cancel()
		delete(t.byID, uri)
	}
}

// Done releases the context of generation gen; a newer generation is left
// untouched.
func (t *Tokens) Done(uri string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.byID[uri]; ok && cur.gen == gen {
		cur.cancel()
		delete(t.byID, uri)
	}
}

// CancelAll stops every running piece of work.
func (t *Tokens) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for uri, tok := range t.byID {
		tok.cancel()
		delete(t.byID, uri)
	}
}

// Pending reports how many URIs have live work.
func (t *Tokens) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
