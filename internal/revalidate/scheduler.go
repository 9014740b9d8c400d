package revalidate

import (
	"context"
	"sync/atomic"
	"time"
)

// Scheduler runs work per URI after a quiet period. Rescheduling a URI
// cancels both its pending wait and any run already in progress.
type Scheduler struct {
	tokens *Tokens
	delay  atomic.Int64
}

// NewScheduler returns a scheduler with the given debounce delay.
func NewScheduler(delay time.Duration) *Scheduler {
	s := &Scheduler{tokens: NewTokens()}
	s.delay.Store(int64(delay))
	return s
}

// Schedule waits for the delay and then calls fn in a new goroutine. fn
// must check ctx before publishing anything.
func (s *Scheduler) Schedule(parent context.Context, uri string, fn func(ctx context.Context)) {
	ctx, gen := s.tokens.Begin(parent, uri)
	delay := time.Duration(s.delay.Load())
	go func() {
		defer s.tokens.Done(uri, gen)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	}()
}

// Cancel drops pending and running work for uri.
func (s *Scheduler) Cancel(uri string) { s.tokens.Cancel(uri) }

// CancelAll drops all work.
func (s *Scheduler) CancelAll() { s.tokens.CancelAll() }

// SetDelay changes the debounce for future Schedule calls.
func (s *Scheduler) SetDelay(d time.Duration) { s.delay.Store(int64(d)) }
