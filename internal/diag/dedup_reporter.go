package diag

import "raven/internal/source"

type dedupKey struct {
	code Code
	uri  string
	rng  source.Range
	msg  string
}

// DedupReporter wraps another Reporter and suppresses duplicate diagnostics
// with the same code, range and message. Severity is not part of the key.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, uri string, rng source.Range, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := dedupKey{code: code, uri: uri, rng: rng, msg: msg}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, uri, rng, msg, notes)
	}
}
