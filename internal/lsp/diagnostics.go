package lsp

import (
	"context"
	"maps"
	"slices"

	"raven/internal/diag"
	"raven/internal/revalidate"
)

// schedulePlan debounces a revalidation of every scheduled file. Deferred
// files wait until a request touches them.
func (s *Server) schedulePlan(plan revalidate.Plan) {
	for _, uri := range plan.Scheduled {
		s.scheduleURI(uri)
	}
}

func (s *Server) scheduleURI(uri string) {
	st := s.analysis()
	if st == nil {
		return
	}
	snap, ok := st.Snapshot(uri)
	if !ok {
		return
	}
	s.sched.Schedule(s.baseCtx, uri, func(ctx context.Context) {
		s.revalidate(ctx, uri, snap)
	})
}

// touch revalidates uri now if an earlier plan deferred it.
func (s *Server) touch(uri string) {
	if st := s.analysis(); st != nil && st.ClaimDeferred(uri) {
		s.scheduleURI(uri)
	}
}

// revalidate computes and publishes diagnostics for the buffer state snap
// describes. Each step first checks the work is still current.
func (s *Server) revalidate(ctx context.Context, uri string, snap revalidate.Snapshot) {
	st := s.analysis()
	if st == nil || !st.Fresh(uri, snap) {
		return
	}
	report, ok := st.Diagnostics(ctx, uri)
	if !ok || report.Snapshot != snap {
		return
	}
	s.publish(ctx, uri, snap, report.Diagnostics)
}

func (s *Server) publish(ctx context.Context, uri string, snap revalidate.Snapshot, diags []diag.Diagnostic) {
	st := s.analysis()
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if ctx.Err() != nil || !st.Fresh(uri, snap) {
		return
	}
	if !st.CanPublish(uri, snap.Version) {
		if s.currentTrace() {
			s.log.Debug("publish skipped", "uri", uri, "version", snap.Version)
		}
		return
	}
	list := toLSPDiagnostics(diags)
	v := snap.Version
	if err := s.sendPublish(uri, &v, list); err != nil {
		s.log.Warn("failed to publish diagnostics", "uri", uri, "err", err)
		return
	}
	st.RecordPublish(uri, snap.Version)
	s.mu.Lock()
	s.published[uri] = struct{}{}
	s.mu.Unlock()
	if s.currentTrace() {
		s.log.Debug("published", "uri", uri, "version", snap.Version, "count", len(list))
	}
}

func toLSPDiagnostics(diags []diag.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		item := lspDiagnostic{
			Range:    fromRange(d.Range),
			Severity: d.Severity.LSP(),
			Code:     d.Code.String(),
			Source:   "raven",
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			item.RelatedInformation = append(item.RelatedInformation, diagnosticRelatedInformation{
				Location: location{URI: n.URI, Range: fromRange(n.Range)},
				Message:  n.Msg,
			})
		}
		out = append(out, item)
	}
	return out
}

func (s *Server) sendPublish(uri string, version *int32, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: list,
	})
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for _, uri := range slices.Sorted(maps.Keys(prev)) {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.log.Warn("failed to clear diagnostics", "uri", uri, "err", err)
		}
	}
}
