package lsp

import (
	"path/filepath"
	"time"

	"raven/internal/config"
	"raven/internal/pathres"
	"raven/internal/workspace"
)

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	uri := pathres.Canonical(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	plan := s.analysis().Open(uri, params.TextDocument.Version, params.TextDocument.Text)
	if s.currentTrace() {
		s.log.Debug("didOpen", "uri", uri, "version", params.TextDocument.Version, "scheduled", len(plan.Scheduled))
	}
	s.schedulePlan(plan)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	uri := pathres.Canonical(params.TextDocument.URI)
	st := s.analysis()
	doc, ok := st.Document(uri)
	if !ok {
		s.log.Warn("didChange for unknown document", "uri", uri)
		return nil
	}
	text := applyChanges(doc.File.Text(), params.ContentChanges)
	plan := st.Edit(uri, params.TextDocument.Version, text)
	if s.currentTrace() {
		s.log.Debug("didChange", "uri", uri,
			"version", doc.Version, "next", params.TextDocument.Version,
			"scheduled", len(plan.Scheduled), "deferred", len(plan.Deferred))
	}
	s.schedulePlan(plan)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	uri := pathres.Canonical(params.TextDocument.URI)
	s.schedulePlan(s.analysis().Save(uri))
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	uri := pathres.Canonical(params.TextDocument.URI)
	s.sched.Cancel(uri)
	plan := s.analysis().Close(uri)

	s.mu.Lock()
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.log.Warn("failed to clear diagnostics", "uri", uri, "err", err)
		}
	}
	s.schedulePlan(plan)
	return nil
}

func (s *Server) handleDidChangeWatchedFiles(msg *rpcMessage) error {
	var params didChangeWatchedFilesParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	st := s.analysis()
	reload := false
	for _, ev := range params.Changes {
		uri := pathres.Canonical(ev.URI)
		path := pathres.URIToPath(uri)
		if filepath.Base(path) == config.ManifestName {
			reload = true
			continue
		}
		if !workspace.IsRFile(path) {
			continue
		}
		switch ev.Type {
		case fileCreated, fileChanged:
			s.schedulePlan(st.FileChanged(uri))
		case fileDeleted:
			s.schedulePlan(st.FileDeleted(uri))
		}
	}
	if reload {
		s.reloadConfig()
	}
	return nil
}

func (s *Server) handleActiveDocuments(msg *rpcMessage) error {
	var params activeDocumentsParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	at := time.Now()
	if params.Timestamp > 0 {
		at = time.UnixMilli(params.Timestamp)
	}
	visible := make([]string, 0, len(params.VisibleURIs))
	for _, uri := range params.VisibleURIs {
		visible = append(visible, pathres.Canonical(uri))
	}
	active := ""
	if params.ActiveURI != "" {
		active = pathres.Canonical(params.ActiveURI)
	}
	s.analysis().Activity().Update(active, visible, at)
	return nil
}
