// Package lsp serves the cross-file analysis over the Language Server
// Protocol on stdio.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"raven/internal/analysis"
	"raven/internal/config"
	"raven/internal/pathres"
	"raven/internal/revalidate"
	"raven/internal/version"
	"raven/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Logger *slog.Logger
	// Debounce overrides the configured revalidation delay when positive.
	Debounce time.Duration
	// StorePath enables the persistent index of closed files.
	StorePath string
	// SkipIndex leaves the workspace unindexed; files are still indexed
	// on demand.
	SkipIndex bool
}

// Server handles stdio JSON-RPC for the raven language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	log    *slog.Logger
	opts   ServerOptions

	mu                sync.Mutex
	state             *analysis.State
	loader            *config.Loader
	store             *workspace.Store
	root              string
	shutdownRequested bool
	traceLSP          bool
	published         map[string]struct{}

	// publishMu makes the gate check and the send one step
	publishMu sync.Mutex
	sched     *revalidate.Scheduler
	baseCtx   context.Context
	cancel    context.CancelFunc
	bg        sync.WaitGroup
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		log:       log.With("session", uuid.NewString()),
		opts:      opts,
		published: make(map[string]struct{}),
		sched:     revalidate.NewScheduler(config.Default().RevalidationDebounce),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// Run serves LSP requests until exit or EOF.
func (s *Server) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()
	defer s.close()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn("failed to parse message", "err", err)
			if sendErr := s.sendError(nil, codeParseError, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			if errors.Is(err, ErrExit) || errors.Is(err, ErrExitWithoutShutdown) {
				return err
			}
			s.log.Warn("request failed", "method", msg.Method, "err", err)
		}
	}
}

func (s *Server) close() {
	s.cancel()
	s.sched.CancelAll()
	s.bg.Wait()
	s.mu.Lock()
	store := s.store
	s.store = nil
	s.mu.Unlock()
	if store != nil {
		if err := store.Close(); err != nil {
			s.log.Warn("closing index store", "err", err)
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		s.startBackground()
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}

	if s.analysis() == nil {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeNotInitialized, "server not initialized")
		}
		return nil
	}

	switch msg.Method {
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/didChangeWatchedFiles":
		return s.handleDidChangeWatchedFiles(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "raven/activeDocuments":
		return s.handleActiveDocuments(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/signatureHelp":
		return s.handleSignatureHelp(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = pathres.URIToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = pathres.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	loader := config.NewLoader(root, s.log)
	cfg, err := loader.Load()
	if err != nil {
		s.log.Warn("configuration", "err", err)
	}
	if o, ok, err := config.ParseSettings(params.InitializationOptions); err != nil {
		s.log.Warn("initialization options", "err", err)
	} else if ok {
		if cfg, err = loader.SetClientSettings(o); err != nil {
			s.log.Warn("initialization options", "err", err)
		}
	}

	storePath := s.opts.StorePath
	if storePath == "" {
		storePath = cfg.StorePath
	}
	var store *workspace.Store
	if storePath != "" {
		if store, err = workspace.OpenStore(storePath, s.log); err != nil {
			s.log.Warn("index store unavailable", "path", storePath, "err", err)
			store = nil
		}
	}

	st := analysis.New(analysis.Options{
		Root:   root,
		Config: cfg,
		Logger: s.log,
		Store:  store,
	})
	st.OnRevalidate(s.schedulePlan)

	s.mu.Lock()
	s.root = root
	s.loader = loader
	s.store = store
	s.state = st
	s.traceLSP = cfg.Trace
	s.mu.Unlock()
	s.sched.SetDelay(s.debounceFor(cfg))
	s.log.Info("initialize", "root", root, "config", loader.ConfigFile())

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: false,
				},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{"$", "@", "\"", "/"},
			},
			SignatureHelpProvider: &signatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
			FoldingRangeProvider:   true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: serverInfo{Name: "raven", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

// startBackground indexes the workspace, serves the on-demand queue and
// watches the configuration file.
func (s *Server) startBackground() {
	st := s.analysis()
	if st == nil {
		return
	}
	s.bg.Add(2)
	go func() {
		defer s.bg.Done()
		st.RunIndexer(s.baseCtx)
	}()
	go func() {
		defer s.bg.Done()
		if s.opts.SkipIndex {
			return
		}
		start := time.Now()
		n, err := st.IndexWorkspace(s.baseCtx, func(done, total int, uri string, err error) {
			if err != nil {
				s.log.Debug("index", "uri", uri, "err", err)
			}
		})
		if err != nil {
			s.log.Warn("workspace indexing stopped", "err", err)
			return
		}
		s.log.Info("workspace indexed", "files", n, "elapsed", time.Since(start))
		for _, uri := range st.OpenDocuments() {
			s.scheduleURI(uri)
		}
	}()

	s.mu.Lock()
	loader := s.loader
	s.mu.Unlock()
	if loader != nil && loader.Watch(s.applyConfig) {
		s.log.Debug("watching configuration", "file", loader.ConfigFile())
	}
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.sched.CancelAll()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) analysis() *analysis.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) currentTrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceLSP
}

func (s *Server) debounceFor(cfg config.Config) time.Duration {
	if s.opts.Debounce > 0 {
		return s.opts.Debounce
	}
	return cfg.RevalidationDebounce
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

// decodeParams unmarshals request params, answering invalid params itself.
// A false result means the handler is done.
func (s *Server) decodeParams(msg *rpcMessage, v any) (bool, error) {
	if len(msg.Params) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(msg.Params, v); err != nil {
		if len(msg.ID) > 0 {
			return false, s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
		return false, err
	}
	return true, nil
}
