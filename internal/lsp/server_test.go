package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"raven/internal/pathres"
)

// syncBuffer lets the test read what background publishes wrote.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

type testServer struct {
	*Server
	dir string
	out *syncBuffer
}

func newTestServer(t *testing.T, debounce time.Duration, files map[string]string) *testServer {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	out := &syncBuffer{}
	server := NewServer(bytes.NewReader(nil), out, ServerOptions{Debounce: debounce})
	t.Cleanup(server.close)

	params, _ := json.Marshal(initializeParams{RootURI: pathres.PathToURI(dir)})
	if err := server.handleMessage(&rpcMessage{ID: json.RawMessage("1"), Method: "initialize", Params: params}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := server.analysis().IndexWorkspace(context.Background(), nil); err != nil {
		t.Fatalf("index workspace: %v", err)
	}
	return &testServer{Server: server, dir: dir, out: out}
}

func (ts *testServer) uri(name string) string {
	return pathres.PathToURI(filepath.Join(ts.dir, filepath.FromSlash(name)))
}

func (ts *testServer) notify(t *testing.T, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal %s: %v", method, err)
	}
	if err := ts.handleMessage(&rpcMessage{Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func (ts *testServer) open(t *testing.T, name string, version int32) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ts.dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	uri := ts.uri(name)
	ts.notify(t, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "r", Version: version, Text: string(data)},
	})
	return uri
}

func readAll(t *testing.T, data []byte) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(data))
	var out []rpcMessage
	for {
		payload, err := readMessage(reader)
		if err != nil {
			return out
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		out = append(out, msg)
	}
}

func publishes(t *testing.T, data []byte) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, msg := range readAll(t, data) {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			t.Fatalf("decode params: %v", err)
		}
		out = append(out, params)
	}
	return out
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	ts := newTestServer(t, time.Hour, nil)
	msgs := readAll(t, ts.out.Bytes())
	if len(msgs) != 1 || string(msgs[0].ID) != "1" {
		t.Fatalf("expected a single initialize response, got %+v", msgs)
	}
	var result initializeResult
	if err := json.Unmarshal(msgs[0].Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ServerInfo.Name != "raven" {
		t.Fatalf("unexpected server name %q", result.ServerInfo.Name)
	}
	caps := result.Capabilities
	if !caps.HoverProvider || !caps.DefinitionProvider || caps.CompletionProvider == nil || caps.TextDocumentSync.Change != 2 {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
}

func TestRequestBeforeInitialize(t *testing.T) {
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{})
	t.Cleanup(server.close)
	if err := server.handleMessage(&rpcMessage{ID: json.RawMessage("7"), Method: "textDocument/hover", Params: json.RawMessage("{}")}); err != nil {
		t.Fatalf("hover: %v", err)
	}
	msgs := readAll(t, out.Bytes())
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != codeNotInitialized {
		t.Fatalf("expected not-initialized error, got %+v", msgs)
	}
	if err := server.handleMessage(&rpcMessage{Method: "exit"}); err != ErrExitWithoutShutdown {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestPublishDiagnosticsMapping(t *testing.T) {
	ts := newTestServer(t, time.Hour, map[string]string{
		"main.R": "x <- 1\nsource(\"missing.R\")\n",
	})
	uri := ts.open(t, "main.R", 3)
	snap, ok := ts.analysis().Snapshot(uri)
	if !ok {
		t.Fatal("expected snapshot for open document")
	}
	ts.revalidate(context.Background(), uri, snap)

	got := publishes(t, ts.out.Bytes())
	if len(got) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(got))
	}
	params := got[0]
	if params.URI != uri || params.Version == nil || *params.Version != 3 {
		t.Fatalf("unexpected publish target: %+v", params)
	}
	if len(params.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", params.Diagnostics)
	}
	d := params.Diagnostics[0]
	if d.Range.Start.Line != 1 || d.Code != "missing-file" || d.Severity != 2 || d.Source != "raven" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if !strings.Contains(d.Message, "missing.R") {
		t.Fatalf("message should name the file: %q", d.Message)
	}
}

func TestStaleSnapshotIsNotPublished(t *testing.T) {
	ts := newTestServer(t, time.Hour, map[string]string{
		"main.R": "source(\"missing.R\")\n",
	})
	uri := ts.open(t, "main.R", 1)
	stale, _ := ts.analysis().Snapshot(uri)

	ts.notify(t, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{Line: 0, Character: 0}, End: position{Line: 0, Character: 0}},
			Text:  "# ",
		}},
	})
	ts.revalidate(context.Background(), uri, stale)
	if got := publishes(t, ts.out.Bytes()); len(got) != 0 {
		t.Fatalf("stale snapshot published: %+v", got)
	}

	current, _ := ts.analysis().Snapshot(uri)
	ts.revalidate(context.Background(), uri, current)
	got := publishes(t, ts.out.Bytes())
	if len(got) != 1 || *got[0].Version != 2 || len(got[0].Diagnostics) != 0 {
		t.Fatalf("expected an empty publish for version 2, got %+v", got)
	}

	// the same version is not published twice
	ts.revalidate(context.Background(), uri, current)
	if n := len(publishes(t, ts.out.Bytes())); n != 1 {
		t.Fatalf("expected 1 publish, got %d", n)
	}
}

func TestCancelledRevalidationIsNotPublished(t *testing.T) {
	ts := newTestServer(t, time.Hour, map[string]string{
		"main.R": "source(\"missing.R\")\n",
	})
	uri := ts.open(t, "main.R", 1)
	snap, _ := ts.analysis().Snapshot(uri)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ts.revalidate(ctx, uri, snap)
	if got := publishes(t, ts.out.Bytes()); len(got) != 0 {
		t.Fatalf("cancelled revalidation published: %+v", got)
	}
}

func TestDebouncedEditsPublishOnce(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond, map[string]string{
		"main.R": "source(\"missing.R\")\n",
	})
	uri := ts.open(t, "main.R", 1)
	for v := int32(2); v <= 4; v++ {
		ts.notify(t, "textDocument/didChange", didChangeTextDocumentParams{
			TextDocument:   versionedTextDocumentIdentifier{URI: uri, Version: v},
			ContentChanges: []textDocumentContentChangeEvent{{Text: "source(\"missing.R\")\n"}},
		})
	}

	deadline := time.Now().Add(2 * time.Second)
	var got []publishDiagnosticsParams
	for time.Now().Before(deadline) {
		if got = publishes(t, ts.out.Bytes()); len(got) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	got = publishes(t, ts.out.Bytes())
	if len(got) != 1 {
		t.Fatalf("expected exactly one publish, got %d", len(got))
	}
	if *got[0].Version != 4 || len(got[0].Diagnostics) != 1 {
		t.Fatalf("expected the latest version with one diagnostic, got %+v", got[0])
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	ts := newTestServer(t, time.Hour, map[string]string{
		"main.R": "source(\"missing.R\")\n",
	})
	uri := ts.open(t, "main.R", 1)
	snap, _ := ts.analysis().Snapshot(uri)
	ts.revalidate(context.Background(), uri, snap)

	ts.notify(t, "textDocument/didClose", didCloseTextDocumentParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	})
	got := publishes(t, ts.out.Bytes())
	if len(got) != 2 {
		t.Fatalf("expected publish and clear, got %d", len(got))
	}
	if got[1].Version != nil || len(got[1].Diagnostics) != 0 {
		t.Fatalf("expected an unversioned empty publish, got %+v", got[1])
	}
	if ts.analysis().IsOpen(uri) {
		t.Fatal("document still open")
	}
}

func TestShutdownClearsPublished(t *testing.T) {
	ts := newTestServer(t, time.Hour, map[string]string{
		"a.R": "source(\"missing.R\")\n",
	})
	uri := ts.open(t, "a.R", 1)
	snap, _ := ts.analysis().Snapshot(uri)
	ts.revalidate(context.Background(), uri, snap)

	if err := ts.handleMessage(&rpcMessage{ID: json.RawMessage("2"), Method: "shutdown"}); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	got := publishes(t, ts.out.Bytes())
	if len(got) != 2 || len(got[1].Diagnostics) != 0 {
		t.Fatalf("expected diagnostics cleared on shutdown, got %+v", got)
	}
	if err := ts.handleMessage(&rpcMessage{Method: "exit"}); err != ErrExit {
		t.Fatalf("expected ErrExit, got %v", err)
	}
}

func TestSettingsChangeRepublishes(t *testing.T) {
	ts := newTestServer(t, time.Hour, map[string]string{
		"main.R": "y <- undefined_name\n",
	})
	uri := ts.open(t, "main.R", 1)
	snap, _ := ts.analysis().Snapshot(uri)
	ts.revalidate(context.Background(), uri, snap)
	got := publishes(t, ts.out.Bytes())
	if len(got) != 1 || len(got[0].Diagnostics) != 1 {
		t.Fatalf("expected the undefined variable, got %+v", got)
	}

	ts.notify(t, "workspace/didChangeConfiguration", didChangeConfigurationParams{
		Settings: json.RawMessage(`{"raven":{"diagnostics":{"undefinedVariables":false}}}`),
	})
	snap, _ = ts.analysis().Snapshot(uri)
	ts.revalidate(context.Background(), uri, snap)
	got = publishes(t, ts.out.Bytes())
	if len(got) != 2 || len(got[1].Diagnostics) != 0 {
		t.Fatalf("expected a forced empty publish, got %+v", got)
	}
}
