package lspserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zc-lang/zc/internal/config"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/fixture"
	"github.com/zc-lang/zc/internal/names"
	"github.com/zc-lang/zc/internal/pipeline"
	"github.com/zc-lang/zc/internal/types"
)

// workspaceConfigFile is the settings document a client's workspace root
// may carry, loaded on `initialize` (SPEC_FULL.md's DOMAIN STACK table:
// "gopkg.in/yaml.v3 (LSP side) ... workspace settings").
const workspaceConfigFile = "zc.yaml"

// Server is a long-running LSP process over stdio (spec §6). Each open
// document is treated as one standalone typed-tree fixture (internal/fixture):
// there is no project-wide linking in this core's scope (spec §1), so
// every didOpen/didChange/didSave republishes diagnostics for that
// document alone.
type Server struct {
	w    io.Writer
	cfg  *config.Config
	mu   sync.Mutex
	docs map[string]string // uri -> text
	down bool              // true once "shutdown" was received
}

// New creates a Server that writes framed responses/notifications to w.
func New(w io.Writer, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{w: w, cfg: cfg, docs: make(map[string]string)}
}

// Run drains framed JSON-RPC messages from r until EOF or a malformed
// frame (an "exit" notification does not itself end the loop), returning the process exit code spec §6 specifies: 0 on a clean exit
// (shutdown was requested first), 1 otherwise.
func (s *Server) Run(r io.Reader) int {
	reader := bufio.NewReader(r)
	for {
		content, err := readFrame(reader)
		if err != nil {
			break
		}
		s.handleMessage(content)
	}
	if s.down {
		return 0
	}
	return 1
}

// readFrame reads one Content-Length-framed JSON-RPC message (LSP's wire
// format), grounded on funvibe-funxy's cmd/lsp server.Start header loop.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var length int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err != nil {
				return nil, fmt.Errorf("bad Content-Length: %w", err)
			}
			length = n
		}
	}
	if length == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Server) handleMessage(content []byte) {
	var base struct {
		ID     interface{}     `json:"id,omitempty"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(content, &base); err != nil {
		return
	}
	if base.ID != nil {
		s.handleRequest(base.ID, base.Method, base.Params)
		return
	}
	s.handleNotification(base.Method, base.Params)
}

func (s *Server) handleRequest(id interface{}, method string, params json.RawMessage) {
	switch method {
	case "initialize":
		var p InitializeParams
		if json.Unmarshal(params, &p) == nil {
			s.loadWorkspaceConfig(p.RootURI)
		}
		s.send(ResponseMessage{
			Jsonrpc: "2.0", ID: id,
			Result: InitializeResult{Capabilities: ServerCapabilities{TextDocumentSync: 1}},
		})
	case "shutdown":
		s.mu.Lock()
		s.down = true
		s.mu.Unlock()
		s.send(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})
	default:
		s.send(ResponseMessage{Jsonrpc: "2.0", ID: id, Error: &RPCError{Code: -32601, Message: "method not found: " + method}})
	}
}

func (s *Server) handleNotification(method string, params json.RawMessage) {
	switch method {
	case "textDocument/didOpen":
		var p DidOpenTextDocumentParams
		if json.Unmarshal(params, &p) == nil {
			s.setDocument(p.TextDocument.URI, p.TextDocument.Text)
		}
	case "textDocument/didChange":
		var p DidChangeTextDocumentParams
		if json.Unmarshal(params, &p) == nil && len(p.ContentChanges) > 0 {
			s.setDocument(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
		}
	case "textDocument/didSave":
		var p DidSaveTextDocumentParams
		if json.Unmarshal(params, &p) == nil && p.Text != "" {
			s.setDocument(p.TextDocument.URI, p.Text)
		}
	case "textDocument/didClose":
		var p DidCloseTextDocumentParams
		if json.Unmarshal(params, &p) == nil {
			s.mu.Lock()
			delete(s.docs, p.TextDocument.URI)
			s.mu.Unlock()
			s.publish(p.TextDocument.URI, nil)
		}
	case "exit":
		// Server.Run's frame loop ends naturally on EOF from the client
		// closing stdin; nothing to do here beyond letting the caller's
		// process exit with the code Run already decided.
	}
}

// loadWorkspaceConfig replaces the server's config with the workspace's
// own zc.yaml, if the client told us a root and that file exists there.
// A workspace without one keeps whatever config New was given (spec §6's
// --config flag, or the built-in default); this is purely an override.
func (s *Server) loadWorkspaceConfig(rootURI *string) {
	if rootURI == nil {
		return
	}
	root := strings.TrimPrefix(*rootURI, "file://")
	if root == "" {
		return
	}
	loaded, err := config.Load(filepath.Join(root, workspaceConfigFile))
	if err != nil {
		return
	}
	s.mu.Lock()
	s.cfg = loaded
	s.mu.Unlock()
}

// setDocument stores a document's latest text and republishes its
// diagnostics, the "diagnostics refresh on every edit" behavior spec §6
// requires of didOpen/didChange/didSave.
func (s *Server) setDocument(uri, text string) {
	s.mu.Lock()
	s.docs[uri] = text
	s.mu.Unlock()
	s.publish(uri, s.check(text))
}

// check runs one document's typed-tree fixture through C1-C3 (spec §6:
// "check — run front-end + C1..C3 and publish diagnostics") and returns
// its diagnostics, stamping a per-run correlation id into each report's
// Data for LSP log correlation (SPEC_FULL.md's DOMAIN STACK table).
func (s *Server) check(text string) []*diag.Report {
	ns := names.NewStore()
	ts := types.NewStore()
	root, err := fixture.Decode([]byte(text), ns)
	if err != nil {
		return []*diag.Report{{
			Schema: "zc.diag/v1", Code: "FIX001", Kind: diag.KindInternalAssertion,
			Severity: diag.SeverityError, Phase: "fixture", Title: "invalid typed-tree document",
			Message: err.Error(),
		}}
	}

	d, err := s.cfg.Descriptor()
	if err != nil {
		return []*diag.Report{{
			Schema: "zc.diag/v1", Code: "CFG001", Kind: diag.KindInternalAssertion,
			Severity: diag.SeverityError, Phase: "config", Title: "invalid architecture descriptor",
			Message: err.Error(),
		}}
	}

	res := pipeline.Run(pipeline.Config{StopAfterTypeCheck: true, MaxErrors: s.cfg.MaxErrors}, root, ns, ts, d)
	runID := uuid.New().String()
	for _, r := range res.Sink.Reports() {
		if r.Data == nil {
			r.Data = map[string]any{}
		}
		r.Data["run_id"] = runID
	}
	return res.Sink.Reports()
}

func (s *Server) publish(uri string, reports []*diag.Report) {
	diags := make([]Diagnostic, 0, len(reports))
	for _, r := range reports {
		diags = append(diags, toDiagnostic(r))
	}
	s.send(NotificationMessage{
		Jsonrpc: "2.0", Method: "textDocument/publishDiagnostics",
		Params: PublishDiagnosticsParams{URI: uri, Diagnostics: diags},
	})
}

func toDiagnostic(r *diag.Report) Diagnostic {
	sev := SeverityError
	if r.Severity == diag.SeverityWarning {
		sev = SeverityWarning
	}
	var rng Range
	if r.Span != nil {
		rng = Range{
			Start: Position{Line: max0(r.Span.Start.Line - 1), Character: max0(r.Span.Start.Column - 1)},
			End:   Position{Line: max0(r.Span.End.Line - 1), Character: max0(r.Span.End.Column - 1)},
		}
	}
	return Diagnostic{Range: rng, Severity: sev, Code: r.Code, Message: r.Message, Source: "zc"}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (s *Server) send(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "Content-Length: %d\r\n\r\n%s", len(data), data)
}
