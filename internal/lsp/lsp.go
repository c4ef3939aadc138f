// Package lsp runs a minimal language server over corelox's compiler: it
// recompiles a document on every change and republishes the compiler's
// "[line N] Error...: message" diagnostics as LSP Diagnostics. It never
// executes a script — only internal/compiler.Compile runs, never a VM.
package lsp

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/xirelogy/corelox/internal/compiler"
	"github.com/xirelogy/corelox/internal/heap"
)

const serverName = "corelox-lsp"

var diagnosticLine = regexp.MustCompile(`^\[line (\d+)\] Error(.*)$`)

// Server bridges LSP document sync to internal/compiler.
type Server struct {
	mu   sync.Mutex
	docs map[string]string

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New constructs a Server ready to Run over stdio.
func New() *Server {
	s := &Server{docs: make(map[string]string), version: "0.1.0"}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: func(ctx *glsp.Context, params *protocol.InitializedParams) error { return nil },
		Shutdown:    func(ctx *glsp.Context) error { return nil },

		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidClose:  s.didClose,
	}

	s.server = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// Run starts the server on stdio, blocking until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "corelox LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text
	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()
	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.docs[string(uri)] = whole.Text
	s.mu.Unlock()
	s.publishDiagnostics(ctx, uri, whole.Text)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	_, errs := compiler.Compile(heap.NewHeap(), text)

	diagnostics := make([]protocol.Diagnostic, 0, len(errs))
	severity := protocol.DiagnosticSeverityError
	source := serverName
	for _, e := range errs {
		line, message := parseDiagnostic(e)
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 0},
				End:   protocol.Position{Line: line, Character: 1000},
			},
			Severity: &severity,
			Source:   &source,
			Message:  message,
		})
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// parseDiagnostic pulls the 1-based source line out of a formatted
// "[line N] Error...: message" diagnostic, converting it to LSP's 0-based
// line numbering.
func parseDiagnostic(d string) (uint32, string) {
	m := diagnosticLine.FindStringSubmatch(d)
	if m == nil {
		return 0, d
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, d
	}
	return uint32(n - 1), d
}
