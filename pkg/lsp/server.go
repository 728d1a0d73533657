// Package lsp provides a Language Server Protocol server that reports
// Python methods exceeding metric thresholds as diagnostics and shows their
// metrics on hover.
package lsp

import (
	"context"
	"log/slog"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/codemetrics/pkg/observability"
	"github.com/Sumatoshi-tech/codemetrics/pkg/version"
)

const (
	// serverName is the LSP server name reported on initialize.
	serverName = "codemetrics"

	publishDiagnosticsMethod = "textDocument/publishDiagnostics"
)

// Server implements the codemetrics LSP server.
type Server struct {
	docs     *Documents
	analyzer *Analyzer
	logger   *slog.Logger
	red      *observability.REDMetrics
	handler  protocol.Handler
}

// NewServer creates a new LSP server with default handlers. A nil logger
// uses slog default; nil metrics disable request recording.
func NewServer(analyzer *Analyzer, logger *slog.Logger, red *observability.REDMetrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{docs: NewDocuments(), analyzer: analyzer, logger: logger, red: red}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv
}

// Run starts the LSP server on stdio.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	return lspServer.RunStdio()
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.docs.Open(uri, params.TextDocument.Text, params.TextDocument.Version)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) == 0 {
		return nil
	}

	text, ok := changeText(params.ContentChanges[len(params.ContentChanges)-1])
	if !ok {
		return nil
	}

	if !srv.docs.Update(uri, text, params.TextDocument.Version) {
		return nil
	}

	srv.publishDiagnostics(ctx, uri)

	return nil
}

// changeText extracts the full text of a content change. Full sync is
// advertised, so every change carries the whole document.
func changeText(change any) (string, bool) {
	switch typed := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return typed.Text, true
	case protocol.TextDocumentContentChangeEvent:
		return typed.Text, true
	case map[string]any:
		text, ok := typed["text"].(string)

		return text, ok
	default:
		return "", false
	}
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.docs.Replace(uri, *params.Text)
	}

	if _, ok := srv.docs.Text(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.docs.Close(uri)

	ctx.Notify(publishDiagnosticsMethod, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI

	report, ok := srv.analyze(uri)
	if !ok {
		return nil, nil //nolint:nilnil // LSP protocol expects nil hover when no document found.
	}

	text, found := srv.analyzer.HoverText(report, int(params.Position.Line)+1)
	if !found {
		return nil, nil //nolint:nilnil // LSP protocol expects nil hover outside methods.
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}, nil
}

// analyze returns the report of the current text of uri, measuring it
// once per text. Parse errors are logged and leave the document without a
// report.
func (srv *Server) analyze(uri string) (Report, bool) {
	text, ok := srv.docs.Text(uri)
	if !ok {
		return Report{}, false
	}

	if report, cached := srv.docs.Report(uri); cached {
		return report, true
	}

	var report Report

	ctx := context.Background()

	err := srv.red.Observe(ctx, "lsp.analyze", func() error {
		var analyzeErr error

		report, analyzeErr = srv.analyzer.Analyze(ctx, URIToPath(uri), text)

		return analyzeErr
	})
	if err != nil {
		srv.logger.DebugContext(ctx, "document not analyzed", "uri", uri, "error", err)

		return Report{}, false
	}

	srv.docs.Remember(uri, text, report)

	return report, true
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	diagnostics := []protocol.Diagnostic{}

	if report, ok := srv.analyze(uri); ok {
		diagnostics = Diagnostics(report)
	}

	ctx.Notify(publishDiagnosticsMethod, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
