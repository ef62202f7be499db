// Copyright © 2024 The vbalint authors

// Package lsp implements a Language Server Protocol server for VBA
// projects.  It publishes inspection results as diagnostics and offers
// quick fixes as code actions, along with document symbols, definitions,
// references, hover, rename and folding.
package lsp

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/project"
	"github.com/luthersystems/vbalint/session"
)

const (
	serverName    = "vbalint"
	serverVersion = "0.1.0"
)

// Server is the VBA language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	session  *session.Session
	docs     *DocumentStore
	logger   hclog.Logger
	project  string
	exclude  []string
	rootPath string

	// published holds the URIs that received diagnostics in the last
	// publish, so they can be cleared once their results go away.
	publishMu sync.Mutex
	published map[string]bool

	// Debouncer for didChange notifications.
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer
	delay      time.Duration

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithProject sets the project name of documents and loaded files.  An
// empty name keeps the default.
func WithProject(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.project = name
		}
	}
}

// WithExclude sets glob patterns skipped while loading the workspace.
func WithExclude(patterns []string) Option {
	return func(s *Server) { s.exclude = patterns }
}

// New creates a language server analyzing modules in sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session:   sess,
		docs:      NewDocumentStore(),
		logger:    hclog.NewNullLogger(),
		project:   project.DefaultName,
		published: make(map[string]bool),
		debounce:  make(map[string]*time.Timer),
		delay:     300 * time.Millisecond,
		exitFn:    os.Exit,
	}
	for _, o := range opts {
		o(s)
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCodeAction:     s.textDocumentCodeAction,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentFoldingRange:   s.textDocumentFoldingRange,
		TextDocumentPrepareRename:  s.textDocumentPrepareRename,
		TextDocumentRename:         s.textDocumentRename,
		WorkspaceSymbol:            s.workspaceSymbol,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootPath = uriToPath(*params.RootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
	}

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}
	capabilities.CodeActionProvider = &protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}
	capabilities.RenameProvider = &protocol.RenameOptions{
		PrepareProvider: boolPtr(true),
	}

	version := serverVersion
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// initialized loads the component files under the workspace root so that
// references across modules resolve before any document is opened.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	if s.rootPath == "" {
		return nil
	}
	s.loadWorkspace(s.rootPath)
	s.publish(context.Background())
	return nil
}

func (s *Server) loadWorkspace(root string) {
	proj, err := project.Load(root, &project.Options{
		Name:    s.project,
		Exclude: s.exclude,
		Logger:  s.logger.Named("project"),
	})
	if err != nil {
		s.logger.Warn("workspace load incomplete", "root", root, "error", err)
	}
	if proj == nil {
		return
	}
	for _, f := range proj.Files {
		if _, ok := s.session.Module(f.Name); ok {
			continue
		}
		s.session.Open(f.Name, f.Type, f.Path, f.Text)
	}
	s.logger.Info("workspace loaded", "root", root, "components", len(proj.Files))
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()
	s.session.Runner().Cancel()
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
