// Copyright © 2024 The vbalint authors

package lsp

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/project"
	"github.com/luthersystems/vbalint/session"
)

const diagnosticSource = "vbalint"

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	item := params.TextDocument
	doc, ok := documentFor(s.project, item.URI, item.Version, item.Text)
	if !ok {
		s.logger.Debug("ignoring non-component document", "uri", item.URI)
		return nil
	}
	if err := s.session.Update(doc.Name, doc.Version, item.Text); err != nil {
		s.session.Open(doc.Name, doc.Type, uriToPath(item.URI), item.Text)
	}
	s.docs.Open(doc)
	s.publish(context.Background())
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}
	if err := s.session.Update(doc.Name, params.TextDocument.Version, content); err != nil {
		s.logger.Warn("change to unknown module", "uri", doc.URI, "error", err)
		return nil
	}

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(s.delay, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("publish panicked", "panic", r)
			}
		}()
		s.publish(context.Background())
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	if s.docs.Get(params.TextDocument.URI) != nil {
		s.publish(context.Background())
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.  A
// module whose file is still on disk reverts to the saved text; any other
// module is dropped.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)
	doc := s.docs.Close(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	path := uriToPath(doc.URI)
	if f, err := project.ReadFile(doc.Name.Project, path); err == nil {
		_ = s.session.Update(doc.Name, 0, f.Text)
	} else {
		if !os.IsNotExist(err) {
			s.logger.Warn("reverting closed document", "path", path, "error", err)
		}
		s.session.Remove(doc.Name)
	}
	s.publish(context.Background())
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// moduleURI returns the URI diagnostics of a module are published to.
func (s *Server) moduleURI(m session.Module) string {
	if uri, ok := s.docs.URI(m.Name); ok {
		return uri
	}
	return pathToURI(m.Path)
}

// publish inspects the session and sends the diagnostics of every module
// with a URI.  Modules whose results went away receive an empty list.  A
// run superseded by a newer one publishes nothing.
func (s *Server) publish(ctx context.Context) {
	report, err := s.session.Inspect(ctx)
	if err != nil {
		s.logger.Error("inspection failed", "error", err)
		return
	}
	if report.State != inspection.StateCompleted {
		s.logger.Debug("inspection superseded", "state", report.State)
		return
	}
	byModule := make(map[analysis.QualifiedModuleName][]*inspection.Result)
	for _, r := range report.Results {
		key := foldKey(r.Module)
		byModule[key] = append(byModule[key], r)
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	current := make(map[string]bool)
	for _, m := range s.session.Modules() {
		uri := s.moduleURI(m)
		if uri == "" {
			continue
		}
		results := byModule[foldKey(m.Name)]
		if len(results) == 0 && !s.published[uri] {
			continue
		}
		idx := newLineIndex(m.Text)
		diags := make([]protocol.Diagnostic, 0, len(results))
		for _, r := range results {
			diags = append(diags, convertResult(idx, r))
		}
		if len(diags) > 0 {
			current[uri] = true
		}
		s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diags,
		})
	}
	for uri := range s.published {
		if !current[uri] {
			s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
				URI:         uri,
				Diagnostics: []protocol.Diagnostic{},
			})
		}
	}
	s.published = current
	s.logger.Debug("diagnostics published", "results", len(report.Results), "documents", len(current))
}

// convertResult converts an inspection result to an LSP diagnostic.
func convertResult(idx *lineIndex, r *inspection.Result) protocol.Diagnostic {
	sev := mapSeverity(r.Severity)
	msg := r.Description
	if len(r.Notes) > 0 {
		msg += "\n" + strings.Join(r.Notes, "\n")
	}
	return protocol.Diagnostic{
		Range:    locationRange(idx, r.Location),
		Severity: &sev,
		Source:   strPtr(diagnosticSource),
		Code:     &protocol.IntegerOrString{Value: r.Inspection},
		Message:  msg,
	}
}

// mapSeverity converts an inspection severity to an LSP severity.
func mapSeverity(sev inspection.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case inspection.SeverityError:
		return protocol.DiagnosticSeverityError
	case inspection.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case inspection.SeveritySuggestion:
		return protocol.DiagnosticSeverityInformation
	case inspection.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}
