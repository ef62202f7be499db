// Copyright © 2024 The vbalint authors

package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/token"
)

// table returns the declaration table of the current module texts.
func (s *Server) table() *analysis.Table {
	t, err := s.session.Parse(context.Background())
	if err != nil {
		s.logger.Error("parse failed", "error", err)
		return s.session.Table()
	}
	return t
}

// declarationAt returns the declaration named or used at a position of an
// open document.
func (s *Server) declarationAt(uri string, pos protocol.Position) (*analysis.Table, *analysis.Declaration) {
	doc := s.docs.Get(uri)
	if doc == nil {
		return nil, nil
	}
	mod, ok := s.session.Module(doc.Name)
	if !ok {
		return nil, nil
	}
	t := s.table()
	if t == nil {
		return nil, nil
	}
	line, col := newLineIndex(mod.Text).lineCol(pos)
	d := t.DeclarationAt(doc.Name, line, col)
	if d == nil && col > 1 {
		// the cursor may sit just past the identifier
		d = t.DeclarationAt(doc.Name, line, col-1)
	}
	return t, d
}

// location converts a span of a module to an LSP location.  Built-in
// declarations and modules without a URI have none.
func (s *Server) location(name analysis.QualifiedModuleName, loc *token.Location) (protocol.Location, bool) {
	if loc == nil {
		return protocol.Location{}, false
	}
	mod, ok := s.session.Module(name)
	if !ok {
		return protocol.Location{}, false
	}
	uri := s.moduleURI(mod)
	if uri == "" {
		return protocol.Location{}, false
	}
	return protocol.Location{URI: uri, Range: locationRange(newLineIndex(mod.Text), loc)}, true
}

// textDocumentDefinition handles the textDocument/definition request.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	_, d := s.declarationAt(params.TextDocument.URI, params.Position)
	if d == nil || d.IsBuiltIn {
		return nil, nil
	}
	loc, ok := s.location(d.Module, d.Selection())
	if !ok {
		return nil, nil
	}
	return loc, nil
}
