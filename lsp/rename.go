// Copyright © 2024 The vbalint authors

package lsp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/token"
)

var identifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,254}$`)

const typeHints = "%&^!#@$"

// renameable reports whether d is a user declaration that can be renamed.
func renameable(d *analysis.Declaration) bool {
	return d != nil && !d.IsBuiltIn && d.Type != analysis.DeclProject && d.Source != nil
}

// textDocumentPrepareRename validates that the declaration under the
// cursor is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	t, d := s.declarationAt(params.TextDocument.URI, params.Position)
	if !renameable(d) || d.Type.IsModule() {
		return nil, nil
	}
	doc := s.docs.Get(params.TextDocument.URI)
	mod, ok := s.session.Module(doc.Name)
	if !ok {
		return nil, nil
	}
	idx := newLineIndex(mod.Text)
	line, col := idx.lineCol(params.Position)
	loc := d.Source
	if d.Module != doc.Name || !loc.Contains(line, col) {
		if ref := t.ReferenceAt(doc.Name, line, col); ref != nil {
			loc = ref.Source
		}
	}
	return &protocol.RangeWithPlaceholder{
		Range:       locationRange(idx, loc),
		Placeholder: d.Name,
	}, nil
}

// textDocumentRename handles the textDocument/rename request.  Property
// accessors sharing a name are renamed together and type hints written at
// usage sites are kept.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	t, d := s.declarationAt(params.TextDocument.URI, params.Position)
	if d == nil {
		return nil, fmt.Errorf("no declaration at position")
	}
	if !renameable(d) || d.Type.IsModule() {
		return nil, fmt.Errorf("cannot rename %s %s", d.Type, d.Name)
	}
	if !identifier.MatchString(params.NewName) {
		return nil, fmt.Errorf("%q is not a valid identifier", params.NewName)
	}

	targets := []*analysis.Declaration{d}
	if d.Type.IsProperty() {
		for _, other := range t.Find(d.Name) {
			if other != d && other.Type.IsProperty() && other.Parent == d.Parent {
				targets = append(targets, other)
			}
		}
	}

	edits := make(map[protocol.DocumentUri][]protocol.TextEdit)
	add := func(name analysis.QualifiedModuleName, loc *token.Location, written string) {
		l, ok := s.location(name, loc)
		if !ok {
			return
		}
		newText := params.NewName
		if n := len(written); n > 0 && strings.IndexByte(typeHints, written[n-1]) >= 0 {
			newText += written[n-1:]
		}
		edits[l.URI] = append(edits[l.URI], protocol.TextEdit{Range: l.Range, NewText: newText})
	}
	for _, target := range targets {
		written := target.Name
		if target.HasTypeHint {
			if mod, ok := s.session.Module(target.Module); ok && target.Source.End <= len(mod.Text) {
				written = mod.Text[target.Source.Pos:target.Source.End]
			}
		}
		add(target.Module, target.Source, written)
		for _, ref := range target.References() {
			add(ref.Module, ref.Source, ref.Name)
		}
	}
	return &protocol.WorkspaceEdit{Changes: edits}, nil
}
