// Copyright © 2024 The vbalint authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/analysis"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request.  Module members are listed with enum and type members as
// children.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	t := s.table()
	mod, ok := s.session.Module(doc.Name)
	info := t.Module(doc.Name)
	if !ok || info == nil {
		return nil, nil
	}
	idx := newLineIndex(mod.Text)
	var symbols []protocol.DocumentSymbol
	for _, d := range info.Declarations {
		if !d.IsModuleLevel() {
			continue
		}
		sym := documentSymbol(idx, d)
		for _, child := range t.Children(d) {
			if child.Type == analysis.DeclEnumMember || child.Type == analysis.DeclUserDefinedTypeMember {
				sym.Children = append(sym.Children, documentSymbol(idx, child))
			}
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

func documentSymbol(idx *lineIndex, d *analysis.Declaration) protocol.DocumentSymbol {
	sel := locationRange(idx, d.Selection())
	full := sel
	if d.Context != nil && d.Context.Source() != nil {
		full = locationRange(idx, d.Context.Source())
	}
	if !containsRange(full, sel) {
		full = sel
	}
	var detail *string
	if d.AsTypeName != "" {
		detail = strPtr("As " + d.AsTypeName)
	}
	return protocol.DocumentSymbol{
		Name:           d.Name,
		Detail:         detail,
		Kind:           mapSymbolKind(d.Type),
		Range:          full,
		SelectionRange: sel,
	}
}

func containsRange(outer, inner protocol.Range) bool {
	return !before(inner.Start, outer.Start) && !before(outer.End, inner.End)
}

// workspaceSymbol handles the workspace/symbol request with a
// case-insensitive substring match over user declarations.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	t := s.table()
	if t == nil {
		return nil, nil
	}
	query := analysis.FoldName(params.Query)
	var out []protocol.SymbolInformation
	for _, d := range t.Declarations() {
		if d.IsBuiltIn || d.Type == analysis.DeclProject || d.IsLocal() || d.Type == analysis.DeclParameter {
			continue
		}
		if query != "" && !strings.Contains(analysis.FoldName(d.Name), query) {
			continue
		}
		loc, ok := s.location(d.Module, d.Selection())
		if !ok {
			continue
		}
		info := protocol.SymbolInformation{
			Name:     d.Name,
			Kind:     mapSymbolKind(d.Type),
			Location: loc,
		}
		if d.Parent != nil && d.Parent.Type != analysis.DeclProject {
			info.ContainerName = strPtr(d.Parent.Name)
		}
		out = append(out, info)
	}
	return out, nil
}

// mapSymbolKind converts a declaration type to an LSP SymbolKind.
func mapSymbolKind(t analysis.DeclarationType) protocol.SymbolKind {
	switch t {
	case analysis.DeclProject:
		return protocol.SymbolKindPackage
	case analysis.DeclProceduralModule, analysis.DeclDocument:
		return protocol.SymbolKindModule
	case analysis.DeclClassModule, analysis.DeclUserForm:
		return protocol.SymbolKindClass
	case analysis.DeclProcedure, analysis.DeclEventHandler:
		return protocol.SymbolKindMethod
	case analysis.DeclFunction, analysis.DeclLibraryFunction, analysis.DeclLibraryProcedure, analysis.DeclBuiltInFunction:
		return protocol.SymbolKindFunction
	case analysis.DeclPropertyGet, analysis.DeclPropertyLet, analysis.DeclPropertySet:
		return protocol.SymbolKindProperty
	case analysis.DeclConstant, analysis.DeclBuiltInConstant:
		return protocol.SymbolKindConstant
	case analysis.DeclEnum:
		return protocol.SymbolKindEnum
	case analysis.DeclEnumMember:
		return protocol.SymbolKindEnumMember
	case analysis.DeclUserDefinedType:
		return protocol.SymbolKindStruct
	case analysis.DeclUserDefinedTypeMember:
		return protocol.SymbolKindField
	case analysis.DeclEvent:
		return protocol.SymbolKindEvent
	default:
		return protocol.SymbolKindVariable
	}
}
