// Copyright © 2024 The vbalint authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/analysis"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	_, d := s.declarationAt(params.TextDocument.URI, params.Position)
	if d == nil {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: s.hoverContent(d),
		},
	}, nil
}

// hoverContent builds Markdown hover text for a declaration.
func (s *Server) hoverContent(d *analysis.Declaration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s`", d.Type, d.String())
	if d.AsTypeName != "" {
		fmt.Fprintf(&sb, " As `%s`", d.AsTypeName)
	}

	if header := s.declarationHeader(d); header != "" {
		fmt.Fprintf(&sb, "\n\n```vb\n%s\n```", header)
	}

	if d.IsBuiltIn {
		if d.Library != "" {
			fmt.Fprintf(&sb, "\n\n*%s library", d.Library)
			if d.LibraryFile != "" {
				fmt.Fprintf(&sb, " (%s)", d.LibraryFile)
			}
			sb.WriteString("*")
		}
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n\n*%d reference(s)*", len(d.References()))
	return sb.String()
}

// declarationHeader returns the first source line of the statement that
// declares d.
func (s *Server) declarationHeader(d *analysis.Declaration) string {
	node := d.Statement
	if node == nil {
		node = d.Context
	}
	if node == nil || node.Source() == nil {
		return ""
	}
	mod, ok := s.session.Module(d.Module)
	if !ok {
		return ""
	}
	loc := node.Source()
	if loc.Pos < 0 || loc.End > len(mod.Text) || loc.Pos > loc.End {
		return ""
	}
	text := mod.Text[loc.Pos:loc.End]
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
