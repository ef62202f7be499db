// Copyright © 2024 The vbalint authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/parser/ast"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line declarations and consecutive
// comment lines.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	mod, ok := s.session.Module(doc.Name)
	if !ok {
		return nil, nil
	}
	tree := s.session.Cache().Parse(mod.Name.Project, mod.Name.Component, mod.Type, mod.Text)

	var ranges []protocol.FoldingRange
	for _, d := range tree.Decls {
		loc := d.Source()
		if loc != nil && loc.EndLine > loc.Line {
			ranges = append(ranges, foldingRange(loc.Line, loc.EndLine, protocol.FoldingRangeKindRegion))
		}
	}
	ranges = append(ranges, commentFoldingRanges(tree.Comments)...)
	return ranges, nil
}

func foldingRange(startLine, endLine int, kind protocol.FoldingRangeKind) protocol.FoldingRange {
	k := string(kind)
	return protocol.FoldingRange{
		StartLine: safeUint(startLine - 1),
		EndLine:   safeUint(endLine - 1),
		Kind:      &k,
	}
}

// commentFoldingRanges produces a folding range for each block of two or
// more whole-line comments on consecutive lines.
func commentFoldingRanges(comments []*ast.Comment) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	start, last := -1, -1
	flush := func() {
		if start >= 0 && last > start {
			ranges = append(ranges, foldingRange(start, last, protocol.FoldingRangeKindComment))
		}
	}
	for _, c := range comments {
		if c.Trailing || c.Loc == nil {
			continue
		}
		if start >= 0 && c.Loc.Line == last+1 {
			last = c.Loc.EndLine
			continue
		}
		flush()
		start, last = c.Loc.Line, c.Loc.EndLine
	}
	flush()
	return ranges
}
