// Copyright © 2024 The vbalint authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles the textDocument/references request.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	_, d := s.declarationAt(params.TextDocument.URI, params.Position)
	if d == nil {
		return nil, nil
	}
	var locations []protocol.Location

	if params.Context.IncludeDeclaration && !d.IsBuiltIn {
		if loc, ok := s.location(d.Module, d.Selection()); ok {
			locations = append(locations, loc)
		}
	}
	for _, ref := range d.References() {
		if loc, ok := s.location(ref.Module, ref.Source); ok {
			locations = append(locations, loc)
		}
	}
	return locations, nil
}
