// Copyright © 2024 The vbalint authors

package lsp

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/quickfix"
)

// textDocumentCodeAction handles the textDocument/codeAction request.  It
// returns the quick fixes of the results whose range overlaps the request
// or that match one of its diagnostics.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	if len(params.Context.Only) > 0 && !slicesContains(params.Context.Only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}
	report := s.session.Report()
	mod, ok := s.session.Module(doc.Name)
	if report == nil || !ok {
		return nil, nil
	}
	idx := newLineIndex(mod.Text)
	ctx := context.Background()

	var actions []protocol.CodeAction
	for _, r := range report.Results {
		if r.Location == nil || len(r.Fixes) == 0 || foldKey(r.Module) != foldKey(doc.Name) {
			continue
		}
		diag := convertResult(idx, r)
		matched := matchingDiagnostic(params.Context.Diagnostics, diag)
		if matched == nil && !overlaps(diag.Range, params.Range) {
			continue
		}
		for _, fix := range r.Fixes {
			action, err := s.fixAction(ctx, doc.URI, r, fix)
			if errors.Is(err, quickfix.ErrFixUnavailable) {
				s.logger.Trace("quick fix unavailable", "fix", fix, "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			if matched != nil {
				action.Diagnostics = []protocol.Diagnostic{*matched}
			} else {
				action.Diagnostics = []protocol.Diagnostic{diag}
			}
			actions = append(actions, action)
		}
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// fixAction computes the edit of fix without applying it.
func (s *Server) fixAction(ctx context.Context, uri string, r *inspection.Result, fix string) (protocol.CodeAction, error) {
	edit, err := s.session.ComputeFix(ctx, r, fix)
	if err != nil {
		return protocol.CodeAction{}, err
	}
	mod, ok := s.session.Module(edit.Module)
	if !ok {
		return protocol.CodeAction{}, fmt.Errorf("module %s is not open", edit.Module)
	}
	idx := newLineIndex(mod.Text)
	edits := make([]protocol.TextEdit, 0, len(edit.Changes))
	for _, c := range edit.Changes {
		edits = append(edits, protocol.TextEdit{
			Range:   idx.span(c.Pos, c.End),
			NewText: c.Replacement,
		})
	}
	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title: edit.Description,
		Kind:  &kind,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[string][]protocol.TextEdit{uri: edits},
		},
		IsPreferred: boolPtr(fix != inspection.FixIgnoreOnce),
	}, nil
}

// matchingDiagnostic returns the client diagnostic reporting the same
// finding as diag.
func matchingDiagnostic(diags []protocol.Diagnostic, diag protocol.Diagnostic) *protocol.Diagnostic {
	for i := range diags {
		d := &diags[i]
		if d.Source == nil || *d.Source != diagnosticSource || d.Code == nil {
			continue
		}
		if fmt.Sprint(d.Code.Value) == fmt.Sprint(diag.Code.Value) && d.Range == diag.Range {
			return d
		}
	}
	return nil
}

// slicesContains checks if a string slice contains a value.
func slicesContains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
