// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/luthersystems/vbalint/diagnostic"
	"github.com/luthersystems/vbalint/inspection"
)

func diagnosticSeverity(sev inspection.Severity) diagnostic.Severity {
	switch sev {
	case inspection.SeverityError:
		return diagnostic.SeverityError
	case inspection.SeveritySuggestion:
		return diagnostic.SeveritySuggestion
	case inspection.SeverityHint:
		return diagnostic.SeverityHint
	default:
		return diagnostic.SeverityWarning
	}
}

// resultToDiagnostic converts an inspection result to a Diagnostic for
// display.
func resultToDiagnostic(r *inspection.Result, path string) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnosticSeverity(r.Severity),
		Code:     r.Inspection,
		Message:  r.Description,
	}
	if r.Kind == inspection.KindFault {
		d.Severity = diagnostic.SeverityError
	}
	if loc := r.Location; loc != nil && loc.Line > 0 {
		span := diagnostic.Span{File: path, Line: loc.Line, Col: loc.Col}
		if loc.EndLine == loc.Line {
			span.EndCol = loc.EndCol
		}
		d.Spans = append(d.Spans, span)
	}
	d.Notes = append(d.Notes, r.Notes...)
	if len(r.Fixes) > 0 {
		d.Notes = append(d.Notes, "fix: vbalint fix --checks="+r.Inspection)
	}
	if r.Kind == inspection.KindDeclaration || r.Kind == inspection.KindReference || r.Kind == inspection.KindNode {
		d.Notes = append(d.Notes, fmt.Sprintf("to suppress: add \"'@Ignore %s\" on the line above", r.Inspection))
	}
	return d
}

// renderResults renders results as annotated source snippets.  Source
// lines come from the session so that decoded text is shown.
func renderResults(w io.Writer, ws *workspace, results []*inspection.Result) error {
	texts := make(map[string]string)
	var diags []diagnostic.Diagnostic
	for _, r := range results {
		path := ws.path(r.Module)
		if m, ok := ws.session.Module(r.Module); ok {
			texts[filepath.Clean(path)] = m.Text
		}
		diags = append(diags, resultToDiagnostic(r, path))
	}
	renderer := &diagnostic.Renderer{
		Color: ws.settings.Color,
		SourceReader: func(file string) ([]byte, error) {
			if text, ok := texts[filepath.Clean(file)]; ok {
				return []byte(text), nil
			}
			return os.ReadFile(file) //nolint:gosec // CLI tool reads user-specified files
		},
	}
	return renderer.RenderAll(w, diags)
}
