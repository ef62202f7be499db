// Copyright © 2024 The vbalint authors

package inspection

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// Kind identifies what a result targets.
type Kind int

const (
	KindDeclaration Kind = iota
	KindReference
	KindNode
	KindModule
	// KindFault reports an inspection that failed while running.
	KindFault
	// KindSyntax reports a parse or collection error of a module.
	KindSyntax
)

func (k Kind) String() string {
	switch k {
	case KindDeclaration:
		return "declaration"
	case KindReference:
		return "reference"
	case KindNode:
		return "node"
	case KindModule:
		return "module"
	case KindFault:
		return "fault"
	default:
		return "syntax"
	}
}

// SyntaxInspection is the inspection name carried by syntax results.
const SyntaxInspection = "SyntaxError"

// Result is a single finding of an inspection.
type Result struct {
	Kind       Kind
	Inspection string
	Module     analysis.QualifiedModuleName
	// Location is the selection to navigate to.  It is nil for faults.
	Location *token.Location
	// Declaration is the target of declaration results and the resolved
	// target of reference results.
	Declaration *analysis.Declaration
	Reference   *analysis.Reference
	// Member is the procedure enclosing the target, if any.
	Member      *analysis.Declaration
	Node        ast.Node
	Description string
	Severity    Severity
	// Fixes names the quick fixes applicable to this result.
	Fixes []string
	// Notes are optional hint lines, such as spelling suggestions.
	Notes []string
	// Snapshot is the source text at Location when the result was
	// produced.  Quick fixes refuse to apply once it no longer matches.
	Snapshot string
}

// Navigation is the target of a navigate-to-result request: a module and a
// 1-based selection within it.
type Navigation struct {
	Module    analysis.QualifiedModuleName
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Navigation returns the selection a host should move to for r.  The
// second return is false for results without a location.
func (r *Result) Navigation() (Navigation, bool) {
	if r.Location == nil {
		return Navigation{Module: r.Module}, false
	}
	return Navigation{
		Module:    r.Module,
		StartLine: r.Location.Line,
		StartCol:  r.Location.Col,
		EndLine:   r.Location.EndLine,
		EndCol:    r.Location.EndCol,
	}, true
}

// HasFix reports whether fix is offered for r, ignoring case.
func (r *Result) HasFix(fix string) bool {
	for _, f := range r.Fixes {
		if analysis.FoldName(f) == analysis.FoldName(fix) {
			return true
		}
	}
	return false
}

// Position returns the result position in file:line:col form.
func (r *Result) Position() Position {
	p := Position{File: r.Module.String()}
	if r.Location != nil {
		p.Line = r.Location.Line
		p.Col = r.Location.Col
	}
	return p
}

// String returns the result in go vet style: module:line:col: message
// (inspection) with optional note lines appended.
func (r *Result) String() string {
	s := fmt.Sprintf("%s: %s (%s)", r.Position(), r.Description, r.Inspection)
	for _, n := range r.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Position identifies a location in a module.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

// String returns the position in file:line format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

type jsonResult struct {
	Pos        Position `json:"pos"`
	Message    string   `json:"message"`
	Inspection string   `json:"inspection"`
	Severity   Severity `json:"severity"`
	Kind       string   `json:"kind"`
	Member     string   `json:"member,omitempty"`
	Fixes      []string `json:"fixes,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// MarshalJSON flattens the result.  Declarations and references form
// cycles and are reduced to names.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := jsonResult{
		Pos:        r.Position(),
		Message:    r.Description,
		Inspection: r.Inspection,
		Severity:   r.Severity,
		Kind:       r.Kind.String(),
		Fixes:      r.Fixes,
		Notes:      r.Notes,
	}
	if r.Member != nil {
		out.Member = r.Member.Name
	}
	return json.Marshal(out)
}

// SortResults orders results by module, position and inspection name.
func SortResults(results []*Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return lessResult(results[i], results[j])
	})
}

func lessResult(a, b *Result) bool {
	if a.Module != b.Module {
		return a.Module.Less(b.Module)
	}
	al, ac := lineCol(a.Location)
	bl, bc := lineCol(b.Location)
	if al != bl {
		return al < bl
	}
	if ac != bc {
		return ac < bc
	}
	if a.Inspection != b.Inspection {
		return a.Inspection < b.Inspection
	}
	return a.Description < b.Description
}

func lineCol(loc *token.Location) (int, int) {
	if loc == nil {
		return 0, 0
	}
	return loc.Line, loc.Col
}

// FormatText writes results in go vet text format.
func FormatText(w io.Writer, results []*Result) {
	for _, r := range results {
		fmt.Fprintln(w, r.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes results as JSON.
func FormatJSON(w io.Writer, results []*Result) error {
	if results == nil {
		results = []*Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
