// Copyright © 2024 The vbalint authors

// Package inspection runs lint rules over a VBA declaration table.
//
// Each rule is an Inspection: metadata plus up to two hooks.  A
// declaration hook reads the immutable analysis.Table; a listener hook
// receives the nodes of one shared syntax tree walk into a private
// accumulator and turns them into results afterwards.  Inspections are
// registered explicitly in a Registry and executed by a Runner, which
// isolates faults, honors cancellation and drops results suppressed by
// '@Ignore annotations.
package inspection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/astutil"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// Severity indicates how serious a result is.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeveritySuggestion
	SeverityHint
	// SeverityDoNotShow disables an inspection when used as an override.
	SeverityDoNotShow
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeveritySuggestion:
		return "suggestion"
	case SeverityHint:
		return "hint"
	case SeverityDoNotShow:
		return "donotshow"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a severity name to its value, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "suggestion", "info":
		return SeveritySuggestion, nil
	case "hint":
		return SeverityHint, nil
	case "donotshow", "off", "none":
		return SeverityDoNotShow, nil
	}
	return severityUnset, fmt.Errorf("unknown severity: %q", s)
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Capability tags what an inspection needs from a run.
type Capability uint8

const (
	// CapDeclarations marks inspections that read the declaration table.
	CapDeclarations Capability = 1 << iota
	// CapTreeListener marks inspections that listen to the shared walk.
	CapTreeListener
)

func (c Capability) String() string {
	var parts []string
	if c&CapDeclarations != 0 {
		parts = append(parts, "declarations")
	}
	if c&CapTreeListener != 0 {
		parts = append(parts, "tree")
	}
	return strings.Join(parts, "+")
}

// Listener accumulates matches during the shared tree walk.  A fresh
// listener is created for every run, so it may keep private state without
// locking.
type Listener interface {
	astutil.Visitor
	// Report turns the accumulated matches into results.
	Report(pass *Pass) error
}

// Inspection defines a single rule.
type Inspection struct {
	// Name identifies the inspection, e.g. "ProcedureNotUsed".
	Name string

	// Category groups related inspections, e.g. "CodeQuality".
	Category string

	// Doc is a human-readable description.  The first line is a short
	// summary.
	Doc string

	// Severity is the default severity of results.
	Severity Severity

	// Fixes names the quick fixes results may offer.
	Fixes []string

	// Declarations reads the declaration table and reports results.
	Declarations func(pass *Pass) error

	// NewListener creates the listener registered against the shared walk.
	NewListener func() Listener
}

// Capabilities derives the capability tags from the hooks that are set.
func (i *Inspection) Capabilities() Capability {
	var c Capability
	if i.Declarations != nil {
		c |= CapDeclarations
	}
	if i.NewListener != nil {
		c |= CapTreeListener
	}
	return c
}

// Summary returns the first line of Doc.
func (i *Inspection) Summary() string {
	summary, _, _ := strings.Cut(i.Doc, "\n")
	return summary
}

// Pass provides context to a running inspection.
type Pass struct {
	// Inspection is the currently running rule.
	Inspection *Inspection

	// Table is the published declaration table of the run.
	Table *analysis.Table

	// EntryPoints lists the procedures the host calls by itself.
	EntryPoints analysis.HostEntryPoints

	ctx      context.Context
	severity Severity
	results  []*Result
}

func newPass(ctx context.Context, insp *Inspection, table *analysis.Table, cfg *Config) *Pass {
	p := &Pass{
		ctx:         ctx,
		Inspection:  insp,
		Table:       table,
		EntryPoints: cfg.EntryPoints,
		severity:    insp.Severity,
	}
	if s, ok := cfg.severity(insp.Name); ok {
		p.severity = s
	}
	return p
}

func (p *Pass) report(r *Result, format string, args []interface{}) {
	r.Inspection = p.Inspection.Name
	r.Severity = p.severity
	r.Description = fmt.Sprintf(format, args...)
	if r.Fixes == nil {
		r.Fixes = append([]string(nil), p.Inspection.Fixes...)
	}
	if info := p.Table.Module(r.Module); info != nil && r.Location != nil {
		r.Snapshot = info.AST.TextOf(r.Location)
	}
	p.results = append(p.results, r)
}

// ReportDeclaration records a result targeting d.
func (p *Pass) ReportDeclaration(d *analysis.Declaration, format string, args ...interface{}) *Result {
	r := &Result{
		Kind:        KindDeclaration,
		Module:      d.Module,
		Location:    d.Selection(),
		Declaration: d,
		Member:      memberOf(d),
	}
	p.report(r, format, args)
	return r
}

// ReportReference records a result targeting ref.
func (p *Pass) ReportReference(ref *analysis.Reference, format string, args ...interface{}) *Result {
	r := &Result{
		Kind:        KindReference,
		Module:      ref.Module,
		Location:    ref.Source,
		Reference:   ref,
		Declaration: ref.Declaration,
		Member:      ref.Member,
	}
	p.report(r, format, args)
	return r
}

// ReportNode records a result at a syntax node of mod.
func (p *Pass) ReportNode(mod *ast.Module, node ast.Node, format string, args ...interface{}) *Result {
	name := analysis.ModuleName(mod)
	loc := node.Source()
	r := &Result{
		Kind:     KindNode,
		Module:   name,
		Location: loc,
		Node:     node,
	}
	if loc != nil {
		r.Member = p.Table.EnclosingMember(name, loc.Line)
	}
	p.report(r, format, args)
	return r
}

// ReportModule records a result about a whole module, anchored at loc.
func (p *Pass) ReportModule(mod *ast.Module, loc *token.Location, format string, args ...interface{}) *Result {
	r := &Result{
		Kind:     KindModule,
		Module:   analysis.ModuleName(mod),
		Location: loc,
	}
	p.report(r, format, args)
	return r
}

// Context returns the context of the run.  Long-running hooks should stop
// when it is done.
func (p *Pass) Context() context.Context {
	return p.ctx
}

// Results returns the results reported so far.
func (p *Pass) Results() []*Result {
	return p.results
}

// IsEntryPoint reports whether the host calls d by itself.
func (p *Pass) IsEntryPoint(d *analysis.Declaration) bool {
	_, ok := p.EntryPoints.Match(d)
	return ok
}

// memberOf returns the procedure enclosing d, or d itself when it is one.
func memberOf(d *analysis.Declaration) *analysis.Declaration {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur.Type.IsMember() {
			return cur
		}
	}
	return nil
}
