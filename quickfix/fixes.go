// Copyright © 2024 The vbalint authors

package quickfix

import (
	"sort"
	"strings"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/astutil"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// fixer holds what a fix needs to compute its changes.
type fixer struct {
	result *inspection.Result
	mod    *ast.Module
	text   string
	loc    *token.Location
}

type fixDef struct {
	title string
	apply func(f *fixer) ([]Change, error)
}

func (d *fixDef) describe(r *inspection.Result) string {
	if strings.Contains(d.title, "%s") {
		return strings.Replace(d.title, "%s", r.Inspection, 1)
	}
	return d.title
}

type catalogueMap map[string]*fixDef

func (m catalogueMap) lookup(fix string) (*fixDef, bool) {
	if d, ok := m[fix]; ok {
		return d, true
	}
	for name, d := range m {
		if analysis.FoldName(name) == analysis.FoldName(fix) {
			return d, true
		}
	}
	return nil, false
}

var catalogue = catalogueMap{
	inspection.FixIgnoreOnce:                    {"Ignore once (%s)", fixIgnoreOnce},
	inspection.FixRemoveUnusedDeclaration:       {"Remove unused declaration", fixRemoveUnusedDeclaration},
	inspection.FixConvertToProcedure:            {"Convert function to procedure", fixConvertToProcedure},
	inspection.FixUseTypedFunction:              {"Use typed function", fixUseTypedFunction},
	inspection.FixSpecifyExplicitPublicModifier: {"Specify 'Public' access modifier", fixSpecifyExplicitPublicModifier},
	inspection.FixDeclareAsExplicitVariant:      {"Declare as explicit 'Variant'", fixDeclareAsExplicitVariant},
	inspection.FixReplaceGlobalModifier:         {"Replace 'Global' with 'Public'", fixReplaceGlobalModifier},
	inspection.FixAddOptionExplicit:             {"Add 'Option Explicit'", fixAddOptionExplicit},
	inspection.FixReplaceEmptyStringLiteral:     {"Replace \"\" with 'vbNullString'", fixReplaceEmptyStringLiteral},
	inspection.FixRemoveExplicitCallStatement:   {"Remove obsolete 'Call' keyword", fixRemoveExplicitCallStatement},
}

// Names returns the names of all known fixes, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Title returns the user-facing title of fix applied to r.
func Title(r *inspection.Result, fix string) string {
	d, ok := catalogue.lookup(fix)
	if !ok {
		return fix
	}
	return d.describe(r)
}

func fixIgnoreOnce(f *fixer) ([]Change, error) {
	name := f.result.Inspection
	line := f.loc.Line
	for _, c := range f.mod.Comments {
		if c.Trailing || c.Loc == nil || c.Loc.EndLine != line-1 {
			continue
		}
		fields := strings.Fields(c.Body())
		if len(fields) == 0 || !strings.EqualFold(fields[0], "@Ignore") {
			continue
		}
		for _, arg := range fields[1:] {
			if strings.EqualFold(strings.Trim(arg, ","), name) {
				return nil, unavailable("%s is already ignored on line %d", name, line)
			}
		}
		sep := ", "
		if len(fields) == 1 {
			sep = " "
		}
		return []Change{{Pos: c.Loc.End, End: c.Loc.End, Replacement: sep + name}}, nil
	}
	start := lineStart(f.text, f.loc.Pos)
	annotation := indentation(f.text, start) + "'@Ignore " + name + newline(f.text)
	return []Change{{Pos: start, End: start, Replacement: annotation}}, nil
}

func fixRemoveUnusedDeclaration(f *fixer) ([]Change, error) {
	pos := f.loc.Pos
	if proc := findProc(f.mod, pos); proc != nil {
		return []Change{removeSpan(f.text, proc.Loc.Pos, proc.Loc.End)}, nil
	}
	if decl, _ := findNode[*ast.DeclareDecl](f.mod, pos, nameOf); decl != nil {
		return []Change{removeSpan(f.text, decl.Loc.Pos, decl.Loc.End)}, nil
	}
	spec, parent := findNode[*ast.VarSpec](f.mod, pos, nameOf)
	decl, ok := parent.(*ast.VarDecl)
	if spec == nil || !ok {
		return nil, unavailable("no removable declaration at %s", f.loc)
	}
	if len(decl.Vars) == 1 {
		return []Change{removeSpan(f.text, decl.Loc.Pos, decl.Loc.End)}, nil
	}
	for i, v := range decl.Vars {
		if v != spec {
			continue
		}
		if i == 0 {
			return []Change{{Pos: spec.Loc.Pos, End: decl.Vars[1].Loc.Pos}}, nil
		}
		return []Change{{Pos: decl.Vars[i-1].Loc.End, End: spec.Loc.End}}, nil
	}
	return nil, unavailable("declaration at %s not found", f.loc)
}

func fixConvertToProcedure(f *fixer) ([]Change, error) {
	proc := findProc(f.mod, f.loc.Pos)
	if proc == nil || proc.Kind != ast.FunctionProc || proc.Keyword == nil || proc.EndStmt == nil {
		return nil, unavailable("no function at %s", f.loc)
	}
	if proc.Name.TypeHint() != "" {
		return nil, unavailable("function %s has a type hint", proc.Name.Name)
	}
	changes := []Change{{Pos: proc.Keyword.Pos, End: proc.Keyword.End, Replacement: "Sub"}}
	if proc.Type != nil {
		// remove " As Type" after the parameter list
		start := strings.LastIndex(strings.ToLower(f.text[:proc.Type.Loc.Pos]), "as")
		if start < proc.Name.Loc.End {
			return nil, unavailable("malformed return type")
		}
		start = len(strings.TrimRight(f.text[:start], " \t"))
		changes = append(changes, Change{Pos: start, End: proc.Type.Loc.End})
	}
	astutil.WalkFunc(f.mod, func(node ast.Node, c *astutil.Cursor) {
		if exit, ok := node.(*ast.ExitStmt); ok && c.Member == proc && strings.EqualFold(exit.Kind, "Function") {
			changes = append(changes, Change{Pos: exit.Loc.Pos, End: exit.Loc.End, Replacement: "Exit Sub"})
		}
	})
	changes = append(changes, Change{Pos: proc.EndStmt.Pos, End: proc.EndStmt.End, Replacement: "End Sub"})
	return changes, nil
}

func fixUseTypedFunction(f *fixer) ([]Change, error) {
	if strings.HasSuffix(f.result.Snapshot, "$") {
		return nil, unavailable("%s is already typed", f.result.Snapshot)
	}
	return []Change{{Pos: f.loc.End, End: f.loc.End, Replacement: "$"}}, nil
}

func fixSpecifyExplicitPublicModifier(f *fixer) ([]Change, error) {
	proc := findProc(f.mod, f.loc.Pos)
	if proc == nil || proc.Access != ast.Implicit {
		return nil, unavailable("no implicitly public member at %s", f.loc)
	}
	return []Change{{Pos: proc.Loc.Pos, End: proc.Loc.Pos, Replacement: "Public "}}, nil
}

func fixDeclareAsExplicitVariant(f *fixer) ([]Change, error) {
	var (
		end   int
		array bool
	)
	if spec, _ := findNode[*ast.VarSpec](f.mod, f.loc.Pos, nameOf); spec != nil && spec.Type == nil {
		end, array = spec.Name.Loc.End, spec.Array
	} else if param, _ := findNode[*ast.Param](f.mod, f.loc.Pos, nameOf); param != nil && param.Type == nil && !param.ParamArray {
		end, array = param.Name.Loc.End, param.Array
	} else {
		return nil, unavailable("no untyped declaration at %s", f.loc)
	}
	if array {
		rparen := matchParen(f.text, end)
		if rparen < 0 {
			return nil, unavailable("unbalanced array bounds at %s", f.loc)
		}
		end = rparen + 1
	}
	return []Change{{Pos: end, End: end, Replacement: " As Variant"}}, nil
}

func fixReplaceGlobalModifier(f *fixer) ([]Change, error) {
	_, parent := findNode[*ast.VarSpec](f.mod, f.loc.Pos, nameOf)
	decl, ok := parent.(*ast.VarDecl)
	if !ok || decl.Access != ast.Global {
		return nil, unavailable("no Global declaration at %s", f.loc)
	}
	const global = "Global"
	pos := decl.Loc.Pos
	if pos+len(global) > len(f.text) || !strings.EqualFold(f.text[pos:pos+len(global)], global) {
		return nil, unavailable("declaration at %s does not start with Global", f.loc)
	}
	return []Change{{Pos: pos, End: pos + len(global), Replacement: "Public"}}, nil
}

func fixAddOptionExplicit(f *fixer) ([]Change, error) {
	if f.mod.HasOption("Explicit") {
		return nil, unavailable("%s already specifies Option Explicit", f.result.Module)
	}
	pos := lineStart(f.text, f.loc.Pos)
	if end := headerEnd(f.text); end > pos {
		pos = end
	}
	nl := newline(f.text)
	return []Change{{Pos: pos, End: pos, Replacement: "Option Explicit" + nl + nl}}, nil
}

func fixReplaceEmptyStringLiteral(f *fixer) ([]Change, error) {
	lit, _ := findNode[*ast.Literal](f.mod, f.loc.Pos, sourceOf)
	if lit == nil || !lit.IsEmptyString() {
		return nil, unavailable("no empty string literal at %s", f.loc)
	}
	return []Change{{Pos: lit.Loc.Pos, End: lit.Loc.End, Replacement: "vbNullString"}}, nil
}

func fixRemoveExplicitCallStatement(f *fixer) ([]Change, error) {
	stmt, _ := findNode[*ast.CallStmt](f.mod, f.loc.Pos, sourceOf)
	if stmt == nil || !stmt.Explicit {
		return nil, unavailable("no Call statement at %s", f.loc)
	}
	target := stmt.Call
	var args []*ast.Arg
	if call, ok := stmt.Call.(*ast.CallExpr); ok {
		target, args = call.Fun, call.Args
	}
	repl := f.text[target.Source().Pos:target.Source().End]
	if len(args) > 0 {
		first, last := args[0].Loc, args[len(args)-1].Loc
		repl += " " + f.text[first.Pos:last.End]
	}
	return []Change{{Pos: stmt.Loc.Pos, End: stmt.Loc.End, Replacement: repl}}, nil
}

func findProc(mod *ast.Module, pos int) *ast.ProcDecl {
	for _, p := range mod.Procedures() {
		if p.Name != nil && p.Name.Loc != nil && p.Name.Loc.Pos == pos {
			return p
		}
	}
	return nil
}

func nameOf(node ast.Node) *token.Location {
	switch n := node.(type) {
	case *ast.VarSpec:
		return n.Name.Loc
	case *ast.Param:
		return n.Name.Loc
	case *ast.DeclareDecl:
		return n.Name.Loc
	}
	return nil
}

func sourceOf(node ast.Node) *token.Location {
	return node.Source()
}

// findNode returns the first node of type T whose anchor, as given by at,
// starts at pos, along with its parent.
func findNode[T ast.Node](mod *ast.Module, pos int, at func(ast.Node) *token.Location) (found T, parent ast.Node) {
	done := false
	astutil.WalkFunc(mod, func(node ast.Node, c *astutil.Cursor) {
		if done {
			return
		}
		n, ok := node.(T)
		if !ok {
			return
		}
		if loc := at(node); loc != nil && loc.Pos == pos {
			found, parent, done = n, c.Parent, true
		}
	})
	return found, parent
}
