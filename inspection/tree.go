// Copyright © 2024 The vbalint authors

package inspection

import (
	"github.com/luthersystems/vbalint/astutil"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// match is a node found by a listener during the shared walk.
type match struct {
	mod  *ast.Module
	node ast.Node
}

// nodeListener collects the nodes accepted by its predicate and reports
// each with the same message.
type nodeListener struct {
	accept  func(node ast.Node, c *astutil.Cursor) bool
	message func(node ast.Node) string
	matches []match
}

func (l *nodeListener) Visit(node ast.Node, c *astutil.Cursor) {
	if l.accept(node, c) {
		l.matches = append(l.matches, match{c.Module, node})
	}
}

func (l *nodeListener) Report(pass *Pass) error {
	for _, m := range l.matches {
		pass.ReportNode(m.mod, m.node, "%s", l.message(m.node))
	}
	return nil
}

// InspectionOptionExplicit flags modules without Option Explicit.
var InspectionOptionExplicit = &Inspection{
	Name:     "OptionExplicit",
	Category: CategoryCodeQuality,
	Doc: `Option Explicit is not specified.

Without Option Explicit a misspelled name compiles as a new Variant
variable.  The result is anchored at the first declaration of the module.`,
	Severity: SeverityError,
	Fixes:    []string{FixAddOptionExplicit},
	NewListener: func() Listener {
		return &optionExplicitListener{first: make(map[*ast.Module]int)}
	},
}

type optionExplicitListener struct {
	first map[*ast.Module]int
}

func (l *optionExplicitListener) Visit(node ast.Node, c *astutil.Cursor) {
	if c.Depth != 0 {
		return
	}
	if _, ok := l.first[c.Module]; ok {
		return
	}
	if loc := node.Source(); loc != nil {
		l.first[c.Module] = loc.Line
	}
}

func (l *optionExplicitListener) Report(pass *Pass) error {
	for _, info := range pass.Table.Modules() {
		if info.AST.HasOption("Explicit") {
			continue
		}
		line := l.first[info.AST]
		if line == 0 {
			line = 1
		}
		pass.ReportModule(info.AST, astutil.LineSpan(info.AST, line),
			"'Option Explicit' is not specified in '%s'", info.Name.Component)
	}
	return nil
}

// InspectionEmptyStringLiteral flags "" literals.
var InspectionEmptyStringLiteral = &Inspection{
	Name:     "EmptyStringLiteral",
	Category: CategoryLanguageOpportunity,
	Doc: `Empty string literal.

vbNullString states the intent of an empty string and needs no memory
allocation.  Literals in Const declarations are not reported because
vbNullString is not a constant expression.`,
	Severity: SeveritySuggestion,
	Fixes:    []string{FixReplaceEmptyStringLiteral, FixIgnoreOnce},
	NewListener: func() Listener {
		return &emptyStringListener{}
	},
}

type emptyStringListener struct {
	matches  []match
	constMod *ast.Module
	constLoc *token.Location
}

func (l *emptyStringListener) Visit(node ast.Node, c *astutil.Cursor) {
	switch n := node.(type) {
	case *ast.VarDecl:
		if n.Const {
			l.constMod, l.constLoc = c.Module, n.Loc
		}
	case *ast.Literal:
		if !n.IsEmptyString() {
			return
		}
		if l.constMod == c.Module && within(n.Loc, l.constLoc) {
			return
		}
		l.matches = append(l.matches, match{c.Module, n})
	}
}

func (l *emptyStringListener) Report(pass *Pass) error {
	for _, m := range l.matches {
		pass.ReportNode(m.mod, m.node, "empty string literal; use 'vbNullString' instead")
	}
	return nil
}

func within(inner, outer *token.Location) bool {
	return inner != nil && outer != nil && outer.Pos <= inner.Pos && inner.End <= outer.End
}

// InspectionObsoleteCallStatement flags the Call keyword.
var InspectionObsoleteCallStatement = &Inspection{
	Name:     "ObsoleteCallStatement",
	Category: CategoryLanguageOpportunity,
	Doc: `Use of the obsolete Call keyword.

The Call keyword is only kept for backward compatibility.  An implicit
call without parentheses around the arguments does the same.`,
	Severity: SeveritySuggestion,
	Fixes:    []string{FixRemoveExplicitCallStatement, FixIgnoreOnce},
	NewListener: func() Listener {
		return &nodeListener{
			accept: func(node ast.Node, _ *astutil.Cursor) bool {
				s, ok := node.(*ast.CallStmt)
				return ok && s.Explicit
			},
			message: func(ast.Node) string {
				return "procedure call uses obsolete 'Call' keyword"
			},
		}
	},
}

// InspectionMultipleDeclarations flags declaration statements with more
// than one name.
var InspectionMultipleDeclarations = &Inspection{
	Name:     "MultipleDeclarations",
	Category: CategoryMaintainability,
	Doc: `Multiple declarations in one statement.

Declaring each variable on its own line is easier to read, and avoids the
mistake of assuming one As clause applies to every name.`,
	Severity: SeverityWarning,
	Fixes:    []string{FixIgnoreOnce},
	NewListener: func() Listener {
		return &nodeListener{
			accept: func(node ast.Node, _ *astutil.Cursor) bool {
				d, ok := node.(*ast.VarDecl)
				return ok && len(d.Vars) > 1
			},
			message: func(node ast.Node) string {
				if node.(*ast.VarDecl).Const {
					return "constants are declared in the same statement"
				}
				return "variables are declared in the same statement"
			},
		}
	},
}

// InspectionEmptyIfBlock flags If and ElseIf branches without statements.
var InspectionEmptyIfBlock = &Inspection{
	Name:     "EmptyIfBlock",
	Category: CategoryMaintainability,
	Doc: `Empty If block.

A branch that does nothing usually means the condition should be inverted
or the branch removed.`,
	Severity: SeverityWarning,
	Fixes:    []string{FixIgnoreOnce},
	NewListener: func() Listener {
		return &nodeListener{
			accept: func(node ast.Node, _ *astutil.Cursor) bool {
				switch n := node.(type) {
				case *ast.IfStmt:
					return len(n.Then) == 0
				case *ast.ElseIfClause:
					return len(n.Body) == 0
				}
				return false
			},
			message: func(node ast.Node) string {
				if _, ok := node.(*ast.ElseIfClause); ok {
					return "ElseIf block contains no executable statements"
				}
				return "If block contains no executable statements"
			},
		}
	},
}
