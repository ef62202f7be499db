// Copyright © 2024 The vbalint authors

package analysis

import (
	"strings"

	"github.com/agext/levenshtein"
	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// AnnotationKind identifies a recognized annotation.
type AnnotationKind int

const (
	KindUnknown AnnotationKind = iota
	KindIgnore
	KindIgnoreModule
	KindTestMethod
	KindTestModule
	KindFolder
	KindDescription
	KindModuleDescription
	KindExposed
	KindPredeclaredID
	KindObsolete
	KindIgnoreTest
)

var annotationKinds = map[string]AnnotationKind{
	"ignore":            KindIgnore,
	"ignoremodule":      KindIgnoreModule,
	"testmethod":        KindTestMethod,
	"testmodule":        KindTestModule,
	"folder":            KindFolder,
	"description":       KindDescription,
	"moduledescription": KindModuleDescription,
	"exposed":           KindExposed,
	"predeclaredid":     KindPredeclaredID,
	"obsolete":          KindObsolete,
	"ignoretest":        KindIgnoreTest,
}

// KnownAnnotations returns the names of the recognized annotations.
func KnownAnnotations() []string {
	return []string{
		"Ignore", "IgnoreModule", "TestMethod", "TestModule", "Folder",
		"Description", "ModuleDescription", "Exposed", "PredeclaredId",
		"Obsolete", "IgnoreTest",
	}
}

// SuggestAnnotation returns the recognized annotation names closest to
// name, for "did you mean" hints.
func SuggestAnnotation(name string) []string {
	var out []string
	for _, known := range KnownAnnotations() {
		if levenshtein.Distance(strings.ToLower(name), strings.ToLower(known), nil) <= 2 {
			out = append(out, known)
		}
	}
	return out
}

// Annotation is a structured comment such as '@Ignore ProcedureNotUsed.
type Annotation struct {
	Kind   AnnotationKind
	Name   string
	Args   []string
	Module QualifiedModuleName
	// Line is the line of the comment.  Target is the line the annotation
	// applies to: its own line for a trailing comment and the next code
	// line otherwise.
	Line   int
	Target int
	// StartLine and EndLine bound the lines covered by @IgnoreModule.
	StartLine int
	EndLine   int
	Loc       *token.Location
}

// names reports whether the annotation's arguments include inspection.  An
// annotation without arguments, or naming "all", covers every inspection.
func (a *Annotation) names(inspection string) bool {
	if len(a.Args) == 0 {
		return true
	}
	for _, arg := range a.Args {
		if MatchInspectionName(arg, inspection) {
			return true
		}
	}
	return false
}

// MatchInspectionName reports whether name refers to inspection, ignoring
// case and an optional Inspection suffix on either side.  The name "all"
// matches every inspection.
func MatchInspectionName(name string, inspection string) bool {
	if strings.EqualFold(name, "all") {
		return true
	}
	trim := func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimSuffix(s, "inspection")
	}
	return trim(name) == trim(inspection)
}

// Annotations indexes the annotations of one module by the lines they
// cover.
type Annotations struct {
	all      []*Annotation
	byTarget map[int][]*Annotation
	ranges   []*Annotation
}

// All returns every annotation in the module in source order, including
// unrecognized ones.
func (idx *Annotations) All() []*Annotation {
	if idx == nil {
		return nil
	}
	return idx.all
}

// Suppresses reports whether an annotation suppresses inspection on line.
func (idx *Annotations) Suppresses(line int, inspection string) bool {
	if idx == nil {
		return false
	}
	for _, a := range idx.byTarget[line] {
		if a.Kind == KindIgnore && a.names(inspection) {
			return true
		}
	}
	for _, a := range idx.ranges {
		if a.StartLine <= line && line <= a.EndLine && a.names(inspection) {
			return true
		}
	}
	return false
}

// Marks reports whether an annotation of the given kind targets line.
func (idx *Annotations) Marks(line int, kind AnnotationKind) bool {
	if idx == nil {
		return false
	}
	for _, a := range idx.byTarget[line] {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// ParseAnnotations extracts and indexes the annotations of mod.
func ParseAnnotations(mod *ast.Module) *Annotations {
	idx := &Annotations{byTarget: make(map[int][]*Annotation)}
	if mod == nil {
		return idx
	}
	name := ModuleName(mod)
	codeLines := codeLineSet(mod)
	lastLine := strings.Count(mod.Text, "\n") + 1
	parser := newAnnotationParser()
	var found []*Annotation
	var trailing []bool
	annotationLines := make(map[int]bool)
	for _, c := range mod.Comments {
		a := parseAnnotation(parser, c.Body())
		if a == nil {
			continue
		}
		a.Module = name
		a.Loc = c.Loc
		a.Line = c.Loc.Line
		found = append(found, a)
		trailing = append(trailing, c.Trailing)
		if !c.Trailing {
			annotationLines[a.Line] = true
		}
	}
	for i, a := range found {
		a.Target = a.Line
		if !trailing[i] {
			a.Target = nextCodeLine(codeLines, annotationLines, a.Line, lastLine)
		}
		idx.all = append(idx.all, a)
		idx.byTarget[a.Target] = append(idx.byTarget[a.Target], a)
		if a.Kind == KindIgnoreModule {
			a.StartLine, a.EndLine = 1, lastLine
			for _, proc := range mod.Procedures() {
				if proc.Loc != nil && proc.Loc.Line <= a.Line && a.Line <= proc.Loc.EndLine {
					a.StartLine, a.EndLine = proc.Loc.Line, proc.Loc.EndLine
					break
				}
			}
			idx.ranges = append(idx.ranges, a)
		}
	}
	return idx
}

// codeLineSet returns the lines of mod that hold something other than
// whitespace and comments.
func codeLineSet(mod *ast.Module) map[int]bool {
	commentStart := make(map[int]int, len(mod.Comments))
	for _, c := range mod.Comments {
		if !c.Trailing {
			commentStart[c.Loc.Line] = c.Loc.Col
		}
	}
	lines := make(map[int]bool)
	for i, text := range strings.Split(mod.Text, "\n") {
		line := i + 1
		text = strings.TrimRight(text, "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, ok := commentStart[line]; ok {
			continue
		}
		lines[line] = true
	}
	return lines
}

// nextCodeLine returns the code line directly below the annotation on line
// after.  Only further annotation lines may come between them; a blank line
// or an ordinary comment leaves the annotation targeting its own line.
func nextCodeLine(code, annotations map[int]bool, after int, last int) int {
	for line := after + 1; line <= last; line++ {
		switch {
		case code[line]:
			return line
		case !annotations[line]:
			return after
		}
	}
	return after
}

// Annotation grammar, applied to the body of a comment:
//
//	annotation := '@' name ( arg ( ',' arg )* )?
//	arg        := name | string
func newAnnotationParser() parsec.Parser {
	at := parsec.Atom("@", "AT")
	name := parsec.Token(`[A-Za-z_][A-Za-z0-9_]*`, "NAME")
	str := parsec.Token(`"(?:[^"]|"")*"`, "STRING")
	comma := parsec.Atom(",", "COMMA")
	arg := parsec.OrdChoice(nil, name, str)
	args := parsec.Kleene(nil, arg, comma)
	return parsec.And(nil, at, name, args)
}

func parseAnnotation(p parsec.Parser, body string) *Annotation {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "@") {
		return nil
	}
	root, _ := p(parsec.NewScanner([]byte(body)))
	nodes, ok := root.([]parsec.ParsecNode)
	if !ok || len(nodes) < 2 {
		return nil
	}
	nameTerm, ok := nodes[1].(*parsec.Terminal)
	if !ok {
		return nil
	}
	a := &Annotation{Name: nameTerm.Value, Kind: annotationKinds[strings.ToLower(nameTerm.Value)]}
	if len(nodes) > 2 {
		a.Args = annotationArgs(nodes[2])
	}
	return a
}

func annotationArgs(node parsec.ParsecNode) []string {
	var args []string
	switch n := node.(type) {
	case *parsec.Terminal:
		switch n.Name {
		case "NAME":
			args = append(args, n.Value)
		case "STRING":
			v := strings.TrimSuffix(strings.TrimPrefix(n.Value, `"`), `"`)
			args = append(args, strings.ReplaceAll(v, `""`, `"`))
		}
	case []parsec.ParsecNode:
		for _, child := range n {
			args = append(args, annotationArgs(child)...)
		}
	}
	return args
}
