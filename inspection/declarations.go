// Copyright © 2024 The vbalint authors

package inspection

import (
	"strings"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/ast"
)

// Quick fix names offered by the built-in inspections.
const (
	FixIgnoreOnce                    = "IgnoreOnce"
	FixRemoveUnusedDeclaration       = "RemoveUnusedDeclaration"
	FixConvertToProcedure            = "ConvertToProcedure"
	FixUseTypedFunction              = "UseTypedFunction"
	FixSpecifyExplicitPublicModifier = "SpecifyExplicitPublicModifier"
	FixDeclareAsExplicitVariant      = "DeclareAsExplicitVariant"
	FixReplaceGlobalModifier         = "ReplaceGlobalModifier"
	FixAddOptionExplicit             = "AddOptionExplicit"
	FixReplaceEmptyStringLiteral     = "ReplaceEmptyStringLiteral"
	FixRemoveExplicitCallStatement   = "RemoveExplicitCallStatement"
)

// Inspection categories.
const (
	CategoryCodeQuality           = "CodeQualityIssues"
	CategoryMaintainability       = "MaintainabilityAndReadabilityIssues"
	CategoryLanguageOpportunity   = "LanguageOpportunities"
	CategoryRubberduckOpportunity = "RubberduckOpportunities"
)

// InspectionProcedureNotUsed flags procedures that nothing calls.
var InspectionProcedureNotUsed = &Inspection{
	Name:     "ProcedureNotUsed",
	Category: CategoryCodeQuality,
	Doc: `Procedure is not referenced.

A procedure without callers outside its own body is dead code.  Event
handlers, interface members and implementations, class lifecycle handlers,
public members of standard modules, '@TestMethod procedures and host
entry points such as Auto_Open are exempt because something other than VBA
code calls them.`,
	Severity:     SeverityWarning,
	Fixes:        []string{FixRemoveUnusedDeclaration, FixIgnoreOnce},
	Declarations: runProcedureNotUsed,
}

func runProcedureNotUsed(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(
		analysis.DeclProcedure, analysis.DeclFunction,
		analysis.DeclLibraryProcedure, analysis.DeclLibraryFunction) {
		switch {
		case d.HasReferencesOutside():
		case d.IsInterfaceImplementation(), d.IsInterfaceMember():
		case d.ComponentType == ast.StandardModule && d.IsPublic():
		case d.IsTestMethod():
		case pass.IsEntryPoint(d):
		default:
			pass.ReportDeclaration(d, "%s '%s' is not used", d.Type, d.Name)
		}
	}
	return nil
}

// InspectionVariableNotUsed flags variables whose value is never read.
var InspectionVariableNotUsed = &Inspection{
	Name:     "VariableNotUsed",
	Category: CategoryCodeQuality,
	Doc: `Variable is not referenced.

A variable that is never read serves no purpose.  Variables that are only
ever assigned are reported too, but can only be removed once the
assignments are gone.  Public fields and WithEvents variables are not
checked.`,
	Severity:     SeverityWarning,
	Fixes:        []string{FixRemoveUnusedDeclaration, FixIgnoreOnce},
	Declarations: runVariableNotUsed,
}

func runVariableNotUsed(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(analysis.DeclVariable) {
		if d.IsWithEvents || (d.IsModuleLevel() && d.IsPublic()) {
			continue
		}
		refs := d.References()
		read := false
		for _, ref := range refs {
			if !ref.Access.IsAssignment() {
				read = true
				break
			}
		}
		if read {
			continue
		}
		r := pass.ReportDeclaration(d, "variable '%s' is not used", d.Name)
		if len(refs) > 0 {
			r.Fixes = []string{FixIgnoreOnce}
		}
	}
	return nil
}

// InspectionConstantNotUsed flags constants that are never referenced.
var InspectionConstantNotUsed = &Inspection{
	Name:     "ConstantNotUsed",
	Category: CategoryCodeQuality,
	Doc: `Constant is not referenced.

Local constants and private module constants that nothing refers to can be
removed.`,
	Severity:     SeverityWarning,
	Fixes:        []string{FixRemoveUnusedDeclaration, FixIgnoreOnce},
	Declarations: runConstantNotUsed,
}

func runConstantNotUsed(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(analysis.DeclConstant) {
		if d.IsModuleLevel() && d.IsPublic() {
			continue
		}
		if len(d.References()) == 0 {
			pass.ReportDeclaration(d, "constant '%s' is not used", d.Name)
		}
	}
	return nil
}

// InspectionParameterNotUsed flags parameters a procedure never uses.
var InspectionParameterNotUsed = &Inspection{
	Name:     "ParameterNotUsed",
	Category: CategoryCodeQuality,
	Doc: `Parameter is not referenced.

Parameters of event handlers, interface members and interface
implementations are dictated by the signature they match and are not
checked.`,
	Severity:     SeveritySuggestion,
	Fixes:        []string{FixIgnoreOnce},
	Declarations: runParameterNotUsed,
}

func runParameterNotUsed(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(analysis.DeclParameter) {
		parent := d.Parent
		if parent == nil {
			continue
		}
		if _, ok := parent.Context.(*ast.ProcDecl); !ok {
			continue
		}
		if parent.Type == analysis.DeclEventHandler || parent.IsInterfaceImplementation() || parent.IsInterfaceMember() {
			continue
		}
		if len(d.References()) == 0 {
			pass.ReportDeclaration(d, "parameter '%s' of %s '%s' is not used", d.Name, parent.Type, parent.Name)
		}
	}
	return nil
}

// InspectionNonReturningFunction flags functions that never assign their
// return value.
var InspectionNonReturningFunction = &Inspection{
	Name:     "NonReturningFunction",
	Category: CategoryCodeQuality,
	Doc: `Function does not return a value.

A Function or Property Get that never assigns its own name always returns
the default value of its type, which is usually a bug.  A function that is
not part of an interface can be converted into a Sub.`,
	Severity:     SeverityError,
	Fixes:        []string{FixConvertToProcedure, FixIgnoreOnce},
	Declarations: runNonReturningFunction,
}

func runNonReturningFunction(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(analysis.DeclFunction, analysis.DeclPropertyGet) {
		if _, ok := d.Context.(*ast.ProcDecl); !ok || d.IsInterfaceMember() {
			continue
		}
		if assignsReturnValue(d) {
			continue
		}
		r := pass.ReportDeclaration(d, "%s '%s' does not return a value", d.Type, d.Name)
		if d.IsInterfaceImplementation() || d.Type != analysis.DeclFunction {
			r.Fixes = []string{FixIgnoreOnce}
		}
	}
	return nil
}

func assignsReturnValue(d *analysis.Declaration) bool {
	for _, ref := range d.References() {
		if ref.Member == d && ref.Access.IsAssignment() {
			return true
		}
	}
	return false
}

// InspectionUntypedFunctionUsage flags Variant-returning string functions
// used where a typed $ variant exists.
var InspectionUntypedFunctionUsage = &Inspection{
	Name:     "UntypedFunctionUsage",
	Category: CategoryLanguageOpportunity,
	Doc: `Use of a Variant-returning string function.

Functions such as Left, Mid and Trim return a Variant.  Their $ forms
return a String and avoid an implicit conversion.`,
	Severity:     SeverityHint,
	Fixes:        []string{FixUseTypedFunction, FixIgnoreOnce},
	Declarations: runUntypedFunctionUsage,
}

// untypedFunctions lists the VBA functions with a String-returning $ form.
var untypedFunctions = map[string]bool{
	"error": true, "hex": true, "oct": true, "str": true, "curdir": true,
	"command": true, "environ": true, "chr": true, "chrw": true,
	"format": true, "lcase": true, "left": true, "leftb": true,
	"ltrim": true, "mid": true, "midb": true, "trim": true, "right": true,
	"rightb": true, "rtrim": true, "ucase": true,
}

func isUntypedFunction(d *analysis.Declaration) bool {
	if !d.IsBuiltIn || d.Type != analysis.DeclBuiltInFunction {
		return false
	}
	if !strings.HasPrefix(d.ScopePath, "VBE7.DLL;") {
		return false
	}
	if d.Untyped || untypedFunctions[strings.ToLower(d.Name)] {
		return true
	}
	for _, alt := range d.AlternateNames {
		if name, ok := strings.CutPrefix(strings.ToLower(alt), "_b_var_"); ok && untypedFunctions[name] {
			return true
		}
	}
	return false
}

func runUntypedFunctionUsage(pass *Pass) error {
	for _, d := range pass.Table.BuiltinDeclarations() {
		if !isUntypedFunction(d) {
			continue
		}
		for _, ref := range d.References() {
			if strings.HasSuffix(ref.Name, "$") {
				continue
			}
			pass.ReportReference(ref, "replace function '%s' with existing typed function '%s$'", ref.Name, d.Name)
		}
	}
	return nil
}

// InspectionUndeclaredVariable flags identifiers that resolve to nothing.
var InspectionUndeclaredVariable = &Inspection{
	Name:     "UndeclaredVariable",
	Category: CategoryCodeQuality,
	Doc: `Variable is used but not declared.

Without Option Explicit an undeclared name silently becomes a new Variant,
so a typo creates a variable.  Each undeclared name is reported once per
procedure, at its first use.`,
	Severity:     SeverityError,
	Fixes:        []string{FixIgnoreOnce},
	Declarations: runUndeclaredVariable,
}

func runUndeclaredVariable(pass *Pass) error {
	type key struct {
		module analysis.QualifiedModuleName
		member *analysis.Declaration
		name   string
	}
	seen := make(map[key]bool)
	for _, ref := range pass.Table.Unresolved() {
		id, ok := ref.Node.(*ast.Ident)
		if !ok || ref.Access == analysis.AccessCall {
			continue
		}
		k := key{ref.Module, ref.Member, analysis.FoldName(id.BareName())}
		if seen[k] {
			continue
		}
		seen[k] = true
		pass.ReportReference(ref, "local variable '%s' is not declared", ref.Name)
	}
	return nil
}

// InspectionImplicitPublicMember flags members without an access modifier.
var InspectionImplicitPublicMember = &Inspection{
	Name:     "ImplicitPublicMember",
	Category: CategoryLanguageOpportunity,
	Doc: `Member is implicitly public.

Procedures without an access modifier are public.  Stating Public makes
the intent explicit.`,
	Severity:     SeverityHint,
	Fixes:        []string{FixSpecifyExplicitPublicModifier, FixIgnoreOnce},
	Declarations: runImplicitPublicMember,
}

func runImplicitPublicMember(pass *Pass) error {
	for _, d := range pass.Table.Declarations() {
		if _, ok := d.Context.(*ast.ProcDecl); !ok {
			continue
		}
		if d.Access == ast.Implicit {
			pass.ReportDeclaration(d, "member '%s' is implicitly public", d.Name)
		}
	}
	return nil
}

// InspectionVariableTypeNotDeclared flags declarations that are implicitly
// Variant.
var InspectionVariableTypeNotDeclared = &Inspection{
	Name:     "VariableTypeNotDeclared",
	Category: CategoryLanguageOpportunity,
	Doc: `Variable is implicitly Variant.

A variable, constant or parameter declared without an As clause or a type
hint is a Variant.  Declaring it As Variant makes that explicit.`,
	Severity:     SeverityHint,
	Fixes:        []string{FixDeclareAsExplicitVariant, FixIgnoreOnce},
	Declarations: runVariableTypeNotDeclared,
}

func runVariableTypeNotDeclared(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(
		analysis.DeclVariable, analysis.DeclConstant, analysis.DeclParameter,
		analysis.DeclUserDefinedTypeMember) {
		if d.AsTypeName != "" || d.HasTypeHint {
			continue
		}
		if p, ok := d.Context.(*ast.Param); ok && p.ParamArray {
			continue
		}
		pass.ReportDeclaration(d, "%s '%s' is implicitly Variant", d.Type, d.Name)
	}
	return nil
}

// InspectionObsoleteGlobal flags module variables declared with Global.
var InspectionObsoleteGlobal = &Inspection{
	Name:     "ObsoleteGlobal",
	Category: CategoryLanguageOpportunity,
	Doc: `Use of the obsolete Global access modifier.

Global is kept for backward compatibility.  Public has the same meaning.`,
	Severity:     SeveritySuggestion,
	Fixes:        []string{FixReplaceGlobalModifier, FixIgnoreOnce},
	Declarations: runObsoleteGlobal,
}

func runObsoleteGlobal(pass *Pass) error {
	for _, d := range pass.Table.Declarations() {
		if d.Access == ast.Global && d.IsModuleLevel() {
			pass.ReportDeclaration(d, "%s '%s' uses obsolete 'Global' access modifier", d.Type, d.Name)
		}
	}
	return nil
}

// InspectionMoveFieldCloserToUsage flags module fields used by a single
// procedure.
var InspectionMoveFieldCloserToUsage = &Inspection{
	Name:     "MoveFieldCloserToUsage",
	Category: CategoryMaintainability,
	Doc: `Module-level variable is only used in one procedure.

A private field referenced from a single procedure can be a local
variable of that procedure.`,
	Severity:     SeveritySuggestion,
	Fixes:        []string{FixIgnoreOnce},
	Declarations: runMoveFieldCloserToUsage,
}

func runMoveFieldCloserToUsage(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(analysis.DeclVariable) {
		if !d.IsModuleLevel() || d.IsPublic() || d.IsWithEvents {
			continue
		}
		refs := d.References()
		if len(refs) == 0 {
			continue
		}
		member := refs[0].Member
		for _, ref := range refs[1:] {
			if ref.Member != member {
				member = nil
				break
			}
		}
		if member == nil {
			continue
		}
		pass.ReportDeclaration(d, "move module-level variable '%s' to a smaller scope (%s '%s')", d.Name, member.Type, member.Name)
	}
	return nil
}

// InspectionEncapsulatePublicField flags public module variables.
var InspectionEncapsulatePublicField = &Inspection{
	Name:     "EncapsulatePublicField",
	Category: CategoryMaintainability,
	Doc: `Public field breaks encapsulation.

Any code can change a public field.  Exposing it through a property keeps
control over how it is set.`,
	Severity:     SeveritySuggestion,
	Fixes:        []string{FixIgnoreOnce},
	Declarations: runEncapsulatePublicField,
}

func runEncapsulatePublicField(pass *Pass) error {
	for _, d := range pass.Table.FindOfType(analysis.DeclVariable) {
		if d.IsModuleLevel() && d.IsPublic() {
			pass.ReportDeclaration(d, "public field '%s' breaks encapsulation", d.Name)
		}
	}
	return nil
}

// InspectionIllegalAnnotation flags annotations that are unknown or placed
// where they have no effect.
var InspectionIllegalAnnotation = &Inspection{
	Name:     "IllegalAnnotation",
	Category: CategoryRubberduckOpportunity,
	Doc: `Annotation is invalid.

Unknown annotations are ignored, which usually means a misspelled
'@Ignore.  Member annotations such as '@TestMethod must precede a
procedure and module annotations such as '@TestModule must not appear
inside one.`,
	Severity:     SeverityError,
	Declarations: runIllegalAnnotation,
}

var moduleAnnotations = map[analysis.AnnotationKind]bool{
	analysis.KindTestModule:        true,
	analysis.KindFolder:            true,
	analysis.KindModuleDescription: true,
	analysis.KindExposed:           true,
	analysis.KindPredeclaredID:     true,
}

var memberAnnotations = map[analysis.AnnotationKind]bool{
	analysis.KindTestMethod:  true,
	analysis.KindDescription: true,
	analysis.KindIgnoreTest:  true,
}

func runIllegalAnnotation(pass *Pass) error {
	for _, info := range pass.Table.Modules() {
		headers := make(map[int]bool)
		for _, proc := range info.AST.Procedures() {
			if proc.Loc != nil {
				headers[proc.Loc.Line] = true
			}
		}
		for _, a := range info.Annotations.All() {
			switch {
			case a.Kind == analysis.KindUnknown:
				r := pass.ReportModule(info.AST, a.Loc, "annotation '@%s' is not recognized", a.Name)
				for _, s := range analysis.SuggestAnnotation(a.Name) {
					r.Notes = append(r.Notes, "did you mean '@"+s+"'?")
				}
			case memberAnnotations[a.Kind] && !headers[a.Target]:
				pass.ReportModule(info.AST, a.Loc, "annotation '@%s' must precede a procedure", a.Name)
			case moduleAnnotations[a.Kind] && pass.Table.EnclosingMember(info.Name, a.Line) != nil:
				pass.ReportModule(info.AST, a.Loc, "module annotation '@%s' is not allowed inside a procedure", a.Name)
			}
		}
	}
	return nil
}
