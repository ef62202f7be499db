// Copyright © 2024 The vbalint authors

// Package rdparser implements a tolerant recursive-descent parser for VBA
// modules.  The parser never fails outright.  Text it cannot make sense of is
// recorded as a syntax error and parsing resumes on the next line.
package rdparser

import (
	"fmt"
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// Parser is a VBA module parser.
type Parser struct {
	src  *TokenSource
	mod  *ast.Module
	last *token.Token
	// lineStart is true while no token of the current logical line has been
	// consumed.
	lineStart bool
	// pendingNext counts loops already closed by a "Next i, j" statement.
	pendingNext int
	// singleLineIf is the nesting depth of single-line If statements, in
	// which Else also ends a statement.
	singleLineIf int
}

// Parse parses the text of a component and returns its syntax tree.  The
// returned module is never nil; syntax errors are listed in its Errors
// field.
func Parse(project string, name string, typ ast.ComponentType, text string) *ast.Module {
	p := New(project, name, typ, text)
	return p.ParseModule()
}

// New initializes and returns a Parser for the given component text.
func New(project string, name string, typ ast.ComponentType, text string) *Parser {
	src := NewTokenSource(name, text)
	return &Parser{
		src: src,
		mod: &ast.Module{
			Project:  project,
			Name:     name,
			Type:     typ,
			Text:     text,
			Comments: src.Comments,
		},
		lineStart: true,
	}
}

// ParseModule parses every declaration in the module.
func (p *Parser) ParseModule() *ast.Module {
	for {
		p.skipSeparators()
		if p.src.IsEOF() {
			break
		}
		p.parseModuleItem()
	}
	p.mod.Loc = &token.Location{
		File:    p.mod.Name,
		Pos:     0,
		End:     len(p.mod.Text),
		Line:    1,
		Col:     1,
		EndLine: p.src.Peek().Source.EndLine,
		EndCol:  p.src.Peek().Source.EndCol,
	}
	return p.mod
}

func (p *Parser) parseModuleItem() {
	tok := p.peek()
	switch {
	case tok.Is("VERSION") && p.lineStart:
		p.skipLine()
	case tok.Is("Begin") && p.lineStart:
		p.skipDesignerBlock()
	case tok.Is("Attribute") && p.lineStart:
		p.skipLine()
	case tok.Is("Option"):
		p.parseOption()
	case tok.Is("Implements"):
		p.parseImplements()
	default:
		decl := p.parseDeclaration()
		if decl != nil {
			p.mod.Decls = append(p.mod.Decls, decl)
		}
	}
}

// skipDesignerBlock skips the form designer section exported at the top of
// UserForm and Document modules.
func (p *Parser) skipDesignerBlock() {
	depth := 0
	for !p.src.IsEOF() {
		tok := p.peek()
		if p.lineStart {
			switch {
			case tok.Is("Begin") || tok.Is("BeginProperty"):
				depth++
			case tok.Is("End") || tok.Is("EndProperty"):
				depth--
			}
		}
		p.skipLine()
		p.skipSeparators()
		if depth <= 0 {
			return
		}
	}
}

func (p *Parser) parseOption() {
	start := p.next()
	opt := &ast.OptionStmt{}
	name := p.next()
	opt.Name = name.Text
	if name.Is("Private") {
		// Option Private Module
		p.acceptKeyword("Module")
		opt.Name = "Private Module"
	}
	var value []string
	for !p.atStmtEnd() {
		value = append(value, p.next().Text)
	}
	opt.Value = strings.Join(value, " ")
	opt.Loc = p.span(start.Source)
	p.mod.Options = append(p.mod.Options, opt)
}

func (p *Parser) parseImplements() {
	start := p.next()
	typ := p.parseTypeName()
	if typ == nil {
		p.errorf(start, "expected interface name after Implements")
		p.skipLine()
		return
	}
	p.mod.Implements = append(p.mod.Implements, &ast.ImplementsStmt{
		Type: typ,
		Loc:  p.span(start.Source),
	})
	p.expectStmtEnd()
}

// parseDeclaration parses a module-level declaration.
func (p *Parser) parseDeclaration() ast.Decl {
	start := p.peek()
	access := ast.Implicit
	keyword := ""
	switch {
	case start.Is("Private"):
		access = ast.Private
	case start.Is("Public"):
		access = ast.Public
	case start.Is("Friend"):
		access = ast.Friend
	case start.Is("Global"):
		access = ast.Global
	}
	if access != ast.Implicit {
		keyword = p.next().Text
	}
	static := p.acceptKeyword("Static")
	if static && keyword == "" {
		keyword = p.src.Token.Text
	}
	tok := p.peek()
	switch {
	case tok.Is("Sub"), tok.Is("Function"), tok.Is("Property"):
		return p.parseProcedure(start, access, static)
	case tok.Is("Const"):
		p.next()
		if keyword == "" {
			keyword = "Const"
		}
		return p.parseVarDecl(start, access, keyword, true, false)
	case tok.Is("Dim"):
		p.next()
		return p.parseVarDecl(start, access, "Dim", false, false)
	case tok.Is("Enum"):
		return p.parseEnum(start, access)
	case tok.Is("Type"):
		return p.parseType(start, access)
	case tok.Is("Event"):
		return p.parseEvent(start, access)
	case tok.Is("Declare"):
		return p.parseDeclare(start, access)
	case keyword != "" && (tok.Type == token.IDENT || tok.Is("WithEvents")):
		return p.parseVarDecl(start, access, keyword, false, static)
	}
	p.errorf(tok, "unexpected %s at module level", describe(tok))
	p.skipLine()
	return &ast.BadDecl{
		Text: p.mod.TextOf(p.span(start.Source)),
		Loc:  p.span(start.Source),
	}
}

// parseVarDecl parses the variable list following a declaration keyword.
func (p *Parser) parseVarDecl(start *token.Token, access ast.Accessibility, keyword string, isConst bool, static bool) *ast.VarDecl {
	decl := &ast.VarDecl{
		Access:  access,
		Keyword: keyword,
		Const:   isConst,
		Static:  static || strings.EqualFold(keyword, "Static"),
	}
	for {
		spec := p.parseVarSpec(isConst)
		if spec == nil {
			break
		}
		decl.Vars = append(decl.Vars, spec)
		if !p.acceptType(token.COMMA) {
			break
		}
	}
	decl.Loc = p.span(start.Source)
	if len(decl.Vars) == 0 {
		p.errorf(p.peek(), "expected identifier in declaration")
		p.skipLine()
		return decl
	}
	p.expectStmtEnd()
	return decl
}

func (p *Parser) parseVarSpec(isConst bool) *ast.VarSpec {
	start := p.peek()
	spec := &ast.VarSpec{}
	spec.WithEvents = p.acceptKeyword("WithEvents")
	name := p.parseIdent()
	if name == nil {
		return nil
	}
	spec.Name = name
	if p.acceptType(token.PAREN_L) {
		spec.Array = true
		for p.peek().Type != token.PAREN_R && !p.atStmtEnd() {
			spec.Bounds = append(spec.Bounds, p.parseBound())
			if !p.acceptType(token.COMMA) {
				break
			}
		}
		p.expect(token.PAREN_R)
	}
	if p.acceptKeyword("As") {
		spec.Type = p.parseTypeRef()
	}
	if isConst && p.acceptOperator("=") {
		spec.Value = p.parseExpr()
	}
	spec.Loc = p.span(start.Source)
	return spec
}

// parseBound parses an array bound, "n" or "m To n".
func (p *Parser) parseBound() ast.Expr {
	from := p.parseExpr()
	if !p.acceptKeyword("To") {
		return from
	}
	to := p.parseExpr()
	return &ast.RangeExpr{From: from, To: to, Loc: from.Source().Span(to.Source())}
}

// parseTypeRef parses the type following As, including New and fixed-length
// string sizes.
func (p *Parser) parseTypeRef() *ast.TypeRef {
	start := p.peek()
	isNew := p.acceptKeyword("New")
	typ := p.parseTypeName()
	if typ == nil {
		p.errorf(p.peek(), "expected type name")
		return nil
	}
	typ.New = isNew
	if p.acceptOperator("*") {
		// String * n
		p.parseUnary()
	}
	typ.Loc = p.span(start.Source)
	return typ
}

func (p *Parser) parseTypeName() *ast.TypeRef {
	first := p.parseName()
	if first == nil {
		return nil
	}
	typ := &ast.TypeRef{Parts: []*ast.Ident{first}}
	for p.acceptType(token.DOT) {
		part := p.parseName()
		if part == nil {
			break
		}
		typ.Parts = append(typ.Parts, part)
	}
	typ.Loc = first.Loc.Span(p.last.Source)
	return typ
}

func (p *Parser) parseEnum(start *token.Token, access ast.Accessibility) ast.Decl {
	p.next()
	decl := &ast.EnumDecl{Access: access, Name: p.parseIdent()}
	if decl.Name == nil {
		p.errorf(p.peek(), "expected enum name")
	}
	p.expectStmtEnd()
	for {
		p.skipSeparators()
		tok := p.peek()
		if tok.Type == token.EOF {
			p.errorf(start, "missing End Enum")
			break
		}
		if p.acceptEnd("Enum") {
			break
		}
		name := p.parseIdent()
		if name == nil {
			p.errorf(tok, "unexpected %s in enum", describe(tok))
			p.skipLine()
			continue
		}
		member := &ast.EnumMember{Name: name}
		if p.acceptOperator("=") {
			member.Value = p.parseExpr()
		}
		member.Loc = p.span(name.Loc)
		decl.Members = append(decl.Members, member)
		p.expectStmtEnd()
	}
	decl.Loc = p.span(start.Source)
	return decl
}

func (p *Parser) parseType(start *token.Token, access ast.Accessibility) ast.Decl {
	p.next()
	decl := &ast.TypeDecl{Access: access, Name: p.parseIdent()}
	if decl.Name == nil {
		p.errorf(p.peek(), "expected type name")
	}
	p.expectStmtEnd()
	for {
		p.skipSeparators()
		tok := p.peek()
		if tok.Type == token.EOF {
			p.errorf(start, "missing End Type")
			break
		}
		if p.acceptEnd("Type") {
			break
		}
		spec := p.parseVarSpec(false)
		if spec == nil {
			p.errorf(tok, "unexpected %s in type", describe(tok))
			p.skipLine()
			continue
		}
		decl.Members = append(decl.Members, spec)
		p.expectStmtEnd()
	}
	decl.Loc = p.span(start.Source)
	return decl
}

func (p *Parser) parseEvent(start *token.Token, access ast.Accessibility) ast.Decl {
	p.next()
	decl := &ast.EventDecl{Access: access, Name: p.parseIdent()}
	if decl.Name == nil {
		p.errorf(p.peek(), "expected event name")
		p.skipLine()
		return &ast.BadDecl{Loc: p.span(start.Source)}
	}
	decl.Params = p.parseParams()
	decl.Loc = p.span(start.Source)
	p.expectStmtEnd()
	return decl
}

func (p *Parser) parseDeclare(start *token.Token, access ast.Accessibility) ast.Decl {
	p.next()
	decl := &ast.DeclareDecl{Access: access}
	decl.PtrSafe = p.acceptKeyword("PtrSafe")
	switch {
	case p.acceptKeyword("Function"):
		decl.Function = true
	case p.acceptKeyword("Sub"):
	default:
		p.errorf(p.peek(), "expected Sub or Function after Declare")
		p.skipLine()
		return &ast.BadDecl{Loc: p.span(start.Source)}
	}
	decl.Name = p.parseIdent()
	if decl.Name == nil {
		p.errorf(p.peek(), "expected procedure name")
		p.skipLine()
		return &ast.BadDecl{Loc: p.span(start.Source)}
	}
	if p.acceptKeyword("Lib") && p.peek().Type == token.STRING {
		decl.Lib = unquote(p.next().Text)
	}
	if p.acceptKeyword("Alias") && p.peek().Type == token.STRING {
		decl.Alias = unquote(p.next().Text)
	}
	decl.Params = p.parseParams()
	if p.acceptKeyword("As") {
		decl.Type = p.parseTypeRef()
	}
	decl.Loc = p.span(start.Source)
	p.expectStmtEnd()
	return decl
}

func (p *Parser) parseProcedure(start *token.Token, access ast.Accessibility, static bool) ast.Decl {
	decl := &ast.ProcDecl{Access: access, Static: static}
	kw := p.next()
	endWord := kw.Text
	switch {
	case kw.Is("Sub"):
		decl.Kind = ast.SubProc
	case kw.Is("Function"):
		decl.Kind = ast.FunctionProc
	default:
		switch {
		case p.acceptKeyword("Get"):
			decl.Kind = ast.PropertyGet
		case p.acceptKeyword("Let"):
			decl.Kind = ast.PropertyLet
		case p.acceptKeyword("Set"):
			decl.Kind = ast.PropertySet
		default:
			p.errorf(p.peek(), "expected Get, Let or Set after Property")
		}
	}
	decl.Keyword = p.span(kw.Source)
	decl.Name = p.parseIdent()
	if decl.Name == nil {
		p.errorf(p.peek(), "expected procedure name")
		decl.Name = &ast.Ident{Loc: p.peek().Source}
	}
	decl.Params = p.parseParams()
	if p.acceptKeyword("As") {
		decl.Type = p.parseTypeRef()
	}
	decl.Header = p.span(start.Source)
	p.expectStmtEnd()
	decl.Body = p.parseBlock(func() bool { return p.isEnd(endWord) })
	if p.isEnd(endWord) {
		endStart := p.next()
		p.next()
		decl.EndStmt = p.span(endStart.Source)
		p.expectStmtEnd()
	} else {
		p.errorf(start, "missing End %s", endWord)
	}
	decl.Loc = p.span(start.Source)
	return decl
}

// parseParams parses an optional parenthesized parameter list.
func (p *Parser) parseParams() []*ast.Param {
	if !p.acceptType(token.PAREN_L) {
		return nil
	}
	var params []*ast.Param
	for p.peek().Type != token.PAREN_R && !p.atStmtEnd() {
		param := p.parseParam()
		if param == nil {
			p.errorf(p.peek(), "unexpected %s in parameter list", describe(p.peek()))
			break
		}
		params = append(params, param)
		if !p.acceptType(token.COMMA) {
			break
		}
	}
	p.expect(token.PAREN_R)
	return params
}

func (p *Parser) parseParam() *ast.Param {
	start := p.peek()
	param := &ast.Param{}
	param.Optional = p.acceptKeyword("Optional")
	switch {
	case p.acceptKeyword("ByVal"):
		param.ByVal = true
	case p.acceptKeyword("ByRef"):
		param.ByRef = true
	}
	param.ParamArray = p.acceptKeyword("ParamArray")
	param.Name = p.parseIdent()
	if param.Name == nil {
		return nil
	}
	if p.acceptType(token.PAREN_L) {
		param.Array = true
		p.expect(token.PAREN_R)
	}
	if p.acceptKeyword("As") {
		param.Type = p.parseTypeRef()
	}
	if p.acceptOperator("=") {
		param.Default = p.parseExpr()
	}
	param.Loc = p.span(start.Source)
	return param
}

// --- Token helpers ---

func (p *Parser) peek() *token.Token {
	return p.src.Peek()
}

// next scans and returns the next token.
func (p *Parser) next() *token.Token {
	p.src.Scan()
	tok := p.src.Token
	if tok.Type != token.EOF {
		p.last = tok
	}
	p.lineStart = tok.Type == token.NEWLINE
	return tok
}

// span returns a location from start through the last consumed token.
func (p *Parser) span(start *token.Location) *token.Location {
	if p.last == nil {
		return start
	}
	return start.Span(p.last.Source)
}

func (p *Parser) parseIdent() *ast.Ident {
	tok := p.peek()
	if tok.Type != token.IDENT {
		return nil
	}
	p.next()
	return &ast.Ident{Name: tok.Text, Loc: tok.Source}
}

// parseName is like parseIdent but also accepts keywords, which are valid
// member and type names after a dot.
func (p *Parser) parseName() *ast.Ident {
	tok := p.peek()
	if tok.Type != token.IDENT && tok.Type != token.KEYWORD {
		return nil
	}
	p.next()
	return &ast.Ident{Name: tok.Text, Loc: tok.Source}
}

func (p *Parser) acceptKeyword(kw string) bool {
	if p.peek().Is(kw) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) acceptType(typ token.Type) bool {
	if p.peek().Type == typ {
		p.next()
		return true
	}
	return false
}

func (p *Parser) acceptOperator(op string) bool {
	tok := p.peek()
	if tok.Type == token.OPERATOR && tok.Text == op {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(typ token.Type) bool {
	if p.peek().Type == typ {
		p.next()
		return true
	}
	p.errorf(p.peek(), "expected %s but found %s", typ, describe(p.peek()))
	return false
}

// isEnd reports whether the next tokens are "End <word>".
func (p *Parser) isEnd(word string) bool {
	return p.peek().Is("End") && p.src.PeekAt(1).Is(word)
}

func (p *Parser) acceptEnd(word string) bool {
	if !p.isEnd(word) {
		return false
	}
	p.next()
	p.next()
	p.expectStmtEnd()
	return true
}

// atStmtEnd reports whether the next token ends the current statement.
func (p *Parser) atStmtEnd() bool {
	switch p.peek().Type {
	case token.NEWLINE, token.COLON, token.EOF:
		return true
	}
	return p.singleLineIf > 0 && p.peek().Is("Else")
}

// expectStmtEnd reports trailing garbage after a complete statement and skips
// it.
func (p *Parser) expectStmtEnd() {
	if p.atStmtEnd() {
		return
	}
	p.errorf(p.peek(), "unexpected %s at end of statement", describe(p.peek()))
	p.skipLine()
}

func (p *Parser) skipSeparators() {
	for p.peek().Type == token.NEWLINE || p.peek().Type == token.COLON {
		p.next()
	}
}

// skipLine consumes tokens through the end of the current physical line.
func (p *Parser) skipLine() {
	for {
		switch p.peek().Type {
		case token.NEWLINE, token.EOF:
			return
		}
		p.next()
	}
}

func (p *Parser) errorf(tok *token.Token, format string, v ...interface{}) {
	p.mod.Errors = append(p.mod.Errors, &ast.SyntaxError{
		Msg: fmt.Sprintf(format, v...),
		Loc: tok.Source,
	})
}

func describe(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.NEWLINE:
		return "end of line"
	case token.ERROR:
		return fmt.Sprintf("invalid text %q", tok.Text)
	}
	return fmt.Sprintf("%q", tok.Text)
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.ReplaceAll(s, `""`, `"`)
}
