// Copyright © 2024 The vbalint authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// parseBlock parses statements until done reports true.  It also stops at
// the end of input and at the boundary of the next procedure so that a
// missing End statement does not swallow the rest of the module.
func (p *Parser) parseBlock(done func() bool) []ast.Stmt {
	var body []ast.Stmt
	for {
		// A "Next j, i" line closes the enclosing loops without consuming
		// the separator after it.
		if p.pendingNext > 0 {
			return body
		}
		p.skipSeparators()
		if p.src.IsEOF() || done() || p.atProcBoundary() {
			return body
		}
		pos := p.src.Pos()
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
		if !p.atProcBoundary() {
			p.expectStmtEnd()
		}
		if p.src.Pos() == pos {
			p.next()
		}
	}
}

// atProcBoundary reports whether the next tokens begin or end a procedure.
func (p *Parser) atProcBoundary() bool {
	tok := p.peek()
	if p.isEnd("Sub") || p.isEnd("Function") || p.isEnd("Property") {
		return true
	}
	if tok.Is("Private") || tok.Is("Public") || tok.Is("Friend") || tok.Is("Static") {
		tok = p.src.PeekAt(1)
	}
	return tok.Is("Sub") || tok.Is("Function") || tok.Is("Property")
}

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.peek()
	if p.lineStart {
		next := p.src.PeekAt(1)
		switch {
		case tok.Type == token.INT:
			p.next()
			return &ast.LabelStmt{Name: tok.Text, Loc: tok.Source}
		case tok.Type == token.IDENT && next.Type == token.COLON:
			p.next()
			p.next()
			return &ast.LabelStmt{Name: tok.Text, Loc: tok.Source}
		case tok.Is("Attribute") && next.Type == token.IDENT && p.src.PeekAt(2).Type == token.DOT:
			p.skipLine()
			return nil
		}
	}
	switch {
	case tok.Is("Dim"):
		p.next()
		return p.parseVarDecl(tok, ast.Implicit, "Dim", false, false)
	case tok.Is("Static"):
		p.next()
		return p.parseVarDecl(tok, ast.Implicit, "Static", false, true)
	case tok.Is("Const"):
		p.next()
		return p.parseVarDecl(tok, ast.Implicit, "Const", true, false)
	case tok.Is("ReDim"):
		return p.parseReDim()
	case tok.Is("If"):
		return p.parseIf()
	case tok.Is("For"):
		return p.parseFor()
	case tok.Is("Do"):
		return p.parseDo()
	case tok.Is("While"):
		return p.parseWhile()
	case tok.Is("Select"):
		return p.parseSelect()
	case tok.Is("With"):
		return p.parseWith()
	case tok.Is("Exit"):
		p.next()
		kind := p.next()
		return &ast.ExitStmt{Kind: kind.Text, Loc: p.span(tok.Source)}
	case tok.Is("GoTo"), tok.Is("GoSub"):
		p.next()
		label := p.next()
		return &ast.JumpStmt{Keyword: tok.Text, Label: label.Text, Loc: p.span(tok.Source)}
	case tok.Is("On"):
		return p.parseOn()
	case tok.Is("Resume"):
		p.next()
		stmt := &ast.JumpStmt{Keyword: "Resume"}
		if !p.atStmtEnd() {
			stmt.Label = p.next().Text
		}
		stmt.Loc = p.span(tok.Source)
		return stmt
	case tok.Is("RaiseEvent"):
		return p.parseRaiseEvent()
	case tok.Is("Erase"):
		p.next()
		stmt := &ast.EraseStmt{Targets: p.parseTargetList()}
		stmt.Loc = p.span(tok.Source)
		return stmt
	case tok.Is("Call"):
		p.next()
		call := p.parsePostfix(false)
		return &ast.CallStmt{Explicit: true, Keyword: tok.Source, Call: call, Loc: p.span(tok.Source)}
	case tok.Is("Set"), tok.Is("Let"):
		p.next()
		target := p.parsePostfix(false)
		if !p.acceptOperator("=") {
			p.errorf(p.peek(), "expected = in %s statement", tok.Text)
			return &ast.BadStmt{Text: p.mod.TextOf(p.span(tok.Source)), Loc: p.span(tok.Source)}
		}
		value := p.parseExpr()
		keyword := "Let"
		if tok.Is("Set") {
			keyword = "Set"
		}
		return &ast.AssignStmt{Keyword: keyword, Target: target, Value: value, Loc: p.span(tok.Source)}
	case tok.Is("Stop"):
		p.next()
		return &ast.SimpleStmt{Keyword: "Stop", Loc: tok.Source}
	case tok.Is("End") && p.isStmtEndAt(1):
		p.next()
		return &ast.SimpleStmt{Keyword: "End", Loc: tok.Source}
	case tok.Is("Return") && p.isStmtEndAt(1):
		p.next()
		return &ast.SimpleStmt{Keyword: "Return", Loc: tok.Source}
	case p.isFileStatement():
		return p.parseFileStmt()
	case tok.Type == token.IDENT, tok.Type == token.DOT, tok.Type == token.BANG, tok.Is("Me"):
		return p.parseExprStmt()
	}
	p.errorf(tok, "unexpected %s", describe(tok))
	p.skipLine()
	return &ast.BadStmt{Text: p.mod.TextOf(p.span(tok.Source)), Loc: p.span(tok.Source)}
}

// isStmtEndAt reports whether the token n positions ahead ends a statement.
func (p *Parser) isStmtEndAt(n int) bool {
	switch p.src.PeekAt(n).Type {
	case token.NEWLINE, token.COLON, token.EOF:
		return true
	}
	return false
}

// parseExprStmt parses an assignment or an implicit call statement.
func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.peek()
	target := p.parsePostfix(true)
	if p.acceptOperator("=") {
		value := p.parseExpr()
		return &ast.AssignStmt{Target: target, Value: value, Loc: p.span(start.Source)}
	}
	if p.atStmtEnd() {
		return &ast.CallStmt{Call: target, Loc: p.span(start.Source)}
	}
	args := p.parseImplicitArgs()
	call := &ast.CallExpr{Fun: target, Args: args, Loc: p.span(start.Source)}
	return &ast.CallStmt{Call: call, Loc: p.span(start.Source)}
}

func (p *Parser) parseReDim() ast.Stmt {
	start := p.next()
	stmt := &ast.ReDimStmt{}
	stmt.Preserve = p.acceptKeyword("Preserve")
	for {
		target := p.parsePostfix(false)
		stmt.Targets = append(stmt.Targets, target)
		if p.acceptKeyword("As") {
			p.parseTypeRef()
		}
		if !p.acceptType(token.COMMA) {
			break
		}
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

func (p *Parser) parseTargetList() []ast.Expr {
	var targets []ast.Expr
	for {
		targets = append(targets, p.parsePostfix(false))
		if !p.acceptType(token.COMMA) {
			return targets
		}
	}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.next()
	stmt := &ast.IfStmt{Cond: p.parseExpr()}
	if !p.acceptKeyword("Then") {
		p.errorf(p.peek(), "expected Then but found %s", describe(p.peek()))
		p.skipLine()
		stmt.Loc = p.span(start.Source)
		return stmt
	}
	if p.peek().Type != token.NEWLINE && p.peek().Type != token.EOF {
		stmt.SingleLine = true
		p.singleLineIf++
		stmt.Then = p.parseInlineStmts()
		if p.acceptKeyword("Else") {
			stmt.HasElse = true
			stmt.Else = p.parseInlineStmts()
		}
		p.singleLineIf--
		stmt.Loc = p.span(start.Source)
		return stmt
	}
	arm := func() bool {
		return p.peek().Is("ElseIf") || p.peek().Is("Else") || p.isEnd("If")
	}
	stmt.Then = p.parseBlock(arm)
	for p.peek().Is("ElseIf") {
		clauseStart := p.next()
		clause := &ast.ElseIfClause{Cond: p.parseExpr()}
		if !p.acceptKeyword("Then") {
			p.errorf(p.peek(), "expected Then but found %s", describe(p.peek()))
		}
		clause.Body = p.parseBlock(arm)
		clause.Loc = p.span(clauseStart.Source)
		stmt.ElseIfs = append(stmt.ElseIfs, clause)
	}
	if p.acceptKeyword("Else") {
		stmt.HasElse = true
		stmt.Else = p.parseBlock(func() bool { return p.isEnd("If") })
	}
	if !p.isEnd("If") {
		p.errorf(start, "missing End If")
	} else {
		p.next()
		p.next()
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

// parseInlineStmts parses the colon separated statements of a single-line
// If, stopping at Else or the end of the line.
func (p *Parser) parseInlineStmts() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		tok := p.peek()
		if tok.Type == token.NEWLINE || tok.Type == token.EOF || tok.Is("Else") {
			return stmts
		}
		if tok.Type == token.INT {
			// If x Then 100 is an implicit GoTo.
			p.next()
			stmts = append(stmts, &ast.JumpStmt{Keyword: "GoTo", Label: tok.Text, Loc: tok.Source})
		} else if tok.Type != token.COLON {
			pos := p.src.Pos()
			if stmt := p.parseStatement(); stmt != nil {
				stmts = append(stmts, stmt)
			}
			if p.src.Pos() == pos {
				p.next()
			}
		}
		if !p.acceptType(token.COLON) && !p.atStmtEnd() {
			p.errorf(p.peek(), "unexpected %s at end of statement", describe(p.peek()))
			p.skipLine()
		}
	}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.next()
	loopEnd := func() bool { return p.pendingNext > 0 || p.peek().Is("Next") }
	if p.acceptKeyword("Each") {
		stmt := &ast.ForEachStmt{Var: p.parsePostfix(false)}
		if !p.acceptKeyword("In") {
			p.errorf(p.peek(), "expected In but found %s", describe(p.peek()))
		}
		stmt.In = p.parseExpr()
		p.expectStmtEnd()
		stmt.Body = p.parseBlock(loopEnd)
		p.finishNext(start)
		stmt.Loc = p.span(start.Source)
		return stmt
	}
	stmt := &ast.ForStmt{Var: p.parsePostfix(false)}
	if !p.acceptOperator("=") {
		p.errorf(p.peek(), "expected = but found %s", describe(p.peek()))
	}
	stmt.From = p.parseExpr()
	if !p.acceptKeyword("To") {
		p.errorf(p.peek(), "expected To but found %s", describe(p.peek()))
	}
	stmt.To = p.parseExpr()
	if p.acceptKeyword("Step") {
		stmt.Step = p.parseExpr()
	}
	p.expectStmtEnd()
	stmt.Body = p.parseBlock(loopEnd)
	p.finishNext(start)
	stmt.Loc = p.span(start.Source)
	return stmt
}

// finishNext consumes the Next statement closing a For loop.
func (p *Parser) finishNext(start *token.Token) {
	if p.pendingNext > 0 {
		p.pendingNext--
		return
	}
	if !p.acceptKeyword("Next") {
		p.errorf(start, "missing Next")
		return
	}
	if p.atStmtEnd() {
		return
	}
	p.parsePostfix(false)
	for p.acceptType(token.COMMA) {
		p.parsePostfix(false)
		p.pendingNext++
	}
}

func (p *Parser) parseDo() ast.Stmt {
	start := p.next()
	stmt := &ast.DoStmt{}
	switch {
	case p.acceptKeyword("While"):
		stmt.Cond = p.parseExpr()
	case p.acceptKeyword("Until"):
		stmt.Until = true
		stmt.Cond = p.parseExpr()
	}
	p.expectStmtEnd()
	stmt.Body = p.parseBlock(func() bool { return p.peek().Is("Loop") })
	if !p.acceptKeyword("Loop") {
		p.errorf(start, "missing Loop")
	} else if stmt.Cond == nil {
		switch {
		case p.acceptKeyword("While"):
			stmt.PostCond = true
			stmt.Cond = p.parseExpr()
		case p.acceptKeyword("Until"):
			stmt.PostCond = true
			stmt.Until = true
			stmt.Cond = p.parseExpr()
		}
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.next()
	stmt := &ast.WhileStmt{Cond: p.parseExpr()}
	p.expectStmtEnd()
	stmt.Body = p.parseBlock(func() bool { return p.peek().Is("Wend") })
	if !p.acceptKeyword("Wend") {
		p.errorf(start, "missing Wend")
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

func (p *Parser) parseSelect() ast.Stmt {
	start := p.next()
	if !p.acceptKeyword("Case") {
		p.errorf(p.peek(), "expected Case after Select")
	}
	stmt := &ast.SelectStmt{Expr: p.parseExpr()}
	p.expectStmtEnd()
	for {
		p.skipSeparators()
		if p.isEnd("Select") {
			p.next()
			p.next()
			break
		}
		if p.src.IsEOF() || p.atProcBoundary() {
			p.errorf(start, "missing End Select")
			break
		}
		if !p.peek().Is("Case") {
			p.errorf(p.peek(), "expected Case but found %s", describe(p.peek()))
			p.skipLine()
			continue
		}
		caseStart := p.next()
		clause := &ast.CaseClause{}
		if p.acceptKeyword("Else") {
			clause.Else = true
		} else {
			clause.Exprs = p.parseCaseItems()
		}
		clause.Body = p.parseBlock(func() bool { return p.peek().Is("Case") || p.isEnd("Select") })
		clause.Loc = p.span(caseStart.Source)
		stmt.Cases = append(stmt.Cases, clause)
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

func (p *Parser) parseCaseItems() []ast.Expr {
	var items []ast.Expr
	for {
		if p.acceptKeyword("Is") {
			// Case Is > n
			p.next()
		}
		x := p.parseExpr()
		if p.acceptKeyword("To") {
			to := p.parseExpr()
			x = &ast.RangeExpr{From: x, To: to, Loc: x.Source().Span(to.Source())}
		}
		items = append(items, x)
		if !p.acceptType(token.COMMA) {
			return items
		}
	}
}

func (p *Parser) parseWith() ast.Stmt {
	start := p.next()
	stmt := &ast.WithStmt{Expr: p.parseExpr()}
	p.expectStmtEnd()
	stmt.Body = p.parseBlock(func() bool { return p.isEnd("With") })
	if !p.isEnd("With") {
		p.errorf(start, "missing End With")
	} else {
		p.next()
		p.next()
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

func (p *Parser) parseOn() ast.Stmt {
	start := p.next()
	p.acceptKeyword("Local")
	if !p.acceptKeyword("Error") {
		// On n GoTo a, b, c
		p.parseExpr()
		p.skipStatement()
		return &ast.JumpStmt{Keyword: "On", Loc: p.span(start.Source)}
	}
	stmt := &ast.JumpStmt{Keyword: "On Error"}
	switch {
	case p.acceptKeyword("GoTo"):
		var label []string
		for !p.atStmtEnd() {
			label = append(label, p.next().Text)
		}
		stmt.Label = strings.Join(label, "")
	case p.acceptKeyword("Resume"):
		p.acceptKeyword("Next")
		stmt.Label = "Resume Next"
	default:
		p.errorf(p.peek(), "expected GoTo or Resume after On Error")
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

func (p *Parser) parseRaiseEvent() ast.Stmt {
	start := p.next()
	stmt := &ast.RaiseEventStmt{Name: p.parseIdent()}
	if stmt.Name == nil {
		p.errorf(p.peek(), "expected event name")
		p.skipStatement()
		return &ast.BadStmt{Loc: p.span(start.Source)}
	}
	if p.acceptType(token.PAREN_L) {
		stmt.Args = p.parseArgs()
		p.expect(token.PAREN_R)
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

var fileStatements = []string{"Print", "Write", "Input", "Get", "Put", "Seek", "Lock", "Unlock", "Width"}

// isFileStatement reports whether the next tokens begin a file I/O
// statement.
func (p *Parser) isFileStatement() bool {
	tok := p.peek()
	next := p.src.PeekAt(1)
	switch {
	case tok.Type != token.IDENT:
		return false
	case tok.Is("Open"):
		return next.Type != token.OPERATOR && next.Type != token.PAREN_L && !p.isStmtEndAt(1)
	case tok.Is("Close"), tok.Is("Reset"):
		return next.Type == token.HASH || next.Type == token.INT || p.isStmtEndAt(1)
	case tok.Is("Line"):
		return next.Is("Input")
	}
	for _, name := range fileStatements {
		if tok.Is(name) {
			return next.Type == token.HASH
		}
	}
	return false
}

func (p *Parser) parseFileStmt() ast.Stmt {
	start := p.next()
	stmt := &ast.FileStmt{Keyword: start.Text}
	if start.Is("Line") {
		p.next()
		stmt.Keyword = "Line Input"
	}
	if start.Is("Open") {
		stmt.Args = append(stmt.Args, p.parseExpr())
		p.skipStatement()
		stmt.Loc = p.span(start.Source)
		return stmt
	}
	for !p.atStmtEnd() {
		if p.acceptType(token.HASH) || p.acceptType(token.COMMA) || p.acceptOperator(";") {
			continue
		}
		pos := p.src.Pos()
		stmt.Args = append(stmt.Args, p.parseExpr())
		if p.src.Pos() == pos {
			p.next()
		}
	}
	stmt.Loc = p.span(start.Source)
	return stmt
}

// skipStatement consumes tokens through the end of the current statement.
func (p *Parser) skipStatement() {
	for !p.atStmtEnd() {
		p.next()
	}
}
