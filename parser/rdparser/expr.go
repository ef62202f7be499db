// Copyright © 2024 The vbalint authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// Logical operators from lowest to highest precedence.  Not binds tighter
// than all of them and looser than comparison.
var logicalOps = []string{"Imp", "Eqv", "Xor", "Or", "And"}

var comparisonOps = map[string]bool{
	"=": true, "<>": true, "<": true, ">": true, "<=": true, ">=": true,
}

// parseExpr parses a complete expression.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseLogical(0)
}

func (p *Parser) parseLogical(level int) ast.Expr {
	if level == len(logicalOps) {
		return p.parseNot()
	}
	op := logicalOps[level]
	return p.binary(
		func() ast.Expr { return p.parseLogical(level + 1) },
		func(tok *token.Token) bool { return tok.Is(op) },
	)
}

func (p *Parser) parseNot() ast.Expr {
	if p.peek().Is("Not") {
		start := p.next()
		x := p.parseNot()
		return &ast.UnaryExpr{Op: "Not", X: x, Loc: p.span(start.Source)}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expr {
	return p.binary(p.parseConcat, func(tok *token.Token) bool {
		if tok.Type == token.OPERATOR {
			return comparisonOps[tok.Text]
		}
		return tok.Is("Like") || tok.Is("Is")
	})
}

func (p *Parser) parseConcat() ast.Expr {
	return p.binary(p.parseAdditive, isOperator("&"))
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.binary(p.parseMod, isOperator("+", "-"))
}

func (p *Parser) parseMod() ast.Expr {
	return p.binary(p.parseIntDiv, func(tok *token.Token) bool { return tok.Is("Mod") })
}

func (p *Parser) parseIntDiv() ast.Expr {
	return p.binary(p.parseMul, isOperator(`\`))
}

func (p *Parser) parseMul() ast.Expr {
	return p.binary(p.parseUnary, isOperator("*", "/"))
}

// parseUnary parses arithmetic negation, which binds looser than
// exponentiation.
func (p *Parser) parseUnary() ast.Expr {
	tok := p.peek()
	if tok.Type == token.OPERATOR && (tok.Text == "-" || tok.Text == "+") {
		p.next()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: tok.Text, X: x, Loc: p.span(tok.Source)}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.Expr {
	x := p.parsePostfix(false)
	for p.acceptOperator("^") {
		var y ast.Expr
		if tok := p.peek(); tok.Type == token.OPERATOR && tok.Text == "-" {
			p.next()
			operand := p.parsePostfix(false)
			y = &ast.UnaryExpr{Op: "-", X: operand, Loc: p.span(tok.Source)}
		} else {
			y = p.parsePostfix(false)
		}
		x = &ast.BinaryExpr{Op: "^", X: x, Y: y, Loc: x.Source().Span(y.Source())}
	}
	return x
}

// binary parses a left-associative sequence of operands joined by operators
// accepted by match.
func (p *Parser) binary(operand func() ast.Expr, match func(*token.Token) bool) ast.Expr {
	x := operand()
	for match(p.peek()) {
		op := p.next()
		y := operand()
		x = &ast.BinaryExpr{
			Op:  canonicalOp(op),
			X:   x,
			Y:   y,
			Loc: x.Source().Span(y.Source()),
		}
	}
	return x
}

func isOperator(ops ...string) func(*token.Token) bool {
	return func(tok *token.Token) bool {
		if tok.Type != token.OPERATOR {
			return false
		}
		for _, op := range ops {
			if tok.Text == op {
				return true
			}
		}
		return false
	}
}

func canonicalOp(tok *token.Token) string {
	if tok.Type == token.OPERATOR {
		return tok.Text
	}
	lower := strings.ToLower(tok.Text)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// parsePostfix parses a primary expression followed by member accesses and
// argument lists.  In statement position a parenthesis preceded by a space
// begins the arguments of an implicit call rather than an index.
func (p *Parser) parsePostfix(stmt bool) ast.Expr {
	x := p.parsePrimary()
	if _, bad := x.(*ast.BadExpr); bad {
		return x
	}
	for {
		tok := p.peek()
		switch {
		case tok.Type == token.DOT || tok.Type == token.BANG:
			p.next()
			name := p.parseName()
			if name == nil {
				p.errorf(p.peek(), "expected member name but found %s", describe(p.peek()))
				return x
			}
			x = &ast.MemberExpr{X: x, Name: name, Bang: tok.Type == token.BANG, Loc: x.Source().Span(name.Loc)}
		case tok.Type == token.PAREN_L && !(stmt && tok.Spaced):
			p.next()
			args := p.parseArgs()
			p.expect(token.PAREN_R)
			x = &ast.CallExpr{Fun: x, Args: args, Parens: true, Loc: p.span(x.Source())}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch {
	case tok.Type == token.IDENT:
		p.next()
		return &ast.Ident{Name: tok.Text, Loc: tok.Source}
	case tok.Type == token.STRING:
		return p.literal(ast.StringLit)
	case tok.Type == token.INT:
		return p.literal(ast.IntLit)
	case tok.Type == token.FLOAT:
		return p.literal(ast.FloatLit)
	case tok.Type == token.DATE:
		return p.literal(ast.DateLit)
	case tok.Is("True"), tok.Is("False"):
		return p.literal(ast.BoolLit)
	case tok.Is("Nothing"):
		return p.literal(ast.NothingLit)
	case tok.Is("Empty"):
		return p.literal(ast.EmptyLit)
	case tok.Is("Null"):
		return p.literal(ast.NullLit)
	case tok.Is("Me"):
		p.next()
		return &ast.MeExpr{Loc: tok.Source}
	case tok.Is("New"):
		p.next()
		typ := p.parseTypeName()
		if typ == nil {
			p.errorf(p.peek(), "expected class name after New")
			return &ast.BadExpr{Loc: tok.Source}
		}
		return &ast.NewExpr{Type: typ, Loc: p.span(tok.Source)}
	case tok.Is("TypeOf"):
		p.next()
		x := p.parsePostfix(false)
		if !p.acceptKeyword("Is") {
			p.errorf(p.peek(), "expected Is in TypeOf expression")
			return &ast.TypeOfExpr{X: x, Loc: p.span(tok.Source)}
		}
		return &ast.TypeOfExpr{X: x, Type: p.parseTypeName(), Loc: p.span(tok.Source)}
	case tok.Is("AddressOf"):
		p.next()
		x := p.parsePostfix(false)
		return &ast.AddressOfExpr{X: x, Loc: p.span(tok.Source)}
	case tok.Type == token.PAREN_L:
		p.next()
		x := p.parseExpr()
		p.expect(token.PAREN_R)
		return &ast.ParenExpr{X: x, Loc: p.span(tok.Source)}
	case tok.Type == token.DOT || tok.Type == token.BANG:
		// Leading member access inside a With block.
		p.next()
		name := p.parseName()
		if name == nil {
			p.errorf(p.peek(), "expected member name but found %s", describe(p.peek()))
			return &ast.BadExpr{Loc: tok.Source}
		}
		return &ast.MemberExpr{Name: name, Bang: tok.Type == token.BANG, Loc: p.span(tok.Source)}
	case tok.Type == token.ERROR:
		p.next()
		p.errorf(tok, "%s", describe(tok))
		return &ast.BadExpr{Loc: tok.Source}
	}
	p.errorf(tok, "expected expression but found %s", describe(tok))
	return &ast.BadExpr{Loc: tok.Source}
}

func (p *Parser) literal(kind ast.LiteralKind) ast.Expr {
	tok := p.next()
	return &ast.Literal{Kind: kind, Value: tok.Text, Loc: tok.Source}
}

// parseArgs parses a parenthesized argument list up to, but not including,
// the closing parenthesis.
func (p *Parser) parseArgs() []*ast.Arg {
	if p.peek().Type == token.PAREN_R {
		return nil
	}
	var args []*ast.Arg
	for {
		args = append(args, p.parseArg())
		if !p.acceptType(token.COMMA) {
			return args
		}
	}
}

// parseImplicitArgs parses the arguments of a call statement written without
// parentheses.  Print-style semicolon separators are accepted.
func (p *Parser) parseImplicitArgs() []*ast.Arg {
	var args []*ast.Arg
	for {
		args = append(args, p.parseArg())
		if !p.acceptType(token.COMMA) && !p.acceptOperator(";") {
			return args
		}
		if p.atStmtEnd() {
			return args
		}
	}
}

func (p *Parser) parseArg() *ast.Arg {
	start := p.peek()
	if start.Type == token.COMMA || start.Type == token.PAREN_R || p.atStmtEnd() {
		// omitted argument
		return &ast.Arg{Loc: &token.Location{
			File:    start.Source.File,
			Pos:     start.Source.Pos,
			End:     start.Source.Pos,
			Line:    start.Source.Line,
			Col:     start.Source.Col,
			EndLine: start.Source.Line,
			EndCol:  start.Source.Col,
		}}
	}
	arg := &ast.Arg{}
	if start.Type == token.IDENT && p.src.PeekAt(1).Type == token.ASSIGN_NAMED {
		p.next()
		p.next()
		arg.Name = &ast.Ident{Name: start.Text, Loc: start.Source}
	}
	arg.ByVal = p.acceptKeyword("ByVal")
	value := p.parseExpr()
	if p.acceptKeyword("To") {
		to := p.parseExpr()
		value = &ast.RangeExpr{From: value, To: to, Loc: value.Source().Span(to.Source())}
	}
	arg.Value = value
	arg.Loc = p.span(start.Source)
	return arg
}
