// Copyright © 2024 The vbalint authors

package lexer

import (
	"strings"
	"unicode"

	"github.com/luthersystems/vbalint/parser/token"
)

type LexFn func(*Lexer) *token.Token

// TypeHints are the characters which may trail an identifier or numeric
// literal to declare its type.
const TypeHints = "$%&!#@^"

var keywords = map[string]bool{}

func init() {
	for _, kw := range []string{
		"AddressOf", "And", "As", "ByRef", "ByVal", "Call", "Case", "Const",
		"Declare", "Dim", "Do", "Each", "Else", "ElseIf", "Empty", "End",
		"Enum", "Eqv", "Erase", "Event", "Exit", "False", "For", "Friend",
		"Function", "Global", "GoSub", "GoTo", "If", "Imp", "Implements", "In",
		"Is", "Let", "Like", "Loop", "Me", "Mod", "New", "Next", "Not",
		"Nothing", "Null", "On", "Option", "Optional", "Or", "ParamArray",
		"Preserve", "Private", "Property", "Public", "RaiseEvent", "ReDim",
		"Resume", "Select", "Set", "Static", "Step", "Stop", "Sub", "Then",
		"To", "True", "Type", "TypeOf", "Until", "Wend", "While", "With",
		"WithEvents", "Xor",
	} {
		keywords[strings.ToLower(kw)] = true
	}
}

// IsKeyword reports whether word is a reserved word.
func IsKeyword(word string) bool {
	return keywords[strings.ToLower(word)]
}

// Lexer turns module source text into tokens.  Line continuations are
// consumed as whitespace so the token stream consists of logical lines
// terminated by NEWLINE tokens.
type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
	spaced  bool
	// atLineStart is true until the first token of a logical line has been
	// emitted.  It distinguishes Rem comments from identifiers named rem.
	atLineStart bool
	prev        *token.Token
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{
		scanner:     s,
		lex:         (*Lexer).readToken,
		atLineStart: true,
	}
}

// Tokenize returns every token in src, ending with EOF.
func Tokenize(file string, src string) []*token.Token {
	lex := New(token.NewScanner(file, src))
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (lex *Lexer) ReadToken() *token.Token {
	tok := lex.lex(lex)
	tok.Spaced = lex.spaced
	switch tok.Type {
	case token.NEWLINE:
		lex.atLineStart = true
	case token.COLON:
		lex.atLineStart = true
	case token.COMMENT:
	default:
		lex.atLineStart = false
	}
	lex.prev = tok
	return tok
}

func (lex *Lexer) readToken() *token.Token {
	lex.skipWhitespace()
	if lex.scanner.ScanRune() != nil {
		return lex.scanner.EmitToken(token.EOF)
	}
	c := lex.scanner.Rune()
	switch c {
	case '\r':
		lex.scanner.AcceptRune('\n')
		return lex.scanner.EmitToken(token.NEWLINE)
	case '\n':
		return lex.scanner.EmitToken(token.NEWLINE)
	case '\'':
		lex.scanner.AcceptSeq(notNewline)
		return lex.scanner.EmitToken(token.COMMENT)
	case '(':
		return lex.scanner.EmitToken(token.PAREN_L)
	case ')':
		return lex.scanner.EmitToken(token.PAREN_R)
	case ',':
		return lex.scanner.EmitToken(token.COMMA)
	case '!':
		return lex.scanner.EmitToken(token.BANG)
	case ':':
		if lex.scanner.AcceptRune('=') {
			return lex.scanner.EmitToken(token.ASSIGN_NAMED)
		}
		return lex.scanner.EmitToken(token.COLON)
	case '.':
		if r, ok := lex.scanner.Peek(); ok && isDigit(r) && lex.startsOperand() {
			return lex.readNumber()
		}
		return lex.scanner.EmitToken(token.DOT)
	case '"':
		return lex.readString()
	case '#':
		if lex.looksLikeDate() {
			lex.scanner.AcceptSeq(func(c rune) bool { return c != '#' && c != '\n' })
			lex.scanner.AcceptRune('#')
			return lex.scanner.EmitToken(token.DATE)
		}
		return lex.scanner.EmitToken(token.HASH)
	case '&':
		if lex.scanner.AcceptAny("hHoO") {
			lex.scanner.AcceptSeq(isHexDigit)
			lex.scanner.AcceptAny("&%^")
			return lex.scanner.EmitToken(token.INT)
		}
		return lex.scanner.EmitToken(token.OPERATOR)
	case '<':
		lex.scanner.AcceptAny("=>")
		return lex.scanner.EmitToken(token.OPERATOR)
	case '>':
		lex.scanner.AcceptRune('=')
		return lex.scanner.EmitToken(token.OPERATOR)
	case '=', '+', '-', '*', '/', '\\', '^', ';':
		return lex.scanner.EmitToken(token.OPERATOR)
	case '[':
		return lex.readBracketedIdent()
	default:
		if isDigit(c) {
			return lex.readNumber()
		}
		if isWordStart(c) {
			return lex.readWord()
		}
		return lex.scanner.EmitToken(token.INVALID)
	}
}

// startsOperand reports whether the previous token leaves the lexer in a
// position where an operand, rather than member access, may begin.
func (lex *Lexer) startsOperand() bool {
	if lex.prev == nil {
		return true
	}
	switch lex.prev.Type {
	case token.IDENT, token.PAREN_R, token.STRING, token.INT, token.FLOAT:
		return lex.spaced
	}
	return true
}

func (lex *Lexer) readString() *token.Token {
	for {
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '"' && c != '\n' && c != '\r' })
		if !lex.scanner.AcceptRune('"') {
			return lex.scanner.EmitToken(token.ERROR)
		}
		// A doubled quote is an escaped quote character.
		if !lex.scanner.AcceptRune('"') {
			return lex.scanner.EmitToken(token.STRING)
		}
	}
}

func (lex *Lexer) readBracketedIdent() *token.Token {
	lex.scanner.AcceptSeq(func(c rune) bool { return c != ']' && c != '\n' })
	if !lex.scanner.AcceptRune(']') {
		return lex.scanner.EmitToken(token.ERROR)
	}
	return lex.scanner.EmitToken(token.IDENT)
}

func (lex *Lexer) readWord() *token.Token {
	lex.scanner.AcceptSeq(isWord)
	word := lex.scanner.Text()
	if lex.atLineStart && strings.EqualFold(word, "rem") {
		if r, ok := lex.scanner.Peek(); !ok || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			lex.scanner.AcceptSeq(notNewline)
			return lex.scanner.EmitToken(token.COMMENT)
		}
	}
	if IsKeyword(word) {
		return lex.scanner.EmitToken(token.KEYWORD)
	}
	lex.acceptTypeHint()
	return lex.scanner.EmitToken(token.IDENT)
}

// acceptTypeHint consumes a trailing type hint character unless it begins
// something else, such as a bang member access or a concatenation.
func (lex *Lexer) acceptTypeHint() {
	c, ok := lex.scanner.Peek()
	if !ok || !strings.ContainsRune(TypeHints, c) {
		return
	}
	next, ok := lex.scanner.PeekAt(1)
	if ok && (isWord(next) || next == '[') {
		return
	}
	_ = lex.scanner.ScanRune()
}

func (lex *Lexer) readNumber() *token.Token {
	typ := token.INT
	if lex.scanner.Rune() == '.' {
		typ = token.FLOAT
	}
	lex.scanner.AcceptSeqDigit()
	if typ == token.INT && lex.scanner.AcceptRune('.') {
		typ = token.FLOAT
		lex.scanner.AcceptSeqDigit()
	}
	if c, ok := lex.scanner.Peek(); ok && strings.ContainsRune("eEdD", c) {
		if n, ok := lex.scanner.PeekAt(1); ok && (isDigit(n) || n == '+' || n == '-') {
			_ = lex.scanner.ScanRune()
			lex.scanner.AcceptAny("+-")
			lex.scanner.AcceptSeqDigit()
			typ = token.FLOAT
		}
	}
	if lex.scanner.AcceptAny("!#@") {
		typ = token.FLOAT
	} else {
		lex.scanner.AcceptAny("%&^")
	}
	return lex.scanner.EmitToken(typ)
}

// looksLikeDate reports whether the text following a '#' is a date literal
// closed on the same line, as opposed to a file number or directive.
func (lex *Lexer) looksLikeDate() bool {
	first, ok := lex.scanner.Peek()
	if !ok || !isDigit(first) {
		return false
	}
	for i := 1; ; i++ {
		c, ok := lex.scanner.PeekAt(i)
		if !ok || c == '\n' || c == '\r' {
			return false
		}
		if c == '#' {
			return true
		}
		if !isDigit(c) && !strings.ContainsRune("/-:., ", c) && !unicode.IsLetter(c) {
			return false
		}
	}
}

// skipWhitespace skips blanks and line continuations.
func (lex *Lexer) skipWhitespace() {
	lex.spaced = false
	for {
		if lex.scanner.AcceptSeqBlank() > 0 {
			lex.spaced = true
		}
		if !lex.isContinuation() {
			break
		}
		lex.spaced = true
	}
	lex.scanner.Ignore()
}

// isContinuation consumes a line continuation ("_" followed by the end of
// the physical line) when one is next in the input.
func (lex *Lexer) isContinuation() bool {
	c, ok := lex.scanner.Peek()
	if !ok || c != '_' || !lex.spaced {
		return false
	}
	i := 1
	for {
		c, ok = lex.scanner.PeekAt(i)
		if !ok {
			return false
		}
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		break
	}
	if c != '\n' && c != '\r' {
		return false
	}
	for ; i >= 0; i-- {
		_ = lex.scanner.ScanRune()
	}
	if c == '\r' {
		lex.scanner.AcceptRune('\n')
	}
	return true
}

func notNewline(c rune) bool {
	return c != '\n' && c != '\r'
}

func isWordStart(c rune) bool {
	return unicode.IsLetter(c)
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
