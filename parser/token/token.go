// Copyright © 2024 The vbalint authors

package token

import (
	"fmt"
	"strings"
)

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location
	// Spaced is true when whitespace separates the token from the one before
	// it on the same logical line.
	Spaced bool
}

// Is reports whether tok is an identifier or keyword spelled kw, ignoring
// case.
func (tok *Token) Is(kw string) bool {
	if tok == nil {
		return false
	}
	if tok.Type != IDENT && tok.Type != KEYWORD {
		return false
	}
	return strings.EqualFold(tok.Text, kw)
}

type Type uint

// Type constants used by the VBA lexer and parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	NEWLINE // end of a logical line
	COLON   // statement separator (also used by labels and named arguments)

	// Atomic expressions & literals
	IDENT
	KEYWORD
	INT
	FLOAT
	STRING
	DATE

	COMMENT

	// Operators and punctuation
	OPERATOR
	ASSIGN_NAMED // :=
	DOT
	BANG
	COMMA
	HASH
	PAREN_L
	PAREN_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:      "invalid",
		ERROR:        "error",
		EOF:          "EOF",
		NEWLINE:      "newline",
		COLON:        ":",
		IDENT:        "identifier",
		KEYWORD:      "keyword",
		INT:          "int",
		FLOAT:        "float",
		STRING:       "string",
		DATE:         "date",
		COMMENT:      "comment",
		OPERATOR:     "operator",
		ASSIGN_NAMED: ":=",
		DOT:          ".",
		BANG:         "!",
		COMMA:        ",",
		HASH:         "#",
		PAREN_L:      "(",
		PAREN_R:      ")",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Location is a span of source text.  Pos and End are byte offsets; Line,
// Col, EndLine and EndCol are 1-based with columns counted in runes.
type Location struct {
	File    string // a name representing the source stream
	Path    string // a physical location which may differ from File
	Pos     int
	End     int
	Line    int // line number (starting at 1 when tracked)
	Col     int // line column number (starting at 1 when tracked)
	EndLine int
	EndCol  int // column just past the last rune
}

func (loc *Location) String() string {
	switch {
	case loc == nil:
		return "<unknown>"
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// Span returns a location covering loc through end.
func (loc *Location) Span(end *Location) *Location {
	if loc == nil {
		return end
	}
	if end == nil {
		return loc
	}
	span := *loc
	span.End = end.End
	span.EndLine = end.EndLine
	span.EndCol = end.EndCol
	return &span
}

// Contains reports whether the 1-based line and column fall inside loc.
func (loc *Location) Contains(line, col int) bool {
	if loc == nil {
		return false
	}
	if line < loc.Line || line > loc.EndLine {
		return false
	}
	if line == loc.Line && col < loc.Col {
		return false
	}
	if line == loc.EndLine && col >= loc.EndCol {
		return false
	}
	return true
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
