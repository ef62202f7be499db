// Copyright © 2024 The vbalint authors

package rdparser

import (
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/lexer"
	"github.com/luthersystems/vbalint/parser/token"
)

// TokenSource provides lookahead over the significant tokens of a module.
// Comments are removed from the stream and kept separately, and only the
// first arm of each conditional compilation block is retained.
type TokenSource struct {
	toks     []*token.Token
	i        int
	Token    *token.Token // the last token scanned
	Comments []*ast.Comment
}

// NewTokenSource lexes text and returns a TokenSource over its tokens.
func NewTokenSource(file string, text string) *TokenSource {
	return NewTokenSliceSource(lexer.Tokenize(file, text))
}

// NewTokenSliceSource returns a TokenSource over toks, which must end with an
// EOF token.
func NewTokenSliceSource(toks []*token.Token) *TokenSource {
	s := &TokenSource{}
	s.toks = s.filter(toks)
	return s
}

func (s *TokenSource) filter(toks []*token.Token) []*token.Token {
	var out []*token.Token
	// Each frame records whether lines of the current #If block are kept.
	var frames []bool
	active := func() bool {
		return len(frames) == 0 || frames[len(frames)-1]
	}
	for start := 0; start < len(toks); {
		end := start
		for end < len(toks)-1 && toks[end].Type != token.NEWLINE {
			end++
		}
		line := toks[start : end+1]
		start = end + 1
		if directive, ok := directiveOf(line); ok {
			switch directive {
			case "if":
				frames = append(frames, active())
			case "elseif", "else":
				if len(frames) > 0 {
					frames[len(frames)-1] = false
				}
			case "end":
				if len(frames) > 0 {
					frames = frames[:len(frames)-1]
				}
			}
			if line[len(line)-1].Type == token.EOF {
				out = append(out, line[len(line)-1])
			}
			continue
		}
		if !active() {
			if line[len(line)-1].Type == token.EOF {
				out = append(out, line[len(line)-1])
			}
			continue
		}
		trailing := false
		for _, tok := range line {
			if tok.Type == token.COMMENT {
				s.Comments = append(s.Comments, &ast.Comment{
					Text:     tok.Text,
					Loc:      tok.Source,
					Trailing: trailing,
				})
				continue
			}
			trailing = true
			out = append(out, tok)
		}
	}
	return out
}

// directiveOf returns the lower-case name of the conditional compilation
// directive a line contains.
func directiveOf(line []*token.Token) (string, bool) {
	if len(line) < 2 || line[0].Type != token.HASH {
		return "", false
	}
	kw := line[1]
	for _, name := range []string{"if", "elseif", "else", "end", "const"} {
		if kw.Is(name) {
			return name, true
		}
	}
	return "", false
}

// Peek returns the next token without scanning it.
func (s *TokenSource) Peek() *token.Token {
	return s.PeekAt(0)
}

// PeekAt returns the token n positions beyond the next token.  Positions
// beyond the end of input return the EOF token.
func (s *TokenSource) PeekAt(n int) *token.Token {
	if s.i+n >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i+n]
}

// Pos returns the index of the next token.
func (s *TokenSource) Pos() int {
	return s.i
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

// AcceptKeyword scans the next token if it is the word kw.
func (s *TokenSource) AcceptKeyword(kw string) bool {
	return s.Accept(func(tok *token.Token) bool { return tok.Is(kw) })
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	if s.i < len(s.toks)-1 {
		s.i++
	}
}
