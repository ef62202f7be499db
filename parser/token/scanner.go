// Copyright © 2024 The vbalint authors

package token

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from module source text.  VBA
// modules are small enough to hold in memory so the scanner works over a
// string rather than a stream.
type Scanner struct {
	file string
	path string
	src  string

	start     int // byte offset of the current token
	startLine int
	startCol  int

	pos  int // byte offset of the next rune to scan
	line int // line of the next rune to scan
	col  int // column of the next rune to scan
	c    rune
}

// NewScanner initializes and returns a new Scanner.
func NewScanner(file string, src string) *Scanner {
	return &Scanner{
		file:      file,
		src:       src,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return s.src[s.start:s.pos]
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	return s.c
}

// Peek returns the next rune to be scanned.  Peek returns a false second value
// at the end of the input.
func (s *Scanner) Peek() (rune, bool) {
	return s.PeekAt(0)
}

// PeekAt returns the rune n positions beyond the next rune to be scanned.
func (s *Scanner) PeekAt(n int) (rune, bool) {
	i := s.pos
	for {
		if i >= len(s.src) {
			return 0, false
		}
		c, size := utf8.DecodeRuneInString(s.src[i:])
		if n == 0 {
			return c, true
		}
		n--
		i += size
	}
}

// ScanRune includes the next rune in the current token.  ScanRune returns
// io.EOF when the input is exhausted.
func (s *Scanner) ScanRune() error {
	if s.pos >= len(s.src) {
		return io.EOF
	}
	c, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.c = c
	s.pos += size
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return nil
}

// EOF reports whether every rune of the input has been scanned.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok || !fn(peek) {
		return false
	}
	return s.ScanRune() == nil
}

func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(r rune) bool { return strings.ContainsRune(charset, r) })
}

func (s *Scanner) AcceptDigit() bool {
	return s.Accept(isDigit)
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	return s.AcceptSeq(isDigit)
}

// AcceptSeqBlank accepts spaces and tabs but never a line break.
func (s *Scanner) AcceptSeqBlank() int {
	return s.AcceptSeq(func(c rune) bool { return c == ' ' || c == '\t' })
}

// AcceptString accepts literal, ignoring case, only if the entire literal is
// next in the input.
func (s *Scanner) AcceptString(literal string) bool {
	if len(s.src)-s.pos < len(literal) {
		return false
	}
	if !strings.EqualFold(s.src[s.pos:s.pos+len(literal)], literal) {
		return false
	}
	for range literal {
		_ = s.ScanRune()
	}
	return true
}

// LocStart returns a Location spanning the text scanned since the last call
// to EmitToken or Ignore.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File:    s.file,
		Path:    s.path,
		Pos:     s.start,
		End:     s.pos,
		Line:    s.startLine,
		Col:     s.startCol,
		EndLine: s.line,
		EndCol:  s.col,
	}
}

// Loc returns a zero-width Location at the current scanner position.
func (s *Scanner) Loc() *Location {
	return &Location{
		File:    s.file,
		Path:    s.path,
		Pos:     s.pos,
		End:     s.pos,
		Line:    s.line,
		Col:     s.col,
		EndLine: s.line,
		EndCol:  s.col,
	}
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
