// Copyright © 2024 The vbalint authors

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerPositions(t *testing.T) {
	s := NewScanner("test", "ab\ncd")
	require.True(t, s.AcceptRune('a'))
	require.True(t, s.AcceptRune('b'))
	tok := s.EmitToken(IDENT)
	assert.Equal(t, "ab", tok.Text)
	assert.Equal(t, 1, tok.Source.Line)
	assert.Equal(t, 1, tok.Source.Col)
	assert.Equal(t, 3, tok.Source.EndCol)
	assert.Equal(t, 0, tok.Source.Pos)
	assert.Equal(t, 2, tok.Source.End)

	require.True(t, s.AcceptRune('\n'))
	s.Ignore()
	assert.Equal(t, 2, s.AcceptSeq(func(c rune) bool { return c != '\n' }))
	tok = s.EmitToken(IDENT)
	assert.Equal(t, "cd", tok.Text)
	assert.Equal(t, 2, tok.Source.Line)
	assert.Equal(t, 1, tok.Source.Col)
	assert.Equal(t, 3, tok.Source.Pos)
	assert.True(t, s.EOF())
}

func TestScannerPeekAt(t *testing.T) {
	s := NewScanner("test", "x _\n")
	c, ok := s.PeekAt(2)
	assert.True(t, ok)
	assert.Equal(t, '_', c)
	_, ok = s.PeekAt(10)
	assert.False(t, ok)
}

func TestScannerAcceptString(t *testing.T) {
	s := NewScanner("test", "REM hello")
	assert.False(t, s.AcceptString("rem hello world"))
	assert.True(t, s.AcceptString("rem"))
	assert.Equal(t, "REM", s.Text())
	assert.Equal(t, 1, s.AcceptSeqBlank())
}

func TestScannerMultibyte(t *testing.T) {
	s := NewScanner("test", "é1")
	require.True(t, s.Accept(func(rune) bool { return true }))
	tok := s.EmitToken(IDENT)
	assert.Equal(t, 2, tok.Source.End)
	assert.Equal(t, 2, tok.Source.EndCol)
	assert.True(t, s.AcceptDigit())
}
