// Copyright © 2024 The vbalint authors

package quickfix

import (
	"strings"
)

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(text string, pos int) int {
	return strings.LastIndexAny(text[:pos], "\r\n") + 1
}

// lineEnd returns the offset of the terminator of the line containing pos,
// or len(text).
func lineEnd(text string, pos int) int {
	if i := strings.IndexAny(text[pos:], "\r\n"); i >= 0 {
		return pos + i
	}
	return len(text)
}

// nextLine returns the offset of the line after the one containing pos.
func nextLine(text string, pos int) int {
	end := lineEnd(text, pos)
	if strings.HasPrefix(text[end:], "\r\n") {
		return end + 2
	}
	if end < len(text) {
		return end + 1
	}
	return end
}

func indentation(text string, start int) string {
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

// newline returns the line terminator used by text.
func newline(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// removeSpan deletes [pos, end).  When nothing else shares its lines the
// lines are deleted whole.
func removeSpan(text string, pos, end int) Change {
	start := lineStart(text, pos)
	if blank(text[start:pos]) && blank(text[end:lineEnd(text, end)]) {
		return Change{Pos: start, End: nextLine(text, end)}
	}
	return Change{Pos: pos, End: end}
}

// matchParen returns the offset of the parenthesis closing the first one at
// or after pos, or -1.
func matchParen(text string, pos int) int {
	depth := 0
	for i := pos; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case ' ', '\t':
		default:
			if depth == 0 {
				return -1
			}
		}
	}
	return -1
}

// headerEnd returns the offset just past the exported module header: a
// VERSION line, a designer Begin/End block and Attribute lines.
func headerEnd(text string) int {
	pos, depth := 0, 0
	for pos < len(text) {
		line := strings.TrimSpace(text[pos:lineEnd(text, pos)])
		word := strings.ToLower(firstWord(line))
		switch {
		case depth > 0 && (word == "begin" || word == "beginproperty"):
			depth++
		case depth > 0 && (word == "end" || word == "endproperty"):
			depth--
		case depth > 0:
		case word == "begin":
			depth++
		case word == "version", word == "attribute", word == "object":
		default:
			return pos
		}
		pos = nextLine(text, pos)
	}
	return pos
}

func firstWord(line string) string {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}
