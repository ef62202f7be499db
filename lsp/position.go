// Copyright © 2024 The vbalint authors

package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/parser/token"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// values out of range.
func safeUint(n int) protocol.UInteger {
	u, err := safecast.Conv[protocol.UInteger](n)
	if err != nil {
		if n < 0 {
			return 0
		}
		return protocol.UInteger(^uint32(0))
	}
	return u
}

// lineIndex maps byte offsets of a text to LSP positions, counting
// characters in UTF-16 code units.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) *lineIndex {
	idx := &lineIndex{text: text, starts: []int{0}}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			idx.starts = append(idx.starts, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			idx.starts = append(idx.starts, i+1)
		}
	}
	return idx
}

// position returns the LSP position of byte offset off.
func (idx *lineIndex) position(off int) protocol.Position {
	if off < 0 {
		off = 0
	}
	if off > len(idx.text) {
		off = len(idx.text)
	}
	line := 0
	lo, hi := 0, len(idx.starts)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if idx.starts[mid] <= off {
			line = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(utf16Len(idx.text[idx.starts[line]:off])),
	}
}

// offset returns the byte offset of an LSP position, clamped to the line.
func (idx *lineIndex) offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(idx.starts) {
		return len(idx.text)
	}
	start := idx.starts[line]
	end := len(idx.text)
	if line+1 < len(idx.starts) {
		end = idx.starts[line+1]
	}
	units := int(pos.Character)
	i := start
	for i < end && units > 0 {
		r, size := utf8.DecodeRuneInString(idx.text[i:])
		if r == '\r' || r == '\n' {
			break
		}
		units -= utf16Units(r)
		i += size
	}
	return i
}

// lineCol returns the 1-based line and rune column of an LSP position, the
// coordinates used by source locations.
func (idx *lineIndex) lineCol(pos protocol.Position) (int, int) {
	off := idx.offset(pos)
	line := int(pos.Line)
	if line >= len(idx.starts) {
		line = len(idx.starts) - 1
	}
	return line + 1, utf8.RuneCountInString(idx.text[idx.starts[line]:off]) + 1
}

func (idx *lineIndex) span(pos, end int) protocol.Range {
	return protocol.Range{Start: idx.position(pos), End: idx.position(end)}
}

// locationRange converts a source location to an LSP range, using byte
// offsets when the text is known and the 1-based columns otherwise.
func locationRange(idx *lineIndex, loc *token.Location) protocol.Range {
	if loc == nil {
		return protocol.Range{}
	}
	if idx != nil && loc.Pos >= 0 && loc.End >= loc.Pos && loc.End <= len(idx.text) {
		return idx.span(loc.Pos, loc.End)
	}
	start := protocol.Position{Line: safeUint(loc.Line - 1), Character: safeUint(loc.Col - 1)}
	end := start
	if loc.EndLine > 0 {
		end = protocol.Position{Line: safeUint(loc.EndLine - 1), Character: safeUint(loc.EndCol - 1)}
	}
	return protocol.Range{Start: start, End: end}
}

// overlaps reports whether a and b share a position.  Empty ranges touch
// the ranges around them.
func overlaps(a, b protocol.Range) bool {
	return !before(a.End, b.Start) && !before(b.End, a.Start)
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16Units(r)
	}
	return n
}

// utf16Units is the number of UTF-16 code units encoding r.  Runes outside
// the basic multilingual plane take a surrogate pair.
func utf16Units(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return filepath.FromSlash(u.Path)
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}
