// Copyright © 2024 The vbalint authors

package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Renderer formats diagnostics as Rust-style annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output.  Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents.  If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, fileFromWriter(w))
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	r.writeHeader(ew, d, p)
	for _, span := range d.Spans {
		r.writeSpan(ew, span, p)
	}
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.note.Sprint("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	sev := d.Severity.String()
	if d.Code != "" {
		sev += "[" + d.Code + "]"
	}
	style, ok := p.severity[d.Severity]
	if !ok {
		style = p.bold
	}
	ew.printf("%s %s\n", style.Sprint(sev+":"), p.bold.Sprint(d.Message))
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, p palette) {
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	ew.printf("  %s %s\n", p.gutter.Sprint("-->"), loc)

	source, ok := r.readSourceLine(span.File, span.Line)
	if !ok {
		ew.printf("   %s\n", p.gutter.Sprint("|"))
		return
	}

	lineStr := strconv.Itoa(span.Line)
	pad := strings.Repeat(" ", len(lineStr))
	bar := p.gutter.Sprint(pad + " |")

	ew.printf(" %s\n", bar)
	ew.printf(" %s  %s\n", p.gutter.Sprint(lineStr+" |"), expandTabs(source))

	col := span.Col
	if col <= 0 {
		col = 1
	}
	endCol := span.EndCol
	if endCol <= 0 {
		endCol = detectEndCol(source, col)
	}
	width := displayWidth(columnSlice(source, col, endCol))
	if width < 1 {
		width = 1
	}
	indent := strings.Repeat(" ", displayWidth(columnSlice(source, 1, col)))

	ew.printf(" %s  %s%s", bar, indent, p.marker.Sprint(strings.Repeat("^", width)))
	if span.Label != "" {
		ew.printf(" %s", p.marker.Sprint(span.Label))
	}
	ew.print("\n")
	ew.printf(" %s\n", bar)
}

func (r *Renderer) readSourceLine(file string, line int) (string, bool) {
	if line <= 0 || file == "" {
		return "", false
	}
	reader := r.SourceReader
	if reader == nil {
		reader = os.ReadFile
	}
	data, err := reader(file)
	if err != nil {
		return "", false
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// columnSlice returns the runes of source from column col up to, not
// including, column end.
func columnSlice(source string, col, end int) string {
	start, stop := -1, len(source)
	c := 1
	for i := range source {
		if c == col {
			start = i
		}
		if c == end {
			stop = i
			break
		}
		c++
	}
	if start < 0 || stop < start {
		return ""
	}
	return source[start:stop]
}

// detectEndCol returns the column just past the word starting at col.
func detectEndCol(source string, col int) int {
	rest := columnSlice(source, col, -1)
	end := col
	for len(rest) > 0 {
		ch, size := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		rest = rest[size:]
		end++
	}
	if end == col {
		end++
	}
	return end
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// displayWidth returns the terminal width of s with tabs expanded to four
// spaces.
func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}

// fileFromWriter attempts to extract an *os.File from a writer for terminal
// detection.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
