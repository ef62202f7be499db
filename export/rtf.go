// Copyright © 2024 The vbalint authors

package export

import (
	"fmt"
	"io"
	"strings"
)

// cellWidth is the width of every RTF table cell in twips.
const cellWidth = 1800

// WriteRTF writes t as an RTF document holding one table.
func WriteRTF(w io.Writer, t *Table) error {
	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0 Calibri;}}\f0\fs20` + "\r\n")
	if t.Title != "" {
		fmt.Fprintf(&b, `{\b %s}\par`+"\r\n", rtfEscape(t.Title))
	}
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Title
	}
	rtfRow(&b, t.Columns, header, true)
	for _, row := range t.Rows {
		rtfRow(&b, t.Columns, row, false)
	}
	b.WriteString("}")
	_, err := io.WriteString(w, b.String())
	return err
}

func rtfRow(b *strings.Builder, cols []Column, cells []string, bold bool) {
	b.WriteString(`\trowd\trgaph108`)
	for i := range cells {
		fmt.Fprintf(b, `\cellx%d`, (i+1)*cellWidth)
	}
	b.WriteString("\r\n")
	for i, cell := range cells {
		b.WriteString(`\pard\intbl`)
		if i < len(cols) && cols[i].Align == AlignRight {
			b.WriteString(`\qr`)
		}
		b.WriteString(" ")
		text := rtfEscape(cell)
		if bold {
			text = `{\b ` + text + `}`
		}
		b.WriteString(text)
		b.WriteString(`\cell` + "\r\n")
	}
	b.WriteString(`\row` + "\r\n")
}

// rtfEscape escapes control characters and writes runes outside ASCII as
// \uN? control words.
func rtfEscape(s string) string {
	var b strings.Builder
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r == '\t':
			b.WriteString(`\tab `)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%d?`, int16(r))
		default:
			// RTF control words take signed 16-bit values; encode as a
			// surrogate pair.
			r -= 0x10000
			hi, lo := 0xd800+(r>>10), 0xdc00+(r&0x3ff)
			fmt.Fprintf(&b, `\u%d?\u%d?`, int16(hi), int16(lo))
		}
	}
	return b.String()
}
