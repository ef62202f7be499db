// Copyright © 2024 The vbalint authors

package export

import (
	"fmt"
	"html"
	"io"
	"strings"
)

const (
	htmlHeader = "Version:1.0\r\n" +
		"StartHTML:%010d\r\n" +
		"EndHTML:%010d\r\n" +
		"StartFragment:%010d\r\n" +
		"EndFragment:%010d\r\n"
	htmlPrefix      = "<html>\r\n<body>\r\n<!--StartFragment-->"
	htmlSuffix      = "<!--EndFragment-->\r\n</body>\r\n</html>"
	htmlHeaderBytes = 105
)

// WriteHTML writes t as an HTML clipboard fragment: a header of byte
// offsets followed by a document whose fragment is a table.
func WriteHTML(w io.Writer, t *Table) error {
	fragment := htmlTable(t)
	startHTML := htmlHeaderBytes
	startFragment := startHTML + len(htmlPrefix)
	endFragment := startFragment + len(fragment)
	endHTML := endFragment + len(htmlSuffix)
	header := fmt.Sprintf(htmlHeader, startHTML, endHTML, startFragment, endFragment)
	if len(header) != htmlHeaderBytes {
		return fmt.Errorf("html header is %d bytes", len(header))
	}
	_, err := io.WriteString(w, header+htmlPrefix+fragment+htmlSuffix)
	return err
}

func htmlTable(t *Table) string {
	var b strings.Builder
	b.WriteString("<table>")
	if t.Title != "" {
		b.WriteString("<caption>")
		b.WriteString(html.EscapeString(t.Title))
		b.WriteString("</caption>")
	}
	b.WriteString("<tr>")
	for _, c := range t.Columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(c.Title))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for i, cell := range row {
			if i < len(t.Columns) && t.Columns[i].Align == AlignRight {
				b.WriteString(`<td align="right">`)
			} else {
				b.WriteString("<td>")
			}
			b.WriteString(strings.ReplaceAll(html.EscapeString(cell), "\n", "<br>"))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}
