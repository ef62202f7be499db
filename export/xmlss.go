// Copyright © 2024 The vbalint authors

package export

import (
	"encoding/xml"
	"io"
)

const (
	nsSpreadsheet = "urn:schemas-microsoft-com:office:spreadsheet"
	styleHeader   = "header"
	styleRight    = "right"
)

type workbook struct {
	XMLName   xml.Name    `xml:"Workbook"`
	Xmlns     string      `xml:"xmlns,attr"`
	XmlnsSS   string      `xml:"xmlns:ss,attr"`
	Styles    []style     `xml:"Styles>Style"`
	Worksheet []worksheet `xml:"Worksheet"`
}

type style struct {
	ID        string     `xml:"ss:ID,attr"`
	Font      *font      `xml:"Font,omitempty"`
	Alignment *alignment `xml:"Alignment,omitempty"`
}

type font struct {
	Bold int `xml:"ss:Bold,attr"`
}

type alignment struct {
	Horizontal string `xml:"ss:Horizontal,attr"`
}

type worksheet struct {
	Name  string   `xml:"ss:Name,attr"`
	Table xmlTable `xml:"Table"`
}

type xmlTable struct {
	Rows []xmlRow `xml:"Row"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"Cell"`
}

type xmlCell struct {
	Style string  `xml:"ss:StyleID,attr,omitempty"`
	Data  xmlData `xml:"Data"`
}

type xmlData struct {
	Type  string `xml:"ss:Type,attr"`
	Value string `xml:",chardata"`
}

// WriteXMLSpreadsheet writes t as an XML Spreadsheet 2003 workbook with a
// single worksheet named after the title.
func WriteXMLSpreadsheet(w io.Writer, t *Table) error {
	name := t.Title
	if name == "" {
		name = "Sheet1"
	}
	ws := worksheet{Name: sheetName(name)}
	header := xmlRow{}
	for _, c := range t.Columns {
		header.Cells = append(header.Cells, xmlCell{Style: styleHeader, Data: xmlData{Type: "String", Value: c.Title}})
	}
	ws.Table.Rows = append(ws.Table.Rows, header)
	for _, row := range t.Rows {
		var r xmlRow
		for i, cell := range row {
			c := xmlCell{Data: xmlData{Type: "String", Value: cell}}
			if i < len(t.Columns) {
				col := t.Columns[i]
				if col.Numeric && cell != "" {
					c.Data.Type = "Number"
				}
				if col.Align == AlignRight {
					c.Style = styleRight
				}
			}
			r.Cells = append(r.Cells, c)
		}
		ws.Table.Rows = append(ws.Table.Rows, r)
	}
	wb := workbook{
		Xmlns:   nsSpreadsheet,
		XmlnsSS: nsSpreadsheet,
		Styles: []style{
			{ID: styleHeader, Font: &font{Bold: 1}},
			{ID: styleRight, Alignment: &alignment{Horizontal: "Right"}},
		},
		Worksheet: []worksheet{ws},
	}
	if _, err := io.WriteString(w, xml.Header+`<?mso-application progid="Excel.Sheet"?>`+"\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(wb); err != nil {
		return err
	}
	return enc.Flush()
}

// sheetName drops the characters Excel rejects in worksheet names and
// truncates to 31 characters.
func sheetName(s string) string {
	var out []rune
	for _, r := range s {
		switch r {
		case '\\', '/', '?', '*', '[', ']', ':':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	return string(out)
}
