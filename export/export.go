// Copyright © 2024 The vbalint authors

package export

import (
	"fmt"
	"io"
	"strings"
)

// Format names an output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatRTF  Format = "rtf"
	FormatXML  Format = "xml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatHTML, FormatRTF, FormatXML}
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "html", "htm":
		return FormatHTML, nil
	case "rtf":
		return FormatRTF, nil
	case "xml", "xmlss":
		return FormatXML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Write writes t to w in format f.
func Write(w io.Writer, f Format, t *Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatHTML:
		return WriteHTML(w, t)
	case FormatRTF:
		return WriteRTF(w, t)
	case FormatXML:
		return WriteXMLSpreadsheet(w, t)
	}
	return fmt.Errorf("unknown export format %q", f)
}
