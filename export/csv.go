// Copyright © 2024 The vbalint authors

package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// WriteCSV writes t as CSV.  The first record holds the title alone, the
// second the column titles.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write([]string{t.Title}); err != nil {
		return err
	}
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Title
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d fields, want %d", i+1, len(row), len(t.Columns))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV.  Column alignment and numeric
// typing are restored for the columns of known tables.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("read csv: missing title or header record")
	}
	if len(records[0]) != 1 {
		return nil, fmt.Errorf("read csv: title record has %d fields", len(records[0]))
	}
	t := &Table{Title: records[0][0]}
	for _, title := range records[1] {
		t.Columns = append(t.Columns, knownColumn(title))
	}
	for i, rec := range records[2:] {
		if len(rec) != len(t.Columns) {
			return nil, fmt.Errorf("read csv: record %d has %d fields, want %d", i+3, len(rec), len(t.Columns))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func knownColumn(title string) Column {
	for _, cols := range [][]Column{testResultColumns, resultColumns} {
		for _, c := range cols {
			if c.Title == title {
				return c
			}
		}
	}
	return Column{Title: title}
}
