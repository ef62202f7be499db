// Copyright © 2024 The vbalint authors

// Package export writes result tables as CSV, an HTML clipboard fragment,
// RTF and XML Spreadsheet 2003.
//
// Every writer is a pure function of a Table.  CSV output can be read back
// with ReadCSV without loss.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
)

// Align is the horizontal alignment of a column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Column describes one column of a table.
type Column struct {
	Title string
	Align Align
	// Numeric columns hold integers and are typed as numbers in
	// spreadsheets.
	Numeric bool
}

// Table is an ordered set of rows with fixed columns.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

// Outcome is the result of a unit test run by the host.
type Outcome string

const (
	OutcomeUnknown         Outcome = "Unknown"
	OutcomeSucceeded       Outcome = "Succeeded"
	OutcomeFailed          Outcome = "Failed"
	OutcomeInconclusive    Outcome = "Inconclusive"
	OutcomeIgnored         Outcome = "Ignored"
	OutcomeSpectacularFail Outcome = "SpectacularFail"
)

// ParseOutcome maps an outcome name to its value, ignoring case.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{OutcomeUnknown, OutcomeSucceeded, OutcomeFailed, OutcomeInconclusive, OutcomeIgnored, OutcomeSpectacularFail} {
		if strings.EqualFold(string(o), strings.TrimSpace(s)) {
			return o, nil
		}
	}
	return OutcomeUnknown, fmt.Errorf("unknown test outcome %q", s)
}

// TestResult is one row of a test results table.
type TestResult struct {
	Project   string
	Component string
	Method    string
	Outcome   Outcome
	Output    string
	Start     time.Time
	End       time.Time
	Duration  time.Duration
}

// TimeLayout formats the start and end times of test results.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var testResultColumns = []Column{
	{Title: "Project"},
	{Title: "Component"},
	{Title: "Method"},
	{Title: "Outcome"},
	{Title: "Output"},
	{Title: "Start Time"},
	{Title: "End Time"},
	{Title: "Duration (ms)", Align: AlignRight, Numeric: true},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimeLayout, s)
}

// TestResultTable tabulates test results with the columns Project,
// Component, Method, Outcome, Output, Start Time, End Time and
// Duration (ms).
func TestResultTable(title string, results []TestResult) *Table {
	t := &Table{Title: title, Columns: append([]Column(nil), testResultColumns...)}
	for _, r := range results {
		outcome := r.Outcome
		if outcome == "" {
			outcome = OutcomeUnknown
		}
		t.Rows = append(t.Rows, []string{
			r.Project,
			r.Component,
			r.Method,
			string(outcome),
			r.Output,
			formatTime(r.Start),
			formatTime(r.End),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
		})
	}
	return t
}

// TestResults reads the rows of a table built by TestResultTable.
func TestResults(t *Table) ([]TestResult, error) {
	if len(t.Columns) != len(testResultColumns) {
		return nil, fmt.Errorf("test results need %d columns, got %d", len(testResultColumns), len(t.Columns))
	}
	for i, c := range t.Columns {
		if c.Title != testResultColumns[i].Title {
			return nil, fmt.Errorf("column %d is %q, want %q", i+1, c.Title, testResultColumns[i].Title)
		}
	}
	out := make([]TestResult, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(testResultColumns) {
			return nil, fmt.Errorf("row %d has %d fields", i+1, len(row))
		}
		outcome, err := ParseOutcome(row[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		start, err := parseTime(row[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: start time: %w", i+1, err)
		}
		end, err := parseTime(row[6])
		if err != nil {
			return nil, fmt.Errorf("row %d: end time: %w", i+1, err)
		}
		ms, err := strconv.ParseInt(row[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: duration: %w", i+1, err)
		}
		out = append(out, TestResult{
			Project:   row[0],
			Component: row[1],
			Method:    row[2],
			Outcome:   outcome,
			Output:    row[4],
			Start:     start,
			End:       end,
			Duration:  time.Duration(ms) * time.Millisecond,
		})
	}
	return out, nil
}

// DiscoverTests lists the test methods of table with an unknown outcome,
// ordered by module and line.
func DiscoverTests(table *analysis.Table) []TestResult {
	var out []TestResult
	for _, info := range table.Modules() {
		for _, d := range info.Declarations {
			if d.IsTestMethod() {
				out = append(out, TestResult{
					Project:   d.Module.Project,
					Component: d.Module.Component,
					Method:    d.Name,
					Outcome:   OutcomeUnknown,
				})
			}
		}
	}
	return out
}

var resultColumns = []Column{
	{Title: "Severity"},
	{Title: "Inspection"},
	{Title: "Project"},
	{Title: "Component"},
	{Title: "Member"},
	{Title: "Line", Align: AlignRight, Numeric: true},
	{Title: "Column", Align: AlignRight, Numeric: true},
	{Title: "Description"},
}

// ResultsTable tabulates inspection results in their given order.
func ResultsTable(title string, results []*inspection.Result) *Table {
	t := &Table{Title: title, Columns: append([]Column(nil), resultColumns...)}
	for _, r := range results {
		var member, line, col string
		if r.Member != nil {
			member = r.Member.Name
		}
		if r.Location != nil {
			line = strconv.Itoa(r.Location.Line)
			col = strconv.Itoa(r.Location.Col)
		}
		t.Rows = append(t.Rows, []string{
			r.Severity.String(),
			r.Inspection,
			r.Module.Project,
			r.Module.Component,
			member,
			line,
			col,
			r.Description,
		})
	}
	return t
}
