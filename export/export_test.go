// Copyright © 2024 The vbalint authors

package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser"
	"github.com/luthersystems/vbalint/parser/ast"
)

func sampleResults() []TestResult {
	start := time.Date(2024, 3, 1, 9, 30, 0, 125*int(time.Millisecond), time.UTC)
	return []TestResult{
		{
			Project:   "VBAProject",
			Component: "MathTests",
			Method:    "AddsNumbers",
			Outcome:   OutcomeSucceeded,
			Start:     start,
			End:       start.Add(42 * time.Millisecond),
			Duration:  42 * time.Millisecond,
		},
		{
			Project:   "VBAProject",
			Component: "MathTests",
			Method:    "Divides",
			Outcome:   OutcomeFailed,
			Output:    "Assert.AreEqual failed, \"expected\" 1\nactual 2",
			Start:     start.Add(time.Second),
			End:       start.Add(time.Second + 7*time.Millisecond),
			Duration:  7 * time.Millisecond,
		},
		{
			Project:   "VBAProject",
			Component: "MathTests",
			Method:    "NotRun",
		},
	}
}

func TestTestResultTable_Columns(t *testing.T) {
	table := TestResultTable("Test Results", sampleResults())
	var titles []string
	for _, c := range table.Columns {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"Project", "Component", "Method", "Outcome", "Output", "Start Time", "End Time", "Duration (ms)"}, titles)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "2024-03-01T09:30:00.125Z", table.Rows[0][5])
	assert.Equal(t, "42", table.Rows[0][7])
	assert.Equal(t, "Unknown", table.Rows[2][3])
	assert.Equal(t, "", table.Rows[2][5])
}

func TestCSV_RoundTrip(t *testing.T) {
	results := sampleResults()
	results[2].Outcome = OutcomeUnknown
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, TestResultTable("Test Results, 2024", results)))

	table, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Test Results, 2024", table.Title)
	assert.Equal(t, AlignRight, table.Columns[7].Align)

	got, err := TestResults(table)
	require.NoError(t, err)
	require.Len(t, got, len(results))
	for i := range results {
		assert.Equal(t, results[i].Method, got[i].Method)
		assert.Equal(t, results[i].Outcome, got[i].Outcome)
		assert.Equal(t, results[i].Output, got[i].Output)
		assert.True(t, results[i].Start.Equal(got[i].Start), "start %d", i)
		assert.True(t, results[i].End.Equal(got[i].End), "end %d", i)
		assert.Equal(t, results[i].Duration, got[i].Duration)
	}

	// writing what was read yields the same bytes
	var first, second bytes.Buffer
	require.NoError(t, WriteCSV(&first, TestResultTable("t", results)))
	again, err := ReadCSV(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	require.NoError(t, WriteCSV(&second, again))
	assert.Equal(t, first.String(), second.String())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("only a title\r\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("t\r\na,b\r\n1,2,3\r\n"))
	assert.ErrorContains(t, err, "record 3")
	_, err = ReadCSV(strings.NewReader("t,u\r\na,b\r\n"))
	assert.ErrorContains(t, err, "title record")
}

func TestTestResults_BadOutcome(t *testing.T) {
	table := TestResultTable("t", sampleResults()[:1])
	table.Rows[0][3] = "Exploded"
	_, err := TestResults(table)
	assert.ErrorContains(t, err, "Exploded")
}

func TestWriteHTML_Offsets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, TestResultTable("<Results>", sampleResults())))
	out := buf.String()

	offset := func(key string) int {
		i := strings.Index(out, key+":")
		require.GreaterOrEqual(t, i, 0, key)
		n, err := strconv.Atoi(out[i+len(key)+1 : i+len(key)+11])
		require.NoError(t, err)
		return n
	}
	startHTML, endHTML := offset("StartHTML"), offset("EndHTML")
	startFrag, endFrag := offset("StartFragment"), offset("EndFragment")
	assert.True(t, strings.HasPrefix(out[startHTML:], "<html>"))
	assert.Equal(t, len(out), endHTML)
	assert.True(t, strings.HasPrefix(out[startFrag:endFrag], "<table><caption>&lt;Results&gt;</caption>"))
	assert.True(t, strings.HasSuffix(out[startFrag:endFrag], "</table>"))
	assert.Contains(t, out, `<td align="right">42</td>`)
	assert.Contains(t, out, "&#34;expected&#34; 1<br>actual 2")
}

func TestWriteRTF(t *testing.T) {
	var buf bytes.Buffer
	table := &Table{
		Title:   "Résumé {draft}",
		Columns: []Column{{Title: "Name"}, {Title: "Count", Align: AlignRight}},
		Rows:    [][]string{{`C:\temp`, "3"}, {"😀", "4"}},
	}
	require.NoError(t, WriteRTF(&buf, table))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `{\rtf1\ansi`))
	assert.True(t, strings.HasSuffix(out, "}"))
	assert.Contains(t, out, `{\b R\u233?sum\u233? \{draft\}}\par`)
	assert.Contains(t, out, `\pard\intbl C:\\temp\cell`)
	assert.Contains(t, out, `\pard\intbl\qr 3\cell`)
	assert.Contains(t, out, `\u-10179?\u-8704?`)
	assert.Contains(t, out, `\cellx3600`)
}

func TestWriteXMLSpreadsheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXMLSpreadsheet(&buf, TestResultTable("Results: run [1]", sampleResults())))
	out := buf.String()
	assert.Contains(t, out, `<?mso-application progid="Excel.Sheet"?>`)
	assert.Contains(t, out, `ss:Name="Results run 1"`)
	assert.Contains(t, out, `<Data ss:Type="Number">42</Data>`)
	assert.Contains(t, out, `<Data ss:Type="String">AddsNumbers</Data>`)

	// the document is well formed and has a header row plus one row per result
	dec := xml.NewDecoder(strings.NewReader(out))
	rows := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Row" {
			rows++
		}
	}
	assert.Equal(t, 4, rows)
}

func TestFormats(t *testing.T) {
	for _, f := range Formats() {
		parsed, err := ParseFormat("." + strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, TestResultTable("t", sampleResults())), f)
		assert.NotZero(t, buf.Len())
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func buildTable(t *testing.T, text string) *analysis.Table {
	t.Helper()
	builtins, err := analysis.LoadBuiltins()
	require.NoError(t, err)
	mod := parser.Parse("VBAProject", "MathTests", ast.StandardModule, text)
	table, err := analysis.Build(context.Background(), []*ast.Module{mod}, &analysis.Options{Builtins: builtins})
	require.NoError(t, err)
	return table
}

func TestDiscoverTests(t *testing.T) {
	table := buildTable(t, `'@TestModule
Option Explicit

'@TestMethod
Public Sub AddsNumbers()
End Sub

Private Sub Helper()
End Sub

'@TestMethod "Division"
Public Sub Divides()
End Sub
`)
	tests := DiscoverTests(table)
	var names []string
	for _, r := range tests {
		names = append(names, r.Method)
		assert.Equal(t, OutcomeUnknown, r.Outcome)
		assert.Equal(t, "MathTests", r.Component)
	}
	assert.Equal(t, []string{"AddsNumbers", "Divides"}, names)
}

func TestResultsTable(t *testing.T) {
	table := buildTable(t, `Private Sub Unused()
    Dim x
End Sub
`)
	report := inspection.NewRunner(inspection.DefaultRegistry(), nil).Run(context.Background(), table)
	require.Equal(t, inspection.StateCompleted, report.State)
	require.NotEmpty(t, report.Results)

	out := ResultsTable("Inspection Results", report.Results)
	require.Len(t, out.Rows, len(report.Results))
	found := false
	for _, row := range out.Rows {
		if row[1] == inspection.InspectionProcedureNotUsed.Name {
			found = true
			assert.Equal(t, "MathTests", row[3])
			assert.Equal(t, "1", row[5])
			assert.Equal(t, "VBAProject", row[2])
		}
	}
	assert.True(t, found)
}
