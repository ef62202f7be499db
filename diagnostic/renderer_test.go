// Copyright © 2024 The vbalint authors

package diagnostic

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRenderer returns a Renderer with colors disabled and a fake source reader.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		SourceReader: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, errors.New("not found: " + name)
			}
			return []byte(s), nil
		},
	}
}

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"Module1.bas": "Option Explicit\r\n\r\nPrivate Sub Foo()\r\nEnd Sub\r\n",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Code:     "ProcedureNotUsed",
		Message:  "procedure 'Foo' is not used",
		Spans:    []Span{{File: "Module1.bas", Line: 3, Col: 13, EndCol: 16}},
		Notes:    []string{"to suppress: add '@Ignore ProcedureNotUsed above this line"},
	})
	want := strings.Join([]string{
		"warning[ProcedureNotUsed]: procedure 'Foo' is not used",
		"  --> Module1.bas:3:13",
		"   |",
		" 3 |  Private Sub Foo()",
		"   |  " + strings.Repeat(" ", 12) + "^^^",
		"   |",
		"   = note: to suppress: add '@Ignore ProcedureNotUsed above this line",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderError_Label(t *testing.T) {
	r := testRenderer(map[string]string{
		"Module1.bas": "Sub A()\n    x = 1\nSub B()\nEnd Sub\n",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "missing End Sub",
		Spans:    []Span{{File: "Module1.bas", Line: 1, Col: 1, Label: "procedure starts here"}},
	})
	assert.Contains(t, got, "error: missing End Sub\n")
	assert.Contains(t, got, " 1 |  Sub A()\n")
	assert.Contains(t, got, "\n   |  ^^^ procedure starts here\n")
}

func TestRenderGutterWidth(t *testing.T) {
	src := strings.Repeat("\n", 11) + "Dim x\n"
	r := testRenderer(map[string]string{"Module1.bas": src})
	got := render(t, r, Diagnostic{
		Severity: SeverityHint,
		Message:  "m",
		Spans:    []Span{{File: "Module1.bas", Line: 12, Col: 5}},
	})
	want := strings.Join([]string{
		"hint: m",
		"  --> Module1.bas:12:5",
		"    |",
		" 12 |  Dim x",
		"    |      ^",
		"    |",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderSeverities(t *testing.T) {
	r := testRenderer(nil)
	for sev, want := range map[Severity]string{
		SeverityError:      "error: m",
		SeverityWarning:    "warning: m",
		SeveritySuggestion: "suggestion: m",
		SeverityHint:       "hint: m",
		SeverityNote:       "note: m",
	} {
		assert.True(t, strings.HasPrefix(render(t, r, Diagnostic{Severity: sev, Message: "m"}), want), want)
	}
}

func TestRenderMissingSource(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  "m",
		Spans:    []Span{{File: "Gone.bas", Line: 9, Col: 2}},
	})
	assert.Equal(t, "warning: m\n  --> Gone.bas:9:2\n   |\n", got)
}

func TestRenderTabsAndWideRunes(t *testing.T) {
	r := testRenderer(map[string]string{
		"Module1.bas": "\ts = \"日本\" & x\n",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityHint,
		Message:  "m",
		Spans:    []Span{{File: "Module1.bas", Line: 1, Col: 6, EndCol: 10}},
	})
	// the tab expands to four columns and each CJK rune is two columns wide
	assert.Contains(t, got, "\n   |  "+strings.Repeat(" ", 8)+"^^^^^^\n")
}

func TestRenderAll(t *testing.T) {
	r := testRenderer(nil)
	var buf bytes.Buffer
	require.NoError(t, r.RenderAll(&buf, []Diagnostic{
		{Severity: SeverityWarning, Message: "one"},
		{Severity: SeverityWarning, Message: "two"},
	}))
	assert.Equal(t, "warning: one\n\nwarning: two\n", buf.String())
}

func TestRenderAlwaysColor(t *testing.T) {
	r := testRenderer(nil)
	r.Color = ColorAlways
	got := render(t, r, Diagnostic{Severity: SeverityError, Message: "m"})
	assert.Contains(t, got, "\x1b[")
}

func TestParseColorMode(t *testing.T) {
	m, ok := ParseColorMode("always")
	assert.True(t, ok)
	assert.Equal(t, ColorAlways, m)
	_, ok = ParseColorMode("sometimes")
	assert.False(t, ok)
}

func TestDetectEndCol(t *testing.T) {
	assert.Equal(t, 8, detectEndCol("Dim foo As Long", 5))
	assert.Equal(t, 2, detectEndCol("(x)", 1))
}
