// Copyright © 2024 The vbalint authors

// Package diagnostic provides Rust-style annotated rendering of inspection
// results for CLI output.  It is independent of the inspection package so
// that any command can render its own messages.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeveritySuggestion
	SeverityHint
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeveritySuggestion:
		return "suggestion"
	case SeverityHint:
		return "hint"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File string // name passed to the source reader and shown in the header
	Line int    // 1-based line number
	Col  int    // 1-based start column
	// EndCol is the 1-based column just past the span on Line.  Zero
	// detects the end of the word at Col.
	EndCol int
	Label  string // text shown under the underline
}

// Diagnostic represents a single error, warning or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	// Code names the rule that produced the diagnostic, if any.
	Code    string
	Message string
	Spans   []Span
	Notes   []string // "= note:" lines
}
