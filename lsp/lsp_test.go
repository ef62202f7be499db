// Copyright © 2024 The vbalint authors

package lsp

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/session"
)

const module1 = `Public Sub Bar()
End Sub

Private Sub Foo()
End Sub
`

const module2 = `Public Sub Main()
    Bar
    Bar
End Sub
`

// recorder captures published diagnostics.  Notifications may arrive from
// debounce timers.
type recorder struct {
	mu    sync.Mutex
	diags map[string][]protocol.Diagnostic
	count int
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method != protocol.ServerTextDocumentPublishDiagnostics {
				return
			}
			p := params.(*protocol.PublishDiagnosticsParams)
			r.mu.Lock()
			defer r.mu.Unlock()
			r.diags[p.URI] = p.Diagnostics
			r.count++
		},
	}
}

func (r *recorder) get(uri string) ([]protocol.Diagnostic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.diags[uri]
	return d, ok
}

func (r *recorder) codes(uri string) []string {
	diags, _ := r.get(uri)
	var out []string
	for _, d := range diags {
		out = append(out, d.Code.Value.(string))
	}
	sort.Strings(out)
	return out
}

type fixture struct {
	srv  *Server
	rec  *recorder
	dir  string
	uris map[string]string
}

// newFixture writes the component files to a temp dir and returns a server
// over a session running insps.
func newFixture(t *testing.T, files map[string]string, insps ...*inspection.Inspection) *fixture {
	t.Helper()
	opts := &session.Options{}
	if len(insps) > 0 {
		opts.Registry = inspection.NewRegistry(insps...)
	}
	sess, err := session.New(opts)
	require.NoError(t, err)
	f := &fixture{
		srv:  New(sess),
		rec:  &recorder{diags: make(map[string][]protocol.Diagnostic)},
		dir:  t.TempDir(),
		uris: make(map[string]string),
	}
	f.srv.exitFn = func(int) {}
	for name, text := range files {
		path := filepath.Join(f.dir, name)
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
		f.uris[name] = pathToURI(path)
	}
	return f
}

func (f *fixture) open(t *testing.T, name, text string) string {
	t.Helper()
	uri := f.uris[name]
	require.NotEmpty(t, uri, name)
	err := f.srv.textDocumentDidOpen(f.rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "vb", Version: 1, Text: text},
	})
	require.NoError(t, err)
	return uri
}

func pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func rng(l1, c1, l2, c2 uint32) protocol.Range {
	return protocol.Range{Start: pos(l1, c1), End: pos(l2, c2)}
}

func TestLineIndex(t *testing.T) {
	text := "a\r\nx = \"😀\" & b\rc\n"
	idx := newLineIndex(text)

	off := len("a\r\nx = \"😀\" & ")
	p := idx.position(off)
	assert.Equal(t, pos(1, 11), p, "the emoji counts as two UTF-16 units")
	assert.Equal(t, off, idx.offset(p))

	line, col := idx.lineCol(p)
	assert.Equal(t, 2, line)
	assert.Equal(t, 11, col, "columns count runes")

	assert.Equal(t, pos(2, 0), idx.position(len("a\r\nx = \"😀\" & b\r")))
	assert.Equal(t, len(text), idx.offset(pos(9, 0)))
	assert.Equal(t, len("a"), idx.offset(pos(0, 40)), "offsets clamp to the line end")
}

func TestUTF16Units(t *testing.T) {
	assert.Equal(t, 1, utf16Units('a'))
	assert.Equal(t, 1, utf16Units('é'))
	assert.Equal(t, 1, utf16Units('\uFFFD'))
	assert.Equal(t, 2, utf16Units('😀'))
	assert.Equal(t, 5, utf16Len("é😀日b"))
}

func TestURIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Module.bas")
	uri := pathToURI(path)
	assert.Contains(t, uri, "file://")
	assert.Contains(t, uri, "My%20Module.bas")
	assert.Equal(t, path, uriToPath(uri))
	assert.Equal(t, "untitled:Module1", uriToPath("untitled:Module1"))
}

func TestSafeUint(t *testing.T) {
	assert.Equal(t, protocol.UInteger(0), safeUint(-1))
	assert.Equal(t, protocol.UInteger(7), safeUint(7))
}

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	doc, ok := documentFor("VBAProject", "file:///src/Util.bas", 1, "Attribute VB_Name = \"Helpers\"\n")
	require.True(t, ok)
	assert.Equal(t, "Helpers", doc.Name.Component)
	store.Open(doc)

	uri, ok := store.URI(doc.Name)
	require.True(t, ok)
	assert.Equal(t, "file:///src/Util.bas", uri)

	_, ok = documentFor("VBAProject", "file:///src/readme.txt", 1, "")
	assert.False(t, ok)

	assert.Equal(t, doc, store.Close(doc.URI))
	assert.Nil(t, store.Get(doc.URI))
	_, ok = store.URI(doc.Name)
	assert.False(t, ok)
}

func TestDidOpen_PublishesDiagnostics(t *testing.T) {
	f := newFixture(t, map[string]string{"Module1.bas": module1}, inspection.InspectionProcedureNotUsed)
	uri := f.open(t, "Module1.bas", module1)

	diags, ok := f.rec.get(uri)
	require.True(t, ok)
	var foo *protocol.Diagnostic
	for i := range diags {
		if diags[i].Range.Start.Line == 3 {
			foo = &diags[i]
		}
	}
	require.NotNil(t, foo)
	assert.Equal(t, rng(3, 12, 3, 15), foo.Range)
	assert.Equal(t, "ProcedureNotUsed", foo.Code.Value)
	assert.Equal(t, diagnosticSource, *foo.Source)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *foo.Severity)
}

func TestDidChange_Debounced(t *testing.T) {
	f := newFixture(t, map[string]string{"Module1.bas": module1}, inspection.InspectionProcedureNotUsed)
	f.srv.delay = 10 * time.Millisecond
	uri := f.open(t, "Module1.bas", module1)
	require.NotEmpty(t, f.rec.codes(uri))

	used := module1 + "\nPublic Sub Caller()\n    Foo\nEnd Sub\n"
	err := f.srv.textDocumentDidChange(f.rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: used}},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		diags, _ := f.rec.get(uri)
		for _, d := range diags {
			if d.Range.Start.Line == 3 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDidClose_RevertsToDisk(t *testing.T) {
	f := newFixture(t, map[string]string{"Module1.bas": module1}, inspection.InspectionProcedureNotUsed)
	uri := f.open(t, "Module1.bas", "Private Sub Edited()\nEnd Sub\n")

	mods := f.srv.session.Modules()
	require.Len(t, mods, 1)
	assert.Contains(t, mods[0].Text, "Edited")

	require.NoError(t, f.srv.textDocumentDidClose(f.rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	mods = f.srv.session.Modules()
	require.Len(t, mods, 1)
	assert.Equal(t, module1, mods[0].Text)
	assert.Nil(t, f.srv.docs.Get(uri))
}

func TestDidClose_DropsUnsavedModule(t *testing.T) {
	f := newFixture(t, nil, inspection.InspectionProcedureNotUsed)
	uri := pathToURI(filepath.Join(f.dir, "Scratch.bas"))
	f.uris["Scratch.bas"] = uri
	f.open(t, "Scratch.bas", "Private Sub Foo()\nEnd Sub\n")
	require.NotEmpty(t, f.rec.codes(uri))

	require.NoError(t, f.srv.textDocumentDidClose(f.rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	assert.Empty(t, f.srv.session.Modules())
	diags, ok := f.rec.get(uri)
	assert.True(t, ok)
	assert.Empty(t, diags, "diagnostics are cleared")
}

func TestInitialized_LoadsWorkspace(t *testing.T) {
	f := newFixture(t, map[string]string{"Module1.bas": module1, "Module2.bas": module2}, inspection.InspectionProcedureNotUsed)
	root := pathToURI(f.dir)
	_, err := f.srv.initialize(f.rec.context(), &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	require.NoError(t, f.srv.initialized(f.rec.context(), &protocol.InitializedParams{}))

	assert.Len(t, f.srv.session.Modules(), 2)
	diags, ok := f.rec.get(f.uris["Module1.bas"])
	require.True(t, ok, "closed workspace files get diagnostics")
	require.NotEmpty(t, diags)
}

func TestCodeAction_QuickFixes(t *testing.T) {
	f := newFixture(t, map[string]string{"Module1.bas": module1}, inspection.InspectionProcedureNotUsed)
	uri := f.open(t, "Module1.bas", module1)

	result, err := f.srv.textDocumentCodeAction(f.rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        rng(3, 13, 3, 13),
	})
	require.NoError(t, err)
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok, "got %T", result)

	byTitle := make(map[string]protocol.CodeAction)
	for _, a := range actions {
		byTitle[a.Title] = a
	}
	remove, ok := byTitle["Remove unused declaration"]
	require.True(t, ok)
	edits := remove.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, "", edits[0].NewText)
	assert.Equal(t, pos(3, 0), edits[0].Range.Start)
	assert.True(t, *remove.IsPreferred)
	require.Len(t, remove.Diagnostics, 1)
	assert.Equal(t, "ProcedureNotUsed", remove.Diagnostics[0].Code.Value)

	ignore, ok := byTitle["Ignore once (ProcedureNotUsed)"]
	require.True(t, ok)
	edits = ignore.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, "'@Ignore ProcedureNotUsed\n", edits[0].NewText)
	assert.Equal(t, rng(3, 0, 3, 0), edits[0].Range)
	assert.False(t, *ignore.IsPreferred)

	// the source is untouched until the client applies the edit
	mod := f.srv.session.Modules()[0]
	assert.Equal(t, module1, mod.Text)

	result, err = f.srv.textDocumentCodeAction(f.rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        rng(3, 13, 3, 13),
		Context:      protocol.CodeActionContext{Only: []protocol.CodeActionKind{protocol.CodeActionKindRefactor}},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func navFixture(t *testing.T) (*fixture, string, string) {
	t.Helper()
	f := newFixture(t, map[string]string{"Module1.bas": module1, "Module2.bas": module2}, inspection.InspectionProcedureNotUsed)
	u1 := f.open(t, "Module1.bas", module1)
	u2 := f.open(t, "Module2.bas", module2)
	return f, u1, u2
}

func TestDefinition(t *testing.T) {
	f, u1, u2 := navFixture(t)
	result, err := f.srv.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: u2},
			Position:     pos(1, 5),
		},
	})
	require.NoError(t, err)
	loc, ok := result.(protocol.Location)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, u1, loc.URI)
	assert.Equal(t, rng(0, 11, 0, 14), loc.Range)
}

func TestReferences(t *testing.T) {
	f, u1, u2 := navFixture(t)
	locs, err := f.srv.textDocumentReferences(nil, &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: u1},
			Position:     pos(0, 12),
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: true},
	})
	require.NoError(t, err)
	require.Len(t, locs, 3)
	assert.Equal(t, u1, locs[0].URI)
	assert.Equal(t, u2, locs[1].URI)
	assert.Equal(t, rng(1, 4, 1, 7), locs[1].Range)
	assert.Equal(t, rng(2, 4, 2, 7), locs[2].Range)
}

func TestHover(t *testing.T) {
	f, _, u2 := navFixture(t)
	hover, err := f.srv.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: u2},
			Position:     pos(2, 6),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content := hover.Contents.(protocol.MarkupContent).Value
	assert.Contains(t, content, "**procedure**")
	assert.Contains(t, content, "Module1.Bar")
	assert.Contains(t, content, "Public Sub Bar()")
	assert.Contains(t, content, "2 reference(s)")
}

func TestRename(t *testing.T) {
	f, u1, u2 := navFixture(t)
	at := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: u2},
		Position:     pos(1, 5),
	}
	prep, err := f.srv.textDocumentPrepareRename(nil, &protocol.PrepareRenameParams{TextDocumentPositionParams: at})
	require.NoError(t, err)
	ph, ok := prep.(*protocol.RangeWithPlaceholder)
	require.True(t, ok, "got %T", prep)
	assert.Equal(t, "Bar", ph.Placeholder)
	assert.Equal(t, rng(1, 4, 1, 7), ph.Range)

	edit, err := f.srv.textDocumentRename(nil, &protocol.RenameParams{TextDocumentPositionParams: at, NewName: "Baz"})
	require.NoError(t, err)
	assert.Len(t, edit.Changes[u1], 1)
	assert.Len(t, edit.Changes[u2], 2)
	for _, e := range edit.Changes[u2] {
		assert.Equal(t, "Baz", e.NewText)
	}

	_, err = f.srv.textDocumentRename(nil, &protocol.RenameParams{TextDocumentPositionParams: at, NewName: "1st"})
	assert.ErrorContains(t, err, "not a valid identifier")
}

func TestDocumentSymbols(t *testing.T) {
	f, u1, _ := navFixture(t)
	result, err := f.srv.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: u1},
	})
	require.NoError(t, err)
	symbols := result.([]protocol.DocumentSymbol)
	require.Len(t, symbols, 2)
	assert.Equal(t, "Bar", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindMethod, symbols[0].Kind)
	assert.Equal(t, rng(0, 11, 0, 14), symbols[0].SelectionRange)
	assert.Equal(t, protocol.UInteger(1), symbols[0].Range.End.Line)
	assert.Equal(t, "Foo", symbols[1].Name)
}

func TestWorkspaceSymbols(t *testing.T) {
	f, u1, _ := navFixture(t)
	symbols, err := f.srv.workspaceSymbol(nil, &protocol.WorkspaceSymbolParams{Query: "BA"})
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Bar", symbols[0].Name)
	assert.Equal(t, u1, symbols[0].Location.URI)
	assert.Equal(t, "Module1", *symbols[0].ContainerName)
}

func TestFoldingRanges(t *testing.T) {
	text := "' first\n' second\n" + module1
	f := newFixture(t, map[string]string{"Module1.bas": text}, inspection.InspectionProcedureNotUsed)
	uri := f.open(t, "Module1.bas", text)
	ranges, err := f.srv.textDocumentFoldingRange(nil, &protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	var got [][2]protocol.UInteger
	for _, r := range ranges {
		got = append(got, [2]protocol.UInteger{r.StartLine, r.EndLine})
	}
	assert.Equal(t, [][2]protocol.UInteger{{2, 3}, {5, 6}, {0, 1}}, got)
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, mapSeverity(inspection.SeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, mapSeverity(inspection.SeveritySuggestion))
	assert.Equal(t, protocol.DiagnosticSeverityHint, mapSeverity(inspection.SeverityHint))
}
