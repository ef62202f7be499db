// Copyright © 2024 The vbalint authors

// Package quickfix computes and applies the source edits that resolve
// inspection results.
//
// A fix is always computed against a fresh tree of the module's current
// text.  The text found at the result's span must still match the text
// captured when the result was produced; otherwise the result is stale and
// the fix is unavailable.  Edits never span more than one module.
package quickfix

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/token"
)

// ErrFixUnavailable is returned when a fix cannot be computed for a result,
// typically because the module changed since the result was produced.
var ErrFixUnavailable = errors.New("quick fix unavailable")

func unavailable(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFixUnavailable, fmt.Sprintf(format, v...))
}

// Workspace gives the engine access to module sources.
type Workspace interface {
	// Source returns the current text and component type of a module.
	Source(name analysis.QualifiedModuleName) (text string, typ ast.ComponentType, err error)
	// Write replaces the text of a module and marks it dirty.
	Write(name analysis.QualifiedModuleName, text string) error
}

// Change replaces the bytes [Pos, End) of a module's text.
type Change struct {
	Pos         int
	End         int
	Replacement string
}

// Edit is the set of changes one fix makes to one module.  Changes are
// ordered by position and never overlap.
type Edit struct {
	Module analysis.QualifiedModuleName
	Fix    string
	// Description is the fix title shown to users.
	Description string
	Changes     []Change
}

// Apply returns text with the changes of e applied.
func (e *Edit) Apply(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, c := range e.Changes {
		if c.Pos < last || c.End < c.Pos || c.End > len(text) {
			return "", unavailable("change [%d,%d) out of range", c.Pos, c.End)
		}
		b.WriteString(text[last:c.Pos])
		b.WriteString(c.Replacement)
		last = c.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Options configures an Engine.
type Options struct {
	// Cache is used to parse module text.  Nil parses without caching.
	Cache *parser.Cache
	// Jobs bounds the number of modules fixed concurrently by ApplyAll.
	// Zero means one job per module.
	Jobs   int
	Logger hclog.Logger
}

// Engine computes and applies quick fixes.  Fixes on one module are
// serialized; fixes on distinct modules may proceed concurrently.
type Engine struct {
	ws     Workspace
	cache  *parser.Cache
	jobs   int
	logger hclog.Logger

	mu    sync.Mutex
	locks map[analysis.QualifiedModuleName]*sync.Mutex
}

// NewEngine returns an engine editing modules through ws.
func NewEngine(ws Workspace, opts *Options) *Engine {
	e := &Engine{
		ws:    ws,
		locks: make(map[analysis.QualifiedModuleName]*sync.Mutex),
	}
	if opts != nil {
		e.cache = opts.Cache
		e.jobs = opts.Jobs
		e.logger = opts.Logger
	}
	if e.logger == nil {
		e.logger = hclog.NewNullLogger()
	}
	return e
}

func (e *Engine) lock(name analysis.QualifiedModuleName) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[name]
	if !ok {
		l = &sync.Mutex{}
		e.locks[name] = l
	}
	return l
}

func (e *Engine) parse(name analysis.QualifiedModuleName, typ ast.ComponentType, text string) *ast.Module {
	if e.cache != nil {
		return e.cache.Parse(name.Project, name.Component, typ, text)
	}
	return parser.Parse(name.Project, name.Component, typ, text)
}

// Compute returns the edit fix makes for r without applying it.
func (e *Engine) Compute(ctx context.Context, r *inspection.Result, fix string) (*Edit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := e.lock(r.Module)
	l.Lock()
	defer l.Unlock()
	edit, _, err := e.compute(r, fix)
	return edit, err
}

// Apply computes the edit fix makes for r and writes it to the workspace.
func (e *Engine) Apply(ctx context.Context, r *inspection.Result, fix string) (*Edit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := e.lock(r.Module)
	l.Lock()
	defer l.Unlock()
	edit, _, err := e.apply(r, fix)
	return edit, err
}

func (e *Engine) compute(r *inspection.Result, fix string) (*Edit, string, error) {
	fn, ok := catalogue.lookup(fix)
	if !ok {
		return nil, "", unavailable("unknown fix %q", fix)
	}
	if !r.HasFix(fix) {
		return nil, "", unavailable("%s does not offer %s", r.Inspection, fix)
	}
	if r.Location == nil {
		return nil, "", unavailable("result has no location")
	}
	text, typ, err := e.ws.Source(r.Module)
	if err != nil {
		return nil, "", unavailable("%v", err)
	}
	loc := r.Location
	if loc.Pos < 0 || loc.End < loc.Pos || loc.End > len(text) {
		return nil, "", unavailable("span of %s is out of range", r.Module)
	}
	if text[loc.Pos:loc.End] != r.Snapshot {
		return nil, "", unavailable("%s changed since it was inspected", r.Module)
	}
	f := &fixer{
		result: r,
		mod:    e.parse(r.Module, typ, text),
		text:   text,
		loc:    loc,
	}
	changes, err := fn.apply(f)
	if err != nil {
		return nil, "", err
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Pos < changes[j].Pos })
	edit := &Edit{
		Module:      r.Module,
		Fix:         fix,
		Description: fn.describe(r),
		Changes:     changes,
	}
	return edit, text, nil
}

func (e *Engine) apply(r *inspection.Result, fix string) (*Edit, string, error) {
	edit, text, err := e.compute(r, fix)
	if err != nil {
		return nil, "", err
	}
	out, err := edit.Apply(text)
	if err != nil {
		return nil, "", err
	}
	if err := e.ws.Write(r.Module, out); err != nil {
		return nil, "", fmt.Errorf("write %s: %w", r.Module, err)
	}
	e.logger.Debug("quick fix applied", "fix", fix, "module", r.Module.String(), "line", r.Location.Line)
	return edit, out, nil
}

// Summary counts the outcome of ApplyAll.
type Summary struct {
	Applied     int
	Unavailable int
}

// ApplyAll applies fix to every result that offers it.  Results of one
// module are fixed bottom-up so that the spans of the remaining results
// stay valid; results whose span an earlier fix touched become
// unavailable.  Distinct modules are fixed concurrently.
func (e *Engine) ApplyAll(ctx context.Context, results []*inspection.Result, fix string) (Summary, error) {
	byModule := make(map[analysis.QualifiedModuleName][]*inspection.Result)
	var order []analysis.QualifiedModuleName
	for _, r := range results {
		if !r.HasFix(fix) || r.Location == nil {
			continue
		}
		if _, ok := byModule[r.Module]; !ok {
			order = append(order, r.Module)
		}
		byModule[r.Module] = append(byModule[r.Module], r)
	}

	var (
		mu    sync.Mutex
		total Summary
	)
	g, ctx := errgroup.WithContext(ctx)
	if e.jobs > 0 {
		g.SetLimit(e.jobs)
	}
	for _, name := range order {
		pending := byModule[name]
		g.Go(func() error {
			sum, err := e.applyModule(ctx, pending, fix)
			mu.Lock()
			total.Applied += sum.Applied
			total.Unavailable += sum.Unavailable
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	e.logger.Debug("quick fixes applied", "fix", fix, "applied", total.Applied, "unavailable", total.Unavailable)
	return total, err
}

func (e *Engine) applyModule(ctx context.Context, pending []*inspection.Result, fix string) (Summary, error) {
	var sum Summary
	pending = append([]*inspection.Result(nil), pending...)
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Location.Pos > pending[j].Location.Pos
	})
	l := e.lock(pending[0].Module)
	l.Lock()
	defer l.Unlock()
	for i, r := range pending {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		edit, text, err := e.apply(r, fix)
		if errors.Is(err, ErrFixUnavailable) {
			e.logger.Trace("quick fix unavailable", "fix", fix, "module", r.Module.String(), "error", err)
			sum.Unavailable++
			continue
		}
		if err != nil {
			return sum, err
		}
		sum.Applied++
		for j := i + 1; j < len(pending); j++ {
			pending[j] = shift(pending[j], edit.Changes, text)
		}
	}
	return sum, nil
}

// shift moves the span of r past the changes made before it.  text is the
// module text after the changes.  A span overlapped by a change is left
// alone; its snapshot check decides whether it is still fixable.
func shift(r *inspection.Result, changes []Change, text string) *inspection.Result {
	loc := r.Location
	delta := 0
	for _, c := range changes {
		switch {
		case c.End <= loc.Pos:
			delta += len(c.Replacement) - (c.End - c.Pos)
		case c.Pos < loc.End:
			return r
		}
	}
	if delta == 0 {
		return r
	}
	moved := *r
	moved.Location = locate(text, loc.File, loc.Pos+delta, loc.End+delta)
	return &moved
}

// locate returns the location of the bytes [pos, end) of text.
func locate(text, file string, pos, end int) *token.Location {
	loc := &token.Location{File: file, Pos: pos, End: end}
	line, col := 1, 1
	for i, r := range text {
		if i == pos {
			loc.Line, loc.Col = line, col
		}
		if i == end {
			loc.EndLine, loc.EndCol = line, col
			return loc
		}
		switch {
		case r == '\n':
			line, col = line+1, 1
		case r == '\r' && (i+1 >= len(text) || text[i+1] != '\n'):
			line, col = line+1, 1
		case r == '\r':
		default:
			col++
		}
	}
	if pos >= len(text) {
		loc.Line, loc.Col = line, col
	}
	loc.EndLine, loc.EndCol = line, col
	return loc
}
