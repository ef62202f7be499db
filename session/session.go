// Copyright © 2024 The vbalint authors

// Package session ties together the module sources of a project, their
// parsed trees, the published declaration table, the inspection runner and
// the quick-fix engine.
//
// The table is rebuilt from scratch by Parse and published by atomic swap;
// readers holding an older table keep a consistent view of it.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/quickfix"
)

// Options configures a Session.
type Options struct {
	// Builtins is the library declaration set.  Nil loads the embedded
	// default set.
	Builtins *analysis.BuiltinSet
	// References orders referenced projects for name resolution.
	References []analysis.ProjectReference
	// Registry holds the inspections to run.  Nil means the default
	// registry.
	Registry *inspection.Registry
	// Inspections tunes the runner.
	Inspections *inspection.Config
	// CacheSize bounds the parse cache.
	CacheSize int
	// Jobs bounds concurrent work during table builds and quick fixes.
	Jobs   int
	Logger hclog.Logger
}

// Session is the analysis state of one set of projects.  It is safe for
// concurrent use.
type Session struct {
	store      *Store
	cache      *parser.Cache
	builtins   *analysis.BuiltinSet
	references []analysis.ProjectReference
	jobs       int
	logger     hclog.Logger
	runner     *inspection.Runner
	fixes      *quickfix.Engine

	parseMu   sync.Mutex
	parsedGen atomic.Uint64
	table     atomic.Pointer[analysis.Table]
	report    atomic.Pointer[inspection.Report]
}

var _ quickfix.Workspace = (*Session)(nil)

// New returns an empty session.
func New(opts *Options) (*Session, error) {
	if opts == nil {
		opts = &Options{}
	}
	s := &Session{
		store:      NewStore(),
		builtins:   opts.Builtins,
		references: opts.References,
		jobs:       opts.Jobs,
		logger:     opts.Logger,
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	if s.builtins == nil {
		builtins, err := analysis.LoadBuiltins()
		if err != nil {
			return nil, fmt.Errorf("load built-in declarations: %w", err)
		}
		s.builtins = builtins
	}
	cache, err := parser.NewCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	s.cache = cache

	cfg := inspection.Config{}
	if opts.Inspections != nil {
		cfg = *opts.Inspections
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger.Named("inspection")
	}
	s.runner = inspection.NewRunner(opts.Registry, &cfg)
	s.fixes = quickfix.NewEngine(s, &quickfix.Options{
		Cache:  cache,
		Jobs:   opts.Jobs,
		Logger: s.logger.Named("quickfix"),
	})
	return s, nil
}

// Store returns the module store of the session.
func (s *Session) Store() *Store {
	return s.store
}

// Runner returns the inspection runner of the session.
func (s *Session) Runner() *inspection.Runner {
	return s.runner
}

// Cache returns the parse cache of the session.
func (s *Session) Cache() *parser.Cache {
	return s.cache
}

// Open adds a module.  The project and component name identify it.
func (s *Session) Open(name analysis.QualifiedModuleName, typ ast.ComponentType, path string, text string) Module {
	s.logger.Trace("module opened", "module", name.String(), "type", typ)
	return s.store.Open(Module{Name: name, Type: typ, Path: path, Version: 1, Text: text})
}

// Update replaces the text of an open module.
func (s *Session) Update(name analysis.QualifiedModuleName, version int32, text string) error {
	if _, ok := s.store.Update(name, version, text); !ok {
		return fmt.Errorf("module %s is not open", name)
	}
	return nil
}

// Remove drops a module.
func (s *Session) Remove(name analysis.QualifiedModuleName) {
	s.store.Remove(name)
}

// Module returns a snapshot of a module.
func (s *Session) Module(name analysis.QualifiedModuleName) (Module, bool) {
	return s.store.Get(name)
}

// Modules returns snapshots of every module ordered by name.
func (s *Session) Modules() []Module {
	mods, _ := s.store.Modules()
	return mods
}

// Table returns the latest published table, or nil before the first
// Parse.
func (s *Session) Table() *analysis.Table {
	return s.table.Load()
}

// Report returns the report of the latest completed inspection, or nil.
func (s *Session) Report() *inspection.Report {
	return s.report.Load()
}

// Parse parses changed modules, rebuilds the declaration table and
// publishes it.  Unchanged modules are served from the parse cache.
func (s *Session) Parse(ctx context.Context) (*analysis.Table, error) {
	s.parseMu.Lock()
	defer s.parseMu.Unlock()
	mods, gen := s.store.Modules()
	if t := s.table.Load(); t != nil && s.parsedGen.Load() == gen {
		return t, nil
	}
	trees := make([]*ast.Module, len(mods))
	for i, m := range mods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trees[i] = s.cache.Parse(m.Name.Project, m.Name.Component, m.Type, m.Text)
	}
	table, err := analysis.Build(ctx, trees, &analysis.Options{
		Jobs:       s.jobs,
		Builtins:   s.builtins,
		References: s.references,
		Logger:     s.logger.Named("analysis"),
	})
	if err != nil {
		return nil, err
	}
	s.store.markParsed(mods)
	s.table.Store(table)
	s.parsedGen.Store(gen)
	hits, misses := s.cache.Stats()
	s.logger.Debug("table published", "modules", len(mods), "cache_hits", hits, "cache_misses", misses)
	return table, nil
}

// Inspect parses if needed and runs the inspections.  Starting an
// inspection cancels the one in flight.
func (s *Session) Inspect(ctx context.Context) (*inspection.Report, error) {
	table, err := s.Parse(ctx)
	if err != nil {
		return nil, err
	}
	report := s.runner.Run(ctx, table)
	s.publishReport(report)
	return report, nil
}

// publishReport makes report the latest one unless it was cancelled or a
// later run already published.
func (s *Session) publishReport(report *inspection.Report) {
	if report.State != inspection.StateCompleted {
		return
	}
	for {
		cur := s.report.Load()
		if cur != nil && cur.Seq >= report.Seq {
			return
		}
		if s.report.CompareAndSwap(cur, report) {
			return
		}
	}
}

// Fix applies one quick fix to the module of r.
func (s *Session) Fix(ctx context.Context, r *inspection.Result, fix string) (*quickfix.Edit, error) {
	return s.fixes.Apply(ctx, r, fix)
}

// ComputeFix returns the edit a quick fix would make without applying it.
func (s *Session) ComputeFix(ctx context.Context, r *inspection.Result, fix string) (*quickfix.Edit, error) {
	return s.fixes.Compute(ctx, r, fix)
}

// FixAll applies fix to every result offering it.
func (s *Session) FixAll(ctx context.Context, results []*inspection.Result, fix string) (quickfix.Summary, error) {
	return s.fixes.ApplyAll(ctx, results, fix)
}

// Source implements quickfix.Workspace.
func (s *Session) Source(name analysis.QualifiedModuleName) (string, ast.ComponentType, error) {
	m, ok := s.store.Get(name)
	if !ok {
		return "", ast.StandardModule, fmt.Errorf("module %s is not open", name)
	}
	return m.Text, m.Type, nil
}

// Write implements quickfix.Workspace.  The module is reparsed by the next
// Parse.
func (s *Session) Write(name analysis.QualifiedModuleName, text string) error {
	return s.Update(name, 0, text)
}

// Modified returns the modules whose text changed since they were opened.
func (s *Session) Modified() []Module {
	var out []Module
	for _, m := range s.Modules() {
		if m.Modified {
			out = append(out, m)
		}
	}
	return out
}
