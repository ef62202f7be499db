// Copyright © 2024 The vbalint authors

package inspection

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/astutil"
	"github.com/luthersystems/vbalint/parser/ast"
)

const tracerName = "github.com/luthersystems/vbalint/inspection"

// State is the lifecycle state of a Runner.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Config selects and tunes the inspections of a run.
type Config struct {
	// Disabled names inspections that never run.
	Disabled []string
	// Severity overrides default severities by inspection name.
	// SeverityDoNotShow disables the inspection.
	Severity map[string]Severity
	// EntryPoints exempts procedures the host calls by itself.  Nil means
	// analysis.DefaultHostEntryPoints.
	EntryPoints analysis.HostEntryPoints
	Logger      hclog.Logger
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

func (c *Config) enabled(insp *Inspection) bool {
	for _, name := range c.Disabled {
		if registryKey(name) == registryKey(insp.Name) {
			return false
		}
	}
	if s, ok := c.severity(insp.Name); ok && s == SeverityDoNotShow {
		return false
	}
	return true
}

func (c *Config) severity(name string) (Severity, bool) {
	for k, s := range c.Severity {
		if registryKey(k) == registryKey(name) && s != severityUnset {
			return s, true
		}
	}
	return severityUnset, false
}

// Report is the outcome of one run.
type Report struct {
	State    State
	Results  []*Result
	Started  time.Time
	Finished time.Time
	// Faults counts inspections that failed.
	Faults int
	// Seq numbers the runs of a Runner in the order they started.
	Seq uint64
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Runner executes the inspections of a registry against declaration
// tables.  Only one run is in flight at a time: starting a run cancels
// the previous one and waits for it to stop.
type Runner struct {
	registry *Registry
	cfg      Config
	logger   hclog.Logger
	tracer   trace.Tracer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	seq    uint64
	state  atomic.Int32
}

// NewRunner returns an idle runner for the inspections of reg.  A nil reg
// means DefaultRegistry.
func NewRunner(reg *Registry, cfg *Config) *Runner {
	if reg == nil {
		reg = DefaultRegistry()
	}
	r := &Runner{registry: reg}
	if cfg != nil {
		r.cfg = *cfg
	}
	if r.cfg.EntryPoints == nil {
		r.cfg.EntryPoints = analysis.DefaultHostEntryPoints()
	}
	r.logger = r.cfg.Logger
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}
	tp := r.cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	r.tracer = tp.Tracer(tracerName)
	return r
}

// State returns the state of the latest run.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Cancel stops the in-flight run, if any, and waits for it to finish.
func (r *Runner) Cancel() {
	r.mu.Lock()
	r.stopLocked()
	r.mu.Unlock()
}

// stopLocked cancels and waits for the in-flight run.  The lock is released
// while waiting.
func (r *Runner) stopLocked() {
	for r.done != nil {
		cancel, done := r.cancel, r.done
		cancel()
		r.mu.Unlock()
		<-done
		r.mu.Lock()
	}
}

// Run inspects table.  It never fails: faults become results and
// cancellation ends the run in StateCancelled with the results gathered so
// far.
func (r *Runner) Run(ctx context.Context, table *analysis.Table) *Report {
	r.mu.Lock()
	r.stopLocked()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	r.seq++
	seq := r.seq
	r.state.Store(int32(StateRunning))
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		if r.done == done {
			r.cancel, r.done = nil, nil
		}
		r.mu.Unlock()
		close(done)
	}()

	report := r.run(ctx, table)
	report.Seq = seq
	r.state.Store(int32(report.State))
	return report
}

func (r *Runner) run(ctx context.Context, table *analysis.Table) *Report {
	report := &Report{Started: time.Now(), State: StateCompleted}
	ctx, span := r.tracer.Start(ctx, "inspection.Run",
		trace.WithAttributes(attribute.Int("vbalint.modules", len(table.Modules()))))
	defer span.End()

	var insps []*Inspection
	for _, insp := range r.registry.All() {
		if r.cfg.enabled(insp) {
			insps = append(insps, insp)
		}
	}
	r.logger.Debug("inspection run started", "modules", len(table.Modules()), "inspections", len(insps))

	listeners := make(map[*Inspection]*guard)
	var visitors []astutil.Visitor
	for _, insp := range insps {
		if insp.NewListener == nil {
			continue
		}
		g := &guard{}
		func() {
			defer func() {
				if v := recover(); v != nil {
					g.fault = fmt.Errorf("panic creating listener: %v", v)
				}
			}()
			g.l = insp.NewListener()
		}()
		listeners[insp] = g
		visitors = append(visitors, g)
	}

	var results []*Result
	for _, info := range table.Modules() {
		if ctx.Err() != nil {
			return r.finish(ctx, span, report, table, results)
		}
		results = append(results, syntaxResults(info)...)
		astutil.Walk(info.AST, visitors...)
	}

	for _, insp := range insps {
		if ctx.Err() != nil {
			break
		}
		got, err := r.runInspection(ctx, insp, table, listeners[insp])
		if ctx.Err() != nil {
			// an interrupted inspection may be incomplete
			break
		}
		if err != nil {
			report.Faults++
			r.logger.Warn("inspection failed", "inspection", insp.Name, "error", err)
			results = append(results, &Result{
				Kind:        KindFault,
				Inspection:  insp.Name,
				Severity:    SeverityError,
				Description: fmt.Sprintf("inspection %s failed: %v", insp.Name, err),
			})
			continue
		}
		results = append(results, got...)
	}
	return r.finish(ctx, span, report, table, results)
}

func (r *Runner) finish(ctx context.Context, span trace.Span, report *Report, table *analysis.Table, results []*Result) *Report {
	if ctx.Err() != nil {
		report.State = StateCancelled
	}
	results = Filter(table, results)
	SortResults(results)
	report.Results = results
	report.Finished = time.Now()
	span.SetAttributes(
		attribute.Int("vbalint.results", len(results)),
		attribute.String("vbalint.state", report.State.String()),
	)
	r.logger.Debug("inspection run finished",
		"state", report.State, "results", len(results), "faults", report.Faults,
		"duration", report.Duration())
	return report
}

func (r *Runner) runInspection(ctx context.Context, insp *Inspection, table *analysis.Table, g *guard) (results []*Result, err error) {
	ctx, span := r.tracer.Start(ctx, insp.Name,
		trace.WithAttributes(attribute.String("vbalint.inspection", insp.Name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("vbalint.results", len(results)))
		span.End()
	}()
	defer func() {
		if v := recover(); v != nil {
			results, err = nil, fmt.Errorf("panic: %v", v)
		}
	}()

	pass := newPass(ctx, insp, table, &r.cfg)
	if insp.Declarations != nil {
		if err := insp.Declarations(pass); err != nil {
			return nil, err
		}
	}
	if g != nil {
		if g.fault != nil {
			return nil, g.fault
		}
		if err := g.l.Report(pass); err != nil {
			return nil, err
		}
	}
	return pass.results, nil
}

// guard isolates a listener so that a panic during the shared walk only
// disables that listener.
type guard struct {
	l     Listener
	fault error
}

func (g *guard) Visit(node ast.Node, c *astutil.Cursor) {
	if g.fault != nil || g.l == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			g.fault = fmt.Errorf("panic visiting %T: %v", node, v)
		}
	}()
	g.l.Visit(node, c)
}

func syntaxResults(info *analysis.ModuleInfo) []*Result {
	results := make([]*Result, 0, len(info.Errors))
	for _, e := range info.Errors {
		results = append(results, &Result{
			Kind:        KindSyntax,
			Inspection:  SyntaxInspection,
			Module:      info.Name,
			Location:    e.Loc,
			Severity:    SeverityError,
			Description: e.Msg,
			Snapshot:    info.AST.TextOf(e.Loc),
		})
	}
	return results
}
