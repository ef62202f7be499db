// Copyright © 2024 The vbalint authors

// Package analysis builds the declaration table of a VBA project.
//
// The table is built in two passes.  The collection pass walks every module
// independently, in parallel, and emits the declarations it introduces.
// Once every module is collected, declarations are linked to each other
// (types, interfaces, event handlers) and the resolution pass binds every
// identifier usage to a declaration.  Unresolved usages bind to the
// Unresolved sentinel.  The finished Table is immutable.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/vbalint/parser/ast"
)

// Options controls a table build.
type Options struct {
	// Jobs bounds the number of modules processed concurrently.  Zero
	// means one per CPU.
	Jobs int

	// Builtins is the library declaration set searched last.  A nil set
	// leaves library names unresolved.
	Builtins *BuiltinSet

	// References orders the other projects of the build by priority when
	// resolving names from a project.  Projects not listed are searched
	// after the listed ones, by name.
	References []ProjectReference

	Logger hclog.Logger
}

func (o *Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Build returns the declaration table of modules.  The result does not
// depend on the order of modules.  Syntax errors in a module do not stop
// the build; the module contributes what its tree holds.  Build returns an
// error only when ctx is cancelled or two modules share a name.
func Build(ctx context.Context, modules []*ast.Module, opts *Options) (*Table, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	infos := make([]*ModuleInfo, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs())
	for i, mod := range modules {
		i, mod := i, mod
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			infos[i] = collectModule(mod)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := newTable(infos, opts.Builtins)
	if err != nil {
		return nil, err
	}
	t.buildScopes(opts.References)
	t.link()
	logger.Debug("collected declarations", "modules", len(t.modules), "declarations", len(t.declarations))

	refs := make([][]*Reference, len(t.modules))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs())
	for i, m := range t.modules {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			refs[i] = t.resolveModule(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, m := range t.modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.References = refs[i]
		for _, ref := range refs[i] {
			if ref.Declaration == Unresolved {
				t.unresolved = append(t.unresolved, ref)
				continue
			}
			ref.Declaration.references = append(ref.Declaration.references, ref)
		}
	}
	logger.Debug("resolved references", "modules", len(t.modules), "unresolved", len(t.unresolved))
	return t, nil
}

// newTable orders the collected modules and assigns every declaration its
// place in the table.
func newTable(infos []*ModuleInfo, builtins *BuiltinSet) (*Table, error) {
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Name.Less(infos[j].Name)
	})
	t := &Table{
		modules:  infos,
		byModule: make(map[QualifiedModuleName]*ModuleInfo, len(infos)),
	}
	if builtins != nil {
		t.builtins = builtins.instantiate()
	}
	projects := make(map[string]*Declaration)
	for _, m := range infos {
		if _, dup := t.byModule[m.Name]; dup {
			return nil, fmt.Errorf("duplicate module %s", m.Name)
		}
		t.byModule[m.Name] = m
		key := fold(m.Name.Project)
		p := projects[key]
		if p == nil {
			p = &Declaration{
				Name:   m.Name.Project,
				Type:   DeclProject,
				Access: ast.Public,
				Module: QualifiedModuleName{Project: m.Name.Project},
			}
			projects[key] = p
			t.projects = append(t.projects, p)
		}
		m.Declaration.Parent = p
	}
	t.declarations = append(t.declarations, t.projects...)
	seen := make(map[identity]*Declaration)
	for _, m := range infos {
		for _, d := range m.Declarations {
			id := identityOf(d)
			if prev := seen[id]; prev != nil {
				return nil, fmt.Errorf("duplicate declaration identity %s in %s", d, m.Name)
			}
			seen[id] = d
			t.declarations = append(t.declarations, d)
		}
	}
	for i, d := range t.declarations {
		d.order = i
	}
	return t, nil
}
