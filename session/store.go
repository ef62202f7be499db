// Copyright © 2024 The vbalint authors

package session

import (
	"sort"
	"sync"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/ast"
)

// Module is a snapshot of a module tracked by a Store.
type Module struct {
	Name analysis.QualifiedModuleName
	Type ast.ComponentType
	// Path is the file the module was loaded from, if any.
	Path    string
	Version int32
	Text    string
	// Dirty is true when the text changed since the last parse.
	Dirty bool
	// Modified is true when the text changed since the module was opened.
	Modified bool
}

type entry struct {
	mu  sync.Mutex
	mod Module
}

// Store holds module sources with thread-safe access.  Names are matched
// case-insensitively.
type Store struct {
	mu      sync.RWMutex
	modules map[analysis.QualifiedModuleName]*entry
	gen     uint64
}

// NewStore creates an empty module store.
func NewStore() *Store {
	return &Store{modules: make(map[analysis.QualifiedModuleName]*entry)}
}

func storeKey(name analysis.QualifiedModuleName) analysis.QualifiedModuleName {
	return analysis.QualifiedModuleName{
		Project:   analysis.FoldName(name.Project),
		Component: analysis.FoldName(name.Component),
	}
}

// Open adds a module to the store, replacing any module of the same name.
func (s *Store) Open(mod Module) Module {
	mod.Dirty = true
	mod.Modified = false
	s.mu.Lock()
	s.modules[storeKey(mod.Name)] = &entry{mod: mod}
	s.gen++
	s.mu.Unlock()
	return mod
}

// Update replaces the text of a module.  A zero version increments the
// current one.  It reports false if the module is not open.
func (s *Store) Update(name analysis.QualifiedModuleName, version int32, text string) (Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.modules[storeKey(name)]
	if !ok {
		return Module{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if version == 0 {
		version = e.mod.Version + 1
	}
	e.mod.Version = version
	if e.mod.Text != text {
		e.mod.Text = text
		e.mod.Dirty = true
		e.mod.Modified = true
		s.gen++
	}
	return e.mod, true
}

// Remove drops a module from the store.
func (s *Store) Remove(name analysis.QualifiedModuleName) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(name)
	if _, ok := s.modules[key]; !ok {
		return false
	}
	delete(s.modules, key)
	s.gen++
	return true
}

// Get returns a snapshot of a module.
func (s *Store) Get(name analysis.QualifiedModuleName) (Module, bool) {
	s.mu.RLock()
	e, ok := s.modules[storeKey(name)]
	s.mu.RUnlock()
	if !ok {
		return Module{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mod, true
}

// Modules returns snapshots of every module ordered by name, along with
// the store generation they belong to.
func (s *Store) Modules() ([]Module, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mods := make([]Module, 0, len(s.modules))
	for _, e := range s.modules {
		e.mu.Lock()
		mods = append(mods, e.mod)
		e.mu.Unlock()
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name.Less(mods[j].Name) })
	return mods, s.gen
}

// Generation changes whenever a module is opened, changed or removed.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// markParsed clears the dirty flag of modules whose version is unchanged
// since the given snapshot was taken.
func (s *Store) markParsed(mods []Module) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range mods {
		e, ok := s.modules[storeKey(m.Name)]
		if !ok {
			continue
		}
		e.mu.Lock()
		if e.mod.Version == m.Version && e.mod.Text == m.Text {
			e.mod.Dirty = false
		}
		e.mu.Unlock()
	}
}
