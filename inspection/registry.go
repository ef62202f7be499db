// Copyright © 2024 The vbalint authors

package inspection

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
)

// Registry is an ordered set of inspections.  Runs execute inspections in
// registration order.  A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	list   []*Inspection
	byName map[string]*Inspection
}

// NewRegistry returns a registry holding the given inspections.  It panics
// if two share a name.
func NewRegistry(insps ...*Inspection) *Registry {
	r := &Registry{byName: make(map[string]*Inspection)}
	for _, insp := range insps {
		r.MustRegister(insp)
	}
	return r
}

func registryKey(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), "inspection")
}

// Register adds insp to the registry.
func (r *Registry) Register(insp *Inspection) error {
	if insp == nil || insp.Name == "" {
		return fmt.Errorf("inspection has no name")
	}
	if insp.Capabilities() == 0 {
		return fmt.Errorf("inspection %s has no hooks", insp.Name)
	}
	key := registryKey(insp.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("inspection %s already registered", insp.Name)
	}
	r.list = append(r.list, insp)
	r.byName[key] = insp
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(insp *Inspection) {
	if err := r.Register(insp); err != nil {
		panic(err)
	}
}

// All returns the registered inspections in registration order.
func (r *Registry) All() []*Inspection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Inspection(nil), r.list...)
}

// Lookup returns the inspection called name, ignoring case and an optional
// Inspection suffix.
func (r *Registry) Lookup(name string) (*Inspection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	insp, ok := r.byName[registryKey(name)]
	return insp, ok
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.list))
	for i, insp := range r.list {
		names[i] = insp.Name
	}
	sort.Strings(names)
	return names
}

// Suggest returns registered names close to a misspelled name.
func (r *Registry) Suggest(name string) []string {
	key := registryKey(name)
	var out []string
	for _, known := range r.Names() {
		if levenshtein.Distance(key, registryKey(known), nil) <= 3 {
			out = append(out, known)
		}
	}
	return out
}

// Doc returns the documentation of the named inspection, or "".
func (r *Registry) Doc(name string) string {
	if insp, ok := r.Lookup(name); ok {
		return insp.Doc
	}
	return ""
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the registry of built-in inspections.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(DefaultInspections()...)
	})
	return defaultRegistry
}

// DefaultInspections returns the built-in inspections in run order.
func DefaultInspections() []*Inspection {
	return []*Inspection{
		InspectionProcedureNotUsed,
		InspectionVariableNotUsed,
		InspectionConstantNotUsed,
		InspectionParameterNotUsed,
		InspectionNonReturningFunction,
		InspectionUntypedFunctionUsage,
		InspectionUndeclaredVariable,
		InspectionImplicitPublicMember,
		InspectionVariableTypeNotDeclared,
		InspectionObsoleteGlobal,
		InspectionMoveFieldCloserToUsage,
		InspectionEncapsulatePublicField,
		InspectionIllegalAnnotation,
		InspectionOptionExplicit,
		InspectionEmptyStringLiteral,
		InspectionObsoleteCallStatement,
		InspectionMultipleDeclarations,
		InspectionEmptyIfBlock,
	}
}
