// Copyright © 2024 The vbalint authors

package analysis

import (
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
)

// controlEvents are the event names a form control can raise.  Procedures
// named control_Event in a user form are handlers.
var controlEvents = map[string]bool{
	"click": true, "change": true, "dblclick": true, "afterupdate": true,
	"beforeupdate": true, "enter": true, "exit": true, "keydown": true,
	"keypress": true, "keyup": true, "mousedown": true, "mousemove": true,
	"mouseup": true, "initialize": true, "activate": true, "deactivate": true,
	"queryclose": true, "terminate": true, "resize": true,
}

// documentEventPrefixes name the objects whose events a document module
// handles.
var documentEventPrefixes = []string{"workbook_", "worksheet_", "chart_", "document_"}

// link connects declarations to each other once every module is collected:
// declared types, interface implementations and event handlers.
func (t *Table) link() {
	for _, m := range t.modules {
		for _, d := range m.Declarations {
			if d.AsTypeName != "" && !isIntrinsicType(d.AsTypeName) {
				d.AsType = t.lookupType(m, d.AsTypeName)
			}
		}
	}
	for _, m := range t.modules {
		t.linkInterfaces(m)
		t.linkHandlers(m)
	}
}

// linkInterfaces pairs Iface_Member procedures with the members of each
// interface the module implements.
func (t *Table) linkInterfaces(m *ModuleInfo) {
	for _, impl := range m.AST.Implements {
		iface := t.lookupType(m, impl.Type.Name())
		if iface == nil || iface.Type != DeclClassModule || iface.IsBuiltIn {
			continue
		}
		owner := t.byModule[iface.Module]
		if owner == nil {
			continue
		}
		prefix := fold(iface.Name) + "_"
		for _, d := range m.Declarations {
			if !d.IsModuleLevel() || !d.Type.IsMember() || d.Interface != nil {
				continue
			}
			name := fold(d.Name)
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			target := interfaceMember(owner, name[len(prefix):], d.Type)
			if target == nil {
				continue
			}
			d.Interface = target
			target.Implementations = append(target.Implementations, d)
		}
	}
}

func interfaceMember(owner *ModuleInfo, name string, typ DeclarationType) *Declaration {
	for _, d := range owner.Declarations {
		if d.IsModuleLevel() && d.Type == typ && fold(d.Name) == name {
			return d
		}
	}
	return nil
}

// linkHandlers marks the procedures of m that handle events.
func (t *Table) linkHandlers(m *ModuleInfo) {
	events := t.withEventsSources(m)
	for _, d := range m.Declarations {
		if !d.IsModuleLevel() || d.Type != DeclProcedure {
			continue
		}
		name := fold(d.Name)
		if ev, ok := matchWithEvents(events, name); ok {
			d.Type = DeclEventHandler
			d.Event = ev
			continue
		}
		if isLifecycleHandler(d.ComponentType, name) {
			d.Type = DeclEventHandler
		}
	}
}

type eventSource struct {
	prefix string
	events []*Declaration
	// opaque is set for library classes whose events are not declared.
	opaque bool
}

// withEventsSources lists the WithEvents variables of m with the events
// declared by their class.
func (t *Table) withEventsSources(m *ModuleInfo) []eventSource {
	var sources []eventSource
	for _, d := range m.Declarations {
		if !d.IsWithEvents || d.AsType == nil {
			continue
		}
		src := eventSource{prefix: fold(d.Name) + "_", opaque: d.AsType.IsBuiltIn}
		if owner := t.byModule[d.AsType.Module]; owner != nil && !d.AsType.IsBuiltIn {
			for _, e := range owner.Declarations {
				if e.Type == DeclEvent {
					src.events = append(src.events, e)
				}
			}
		}
		sources = append(sources, src)
	}
	return sources
}

// matchWithEvents finds the event handled by a procedure called name.  The
// event is nil when the source is a library class.
func matchWithEvents(sources []eventSource, name string) (*Declaration, bool) {
	for _, src := range sources {
		if !strings.HasPrefix(name, src.prefix) {
			continue
		}
		if src.opaque {
			return nil, true
		}
		event := name[len(src.prefix):]
		for _, e := range src.events {
			if fold(e.Name) == event {
				return e, true
			}
		}
	}
	return nil, false
}

// isLifecycleHandler reports whether a procedure called name is invoked by
// the host because of the kind of component it lives in.
func isLifecycleHandler(ct ast.ComponentType, name string) bool {
	switch ct {
	case ast.ClassModule:
		return name == "class_initialize" || name == "class_terminate"
	case ast.UserForm:
		if strings.HasPrefix(name, "userform_") {
			return true
		}
		if i := strings.LastIndexByte(name, '_'); i > 0 {
			return controlEvents[name[i+1:]]
		}
	case ast.Document:
		for _, prefix := range documentEventPrefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}
