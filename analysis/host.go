// Copyright © 2024 The vbalint authors

package analysis

import (
	"strings"

	"github.com/luthersystems/vbalint/parser/ast"
)

// HostEntryPoint names a procedure the host application calls by itself.
// Such procedures are never reported as unused.
type HostEntryPoint struct {
	// ComponentTypes restricts the match to modules of these types.  Empty
	// matches any module.
	ComponentTypes []ast.ComponentType
	Name           string
	// Module restricts the match to one module name.  Empty matches any.
	Module string
	// Host is informational.  Entry points of every host are matched.
	Host string
}

// Matches reports whether d is the entry point described by e.  Names are
// compared without regard to case.
func (e HostEntryPoint) Matches(d *Declaration) bool {
	if d == nil || !strings.EqualFold(e.Name, d.Name) {
		return false
	}
	if e.Module != "" && !strings.EqualFold(e.Module, d.Module.Component) {
		return false
	}
	if len(e.ComponentTypes) == 0 {
		return true
	}
	for _, ct := range e.ComponentTypes {
		if ct == d.ComponentType {
			return true
		}
	}
	return false
}

// HostEntryPoints is a list of entry points matched permissively: a
// declaration matching any one of them is an entry point, whichever host
// declared it.
type HostEntryPoints []HostEntryPoint

// Match returns the first entry point matching d.
func (eps HostEntryPoints) Match(d *Declaration) (HostEntryPoint, bool) {
	for _, e := range eps {
		if e.Matches(d) {
			return e, true
		}
	}
	return HostEntryPoint{}, false
}

// DefaultHostEntryPoints lists the auto macros of Excel and Word.
func DefaultHostEntryPoints() HostEntryPoints {
	std := []ast.ComponentType{ast.StandardModule}
	word := []ast.ComponentType{ast.StandardModule, ast.Document}
	return HostEntryPoints{
		{ComponentTypes: std, Name: "auto_open", Host: "EXCEL.EXE"},
		{ComponentTypes: std, Name: "auto_close", Host: "EXCEL.EXE"},
		{ComponentTypes: word, Name: "AutoExec", Host: "WINWORD.EXE"},
		{ComponentTypes: word, Name: "AutoNew", Host: "WINWORD.EXE"},
		{ComponentTypes: word, Name: "AutoOpen", Host: "WINWORD.EXE"},
		{ComponentTypes: word, Name: "AutoClose", Host: "WINWORD.EXE"},
		{ComponentTypes: word, Name: "AutoExit", Host: "WINWORD.EXE"},
		{ComponentTypes: std, Name: "Main", Module: "AutoExec", Host: "WINWORD.EXE"},
		{ComponentTypes: std, Name: "Main", Module: "AutoNew", Host: "WINWORD.EXE"},
		{ComponentTypes: std, Name: "Main", Module: "AutoOpen", Host: "WINWORD.EXE"},
		{ComponentTypes: std, Name: "Main", Module: "AutoClose", Host: "WINWORD.EXE"},
		{ComponentTypes: std, Name: "Main", Module: "AutoExit", Host: "WINWORD.EXE"},
	}
}

// ParseHostEntryPoint reads an entry point written as
// "[host:][type/][module.]name", for example "WINWORD.EXE:StandardModule/AutoExec.Main".
func ParseHostEntryPoint(s string) (HostEntryPoint, bool) {
	var e HostEntryPoint
	if i := strings.IndexByte(s, ':'); i >= 0 {
		e.Host, s = s[:i], s[i+1:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		ct, ok := ast.ParseComponentType(s[:i])
		if !ok {
			return e, false
		}
		e.ComponentTypes = []ast.ComponentType{ct}
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		e.Module, s = s[:i], s[i+1:]
	}
	e.Name = s
	return e, s != ""
}
