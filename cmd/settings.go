// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/diagnostic"
	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/session"
)

// entryPointSetting is one host.entry-points item.
type entryPointSetting struct {
	Name           string   `mapstructure:"name"`
	Module         string   `mapstructure:"module"`
	ComponentTypes []string `mapstructure:"component-types"`
}

// settings is the resolved configuration of a command.
type settings struct {
	Project     string
	References  []string
	Builtins    string
	Jobs        int
	LogLevel    string
	Color       diagnostic.ColorMode
	Disabled    []string
	Severity    map[string]inspection.Severity
	HostName    string
	EntryPoints analysis.HostEntryPoints
}

// loadSettings decodes and validates the configuration held by v.
func loadSettings(v *viper.Viper) (*settings, error) {
	s := &settings{
		Project:    v.GetString("project"),
		References: v.GetStringSlice("references"),
		Builtins:   v.GetString("builtins"),
		Jobs:       v.GetInt("jobs"),
		LogLevel:   v.GetString("log-level"),
		Disabled:   v.GetStringSlice("inspections.disabled"),
		HostName:   v.GetString("host.name"),
	}
	if s.Jobs < 0 {
		return nil, fmt.Errorf("jobs: must not be negative, got %d", s.Jobs)
	}
	color, ok := diagnostic.ParseColorMode(v.GetString("color"))
	if !ok {
		return nil, fmt.Errorf("color: unknown mode %q", v.GetString("color"))
	}
	s.Color = color

	if sev := v.GetStringMapString("inspections.severity"); len(sev) > 0 {
		s.Severity = make(map[string]inspection.Severity, len(sev))
		for name, value := range sev {
			parsed, err := inspection.ParseSeverity(value)
			if err != nil {
				return nil, fmt.Errorf("inspections.severity.%s: %w", name, err)
			}
			s.Severity[name] = parsed
		}
	}

	eps, err := entryPoints(v, s.HostName)
	if err != nil {
		return nil, err
	}
	if len(eps) > 0 {
		s.EntryPoints = append(analysis.DefaultHostEntryPoints(), eps...)
	}
	return s, nil
}

// entryPoints decodes host.entry-points.  Items are either strings in
// "[host:][type/][module.]name" form or maps with name, module and
// component-types keys.
func entryPoints(v *viper.Viper, host string) (analysis.HostEntryPoints, error) {
	raw, ok := v.Get("host.entry-points").([]interface{})
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var out analysis.HostEntryPoints
	if _, isString := raw[0].(string); isString {
		for i, item := range raw {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("host.entry-points[%d]: expected a string", i)
			}
			entry, ok := analysis.ParseHostEntryPoint(text)
			if !ok {
				return nil, fmt.Errorf("host.entry-points[%d]: malformed entry point %q", i, text)
			}
			if entry.Host == "" {
				entry.Host = host
			}
			out = append(out, entry)
		}
		return out, nil
	}

	var eps []entryPointSetting
	if err := v.UnmarshalKey("host.entry-points", &eps); err != nil {
		return nil, fmt.Errorf("host.entry-points: %w", err)
	}
	for i, ep := range eps {
		if ep.Name == "" {
			return nil, fmt.Errorf("host.entry-points[%d]: missing name", i)
		}
		entry := analysis.HostEntryPoint{Name: ep.Name, Module: ep.Module, Host: host}
		for _, ct := range ep.ComponentTypes {
			typ, ok := ast.ParseComponentType(ct)
			if !ok {
				return nil, fmt.Errorf("host.entry-points[%d]: unknown component type %q", i, ct)
			}
			entry.ComponentTypes = append(entry.ComponentTypes, typ)
		}
		out = append(out, entry)
	}
	return out, nil
}

// logger builds the CLI logger writing to w.
func (s *settings) logger(w io.Writer) hclog.Logger {
	level := hclog.LevelFromString(s.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "vbalint",
		Level:  level,
		Output: w,
	})
}

// projectReferences orders the referenced projects by their position.
func (s *settings) projectReferences() []analysis.ProjectReference {
	refs := make([]analysis.ProjectReference, 0, len(s.References))
	for i, name := range s.References {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		refs = append(refs, analysis.ProjectReference{Name: name, Priority: i})
	}
	return refs
}

// builtins loads the embedded library declarations merged with the
// configured extra file, if any.
func (s *settings) builtins() (*analysis.BuiltinSet, error) {
	set, err := analysis.LoadBuiltins()
	if err != nil {
		return nil, err
	}
	if s.Builtins == "" {
		return set, nil
	}
	data, err := os.ReadFile(s.Builtins)
	if err != nil {
		return nil, fmt.Errorf("builtins: %w", err)
	}
	extra, err := analysis.ParseBuiltins(string(data))
	if err != nil {
		return nil, fmt.Errorf("builtins: %s: %w", s.Builtins, err)
	}
	return set.Merge(extra), nil
}

// newSession creates a session configured by s.
func (s *settings) newSession(cfg *cmdConfig, logger hclog.Logger) (*session.Session, error) {
	builtins := cfg.builtins
	if builtins == nil {
		var err error
		if builtins, err = s.builtins(); err != nil {
			return nil, err
		}
	}
	return session.New(&session.Options{
		Builtins:   builtins,
		References: s.projectReferences(),
		Registry:   cfg.registry,
		Inspections: &inspection.Config{
			Disabled:    s.Disabled,
			Severity:    s.Severity,
			EntryPoints: s.EntryPoints,
			Logger:      logger.Named("inspection"),
		},
		Jobs:   s.Jobs,
		Logger: logger,
	})
}
