// Copyright © 2024 The vbalint authors

// Package project loads exported VBA component files from disk and writes
// edited modules back.
//
// Exported components carry their name in an `Attribute VB_Name` header
// line; files without one are named after the file.  Files that are not
// valid UTF-8 are read as Windows-1252, the encoding the host uses when
// exporting, and written back the same way.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/encoding/charmap"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/session"
)

// DefaultName is the project name used when none is configured.
const DefaultName = "VBAProject"

var extensions = map[string]ast.ComponentType{
	".bas":    ast.StandardModule,
	".cls":    ast.ClassModule,
	".frm":    ast.UserForm,
	".doccls": ast.Document,
}

// ComponentType returns the component type of a file from its extension.
func ComponentType(path string) (ast.ComponentType, bool) {
	typ, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return typ, ok
}

// Encoding names the character encoding of a component file.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Windows1252 Encoding = "windows-1252"
)

// File is one component file.
type File struct {
	Path     string
	Name     analysis.QualifiedModuleName
	Type     ast.ComponentType
	Text     string
	Encoding Encoding
}

// Project is a set of component files sharing a project name.
type Project struct {
	Name  string
	Root  string
	Files []*File
}

// Options configures loading.
type Options struct {
	// Name is the project name.  Empty means DefaultName.
	Name string
	// Exclude holds glob patterns matched against file and directory
	// names and against paths relative to the root.
	Exclude []string
	Logger  hclog.Logger
}

func (o *Options) logger() hclog.Logger {
	if o == nil || o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

func (o *Options) name() string {
	if o == nil || o.Name == "" {
		return DefaultName
	}
	return o.Name
}

func (o *Options) excluded(root, path string) bool {
	if o == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	base := filepath.Base(path)
	for _, pat := range o.Exclude {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, filepath.ToSlash(rel)); ok {
			return true
		}
	}
	return false
}

// Load reads every component file under root.  Hidden directories are
// skipped.  Unreadable files are reported in the returned error while the
// readable ones are still returned.
func Load(root string, opts *Options) (*Project, error) {
	var paths []string
	var errs error
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = multierror.Append(errs, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || opts.excluded(root, path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := ComponentType(path); ok && !opts.excluded(root, path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	proj, ferr := LoadFiles(paths, opts)
	proj.Root = root
	if ferr != nil {
		errs = multierror.Append(errs, ferr)
	}
	return proj, errs
}

// LoadFiles reads the given component files.
func LoadFiles(paths []string, opts *Options) (*Project, error) {
	logger := opts.logger()
	proj := &Project{Name: opts.name()}
	seen := make(map[string]string)
	var errs error
	sort.Strings(paths)
	for _, path := range paths {
		f, err := ReadFile(proj.Name, path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		key := analysis.FoldName(f.Name.Component)
		if prev, ok := seen[key]; ok {
			errs = multierror.Append(errs, fmt.Errorf("%s: component %s is already defined in %s", path, f.Name.Component, prev))
			continue
		}
		seen[key] = path
		logger.Trace("component loaded", "path", path, "component", f.Name.Component, "type", f.Type, "encoding", f.Encoding)
		proj.Files = append(proj.Files, f)
	}
	logger.Debug("project loaded", "project", proj.Name, "components", len(proj.Files))
	return proj, errs
}

// ReadFile reads one component file of project.
func ReadFile(project, path string) (*File, error) {
	typ, ok := ComponentType(path)
	if !ok {
		return nil, fmt.Errorf("%s: not a component file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, enc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := ComponentName(text)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &File{
		Path:     path,
		Name:     analysis.QualifiedModuleName{Project: project, Component: name},
		Type:     typ,
		Text:     text,
		Encoding: enc,
	}, nil
}

var vbName = regexp.MustCompile(`(?im)^\s*Attribute\s+VB_Name\s*=\s*"([^"]*)"`)

// ComponentName returns the name in the VB_Name attribute of text, or "".
func ComponentName(text string) string {
	m := vbName.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func decode(data []byte) (string, Encoding, error) {
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))
	if utf8.Valid(data) {
		return string(data), UTF8, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", err
	}
	return string(out), Windows1252, nil
}

func encode(text string, enc Encoding) ([]byte, error) {
	if enc != Windows1252 {
		return []byte(text), nil
	}
	return charmap.Windows1252.NewEncoder().Bytes([]byte(text))
}

// Open adds every file of p to s.
func (p *Project) Open(s *session.Session) {
	for _, f := range p.Files {
		s.Open(f.Name, f.Type, f.Path, f.Text)
	}
}

// File returns the file holding a component.
func (p *Project) File(name analysis.QualifiedModuleName) *File {
	for _, f := range p.Files {
		if analysis.FoldName(f.Name.Component) == analysis.FoldName(name.Component) &&
			analysis.FoldName(f.Name.Project) == analysis.FoldName(name.Project) {
			return f
		}
	}
	return nil
}

// Save writes modules back to their files in their original encoding and
// returns the paths written.
func (p *Project) Save(mods []session.Module) ([]string, error) {
	var written []string
	var errs error
	for _, m := range mods {
		if m.Path == "" {
			continue
		}
		enc := UTF8
		if f := p.File(m.Name); f != nil {
			enc = f.Encoding
		}
		data, err := encode(m.Text, enc)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", m.Path, err))
			continue
		}
		if err := os.WriteFile(m.Path, data, 0o644); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if f := p.File(m.Name); f != nil {
			f.Text = m.Text
		}
		written = append(written, m.Path)
	}
	return written, errs
}
