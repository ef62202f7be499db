// Copyright © 2024 The vbalint authors

package lsp

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/project"
)

// Document is an open text document and the module it holds.
type Document struct {
	URI     string
	Name    analysis.QualifiedModuleName
	Type    ast.ComponentType
	Version int32
}

// DocumentStore maps open document URIs to session modules.
type DocumentStore struct {
	mu     sync.RWMutex
	byURI  map[string]*Document
	byName map[analysis.QualifiedModuleName]string
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		byURI:  make(map[string]*Document),
		byName: make(map[analysis.QualifiedModuleName]string),
	}
}

func foldKey(name analysis.QualifiedModuleName) analysis.QualifiedModuleName {
	return analysis.QualifiedModuleName{
		Project:   analysis.FoldName(name.Project),
		Component: analysis.FoldName(name.Component),
	}
}

// documentFor builds the document of uri.  The component name comes from
// the VB_Name attribute of text, falling back to the file name.
func documentFor(projectName, uri string, version int32, text string) (*Document, bool) {
	path := uriToPath(uri)
	typ, ok := project.ComponentType(path)
	if !ok {
		return nil, false
	}
	name := project.ComponentName(text)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &Document{
		URI:     uri,
		Name:    analysis.QualifiedModuleName{Project: projectName, Component: name},
		Type:    typ,
		Version: version,
	}, true
}

// Open records doc, replacing any document at its URI.
func (s *DocumentStore) Open(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byURI[doc.URI]; ok {
		delete(s.byName, foldKey(old.Name))
	}
	s.byURI[doc.URI] = doc
	s.byName[foldKey(doc.Name)] = doc.URI
}

// Close forgets the document at uri and returns it.
func (s *DocumentStore) Close(uri string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.byURI[uri]
	if !ok {
		return nil
	}
	delete(s.byURI, uri)
	delete(s.byName, foldKey(doc.Name))
	return doc
}

// Get retrieves a document by URI.  Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byURI[uri]
}

// URI returns the URI of the open document holding a module.
func (s *DocumentStore) URI(name analysis.QualifiedModuleName) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uri, ok := s.byName[foldKey(name)]
	return uri, ok
}
