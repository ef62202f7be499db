// Copyright © 2024 The vbalint authors

// Package parser is the syntax provider for VBA components.  It wraps the
// recursive-descent parser with a cache so unchanged modules are not parsed
// again when a project is re-analyzed.
package parser

import (
	"crypto/sha256"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/luthersystems/vbalint/parser/ast"
	"github.com/luthersystems/vbalint/parser/rdparser"
)

// DefaultCacheSize is the number of parsed modules kept by NewCache when no
// size is given.
const DefaultCacheSize = 512

// Parse parses the text of a single component.
func Parse(project string, name string, typ ast.ComponentType, text string) *ast.Module {
	return rdparser.Parse(project, name, typ, text)
}

type cacheKey struct {
	project string
	name    string
	typ     ast.ComponentType
	sum     [sha256.Size]byte
}

// Cache memoizes parse results by component identity and content hash.
// Cached trees are shared and must not be modified.  A Cache is safe for
// concurrent use.
type Cache struct {
	modules *lru.Cache[cacheKey, *ast.Module]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache returns a Cache holding up to size modules.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	modules, err := lru.New[cacheKey, *ast.Module](size)
	if err != nil {
		return nil, err
	}
	return &Cache{modules: modules}, nil
}

// Parse returns the tree for text, parsing it only if the same component
// text was not parsed recently.
func (c *Cache) Parse(project string, name string, typ ast.ComponentType, text string) *ast.Module {
	key := cacheKey{
		project: project,
		name:    name,
		typ:     typ,
		sum:     sha256.Sum256([]byte(text)),
	}
	if mod, ok := c.modules.Get(key); ok {
		c.hits.Add(1)
		return mod
	}
	c.misses.Add(1)
	mod := Parse(project, name, typ, text)
	c.modules.Add(key, mod)
	return mod
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits int64, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every cached tree.
func (c *Cache) Purge() {
	c.modules.Purge()
}
