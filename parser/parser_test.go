// Copyright © 2024 The vbalint authors

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/vbalint/parser/ast"
)

func TestParse(t *testing.T) {
	mod := Parse("VBAProject", "Module1", ast.StandardModule, "Private Sub Foo()\nEnd Sub\n")
	require.Empty(t, mod.Errors)
	require.Len(t, mod.Procedures(), 1)
	assert.Equal(t, "Foo", mod.Procedures()[0].Name.Name)
	assert.Equal(t, "VBAProject", mod.Project)
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	a := c.Parse("P", "Module1", ast.StandardModule, "Sub A()\nEnd Sub\n")
	b := c.Parse("P", "Module1", ast.StandardModule, "Sub A()\nEnd Sub\n")
	assert.Same(t, a, b, "unchanged text should reuse the cached tree")

	changed := c.Parse("P", "Module1", ast.StandardModule, "Sub B()\nEnd Sub\n")
	assert.NotSame(t, a, changed)

	// The same text in another component is a different tree.
	other := c.Parse("P", "Module2", ast.StandardModule, "Sub A()\nEnd Sub\n")
	assert.NotSame(t, a, other)
	assert.Equal(t, "Module2", other.Name)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(3), misses)

	c.Purge()
	again := c.Parse("P", "Module2", ast.StandardModule, "Sub A()\nEnd Sub\n")
	assert.NotSame(t, other, again)
}

func TestNewCacheDefaultSize(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	assert.NotNil(t, c.Parse("P", "M", ast.ClassModule, ""))
}
