package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a", 0)
	assert.Equal(t, 1, g.Len())

	g.AddNode("a", 5) // idempotent, keeps the first creation index
	assert.Equal(t, 1, g.Len())

	g.AddNode("b", 1)
	assert.Equal(t, 2, g.Len())
}

func TestAddEdge(t *testing.T) {
	t.Run("records direction", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)
		g.AddNode("b", 1)

		require.NoError(t, g.AddEdge("a", "b")) // b depends on a
		assert.Equal(t, []string{"a"}, g.Dependencies("b"))
		assert.Empty(t, g.Dependencies("a"))
	})

	t.Run("missing nodes", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)

		assert.Error(t, g.AddEdge("dne", "a"))
		assert.Error(t, g.AddEdge("a", "dne"))
	})

	t.Run("self edge is ignored", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)

		require.NoError(t, g.AddEdge("a", "a"))
		assert.Empty(t, g.Dependencies("a"))
		assert.Nil(t, g.DetectCycles())
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)
		g.AddNode("b", 1)
		g.AddNode("c", 2)
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c"))

		assert.Nil(t, g.DetectCycles())
	})

	t.Run("three node cycle names all members", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)
		g.AddNode("b", 1)
		g.AddNode("c", 2)
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a"))

		cerr := g.DetectCycles()
		require.NotNil(t, cerr)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, cerr.Members)
		assert.Contains(t, cerr.Error(), "cycle")
	})

	t.Run("cycle excludes unrelated nodes", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)
		g.AddNode("b", 1)
		g.AddNode("x", 2)
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		require.NoError(t, g.AddEdge("a", "x"))

		cerr := g.DetectCycles()
		require.NotNil(t, cerr)
		assert.ElementsMatch(t, []string{"a", "b"}, cerr.Members)
	})
}

func TestClosure(t *testing.T) {
	g := New()
	g.AddNode("a", 0)
	g.AddNode("b", 1)
	g.AddNode("c", 2)
	g.AddNode("d", 3)
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	closed := g.Closure([]string{"a"})
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, closed)

	// d is untouched and independent.
	assert.False(t, closed["d"])

	// Unknown seeds are skipped.
	assert.Empty(t, g.Closure([]string{"nope"}))
}

func TestTopoOrder(t *testing.T) {
	t.Run("dependencies come first", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)
		g.AddNode("b", 1)
		g.AddNode("c", 2)
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))

		order := g.TopoOrder(map[string]bool{"a": true, "b": true, "c": true})
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("ties break by creation index", func(t *testing.T) {
		g := New()
		// Creation order deliberately disagrees with lexical order.
		g.AddNode("z", 0)
		g.AddNode("a", 1)
		g.AddNode("m", 2)

		order := g.TopoOrder(map[string]bool{"z": true, "a": true, "m": true})
		assert.Equal(t, []string{"z", "a", "m"}, order)
	})

	t.Run("edges leaving the subset are ignored", func(t *testing.T) {
		g := New()
		g.AddNode("a", 0)
		g.AddNode("b", 1)
		require.NoError(t, g.AddEdge("a", "b"))

		order := g.TopoOrder(map[string]bool{"b": true})
		assert.Equal(t, []string{"b"}, order)
	})
}
