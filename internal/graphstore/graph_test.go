package graphstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symgraph/engine/internal/symtypes"
)

func mkSymbol(name string, line int) symtypes.Symbol {
	sym := symtypes.Symbol{
		Kind:     symtypes.KindFunction,
		Name:     name,
		FilePath: "test.rs",
		Range:    symtypes.NewRange(symtypes.Position{Line: line, Column: 0}, symtypes.Position{Line: line + 5, Column: 0}),
	}
	return sym.Normalize()
}

// Ten symbols plus a two-hop reference chain.
func TestGraph_SmallGraphConstruction(t *testing.T) {
	g := New()
	handles := make([]Handle, 10)
	for i := 0; i < 10; i++ {
		h, err := g.AddSymbol(mkSymbol("symbol_"+string(rune('0'+i)), 10*i))
		require.NoError(t, err)
		handles[i] = h
	}
	require.Equal(t, 10, g.Count())

	require.NoError(t, g.AddEdge(handles[0], handles[1], symtypes.EdgeReference))
	require.NoError(t, g.AddEdge(handles[1], handles[2], symtypes.EdgeReference))

	kind := symtypes.EdgeReference
	refsToSym1, err := g.Neighbors(handles[1], symtypes.DirIncoming, &kind)
	require.NoError(t, err)
	require.Equal(t, []Handle{handles[0]}, refsToSym1)

	refsToSym2, err := g.Neighbors(handles[2], symtypes.DirIncoming, &kind)
	require.NoError(t, err)
	require.Equal(t, []Handle{handles[1]}, refsToSym2)
}

func TestGraph_AddSymbol_DuplicateId(t *testing.T) {
	g := New()
	sym := mkSymbol("f", 1)
	_, err := g.AddSymbol(sym)
	require.NoError(t, err)

	_, err = g.AddSymbol(sym)
	require.Error(t, err)
}

func TestGraph_AddEdge_StaleHandle(t *testing.T) {
	g := New()
	a, err := g.AddSymbol(mkSymbol("a", 1))
	require.NoError(t, err)
	b, err := g.AddSymbol(mkSymbol("b", 2))
	require.NoError(t, err)

	require.True(t, g.RemoveSymbol("test.rs#2:0:b"))
	err = g.AddEdge(a, b, symtypes.EdgeReference)
	require.Error(t, err)
}

func TestGraph_AddEdge_Idempotent(t *testing.T) {
	g := New()
	a, _ := g.AddSymbol(mkSymbol("a", 1))
	b, _ := g.AddSymbol(mkSymbol("b", 2))

	require.NoError(t, g.AddEdge(a, b, symtypes.EdgeReference))
	require.NoError(t, g.AddEdge(a, b, symtypes.EdgeReference))

	kind := symtypes.EdgeReference
	out, err := g.Neighbors(a, symtypes.DirOutgoing, &kind)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestGraph_RemoveSymbol_RemovesIncidentEdges(t *testing.T) {
	g := New()
	a, _ := g.AddSymbol(mkSymbol("a", 1))
	b, _ := g.AddSymbol(mkSymbol("b", 2))
	c, _ := g.AddSymbol(mkSymbol("c", 3))

	require.NoError(t, g.AddEdge(a, b, symtypes.EdgeReference))
	require.NoError(t, g.AddEdge(b, c, symtypes.EdgeReference))

	require.True(t, g.RemoveSymbol("test.rs#2:0:b"))
	require.Equal(t, 2, g.Count())

	kind := symtypes.EdgeReference
	outFromA, err := g.Neighbors(a, symtypes.DirOutgoing, &kind)
	require.NoError(t, err)
	require.Empty(t, outFromA)

	incToC, err := g.Neighbors(c, symtypes.DirIncoming, &kind)
	require.NoError(t, err)
	require.Empty(t, incToC)

	// re-adding b reuses the freed slot under a new generation, so the
	// new handle differs from the removed one
	bNew, err := g.AddSymbol(mkSymbol("b", 2))
	require.NoError(t, err)
	require.NotEqual(t, b, bNew)
}

func TestGraph_RemoveSymbol_MissingIdIsNoop(t *testing.T) {
	g := New()
	g.AddSymbol(mkSymbol("a", 1))
	require.False(t, g.RemoveSymbol("nonexistent"))
	require.Equal(t, 1, g.Count())
}

func TestGraph_HandleReuse_GenerationGuardsStaleAccess(t *testing.T) {
	g := New()
	h1, _ := g.AddSymbol(mkSymbol("a", 1))
	require.True(t, g.RemoveSymbol("test.rs#1:0:a"))
	h2, _ := g.AddSymbol(mkSymbol("a", 1))

	require.Equal(t, h1.Index, h2.Index)
	require.NotEqual(t, h1.Generation, h2.Generation)
	require.False(t, g.IsLive(h1))
	require.True(t, g.IsLive(h2))
}
