package incremental

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symgraph/engine/internal/symtypes"
)

func mkSym(name, file string, line int, kind symtypes.SymbolKind) symtypes.Symbol {
	s := symtypes.Symbol{
		Kind:     kind,
		Name:     name,
		FilePath: file,
		Range:    symtypes.NewRange(symtypes.Position{Line: line, Column: 0}, symtypes.Position{Line: line + 1, Column: 0}),
	}
	return s.Normalize()
}

// Replacing a file's symbol set removes what vanished, adds what is
// new, and leaves shared symbols in place.
func TestIndex_IncrementalFileReplacement(t *testing.T) {
	idx := New()

	f := mkSym("f", "a.rs", 0, symtypes.KindFunction)
	g := mkSym("g", "a.rs", 1, symtypes.KindFunction)

	result := idx.UpdateFile(FileUpdate{FilePath: "a.rs", Symbols: []symtypes.Symbol{f, g}, Hash: "h0"})
	require.Equal(t, 2, result.SymbolsAdded)
	require.Equal(t, 1, result.FilesAdded)
	require.Equal(t, 2, idx.Graph().Count())

	h := mkSym("h", "a.rs", 2, symtypes.KindFunction)
	result2 := idx.UpdateFile(FileUpdate{FilePath: "a.rs", Symbols: []symtypes.Symbol{g, h}, Hash: "h1"})

	require.Equal(t, 2, idx.Graph().Count())
	require.Equal(t, 1, result2.SymbolsRemoved)
	require.Equal(t, 1, result2.SymbolsAdded)
	require.Equal(t, 0, result2.SymbolsModified)
	require.Equal(t, 1, result2.FilesModified)
	require.Equal(t, 0, result2.FilesAdded)

	names := symbolNames(idx.SymbolsInFile("a.rs"))
	sort.Strings(names)
	require.Equal(t, []string{"g", "h"}, names)

	hash, ok := idx.FileHash("a.rs")
	require.True(t, ok)
	require.Equal(t, "h1", hash)
}

func TestIndex_UpdateFile_RepeatedCallIsIdempotent(t *testing.T) {
	idx := New()
	f := mkSym("f", "a.rs", 0, symtypes.KindFunction)

	r1 := idx.UpdateFile(FileUpdate{FilePath: "a.rs", Symbols: []symtypes.Symbol{f}, Hash: "h0"})
	require.Equal(t, 1, r1.SymbolsAdded)

	r2 := idx.UpdateFile(FileUpdate{FilePath: "a.rs", Symbols: []symtypes.Symbol{f}, Hash: "h0"})
	require.Equal(t, 0, r2.SymbolsAdded)
	require.Equal(t, 0, r2.SymbolsRemoved)
	require.Equal(t, 1, idx.Graph().Count())
}

func TestIndex_BatchUpdate_EmptyIsNoop(t *testing.T) {
	idx := New()
	result := idx.BatchUpdate(nil)
	require.Equal(t, 0, result.SymbolsAdded+result.SymbolsRemoved+result.SymbolsModified)
}

func TestIndex_BatchUpdate_DeletedBeforeAdded(t *testing.T) {
	idx := New()
	shared := mkSym("shared", "old.rs", 0, symtypes.KindFunction)
	idx.UpdateFile(FileUpdate{FilePath: "old.rs", Symbols: []symtypes.Symbol{shared}})

	movedShared := mkSym("shared", "new.rs", 0, symtypes.KindFunction)
	entries := []BatchEntry{
		{FilePath: "new.rs", Update: &FileUpdate{FilePath: "new.rs", Symbols: []symtypes.Symbol{movedShared}}},
		{FilePath: "old.rs", Deleted: true},
	}
	result := idx.BatchUpdate(entries)
	require.Empty(t, result.Errors)
	require.Equal(t, 1, idx.Graph().Count())
	_, ok := idx.Graph().FindSymbol(movedShared.ID)
	require.True(t, ok)
}

func TestIndex_RemoveFile_CountsDeletion(t *testing.T) {
	idx := New()
	idx.UpdateFile(FileUpdate{FilePath: "a.rs", Symbols: []symtypes.Symbol{mkSym("f", "a.rs", 0, symtypes.KindFunction)}})

	result := idx.RemoveFile("a.rs")
	require.Equal(t, 1, result.FilesDeleted)
	require.Equal(t, 1, result.SymbolsRemoved)
	require.Equal(t, 0, idx.Graph().Count())

	again := idx.RemoveFile("a.rs")
	require.Equal(t, 0, again.FilesDeleted)
}

func TestIndex_AddSymbol_UpdatesOwnership(t *testing.T) {
	idx := New()
	sym := mkSym("f", "a.rs", 0, symtypes.KindFunction)

	_, err := idx.AddSymbol(sym)
	require.NoError(t, err)

	owned := idx.SymbolsInFile("a.rs")
	require.Len(t, owned, 1)
	require.Equal(t, sym.ID, owned[0].ID)
}

func symbolNames(syms []symtypes.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

// Symbols unreachable from an entry point are reported dead.
func TestIndex_DeadCode(t *testing.T) {
	idx := New()
	g := idx.Graph()

	main := mkSym("main", "main.rs", 0, symtypes.KindFunction)
	mainHandle, err := g.AddSymbol(main)
	require.NoError(t, err)

	live := make([]symtypes.Symbol, 10)
	prevHandle := mainHandle
	for i := 0; i < 10; i++ {
		live[i] = mkSym("live_"+string(rune('0'+i)), "main.rs", i+1, symtypes.KindFunction)
		h, err := g.AddSymbol(live[i])
		require.NoError(t, err)
		require.NoError(t, g.AddEdge(prevHandle, h, symtypes.EdgeReference))
		prevHandle = h
	}

	for i := 0; i < 5; i++ {
		dead := mkSym("dead_"+string(rune('0'+i)), "main.rs", 20+i, symtypes.KindFunction)
		_, err := g.AddSymbol(dead)
		require.NoError(t, err)
	}

	deadIDs := idx.DetectDeadCode(DefaultEntryPointRule())
	require.Len(t, deadIDs, 5)
	for _, id := range deadIDs {
		require.Contains(t, id, "dead_")
	}

	var result UpdateResult
	idx.DetectDeadCodeInto(DefaultEntryPointRule(), &result)
	require.Equal(t, deadIDs, result.DeadSymbols)
}
