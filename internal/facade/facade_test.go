package facade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symgraph/engine/internal/changedetect"
	"github.com/symgraph/engine/internal/incremental"
	"github.com/symgraph/engine/internal/orchestrator"
	"github.com/symgraph/engine/internal/storage"
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

// graphExtractor returns a fixed symbol/edge set regardless of the
// path's content, so tests can drive a known graph shape through the
// orchestrator.
type graphExtractor struct {
	symbols map[string][]symtypes.Symbol
	edges   map[string][]orchestrator.ExtractedEdge
}

func (g graphExtractor) Extract(ctx context.Context, path, hint string) ([]symtypes.Symbol, []orchestrator.ExtractedEdge, error) {
	return g.symbols[path], g.edges[path], nil
}

func TestFacade_BeforeLoad_ReturnsNotFound(t *testing.T) {
	storeDir := t.TempDir()
	store, err := storage.Open(storeDir)
	require.NoError(t, err)

	orch := orchestrator.New(store, changedetect.NewDetector(t.TempDir()), graphExtractor{})
	f := New(orch, incremental.DefaultEntryPointRule())

	_, _, err = f.FindDefinition("a.rs", symtypes.Position{})
	require.Error(t, err)
}

func TestFacade_FindDefinitionAndReferences(t *testing.T) {
	projectDir := t.TempDir()
	storeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "a.rs"), []byte("fn a() {}\nfn b() {}\n"), 0o644))

	a := mkSym("a", "a.rs", 0, symtypes.KindFunction)
	b := mkSym("b", "a.rs", 1, symtypes.KindFunction)

	store, err := storage.Open(storeDir)
	require.NoError(t, err)
	detector := changedetect.NewDetector(projectDir)
	extractor := graphExtractor{
		symbols: map[string][]symtypes.Symbol{"a.rs": {a, b}},
		edges: map[string][]orchestrator.ExtractedEdge{
			"a.rs": {{FromID: b.ID, ToID: a.ID, Kind: symtypes.EdgeReference}},
		},
	}
	orch := orchestrator.New(store, detector, extractor)
	f := New(orch, incremental.DefaultEntryPointRule())

	_, err = f.FullReindex(context.Background())
	require.NoError(t, err)

	def, ok, err := f.FindDefinition("a.rs", symtypes.Position{Line: 0, Column: 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", def.Name)

	refs, err := f.FindReferences(a.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "b", refs[0].Name)

	_, ok, err = f.FindDefinition("a.rs", symtypes.Position{Line: 99, Column: 0})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFacade_DeadCodeAndComplexity(t *testing.T) {
	projectDir := t.TempDir()
	storeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "m.rs"), []byte("fn main() {}\nfn live() {}\nfn dead() {}\n"), 0o644))

	main := mkSym("main", "m.rs", 0, symtypes.KindFunction)
	live := mkSym("live", "m.rs", 1, symtypes.KindFunction)
	dead := mkSym("dead", "m.rs", 2, symtypes.KindFunction)

	store, err := storage.Open(storeDir)
	require.NoError(t, err)
	extractor := graphExtractor{
		symbols: map[string][]symtypes.Symbol{"m.rs": {main, live, dead}},
		edges: map[string][]orchestrator.ExtractedEdge{
			"m.rs": {{FromID: main.ID, ToID: live.ID, Kind: symtypes.EdgeReference}},
		},
	}
	orch := orchestrator.New(store, changedetect.NewDetector(projectDir), extractor)
	f := New(orch, incremental.DefaultEntryPointRule())

	_, err = f.FullReindex(context.Background())
	require.NoError(t, err)

	deadIDs, err := f.DeadCode()
	require.NoError(t, err)
	require.Equal(t, []string{dead.ID}, deadIDs)

	metrics, err := f.Complexity(main.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, metrics.Cyclomatic, 1)
}

func TestFacade_UpdateFileMutatesLiveIndex(t *testing.T) {
	projectDir := t.TempDir()
	storeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "a.rs"), []byte("fn a() {}\n"), 0o644))

	store, err := storage.Open(storeDir)
	require.NoError(t, err)
	extractor := graphExtractor{symbols: map[string][]symtypes.Symbol{"a.rs": {mkSym("a", "a.rs", 0, symtypes.KindFunction)}}}
	orch := orchestrator.New(store, changedetect.NewDetector(projectDir), extractor)
	f := New(orch, incremental.DefaultEntryPointRule())

	_, err = f.FullReindex(context.Background())
	require.NoError(t, err)

	extra := mkSym("extra", "a.rs", 1, symtypes.KindFunction)
	result, err := f.UpdateFile("a.rs", []symtypes.Symbol{mkSym("a", "a.rs", 0, symtypes.KindFunction), extra}, nil, "h1")
	require.NoError(t, err)
	require.Equal(t, 1, result.SymbolsAdded)

	def, ok, err := f.FindDefinition("a.rs", symtypes.Position{Line: 1, Column: 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "extra", def.Name)
}

func TestFacade_SuggestSymbolMatchesByNameSegment(t *testing.T) {
	projectDir := t.TempDir()
	storeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "a.rs"), []byte("fn handle_request() {}\n"), 0o644))

	handler := mkSym("handle_request", "a.rs", 0, symtypes.KindFunction)
	store, err := storage.Open(storeDir)
	require.NoError(t, err)
	extractor := graphExtractor{symbols: map[string][]symtypes.Symbol{"a.rs": {handler}}}
	orch := orchestrator.New(store, changedetect.NewDetector(projectDir), extractor)
	f := New(orch, incremental.DefaultEntryPointRule())

	_, err = f.FullReindex(context.Background())
	require.NoError(t, err)

	hints := f.SuggestSymbol("a.rs#0:0:handle_reqest", 3)
	require.Equal(t, []string{handler.ID}, hints)

	require.Empty(t, f.SuggestSymbol("a.rs#0:0:zzzzzz", 3))
}
