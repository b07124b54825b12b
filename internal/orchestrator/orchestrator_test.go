package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symgraph/engine/internal/changedetect"
	"github.com/symgraph/engine/internal/storage"
	"github.com/symgraph/engine/internal/symtypes"
)

func mkSym(name, file string, line int) symtypes.Symbol {
	s := symtypes.Symbol{
		Kind:     symtypes.KindFunction,
		Name:     name,
		FilePath: file,
		Range:    symtypes.NewRange(symtypes.Position{Line: line, Column: 0}, symtypes.Position{Line: line + 1, Column: 0}),
	}
	return s.Normalize()
}

// stubExtractor returns one function symbol per path, named after the
// base file name, deterministically.
type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, path, hint string) ([]symtypes.Symbol, []ExtractedEdge, error) {
	name := filepath.Base(path)
	return []symtypes.Symbol{mkSym(name, path, 0)}, nil, nil
}

func TestOrchestrator_FullReindexThenIncremental(t *testing.T) {
	projectDir := t.TempDir()
	storeDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "a.rs"), []byte("fn a() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "b.rs"), []byte("fn b() {}"), 0o644))

	store, err := storage.Open(storeDir)
	require.NoError(t, err)

	detector := changedetect.NewDetector(projectDir)
	orch := New(store, detector, stubExtractor{})
	orch.Concurrency = 2

	result, err := orch.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 2, result.Update.SymbolsAdded)
	require.Equal(t, 2, result.Update.FilesAdded)
	require.Empty(t, result.Update.SkippedFiles)
	require.Len(t, result.Update.DeadSymbols, 2) // no entry point named "main" in this fixture

	snapshotBytes, ok := store.Load(storage.NamespaceGraph, storage.GraphSnapshotKey)
	require.True(t, ok)
	require.NotEmpty(t, snapshotBytes)

	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "c.rs"), []byte("fn c() {}"), 0o644))

	result2, err := orch.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, result2.Update.SymbolsAdded)
}

func TestOrchestrator_SkipsFailingExtractor(t *testing.T) {
	projectDir := t.TempDir()
	storeDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "bad.rs"), []byte("oops"), 0o644))

	store, err := storage.Open(storeDir)
	require.NoError(t, err)

	detector := changedetect.NewDetector(projectDir)
	orch := New(store, detector, failingExtractor{})

	result, err := orch.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, []string{"bad.rs"}, result.Update.SkippedFiles)
	require.Equal(t, 0, result.Update.SymbolsAdded)
}

type failingExtractor struct{}

func (failingExtractor) Extract(ctx context.Context, path, hint string) ([]symtypes.Symbol, []ExtractedEdge, error) {
	return nil, nil, assertErr{}
}

type assertErr struct{}

func (assertErr) Error() string { return "extract failed" }
