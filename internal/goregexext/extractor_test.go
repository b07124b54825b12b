package goregexext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symgraph/engine/internal/symtypes"
)

const fixture = `package demo

type Widget struct {
	id int
}

type Painter interface {
	Paint() error
}

const (
	limit = 10
)

func helper() int {
	return limit
}

func Render(w Widget) int {
	return helper()
}
`

func extractFixture(t *testing.T) ([]symtypes.Symbol, map[string]symtypes.Symbol, []string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "demo.go"), []byte(fixture), 0o644))

	symbols, edges, err := Extractor{Root: root}.Extract(context.Background(), "demo.go", "go")
	require.NoError(t, err)

	byName := make(map[string]symtypes.Symbol, len(symbols))
	for _, s := range symbols {
		byName[s.Name] = s
	}
	edgePairs := make([]string, 0, len(edges))
	for _, e := range edges {
		edgePairs = append(edgePairs, e.FromID+"->"+e.ToID)
	}
	return symbols, byName, edgePairs
}

func TestExtract_DeclarationKinds(t *testing.T) {
	_, byName, _ := extractFixture(t)

	require.Equal(t, symtypes.KindStruct, byName["Widget"].Kind)
	require.Equal(t, symtypes.KindInterface, byName["Painter"].Kind)
	require.Equal(t, symtypes.KindConstant, byName["limit"].Kind)
	require.Equal(t, symtypes.KindFunction, byName["helper"].Kind)
	require.Equal(t, symtypes.KindFunction, byName["Render"].Kind)
}

func TestExtract_KeepsRelativeFilePath(t *testing.T) {
	symbols, _, _ := extractFixture(t)
	for _, s := range symbols {
		require.Equal(t, "demo.go", s.FilePath)
	}
}

func TestExtract_CallSiteReferenceEdges(t *testing.T) {
	_, byName, edgePairs := extractFixture(t)
	require.Contains(t, edgePairs, byName["Render"].ID+"->"+byName["helper"].ID)
}

func TestExtract_DeterministicAcrossRuns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "demo.go"), []byte(fixture), 0o644))

	ex := Extractor{Root: root}
	s1, e1, err := ex.Extract(context.Background(), "demo.go", "go")
	require.NoError(t, err)
	s2, e2, err := ex.Extract(context.Background(), "demo.go", "go")
	require.NoError(t, err)

	require.Equal(t, s1, s2)
	require.Equal(t, e1, e2)
}

func TestExtract_MissingFile(t *testing.T) {
	_, _, err := Extractor{Root: t.TempDir()}.Extract(context.Background(), "absent.go", "go")
	require.Error(t, err)
}
