package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symgraph/engine/internal/errs"
)

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Version)
	require.Equal(t, []string{"main"}, cfg.EntryPoints.Names)
}

func TestLoad_OverlaysKDLOntoDefaults(t *testing.T) {
	root := t.TempDir()
	content := `
project {
    name "demo"
}
index {
    extensions ".go" ".rs"
    watch true
    watch_debounce_ms 500
}
entrypoints {
    names "main" "Main"
    test_prefix "Test"
}
performance {
    max_goroutines 8
    file_timeout_ms 5000
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	require.Equal(t, "demo", cfg.Project.Name)
	require.Equal(t, []string{".go", ".rs"}, cfg.Index.Extensions)
	require.True(t, cfg.Index.WatchMode)
	require.Equal(t, 500, cfg.Index.WatchDebounceMs)
	require.Equal(t, []string{"main", "Main"}, cfg.EntryPoints.Names)
	require.Equal(t, "Test", cfg.EntryPoints.TestPrefix)
	require.Equal(t, 8, cfg.Performance.MaxGoroutines)
	require.Equal(t, 5000, cfg.Performance.FileTimeoutMs)
}

func TestLoad_InvalidKDL_ReturnsStorageCorrupt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("project {{{"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.New(errs.KindStorageCorrupt, "", ""))
}

func TestLoad_BlockStyleStringLists(t *testing.T) {
	root := t.TempDir()
	content := `
index {
    exclude_dirs {
        ".git"
        "vendor"
    }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, []string{".git", "vendor"}, cfg.Index.ExcludeDirs)
}
