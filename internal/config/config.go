// Package config loads project configuration for the symbol graph
// engine from a KDL file, falling back to defaults when absent.
package config

import (
	"path/filepath"

	"github.com/symgraph/engine/internal/changedetect"
)

// Project describes the indexed project root and display name.
type Project struct {
	Root string
	Name string
}

// Index controls what the orchestrator walks and watches.
type Index struct {
	ExcludeDirs     []string
	ExcludeGlobs    []string
	Extensions      []string
	WatchMode       bool
	WatchDebounceMs int
}

// EntryPoints controls dead-code reachability roots.
type EntryPoints struct {
	Names      []string
	TestPrefix string
}

// Performance controls the orchestrator's concurrency knobs.
type Performance struct {
	MaxGoroutines int
	FileTimeoutMs int
}

// Config is the fully-resolved configuration for one project.
type Config struct {
	Version     int
	Project     Project
	Index       Index
	EntryPoints EntryPoints
	Performance Performance
}

// Default returns the engine's baked-in defaults, rooted at root.
func Default(root string) *Config {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	return &Config{
		Version: 1,
		Project: Project{Root: absRoot},
		Index: Index{
			ExcludeDirs:     append([]string(nil), changedetect.DefaultExcludeDirs...),
			Extensions:      append([]string(nil), changedetect.DefaultExtensions...),
			WatchMode:       false,
			WatchDebounceMs: 300,
		},
		EntryPoints: EntryPoints{
			Names:      []string{"main"},
			TestPrefix: "test_",
		},
		Performance: Performance{
			MaxGoroutines: 4,
			FileTimeoutMs: 10000,
		},
	}
}
