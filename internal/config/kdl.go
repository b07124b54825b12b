package config

import (
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/symgraph/engine/internal/errs"
)

// ConfigFileName is the project-relative KDL document this engine
// reads.
const ConfigFileName = ".symgraph.kdl"

// Load reads ConfigFileName from root and overlays it onto the
// baked-in defaults. A missing config file is not an error: Load
// returns Default(root) unchanged.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, ConfigFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errs.StorageIo("config.load", err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, errs.New(errs.KindStorageCorrupt, "config.load", "invalid KDL in "+path+": "+err.Error())
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			applyProject(cfg, n)
		case "index":
			applyIndex(cfg, n)
		case "entrypoints":
			applyEntryPoints(cfg, n)
		case "performance":
			applyPerformance(cfg, n)
		}
	}

	if !filepath.IsAbs(cfg.Project.Root) {
		if abs, err := filepath.Abs(filepath.Join(root, cfg.Project.Root)); err == nil {
			cfg.Project.Root = abs
		}
	}

	return cfg, nil
}

func applyProject(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "root":
			if v, ok := firstStringArg(cn); ok {
				cfg.Project.Root = v
			}
		case "name":
			if v, ok := firstStringArg(cn); ok {
				cfg.Project.Name = v
			}
		}
	}
}

func applyIndex(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "exclude_dirs":
			if v := collectStringArgs(cn); len(v) > 0 {
				cfg.Index.ExcludeDirs = v
			}
		case "exclude_globs":
			if v := collectStringArgs(cn); len(v) > 0 {
				cfg.Index.ExcludeGlobs = v
			}
		case "extensions":
			if v := collectStringArgs(cn); len(v) > 0 {
				cfg.Index.Extensions = v
			}
		case "watch":
			if v, ok := firstBoolArg(cn); ok {
				cfg.Index.WatchMode = v
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.WatchDebounceMs = v
			}
		}
	}
}

func applyEntryPoints(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "names":
			if v := collectStringArgs(cn); len(v) > 0 {
				cfg.EntryPoints.Names = v
			}
		case "test_prefix":
			if v, ok := firstStringArg(cn); ok {
				cfg.EntryPoints.TestPrefix = v
			}
		}
	}
}

func applyPerformance(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_goroutines":
			if v, ok := firstIntArg(cn); ok {
				cfg.Performance.MaxGoroutines = v
			}
		case "file_timeout_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Performance.FileTimeoutMs = v
			}
		}
	}
}

// Helpers below walk the parsed KDL document: a node's name plus its
// first positional argument (or, for multi-value nodes, every child
// node's name/arg pair collected into a slice).

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// collectStringArgs gathers string values either from a node's
// positional arguments (`extensions ".go" ".ts"`) or, when absent,
// from its children's node names (`extensions { ".go"; ".ts" }`), so
// both KDL authoring styles work.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
				continue
			}
			if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
