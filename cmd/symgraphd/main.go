// Command symgraphd is the thin CLI front end over the symbol graph
// engine's façade. It owns no graph mutation logic of its own: every
// subcommand loads a store/orchestrator/façade triple and delegates.
// The engine core never spawns extractor subprocesses or speaks a UI
// protocol; this binary supplies the in-process regex extractor and
// serves both the CLI and the MCP protocol.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/symgraph/engine/internal/changedetect"
	"github.com/symgraph/engine/internal/config"
	"github.com/symgraph/engine/internal/facade"
	"github.com/symgraph/engine/internal/fswatch"
	"github.com/symgraph/engine/internal/goregexext"
	"github.com/symgraph/engine/internal/incremental"
	"github.com/symgraph/engine/internal/mcpfacade"
	"github.com/symgraph/engine/internal/orchestrator"
	"github.com/symgraph/engine/internal/storage"
	"github.com/symgraph/engine/internal/symtypes"
)

func main() {
	app := &cli.App{
		Name:                   "symgraphd",
		Usage:                  "code intelligence symbol graph indexer",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "project root directory",
				Value: ".",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "persistent store directory (defaults to <root>/.symgraph)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "full reindex of the project",
				Action: func(c *cli.Context) error {
					f, _, err := open(c)
					if err != nil {
						return err
					}
					result, err := f.FullReindex(ctx())
					if err != nil {
						return err
					}
					return printJSON(result)
				},
			},
			{
				Name:  "update",
				Usage: "incremental re-index since the last snapshot",
				Action: func(c *cli.Context) error {
					f, _, err := open(c)
					if err != nil {
						return err
					}
					result, err := f.Update(ctx())
					if err != nil {
						return err
					}
					return printJSON(result)
				},
			},
			{
				Name:  "watch",
				Usage: "watch the project tree and incrementally re-index on change",
				Action: func(c *cli.Context) error {
					return runWatch(c)
				},
			},
			{
				Name:      "def",
				Usage:     "go to definition: def <file> <line> <column>",
				ArgsUsage: "<file> <line> <column>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 3 {
						return cli.Exit("usage: symgraphd def <file> <line> <column>", 1)
					}
					f, _, err := open(c)
					if err != nil {
						return err
					}
					line, _ := strconv.Atoi(c.Args().Get(1))
					col, _ := strconv.Atoi(c.Args().Get(2))
					sym, ok, err := f.FindDefinition(c.Args().Get(0), symtypes.Position{Line: line, Column: col})
					if err != nil {
						return err
					}
					if !ok {
						return printJSON(nil)
					}
					return printJSON(sym)
				},
			},
			{
				Name:      "refs",
				Usage:     "find references: refs <symbol-id>",
				ArgsUsage: "<symbol-id>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 1 {
						return cli.Exit("usage: symgraphd refs <symbol-id>", 1)
					}
					f, _, err := open(c)
					if err != nil {
						return err
					}
					id := c.Args().Get(0)
					refs, err := f.FindReferences(id)
					if err != nil {
						if hints := f.SuggestSymbol(id, 5); len(hints) > 0 {
							return fmt.Errorf("%w (did you mean: %s)", err, strings.Join(hints, ", "))
						}
						return err
					}
					return printJSON(refs)
				},
			},
			{
				Name:      "calls",
				Usage:     "call hierarchy: calls <symbol-id> <in|out> [max-depth]",
				ArgsUsage: "<symbol-id> <in|out> [max-depth]",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 2 {
						return cli.Exit("usage: symgraphd calls <symbol-id> <in|out> [max-depth]", 1)
					}
					f, _, err := open(c)
					if err != nil {
						return err
					}
					dir := symtypes.DirOutgoing
					if c.Args().Get(1) == "in" {
						dir = symtypes.DirIncoming
					}
					depth := 10
					if c.Args().Len() > 2 {
						depth, _ = strconv.Atoi(c.Args().Get(2))
					}
					tree, err := f.CallHierarchy(c.Args().Get(0), dir, depth)
					if err != nil {
						return err
					}
					return printJSON(tree)
				},
			},
			{
				Name:      "types",
				Usage:     "type relations: types <symbol-id> [depth]",
				ArgsUsage: "<symbol-id> [depth]",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 1 {
						return cli.Exit("usage: symgraphd types <symbol-id> [depth]", 1)
					}
					f, _, err := open(c)
					if err != nil {
						return err
					}
					depth := 3
					if c.Args().Len() > 1 {
						depth, _ = strconv.Atoi(c.Args().Get(1))
					}
					rel, err := f.TypeRelations(c.Args().Get(0), depth)
					if err != nil {
						return err
					}
					return printJSON(rel)
				},
			},
			{
				Name:  "dead",
				Usage: "dead-code detection",
				Action: func(c *cli.Context) error {
					f, _, err := open(c)
					if err != nil {
						return err
					}
					dead, err := f.DeadCode()
					if err != nil {
						return err
					}
					return printJSON(dead)
				},
			},
			{
				Name:      "complexity",
				Usage:     "complexity metrics: complexity <symbol-id>",
				ArgsUsage: "<symbol-id>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 1 {
						return cli.Exit("usage: symgraphd complexity <symbol-id>", 1)
					}
					f, _, err := open(c)
					if err != nil {
						return err
					}
					metrics, err := f.Complexity(c.Args().Get(0))
					if err != nil {
						return err
					}
					return printJSON(metrics)
				},
			},
			{
				Name:  "mcp",
				Usage: "run as an MCP server over stdio",
				Action: func(c *cli.Context) error {
					f, _, err := open(c)
					if err != nil {
						return err
					}
					srv := mcpfacade.NewServer(f)
					return srv.Run(ctx())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// open resolves --root/--store, loads configuration, and wires a
// storage.Store + changedetect.Detector + goregexext.Extractor into
// an orchestrator.Orchestrator behind a facade.Facade.
func open(c *cli.Context) (*facade.Facade, *config.Config, error) {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		cfg.Project.Root = root
	}

	storeDir := c.String("store")
	if storeDir == "" {
		storeDir = filepath.Join(root, ".symgraph")
	}

	store, err := storage.Open(storeDir)
	if err != nil {
		return nil, nil, err
	}

	excludeGlobs := append([]string(nil), cfg.Index.ExcludeGlobs...)
	excludeGlobs = append(excludeGlobs, config.DetectBuildArtifactGlobs(cfg.Project.Root)...)

	detector := &changedetect.Detector{
		Root:         cfg.Project.Root,
		ExcludeDirs:  cfg.Index.ExcludeDirs,
		ExcludeGlobs: excludeGlobs,
		Extensions:   cfg.Index.Extensions,
	}

	orch := orchestrator.New(store, detector, goregexext.Extractor{Root: cfg.Project.Root})
	orch.Concurrency = cfg.Performance.MaxGoroutines
	orch.FileTimeout = time.Duration(cfg.Performance.FileTimeoutMs) * time.Millisecond

	rule := incremental.EntryPointRule{Names: cfg.EntryPoints.Names, TestPrefix: cfg.EntryPoints.TestPrefix}
	orch.EntryPoints = rule
	return facade.New(orch, rule), cfg, nil
}

// runWatch starts the filesystem watcher and triggers an incremental
// update on every debounced burst of events, until interrupted.
func runWatch(c *cli.Context) error {
	f, cfg, err := open(c)
	if err != nil {
		return err
	}

	if _, err := f.Update(ctx()); err != nil {
		log.Printf("initial update failed: %v", err)
	}

	debounce := time.Duration(cfg.Index.WatchDebounceMs) * time.Millisecond
	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := fswatch.New(cfg.Project.Root, cfg.Index.ExcludeDirs, debounce, func() {
		result, err := f.Update(runCtx)
		if err != nil {
			log.Printf("watch update failed: %v", err)
			return
		}
		log.Printf("watch update: +%d/-%d/~%d symbols", result.Update.SymbolsAdded, result.Update.SymbolsRemoved, result.Update.SymbolsModified)
	})
	if err != nil {
		return err
	}

	if err := w.Start(runCtx); err != nil {
		return err
	}
	<-runCtx.Done()
	return w.Stop()
}

func ctx() context.Context {
	return context.Background()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
