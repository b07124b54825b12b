// Package facade exposes the engine's single client query surface:
// go-to-definition, find-references, call hierarchy, definition
// chains, type relations, dead-code detection, complexity metrics,
// and the mutation entry points (update_file, batch_update,
// full_reindex). It is the one seam the CLI (cmd/symgraphd) and the
// MCP tool server (internal/mcpfacade) both sit on, adding no graph
// semantics of their own.
package facade

import (
	"context"
	"strings"

	"github.com/symgraph/engine/internal/analysis"
	"github.com/symgraph/engine/internal/errs"
	"github.com/symgraph/engine/internal/incremental"
	"github.com/symgraph/engine/internal/orchestrator"
	"github.com/symgraph/engine/internal/suggest"
	"github.com/symgraph/engine/internal/symtypes"
)

// Facade wraps a differential orchestrator and the dead-code
// entry-point rule it was configured with. It holds no graph state of
// its own; every query reads through to the orchestrator's current
// incremental.Index.
type Facade struct {
	orch *orchestrator.Orchestrator
	rule incremental.EntryPointRule
}

// New returns a Facade over orch, using rule as the default
// entry-point heuristic for DeadCode.
func New(orch *orchestrator.Orchestrator, rule incremental.EntryPointRule) *Facade {
	return &Facade{orch: orch, rule: rule}
}

func (f *Facade) index() (*incremental.Index, error) {
	idx := f.orch.Index()
	if idx == nil {
		return nil, errs.NotFound("facade", "index not loaded; call FullReindex or Update first")
	}
	return idx, nil
}

// FullReindex clears and rebuilds the index from scratch.
func (f *Facade) FullReindex(ctx context.Context) (orchestrator.Result, error) {
	return f.orch.Run(ctx, true)
}

// Update runs one incremental re-index cycle: load snapshot, detect
// changes, extract, batch-update, persist.
func (f *Facade) Update(ctx context.Context) (orchestrator.Result, error) {
	return f.orch.Run(ctx, false)
}

// UpdateFile atomically replaces the symbol set for path.
func (f *Facade) UpdateFile(path string, symbols []symtypes.Symbol, edges []incremental.EdgeSpec, hash string) (incremental.UpdateResult, error) {
	idx, err := f.index()
	if err != nil {
		return incremental.UpdateResult{}, err
	}
	return idx.UpdateFile(incremental.FileUpdate{FilePath: path, Symbols: symbols, Edges: edges, Hash: hash}), nil
}

// BatchUpdate applies a sequence of file updates as one logical unit.
func (f *Facade) BatchUpdate(entries []incremental.BatchEntry) (incremental.UpdateResult, error) {
	idx, err := f.index()
	if err != nil {
		return incremental.UpdateResult{}, err
	}
	return idx.BatchUpdate(entries), nil
}

// FindDefinition returns the symbol whose range contains position
// within file, preferring the most narrowly-scoped match when ranges
// nest (e.g. a parameter inside the method that declares it). Among
// equally narrow matches, the one that starts later wins, so a
// position on the boundary between two adjacent ranges resolves to
// the symbol that begins there. Returns ok=false, not an error, when
// no symbol covers the position.
func (f *Facade) FindDefinition(file string, position symtypes.Position) (symbol symtypes.Symbol, ok bool, err error) {
	idx, err := f.index()
	if err != nil {
		return symtypes.Symbol{}, false, err
	}

	var best *symtypes.Symbol
	for _, sym := range idx.SymbolsInFile(file) {
		sym := sym
		if !sym.Range.Contains(position) {
			continue
		}
		if best == nil {
			best = &sym
			continue
		}
		span, bestSpan := rangeSpan(sym.Range), rangeSpan(best.Range)
		if span < bestSpan || (span == bestSpan && best.Range.Start.Less(sym.Range.Start)) {
			best = &sym
		}
	}
	if best == nil {
		return symtypes.Symbol{}, false, nil
	}
	return *best, true, nil
}

func rangeSpan(r symtypes.Range) int {
	lines := r.End.Line - r.Start.Line
	cols := r.End.Column - r.Start.Column
	return lines*1_000_000 + cols
}

// FindReferences returns every symbol with an outgoing Reference edge
// targeting id.
func (f *Facade) FindReferences(id string) ([]symtypes.Symbol, error) {
	idx, err := f.index()
	if err != nil {
		return nil, err
	}
	return analysis.FindReferences(idx.Graph(), id)
}

// CallHierarchyTree is a flattened, depth-annotated view of the BFS
// frontier from root. Entries already carry their depth, so the tree
// is represented as that ordered entry list rather than a nested
// structure the caller would have to re-flatten anyway.
type CallHierarchyTree struct {
	Root      string
	Direction symtypes.Direction
	Entries   []analysis.CallEntry
}

// CallHierarchy computes outgoing or incoming calls from id, bounded
// by maxDepth. direction must be DirOutgoing or DirIncoming; DirBoth
// returns the union of both traversals.
func (f *Facade) CallHierarchy(id string, direction symtypes.Direction, maxDepth int) (CallHierarchyTree, error) {
	idx, err := f.index()
	if err != nil {
		return CallHierarchyTree{}, err
	}
	g := idx.Graph()

	switch direction {
	case symtypes.DirOutgoing:
		entries, err := analysis.OutgoingCalls(g, id, maxDepth)
		if err != nil {
			return CallHierarchyTree{}, err
		}
		return CallHierarchyTree{Root: id, Direction: direction, Entries: entries}, nil
	case symtypes.DirIncoming:
		entries, err := analysis.IncomingCalls(g, id, maxDepth)
		if err != nil {
			return CallHierarchyTree{}, err
		}
		return CallHierarchyTree{Root: id, Direction: direction, Entries: entries}, nil
	default:
		out, err := analysis.OutgoingCalls(g, id, maxDepth)
		if err != nil {
			return CallHierarchyTree{}, err
		}
		in, err := analysis.IncomingCalls(g, id, maxDepth)
		if err != nil {
			return CallHierarchyTree{}, err
		}
		return CallHierarchyTree{Root: id, Direction: direction, Entries: append(out, in...)}, nil
	}
}

// FindCallPaths enumerates simple call paths from -> to, bounded by maxDepth.
func (f *Facade) FindCallPaths(from, to string, maxDepth int) ([][]string, error) {
	idx, err := f.index()
	if err != nil {
		return nil, err
	}
	return analysis.FindCallPaths(idx.Graph(), from, to, maxDepth)
}

// DefinitionChain follows Definition edges from id.
func (f *Facade) DefinitionChain(id string) (analysis.DefinitionChain, error) {
	idx, err := f.index()
	if err != nil {
		return analysis.DefinitionChain{}, err
	}
	return analysis.FollowDefinitionChain(idx.Graph(), id)
}

// AllDefinitionChains enumerates every simple Definition-edge path
// from id.
func (f *Facade) AllDefinitionChains(id string) ([]analysis.DefinitionChain, error) {
	idx, err := f.index()
	if err != nil {
		return nil, err
	}
	return analysis.AllDefinitionChains(idx.Graph(), id)
}

// ShortestDefinitionPath runs BFS over Definition edges.
func (f *Facade) ShortestDefinitionPath(from, to string) ([]string, bool, error) {
	idx, err := f.index()
	if err != nil {
		return nil, false, err
	}
	return analysis.ShortestDefinitionPath(idx.Graph(), from, to)
}

// TypeRelations collects the relations of a type-like root symbol.
func (f *Facade) TypeRelations(id string, depth int) (analysis.TypeRelations, error) {
	idx, err := f.index()
	if err != nil {
		return analysis.TypeRelations{}, err
	}
	return analysis.ComputeTypeRelations(idx.Graph(), id, depth)
}

// TypeHierarchy computes parents, children, and siblings over
// Definition edges.
func (f *Facade) TypeHierarchy(id string, maxDepth int) (analysis.TypeHierarchy, error) {
	idx, err := f.index()
	if err != nil {
		return analysis.TypeHierarchy{}, err
	}
	return analysis.ComputeTypeHierarchy(idx.Graph(), id, maxDepth)
}

// DeadCode returns the ids of symbols unreachable from any configured
// entry point.
func (f *Facade) DeadCode() ([]string, error) {
	idx, err := f.index()
	if err != nil {
		return nil, err
	}
	return idx.DetectDeadCode(f.rule), nil
}

// Complexity computes cyclomatic/cognitive complexity, fan-in/out, and
// coupling for a function/method symbol.
func (f *Facade) Complexity(id string) (analysis.ComplexityMetrics, error) {
	idx, err := f.index()
	if err != nil {
		return analysis.ComplexityMetrics{}, err
	}
	return analysis.ComputeComplexity(idx.Graph(), id)
}

// SuggestSymbol returns up to limit symbol ids whose name is a close
// fuzzy match for query, for callers that want a "did you mean"
// hint after a NotFound error on a mistyped id (e.g. the CLI's refs
// command). It never errors: an empty result means
// no close match, not a missing index.
func (f *Facade) SuggestSymbol(query string, limit int) []string {
	idx, err := f.index()
	if err != nil {
		return nil
	}
	// A full canonical id ("<file>#<line>:<character>:<name>") is
	// matched by its name segment.
	if i := strings.LastIndex(query, ":"); i >= 0 {
		query = query[i+1:]
	}
	all := idx.Graph().AllSymbols()
	names := make(map[string][]string, len(all))
	byName := make([]string, 0, len(all))
	for _, sym := range all {
		if _, ok := names[sym.Name]; !ok {
			byName = append(byName, sym.Name)
		}
		names[sym.Name] = append(names[sym.Name], sym.ID)
	}

	matcher := suggest.Default()
	topNames := matcher.Top(query, byName, limit)

	var out []string
	for _, n := range topNames {
		out = append(out, names[n]...)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CircularDependencies runs Tarjan's SCC over the full graph and
// returns every strongly-connected component of size > 1.
func (f *Facade) CircularDependencies() ([]analysis.CircularDependency, error) {
	idx, err := f.index()
	if err != nil {
		return nil, err
	}
	return analysis.DetectCircularDependencies(idx.Graph()), nil
}
