// Package graphstore implements the in-memory directed multigraph of
// symbols: an arena of vertex slots with stable (index, generation)
// handles, a primary id->handle index, and per-vertex adjacency lists
// keyed by edge kind.
package graphstore

import (
	"sync"

	"github.com/symgraph/engine/internal/errs"
	"github.com/symgraph/engine/internal/symtypes"
)

// Handle is a stable, non-id reference to a graph vertex. A removed
// slot is not reused until its generation has advanced, so a stale
// Handle captured before a removal can always be detected.
type Handle struct {
	Index      uint32
	Generation uint32
}

// zero Handle never matches a live slot (generation 0 is used as the
// initial generation of an empty, never-allocated slot).
var zeroHandle Handle

type slot struct {
	sym        symtypes.Symbol
	generation uint32
	alive      bool
	out        [numEdgeKinds][]Handle
	in         [numEdgeKinds][]Handle
}

const numEdgeKinds = int(symtypes.EdgeContains) + 1

// Graph is a directed multigraph of symbols. Parallel edges of
// distinct kinds are allowed; parallel edges of the same kind between
// the same ordered pair collapse to one.
type Graph struct {
	mu       sync.RWMutex
	slots    []slot
	freelist []uint32
	byID     map[string]Handle
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{byID: make(map[string]Handle)}
}

// AddSymbol inserts a new vertex, normalizing the symbol's id to
// canonical form first. Fails with KindDuplicateId if the (possibly
// normalized) id is already present.
func (g *Graph) AddSymbol(sym symtypes.Symbol) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addSymbolLocked(sym)
}

func (g *Graph) addSymbolLocked(sym symtypes.Symbol) (Handle, error) {
	sym = sym.Normalize()
	if _, exists := g.byID[sym.ID]; exists {
		return Handle{}, errs.DuplicateId("add_symbol", sym.ID)
	}

	var idx uint32
	if n := len(g.freelist); n > 0 {
		idx = g.freelist[n-1]
		g.freelist = g.freelist[:n-1]
		s := &g.slots[idx]
		s.sym = sym
		s.alive = true
		s.out = [numEdgeKinds][]Handle{}
		s.in = [numEdgeKinds][]Handle{}
	} else {
		idx = uint32(len(g.slots))
		g.slots = append(g.slots, slot{sym: sym, generation: 1, alive: true})
	}

	h := Handle{Index: idx, Generation: g.slots[idx].generation}
	g.byID[sym.ID] = h
	return h, nil
}

// AddSymbols bulk-inserts a batch, reserving capacity up front.
// Returned handles are in input order. Fails on the first duplicate id
// encountered, leaving prior insertions from the same call in place;
// batch-level atomicity is the incremental index's responsibility.
func (g *Graph) AddSymbols(batch []symtypes.Symbol) ([]Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if extra := len(batch) - len(g.freelist); extra > 0 && cap(g.slots)-len(g.slots) < extra {
		grown := make([]slot, len(g.slots), len(g.slots)+extra)
		copy(grown, g.slots)
		g.slots = grown
	}

	handles := make([]Handle, 0, len(batch))
	for _, sym := range batch {
		h, err := g.addSymbolLocked(sym)
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// RemoveSymbol removes the vertex for id and every edge incident on
// it, returning whether anything was removed.
func (g *Graph) RemoveSymbol(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	h, ok := g.byID[id]
	if !ok {
		return false
	}
	g.removeHandleLocked(h)
	return true
}

func (g *Graph) removeHandleLocked(h Handle) {
	s := &g.slots[h.Index]
	delete(g.byID, s.sym.ID)

	for kind := 0; kind < numEdgeKinds; kind++ {
		for _, target := range s.out[kind] {
			g.unlinkIncoming(target, symtypes.EdgeKind(kind), h)
		}
		for _, source := range s.in[kind] {
			g.unlinkOutgoing(source, symtypes.EdgeKind(kind), h)
		}
	}

	s.sym = symtypes.Symbol{}
	s.alive = false
	s.generation++
	s.out = [numEdgeKinds][]Handle{}
	s.in = [numEdgeKinds][]Handle{}
	g.freelist = append(g.freelist, h.Index)
}

func (g *Graph) unlinkIncoming(target Handle, kind symtypes.EdgeKind, from Handle) {
	if !g.isLiveLocked(target) {
		return
	}
	lst := g.slots[target.Index].in[kind]
	g.slots[target.Index].in[kind] = removeHandle(lst, from)
}

func (g *Graph) unlinkOutgoing(source Handle, kind symtypes.EdgeKind, to Handle) {
	if !g.isLiveLocked(source) {
		return
	}
	lst := g.slots[source.Index].out[kind]
	g.slots[source.Index].out[kind] = removeHandle(lst, to)
}

func removeHandle(lst []Handle, target Handle) []Handle {
	out := lst[:0]
	for _, h := range lst {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

// AddEdge adds an edge from->to of the given kind. Idempotent for
// (from, to, kind): a repeat call is a no-op. Fails with
// KindStaleHandle if either endpoint does not refer to a live vertex.
func (g *Graph) AddEdge(from, to Handle, kind symtypes.EdgeKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isLiveLocked(from) || !g.isLiveLocked(to) {
		return errs.StaleHandle("add_edge")
	}

	outList := g.slots[from.Index].out[kind]
	for _, h := range outList {
		if h == to {
			return nil // already present, collapse duplicate parallel edge
		}
	}
	g.slots[from.Index].out[kind] = append(outList, to)
	g.slots[to.Index].in[kind] = append(g.slots[to.Index].in[kind], from)
	return nil
}

func (g *Graph) isLiveLocked(h Handle) bool {
	if h == zeroHandle {
		return false
	}
	if int(h.Index) >= len(g.slots) {
		return false
	}
	s := &g.slots[h.Index]
	return s.alive && s.generation == h.Generation
}

// IsLive reports whether h currently refers to a live vertex.
func (g *Graph) IsLive(h Handle) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isLiveLocked(h)
}

// FindSymbol looks up a vertex by canonical id.
func (g *Graph) FindSymbol(id string) (symtypes.Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.byID[id]
	if !ok {
		return symtypes.Symbol{}, false
	}
	return g.slots[h.Index].sym, true
}

// GetHandle looks up the handle for a canonical id.
func (g *Graph) GetHandle(id string) (Handle, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.byID[id]
	return h, ok
}

// Symbol returns the symbol stored at h, if h is live.
func (g *Graph) Symbol(h Handle) (symtypes.Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.isLiveLocked(h) {
		return symtypes.Symbol{}, false
	}
	return g.slots[h.Index].sym, true
}

// UpdateInPlace replaces the kind/range/documentation/detail fields of
// an existing vertex without changing its handle or id, used when a
// file update keeps a symbol's id but changes its other fields.
func (g *Graph) UpdateInPlace(h Handle, sym symtypes.Symbol) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.isLiveLocked(h) {
		return errs.StaleHandle("update_in_place")
	}
	id := g.slots[h.Index].sym.ID
	sym.ID = id
	sym.FilePath = g.slots[h.Index].sym.FilePath
	g.slots[h.Index].sym = sym
	return nil
}

// Neighbors enumerates handles reachable from h via edges matching
// direction and, if kindFilter is non-nil, the given kind. Results are
// in insertion order within each (direction, kind) bucket; when kind
// is unfiltered, buckets are concatenated in EdgeKind enum order.
func (g *Graph) Neighbors(h Handle, dir symtypes.Direction, kindFilter *symtypes.EdgeKind) ([]Handle, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.isLiveLocked(h) {
		return nil, errs.StaleHandle("neighbors")
	}

	var result []Handle
	s := &g.slots[h.Index]
	kinds := kindRange(kindFilter)

	if dir == symtypes.DirOutgoing || dir == symtypes.DirBoth {
		for _, k := range kinds {
			result = append(result, s.out[k]...)
		}
	}
	if dir == symtypes.DirIncoming || dir == symtypes.DirBoth {
		for _, k := range kinds {
			result = append(result, s.in[k]...)
		}
	}
	return result, nil
}

func kindRange(filter *symtypes.EdgeKind) []symtypes.EdgeKind {
	if filter != nil {
		return []symtypes.EdgeKind{*filter}
	}
	kinds := make([]symtypes.EdgeKind, numEdgeKinds)
	for i := range kinds {
		kinds[i] = symtypes.EdgeKind(i)
	}
	return kinds
}

// AllSymbols returns every live symbol. Order is unspecified but
// stable within a single graph generation (no intervening mutation).
func (g *Graph) AllSymbols() []symtypes.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]symtypes.Symbol, 0, len(g.slots))
	for i := range g.slots {
		if g.slots[i].alive {
			out = append(out, g.slots[i].sym)
		}
	}
	return out
}

// AllHandles returns the live handle for every vertex, in the same
// order as AllSymbols.
func (g *Graph) AllHandles() []Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Handle, 0, len(g.slots))
	for i := range g.slots {
		if g.slots[i].alive {
			out = append(out, Handle{Index: uint32(i), Generation: g.slots[i].generation})
		}
	}
	return out
}

// Count returns the number of live vertices.
func (g *Graph) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byID)
}
