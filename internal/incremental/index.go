// Package incremental maintains a symbol graph under file-scoped
// updates: each update replaces the full symbol set owned by one file
// atomically, without disturbing symbols owned by other files.
package incremental

import (
	"sort"
	"sync"

	"github.com/symgraph/engine/internal/errs"
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

// FileUpdate is the input to UpdateFile: the complete, final symbol
// set for one file plus the edges among them (and to symbols already
// known elsewhere in the graph).
type FileUpdate struct {
	FilePath string
	Symbols  []symtypes.Symbol
	Edges    []EdgeSpec
	Hash     string
}

// EdgeSpec names an edge by symbol id rather than handle, since
// handles for newly-extracted symbols don't exist until after they're
// added to the graph.
type EdgeSpec struct {
	FromID string
	ToID   string
	Kind   symtypes.EdgeKind
}

// UpdateResult reports what changed in one UpdateFile/BatchUpdate
// call: per-file and per-symbol counters, the ids flagged dead by the
// last dead-code pass, and the files skipped because their extraction
// failed.
type UpdateResult struct {
	FilesAdded      int
	FilesModified   int
	FilesDeleted    int
	SymbolsAdded    int
	SymbolsModified int
	SymbolsRemoved  int
	EdgesAdded      int
	DeadSymbols     []string
	SkippedFiles    []string
	Errors          []error
}

func (r *UpdateResult) merge(o UpdateResult) {
	r.FilesAdded += o.FilesAdded
	r.FilesModified += o.FilesModified
	r.FilesDeleted += o.FilesDeleted
	r.SymbolsAdded += o.SymbolsAdded
	r.SymbolsModified += o.SymbolsModified
	r.SymbolsRemoved += o.SymbolsRemoved
	r.EdgesAdded += o.EdgesAdded
	r.Errors = append(r.Errors, o.Errors...)
}

// Index owns a graphstore.Graph plus the secondary file_path to
// handles index the raw graph store does not maintain on its own.
type Index struct {
	mu        sync.RWMutex
	graph     *graphstore.Graph
	fileOwner map[string][]graphstore.Handle
	fileHash  map[string]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		graph:     graphstore.New(),
		fileOwner: make(map[string][]graphstore.Handle),
		fileHash:  make(map[string]string),
	}
}

// FromGraph wraps an already-populated graph, rebuilding the file
// ownership index from the graph's symbols and seeding the hash cache
// (used after loading a persisted snapshot, where file ownership must
// be recomputed rather than carried across since snapshots don't
// encode it directly).
func FromGraph(g *graphstore.Graph, hashes map[string]string) *Index {
	idx := &Index{graph: g, fileOwner: make(map[string][]graphstore.Handle), fileHash: make(map[string]string)}
	for _, h := range g.AllHandles() {
		sym, ok := g.Symbol(h)
		if !ok {
			continue
		}
		idx.fileOwner[sym.FilePath] = append(idx.fileOwner[sym.FilePath], h)
	}
	for path, hash := range hashes {
		idx.fileHash[path] = hash
	}
	return idx
}

// Graph exposes the underlying graph for read-only traversal by the
// analysis layer.
func (idx *Index) Graph() *graphstore.Graph { return idx.graph }

// AddSymbol inserts one symbol and records it in the ownership map
// for its file.
func (idx *Index) AddSymbol(sym symtypes.Symbol) (graphstore.Handle, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	sym = sym.Normalize()
	h, err := idx.graph.AddSymbol(sym)
	if err != nil {
		return graphstore.Handle{}, err
	}
	idx.fileOwner[sym.FilePath] = append(idx.fileOwner[sym.FilePath], h)
	return h, nil
}

// UpdateFile atomically replaces the symbol set owned by filePath,
// diffing by id: previously-owned symbols absent from the new set are
// removed with their incident edges, new ids are added, and ids
// present in both keep their handle (and edges), with changed fields
// updated in place. The new edges are then added. All of this runs
// under a single write lock so readers never observe a partial state.
func (idx *Index) UpdateFile(u FileUpdate) UpdateResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.updateFileLocked(u)
}

func (idx *Index) updateFileLocked(u FileUpdate) UpdateResult {
	var result UpdateResult

	existing, fileKnown := idx.fileOwner[u.FilePath]
	existingByID := make(map[string]graphstore.Handle, len(existing))
	existingIDs := make([]string, 0, len(existing))
	for _, h := range existing {
		if sym, ok := idx.graph.Symbol(h); ok {
			existingByID[sym.ID] = h
			existingIDs = append(existingIDs, sym.ID)
		}
	}

	// Normalize up front; iterate the input slice (never the map) so
	// insertion order, and therefore handle and neighbor order, is
	// deterministic across runs on identical input.
	normalized := make([]symtypes.Symbol, 0, len(u.Symbols))
	newByID := make(map[string]symtypes.Symbol, len(u.Symbols))
	for _, s := range u.Symbols {
		s = s.Normalize()
		if _, dup := newByID[s.ID]; dup {
			continue
		}
		newByID[s.ID] = s
		normalized = append(normalized, s)
	}

	for _, id := range existingIDs {
		if _, stillPresent := newByID[id]; !stillPresent {
			if idx.graph.RemoveSymbol(id) {
				result.SymbolsRemoved++
			}
		}
	}

	newHandles := make([]graphstore.Handle, 0, len(normalized))
	for _, sym := range normalized {
		if h, had := existingByID[sym.ID]; had && idx.graph.IsLive(h) {
			priorSym, _ := idx.graph.Symbol(h)
			if !priorSym.Equal(sym) {
				if err := idx.graph.UpdateInPlace(h, sym); err != nil {
					result.Errors = append(result.Errors, err)
					continue
				}
				result.SymbolsModified++
			}
			newHandles = append(newHandles, h)
			continue
		}
		h, err := idx.graph.AddSymbol(sym)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		newHandles = append(newHandles, h)
		result.SymbolsAdded++
	}

	if len(newHandles) > 0 {
		idx.fileOwner[u.FilePath] = newHandles
	} else {
		delete(idx.fileOwner, u.FilePath)
	}
	if u.Hash != "" {
		idx.fileHash[u.FilePath] = u.Hash
	}

	if fileKnown {
		result.FilesModified++
	} else if len(newHandles) > 0 {
		result.FilesAdded++
	}

	for _, e := range u.Edges {
		from, ok := idx.graph.GetHandle(e.FromID)
		if !ok {
			result.Errors = append(result.Errors, errs.NotFound("update_file edge from", e.FromID))
			continue
		}
		to, ok := idx.graph.GetHandle(e.ToID)
		if !ok {
			result.Errors = append(result.Errors, errs.NotFound("update_file edge to", e.ToID))
			continue
		}
		if err := idx.graph.AddEdge(from, to, e.Kind); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.EdgesAdded++
	}

	return result
}

// RemoveFile drops every symbol owned by filePath (used for deleted
// files in a batch update).
func (idx *Index) RemoveFile(filePath string) UpdateResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.removeFileLocked(filePath)
}

func (idx *Index) removeFileLocked(filePath string) UpdateResult {
	var result UpdateResult
	owned, known := idx.fileOwner[filePath]
	for _, h := range owned {
		sym, ok := idx.graph.Symbol(h)
		if !ok {
			continue
		}
		if idx.graph.RemoveSymbol(sym.ID) {
			result.SymbolsRemoved++
		}
	}
	if known {
		result.FilesDeleted++
	}
	delete(idx.fileOwner, filePath)
	delete(idx.fileHash, filePath)
	return result
}

// BatchEntry is one element of a BatchUpdate: either a whole-file
// deletion or a whole-file replacement.
type BatchEntry struct {
	FilePath string
	Deleted  bool
	Update   *FileUpdate // nil when Deleted is true
}

// BatchUpdate applies deletions, then modifications and additions, in
// that order, so that a symbol moving between files in the same batch
// never collides with its own stale entry. The whole batch runs under
// one write lock, so external readers observe it atomically.
func (idx *Index) BatchUpdate(entries []BatchEntry) UpdateResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var result UpdateResult

	ordered := make([]BatchEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return batchRank(ordered[i]) < batchRank(ordered[j])
	})

	for _, e := range ordered {
		if e.Deleted {
			result.merge(idx.removeFileLocked(e.FilePath))
			continue
		}
		if e.Update != nil {
			result.merge(idx.updateFileLocked(*e.Update))
		}
	}

	return result
}

// batchRank puts deletions (rank 0) before every other entry (rank 1).
// Modified and added files share rank 1, since both go through
// updateFileLocked, which already diffs old-vs-new per file; among
// them the stable sort keeps input order, so modifications are not
// moved ahead of additions.
func batchRank(e BatchEntry) int {
	if e.Deleted {
		return 0
	}
	return 1
}

// FilesOwned returns the file paths currently tracked by the index.
func (idx *Index) FilesOwned() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.fileOwner))
	for f := range idx.fileOwner {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FileHash returns the last-recorded content hash for filePath, if any.
func (idx *Index) FileHash(filePath string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	h, ok := idx.fileHash[filePath]
	return h, ok
}

// SymbolsInFile returns the live symbols currently owned by filePath.
func (idx *Index) SymbolsInFile(filePath string) []symtypes.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	handles := idx.fileOwner[filePath]
	out := make([]symtypes.Symbol, 0, len(handles))
	for _, h := range handles {
		if sym, ok := idx.graph.Symbol(h); ok {
			out = append(out, sym)
		}
	}
	return out
}
