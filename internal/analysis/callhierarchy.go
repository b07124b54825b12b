package analysis

import (
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

var referenceKind = symtypes.EdgeReference

// CallEntry is one node in a call-hierarchy result, annotated with its
// depth from the root.
type CallEntry struct {
	ID    string
	Depth int
}

// OutgoingCalls does a BFS from id over outgoing Reference edges to
// Function/Method/Constructor targets, bounded by maxDepth.
func OutgoingCalls(g *graphstore.Graph, id string, maxDepth int) ([]CallEntry, error) {
	return callHierarchyBFS(g, id, maxDepth, symtypes.DirOutgoing)
}

// IncomingCalls is the symmetric traversal over incoming Reference edges.
func IncomingCalls(g *graphstore.Graph, id string, maxDepth int) ([]CallEntry, error) {
	return callHierarchyBFS(g, id, maxDepth, symtypes.DirIncoming)
}

func callHierarchyBFS(g *graphstore.Graph, id string, maxDepth int, dir symtypes.Direction) ([]CallEntry, error) {
	h, ok := g.GetHandle(id)
	if !ok {
		return nil, notFound("call_hierarchy", id)
	}

	type item struct {
		h     graphstore.Handle
		depth int
	}

	visited := map[graphstore.Handle]bool{h: true}
	queue := []item{{h: h, depth: 0}}
	var out []CallEntry

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		neighbors, err := g.Neighbors(cur.h, dir, &referenceKind)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			sym, ok := g.Symbol(n)
			if !ok || !sym.Kind.IsCallable() {
				continue
			}
			entry := CallEntry{ID: sym.ID, Depth: cur.depth + 1}
			out = append(out, entry)
			queue = append(queue, item{h: n, depth: cur.depth + 1})
		}
	}
	return out, nil
}

// FindCallPaths enumerates simple paths from "from" to "to" over
// Reference edges, length <= maxDepth.
func FindCallPaths(g *graphstore.Graph, from, to string, maxDepth int) ([][]string, error) {
	fromHandle, ok := g.GetHandle(from)
	if !ok {
		return nil, notFound("find_call_paths", from)
	}
	if _, ok := g.GetHandle(to); !ok {
		return nil, notFound("find_call_paths", to)
	}

	var results [][]string
	startSym, _ := g.Symbol(fromHandle)

	var walk func(h graphstore.Handle, path []string, visited map[string]bool)
	walk = func(h graphstore.Handle, path []string, visited map[string]bool) {
		if len(path) > maxDepth+1 {
			return
		}
		sym, ok := g.Symbol(h)
		if !ok {
			return
		}
		if sym.ID == to && len(path) > 1 {
			results = append(results, append([]string(nil), path...))
			return
		}
		if len(path) > maxDepth {
			return
		}
		neighbors, err := g.Neighbors(h, symtypes.DirOutgoing, &referenceKind)
		if err != nil {
			return
		}
		for _, n := range neighbors {
			nSym, ok := g.Symbol(n)
			if !ok || visited[nSym.ID] {
				continue
			}
			nextVisited := make(map[string]bool, len(visited)+1)
			for k := range visited {
				nextVisited[k] = true
			}
			nextVisited[nSym.ID] = true
			walk(n, append(path, nSym.ID), nextVisited)
		}
	}

	walk(fromHandle, []string{startSym.ID}, map[string]bool{startSym.ID: true})
	return results, nil
}
