package analysis

import (
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

// DefinitionChain is the result of following Definition edges from a
// root symbol until either a natural end or a cycle.
type DefinitionChain struct {
	Chain    []string // symbol ids, root first
	HasCycle bool
}

var definitionKind = symtypes.EdgeDefinition

// FollowDefinitionChain starts from id and repeatedly follows a single
// outgoing Definition edge (the first in insertion order when more
// than one exists) until no such edge exists or the next target is
// already in the chain.
func FollowDefinitionChain(g *graphstore.Graph, id string) (DefinitionChain, error) {
	h, ok := g.GetHandle(id)
	if !ok {
		return DefinitionChain{}, notFound("definition_chain", id)
	}

	visited := map[string]bool{id: true}
	chain := []string{id}
	current := h

	for {
		targets, err := g.Neighbors(current, symtypes.DirOutgoing, &definitionKind)
		if err != nil {
			return DefinitionChain{}, err
		}
		if len(targets) == 0 {
			break
		}
		next := targets[0]
		nextSym, ok := g.Symbol(next)
		if !ok {
			break
		}
		if visited[nextSym.ID] {
			return DefinitionChain{Chain: chain, HasCycle: true}, nil
		}
		visited[nextSym.ID] = true
		chain = append(chain, nextSym.ID)
		current = next
	}

	return DefinitionChain{Chain: chain, HasCycle: false}, nil
}

// AllDefinitionChains enumerates every simple path from id through
// Definition edges, deduplicated by the sequence of ids. A path that
// re-enters an already-visited vertex is returned with HasCycle=true
// and does not include the re-entry vertex a second time.
func AllDefinitionChains(g *graphstore.Graph, id string) ([]DefinitionChain, error) {
	h, ok := g.GetHandle(id)
	if !ok {
		return nil, notFound("all_definition_chains", id)
	}

	var results []DefinitionChain
	seen := map[string]bool{}

	var walk func(current graphstore.Handle, path []string, visited map[string]bool)
	walk = func(current graphstore.Handle, path []string, visited map[string]bool) {
		targets, err := g.Neighbors(current, symtypes.DirOutgoing, &definitionKind)
		if err != nil || len(targets) == 0 {
			key := chainKey(path, false)
			if !seen[key] {
				seen[key] = true
				results = append(results, DefinitionChain{Chain: append([]string(nil), path...), HasCycle: false})
			}
			return
		}
		for _, next := range targets {
			nextSym, ok := g.Symbol(next)
			if !ok {
				continue
			}
			if visited[nextSym.ID] {
				key := chainKey(path, true)
				if !seen[key] {
					seen[key] = true
					results = append(results, DefinitionChain{Chain: append([]string(nil), path...), HasCycle: true})
				}
				continue
			}
			nextVisited := make(map[string]bool, len(visited)+1)
			for k := range visited {
				nextVisited[k] = true
			}
			nextVisited[nextSym.ID] = true
			walk(next, append(path, nextSym.ID), nextVisited)
		}
	}

	startSym, _ := g.Symbol(h)
	walk(h, []string{startSym.ID}, map[string]bool{startSym.ID: true})
	return results, nil
}

func chainKey(path []string, cycle bool) string {
	key := ""
	for _, p := range path {
		key += p + "\x00"
	}
	if cycle {
		key += "cycle"
	}
	return key
}

// bfsNode is a BFS parent-pointer node used to reconstruct the
// shortest path once the target is found.
type bfsNode struct {
	h    graphstore.Handle
	prev *bfsNode
	id   string
}

func reconstructPath(n *bfsNode) []string {
	var rev []string
	for cur := n; cur != nil; cur = cur.prev {
		rev = append(rev, cur.id)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// ShortestDefinitionPath returns the first (shortest, by BFS) path of
// Definition edges from "from" to "to", or ok=false if none exists.
func ShortestDefinitionPath(g *graphstore.Graph, from, to string) (path []string, ok bool, err error) {
	fromHandle, ok1 := g.GetHandle(from)
	_, ok2 := g.GetHandle(to)
	if !ok1 || !ok2 {
		return nil, false, notFound("shortest_definition_path", from)
	}

	startSym, _ := g.Symbol(fromHandle)
	start := &bfsNode{h: fromHandle, id: startSym.ID}
	if start.id == to {
		return []string{to}, true, nil
	}

	visited := map[graphstore.Handle]bool{fromHandle: true}
	queue := []*bfsNode{start}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		targets, err := g.Neighbors(n.h, symtypes.DirOutgoing, &definitionKind)
		if err != nil {
			return nil, false, err
		}
		for _, t := range targets {
			if visited[t] {
				continue
			}
			visited[t] = true
			sym, ok := g.Symbol(t)
			if !ok {
				continue
			}
			next := &bfsNode{h: t, prev: n, id: sym.ID}
			if sym.ID == to {
				return reconstructPath(next), true, nil
			}
			queue = append(queue, next)
		}
	}
	return nil, false, nil
}
