package incremental

import (
	"strings"

	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

// EntryPointRule decides whether a symbol is an entry point: a root
// from which dead-code reachability begins.
type EntryPointRule struct {
	Names      []string // exact-name match, e.g. "main"
	TestPrefix string   // e.g. "test_"
}

// DefaultEntryPointRule treats "main" and test_-prefixed names as roots.
func DefaultEntryPointRule() EntryPointRule {
	return EntryPointRule{Names: []string{"main"}, TestPrefix: "test_"}
}

func (r EntryPointRule) matches(name string) bool {
	for _, n := range r.Names {
		if n == name {
			return true
		}
	}
	if r.TestPrefix != "" && strings.HasPrefix(name, r.TestPrefix) {
		return true
	}
	return false
}

var deadCodeEdgeKinds = [3]symtypes.EdgeKind{
	symtypes.EdgeReference,
	symtypes.EdgeImplementation,
	symtypes.EdgeOverride,
}

// DetectDeadCode performs multi-source reachability from entry points
// over outgoing Reference/Implementation/Override edges and returns
// the ids of every non-entry-point symbol not reached.
func (idx *Index) DetectDeadCode(rule EntryPointRule) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	g := idx.graph
	allHandles := g.AllHandles()

	reached := make(map[graphstore.Handle]bool, len(allHandles))
	var queue []graphstore.Handle

	isEntry := make(map[graphstore.Handle]bool)
	for _, h := range allHandles {
		sym, ok := g.Symbol(h)
		if !ok {
			continue
		}
		if rule.matches(sym.Name) {
			isEntry[h] = true
			if !reached[h] {
				reached[h] = true
				queue = append(queue, h)
			}
		}
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		for _, kind := range deadCodeEdgeKinds {
			k := kind
			neighbors, err := g.Neighbors(h, symtypes.DirOutgoing, &k)
			if err != nil {
				continue
			}
			for _, n := range neighbors {
				if !reached[n] {
					reached[n] = true
					queue = append(queue, n)
				}
			}
		}
	}

	var dead []string
	for _, h := range allHandles {
		if reached[h] {
			continue
		}
		sym, ok := g.Symbol(h)
		if !ok {
			continue
		}
		dead = append(dead, sym.ID)
	}
	return dead
}

// DetectDeadCodeInto records the current dead-symbol set on r.
func (idx *Index) DetectDeadCodeInto(rule EntryPointRule, r *UpdateResult) {
	r.DeadSymbols = idx.DetectDeadCode(rule)
}
