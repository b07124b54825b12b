// Package analysis implements the read-only analytic traversals over a
// symbol graph: reference finding, definition chains, call hierarchy,
// type relations, and complexity metrics.
package analysis

import (
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

// FindReferences returns the symbols with an outgoing Reference edge
// targeting id.
func FindReferences(g *graphstore.Graph, id string) ([]symtypes.Symbol, error) {
	h, ok := g.GetHandle(id)
	if !ok {
		return nil, notFound("find_references", id)
	}
	kind := symtypes.EdgeReference
	sources, err := g.Neighbors(h, symtypes.DirIncoming, &kind)
	if err != nil {
		return nil, err
	}
	out := make([]symtypes.Symbol, 0, len(sources))
	for _, s := range sources {
		if sym, ok := g.Symbol(s); ok {
			out = append(out, sym)
		}
	}
	return out, nil
}
