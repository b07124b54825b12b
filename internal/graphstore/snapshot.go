package graphstore

import (
	"bytes"
	"encoding/gob"

	"github.com/symgraph/engine/internal/errs"
	"github.com/symgraph/engine/internal/symtypes"
)

// snapshotEdge identifies an edge by the canonical ids of its
// endpoints rather than by handle, since handles do not survive a
// save/reload cycle.
type snapshotEdge struct {
	FromID string
	ToID   string
	Kind   symtypes.EdgeKind
}

type snapshotPayload struct {
	Vertices []symtypes.Symbol
	Edges    []snapshotEdge
}

// Snapshot serializes the graph's current vertices and edges into a
// byte slice suitable for storage under storage.NamespaceGraph /
// storage.GraphSnapshotKey.
func (g *Graph) Snapshot() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	payload := snapshotPayload{}
	for i := range g.slots {
		if !g.slots[i].alive {
			continue
		}
		payload.Vertices = append(payload.Vertices, g.slots[i].sym)
	}

	for i := range g.slots {
		if !g.slots[i].alive {
			continue
		}
		fromID := g.slots[i].sym.ID
		for kind := 0; kind < numEdgeKinds; kind++ {
			for _, to := range g.slots[i].out[kind] {
				if !g.slots[to.Index].alive {
					continue
				}
				payload.Edges = append(payload.Edges, snapshotEdge{
					FromID: fromID,
					ToID:   g.slots[to.Index].sym.ID,
					Kind:   symtypes.EdgeKind(kind),
				})
			}
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, errs.StorageIo("snapshot", err)
	}
	return buf.Bytes(), nil
}

// LoadSnapshot rebuilds a fresh Graph from bytes produced by Snapshot.
// The result is isomorphic to the graph that produced the bytes:
// vertices match by id, edges match by (kind, source-id, target-id).
func LoadSnapshot(data []byte) (*Graph, error) {
	var payload snapshotPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, errs.StorageCorrupt("load_snapshot", "undecodable graph snapshot: "+err.Error())
	}

	g := New()
	for _, sym := range payload.Vertices {
		if _, err := g.AddSymbol(sym); err != nil {
			return nil, errs.Wrap(errs.KindStorageCorrupt, "load_snapshot", err)
		}
	}
	for _, e := range payload.Edges {
		from, ok := g.GetHandle(e.FromID)
		if !ok {
			return nil, errs.StorageCorrupt("load_snapshot", "edge references unknown source id "+e.FromID)
		}
		to, ok := g.GetHandle(e.ToID)
		if !ok {
			return nil, errs.StorageCorrupt("load_snapshot", "edge references unknown target id "+e.ToID)
		}
		if err := g.AddEdge(from, to, e.Kind); err != nil {
			return nil, err
		}
	}
	return g, nil
}
