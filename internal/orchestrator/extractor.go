// Package orchestrator drives end-to-end incremental re-indexing:
// open the persistent store, load the prior snapshot, ask the change
// detector for the delta, invoke the extractor for each changed file,
// apply a batch update, and persist the new snapshot.
package orchestrator

import (
	"context"

	"github.com/symgraph/engine/internal/symtypes"
)

// Extractor is the external collaborator that turns a file's content
// into symbols. The core never prescribes how it works, only that it
// is deterministic for identical input.
type Extractor interface {
	Extract(ctx context.Context, path, languageHint string) ([]symtypes.Symbol, []ExtractedEdge, error)
}

// ExtractedEdge names an edge the extractor discovered among the
// symbols it just emitted (or from one of them to an already-known
// symbol elsewhere in the graph).
type ExtractedEdge struct {
	FromID string
	ToID   string
	Kind   symtypes.EdgeKind
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path, languageHint string) ([]symtypes.Symbol, []ExtractedEdge, error)

func (f ExtractorFunc) Extract(ctx context.Context, path, languageHint string) ([]symtypes.Symbol, []ExtractedEdge, error) {
	return f(ctx, path, languageHint)
}
