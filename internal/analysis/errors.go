package analysis

import "github.com/symgraph/engine/internal/errs"

func notFound(op, id string) error {
	return errs.NotFound(op, id)
}
