// internal/storage/batch/interface.go
package batch

import (
	"context"
	"time"

	"github.com/newthinker/binsig/internal/core"
)

// Store keeps generated batches for one display/export cycle.
type Store interface {
	// Save persists a batch under its ID.
	Save(ctx context.Context, b core.Batch) error

	// Get retrieves a batch by ID. Unknown or expired IDs yield core.ErrBatchNotFound.
	Get(ctx context.Context, id string) (*core.Batch, error)

	// List returns live batches matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.Batch, error)
}

// ListFilter defines criteria for listing batches.
type ListFilter struct {
	Market string
	From   time.Time
	To     time.Time
	Limit  int
}

func (f ListFilter) matches(b core.Batch) bool {
	if f.Market != "" && b.Request.Market != f.Market {
		return false
	}
	if !f.From.IsZero() && b.GeneratedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && b.GeneratedAt.After(f.To) {
		return false
	}
	return true
}
