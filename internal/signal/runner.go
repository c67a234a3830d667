package signal

import (
	"context"
	"time"

	"github.com/newthinker/binsig/internal/core"
)

// Runner performs one validate-then-generate cycle with an optional
// artificial pause before generation.
type Runner struct {
	Delay time.Duration
}

// Run validates req, waits for the configured delay and generates the batch.
// Cancelling ctx during the delay aborts the run with ctx.Err().
func (r Runner) Run(ctx context.Context, req core.Request, rnd Rand) ([]core.Record, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return Generate(req, rnd), nil
}
