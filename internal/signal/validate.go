// Package signal validates signal requests and generates timed signal batches.
package signal

import (
	"errors"
	"fmt"

	"github.com/newthinker/binsig/internal/core"
)

// MinGap and MaxGap bound the randomized spacing, in minutes, between
// consecutive signals.
const (
	MinGap = 3
	MaxGap = 20
)

// Validate checks a request before generation. It returns nil or a
// *core.Error carrying one of ErrInvalidTimeFormat, ErrBacktestWindowTooShort,
// ErrInvalidTimeRange or ErrWindowTooShortForCount. Checks run in that order
// and the first failure is returned.
func Validate(req core.Request) error {
	start, ok := core.ParseClock(req.Start)
	if !ok {
		return core.WithMessage(core.ErrInvalidTimeFormat, "start_time",
			"Invalid start time format. Please use HH:MM format (e.g., 09:30)")
	}
	end, ok := core.ParseClock(req.End)
	if !ok {
		return core.WithMessage(core.ErrInvalidTimeFormat, "end_time",
			"Invalid end time format. Please use HH:MM format (e.g., 16:30)")
	}

	if req.Backtest && req.BacktestDays < core.MinBacktestDays {
		return core.WithMessage(core.ErrBacktestWindowTooShort, "backtest_days",
			core.ErrBacktestWindowTooShort.Message)
	}

	if end <= start {
		return core.WithMessage(core.ErrInvalidTimeRange, "end_time",
			core.ErrInvalidTimeRange.Message)
	}

	total := int(end - start)
	if total < (req.Count-1)*MinGap {
		return core.WithMessage(core.ErrWindowTooShortForCount, "count",
			fmt.Sprintf("Selected time range is too short for %d signals with minimum %d-minute gaps", req.Count, MinGap))
	}

	return nil
}

// ValidationResult is the value form of Validate's outcome.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// Check runs Validate and folds the outcome into a ValidationResult.
func Check(req core.Request) ValidationResult {
	err := Validate(req)
	if err == nil {
		return ValidationResult{Valid: true}
	}
	var e *core.Error
	if errors.As(err, &e) {
		return ValidationResult{Code: e.Code, Field: e.Field, Message: e.Message}
	}
	return ValidationResult{Message: err.Error()}
}
