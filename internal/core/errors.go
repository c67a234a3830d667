// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Field   string // request field that failed, if any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Field:   base.Field,
		Cause:   cause,
	}
}

// WithMessage returns a copy of base carrying a request-specific message.
func WithMessage(base *Error, field, message string) *Error {
	return &Error{
		Code:    base.Code,
		Message: message,
		Field:   field,
	}
}

// Predefined errors
var (
	// Validation errors
	ErrInvalidTimeFormat      = &Error{Code: "INVALID_TIME_FORMAT", Message: "invalid time format"}
	ErrInvalidTimeRange       = &Error{Code: "INVALID_TIME_RANGE", Message: "End time must be after start time"}
	ErrBacktestWindowTooShort = &Error{Code: "BACKTEST_WINDOW_TOO_SHORT", Message: "Backtest analysis requires minimum 30 days of historical data"}
	ErrWindowTooShortForCount = &Error{Code: "WINDOW_TOO_SHORT_FOR_COUNT", Message: "selected time range is too short"}
	ErrRequestInvalid         = &Error{Code: "REQUEST_INVALID", Message: "request invalid"}
	ErrUnsupportedMarket      = &Error{Code: "UNSUPPORTED_MARKET", Message: "market symbol not supported"}

	// Lookup errors
	ErrBatchNotFound = &Error{Code: "BATCH_NOT_FOUND", Message: "batch not found"}
	ErrJobNotFound   = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}

	// Generation errors
	ErrGenerationFailed = &Error{Code: "GENERATION_FAILED", Message: "signal generation failed"}

	// Collaborator errors
	ErrTransport = &Error{Code: "TRANSPORT_FAILED", Message: "market data request failed"}
	ErrArchive   = &Error{Code: "ARCHIVE_FAILED", Message: "archiving export failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Transport edge errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
	ErrRateLimited  = &Error{Code: "RATE_LIMITED", Message: "too many requests"}

	// LLM errors
	ErrLLMFailed = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
)

// IsValidation reports whether err is one of the user-input rejections
// produced while checking a signal request.
func IsValidation(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ErrInvalidTimeFormat.Code, ErrInvalidTimeRange.Code,
		ErrBacktestWindowTooShort.Code, ErrWindowTooShortForCount.Code:
		return true
	}
	return false
}
