// internal/api/handler/api/signals.go
package api

import (
	"context"
	"net/http"

	"github.com/newthinker/binsig/internal/api/request"
	"github.com/newthinker/binsig/internal/api/response"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/signal"
)

// SignalApp defines the interface needed from app.App.
type SignalApp interface {
	Submit(ctx context.Context, req core.Request) (*core.Batch, error)
	Check(req core.Request) signal.ValidationResult
}

// SignalsHandler handles synchronous signal generation.
type SignalsHandler struct {
	app SignalApp
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(app SignalApp) *SignalsHandler {
	return &SignalsHandler{app: app}
}

// Create validates the request, generates a batch and returns it.
func (h *SignalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := request.DecodeJSON(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	b, err := h.app.Submit(r.Context(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, b)
}

// Validate reports whether a request would be accepted without generating.
// Field-level problems are returned as errors; core rejections come back
// as an invalid result with status 200.
func (h *SignalsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req, err := request.DecodeJSON(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.app.Check(req))
}
