// internal/api/handler/api/batches.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/binsig/internal/api/response"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/storage/batch"
)

const defaultListLimit = 20

// BatchApp defines the interface needed from app.App.
type BatchApp interface {
	Batch(ctx context.Context, id string) (*core.Batch, error)
	Batches(ctx context.Context, filter batch.ListFilter) ([]core.Batch, error)
	Export(ctx context.Context, id string) (filename, text string, err error)
}

// BatchesHandler serves stored batches and their exports.
type BatchesHandler struct {
	app BatchApp
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(app BatchApp) *BatchesHandler {
	return &BatchesHandler{app: app}
}

// List returns live batches matching query parameters.
func (h *BatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := batch.ListFilter{
		Market: q.Get("market"),
		Limit:  defaultListLimit,
	}

	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = t
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	batches, err := h.app.Batches(r.Context(), filter)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"batches": batches,
		"count":   len(batches),
		"limit":   filter.Limit,
	})
}

// Get returns a single batch by ID.
func (h *BatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.app.Batch(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, b)
}

// Export returns the text rendering of a batch.
func (h *BatchesHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename, text, err := h.app.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"content":  text,
	})
}
