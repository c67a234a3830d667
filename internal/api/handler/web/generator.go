package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/newthinker/binsig/internal/api/request"
	"github.com/newthinker/binsig/internal/api/response"
	"github.com/newthinker/binsig/internal/app"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/market"
	"go.uber.org/zap"
)

// GeneratorData holds data for the generator form
type GeneratorData struct {
	Title   string
	Markets []string
	Request core.Request
	Error   string
}

// ResultsData holds data for the results page
type ResultsData struct {
	Title   string
	Batch   *core.Batch
	Insight *app.Insight
}

// Index renders the empty generator form with its defaults.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.form(w, http.StatusOK, request.New(), "")
}

func (h *Handler) form(w http.ResponseWriter, status int, req core.Request, msg string) {
	h.render(w, status, "generator.html", GeneratorData{
		Title:   "Signal Generator",
		Markets: market.Markets,
		Request: req,
		Error:   msg,
	})
}

// Generate handles the form submission. Rejections re-render the form with
// the message; success renders the batch.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := request.DecodeForm(w, r)
	if err != nil {
		h.form(w, response.StatusFor(err), req, userMessage(err))
		return
	}

	b, err := h.app.Submit(r.Context(), req)
	if err != nil {
		h.form(w, response.StatusFor(err), req, userMessage(err))
		return
	}

	insight, err := h.app.Insight(r.Context(), req.Market, req.NewsFilter)
	if err != nil {
		h.logger.Warn("market insight unavailable", zap.String("market", req.Market), zap.Error(err))
	}

	h.render(w, http.StatusOK, "results.html", ResultsData{
		Title:   "Generated Signals",
		Batch:   b,
		Insight: insight,
	})
}

// Download serves the text export of a batch as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename, text, err := h.app.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, userMessage(err), response.StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(text))
}

func userMessage(err error) string {
	var cerr *core.Error
	if errors.As(err, &cerr) {
		return cerr.Message
	}
	return "Something went wrong. Please try again."
}

