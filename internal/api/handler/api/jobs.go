// internal/api/handler/api/jobs.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/binsig/internal/api/job"
	"github.com/newthinker/binsig/internal/api/request"
	"github.com/newthinker/binsig/internal/api/response"
	"github.com/newthinker/binsig/internal/core"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

// JobsHandler runs signal generation in the background.
type JobsHandler struct {
	app      SignalApp
	jobStore *job.Store
	logger   *zap.Logger
	observe  func(counts map[job.Status]int)
}

// NewJobsHandler creates a new jobs handler. observe, when non-nil, is
// called with the per-status job counts after every transition.
func NewJobsHandler(app SignalApp, jobStore *job.Store, logger *zap.Logger, observe func(map[job.Status]int)) *JobsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobsHandler{app: app, jobStore: jobStore, logger: logger, observe: observe}
}

// Create starts a new generation job. Requests that would be rejected
// are refused up front instead of producing a failed job.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := request.DecodeJSON(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	if res := h.app.Check(req); !res.Valid {
		response.Fail(w, &core.Error{Code: res.Code, Message: res.Message, Field: res.Field})
		return
	}

	j := h.jobStore.Create(req.Market)
	h.report()

	go h.run(j.ID, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

func (h *JobsHandler) run(jobID string, req core.Request) {
	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	b, err := h.app.Submit(ctx, req)

	if err != nil {
		h.logger.Warn("generation job failed", zap.String("job_id", jobID), zap.Error(err))
		var cerr *core.Error
		if !errors.As(err, &cerr) {
			cerr = core.WrapError(core.ErrGenerationFailed, err)
		}
		h.update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = cerr
		})
		return
	}

	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.BatchID = b.ID
	})
}

func (h *JobsHandler) update(jobID string, fn func(*job.Job)) {
	if err := h.jobStore.Update(jobID, fn); err != nil {
		// evicted while running
		h.logger.Debug("job update dropped", zap.String("job_id", jobID), zap.Error(err))
	}
	h.report()
}

func (h *JobsHandler) report() {
	if h.observe != nil {
		h.observe(h.jobStore.Counts())
	}
}

// Get returns the status of a job.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, j)
}
