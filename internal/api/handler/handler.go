package handler

import (
	"log/slog"

	"voicegen/internal/job"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Service    *job.Service
	Dispatcher *job.Dispatcher
	Store      job.Store
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger     *slog.Logger
	service    *job.Service
	dispatcher *job.Dispatcher
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		service:    deps.Service,
		dispatcher: deps.Dispatcher,
	}
}
