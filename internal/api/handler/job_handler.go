package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voicegen/internal/api/dto"
	"voicegen/internal/job"
)

// CreateJob handles POST /api/v1/jobs
// Submits a new voicebank generation job and dispatches it to the work queue
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	j, err := h.service.Submit(c.Request.Context(), job.TypeVoicebankGeneration, req.GenerationParams())
	if err != nil {
		h.writeError(c, err, "Failed to submit job")
		return
	}

	if err := h.dispatcher.Enqueue(c.Request.Context(), j.ID); err != nil {
		// The record exists but no worker will ever pick it up; better to
		// report degraded than to let the client poll an orphan forever.
		h.logger.Error("Failed to dispatch job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to dispatch job to work queue",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.JobDTOFrom(j))
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the job with its latest progress snapshot merged in
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	j, err := h.service.Fetch(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err, "Failed to get job")
		return
	}

	c.JSON(http.StatusOK, dto.JobDTOFrom(j))
}

// SubscribeNotification handles POST /api/v1/jobs/:job_id/notification
// Registers a completion email for the job
func (h *JobHandler) SubscribeNotification(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	var req dto.SubscribeNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "A valid email is required",
		})
		return
	}

	outcome, err := h.service.SubscribeNotification(c.Request.Context(), jobID, req.Email)
	if err != nil {
		h.writeError(c, err, "Failed to subscribe notification")
		return
	}

	c.JSON(http.StatusOK, dto.SubscribeNotificationResponse{
		JobID:   jobID,
		Outcome: string(outcome),
	})
}

// writeError maps domain errors onto HTTP status codes
func (h *JobHandler) writeError(c *gin.Context, err error, msg string) {
	h.logger.Error(msg,
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)

	switch {
	case errors.Is(err, job.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No such job"})
	case errors.Is(err, job.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, job.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, job.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Job store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
