package dto

import (
	"encoding/json"
	"time"

	"voicegen/internal/job"
)

// CreateJobRequest carries the inputs for submitting a voicebank generation job
type CreateJobRequest struct {
	SessionID       string `json:"session_id" binding:"required"`
	OutputName      string `json:"output_name" binding:"required"`
	OutputPath      string `json:"output_path"`
	IncludeSamples  bool   `json:"include_samples"`
	IncludeMetadata bool   `json:"include_metadata"`
	Encoding        string `json:"encoding"`
	NotifyEmail     string `json:"notify_email"`
}

// GenerationParams converts the request into the domain params variant
func (r *CreateJobRequest) GenerationParams() job.Params {
	return job.Params{
		Generation: &job.GenerationParams{
			SessionID:       r.SessionID,
			OutputName:      r.OutputName,
			OutputPath:      r.OutputPath,
			IncludeSamples:  r.IncludeSamples,
			IncludeMetadata: r.IncludeMetadata,
			Encoding:        r.Encoding,
			NotifyEmail:     r.NotifyEmail,
		},
	}
}

// SubscribeNotificationRequest attaches a completion email to an existing job
type SubscribeNotificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SubscribeNotificationResponse reports how the subscription was handled
type SubscribeNotificationResponse struct {
	JobID   string `json:"job_id"`
	Outcome string `json:"outcome"`
}

// ProgressDTO is the progress snapshot within a job response
type ProgressDTO struct {
	Percent   float64 `json:"percent"`
	Message   string  `json:"message"`
	UpdatedAt string  `json:"updated_at"`
}

// ResultDTO is the terminal payload within a job response
type ResultDTO struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JobDTO is the API representation of a job
type JobDTO struct {
	JobID     string       `json:"job_id"`
	Type      string       `json:"type"`
	Status    string       `json:"status"`
	Params    job.Params   `json:"params"`
	Progress  *ProgressDTO `json:"progress,omitempty"`
	Result    *ResultDTO   `json:"result,omitempty"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

// JobDTOFrom maps a domain job to its API representation
func JobDTOFrom(j *job.Job) JobDTO {
	d := JobDTO{
		JobID:     j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Params:    j.Params,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}

	if j.Progress != nil {
		d.Progress = &ProgressDTO{
			Percent:   j.Progress.Percent,
			Message:   j.Progress.Message,
			UpdatedAt: j.Progress.UpdatedAt.Format(time.RFC3339),
		}
	}

	if j.Result != nil {
		d.Result = &ResultDTO{
			Success: j.Result.Success,
			Data:    j.Result.Data,
			Error:   j.Result.Error,
		}
	}

	return d
}
