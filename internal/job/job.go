package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job status constants. QUEUED is the initial state; COMPLETED, FAILED and
// DEAD_LETTER are terminal and immutable once reached.
const (
	StatusQueued     = "QUEUED"
	StatusRunning    = "RUNNING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusDeadLetter = "DEAD_LETTER"
)

// Job type constants
const (
	TypeVoicebankGeneration = "voicebank_generation"
)

// Supported text encodings for generated voicebank metadata
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift-jis"
)

// Job is a tracked unit of asynchronous work shared between the API service
// and the worker service. It is persisted as a single record in the store;
// Progress is overlaid from a separately stored record on read.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Params    Params    `json:"params"`
	Progress  *Progress `json:"progress,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Params is a tagged variant keyed by Job.Type. Exactly one variant field is
// set; new job types add a field here without touching existing logic.
type Params struct {
	Generation *GenerationParams `json:"generation,omitempty"`
}

// GenerationParams carries the inputs for a voicebank generation task.
type GenerationParams struct {
	SessionID       string `json:"session_id"`
	OutputName      string `json:"output_name"`
	OutputPath      string `json:"output_path,omitempty"`
	IncludeSamples  bool   `json:"include_samples"`
	IncludeMetadata bool   `json:"include_metadata"`
	Encoding        string `json:"encoding"`
	NotifyEmail     string `json:"notify_email,omitempty"`
}

// Progress is the frequently updated completion snapshot for a running job.
type Progress struct {
	Percent   float64   `json:"percent"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is the terminal payload, set exactly once at finalization. Data and
// Error are mutually exclusive depending on Success.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// New builds a freshly submitted job with a generated id and QUEUED status.
func New(jobType string, params Params) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    StatusQueued,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Terminal reports whether the status admits no further transitions.
func Terminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusDeadLetter:
		return true
	}
	return false
}

// validStatus reports whether s is a status this service produces or accepts.
func validStatus(s string) bool {
	switch s {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed, StatusDeadLetter:
		return true
	}
	return false
}

// Validate checks that the params variant matches the job type and that the
// variant's required fields are present.
func (p Params) Validate(jobType string) error {
	switch jobType {
	case TypeVoicebankGeneration:
		if p.Generation == nil {
			return fmt.Errorf("%w: generation params are required", ErrValidation)
		}
		return p.Generation.validate()
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrValidation, jobType)
	}
}

func (g *GenerationParams) validate() error {
	if g.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	if g.OutputName == "" {
		return fmt.Errorf("%w: output_name is required", ErrValidation)
	}
	switch g.Encoding {
	case EncodingUTF8, EncodingShiftJIS:
	case "":
		g.Encoding = EncodingShiftJIS
	default:
		return fmt.Errorf("%w: unsupported encoding %q", ErrValidation, g.Encoding)
	}
	return nil
}

// NotifyEmail returns the notification email stored in params, if any.
func (j *Job) NotifyEmail() string {
	if j.Params.Generation != nil {
		return j.Params.Generation.NotifyEmail
	}
	return ""
}

// setNotifyEmail attaches email to the params variant.
func (j *Job) setNotifyEmail(email string) error {
	if j.Params.Generation == nil {
		return fmt.Errorf("%w: job %s has no generation params", ErrValidation, j.ID)
	}
	j.Params.Generation.NotifyEmail = email
	return nil
}
