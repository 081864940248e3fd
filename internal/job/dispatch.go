package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// TaskGenerateVoicebank tags queue messages for the voicebank generation
// worker function.
const TaskGenerateVoicebank = "voicebank.generate"

// Message is the queue payload. It is intentionally minimal: the worker looks
// up the full job and its params by id from the store.
type Message struct {
	JobID string `json:"job_id"`
	Task  string `json:"task"`
}

// Publisher is the queue port the dispatcher publishes through.
// *rabbitmq.Client satisfies it.
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Dispatcher hands newly submitted job ids to the work queue for worker
// pickup. Delivery semantics (at-least-once, per-task concurrency) belong to
// the queue; the lifecycle operations tolerate duplicate dispatch.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewDispatcher creates a dispatch gateway on the given queue publisher.
func NewDispatcher(publisher Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
	}
}

// Enqueue publishes the job id for worker pickup.
func (d *Dispatcher) Enqueue(ctx context.Context, jobID string) error {
	body, err := json.Marshal(Message{JobID: jobID, Task: TaskGenerateVoicebank})
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	if err := d.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}

	d.logger.Info("Job dispatched to work queue",
		slog.String("job_id", jobID),
		slog.String("task", TaskGenerateVoicebank),
	)
	return nil
}
