// Package notify defines the completion-notification port. Actual email
// delivery lives outside this subsystem; the implementations here are the
// wiring the services run with.
package notify

import (
	"context"
	"log/slog"

	"voicegen/internal/job"
)

// LogNotifier records completion notifications to the structured log. It
// stands in for the external email delivery mechanism and never fails.
type LogNotifier struct {
	logger *slog.Logger
}

var _ job.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs instead of sending email.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendCompletion logs the notification that would have been emailed.
func (n *LogNotifier) SendCompletion(_ context.Context, email string, j *job.Job) error {
	n.logger.Info("Completion notification",
		slog.String("job_id", j.ID),
		slog.String("email", email),
		slog.String("status", j.Status),
	)
	return nil
}
