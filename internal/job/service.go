package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Notifier delivers completion notifications. Delivery failures are absorbed
// by the service: a failed email must never turn a successful job into a
// failed one.
type Notifier interface {
	SendCompletion(ctx context.Context, email string, j *Job) error
}

// SubscriptionOutcome reports how a notification subscription was handled.
type SubscriptionOutcome string

const (
	// NotificationSent means the job had already completed successfully and
	// the notification was sent immediately.
	NotificationSent SubscriptionOutcome = "sent-immediately"
	// NotificationDeferred means the email was attached to the job params;
	// the worker sends it when the job finalizes successfully.
	NotificationDeferred SubscriptionOutcome = "deferred"
)

// Service enforces the job state machine and owns every mutation entry point.
// It is safe for concurrent use from the API and worker processes; the store
// is the only shared state.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a lifecycle service on the given store and notifier.
func NewService(store Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Submit validates params, allocates a new QUEUED job and persists it.
func (s *Service) Submit(ctx context.Context, jobType string, params Params) (*Job, error) {
	if err := params.Validate(jobType); err != nil {
		return nil, err
	}

	j := New(jobType, params)
	if err := s.store.Put(ctx, j); err != nil {
		return nil, err
	}

	s.logger.Info("Job submitted",
		slog.String("job_id", j.ID),
		slog.String("job_type", j.Type),
	)
	return j, nil
}

// Fetch returns the job with the latest progress snapshot merged in.
func (s *Service) Fetch(ctx context.Context, id string) (*Job, error) {
	return s.store.Fetch(ctx, id)
}

// TransitionStatus moves a job to a new non-terminal-producing status.
// Transitions on a terminal job are rejected with ErrConflict; repeating the
// current status is a harmless no-op, which makes queue redelivery safe.
// Each fresh transition to RUNNING counts a delivery attempt.
func (s *Service) TransitionStatus(ctx context.Context, id, status string) (*Job, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	j, err := s.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if Terminal(j.Status) {
		return nil, fmt.Errorf("%w: job %s is already %s", ErrConflict, id, j.Status)
	}
	// Repeating the current status is a no-op, except RUNNING: a redelivered
	// message re-entering RUNNING is a fresh delivery and must count.
	if j.Status == status && status != StatusRunning {
		return j, nil
	}

	j.Status = status
	if status == StatusRunning {
		j.Attempts++
	}
	j.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, j); err != nil {
		return nil, err
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", id),
		slog.String("status", status),
		slog.Int("attempts", j.Attempts),
	)
	return j, nil
}

// ReportProgress writes a progress snapshot. It never fails the caller:
// progress is best-effort telemetry, so store errors are logged and dropped.
func (s *Service) ReportProgress(ctx context.Context, id string, percent float64, message string) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	p := &Progress{
		Percent:   percent,
		Message:   message,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.store.PutProgress(ctx, id, p); err != nil {
		s.logger.Warn("Failed to write job progress",
			slog.String("job_id", id),
			slog.Float64("percent", percent),
			slog.String("error", err.Error()),
		)
	}
}

// Finalize sets the terminal status and result, folds the last progress
// snapshot into the main record and retires the progress record. The first
// terminal write wins: a second call on an already-terminal job is a no-op
// that returns the stored record with applied=false, so callers can fire
// completion side effects exactly once.
func (s *Service) Finalize(ctx context.Context, id string, result Result) (j *Job, applied bool, err error) {
	j, err = s.store.Fetch(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if Terminal(j.Status) {
		s.logger.Warn("Ignoring finalize on terminal job",
			slog.String("job_id", id),
			slog.String("status", j.Status),
		)
		return j, false, nil
	}

	if result.Success {
		j.Status = StatusCompleted
	} else {
		j.Status = StatusFailed
	}
	j.Result = &result
	j.UpdatedAt = time.Now().UTC()

	// j.Progress already holds the latest snapshot merged on fetch; writing
	// the record folds it in before the progress key is dropped.
	if err := s.store.Put(ctx, j); err != nil {
		return nil, false, err
	}

	if err := s.store.ClearProgress(ctx, id); err != nil {
		// The terminal write already landed; a leftover progress key only
		// repeats the snapshot that was just folded in.
		s.logger.Warn("Failed to clear progress record",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Job finalized",
		slog.String("job_id", id),
		slog.String("status", j.Status),
		slog.Bool("success", result.Success),
	)
	return j, true, nil
}

// MarkDeadLetter retires a job whose queue deliveries are exhausted. It is
// terminal like FAILED and idempotent: marking an already-terminal job
// returns the stored record unchanged.
func (s *Service) MarkDeadLetter(ctx context.Context, id, reason string) (*Job, error) {
	j, err := s.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if Terminal(j.Status) {
		return j, nil
	}

	j.Status = StatusDeadLetter
	j.Result = &Result{Success: false, Error: reason}
	j.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, j); err != nil {
		return nil, err
	}

	if err := s.store.ClearProgress(ctx, id); err != nil {
		s.logger.Warn("Failed to clear progress record",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Warn("Job dead-lettered",
		slog.String("job_id", id),
		slog.String("reason", reason),
		slog.Int("attempts", j.Attempts),
	)
	return j, nil
}

// SubscribeNotification registers a completion email for a job. Depending on
// the job's current state the notification is sent immediately (already
// completed successfully), rejected (already failed), or stored in params for
// the worker to send at finalization.
func (s *Service) SubscribeNotification(ctx context.Context, id, email string) (SubscriptionOutcome, error) {
	j, err := s.store.Fetch(ctx, id)
	if err != nil {
		return "", err
	}

	switch j.Status {
	case StatusFailed, StatusDeadLetter:
		return "", fmt.Errorf("%w: job %s already failed", ErrConflict, id)

	case StatusCompleted:
		if j.Result != nil && j.Result.Success {
			s.sendNotification(ctx, email, j)
			return NotificationSent, nil
		}
		return "", fmt.Errorf("%w: job %s completed without a successful result", ErrConflict, id)
	}

	if err := j.setNotifyEmail(email); err != nil {
		return "", err
	}
	j.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, j); err != nil {
		return "", err
	}

	s.logger.Info("Notification deferred until completion",
		slog.String("job_id", id),
	)
	return NotificationDeferred, nil
}

// sendNotification delivers a completion email, absorbing delivery failures.
func (s *Service) sendNotification(ctx context.Context, email string, j *Job) {
	if err := s.notifier.SendCompletion(ctx, email, j); err != nil {
		s.logger.Error("Failed to send completion notification",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}

// NotifyIfSubscribed sends the deferred completion notification when a job
// finalized successfully with an email attached. The worker calls this only
// for the finalize invocation that actually applied the terminal write, which
// keeps the notification to exactly one send per job.
func (s *Service) NotifyIfSubscribed(ctx context.Context, j *Job) {
	if j.Status != StatusCompleted || j.Result == nil || !j.Result.Success {
		return
	}
	email := j.NotifyEmail()
	if email == "" {
		return
	}
	s.sendNotification(ctx, email, j)
}
