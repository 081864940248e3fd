package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voicegen/internal/job"
)

// processJob drives one queue delivery through the job lifecycle. A nil
// return acks the message; an error return nacks it, with requeue decided by
// shouldRequeue. The queue delivers at least once, so every step tolerates
// running again for the same job.
func (w *Worker) processJob(ctx context.Context, d *delivery) error {
	jobID := d.msg.JobID

	w.logger.Info("Processing job",
		slog.String("job_id", jobID),
		slog.String("worker_id", w.workerID),
	)

	current, err := w.service.Fetch(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			// Expired or never existed; nothing to run, nothing to record.
			w.logger.Warn("Job not found for delivery, dropping",
				slog.String("job_id", jobID),
			)
			return nil
		}
		return job.NewRetryableError(fmt.Errorf("failed to fetch job: %w", err))
	}

	// Redelivery after a completed run: the terminal record already holds
	// the outcome.
	if job.Terminal(current.Status) {
		w.logger.Info("Job already terminal, skipping",
			slog.String("job_id", jobID),
			slog.String("status", current.Status),
		)
		return nil
	}

	claimed, err := w.service.TransitionStatus(ctx, jobID, job.StatusRunning)
	if err != nil {
		if errors.Is(err, job.ErrConflict) {
			// Another delivery finalized it between fetch and transition.
			return nil
		}
		return job.NewRetryableError(fmt.Errorf("failed to transition job to RUNNING: %w", err))
	}

	if claimed.Attempts > w.maxAttempts {
		reason := fmt.Sprintf("delivery attempts exhausted after %d tries", claimed.Attempts)
		if _, err := w.service.MarkDeadLetter(ctx, jobID, reason); err != nil {
			return job.NewRetryableError(fmt.Errorf("failed to dead-letter job: %w", err))
		}
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	reporter := job.NewReporter(jobCtx, w.service, jobID, w.logger)
	defer reporter.Close()

	data, genErr := w.generator.Generate(jobCtx, claimed.Params.Generation, reporter.Report)

	// Transient failures are retried through queue redelivery without a
	// terminal write; anything else finalizes the job.
	var retryable *job.RetryableError
	if errors.As(genErr, &retryable) {
		return genErr
	}

	var result job.Result
	if genErr != nil {
		w.logger.Error("Generation failed",
			slog.String("job_id", jobID),
			slog.String("error", genErr.Error()),
		)
		result = job.Result{Success: false, Error: genErr.Error()}
	} else {
		result = job.Result{Success: true, Data: data}
	}

	// Flush buffered progress before finalize folds the last snapshot in.
	reporter.Close()

	finalized, applied, err := w.service.Finalize(ctx, jobID, result)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			w.logger.Warn("Job expired before finalize",
				slog.String("job_id", jobID),
			)
			return nil
		}
		return job.NewRetryableError(fmt.Errorf("failed to finalize job: %w", err))
	}

	// Only the call that performed the terminal write sends the deferred
	// notification, so redelivery cannot double-send.
	if applied {
		w.service.NotifyIfSubscribed(ctx, finalized)
	}

	w.logger.Info("Job processed",
		slog.String("job_id", jobID),
		slog.String("status", finalized.Status),
	)
	return nil
}
