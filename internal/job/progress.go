package job

import (
	"context"
	"log/slog"
	"sync"
)

// ProgressSink receives progress snapshots. *Service satisfies it.
type ProgressSink interface {
	ReportProgress(ctx context.Context, id string, percent float64, message string)
}

// defaultReporterBuffer bounds how many pending progress writes can queue up
// before new ones are dropped.
const defaultReporterBuffer = 64

type progressUpdate struct {
	percent float64
	message string
}

// Reporter adapts the generation algorithm's synchronous (percent, message)
// callback into non-blocking store writes. Each Report call schedules the
// write on a single background goroutine and returns immediately; when the
// buffer is full or the reporter is stopped, the update is logged and dropped
// rather than blocking or failing the caller.
type Reporter struct {
	sink    ProgressSink
	jobID   string
	logger  *slog.Logger
	updates chan progressUpdate
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewReporter creates a reporter bound to jobID and starts its writer
// goroutine. ctx bounds the lifetime of the scheduled writes.
func NewReporter(ctx context.Context, sink ProgressSink, jobID string, logger *slog.Logger) *Reporter {
	r := &Reporter{
		sink:    sink,
		jobID:   jobID,
		logger:  logger,
		updates: make(chan progressUpdate, defaultReporterBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.run(ctx)
	return r
}

// Report schedules a progress write without waiting for it. Safe to call from
// the generation callback at high frequency.
func (r *Reporter) Report(percent float64, message string) {
	select {
	case <-r.stop:
		r.logger.Debug("Dropping progress update, reporter stopped",
			slog.String("job_id", r.jobID),
			slog.Float64("percent", percent),
		)
		return
	default:
	}

	select {
	case r.updates <- progressUpdate{percent: percent, message: message}:
	default:
		// Writer is behind; losing a tick is fine, the next one supersedes it.
		r.logger.Debug("Dropping progress update, buffer full",
			slog.String("job_id", r.jobID),
			slog.Float64("percent", percent),
		)
	}
}

// Close stops accepting updates, flushes whatever is already buffered and
// waits for the writer goroutine to exit.
func (r *Reporter) Close() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			// Drain buffered updates so the last reported tick lands.
			for {
				select {
				case u := <-r.updates:
					r.sink.ReportProgress(ctx, r.jobID, u.percent, u.message)
				default:
					return
				}
			}
		case u := <-r.updates:
			r.sink.ReportProgress(ctx, r.jobID, u.percent, u.message)
		}
	}
}
