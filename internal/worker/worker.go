package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicegen/internal/generate"
	"voicegen/internal/job"
	"voicegen/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Service       *job.Service
	Generator     generate.Generator
	Concurrency   int
	MaxAttempts   int
	JobTimeout    time.Duration
	PrefetchCount int
	QueueName     string
}

// Worker consumes generation tasks from the work queue and drives them
// through the job lifecycle: RUNNING transition, progress reporting,
// finalization and the deferred completion notification.
type Worker struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	service      *job.Service
	generator    generate.Generator

	concurrency   int
	maxAttempts   int
	jobTimeout    time.Duration
	prefetchCount int
	queueName     string
	workerID      string

	jobsChan chan *delivery
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// delivery pairs a parsed queue message with its AMQP delivery tag.
type delivery struct {
	msg job.Message
	tag uint64
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		service:       cfg.Service,
		generator:     cfg.Generator,
		concurrency:   cfg.Concurrency,
		maxAttempts:   cfg.MaxAttempts,
		jobTimeout:    cfg.JobTimeout,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		workerID:      "voicegen-worker-" + uuid.New().String()[:8],
		jobsChan:      make(chan *delivery),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. It blocks until the context is
// canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
