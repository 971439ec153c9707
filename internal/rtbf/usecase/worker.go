package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
)

// WorkerActor is the audit attribution used for erasures executed by the
// background worker rather than an operator.
const WorkerActor = "system:deletion-worker"

// WorkerConfig holds deletion worker configuration.
type WorkerConfig struct {
	// Interval is how often the worker polls for pending requests.
	Interval time.Duration
	// BatchSize is how many pending requests are claimed per poll.
	BatchSize int
	// Concurrency bounds how many requests are processed at once within a
	// batch. Requests for different subjects are independent.
	Concurrency int
}

// Worker drains pending deletion requests on a fixed interval. It only picks
// up pending requests: failed ones are retried explicitly by operators, so a
// poisoned request cannot wedge the loop. Process is idempotent, which makes
// the at-least-once semantics of the drain safe.
type Worker struct {
	config            WorkerConfig
	deletionRequestUC DeletionRequestUseCase
	logger            *slog.Logger
}

// NewWorker creates a deletion worker. Zero or negative config values fall
// back to safe defaults.
func NewWorker(config WorkerConfig, deletionRequestUC DeletionRequestUseCase, logger *slog.Logger) *Worker {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &Worker{
		config:            config,
		deletionRequestUC: deletionRequestUC,
		logger:            logger,
	}
}

// Start runs the drain loop until the context is cancelled. Each tick
// processes at most one batch; a failing request is logged and left for the
// next tick or an operator, never retried in a tight loop.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("starting deletion worker",
		slog.Duration("interval", w.config.Interval),
		slog.Int("batch_size", w.config.BatchSize),
		slog.Int("concurrency", w.config.Concurrency),
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping deletion worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.Error("failed to process pending deletion requests", slog.Any("error", err))
			}
		}
	}
}

// ProcessPending claims one batch of pending requests and processes them.
// Individual request failures are logged and do not abort the batch; only a
// failure to list the backlog is returned. Once a request's erasure has
// started it runs to its own commit or rollback, so cancelling the worker
// context between requests never leaves an erasure half-applied.
func (w *Worker) ProcessPending(ctx context.Context) error {
	requests, err := w.deletionRequestUC.ListByStatus(ctx, rtbfDomain.StatusPending, 0, w.config.BatchSize)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return nil
	}

	w.logger.Info("processing deletion requests", slog.Int("count", len(requests)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)

	for _, request := range requests {
		g.Go(func() error {
			if _, err := w.deletionRequestUC.Process(gCtx, request.ID, WorkerActor); err != nil {
				w.logger.Error("deletion request processing failed",
					slog.String("request_id", request.ID.String()),
					slog.String("subject_id", request.SubjectID.String()),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}

	return g.Wait()
}
