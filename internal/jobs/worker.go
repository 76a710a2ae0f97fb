package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/internal/scheduler"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 30 * time.Second
)

var (
	ErrSchedulerRequired = errors.New("jobs: scheduler is nil")
	ErrFirerRequired     = errors.New("jobs: scheduled request firer is nil")
)

// Worker drains due jobs from a scheduler and fires the publication requests
// they carry.
type Worker struct {
	scheduler interfaces.Scheduler
	firer     interfaces.ScheduledFirer
	audit     AuditRecorder
	logger    interfaces.Logger
	now       func() time.Time
	batchSize int
	interval  time.Duration
}

type Option func(*Worker)

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithPollInterval sets how often Run checks for due jobs.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func NewWorker(scheduler interfaces.Scheduler, firer interfaces.ScheduledFirer, opts ...Option) *Worker {
	w := &Worker{
		scheduler: scheduler,
		firer:     firer,
		logger:    logging.NoOp(),
		now:       func() time.Time { return time.Now().UTC() },
		batchSize: defaultBatchSize,
		interval:  defaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Run processes due jobs every poll interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.Process(ctx); err != nil {
			w.logger.Error("scheduler.worker.process_failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Process fires every job due at the current time, up to the batch size.
// Failed jobs are marked failed; the scheduler decides about retries.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return ErrSchedulerRequired
	}
	if w.firer == nil {
		return ErrFirerRequired
	}
	due, err := w.scheduler.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		return fmt.Errorf("jobs: list due: %w", err)
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handle(ctx, job); err != nil {
			w.logger.Warn("scheduler.job.failed", "job_id", job.ID, "type", job.Type, "error", err)
			if markErr := w.scheduler.MarkFailed(ctx, job.ID, err); markErr != nil {
				w.logger.Error("scheduler.job.mark_failed", "job_id", job.ID, "error", markErr)
			}
			continue
		}
		if err := w.scheduler.MarkDone(ctx, job.ID); err != nil {
			w.logger.Error("scheduler.job.mark_done", "job_id", job.ID, "error", err)
		}
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, job *interfaces.Job) error {
	switch job.Type {
	case scheduler.JobTypeRequestFire:
		return w.fire(ctx, job)
	default:
		w.logger.Debug("scheduler.job.ignored", "job_id", job.ID, "type", job.Type)
		return nil
	}
}

func (w *Worker) fire(ctx context.Context, job *interfaces.Job) error {
	trigger, err := scheduler.DecodeTrigger(job.Payload)
	if err != nil {
		return err
	}
	logger := logging.WithRequest(w.logger, trigger.RequestID)

	outcome, err := w.firer.FireScheduled(ctx, trigger.HandleID, trigger.RequestID)
	event := AuditEvent{
		HandleID:   trigger.HandleID,
		RequestID:  trigger.RequestID,
		JobID:      job.ID,
		Actor:      trigger.Owner,
		OccurredAt: w.now(),
		Metadata: map[string]any{
			"request_type": string(trigger.Type),
			"run_at":       job.RunAt,
		},
	}
	switch {
	case err != nil:
		event.Action = ActionFailed
		event.Metadata["error"] = err.Error()
	case outcome.Stale != nil:
		event.Action = ActionStale
		event.Metadata["reason"] = outcome.Request.Reason
	case outcome.Accepted:
		event.Action = ActionAccepted
	default:
		event.Action = ActionSkipped
	}
	w.record(ctx, event)
	if err != nil {
		return err
	}
	logger.Info("scheduler.job.fired", "job_id", job.ID, "handle_id", trigger.HandleID.String(), "action", event.Action)
	return nil
}

func (w *Worker) record(ctx context.Context, event AuditEvent) {
	if w.audit == nil {
		return
	}
	if err := w.audit.Record(ctx, event); err != nil {
		w.logger.Warn("scheduler.audit.failed", "error", err)
	}
}
