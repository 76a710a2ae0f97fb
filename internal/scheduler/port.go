package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

// Port registers scheduled publication requests as jobs. Jobs get a single
// attempt: a guard failure at fire time is reported, never retried.
type Port struct {
	scheduler interfaces.Scheduler
	logger    interfaces.Logger
}

var _ interfaces.RequestSchedulerPort = (*Port)(nil)

// PortOption customises the port.
type PortOption func(*Port)

// WithPortLogger sets the logger used for scheduling events.
func WithPortLogger(logger interfaces.Logger) PortOption {
	return func(p *Port) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPort(scheduler interfaces.Scheduler, opts ...PortOption) *Port {
	if scheduler == nil {
		scheduler = NewNoOp()
	}
	p := &Port{scheduler: scheduler, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Scheduler exposes the backing scheduler so a worker can drain it.
func (p *Port) Scheduler() interfaces.Scheduler {
	return p.scheduler
}

func (p *Port) Schedule(ctx context.Context, at time.Time, trigger interfaces.ScheduledTrigger) error {
	job, err := p.scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:         RequestJobKey(trigger.RequestID),
		Type:        JobTypeRequestFire,
		RunAt:       at,
		Payload:     EncodeTrigger(trigger),
		MaxAttempts: 1,
	})
	if err != nil {
		return fmt.Errorf("scheduler: schedule request %s: %w", trigger.RequestID, err)
	}
	logging.WithRequest(p.logger, trigger.RequestID).Debug("scheduler.job.enqueued",
		"job_id", job.ID,
		"handle_id", trigger.HandleID.String(),
		"run_at", at,
		"type", string(trigger.Type),
	)
	return nil
}

// Cancel drops the job of the trigger. A job that already ran or was never
// registered is not an error.
func (p *Port) Cancel(ctx context.Context, trigger interfaces.ScheduledTrigger) error {
	err := p.scheduler.CancelByKey(ctx, RequestJobKey(trigger.RequestID))
	if err != nil && !errors.Is(err, interfaces.ErrJobNotFound) {
		return fmt.Errorf("scheduler: cancel request %s: %w", trigger.RequestID, err)
	}
	logging.WithRequest(p.logger, trigger.RequestID).Debug("scheduler.job.cancelled")
	return nil
}
