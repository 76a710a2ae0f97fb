package scheduler

import (
	"context"
	"time"

	"github.com/goliatone/go-publication/pkg/interfaces"
)

// NewNoOp returns a scheduler that accepts jobs and never runs them. It backs
// deployments with scheduling turned off.
func NewNoOp() interfaces.Scheduler {
	return noop{}
}

type noop struct{}

func (noop) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	return &interfaces.Job{JobSpec: spec, Status: interfaces.JobStatusCanceled}, nil
}

func (noop) Cancel(context.Context, string) error      { return nil }
func (noop) CancelByKey(context.Context, string) error { return nil }

func (noop) Get(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (noop) GetByKey(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (noop) ListDue(context.Context, time.Time, int) ([]*interfaces.Job, error) {
	return nil, nil
}

func (noop) MarkDone(context.Context, string) error          { return nil }
func (noop) MarkFailed(context.Context, string, error) error { return nil }
