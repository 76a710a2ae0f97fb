package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when no job matches an id or key.
var ErrJobNotFound = errors.New("scheduler: job not found")

// Scheduler stores jobs that must run at a later instant. The publication
// module enqueues one job per scheduled request, keyed by the request id.
type Scheduler interface {
	// Enqueue stores spec. A pending job with the same key is replaced.
	Enqueue(ctx context.Context, spec JobSpec) (*Job, error)
	Cancel(ctx context.Context, id string) error
	// CancelByKey cancels the pending job stored under key.
	CancelByKey(ctx context.Context, key string) error
	Get(ctx context.Context, id string) (*Job, error)
	GetByKey(ctx context.Context, key string) (*Job, error)
	// ListDue returns up to limit pending jobs whose RunAt is not after until,
	// oldest first. A limit of zero or less returns every due job.
	ListDue(ctx context.Context, until time.Time, limit int) ([]*Job, error)
	MarkDone(ctx context.Context, id string) error
	// MarkFailed records err against the job. The job stays pending until it
	// has used MaxAttempts.
	MarkFailed(ctx context.Context, id string, err error) error
}

// JobStatus is the lifecycle state of a stored job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCanceled  JobStatus = "canceled"
	JobStatusFailed    JobStatus = "failed"
)

// JobSpec is what callers hand to Enqueue.
type JobSpec struct {
	Key         string
	Type        string
	RunAt       time.Time
	Payload     map[string]any
	MaxAttempts int // zero applies the scheduler default
}

// Job is a stored JobSpec plus the bookkeeping of its attempts.
type Job struct {
	JobSpec
	ID        string
	Attempt   int
	LastError string
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
