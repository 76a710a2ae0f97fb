package scheduler

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// ErrRunAtRequired is returned when a job spec has no execution time.
var ErrRunAtRequired = errors.New("scheduler: run_at is required")

// Option customises the scheduler implementations.
type Option func(*settings)

type settings struct {
	now         func() time.Time
	id          func() string
	maxAttempts int
}

func defaultSettings() settings {
	return settings{
		now:         func() time.Time { return time.Now().UTC() },
		id:          uuid.NewString,
		maxAttempts: defaultMaxAttempts,
	}
}

func buildSettings(opts []Option) settings {
	cfg := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithClock overrides the clock used to stamp jobs.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the job id generator.
func WithIDGenerator(generator func() string) Option {
	return func(s *settings) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithDefaultMaxAttempts sets the attempt budget of specs that leave it unset.
func WithDefaultMaxAttempts(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.maxAttempts = limit
		}
	}
}

// NewInMemory returns a process-local scheduler. Jobs are lost on restart.
func NewInMemory(opts ...Option) interfaces.Scheduler {
	return &memoryScheduler{
		settings: buildSettings(opts),
		jobs:     make(map[string]*interfaces.Job),
		keys:     make(map[string]string),
	}
}

type memoryScheduler struct {
	settings
	mu   sync.Mutex
	jobs map[string]*interfaces.Job
	keys map[string]string
}

func (s *memoryScheduler) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, ErrRunAtRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.keys[spec.Key]; ok && spec.Key != "" {
		delete(s.jobs, previous)
	}
	job := newJob(spec, s.id(), s.now(), s.maxAttempts)
	s.jobs[job.ID] = job
	if job.Key != "" {
		s.keys[job.Key] = job.ID
	}
	return cloneJob(job), nil
}

func (s *memoryScheduler) Cancel(_ context.Context, id string) error {
	return s.update(id, func(job *interfaces.Job) {
		job.Status = interfaces.JobStatusCanceled
	})
}

func (s *memoryScheduler) CancelByKey(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	id, ok := s.keys[key]
	s.mu.Unlock()
	if !ok {
		return interfaces.ErrJobNotFound
	}
	return s.Cancel(ctx, id)
}

func (s *memoryScheduler) Get(_ context.Context, id string) (*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *memoryScheduler) GetByKey(ctx context.Context, key string) (*interfaces.Job, error) {
	s.mu.Lock()
	id, ok := s.keys[key]
	s.mu.Unlock()
	if !ok || key == "" {
		return nil, interfaces.ErrJobNotFound
	}
	return s.Get(ctx, id)
}

func (s *memoryScheduler) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*interfaces.Job, 0)
	for _, job := range s.jobs {
		if job.Status == interfaces.JobStatusPending && !job.RunAt.After(until) {
			due = append(due, cloneJob(job))
		}
	}
	slices.SortStableFunc(due, compareDue)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memoryScheduler) MarkDone(_ context.Context, id string) error {
	return s.update(id, func(job *interfaces.Job) {
		job.Status = interfaces.JobStatusCompleted
	})
}

func (s *memoryScheduler) MarkFailed(_ context.Context, id string, failure error) error {
	return s.update(id, func(job *interfaces.Job) {
		recordFailure(job, failure)
	})
}

// update mutates a job under the lock. Jobs leaving the pending state give
// up their key so the same request can be scheduled again.
func (s *memoryScheduler) update(id string, mutate func(*interfaces.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	mutate(job)
	job.UpdatedAt = s.now()
	if job.Status != interfaces.JobStatusPending && job.Key != "" && s.keys[job.Key] == job.ID {
		delete(s.keys, job.Key)
	}
	return nil
}

func newJob(spec interfaces.JobSpec, id string, now time.Time, maxAttempts int) *interfaces.Job {
	job := &interfaces.Job{
		JobSpec:   spec,
		ID:        id,
		Status:    interfaces.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.Payload = maps.Clone(spec.Payload)
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = maxAttempts
	}
	return job
}

func recordFailure(job *interfaces.Job, failure error) {
	job.Attempt++
	job.LastError = ""
	if failure != nil {
		job.LastError = failure.Error()
	}
	job.Status = interfaces.JobStatusPending
	if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts {
		job.Status = interfaces.JobStatusFailed
	}
}

func compareDue(a, b *interfaces.Job) int {
	if c := a.RunAt.Compare(b.RunAt); c != 0 {
		return c
	}
	return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
}

func cloneJob(job *interfaces.Job) *interfaces.Job {
	if job == nil {
		return nil
	}
	clone := *job
	clone.Payload = maps.Clone(job.Payload)
	return &clone
}
