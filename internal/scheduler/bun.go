package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-publication/pkg/interfaces"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrDatabaseRequired = errors.New("scheduler: database not configured")

// JobRecord is the persisted form of a job.
type JobRecord struct {
	bun.BaseModel `bun:"table:publication_jobs,alias:pj"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Key         string         `bun:"job_key" json:"key,omitempty"`
	Type        string         `bun:"type,notnull" json:"type"`
	RunAt       time.Time      `bun:"run_at,notnull" json:"run_at"`
	Payload     map[string]any `bun:"payload,type:jsonb" json:"payload,omitempty"`
	MaxAttempts int            `bun:"max_attempts" json:"max_attempts"`
	Attempt     int            `bun:"attempt" json:"attempt"`
	LastError   string         `bun:"last_error" json:"last_error,omitempty"`
	Status      string         `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time      `bun:"created_at,nullzero" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero" json:"updated_at"`
}

func NewJobRepository(db *bun.DB) repository.Repository[*JobRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*JobRecord]{
		NewRecord: func() *JobRecord { return &JobRecord{} },
		GetID: func(r *JobRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *JobRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return ""
		},
		GetIdentifierValue: func(*JobRecord) string {
			return ""
		},
	})
}

// BunScheduler persists jobs in the publication_jobs table so scheduled
// requests survive restarts.
type BunScheduler struct {
	settings
	db   *bun.DB
	repo repository.Repository[*JobRecord]
}

var _ interfaces.Scheduler = (*BunScheduler)(nil)

func NewBunScheduler(db *bun.DB, opts ...Option) *BunScheduler {
	cfg := buildSettings(opts)
	return &BunScheduler{settings: cfg, db: db, repo: NewJobRepository(db)}
}

// CreateSchema creates the jobs table when missing.
func (s *BunScheduler) CreateSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDatabaseRequired
	}
	if _, err := s.db.NewCreateTable().Model((*JobRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("scheduler: create table: %w", err)
	}
	return nil
}

func (s *BunScheduler) Enqueue(ctx context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, ErrRunAtRequired
	}
	if spec.Key != "" {
		if _, err := s.db.NewDelete().
			Model((*JobRecord)(nil)).
			Where("job_key = ?", spec.Key).
			Where("status = ?", string(interfaces.JobStatusPending)).
			Exec(ctx); err != nil {
			return nil, fmt.Errorf("scheduler: replace job %s: %w", spec.Key, err)
		}
	}
	job := newJob(spec, s.id(), s.now(), s.maxAttempts)
	record, err := jobToRecord(job)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("scheduler: enqueue: %w", err)
	}
	return jobFromRecord(created), nil
}

func (s *BunScheduler) Cancel(ctx context.Context, id string) error {
	return s.update(ctx, id, func(job *interfaces.Job) {
		job.Status = interfaces.JobStatusCanceled
	})
}

func (s *BunScheduler) CancelByKey(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	job, err := s.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	return s.Cancel(ctx, job.ID)
}

func (s *BunScheduler) Get(ctx context.Context, id string) (*interfaces.Job, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, interfaces.ErrJobNotFound
	}
	record, err := s.repo.GetByID(ctx, parsed.String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("scheduler: get job %s: %w", id, err)
	}
	return jobFromRecord(record), nil
}

// GetByKey returns the pending job registered under key.
func (s *BunScheduler) GetByKey(ctx context.Context, key string) (*interfaces.Job, error) {
	if key == "" {
		return nil, interfaces.ErrJobNotFound
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.job_key = ?", key).
				Where("?TableAlias.status = ?", string(interfaces.JobStatusPending))
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: get job by key %s: %w", key, err)
	}
	if len(records) == 0 {
		return nil, interfaces.ErrJobNotFound
	}
	return jobFromRecord(records[0]), nil
}

func (s *BunScheduler) ListDue(ctx context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	due := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("?TableAlias.status = ?", string(interfaces.JobStatusPending)).
			Where("?TableAlias.run_at <= ?", until.UTC()).
			OrderExpr("?TableAlias.run_at ASC").
			OrderExpr("?TableAlias.created_at ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	records, _, err := s.repo.List(ctx, due)
	if err != nil {
		return nil, fmt.Errorf("scheduler: list due jobs: %w", err)
	}
	out := make([]*interfaces.Job, 0, len(records))
	for _, record := range records {
		out = append(out, jobFromRecord(record))
	}
	return out, nil
}

func (s *BunScheduler) MarkDone(ctx context.Context, id string) error {
	return s.update(ctx, id, func(job *interfaces.Job) {
		job.Status = interfaces.JobStatusCompleted
	})
}

func (s *BunScheduler) MarkFailed(ctx context.Context, id string, failure error) error {
	return s.update(ctx, id, func(job *interfaces.Job) {
		recordFailure(job, failure)
	})
}

func (s *BunScheduler) update(ctx context.Context, id string, mutate func(*interfaces.Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(job)
	job.UpdatedAt = s.now()
	record, err := jobToRecord(job)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"status",
			"attempt",
			"last_error",
			"updated_at",
		),
	)
	if err != nil {
		return fmt.Errorf("scheduler: update job %s: %w", id, err)
	}
	return nil
}

func jobToRecord(job *interfaces.Job) (*JobRecord, error) {
	id, err := uuid.Parse(job.ID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: job id %q: %w", job.ID, err)
	}
	return &JobRecord{
		ID:          id,
		Key:         job.Key,
		Type:        job.Type,
		RunAt:       job.RunAt.UTC(),
		Payload:     job.Payload,
		MaxAttempts: job.MaxAttempts,
		Attempt:     job.Attempt,
		LastError:   job.LastError,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt.UTC(),
		UpdatedAt:   job.UpdatedAt.UTC(),
	}, nil
}

func jobFromRecord(record *JobRecord) *interfaces.Job {
	return &interfaces.Job{
		JobSpec: interfaces.JobSpec{
			Key:         record.Key,
			Type:        record.Type,
			RunAt:       record.RunAt.UTC(),
			Payload:     record.Payload,
			MaxAttempts: record.MaxAttempts,
		},
		ID:        record.ID.String(),
		Attempt:   record.Attempt,
		LastError: record.LastError,
		Status:    interfaces.JobStatus(record.Status),
		CreatedAt: record.CreatedAt.UTC(),
		UpdatedAt: record.UpdatedAt.UTC(),
	}
}
