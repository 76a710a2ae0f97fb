package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrDatabaseRequired = errors.New("archive: database not configured")

// Record is the persisted form of an archive entry.
type Record struct {
	bun.BaseModel `bun:"table:publication_archive,alias:pa"`

	ID         uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	HandleID   uuid.UUID      `bun:"handle_id,notnull,type:uuid" json:"handle_id"`
	Location   string         `bun:"location,notnull" json:"location"`
	Variants   map[string]any `bun:"variants,type:jsonb" json:"variants,omitempty"`
	ArchivedAt time.Time      `bun:"archived_at,nullzero,default:current_timestamp" json:"archived_at"`
}

func NewRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(r *Record) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Record, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "location"
		},
		GetIdentifierValue: func(r *Record) string {
			return r.Location
		},
	})
}

// BunService stores archive entries in the publication_archive table.
type BunService struct {
	db   *bun.DB
	repo repository.Repository[*Record]
	opts options
}

var _ interfaces.ArchiveService = (*BunService)(nil)

func NewBunService(db *bun.DB, opts ...Option) *BunService {
	return &BunService{
		db:   db,
		repo: NewRepository(db),
		opts: buildOptions(opts),
	}
}

// CreateSchema creates the archive table when missing.
func (s *BunService) CreateSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDatabaseRequired
	}
	if _, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("archive: create table: %w", err)
	}
	return nil
}

func (s *BunService) Archive(ctx context.Context, snapshot domain.Snapshot) error {
	if snapshot.Handle.ID == uuid.Nil {
		return ErrHandleRequired
	}
	entry := newEntry(snapshot, s.opts.clock())
	if _, err := s.repo.Create(ctx, &Record{
		ID:         entry.ID,
		HandleID:   entry.HandleID,
		Location:   entry.Location,
		Variants:   entry.Variants,
		ArchivedAt: entry.ArchivedAt,
	}); err != nil {
		return fmt.Errorf("archive repository error: %w", err)
	}
	return nil
}

// Entries lists archive entries recorded for a handle.
func (s *BunService) Entries(ctx context.Context, handle uuid.UUID) ([]Entry, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.handle_id = ?", handle)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.archived_at ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("archive repository error: %w", err)
	}
	out := make([]Entry, 0, len(records))
	for _, record := range records {
		out = append(out, Entry{
			ID:         record.ID,
			HandleID:   record.HandleID,
			Location:   record.Location,
			Variants:   record.Variants,
			ArchivedAt: record.ArchivedAt.UTC(),
		})
	}
	return out, nil
}
