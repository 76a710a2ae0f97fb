package versions

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

var ErrDatabaseRequired = errors.New("versions: database not configured")

// Record is the persisted form of a version.
type Record struct {
	bun.BaseModel `bun:"table:publication_versions,alias:pvs"`

	ID         uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	HandleID   uuid.UUID      `bun:"handle_id,notnull,type:uuid" json:"handle_id"`
	Number     int            `bun:"number,notnull" json:"number"`
	VariantID  uuid.UUID      `bun:"variant_id,type:uuid" json:"variant_id"`
	Content    map[string]any `bun:"content,type:jsonb" json:"content,omitempty"`
	ModifiedBy string         `bun:"modified_by" json:"modified_by,omitempty"`
	ModifiedAt time.Time      `bun:"modified_at,nullzero" json:"modified_at"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
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
			return ""
		},
		GetIdentifierValue: func(*Record) string {
			return ""
		},
	})
}

// BunService records versions in the publication_versions table.
type BunService struct {
	db   *bun.DB
	repo repository.Repository[*Record]
	opts options
}

var (
	_ interfaces.VersionSnapshotService = (*BunService)(nil)
	_ interfaces.VersionDiscarder       = (*BunService)(nil)
	_ Lister                            = (*BunService)(nil)
)

func NewBunService(db *bun.DB, opts ...Option) *BunService {
	return &BunService{
		db:   db,
		repo: NewRepository(db),
		opts: buildOptions(opts),
	}
}

// CreateSchema creates the versions table when missing.
func (s *BunService) CreateSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDatabaseRequired
	}
	if _, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("versions: create table: %w", err)
	}
	return nil
}

func (s *BunService) Snapshot(ctx context.Context, variant domain.Variant) error {
	if variant.HandleID == uuid.Nil {
		return ErrVariantRequired
	}
	latest, err := s.latestNumber(ctx, variant.HandleID)
	if err != nil {
		return err
	}
	version := newVersion(variant, latest+1, s.opts.clock())
	if _, err := s.repo.Create(ctx, toRecord(version)); err != nil {
		return fmt.Errorf("version repository error: %w", err)
	}
	return nil
}

func (s *BunService) List(ctx context.Context, handle uuid.UUID) ([]Version, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.handle_id = ?", handle)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.number ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("version repository error: %w", err)
	}
	out := make([]Version, 0, len(records))
	for _, record := range records {
		out = append(out, fromRecord(record))
	}
	return out, nil
}

// Discard deletes the latest version of the handle when it was taken from
// variant.
func (s *BunService) Discard(ctx context.Context, variant domain.Variant) error {
	latest, err := s.latest(ctx, variant.HandleID)
	if err != nil || latest == nil {
		return err
	}
	if !fromRecord(latest).From(variant) {
		return nil
	}
	if err := s.repo.Delete(ctx, latest); err != nil {
		return fmt.Errorf("version repository error: %w", err)
	}
	return nil
}

func (s *BunService) latestNumber(ctx context.Context, handle uuid.UUID) (int, error) {
	latest, err := s.latest(ctx, handle)
	if err != nil || latest == nil {
		return 0, err
	}
	return latest.Number, nil
}

func (s *BunService) latest(ctx context.Context, handle uuid.UUID) (*Record, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.handle_id = ?", handle)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.number DESC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("version repository error: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func toRecord(version Version) *Record {
	return &Record{
		ID:         version.ID,
		HandleID:   version.HandleID,
		Number:     version.Number,
		VariantID:  version.VariantID,
		Content:    domain.CloneContent(version.Content),
		ModifiedBy: version.ModifiedBy,
		ModifiedAt: version.ModifiedAt,
		CreatedAt:  version.CreatedAt,
	}
}

func fromRecord(record *Record) Version {
	return Version{
		ID:         record.ID,
		HandleID:   record.HandleID,
		Number:     record.Number,
		VariantID:  record.VariantID,
		Content:    domain.CloneContent(record.Content),
		ModifiedBy: record.ModifiedBy,
		ModifiedAt: record.ModifiedAt.UTC(),
		CreatedAt:  record.CreatedAt.UTC(),
	}
}
