package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunStore persists handles, variants and requests through bun. Handle lookups
// go through the (optionally cached) repository; variant and request rows are
// read and written inside transactions so snapshots and saves stay atomic.
type BunStore struct {
	db       *bun.DB
	handles  repository.Repository[*HandleRecord]
	variants repository.Repository[*VariantRecord]
	clock    func() time.Time
}

var (
	_ interfaces.VariantStore = (*BunStore)(nil)
	_ interfaces.HandleStore  = (*BunStore)(nil)
)

func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache constructs a BunStore whose handle repository is
// wrapped with go-repository-cache when a cache service is supplied.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunStore {
	return &BunStore{
		db:       db,
		handles:  wrapWithCache(NewHandleRepository(db), cacheService, keySerializer),
		variants: NewVariantRepository(db),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateSchema creates the storage tables when missing.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDatabaseRequired
	}
	for _, model := range Models() {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table: %w", err)
		}
	}
	return nil
}

func (s *BunStore) Read(ctx context.Context, handle uuid.UUID) (domain.Snapshot, error) {
	return s.read(ctx, handle)
}

func (s *BunStore) Begin(ctx context.Context, handle uuid.UUID) (interfaces.VariantSession, error) {
	return openSession(ctx, s, handle, uuid.New)
}

func (s *BunStore) CreateHandle(ctx context.Context, handle domain.Handle) (domain.Handle, error) {
	if handle.ID == uuid.Nil {
		handle.ID = uuid.New()
	}
	if _, err := s.FindHandle(ctx, handle.Path, handle.Name); err == nil {
		return domain.Handle{}, ErrHandleExists
	}
	record := handleToRecord(handle)
	now := s.clock()
	record.CreatedAt = now
	record.UpdatedAt = now
	created, err := s.handles.Create(ctx, record)
	if err != nil {
		return domain.Handle{}, fmt.Errorf("handle repository error: %w", err)
	}
	return handleFromRecord(created), nil
}

func (s *BunStore) GetHandle(ctx context.Context, id uuid.UUID) (domain.Handle, error) {
	record, err := s.handles.GetByID(ctx, id.String())
	if err != nil {
		return domain.Handle{}, mapRepositoryError(err, "handle", id.String())
	}
	return handleFromRecord(record), nil
}

func (s *BunStore) FindHandle(ctx context.Context, path, name string) (domain.Handle, error) {
	key := handleKey(path, name)
	record, err := s.handles.GetByIdentifier(ctx, key)
	if err != nil {
		return domain.Handle{}, mapRepositoryError(err, "handle", key)
	}
	return handleFromRecord(record), nil
}

func (s *BunStore) UpdateHandle(ctx context.Context, handle domain.Handle) (domain.Handle, error) {
	if existing, err := s.FindHandle(ctx, handle.Path, handle.Name); err == nil && existing.ID != handle.ID {
		return domain.Handle{}, ErrHandleExists
	}
	record := handleToRecord(handle)
	record.UpdatedAt = s.clock()
	updated, err := s.handles.Update(ctx, record,
		repository.UpdateByID(handle.ID.String()),
		repository.UpdateColumns(
			"path",
			"name",
			"location",
			"updated_at",
		),
	)
	if err != nil {
		return domain.Handle{}, mapRepositoryError(err, "handle", handle.ID.String())
	}
	return handleFromRecord(updated), nil
}

// ListVariants returns every stored variant of a handle ordered by kind.
func (s *BunStore) ListVariants(ctx context.Context, handle uuid.UUID) ([]domain.Variant, error) {
	records, _, err := s.variants.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.handle_id = ?", handle)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.kind ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("variant repository error: %w", err)
	}
	out := make([]domain.Variant, 0, len(records))
	for _, record := range records {
		out = append(out, variantFromRecord(record))
	}
	return out, nil
}

func (s *BunStore) read(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	if s == nil || s.db == nil {
		return domain.Snapshot{}, ErrDatabaseRequired
	}
	handle, err := s.GetHandle(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot := domain.Snapshot{Handle: handle}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var variants []*VariantRecord
		if err := tx.NewSelect().
			Model(&variants).
			Where("?TableAlias.handle_id = ?", id).
			Scan(ctx); err != nil {
			return fmt.Errorf("select variants: %w", err)
		}
		var requests []*RequestRecord
		if err := tx.NewSelect().
			Model(&requests).
			Where("?TableAlias.handle_id = ?", id).
			OrderExpr("?TableAlias.created_at ASC").
			Scan(ctx); err != nil {
			return fmt.Errorf("select requests: %w", err)
		}
		for _, record := range variants {
			variant := variantFromRecord(record)
			setVariant(&snapshot, variant.Kind, &variant)
		}
		for _, record := range requests {
			request := requestFromRecord(record)
			if request.Active() {
				snapshot.Request = &request
				continue
			}
			snapshot.Rejected = append(snapshot.Rejected, request)
		}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *BunStore) commit(ctx context.Context, changes Changeset) error {
	if s == nil || s.db == nil {
		return ErrDatabaseRequired
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, change := range changes.Changes {
			switch change.Kind {
			case ChangeWriteVariant:
				if err := deleteVariant(ctx, tx, changes.Handle, change.Variant.Kind); err != nil {
					return err
				}
				if _, err := tx.NewInsert().Model(variantToRecord(change.Variant)).Exec(ctx); err != nil {
					return fmt.Errorf("insert variant: %w", err)
				}
			case ChangeRemoveVariant:
				if err := deleteVariant(ctx, tx, changes.Handle, change.Variant.Kind); err != nil {
					return err
				}
			case ChangeWriteRequest:
				if err := deleteRequest(ctx, tx, change.Request.ID); err != nil {
					return err
				}
				if _, err := tx.NewInsert().Model(requestToRecord(change.Request)).Exec(ctx); err != nil {
					return fmt.Errorf("insert request: %w", err)
				}
			case ChangeRemoveRequest:
				if err := deleteRequest(ctx, tx, change.Request.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func deleteVariant(ctx context.Context, tx bun.Tx, handle uuid.UUID, kind domain.VariantKind) error {
	if _, err := tx.NewDelete().
		Model((*VariantRecord)(nil)).
		Where("?TableAlias.handle_id = ?", handle).
		Where("?TableAlias.kind = ?", string(kind)).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	return nil
}

func deleteRequest(ctx context.Context, tx bun.Tx, id uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*RequestRecord)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

func handleKey(path, name string) string {
	return strings.ToLower(domain.Handle{Path: path, Name: name}.Location())
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
