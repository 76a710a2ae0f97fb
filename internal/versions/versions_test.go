package versions_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/versions"
	"github.com/goliatone/go-publication/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type service interface {
	Snapshot(ctx context.Context, variant domain.Variant) error
	Discard(ctx context.Context, variant domain.Variant) error
	versions.Lister
}

func newBunService(t *testing.T, clock func() time.Time) *versions.BunService {
	t.Helper()
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	svc := versions.NewBunService(bunDB, versions.WithClock(clock))
	if err := svc.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return svc
}

func TestVersionServicesNumberSnapshots(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	services := map[string]service{
		"memory": versions.NewMemoryService(versions.WithClock(clock)),
		"bun":    newBunService(t, clock),
	}

	for name, svc := range services {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := uuid.New()
			variant := domain.Variant{
				ID:             uuid.New(),
				HandleID:       handle,
				Kind:           domain.VariantUnpublished,
				Content:        map[string]any{"body": "v1"},
				LastModifiedBy: "alice",
				LastModifiedAt: now,
			}
			if err := svc.Snapshot(ctx, variant); err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			variant.Content = map[string]any{"body": "v2"}
			if err := svc.Snapshot(ctx, variant); err != nil {
				t.Fatalf("snapshot: %v", err)
			}

			history, err := svc.List(ctx, handle)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 2 {
				t.Fatalf("expected 2 versions, got %d", len(history))
			}
			if history[0].Number != 1 || history[1].Number != 2 {
				t.Fatalf("expected sequential numbers, got %d and %d", history[0].Number, history[1].Number)
			}
			if history[1].Content["body"] != "v2" {
				t.Fatalf("expected latest content v2, got %v", history[1].Content["body"])
			}
			if history[0].ModifiedBy != "alice" {
				t.Fatalf("expected modified by alice, got %q", history[0].ModifiedBy)
			}
		})
	}
}

func TestVersionServicesDiscardLatest(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	services := map[string]service{
		"memory": versions.NewMemoryService(versions.WithClock(clock)),
		"bun":    newBunService(t, clock),
	}

	for name, svc := range services {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := uuid.New()
			first := domain.Variant{ID: uuid.New(), HandleID: handle, Kind: domain.VariantUnpublished, LastModifiedAt: now}
			second := first
			second.LastModifiedAt = now.Add(time.Minute)

			if err := svc.Snapshot(ctx, first); err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if err := svc.Snapshot(ctx, second); err != nil {
				t.Fatalf("snapshot: %v", err)
			}

			if err := svc.Discard(ctx, first); err != nil {
				t.Fatalf("discard older: %v", err)
			}
			history, err := svc.List(ctx, handle)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 2 {
				t.Fatalf("only the latest version may be discarded, got %d versions", len(history))
			}

			if err := svc.Discard(ctx, second); err != nil {
				t.Fatalf("discard: %v", err)
			}
			history, err = svc.List(ctx, handle)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 1 || history[0].Number != 1 {
				t.Fatalf("expected first version kept, got %+v", history)
			}
			if err := svc.Snapshot(ctx, second); err != nil {
				t.Fatalf("snapshot again: %v", err)
			}
			history, err = svc.List(ctx, handle)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 2 || history[1].Number != 2 {
				t.Fatalf("expected number reused after discard, got %+v", history)
			}
		})
	}
}

func TestVersionSnapshotRequiresHandle(t *testing.T) {
	svc := versions.NewMemoryService()
	if err := svc.Snapshot(context.Background(), domain.Variant{}); err == nil {
		t.Fatalf("expected error for variant without handle")
	}
}
