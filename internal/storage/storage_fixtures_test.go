package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/storage"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/goliatone/go-publication/pkg/testsupport"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var fixtureTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type testStore interface {
	interfaces.VariantStore
	interfaces.HandleStore
}

func newBunStore(t *testing.T) *storage.BunStore {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	store := storage.NewBunStoreWithCache(bunDB, cacheService, repocache.NewDefaultKeySerializer())
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return store
}

func stores(t *testing.T) map[string]testStore {
	t.Helper()
	return map[string]testStore{
		"memory": storage.NewMemoryStore(),
		"bun":    newBunStore(t),
	}
}

func createHandle(t *testing.T, store interfaces.HandleStore, path, name string) domain.Handle {
	t.Helper()
	handle, err := store.CreateHandle(context.Background(), domain.Handle{Path: path, Name: name})
	if err != nil {
		t.Fatalf("create handle: %v", err)
	}
	return handle
}

func unpublished(content string) domain.Variant {
	return domain.Variant{
		Kind:           domain.VariantUnpublished,
		Content:        map[string]any{"body": content},
		CreatedAt:      fixtureTime,
		LastModifiedBy: "alice",
		LastModifiedAt: fixtureTime,
	}
}
