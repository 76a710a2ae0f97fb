package storage

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewHandleRepository(db *bun.DB) repository.Repository[*HandleRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*HandleRecord]{
		NewRecord: func() *HandleRecord { return &HandleRecord{} },
		GetID: func(h *HandleRecord) uuid.UUID {
			return h.ID
		},
		SetID: func(h *HandleRecord, id uuid.UUID) {
			h.ID = id
		},
		GetIdentifier: func() string {
			return "location"
		},
		GetIdentifierValue: func(h *HandleRecord) string {
			return h.Location
		},
	})
}

func NewVariantRepository(db *bun.DB) repository.Repository[*VariantRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*VariantRecord]{
		NewRecord: func() *VariantRecord { return &VariantRecord{} },
		GetID: func(v *VariantRecord) uuid.UUID {
			return v.ID
		},
		SetID: func(v *VariantRecord, id uuid.UUID) {
			v.ID = id
		},
		GetIdentifier: func() string {
			return ""
		},
		GetIdentifierValue: func(*VariantRecord) string {
			return ""
		},
	})
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
