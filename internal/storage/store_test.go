package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/storage"
	"github.com/google/uuid"
)

func TestStoreSessionSaveIsVisibleAfterSave(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := createHandle(t, store, "/docs", "guide")

			session, err := store.Begin(ctx, handle.ID)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			if err := session.Write(unpublished("v1")); err != nil {
				t.Fatalf("write: %v", err)
			}

			before, err := store.Read(ctx, handle.ID)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if before.Unpublished != nil {
				t.Fatalf("staged write leaked before save")
			}

			if err := session.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}
			after, err := store.Read(ctx, handle.ID)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if after.Unpublished == nil {
				t.Fatalf("expected unpublished variant after save")
			}
			if got := after.Unpublished.Content["body"]; got != "v1" {
				t.Fatalf("expected body v1, got %v", got)
			}
			if !after.Unpublished.LastModifiedAt.Equal(fixtureTime) {
				t.Fatalf("expected modified %s, got %s", fixtureTime, after.Unpublished.LastModifiedAt)
			}
			if after.Unpublished.HandleID != handle.ID {
				t.Fatalf("expected handle id to be stamped")
			}
		})
	}
}

func TestStoreRefreshDiscardsStagedChanges(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := createHandle(t, store, "/docs", "refresh")

			session, err := store.Begin(ctx, handle.ID)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			if err := session.Write(unpublished("discard me")); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := session.Refresh(ctx); err != nil {
				t.Fatalf("refresh: %v", err)
			}
			if err := session.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}

			snapshot, err := store.Read(ctx, handle.ID)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !snapshot.Empty() {
				t.Fatalf("expected refresh to drop staged variants, got %+v", snapshot)
			}
		})
	}
}

func TestStoreCloneIntoReplacesTargetKind(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := createHandle(t, store, "/docs", "clone")

			session, err := store.Begin(ctx, handle.ID)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			source := unpublished("first")
			if err := session.Write(source); err != nil {
				t.Fatalf("write: %v", err)
			}
			published, err := session.CloneInto(source, domain.VariantPublished)
			if err != nil {
				t.Fatalf("clone into: %v", err)
			}
			if err := session.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}

			session, err = store.Begin(ctx, handle.ID)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			again, err := session.CloneInto(unpublished("second"), domain.VariantPublished)
			if err != nil {
				t.Fatalf("clone into: %v", err)
			}
			if again.ID != published.ID {
				t.Fatalf("expected clone to keep existing published id %s, got %s", published.ID, again.ID)
			}
			if err := session.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}

			snapshot, err := store.Read(ctx, handle.ID)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if snapshot.Published == nil || snapshot.Published.Content["body"] != "second" {
				t.Fatalf("expected published body second, got %+v", snapshot.Published)
			}
			if snapshot.Unpublished == nil || snapshot.Unpublished.Content["body"] != "first" {
				t.Fatalf("expected unpublished untouched, got %+v", snapshot.Unpublished)
			}
		})
	}
}

func TestStoreRequestsSplitActiveAndRejected(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := createHandle(t, store, "/docs", "requests")
			source := unpublished("v1")
			source.ID = uuid.New()
			at := fixtureTime.Add(time.Hour)

			session, err := store.Begin(ctx, handle.ID)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			if err := session.Write(source); err != nil {
				t.Fatalf("write: %v", err)
			}
			rejected := domain.Request{
				Type:      domain.RequestRejected,
				Owner:     "bob",
				Reason:    "typos",
				CreatedAt: fixtureTime,
			}
			if err := session.WriteRequest(rejected); err != nil {
				t.Fatalf("write rejected: %v", err)
			}
			active := domain.Request{
				Type:        domain.RequestScheduledPublish,
				Owner:       "alice",
				ScheduledAt: &at,
				Reference:   &domain.VariantReference{VariantID: source.ID, Kind: domain.VariantUnpublished, ModifiedAt: fixtureTime},
				CreatedAt:   fixtureTime.Add(time.Minute),
			}
			if err := session.WriteRequest(active); err != nil {
				t.Fatalf("write active: %v", err)
			}
			if err := session.WriteRequest(domain.Request{Type: domain.RequestDelete, Owner: "carol"}); !errors.Is(err, storage.ErrRequestConflict) {
				t.Fatalf("expected request conflict, got %v", err)
			}
			if err := session.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}

			snapshot, err := store.Read(ctx, handle.ID)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if snapshot.Request == nil || snapshot.Request.Type != domain.RequestScheduledPublish {
				t.Fatalf("expected scheduled publish request, got %+v", snapshot.Request)
			}
			if snapshot.Request.ScheduledAt == nil || !snapshot.Request.ScheduledAt.Equal(at) {
				t.Fatalf("expected scheduled at %s, got %v", at, snapshot.Request.ScheduledAt)
			}
			if ref := snapshot.Request.Reference; ref == nil || !ref.Matches(snapshot.Unpublished) {
				t.Fatalf("expected reference to match unpublished variant, got %+v", ref)
			}
			if len(snapshot.Rejected) != 1 || snapshot.Rejected[0].Reason != "typos" {
				t.Fatalf("expected one rejected request, got %+v", snapshot.Rejected)
			}

			session, err = store.Begin(ctx, handle.ID)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			if err := session.RemoveRequest(*snapshot.Request); err != nil {
				t.Fatalf("remove request: %v", err)
			}
			if err := session.Save(ctx); err != nil {
				t.Fatalf("save: %v", err)
			}
			snapshot, err = store.Read(ctx, handle.ID)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if snapshot.Request != nil {
				t.Fatalf("expected request removed, got %+v", snapshot.Request)
			}
		})
	}
}

func TestStoreHandles(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			handle := createHandle(t, store, "/docs", "Handbook")

			if _, err := store.CreateHandle(ctx, domain.Handle{Path: "/docs", Name: "handbook"}); !errors.Is(err, storage.ErrHandleExists) {
				t.Fatalf("expected duplicate location to fail, got %v", err)
			}

			found, err := store.FindHandle(ctx, "/docs", "handbook")
			if err != nil {
				t.Fatalf("find handle: %v", err)
			}
			if found.ID != handle.ID {
				t.Fatalf("expected %s, got %s", handle.ID, found.ID)
			}

			handle.Path = "/archive"
			if _, err := store.UpdateHandle(ctx, handle); err != nil {
				t.Fatalf("update handle: %v", err)
			}
			got, err := store.GetHandle(ctx, handle.ID)
			if err != nil {
				t.Fatalf("get handle: %v", err)
			}
			if got.Location() != "/archive/Handbook" {
				t.Fatalf("expected relocated handle, got %s", got.Location())
			}
		})
	}
}

func TestStoreMissingHandle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			missing := uuid.New()
			if _, err := store.Read(ctx, missing); !errors.Is(err, storage.ErrHandleNotFound) {
				t.Fatalf("expected handle not found, got %v", err)
			}
			if _, err := store.Begin(ctx, missing); !errors.Is(err, storage.ErrHandleNotFound) {
				t.Fatalf("expected handle not found, got %v", err)
			}
		})
	}
}

func TestBunStoreListVariants(t *testing.T) {
	ctx := context.Background()
	store := newBunStore(t)
	handle := createHandle(t, store, "/docs", "list")

	session, err := store.Begin(ctx, handle.ID)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	source := unpublished("v1")
	if err := session.Write(source); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := session.CloneInto(source, domain.VariantPublished); err != nil {
		t.Fatalf("clone: %v", err)
	}
	if err := session.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	variants, err := store.ListVariants(ctx, handle.ID)
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	if variants[0].Kind != domain.VariantPublished || variants[1].Kind != domain.VariantUnpublished {
		t.Fatalf("expected kind ordering, got %s, %s", variants[0].Kind, variants[1].Kind)
	}
}
