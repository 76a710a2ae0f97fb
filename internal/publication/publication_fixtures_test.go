package publication_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-publication/internal/archive"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/folders"
	"github.com/goliatone/go-publication/internal/publication"
	"github.com/goliatone/go-publication/internal/storage"
	"github.com/goliatone/go-publication/internal/versions"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

var fixtureTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// tickingClock advances one second per reading so every write carries a
// distinct modification time.
type tickingClock struct {
	mu      sync.Mutex
	current time.Time
}

func newClock() *tickingClock {
	return &tickingClock{current: fixtureTime}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

func (c *tickingClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

type recordingPort struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
	triggers  []interfaces.ScheduledTrigger
	cancelled []interfaces.ScheduledTrigger
	err       error
}

func newRecordingPort() *recordingPort {
	return &recordingPort{scheduled: make(map[uuid.UUID]time.Time)}
}

func (p *recordingPort) Schedule(_ context.Context, at time.Time, trigger interfaces.ScheduledTrigger) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.scheduled[trigger.RequestID] = at
	p.triggers = append(p.triggers, trigger)
	return nil
}

func (p *recordingPort) Cancel(_ context.Context, trigger interfaces.ScheduledTrigger) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.scheduled, trigger.RequestID)
	p.cancelled = append(p.cancelled, trigger)
	return nil
}

func (p *recordingPort) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scheduled)
}

type failingVersions struct{}

func (failingVersions) Snapshot(context.Context, domain.Variant) error {
	return errors.New("versions offline")
}

type failingArchive struct {
	calls int
}

func (f *failingArchive) Archive(context.Context, domain.Snapshot) error {
	f.calls++
	return errors.New("archive offline")
}

// saveFailingStore opens sessions whose Save always fails.
type saveFailingStore struct {
	*storage.MemoryStore
}

func (s saveFailingStore) Begin(ctx context.Context, handle uuid.UUID) (interfaces.VariantSession, error) {
	session, err := s.MemoryStore.Begin(ctx, handle)
	if err != nil {
		return nil, err
	}
	return saveFailingSession{VariantSession: session}, nil
}

type saveFailingSession struct {
	interfaces.VariantSession
}

func (saveFailingSession) Save(context.Context) error {
	return errors.New("store offline")
}

type harness struct {
	store    *storage.MemoryStore
	versions *versions.MemoryService
	archive  *archive.MemoryService
	port     *recordingPort
	clock    *tickingClock
	service  *publication.Service
	handle   domain.Handle
}

func newHarness(t *testing.T, opts ...publication.Option) *harness {
	t.Helper()
	clock := newClock()
	h := &harness{
		store:    storage.NewMemoryStore(),
		versions: versions.NewMemoryService(versions.WithClock(clock.Now)),
		archive:  archive.NewMemoryService(archive.WithClock(clock.Now)),
		port:     newRecordingPort(),
		clock:    clock,
	}
	base := []publication.Option{
		publication.WithVersions(h.versions),
		publication.WithArchive(h.archive),
		publication.WithFolders(folders.NewService(h.store, h.store, folders.WithClock(clock.Now))),
		publication.WithScheduler(h.port),
		publication.WithClock(clock.Now),
	}
	h.service = publication.NewService(h.store, append(base, opts...)...)
	h.handle = h.createHandle(t, "/docs", "landing")
	return h
}

func (h *harness) createHandle(t *testing.T, path, name string) domain.Handle {
	t.Helper()
	handle, err := h.store.CreateHandle(context.Background(), domain.Handle{ID: uuid.New(), Path: path, Name: name})
	if err != nil {
		t.Fatalf("create handle: %v", err)
	}
	return handle
}

// write stores variant directly, bypassing the workflow.
func (h *harness) write(t *testing.T, variant domain.Variant) domain.Variant {
	t.Helper()
	ctx := context.Background()
	session, err := h.store.Begin(ctx, h.handle.ID)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	now := h.clock.Now()
	variant.HandleID = h.handle.ID
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = now
	}
	variant.LastModifiedBy = "editor"
	variant.LastModifiedAt = now
	if err := session.Write(variant); err != nil {
		t.Fatalf("write %s: %v", variant.Kind, err)
	}
	if err := session.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	return h.snapshot(t).Variant(variant.Kind).Clone()
}

func (h *harness) seedUnpublished(t *testing.T, title string) domain.Variant {
	t.Helper()
	return h.write(t, domain.Variant{Kind: domain.VariantUnpublished, Content: map[string]any{"title": title}})
}

func (h *harness) seedLive(t *testing.T, title string) domain.Variant {
	t.Helper()
	published := fixtureTime
	return h.write(t, domain.Variant{
		Kind:         domain.VariantPublished,
		Content:      map[string]any{"title": title},
		Availability: []string{domain.AvailabilityLive},
		PublishedAt:  &published,
	})
}

func (h *harness) snapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	snapshot, err := h.store.Read(context.Background(), h.handle.ID)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return snapshot
}

func (h *harness) versionCount(t *testing.T) int {
	t.Helper()
	list, err := h.versions.List(context.Background(), h.handle.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	return len(list)
}

func expectViolation(t *testing.T, err error, predicate workflow.Predicate) {
	t.Helper()
	violation, ok := workflow.AsGuardViolation(err)
	if !ok {
		t.Fatalf("expected guard violation %q, got %v", predicate, err)
	}
	if violation.Predicate != predicate {
		t.Fatalf("expected predicate %q, got %q", predicate, violation.Predicate)
	}
}

func expectLive(t *testing.T, variant *domain.Variant) {
	t.Helper()
	if variant == nil {
		t.Fatalf("expected published variant")
	}
	if len(variant.Availability) != 1 || variant.Availability[0] != domain.AvailabilityLive {
		t.Fatalf("expected availability [live], got %v", variant.Availability)
	}
	if variant.PublishedAt == nil {
		t.Fatalf("expected publication time")
	}
}
