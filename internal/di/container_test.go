package di_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-publication/internal/commands/fixtures"
	publicationcmd "github.com/goliatone/go-publication/internal/commands/publication"
	"github.com/goliatone/go-publication/internal/di"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/runtimeconfig"
	"github.com/goliatone/go-publication/internal/validation"
	"github.com/goliatone/go-publication/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func createHandle(t *testing.T, container *di.Container) uuid.UUID {
	t.Helper()
	handle, err := container.Store().CreateHandle(context.Background(), domain.Handle{ID: uuid.New(), Path: "/docs", Name: "landing"})
	if err != nil {
		t.Fatalf("create handle: %v", err)
	}
	return handle.ID
}

func commitDraft(t *testing.T, container *di.Container, handle uuid.UUID, content map[string]any) {
	t.Helper()
	ctx := context.Background()
	svc := container.Workflow()
	if _, err := svc.ObtainEditableInstance(ctx, handle, "alice"); err != nil {
		t.Fatalf("obtain: %v", err)
	}
	if _, err := svc.SaveDraft(ctx, handle, "alice", content); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.CommitEditableInstance(ctx, handle, "alice"); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Requests = false

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrSchedulingFeatureRequiresRequests) {
		t.Fatalf("expected scheduling/requests error, got %v", err)
	}
}

func TestContainerFiresScheduledPublication(t *testing.T) {
	clock := newManualClock()
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	ctx := context.Background()
	handle := createHandle(t, container)
	commitDraft(t, container, handle, map[string]any{"title": "Launch"})

	at := clock.Now().Add(time.Hour)
	if _, err := container.Workflow().SchedulePublish(ctx, handle, "alice", at, nil); err != nil {
		t.Fatalf("schedule publish: %v", err)
	}

	if err := container.Worker().Process(ctx); err != nil {
		t.Fatalf("early process: %v", err)
	}
	snapshot, err := container.Workflow().Snapshot(ctx, handle)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.Published != nil {
		t.Fatalf("expected nothing published before the scheduled date")
	}

	clock.Advance(2 * time.Hour)
	if err := container.Worker().Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	snapshot, err = container.Workflow().Snapshot(ctx, handle)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.Published == nil || !snapshot.Published.AvailableIn(domain.AvailabilityLive) {
		t.Fatalf("expected live published variant, got %+v", snapshot.Published)
	}
	if snapshot.Request != nil {
		t.Fatalf("expected the scheduled request to be consumed, got %+v", snapshot.Request)
	}

	events, err := container.AuditLog().List(ctx)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(events) != 1 || events[0].HandleID != handle {
		t.Fatalf("expected one audit event for the handle, got %+v", events)
	}
}

func TestContainerEnforcesContentSchema(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.ContentSchema = true
	cfg.Validation.Schema = map[string]any{
		"type":     "object",
		"required": []any{"title"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
		},
	}
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	ctx := context.Background()
	handle := createHandle(t, container)
	svc := container.Workflow()
	if _, err := svc.ObtainEditableInstance(ctx, handle, "alice"); err != nil {
		t.Fatalf("obtain: %v", err)
	}
	if _, err := svc.SaveDraft(ctx, handle, "alice", map[string]any{"body": "no title"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.CommitEditableInstance(ctx, handle, "alice"); !errors.Is(err, validation.ErrContentInvalid) {
		t.Fatalf("expected content invalid error, got %v", err)
	}
}

func TestContainerLegacyModeBlocksEditsWhileRequestPending(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Workflow.Mode = "legacy"
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	ctx := context.Background()
	handle := createHandle(t, container)
	commitDraft(t, container, handle, map[string]any{"title": "Draft"})

	if _, err := container.Workflow().RequestPublication(ctx, handle, "alice", nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := container.Workflow().ObtainEditableInstance(ctx, handle, "bob"); err == nil {
		t.Fatalf("expected legacy mode to block edits while a request is pending")
	}
}

func TestContainerSQLiteBackends(t *testing.T) {
	cases := []struct {
		name  string
		build func(t *testing.T) (*di.Container, error)
	}{
		{
			name: "host database",
			build: func(t *testing.T) (*di.Container, error) {
				sqlDB, err := testsupport.NewSQLiteMemoryDB()
				if err != nil {
					t.Fatalf("new sqlite db: %v", err)
				}
				t.Cleanup(func() { _ = sqlDB.Close() })
				bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
				bunDB.SetMaxOpenConns(1)
				return di.NewContainer(runtimeconfig.DefaultConfig(), di.WithBunDB(bunDB))
			},
		},
		{
			name: "configured dsn",
			build: func(t *testing.T) (*di.Container, error) {
				cfg := runtimeconfig.DefaultConfig()
				cfg.Storage.Provider = runtimeconfig.StorageSQLite
				cfg.Storage.DSN = fmt.Sprintf("file:di_container_%d?mode=memory&cache=shared", time.Now().UnixNano())
				return di.NewContainer(cfg)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			container, err := tc.build(t)
			if err != nil {
				t.Fatalf("NewContainer returned error: %v", err)
			}
			t.Cleanup(func() { _ = container.Close() })
			if container.DB() == nil {
				t.Fatalf("expected database backend")
			}

			ctx := context.Background()
			handle := createHandle(t, container)
			commitDraft(t, container, handle, map[string]any{"title": "Stored"})
			if err := container.Workflow().Publish(ctx, handle, "alice"); err != nil {
				t.Fatalf("publish: %v", err)
			}
			snapshot, err := container.Workflow().Snapshot(ctx, handle)
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if snapshot.Published == nil || snapshot.Published.Content["title"] != "Stored" {
				t.Fatalf("expected stored published variant, got %+v", snapshot.Published)
			}
		})
	}
}

func TestRegisterCommandsWiresIntegrations(t *testing.T) {
	container, err := di.NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	registry := fixtures.NewRecordingRegistry()
	dispatcher := fixtures.NewRecordingDispatcher()
	cron := fixtures.NewCronRecorder()

	result, err := container.RegisterCommands(di.RegistrationOptions{
		Registry:        registry,
		Dispatcher:      dispatcher,
		CronRegistrar:   cron.Registrar(),
		ProcessJobsCron: "@every 10s",
	})
	if err != nil {
		t.Fatalf("RegisterCommands returned error: %v", err)
	}

	// 19 workflow handlers plus process, export and cleanup.
	if want := 22; registry.Count() != want || len(dispatcher.Handlers) != want || len(result.Handlers) != want {
		t.Fatalf("expected %d handlers, got registry=%d dispatcher=%d result=%d", want, registry.Count(), len(dispatcher.Handlers), len(result.Handlers))
	}
	if len(result.Subscriptions) != 22 {
		t.Fatalf("expected subscriptions for every handler, got %d", len(result.Subscriptions))
	}
	if len(cron.Registrations) != 2 {
		t.Fatalf("expected process and cleanup cron registrations, got %d", len(cron.Registrations))
	}
	if got := result.ProcessJobs.CronOptions().Expression; got != "@every 10s" {
		t.Fatalf("expected overridden cron expression, got %q", got)
	}

	ctx := context.Background()
	handle := createHandle(t, container)
	if err := result.Workflow.ObtainDraft.Execute(ctx, publicationcmd.ObtainDraftCommand{
		Target: publicationcmd.Target{HandleID: handle, Actor: "alice"},
	}); err != nil {
		t.Fatalf("obtain via command: %v", err)
	}
}

func TestRegisterCommandsReleasesSubscriptionsOnError(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Scheduling = false
	cfg.Features.Requests = false
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	registry := fixtures.NewRecordingRegistry()
	registry.Err = errors.New("registry offline")
	dispatcher := fixtures.NewRecordingDispatcher()

	result, err := container.RegisterCommands(di.RegistrationOptions{Registry: registry, Dispatcher: dispatcher})
	if err == nil {
		t.Fatal("expected registration error")
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected subscriptions to be dropped, got %d", len(result.Subscriptions))
	}
	for _, sub := range dispatcher.Subscriptions {
		if !sub.Unsubscribed {
			t.Fatalf("expected every subscription to be released")
		}
	}
	if result.ProcessJobs != nil || result.ExportAudit != nil {
		t.Fatalf("expected no scheduler handlers without scheduling")
	}
	if len(result.Handlers) != 11 {
		t.Fatalf("expected only direct workflow handlers, got %d", len(result.Handlers))
	}
}
