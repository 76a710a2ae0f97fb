package publicationcmd_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	publicationcmd "github.com/goliatone/go-publication/internal/commands/publication"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/folders"
	"github.com/goliatone/go-publication/internal/publication"
	"github.com/goliatone/go-publication/internal/storage"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

type failingVersions struct{}

func (failingVersions) Snapshot(context.Context, domain.Variant) error {
	return errors.New("versions offline")
}

type recordingRegistry struct {
	handlers []any
	err      error
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return r.err
	}
	r.handlers = append(r.handlers, handler)
	return nil
}

func newWorkflow(t *testing.T, opts ...publication.Option) (*publication.Service, *storage.MemoryStore, uuid.UUID) {
	t.Helper()
	store := storage.NewMemoryStore()
	handle, err := store.CreateHandle(context.Background(), domain.Handle{ID: uuid.New(), Path: "/docs", Name: "landing"})
	if err != nil {
		t.Fatalf("create handle: %v", err)
	}
	base := []publication.Option{publication.WithFolders(folders.NewService(store, store))}
	return publication.NewService(store, append(base, opts...)...), store, handle.ID
}

func TestHandlersDriveEditAndPublish(t *testing.T) {
	service, store, handle := newWorkflow(t)
	set, err := publicationcmd.RegisterPublicationCommands(nil, service, nil, publicationcmd.FeatureGates{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx := context.Background()
	target := publicationcmd.Target{HandleID: handle, Actor: "alice"}

	if err := set.ObtainDraft.Execute(ctx, publicationcmd.ObtainDraftCommand{Target: target}); err != nil {
		t.Fatalf("obtain: %v", err)
	}
	if err := set.SaveDraft.Execute(ctx, publicationcmd.SaveDraftCommand{Target: target, Content: map[string]any{"title": "Hello"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := set.CommitDraft.Execute(ctx, publicationcmd.CommitDraftCommand{Target: target}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := set.Publish.Execute(ctx, publicationcmd.PublishCommand{Target: target}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	snapshot, err := store.Read(ctx, handle)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snapshot.Published == nil || snapshot.Published.Content["title"] != "Hello" {
		t.Fatalf("expected published variant, got %+v", snapshot.Published)
	}

	if err := set.Rename.Execute(ctx, publicationcmd.RenameCommand{Target: target, NewName: "welcome"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	renamed, err := store.GetHandle(ctx, handle)
	if err != nil {
		t.Fatalf("get handle: %v", err)
	}
	if renamed.Name != "welcome" {
		t.Fatalf("expected renamed handle, got %+v", renamed)
	}
}

func TestHandlersCategoriseErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("guard violation", func(t *testing.T) {
		service, _, handle := newWorkflow(t)
		handler := publicationcmd.NewPublishHandler(service, nil)
		err := handler.Execute(ctx, publicationcmd.PublishCommand{Target: publicationcmd.Target{HandleID: handle, Actor: "alice"}})
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation category, got %v", err)
		}
		violation, ok := workflow.AsGuardViolation(err)
		if !ok || violation.Predicate != workflow.PredicateNothingToPublish {
			t.Fatalf("expected nothing to publish violation, got %v", err)
		}
	})

	t.Run("collaborator failure", func(t *testing.T) {
		service, _, handle := newWorkflow(t, publication.WithVersions(failingVersions{}))
		set, err := publicationcmd.RegisterPublicationCommands(nil, service, nil, publicationcmd.FeatureGates{})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		target := publicationcmd.Target{HandleID: handle, Actor: "alice"}
		for _, step := range []func() error{
			func() error { return set.ObtainDraft.Execute(ctx, publicationcmd.ObtainDraftCommand{Target: target}) },
			func() error { return set.CommitDraft.Execute(ctx, publicationcmd.CommitDraftCommand{Target: target}) },
		} {
			if err := step(); err != nil {
				t.Fatalf("prepare: %v", err)
			}
		}
		err = set.Publish.Execute(ctx, publicationcmd.PublishCommand{Target: target})
		if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
			t.Fatalf("expected command category, got %v", err)
		}
		if !errors.Is(err, workflow.ErrCollaboratorFailure) {
			t.Fatalf("expected collaborator failure, got %v", err)
		}
	})

	t.Run("schedule in the past", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		service, _, handle := newWorkflow(t,
			publication.WithClock(func() time.Time { return now }),
			publication.WithScheduler(noopPort{}),
		)
		handler := publicationcmd.NewRequestPublicationHandler(service, nil)
		past := now.Add(-time.Hour)
		err := handler.Execute(ctx, publicationcmd.RequestPublicationCommand{
			Target: publicationcmd.Target{HandleID: handle, Actor: "alice"},
			At:     &past,
		})
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation category, got %v", err)
		}
		if !errors.Is(err, publication.ErrScheduleInPast) {
			t.Fatalf("expected schedule in past, got %v", err)
		}
	})

	t.Run("invalid message", func(t *testing.T) {
		service, _, _ := newWorkflow(t)
		handler := publicationcmd.NewDeleteHandler(service, nil)
		err := handler.Execute(ctx, publicationcmd.DeleteCommand{})
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation category, got %v", err)
		}
	})
}

func TestRegisterPublicationCommandsHonoursGates(t *testing.T) {
	service, _, _ := newWorkflow(t)
	off := func() bool { return false }

	cases := []struct {
		name  string
		gates publicationcmd.FeatureGates
		want  int
	}{
		{name: "all enabled", gates: publicationcmd.FeatureGates{}, want: 19},
		{name: "requests disabled", gates: publicationcmd.FeatureGates{RequestsEnabled: off}, want: 13},
		{name: "scheduling disabled", gates: publicationcmd.FeatureGates{SchedulingEnabled: off}, want: 17},
		{name: "both disabled", gates: publicationcmd.FeatureGates{RequestsEnabled: off, SchedulingEnabled: off}, want: 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := &recordingRegistry{}
			set, err := publicationcmd.RegisterPublicationCommands(reg, service, nil, tc.gates)
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			if len(reg.handlers) != tc.want || len(set.All()) != tc.want {
				t.Fatalf("expected %d handlers, got %d registered and %d in set", tc.want, len(reg.handlers), len(set.All()))
			}
		})
	}
}

func TestRegisterPublicationCommandsErrors(t *testing.T) {
	if _, err := publicationcmd.RegisterPublicationCommands(nil, nil, nil, publicationcmd.FeatureGates{}); !errors.Is(err, publicationcmd.ErrWorkflowRequired) {
		t.Fatalf("expected ErrWorkflowRequired, got %v", err)
	}
	service, _, _ := newWorkflow(t)
	boom := errors.New("registry full")
	if _, err := publicationcmd.RegisterPublicationCommands(&recordingRegistry{err: boom}, service, nil, publicationcmd.FeatureGates{}); !errors.Is(err, boom) {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestPublishThroughDispatcher(t *testing.T) {
	service, store, handle := newWorkflow(t)
	handler := publicationcmd.NewDepublishHandler(service, nil)
	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(0))
	t.Cleanup(sub.Unsubscribe)

	ctx := context.Background()
	published := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	session, err := store.Begin(ctx, handle)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := session.Write(domain.Variant{
		ID:             uuid.New(),
		HandleID:       handle,
		Kind:           domain.VariantPublished,
		Content:        map[string]any{"title": "Live"},
		Availability:   []string{domain.AvailabilityLive},
		PublishedAt:    &published,
		LastModifiedAt: published,
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := session.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := dispatcher.Dispatch(ctx, publicationcmd.DepublishCommand{Target: publicationcmd.Target{HandleID: handle, Actor: "alice"}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	snapshot, err := store.Read(ctx, handle)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snapshot.Published == nil || snapshot.Published.AvailableIn(domain.AvailabilityLive) {
		t.Fatalf("expected offline published variant, got %+v", snapshot.Published)
	}
}

type noopPort struct{}

func (noopPort) Schedule(context.Context, time.Time, interfaces.ScheduledTrigger) error { return nil }

func (noopPort) Cancel(context.Context, interfaces.ScheduledTrigger) error { return nil }
