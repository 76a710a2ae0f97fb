package publication_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	publication "github.com/goliatone/go-publication"
	publicationcmd "github.com/goliatone/go-publication/internal/commands/publication"
	"github.com/goliatone/go-publication/internal/identity"
	"github.com/goliatone/go-publication/internal/workflow"
)

func newModule(t *testing.T) *publication.Module {
	t.Helper()
	cfg := publication.DefaultConfig()
	cfg.Logging.Provider = "noop"
	module, err := publication.New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestModuleCreateDocumentDerivesHandleID(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	handle, err := module.CreateDocument(ctx, "/docs/", "Getting Started")
	if err != nil {
		t.Fatalf("CreateDocument returned error: %v", err)
	}
	if handle.Name != "getting-started" {
		t.Fatalf("expected normalised name, got %q", handle.Name)
	}
	if want := identity.HandleUUID(handle.Path, handle.Name); handle.ID != want {
		t.Fatalf("expected derived id %s, got %s", want, handle.ID)
	}
	if _, err := module.CreateDocument(ctx, "/docs", "getting-started"); err == nil {
		t.Fatalf("expected duplicate location to fail")
	}
	if _, err := module.CreateDocument(ctx, "/docs", " "); err == nil {
		t.Fatalf("expected empty name to fail")
	}
}

func TestModuleHintsFollowWorkflow(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()
	handle, err := module.CreateDocument(ctx, "/docs", "guide")
	if err != nil {
		t.Fatalf("CreateDocument returned error: %v", err)
	}

	hints, err := module.Hints(ctx, handle.ID, "alice")
	if err != nil {
		t.Fatalf("Hints returned error: %v", err)
	}
	if !hints.Allowed(workflow.OpEdit) || hints.Allowed(workflow.OpPublish) {
		t.Fatalf("unexpected hints for an empty handle: %+v", hints.Operations)
	}

	svc := module.Workflow()
	if _, err := svc.ObtainEditableInstance(ctx, handle.ID, "alice"); err != nil {
		t.Fatalf("obtain: %v", err)
	}
	hints, err = module.Hints(ctx, handle.ID, "bob")
	if err != nil {
		t.Fatalf("Hints returned error: %v", err)
	}
	if hints.Allowed(workflow.OpEdit) || !hints.Allowed(workflow.OpUnlock) {
		t.Fatalf("expected bob to be locked out but able to unlock: %+v", hints.Operations)
	}
}

func TestModuleSubscribeDispatchesCommands(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()
	handle, err := module.CreateDocument(ctx, "/docs", "guide")
	if err != nil {
		t.Fatalf("CreateDocument returned error: %v", err)
	}

	subs, err := module.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	t.Cleanup(func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	})
	if len(subs) != 19 {
		t.Fatalf("expected 19 subscriptions, got %d", len(subs))
	}

	target := publicationcmd.Target{HandleID: handle.ID, Actor: "alice"}
	steps := []any{
		publicationcmd.ObtainDraftCommand{Target: target},
		publicationcmd.SaveDraftCommand{Target: target, Content: map[string]any{"title": "Guide"}},
		publicationcmd.CommitDraftCommand{Target: target},
		publicationcmd.PublishCommand{Target: target},
	}
	for _, step := range steps {
		var err error
		switch msg := step.(type) {
		case publicationcmd.ObtainDraftCommand:
			err = dispatcher.Dispatch(ctx, msg)
		case publicationcmd.SaveDraftCommand:
			err = dispatcher.Dispatch(ctx, msg)
		case publicationcmd.CommitDraftCommand:
			err = dispatcher.Dispatch(ctx, msg)
		case publicationcmd.PublishCommand:
			err = dispatcher.Dispatch(ctx, msg)
		}
		if err != nil {
			t.Fatalf("dispatch %T: %v", step, err)
		}
	}

	snapshot, err := module.Snapshot(ctx, handle.ID)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snapshot.Published == nil || snapshot.Published.Content["title"] != "Guide" {
		t.Fatalf("expected published guide, got %+v", snapshot.Published)
	}

	if err := dispatcher.Dispatch(ctx, publicationcmd.DeleteCommand{Target: target}); err == nil {
		t.Fatalf("expected live document delete to be refused")
	}
	if err := dispatcher.Dispatch(ctx, publicationcmd.DepublishCommand{Target: target}); err != nil {
		t.Fatalf("depublish: %v", err)
	}
	if err := dispatcher.Dispatch(ctx, publicationcmd.DeleteCommand{Target: target}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snapshot, err = module.Snapshot(ctx, handle.ID)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if !snapshot.Empty() {
		t.Fatalf("expected deleted document to have no variants, got %+v", snapshot)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := publication.DefaultConfig()
	cfg.Storage.Provider = "sqlite"

	if _, err := publication.New(cfg); !errors.Is(err, publication.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}
