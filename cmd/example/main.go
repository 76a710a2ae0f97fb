package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	publication "github.com/goliatone/go-publication"
	publicationcmd "github.com/goliatone/go-publication/internal/commands/publication"
	"github.com/goliatone/go-publication/internal/di"
	"github.com/google/uuid"
)

// clock lets the walkthrough jump ahead to scheduled dates.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func main() {
	configPath := flag.String("config", "cmd/example/config.toml", "path to a TOML config file")
	flag.Parse()

	cfg := publication.DefaultConfig()
	if *configPath != "" {
		loaded, err := publication.LoadConfig(*configPath)
		if err != nil {
			log.Printf("load config %s: %v (using defaults)", *configPath, err)
		} else {
			cfg = loaded
		}
	}

	clk := &clock{now: time.Now().UTC()}
	module, err := publication.New(cfg, di.WithClock(clk.Now))
	if err != nil {
		log.Fatalf("initialise publication module: %v", err)
	}
	defer module.Close()

	ctx := context.Background()
	if err := run(ctx, module, clk); err != nil {
		log.Fatalf("walkthrough: %v", err)
	}
}

func run(ctx context.Context, module *publication.Module, clk *clock) error {
	svc := module.Workflow()

	handle, err := module.CreateDocument(ctx, "/docs", "Getting Started")
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	log.Printf("created document %s at %s", handle.ID, handle.Location())

	if _, err := svc.ObtainEditableInstance(ctx, handle.ID, "alice"); err != nil {
		return fmt.Errorf("obtain draft: %w", err)
	}
	if _, err := svc.SaveDraft(ctx, handle.ID, "alice", map[string]any{
		"title": "Getting Started",
		"body":  "Install the module and create your first document.",
	}); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	printHints(ctx, module, handle.ID, "bob", "hints for bob while alice holds the draft")

	if _, err := svc.CommitEditableInstance(ctx, handle.ID, "alice"); err != nil {
		return fmt.Errorf("commit draft: %w", err)
	}

	request, err := svc.RequestPublication(ctx, handle.ID, "alice", nil)
	if err != nil {
		return fmt.Errorf("request publication: %w", err)
	}
	printHints(ctx, module, handle.ID, "editor", "hints for the editor with a pending request")

	outcome, err := svc.AcceptRequest(ctx, handle.ID, "editor", request.ID)
	if err != nil {
		return fmt.Errorf("accept request: %w", err)
	}
	log.Printf("request %s accepted=%t", outcome.Request.ID, outcome.Accepted)
	printSnapshot(ctx, module, handle.ID, "after publication")

	// Commands go through the go-command dispatcher once subscribed.
	subs, err := module.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()
	if err := dispatcher.Dispatch(ctx, publicationcmd.ScheduleDepublishCommand{
		Target: publicationcmd.Target{HandleID: handle.ID, Actor: "alice"},
		At:     clk.Now().Add(24 * time.Hour),
	}); err != nil {
		return fmt.Errorf("dispatch schedule depublish: %w", err)
	}
	printHints(ctx, module, handle.ID, "alice", "hints with a scheduled depublish")

	clk.Advance(25 * time.Hour)
	if worker := module.Worker(); worker != nil {
		if err := worker.Process(ctx); err != nil {
			return fmt.Errorf("process scheduled jobs: %w", err)
		}
		events, err := module.Container().AuditLog().List(ctx)
		if err != nil {
			return fmt.Errorf("list audit events: %w", err)
		}
		prettyPrint("scheduler audit", events)
	}
	printSnapshot(ctx, module, handle.ID, "after scheduled depublish")

	if err := svc.Rename(ctx, handle.ID, "alice", "Quick Start"); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if _, err := svc.RequestDeletion(ctx, handle.ID, "alice"); err != nil {
		return fmt.Errorf("request deletion: %w", err)
	}
	if err := svc.Move(ctx, handle.ID, "alice", "/archive", ""); err != nil {
		log.Printf("move blocked while deletion is pending: %v", err)
	}
	return nil
}

func printHints(ctx context.Context, module *publication.Module, handle uuid.UUID, actor, label string) {
	hints, err := module.Hints(ctx, handle, actor)
	if err != nil {
		log.Printf("compute hints: %v", err)
		return
	}
	prettyPrint(label, hints.Map())
}

func printSnapshot(ctx context.Context, module *publication.Module, handle uuid.UUID, label string) {
	snapshot, err := module.Snapshot(ctx, handle)
	if err != nil {
		log.Printf("read snapshot: %v", err)
		return
	}
	summary := map[string]any{
		"handle":      snapshot.Handle.Location(),
		"draft":       snapshot.Draft != nil,
		"unpublished": snapshot.Unpublished != nil,
		"published":   snapshot.Published != nil,
		"request":     snapshot.Request != nil,
	}
	if snapshot.Published != nil {
		summary["availability"] = snapshot.Published.Availability
	}
	prettyPrint(label, summary)
}

func prettyPrint(label string, payload any) {
	fmt.Printf("\n%s:\n", label)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		log.Printf("pretty print %s: %v", label, err)
	}
}
