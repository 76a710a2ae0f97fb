package jobs

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ActionAccepted = "accepted"
	ActionStale    = "rejected.stale"
	ActionSkipped  = "skipped"
	ActionFailed   = "failed"
)

// AuditEvent records what a fired job did to a handle.
type AuditEvent struct {
	HandleID   uuid.UUID
	RequestID  uuid.UUID
	JobID      string
	Action     string
	Actor      string
	OccurredAt time.Time
	Metadata   map[string]any
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
	List(ctx context.Context) ([]AuditEvent, error)
	// Prune removes events that occurred at or before cutoff and reports
	// how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// InMemoryAuditRecorder keeps audit events in process memory.
type InMemoryAuditRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
	err    error
}

func NewInMemoryAuditRecorder() *InMemoryAuditRecorder {
	return &InMemoryAuditRecorder{}
}

func (r *InMemoryAuditRecorder) Record(_ context.Context, event AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	event.Metadata = maps.Clone(event.Metadata)
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *InMemoryAuditRecorder) Events() []AuditEvent {
	events, _ := r.List(context.Background())
	return events
}

// Fail makes subsequent Record calls return err.
func (r *InMemoryAuditRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *InMemoryAuditRecorder) List(context.Context) ([]AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events), nil
}

func (r *InMemoryAuditRecorder) Prune(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(event AuditEvent) bool {
		return !event.OccurredAt.After(cutoff)
	})
	return before - len(r.events), nil
}
