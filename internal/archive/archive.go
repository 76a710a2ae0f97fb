package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

var ErrHandleRequired = errors.New("archive: handle required")

// Entry records the last known state of a deleted document.
type Entry struct {
	ID         uuid.UUID
	HandleID   uuid.UUID
	Location   string
	Variants   map[string]any
	ArchivedAt time.Time
}

// Option customises archive services.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock overrides the clock used to stamp entries.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	cfg := options{clock: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func newEntry(snapshot domain.Snapshot, now time.Time) Entry {
	variants := make(map[string]any, len(domain.VariantKinds))
	for _, kind := range domain.VariantKinds {
		variant := snapshot.Variant(kind)
		if variant == nil {
			continue
		}
		variants[string(kind)] = map[string]any{
			"id":               variant.ID.String(),
			"content":          domain.CloneContent(variant.Content),
			"last_modified_by": variant.LastModifiedBy,
			"last_modified_at": variant.LastModifiedAt.Format(time.RFC3339Nano),
		}
	}
	return Entry{
		ID:         uuid.New(),
		HandleID:   snapshot.Handle.ID,
		Location:   snapshot.Handle.Location(),
		Variants:   variants,
		ArchivedAt: now,
	}
}

// MemoryService keeps archive entries in memory.
type MemoryService struct {
	mu      sync.RWMutex
	opts    options
	entries []Entry
}

var _ interfaces.ArchiveService = (*MemoryService)(nil)

func NewMemoryService(opts ...Option) *MemoryService {
	return &MemoryService{opts: buildOptions(opts)}
}

func (m *MemoryService) Archive(_ context.Context, snapshot domain.Snapshot) error {
	if snapshot.Handle.ID == uuid.Nil {
		return ErrHandleRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, newEntry(snapshot, m.opts.clock()))
	return nil
}

// Entries returns archived entries in insertion order.
func (m *MemoryService) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

type noop struct{}

// NoOp returns an archive that discards entries.
func NoOp() interfaces.ArchiveService {
	return noop{}
}

func (noop) Archive(context.Context, domain.Snapshot) error { return nil }
