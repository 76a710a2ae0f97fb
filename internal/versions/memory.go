package versions

import (
	"context"
	"sync"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// MemoryService keeps version history in memory.
type MemoryService struct {
	mu       sync.RWMutex
	opts     options
	versions map[uuid.UUID][]Version
}

var (
	_ interfaces.VersionSnapshotService = (*MemoryService)(nil)
	_ interfaces.VersionDiscarder       = (*MemoryService)(nil)
	_ Lister                            = (*MemoryService)(nil)
)

func NewMemoryService(opts ...Option) *MemoryService {
	return &MemoryService{
		opts:     buildOptions(opts),
		versions: make(map[uuid.UUID][]Version),
	}
}

func (m *MemoryService) Snapshot(_ context.Context, variant domain.Variant) error {
	if variant.HandleID == uuid.Nil {
		return ErrVariantRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.versions[variant.HandleID]
	m.versions[variant.HandleID] = append(history, newVersion(variant, len(history)+1, m.opts.clock()))
	return nil
}

// Discard drops the latest version of the handle when it was taken from
// variant. Anything else is left alone.
func (m *MemoryService) Discard(_ context.Context, variant domain.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.versions[variant.HandleID]
	if len(history) == 0 || !history[len(history)-1].From(variant) {
		return nil
	}
	m.versions[variant.HandleID] = history[:len(history)-1]
	return nil
}

func (m *MemoryService) List(_ context.Context, handle uuid.UUID) ([]Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.versions[handle]
	out := make([]Version, len(history))
	for i, version := range history {
		out[i] = version
		out[i].Content = domain.CloneContent(version.Content)
	}
	return out, nil
}
