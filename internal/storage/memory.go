package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// MemoryStore keeps handles, variants and requests in process memory. It is
// safe for concurrent use but does not serialise handle transitions.
type MemoryStore struct {
	mu      sync.RWMutex
	handles map[uuid.UUID]*memoryHandle
	ids     func() uuid.UUID
}

type memoryHandle struct {
	handle   domain.Handle
	variants map[domain.VariantKind]domain.Variant
	requests map[uuid.UUID]domain.Request
}

// MemoryOption customises the memory store.
type MemoryOption func(*MemoryStore)

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(fn func() uuid.UUID) MemoryOption {
	return func(m *MemoryStore) {
		if fn != nil {
			m.ids = fn
		}
	}
}

var (
	_ interfaces.VariantStore = (*MemoryStore)(nil)
	_ interfaces.HandleStore  = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		handles: make(map[uuid.UUID]*memoryHandle),
		ids:     uuid.New,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (m *MemoryStore) Read(ctx context.Context, handle uuid.UUID) (domain.Snapshot, error) {
	return m.read(ctx, handle)
}

func (m *MemoryStore) Begin(ctx context.Context, handle uuid.UUID) (interfaces.VariantSession, error) {
	return openSession(ctx, m, handle, m.ids)
}

func (m *MemoryStore) CreateHandle(_ context.Context, handle domain.Handle) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handle.ID == uuid.Nil {
		handle.ID = m.ids()
	}
	if _, exists := m.handles[handle.ID]; exists {
		return domain.Handle{}, ErrHandleExists
	}
	if _, found := m.findLocked(handle.Path, handle.Name); found {
		return domain.Handle{}, ErrHandleExists
	}
	m.handles[handle.ID] = &memoryHandle{
		handle:   handle,
		variants: make(map[domain.VariantKind]domain.Variant),
		requests: make(map[uuid.UUID]domain.Request),
	}
	return handle, nil
}

func (m *MemoryStore) GetHandle(_ context.Context, id uuid.UUID) (domain.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.handles[id]
	if !ok {
		return domain.Handle{}, &NotFoundError{Key: id.String()}
	}
	return state.handle, nil
}

func (m *MemoryStore) UpdateHandle(_ context.Context, handle domain.Handle) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.handles[handle.ID]
	if !ok {
		return domain.Handle{}, &NotFoundError{Key: handle.ID.String()}
	}
	if existing, found := m.findLocked(handle.Path, handle.Name); found && existing.handle.ID != handle.ID {
		return domain.Handle{}, ErrHandleExists
	}
	state.handle = handle
	return handle, nil
}

func (m *MemoryStore) FindHandle(_ context.Context, path, name string) (domain.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.findLocked(path, name)
	if !ok {
		return domain.Handle{}, &NotFoundError{Key: domain.Handle{Path: path, Name: name}.Location()}
	}
	return state.handle, nil
}

func (m *MemoryStore) findLocked(path, name string) (*memoryHandle, bool) {
	location := domain.Handle{Path: path, Name: name}.Location()
	for _, state := range m.handles {
		if strings.EqualFold(state.handle.Location(), location) {
			return state, true
		}
	}
	return nil, false
}

func (m *MemoryStore) read(_ context.Context, handle uuid.UUID) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.handles[handle]
	if !ok {
		return domain.Snapshot{}, &NotFoundError{Key: handle.String()}
	}
	snapshot := domain.Snapshot{Handle: state.handle}
	for kind, variant := range state.variants {
		copied := variant.Clone()
		setVariant(&snapshot, kind, &copied)
	}
	for _, request := range state.requests {
		copied := request.Clone()
		if copied.Active() {
			snapshot.Request = &copied
			continue
		}
		snapshot.Rejected = append(snapshot.Rejected, copied)
	}
	sort.Slice(snapshot.Rejected, func(i, j int) bool {
		return snapshot.Rejected[i].CreatedAt.Before(snapshot.Rejected[j].CreatedAt)
	})
	return snapshot, nil
}

func (m *MemoryStore) commit(_ context.Context, changes Changeset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.handles[changes.Handle]
	if !ok {
		return &NotFoundError{Key: changes.Handle.String()}
	}
	for _, change := range changes.Changes {
		switch change.Kind {
		case ChangeWriteVariant:
			state.variants[change.Variant.Kind] = change.Variant.Clone()
		case ChangeRemoveVariant:
			delete(state.variants, change.Variant.Kind)
		case ChangeWriteRequest:
			state.requests[change.Request.ID] = change.Request.Clone()
		case ChangeRemoveRequest:
			delete(state.requests, change.Request.ID)
		}
	}
	return nil
}
