package storage

import (
	"context"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// backend is implemented by stores able to apply a changeset atomically.
type backend interface {
	read(ctx context.Context, handle uuid.UUID) (domain.Snapshot, error)
	commit(ctx context.Context, changes Changeset) error
}

// Session stages mutations against one handle until Save. Sessions are not
// safe for concurrent use.
type Session struct {
	backend backend
	handle  uuid.UUID
	ids     func() uuid.UUID
	base    domain.Snapshot
	changes Changeset
}

var _ interfaces.VariantSession = (*Session)(nil)

func openSession(ctx context.Context, b backend, handle uuid.UUID, ids func() uuid.UUID) (*Session, error) {
	base, err := b.read(ctx, handle)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = uuid.New
	}
	return &Session{
		backend: b,
		handle:  handle,
		ids:     ids,
		base:    base,
		changes: Changeset{Handle: handle},
	}, nil
}

// Snapshot returns the handle state with staged changes applied.
func (s *Session) Snapshot() domain.Snapshot {
	return s.changes.apply(s.base)
}

// Pending returns the staged changeset.
func (s *Session) Pending() Changeset {
	out := Changeset{Handle: s.handle}
	out.Changes = append(out.Changes, s.changes.Changes...)
	return out
}

func (s *Session) Write(variant domain.Variant) error {
	if !variant.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := s.own(&variant.HandleID); err != nil {
		return err
	}
	if variant.ID == uuid.Nil {
		if existing := s.Snapshot().Variant(variant.Kind); existing != nil {
			variant.ID = existing.ID
		} else {
			variant.ID = s.ids()
		}
	}
	s.stage(Change{Kind: ChangeWriteVariant, Variant: variant.Clone()})
	return nil
}

func (s *Session) Remove(variant domain.Variant) error {
	if !variant.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := s.own(&variant.HandleID); err != nil {
		return err
	}
	s.stage(Change{Kind: ChangeRemoveVariant, Variant: variant.Clone()})
	return nil
}

func (s *Session) CloneInto(source domain.Variant, target domain.VariantKind) (domain.Variant, error) {
	if !target.Valid() {
		return domain.Variant{}, ErrInvalidKind
	}
	clone := source.Clone()
	clone.Kind = target
	clone.HandleID = s.handle
	if existing := s.Snapshot().Variant(target); existing != nil {
		clone.ID = existing.ID
		clone.CreatedAt = existing.CreatedAt
	} else {
		clone.ID = s.ids()
	}
	if err := s.Write(clone); err != nil {
		return domain.Variant{}, err
	}
	return clone, nil
}

func (s *Session) WriteRequest(request domain.Request) error {
	if err := s.own(&request.HandleID); err != nil {
		return err
	}
	if request.ID == uuid.Nil {
		request.ID = s.ids()
	}
	if request.Active() {
		if current := s.Snapshot().Request; current != nil && current.ID != request.ID {
			return ErrRequestConflict
		}
	}
	s.stage(Change{Kind: ChangeWriteRequest, Request: request.Clone()})
	return nil
}

func (s *Session) RemoveRequest(request domain.Request) error {
	if err := s.own(&request.HandleID); err != nil {
		return err
	}
	s.stage(Change{Kind: ChangeRemoveRequest, Request: request.Clone()})
	return nil
}

// Save applies every staged change atomically. A failed save keeps the
// staged changes so callers can Refresh.
func (s *Session) Save(ctx context.Context) error {
	if s.changes.Empty() {
		return nil
	}
	if err := s.backend.commit(ctx, s.Pending()); err != nil {
		return err
	}
	s.base = s.Snapshot()
	s.changes = Changeset{Handle: s.handle}
	return nil
}

// Refresh drops staged changes and reloads the persisted state.
func (s *Session) Refresh(ctx context.Context) error {
	s.changes = Changeset{Handle: s.handle}
	base, err := s.backend.read(ctx, s.handle)
	if err != nil {
		return err
	}
	s.base = base
	return nil
}

func (s *Session) own(handle *uuid.UUID) error {
	if *handle == uuid.Nil {
		*handle = s.handle
		return nil
	}
	if *handle != s.handle {
		return ErrHandleMismatch
	}
	return nil
}

func (s *Session) stage(change Change) {
	s.changes.Changes = append(s.changes.Changes, change)
}
