package publication

import (
	"context"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// ObtainEditableInstance returns a draft held by actor. The draft is cloned
// from the unpublished variant, or the published one when there is no
// unpublished variant. A draft the actor already holds is returned as is.
func (s *Service) ObtainEditableInstance(ctx context.Context, handle uuid.UUID, actor string) (domain.Variant, error) {
	op := workflow.OpEdit
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Variant{}, err
	}
	if draft := snapshot.Draft; draft != nil && draft.Owner == actor {
		return draft.Clone(), nil
	}

	var draft domain.Variant
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		switch {
		case snapshot.Unpublished != nil || snapshot.Published != nil:
			source := snapshot.Unpublished
			if source == nil {
				source = snapshot.Published
			}
			cloned, err := session.CloneInto(*source, domain.VariantDraft)
			if err != nil {
				return err
			}
			draft = cloned
		case snapshot.Draft != nil:
			draft = snapshot.Draft.Clone()
		default:
			now := s.now()
			draft = domain.Variant{
				ID:             s.ids(),
				HandleID:       handle,
				Kind:           domain.VariantDraft,
				Content:        map[string]any{},
				CreatedAt:      now,
				LastModifiedBy: actor,
				LastModifiedAt: now,
			}
		}
		draft.Owner = actor
		draft.Availability = nil
		draft.PublishedAt = nil
		return session.Write(draft)
	})
	if err != nil {
		return domain.Variant{}, s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor, "variant_id", draft.ID.String())
	return draft, nil
}

// SaveDraft replaces the content of the draft held by actor.
func (s *Service) SaveDraft(ctx context.Context, handle uuid.UUID, actor string, content map[string]any) (domain.Variant, error) {
	op := workflow.OpSave
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Variant{}, err
	}

	draft := snapshot.Draft.Clone()
	draft.Content = domain.CloneContent(content)
	draft.LastModifiedBy = actor
	draft.LastModifiedAt = s.now()
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		return session.Write(draft)
	})
	if err != nil {
		return domain.Variant{}, s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor)
	return draft, nil
}

// CommitEditableInstance copies the draft content into the unpublished
// variant, creating it when absent. The draft is folded away, so a later
// obtain and dispose leaves the committed state as it was.
func (s *Service) CommitEditableInstance(ctx context.Context, handle uuid.UUID, actor string) (domain.Variant, error) {
	op := workflow.OpCommit
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Variant{}, err
	}
	draft := snapshot.Draft.Clone()
	if s.validator != nil {
		if err := s.validator.ValidateContent(draft.Content); err != nil {
			s.log(op, handle, actor).Warn("workflow.commit.invalid", "error", err)
			return domain.Variant{}, err
		}
	}

	var unpublished domain.Variant
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		cloned, err := session.CloneInto(draft, domain.VariantUnpublished)
		if err != nil {
			return err
		}
		now := s.now()
		cloned.Owner = ""
		cloned.Availability = nil
		cloned.PublishedAt = nil
		cloned.LastModifiedBy = actor
		cloned.LastModifiedAt = now
		if snapshot.Unpublished == nil {
			cloned.CreatedAt = now
		}
		if err := session.Write(cloned); err != nil {
			return err
		}
		unpublished = cloned
		return session.Remove(draft)
	})
	if err != nil {
		return domain.Variant{}, s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor, "variant_id", unpublished.ID.String())
	return unpublished, nil
}

// DisposeEditableInstance discards the draft held by actor.
func (s *Service) DisposeEditableInstance(ctx context.Context, handle uuid.UUID, actor string) error {
	op := workflow.OpDispose
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return err
	}
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		return session.Remove(*snapshot.Draft)
	})
	if err != nil {
		return s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor)
	return nil
}

// Unlock releases a draft held by any user without touching its content.
func (s *Service) Unlock(ctx context.Context, handle uuid.UUID, actor string) error {
	op := workflow.OpUnlock
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return err
	}
	draft := snapshot.Draft.Clone()
	previous := draft.Owner
	draft.Owner = ""
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		return session.Write(draft)
	})
	if err != nil {
		return s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor, "previous_owner", previous)
	return nil
}
