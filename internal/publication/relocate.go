package publication

import (
	"context"
	"strings"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// Delete removes every variant of the handle along with its requests and
// hands the prior state to the archive. The handle itself is kept.
func (s *Service) Delete(ctx context.Context, handle uuid.UUID, actor string) error {
	op := workflow.OpDelete
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, op, snapshot, actor); err != nil {
		return s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor)
	return nil
}

// remove deletes variants one kind at a time. A failure part way leaves the
// kinds already removed deleted.
func (s *Service) remove(ctx context.Context, op workflow.Operation, snapshot domain.Snapshot, actor string) error {
	handle := snapshot.Handle.ID
	for _, kind := range domain.VariantKinds {
		variant := snapshot.Variant(kind)
		if variant == nil {
			continue
		}
		target := *variant
		if err := s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
			return session.Remove(target)
		}); err != nil {
			return err
		}
	}

	requests := append([]domain.Request{}, snapshot.Rejected...)
	if snapshot.Request != nil {
		requests = append(requests, *snapshot.Request)
	}
	if len(requests) > 0 {
		if err := s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
			for _, request := range requests {
				if err := session.RemoveRequest(request); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
		if snapshot.Request != nil {
			s.releaseSchedule(ctx, op, snapshot.Request)
		}
	}

	if err := s.archive.Archive(ctx, snapshot); err != nil {
		s.log(op, handle, actor).Error("workflow.archive.failed", "error", err)
	}
	return nil
}

// Copy duplicates the source variant under destination with newName. When
// the source was published the copy is depublished straight away so it never
// goes live by accident.
func (s *Service) Copy(ctx context.Context, handle uuid.UUID, actor, destination, newName string) (domain.Handle, error) {
	op := workflow.OpCopy
	if strings.TrimSpace(newName) == "" {
		return domain.Handle{}, ErrNameRequired
	}
	if s.folders == nil {
		return domain.Handle{}, ErrFoldersRequired
	}
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Handle{}, err
	}

	source := snapshot.Unpublished
	if source == nil {
		source = snapshot.Published
	}
	copied, err := s.folders.Copy(ctx, source.Clone(), destination, newName)
	if err != nil {
		return domain.Handle{}, s.failed(op, handle, actor, workflow.Failure(op, "folders", err))
	}

	if source.Kind == domain.VariantPublished {
		if err := s.Depublish(ctx, copied.ID, actor); err != nil {
			return copied, s.failed(op, handle, actor, err)
		}
	}
	s.succeeded(op, handle, actor, "copy_id", copied.ID.String(), "location", copied.Location())
	return copied, nil
}

// Move relocates the handle under destination, optionally renaming it.
func (s *Service) Move(ctx context.Context, handle uuid.UUID, actor, destination, newName string) error {
	op := workflow.OpMove
	source, err := s.relocatable(ctx, op, handle, actor)
	if err != nil {
		return err
	}
	if err := s.folders.Move(ctx, source, destination, newName); err != nil {
		return s.failed(op, handle, actor, workflow.Failure(op, "folders", err))
	}
	s.succeeded(op, handle, actor, "destination", destination)
	return nil
}

// Rename changes the name of the handle inside its folder.
func (s *Service) Rename(ctx context.Context, handle uuid.UUID, actor, newName string) error {
	op := workflow.OpRename
	if strings.TrimSpace(newName) == "" {
		return ErrNameRequired
	}
	source, err := s.relocatable(ctx, op, handle, actor)
	if err != nil {
		return err
	}
	if err := s.folders.Rename(ctx, source, newName); err != nil {
		return s.failed(op, handle, actor, workflow.Failure(op, "folders", err))
	}
	s.succeeded(op, handle, actor, "name", newName)
	return nil
}

func (s *Service) relocatable(ctx context.Context, op workflow.Operation, handle uuid.UUID, actor string) (domain.Variant, error) {
	if s.folders == nil {
		return domain.Variant{}, ErrFoldersRequired
	}
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Variant{}, err
	}
	if source := snapshot.Source(); source != nil {
		return source.Clone(), nil
	}
	return domain.Variant{HandleID: handle}, nil
}
