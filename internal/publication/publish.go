package publication

import (
	"context"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// Publish exposes the unpublished variant as live, creating the published
// variant when absent. A pending publish request is consumed.
func (s *Service) Publish(ctx context.Context, handle uuid.UUID, actor string) error {
	op := workflow.OpPublish
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return err
	}

	consumed := consumable(snapshot.Request, domain.RequestType.Publishes)
	var published domain.Variant
	err = s.applyVersioned(ctx, op, handle, func(session interfaces.VariantSession) (domain.Variant, error) {
		if consumed != nil {
			if err := session.RemoveRequest(*consumed); err != nil {
				return domain.Variant{}, err
			}
		}
		variant, versioned, err := s.stagePublish(session, snapshot)
		published = variant
		return versioned, err
	})
	if err != nil {
		return s.failed(op, handle, actor, err)
	}
	s.releaseSchedule(ctx, op, consumed)
	s.succeeded(op, handle, actor, "variant_id", published.ID.String())
	return nil
}

// Depublish clears the availability of the published variant, creating the
// unpublished variant from it when absent. A pending depublish request is
// consumed.
func (s *Service) Depublish(ctx context.Context, handle uuid.UUID, actor string) error {
	op := workflow.OpDepublish
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return err
	}

	consumed := consumable(snapshot.Request, domain.RequestType.Depublishes)
	err = s.applyVersioned(ctx, op, handle, func(session interfaces.VariantSession) (domain.Variant, error) {
		if consumed != nil {
			if err := session.RemoveRequest(*consumed); err != nil {
				return domain.Variant{}, err
			}
		}
		return s.stageDepublish(session, snapshot)
	})
	if err != nil {
		return s.failed(op, handle, actor, err)
	}
	s.releaseSchedule(ctx, op, consumed)
	s.succeeded(op, handle, actor)
	return nil
}

// SchedulePublish registers a scheduled publish at the given date. When until
// is set, a scheduled depublish is registered once the publish fires.
func (s *Service) SchedulePublish(ctx context.Context, handle uuid.UUID, actor string, at time.Time, until *time.Time) (domain.Request, error) {
	return s.raise(ctx, workflow.OpSchedulePublish, handle, actor, domain.RequestScheduledPublish, &at, until)
}

// ScheduleDepublish registers a scheduled depublish at the given date.
func (s *Service) ScheduleDepublish(ctx context.Context, handle uuid.UUID, actor string, at time.Time) (domain.Request, error) {
	return s.raise(ctx, workflow.OpScheduleDepublish, handle, actor, domain.RequestScheduledDepublish, &at, nil)
}

// stagePublish writes the published variant. It returns the published
// variant and the variant to record a version of.
func (s *Service) stagePublish(session interfaces.VariantSession, snapshot domain.Snapshot) (domain.Variant, domain.Variant, error) {
	now := s.now()
	var published domain.Variant
	if source := snapshot.Unpublished; source != nil {
		cloned, err := session.CloneInto(*source, domain.VariantPublished)
		if err != nil {
			return domain.Variant{}, domain.Variant{}, err
		}
		published = cloned
		if snapshot.Published == nil {
			published.CreatedAt = now
		}
	} else {
		published = snapshot.Published.Clone()
	}
	published.Owner = ""
	published.Availability = []string{s.liveEnvironment()}
	published.PublishedAt = &now
	if err := session.Write(published); err != nil {
		return domain.Variant{}, domain.Variant{}, err
	}

	versioned := published
	if snapshot.Unpublished != nil {
		versioned = *snapshot.Unpublished
	}
	return published, versioned, nil
}

// stageDepublish clears the published availability, creating the unpublished
// variant when absent. It returns the unpublished variant to version.
func (s *Service) stageDepublish(session interfaces.VariantSession, snapshot domain.Snapshot) (domain.Variant, error) {
	published := snapshot.Published.Clone()

	var unpublished domain.Variant
	if snapshot.Unpublished != nil {
		unpublished = *snapshot.Unpublished
	} else {
		cloned, err := session.CloneInto(published, domain.VariantUnpublished)
		if err != nil {
			return domain.Variant{}, err
		}
		cloned.Availability = nil
		cloned.PublishedAt = nil
		if err := session.Write(cloned); err != nil {
			return domain.Variant{}, err
		}
		unpublished = cloned
	}

	published.Availability = nil
	if err := session.Write(published); err != nil {
		return domain.Variant{}, err
	}
	return unpublished, nil
}

// consumable returns the pending request when match accepts its type.
func consumable(request *domain.Request, match func(domain.RequestType) bool) *domain.Request {
	if request == nil || !request.Active() || !match(request.Type) {
		return nil
	}
	copied := request.Clone()
	return &copied
}
