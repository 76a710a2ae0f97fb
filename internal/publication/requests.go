package publication

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// RequestPublication raises a publish request owned by actor. With a date the
// request becomes a scheduled publish that fires on its own.
func (s *Service) RequestPublication(ctx context.Context, handle uuid.UUID, actor string, at *time.Time) (domain.Request, error) {
	kind := domain.RequestPublish
	if at != nil {
		kind = domain.RequestScheduledPublish
	}
	return s.raise(ctx, workflow.OpRequestPublication, handle, actor, kind, at, nil)
}

// RequestDepublication raises a depublish request owned by actor.
func (s *Service) RequestDepublication(ctx context.Context, handle uuid.UUID, actor string, at *time.Time) (domain.Request, error) {
	kind := domain.RequestDepublish
	if at != nil {
		kind = domain.RequestScheduledDepublish
	}
	return s.raise(ctx, workflow.OpRequestDepublication, handle, actor, kind, at, nil)
}

// RequestDeletion raises a delete request owned by actor.
func (s *Service) RequestDeletion(ctx context.Context, handle uuid.UUID, actor string) (domain.Request, error) {
	return s.raise(ctx, workflow.OpRequestDeletion, handle, actor, domain.RequestDelete, nil, nil)
}

// AcceptRequest resolves the pending request. A request whose referenced
// variant changed since it was raised is rejected instead and reported
// through RequestOutcome.Stale. A scheduled request accepted before its date
// is only marked accepted; its job stays registered and runs the transition
// through FireScheduled.
func (s *Service) AcceptRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID) (RequestOutcome, error) {
	op := workflow.OpAcceptRequest
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return RequestOutcome{}, err
	}
	pending, err := pendingRequest(snapshot, request)
	if err != nil {
		return RequestOutcome{}, err
	}
	if !pending.Due(s.now()) {
		return s.approve(ctx, op, snapshot, actor, pending)
	}
	outcome, err := s.resolve(ctx, op, snapshot, actor, pending)
	if err != nil {
		return outcome, s.failed(op, handle, actor, err)
	}
	s.releaseSchedule(ctx, op, &pending)
	return outcome, nil
}

// approve records the acceptance of a scheduled request that is not due yet.
func (s *Service) approve(ctx context.Context, op workflow.Operation, snapshot domain.Snapshot, actor string, request domain.Request) (RequestOutcome, error) {
	handle := snapshot.Handle.ID
	if stale := workflow.Stale(snapshot, request); stale != nil {
		rejected, err := s.reject(ctx, op, handle, request, s.staleReason)
		if err != nil {
			return RequestOutcome{}, s.failed(op, handle, actor, err)
		}
		s.releaseSchedule(ctx, op, &request)
		logging.WithRequest(s.log(op, handle, actor), request.ID).Warn("workflow.request.stale", "error", stale)
		return RequestOutcome{Request: rejected, Stale: stale}, nil
	}

	accepted := request.Clone()
	now := s.now()
	accepted.AcceptedBy = actor
	accepted.AcceptedAt = &now
	err := s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		return session.WriteRequest(accepted)
	})
	if err != nil {
		return RequestOutcome{}, s.failed(op, handle, actor, err)
	}
	logging.WithRequest(s.log(op, handle, actor), request.ID).Info("workflow.request.deferred",
		"type", string(request.Type),
		"scheduled_at", *request.ScheduledAt,
	)
	return RequestOutcome{Request: accepted, Accepted: true, Deferred: true}, nil
}

// RejectRequest marks the pending request as rejected with reason. Variants
// are left untouched.
func (s *Service) RejectRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID, reason string) (domain.Request, error) {
	op := workflow.OpRejectRequest
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Request{}, err
	}
	pending, err := pendingRequest(snapshot, request)
	if err != nil {
		return domain.Request{}, err
	}
	rejected, err := s.reject(ctx, op, handle, pending, reason)
	if err != nil {
		return domain.Request{}, s.failed(op, handle, actor, err)
	}
	s.releaseSchedule(ctx, op, &pending)
	s.succeeded(op, handle, actor, "request_id", rejected.ID.String(), "reason", reason)
	return rejected, nil
}

// CancelRequest removes the pending request owned by actor.
func (s *Service) CancelRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID) error {
	op := workflow.OpCancelRequest
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return err
	}
	pending, err := pendingRequest(snapshot, request)
	if err != nil {
		return err
	}
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		return session.RemoveRequest(pending)
	})
	if err != nil {
		return s.failed(op, handle, actor, err)
	}
	s.releaseSchedule(ctx, op, &pending)
	s.succeeded(op, handle, actor, "request_id", pending.ID.String())
	return nil
}

// FireScheduled runs a scheduled request on behalf of its owner. A request
// that no longer exists is ignored. Staleness and guards are checked again.
// The job that fired is left to the scheduler to complete.
func (s *Service) FireScheduled(ctx context.Context, handle uuid.UUID, request uuid.UUID) (RequestOutcome, error) {
	op := workflow.OpAcceptRequest
	snapshot, err := s.Snapshot(ctx, handle)
	if err != nil {
		return RequestOutcome{}, workflow.Failure(op, "store", err)
	}
	pending, err := pendingRequest(snapshot, request)
	if err != nil {
		logging.WithRequest(s.log(op, handle, ""), request).Info("workflow.scheduled.skipped", "reason", "request not pending")
		return RequestOutcome{}, nil
	}
	outcome, err := s.resolve(ctx, op, snapshot, pending.Owner, pending)
	if err != nil {
		return outcome, s.failed(op, handle, pending.Owner, err)
	}
	return outcome, nil
}

func (s *Service) raise(ctx context.Context, op workflow.Operation, handle uuid.UUID, actor string, kind domain.RequestType, at, until *time.Time) (domain.Request, error) {
	now := s.now()
	if err := s.validateSchedule(now, at, until); err != nil {
		return domain.Request{}, err
	}
	snapshot, err := s.load(ctx, op, handle, actor)
	if err != nil {
		return domain.Request{}, err
	}

	request := domain.Request{
		ID:          s.ids(),
		HandleID:    handle,
		Type:        kind,
		Owner:       actor,
		ScheduledAt: copyTime(at),
		DepublishAt: copyTime(until),
		Reference:   referenceFor(snapshot, kind),
		CreatedAt:   now,
	}

	scheduled := false
	err = s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		if err := session.WriteRequest(request); err != nil {
			return err
		}
		if kind.Scheduled() {
			if err := s.schedule(ctx, op, request); err != nil {
				return err
			}
			scheduled = true
		}
		return nil
	})
	if err != nil {
		if scheduled {
			s.releaseSchedule(ctx, op, &request)
		}
		return domain.Request{}, s.failed(op, handle, actor, err)
	}
	s.succeeded(op, handle, actor, "request_id", request.ID.String(), "type", string(kind))
	return request, nil
}

func (s *Service) validateSchedule(now time.Time, at, until *time.Time) error {
	if at == nil {
		if until != nil {
			return ErrInvalidSchedule
		}
		return nil
	}
	if !s.guards.Policy().SchedulingEnabled {
		return ErrSchedulingDisabled
	}
	if s.scheduler == nil {
		return ErrSchedulerRequired
	}
	if !at.After(now) {
		return ErrScheduleInPast
	}
	if until != nil && !until.After(*at) {
		return ErrInvalidSchedule
	}
	return nil
}

// resolve executes a pending request, or rejects it when stale. The guard
// of the dispatched operation is evaluated without the request itself.
func (s *Service) resolve(ctx context.Context, op workflow.Operation, snapshot domain.Snapshot, actor string, request domain.Request) (RequestOutcome, error) {
	handle := snapshot.Handle.ID
	if stale := workflow.Stale(snapshot, request); stale != nil {
		rejected, err := s.reject(ctx, op, handle, request, s.staleReason)
		if err != nil {
			return RequestOutcome{}, err
		}
		logging.WithRequest(s.log(op, handle, actor), request.ID).Warn("workflow.request.stale", "error", stale)
		return RequestOutcome{Request: rejected, Stale: stale}, nil
	}

	view := snapshot.Clone()
	view.Request = nil

	switch {
	case request.Type.Publishes():
		if err := s.guards.Check(workflow.OpPublish, view, actor); err != nil {
			return RequestOutcome{}, err
		}
		err := s.applyVersioned(ctx, op, handle, func(session interfaces.VariantSession) (domain.Variant, error) {
			if err := session.RemoveRequest(request); err != nil {
				return domain.Variant{}, err
			}
			published, versioned, err := s.stagePublish(session, view)
			if err != nil {
				return domain.Variant{}, err
			}
			return versioned, s.stageFollowUp(ctx, op, session, published, request)
		})
		if err != nil {
			return RequestOutcome{}, err
		}
	case request.Type.Depublishes():
		if err := s.guards.Check(workflow.OpDepublish, view, actor); err != nil {
			return RequestOutcome{}, err
		}
		err := s.applyVersioned(ctx, op, handle, func(session interfaces.VariantSession) (domain.Variant, error) {
			if err := session.RemoveRequest(request); err != nil {
				return domain.Variant{}, err
			}
			return s.stageDepublish(session, view)
		})
		if err != nil {
			return RequestOutcome{}, err
		}
	case request.Type == domain.RequestDelete:
		if err := s.guards.Check(workflow.OpDelete, view, actor); err != nil {
			return RequestOutcome{}, err
		}
		if err := s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
			return session.RemoveRequest(request)
		}); err != nil {
			return RequestOutcome{}, err
		}
		if err := s.remove(ctx, workflow.OpDelete, view, actor); err != nil {
			return RequestOutcome{}, err
		}
	default:
		return RequestOutcome{}, ErrRequestMismatch
	}

	logging.WithRequest(s.log(op, handle, actor), request.ID).Info("workflow.request.accepted", "type", string(request.Type))
	return RequestOutcome{Request: request, Accepted: true}, nil
}

// stageFollowUp registers the scheduled depublish of a publish(date, until).
func (s *Service) stageFollowUp(ctx context.Context, op workflow.Operation, session interfaces.VariantSession, published domain.Variant, request domain.Request) error {
	if request.DepublishAt == nil {
		return nil
	}
	if s.scheduler == nil {
		return workflow.Failure(op, "scheduler", ErrSchedulerRequired)
	}
	followUp := domain.Request{
		ID:          s.ids(),
		HandleID:    request.HandleID,
		Type:        domain.RequestScheduledDepublish,
		Owner:       request.Owner,
		ScheduledAt: copyTime(request.DepublishAt),
		Reference:   published.Reference(),
		CreatedAt:   s.now(),
	}
	if err := session.WriteRequest(followUp); err != nil {
		return err
	}
	return s.schedule(ctx, op, followUp)
}

func (s *Service) reject(ctx context.Context, op workflow.Operation, handle uuid.UUID, request domain.Request, reason string) (domain.Request, error) {
	rejected := request.Clone()
	rejected.Type = domain.RequestRejected
	rejected.Reason = reason
	err := s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		return session.WriteRequest(rejected)
	})
	if err != nil {
		return domain.Request{}, err
	}
	return rejected, nil
}

func (s *Service) schedule(ctx context.Context, op workflow.Operation, request domain.Request) error {
	if s.scheduler == nil {
		return workflow.Failure(op, "scheduler", ErrSchedulerRequired)
	}
	if err := s.scheduler.Schedule(ctx, *request.ScheduledAt, trigger(request)); err != nil {
		return workflow.Failure(op, "scheduler", err)
	}
	return nil
}

// releaseSchedule cancels the job of a scheduled request. Failures are only
// logged; a job firing for a missing request is a no-op.
func (s *Service) releaseSchedule(ctx context.Context, op workflow.Operation, request *domain.Request) {
	if request == nil || !request.Type.Scheduled() || s.scheduler == nil {
		return
	}
	if err := s.scheduler.Cancel(ctx, trigger(*request)); err != nil {
		logging.WithRequest(s.log(op, request.HandleID, ""), request.ID).Warn("workflow.schedule.cancel_failed", "error", err)
	}
}

func trigger(request domain.Request) interfaces.ScheduledTrigger {
	return interfaces.ScheduledTrigger{
		HandleID:  request.HandleID,
		RequestID: request.ID,
		Type:      request.Type,
		Owner:     request.Owner,
	}
}

func pendingRequest(snapshot domain.Snapshot, id uuid.UUID) (domain.Request, error) {
	if snapshot.Request == nil || !snapshot.Request.Active() || snapshot.Request.ID != id {
		return domain.Request{}, ErrRequestMismatch
	}
	return snapshot.Request.Clone(), nil
}

// referenceFor freezes the variant a request of the given type acts on.
func referenceFor(snapshot domain.Snapshot, kind domain.RequestType) *domain.VariantReference {
	var variant *domain.Variant
	switch {
	case kind.Publishes():
		variant = snapshot.Unpublished
		if variant == nil {
			variant = snapshot.Published
		}
	case kind.Depublishes():
		variant = snapshot.Published
	default:
		variant = snapshot.Source()
	}
	if variant == nil {
		return nil
	}
	return variant.Reference()
}

func copyTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	copied := *ts
	return &copied
}

// IsStale reports whether an outcome ended in an automatic rejection.
func IsStale(outcome RequestOutcome) bool {
	return outcome.Stale != nil && errors.Is(outcome.Stale, workflow.ErrStaleRequest)
}
