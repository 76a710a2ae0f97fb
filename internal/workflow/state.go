package workflow

import (
	"github.com/goliatone/go-publication/internal/domain"
)

// State holds the lifecycle predicates derived from a snapshot. It is never
// persisted.
type State struct {
	Editing        bool
	Live           bool
	Dirty          bool
	RequestPending bool
	DraftOwner     string
}

// Evaluate derives the publication state of a snapshot.
func Evaluate(snapshot domain.Snapshot) State {
	return EvaluateIn(snapshot, domain.AvailabilityLive)
}

// EvaluateIn derives the publication state using the supplied environment
// as the definition of live.
func EvaluateIn(snapshot domain.Snapshot, liveEnvironment string) State {
	if liveEnvironment == "" {
		liveEnvironment = domain.AvailabilityLive
	}
	state := State{}

	if draft := snapshot.Draft; draft != nil && draft.Held() {
		state.Editing = true
		state.DraftOwner = draft.Owner
	}

	published := snapshot.Published
	state.Live = published != nil && published.AvailableIn(liveEnvironment)

	if unpublished := snapshot.Unpublished; unpublished != nil {
		state.Dirty = published == nil ||
			!state.Live ||
			published.PublishedAt == nil ||
			!published.LastModifiedAt.Equal(unpublished.LastModifiedAt)
	}

	state.RequestPending = snapshot.Request != nil && snapshot.Request.Active()
	return state
}

// DraftInUse reports whether the draft is held by someone other than actor.
func (s State) DraftInUse(actor string) bool {
	return s.Editing && s.DraftOwner != actor
}

// Stale returns a *StaleRequestError when the variant request was raised
// against has changed since, and nil otherwise.
func Stale(snapshot domain.Snapshot, request domain.Request) error {
	ref := request.Reference
	if ref == nil {
		return nil
	}
	current := snapshot.Variant(ref.Kind)
	if ref.Matches(current) {
		return nil
	}
	return &StaleRequestError{
		RequestID: request.ID,
		Reference: *ref,
		Current:   current,
	}
}

// Dispatched names the direct operation accepting a request of kind runs.
func Dispatched(kind domain.RequestType) (Operation, bool) {
	switch {
	case kind.Publishes():
		return OpPublish, true
	case kind.Depublishes():
		return OpDepublish, true
	case kind == domain.RequestDelete:
		return OpDelete, true
	default:
		return "", false
	}
}
