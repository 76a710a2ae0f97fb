package workflow

import (
	"github.com/goliatone/go-publication/internal/domain"
)

// Informational hint keys copied from the publication state.
const (
	HintIsLive           = "isLive"
	HintIsDirty          = "isDirty"
	HintIsRequestPending = "isRequestPending"
	HintIsEditing        = "isEditing"
	HintInUseBy          = "inUseBy"
	HintRequestRejected  = "requestRejected"
	HintRejectionReason  = "rejectionReason"
	HintPendingRequest   = "pendingRequest"
)

// Hints describes which operations are legal for an actor together with the
// informational state flags used to drive UI affordances.
type Hints struct {
	Operations map[Operation]bool
	Info       map[string]any
}

// Allowed reports whether the hint for op is enabled.
func (h Hints) Allowed(op Operation) bool {
	return h.Operations[op]
}

// Map flattens the hints into the map exposed to UI consumers.
func (h Hints) Map() map[string]any {
	out := make(map[string]any, len(h.Operations)+len(h.Info))
	for op, allowed := range h.Operations {
		out[string(op)] = allowed
	}
	for key, value := range h.Info {
		out[key] = value
	}
	return out
}

// HintsEngine assembles capability maps from the guard engine. It never
// mutates the snapshot it is handed.
type HintsEngine struct {
	guards *Guards
}

// NewHintsEngine constructs a hints engine sharing the supplied guards.
func NewHintsEngine(guards *Guards) *HintsEngine {
	if guards == nil {
		guards = NewGuards()
	}
	return &HintsEngine{guards: guards}
}

// Hints evaluates every operation in the catalogue for actor.
func (e *HintsEngine) Hints(snapshot domain.Snapshot, actor string) Hints {
	ops := Operations()
	hints := Hints{
		Operations: make(map[Operation]bool, len(ops)),
		Info:       map[string]any{},
	}
	for _, op := range ops {
		hints.Operations[op] = e.guards.Allowed(op, snapshot, actor)
	}

	state := e.guards.State(snapshot)
	hints.Info[HintIsLive] = state.Live
	hints.Info[HintIsDirty] = state.Dirty
	hints.Info[HintIsRequestPending] = state.RequestPending
	hints.Info[HintIsEditing] = state.Editing
	if state.DraftInUse(actor) {
		hints.Info[HintInUseBy] = state.DraftOwner
	}
	if state.RequestPending {
		hints.Info[HintPendingRequest] = string(snapshot.Request.Type)
	}
	if rejected, ok := latestRejection(snapshot, actor); ok {
		hints.Info[HintRequestRejected] = true
		hints.Info[HintRejectionReason] = rejected.Reason
	}
	return hints
}

func latestRejection(snapshot domain.Snapshot, actor string) (domain.Request, bool) {
	var (
		latest domain.Request
		found  bool
	)
	for _, rejected := range snapshot.Rejected {
		if rejected.Owner != actor {
			continue
		}
		if !found || rejected.CreatedAt.After(latest.CreatedAt) {
			latest = rejected
			found = true
		}
	}
	return latest, found
}
