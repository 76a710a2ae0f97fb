package workflow

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-publication/internal/domain"
)

// Mode selects between the current and the legacy rule set.
type Mode string

const (
	// ModeCurrent lets direct operations run while a request is pending.
	ModeCurrent Mode = "current"
	// ModeLegacy blocks edit, publish and depublish while a request is pending.
	ModeLegacy Mode = "legacy"
)

// NormalizeMode coerces arbitrary input into a known mode, defaulting to current.
func NormalizeMode(input string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(input))) {
	case ModeLegacy:
		return ModeLegacy
	default:
		return ModeCurrent
	}
}

// Policy carries the configuration toggles the guard rules depend on.
type Policy struct {
	Mode              Mode
	RequestsEnabled   bool
	SchedulingEnabled bool
	LiveEnvironment   string
}

// DefaultPolicy enables every feature in current mode.
func DefaultPolicy() Policy {
	return Policy{
		Mode:              ModeCurrent,
		RequestsEnabled:   true,
		SchedulingEnabled: true,
		LiveEnvironment:   domain.AvailabilityLive,
	}
}

type rule func(g *Guards, ev evaluation) Predicate

type evaluation struct {
	snapshot domain.Snapshot
	state    State
	actor    string
}

// Guards evaluates the legality of operations against a snapshot. It holds no
// state besides its policy and never performs I/O, so the hints engine and
// the executor can share one instance.
type Guards struct {
	policy Policy
	rules  map[Operation]rule
}

// GuardOption configures the guard engine.
type GuardOption func(*Guards)

// WithPolicy overrides the default policy.
func WithPolicy(policy Policy) GuardOption {
	return func(g *Guards) {
		if policy.Mode == "" {
			policy.Mode = ModeCurrent
		}
		if policy.LiveEnvironment == "" {
			policy.LiveEnvironment = domain.AvailabilityLive
		}
		g.policy = policy
	}
}

// NewGuards constructs a guard engine with the full operation catalogue.
func NewGuards(opts ...GuardOption) *Guards {
	g := &Guards{
		policy: DefaultPolicy(),
		rules: map[Operation]rule{
			OpEdit:                 ruleEdit,
			OpSave:                 ruleDraftOwner,
			OpCommit:               ruleDraftOwner,
			OpDispose:              ruleDraftOwner,
			OpPublish:              rulePublish,
			OpSchedulePublish:      ruleSchedulePublish,
			OpDepublish:            ruleDepublish,
			OpScheduleDepublish:    ruleScheduleDepublish,
			OpDelete:               ruleRelocate,
			OpRename:               ruleRelocate,
			OpMove:                 ruleRelocate,
			OpCopy:                 ruleCopy,
			OpRequestPublication:   ruleRequest,
			OpRequestDepublication: ruleRequest,
			OpRequestDeletion:      ruleRequest,
			OpCancelRequest:        ruleCancelRequest,
			OpAcceptRequest:        ruleAcceptRequest,
			OpRejectRequest:        ruleResolveRequest,
			OpUnlock:               ruleUnlock,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the policy the engine evaluates with.
func (g *Guards) Policy() Policy {
	return g.policy
}

// State derives the publication state using the engine's live environment.
func (g *Guards) State(snapshot domain.Snapshot) State {
	return EvaluateIn(snapshot, g.policy.LiveEnvironment)
}

// Check returns nil when op is legal for actor against snapshot, or a
// *GuardViolation naming the failing predicate.
func (g *Guards) Check(op Operation, snapshot domain.Snapshot, actor string) error {
	fn, ok := g.rules[op]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	ev := evaluation{
		snapshot: snapshot,
		state:    g.State(snapshot),
		actor:    actor,
	}
	if predicate := fn(g, ev); predicate != "" {
		return &GuardViolation{
			Operation: op,
			Predicate: predicate,
			HandleID:  snapshot.Handle.ID,
			Actor:     actor,
		}
	}
	return nil
}

// Allowed reports whether op is legal for actor against snapshot.
func (g *Guards) Allowed(op Operation, snapshot domain.Snapshot, actor string) bool {
	return g.Check(op, snapshot, actor) == nil
}

func (g *Guards) legacyBlocked(ev evaluation) bool {
	return g.policy.Mode == ModeLegacy && ev.state.RequestPending
}

func ruleEdit(g *Guards, ev evaluation) Predicate {
	if ev.state.DraftInUse(ev.actor) {
		return PredicateDraftInUse
	}
	if g.legacyBlocked(ev) {
		return PredicateRequestPending
	}
	return ""
}

func ruleDraftOwner(_ *Guards, ev evaluation) Predicate {
	draft := ev.snapshot.Draft
	if draft == nil {
		return PredicateDraftMissing
	}
	if draft.Owner != ev.actor {
		return PredicateNotDraftOwner
	}
	return ""
}

func rulePublish(g *Guards, ev evaluation) Predicate {
	offline := ev.snapshot.Published != nil && !ev.state.Live
	if ev.snapshot.Unpublished == nil && !offline {
		return PredicateNothingToPublish
	}
	if ev.state.DraftInUse(ev.actor) {
		return PredicateDraftInUse
	}
	if g.legacyBlocked(ev) {
		return PredicateRequestPending
	}
	return ""
}

func ruleDepublish(g *Guards, ev evaluation) Predicate {
	if ev.snapshot.Published == nil {
		return PredicatePublishedMissing
	}
	if ev.state.DraftInUse(ev.actor) {
		return PredicateDraftInUse
	}
	if g.legacyBlocked(ev) {
		return PredicateRequestPending
	}
	return ""
}

func ruleSchedulePublish(g *Guards, ev evaluation) Predicate {
	if predicate := rulePublish(g, ev); predicate != "" {
		return predicate
	}
	return g.scheduling(ev)
}

func ruleScheduleDepublish(g *Guards, ev evaluation) Predicate {
	if predicate := ruleDepublish(g, ev); predicate != "" {
		return predicate
	}
	return g.scheduling(ev)
}

func (g *Guards) scheduling(ev evaluation) Predicate {
	if !g.policy.SchedulingEnabled {
		return PredicateSchedulingDisabled
	}
	if ev.state.RequestPending {
		return PredicateRequestPending
	}
	return ""
}

func ruleRelocate(_ *Guards, ev evaluation) Predicate {
	switch {
	case ev.state.RequestPending:
		return PredicateRequestPending
	case ev.state.Live:
		return PredicateLive
	case ev.state.Editing:
		return PredicateEditing
	default:
		return ""
	}
}

func ruleCopy(_ *Guards, ev evaluation) Predicate {
	if ev.snapshot.Published == nil && ev.snapshot.Unpublished == nil {
		return PredicateNoCopySource
	}
	return ""
}

func ruleRequest(g *Guards, ev evaluation) Predicate {
	if !g.policy.RequestsEnabled {
		return PredicateRequestsDisabled
	}
	if ev.state.RequestPending {
		return PredicateRequestPending
	}
	return ""
}

func ruleCancelRequest(_ *Guards, ev evaluation) Predicate {
	if !ev.state.RequestPending {
		return PredicateNoPendingRequest
	}
	if ev.snapshot.Request.Owner != ev.actor {
		return PredicateNotRequestOwner
	}
	return ""
}

func ruleResolveRequest(_ *Guards, ev evaluation) Predicate {
	if !ev.state.RequestPending {
		return PredicateNoPendingRequest
	}
	return ""
}

// ruleAcceptRequest also evaluates the operation the request dispatches to,
// against the snapshot without the request. A stale request is always
// acceptable since accepting it only rejects it.
func ruleAcceptRequest(g *Guards, ev evaluation) Predicate {
	if !ev.state.RequestPending {
		return PredicateNoPendingRequest
	}
	request := *ev.snapshot.Request
	if Stale(ev.snapshot, request) != nil {
		return ""
	}
	op, ok := Dispatched(request.Type)
	if !ok {
		return PredicateNoPendingRequest
	}
	view := ev.snapshot
	view.Request = nil
	return g.rules[op](g, evaluation{
		snapshot: view,
		state:    g.State(view),
		actor:    ev.actor,
	})
}

func ruleUnlock(_ *Guards, ev evaluation) Predicate {
	if ev.snapshot.Draft == nil {
		return PredicateDraftMissing
	}
	if !ev.snapshot.Draft.Held() {
		return PredicateDraftNotHeld
	}
	return ""
}
