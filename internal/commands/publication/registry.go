package publicationcmd

import (
	"context"
	"errors"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/commands"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

// ErrWorkflowRequired is returned when registration runs without a service.
var ErrWorkflowRequired = errors.New("publication command registration: workflow is nil")

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// FeatureGates hides handlers for features that are switched off. Nil
// functions count as enabled.
type FeatureGates struct {
	RequestsEnabled   func() bool
	SchedulingEnabled func() bool
}

func (g FeatureGates) requests() bool {
	return g.RequestsEnabled == nil || g.RequestsEnabled()
}

func (g FeatureGates) scheduling() bool {
	return g.SchedulingEnabled == nil || g.SchedulingEnabled()
}

// Option customises every handler built during registration.
type Option func(*options)

type options struct {
	timeout   *time.Duration
	telemetry func(context.Context, command.Message, commands.TelemetryInfo)
}

// WithTimeout overrides the per-command timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *options) {
		cfg.timeout = &timeout
	}
}

// WithTelemetry observes every command outcome in place of the default log line.
func WithTelemetry(fn func(context.Context, command.Message, commands.TelemetryInfo)) Option {
	return func(cfg *options) {
		cfg.telemetry = fn
	}
}

func buildOptions(opts []Option) options {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// HandlerSet groups the handlers produced by RegisterPublicationCommands.
// Request and schedule handlers are nil when their feature is disabled.
type HandlerSet struct {
	ObtainDraft  *commands.Handler[ObtainDraftCommand]
	SaveDraft    *commands.Handler[SaveDraftCommand]
	CommitDraft  *commands.Handler[CommitDraftCommand]
	DisposeDraft *commands.Handler[DisposeDraftCommand]
	UnlockDraft  *commands.Handler[UnlockDraftCommand]
	Publish      *commands.Handler[PublishCommand]
	Depublish    *commands.Handler[DepublishCommand]
	Delete       *commands.Handler[DeleteCommand]
	Copy         *commands.Handler[CopyCommand]
	Move         *commands.Handler[MoveCommand]
	Rename       *commands.Handler[RenameCommand]

	SchedulePublish   *commands.Handler[SchedulePublishCommand]
	ScheduleDepublish *commands.Handler[ScheduleDepublishCommand]

	RequestPublication   *commands.Handler[RequestPublicationCommand]
	RequestDepublication *commands.Handler[RequestDepublicationCommand]
	RequestDeletion      *commands.Handler[RequestDeletionCommand]
	AcceptRequest        *commands.Handler[AcceptRequestCommand]
	RejectRequest        *commands.Handler[RejectRequestCommand]
	CancelRequest        *commands.Handler[CancelRequestCommand]
}

// All returns the non-nil handlers in registration order.
func (s *HandlerSet) All() []any {
	if s == nil {
		return nil
	}
	out := make([]any, 0, 19)
	out = appendHandler(out, s.ObtainDraft)
	out = appendHandler(out, s.SaveDraft)
	out = appendHandler(out, s.CommitDraft)
	out = appendHandler(out, s.DisposeDraft)
	out = appendHandler(out, s.UnlockDraft)
	out = appendHandler(out, s.Publish)
	out = appendHandler(out, s.Depublish)
	out = appendHandler(out, s.SchedulePublish)
	out = appendHandler(out, s.ScheduleDepublish)
	out = appendHandler(out, s.Delete)
	out = appendHandler(out, s.Copy)
	out = appendHandler(out, s.Move)
	out = appendHandler(out, s.Rename)
	out = appendHandler(out, s.RequestPublication)
	out = appendHandler(out, s.RequestDepublication)
	out = appendHandler(out, s.RequestDeletion)
	out = appendHandler(out, s.AcceptRequest)
	out = appendHandler(out, s.RejectRequest)
	out = appendHandler(out, s.CancelRequest)
	return out
}

func appendHandler[T command.Message](out []any, handler *commands.Handler[T]) []any {
	if handler == nil {
		return out
	}
	return append(out, handler)
}

// RegisterPublicationCommands builds the workflow handlers and registers them
// with reg when it is non-nil.
func RegisterPublicationCommands(reg CommandRegistry, service Workflow, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, ErrWorkflowRequired
	}

	logger := commands.CommandLogger(provider, "publication")
	set := &HandlerSet{
		ObtainDraft:  NewObtainDraftHandler(service, logger, opts...),
		SaveDraft:    NewSaveDraftHandler(service, logger, opts...),
		CommitDraft:  NewCommitDraftHandler(service, logger, opts...),
		DisposeDraft: NewDisposeDraftHandler(service, logger, opts...),
		UnlockDraft:  NewUnlockDraftHandler(service, logger, opts...),
		Publish:      NewPublishHandler(service, logger, opts...),
		Depublish:    NewDepublishHandler(service, logger, opts...),
		Delete:       NewDeleteHandler(service, logger, opts...),
		Copy:         NewCopyHandler(service, logger, opts...),
		Move:         NewMoveHandler(service, logger, opts...),
		Rename:       NewRenameHandler(service, logger, opts...),
	}
	if gates.scheduling() {
		set.SchedulePublish = NewSchedulePublishHandler(service, logger, opts...)
		set.ScheduleDepublish = NewScheduleDepublishHandler(service, logger, opts...)
	}
	if gates.requests() {
		set.RequestPublication = NewRequestPublicationHandler(service, logger, opts...)
		set.RequestDepublication = NewRequestDepublicationHandler(service, logger, opts...)
		set.RequestDeletion = NewRequestDeletionHandler(service, logger, opts...)
		set.AcceptRequest = NewAcceptRequestHandler(service, logger, opts...)
		set.RejectRequest = NewRejectRequestHandler(service, logger, opts...)
		set.CancelRequest = NewCancelRequestHandler(service, logger, opts...)
	}

	if reg != nil {
		for _, handler := range set.All() {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
