package publicationcmd

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/commands"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// Workflow is the subset of the publication service the handlers drive.
type Workflow interface {
	ObtainEditableInstance(ctx context.Context, handle uuid.UUID, actor string) (domain.Variant, error)
	SaveDraft(ctx context.Context, handle uuid.UUID, actor string, content map[string]any) (domain.Variant, error)
	CommitEditableInstance(ctx context.Context, handle uuid.UUID, actor string) (domain.Variant, error)
	DisposeEditableInstance(ctx context.Context, handle uuid.UUID, actor string) error
	Unlock(ctx context.Context, handle uuid.UUID, actor string) error
	Publish(ctx context.Context, handle uuid.UUID, actor string) error
	Depublish(ctx context.Context, handle uuid.UUID, actor string) error
	SchedulePublish(ctx context.Context, handle uuid.UUID, actor string, at time.Time, until *time.Time) (domain.Request, error)
	ScheduleDepublish(ctx context.Context, handle uuid.UUID, actor string, at time.Time) (domain.Request, error)
	Delete(ctx context.Context, handle uuid.UUID, actor string) error
	Copy(ctx context.Context, handle uuid.UUID, actor, destination, newName string) (domain.Handle, error)
	Move(ctx context.Context, handle uuid.UUID, actor, destination, newName string) error
	Rename(ctx context.Context, handle uuid.UUID, actor, newName string) error
	RequestPublication(ctx context.Context, handle uuid.UUID, actor string, at *time.Time) (domain.Request, error)
	RequestDepublication(ctx context.Context, handle uuid.UUID, actor string, at *time.Time) (domain.Request, error)
	RequestDeletion(ctx context.Context, handle uuid.UUID, actor string) (domain.Request, error)
	AcceptRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID) (interfaces.RequestOutcome, error)
	RejectRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID, reason string) (domain.Request, error)
	CancelRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID) error
}

func newHandler[T command.Message](exec func(context.Context, T) error, logger interfaces.Logger, operation string, cfg options) *commands.Handler[T] {
	handlerOpts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
	}
	if cfg.timeout != nil {
		handlerOpts = append(handlerOpts, commands.WithTimeout[T](*cfg.timeout))
	}
	if cfg.telemetry != nil {
		observe := cfg.telemetry
		handlerOpts = append(handlerOpts, commands.WithTelemetry(func(ctx context.Context, msg T, info commands.TelemetryInfo) {
			observe(ctx, msg, info)
		}))
	}
	return commands.NewHandler(func(ctx context.Context, msg T) error {
		return classify(exec(ctx, msg))
	}, handlerOpts...)
}

// NewObtainDraftHandler opens drafts.
func NewObtainDraftHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[ObtainDraftCommand] {
	return newHandler(func(ctx context.Context, msg ObtainDraftCommand) error {
		_, err := service.ObtainEditableInstance(ctx, msg.HandleID, msg.Actor)
		return err
	}, logger, "publication.draft.obtain", buildOptions(opts))
}

// NewSaveDraftHandler stores draft content.
func NewSaveDraftHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[SaveDraftCommand] {
	return newHandler(func(ctx context.Context, msg SaveDraftCommand) error {
		_, err := service.SaveDraft(ctx, msg.HandleID, msg.Actor, msg.Content)
		return err
	}, logger, "publication.draft.save", buildOptions(opts))
}

// NewCommitDraftHandler commits drafts.
func NewCommitDraftHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[CommitDraftCommand] {
	return newHandler(func(ctx context.Context, msg CommitDraftCommand) error {
		_, err := service.CommitEditableInstance(ctx, msg.HandleID, msg.Actor)
		return err
	}, logger, "publication.draft.commit", buildOptions(opts))
}

// NewDisposeDraftHandler discards drafts.
func NewDisposeDraftHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[DisposeDraftCommand] {
	return newHandler(func(ctx context.Context, msg DisposeDraftCommand) error {
		return service.DisposeEditableInstance(ctx, msg.HandleID, msg.Actor)
	}, logger, "publication.draft.dispose", buildOptions(opts))
}

// NewUnlockDraftHandler releases draft locks.
func NewUnlockDraftHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[UnlockDraftCommand] {
	return newHandler(func(ctx context.Context, msg UnlockDraftCommand) error {
		return service.Unlock(ctx, msg.HandleID, msg.Actor)
	}, logger, "publication.draft.unlock", buildOptions(opts))
}

// NewPublishHandler publishes immediately.
func NewPublishHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[PublishCommand] {
	return newHandler(func(ctx context.Context, msg PublishCommand) error {
		return service.Publish(ctx, msg.HandleID, msg.Actor)
	}, logger, "publication.publish", buildOptions(opts))
}

// NewDepublishHandler depublishes immediately.
func NewDepublishHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[DepublishCommand] {
	return newHandler(func(ctx context.Context, msg DepublishCommand) error {
		return service.Depublish(ctx, msg.HandleID, msg.Actor)
	}, logger, "publication.depublish", buildOptions(opts))
}

// NewSchedulePublishHandler defers publication.
func NewSchedulePublishHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[SchedulePublishCommand] {
	return newHandler(func(ctx context.Context, msg SchedulePublishCommand) error {
		_, err := service.SchedulePublish(ctx, msg.HandleID, msg.Actor, msg.At, msg.Until)
		return err
	}, logger, "publication.schedule.publish", buildOptions(opts))
}

// NewScheduleDepublishHandler defers depublication.
func NewScheduleDepublishHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[ScheduleDepublishCommand] {
	return newHandler(func(ctx context.Context, msg ScheduleDepublishCommand) error {
		_, err := service.ScheduleDepublish(ctx, msg.HandleID, msg.Actor, msg.At)
		return err
	}, logger, "publication.schedule.depublish", buildOptions(opts))
}

// NewDeleteHandler deletes handles.
func NewDeleteHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[DeleteCommand] {
	return newHandler(func(ctx context.Context, msg DeleteCommand) error {
		return service.Delete(ctx, msg.HandleID, msg.Actor)
	}, logger, "publication.delete", buildOptions(opts))
}

// NewCopyHandler copies handles.
func NewCopyHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[CopyCommand] {
	return newHandler(func(ctx context.Context, msg CopyCommand) error {
		_, err := service.Copy(ctx, msg.HandleID, msg.Actor, msg.Destination, msg.NewName)
		return err
	}, logger, "publication.copy", buildOptions(opts))
}

// NewMoveHandler moves handles.
func NewMoveHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[MoveCommand] {
	return newHandler(func(ctx context.Context, msg MoveCommand) error {
		return service.Move(ctx, msg.HandleID, msg.Actor, msg.Destination, msg.NewName)
	}, logger, "publication.move", buildOptions(opts))
}

// NewRenameHandler renames handles.
func NewRenameHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[RenameCommand] {
	return newHandler(func(ctx context.Context, msg RenameCommand) error {
		return service.Rename(ctx, msg.HandleID, msg.Actor, msg.NewName)
	}, logger, "publication.rename", buildOptions(opts))
}

// NewRequestPublicationHandler raises publication requests.
func NewRequestPublicationHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[RequestPublicationCommand] {
	return newHandler(func(ctx context.Context, msg RequestPublicationCommand) error {
		_, err := service.RequestPublication(ctx, msg.HandleID, msg.Actor, msg.At)
		return err
	}, logger, "publication.request.publish", buildOptions(opts))
}

// NewRequestDepublicationHandler raises depublication requests.
func NewRequestDepublicationHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[RequestDepublicationCommand] {
	return newHandler(func(ctx context.Context, msg RequestDepublicationCommand) error {
		_, err := service.RequestDepublication(ctx, msg.HandleID, msg.Actor, msg.At)
		return err
	}, logger, "publication.request.depublish", buildOptions(opts))
}

// NewRequestDeletionHandler raises deletion requests.
func NewRequestDeletionHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[RequestDeletionCommand] {
	return newHandler(func(ctx context.Context, msg RequestDeletionCommand) error {
		_, err := service.RequestDeletion(ctx, msg.HandleID, msg.Actor)
		return err
	}, logger, "publication.request.delete", buildOptions(opts))
}

// NewAcceptRequestHandler accepts pending requests. A stale request is
// rejected by the service and reported as success. A scheduled request that
// is not due yet is only marked accepted.
func NewAcceptRequestHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[AcceptRequestCommand] {
	return newHandler(func(ctx context.Context, msg AcceptRequestCommand) error {
		_, err := service.AcceptRequest(ctx, msg.HandleID, msg.Actor, msg.RequestID)
		return err
	}, logger, "publication.request.accept", buildOptions(opts))
}

// NewRejectRequestHandler rejects pending requests.
func NewRejectRequestHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[RejectRequestCommand] {
	return newHandler(func(ctx context.Context, msg RejectRequestCommand) error {
		_, err := service.RejectRequest(ctx, msg.HandleID, msg.Actor, msg.RequestID, msg.Reason)
		return err
	}, logger, "publication.request.reject", buildOptions(opts))
}

// NewCancelRequestHandler cancels pending requests.
func NewCancelRequestHandler(service Workflow, logger interfaces.Logger, opts ...Option) *commands.Handler[CancelRequestCommand] {
	return newHandler(func(ctx context.Context, msg CancelRequestCommand) error {
		return service.CancelRequest(ctx, msg.HandleID, msg.Actor, msg.RequestID)
	}, logger, "publication.request.cancel", buildOptions(opts))
}
