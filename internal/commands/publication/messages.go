package publicationcmd

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	obtainDraftMessageType          = "publication.draft.obtain"
	saveDraftMessageType            = "publication.draft.save"
	commitDraftMessageType          = "publication.draft.commit"
	disposeDraftMessageType         = "publication.draft.dispose"
	unlockDraftMessageType          = "publication.draft.unlock"
	publishMessageType              = "publication.publish"
	depublishMessageType            = "publication.depublish"
	schedulePublishMessageType      = "publication.schedule.publish"
	scheduleDepublishMessageType    = "publication.schedule.depublish"
	deleteMessageType               = "publication.delete"
	copyMessageType                 = "publication.copy"
	moveMessageType                 = "publication.move"
	renameMessageType               = "publication.rename"
	requestPublicationMessageType   = "publication.request.publish"
	requestDepublicationMessageType = "publication.request.depublish"
	requestDeletionMessageType      = "publication.request.delete"
	acceptRequestMessageType        = "publication.request.accept"
	rejectRequestMessageType        = "publication.request.reject"
	cancelRequestMessageType        = "publication.request.cancel"
)

// Target identifies the handle a command operates on and the acting user.
type Target struct {
	HandleID uuid.UUID `json:"handle_id"`
	Actor    string    `json:"actor"`
}

// TargetHandle returns the handle the command operates on.
func (t Target) TargetHandle() uuid.UUID { return t.HandleID }

// TargetActor returns the acting user.
func (t Target) TargetActor() string { return t.Actor }

func (t Target) errors(prefix string) validation.Errors {
	errs := validation.Errors{}
	if t.HandleID == uuid.Nil {
		errs["handle_id"] = validation.NewError(prefix+".handle_id_required", "handle_id is required")
	}
	if strings.TrimSpace(t.Actor) == "" {
		errs["actor"] = validation.NewError(prefix+".actor_required", "actor is required")
	}
	return errs
}

func (t Target) validate(prefix string) error {
	return collect(t.errors(prefix))
}

func collect(errs validation.Errors) error {
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func requireRequest(errs validation.Errors, prefix string, id uuid.UUID) {
	if id == uuid.Nil {
		errs["request_id"] = validation.NewError(prefix+".request_id_required", "request_id is required")
	}
}

func requireName(errs validation.Errors, prefix, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = validation.NewError(prefix+"."+field+"_required", field+" is required")
	}
}

func optionalTime(errs validation.Errors, prefix, field string, value *time.Time) {
	if value != nil && value.IsZero() {
		errs[field] = validation.NewError(prefix+"."+field+"_invalid", field+" must be a valid timestamp when provided")
	}
}

// ObtainDraftCommand opens the editable instance of a handle for the actor.
type ObtainDraftCommand struct {
	Target
}

func (ObtainDraftCommand) Type() string { return obtainDraftMessageType }

func (m ObtainDraftCommand) Validate() error { return m.validate(obtainDraftMessageType) }

// SaveDraftCommand replaces the content of the draft held by the actor.
type SaveDraftCommand struct {
	Target
	Content map[string]any `json:"content"`
}

func (SaveDraftCommand) Type() string { return saveDraftMessageType }

func (m SaveDraftCommand) Validate() error {
	errs := m.errors(saveDraftMessageType)
	if m.Content == nil {
		errs["content"] = validation.NewError(saveDraftMessageType+".content_required", "content is required")
	}
	return collect(errs)
}

// CommitDraftCommand promotes the actor's draft to the unpublished variant.
type CommitDraftCommand struct {
	Target
}

func (CommitDraftCommand) Type() string { return commitDraftMessageType }

func (m CommitDraftCommand) Validate() error { return m.validate(commitDraftMessageType) }

// DisposeDraftCommand discards the actor's draft.
type DisposeDraftCommand struct {
	Target
}

func (DisposeDraftCommand) Type() string { return disposeDraftMessageType }

func (m DisposeDraftCommand) Validate() error { return m.validate(disposeDraftMessageType) }

// UnlockDraftCommand releases a draft lock held by another user.
type UnlockDraftCommand struct {
	Target
}

func (UnlockDraftCommand) Type() string { return unlockDraftMessageType }

func (m UnlockDraftCommand) Validate() error { return m.validate(unlockDraftMessageType) }

// PublishCommand publishes the unpublished variant immediately.
type PublishCommand struct {
	Target
}

func (PublishCommand) Type() string { return publishMessageType }

func (m PublishCommand) Validate() error { return m.validate(publishMessageType) }

// DepublishCommand takes the published variant offline immediately.
type DepublishCommand struct {
	Target
}

func (DepublishCommand) Type() string { return depublishMessageType }

func (m DepublishCommand) Validate() error { return m.validate(depublishMessageType) }

// SchedulePublishCommand publishes at At and, when Until is set, depublishes
// again at Until.
type SchedulePublishCommand struct {
	Target
	At    time.Time  `json:"at"`
	Until *time.Time `json:"until,omitempty"`
}

func (SchedulePublishCommand) Type() string { return schedulePublishMessageType }

func (m SchedulePublishCommand) Validate() error {
	errs := m.errors(schedulePublishMessageType)
	if m.At.IsZero() {
		errs["at"] = validation.NewError(schedulePublishMessageType+".at_required", "at is required")
	}
	optionalTime(errs, schedulePublishMessageType, "until", m.Until)
	if m.Until != nil && !m.At.IsZero() && !m.Until.After(m.At) {
		errs["until"] = validation.NewError(schedulePublishMessageType+".until_invalid", "until must follow at")
	}
	return collect(errs)
}

// ScheduleDepublishCommand depublishes at At.
type ScheduleDepublishCommand struct {
	Target
	At time.Time `json:"at"`
}

func (ScheduleDepublishCommand) Type() string { return scheduleDepublishMessageType }

func (m ScheduleDepublishCommand) Validate() error {
	errs := m.errors(scheduleDepublishMessageType)
	if m.At.IsZero() {
		errs["at"] = validation.NewError(scheduleDepublishMessageType+".at_required", "at is required")
	}
	return collect(errs)
}

// DeleteCommand removes every variant of the handle.
type DeleteCommand struct {
	Target
}

func (DeleteCommand) Type() string { return deleteMessageType }

func (m DeleteCommand) Validate() error { return m.validate(deleteMessageType) }

// CopyCommand duplicates the handle under Destination as NewName.
type CopyCommand struct {
	Target
	Destination string `json:"destination"`
	NewName     string `json:"new_name"`
}

func (CopyCommand) Type() string { return copyMessageType }

func (m CopyCommand) Validate() error {
	errs := m.errors(copyMessageType)
	requireName(errs, copyMessageType, "destination", m.Destination)
	requireName(errs, copyMessageType, "new_name", m.NewName)
	return collect(errs)
}

// MoveCommand relocates the handle under Destination. NewName is optional.
type MoveCommand struct {
	Target
	Destination string `json:"destination"`
	NewName     string `json:"new_name,omitempty"`
}

func (MoveCommand) Type() string { return moveMessageType }

func (m MoveCommand) Validate() error {
	errs := m.errors(moveMessageType)
	requireName(errs, moveMessageType, "destination", m.Destination)
	return collect(errs)
}

// RenameCommand renames the handle in place.
type RenameCommand struct {
	Target
	NewName string `json:"new_name"`
}

func (RenameCommand) Type() string { return renameMessageType }

func (m RenameCommand) Validate() error {
	errs := m.errors(renameMessageType)
	requireName(errs, renameMessageType, "new_name", m.NewName)
	return collect(errs)
}

// RequestPublicationCommand asks a reviewer to publish the handle, at At when set.
type RequestPublicationCommand struct {
	Target
	At *time.Time `json:"at,omitempty"`
}

func (RequestPublicationCommand) Type() string { return requestPublicationMessageType }

func (m RequestPublicationCommand) Validate() error {
	errs := m.errors(requestPublicationMessageType)
	optionalTime(errs, requestPublicationMessageType, "at", m.At)
	return collect(errs)
}

// RequestDepublicationCommand asks a reviewer to depublish the handle, at At when set.
type RequestDepublicationCommand struct {
	Target
	At *time.Time `json:"at,omitempty"`
}

func (RequestDepublicationCommand) Type() string { return requestDepublicationMessageType }

func (m RequestDepublicationCommand) Validate() error {
	errs := m.errors(requestDepublicationMessageType)
	optionalTime(errs, requestDepublicationMessageType, "at", m.At)
	return collect(errs)
}

// RequestDeletionCommand asks a reviewer to delete the handle.
type RequestDeletionCommand struct {
	Target
}

func (RequestDeletionCommand) Type() string { return requestDeletionMessageType }

func (m RequestDeletionCommand) Validate() error { return m.validate(requestDeletionMessageType) }

// AcceptRequestCommand executes the pending request RequestID.
type AcceptRequestCommand struct {
	Target
	RequestID uuid.UUID `json:"request_id"`
}

func (AcceptRequestCommand) Type() string { return acceptRequestMessageType }

func (m AcceptRequestCommand) Validate() error {
	errs := m.errors(acceptRequestMessageType)
	requireRequest(errs, acceptRequestMessageType, m.RequestID)
	return collect(errs)
}

// RejectRequestCommand turns the pending request into a rejection carrying Reason.
type RejectRequestCommand struct {
	Target
	RequestID uuid.UUID `json:"request_id"`
	Reason    string    `json:"reason,omitempty"`
}

func (RejectRequestCommand) Type() string { return rejectRequestMessageType }

func (m RejectRequestCommand) Validate() error {
	errs := m.errors(rejectRequestMessageType)
	requireRequest(errs, rejectRequestMessageType, m.RequestID)
	if err := validation.Validate(m.Reason, validation.Length(0, 1024)); err != nil {
		errs["reason"] = err
	}
	return collect(errs)
}

// CancelRequestCommand withdraws the actor's own pending request.
type CancelRequestCommand struct {
	Target
	RequestID uuid.UUID `json:"request_id"`
}

func (CancelRequestCommand) Type() string { return cancelRequestMessageType }

func (m CancelRequestCommand) Validate() error {
	errs := m.errors(cancelRequestMessageType)
	requireRequest(errs, cancelRequestMessageType, m.RequestID)
	return collect(errs)
}
