package interfaces

import (
	"context"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/google/uuid"
)

// VariantStore reads handle snapshots and opens sessions that stage
// mutations until they are saved.
type VariantStore interface {
	// Read captures the variants and requests of a handle atomically.
	Read(ctx context.Context, handle uuid.UUID) (domain.Snapshot, error)
	// Begin opens a session scoped to a single handle.
	Begin(ctx context.Context, handle uuid.UUID) (VariantSession, error)
}

// VariantSession stages variant and request mutations for one handle. Nothing
// is visible to readers until Save returns; Refresh drops staged changes.
type VariantSession interface {
	Write(variant domain.Variant) error
	Remove(variant domain.Variant) error
	// CloneInto copies source into a variant of the target kind, replacing
	// any existing variant of that kind, and returns the staged clone.
	CloneInto(source domain.Variant, target domain.VariantKind) (domain.Variant, error)
	WriteRequest(request domain.Request) error
	RemoveRequest(request domain.Request) error
	Save(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// HandleStore manages the logical handles that group variants.
type HandleStore interface {
	CreateHandle(ctx context.Context, handle domain.Handle) (domain.Handle, error)
	GetHandle(ctx context.Context, id uuid.UUID) (domain.Handle, error)
	UpdateHandle(ctx context.Context, handle domain.Handle) (domain.Handle, error)
	FindHandle(ctx context.Context, path, name string) (domain.Handle, error)
}

// VersionSnapshotService records a version of the unpublished variant. It is
// invoked exactly once per publish or depublish.
type VersionSnapshotService interface {
	Snapshot(ctx context.Context, variant domain.Variant) error
}

// VersionDiscarder is implemented by version services able to drop the
// latest snapshot of a variant when the transition that recorded it was not
// saved.
type VersionDiscarder interface {
	Discard(ctx context.Context, variant domain.Variant) error
}

// FolderOperations performs the physical copy, move and rename of a document.
type FolderOperations interface {
	Copy(ctx context.Context, variant domain.Variant, destination, newName string) (domain.Handle, error)
	Move(ctx context.Context, variant domain.Variant, destination, newName string) error
	Rename(ctx context.Context, variant domain.Variant, newName string) error
}

// ArchiveService keeps a record of deleted documents. Failures are logged by
// callers and never propagated.
type ArchiveService interface {
	Archive(ctx context.Context, snapshot domain.Snapshot) error
}

// ScheduledTrigger identifies the request a scheduled job re-invokes.
type ScheduledTrigger struct {
	HandleID  uuid.UUID
	RequestID uuid.UUID
	Type      domain.RequestType
	Owner     string
}

// RequestSchedulerPort defers the execution of scheduled requests.
type RequestSchedulerPort interface {
	Schedule(ctx context.Context, at time.Time, trigger ScheduledTrigger) error
	Cancel(ctx context.Context, trigger ScheduledTrigger) error
}

// ScheduledFirer is invoked when a scheduled request becomes due.
type ScheduledFirer interface {
	FireScheduled(ctx context.Context, handle, request uuid.UUID) (RequestOutcome, error)
}

// RequestOutcome reports how a request was resolved. Stale is set when the
// request was rejected automatically because its reference had changed.
// Deferred marks a scheduled request accepted before its date; the
// transition runs when the scheduler fires it.
type RequestOutcome struct {
	Request  domain.Request
	Accepted bool
	Deferred bool
	Stale    error
}

// Editable groups the draft lifecycle operations.
type Editable interface {
	ObtainEditableInstance(ctx context.Context, handle uuid.UUID, actor string) (domain.Variant, error)
	SaveDraft(ctx context.Context, handle uuid.UUID, actor string, content map[string]any) (domain.Variant, error)
	CommitEditableInstance(ctx context.Context, handle uuid.UUID, actor string) (domain.Variant, error)
	DisposeEditableInstance(ctx context.Context, handle uuid.UUID, actor string) error
}

// Publishable groups the direct publication operations.
type Publishable interface {
	Publish(ctx context.Context, handle uuid.UUID, actor string) error
	SchedulePublish(ctx context.Context, handle uuid.UUID, actor string, at time.Time, until *time.Time) (domain.Request, error)
	Depublish(ctx context.Context, handle uuid.UUID, actor string) error
	ScheduleDepublish(ctx context.Context, handle uuid.UUID, actor string, at time.Time) (domain.Request, error)
	Delete(ctx context.Context, handle uuid.UUID, actor string) error
	Copy(ctx context.Context, handle uuid.UUID, actor, destination, newName string) (domain.Handle, error)
	Move(ctx context.Context, handle uuid.UUID, actor, destination, newName string) error
	Rename(ctx context.Context, handle uuid.UUID, actor, newName string) error
}

// Requestable groups the moderated request operations.
type Requestable interface {
	RequestPublication(ctx context.Context, handle uuid.UUID, actor string, at *time.Time) (domain.Request, error)
	RequestDepublication(ctx context.Context, handle uuid.UUID, actor string, at *time.Time) (domain.Request, error)
	RequestDeletion(ctx context.Context, handle uuid.UUID, actor string) (domain.Request, error)
	AcceptRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID) (RequestOutcome, error)
	RejectRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID, reason string) (domain.Request, error)
	CancelRequest(ctx context.Context, handle uuid.UUID, actor string, request uuid.UUID) error
}

// Lockable groups the administrative lock operations.
type Lockable interface {
	Unlock(ctx context.Context, handle uuid.UUID, actor string) error
}
