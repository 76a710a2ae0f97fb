package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestType enumerates the kinds of publication requests.
type RequestType string

const (
	RequestPublish            RequestType = "publish"
	RequestDepublish          RequestType = "depublish"
	RequestScheduledPublish   RequestType = "scheduledpublish"
	RequestScheduledDepublish RequestType = "scheduleddepublish"
	RequestDelete             RequestType = "delete"
	RequestRejected           RequestType = "rejected"
)

// NormalizeRequestType coerces arbitrary input into a request type.
func NormalizeRequestType(input string) RequestType {
	return RequestType(strings.ToLower(strings.TrimSpace(input)))
}

// Scheduled reports whether the request type fires at a scheduled date.
func (t RequestType) Scheduled() bool {
	return t == RequestScheduledPublish || t == RequestScheduledDepublish
}

// Publishes reports whether accepting the request publishes the document.
func (t RequestType) Publishes() bool {
	return t == RequestPublish || t == RequestScheduledPublish
}

// Depublishes reports whether accepting the request depublishes the document.
func (t RequestType) Depublishes() bool {
	return t == RequestDepublish || t == RequestScheduledDepublish
}

// VariantReference freezes the variant a request was raised against.
type VariantReference struct {
	VariantID  uuid.UUID
	Kind       VariantKind
	ModifiedAt time.Time
}

// Request is a pending or resolved change request against a handle.
// AcceptedBy and AcceptedAt are set when a scheduled request is accepted
// ahead of its date; it stays pending until the scheduler fires it.
type Request struct {
	ID          uuid.UUID
	HandleID    uuid.UUID
	Type        RequestType
	Owner       string
	Reason      string
	ScheduledAt *time.Time
	DepublishAt *time.Time
	Reference   *VariantReference
	AcceptedBy  string
	AcceptedAt  *time.Time
	CreatedAt   time.Time
}

// Due reports whether a scheduled request may run at now. Requests without a
// date are always due.
func (r Request) Due(now time.Time) bool {
	return r.ScheduledAt == nil || !r.ScheduledAt.After(now)
}

// Active reports whether the request is still actionable.
func (r Request) Active() bool {
	return r.Type != "" && r.Type != RequestRejected
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	out := r
	out.ScheduledAt = cloneTime(r.ScheduledAt)
	out.DepublishAt = cloneTime(r.DepublishAt)
	out.AcceptedAt = cloneTime(r.AcceptedAt)
	if r.Reference != nil {
		ref := *r.Reference
		out.Reference = &ref
	}
	return out
}

func cloneTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	copied := *ts
	return &copied
}

// Matches reports whether current is still the variant the reference was
// taken from.
func (r VariantReference) Matches(current *Variant) bool {
	if current == nil || current.Kind != r.Kind {
		return false
	}
	return current.LastModifiedAt.Equal(r.ModifiedAt)
}
