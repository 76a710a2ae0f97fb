package storage

import (
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/google/uuid"
)

// ChangeKind identifies a staged mutation.
type ChangeKind string

const (
	ChangeWriteVariant  ChangeKind = "variant.write"
	ChangeRemoveVariant ChangeKind = "variant.remove"
	ChangeWriteRequest  ChangeKind = "request.write"
	ChangeRemoveRequest ChangeKind = "request.remove"
)

// Change is one staged mutation. Variant changes are keyed by kind and
// request changes by request id.
type Change struct {
	Kind    ChangeKind
	Variant domain.Variant
	Request domain.Request
}

// Changeset is the ordered list of mutations a session applies on Save.
type Changeset struct {
	Handle  uuid.UUID
	Changes []Change
}

// Empty reports whether nothing was staged.
func (c Changeset) Empty() bool {
	return len(c.Changes) == 0
}

// apply folds the changeset onto a snapshot. The snapshot is cloned first.
func (c Changeset) apply(base domain.Snapshot) domain.Snapshot {
	out := base.Clone()
	for _, change := range c.Changes {
		out = applyChange(out, change)
	}
	return out
}

func applyChange(snapshot domain.Snapshot, change Change) domain.Snapshot {
	switch change.Kind {
	case ChangeWriteVariant:
		variant := change.Variant.Clone()
		setVariant(&snapshot, variant.Kind, &variant)
	case ChangeRemoveVariant:
		setVariant(&snapshot, change.Variant.Kind, nil)
	case ChangeWriteRequest:
		request := change.Request.Clone()
		snapshot = dropRequest(snapshot, request.ID)
		if request.Active() {
			snapshot.Request = &request
		} else {
			snapshot.Rejected = append(snapshot.Rejected, request)
		}
	case ChangeRemoveRequest:
		snapshot = dropRequest(snapshot, change.Request.ID)
	}
	return snapshot
}

func setVariant(snapshot *domain.Snapshot, kind domain.VariantKind, variant *domain.Variant) {
	switch kind {
	case domain.VariantDraft:
		snapshot.Draft = variant
	case domain.VariantUnpublished:
		snapshot.Unpublished = variant
	case domain.VariantPublished:
		snapshot.Published = variant
	}
}

func dropRequest(snapshot domain.Snapshot, id uuid.UUID) domain.Snapshot {
	if snapshot.Request != nil && snapshot.Request.ID == id {
		snapshot.Request = nil
	}
	if len(snapshot.Rejected) == 0 {
		return snapshot
	}
	kept := snapshot.Rejected[:0:0]
	for _, rejected := range snapshot.Rejected {
		if rejected.ID != id {
			kept = append(kept, rejected)
		}
	}
	snapshot.Rejected = kept
	return snapshot
}
