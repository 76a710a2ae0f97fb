package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Handle is the logical identity grouping every variant of one document.
type Handle struct {
	ID   uuid.UUID
	Path string
	Name string
}

// Location renders the folder path joined with the handle name.
func (h Handle) Location() string {
	path := strings.TrimRight(strings.TrimSpace(h.Path), "/")
	return path + "/" + h.Name
}

// Snapshot captures the variants and requests of a handle at one instant.
// Values are copies; mutating a snapshot never affects storage.
type Snapshot struct {
	Handle      Handle
	Draft       *Variant
	Unpublished *Variant
	Published   *Variant
	Request     *Request
	Rejected    []Request
}

// Variant returns the variant of the given kind, or nil when absent.
func (s Snapshot) Variant(kind VariantKind) *Variant {
	switch kind {
	case VariantDraft:
		return s.Draft
	case VariantUnpublished:
		return s.Unpublished
	case VariantPublished:
		return s.Published
	default:
		return nil
	}
}

// Empty reports whether the handle holds no variant at all.
func (s Snapshot) Empty() bool {
	return s.Draft == nil && s.Unpublished == nil && s.Published == nil
}

// Source returns the best available variant in the order unpublished,
// published, draft.
func (s Snapshot) Source() *Variant {
	switch {
	case s.Unpublished != nil:
		return s.Unpublished
	case s.Published != nil:
		return s.Published
	default:
		return s.Draft
	}
}

// FindRequest looks up the active or a retained rejected request by id.
func (s Snapshot) FindRequest(id uuid.UUID) (Request, bool) {
	if s.Request != nil && s.Request.ID == id {
		return *s.Request, true
	}
	for _, rejected := range s.Rejected {
		if rejected.ID == id {
			return rejected, true
		}
	}
	return Request{}, false
}

// Clone deep copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Handle: s.Handle}
	out.Draft = cloneVariant(s.Draft)
	out.Unpublished = cloneVariant(s.Unpublished)
	out.Published = cloneVariant(s.Published)
	if s.Request != nil {
		req := s.Request.Clone()
		out.Request = &req
	}
	if len(s.Rejected) > 0 {
		out.Rejected = make([]Request, len(s.Rejected))
		for i, rejected := range s.Rejected {
			out.Rejected[i] = rejected.Clone()
		}
	}
	return out
}

func cloneVariant(v *Variant) *Variant {
	if v == nil {
		return nil
	}
	copied := v.Clone()
	return &copied
}
