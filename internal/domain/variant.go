package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VariantKind identifies the lifecycle role of a physical document copy.
type VariantKind string

const (
	// VariantDraft is the copy being edited by its owner.
	VariantDraft VariantKind = "draft"
	// VariantUnpublished is the saved copy that is not exposed.
	VariantUnpublished VariantKind = "unpublished"
	// VariantPublished is the copy exposed in the environments listed in its availability.
	VariantPublished VariantKind = "published"
)

// AvailabilityLive marks a published variant as live.
const AvailabilityLive = "live"

// VariantKinds lists every kind in removal order.
var VariantKinds = []VariantKind{VariantDraft, VariantUnpublished, VariantPublished}

// Valid reports whether the kind is one of the known variant kinds.
func (k VariantKind) Valid() bool {
	switch k {
	case VariantDraft, VariantUnpublished, VariantPublished:
		return true
	default:
		return false
	}
}

// NormalizeVariantKind coerces arbitrary input into a variant kind.
func NormalizeVariantKind(input string) VariantKind {
	return VariantKind(strings.ToLower(strings.TrimSpace(input)))
}

// Variant is one physical copy of a document. Owner is only meaningful on
// drafts and Availability only on published variants; an empty Owner means
// the draft is not held by anyone.
type Variant struct {
	ID             uuid.UUID
	HandleID       uuid.UUID
	Kind           VariantKind
	Owner          string
	Availability   []string
	Content        map[string]any
	CreatedAt      time.Time
	LastModifiedBy string
	LastModifiedAt time.Time
	PublishedAt    *time.Time
}

// Held reports whether the variant carries an owner.
func (v Variant) Held() bool {
	return strings.TrimSpace(v.Owner) != ""
}

// AvailableIn reports whether the variant is exposed in the given environment.
func (v Variant) AvailableIn(environment string) bool {
	return slices.Contains(v.Availability, environment)
}

// Clone returns a deep copy of the variant.
func (v Variant) Clone() Variant {
	out := v
	if v.Availability != nil {
		out.Availability = slices.Clone(v.Availability)
	}
	out.Content = CloneContent(v.Content)
	if v.PublishedAt != nil {
		ts := *v.PublishedAt
		out.PublishedAt = &ts
	}
	return out
}

// Reference freezes the identity and modification stamp of the variant.
func (v Variant) Reference() *VariantReference {
	return &VariantReference{
		VariantID:  v.ID,
		Kind:       v.Kind,
		ModifiedAt: v.LastModifiedAt,
	}
}

// CloneContent deep copies an opaque content payload.
func CloneContent(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneContent(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(typed)
	default:
		return value
	}
}
