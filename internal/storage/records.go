package storage

import (
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// HandleRecord is the persisted form of a handle.
type HandleRecord struct {
	bun.BaseModel `bun:"table:publication_handles,alias:ph"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Path      string    `bun:"path,notnull" json:"path"`
	Name      string    `bun:"name,notnull" json:"name"`
	Location  string    `bun:"location,notnull,unique" json:"location"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// VariantRecord is the persisted form of a variant. One row per handle and kind.
type VariantRecord struct {
	bun.BaseModel `bun:"table:publication_variants,alias:pv"`

	ID             uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	HandleID       uuid.UUID      `bun:"handle_id,notnull,type:uuid" json:"handle_id"`
	Kind           string         `bun:"kind,notnull" json:"kind"`
	Owner          string         `bun:"owner" json:"owner,omitempty"`
	Availability   []string       `bun:"availability,type:jsonb" json:"availability,omitempty"`
	Content        map[string]any `bun:"content,type:jsonb" json:"content,omitempty"`
	CreatedAt      time.Time      `bun:"created_at,nullzero" json:"created_at"`
	LastModifiedBy string         `bun:"last_modified_by" json:"last_modified_by,omitempty"`
	LastModifiedAt time.Time      `bun:"last_modified_at,nullzero" json:"last_modified_at"`
	PublishedAt    *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
}

// RequestRecord is the persisted form of a request. The variant reference is
// flattened into ref_* columns.
type RequestRecord struct {
	bun.BaseModel `bun:"table:publication_requests,alias:pr"`

	ID            uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	HandleID      uuid.UUID  `bun:"handle_id,notnull,type:uuid" json:"handle_id"`
	Type          string     `bun:"type,notnull" json:"type"`
	Owner         string     `bun:"owner" json:"owner,omitempty"`
	Reason        string     `bun:"reason" json:"reason,omitempty"`
	ScheduledAt   *time.Time `bun:"scheduled_at,nullzero" json:"scheduled_at,omitempty"`
	DepublishAt   *time.Time `bun:"depublish_at,nullzero" json:"depublish_at,omitempty"`
	RefVariantID  *uuid.UUID `bun:"ref_variant_id,type:uuid" json:"ref_variant_id,omitempty"`
	RefKind       string     `bun:"ref_kind" json:"ref_kind,omitempty"`
	RefModifiedAt *time.Time `bun:"ref_modified_at,nullzero" json:"ref_modified_at,omitempty"`
	AcceptedBy    string     `bun:"accepted_by" json:"accepted_by,omitempty"`
	AcceptedAt    *time.Time `bun:"accepted_at,nullzero" json:"accepted_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero" json:"created_at"`
}

// Models lists the bun models owned by the storage package.
func Models() []any {
	return []any{
		(*HandleRecord)(nil),
		(*VariantRecord)(nil),
		(*RequestRecord)(nil),
	}
}

func handleToRecord(handle domain.Handle) *HandleRecord {
	return &HandleRecord{
		ID:       handle.ID,
		Path:     handle.Path,
		Name:     handle.Name,
		Location: handleKey(handle.Path, handle.Name),
	}
}

func handleFromRecord(record *HandleRecord) domain.Handle {
	if record == nil {
		return domain.Handle{}
	}
	return domain.Handle{ID: record.ID, Path: record.Path, Name: record.Name}
}

func variantToRecord(variant domain.Variant) *VariantRecord {
	cloned := variant.Clone()
	return &VariantRecord{
		ID:             cloned.ID,
		HandleID:       cloned.HandleID,
		Kind:           string(cloned.Kind),
		Owner:          cloned.Owner,
		Availability:   cloned.Availability,
		Content:        cloned.Content,
		CreatedAt:      cloned.CreatedAt,
		LastModifiedBy: cloned.LastModifiedBy,
		LastModifiedAt: cloned.LastModifiedAt,
		PublishedAt:    cloned.PublishedAt,
	}
}

func variantFromRecord(record *VariantRecord) domain.Variant {
	variant := domain.Variant{
		ID:             record.ID,
		HandleID:       record.HandleID,
		Kind:           domain.NormalizeVariantKind(record.Kind),
		Owner:          record.Owner,
		Availability:   record.Availability,
		Content:        record.Content,
		CreatedAt:      record.CreatedAt.UTC(),
		LastModifiedBy: record.LastModifiedBy,
		LastModifiedAt: record.LastModifiedAt.UTC(),
	}
	if record.PublishedAt != nil {
		ts := record.PublishedAt.UTC()
		variant.PublishedAt = &ts
	}
	return variant.Clone()
}

func requestToRecord(request domain.Request) *RequestRecord {
	cloned := request.Clone()
	record := &RequestRecord{
		ID:          cloned.ID,
		HandleID:    cloned.HandleID,
		Type:        string(cloned.Type),
		Owner:       cloned.Owner,
		Reason:      cloned.Reason,
		ScheduledAt: cloned.ScheduledAt,
		DepublishAt: cloned.DepublishAt,
		AcceptedBy:  cloned.AcceptedBy,
		AcceptedAt:  cloned.AcceptedAt,
		CreatedAt:   cloned.CreatedAt,
	}
	if ref := cloned.Reference; ref != nil {
		id := ref.VariantID
		modified := ref.ModifiedAt
		record.RefVariantID = &id
		record.RefKind = string(ref.Kind)
		record.RefModifiedAt = &modified
	}
	return record
}

func requestFromRecord(record *RequestRecord) domain.Request {
	request := domain.Request{
		ID:          record.ID,
		HandleID:    record.HandleID,
		Type:        domain.NormalizeRequestType(record.Type),
		Owner:       record.Owner,
		Reason:      record.Reason,
		ScheduledAt: utcPtr(record.ScheduledAt),
		DepublishAt: utcPtr(record.DepublishAt),
		AcceptedBy:  record.AcceptedBy,
		AcceptedAt:  utcPtr(record.AcceptedAt),
		CreatedAt:   record.CreatedAt.UTC(),
	}
	if record.RefVariantID != nil {
		ref := &domain.VariantReference{
			VariantID: *record.RefVariantID,
			Kind:      domain.NormalizeVariantKind(record.RefKind),
		}
		if record.RefModifiedAt != nil {
			ref.ModifiedAt = record.RefModifiedAt.UTC()
		}
		request.Reference = ref
	}
	return request
}

func utcPtr(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	out := ts.UTC()
	return &out
}
