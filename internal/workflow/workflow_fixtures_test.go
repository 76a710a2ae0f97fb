package workflow_test

import (
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/google/uuid"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func variant(kind domain.VariantKind, modified time.Time) *domain.Variant {
	return &domain.Variant{
		ID:             uuid.New(),
		Kind:           kind,
		CreatedAt:      baseTime,
		LastModifiedAt: modified,
		LastModifiedBy: "author",
	}
}

func draftOwnedBy(owner string) *domain.Variant {
	v := variant(domain.VariantDraft, baseTime)
	v.Owner = owner
	return v
}

func publishedVariant(live bool, modified time.Time) *domain.Variant {
	v := variant(domain.VariantPublished, modified)
	published := baseTime
	v.PublishedAt = &published
	if live {
		v.Availability = []string{domain.AvailabilityLive}
	}
	return v
}

func pendingRequest(kind domain.RequestType, owner string) *domain.Request {
	return &domain.Request{
		ID:        uuid.New(),
		Type:      kind,
		Owner:     owner,
		CreatedAt: baseTime,
	}
}

func referencing(request *domain.Request, v *domain.Variant) *domain.Request {
	request.Reference = v.Reference()
	return request
}

// snapshotMatrix enumerates combinations of variants, ownership and requests.
func snapshotMatrix() []domain.Snapshot {
	drafts := []*domain.Variant{nil, draftOwnedBy(""), draftOwnedBy("alice"), draftOwnedBy("bob")}
	unpublished := []*domain.Variant{nil, variant(domain.VariantUnpublished, baseTime)}
	published := []*domain.Variant{
		nil,
		publishedVariant(true, baseTime),
		publishedVariant(true, baseTime.Add(-time.Hour)),
		publishedVariant(false, baseTime),
	}
	requests := []*domain.Request{
		nil,
		pendingRequest(domain.RequestPublish, "bob"),
		pendingRequest(domain.RequestScheduledDepublish, "alice"),
		pendingRequest(domain.RequestDelete, "carol"),
	}

	var out []domain.Snapshot
	for _, d := range drafts {
		for _, u := range unpublished {
			for _, p := range published {
				for _, r := range requests {
					out = append(out, domain.Snapshot{
						Handle:      domain.Handle{ID: uuid.New(), Path: "/content/news", Name: "launch"},
						Draft:       d,
						Unpublished: u,
						Published:   p,
						Request:     r,
					})
				}
			}
		}
	}
	return out
}
