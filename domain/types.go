package domain

import internaldomain "github.com/goliatone/go-publication/internal/domain"

// VariantKind identifies the lifecycle role of a document copy.
type VariantKind = internaldomain.VariantKind

const (
	// VariantDraft is the copy being edited by its owner.
	VariantDraft = internaldomain.VariantDraft
	// VariantUnpublished is the saved copy that is not exposed.
	VariantUnpublished = internaldomain.VariantUnpublished
	// VariantPublished is the copy exposed in its availability environments.
	VariantPublished = internaldomain.VariantPublished
)

// AvailabilityLive marks a published variant as live.
const AvailabilityLive = internaldomain.AvailabilityLive

// RequestType enumerates the kinds of publication requests.
type RequestType = internaldomain.RequestType

const (
	RequestPublish            = internaldomain.RequestPublish
	RequestDepublish          = internaldomain.RequestDepublish
	RequestScheduledPublish   = internaldomain.RequestScheduledPublish
	RequestScheduledDepublish = internaldomain.RequestScheduledDepublish
	RequestDelete             = internaldomain.RequestDelete
	RequestRejected           = internaldomain.RequestRejected
)

type (
	// Variant is one physical copy of a document.
	Variant = internaldomain.Variant
	// Request is a pending or resolved change request against a handle.
	Request = internaldomain.Request
	// VariantReference freezes the variant a request was raised against.
	VariantReference = internaldomain.VariantReference
	// Handle is the logical document grouping its variants.
	Handle = internaldomain.Handle
	// Snapshot is the state of a handle read atomically.
	Snapshot = internaldomain.Snapshot
)
