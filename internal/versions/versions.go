package versions

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/identity"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

var ErrVariantRequired = errors.New("versions: variant required")

// Version is an immutable copy of an unpublished variant recorded on publish
// or depublish.
type Version struct {
	ID         uuid.UUID
	HandleID   uuid.UUID
	Number     int
	VariantID  uuid.UUID
	Content    map[string]any
	ModifiedBy string
	ModifiedAt time.Time
	CreatedAt  time.Time
}

// From reports whether the version was taken from variant as it is now.
func (v Version) From(variant domain.Variant) bool {
	return v.VariantID == variant.ID && v.ModifiedAt.Equal(variant.LastModifiedAt)
}

// Lister exposes the recorded history of a handle.
type Lister interface {
	List(ctx context.Context, handle uuid.UUID) ([]Version, error)
}

// Option customises version services.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock overrides the clock used to stamp versions.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	cfg := options{clock: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func newVersion(variant domain.Variant, number int, now time.Time) Version {
	return Version{
		ID:         identity.VersionUUID(variant.HandleID, number),
		HandleID:   variant.HandleID,
		Number:     number,
		VariantID:  variant.ID,
		Content:    domain.CloneContent(variant.Content),
		ModifiedBy: variant.LastModifiedBy,
		ModifiedAt: variant.LastModifiedAt,
		CreatedAt:  now,
	}
}

type noop struct{}

// NoOp returns a service that records nothing.
func NoOp() interfaces.VersionSnapshotService {
	return noop{}
}

func (noop) Snapshot(context.Context, domain.Variant) error { return nil }
