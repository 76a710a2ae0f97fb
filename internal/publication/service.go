package publication

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-publication/internal/archive"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/internal/versions"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	ErrStoreRequired      = errors.New("publication: variant store required")
	ErrFoldersRequired    = errors.New("publication: folder operations not configured")
	ErrSchedulerRequired  = errors.New("publication: request scheduler not configured")
	ErrSchedulingDisabled = errors.New("publication: scheduling is disabled")
	ErrScheduleInPast     = errors.New("publication: scheduled date must be in the future")
	ErrInvalidSchedule    = errors.New("publication: end date must follow the scheduled date")
	ErrNameRequired       = errors.New("publication: new name required")
	ErrRequestMismatch    = errors.New("publication: request is not the pending request of the handle")
)

// DefaultStaleReason is stored on requests rejected because the variant they
// referenced changed.
const DefaultStaleReason = "stale"

// RequestOutcome reports how a request was resolved.
type RequestOutcome = interfaces.RequestOutcome

// ContentValidator checks draft content before it is committed.
type ContentValidator interface {
	ValidateContent(content map[string]any) error
}

// Service executes workflow operations against a VariantStore. Every call
// reads a snapshot, re-checks the guard and stages the transition on a
// session that is saved once or refreshed on failure.
//
// The guard-then-act sequence is only safe when the host serialises calls
// per handle. Service does no locking of its own; concurrent calls against
// the same handle race instead of failing.
type Service struct {
	store       interfaces.VariantStore
	versions    interfaces.VersionSnapshotService
	archive     interfaces.ArchiveService
	folders     interfaces.FolderOperations
	scheduler   interfaces.RequestSchedulerPort
	validator   ContentValidator
	guards      *workflow.Guards
	hints       *workflow.HintsEngine
	logger      interfaces.Logger
	clock       func() time.Time
	ids         func() uuid.UUID
	staleReason string
}

var (
	_ interfaces.Editable       = (*Service)(nil)
	_ interfaces.Publishable    = (*Service)(nil)
	_ interfaces.Requestable    = (*Service)(nil)
	_ interfaces.Lockable       = (*Service)(nil)
	_ interfaces.ScheduledFirer = (*Service)(nil)
)

// Option configures the service at construction time.
type Option func(*Service)

// WithVersions sets the version snapshot collaborator.
func WithVersions(svc interfaces.VersionSnapshotService) Option {
	return func(s *Service) {
		if svc != nil {
			s.versions = svc
		}
	}
}

// WithArchive sets the archive collaborator.
func WithArchive(svc interfaces.ArchiveService) Option {
	return func(s *Service) {
		if svc != nil {
			s.archive = svc
		}
	}
}

// WithFolders sets the folder collaborator used by copy, move and rename.
func WithFolders(svc interfaces.FolderOperations) Option {
	return func(s *Service) {
		s.folders = svc
	}
}

// WithScheduler sets the port scheduled requests are registered with.
func WithScheduler(port interfaces.RequestSchedulerPort) Option {
	return func(s *Service) {
		s.scheduler = port
	}
}

// WithValidator sets the validator applied on commit.
func WithValidator(validator ContentValidator) Option {
	return func(s *Service) {
		s.validator = validator
	}
}

// WithGuards shares a guard engine with the service.
func WithGuards(guards *workflow.Guards) Option {
	return func(s *Service) {
		if guards != nil {
			s.guards = guards
		}
	}
}

// WithPolicy builds the guard engine from a policy.
func WithPolicy(policy workflow.Policy) Option {
	return func(s *Service) {
		s.guards = workflow.NewGuards(workflow.WithPolicy(policy))
	}
}

// WithLogger overrides the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used to stamp variants and requests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides request and variant id generation.
func WithIDGenerator(ids func() uuid.UUID) Option {
	return func(s *Service) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithStaleReason overrides the reason recorded on stale rejections.
func WithStaleReason(reason string) Option {
	return func(s *Service) {
		if reason != "" {
			s.staleReason = reason
		}
	}
}

// NewService constructs the executor. Versions and archive default to no-ops.
func NewService(store interfaces.VariantStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		versions:    versions.NoOp(),
		archive:     archive.NoOp(),
		guards:      workflow.NewGuards(),
		logger:      logging.NoOp(),
		clock:       func() time.Time { return time.Now().UTC() },
		ids:         uuid.New,
		staleReason: DefaultStaleReason,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.hints = workflow.NewHintsEngine(s.guards)
	return s
}

// Guards exposes the guard engine the service evaluates with.
func (s *Service) Guards() *workflow.Guards {
	return s.guards
}

// Snapshot reads the current state of a handle.
func (s *Service) Snapshot(ctx context.Context, handle uuid.UUID) (domain.Snapshot, error) {
	if s.store == nil {
		return domain.Snapshot{}, ErrStoreRequired
	}
	return s.store.Read(ctx, handle)
}

// Hints evaluates every operation for actor against the current snapshot.
func (s *Service) Hints(ctx context.Context, handle uuid.UUID, actor string) (workflow.Hints, error) {
	snapshot, err := s.Snapshot(ctx, handle)
	if err != nil {
		return workflow.Hints{}, err
	}
	return s.hints.Hints(snapshot, actor), nil
}

func (s *Service) now() time.Time {
	return s.clock()
}

func (s *Service) liveEnvironment() string {
	return s.guards.Policy().LiveEnvironment
}

// load reads the snapshot and checks the guard of op against it.
func (s *Service) load(ctx context.Context, op workflow.Operation, handle uuid.UUID, actor string) (domain.Snapshot, error) {
	snapshot, err := s.Snapshot(ctx, handle)
	if err != nil {
		return domain.Snapshot{}, workflow.Failure(op, "store", err)
	}
	if err := s.guards.Check(op, snapshot, actor); err != nil {
		s.log(op, handle, actor).Debug("workflow.guard.rejected", "error", err)
		return snapshot, err
	}
	return snapshot, nil
}

// apply stages a transition on a fresh session and saves it. Any failure
// refreshes the session so nothing staged survives.
func (s *Service) apply(ctx context.Context, op workflow.Operation, handle uuid.UUID, stage func(interfaces.VariantSession) error) error {
	session, err := s.store.Begin(ctx, handle)
	if err != nil {
		return workflow.Failure(op, "store", err)
	}
	if err := stage(session); err != nil {
		s.rollback(ctx, op, handle, session)
		return workflow.Failure(op, "store", err)
	}
	if err := session.Save(ctx); err != nil {
		s.rollback(ctx, op, handle, session)
		return workflow.Failure(op, "store", err)
	}
	return nil
}

// applyVersioned is apply for transitions that record one version. The
// version is recorded once staging succeeded and discarded again when the
// session cannot be saved.
func (s *Service) applyVersioned(ctx context.Context, op workflow.Operation, handle uuid.UUID, stage func(interfaces.VariantSession) (domain.Variant, error)) error {
	var (
		versioned domain.Variant
		recorded  bool
	)
	err := s.apply(ctx, op, handle, func(session interfaces.VariantSession) error {
		variant, err := stage(session)
		if err != nil {
			return err
		}
		if err := s.versions.Snapshot(ctx, variant); err != nil {
			return workflow.Failure(op, "versions", err)
		}
		versioned, recorded = variant, true
		return nil
	})
	if err != nil && recorded {
		s.discardVersion(ctx, op, versioned)
	}
	return err
}

func (s *Service) discardVersion(ctx context.Context, op workflow.Operation, variant domain.Variant) {
	logger := s.log(op, variant.HandleID, "")
	discarder, ok := s.versions.(interfaces.VersionDiscarder)
	if !ok {
		logger.Warn("workflow.version.orphaned", "variant_id", variant.ID.String())
		return
	}
	if err := discarder.Discard(ctx, variant); err != nil {
		logger.Error("workflow.version.discard_failed", "variant_id", variant.ID.String(), "error", err)
	}
}

func (s *Service) rollback(ctx context.Context, op workflow.Operation, handle uuid.UUID, session interfaces.VariantSession) {
	if err := session.Refresh(ctx); err != nil {
		s.log(op, handle, "").Error("workflow.rollback.failed", "error", err)
	}
}

func (s *Service) log(op workflow.Operation, handle uuid.UUID, actor string) interfaces.Logger {
	return logging.WithOperation(s.logger, handle, actor, string(op))
}

func (s *Service) succeeded(op workflow.Operation, handle uuid.UUID, actor string, args ...any) {
	s.log(op, handle, actor).Info("workflow."+string(op)+".success", args...)
}

func (s *Service) failed(op workflow.Operation, handle uuid.UUID, actor string, err error) error {
	if err != nil && !errors.Is(err, workflow.ErrGuardViolation) {
		s.log(op, handle, actor).Error("workflow."+string(op)+".failed", "error", err)
	}
	return err
}
