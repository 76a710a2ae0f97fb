package publication

import (
	"context"

	publicationcmd "github.com/goliatone/go-publication/internal/commands/publication"
	"github.com/goliatone/go-publication/internal/di"
	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/folders"
	"github.com/goliatone/go-publication/internal/identity"
	"github.com/goliatone/go-publication/internal/jobs"
	"github.com/goliatone/go-publication/internal/publication"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// WorkflowService exports the workflow executor contract.
type WorkflowService = *publication.Service

// Hints exports the per-operation hints computed for an actor.
type Hints = workflow.Hints

// Operation exports the workflow operation identifiers.
type Operation = workflow.Operation

// RequestOutcome exports the result of accepting or firing a request.
type RequestOutcome = interfaces.RequestOutcome

// Worker exports the scheduled request worker.
type Worker = *jobs.Worker

// Subscription exports the handle returned for dispatcher subscriptions.
type Subscription = publicationcmd.Subscription

// Module represents the top level publication runtime façade.
type Module struct {
	container *di.Container
	commands  *di.RegistrationResult
}

// New constructs a publication module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Workflow returns the workflow executor.
func (m *Module) Workflow() WorkflowService {
	return m.container.Workflow()
}

// Worker returns the scheduled request worker, nil when scheduling is off.
func (m *Module) Worker() Worker {
	return m.container.Worker()
}

// Scheduler returns the scheduler used for scheduled requests.
func (m *Module) Scheduler() interfaces.Scheduler {
	return m.container.Scheduler()
}

// Hints reports which operations actor may run on handle.
func (m *Module) Hints(ctx context.Context, handle uuid.UUID, actor string) (Hints, error) {
	return m.container.Workflow().Hints(ctx, handle, actor)
}

// Snapshot reads the variants and requests of handle.
func (m *Module) Snapshot(ctx context.Context, handle uuid.UUID) (domain.Snapshot, error) {
	return m.container.Workflow().Snapshot(ctx, handle)
}

// CreateDocument registers a new handle at path/name. The handle id is
// derived from its location.
func (m *Module) CreateDocument(ctx context.Context, path, name string) (domain.Handle, error) {
	normalizedPath, err := folders.NormalizePath(path)
	if err != nil {
		return domain.Handle{}, err
	}
	normalizedName, err := folders.NormalizeName(name)
	if err != nil {
		return domain.Handle{}, err
	}
	return m.container.Store().CreateHandle(ctx, domain.Handle{
		ID:   identity.HandleUUID(normalizedPath, normalizedName),
		Path: normalizedPath,
		Name: normalizedName,
	})
}

// RegisterCommands builds the command handlers and hands them to the
// integrations set in opts.
func (m *Module) RegisterCommands(opts di.RegistrationOptions) (*di.RegistrationResult, error) {
	result, err := m.container.RegisterCommands(opts)
	if err != nil {
		return result, err
	}
	m.commands = result
	return result, nil
}

// Subscribe binds the workflow command handlers to the go-command
// dispatcher. Handlers are built on first use.
func (m *Module) Subscribe() ([]Subscription, error) {
	if m.commands == nil {
		if _, err := m.RegisterCommands(di.RegistrationOptions{}); err != nil {
			return nil, err
		}
	}
	return publicationcmd.Subscribe(m.commands.Workflow), nil
}

// Close releases the resources owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
