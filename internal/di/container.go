package di

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-publication/internal/archive"
	"github.com/goliatone/go-publication/internal/folders"
	"github.com/goliatone/go-publication/internal/jobs"
	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/internal/publication"
	"github.com/goliatone/go-publication/internal/runtimeconfig"
	"github.com/goliatone/go-publication/internal/scheduler"
	"github.com/goliatone/go-publication/internal/storage"
	"github.com/goliatone/go-publication/internal/validation"
	"github.com/goliatone/go-publication/internal/versions"
	"github.com/goliatone/go-publication/internal/workflow"
	"github.com/goliatone/go-publication/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// DocumentStore is the storage contract the workflow needs: snapshots and
// sessions for variants plus handle bookkeeping for folder operations.
type DocumentStore interface {
	interfaces.VariantStore
	interfaces.HandleStore
}

type schemaCreator interface {
	CreateSchema(ctx context.Context) error
}

// Container wires the publication module from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	skipSchema    bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	store     DocumentStore
	versions  interfaces.VersionSnapshotService
	archive   interfaces.ArchiveService
	folders   interfaces.FolderOperations
	validator publication.ContentValidator

	guards  *workflow.Guards
	service *publication.Service

	scheduler interfaces.Scheduler
	port      *scheduler.Port
	audit     jobs.AuditRecorder
	worker    *jobs.Worker
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an open database. The container never closes it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by database backends.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithStore replaces the variant store.
func WithStore(store DocumentStore) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithScheduler replaces the job scheduler backing scheduled requests.
func WithScheduler(s interfaces.Scheduler) Option {
	return func(c *Container) {
		c.scheduler = s
	}
}

// WithAuditRecorder replaces the recorder of fired jobs.
func WithAuditRecorder(recorder jobs.AuditRecorder) Option {
	return func(c *Container) {
		c.audit = recorder
	}
}

// WithClock overrides the clock shared by every component.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithoutSchema skips table creation on database backends.
func WithoutSchema() Option {
	return func(c *Container) {
		c.skipSchema = true
	}
}

// NewContainer validates cfg and builds every component.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLogging,
		c.configureDatabase,
		c.configureCacheDefaults,
		c.configureStorage,
		c.configureValidation,
		c.configureScheduler,
		c.configureWorkflow,
		c.configureWorker,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close releases the database the container opened itself.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

func (c *Container) configureCacheDefaults() error {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Cache.DefaultTTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: cache: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureStorage() error {
	logger := logging.StorageLogger(c.loggerProvider)
	ctx := context.Background()

	versionOpts := []versions.Option{versions.WithClock(c.clock)}
	archiveOpts := []archive.Option{archive.WithClock(c.clock)}

	if c.bunDB == nil {
		if c.store == nil {
			c.store = storage.NewMemoryStore()
		}
		c.versions = versions.NewMemoryService(versionOpts...)
		c.archive = archive.NewMemoryService(archiveOpts...)
	} else {
		var creators []schemaCreator
		if c.store == nil {
			bunStore := storage.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
			c.store = bunStore
			creators = append(creators, bunStore)
		}
		versionSvc := versions.NewBunService(c.bunDB, versionOpts...)
		archiveSvc := archive.NewBunService(c.bunDB, archiveOpts...)
		c.versions, c.archive = versionSvc, archiveSvc
		creators = append(creators, versionSvc, archiveSvc)
		if !c.skipSchema {
			for _, creator := range creators {
				if err := creator.CreateSchema(ctx); err != nil {
					return err
				}
			}
		}
	}

	if !c.Config.Features.Versioning {
		c.versions = versions.NoOp()
	}
	if !c.Config.Features.Archive {
		c.archive = archive.NoOp()
	}
	c.folders = folders.NewService(c.store, c.store, folders.WithClock(c.clock))

	logging.WithFields(logger, map[string]any{
		"provider":   c.storageProviderName(),
		"versioning": c.Config.Features.Versioning,
		"archive":    c.Config.Features.Archive,
		"cached":     c.cacheService != nil,
	}).Info("storage.configured")
	return nil
}

func (c *Container) configureValidation() error {
	if !c.Config.Features.ContentSchema {
		return nil
	}
	validator, err := validation.New(c.Config.Validation.Schema)
	if err != nil {
		return err
	}
	if validator != nil {
		c.validator = validator
	}
	return nil
}

func (c *Container) configureWorkflow() error {
	cfg := c.Config
	c.guards = workflow.NewGuards(workflow.WithPolicy(workflow.Policy{
		Mode:              workflow.NormalizeMode(cfg.Workflow.Mode),
		RequestsEnabled:   cfg.Features.Requests,
		SchedulingEnabled: cfg.Features.Scheduling,
		LiveEnvironment:   cfg.Workflow.LiveEnvironment,
	}))

	opts := []publication.Option{
		publication.WithVersions(c.versions),
		publication.WithArchive(c.archive),
		publication.WithFolders(c.folders),
		publication.WithGuards(c.guards),
		publication.WithLogger(logging.WorkflowLogger(c.loggerProvider)),
		publication.WithClock(c.clock),
		publication.WithStaleReason(cfg.Workflow.StaleReason),
	}
	if c.validator != nil {
		opts = append(opts, publication.WithValidator(c.validator))
	}
	if c.port != nil {
		opts = append(opts, publication.WithScheduler(c.port))
	}
	c.service = publication.NewService(c.store, opts...)
	return nil
}

func (c *Container) configureScheduler() error {
	logger := logging.SchedulerLogger(c.loggerProvider)
	if !c.Config.Features.Scheduling {
		logging.WithFields(logger, map[string]any{"provider": "disabled"}).Info("scheduler.configured")
		return nil
	}

	provider := "custom"
	if c.scheduler == nil {
		if c.bunDB != nil {
			bunScheduler := scheduler.NewBunScheduler(c.bunDB, scheduler.WithClock(c.clock))
			if !c.skipSchema {
				if err := bunScheduler.CreateSchema(context.Background()); err != nil {
					return err
				}
			}
			c.scheduler = bunScheduler
			provider = "bun"
		} else {
			c.scheduler = scheduler.NewInMemory(scheduler.WithClock(c.clock))
			provider = "in-memory"
		}
	}
	c.port = scheduler.NewPort(c.scheduler, scheduler.WithPortLogger(logger))

	logging.WithFields(logger, map[string]any{
		"provider":      provider,
		"poll_interval": c.Config.Scheduler.PollInterval.String(),
		"batch_size":    c.Config.Scheduler.BatchSize,
	}).Info("scheduler.configured")
	return nil
}

func (c *Container) configureWorker() error {
	if c.port == nil {
		return nil
	}
	if c.audit == nil {
		c.audit = jobs.NewInMemoryAuditRecorder()
	}
	c.worker = jobs.NewWorker(c.scheduler, c.service,
		jobs.WithAuditRecorder(c.audit),
		jobs.WithLogger(logging.SchedulerLogger(c.loggerProvider)),
		jobs.WithClock(c.clock),
		jobs.WithBatchSize(c.Config.Scheduler.BatchSize),
		jobs.WithPollInterval(c.Config.Scheduler.PollInterval),
	)
	return nil
}

// LoggerProvider returns the provider every module logger is drawn from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Workflow returns the workflow executor.
func (c *Container) Workflow() *publication.Service {
	return c.service
}

// Guards returns the guard engine shared by the executor.
func (c *Container) Guards() *workflow.Guards {
	return c.guards
}

// Store returns the variant store.
func (c *Container) Store() DocumentStore {
	return c.store
}

// Versions returns the version snapshot service.
func (c *Container) Versions() interfaces.VersionSnapshotService {
	return c.versions
}

// Archive returns the archive service.
func (c *Container) Archive() interfaces.ArchiveService {
	return c.archive
}

// Scheduler returns the job scheduler, nil when scheduling is disabled.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.scheduler
}

// Worker returns the scheduled request worker, nil when scheduling is disabled.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// AuditLog returns the recorder of fired jobs.
func (c *Container) AuditLog() jobs.AuditRecorder {
	return c.audit
}

// DB returns the database backing the module, nil for the memory backend.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}
