package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrWorkflowModeInvalid               = errors.New("publication config: workflow mode is invalid")
	ErrLiveEnvironmentRequired           = errors.New("publication config: live environment is required")
	ErrStorageProviderUnknown            = errors.New("publication config: storage provider is invalid")
	ErrStorageDSNRequired                = errors.New("publication config: storage dsn is required for database providers")
	ErrSchedulingFeatureRequiresRequests = errors.New("publication config: scheduling feature requires requests to be enabled")
	ErrSchedulerPollIntervalInvalid      = errors.New("publication config: scheduler poll interval must be positive")
	ErrSchedulerBatchSizeInvalid         = errors.New("publication config: scheduler batch size must be zero or positive")
	ErrCacheTTLInvalid                   = errors.New("publication config: cache ttl must be positive when cache is enabled")
	ErrContentSchemaFeatureRequired      = errors.New("publication config: content schema feature must be enabled to configure a schema")
	ErrLoggingProviderRequired           = errors.New("publication config: logging provider is required")
	ErrLoggingProviderUnknown            = errors.New("publication config: logging provider is invalid")
	ErrLoggingLevelInvalid               = errors.New("publication config: logging level is invalid")
	ErrLoggingFormatInvalid              = errors.New("publication config: logging format is invalid")
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config aggregates feature flags and adapter bindings for the publication
// module.
type Config struct {
	Features   Features
	Workflow   WorkflowConfig
	Storage    StorageConfig
	Cache      CacheConfig
	Scheduler  SchedulerConfig
	Validation ValidationConfig
	Logging    LoggingConfig
}

// Features toggles module functionality.
type Features struct {
	Requests      bool
	Scheduling    bool
	Versioning    bool
	Archive       bool
	ContentSchema bool
}

// WorkflowConfig shapes the guard policy.
type WorkflowConfig struct {
	Mode            string
	LiveEnvironment string
	StaleReason     string
}

// StorageConfig selects the variant store backend.
type StorageConfig struct {
	Provider string
	DSN      string
	Debug    bool
}

// CacheConfig captures read cache behaviour of database backends.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// SchedulerConfig drives the scheduled request worker.
type SchedulerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// ValidationConfig holds the JSON schema draft content must satisfy on
// commit.
type ValidationConfig struct {
	Schema map[string]any
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns an in-memory setup with every workflow feature on.
func DefaultConfig() Config {
	return Config{
		Features: Features{
			Requests:   true,
			Scheduling: true,
			Versioning: true,
			Archive:    true,
		},
		Workflow: WorkflowConfig{
			Mode:            "current",
			LiveEnvironment: "live",
			StaleReason:     "stale",
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 30 * time.Second,
			BatchSize:    50,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(cfg.Workflow.Mode)) {
	case "", "current", "legacy":
	default:
		return fmt.Errorf("%w: %s", ErrWorkflowModeInvalid, cfg.Workflow.Mode)
	}
	if strings.TrimSpace(cfg.Workflow.LiveEnvironment) == "" {
		return ErrLiveEnvironmentRequired
	}
	if cfg.Features.Scheduling && !cfg.Features.Requests {
		return ErrSchedulingFeatureRequiresRequests
	}

	provider := NormalizeProvider(cfg.Storage.Provider)
	switch provider {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, provider)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	if cfg.Cache.Enabled && cfg.Cache.DefaultTTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Features.Scheduling && cfg.Scheduler.PollInterval <= 0 {
		return ErrSchedulerPollIntervalInvalid
	}
	if cfg.Scheduler.BatchSize < 0 {
		return ErrSchedulerBatchSizeInvalid
	}
	if len(cfg.Validation.Schema) > 0 && !cfg.Features.ContentSchema {
		return ErrContentSchemaFeatureRequired
	}
	return cfg.Logging.validate()
}

func (cfg LoggingConfig) validate() error {
	provider := NormalizeProvider(cfg.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedLoggingProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// NormalizeProvider lowercases and trims a provider name.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedLoggingProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
