package publication

import "github.com/goliatone/go-publication/internal/runtimeconfig"

var (
	ErrWorkflowModeInvalid               = runtimeconfig.ErrWorkflowModeInvalid
	ErrLiveEnvironmentRequired           = runtimeconfig.ErrLiveEnvironmentRequired
	ErrStorageProviderUnknown            = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired                = runtimeconfig.ErrStorageDSNRequired
	ErrSchedulingFeatureRequiresRequests = runtimeconfig.ErrSchedulingFeatureRequiresRequests
	ErrSchedulerPollIntervalInvalid      = runtimeconfig.ErrSchedulerPollIntervalInvalid
	ErrSchedulerBatchSizeInvalid         = runtimeconfig.ErrSchedulerBatchSizeInvalid
	ErrCacheTTLInvalid                   = runtimeconfig.ErrCacheTTLInvalid
	ErrContentSchemaFeatureRequired      = runtimeconfig.ErrContentSchemaFeatureRequired
	ErrLoggingProviderRequired           = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown            = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid               = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid              = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	Features         = runtimeconfig.Features
	WorkflowConfig   = runtimeconfig.WorkflowConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	SchedulerConfig  = runtimeconfig.SchedulerConfig
	ValidationConfig = runtimeconfig.ValidationConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a TOML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
