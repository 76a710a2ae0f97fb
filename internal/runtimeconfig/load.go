package runtimeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// EnvStorageDSN overrides the storage dsn so credentials stay out of files.
	EnvStorageDSN = "PUBLICATION_STORAGE_DSN"
	// EnvLogLevel overrides the logging level.
	EnvLogLevel = "PUBLICATION_LOG_LEVEL"
)

// document mirrors Config in its file form. Durations are strings and every
// field is optional so a file only overrides what it names.
type document struct {
	Features *struct {
		Requests      *bool `toml:"requests"`
		Scheduling    *bool `toml:"scheduling"`
		Versioning    *bool `toml:"versioning"`
		Archive       *bool `toml:"archive"`
		ContentSchema *bool `toml:"content_schema"`
	} `toml:"features"`
	Workflow struct {
		Mode            string `toml:"mode"`
		LiveEnvironment string `toml:"live_environment"`
		StaleReason     string `toml:"stale_reason"`
	} `toml:"workflow"`
	Storage struct {
		Provider string `toml:"provider"`
		DSN      string `toml:"dsn"`
		Debug    *bool  `toml:"debug"`
	} `toml:"storage"`
	Cache struct {
		Enabled    *bool  `toml:"enabled"`
		DefaultTTL string `toml:"default_ttl"`
	} `toml:"cache"`
	Scheduler struct {
		PollInterval string `toml:"poll_interval"`
		BatchSize    *int   `toml:"batch_size"`
	} `toml:"scheduler"`
	Validation struct {
		Schema     map[string]any `toml:"schema"`
		SchemaFile string         `toml:"schema_file"`
	} `toml:"validation"`
	Logging struct {
		Provider  string   `toml:"provider"`
		Level     string   `toml:"level"`
		Format    string   `toml:"format"`
		AddSource *bool    `toml:"add_source"`
		Focus     []string `toml:"focus"`
	} `toml:"logging"`
}

// Load reads a TOML file on top of DefaultConfig, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML content the same way Load does.
func Parse(data []byte) (Config, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg := DefaultConfig()
	if err := doc.merge(&cfg); err != nil {
		return Config{}, err
	}
	cfg.loadEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (d document) merge(cfg *Config) error {
	if f := d.Features; f != nil {
		setBool(&cfg.Features.Requests, f.Requests)
		setBool(&cfg.Features.Scheduling, f.Scheduling)
		setBool(&cfg.Features.Versioning, f.Versioning)
		setBool(&cfg.Features.Archive, f.Archive)
		setBool(&cfg.Features.ContentSchema, f.ContentSchema)
	}

	setString(&cfg.Workflow.Mode, d.Workflow.Mode)
	setString(&cfg.Workflow.LiveEnvironment, d.Workflow.LiveEnvironment)
	setString(&cfg.Workflow.StaleReason, d.Workflow.StaleReason)

	setString(&cfg.Storage.Provider, d.Storage.Provider)
	setString(&cfg.Storage.DSN, d.Storage.DSN)
	setBool(&cfg.Storage.Debug, d.Storage.Debug)

	setBool(&cfg.Cache.Enabled, d.Cache.Enabled)
	if err := setDuration(&cfg.Cache.DefaultTTL, d.Cache.DefaultTTL, "cache.default_ttl"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Scheduler.PollInterval, d.Scheduler.PollInterval, "scheduler.poll_interval"); err != nil {
		return err
	}
	if d.Scheduler.BatchSize != nil {
		cfg.Scheduler.BatchSize = *d.Scheduler.BatchSize
	}

	if len(d.Validation.Schema) > 0 {
		cfg.Validation.Schema = d.Validation.Schema
	}
	if path := strings.TrimSpace(d.Validation.SchemaFile); path != "" {
		schema, err := readSchema(path)
		if err != nil {
			return err
		}
		cfg.Validation.Schema = schema
	}

	setString(&cfg.Logging.Provider, d.Logging.Provider)
	setString(&cfg.Logging.Level, d.Logging.Level)
	setString(&cfg.Logging.Format, d.Logging.Format)
	setBool(&cfg.Logging.AddSource, d.Logging.AddSource)
	if len(d.Logging.Focus) > 0 {
		cfg.Logging.Focus = d.Logging.Focus
	}
	return nil
}

func (cfg *Config) loadEnv() {
	if v := os.Getenv(EnvStorageDSN); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}

func readSchema(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return schema, nil
}

func setString(target *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*target = value
	}
}

func setBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value, field string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	*target = parsed
	return nil
}
