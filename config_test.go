package publication_test

import (
	"errors"
	"testing"

	publication "github.com/goliatone/go-publication"
)

func TestConfigValidateSchedulingRequiresRequests(t *testing.T) {
	cfg := publication.DefaultConfig()
	cfg.Features.Requests = false
	if err := cfg.Validate(); !errors.Is(err, publication.ErrSchedulingFeatureRequiresRequests) {
		t.Fatalf("expected ErrSchedulingFeatureRequiresRequests, got %v", err)
	}
}

func TestConfigValidateCacheTTL(t *testing.T) {
	cfg := publication.DefaultConfig()
	cfg.Cache.DefaultTTL = 0

	if err := cfg.Validate(); !errors.Is(err, publication.ErrCacheTTLInvalid) {
		t.Fatalf("expected ErrCacheTTLInvalid, got %v", err)
	}
}

func TestConfigValidateWorkflowModeUnknown(t *testing.T) {
	cfg := publication.DefaultConfig()
	cfg.Workflow.Mode = "invalid"

	if err := cfg.Validate(); !errors.Is(err, publication.ErrWorkflowModeInvalid) {
		t.Fatalf("expected ErrWorkflowModeInvalid, got %v", err)
	}
}

func TestConfigValidateSchemaRequiresFeature(t *testing.T) {
	cfg := publication.DefaultConfig()
	cfg.Validation.Schema = map[string]any{"type": "object"}

	if err := cfg.Validate(); !errors.Is(err, publication.ErrContentSchemaFeatureRequired) {
		t.Fatalf("expected ErrContentSchemaFeatureRequired, got %v", err)
	}
}

func TestConfigValidateAllowsDisablingEverything(t *testing.T) {
	cfg := publication.DefaultConfig()
	cfg.Features = publication.Features{}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}
