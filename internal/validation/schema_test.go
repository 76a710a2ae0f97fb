package validation_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-publication/internal/validation"
	"github.com/goliatone/go-publication/pkg/testsupport"
)

func TestValidatorValidateContent(t *testing.T) {
	validator, err := validation.New(map[string]any{
		"fields": []any{
			map[string]any{"name": "title", "type": "string", "required": true},
			map[string]any{"name": "views", "type": "integer"},
		},
	})
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	tests := []struct {
		name    string
		content map[string]any
		wantErr bool
	}{
		{name: "valid", content: map[string]any{"title": "Guide", "views": 3}},
		{name: "missing required", content: map[string]any{"views": 3}, wantErr: true},
		{name: "wrong type", content: map[string]any{"title": 42}, wantErr: true},
		{name: "nil content", content: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateContent(tt.content)
			if tt.wantErr {
				if !errors.Is(err, validation.ErrContentInvalid) {
					t.Fatalf("expected content error, got %v", err)
				}
				if len(validation.Issues(err)) == 0 {
					t.Fatalf("expected issues for %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidatorLoadJSONSchema(t *testing.T) {
	validator, err := validation.Load([]byte(`{"type":"object","properties":{"body":{"type":"string","minLength":1}},"required":["body"]}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := validator.ValidateContent(map[string]any{"body": "hello"}); err != nil {
		t.Fatalf("expected valid content, got %v", err)
	}
	if err := validator.ValidateContent(map[string]any{"body": ""}); err == nil {
		t.Fatalf("expected minLength violation")
	}
}

func TestValidatorEmptySchemaAcceptsAnything(t *testing.T) {
	validator, err := validation.Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if validator != nil {
		t.Fatalf("expected nil validator for empty schema")
	}
	if err := validator.ValidateContent(map[string]any{"anything": true}); err != nil {
		t.Fatalf("nil validator should accept content, got %v", err)
	}
}

func TestValidatorInvalidSchema(t *testing.T) {
	if _, err := validation.Load([]byte(`{"type":`)); !errors.Is(err, validation.ErrSchemaInvalid) {
		t.Fatalf("expected schema invalid, got %v", err)
	}
}

func TestValidatorArticleFixture(t *testing.T) {
	raw, err := testsupport.LoadFixture("testdata/article.schema.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	validator, err := validation.Load(raw)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	var cases []struct {
		Name    string         `json:"name"`
		Content map[string]any `json:"content"`
		Valid   bool           `json:"valid"`
	}
	if err := testsupport.LoadGolden("testdata/article.golden.json", &cases); err != nil {
		t.Fatalf("load golden: %v", err)
	}
	if len(cases) == 0 {
		t.Fatalf("expected golden cases")
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			err := validator.ValidateContent(tc.Content)
			if tc.Valid && err != nil {
				t.Fatalf("expected valid content, got %v", err)
			}
			if !tc.Valid && !errors.Is(err, validation.ErrContentInvalid) {
				t.Fatalf("expected content error, got %v", err)
			}
		})
	}
}
