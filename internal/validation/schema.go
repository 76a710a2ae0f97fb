package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-publication/internal/domain"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid   = errors.New("validation: schema invalid")
	ErrContentInvalid  = errors.New("validation: content does not match schema")
	ErrContentEncoding = errors.New("validation: content cannot be encoded")
)

// Issue captures a single validation failure.
type Issue struct {
	Location string
	Message  string
}

// ContentError lists the schema violations found in a variant's content.
type ContentError struct {
	Issues []Issue
	Cause  error
}

func (e *ContentError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrContentInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *ContentError) Unwrap() error {
	return ErrContentInvalid
}

// Issues extracts validation issues from an error.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var contentErr *ContentError
	if errors.As(err, &contentErr) && contentErr != nil {
		return contentErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Validator checks draft content against a compiled JSON schema before it is
// committed. A nil Validator accepts everything.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the schema. An empty schema yields a nil validator.
func New(schema map[string]any) (*Validator, error) {
	normalized := NormalizeSchema(schema)
	if normalized == nil {
		return nil, nil
	}
	compiled, err := compileSchema(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Validator{schema: compiled}, nil
}

// Load decodes a JSON schema document and compiles it.
func Load(raw []byte) (*Validator, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return New(schema)
}

// ValidateContent validates the content payload of a variant.
func (v *Validator) ValidateContent(content map[string]any) error {
	if v == nil || v.schema == nil {
		return nil
	}
	instance, err := normalizeInstance(content)
	if err != nil {
		return err
	}
	if err := v.schema.Validate(instance); err != nil {
		return &ContentError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// normalizeInstance round-trips content through JSON so the validator only
// sees JSON value types.
func normalizeInstance(content map[string]any) (any, error) {
	if content == nil {
		content = map[string]any{}
	}
	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentEncoding, err)
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentEncoding, err)
	}
	return instance, nil
}

// NormalizeSchema converts a schema definition into a JSON schema. Besides
// plain JSON schemas it accepts the short form {"fields": [{"name", "type",
// "required"}]}.
func NormalizeSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	if isJSONSchema(schema) {
		return domain.CloneContent(schema)
	}
	fields, ok := schema["fields"]
	if !ok {
		return nil
	}
	properties, required := normalizeFields(fields)
	if len(properties) == 0 {
		return nil
	}
	normalized := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if override, ok := schema["additionalProperties"].(bool); ok {
		normalized["additionalProperties"] = override
	}
	if len(required) > 0 {
		normalized["required"] = required
	}
	return normalized
}

func isJSONSchema(schema map[string]any) bool {
	for _, key := range []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"} {
		if _, ok := schema[key]; ok {
			return true
		}
	}
	return false
}

func normalizeFields(fields any) (map[string]any, []any) {
	properties := make(map[string]any)
	required := make([]any, 0)

	var entries []map[string]any
	switch typed := fields.(type) {
	case []any:
		for _, entry := range typed {
			switch field := entry.(type) {
			case map[string]any:
				entries = append(entries, field)
			case string:
				entries = append(entries, map[string]any{"name": field})
			}
		}
	case []map[string]any:
		entries = typed
	}

	for _, field := range entries {
		name, _ := field["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		property := map[string]any{}
		if fieldType, ok := field["type"].(string); ok {
			if jsonType := normalizeJSONType(fieldType); jsonType != "" {
				property["type"] = jsonType
			}
		}
		properties[name] = property
		if flag, ok := field["required"].(bool); ok && flag {
			required = append(required, name)
		}
	}
	return properties, required
}

func normalizeJSONType(value string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return normalized
	default:
		return ""
	}
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	if err == nil {
		return nil
	}
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
