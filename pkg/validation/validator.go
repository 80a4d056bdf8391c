// Package validation checks normalized submission state against a JSON
// Schema derived from the form's field definitions.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// Issue is a single validation failure attached to a field. Field is empty
// for form-level failures such as a missing required property.
type Issue struct {
	Field   string
	Message string
}

// Validator derives a JSON Schema from form fields and validates submission
// state against it.
type Validator struct {
	assertFormats bool
}

// Option configures the validator.
type Option func(*Validator)

// WithFormatAssertions enables format checking (email, date) instead of
// treating formats as annotations, which is the draft 2020-12 default.
func WithFormatAssertions() Option {
	return func(v *Validator) {
		v.assertFormats = true
	}
}

// New constructs a Validator.
func New(options ...Option) *Validator {
	v := &Validator{}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate checks state against the form's derived schema and returns one
// issue per failing field. A nil return means the state is valid.
func (v *Validator) Validate(form model.FormModel, state submission.State) ([]Issue, error) {
	compiled, err := v.compile(form)
	if err != nil {
		return nil, err
	}

	payload := buildPayload(form, state)
	if err := compiled.Validate(payload); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return collectIssues(validationErr), nil
		}
		return nil, fmt.Errorf("validation: validate state: %w", err)
	}
	return nil, nil
}

func (v *Validator) compile(form model.FormModel) (*jsonschema.Schema, error) {
	document := SchemaFor(form)

	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("validation: marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = v.assertFormats

	const uri = "mem://formstate/schema.json"
	if err := compiler.AddResource(uri, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(uri)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	return compiled, nil
}

// SchemaFor derives the JSON Schema document used to validate submissions of
// the given form.
func SchemaFor(form model.FormModel) map[string]any {
	properties := make(map[string]any)
	var required []string

	for _, field := range form.Fields() {
		if field.Name == "" {
			continue
		}
		properties[field.Name] = propertySchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}

	document := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		document["required"] = required
	}
	return document
}

func propertySchema(field model.Field) map[string]any {
	switch field.Type {
	case schema.FieldTypeNumber:
		return map[string]any{"type": "number"}
	case schema.FieldTypeCheckbox:
		return map[string]any{"type": "boolean"}
	case schema.FieldTypeEmail:
		return map[string]any{"type": "string", "format": "email"}
	case schema.FieldTypeDate:
		return map[string]any{"type": "string", "format": "date"}
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		if len(field.Options) == 0 {
			return map[string]any{"type": "string"}
		}
		values := make([]any, 0, len(field.Options))
		for _, opt := range field.Options {
			values = append(values, opt.Value)
		}
		// Multi-selects submit arrays of the same enum members.
		return map[string]any{
			"anyOf": []any{
				map[string]any{"enum": values},
				map[string]any{"type": "array", "items": map[string]any{"enum": values}},
			},
		}
	case schema.FieldTypeDatatable:
		columns := make(map[string]any, len(field.Columns))
		for _, col := range field.Columns {
			columns[col.Name] = map[string]any{"type": "string"}
		}
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object", "properties": columns},
		}
	case schema.FieldTypeAddress:
		return map[string]any{"type": []any{"object", "string"}}
	default:
		return map[string]any{"type": "string"}
	}
}

// buildPayload projects submission state onto the schema's shape, folding
// flattened datatable cells back into row arrays.
func buildPayload(form model.FormModel, state submission.State) map[string]any {
	payload := make(map[string]any)

	for _, field := range form.Fields() {
		if field.Name == "" {
			continue
		}
		if field.Type == schema.FieldTypeDatatable {
			rows := submission.CollectTable(state, field.Name)
			if len(rows) > 0 {
				items := make([]any, 0, len(rows))
				for _, row := range rows {
					entry := make(map[string]any, len(row))
					for col, cell := range row {
						entry[col] = cell
					}
					items = append(items, entry)
				}
				payload[field.Name] = items
			}
			continue
		}
		if value, ok := state[field.Name]; ok && value != nil {
			payload[field.Name] = value
		}
	}
	return payload
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	appendLeaves(err, &issues)
	return issues
}

// appendLeaves walks to the most specific causes; intermediate nodes repeat
// their children's messages with less detail.
func appendLeaves(err *jsonschema.ValidationError, issues *[]Issue) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		*issues = append(*issues, Issue{
			Field:   fieldFromLocation(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		appendLeaves(cause, issues)
	}
}

func fieldFromLocation(location string) string {
	trimmed := strings.Trim(location, "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	return segments[0]
}
