// Package formstate resolves form-schema fields and normalizes submission
// payloads into flat, canonical state maps. The root package is a thin facade
// over pkg/schema and pkg/submission for the common one-shot flow; use the
// sub-packages directly for rendering, validation, fetching, and caching.
package formstate

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// State is the normalized submission state: canonical field names (or
// verbatim flattened table keys) mapped to unwrapped values.
type State = submission.State

// FormSchema re-exports the parsed schema type.
type FormSchema = schema.FormSchema

// FieldDefinition re-exports the schema field type.
type FieldDefinition = schema.FieldDefinition

// Config bundles the optional collaborators for the one-shot helpers.
type Config struct {
	Logger *zap.Logger
}

// BuildFormState parses the schema out of a form record, indexes its fields,
// and normalizes the submission record's payload against it. Malformed
// schemas or payloads degrade to raw-key passthrough rather than failing.
func BuildFormState(form map[string]any, submissionRecord map[string]any, cfg Config) State {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	parser := schema.NewParser(schema.WithLogger(logger))
	parsed := parser.ParseForm(form)
	index := schema.IndexSchema(parsed)

	normalizer := submission.NewNormalizer(index, submission.WithLogger(logger))
	payload := normalizer.ParseEnvelope(submissionRecord)
	if payload == nil {
		payload = normalizer.ParsePayload(submissionRecord)
	}
	return normalizer.Build(payload)
}

// BuildState normalizes an already-decoded payload against a parsed schema.
func BuildState(parsed FormSchema, payload any, cfg Config) State {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	normalizer := submission.NewNormalizer(schema.IndexSchema(parsed), submission.WithLogger(logger))
	return normalizer.Build(payload)
}
