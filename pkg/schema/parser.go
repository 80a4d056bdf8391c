package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Form definition envelopes store the schema under either key depending on
// the API generation that produced them.
var schemaEnvelopeKeys = []string{"schema", "form_schema"}

// ParserOption customises a Parser.
type ParserOption func(*Parser)

// WithLogger injects the logger used to report recoverable parse failures.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator overrides the generator used to synthesize identifiers for
// steps and fields authored without one. Useful for deterministic tests.
func WithIDGenerator(fn func() string) ParserOption {
	return func(p *Parser) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// Parser turns raw form definitions into FormSchema values. It never returns
// an error: malformed input degrades to an empty schema so the rest of the
// pipeline falls back to raw-key assignment.
type Parser struct {
	logger *zap.Logger
	newID  func() string
}

// NewParser constructs a Parser applying any provided options.
func NewParser(options ...ParserOption) *Parser {
	p := &Parser{
		logger: zap.NewNop(),
		newID:  func() string { return ulid.Make().String() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// ParseForm extracts the schema value from a form envelope (the object
// returned by the form endpoint) and parses it. Missing envelopes yield an
// empty schema.
func (p *Parser) ParseForm(form map[string]any) FormSchema {
	if form == nil {
		return FormSchema{}
	}
	for _, key := range schemaEnvelopeKeys {
		if raw, ok := form[key]; ok && raw != nil {
			return p.ParseDefinition(raw)
		}
	}
	return FormSchema{}
}

// ParseDefinition accepts a form definition in any of the shapes the backend
// has stored over time: absent, a JSON-encoded string, raw bytes, an
// already-decoded map, or a typed FormSchema.
func (p *Parser) ParseDefinition(raw any) FormSchema {
	switch value := raw.(type) {
	case nil:
		return FormSchema{}
	case FormSchema:
		return p.finalize(value)
	case *FormSchema:
		if value == nil {
			return FormSchema{}
		}
		return p.finalize(*value)
	case string:
		if strings.TrimSpace(value) == "" {
			return FormSchema{}
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			p.logger.Warn("schema: ignoring malformed definition string", zap.Error(err))
			return FormSchema{}
		}
		return p.finalize(schemaFromMap(payload))
	case []byte:
		return p.ParseDefinitionBytes(value)
	case map[string]any:
		return p.finalize(schemaFromMap(value))
	default:
		p.logger.Warn("schema: unsupported definition payload",
			zap.String("type", fmt.Sprintf("%T", raw)))
		return FormSchema{}
	}
}

// ParseDefinitionBytes parses a schema document, trying JSON first and then
// YAML, mirroring how UI schema documents are loaded elsewhere in the stack.
func (p *Parser) ParseDefinitionBytes(data []byte) FormSchema {
	if len(strings.TrimSpace(string(data))) == 0 {
		return FormSchema{}
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err == nil {
		return p.finalize(schemaFromMap(payload))
	}

	payload = nil
	if err := yaml.Unmarshal(data, &payload); err != nil {
		p.logger.Warn("schema: definition is neither valid JSON nor YAML", zap.Error(err))
		return FormSchema{}
	}
	return p.finalize(schemaFromMap(payload))
}

// finalize synthesizes identifiers for steps and fields authored without one
// and stamps each field with its owning step ID.
func (p *Parser) finalize(parsed FormSchema) FormSchema {
	for i := range parsed.Steps {
		step := &parsed.Steps[i]
		if strings.TrimSpace(step.ID) == "" {
			step.ID = p.newID()
		}
		for j := range step.Fields {
			field := &step.Fields[j]
			if strings.TrimSpace(field.ID) == "" {
				field.ID = p.newID()
			}
			field.StepID = step.ID
		}
	}
	return parsed
}

func schemaFromMap(payload map[string]any) FormSchema {
	if payload == nil {
		return FormSchema{}
	}

	var out FormSchema
	if stepsRaw, ok := payload["steps"].([]any); ok {
		for _, entry := range stepsRaw {
			stepMap, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			out.Steps = append(out.Steps, stepFromMap(stepMap))
		}
	}

	// Single-page definitions declare fields at the top level; fold them into
	// an implicit step so downstream code sees one shape.
	if fieldsRaw, ok := payload["fields"].([]any); ok {
		implicit := Step{Name: readString(payload, "name"), Title: readString(payload, "title")}
		for _, entry := range fieldsRaw {
			fieldMap, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			implicit.Fields = append(implicit.Fields, fieldFromMap(fieldMap))
		}
		if len(implicit.Fields) > 0 {
			out.Steps = append(out.Steps, implicit)
		}
	}

	return out
}

func stepFromMap(payload map[string]any) Step {
	step := Step{
		ID:          stringValue(payload["id"]),
		Name:        readString(payload, "name"),
		Title:       readString(payload, "title"),
		Description: readString(payload, "description"),
	}
	fieldsRaw, _ := payload["fields"].([]any)
	for _, entry := range fieldsRaw {
		fieldMap, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		step.Fields = append(step.Fields, fieldFromMap(fieldMap))
	}
	return step
}

var reservedFieldKeys = map[string]struct{}{
	"id":    {},
	"name":  {},
	"label": {},
	"type":  {},
}

func fieldFromMap(payload map[string]any) FieldDefinition {
	field := FieldDefinition{
		ID:    stringValue(payload["id"]),
		Name:  readString(payload, "name"),
		Label: readString(payload, "label"),
		Type:  readString(payload, "type"),
	}

	// Everything beyond the core attributes (options, placeholder, columns,
	// validation flags) rides along in Properties.
	for _, key := range sortedKeys(payload) {
		if _, reserved := reservedFieldKeys[key]; reserved {
			continue
		}
		if field.Properties == nil {
			field.Properties = make(map[string]any)
		}
		field.Properties[key] = payload[key]
	}
	return field
}

func readString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// stringValue renders scalar identifiers to their canonical string form; the
// backend has stored numeric ids in older schema versions.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func sortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
