package schema

import "strings"

// Field type identifiers used by authored form definitions. The set mirrors
// the widgets the surrounding application ships; unknown types are carried
// through untouched so older definitions keep rendering.
const (
	FieldTypeText      = "text"
	FieldTypeTextarea  = "textarea"
	FieldTypeNumber    = "number"
	FieldTypeEmail     = "email"
	FieldTypeDate      = "date"
	FieldTypeSelect    = "select"
	FieldTypeCheckbox  = "checkbox"
	FieldTypeRadio     = "radio"
	FieldTypeFile      = "file"
	FieldTypeAddress   = "address"
	FieldTypeDatatable = "datatable"
)

// FieldDefinition describes a single input inside a form definition. Identity
// is the ID (authored or synthesized at parse time); Name is the canonical key
// submissions are stored under and must be unique within a schema; Label is a
// non-unique display string that historical submissions may have used as a
// key.
type FieldDefinition struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	StepID     string         `json:"stepId,omitempty" yaml:"stepId,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Step groups fields for multi-page display. It has no lifecycle independent
// of the schema that owns it.
type Step struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FormSchema is the parsed form definition. A schema with no steps renders
// nothing and resolves no keys, which is the designed degraded mode for
// missing or malformed definitions.
type FormSchema struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Fields flattens every step's fields into a single ordered list, annotating
// each with its owning step ID.
func (s FormSchema) Fields() []FieldDefinition {
	var out []FieldDefinition
	for _, step := range s.Steps {
		for _, field := range step.Fields {
			if field.StepID == "" {
				field.StepID = step.ID
			}
			out = append(out, field)
		}
	}
	return out
}

// Empty reports whether the schema declares any fields at all.
func (s FormSchema) Empty() bool {
	for _, step := range s.Steps {
		if len(step.Fields) > 0 {
			return false
		}
	}
	return true
}

// Step returns the step with the given ID.
func (s FormSchema) Step(id string) (Step, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Step{}, false
	}
	for _, step := range s.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return Step{}, false
}
