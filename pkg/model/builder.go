package model

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/schema"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
	richPolicyOnce  sync.Once
	richPolicy      *bluemonday.Policy
)

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithDefaultMethod overrides the HTTP method stamped on built forms.
func WithDefaultMethod(method string) BuilderOption {
	return func(b *Builder) {
		if trimmed := strings.TrimSpace(method); trimmed != "" {
			b.method = trimmed
		}
	}
}

// Builder converts parsed form schemas into the FormModel renderers consume.
// Labels are stripped to plain text; descriptions and help text keep a small
// user-generated-content subset of HTML.
type Builder struct {
	method string
}

// NewBuilder constructs a Builder applying any provided options.
func NewBuilder(options ...BuilderOption) *Builder {
	b := &Builder{method: "POST"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Build maps schema steps onto sections. It never fails: a schema with no
// steps produces a form with no sections, which renderers display as empty.
func (b *Builder) Build(s schema.FormSchema) FormModel {
	form := FormModel{Method: b.method}
	for _, step := range s.Steps {
		section := Section{
			ID:          step.ID,
			Name:        step.Name,
			Title:       sanitizeLabel(step.Title),
			Description: sanitizeRich(step.Description),
		}
		for _, field := range step.Fields {
			section.Fields = append(section.Fields, b.buildField(field))
		}
		form.Sections = append(form.Sections, section)
	}
	return form
}

func (b *Builder) buildField(def schema.FieldDefinition) Field {
	field := Field{
		ID:    def.ID,
		Name:  def.Name,
		Label: sanitizeLabel(def.Label),
		Type:  def.Type,
	}
	if field.Type == "" {
		field.Type = schema.FieldTypeText
	}

	props := def.Properties
	field.Required = boolProp(props, "required")
	field.Placeholder = sanitizeLabel(stringProp(props, "placeholder"))
	field.Description = sanitizeRich(stringProp(props, "description"))
	field.HelpText = sanitizeRich(stringProp(props, "help", "helpText", "help_text"))
	if props != nil {
		field.Default = props["default"]
	}
	field.Options = optionsProp(props)
	field.Columns = columnsProp(props)
	return field
}

func stringProp(props map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := props[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func boolProp(props map[string]any, key string) bool {
	switch v := props[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

func optionsProp(props map[string]any) []Option {
	raw, ok := props["options"].([]any)
	if !ok {
		return nil
	}
	out := make([]Option, 0, len(raw))
	for _, entry := range raw {
		switch typed := entry.(type) {
		case string:
			out = append(out, Option{Label: sanitizeLabel(typed), Value: typed})
		case map[string]any:
			label, _ := typed["label"].(string)
			value, ok := typed["value"]
			if !ok {
				value = label
			}
			out = append(out, Option{Label: sanitizeLabel(label), Value: value})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func columnsProp(props map[string]any) []Column {
	raw, ok := props["columns"].([]any)
	if !ok {
		return nil
	}
	out := make([]Column, 0, len(raw))
	for _, entry := range raw {
		switch typed := entry.(type) {
		case string:
			out = append(out, Column{Name: typed})
		case map[string]any:
			name, _ := typed["name"].(string)
			if strings.TrimSpace(name) == "" {
				continue
			}
			label, _ := typed["label"].(string)
			colType, _ := typed["type"].(string)
			out = append(out, Column{Name: name, Label: sanitizeLabel(label), Type: colType})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizeLabel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(labelPolicy.Sanitize(trimmed))
}

func sanitizeRich(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	richPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("a", "b", "strong", "i", "em", "code", "br", "p", "ul", "ol", "li")
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		richPolicy = policy
	})
	return strings.TrimSpace(richPolicy.Sanitize(trimmed))
}
