package model

// Option is one selectable choice for select/radio/checkbox fields.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Column describes one datatable column.
type Column struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Field models an individual input inside a built form. Struct fields are
// annotated so renderers can serialise them directly when needed.
type Field struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Label       string            `json:"label,omitempty"`
	Type        string            `json:"type"`
	Required    bool              `json:"required"`
	Placeholder string            `json:"placeholder,omitempty"`
	Description string            `json:"description,omitempty"`
	HelpText    string            `json:"helpText,omitempty"`
	Default     any               `json:"default,omitempty"`
	Options     []Option          `json:"options,omitempty"`
	Columns     []Column          `json:"columns,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Section groups fields for display; one section per schema step.
type Section struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// FormModel is the top-level representation renderers consume.
type FormModel struct {
	FormID      string            `json:"formId,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Method      string            `json:"method,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Sections    []Section         `json:"sections"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Fields flattens every section's fields in display order.
func (m FormModel) Fields() []Field {
	var out []Field
	for _, section := range m.Sections {
		out = append(out, section.Fields...)
	}
	return out
}

// FieldNames returns the canonical submission keys in display order.
func (m FormModel) FieldNames() []string {
	fields := m.Fields()
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.Name != "" {
			out = append(out, field.Name)
		}
	}
	return out
}
