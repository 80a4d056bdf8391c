package schema

import "strings"

// Index provides the lookup maps the key resolver consults. It is safe for
// concurrent readers when treated as immutable after construction.
type Index struct {
	fields       []FieldDefinition
	byName       map[string]FieldDefinition
	byID         map[string]FieldDefinition
	byLabel      map[string]FieldDefinition
	byLabelLower map[string]FieldDefinition
}

// NewIndex builds name, id, label, and lower-cased label maps from the
// flattened field list. Fields missing an attribute are simply absent from
// that map; when two fields share an attribute value the first occurrence
// wins, matching authoring order.
func NewIndex(fields []FieldDefinition) *Index {
	idx := &Index{
		fields:       append([]FieldDefinition(nil), fields...),
		byName:       make(map[string]FieldDefinition, len(fields)),
		byID:         make(map[string]FieldDefinition, len(fields)),
		byLabel:      make(map[string]FieldDefinition, len(fields)),
		byLabelLower: make(map[string]FieldDefinition, len(fields)),
	}

	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			if _, exists := idx.byName[name]; !exists {
				idx.byName[name] = field
			}
		}
		if id := strings.TrimSpace(field.ID); id != "" {
			if _, exists := idx.byID[id]; !exists {
				idx.byID[id] = field
			}
		}
		label := strings.TrimSpace(field.Label)
		if label == "" {
			continue
		}
		if _, exists := idx.byLabel[label]; !exists {
			idx.byLabel[label] = field
		}
		lower := strings.ToLower(label)
		if _, exists := idx.byLabelLower[lower]; !exists {
			idx.byLabelLower[lower] = field
		}
	}
	return idx
}

// IndexSchema is shorthand for indexing a parsed schema's flattened fields.
func IndexSchema(s FormSchema) *Index {
	return NewIndex(s.Fields())
}

// Fields returns the indexed field list in authoring order.
func (ix *Index) Fields() []FieldDefinition {
	if ix == nil {
		return nil
	}
	return append([]FieldDefinition(nil), ix.fields...)
}

// Len reports how many fields the index covers.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.fields)
}
