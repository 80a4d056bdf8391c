package schema

import "strings"

// Resolve finds the field definition a historical submission key refers to.
// Match priority for the whole key: exact name, exact id, exact label, then
// lower-cased label. Dotted keys fall back to trying each segment with the
// same priority, first segment to resolve wins. A miss returns ok=false; the
// caller is expected to preserve the raw key so data is never dropped.
func (ix *Index) Resolve(rawKey string) (FieldDefinition, bool) {
	if ix == nil {
		return FieldDefinition{}, false
	}
	key := strings.TrimSpace(rawKey)
	if key == "" {
		return FieldDefinition{}, false
	}

	if field, ok := ix.lookup(key); ok {
		return field, true
	}

	if strings.Contains(key, ".") {
		for _, segment := range strings.Split(key, ".") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			if field, ok := ix.lookup(segment); ok {
				return field, true
			}
		}
	}

	return FieldDefinition{}, false
}

func (ix *Index) lookup(key string) (FieldDefinition, bool) {
	if field, ok := ix.byName[key]; ok {
		return field, true
	}
	if field, ok := ix.byID[key]; ok {
		return field, true
	}
	if field, ok := ix.byLabel[key]; ok {
		return field, true
	}
	if field, ok := ix.byLabelLower[strings.ToLower(key)]; ok {
		return field, true
	}
	return FieldDefinition{}, false
}
