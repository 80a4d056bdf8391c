package submission

import (
	"strconv"
	"strings"
)

// Historical payloads wrap field data in objects whose key and value live
// under a handful of aliases. Each alias is an accessor tried in order; the
// explicit lists keep the priority auditable and testable in isolation.

type keyAccessor func(node map[string]any) (string, bool)

type valueAccessor func(node map[string]any) (any, bool)

var keyAccessors = []keyAccessor{
	keyProperty("name"),
	keyProperty("fieldName"),
	keyProperty("field_name"),
	keyProperty("field_id"),
	keyProperty("id"),
	keyProperty("key"),
	keyProperty("label"),
}

var valueAccessors = []valueAccessor{
	valueProperty("value"),
	valueProperty("fieldValue"),
	valueProperty("field_value"),
	valueProperty("val"),
	valueProperty("data"),
	valueProperty("answer"),
	valueProperty("response"),
}

func keyProperty(name string) keyAccessor {
	return func(node map[string]any) (string, bool) {
		raw, ok := node[name]
		if !ok {
			return "", false
		}
		key := strings.TrimSpace(stringScalar(raw))
		if key == "" {
			return "", false
		}
		return key, true
	}
}

func valueProperty(name string) valueAccessor {
	return func(node map[string]any) (any, bool) {
		value, ok := node[name]
		if !ok {
			return nil, false
		}
		return value, true
	}
}

// KeyCandidate returns the node's field key, if any: the first alias holding
// a non-empty string (or numeric id) wins.
func KeyCandidate(node map[string]any) (string, bool) {
	for _, accessor := range keyAccessors {
		if key, ok := accessor(node); ok {
			return key, true
		}
	}
	return "", false
}

// ValueCandidate returns the node's field value, if any: the first alias
// present on the node wins, even when it holds nil.
func ValueCandidate(node map[string]any) (any, bool) {
	for _, accessor := range valueAccessors {
		if value, ok := accessor(node); ok {
			return value, true
		}
	}
	return nil, false
}

// candidateAliases is consulted by the walker so properties consumed as
// key/value aliases of a matched pair are not re-assigned as literal entries.
var candidateAliases = map[string]struct{}{
	"name": {}, "fieldName": {}, "field_name": {}, "field_id": {}, "id": {}, "key": {}, "label": {},
	"value": {}, "fieldValue": {}, "field_value": {}, "val": {}, "data": {}, "answer": {}, "response": {},
}

func stringScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
