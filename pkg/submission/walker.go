package submission

import (
	"sort"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// State is the flat fieldName → value map the interactive form renderer is
// seeded with. Keys that resolved to a field definition are stored under the
// field's canonical name; everything else keeps its raw key so no data is
// silently dropped.
type State map[string]any

// Containers that hold nested field collections in historical payload shapes.
var nestingContainers = map[string]struct{}{
	"fields":   {},
	"answers":  {},
	"items":    {},
	"children": {},
	"values":   {},
}

// BuildState walks an arbitrary submission payload and pairs every key it can
// find with a value, resolving keys against the index. The walk is
// deterministic (object properties visited in lexicographic order) so
// repeated runs over the same inputs produce identical output; where multiple
// payload paths describe the same field, the later-visited path wins. The
// walker never panics on malformed input; at worst the map comes back empty
// or partial.
func BuildState(payload any, idx *schema.Index) State {
	state := make(State)
	walk(payload, idx, state)
	return state
}

func walk(node any, idx *schema.Index, state State) {
	switch value := node.(type) {
	case []any:
		for _, item := range value {
			walk(item, idx, state)
		}
	case map[string]any:
		walkObject(value, idx, state)
	}
}

func walkObject(node map[string]any, idx *schema.Index, state State) {
	key, hasKey := KeyCandidate(node)
	value, hasValue := ValueCandidate(node)
	paired := hasKey && hasValue
	if paired {
		assign(state, idx, key, value)
	}

	for _, property := range sortedKeys(node) {
		child := node[property]

		if _, nested := nestingContainers[property]; nested {
			walk(child, idx, state)
			continue
		}
		if paired {
			// The aliases that produced the pair are already accounted for;
			// re-assigning them would leak wrapper bookkeeping into the state.
			if _, alias := candidateAliases[property]; alias {
				continue
			}
		}

		switch typed := child.(type) {
		case map[string]any:
			// A selection-widget wrapper hanging off a named property is the
			// property's value, not a nested node; recursing would let the
			// option label masquerade as a field key.
			if isSelectionWrapper(typed) {
				assign(state, idx, property, typed)
				continue
			}
			walkObject(typed, idx, state)
		case []any:
			if containsNode(typed) {
				walk(typed, idx, state)
				continue
			}
			// A list of scalars or selection wrappers is a value
			// (multi-select, tags), not a collection of nodes.
			assign(state, idx, property, child)
		default:
			assign(state, idx, property, child)
		}
	}
}

// assign stores one candidate pair. Flattened datatable cell keys pass
// through verbatim before any resolution is attempted; resolved keys store
// under the field's canonical name; unresolvable keys are preserved raw.
func assign(state State, idx *schema.Index, key string, value any) {
	if key == "" {
		return
	}
	if IsFlattenedKey(key) {
		state[key] = NormalizeValue(value)
		return
	}
	if field, ok := idx.Resolve(key); ok {
		state[field.Name] = NormalizeValue(value)
		return
	}
	state[key] = NormalizeValue(value)
}

// isSelectionWrapper matches the exact shape NormalizeValue unwraps when the
// only sibling of `value` is the display label: `{value: X}` or
// `{value: X, label: Y}`. Pair nodes like `{name: ..., value: ...}` do not
// match and are walked normally.
func isSelectionWrapper(node map[string]any) bool {
	if _, ok := node["value"]; !ok || len(node) > 2 {
		return false
	}
	if len(node) == 1 {
		return true
	}
	_, hasLabel := node["label"]
	return hasLabel
}

// containsNode reports whether a list holds anything worth walking: nested
// lists, or objects that are not plain selection wrappers.
func containsNode(list []any) bool {
	for _, item := range list {
		switch typed := item.(type) {
		case []any:
			return true
		case map[string]any:
			if !isSelectionWrapper(typed) {
				return true
			}
		}
	}
	return false
}

func sortedKeys(node map[string]any) []string {
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
