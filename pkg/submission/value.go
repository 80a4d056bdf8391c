package submission

// NormalizeValue unwraps the `{value: X}` wrapper objects selection widgets
// store, leaving genuinely structured values intact. Arrays are unwrapped
// element-wise; nil passes through unchanged.
func NormalizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = unwrapValue(item)
		}
		return out
	default:
		return unwrapValue(value)
	}
}

// unwrapValue applies the unwrap rule once: a map carrying a `value` key with
// at most one sibling (typically `label`) collapses to its value. Anything
// wider is a real structured value (an address object, a file descriptor) and
// is preserved as-is.
func unwrapValue(value any) any {
	m, ok := value.(map[string]any)
	if !ok || m == nil {
		return value
	}
	inner, ok := m["value"]
	if !ok || len(m) > 2 {
		return value
	}
	return inner
}
