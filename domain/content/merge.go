package content

// DeepMerge returns a new map holding base with patch applied on top. Nested
// maps merge key by key; arrays and scalars in patch replace the base value
// wholesale. Neither argument is modified.
func DeepMerge(base, patch map[string]any) map[string]any {
	out := cloneMap(base)
	if out == nil {
		out = make(map[string]any, len(patch))
	}

	for k, pv := range patch {
		pm, patchIsMap := pv.(map[string]any)
		bm, baseIsMap := out[k].(map[string]any)
		if patchIsMap && baseIsMap {
			out[k] = DeepMerge(bm, pm)
			continue
		}
		out[k] = Clone(pv)
	}
	return out
}

// Clone deep-copies maps and slices of a decoded JSON value. Other values are
// returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	default:
		return v
	}
}

// CloneData deep-copies a section data map.
func CloneData(data map[string]any) map[string]any {
	return cloneMap(data)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}
