package items

import "sort"

// SearchKey walks an arbitrarily nested structure of maps and slices
// depth-first and returns the value bound to the first occurrence of target.
// Direct entries of a map are checked before descending into its nested
// values. Map keys are visited in lexicographic order, so repeated calls over
// identical input always yield the identical result.
func SearchKey(node any, target string) (any, bool) {
	switch v := node.(type) {
	case map[string]any:
		if val, ok := v[target]; ok {
			return val, true
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if val, ok := SearchKey(v[k], target); ok {
				return val, true
			}
		}
	case []any:
		for _, elem := range v {
			if val, ok := SearchKey(elem, target); ok {
				return val, true
			}
		}
	}
	return nil, false
}

// SearchString is SearchKey narrowed to non-empty string values.
func SearchString(node any, target string) (string, bool) {
	val, ok := SearchKey(node, target)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
