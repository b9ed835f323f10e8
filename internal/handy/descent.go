package handy

import (
	"github.com/tidwall/gjson"
)

// Descent walks trail into nested maps and slices and returns fail whenever a step cannot
// be taken or the value found is nil. String steps index maps, int steps index slices;
// negative ints count from the end.
func Descent(data any, fail any, trail ...any) any {
	for _, step := range trail {
		switch node := data.(type) {
		case map[string]any:
			key, ok := step.(string)
			if !ok {
				return fail
			}
			next, ok := node[key]
			if !ok {
				return fail
			}
			data = next
		case []any:
			i, ok := sliceIndex(step, len(node))
			if !ok {
				return fail
			}
			data = node[i]
		case []map[string]any:
			i, ok := sliceIndex(step, len(node))
			if !ok {
				return fail
			}
			data = node[i]
		default:
			return fail
		}
	}
	if data == nil {
		return fail
	}
	return data
}

func sliceIndex(step any, n int) (int, bool) {
	i, ok := step.(int)
	if !ok {
		return 0, false
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// DescentJSON looks up a gjson path (e.g. "points.0.x") in raw JSON and returns fail when
// the document is invalid, the path is missing or the value is null
func DescentJSON(raw []byte, path string, fail any) any {
	if !gjson.ValidBytes(raw) {
		return fail
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() || result.Type == gjson.Null {
		return fail
	}
	return result.Value()
}

// Inv swaps keys and values; when values repeat, one of their keys wins
func Inv[K, V comparable](mapping map[K]V) map[V]K {
	inv := make(map[V]K, len(mapping))
	for k, v := range mapping {
		inv[v] = k
	}
	return inv
}

// FlatList concatenates a list of lists
func FlatList[T any](lists [][]T) []T {
	var out []T
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// AsList returns x when it is a []any, otherwise an empty list
func AsList(x any) []any {
	if l, ok := x.([]any); ok {
		return l
	}
	return []any{}
}

// AsStr returns x when it is a string, otherwise ""
func AsStr(x any) string {
	s, _ := x.(string)
	return s
}
