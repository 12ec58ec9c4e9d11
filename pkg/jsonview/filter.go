// Package jsonview renders JSON-like values for the terminal: search filtering,
// indented output and clipboard copy.
package jsonview

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Filter keeps the entries of value whose key or string value contains term, case
// insensitively, and the nested objects or arrays that still hold a match. Array elements
// are filtered one by one and null results are dropped. Scalars are returned unchanged.
// The input is never modified. An empty term returns value as is.
func Filter(value any, term string) any {
	if term == "" {
		return value
	}

	return filter(generic(value), strings.ToLower(term))
}

func filter(value any, term string) any {
	switch v := value.(type) {
	case map[string]any:
		filtered := make(map[string]any)

		for key, child := range v {
			if strings.Contains(strings.ToLower(key), term) {
				filtered[key] = child

				continue
			}

			if s, ok := child.(string); ok && strings.Contains(strings.ToLower(s), term) {
				filtered[key] = child

				continue
			}

			switch child.(type) {
			case map[string]any, []any:
				nested := filter(child, term)
				if hasKeys(nested) {
					filtered[key] = nested
				}
			}
		}

		return filtered
	case []any:
		filtered := make([]any, 0, len(v))

		for _, item := range v {
			result := filter(item, term)
			if result != nil {
				filtered = append(filtered, result)
			}
		}

		return filtered
	default:
		return value
	}
}

// IsEmpty reports whether value has nothing to show: nil, a scalar other than a
// non-empty string, or an object or array without entries.
func IsEmpty(value any) bool {
	return !hasKeys(generic(value))
}

func hasKeys(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case string:
		return v != ""
	default:
		return false
	}
}

// generic converts typed values such as structs or named maps into the plain
// map[string]any / []any form produced by encoding/json.
func generic(value any) any {
	switch value.(type) {
	case nil, map[string]any, []any, string, bool, float64:
		return value
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var out any
	if err := decoder.Decode(&out); err != nil {
		return value
	}

	return out
}

// Indent serialises value as JSON indented by two spaces, without HTML escaping.
func Indent(value any) (string, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(value); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
