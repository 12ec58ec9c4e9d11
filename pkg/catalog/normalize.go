package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type page[T any] struct {
	Items []T `json:"items"`
}

// normalizeList accepts a paginated {items: [...]} body or a bare list. Anything else,
// including null, is an empty list.
func normalizeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)

	switch {
	case len(trimmed) == 0:
		return []T{}, nil
	case trimmed[0] == '[':
		var items []T

		err := json.Unmarshal(trimmed, &items)
		if err != nil {
			return nil, fmt.Errorf("failed to decode catalog list: %w", err)
		}

		return nonNil(items), nil
	case trimmed[0] == '{':
		var p page[T]

		err := json.Unmarshal(trimmed, &p)
		if err != nil {
			return nil, fmt.Errorf("failed to decode catalog page: %w", err)
		}

		return nonNil(p.Items), nil
	default:
		return []T{}, nil
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
