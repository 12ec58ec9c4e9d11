package mongodb

import (
	"github.com/dukex/operion-builder/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalize converts decoded BSON containers into plain JSON-style maps and slices.
func normalize(value any) any {
	switch typed := value.(type) {
	case primitive.D:
		out := make(map[string]any, len(typed))
		for _, elem := range typed {
			out[elem.Key] = normalize(elem.Value)
		}

		return out
	case primitive.M:
		return normalizeMap(typed)
	case map[string]any:
		return normalizeMap(typed)
	case primitive.A:
		return normalizeSlice(typed)
	case []any:
		return normalizeSlice(typed)
	default:
		return value
	}
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = normalize(value)
	}

	return out
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, value := range in {
		out[i] = normalize(value)
	}

	return out
}

func normalizeSchema(schema models.Schema) models.Schema {
	if schema == nil {
		return nil
	}

	return normalizeMap(schema)
}
