package mongodb

import (
	"testing"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalize(t *testing.T) {
	decoded := primitive.D{
		{Key: "channel", Value: "#sales"},
		{Key: "recipients", Value: primitive.A{"a@example.com", primitive.D{{Key: "name", Value: "b"}}}},
		{Key: "nested", Value: primitive.M{"depth": int32(2)}},
	}

	expected := map[string]any{
		"channel":    "#sales",
		"recipients": []any{"a@example.com", map[string]any{"name": "b"}},
		"nested":     map[string]any{"depth": int32(2)},
	}

	assert.Equal(t, expected, normalize(decoded))
	assert.Equal(t, "plain", normalize("plain"))
	assert.Nil(t, normalize(nil))
}

func TestNormalizeSchema(t *testing.T) {
	assert.Nil(t, normalizeSchema(nil))

	schema := models.Schema{"properties": primitive.D{{Key: "ts", Value: primitive.D{{Key: "type", Value: "string"}}}}}
	assert.Equal(t, models.Schema{"properties": map[string]any{"ts": map[string]any{"type": "string"}}}, normalizeSchema(schema))
}

func TestDocumentID(t *testing.T) {
	hex := "507f1f77bcf86cd799439011"
	objectID, ok := documentID(hex).(primitive.ObjectID)
	assert.True(t, ok)
	assert.Equal(t, hex, idString(objectID))

	assert.Equal(t, "wf-1", documentID("wf-1"))
	assert.Equal(t, "wf-1", idString("wf-1"))
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "builder", databaseName("mongodb://localhost:27017/builder"))
	assert.Equal(t, "builder", databaseName("mongodb://localhost:27017/builder?replicaSet=rs0"))
	assert.Equal(t, defaultDatabase, databaseName("mongodb://localhost:27017"))
	assert.Equal(t, defaultDatabase, databaseName("mongodb://localhost:27017/"))
}
