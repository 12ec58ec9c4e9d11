// Package mongodb provides MongoDB persistence implementation for workflow documents.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultDatabase    = "operion_builder"
	workflowCollection = "workflows"
)

// workflowDocument is the stored shape of a workflow. The identifier lives in _id.
type workflowDocument struct {
	ID        any                    `bson:"_id"`
	Name      string                 `bson:"name"`
	Nodes     []*models.WorkflowNode `bson:"nodes"`
	CreatedAt time.Time              `bson:"createdAt"`
	UpdatedAt time.Time              `bson:"updatedAt"`
}

// Persistence implements the persistence layer for MongoDB.
type Persistence struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewPersistence connects to the MongoDB deployment in databaseURL. The database name is
// taken from the URL path and defaults to operion_builder.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(ctx)

		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := databaseName(databaseURL)

	logger.InfoContext(ctx, "Connected to MongoDB", "database", database)

	return &Persistence{
		client:     client,
		collection: client.Database(database).Collection(workflowCollection),
		logger:     logger,
	}, nil
}

func databaseName(databaseURL string) string {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return defaultDatabase
	}

	name := strings.Trim(parsed.Path, "/")
	if name == "" {
		return defaultDatabase
	}

	return name
}

// documentID returns an ObjectID for 24-char hex ids and the raw string otherwise.
func documentID(id string) any {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}

	return objectID
}

func idString(id any) string {
	switch value := id.(type) {
	case primitive.ObjectID:
		return value.Hex()
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

func (p *Persistence) toWorkflow(doc *workflowDocument) *models.Workflow {
	for _, node := range doc.Nodes {
		if node == nil {
			continue
		}

		node.InputMapping = normalize(node.InputMapping)
		node.OutputMapping = normalizeSchema(node.OutputMapping)
		node.OutputSchema = normalizeSchema(node.OutputSchema)
	}

	return &models.Workflow{
		ID:        idString(doc.ID),
		Name:      doc.Name,
		Nodes:     persistence.NormalizeNodes(doc.Nodes),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// Close disconnects the client.
func (p *Persistence) Close(ctx context.Context) error {
	err := p.client.Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	return nil
}

// HealthCheck pings the primary.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx, readpref.Primary())
	if err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return nil
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	var doc workflowDocument

	err := p.collection.FindOne(ctx, bson.M{"_id": documentID(id)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return p.toWorkflow(&doc), nil
}

// SaveWorkflow upserts the whole document.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("SaveWorkflow", "", persistence.ErrWorkflowIDRequired)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now
	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	doc := workflowDocument{
		ID:        documentID(workflow.ID),
		Name:      workflow.Name,
		Nodes:     workflow.Nodes,
		CreatedAt: workflow.CreatedAt,
		UpdatedAt: workflow.UpdatedAt,
	}

	_, err := p.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// ReplaceNodes sets the node array with a single findAndModify.
func (p *Persistence) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	update := bson.M{"$set": bson.M{
		"nodes":     persistence.NormalizeNodes(nodes),
		"updatedAt": time.Now().UTC(),
	}}

	workflow, err := p.findOneAndUpdate(ctx, bson.M{"_id": documentID(workflowID)}, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = persistence.ErrWorkflowNotFound
		}

		return nil, persistence.NewWorkflowError("ReplaceNodes", workflowID, err)
	}

	return workflow, nil
}

// PatchNodeFields updates the matched array element through the positional operator.
func (p *Persistence) PatchNodeFields(ctx context.Context, workflowID, nodeID string, patch persistence.NodeFieldsPatch) (*models.Workflow, error) {
	filter := bson.M{"_id": documentID(workflowID), "nodes.id": nodeID}
	update := bson.M{"$set": bson.M{
		"nodes.$.outputSchema":    patch.OutputSchema,
		"nodes.$.executionStatus": patch.ExecutionStatus,
		"nodes.$.lastExecutedAt":  patch.LastExecutedAt,
		"updatedAt":               time.Now().UTC(),
	}}

	workflow, err := p.findOneAndUpdate(ctx, filter, update)
	if err == nil {
		return workflow, nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, persistence.NewNodeError("PatchNodeFields", workflowID, nodeID, err)
	}

	count, countErr := p.collection.CountDocuments(ctx, bson.M{"_id": documentID(workflowID)})
	if countErr != nil {
		return nil, persistence.NewNodeError("PatchNodeFields", workflowID, nodeID, countErr)
	}

	if count == 0 {
		return nil, persistence.NewNodeError("PatchNodeFields", workflowID, nodeID, persistence.ErrWorkflowNotFound)
	}

	return nil, persistence.NewNodeError("PatchNodeFields", workflowID, nodeID, persistence.ErrNodeNotFound)
}

func (p *Persistence) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Workflow, error) {
	var doc workflowDocument

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := p.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		return nil, err
	}

	return p.toWorkflow(&doc), nil
}
