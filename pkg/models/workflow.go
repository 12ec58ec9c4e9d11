// Package models defines the workflow documents edited by the builder and the integration catalog types.
package models

import "time"

// Workflow is a single stored document owning an ordered sequence of nodes.
// Nodes are sub-documents addressed by their own id for partial updates.
type Workflow struct {
	ID        string          `json:"id"        bson:"-"`
	Name      string          `json:"name"      bson:"name"`
	Nodes     []*WorkflowNode `json:"nodes"     bson:"nodes"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node != nil && node.ID == id {
			return node
		}
	}

	return nil
}

// OtherNodes returns every node except the one with the given id.
func (w *Workflow) OtherNodes(id string) []*WorkflowNode {
	others := make([]*WorkflowNode, 0, len(w.Nodes))

	for _, node := range w.Nodes {
		if node != nil && node.ID != id {
			others = append(others, node)
		}
	}

	return others
}
