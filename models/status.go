package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ProjectStatus is one kanban column, scoped to exactly one project.
// IsDefault marks the column newly created tasks land in when the request
// names no status.
type ProjectStatus struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Color     string             `json:"color" bson:"color"`
	Order     int                `json:"order" bson:"order"`
	IsDefault bool               `json:"isDefault" bson:"isDefault"`
	ProjectID primitive.ObjectID `json:"projectId" bson:"projectId"`
}
