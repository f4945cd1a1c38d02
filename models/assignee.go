package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskAssignee is a user assigned to work on a specific task, independent of
// their project role. Adding an assignee also grants them team membership.
type TaskAssignee struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TaskID    primitive.ObjectID `json:"taskId" bson:"taskId"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
