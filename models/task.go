package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work inside a project. A task with a non-nil ParentID is
// a subtask; a task with a non-nil StatusID sits in that kanban column.
// Order positions the task among its siblings.
type Task struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ProjectID     primitive.ObjectID  `json:"projectId" bson:"projectId"`
	Title         string              `json:"title" bson:"title"`
	Description   string              `json:"description,omitempty" bson:"description,omitempty"`
	Priority      TaskPriority        `json:"priority" bson:"priority"`
	StartDate     *time.Time          `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate       *time.Time          `json:"endDate,omitempty" bson:"endDate,omitempty"`
	DueDate       *time.Time          `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	EstimatedTime *float64            `json:"estimatedTime,omitempty" bson:"estimatedTime,omitempty"`
	TimeSpent     *float64            `json:"timeSpent,omitempty" bson:"timeSpent,omitempty"`
	StatusID      *primitive.ObjectID `json:"statusId,omitempty" bson:"statusId,omitempty"`
	ParentID      *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Order         int                 `json:"order" bson:"order"`
	Completed     bool                `json:"completed" bson:"completed"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}
