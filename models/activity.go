package models

import "time"

// Activity is one append-only audit record written alongside a mutation.
// IDs are stored as hex strings because the activity log lives in Cassandra
// rather than the primary store.
type Activity struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	ProjectID   string    `json:"projectId"`
	TaskID      string    `json:"taskId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
