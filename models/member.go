package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamRole string

const (
	TeamRoleMember  TeamRole = "member"
	TeamRoleManager TeamRole = "manager"
	TeamRoleAdmin   TeamRole = "admin"
	TeamRoleOwner   TeamRole = "owner"
)

// TeamMember links a user to a project with a role. Membership is the basis
// for project-level access.
type TeamMember struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `json:"projectId" bson:"projectId"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Role      TeamRole           `json:"role" bson:"role"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
