package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project groups tasks, statuses and team members. OwnerID is the creating
// user, who holds full access regardless of membership rows.
type Project struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	OwnerID     primitive.ObjectID `json:"ownerId" bson:"ownerId"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
