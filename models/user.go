package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type SystemRole string

const (
	RoleAdmin   SystemRole = "admin"
	RoleManager SystemRole = "manager"
	RoleUser    SystemRole = "user"
	RoleGuest   SystemRole = "guest"
)

type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Username string             `json:"username" bson:"username"`
	Email    string             `json:"email" bson:"email"`
	Role     SystemRole         `json:"role" bson:"role"`
}
