package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemberRepo stores (project, user) membership rows.
type MemberRepo struct {
	collection *mongo.Collection
}

func NewMemberRepo(collection *mongo.Collection) *MemberRepo {
	return &MemberRepo{collection: collection}
}

// GetMember returns nil without error when the user is not a member.
func (r *MemberRepo) GetMember(ctx context.Context, projectID, userID primitive.ObjectID) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.collection.FindOne(ctx, bson.M{"projectId": projectID, "userId": userID}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team member: %w", err)
	}
	return &member, nil
}

func (r *MemberRepo) InsertMember(ctx context.Context, member *models.TeamMember) error {
	_, err := r.collection.InsertOne(ctx, member)
	return err
}

func (r *MemberRepo) ListMembersByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.TeamMember, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []models.TeamMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode team members: %w", err)
	}
	return members, nil
}
