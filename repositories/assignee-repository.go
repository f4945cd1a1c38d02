package repositories

import (
	"context"
	"fmt"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AssigneeRepo stores (task, user) assignment rows.
type AssigneeRepo struct {
	collection *mongo.Collection
}

func NewAssigneeRepo(collection *mongo.Collection) *AssigneeRepo {
	return &AssigneeRepo{collection: collection}
}

func (r *AssigneeRepo) ListAssigneesByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.TaskAssignee, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"taskId": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	defer cursor.Close(ctx)

	var assignees []models.TaskAssignee
	if err := cursor.All(ctx, &assignees); err != nil {
		return nil, fmt.Errorf("failed to decode assignees: %w", err)
	}
	return assignees, nil
}

func (r *AssigneeRepo) IsAssignee(ctx context.Context, taskID, userID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"taskId": taskID, "userId": userID})
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return count > 0, nil
}

func (r *AssigneeRepo) InsertAssignee(ctx context.Context, assignee *models.TaskAssignee) error {
	_, err := r.collection.InsertOne(ctx, assignee)
	return err
}

func (r *AssigneeRepo) DeleteAssignee(ctx context.Context, taskID, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"taskId": taskID, "userId": userID})
	return err
}

func (r *AssigneeRepo) DeleteAssigneesByTask(ctx context.Context, taskID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"taskId": taskID})
	return err
}
