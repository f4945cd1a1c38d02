package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusRepo stores kanban columns in the statuses collection.
type StatusRepo struct {
	collection *mongo.Collection
}

func NewStatusRepo(collection *mongo.Collection) *StatusRepo {
	return &StatusRepo{collection: collection}
}

func (r *StatusRepo) GetStatus(ctx context.Context, id primitive.ObjectID) (*models.ProjectStatus, error) {
	var status models.ProjectStatus
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFoundf("status %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	return &status, nil
}

func (r *StatusRepo) InsertStatus(ctx context.Context, status *models.ProjectStatus) error {
	_, err := r.collection.InsertOne(ctx, status)
	return err
}

func (r *StatusRepo) SaveStatus(ctx context.Context, status *models.ProjectStatus) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": status.ID}, status)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.NotFoundf("status %s not found", status.ID.Hex())
	}
	return nil
}

func (r *StatusRepo) DeleteStatus(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.NotFoundf("status %s not found", id.Hex())
	}
	return nil
}

func (r *StatusRepo) ListStatusesByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectStatus, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"projectId": projectID}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var statuses []models.ProjectStatus
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode statuses: %w", err)
	}
	return statuses, nil
}

func (r *StatusRepo) GetDefaultStatus(ctx context.Context, projectID primitive.ObjectID) (*models.ProjectStatus, error) {
	var status models.ProjectStatus
	err := r.collection.FindOne(ctx, bson.M{"projectId": projectID, "isDefault": true}).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch default status: %w", err)
	}
	return &status, nil
}

func (r *StatusRepo) UnsetDefaultStatuses(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"projectId": projectID, "isDefault": true},
		bson.M{"$set": bson.M{"isDefault": false}})
	return err
}
