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

type ProjectRepo struct {
	collection *mongo.Collection
}

func NewProjectRepo(collection *mongo.Collection) *ProjectRepo {
	return &ProjectRepo{collection: collection}
}

func (r *ProjectRepo) GetProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFoundf("project %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return &project, nil
}
