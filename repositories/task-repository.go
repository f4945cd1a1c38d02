package repositories

import (
	"context"
	"errors"
	"fmt"

	"taskflow-project/microservices/board-service/models"
	"taskflow-project/microservices/board-service/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskRepo stores tasks in the tasks collection.
type TaskRepo struct {
	collection *mongo.Collection
}

func NewTaskRepo(collection *mongo.Collection) *TaskRepo {
	return &TaskRepo{collection: collection}
}

func (r *TaskRepo) GetTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFoundf("task %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepo) InsertTask(ctx context.Context, task *models.Task) error {
	_, err := r.collection.InsertOne(ctx, task)
	return err
}

func (r *TaskRepo) SaveTask(ctx context.Context, task *models.Task) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.NotFoundf("task %s not found", task.ID.Hex())
	}
	return nil
}

func (r *TaskRepo) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.NotFoundf("task %s not found", id.Hex())
	}
	return nil
}

func (r *TaskRepo) ListSiblings(ctx context.Context, projectID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Task, error) {
	filter := bson.M{"projectId": projectID}
	setIDFilter(filter, "parentId", parentID)
	return r.list(ctx, filter)
}

func (r *TaskRepo) ListColumn(ctx context.Context, projectID primitive.ObjectID, parentID, statusID *primitive.ObjectID) ([]models.Task, error) {
	filter := bson.M{"projectId": projectID}
	setIDFilter(filter, "parentId", parentID)
	setIDFilter(filter, "statusId", statusID)
	return r.list(ctx, filter)
}

func (r *TaskRepo) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Task, error) {
	return r.list(ctx, bson.M{"parentId": parentID})
}

func (r *TaskRepo) CountChildren(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"parentId": parentID})
}

func (r *TaskRepo) CountByStatus(ctx context.Context, statusID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"statusId": statusID})
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return r.list(ctx, bson.M{"projectId": projectID})
}

// SetTaskOrders writes a full order assignment for a scope in one bulk write.
func (r *TaskRepo) SetTaskOrders(ctx context.Context, orders []services.TaskOrder) error {
	if len(orders) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, len(orders))
	for i, o := range orders {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": o.ID}).
			SetUpdate(bson.M{"$set": bson.M{"order": o.Order}})
	}
	_, err := r.collection.BulkWrite(ctx, writes)
	return err
}

func (r *TaskRepo) list(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// setIDFilter matches the field's value, or its absence for nil: optional
// object ids are stored with omitempty.
func setIDFilter(filter bson.M, field string, id *primitive.ObjectID) {
	if id != nil {
		filter[field] = *id
	} else {
		filter[field] = bson.M{"$exists": false}
	}
}
