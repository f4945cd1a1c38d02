package services

import (
	"context"
	"time"

	"taskflow-project/microservices/board-service/logging"
	"taskflow-project/microservices/board-service/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityService appends audit records alongside every mutation. Writes are
// best-effort: a failing activity store must never fail or roll back the
// mutation it describes, so errors are logged and swallowed here.
type ActivityService struct {
	store ActivityStore
	perms *PermissionService
}

func NewActivityService(store ActivityStore, perms *PermissionService) *ActivityService {
	return &ActivityService{store: store, perms: perms}
}

// Record appends one activity entry, filling id and timestamp.
func (s *ActivityService) Record(ctx context.Context, activity models.Activity) {
	if s.store == nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_STORE_UNAVAILABLE, Description: Dropping activity %q for entity %s", activity.Action, activity.EntityID)
		return
	}
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	if err := s.store.InsertActivity(ctx, &activity); err != nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_WRITE_FAILED, Description: Failed to record activity %q for entity %s: %v", activity.Action, activity.EntityID, err)
	}
}

// ProjectFeed returns the newest activity entries for a project.
func (s *ActivityService) ProjectFeed(ctx context.Context, actorID, projectID primitive.ObjectID, limit int) ([]models.Activity, error) {
	if err := s.perms.ResolveProject(ctx, actorID, projectID, ActionView); err != nil {
		return nil, err
	}
	if s.store == nil {
		return []models.Activity{}, nil
	}
	return s.store.ListActivitiesByProject(ctx, projectID.Hex(), limit)
}

// TaskFeed returns the newest activity entries for a single task.
func (s *ActivityService) TaskFeed(ctx context.Context, actorID, taskID primitive.ObjectID, limit int) ([]models.Activity, error) {
	if _, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionView); err != nil {
		return nil, err
	}
	if s.store == nil {
		return []models.Activity{}, nil
	}
	return s.store.ListActivitiesByTask(ctx, taskID.Hex(), limit)
}
