package services

import (
	"context"
	"fmt"
	"time"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// noColumn names the "no status" pseudo-column in activity descriptions.
const noColumn = "no status"

// StatusService owns kanban columns (create/list/update/guarded delete) and
// coordinates status transitions for tasks.
type StatusService struct {
	statuses StatusStore
	tasks    TaskStore
	ordering *OrderingService
	perms    *PermissionService
	activity *ActivityService
	txn      TxnRunner
}

func NewStatusService(statuses StatusStore, tasks TaskStore, ordering *OrderingService, perms *PermissionService, activity *ActivityService, txn TxnRunner) *StatusService {
	return &StatusService{
		statuses: statuses,
		tasks:    tasks,
		ordering: ordering,
		perms:    perms,
		activity: activity,
		txn:      txn,
	}
}

type CreateStatusRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
}

type UpdateStatusRequest struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	IsDefault *bool   `json:"isDefault"`
}

func (s *StatusService) CreateStatus(ctx context.Context, actorID primitive.ObjectID, req CreateStatusRequest) (*models.ProjectStatus, error) {
	if req.Name == "" {
		return nil, models.Validationf("status name is required")
	}
	projectID, err := parseID(req.ProjectID, "project id")
	if err != nil {
		return nil, err
	}
	if err := s.perms.ResolveProject(ctx, actorID, projectID, ActionUpdate); err != nil {
		return nil, err
	}

	existing, err := s.statuses.ListStatusesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	next := 0
	for _, st := range existing {
		if st.Order >= next {
			next = st.Order + 1
		}
	}

	status := &models.ProjectStatus{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Color:     req.Color,
		Order:     next,
		IsDefault: req.IsDefault,
		ProjectID: projectID,
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if req.IsDefault {
			if err := s.statuses.UnsetDefaultStatuses(ctx, projectID); err != nil {
				return fmt.Errorf("failed to clear previous default: %w", err)
			}
		}
		return s.statuses.InsertStatus(ctx, status)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, models.Activity{
		Action:      "created",
		EntityType:  "status",
		EntityID:    status.ID.Hex(),
		Description: fmt.Sprintf("created status %q", status.Name),
		UserID:      actorID.Hex(),
		ProjectID:   projectID.Hex(),
	})
	return status, nil
}

func (s *StatusService) ListByProject(ctx context.Context, actorID, projectID primitive.ObjectID) ([]models.ProjectStatus, error) {
	if err := s.perms.ResolveProject(ctx, actorID, projectID, ActionView); err != nil {
		return nil, err
	}
	return s.statuses.ListStatusesByProject(ctx, projectID)
}

func (s *StatusService) UpdateStatus(ctx context.Context, actorID, statusID primitive.ObjectID, req UpdateStatusRequest) (*models.ProjectStatus, error) {
	status, err := s.statuses.GetStatus(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.ResolveProject(ctx, actorID, status.ProjectID, ActionUpdate); err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, models.Validationf("status name cannot be empty")
		}
		status.Name = *req.Name
	}
	if req.Color != nil {
		status.Color = *req.Color
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if req.IsDefault != nil && *req.IsDefault && !status.IsDefault {
			if err := s.statuses.UnsetDefaultStatuses(ctx, status.ProjectID); err != nil {
				return fmt.Errorf("failed to clear previous default: %w", err)
			}
			status.IsDefault = true
		}
		return s.statuses.SaveStatus(ctx, status)
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// DeleteStatus removes a column. Columns still referenced by tasks cannot be
// deleted.
func (s *StatusService) DeleteStatus(ctx context.Context, actorID, statusID primitive.ObjectID) error {
	status, err := s.statuses.GetStatus(ctx, statusID)
	if err != nil {
		return err
	}
	if err := s.perms.ResolveProject(ctx, actorID, status.ProjectID, ActionDelete); err != nil {
		return err
	}

	count, err := s.tasks.CountByStatus(ctx, statusID)
	if err != nil {
		return fmt.Errorf("failed to count tasks in status: %w", err)
	}
	if count > 0 {
		return models.Conflictf("cannot delete status %q: %d tasks still reference it", status.Name, count)
	}

	if err := s.statuses.DeleteStatus(ctx, statusID); err != nil {
		return err
	}

	s.activity.Record(ctx, models.Activity{
		Action:      "deleted",
		EntityType:  "status",
		EntityID:    statusID.Hex(),
		Description: fmt.Sprintf("deleted status %q", status.Name),
		UserID:      actorID.Hex(),
		ProjectID:   status.ProjectID.Hex(),
	})
	return nil
}

// changeColumn moves the task between kanban columns without transaction or
// permission handling; TaskService wraps it. newStatusID nil clears the
// column. Returns the old and new column names for the activity entry.
func (s *StatusService) changeColumn(ctx context.Context, task *models.Task, newStatusID *primitive.ObjectID, targetID *primitive.ObjectID) (oldName, newName string, err error) {
	oldName, newName = noColumn, noColumn

	if newStatusID != nil {
		status, err := s.statuses.GetStatus(ctx, *newStatusID)
		if err != nil {
			return "", "", err
		}
		if status.ProjectID != task.ProjectID {
			return "", "", models.Validationf("status %s belongs to a different project", newStatusID.Hex())
		}
		newName = status.Name
	}
	if task.StatusID != nil {
		if old, err := s.statuses.GetStatus(ctx, *task.StatusID); err == nil {
			oldName = old.Name
		}
	}

	if err := s.ordering.RemoveFromColumn(ctx, task.ProjectID, task.ParentID, task.StatusID, task.ID); err != nil {
		return "", "", err
	}

	task.StatusID = newStatusID
	task.UpdatedAt = time.Now()
	if err := s.ordering.InsertIntoColumn(ctx, task, targetID); err != nil {
		return "", "", err
	}
	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return "", "", fmt.Errorf("failed to save task: %w", err)
	}
	return oldName, newName, nil
}
