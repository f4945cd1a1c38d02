package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow-project/microservices/board-service/logging"
	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// subtreeDepthLimit caps how deep subtree reads descend.
const subtreeDepthLimit = 50

// TaskService orchestrates task mutations: permission resolution first, then
// hierarchy validation, field changes, ordering and status coordination, and
// finally assignee sync and the activity entry. Multi-document writes run in
// one transaction so partial application is never observable.
type TaskService struct {
	tasks     TaskStore
	statuses  StatusStore
	perms     *PermissionService
	hierarchy *HierarchyService
	ordering  *OrderingService
	status    *StatusService
	assignees *AssigneeService
	activity  *ActivityService
	store     AssigneeStore
	txn       TxnRunner
}

func NewTaskService(tasks TaskStore, statuses StatusStore, perms *PermissionService, hierarchy *HierarchyService, ordering *OrderingService, status *StatusService, assignees *AssigneeService, activity *ActivityService, assigneeRows AssigneeStore, txn TxnRunner) *TaskService {
	return &TaskService{
		tasks:     tasks,
		statuses:  statuses,
		perms:     perms,
		hierarchy: hierarchy,
		ordering:  ordering,
		status:    status,
		assignees: assignees,
		activity:  activity,
		store:     assigneeRows,
		txn:       txn,
	}
}

type CreateTaskRequest struct {
	ProjectID     string              `json:"projectId"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Priority      models.TaskPriority `json:"priority"`
	StartDate     *time.Time          `json:"startDate"`
	EndDate       *time.Time          `json:"endDate"`
	DueDate       *time.Time          `json:"dueDate"`
	EstimatedTime *float64            `json:"estimatedTime"`
	StatusID      string              `json:"statusId"`
	ParentID      string              `json:"parentId"`
	AssigneeIDs   *[]string           `json:"assigneeIds"`
}

// UpdateTaskRequest carries a partial update; nil fields are untouched.
// ParentID and StatusID take a hex id, or an empty string to clear.
type UpdateTaskRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Priority      *models.TaskPriority `json:"priority"`
	StartDate     *time.Time           `json:"startDate"`
	EndDate       *time.Time           `json:"endDate"`
	DueDate       *time.Time           `json:"dueDate"`
	EstimatedTime *float64             `json:"estimatedTime"`
	TimeSpent     *float64             `json:"timeSpent"`
	Completed     *bool                `json:"completed"`
	StatusID      *string              `json:"statusId"`
	ParentID      *string              `json:"parentId"`
	AssigneeIDs   *[]string            `json:"assigneeIds"`
}

type ReorderTaskRequest struct {
	NewParentID         *string `json:"newParentId"`
	TargetTaskID        *string `json:"targetTaskId"`
	IsSameParentReorder bool    `json:"isSameParentReorder"`
}

// TaskDetail is a task plus its loaded subtree in breadth-first order.
type TaskDetail struct {
	Task     *models.Task  `json:"task"`
	Subtasks []models.Task `json:"subtasks,omitempty"`
}

func (s *TaskService) CreateTask(ctx context.Context, actorID primitive.ObjectID, req CreateTaskRequest) (*models.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, models.Validationf("task title is required")
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(req.Priority) {
		return nil, models.Validationf("invalid priority %q", req.Priority)
	}
	projectID, err := parseID(req.ProjectID, "project id")
	if err != nil {
		return nil, err
	}

	if err := s.perms.ResolveProject(ctx, actorID, projectID, ActionUpdate); err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:            primitive.NewObjectID(),
		ProjectID:     projectID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Priority:      req.Priority,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DueDate:       req.DueDate,
		EstimatedTime: req.EstimatedTime,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if req.ParentID != "" {
		parentID, err := parseID(req.ParentID, "parent id")
		if err != nil {
			return nil, err
		}
		if err := s.hierarchy.ValidateReparent(ctx, task.ID, parentID, projectID); err != nil {
			return nil, err
		}
		task.ParentID = &parentID
	}

	if req.StatusID != "" {
		statusID, err := parseID(req.StatusID, "status id")
		if err != nil {
			return nil, err
		}
		status, err := s.statuses.GetStatus(ctx, statusID)
		if err != nil {
			return nil, err
		}
		if status.ProjectID != projectID {
			return nil, models.Validationf("status %s belongs to a different project", statusID.Hex())
		}
		task.StatusID = &statusID
	} else if def, err := s.statuses.GetDefaultStatus(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to look up default status: %w", err)
	} else if def != nil {
		task.StatusID = &def.ID
	}

	var desired []primitive.ObjectID
	if req.AssigneeIDs != nil {
		desired, err = parseIDs(*req.AssigneeIDs, "assignee id")
		if err != nil {
			return nil, err
		}
		if err := s.assignees.ValidateUserIDs(ctx, desired); err != nil {
			return nil, err
		}
	}

	order, err := s.ordering.NextOrder(ctx, projectID, task.ParentID)
	if err != nil {
		return nil, err
	}
	task.Order = order

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.tasks.InsertTask(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if req.AssigneeIDs != nil {
			_, _, err := s.assignees.SetAssignees(ctx, task, desired)
			return err
		}
		return s.assignees.EnsureAssignee(ctx, task, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.recordTaskActivity(ctx, actorID, task, "created", fmt.Sprintf("created task %q", task.Title))
	return task, nil
}

// GetTask returns the task with its subtree loaded breadth-first down to the
// depth limit.
func (s *TaskService) GetTask(ctx context.Context, actorID, taskID primitive.ObjectID) (*TaskDetail, error) {
	task, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionView)
	if err != nil {
		return nil, err
	}
	tree, err := s.hierarchy.LoadSubtree(ctx, taskID, subtreeDepthLimit)
	if err != nil {
		return nil, err
	}
	detail := &TaskDetail{Task: task}
	for _, id := range tree.Order {
		if id == taskID {
			continue
		}
		detail.Subtasks = append(detail.Subtasks, *tree.Nodes[id])
	}
	return detail, nil
}

func (s *TaskService) ListProjectTasks(ctx context.Context, actorID, projectID primitive.ObjectID) ([]models.Task, error) {
	if err := s.perms.ResolveProject(ctx, actorID, projectID, ActionView); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

func (s *TaskService) UpdateTask(ctx context.Context, actorID, taskID primitive.ObjectID, req UpdateTaskRequest) (*models.Task, error) {
	task, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	// Validation of every incoming field happens before any write.
	var desired []primitive.ObjectID
	if req.AssigneeIDs != nil {
		desired, err = parseIDs(*req.AssigneeIDs, "assignee id")
		if err != nil {
			return nil, err
		}
		if err := s.assignees.ValidateUserIDs(ctx, desired); err != nil {
			return nil, err
		}
	}
	if req.Priority != nil && !models.ValidPriority(*req.Priority) {
		return nil, models.Validationf("invalid priority %q", *req.Priority)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, models.Validationf("task title cannot be empty")
	}

	newParent, reparent, err := s.resolveReparent(ctx, task, req.ParentID)
	if err != nil {
		return nil, err
	}

	var newStatus *primitive.ObjectID
	changeStatus := false
	if req.StatusID != nil {
		changeStatus = true
		if *req.StatusID != "" {
			statusID, err := parseID(*req.StatusID, "status id")
			if err != nil {
				return nil, err
			}
			newStatus = &statusID
		}
		if !statusChanged(task.StatusID, newStatus) {
			changeStatus = false
		}
	}

	changed := s.applyFieldChanges(task, req)
	if reparent {
		changed = append(changed, "parent")
	}
	if changeStatus {
		changed = append(changed, "status")
	}
	oldColumn, newColumn := "", ""

	// The driver may retry the transaction callback after a transient commit
	// error, so every attempt starts from the pre-transaction snapshot and
	// derives the departed scopes from it, never from a previous attempt's
	// writes.
	oldParent, oldStatus, oldOrder := task.ParentID, task.StatusID, task.Order

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		task.ParentID, task.StatusID, task.Order = oldParent, oldStatus, oldOrder
		if reparent {
			if err := s.ordering.RemoveFromSiblings(ctx, task.ProjectID, oldParent, task.ID); err != nil {
				return err
			}
			task.ParentID = newParent
			order, err := s.ordering.NextOrder(ctx, task.ProjectID, task.ParentID)
			if err != nil {
				return err
			}
			task.Order = order
		}
		if changeStatus {
			old, now, err := s.status.changeColumn(ctx, task, newStatus, nil)
			if err != nil {
				return err
			}
			oldColumn, newColumn = old, now
			return nil
		}
		task.UpdatedAt = time.Now()
		return s.tasks.SaveTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	// Assignee sync runs after the primary commit and degrades gracefully:
	// the field update has already committed, so a sync failure is logged and
	// surfaced only through the activity trail, never as a request error.
	if req.AssigneeIDs != nil {
		if _, _, err := s.assignees.SetAssignees(ctx, task, desired); err != nil {
			logging.Logger.Warnf("Event ID: ASSIGNEE_SYNC_FAILED, Description: Assignee sync failed for task %s: %v", task.ID.Hex(), err)
		}
	} else if err := s.assignees.EnsureAssignee(ctx, task, actorID); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNEE_SYNC_FAILED, Description: Failed to auto-assign acting user on task %s: %v", task.ID.Hex(), err)
	}

	description := fmt.Sprintf("updated task %q", task.Title)
	if len(changed) > 0 {
		description = fmt.Sprintf("updated task %q (%s)", task.Title, strings.Join(changed, ", "))
	}
	if oldColumn != "" || newColumn != "" {
		description += fmt.Sprintf("; moved from %s to %s", oldColumn, newColumn)
	}
	s.recordTaskActivity(ctx, actorID, task, "updated", description)
	if oldColumn != "" || newColumn != "" {
		s.notifyAssignees(ctx, task, fmt.Sprintf("Task %q moved from %s to %s", task.Title, oldColumn, newColumn))
	}
	return task, nil
}

// DeleteTask removes a task. Tasks with subtasks are only removed when
// cascade is set, in which case the whole subtree goes, deepest level first.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, taskID primitive.ObjectID, cascade bool) error {
	task, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionDelete)
	if err != nil {
		return err
	}

	count, err := s.tasks.CountChildren(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to count subtasks: %w", err)
	}
	if count > 0 && !cascade {
		return models.Conflictf("task has %d subtasks; delete them first or request a cascade", count)
	}

	// The whole subtree goes, so the walk is unbounded here; the depth limit
	// applies to reads only.
	tree, err := s.hierarchy.LoadSubtree(ctx, taskID, -1)
	if err != nil {
		return err
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		for i := len(tree.Order) - 1; i >= 0; i-- {
			id := tree.Order[i]
			if err := s.store.DeleteAssigneesByTask(ctx, id); err != nil {
				return fmt.Errorf("failed to remove assignees of %s: %w", id.Hex(), err)
			}
			if err := s.tasks.DeleteTask(ctx, id); err != nil {
				return fmt.Errorf("failed to delete task %s: %w", id.Hex(), err)
			}
		}
		// Only the root has surviving neighbors; pack the scope it departed,
		// the column when it sat in one, the tree scope otherwise.
		if task.StatusID != nil {
			return s.ordering.RemoveFromColumn(ctx, task.ProjectID, task.ParentID, task.StatusID, task.ID)
		}
		return s.ordering.RemoveFromSiblings(ctx, task.ProjectID, task.ParentID, task.ID)
	})
	if err != nil {
		return err
	}

	description := fmt.Sprintf("deleted task %q", task.Title)
	if n := len(tree.Order) - 1; n > 0 {
		description = fmt.Sprintf("deleted task %q and %d subtasks", task.Title, n)
	}
	s.recordTaskActivity(ctx, actorID, task, "deleted", description)
	return nil
}

// ReorderTask applies a drag-and-drop intent: either a move within the
// current sibling scope or a reparent with placement in the new scope. The
// returned task is the server's canonical result the client adopts.
func (s *TaskService) ReorderTask(ctx context.Context, actorID, taskID primitive.ObjectID, req ReorderTaskRequest) (*models.Task, error) {
	task, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	var targetID *primitive.ObjectID
	if req.TargetTaskID != nil && *req.TargetTaskID != "" {
		id, err := parseID(*req.TargetTaskID, "target task id")
		if err != nil {
			return nil, err
		}
		targetID = &id
	}

	newParent := task.ParentID
	reparent := false
	if !req.IsSameParentReorder && req.NewParentID != nil {
		newParent, reparent, err = s.resolveReparent(ctx, task, req.NewParentID)
		if err != nil {
			return nil, err
		}
	}

	// Reset to the stored snapshot on entry in case the callback is retried.
	oldParent, oldOrder := task.ParentID, task.Order
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		task.ParentID, task.Order = oldParent, oldOrder
		if reparent {
			if err := s.ordering.RemoveFromSiblings(ctx, task.ProjectID, oldParent, task.ID); err != nil {
				return err
			}
			task.ParentID = newParent
		}
		if _, err := s.ordering.ResequenceSiblings(ctx, task, targetID); err != nil {
			return err
		}
		task.UpdatedAt = time.Now()
		return s.tasks.SaveTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.recordTaskActivity(ctx, actorID, task, "reordered", fmt.Sprintf("reordered task %q", task.Title))
	return task, nil
}

// SetTaskStatus moves the task to another kanban column, optionally placed
// before targetTaskID in the destination column.
func (s *TaskService) SetTaskStatus(ctx context.Context, actorID, taskID primitive.ObjectID, statusID string, targetTaskID *string) (*models.Task, error) {
	task, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	var newStatus *primitive.ObjectID
	if statusID != "" {
		id, err := parseID(statusID, "status id")
		if err != nil {
			return nil, err
		}
		newStatus = &id
	}
	var targetID *primitive.ObjectID
	if targetTaskID != nil && *targetTaskID != "" {
		id, err := parseID(*targetTaskID, "target task id")
		if err != nil {
			return nil, err
		}
		targetID = &id
	}

	var oldColumn, newColumn string
	oldStatusID, oldOrder := task.StatusID, task.Order
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		task.StatusID, task.Order = oldStatusID, oldOrder
		oldColumn, newColumn, err = s.status.changeColumn(ctx, task, newStatus, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordTaskActivity(ctx, actorID, task, "status_changed",
		fmt.Sprintf("moved task %q from %s to %s", task.Title, oldColumn, newColumn))
	s.notifyAssignees(ctx, task, fmt.Sprintf("Task %q moved from %s to %s", task.Title, oldColumn, newColumn))
	return task, nil
}

// SetTaskAssignees replaces the assignee list of a task.
func (s *TaskService) SetTaskAssignees(ctx context.Context, actorID, taskID primitive.ObjectID, userIDs []string) (added, removed []primitive.ObjectID, err error) {
	task, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionUpdate)
	if err != nil {
		return nil, nil, err
	}
	desired, err := parseIDs(userIDs, "assignee id")
	if err != nil {
		return nil, nil, err
	}
	if err := s.assignees.ValidateUserIDs(ctx, desired); err != nil {
		return nil, nil, err
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		added, removed, err = s.assignees.SetAssignees(ctx, task, desired)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTaskActivity(ctx, actorID, task, "assigned",
		fmt.Sprintf("updated assignees of task %q (%d added, %d removed)", task.Title, len(added), len(removed)))
	return added, removed, nil
}

func (s *TaskService) ListAssignees(ctx context.Context, actorID, taskID primitive.ObjectID) ([]models.TaskAssignee, error) {
	if _, err := s.perms.ResolveTask(ctx, actorID, taskID, ActionView); err != nil {
		return nil, err
	}
	return s.store.ListAssigneesByTask(ctx, taskID)
}

// resolveReparent interprets a ParentID patch field: nil means untouched, an
// empty string detaches the task, a hex id reparents it after hierarchy
// validation.
func (s *TaskService) resolveReparent(ctx context.Context, task *models.Task, parentField *string) (*primitive.ObjectID, bool, error) {
	if parentField == nil {
		return task.ParentID, false, nil
	}
	if *parentField == "" {
		return nil, task.ParentID != nil, nil
	}
	parentID, err := parseID(*parentField, "parent id")
	if err != nil {
		return nil, false, err
	}
	if task.ParentID != nil && *task.ParentID == parentID {
		return task.ParentID, false, nil
	}
	if err := s.hierarchy.ValidateReparent(ctx, task.ID, parentID, task.ProjectID); err != nil {
		return nil, false, err
	}
	return &parentID, true, nil
}

func (s *TaskService) applyFieldChanges(task *models.Task, req UpdateTaskRequest) []string {
	var changed []string
	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
		changed = append(changed, "title")
	}
	if req.Description != nil {
		task.Description = *req.Description
		changed = append(changed, "description")
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
		changed = append(changed, "priority")
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
		changed = append(changed, "startDate")
	}
	if req.EndDate != nil {
		task.EndDate = req.EndDate
		changed = append(changed, "endDate")
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
		changed = append(changed, "dueDate")
	}
	if req.EstimatedTime != nil {
		task.EstimatedTime = req.EstimatedTime
		changed = append(changed, "estimatedTime")
	}
	if req.TimeSpent != nil {
		task.TimeSpent = req.TimeSpent
		changed = append(changed, "timeSpent")
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
		changed = append(changed, "completed")
	}
	return changed
}

func (s *TaskService) notifyAssignees(ctx context.Context, task *models.Task, message string) {
	if s.assignees.notifier == nil {
		return
	}
	rows, err := s.store.ListAssigneesByTask(ctx, task.ID)
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFY_ASSIGNEES_FAILED, Description: Failed to list assignees of task %s: %v", task.ID.Hex(), err)
		return
	}
	for _, a := range rows {
		s.assignees.notifier.SendNotification(ctx, a.UserID.Hex(), message)
	}
}

func (s *TaskService) recordTaskActivity(ctx context.Context, actorID primitive.ObjectID, task *models.Task, action, description string) {
	s.activity.Record(ctx, models.Activity{
		Action:      action,
		EntityType:  "task",
		EntityID:    task.ID.Hex(),
		Description: description,
		UserID:      actorID.Hex(),
		ProjectID:   task.ProjectID.Hex(),
		TaskID:      task.ID.Hex(),
	})
}

func statusChanged(current, next *primitive.ObjectID) bool {
	if current == nil && next == nil {
		return false
	}
	if current == nil || next == nil {
		return true
	}
	return *current != *next
}

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, models.Validationf("invalid %s format: %s", what, hex)
	}
	return id, nil
}

func parseIDs(hexes []string, what string) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]bool, len(hexes))
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := parseID(h, what)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
