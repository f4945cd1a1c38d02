package services

import (
	"context"
	"fmt"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderingService computes and rewrites sibling order values. Every move
// rewrites the whole affected scope to the integers 0..n-1; full resequencing
// costs O(n) writes per move but never drifts the way gap or fractional
// schemes do.
type OrderingService struct {
	tasks TaskStore
}

func NewOrderingService(tasks TaskStore) *OrderingService {
	return &OrderingService{tasks: tasks}
}

// NextOrder returns the order value for a task appended to the
// (projectId, parentId) scope: one past the current maximum, 0 for an empty
// scope.
func (s *OrderingService) NextOrder(ctx context.Context, projectID primitive.ObjectID, parentID *primitive.ObjectID) (int, error) {
	siblings, err := s.tasks.ListSiblings(ctx, projectID, parentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list siblings: %w", err)
	}
	next := 0
	for _, t := range siblings {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next, nil
}

// ResequenceSiblings rewrites the task's (projectId, parentId) scope with the
// task placed before targetID, or at the end when targetID is nil. The task
// is added to the scope if the store does not list it there yet (a reparent
// in flight). task.Order is updated; the scope is returned in display order.
func (s *OrderingService) ResequenceSiblings(ctx context.Context, task *models.Task, targetID *primitive.ObjectID) ([]models.Task, error) {
	scope, err := s.tasks.ListSiblings(ctx, task.ProjectID, task.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list siblings: %w", err)
	}
	arranged, err := s.applyArrangement(ctx, ensureInScope(scope, task), task.ID, targetID)
	if err != nil {
		return nil, err
	}
	for _, t := range arranged {
		if t.ID == task.ID {
			task.Order = t.Order
		}
	}
	return arranged, nil
}

// RemoveFromSiblings packs the (projectId, parentId) scope back to 0..n-1
// after removedID has left it.
func (s *OrderingService) RemoveFromSiblings(ctx context.Context, projectID primitive.ObjectID, parentID *primitive.ObjectID, removedID primitive.ObjectID) error {
	scope, err := s.tasks.ListSiblings(ctx, projectID, parentID)
	if err != nil {
		return fmt.Errorf("failed to list siblings: %w", err)
	}
	return s.packWithout(ctx, scope, removedID)
}

// RemoveFromColumn packs a kanban column scope back to 0..n-1 after removedID
// has left it (a cross-column move or a delete).
func (s *OrderingService) RemoveFromColumn(ctx context.Context, projectID primitive.ObjectID, parentID, statusID *primitive.ObjectID, removedID primitive.ObjectID) error {
	scope, err := s.tasks.ListColumn(ctx, projectID, parentID, statusID)
	if err != nil {
		return fmt.Errorf("failed to list column: %w", err)
	}
	return s.packWithout(ctx, scope, removedID)
}

// InsertIntoColumn renumbers a kanban column scope with the task inserted
// before targetID, or appended when targetID is nil. The task must already
// carry the destination column's statusId; task.Order is updated.
func (s *OrderingService) InsertIntoColumn(ctx context.Context, task *models.Task, targetID *primitive.ObjectID) error {
	scope, err := s.tasks.ListColumn(ctx, task.ProjectID, task.ParentID, task.StatusID)
	if err != nil {
		return fmt.Errorf("failed to list column: %w", err)
	}
	arranged, err := s.applyArrangement(ctx, ensureInScope(scope, task), task.ID, targetID)
	if err != nil {
		return err
	}
	for _, t := range arranged {
		if t.ID == task.ID {
			task.Order = t.Order
		}
	}
	return nil
}

// applyArrangement computes the new arrangement, writes 0..n-1 order values
// over the whole scope and returns the scope in display order.
func (s *OrderingService) applyArrangement(ctx context.Context, scope []models.Task, movedID primitive.ObjectID, targetID *primitive.ObjectID) ([]models.Task, error) {
	ids := make([]primitive.ObjectID, len(scope))
	byID := make(map[primitive.ObjectID]models.Task, len(scope))
	for i, t := range scope {
		ids[i] = t.ID
		byID[t.ID] = t
	}

	arranged := resequenceIDs(ids, movedID, targetID)

	orders := make([]TaskOrder, len(arranged))
	result := make([]models.Task, len(arranged))
	for i, id := range arranged {
		orders[i] = TaskOrder{ID: id, Order: i}
		t := byID[id]
		t.Order = i
		result[i] = t
	}
	if err := s.tasks.SetTaskOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to write order values: %w", err)
	}
	return result, nil
}

func (s *OrderingService) packWithout(ctx context.Context, scope []models.Task, removedID primitive.ObjectID) error {
	var orders []TaskOrder
	i := 0
	for _, t := range scope {
		if t.ID == removedID {
			continue
		}
		orders = append(orders, TaskOrder{ID: t.ID, Order: i})
		i++
	}
	if len(orders) == 0 {
		return nil
	}
	return s.tasks.SetTaskOrders(ctx, orders)
}

// resequenceIDs returns ids with movedID pulled out and re-inserted before
// targetID. A nil or unknown target appends; an unknown movedID leaves the
// arrangement untouched.
func resequenceIDs(ids []primitive.ObjectID, movedID primitive.ObjectID, targetID *primitive.ObjectID) []primitive.ObjectID {
	rest := make([]primitive.ObjectID, 0, len(ids))
	found := false
	for _, id := range ids {
		if id == movedID {
			found = true
			continue
		}
		rest = append(rest, id)
	}
	if !found {
		return ids
	}

	insertAt := len(rest)
	if targetID != nil {
		for i, id := range rest {
			if id == *targetID {
				insertAt = i
				break
			}
		}
	}

	arranged := make([]primitive.ObjectID, 0, len(ids))
	arranged = append(arranged, rest[:insertAt]...)
	arranged = append(arranged, movedID)
	arranged = append(arranged, rest[insertAt:]...)
	return arranged
}

func ensureInScope(scope []models.Task, task *models.Task) []models.Task {
	for _, t := range scope {
		if t.ID == task.ID {
			return scope
		}
	}
	return append(scope, *task)
}
