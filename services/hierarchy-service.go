package services

import (
	"context"
	"fmt"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxAncestorDepth bounds the upward walk so corrupted data (a pre-existing
// cycle) cannot spin the validator forever. Hitting the bound is reported as
// a cycle.
const maxAncestorDepth = 1000

// HierarchyService validates reparent operations and loads subtask trees.
type HierarchyService struct {
	tasks TaskStore
}

func NewHierarchyService(tasks TaskStore) *HierarchyService {
	return &HierarchyService{tasks: tasks}
}

// ValidateReparent checks that making candidateParentID the parent of taskID
// keeps the tree acyclic and inside projectID. Pure validation, no writes.
func (s *HierarchyService) ValidateReparent(ctx context.Context, taskID, candidateParentID, projectID primitive.ObjectID) error {
	if candidateParentID == taskID {
		return models.Validationf("a task cannot be its own parent")
	}

	parent, err := s.tasks.GetTask(ctx, candidateParentID)
	if err != nil {
		return err
	}
	if parent.ProjectID != projectID {
		return models.Validationf("parent task %s belongs to a different project", candidateParentID.Hex())
	}

	current := parent
	for depth := 0; ; depth++ {
		if depth >= maxAncestorDepth {
			return models.Validationf("ancestor chain exceeds %d levels, assuming a cycle", maxAncestorDepth)
		}
		if current.ID == taskID {
			return models.Validationf("cannot move task %s under its own descendant", taskID.Hex())
		}
		if current.ParentID == nil {
			return nil
		}
		current, err = s.tasks.GetTask(ctx, *current.ParentID)
		if err != nil {
			return fmt.Errorf("failed to walk ancestor chain: %w", err)
		}
	}
}

// TaskTree is a flat arena of tasks reachable from Root: every node keyed by
// id plus a parent→children index, loaded breadth-first.
type TaskTree struct {
	Root     primitive.ObjectID
	Nodes    map[primitive.ObjectID]*models.Task
	Children map[primitive.ObjectID][]primitive.ObjectID
	// Order lists ids in breadth-first order, root first.
	Order []primitive.ObjectID
}

// LoadSubtree loads the task and all descendants down to maxDepth levels
// below the root. A maxDepth of 0 loads only the root; a negative maxDepth
// loads the whole subtree (duplicate detection still bounds the walk on
// corrupted data).
func (s *HierarchyService) LoadSubtree(ctx context.Context, rootID primitive.ObjectID, maxDepth int) (*TaskTree, error) {
	root, err := s.tasks.GetTask(ctx, rootID)
	if err != nil {
		return nil, err
	}

	tree := &TaskTree{
		Root:     rootID,
		Nodes:    map[primitive.ObjectID]*models.Task{rootID: root},
		Children: map[primitive.ObjectID][]primitive.ObjectID{},
		Order:    []primitive.ObjectID{rootID},
	}

	frontier := []primitive.ObjectID{rootID}
	for depth := 0; (maxDepth < 0 || depth < maxDepth) && len(frontier) > 0; depth++ {
		var next []primitive.ObjectID
		for _, parentID := range frontier {
			children, err := s.tasks.ListChildren(ctx, parentID)
			if err != nil {
				return nil, fmt.Errorf("failed to load children of %s: %w", parentID.Hex(), err)
			}
			for i := range children {
				child := children[i]
				if _, seen := tree.Nodes[child.ID]; seen {
					// Corrupted data; refuse to loop.
					return nil, models.Validationf("task %s appears twice in its own subtree", child.ID.Hex())
				}
				tree.Nodes[child.ID] = &child
				tree.Children[parentID] = append(tree.Children[parentID], child.ID)
				tree.Order = append(tree.Order, child.ID)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return tree, nil
}
