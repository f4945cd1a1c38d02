package services

import (
	"context"
	"fmt"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy maps a system role to the actions it may perform on any target,
// before contextual rules (ownership, membership, assignment) are consulted.
// It is immutable configuration, injected at construction.
type Policy map[models.SystemRole]map[Action]bool

// Allows reports whether the role is granted the action system-wide.
func (p Policy) Allows(role models.SystemRole, action Action) bool {
	return p[role][action]
}

// DefaultPolicy grants system admins everything; all other roles rely on the
// contextual rules.
func DefaultPolicy() Policy {
	return Policy{
		models.RoleAdmin: {
			ActionView:   true,
			ActionUpdate: true,
			ActionDelete: true,
		},
	}
}

// PermissionService resolves effective access for a (user, target, action)
// triple. Resolution order, first match wins: system-role policy, project
// ownership, team membership, task assignment, then a single-level fallback
// against the immediate parent task. Pure read-based decision, no writes.
type PermissionService struct {
	tasks     TaskStore
	projects  ProjectStore
	members   MemberStore
	assignees AssigneeStore
	users     UserStore
	policy    Policy
}

func NewPermissionService(tasks TaskStore, projects ProjectStore, members MemberStore, assignees AssigneeStore, users UserStore, policy Policy) *PermissionService {
	return &PermissionService{
		tasks:     tasks,
		projects:  projects,
		members:   members,
		assignees: assignees,
		users:     users,
		policy:    policy,
	}
}

// ResolveTask decides whether userID may perform action on the task and
// returns the task so callers do not fetch it twice. A missing task yields
// CodeNotFound; a denied request yields CodeForbidden.
func (s *PermissionService) ResolveTask(ctx context.Context, userID, taskID primitive.ObjectID, action Action) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.allowedByRole(ctx, userID, action)
	if err != nil {
		return nil, err
	}
	if allowed {
		return task, nil
	}

	allowed, err = s.allowedOnTask(ctx, userID, task)
	if err != nil {
		return nil, err
	}
	if allowed {
		return task, nil
	}

	// Single-level fallback: a subtask inherits access from its immediate
	// parent only, never from the full ancestor chain.
	if task.ParentID != nil {
		parent, err := s.tasks.GetTask(ctx, *task.ParentID)
		if err == nil {
			allowed, err = s.allowedOnTask(ctx, userID, parent)
			if err != nil {
				return nil, err
			}
			if allowed {
				return task, nil
			}
		} else if !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
	}

	return nil, models.Forbiddenf("user %s is not allowed to %s task %s", userID.Hex(), action, taskID.Hex())
}

// ResolveProject decides whether userID may perform action against the
// project itself (creating tasks, managing columns).
func (s *PermissionService) ResolveProject(ctx context.Context, userID, projectID primitive.ObjectID, action Action) error {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return err
	}

	allowed, err := s.allowedByRole(ctx, userID, action)
	if err != nil {
		return err
	}
	if !allowed {
		allowed, err = s.allowedOnProject(ctx, userID, projectID)
		if err != nil {
			return err
		}
	}
	if allowed {
		return nil
	}
	return models.Forbiddenf("user %s is not allowed to %s project %s", userID.Hex(), action, projectID.Hex())
}

func (s *PermissionService) allowedByRole(ctx context.Context, userID primitive.ObjectID, action Action) (bool, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, models.Forbiddenf("unknown user %s", userID.Hex())
		}
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	return s.policy.Allows(user.Role, action), nil
}

// allowedOnTask applies the contextual rules to one task: project ownership,
// team membership (any role, any action), then task assignment.
func (s *PermissionService) allowedOnTask(ctx context.Context, userID primitive.ObjectID, task *models.Task) (bool, error) {
	allowed, err := s.allowedOnProject(ctx, userID, task.ProjectID)
	if err != nil || allowed {
		return allowed, err
	}

	assigned, err := s.assignees.IsAssignee(ctx, task.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return assigned, nil
}

func (s *PermissionService) allowedOnProject(ctx context.Context, userID, projectID primitive.ObjectID) (bool, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if project.OwnerID == userID {
		return true, nil
	}

	// Any membership row grants every action, deletion included. Restricting
	// delete to manager/admin/owner would be a policy change; see DESIGN.md.
	member, err := s.members.GetMember(ctx, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member != nil, nil
}
