package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssigneeService reconciles task assignees with project team membership.
// Assignment implies membership: every user assigned to a task becomes a
// team member of the task's project if they are not one already.
type AssigneeService struct {
	users     UserStore
	members   MemberStore
	assignees AssigneeStore
	perms     *PermissionService
	notifier  Notifier
}

func NewAssigneeService(users UserStore, members MemberStore, assignees AssigneeStore, perms *PermissionService, notifier Notifier) *AssigneeService {
	return &AssigneeService{users: users, members: members, assignees: assignees, perms: perms, notifier: notifier}
}

// ListProjectMembers returns the project's team roster.
func (s *AssigneeService) ListProjectMembers(ctx context.Context, actorID, projectID primitive.ObjectID) ([]models.TeamMember, error) {
	if err := s.perms.ResolveProject(ctx, actorID, projectID, ActionView); err != nil {
		return nil, err
	}
	return s.members.ListMembersByProject(ctx, projectID)
}

// ValidateUserIDs checks that every id resolves to an existing user and
// returns a validation error listing the unknown ones.
func (s *AssigneeService) ValidateUserIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to look up users: %w", err)
	}
	known := make(map[primitive.ObjectID]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id.Hex())
		}
	}
	if len(missing) > 0 {
		return models.Validationf("unknown user ids: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SetAssignees diffs the desired assignee set against the current rows for
// the task, removing and adding as needed. Callers validate the ids first
// (ValidateUserIDs); here unknown ids would silently become members.
func (s *AssigneeService) SetAssignees(ctx context.Context, task *models.Task, desired []primitive.ObjectID) (added, removed []primitive.ObjectID, err error) {
	want := make(map[primitive.ObjectID]bool, len(desired))
	for _, id := range desired {
		want[id] = true
	}

	current, err := s.assignees.ListAssigneesByTask(ctx, task.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	have := make(map[primitive.ObjectID]bool, len(current))
	for _, a := range current {
		have[a.UserID] = true
	}

	for _, a := range current {
		if want[a.UserID] {
			continue
		}
		if err := s.assignees.DeleteAssignee(ctx, task.ID, a.UserID); err != nil {
			return added, removed, fmt.Errorf("failed to remove assignee %s: %w", a.UserID.Hex(), err)
		}
		removed = append(removed, a.UserID)
	}

	for id := range want {
		if have[id] {
			continue
		}
		if err := s.addAssignee(ctx, task, id); err != nil {
			return added, removed, err
		}
		added = append(added, id)
	}

	return added, removed, nil
}

// EnsureAssignee idempotently puts userID on the task, and transitively on
// the project team. Used for the "whoever touches a task is on it" rule when
// an update names no explicit assignee list.
func (s *AssigneeService) EnsureAssignee(ctx context.Context, task *models.Task, userID primitive.ObjectID) error {
	assigned, err := s.assignees.IsAssignee(ctx, task.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if assigned {
		return nil
	}
	return s.addAssignee(ctx, task, userID)
}

func (s *AssigneeService) addAssignee(ctx context.Context, task *models.Task, userID primitive.ObjectID) error {
	now := time.Now()
	err := s.assignees.InsertAssignee(ctx, &models.TaskAssignee{
		ID:        primitive.NewObjectID(),
		TaskID:    task.ID,
		UserID:    userID,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to add assignee %s: %w", userID.Hex(), err)
	}
	if err := s.ensureMembership(ctx, task.ProjectID, userID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.SendNotification(ctx, userID.Hex(), fmt.Sprintf("You have been assigned to task %q", task.Title))
	}
	return nil
}

func (s *AssigneeService) ensureMembership(ctx context.Context, projectID, userID primitive.ObjectID) error {
	member, err := s.members.GetMember(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member != nil {
		return nil
	}
	err = s.members.InsertMember(ctx, &models.TeamMember{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.TeamRoleMember,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to grant membership to %s: %w", userID.Hex(), err)
	}
	return nil
}
