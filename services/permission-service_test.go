package services

import (
	"context"
	"testing"

	"taskflow-project/microservices/board-service/models"
)

func TestResolveTask_AdminAlwaysAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, models.RoleAdmin)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)

	for _, action := range []Action{ActionView, ActionUpdate, ActionDelete} {
		if _, err := env.perms.ResolveTask(ctx, admin, taskID, action); err != nil {
			t.Errorf("admin denied %s: %v", action, err)
		}
	}
}

func TestResolveTask_OwnerAllowed(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, owner)
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)

	if _, err := env.perms.ResolveTask(context.Background(), owner, taskID, ActionDelete); err != nil {
		t.Fatalf("project owner denied delete: %v", err)
	}
}

func TestResolveTask_MemberAllowedIncludingDelete(t *testing.T) {
	env := newTestEnv(t)
	member := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	env.addMember(t, projectID, member, models.TeamRoleMember)
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)

	// Any membership row grants every action, plain members included.
	for _, action := range []Action{ActionView, ActionUpdate, ActionDelete} {
		if _, err := env.perms.ResolveTask(context.Background(), member, taskID, action); err != nil {
			t.Errorf("member denied %s: %v", action, err)
		}
	}
}

func TestResolveTask_AssigneeWithoutMembershipAllowed(t *testing.T) {
	env := newTestEnv(t)
	assignee := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)
	env.addAssignee(t, taskID, assignee)

	if _, err := env.perms.ResolveTask(context.Background(), assignee, taskID, ActionUpdate); err != nil {
		t.Fatalf("assignee denied update: %v", err)
	}
}

func TestResolveTask_StrangerDenied(t *testing.T) {
	env := newTestEnv(t)
	stranger := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)

	_, err := env.perms.ResolveTask(context.Background(), stranger, taskID, ActionView)
	if !models.IsCode(err, models.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestResolveTask_MissingTaskIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, user)
	ghost := env.addTask(t, projectID, nil, nil, "ghost", 0)
	delete(env.store.tasks, ghost)

	_, err := env.perms.ResolveTask(context.Background(), user, ghost, ActionView)
	if !models.IsCode(err, models.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveTask_ParentFallbackSingleLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	assignee := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))

	// grandparent <- parent <- child; the user is assigned to the
	// grandparent only.
	grandparent := env.addTask(t, projectID, nil, nil, "grandparent", 0)
	parent := env.addTask(t, projectID, &grandparent, nil, "parent", 0)
	child := env.addTask(t, projectID, &parent, nil, "child", 0)
	env.addAssignee(t, grandparent, assignee)

	// Access to the parent flows from its immediate parent (the grandparent).
	if _, err := env.perms.ResolveTask(ctx, assignee, parent, ActionUpdate); err != nil {
		t.Fatalf("expected one-level fallback to allow, got %v", err)
	}

	// The child is two levels below the assignment; the fallback does not
	// walk the full chain.
	_, err := env.perms.ResolveTask(ctx, assignee, child, ActionUpdate)
	if !models.IsCode(err, models.CodeForbidden) {
		t.Fatalf("expected deny beyond one level, got %v", err)
	}
}

func TestResolveProject_MemberAllowedStrangerDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.addUser(t, models.RoleUser)
	stranger := env.addUser(t, models.RoleUser)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	env.addMember(t, projectID, member, models.TeamRoleMember)

	if err := env.perms.ResolveProject(ctx, member, projectID, ActionUpdate); err != nil {
		t.Errorf("member denied project update: %v", err)
	}
	err := env.perms.ResolveProject(ctx, stranger, projectID, ActionUpdate)
	if !models.IsCode(err, models.CodeForbidden) {
		t.Errorf("expected forbidden for stranger, got %v", err)
	}
}

func TestResolveProject_MissingProjectIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, models.RoleUser)
	ghost := env.addProject(t, user)
	delete(env.store.projects, ghost)

	err := env.perms.ResolveProject(context.Background(), user, ghost, ActionView)
	if !models.IsCode(err, models.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPolicy_InjectedTableOverridesDefault(t *testing.T) {
	env := newTestEnv(t)
	manager := env.addUser(t, models.RoleManager)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)

	// With the default policy a manager with no contextual link is denied.
	if _, err := env.perms.ResolveTask(context.Background(), manager, taskID, ActionView); !models.IsCode(err, models.CodeForbidden) {
		t.Fatalf("expected forbidden under default policy, got %v", err)
	}

	// A wider policy table grants managers view access everywhere.
	wide := Policy{
		models.RoleAdmin:   {ActionView: true, ActionUpdate: true, ActionDelete: true},
		models.RoleManager: {ActionView: true},
	}
	perms := NewPermissionService(env.store, env.store, env.store, env.store, env.store, wide)
	if _, err := perms.ResolveTask(context.Background(), manager, taskID, ActionView); err != nil {
		t.Fatalf("expected wide policy to allow view, got %v", err)
	}
	if _, err := perms.ResolveTask(context.Background(), manager, taskID, ActionDelete); !models.IsCode(err, models.CodeForbidden) {
		t.Fatal("expected delete to stay denied under wide policy")
	}
}

func TestResolveTask_UnknownUserDenied(t *testing.T) {
	env := newTestEnv(t)
	ghost := env.addUser(t, models.RoleUser)
	delete(env.store.users, ghost)
	projectID := env.addProject(t, env.addUser(t, models.RoleUser))
	taskID := env.addTask(t, projectID, nil, nil, "A", 0)

	_, err := env.perms.ResolveTask(context.Background(), ghost, taskID, ActionView)
	if !models.IsCode(err, models.CodeForbidden) {
		t.Fatalf("expected forbidden for unknown user, got %v", err)
	}
}
