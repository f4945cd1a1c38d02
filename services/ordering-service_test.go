package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResequenceIDs_MoveBeforeTarget(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	got := resequenceIDs([]primitive.ObjectID{a, b, c}, c, &a)

	want := []primitive.ObjectID{c, a, b}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Hex(), want[i].Hex())
		}
	}
}

func TestResequenceIDs_AppendWhenNoTarget(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	got := resequenceIDs([]primitive.ObjectID{a, b, c}, a, nil)

	want := []primitive.ObjectID{b, c, a}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Hex(), want[i].Hex())
		}
	}
}

func TestResequenceIDs_UnknownTargetAppends(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	got := resequenceIDs([]primitive.ObjectID{a, b}, a, &stranger)

	if got[0] != b || got[1] != a {
		t.Fatalf("expected [b a], got [%s %s]", got[0].Hex(), got[1].Hex())
	}
}

func TestResequenceIDs_UnknownMovedLeavesOrder(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got := resequenceIDs([]primitive.ObjectID{a, b}, primitive.NewObjectID(), nil)

	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("expected untouched [a b], got %v", got)
	}
}

func TestNextOrder_EmptyScopeStartsAtZero(t *testing.T) {
	env := newTestEnv(t)
	projectID := env.addProject(t, env.addUser(t, "user"))

	next, err := env.ordering.NextOrder(context.Background(), projectID, nil)
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 0 {
		t.Errorf("expected order 0 in empty scope, got %d", next)
	}
}

func TestNextOrder_Increments(t *testing.T) {
	env := newTestEnv(t)
	projectID := env.addProject(t, env.addUser(t, "user"))
	env.addTask(t, projectID, nil, nil, "A", 0)
	env.addTask(t, projectID, nil, nil, "B", 1)

	next, err := env.ordering.NextOrder(context.Background(), projectID, nil)
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 2 {
		t.Errorf("expected order 2, got %d", next)
	}
}

func TestNextOrder_ScopedByParent(t *testing.T) {
	env := newTestEnv(t)
	projectID := env.addProject(t, env.addUser(t, "user"))
	parentID := env.addTask(t, projectID, nil, nil, "parent", 0)

	next, err := env.ordering.NextOrder(context.Background(), projectID, &parentID)
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 0 {
		t.Errorf("expected order 0 for empty subtask scope, got %d", next)
	}
}

func TestResequenceSiblings_PacksToContiguousOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.addProject(t, env.addUser(t, "user"))
	a := env.addTask(t, projectID, nil, nil, "A", 0)
	b := env.addTask(t, projectID, nil, nil, "B", 3)
	c := env.addTask(t, projectID, nil, nil, "C", 7)

	moved, err := env.store.GetTask(ctx, c)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	arranged, err := env.ordering.ResequenceSiblings(ctx, moved, &a)
	if err != nil {
		t.Fatalf("ResequenceSiblings: %v", err)
	}

	wantIDs := []primitive.ObjectID{c, a, b}
	if len(arranged) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(arranged))
	}
	for i, task := range arranged {
		if task.ID != wantIDs[i] {
			t.Errorf("position %d: got %s", i, task.Title)
		}
		if task.Order != i {
			t.Errorf("position %d: order %d, want %d", i, task.Order, i)
		}
	}
	if moved.Order != 0 {
		t.Errorf("moved task order = %d, want 0", moved.Order)
	}

	stored, _ := env.store.GetTask(ctx, b)
	if stored.Order != 2 {
		t.Errorf("stored order of B = %d, want 2", stored.Order)
	}
}

func TestRemoveFromColumn_PacksRemaining(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.addProject(t, env.addUser(t, "user"))
	statusID := env.addStatus(t, projectID, "Todo", 0, false)
	a := env.addTask(t, projectID, nil, &statusID, "A", 0)
	b := env.addTask(t, projectID, nil, &statusID, "B", 1)
	c := env.addTask(t, projectID, nil, &statusID, "C", 2)

	if err := env.ordering.RemoveFromColumn(ctx, projectID, nil, &statusID, b); err != nil {
		t.Fatalf("RemoveFromColumn: %v", err)
	}

	taskA, _ := env.store.GetTask(ctx, a)
	taskC, _ := env.store.GetTask(ctx, c)
	if taskA.Order != 0 || taskC.Order != 1 {
		t.Errorf("expected orders [0 1], got [%d %d]", taskA.Order, taskC.Order)
	}
}
