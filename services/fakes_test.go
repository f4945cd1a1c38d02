package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory stand-in for the mongo and Cassandra
// repositories, good enough to exercise the services without a database.
type fakeStore struct {
	tasks      map[primitive.ObjectID]models.Task
	taskSeq    map[primitive.ObjectID]int
	seq        int
	statuses   map[primitive.ObjectID]models.ProjectStatus
	projects   map[primitive.ObjectID]models.Project
	members    []models.TeamMember
	assignees  []models.TaskAssignee
	users      map[primitive.ObjectID]models.User
	activities []models.Activity

	failActivity bool
	failAssignee bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:    map[primitive.ObjectID]models.Task{},
		taskSeq:  map[primitive.ObjectID]int{},
		statuses: map[primitive.ObjectID]models.ProjectStatus{},
		projects: map[primitive.ObjectID]models.Project{},
		users:    map[primitive.ObjectID]models.User{},
	}
}

// --- TaskStore ---

func (f *fakeStore) GetTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, models.NotFoundf("task %s not found", id.Hex())
	}
	copied := t
	return &copied, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, task *models.Task) error {
	f.tasks[task.ID] = *task
	f.seq++
	f.taskSeq[task.ID] = f.seq
	return nil
}

func (f *fakeStore) SaveTask(ctx context.Context, task *models.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return models.NotFoundf("task %s not found", task.ID.Hex())
	}
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.tasks[id]; !ok {
		return models.NotFoundf("task %s not found", id.Hex())
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) ListSiblings(ctx context.Context, projectID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Task, error) {
	return f.filterTasks(func(t models.Task) bool {
		return t.ProjectID == projectID && sameID(t.ParentID, parentID)
	}), nil
}

func (f *fakeStore) ListColumn(ctx context.Context, projectID primitive.ObjectID, parentID, statusID *primitive.ObjectID) ([]models.Task, error) {
	return f.filterTasks(func(t models.Task) bool {
		return t.ProjectID == projectID && sameID(t.ParentID, parentID) && sameID(t.StatusID, statusID)
	}), nil
}

func (f *fakeStore) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Task, error) {
	return f.filterTasks(func(t models.Task) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	}), nil
}

func (f *fakeStore) CountChildren(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	children, _ := f.ListChildren(ctx, parentID)
	return int64(len(children)), nil
}

func (f *fakeStore) CountByStatus(ctx context.Context, statusID primitive.ObjectID) (int64, error) {
	tasks := f.filterTasks(func(t models.Task) bool {
		return t.StatusID != nil && *t.StatusID == statusID
	})
	return int64(len(tasks)), nil
}

func (f *fakeStore) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return f.filterTasks(func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

func (f *fakeStore) SetTaskOrders(ctx context.Context, orders []TaskOrder) error {
	for _, o := range orders {
		t, ok := f.tasks[o.ID]
		if !ok {
			return fmt.Errorf("unknown task %s in order assignment", o.ID.Hex())
		}
		t.Order = o.Order
		f.tasks[o.ID] = t
	}
	return nil
}

func (f *fakeStore) filterTasks(keep func(models.Task) bool) []models.Task {
	var out []models.Task
	for _, t := range f.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return f.taskSeq[out[i].ID] < f.taskSeq[out[j].ID]
	})
	return out
}

// --- StatusStore ---

func (f *fakeStore) GetStatus(ctx context.Context, id primitive.ObjectID) (*models.ProjectStatus, error) {
	s, ok := f.statuses[id]
	if !ok {
		return nil, models.NotFoundf("status %s not found", id.Hex())
	}
	copied := s
	return &copied, nil
}

func (f *fakeStore) InsertStatus(ctx context.Context, status *models.ProjectStatus) error {
	f.statuses[status.ID] = *status
	return nil
}

func (f *fakeStore) SaveStatus(ctx context.Context, status *models.ProjectStatus) error {
	if _, ok := f.statuses[status.ID]; !ok {
		return models.NotFoundf("status %s not found", status.ID.Hex())
	}
	f.statuses[status.ID] = *status
	return nil
}

func (f *fakeStore) DeleteStatus(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.statuses[id]; !ok {
		return models.NotFoundf("status %s not found", id.Hex())
	}
	delete(f.statuses, id)
	return nil
}

func (f *fakeStore) ListStatusesByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectStatus, error) {
	var out []models.ProjectStatus
	for _, s := range f.statuses {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeStore) GetDefaultStatus(ctx context.Context, projectID primitive.ObjectID) (*models.ProjectStatus, error) {
	for _, s := range f.statuses {
		if s.ProjectID == projectID && s.IsDefault {
			copied := s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UnsetDefaultStatuses(ctx context.Context, projectID primitive.ObjectID) error {
	for id, s := range f.statuses {
		if s.ProjectID == projectID && s.IsDefault {
			s.IsDefault = false
			f.statuses[id] = s
		}
	}
	return nil
}

// --- ProjectStore ---

func (f *fakeStore) GetProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, models.NotFoundf("project %s not found", id.Hex())
	}
	copied := p
	return &copied, nil
}

// --- MemberStore ---

func (f *fakeStore) GetMember(ctx context.Context, projectID, userID primitive.ObjectID) (*models.TeamMember, error) {
	for _, m := range f.members {
		if m.ProjectID == projectID && m.UserID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertMember(ctx context.Context, member *models.TeamMember) error {
	f.members = append(f.members, *member)
	return nil
}

func (f *fakeStore) ListMembersByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.TeamMember, error) {
	var out []models.TeamMember
	for _, m := range f.members {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- AssigneeStore ---

func (f *fakeStore) ListAssigneesByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.TaskAssignee, error) {
	var out []models.TaskAssignee
	for _, a := range f.assignees {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) IsAssignee(ctx context.Context, taskID, userID primitive.ObjectID) (bool, error) {
	for _, a := range f.assignees {
		if a.TaskID == taskID && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertAssignee(ctx context.Context, assignee *models.TaskAssignee) error {
	if f.failAssignee {
		return fmt.Errorf("assignee store unavailable")
	}
	f.assignees = append(f.assignees, *assignee)
	return nil
}

func (f *fakeStore) DeleteAssignee(ctx context.Context, taskID, userID primitive.ObjectID) error {
	out := f.assignees[:0]
	for _, a := range f.assignees {
		if a.TaskID == taskID && a.UserID == userID {
			continue
		}
		out = append(out, a)
	}
	f.assignees = out
	return nil
}

func (f *fakeStore) DeleteAssigneesByTask(ctx context.Context, taskID primitive.ObjectID) error {
	out := f.assignees[:0]
	for _, a := range f.assignees {
		if a.TaskID == taskID {
			continue
		}
		out = append(out, a)
	}
	f.assignees = out
	return nil
}

// --- UserStore ---

func (f *fakeStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.NotFoundf("user %s not found", id.Hex())
	}
	copied := u
	return &copied, nil
}

func (f *fakeStore) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- ActivityStore ---

func (f *fakeStore) InsertActivity(ctx context.Context, activity *models.Activity) error {
	if f.failActivity {
		return fmt.Errorf("activity store unavailable")
	}
	f.activities = append(f.activities, *activity)
	return nil
}

func (f *fakeStore) ListActivitiesByProject(ctx context.Context, projectID string, limit int) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range f.activities {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListActivitiesByTask(ctx context.Context, taskID string, limit int) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range f.activities {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for id, t := range f.tasks {
		c.tasks[id] = t
	}
	for id, n := range f.taskSeq {
		c.taskSeq[id] = n
	}
	c.seq = f.seq
	for id, s := range f.statuses {
		c.statuses[id] = s
	}
	for id, p := range f.projects {
		c.projects[id] = p
	}
	for id, u := range f.users {
		c.users[id] = u
	}
	c.members = append([]models.TeamMember(nil), f.members...)
	c.assignees = append([]models.TaskAssignee(nil), f.assignees...)
	c.activities = append([]models.Activity(nil), f.activities...)
	return c
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.tasks = snap.tasks
	f.taskSeq = snap.taskSeq
	f.seq = snap.seq
	f.statuses = snap.statuses
	f.projects = snap.projects
	f.users = snap.users
	f.members = snap.members
	f.assignees = snap.assignees
	f.activities = snap.activities
}

// --- TxnRunner ---

type fakeTxn struct{}

func (fakeTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// retryTxn models the driver retrying a transaction after a transient commit
// error: the first attempt's writes are rolled back and the callback runs
// again against the original state.
type retryTxn struct{ store *fakeStore }

func (r retryTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := r.store.clone()
	if err := fn(ctx); err != nil {
		return err
	}
	r.store.restore(snap)
	return fn(ctx)
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) SendNotification(ctx context.Context, userID, message string) {
	f.sent = append(f.sent, userID+": "+message)
}

func sameID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// --- test environment ---

type testEnv struct {
	store     *fakeStore
	perms     *PermissionService
	hierarchy *HierarchyService
	ordering  *OrderingService
	activity  *ActivityService
	assignees *AssigneeService
	statuses  *StatusService
	tasks     *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	perms := NewPermissionService(store, store, store, store, store, DefaultPolicy())
	hierarchy := NewHierarchyService(store)
	ordering := NewOrderingService(store)
	activity := NewActivityService(store, perms)
	assignees := NewAssigneeService(store, store, store, perms, nil)
	statuses := NewStatusService(store, store, ordering, perms, activity, fakeTxn{})
	tasks := NewTaskService(store, store, perms, hierarchy, ordering, statuses, assignees, activity, store, fakeTxn{})
	return &testEnv{
		store:     store,
		perms:     perms,
		hierarchy: hierarchy,
		ordering:  ordering,
		activity:  activity,
		assignees: assignees,
		statuses:  statuses,
		tasks:     tasks,
	}
}

func (e *testEnv) addUser(t *testing.T, role models.SystemRole) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	e.store.users[id] = models.User{ID: id, Name: "user-" + id.Hex()[:6], Role: role}
	return id
}

func (e *testEnv) addProject(t *testing.T, ownerID primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	e.store.projects[id] = models.Project{ID: id, Name: "project", OwnerID: ownerID, CreatedAt: time.Now()}
	return id
}

func (e *testEnv) addMember(t *testing.T, projectID, userID primitive.ObjectID, role models.TeamRole) {
	t.Helper()
	e.store.members = append(e.store.members, models.TeamMember{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	})
}

func (e *testEnv) addStatus(t *testing.T, projectID primitive.ObjectID, name string, order int, isDefault bool) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	e.store.statuses[id] = models.ProjectStatus{
		ID:        id,
		Name:      name,
		Color:     "#888888",
		Order:     order,
		IsDefault: isDefault,
		ProjectID: projectID,
	}
	return id
}

func (e *testEnv) addTask(t *testing.T, projectID primitive.ObjectID, parentID, statusID *primitive.ObjectID, title string, order int) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	task := models.Task{
		ID:        id,
		ProjectID: projectID,
		Title:     title,
		Priority:  models.PriorityMedium,
		ParentID:  parentID,
		StatusID:  statusID,
		Order:     order,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := e.store.InsertTask(context.Background(), &task); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return id
}

func (e *testEnv) addAssignee(t *testing.T, taskID, userID primitive.ObjectID) {
	t.Helper()
	e.store.assignees = append(e.store.assignees, models.TaskAssignee{
		ID:     primitive.NewObjectID(),
		TaskID: taskID,
		UserID: userID,
	})
}

// columnIDs returns the ids of a kanban column in display order.
func (e *testEnv) columnIDs(t *testing.T, projectID primitive.ObjectID, parentID, statusID *primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	tasks, err := e.store.ListColumn(context.Background(), projectID, parentID, statusID)
	if err != nil {
		t.Fatalf("list column: %v", err)
	}
	ids := make([]primitive.ObjectID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
