package services

import (
	"context"

	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskOrder is one (task, order) assignment produced by a resequence.
type TaskOrder struct {
	ID    primitive.ObjectID
	Order int
}

// TaskStore is the slice of the primary store the task services need.
// Implementations return *models.AppError with CodeNotFound for missing ids.
type TaskStore interface {
	GetTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) error
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
	// ListSiblings returns the (projectId, parentId) tree scope sorted by
	// ascending order value.
	ListSiblings(ctx context.Context, projectID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Task, error)
	// ListColumn returns the (projectId, parentId, statusId) kanban scope
	// sorted by ascending order value.
	ListColumn(ctx context.Context, projectID primitive.ObjectID, parentID, statusID *primitive.ObjectID) ([]models.Task, error)
	ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.Task, error)
	CountChildren(ctx context.Context, parentID primitive.ObjectID) (int64, error)
	CountByStatus(ctx context.Context, statusID primitive.ObjectID) (int64, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error)
	SetTaskOrders(ctx context.Context, orders []TaskOrder) error
}

type StatusStore interface {
	GetStatus(ctx context.Context, id primitive.ObjectID) (*models.ProjectStatus, error)
	InsertStatus(ctx context.Context, status *models.ProjectStatus) error
	SaveStatus(ctx context.Context, status *models.ProjectStatus) error
	DeleteStatus(ctx context.Context, id primitive.ObjectID) error
	ListStatusesByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectStatus, error)
	// GetDefaultStatus returns (nil, nil) when the project has no default column.
	GetDefaultStatus(ctx context.Context, projectID primitive.ObjectID) (*models.ProjectStatus, error)
	UnsetDefaultStatuses(ctx context.Context, projectID primitive.ObjectID) error
}

type ProjectStore interface {
	GetProject(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
}

type MemberStore interface {
	// GetMember returns (nil, nil) when the user is not a member of the project.
	GetMember(ctx context.Context, projectID, userID primitive.ObjectID) (*models.TeamMember, error)
	InsertMember(ctx context.Context, member *models.TeamMember) error
	ListMembersByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.TeamMember, error)
}

type AssigneeStore interface {
	ListAssigneesByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.TaskAssignee, error)
	IsAssignee(ctx context.Context, taskID, userID primitive.ObjectID) (bool, error)
	InsertAssignee(ctx context.Context, assignee *models.TaskAssignee) error
	DeleteAssignee(ctx context.Context, taskID, userID primitive.ObjectID) error
	DeleteAssigneesByTask(ctx context.Context, taskID primitive.ObjectID) error
}

type UserStore interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type ActivityStore interface {
	InsertActivity(ctx context.Context, activity *models.Activity) error
	ListActivitiesByProject(ctx context.Context, projectID string, limit int) ([]models.Activity, error)
	ListActivitiesByTask(ctx context.Context, taskID string, limit int) ([]models.Activity, error)
}

// TxnRunner executes fn inside one datastore transaction. The context passed
// to fn carries the session and must be used for every store call within it.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
