package repositories

import (
	"context"
	"fmt"

	"taskflow-project/microservices/board-service/logging"
	"taskflow-project/microservices/board-service/models"

	"github.com/gocql/gocql"
)

// ActivityRepo appends audit records to Cassandra. Two tables carry the same
// rows partitioned for the two read paths: by project and by task, both
// clustered newest-first.
type ActivityRepo struct {
	session *gocql.Session
}

// NewActivityRepo connects to Cassandra, bootstrapping the keyspace and
// tables when they do not exist yet.
func NewActivityRepo(host string) (*ActivityRepo, error) {
	if host == "" {
		host = "127.0.0.1"
	}

	cluster := gocql.NewCluster(host)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS activities
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create keyspace: %w", err)
	}
	session.Close()

	cluster.Keyspace = "activities"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to activities keyspace: %w", err)
	}

	repo := &ActivityRepo{session: session}
	if err := repo.createTables(); err != nil {
		session.Close()
		return nil, err
	}

	logging.Logger.Info("Event ID: ACTIVITY_STORE_CONNECTED, Description: Connected to Cassandra activities keyspace.")
	return repo, nil
}

func (r *ActivityRepo) Close() {
	r.session.Close()
}

func (r *ActivityRepo) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS activities_by_project (
			id TEXT,
			action TEXT,
			entity_type TEXT,
			entity_id TEXT,
			description TEXT,
			user_id TEXT,
			project_id TEXT,
			task_id TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY ((project_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`,
		`CREATE TABLE IF NOT EXISTS activities_by_task (
			id TEXT,
			action TEXT,
			entity_type TEXT,
			entity_id TEXT,
			description TEXT,
			user_id TEXT,
			project_id TEXT,
			task_id TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY ((task_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`,
	}
	for _, q := range queries {
		if err := r.session.Query(q).Exec(); err != nil {
			return fmt.Errorf("failed to create activities table: %w", err)
		}
	}
	return nil
}

func (r *ActivityRepo) InsertActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = gocql.TimeUUID().String()
	}

	err := r.session.Query(
		`INSERT INTO activities_by_project (id, action, entity_type, entity_id, description, user_id, project_id, task_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.Action, activity.EntityType, activity.EntityID,
		activity.Description, activity.UserID, activity.ProjectID, activity.TaskID, activity.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	if activity.TaskID == "" {
		return nil
	}
	err = r.session.Query(
		`INSERT INTO activities_by_task (id, action, entity_type, entity_id, description, user_id, project_id, task_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.Action, activity.EntityType, activity.EntityID,
		activity.Description, activity.UserID, activity.ProjectID, activity.TaskID, activity.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to insert task activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListActivitiesByProject(ctx context.Context, projectID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	iter := r.session.Query(
		`SELECT id, action, entity_type, entity_id, description, user_id, project_id, task_id, created_at
		 FROM activities_by_project WHERE project_id = ? LIMIT ?`,
		projectID, limit,
	).WithContext(ctx).Iter()
	return scanActivities(iter)
}

func (r *ActivityRepo) ListActivitiesByTask(ctx context.Context, taskID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	iter := r.session.Query(
		`SELECT id, action, entity_type, entity_id, description, user_id, project_id, task_id, created_at
		 FROM activities_by_task WHERE task_id = ? LIMIT ?`,
		taskID, limit,
	).WithContext(ctx).Iter()
	return scanActivities(iter)
}

func scanActivities(iter *gocql.Iter) ([]models.Activity, error) {
	var activities []models.Activity
	var a models.Activity
	for iter.Scan(&a.ID, &a.Action, &a.EntityType, &a.EntityID, &a.Description, &a.UserID, &a.ProjectID, &a.TaskID, &a.CreatedAt) {
		activities = append(activities, a)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}
	return activities, nil
}
