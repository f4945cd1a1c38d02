package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"taskflow-project/microservices/board-service/handlers"
	"taskflow-project/microservices/board-service/logging"
	"taskflow-project/microservices/board-service/middleware"
	"taskflow-project/microservices/board-service/repositories"
	"taskflow-project/microservices/board-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Board Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	taskRepo := repositories.NewTaskRepo(db.Collection("tasks"))
	statusRepo := repositories.NewStatusRepo(db.Collection("statuses"))
	projectRepo := repositories.NewProjectRepo(db.Collection("projects"))
	memberRepo := repositories.NewMemberRepo(db.Collection("team_members"))
	assigneeRepo := repositories.NewAssigneeRepo(db.Collection("task_assignees"))
	userRepo := repositories.NewUserRepo(db.Collection("users"))
	txnRunner := repositories.NewMongoTxnRunner(client)

	// The activity log is best-effort: a missing Cassandra deployment keeps
	// the service running without an audit trail.
	var activityStore services.ActivityStore
	activityRepo, err := repositories.NewActivityRepo(os.Getenv("CASS_DB"))
	if err != nil {
		logging.Logger.Errorf("Event ID: ACTIVITY_STORE_UNAVAILABLE, Description: Activity store connection failed, activities will be dropped: %v", err)
	} else {
		defer activityRepo.Close()
		activityStore = activityRepo
	}

	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})

	var notifier services.Notifier
	if notificationsURL := os.Getenv("NOTIFICATIONS_SERVICE_URL"); notificationsURL != "" {
		httpClient := &http.Client{Timeout: 5 * time.Second}
		notifier = services.NewNotificationsClient(notificationsURL, httpClient, notificationsBreaker)
	}

	permissionService := services.NewPermissionService(taskRepo, projectRepo, memberRepo, assigneeRepo, userRepo, services.DefaultPolicy())
	hierarchyService := services.NewHierarchyService(taskRepo)
	orderingService := services.NewOrderingService(taskRepo)
	activityService := services.NewActivityService(activityStore, permissionService)
	assigneeService := services.NewAssigneeService(userRepo, memberRepo, assigneeRepo, permissionService, notifier)
	statusService := services.NewStatusService(statusRepo, taskRepo, orderingService, permissionService, activityService, txnRunner)
	taskService := services.NewTaskService(taskRepo, statusRepo, permissionService, hierarchyService, orderingService, statusService, assigneeService, activityService, assigneeRepo, txnRunner)

	taskHandler := handlers.NewTaskHandler(taskService)
	statusHandler := handlers.NewStatusHandler(statusService)
	activityHandler := handlers.NewActivityHandler(activityService)
	memberHandler := handlers.NewMemberHandler(assigneeService)

	r := mux.NewRouter()

	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/project/{projectID}", taskHandler.ListProjectTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/api/tasks/{taskID}/reorder", taskHandler.ReorderTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/status", taskHandler.SetTaskStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/assignees", taskHandler.SetAssignees).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{taskID}/assignees", taskHandler.ListAssignees).Methods(http.MethodGet)

	r.HandleFunc("/api/statuses", statusHandler.CreateStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/statuses/project/{projectID}", statusHandler.ListProjectStatuses).Methods(http.MethodGet)
	r.HandleFunc("/api/statuses/{statusID}", statusHandler.UpdateStatus).Methods(http.MethodPatch)
	r.HandleFunc("/api/statuses/{statusID}", statusHandler.DeleteStatus).Methods(http.MethodDelete)

	r.HandleFunc("/api/members/project/{projectID}", memberHandler.ListProjectMembers).Methods(http.MethodGet)

	r.HandleFunc("/api/activities/project/{projectID}", activityHandler.ProjectFeed).Methods(http.MethodGet)
	r.HandleFunc("/api/activities/task/{taskID}", activityHandler.TaskFeed).Methods(http.MethodGet)

	corsRouter := enableCORS(middleware.JWTAuthMiddleware(r))

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
