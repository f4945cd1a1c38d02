package handlers

import (
	"encoding/json"
	"net/http"

	"taskflow-project/microservices/board-service/models"
	"taskflow-project/microservices/board-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req services.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	task, err := h.service.CreateTask(r.Context(), actorID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.service.GetTask(r.Context(), actorID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req services.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	task, err := h.service.UpdateTask(r.Context(), actorID, taskID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cascade := r.URL.Query().Get("cascade") == "true"

	if err := h.service.DeleteTask(r.Context(), actorID, taskID, cascade); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

func (h *TaskHandler) ReorderTask(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req services.ReorderTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	task, err := h.service.ReorderTask(r.Context(), actorID, taskID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		StatusID     string  `json:"statusId"`
		TargetTaskID *string `json:"targetTaskId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	task, err := h.service.SetTaskStatus(r.Context(), actorID, taskID, req.StatusID, req.TargetTaskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	projectID, err := primitive.ObjectIDFromHex(mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, models.Validationf("invalid project id format"))
		return
	}

	tasks, err := h.service.ListProjectTasks(r.Context(), actorID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) SetAssignees(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		AssigneeIDs []string `json:"assigneeIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	added, removed, err := h.service.SetTaskAssignees(r.Context(), actorID, taskID, req.AssigneeIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":   hexIDs(added),
		"removed": hexIDs(removed),
	})
}

func (h *TaskHandler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, err := h.actorAndTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assignees, err := h.service.ListAssignees(r.Context(), actorID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	if assignees == nil {
		assignees = []models.TaskAssignee{}
	}
	writeJSON(w, http.StatusOK, assignees)
}

func (h *TaskHandler) actorAndTask(r *http.Request) (primitive.ObjectID, primitive.ObjectID, error) {
	actorID, err := actorFromRequest(r)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskID"])
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, models.Validationf("invalid task id format")
	}
	return actorID, taskID, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
