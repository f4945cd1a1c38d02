package handlers

import (
	"net/http"
	"strconv"

	"taskflow-project/microservices/board-service/models"
	"taskflow-project/microservices/board-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityHandler struct {
	service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) ProjectFeed(w http.ResponseWriter, r *http.Request) {
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

	activities, err := h.service.ProjectFeed(r.Context(), actorID, projectID, limitFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) TaskFeed(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["taskID"])
	if err != nil {
		writeError(w, models.Validationf("invalid task id format"))
		return
	}

	activities, err := h.service.TaskFeed(r.Context(), actorID, taskID, limitFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func limitFromQuery(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}
