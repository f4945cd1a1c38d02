package handlers

import (
	"encoding/json"
	"net/http"

	"taskflow-project/microservices/board-service/models"
	"taskflow-project/microservices/board-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StatusHandler struct {
	service *services.StatusService
}

func NewStatusHandler(service *services.StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

func (h *StatusHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req services.CreateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	status, err := h.service.CreateStatus(r.Context(), actorID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (h *StatusHandler) ListProjectStatuses(w http.ResponseWriter, r *http.Request) {
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

	statuses, err := h.service.ListByProject(r.Context(), actorID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if statuses == nil {
		statuses = []models.ProjectStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *StatusHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, statusID, err := h.actorAndStatus(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req services.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request payload"))
		return
	}

	status, err := h.service.UpdateStatus(r.Context(), actorID, statusID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *StatusHandler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	actorID, statusID, err := h.actorAndStatus(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteStatus(r.Context(), actorID, statusID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "status deleted"})
}

func (h *StatusHandler) actorAndStatus(r *http.Request) (primitive.ObjectID, primitive.ObjectID, error) {
	actorID, err := actorFromRequest(r)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	statusID, err := primitive.ObjectIDFromHex(mux.Vars(r)["statusID"])
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, models.Validationf("invalid status id format")
	}
	return actorID, statusID, nil
}
