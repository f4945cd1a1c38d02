package handlers

import (
	"net/http"

	"taskflow-project/microservices/board-service/models"
	"taskflow-project/microservices/board-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemberHandler struct {
	service *services.AssigneeService
}

func NewMemberHandler(service *services.AssigneeService) *MemberHandler {
	return &MemberHandler{service: service}
}

func (h *MemberHandler) ListProjectMembers(w http.ResponseWriter, r *http.Request) {
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

	members, err := h.service.ListProjectMembers(r.Context(), actorID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if members == nil {
		members = []models.TeamMember{}
	}
	writeJSON(w, http.StatusOK, members)
}
