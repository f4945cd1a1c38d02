package handlers

import (
	"encoding/json"
	"net/http"

	"taskflow-project/microservices/board-service/logging"
	"taskflow-project/microservices/board-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// actorFromRequest reads the authenticated user's id from the headers the
// auth middleware sets.
func actorFromRequest(r *http.Request) (primitive.ObjectID, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return primitive.NilObjectID, models.Forbiddenf("user identity is missing from the request")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.Forbiddenf("invalid user id in request: %s", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps structured error codes to HTTP statuses; anything without
// a code is a server error and is logged rather than leaked to the caller.
func writeError(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	status := http.StatusInternalServerError
	message := err.Error()

	switch code {
	case models.CodeNotFound:
		status = http.StatusNotFound
	case models.CodeForbidden:
		status = http.StatusForbidden
	case models.CodeValidation:
		status = http.StatusBadRequest
	case models.CodeConflict:
		status = http.StatusConflict
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: Internal error: %v", err)
		message = "internal server error"
	}

	writeJSON(w, status, map[string]string{
		"code":    string(code),
		"message": message,
	})
}
