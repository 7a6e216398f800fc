package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mysft/internal/services"
	"mysft/internal/storage"
)

// Response is the common envelope for every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: message})
}

// fail maps the service error taxonomy onto HTTP status codes.
func fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNoSuchUser):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrSessionAlreadyActive),
		errors.Is(err, services.ErrNoActiveSession):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredential),
		errors.Is(err, services.ErrNotLoggedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrIncompleteAnswers),
		errors.Is(err, services.ErrInvalidTrainingType):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrHealthCheckRequired),
		errors.Is(err, services.ErrHealthCheckStale):
		status = http.StatusPreconditionRequired
	case errors.Is(err, storage.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, Response{Success: false, Message: err.Error()})
}
