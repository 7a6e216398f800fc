package handlers

import (
	"encoding/json"
	"net/http"

	"mysft/internal/models"
	"mysft/internal/services"
)

// HealthDeclHandler serves the daily screening questionnaire.
type HealthDeclHandler struct {
	health *services.Health
}

func NewHealthDeclHandler(health *services.Health) *HealthDeclHandler {
	return &HealthDeclHandler{health: health}
}

type submitRequest struct {
	Answers []string `json:"answers"`
}

func (h *HealthDeclHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	result, err := h.health.Submit(r.Context(), req.Answers)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, result)
}

// Questions returns the questionnaire so clients render the exact vector
// the server evaluates.
func (h *HealthDeclHandler) Questions(w http.ResponseWriter, r *http.Request) {
	ok(w, models.Questions)
}

func (h *HealthDeclHandler) Current(w http.ResponseWriter, r *http.Request) {
	decl, err := h.health.Current(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, decl)
}

func (h *HealthDeclHandler) UnfitHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.health.UnfitHistory(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if events == nil {
		events = []models.UnfitEvent{}
	}
	ok(w, events)
}
