package handlers

import (
	"encoding/json"
	"net/http"

	"mysft/internal/models"
	"mysft/internal/services"
)

// ProfileHandler serves the logged-in user's own profile.
type ProfileHandler struct {
	profiles *services.Profiles
	sessions *services.Sessions
}

func NewProfileHandler(profiles *services.Profiles, sessions *services.Sessions) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, sessions: sessions}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	active, err := h.sessions.Current(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if active == nil {
		fail(w, services.ErrNotLoggedIn)
		return
	}
	ok(w, active.Sanitized())
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var draft models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := h.profiles.Update(r.Context(), draft)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, updated.Sanitized())
}
