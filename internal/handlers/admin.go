package handlers

import (
	"encoding/json"
	"net/http"

	"mysft/internal/models"
	"mysft/internal/services"
)

// AdminHandler groups the privileged operations. Authorization lives in the
// services, which check the active session's admin flag on every call.
type AdminHandler struct {
	profiles *services.Profiles
	audit    *services.Audit
	health   *services.Health
}

func NewAdminHandler(profiles *services.Profiles, audit *services.Audit, health *services.Health) *AdminHandler {
	return &AdminHandler{profiles: profiles, audit: audit, health: health}
}

type targetUserRequest struct {
	Email string `json:"email"`
}

type setAdminRequest struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func sanitizeAll(profiles []models.UserProfile) []models.UserProfile {
	out := make([]models.UserProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Sanitized())
	}
	return out
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.profiles.List(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, sanitizeAll(users))
}

func (h *AdminHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		badRequest(w, "query parameter q is required")
		return
	}
	users, err := h.profiles.Search(r.Context(), term)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, sanitizeAll(users))
}

func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req setAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		badRequest(w, "email is required")
		return
	}
	if err := h.profiles.SetAdminFlag(r.Context(), req.Email, req.IsAdmin); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req targetUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		badRequest(w, "email is required")
		return
	}
	if err := h.profiles.Delete(r.Context(), req.Email); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (h *AdminHandler) EditAs(w http.ResponseWriter, r *http.Request) {
	var req targetUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		badRequest(w, "email is required")
		return
	}
	profile, err := h.profiles.EditAs(r.Context(), req.Email)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, profile.Sanitized())
}

// TodayRecords reports today's open and closed sessions. Optional query
// params sort=start|end and dir=asc|desc re-sort the closed list.
func (h *AdminHandler) TodayRecords(w http.ResponseWriter, r *http.Request) {
	sortBy := services.ClosedSortField(r.URL.Query().Get("sort"))
	if sortBy == "" {
		sortBy = services.SortByTimestamp
	}
	asc := r.URL.Query().Get("dir") == "asc"
	report, err := h.audit.Today(r.Context(), sortBy, asc)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, report)
}

func (h *AdminHandler) ClearRecords(w http.ResponseWriter, r *http.Request) {
	var req targetUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		badRequest(w, "email is required")
		return
	}
	if err := h.audit.ClearRecordsFor(r.Context(), req.Email); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Log(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if entries == nil {
		entries = []models.AdminAuditEntry{}
	}
	ok(w, entries)
}

func (h *AdminHandler) UnfitLog(w http.ResponseWriter, r *http.Request) {
	events, err := h.health.UnfitLog(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if events == nil {
		events = []models.UnfitEvent{}
	}
	ok(w, events)
}

func (h *AdminHandler) ClearUnfitLog(w http.ResponseWriter, r *http.Request) {
	if err := h.health.ClearUnfitLog(r.Context()); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}
