package handlers

import (
	"encoding/json"
	"net/http"

	"mysft/internal/models"
	"mysft/internal/services"
)

// AuthHandler covers registration, login, logout and the current session.
type AuthHandler struct {
	identity *services.Identity
	sessions *services.Sessions
}

func NewAuthHandler(identity *services.Identity, sessions *services.Sessions) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions}
}

// RegisterRequest is the registration form. Any submitted isAdmin value is
// ignored.
type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Rank          string `json:"rank"`
	FullName      string `json:"fullName"`
	NRIC          string `json:"nric"`
	ParentUnit    string `json:"parentUnit"`
	SubUnit       string `json:"subUnit"`
	CourseCode    string `json:"courseCode"`
	ContactNumber string `json:"contactNumber"`
	PESStatus     string `json:"pesStatus"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	profile, err := h.identity.Register(r.Context(), models.UserProfile{
		Email:         req.Email,
		Password:      req.Password,
		Rank:          req.Rank,
		FullName:      req.FullName,
		NRIC:          req.NRIC,
		ParentUnit:    req.ParentUnit,
		SubUnit:       req.SubUnit,
		CourseCode:    req.CourseCode,
		ContactNumber: req.ContactNumber,
		PESStatus:     req.PESStatus,
	})
	if err != nil {
		fail(w, err)
		return
	}
	created(w, profile)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	profile, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, profile)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.Logout(r.Context()); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

// Me returns the active session's profile snapshot.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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
