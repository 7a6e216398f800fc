package handlers

import (
	"encoding/json"
	"net/http"

	"mysft/internal/models"
	"mysft/internal/services"
)

// TrainingHandler drives the session state machine and record views.
type TrainingHandler struct {
	training *services.Training
}

func NewTrainingHandler(training *services.Training) *TrainingHandler {
	return &TrainingHandler{training: training}
}

type trainingTypeRequest struct {
	TrainingType string `json:"trainingType"`
}

// recordView is a training record plus its formatted duration.
type recordView struct {
	models.TrainingRecord
	Duration string `json:"duration,omitempty"`
}

func viewOf(rec models.TrainingRecord) recordView {
	return recordView{TrainingRecord: rec, Duration: services.FormatDuration(rec)}
}

func (h *TrainingHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req trainingTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	rec, err := h.training.Start(r.Context(), req.TrainingType)
	if err != nil {
		fail(w, err)
		return
	}
	created(w, viewOf(rec))
}

func (h *TrainingHandler) ChangeType(w http.ResponseWriter, r *http.Request) {
	var req trainingTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	rec, err := h.training.ChangeType(r.Context(), req.TrainingType)
	if err != nil {
		fail(w, err)
		return
	}
	if rec == nil {
		// No open session: a selection change only, nothing persisted.
		ok(w, map[string]string{"trainingType": req.TrainingType})
		return
	}
	ok(w, viewOf(*rec))
}

func (h *TrainingHandler) End(w http.ResponseWriter, r *http.Request) {
	rec, err := h.training.End(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, viewOf(rec))
}

// Status reloads any still-open session for the caller; screens call it on
// every re-entry, so it must stay side-effect free.
func (h *TrainingHandler) Status(w http.ResponseWriter, r *http.Request) {
	rec, err := h.training.Resume(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if rec == nil {
		ok(w, nil)
		return
	}
	ok(w, viewOf(*rec))
}

func (h *TrainingHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.training.ListOwn(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewOf(rec))
	}
	ok(w, views)
}

func (h *TrainingHandler) Hide(w http.ResponseWriter, r *http.Request) {
	if err := h.training.Hide(r.Context()); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (h *TrainingHandler) Unhide(w http.ResponseWriter, r *http.Request) {
	if err := h.training.Unhide(r.Context()); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}
