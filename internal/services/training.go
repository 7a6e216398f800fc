package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
)

// Training is the per-user session state machine: NoSession -> Active ->
// NoSession, with at most one active record per owner. Record identity is
// the creation timestamp; updates rewrite the matching element of the
// shared record list.
type Training struct {
	store    storage.Store
	sessions *Sessions
	health   *Health
	log      *zap.Logger
}

func NewTraining(store storage.Store, sessions *Sessions, health *Health, log *zap.Logger) *Training {
	return &Training{store: store, sessions: sessions, health: health, log: log}
}

func loadRecords(ctx context.Context, s storage.Store) ([]models.TrainingRecord, error) {
	var records []models.TrainingRecord
	if _, err := storage.GetJSON(ctx, s, models.RecordsKey, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func saveRecords(ctx context.Context, s storage.Store, records []models.TrainingRecord) error {
	return storage.SetJSON(ctx, s, models.RecordsKey, records)
}

func activeRecordFor(records []models.TrainingRecord, email string) int {
	norm := models.NormalizeEmail(email)
	for i, r := range records {
		if r.IsActive && models.NormalizeEmail(r.OwnerEmail) == norm {
			return i
		}
	}
	return -1
}

// Start opens a new training session. The caller must have a fit health
// declaration inside the freshness window and no session already open.
func (s *Training) Start(ctx context.Context, trainingType string) (models.TrainingRecord, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return models.TrainingRecord{}, err
	}
	if !models.ValidTrainingType(trainingType) {
		return models.TrainingRecord{}, ErrInvalidTrainingType
	}
	if err := s.health.EnsureFresh(ctx, user.Email); err != nil {
		return models.TrainingRecord{}, err
	}

	records, err := loadRecords(ctx, s.store)
	if err != nil {
		return models.TrainingRecord{}, err
	}
	if activeRecordFor(records, user.Email) >= 0 {
		return models.TrainingRecord{}, ErrSessionAlreadyActive
	}

	now := time.Now()
	rec := models.TrainingRecord{
		OwnerEmail:   models.NormalizeEmail(user.Email),
		TrainingType: trainingType,
		StartTime:    now,
		EndTime:      nil,
		Timestamp:    now,
		IsActive:     true,
	}
	records = append(records, rec)
	if err := saveRecords(ctx, s.store, records); err != nil {
		return models.TrainingRecord{}, err
	}
	s.log.Info("training started",
		zap.String("email", rec.OwnerEmail), zap.String("type", trainingType))
	return rec, nil
}

// ChangeType updates the active session's training type in place. With no
// active session it is a pure selection change: nothing is persisted and
// nil is returned.
func (s *Training) ChangeType(ctx context.Context, trainingType string) (*models.TrainingRecord, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !models.ValidTrainingType(trainingType) {
		return nil, ErrInvalidTrainingType
	}
	records, err := loadRecords(ctx, s.store)
	if err != nil {
		return nil, err
	}
	idx := activeRecordFor(records, user.Email)
	if idx < 0 {
		return nil, nil
	}
	records[idx].TrainingType = trainingType
	if err := saveRecords(ctx, s.store, records); err != nil {
		return nil, err
	}
	rec := records[idx]
	return &rec, nil
}

// End closes the caller's active session.
func (s *Training) End(ctx context.Context) (models.TrainingRecord, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return models.TrainingRecord{}, err
	}
	records, err := loadRecords(ctx, s.store)
	if err != nil {
		return models.TrainingRecord{}, err
	}
	idx := activeRecordFor(records, user.Email)
	if idx < 0 {
		return models.TrainingRecord{}, ErrNoActiveSession
	}
	now := time.Now()
	records[idx].EndTime = &now
	records[idx].IsActive = false
	if err := saveRecords(ctx, s.store, records); err != nil {
		return models.TrainingRecord{}, err
	}
	s.log.Info("training ended", zap.String("email", records[idx].OwnerEmail))
	return records[idx], nil
}

// Resume re-reads the store for a still-open session owned by the caller,
// so an in-progress session survives app restarts and re-login. Idempotent;
// returns nil when there is nothing to resume.
func (s *Training) Resume(ctx context.Context) (*models.TrainingRecord, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	records, err := loadRecords(ctx, s.store)
	if err != nil {
		return nil, err
	}
	idx := activeRecordFor(records, user.Email)
	if idx < 0 {
		return nil, nil
	}
	rec := records[idx]
	return &rec, nil
}

// ListOwn returns the caller's records newest first, or an empty list while
// the caller's hide flag is set. Records owned by other users never appear.
func (s *Training) ListOwn(ctx context.Context) ([]models.TrainingRecord, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	norm := models.NormalizeEmail(user.Email)

	flag, ok, err := s.store.Get(ctx, models.HideKey(norm))
	if err != nil {
		return nil, err
	}
	if ok && flag == "true" {
		return []models.TrainingRecord{}, nil
	}

	records, err := loadRecords(ctx, s.store)
	if err != nil {
		return nil, err
	}
	own := make([]models.TrainingRecord, 0, len(records))
	for _, r := range records {
		if models.NormalizeEmail(r.OwnerEmail) == norm {
			own = append(own, r)
		}
	}
	sort.Slice(own, func(i, j int) bool {
		return own[i].Timestamp.After(own[j].Timestamp)
	})
	return own, nil
}

// Hide sets the caller's hide flag; ListOwn returns nothing until Unhide.
// Underlying records are untouched and stay visible to admin reporting.
func (s *Training) Hide(ctx context.Context) error {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, models.HideKey(models.NormalizeEmail(user.Email)), "true")
}

// Unhide clears the caller's hide flag.
func (s *Training) Unhide(ctx context.Context) error {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return err
	}
	return s.store.Remove(ctx, models.HideKey(models.NormalizeEmail(user.Email)))
}

// FormatDuration renders a closed record's duration as HH:MM:SS in whole
// seconds. Open records have no duration.
func FormatDuration(rec models.TrainingRecord) string {
	if rec.EndTime == nil {
		return ""
	}
	total := int(rec.EndTime.Sub(rec.StartTime).Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
