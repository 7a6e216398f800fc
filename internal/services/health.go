package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
)

// Health evaluates daily screening questionnaires against the fixed
// fitness criteria and maintains the unfit-event logs.
type Health struct {
	store    storage.Store
	sessions *Sessions
	log      *zap.Logger
}

func NewHealth(store storage.Store, sessions *Sessions, log *zap.Logger) *Health {
	return &Health{store: store, sessions: sessions, log: log}
}

// SubmitResult reports the outcome of a declaration submission.
type SubmitResult struct {
	IsFit         bool  `json:"isFit"`
	FailedIndices []int `json:"failedIndices,omitempty"`
}

// Submit evaluates the answers. A fully matching declaration overwrites the
// user's current one. Any mismatch persists only an unfit event, to the
// per-user history and the global audit log, both newest first; the
// declaration itself is not saved in that branch.
func (s *Health) Submit(ctx context.Context, answers []string) (SubmitResult, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	if len(answers) != len(models.Questions) {
		return SubmitResult{}, ErrIncompleteAnswers
	}
	for _, a := range answers {
		if a != models.AnswerYes && a != models.AnswerNo {
			return SubmitResult{}, ErrIncompleteAnswers
		}
	}

	var failed []int
	for i, required := range models.RequiredAnswers {
		if answers[i] != required {
			failed = append(failed, i)
		}
	}

	norm := models.NormalizeEmail(user.Email)
	now := time.Now()

	if len(failed) > 0 {
		event := models.UnfitEvent{
			Timestamp:     now,
			Email:         norm,
			FailedIndices: failed,
			Answers:       answers,
			IsFit:         false,
		}
		if err := prependJSON(ctx, s.store, models.UnfitKey(norm), event); err != nil {
			return SubmitResult{}, err
		}

		summary := event
		summary.Answers = nil
		summary.Preview = failedPreview(failed)
		if err := prependJSON(ctx, s.store, models.UnfitLogKey, summary); err != nil {
			return SubmitResult{}, err
		}

		s.log.Info("unfit declaration",
			zap.String("email", norm), zap.Ints("failed", failed))
		return SubmitResult{IsFit: false, FailedIndices: failed}, nil
	}

	decl := models.HealthDeclaration{Timestamp: now, Answers: answers}
	if err := storage.SetJSON(ctx, s.store, models.HealthKey(norm), decl); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{IsFit: true}, nil
}

// Current returns the user's latest saved declaration, or nil when none
// exists.
func (s *Health) Current(ctx context.Context) (*models.HealthDeclaration, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.declarationFor(ctx, user.Email)
}

// UnfitHistory returns the user's unfit events, newest first.
func (s *Health) UnfitHistory(ctx context.Context) ([]models.UnfitEvent, error) {
	user, err := s.sessions.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	var events []models.UnfitEvent
	norm := models.NormalizeEmail(user.Email)
	if _, err := storage.GetJSON(ctx, s.store, models.UnfitKey(norm), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UnfitLog returns the global unfit audit log, newest first. Admin only.
func (s *Health) UnfitLog(ctx context.Context) ([]models.UnfitEvent, error) {
	if _, err := s.sessions.requireAdmin(ctx); err != nil {
		return nil, err
	}
	var events []models.UnfitEvent
	if _, err := storage.GetJSON(ctx, s.store, models.UnfitLogKey, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ClearUnfitLog wipes the global unfit audit log. Admin only.
func (s *Health) ClearUnfitLog(ctx context.Context) error {
	if _, err := s.sessions.requireAdmin(ctx); err != nil {
		return err
	}
	return s.store.Remove(ctx, models.UnfitLogKey)
}

// EnsureFresh is the gate the training tracker calls before starting a
// session: the user must have a complete saved declaration no older than
// the freshness window. Only fit declarations are ever saved, so presence
// plus age is the whole check.
func (s *Health) EnsureFresh(ctx context.Context, email string) error {
	decl, err := s.declarationFor(ctx, email)
	if err != nil {
		return err
	}
	if decl == nil || len(decl.Answers) == 0 {
		return ErrHealthCheckRequired
	}
	for _, a := range decl.Answers {
		if a != models.AnswerYes && a != models.AnswerNo {
			return ErrHealthCheckRequired
		}
	}
	if decl.Timestamp.IsZero() || time.Since(decl.Timestamp) > models.FreshnessWindow {
		return ErrHealthCheckStale
	}
	return nil
}

func (s *Health) declarationFor(ctx context.Context, email string) (*models.HealthDeclaration, error) {
	var decl models.HealthDeclaration
	norm := models.NormalizeEmail(email)
	ok, err := storage.GetJSON(ctx, s.store, models.HealthKey(norm), &decl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &decl, nil
}

// failedPreview lists up to three failed questions, 1-based, one per line.
func failedPreview(failed []int) string {
	limit := len(failed)
	if limit > 3 {
		limit = 3
	}
	lines := make([]string, 0, limit)
	for _, i := range failed[:limit] {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, models.Questions[i]))
	}
	return strings.Join(lines, "\n")
}

// prependJSON inserts value at the head of the list stored under key.
func prependJSON(ctx context.Context, s storage.Store, key string, value models.UnfitEvent) error {
	var list []models.UnfitEvent
	if _, err := storage.GetJSON(ctx, s, key, &list); err != nil {
		return err
	}
	list = append([]models.UnfitEvent{value}, list...)
	return storage.SetJSON(ctx, s, key, list)
}
