package services

import (
	"context"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
)

// Sessions holds the device-wide active session: a cached snapshot of the
// profile that is currently logged in, persisted under the activeProfile
// key so it survives restarts. It is a snapshot, not a reference; it may go
// stale relative to the directory until the next login or role mutation
// refreshes it.
type Sessions struct {
	store storage.Store
	log   *zap.Logger
}

func NewSessions(store storage.Store, log *zap.Logger) *Sessions {
	return &Sessions{store: store, log: log}
}

// Current returns the active profile, or nil when nobody is logged in.
func (s *Sessions) Current(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	ok, err := storage.GetJSON(ctx, s.store, models.ActiveProfileKey, &p)
	if err != nil {
		return nil, err
	}
	if !ok || p.Email == "" {
		return nil, nil
	}
	return &p, nil
}

// Set replaces the active session with a full copy of p.
func (s *Sessions) Set(ctx context.Context, p models.UserProfile) error {
	return storage.SetJSON(ctx, s.store, models.ActiveProfileKey, p)
}

// Clear logs the device out unconditionally.
func (s *Sessions) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, models.ActiveProfileKey)
}

// requireUser returns the active profile or ErrNotLoggedIn.
func (s *Sessions) requireUser(ctx context.Context) (models.UserProfile, error) {
	p, err := s.Current(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}
	if p == nil {
		return models.UserProfile{}, ErrNotLoggedIn
	}
	return *p, nil
}

// requireAdmin returns the active profile when it carries the admin role.
func (s *Sessions) requireAdmin(ctx context.Context) (models.UserProfile, error) {
	p, err := s.requireUser(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !p.IsAdmin {
		return models.UserProfile{}, ErrUnauthorized
	}
	return p, nil
}
