package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
	"mysft/pkg/utils"
)

// Identity handles registration, login verification with legacy credential
// migration, and logout.
type Identity struct {
	store    storage.Store
	sessions *Sessions
	audit    *Audit
	log      *zap.Logger
}

func NewIdentity(store storage.Store, sessions *Sessions, audit *Audit, log *zap.Logger) *Identity {
	return &Identity{store: store, sessions: sessions, audit: audit, log: log}
}

// Register adds a new profile to the directory. The email is normalized and
// must not already exist; the password is stored as a one-way digest; the
// admin flag is forced off no matter what the draft carries. Registration
// never logs the new user in.
func (s *Identity) Register(ctx context.Context, draft models.UserProfile) (models.UserProfile, error) {
	norm := models.NormalizeEmail(draft.Email)
	if norm == "" || draft.Password == "" {
		return models.UserProfile{}, ErrInvalidCredential
	}

	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return models.UserProfile{}, err
	}
	if findProfile(profiles, norm) >= 0 {
		return models.UserProfile{}, ErrDuplicateEmail
	}

	draft.Email = norm
	draft.Password = utils.HashPassword(draft.Password)
	draft.IsAdmin = false
	profiles = append(profiles, draft)

	if err := saveDirectory(ctx, s.store, profiles); err != nil {
		return models.UserProfile{}, err
	}
	s.log.Info("registered user", zap.String("email", norm))
	return draft.Sanitized(), nil
}

// Login verifies credentials and, on success, writes the matched profile
// into the active session. Legacy plaintext credentials are re-hashed and
// persisted in passing; the attempt is then accepted on either the digest
// match or plaintext equality with the original stored value.
func (s *Identity) Login(ctx context.Context, email, password string) (models.UserProfile, error) {
	norm := models.NormalizeEmail(email)
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return models.UserProfile{}, err
	}
	idx := findProfile(profiles, norm)
	if idx < 0 {
		return models.UserProfile{}, ErrNoSuchUser
	}

	inputHash := utils.HashPassword(password)
	stored := profiles[idx].Password

	if stored != "" && !utils.IsHashed(stored) {
		profiles[idx].Password = utils.HashPassword(stored)
		if err := saveDirectory(ctx, s.store, profiles); err != nil {
			return models.UserProfile{}, err
		}
		s.log.Info("migrated plaintext credential", zap.String("email", norm))
	}

	plaintextMatch := stored != "" && stored == strings.TrimSpace(password)
	hashMatch := profiles[idx].Password == inputHash
	if !plaintextMatch && !hashMatch {
		return models.UserProfile{}, ErrInvalidCredential
	}

	if err := s.sessions.Set(ctx, profiles[idx]); err != nil {
		return models.UserProfile{}, err
	}
	s.log.Info("login", zap.String("email", norm))
	return profiles[idx].Sanitized(), nil
}

// Logout clears the active session unconditionally. Admin logouts leave an
// audit trail.
func (s *Identity) Logout(ctx context.Context) error {
	active, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if active != nil && active.IsAdmin {
		s.audit.Record(ctx, "admin_logout")
	}
	return s.sessions.Clear(ctx)
}
