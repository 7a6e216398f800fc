package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
)

// Profiles is the user directory: CRUD over the profile list, role
// mutation, and lookup. Every mutating operation except a user's own
// Update requires an admin session and records an audit entry.
type Profiles struct {
	store    storage.Store
	sessions *Sessions
	audit    *Audit
	log      *zap.Logger
}

func NewProfiles(store storage.Store, sessions *Sessions, audit *Audit, log *zap.Logger) *Profiles {
	return &Profiles{store: store, sessions: sessions, audit: audit, log: log}
}

// loadDirectory returns the profile list, falling back to the legacy
// single-profile key when the list is empty. Startup migration normally
// merges the legacy key away; the fallback covers stores that have not been
// migrated yet.
func loadDirectory(ctx context.Context, s storage.Store) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if _, err := storage.GetJSON(ctx, s, models.ProfilesKey, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		var legacy models.UserProfile
		ok, err := storage.GetJSON(ctx, s, models.LegacyProfileKey, &legacy)
		if err != nil {
			return nil, err
		}
		if ok && legacy.Email != "" {
			profiles = []models.UserProfile{legacy}
		}
	}
	return profiles, nil
}

func saveDirectory(ctx context.Context, s storage.Store, profiles []models.UserProfile) error {
	return storage.SetJSON(ctx, s, models.ProfilesKey, profiles)
}

func findProfile(profiles []models.UserProfile, email string) int {
	norm := models.NormalizeEmail(email)
	for i, p := range profiles {
		if models.NormalizeEmail(p.Email) == norm {
			return i
		}
	}
	return -1
}

func sortByEmail(profiles []models.UserProfile) {
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Email < profiles[j].Email
	})
}

// FindByEmail returns the profile for the normalized email.
func (s *Profiles) FindByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return models.UserProfile{}, err
	}
	idx := findProfile(profiles, email)
	if idx < 0 {
		return models.UserProfile{}, ErrNoSuchUser
	}
	return profiles[idx], nil
}

// List returns all registered profiles sorted by email ascending. Admin only.
func (s *Profiles) List(ctx context.Context) ([]models.UserProfile, error) {
	if _, err := s.sessions.requireAdmin(ctx); err != nil {
		return nil, err
	}
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return nil, err
	}
	sortByEmail(profiles)
	return profiles, nil
}

// Search returns profiles whose email or full name contains term,
// case-insensitive, sorted by email ascending. Admin only.
func (s *Profiles) Search(ctx context.Context, term string) ([]models.UserProfile, error) {
	if _, err := s.sessions.requireAdmin(ctx); err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return nil, err
	}
	var matches []models.UserProfile
	for _, p := range profiles {
		email := strings.ToLower(p.Email)
		name := strings.ToLower(p.FullName)
		if strings.Contains(email, term) || strings.Contains(name, term) {
			matches = append(matches, p)
		}
	}
	sortByEmail(matches)
	return matches, nil
}

// Update replaces the logged-in user's own directory entry and refreshes
// the active session to match. Email stays immutable, the stored credential
// is preserved, and the admin flag cannot be self-granted.
func (s *Profiles) Update(ctx context.Context, draft models.UserProfile) (models.UserProfile, error) {
	current, err := s.sessions.requireUser(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return models.UserProfile{}, err
	}
	idx := findProfile(profiles, current.Email)
	if idx < 0 {
		return models.UserProfile{}, ErrNoSuchUser
	}

	updated := draft
	updated.Email = models.NormalizeEmail(current.Email)
	updated.Password = profiles[idx].Password
	updated.IsAdmin = profiles[idx].IsAdmin
	profiles[idx] = updated

	if err := saveDirectory(ctx, s.store, profiles); err != nil {
		return models.UserProfile{}, err
	}
	if err := s.sessions.Set(ctx, updated); err != nil {
		return models.UserProfile{}, err
	}
	return updated, nil
}

// SetAdminFlag grants or revokes the admin role. When the target is the
// active session, the session snapshot is refreshed so the change takes
// effect immediately.
func (s *Profiles) SetAdminFlag(ctx context.Context, email string, value bool) error {
	admin, err := s.sessions.requireAdmin(ctx)
	if err != nil {
		return err
	}
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return err
	}
	idx := findProfile(profiles, email)
	if idx < 0 {
		return ErrNoSuchUser
	}
	profiles[idx].IsAdmin = value
	if err := saveDirectory(ctx, s.store, profiles); err != nil {
		return err
	}

	norm := models.NormalizeEmail(email)
	if models.NormalizeEmail(admin.Email) == norm {
		if err := s.sessions.Set(ctx, profiles[idx]); err != nil {
			return err
		}
	} else if active, err := s.sessions.Current(ctx); err == nil && active != nil &&
		models.NormalizeEmail(active.Email) == norm {
		if err := s.sessions.Set(ctx, profiles[idx]); err != nil {
			return err
		}
	}

	action := "grant_admin_" + norm
	if !value {
		action = "revoke_admin_" + norm
	}
	s.audit.Record(ctx, action)
	return nil
}

// Delete removes a profile. The target's hide flag goes with it; training
// records and health data are left behind as orphans, clearable through the
// admin clear-records operation.
func (s *Profiles) Delete(ctx context.Context, email string) error {
	if _, err := s.sessions.requireAdmin(ctx); err != nil {
		return err
	}
	profiles, err := loadDirectory(ctx, s.store)
	if err != nil {
		return err
	}
	idx := findProfile(profiles, email)
	if idx < 0 {
		return ErrNoSuchUser
	}
	norm := models.NormalizeEmail(email)
	profiles = append(profiles[:idx], profiles[idx+1:]...)
	if err := saveDirectory(ctx, s.store, profiles); err != nil {
		return err
	}

	if active, err := s.sessions.Current(ctx); err == nil && active != nil &&
		models.NormalizeEmail(active.Email) == norm {
		if err := s.sessions.Clear(ctx); err != nil {
			return err
		}
	}
	if err := s.store.Remove(ctx, models.HideKey(norm)); err != nil {
		s.log.Warn("failed to remove hide flag for deleted user",
			zap.String("email", norm), zap.Error(err))
	}
	s.audit.Record(ctx, "delete_user_"+norm)
	return nil
}

// EditAs points the active session at another user's profile so an admin
// can edit it through the normal profile operations.
func (s *Profiles) EditAs(ctx context.Context, email string) (models.UserProfile, error) {
	if _, err := s.sessions.requireAdmin(ctx); err != nil {
		return models.UserProfile{}, err
	}
	target, err := s.FindByEmail(ctx, email)
	if err != nil {
		return models.UserProfile{}, err
	}
	if err := s.sessions.Set(ctx, target); err != nil {
		return models.UserProfile{}, err
	}
	s.audit.Record(ctx, "edit_as_"+models.NormalizeEmail(email))
	return target, nil
}
