package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
)

type testEnv struct {
	store    *storage.MemStore
	sessions *Sessions
	identity *Identity
	profiles *Profiles
	health   *Health
	training *Training
	audit    *Audit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemStore()
	log := zap.NewNop()
	sessions := NewSessions(store, log)
	audit := NewAudit(store, sessions, log)
	env := &testEnv{
		store:    store,
		sessions: sessions,
		audit:    audit,
		identity: NewIdentity(store, sessions, audit, log),
		profiles: NewProfiles(store, sessions, audit, log),
	}
	env.health = NewHealth(store, sessions, log)
	env.training = NewTraining(store, sessions, env.health, log)
	return env
}

// register creates a user through the normal path and returns the stored
// profile.
func (e *testEnv) register(t *testing.T, email, password string) models.UserProfile {
	t.Helper()
	p, err := e.identity.Register(context.Background(), models.UserProfile{
		Email:    email,
		Password: password,
		FullName: "Test User " + email,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return p
}

// login runs the normal login path.
func (e *testEnv) login(t *testing.T, email, password string) models.UserProfile {
	t.Helper()
	p, err := e.identity.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return p
}

// makeAdmin flips the admin flag directly in the directory, bypassing the
// authorization check, to bootstrap admin scenarios.
func (e *testEnv) makeAdmin(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	profiles, err := loadDirectory(ctx, e.store)
	if err != nil {
		t.Fatalf("load directory: %v", err)
	}
	idx := findProfile(profiles, email)
	if idx < 0 {
		t.Fatalf("makeAdmin: %s not registered", email)
	}
	profiles[idx].IsAdmin = true
	if err := saveDirectory(ctx, e.store, profiles); err != nil {
		t.Fatalf("save directory: %v", err)
	}
	if active, _ := e.sessions.Current(ctx); active != nil &&
		models.NormalizeEmail(active.Email) == models.NormalizeEmail(email) {
		if err := e.sessions.Set(ctx, profiles[idx]); err != nil {
			t.Fatalf("refresh session: %v", err)
		}
	}
}

// submitFit stores a fresh fit declaration for the logged-in user.
func (e *testEnv) submitFit(t *testing.T) {
	t.Helper()
	answers := append([]string(nil), models.RequiredAnswers...)
	res, err := e.health.Submit(context.Background(), answers)
	if err != nil {
		t.Fatalf("submit fit declaration: %v", err)
	}
	if !res.IsFit {
		t.Fatalf("expected fit result, got failed indices %v", res.FailedIndices)
	}
}
