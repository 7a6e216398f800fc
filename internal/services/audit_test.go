package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mysft/internal/models"
	"mysft/internal/storage"
)

func TestRecordPrependsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com", "pw")
	env.login(t, "alice@example.com", "pw")
	env.makeAdmin(t, "alice@example.com")

	env.audit.Record(ctx, "first")
	env.audit.Record(ctx, "second")

	entries, err := env.audit.Log(ctx)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "second" || entries[1].Action != "first" {
		t.Fatalf("not newest first: %v", entries)
	}
	if entries[0].AdminEmail != "alice@example.com" {
		t.Fatalf("actor = %q", entries[0].AdminEmail)
	}
}

func TestRecordWithoutSessionUsesUnknownActor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.audit.Record(ctx, "orphan_action")

	var entries []models.AdminAuditEntry
	if _, err := storage.GetJSON(ctx, env.store, models.AuditLogKey, &entries); err != nil {
		t.Fatalf("load audit log: %v", err)
	}
	if len(entries) != 1 || entries[0].AdminEmail != "unknown" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestAuditLogRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com", "pw")
	env.login(t, "alice@example.com", "pw")

	if _, err := env.audit.Log(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// seedTodayRecords stores a fixed mix of open and closed records for the
// current day plus one record from yesterday that must never appear.
func seedTodayRecords(t *testing.T, env *testEnv) {
	t.Helper()
	now := time.Now()
	e1 := now.Add(-time.Hour)
	e2 := now.Add(-10 * time.Minute)
	yesterday := now.Add(-26 * time.Hour)
	yesterdayEnd := yesterday.Add(time.Hour)

	records := []models.TrainingRecord{
		{OwnerEmail: "bob@example.com", TrainingType: "Run",
			StartTime: now.Add(-2 * time.Hour), EndTime: &e1, Timestamp: now.Add(-2 * time.Hour)},
		{OwnerEmail: "bob@example.com", TrainingType: "Gym",
			StartTime: now.Add(-30 * time.Minute), EndTime: &e2, Timestamp: now.Add(-30 * time.Minute)},
		{OwnerEmail: "carol@example.com", TrainingType: "Swim",
			StartTime: now.Add(-5 * time.Minute), Timestamp: now.Add(-5 * time.Minute), IsActive: true},
		{OwnerEmail: "bob@example.com", TrainingType: "Run",
			StartTime: yesterday, EndTime: &yesterdayEnd, Timestamp: yesterday},
	}
	if err := storage.SetJSON(context.Background(), env.store, models.RecordsKey, records); err != nil {
		t.Fatalf("seed records: %v", err)
	}
}

func TestTodayPartitionsAndEnriches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com", "pw")
	env.register(t, "bob@example.com", "pw")
	env.login(t, "alice@example.com", "pw")
	env.makeAdmin(t, "alice@example.com")
	seedTodayRecords(t, env)

	report, err := env.audit.Today(ctx, SortByTimestamp, false)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(report.Open) != 1 || len(report.Closed) != 2 {
		t.Fatalf("partition: open=%d closed=%d", len(report.Open), len(report.Closed))
	}
	if report.Open[0].OwnerEmail != "carol@example.com" {
		t.Fatalf("open record = %+v", report.Open[0])
	}
	// Carol has no profile, so her report row has no display fields.
	if report.Open[0].OwnerName != "" {
		t.Fatalf("unexpected enrichment for orphan: %q", report.Open[0].OwnerName)
	}
	for _, r := range report.Closed {
		if r.OwnerName == "" {
			t.Fatalf("closed record not enriched: %+v", r)
		}
		if r.Duration == "" {
			t.Fatalf("closed record has no duration: %+v", r)
		}
	}
	// Newest first by default.
	if report.Closed[0].Timestamp.Before(report.Closed[1].Timestamp) {
		t.Fatal("closed list not newest first")
	}
}

func TestTodaySortsClosedByEndAscending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com", "pw")
	env.login(t, "alice@example.com", "pw")
	env.makeAdmin(t, "alice@example.com")
	seedTodayRecords(t, env)

	report, err := env.audit.Today(ctx, SortByEnd, true)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(report.Closed) != 2 {
		t.Fatalf("closed = %d", len(report.Closed))
	}
	if report.Closed[0].EndTime.After(*report.Closed[1].EndTime) {
		t.Fatal("closed list not ascending by end time")
	}
}

func TestTodayRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com", "pw")
	env.login(t, "alice@example.com", "pw")

	if _, err := env.audit.Today(context.Background(), SortByTimestamp, false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClearRecordsForRemovesOnlyTargetOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com", "pw")
	env.login(t, "alice@example.com", "pw")
	env.makeAdmin(t, "alice@example.com")
	seedTodayRecords(t, env)

	if err := env.store.Set(ctx, models.HideKey("bob@example.com"), "true"); err != nil {
		t.Fatalf("seed hide flag: %v", err)
	}

	if err := env.audit.ClearRecordsFor(ctx, "Bob@Example.com"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	records, err := loadRecords(ctx, env.store)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(records))
	}
	if records[0].OwnerEmail != "carol@example.com" {
		t.Fatalf("survivor = %+v", records[0])
	}
	if _, ok, _ := env.store.Get(ctx, models.HideKey("bob@example.com")); ok {
		t.Fatal("hide flag must be cleared")
	}
	if actions := auditActions(t, env); actions[0] != "clear_records_bob@example.com" {
		t.Fatalf("unexpected audit head: %v", actions)
	}
}

func TestClearRecordsForRejectsEmptyEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com", "pw")
	env.login(t, "alice@example.com", "pw")
	env.makeAdmin(t, "alice@example.com")

	err := env.audit.ClearRecordsFor(context.Background(), "   ")
	if !errors.Is(err, ErrNoSuchUser) {
		t.Fatalf("expected ErrNoSuchUser, got %v", err)
	}
}
