package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"mysft/internal/models"
	"mysft/internal/storage"
)

// Audit keeps the append-only admin action log and produces the daily
// session reports.
type Audit struct {
	store    storage.Store
	sessions *Sessions
	log      *zap.Logger
}

func NewAudit(store storage.Store, sessions *Sessions, log *zap.Logger) *Audit {
	return &Audit{store: store, sessions: sessions, log: log}
}

// Record prepends an entry to the audit log with the acting session's email
// and the current time. Best-effort: a failed write is logged and never
// surfaced, so audit persistence can't fail the action it describes.
func (a *Audit) Record(ctx context.Context, action string) {
	adminEmail := "unknown"
	if active, err := a.sessions.Current(ctx); err == nil && active != nil {
		adminEmail = models.NormalizeEmail(active.Email)
	}
	entry := models.AdminAuditEntry{
		Action:     action,
		AdminEmail: adminEmail,
		Timestamp:  time.Now(),
	}

	var entries []models.AdminAuditEntry
	if _, err := storage.GetJSON(ctx, a.store, models.AuditLogKey, &entries); err != nil {
		a.log.Warn("audit read failed", zap.String("action", action), zap.Error(err))
		return
	}
	entries = append([]models.AdminAuditEntry{entry}, entries...)
	if err := storage.SetJSON(ctx, a.store, models.AuditLogKey, entries); err != nil {
		a.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// Log returns the audit log, newest first. Admin only.
func (a *Audit) Log(ctx context.Context) ([]models.AdminAuditEntry, error) {
	if _, err := a.sessions.requireAdmin(ctx); err != nil {
		return nil, err
	}
	var entries []models.AdminAuditEntry
	if _, err := storage.GetJSON(ctx, a.store, models.AuditLogKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReportRecord is a training record enriched with the owning profile's
// display fields, looked up at query time.
type ReportRecord struct {
	models.TrainingRecord
	OwnerRank       string `json:"ownerRank"`
	OwnerName       string `json:"ownerName"`
	OwnerParentUnit string `json:"ownerParentUnit"`
	OwnerSubUnit    string `json:"ownerSubUnit"`
	OwnerContact    string `json:"ownerContact"`
	Duration        string `json:"duration,omitempty"`
}

// ClosedSortField selects the closed-report sort key.
type ClosedSortField string

const (
	SortByTimestamp ClosedSortField = "timestamp"
	SortByStart     ClosedSortField = "start"
	SortByEnd       ClosedSortField = "end"
)

// TodayReport partitions today's records into open and closed sessions.
type TodayReport struct {
	Open   []ReportRecord `json:"open"`
	Closed []ReportRecord `json:"closed"`
}

// Today builds the report for the current local calendar day. Both lists
// default to newest first; the closed list is re-sorted by the given field
// and direction when one other than the timestamp default is requested.
// Admin only.
func (a *Audit) Today(ctx context.Context, sortBy ClosedSortField, asc bool) (TodayReport, error) {
	if _, err := a.sessions.requireAdmin(ctx); err != nil {
		return TodayReport{}, err
	}

	records, err := loadRecords(ctx, a.store)
	if err != nil {
		return TodayReport{}, err
	}
	profiles, err := loadDirectory(ctx, a.store)
	if err != nil {
		return TodayReport{}, err
	}
	byEmail := make(map[string]models.UserProfile, len(profiles))
	for _, p := range profiles {
		byEmail[models.NormalizeEmail(p.Email)] = p
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	report := TodayReport{Open: []ReportRecord{}, Closed: []ReportRecord{}}
	for _, r := range records {
		if r.Timestamp.Before(dayStart) || !r.Timestamp.Before(dayEnd) {
			continue
		}
		enriched := ReportRecord{TrainingRecord: r, Duration: FormatDuration(r)}
		if p, ok := byEmail[models.NormalizeEmail(r.OwnerEmail)]; ok {
			enriched.OwnerRank = p.Rank
			enriched.OwnerName = p.FullName
			enriched.OwnerParentUnit = p.ParentUnit
			enriched.OwnerSubUnit = p.SubUnit
			enriched.OwnerContact = p.ContactNumber
		}
		if r.Closed() {
			report.Closed = append(report.Closed, enriched)
		} else {
			report.Open = append(report.Open, enriched)
		}
	}

	newestFirst := func(rs []ReportRecord) {
		sort.Slice(rs, func(i, j int) bool {
			return rs[i].Timestamp.After(rs[j].Timestamp)
		})
	}
	newestFirst(report.Open)
	newestFirst(report.Closed)

	if sortBy == SortByStart || sortBy == SortByEnd {
		key := func(r ReportRecord) time.Time {
			if sortBy == SortByStart {
				if !r.StartTime.IsZero() {
					return r.StartTime
				}
			} else if r.EndTime != nil {
				return *r.EndTime
			}
			return r.Timestamp
		}
		sort.Slice(report.Closed, func(i, j int) bool {
			if asc {
				return key(report.Closed[i]).Before(key(report.Closed[j]))
			}
			return key(report.Closed[j]).Before(key(report.Closed[i]))
		})
	}

	return report, nil
}

// ClearRecordsFor removes every training record owned by the normalized
// email and clears that user's hide flag. Admin only, audit-logged.
func (a *Audit) ClearRecordsFor(ctx context.Context, email string) error {
	if _, err := a.sessions.requireAdmin(ctx); err != nil {
		return err
	}
	norm := models.NormalizeEmail(email)
	if norm == "" {
		return ErrNoSuchUser
	}

	records, err := loadRecords(ctx, a.store)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if models.NormalizeEmail(r.OwnerEmail) != norm {
			kept = append(kept, r)
		}
	}
	if err := saveRecords(ctx, a.store, kept); err != nil {
		return err
	}
	if err := a.store.Remove(ctx, models.HideKey(norm)); err != nil {
		a.log.Warn("failed to clear hide flag", zap.String("email", norm), zap.Error(err))
	}
	a.Record(ctx, "clear_records_"+norm)
	return nil
}
