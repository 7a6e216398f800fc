package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"mysft/internal/models"
)

// Field aliases left behind by older app versions that wrote profiles with
// inconsistent key names. Normalized once here; business code only ever
// sees the canonical schema.
var profileAliases = map[string][]string{
	"parentUnit":    {"parent", "parent_unit", "parentunit"},
	"subUnit":       {"sub_unit", "subunit", "unit", "unitName"},
	"contactNumber": {"contact"},
	"fullName":      {"name"},
}

// Migrate runs the one-time startup reconciliation under the single-writer
// guarantee:
//
//  1. merges the legacy single-profile key into the profile list when the
//     list is empty or absent;
//  2. normalizes aliased profile field names to the canonical schema;
//  3. stamps training records that lack an ownerEmail with the active
//     profile's email, when a session exists.
//
// Idempotent: a second run finds nothing left to change.
func Migrate(ctx context.Context, s Store, log *zap.Logger) error {
	if err := migrateProfiles(ctx, s, log); err != nil {
		return err
	}
	return backfillRecordOwners(ctx, s, log)
}

func migrateProfiles(ctx context.Context, s Store, log *zap.Logger) error {
	var rawProfiles []map[string]any
	_, err := GetJSON(ctx, s, models.ProfilesKey, &rawProfiles)
	if err != nil {
		return err
	}

	changed := false

	if len(rawProfiles) == 0 {
		var legacy map[string]any
		ok, err := GetJSON(ctx, s, models.LegacyProfileKey, &legacy)
		if err != nil {
			return err
		}
		if ok && legacy != nil {
			rawProfiles = []map[string]any{legacy}
			changed = true
			log.Info("migrated legacy single profile into profile list")
		}
	}

	for _, p := range rawProfiles {
		if normalizeProfileAliases(p) {
			changed = true
		}
	}

	if !changed {
		return nil
	}

	// Re-encode through the canonical struct so stale alias keys and any
	// other junk fields are dropped for good.
	raw, err := json.Marshal(rawProfiles)
	if err != nil {
		return fmt.Errorf("encode %s: %w", models.ProfilesKey, err)
	}
	var profiles []models.UserProfile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return fmt.Errorf("decode %s: %w", models.ProfilesKey, err)
	}
	if err := SetJSON(ctx, s, models.ProfilesKey, profiles); err != nil {
		return err
	}
	log.Info("normalized profile directory", zap.Int("profiles", len(profiles)))
	return nil
}

// normalizeProfileAliases moves aliased fields onto their canonical names.
// The canonical field wins when both are present.
func normalizeProfileAliases(p map[string]any) bool {
	changed := false
	for canonical, aliases := range profileAliases {
		for _, alias := range aliases {
			val, ok := p[alias]
			if !ok {
				continue
			}
			if cur, has := p[canonical]; !has || cur == "" || cur == nil {
				if str, isStr := val.(string); isStr && str != "" {
					p[canonical] = str
				}
			}
			delete(p, alias)
			changed = true
		}
	}
	return changed
}

func backfillRecordOwners(ctx context.Context, s Store, log *zap.Logger) error {
	var records []map[string]any
	ok, err := GetJSON(ctx, s, models.RecordsKey, &records)
	if err != nil {
		return err
	}
	if !ok || len(records) == 0 {
		return nil
	}

	orphans := 0
	for _, r := range records {
		if owner, has := r["ownerEmail"]; !has || owner == nil || owner == "" {
			orphans++
		}
	}
	if orphans == 0 {
		return nil
	}

	var active models.UserProfile
	haveSession, err := GetJSON(ctx, s, models.ActiveProfileKey, &active)
	if err != nil {
		return err
	}
	if !haveSession || active.Email == "" {
		// No owner to assign; left for a later start with a session.
		log.Warn("training records without owner left unmigrated",
			zap.Int("orphans", orphans))
		return nil
	}

	owner := models.NormalizeEmail(active.Email)
	for _, r := range records {
		if cur, has := r["ownerEmail"]; !has || cur == nil || cur == "" {
			r["ownerEmail"] = owner
		}
	}
	if err := SetJSON(ctx, s, models.RecordsKey, records); err != nil {
		return err
	}
	log.Info("backfilled training record owners",
		zap.Int("orphans", orphans), zap.String("owner", owner))
	return nil
}
