package models

import (
	"strings"
	"time"
)

// Persisted key names. These are stable: data written by earlier releases of
// the app lives under exactly these keys and must remain readable.
const (
	ProfilesKey      = "userProfiles"
	LegacyProfileKey = "userProfile" // single-profile key from early releases
	ActiveProfileKey = "activeProfile"
	RecordsKey       = "SFT_RECORDS"
	UnfitLogKey      = "HEALTH_UNFIT_LOG"
	AuditLogKey      = "ADMIN_AUDIT_LOG"

	hideKeyBase   = "SFT_HIDE_RECORDS"
	healthKeyBase = "healthData"
)

// HideKey returns the per-user sentinel key suppressing record display.
func HideKey(email string) string {
	return hideKeyBase + "_" + email
}

// HealthKey returns the per-user key holding the latest health declaration.
func HealthKey(email string) string {
	return healthKeyBase + "_" + email
}

// UnfitKey returns the per-user key holding the unfit-event history.
func UnfitKey(email string) string {
	return healthKeyBase + "_" + email + "_unfit"
}

// NormalizeEmail trims and lowercases an email. The normalized form is the
// canonical identity key everywhere: directory lookups, record ownership,
// per-user storage keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserProfile is one registered user. Email is immutable after registration.
// Password holds a one-way hex digest, never plaintext (legacy plaintext
// entries are migrated on first login).
type UserProfile struct {
	Email         string `json:"email"`
	Password      string `json:"password,omitempty"`
	Rank          string `json:"rank,omitempty"`
	FullName      string `json:"fullName,omitempty"`
	NRIC          string `json:"nric,omitempty"`
	ParentUnit    string `json:"parentUnit,omitempty"`
	SubUnit       string `json:"subUnit,omitempty"`
	CourseCode    string `json:"courseCode,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
	PESStatus     string `json:"pesStatus,omitempty"`
	IsAdmin       bool   `json:"isAdmin"`
}

// Sanitized returns a copy safe to hand back to clients.
func (p UserProfile) Sanitized() UserProfile {
	p.Password = ""
	return p
}

// TrainingTypes are the selectable session types.
var TrainingTypes = []string{"Run", "Swim", "Gym", "Metabolic Exercise"}

// ValidTrainingType reports whether t is one of TrainingTypes.
func ValidTrainingType(t string) bool {
	for _, v := range TrainingTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TrainingRecord is one training session. Timestamp is set at creation and
// doubles as the record's identity for in-place updates. At most one record
// per owner has IsActive true at any time.
type TrainingRecord struct {
	OwnerEmail   string     `json:"ownerEmail"`
	TrainingType string     `json:"trainingType"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	Timestamp    time.Time  `json:"timestamp"`
	IsActive     bool       `json:"isActive"`
}

// Closed reports whether the session has ended.
func (r TrainingRecord) Closed() bool {
	return r.EndTime != nil || !r.IsActive
}

// Answer values for health declaration questions. An empty string marks an
// unanswered question (stored null in legacy data decodes to "").
const (
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

// HealthDeclaration is a user's latest submitted declaration. Only fit
// declarations are persisted; unfit submissions go to the unfit logs.
type HealthDeclaration struct {
	Timestamp time.Time `json:"timestamp"`
	Answers   []string  `json:"answers"`
}

// FreshnessWindow is how long a fit declaration authorizes starting a
// training session.
const FreshnessWindow = 10 * time.Minute

// UnfitEvent is an append-only log entry written when a declaration fails
// the fitness criteria. The per-user history carries the full answers; the
// global log carries a preview of the failed questions instead.
type UnfitEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Email         string    `json:"email"`
	FailedIndices []int     `json:"failedIndices"`
	Answers       []string  `json:"answers,omitempty"`
	IsFit         bool      `json:"isFit"`
	Preview       string    `json:"preview,omitempty"`
}

// AdminAuditEntry is one privileged action, newest first in storage.
type AdminAuditEntry struct {
	Action     string    `json:"action"`
	AdminEmail string    `json:"adminEmail"`
	Timestamp  time.Time `json:"timestamp"`
}

// Questions is the fixed health declaration questionnaire, in order.
var Questions = []string{
	"Have you ever experienced a diagnosis of/treatment for heart disease or stroke, or pain/discomfort/pressure in your chest during activities of daily living or during your physical activity within the past 6 months?",
	"Have you ever experienced a diagnosis of/treatment for high blood pressure (BP), or a resting BP of 160/90 mmHg or higher within the past 6 months?",
	"Have you ever experience dizziness or light-headedness during physical activity within the past 6 months?",
	"Have you ever experienced loss of consciousness/fainting for any reason within the past 6 months?",
	"Do you currently have pain or swelling in any part of your body (e.g. from an injury, acute flare-up of arthritis, or back pain) that affects your ability to be physically active?",
	"Has a Healthcare provider told you that you should avoid or modify certain types of physical activity?",
	"Do you have any other medical or physical conditions (such as diabetes, cancer, osteoporosis, asthma, spinal cord injury) that may affect your ability to be physically active?",
	"Have you drank beyond point of thirst?",
	"Do you have any medical excuse, pre-existing medical condition or injury that prevents you from taking part in the activity?",
	"Are you feeling unwell? Example, flu, diarrhea or vomiting in the past 24 hours?",
	"Do you have at least 7 hours of uninterrupted rest?",
	"Is your temperature 37.5°C or higher?",
	"Do you have underlying medical conditions that require medical aid for you to train safely? For example, Asthmatic personnel.",
}

// RequiredAnswers is the per-question vector a declaration must match to be
// fit to train.
var RequiredAnswers = []string{
	AnswerNo, AnswerNo, AnswerNo, AnswerNo, AnswerNo, AnswerNo, AnswerNo,
	AnswerYes, AnswerNo, AnswerNo, AnswerYes, AnswerNo, AnswerNo,
}
