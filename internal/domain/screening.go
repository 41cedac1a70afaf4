package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScreeningType identifies what kind of subject was screened
type ScreeningType string

const (
	ScreeningTypeCustomer        ScreeningType = "customer"
	ScreeningTypeTransaction     ScreeningType = "transaction"
	ScreeningTypeBeneficialOwner ScreeningType = "beneficial_owner"
)

// ScreeningSubject is the input to a sanctions screening call.
type ScreeningSubject struct {
	SubjectID   string        `json:"id"`
	Name        string        `json:"name"`
	DateOfBirth string        `json:"date_of_birth,omitempty"`
	Country     string        `json:"country,omitempty"`
	Type        ScreeningType `json:"type,omitempty"`
}

// ScreeningVerdict is the raw answer from a sanctions screening provider.
// Degraded is set by the fallback wrapper when the provider was unavailable
// and the verdict is a conservative default rather than a real screening.
type ScreeningVerdict struct {
	Match        bool     `json:"match"`
	Score        float64  `json:"score"` // 0.0 - 1.0
	MatchedNames []string `json:"matched_names,omitempty"`
	ListsMatched []string `json:"lists_matched,omitempty"` // SDN, Non-SDN, etc.
	Action       string   `json:"action,omitempty"`        // continue, block, manual_review
	Notes        string   `json:"notes,omitempty"`
	Degraded     bool     `json:"degraded,omitempty"`
}

// SanctionsScreeningResult is the immutable record of one screening
// invocation. Re-screening a subject always produces a new record.
type SanctionsScreeningResult struct {
	ScreeningID          uuid.UUID     `json:"screening_id" db:"screening_id"`
	SubjectID            string        `json:"subject_id" db:"subject_id"`
	ScreeningDate        time.Time     `json:"screening_date" db:"screening_date"`
	ScreeningType        ScreeningType `json:"screening_type" db:"screening_type"`
	Match                bool          `json:"match" db:"match"`
	MatchScore           float64       `json:"match_score" db:"match_score"`
	MatchedNames         []string      `json:"matched_names,omitempty" db:"matched_names"`
	ListsMatched         []string      `json:"lists_matched,omitempty" db:"lists_matched"`
	ActionTaken          string        `json:"action_taken" db:"action_taken"`
	RequiresManualReview bool          `json:"requires_manual_review" db:"requires_manual_review"`
	ClearedBy            string        `json:"cleared_by,omitempty" db:"cleared_by"`
	ClearanceDate        *time.Time    `json:"clearance_date,omitempty" db:"clearance_date"`
	Notes                string        `json:"notes,omitempty" db:"notes"`
	Error                string        `json:"error,omitempty" db:"-"`
}
