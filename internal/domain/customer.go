package domain

import (
	"time"
)

// VerificationStatus represents the outcome of identity document verification
type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationPending  VerificationStatus = "pending"
	VerificationFailed   VerificationStatus = "failed"
)

// RiskLevel represents the AML risk classification of a customer
type RiskLevel string

const (
	RiskLevelLow        RiskLevel = "low"
	RiskLevelMedium     RiskLevel = "medium"
	RiskLevelHigh       RiskLevel = "high"
	RiskLevelProhibited RiskLevel = "prohibited"
)

// AllRiskLevels enumerates every risk level in ascending severity.
// Report generation iterates this so distributions always carry zero counts.
var AllRiskLevels = []RiskLevel{
	RiskLevelLow,
	RiskLevelMedium,
	RiskLevelHigh,
	RiskLevelProhibited,
}

// BeneficialOwner is an individual with a reportable ownership stake in a
// legal-entity customer. Ownership is a fraction in [0,1].
type BeneficialOwner struct {
	Name                 string  `json:"name"`
	OwnershipFraction    float64 `json:"ownership_fraction"`
	DateOfBirth          string  `json:"date_of_birth,omitempty"`
	IdentificationType   string  `json:"identification_type,omitempty"`
	IdentificationNumber string  `json:"identification_number,omitempty"`
	Address              string  `json:"address,omitempty"`
}

// CustomerData is the caller-supplied input to the Customer Identification
// Program workflow. The customer id is optional; one is generated when absent.
// Callers are expected to pre-validate field formats.
type CustomerData struct {
	CustomerID           string            `json:"customer_id,omitempty"`
	Name                 string            `json:"name"`
	DateOfBirth          string            `json:"date_of_birth"`
	IdentificationType   string            `json:"id_type"` // SSN, passport, etc.
	IdentificationNumber string            `json:"id_number"`
	Address              map[string]string `json:"address,omitempty"`
	PhoneNumber          string            `json:"phone,omitempty"`
	Email                string            `json:"email,omitempty"`
	Country              string            `json:"country,omitempty"` // ISO 3166-1 alpha-2
	BeneficialOwners     []BeneficialOwner `json:"beneficial_owners,omitempty"`
}

// CustomerIdentificationRecord is the durable Customer Identification Program
// (CIP) record for one customer. Subsequent identification calls for the same
// customer id overwrite the record; history is the caller's responsibility.
type CustomerIdentificationRecord struct {
	CustomerID           string             `json:"customer_id" db:"customer_id"`
	CustomerName         string             `json:"customer_name" db:"customer_name"`
	DateOfBirth          string             `json:"date_of_birth" db:"date_of_birth"`
	IdentificationType   string             `json:"identification_type" db:"identification_type"`
	IdentificationNumber string             `json:"-" db:"identification_number"` // encrypted at rest
	EncryptionKeyID      int                `json:"-" db:"encryption_key_id"`
	Address              map[string]string  `json:"address,omitempty" db:"address"`
	PhoneNumber          string             `json:"phone_number,omitempty" db:"phone_number"`
	Email                string             `json:"email,omitempty" db:"email"`
	VerificationMethod   string             `json:"verification_method" db:"verification_method"`
	VerificationDate     time.Time          `json:"verification_date" db:"verification_date"`
	VerificationStatus   VerificationStatus `json:"verification_status" db:"verification_status"`
	RiskLevel            RiskLevel          `json:"risk_level" db:"risk_level"`
	RiskScore            int                `json:"risk_score" db:"risk_score"` // 0-100
	PEPStatus            bool               `json:"pep_status" db:"pep_status"`
	SanctionsCheckResult string             `json:"sanctions_check_result" db:"sanctions_check_result"` // clear, match
	SanctionsMatch       bool               `json:"sanctions_match" db:"sanctions_match"`
	EDDRequired          bool               `json:"enhanced_due_diligence_required" db:"edd_required"`
	BeneficialOwners     []BeneficialOwner  `json:"beneficial_owners,omitempty" db:"beneficial_owners"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

// RequiresEnhancedDueDiligence reports whether the record must carry the EDD
// flag: high risk, PEP, or a sanctions match.
func (r *CustomerIdentificationRecord) RequiresEnhancedDueDiligence() bool {
	return r.RiskLevel == RiskLevelHigh || r.PEPStatus || r.SanctionsMatch
}

// CIPResult is the outcome of one identification workflow run.
type CIPResult struct {
	CustomerID            string             `json:"customer_id"`
	VerificationStatus    VerificationStatus `json:"verification_status"`
	RiskLevel             RiskLevel          `json:"risk_level,omitempty"`
	RiskScore             int                `json:"risk_score"`
	SanctionsClear        bool               `json:"sanctions_clear"`
	PEPStatus             bool               `json:"pep_status"`
	EDDRequired           bool               `json:"enhanced_due_diligence_required"`
	BeneficialOwnersCount int                `json:"beneficial_owners_count"`
	CompliancePassed      bool               `json:"compliance_passed"`
	NextReviewDate        time.Time          `json:"next_review_date,omitempty"`
	Error                 string             `json:"error,omitempty"`
}
