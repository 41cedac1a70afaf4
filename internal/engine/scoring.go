package engine

import (
	"strings"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/screening"
)

// Risk score contributions. Scores are capped at 100.
const (
	riskWeightWeakVerification = 20 // document confidence below the floor
	riskWeightSanctionsMatch   = 50
	riskWeightPEP              = 30
	riskWeightHighRiskCountry  = 40

	verificationConfidenceFloor = 0.8
)

// RiskScorer computes additive customer risk scores and maps them to risk
// levels. High-risk jurisdictions come from configuration.
type RiskScorer struct {
	highRiskCountries map[string]struct{}
}

// NewRiskScorer builds a scorer for the given high-risk country codes
// (ISO 3166-1 alpha-2, case-insensitive).
func NewRiskScorer(highRiskCountries []string) *RiskScorer {
	set := make(map[string]struct{}, len(highRiskCountries))
	for _, c := range highRiskCountries {
		set[strings.ToUpper(c)] = struct{}{}
	}
	return &RiskScorer{highRiskCountries: set}
}

// IsHighRiskCountry reports whether the country code is on the configured
// high-risk list.
func (s *RiskScorer) IsHighRiskCountry(country string) bool {
	if country == "" {
		return false
	}
	_, ok := s.highRiskCountries[strings.ToUpper(country)]
	return ok
}

// Score computes the 0-100 risk score from the identification signals.
// Contributions are independent and additive.
func (s *RiskScorer) Score(verification screening.DocumentVerification, verdict domain.ScreeningVerdict, pep bool, country string) int {
	score := 0
	if verification.Confidence < verificationConfidenceFloor {
		score += riskWeightWeakVerification
	}
	if verdict.Match {
		score += riskWeightSanctionsMatch
	}
	if pep {
		score += riskWeightPEP
	}
	if s.IsHighRiskCountry(country) {
		score += riskWeightHighRiskCountry
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ClassifyRisk maps a score to a risk level. Boundaries are inclusive on the
// high side: 80 is prohibited, 60 is high, 30 is medium.
func ClassifyRisk(score int) domain.RiskLevel {
	switch {
	case score >= 80:
		return domain.RiskLevelProhibited
	case score >= 60:
		return domain.RiskLevelHigh
	case score >= 30:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}
