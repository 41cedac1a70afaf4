// Package screening defines the contracts for the engine's external
// collaborators (document verification, sanctions screening, PEP lookup,
// behavioral pattern detection) along with default implementations. Real
// providers are wired by the host; the engine only sees these interfaces.
package screening

import (
	"context"

	"github.com/banking/aml-compliance/internal/domain"
)

// DocumentVerification is the verdict of an identity document check.
type DocumentVerification struct {
	Status     domain.VerificationStatus
	Method     string
	Confidence float64 // 0.0 - 1.0
}

// DocumentVerifier verifies a customer's identity documents.
type DocumentVerifier interface {
	Verify(ctx context.Context, data *domain.CustomerData) (DocumentVerification, error)
}

// SanctionsScreener screens a subject against sanctions lists.
type SanctionsScreener interface {
	Screen(ctx context.Context, subject *domain.ScreeningSubject) (domain.ScreeningVerdict, error)
}

// PEPChecker looks up Politically Exposed Person status.
type PEPChecker interface {
	IsPEP(ctx context.Context, subject *domain.ScreeningSubject) (bool, error)
}

// PatternDetector evaluates a customer's transaction history for the four
// behavioral suspicion patterns. Detection algorithms are supplied by an
// external collaborator; the defaults below report nothing.
type PatternDetector interface {
	DetectStructuring(ctx context.Context, customerID string, tx *domain.Transaction) (bool, error)
	DetectUnusualFrequency(ctx context.Context, customerID string) (bool, error)
	DetectGeographicAnomaly(ctx context.Context, customerID string, tx *domain.Transaction) (bool, error)
	DetectBehavioralAnomaly(ctx context.Context, customerID string, tx *domain.Transaction) (bool, error)
}

// StubDocumentVerifier accepts every document with high confidence. It stands
// in for a real identity verification service in development and tests.
type StubDocumentVerifier struct{}

func (StubDocumentVerifier) Verify(_ context.Context, _ *domain.CustomerData) (DocumentVerification, error) {
	return DocumentVerification{
		Status:     domain.VerificationVerified,
		Method:     "document_verification",
		Confidence: 0.95,
	}, nil
}

// StubSanctionsScreener reports no match for every subject.
type StubSanctionsScreener struct{}

func (StubSanctionsScreener) Screen(_ context.Context, _ *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	return domain.ScreeningVerdict{
		Match:  false,
		Score:  0.0,
		Action: "continue",
		Notes:  "no match found",
	}, nil
}

// StubPEPChecker reports non-PEP for every subject.
type StubPEPChecker struct{}

func (StubPEPChecker) IsPEP(_ context.Context, _ *domain.ScreeningSubject) (bool, error) {
	return false, nil
}

// NoopPatternDetector reports no patterns.
type NoopPatternDetector struct{}

func (NoopPatternDetector) DetectStructuring(_ context.Context, _ string, _ *domain.Transaction) (bool, error) {
	return false, nil
}

func (NoopPatternDetector) DetectUnusualFrequency(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (NoopPatternDetector) DetectGeographicAnomaly(_ context.Context, _ string, _ *domain.Transaction) (bool, error) {
	return false, nil
}

func (NoopPatternDetector) DetectBehavioralAnomaly(_ context.Context, _ string, _ *domain.Transaction) (bool, error) {
	return false, nil
}
