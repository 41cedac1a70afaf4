package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/screening"
)

// fakeSigner implements RecordSigner and FieldCipher without real key
// material.
type fakeSigner struct{}

func (fakeSigner) Sign(parts ...string) string {
	return "sig:" + strings.Join(parts, "|")
}

func (fakeSigner) EncryptField(plaintext string) (string, int, error) {
	return "enc:" + plaintext, 1, nil
}

// failingCipher simulates an encryption backend outage.
type failingCipher struct{}

func (failingCipher) EncryptField(string) (string, int, error) {
	return "", 0, errors.New("kms unavailable")
}

// matchScreener returns a fixed verdict.
type matchScreener struct {
	verdict domain.ScreeningVerdict
}

func (m matchScreener) Screen(_ context.Context, _ *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	return m.verdict, nil
}

// errorScreener always fails.
type errorScreener struct{}

func (errorScreener) Screen(_ context.Context, _ *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	return domain.ScreeningVerdict{}, errors.New("provider down")
}

// pepYes marks every subject as a PEP.
type pepYes struct{}

func (pepYes) IsPEP(_ context.Context, _ *domain.ScreeningSubject) (bool, error) {
	return true, nil
}

// pepError simulates a PEP database outage.
type pepError struct{}

func (pepError) IsPEP(_ context.Context, _ *domain.ScreeningSubject) (bool, error) {
	return false, errors.New("pep database unavailable")
}

// lowConfidenceVerifier verifies with confidence below the scoring floor.
type lowConfidenceVerifier struct{}

func (lowConfidenceVerifier) Verify(_ context.Context, _ *domain.CustomerData) (screening.DocumentVerification, error) {
	return screening.DocumentVerification{
		Status:     domain.VerificationVerified,
		Method:     "document_verification",
		Confidence: 0.5,
	}, nil
}

// errorVerifier simulates a verification provider outage.
type errorVerifier struct{}

func (errorVerifier) Verify(_ context.Context, _ *domain.CustomerData) (screening.DocumentVerification, error) {
	return screening.DocumentVerification{}, errors.New("verification service down")
}

// fixedDetector reports a chosen set of patterns; Err, when set, fails every
// call.
type fixedDetector struct {
	structuring bool
	frequency   bool
	geographic  bool
	behavioral  bool
	err         error
}

func (d fixedDetector) DetectStructuring(_ context.Context, _ string, _ *domain.Transaction) (bool, error) {
	return d.structuring, d.err
}

func (d fixedDetector) DetectUnusualFrequency(_ context.Context, _ string) (bool, error) {
	return d.frequency, d.err
}

func (d fixedDetector) DetectGeographicAnomaly(_ context.Context, _ string, _ *domain.Transaction) (bool, error) {
	return d.geographic, d.err
}

func (d fixedDetector) DetectBehavioralAnomaly(_ context.Context, _ string, _ *domain.Transaction) (bool, error) {
	return d.behavioral, d.err
}
