package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/screening"
	"github.com/banking/aml-compliance/internal/store"
)

// Customer records are re-reviewed annually.
const reviewInterval = 365 * 24 * time.Hour

// CIPService runs the Customer Identification Program workflow: document
// verification, sanctions screening, PEP lookup, risk classification, and
// persistence of the identification record.
type CIPService struct {
	customers store.CustomerStore
	verifier  screening.DocumentVerifier
	screener  *screening.FallbackScreener
	pep       screening.PEPChecker
	scorer    *RiskScorer
	cipher    FieldCipher
	ownership float64 // reportable beneficial ownership fraction
	logger    *zap.Logger
}

// NewCIPService wires the identification workflow. ownershipThreshold is the
// minimum ownership fraction that makes a beneficial owner reportable.
func NewCIPService(
	customers store.CustomerStore,
	verifier screening.DocumentVerifier,
	screener *screening.FallbackScreener,
	pep screening.PEPChecker,
	scorer *RiskScorer,
	cipher FieldCipher,
	ownershipThreshold float64,
	logger *zap.Logger,
) *CIPService {
	return &CIPService{
		customers: customers,
		verifier:  verifier,
		screener:  screener,
		pep:       pep,
		scorer:    scorer,
		cipher:    cipher,
		ownership: ownershipThreshold,
		logger:    logger,
	}
}

// Identify runs the full CIP workflow for one customer. The result always
// carries a verification status; internal failures are reported through the
// Error field, never as a panic.
func (s *CIPService) Identify(ctx context.Context, data *domain.CustomerData) (result *domain.CIPResult) {
	customerID := data.CustomerID
	if customerID == "" {
		customerID = uuid.New().String()
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("customer identification panicked",
				zap.String("customer_id", customerID),
				zap.Any("panic", r),
			)
			result = &domain.CIPResult{
				CustomerID:         customerID,
				VerificationStatus: domain.VerificationFailed,
				Error:              "internal error during customer identification",
			}
		}
	}()

	// 1. Identity document verification. A failed provider call downgrades
	// to pending with zero confidence rather than aborting the workflow.
	verification, err := s.verifier.Verify(ctx, data)
	if err != nil {
		s.logger.Warn("document verification unavailable",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		verification = screening.DocumentVerification{
			Status:     domain.VerificationPending,
			Method:     "document_verification",
			Confidence: 0,
		}
	}

	subject := &domain.ScreeningSubject{
		SubjectID:   customerID,
		Name:        data.Name,
		DateOfBirth: data.DateOfBirth,
		Country:     data.Country,
		Type:        domain.ScreeningTypeCustomer,
	}

	// 2. Sanctions screening. The fallback wrapper already degrades to a
	// conservative manual-review verdict, so err is always nil here.
	verdict, _ := s.screener.Screen(ctx, subject)

	// 3. PEP lookup. Unavailable means not confirmed as a PEP.
	isPEP, err := s.pep.IsPEP(ctx, subject)
	if err != nil {
		s.logger.Warn("pep lookup unavailable",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		isPEP = false
	}

	// 4. Risk classification.
	riskScore := s.scorer.Score(verification, verdict, isPEP, data.Country)
	riskLevel := ClassifyRisk(riskScore)

	now := time.Now().UTC()
	record := &domain.CustomerIdentificationRecord{
		CustomerID:         customerID,
		CustomerName:       data.Name,
		DateOfBirth:        data.DateOfBirth,
		IdentificationType: data.IdentificationType,
		Address:            data.Address,
		PhoneNumber:        data.PhoneNumber,
		Email:              data.Email,
		VerificationMethod: verification.Method,
		VerificationDate:   now,
		VerificationStatus: verification.Status,
		RiskLevel:          riskLevel,
		RiskScore:          riskScore,
		PEPStatus:          isPEP,
		SanctionsMatch:     verdict.Match,
		BeneficialOwners:   s.reportableOwners(data.BeneficialOwners),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	record.SanctionsCheckResult = "clear"
	if verdict.Match {
		record.SanctionsCheckResult = "match"
	}
	record.EDDRequired = record.RequiresEnhancedDueDiligence()

	// 5. Encrypt the identification number before it touches storage.
	if data.IdentificationNumber != "" {
		ciphertext, keyVersion, err := s.cipher.EncryptField(data.IdentificationNumber)
		if err != nil {
			s.logger.Error("identification number encryption failed",
				zap.String("customer_id", customerID),
				zap.Error(err),
			)
			return &domain.CIPResult{
				CustomerID:         customerID,
				VerificationStatus: domain.VerificationFailed,
				Error:              "failed to protect identification data",
			}
		}
		record.IdentificationNumber = ciphertext
		record.EncryptionKeyID = keyVersion
	}

	// 6. Persist. Re-identifying a customer overwrites the prior record.
	if err := s.customers.PutCustomer(ctx, record); err != nil {
		s.logger.Error("failed to persist identification record",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return &domain.CIPResult{
			CustomerID:         customerID,
			VerificationStatus: domain.VerificationFailed,
			Error:              "failed to persist identification record",
		}
	}

	passed := verification.Status == domain.VerificationVerified &&
		!verdict.Match &&
		riskLevel != domain.RiskLevelProhibited

	return &domain.CIPResult{
		CustomerID:            customerID,
		VerificationStatus:    verification.Status,
		RiskLevel:             riskLevel,
		RiskScore:             riskScore,
		SanctionsClear:        !verdict.Match,
		PEPStatus:             isPEP,
		EDDRequired:           record.EDDRequired,
		BeneficialOwnersCount: len(record.BeneficialOwners),
		CompliancePassed:      passed,
		NextReviewDate:        now.Add(reviewInterval),
	}
}

// reportableOwners keeps only owners at or above the ownership threshold.
func (s *CIPService) reportableOwners(owners []domain.BeneficialOwner) []domain.BeneficialOwner {
	if len(owners) == 0 {
		return nil
	}
	var kept []domain.BeneficialOwner
	for _, o := range owners {
		if o.OwnershipFraction >= s.ownership {
			kept = append(kept, o)
		}
	}
	return kept
}
