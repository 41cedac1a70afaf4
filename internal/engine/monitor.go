package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/screening"
	"github.com/banking/aml-compliance/internal/store"
)

// Per-indicator risk score contributions.
const (
	riskPerIndicatorSAR    = 25 // when a SAR is filed
	riskPerIndicatorNormal = 10 // when monitoring continues normally
)

// TransactionMonitor evaluates transactions for suspicious activity and files
// SARs when the decision rule fires: two or more indicators, or structuring
// on its own.
type TransactionMonitor struct {
	sars           store.SARStore
	detector       screening.PatternDetector
	signer         RecordSigner
	indexer        CaseIndexer
	sarThreshold   decimal.Decimal
	eddThreshold   decimal.Decimal
	filingDeadline time.Duration
	logger         *zap.Logger
}

// NewTransactionMonitor wires the monitor. The indexer may be nil when no
// search cluster is configured.
func NewTransactionMonitor(
	sars store.SARStore,
	detector screening.PatternDetector,
	signer RecordSigner,
	indexer CaseIndexer,
	sarThreshold, eddThreshold float64,
	filingDeadlineDays int,
	logger *zap.Logger,
) *TransactionMonitor {
	return &TransactionMonitor{
		sars:           sars,
		detector:       detector,
		signer:         signer,
		indexer:        indexer,
		sarThreshold:   decimal.NewFromFloat(sarThreshold),
		eddThreshold:   decimal.NewFromFloat(eddThreshold),
		filingDeadline: time.Duration(filingDeadlineDays) * 24 * time.Hour,
		logger:         logger,
	}
}

// Monitor evaluates one transaction. Detector failures count as "pattern not
// detected"; the assessment is always returned, never a panic.
func (m *TransactionMonitor) Monitor(ctx context.Context, tx *domain.Transaction) (assessment *domain.SARAssessment) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("transaction monitoring panicked",
				zap.String("transaction_id", tx.TransactionID),
				zap.Any("panic", r),
			)
			assessment = &domain.SARAssessment{
				SuspiciousActivityDetected: false,
				Error:                      "internal error during transaction monitoring",
			}
		}
	}()

	if tx.CustomerID == "" {
		return &domain.SARAssessment{
			SuspiciousActivityDetected: false,
			Error:                      domain.ErrMissingCustomerID.Error(),
		}
	}

	var indicators []string

	// 1. Amount-based indicator.
	if tx.Amount.GreaterThanOrEqual(m.sarThreshold) {
		indicators = append(indicators, domain.IndicatorLargeAmount)
	}

	// 2-5. Behavioral pattern indicators.
	if m.detected(ctx, tx, domain.IndicatorStructuring, func() (bool, error) {
		return m.detector.DetectStructuring(ctx, tx.CustomerID, tx)
	}) {
		indicators = append(indicators, domain.IndicatorStructuring)
	}
	if m.detected(ctx, tx, domain.IndicatorUnusualFrequency, func() (bool, error) {
		return m.detector.DetectUnusualFrequency(ctx, tx.CustomerID)
	}) {
		indicators = append(indicators, domain.IndicatorUnusualFrequency)
	}
	if m.detected(ctx, tx, domain.IndicatorGeographicAnomaly, func() (bool, error) {
		return m.detector.DetectGeographicAnomaly(ctx, tx.CustomerID, tx)
	}) {
		indicators = append(indicators, domain.IndicatorGeographicAnomaly)
	}
	if m.detected(ctx, tx, domain.IndicatorBehavioralAnomaly, func() (bool, error) {
		return m.detector.DetectBehavioralAnomaly(ctx, tx.CustomerID, tx)
	}) {
		indicators = append(indicators, domain.IndicatorBehavioralAnomaly)
	}

	// Decision rule: structuring alone is enough, otherwise two indicators.
	sarRequired := len(indicators) >= 2 || contains(indicators, domain.IndicatorStructuring)

	if !sarRequired {
		return &domain.SARAssessment{
			SuspiciousActivityDetected: false,
			SARRequired:                false,
			Indicators:                 indicators,
			RiskScore:                  capScore(len(indicators) * riskPerIndicatorNormal),
			MonitoringStatus:           "continue_normal_monitoring",
		}
	}

	sar := domain.NewSuspiciousActivityReport(tx.CustomerID, activityType(indicators), tx.Amount, indicators)
	sar.FilingDeadline = sar.ReportDate.Add(m.filingDeadline)
	sar.DigitalSignature = m.signer.Sign(
		sar.SARID.String(),
		sar.CustomerID,
		string(sar.ActivityType),
		sar.SuspiciousAmount.String(),
		sar.ReportDate.Format(time.RFC3339),
	)

	if err := m.sars.PutSAR(ctx, sar); err != nil {
		m.logger.Error("failed to persist SAR",
			zap.String("sar_id", sar.SARID.String()),
			zap.String("customer_id", tx.CustomerID),
			zap.Error(err),
		)
		return &domain.SARAssessment{
			SuspiciousActivityDetected: true,
			SARRequired:                true,
			Indicators:                 indicators,
			RiskScore:                  capScore(len(indicators) * riskPerIndicatorSAR),
			Error:                      "failed to persist suspicious activity report",
		}
	}

	m.asyncIndexSAR(sar)

	actions := []string{
		"File SAR with FinCEN within 30 days",
		"Conduct enhanced monitoring",
		"Review customer relationship",
		"Document investigation findings",
	}
	if tx.Amount.GreaterThanOrEqual(m.eddThreshold) {
		actions = append(actions, "Initiate enhanced due diligence review")
	}

	deadline := sar.FilingDeadline
	return &domain.SARAssessment{
		SuspiciousActivityDetected: true,
		SARRequired:                true,
		SARID:                      &sar.SARID,
		Indicators:                 indicators,
		RiskScore:                  capScore(len(indicators) * riskPerIndicatorSAR),
		RecommendedActions:         actions,
		FilingDeadline:             &deadline,
	}
}

// detected runs one detector call, treating errors as "not detected".
func (m *TransactionMonitor) detected(_ context.Context, tx *domain.Transaction, name string, fn func() (bool, error)) bool {
	hit, err := fn()
	if err != nil {
		m.logger.Warn("pattern detector unavailable",
			zap.String("indicator", name),
			zap.String("customer_id", tx.CustomerID),
			zap.Error(err),
		)
		return false
	}
	return hit
}

// asyncIndexSAR mirrors the SAR into the search cluster without blocking the
// assessment path.
func (m *TransactionMonitor) asyncIndexSAR(sar *domain.SuspiciousActivityReport) {
	if m.indexer == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic while indexing SAR", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.indexer.IndexSAR(ctx, sar); err != nil {
			m.logger.Error("failed to index SAR",
				zap.String("sar_id", sar.SARID.String()),
				zap.Error(err),
			)
		}
	}()
}

// activityType classifies the SAR from its indicators. Structuring maps to
// its own category; every other combination files as other suspicious
// activity pending investigation.
func activityType(indicators []string) domain.SARActivityType {
	if contains(indicators, domain.IndicatorStructuring) {
		return domain.ActivityStructuring
	}
	return domain.ActivityOtherSuspicious
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func capScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}
