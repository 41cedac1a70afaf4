package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/store"
)

const defaultCurrency = "USD"

// Information a filed CTR must carry per BSA requirements.
var ctrRequiredInformation = []string{
	"Customer identification information",
	"Transaction details and amounts",
	"Source of funds",
	"Business purpose if applicable",
}

// CTREvaluator applies currency transaction reporting rules. Every cash
// transaction is recorded; when the unreported cash total for a customer and
// currency inside the rolling window reaches the threshold, exactly one CTR
// is filed covering those entries.
type CTREvaluator struct {
	ctrs           store.CTRStore
	cash           store.CashActivityStore
	locks          *store.KeyedMutex
	signer         RecordSigner
	threshold      decimal.Decimal
	window         time.Duration
	filingDeadline time.Duration
	logger         *zap.Logger
}

// NewCTREvaluator wires the evaluator.
func NewCTREvaluator(
	ctrs store.CTRStore,
	cash store.CashActivityStore,
	signer RecordSigner,
	threshold float64,
	window time.Duration,
	filingDeadlineDays int,
	logger *zap.Logger,
) *CTREvaluator {
	return &CTREvaluator{
		ctrs:           ctrs,
		cash:           cash,
		locks:          store.NewKeyedMutex(),
		signer:         signer,
		threshold:      decimal.NewFromFloat(threshold),
		window:         window,
		filingDeadline: time.Duration(filingDeadlineDays) * 24 * time.Hour,
		logger:         logger,
	}
}

// Evaluate checks one transaction against the CTR rules. Concurrent
// evaluations for the same customer and currency serialize on a per-key lock
// so an aggregate crossing the threshold produces exactly one CTR.
func (e *CTREvaluator) Evaluate(ctx context.Context, tx *domain.Transaction) (assessment *domain.CTRAssessment) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("ctr evaluation panicked",
				zap.String("transaction_id", tx.TransactionID),
				zap.Any("panic", r),
			)
			assessment = &domain.CTRAssessment{
				CTRRequired: false,
				Error:       "internal error during ctr evaluation",
			}
		}
	}()

	if tx.CustomerID == "" {
		return &domain.CTRAssessment{
			CTRRequired: false,
			Reason:      domain.ErrMissingCustomerID.Error(),
		}
	}
	if !tx.IsCash {
		return &domain.CTRAssessment{
			CTRRequired: false,
			Reason:      "not a cash transaction",
		}
	}

	currency := tx.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	occurredAt := tx.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	unlock := e.locks.Lock(tx.CustomerID + "|" + currency)
	defer unlock()

	entry := &domain.CashActivity{
		EntryID:    uuid.New(),
		CustomerID: tx.CustomerID,
		Currency:   currency,
		Amount:     tx.Amount,
		CashOut:    tx.CashOut,
		OccurredAt: occurredAt,
	}
	if err := e.cash.RecordCash(ctx, entry); err != nil {
		e.logger.Error("failed to record cash activity",
			zap.String("customer_id", tx.CustomerID),
			zap.Error(err),
		)
		return &domain.CTRAssessment{
			CTRRequired: false,
			Error:       "failed to record cash activity",
		}
	}

	since := occurredAt.Add(-e.window)
	aggregate, err := e.cash.UnreportedTotal(ctx, tx.CustomerID, currency, since)
	if err != nil {
		e.logger.Error("failed to aggregate cash activity",
			zap.String("customer_id", tx.CustomerID),
			zap.Error(err),
		)
		return &domain.CTRAssessment{
			CTRRequired: false,
			Error:       "failed to aggregate cash activity",
		}
	}

	if aggregate.LessThan(e.threshold) {
		return &domain.CTRAssessment{
			CTRRequired:      false,
			AggregatedAmount: aggregate,
			Reason:           "below reporting threshold",
		}
	}

	now := time.Now().UTC()
	ctr := &domain.CurrencyTransactionReport{
		CTRID:                uuid.New(),
		CustomerID:           tx.CustomerID,
		TransactionDate:      occurredAt,
		TransactionAmount:    tx.Amount,
		AggregatedAmount:     aggregate,
		Currency:             currency,
		TransactionType:      tx.TransactionType,
		CashIn:               !tx.CashOut,
		CashOut:              tx.CashOut,
		MultipleTransactions: aggregate.GreaterThan(tx.Amount),
		FilingDeadline:       now.Add(e.filingDeadline),
		CreatedAt:            now,
	}
	ctr.DigitalSignature = e.signer.Sign(
		ctr.CTRID.String(),
		ctr.CustomerID,
		ctr.AggregatedAmount.String(),
		ctr.Currency,
		ctr.TransactionDate.Format(time.RFC3339),
	)

	if err := e.ctrs.PutCTR(ctx, ctr); err != nil {
		e.logger.Error("failed to persist CTR",
			zap.String("ctr_id", ctr.CTRID.String()),
			zap.String("customer_id", tx.CustomerID),
			zap.Error(err),
		)
		return &domain.CTRAssessment{
			CTRRequired:      true,
			AggregatedAmount: aggregate,
			Error:            "failed to persist currency transaction report",
		}
	}

	// Entries covered by this CTR stop counting toward future aggregates.
	if err := e.cash.MarkReported(ctx, tx.CustomerID, currency, since, ctr.CTRID); err != nil {
		e.logger.Error("failed to mark cash activity reported",
			zap.String("ctr_id", ctr.CTRID.String()),
			zap.Error(err),
		)
	}

	deadline := ctr.FilingDeadline
	return &domain.CTRAssessment{
		CTRRequired:          true,
		CTRID:                &ctr.CTRID,
		AggregatedAmount:     aggregate,
		SingleTransaction:    tx.Amount.GreaterThanOrEqual(e.threshold),
		MultipleTransactions: ctr.MultipleTransactions,
		FilingDeadline:       &deadline,
		RequiredInformation:  ctrRequiredInformation,
	}
}
