// Package store defines the record store contracts the engine components are
// built against, plus the default in-memory implementation. A persistent
// implementation backed by PostgreSQL lives in internal/repository/postgres.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking/aml-compliance/internal/domain"
)

// CustomerStore holds Customer Identification Records keyed by customer id.
// Put overwrites: the engine retains no history for re-identified customers.
type CustomerStore interface {
	PutCustomer(ctx context.Context, record *domain.CustomerIdentificationRecord) error
	GetCustomer(ctx context.Context, customerID string) (*domain.CustomerIdentificationRecord, error)
	ListCustomers(ctx context.Context) ([]*domain.CustomerIdentificationRecord, error)
}

// SARStore holds Suspicious Activity Reports.
type SARStore interface {
	PutSAR(ctx context.Context, sar *domain.SuspiciousActivityReport) error
	ListSARs(ctx context.Context, start, end time.Time) ([]*domain.SuspiciousActivityReport, error)
}

// CTRStore holds Currency Transaction Reports.
type CTRStore interface {
	PutCTR(ctx context.Context, ctr *domain.CurrencyTransactionReport) error
	ListCTRs(ctx context.Context, start, end time.Time) ([]*domain.CurrencyTransactionReport, error)
}

// ScreeningStore holds sanctions screening results. The store is append-only;
// re-screening a subject creates a new record.
type ScreeningStore interface {
	AppendScreening(ctx context.Context, result *domain.SanctionsScreeningResult) error
	ListScreenings(ctx context.Context, start, end time.Time) ([]*domain.SanctionsScreeningResult, error)
}

// CashActivityStore records cash transactions for rolling-window CTR
// aggregation. Callers must hold the per-customer lock across
// RecordCash → UnreportedTotal → MarkReported.
type CashActivityStore interface {
	RecordCash(ctx context.Context, entry *domain.CashActivity) error
	// UnreportedTotal sums cash entries for the customer and currency that
	// occurred at or after since and are not yet covered by a CTR.
	UnreportedTotal(ctx context.Context, customerID, currency string, since time.Time) (decimal.Decimal, error)
	// MarkReported stamps every unreported entry in the window with the CTR id.
	MarkReported(ctx context.Context, customerID, currency string, since time.Time, ctrID uuid.UUID) error
}

// RecordStore bundles every collection the engine needs.
type RecordStore interface {
	CustomerStore
	SARStore
	CTRStore
	ScreeningStore
	CashActivityStore
}
