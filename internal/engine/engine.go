// Package engine implements the AML/BSA compliance engine: the Customer
// Identification Program, suspicious activity monitoring, currency
// transaction reporting, sanctions screening, and compliance report
// aggregation. Components never panic across their public methods; internal
// failures surface in the result's Error field so callers always receive a
// usable assessment.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
)

// RecordSigner produces tamper-evident signatures over record fields.
type RecordSigner interface {
	Sign(parts ...string) string
}

// FieldCipher encrypts sensitive field values for storage at rest. It returns
// the ciphertext and the key version used.
type FieldCipher interface {
	EncryptField(plaintext string) (string, int, error)
}

// CaseIndexer mirrors SAR and screening records into the search cluster.
// Indexing is best effort; components call it asynchronously.
type CaseIndexer interface {
	IndexSAR(ctx context.Context, sar *domain.SuspiciousActivityReport) error
	IndexScreening(ctx context.Context, result *domain.SanctionsScreeningResult) error
}

// CaseSearcher queries the search cluster over indexed SARs for investigator
// lookups. Hosts may run without a search cluster, in which case no searcher
// is configured.
type CaseSearcher interface {
	SearchSARs(ctx context.Context, query string, from, size int) ([]*domain.SuspiciousActivityReport, int64, error)
}

// ReportArchiver stores generated compliance reports in long-term archival
// storage and returns the archive key.
type ReportArchiver interface {
	StoreReport(ctx context.Context, report *domain.ComplianceReport) (string, error)
}

// Engine is the facade over the five compliance components. The host layer
// (HTTP handlers, Kafka consumers) talks to the engine; the components talk
// to stores and external adapters.
type Engine struct {
	cip       *CIPService
	monitor   *TransactionMonitor
	ctr       *CTREvaluator
	screener  *ScreeningService
	reporting *ReportAggregator
	searcher  CaseSearcher
	logger    *zap.Logger
}

// NewEngine assembles the engine from its components. searcher may be nil
// when no search cluster is configured.
func NewEngine(
	cip *CIPService,
	monitor *TransactionMonitor,
	ctr *CTREvaluator,
	screener *ScreeningService,
	reporting *ReportAggregator,
	searcher CaseSearcher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		cip:       cip,
		monitor:   monitor,
		ctr:       ctr,
		screener:  screener,
		reporting: reporting,
		searcher:  searcher,
		logger:    logger,
	}
}

// IdentifyCustomer runs the Customer Identification Program workflow.
func (e *Engine) IdentifyCustomer(ctx context.Context, data *domain.CustomerData) *domain.CIPResult {
	return e.cip.Identify(ctx, data)
}

// MonitorTransaction evaluates one transaction for suspicious activity and
// files a SAR when the decision rule requires it.
func (e *Engine) MonitorTransaction(ctx context.Context, tx *domain.Transaction) *domain.SARAssessment {
	return e.monitor.Monitor(ctx, tx)
}

// EvaluateCTR applies currency transaction reporting rules, including
// rolling-window aggregation of related cash activity.
func (e *Engine) EvaluateCTR(ctx context.Context, tx *domain.Transaction) *domain.CTRAssessment {
	return e.ctr.Evaluate(ctx, tx)
}

// ScreenEntity screens a subject against sanctions lists and records the
// immutable screening result.
func (e *Engine) ScreenEntity(ctx context.Context, subject *domain.ScreeningSubject) *domain.SanctionsScreeningResult {
	return e.screener.Screen(ctx, subject)
}

// GenerateComplianceReport aggregates SAR, CTR, screening, and customer risk
// records over the period into a single report, archiving it when an archive
// bucket is configured.
func (e *Engine) GenerateComplianceReport(ctx context.Context, start, end time.Time) *domain.ComplianceReport {
	return e.reporting.GenerateAndArchive(ctx, start, end)
}

// SearchSARs runs an investigator query over indexed SARs. It returns
// domain.ErrSearchUnavailable when no search cluster is configured.
func (e *Engine) SearchSARs(ctx context.Context, query string, from, size int) ([]*domain.SuspiciousActivityReport, int64, error) {
	if e.searcher == nil {
		return nil, 0, domain.ErrSearchUnavailable
	}
	return e.searcher.SearchSARs(ctx, query, from, size)
}
