package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking/aml-compliance/internal/domain"
)

// MemoryStore is the in-memory RecordStore. It is safe for concurrent use;
// each collection has a single write path guarded by its own lock.
type MemoryStore struct {
	customersMu sync.RWMutex
	customers   map[string]*domain.CustomerIdentificationRecord

	sarsMu sync.RWMutex
	sars   map[uuid.UUID]*domain.SuspiciousActivityReport

	ctrsMu sync.RWMutex
	ctrs   map[uuid.UUID]*domain.CurrencyTransactionReport

	screeningsMu sync.RWMutex
	screenings   []*domain.SanctionsScreeningResult

	cashMu sync.Mutex
	cash   []*domain.CashActivity
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]*domain.CustomerIdentificationRecord),
		sars:      make(map[uuid.UUID]*domain.SuspiciousActivityReport),
		ctrs:      make(map[uuid.UUID]*domain.CurrencyTransactionReport),
	}
}

// PutCustomer inserts or overwrites the CIP record for the customer id.
func (s *MemoryStore) PutCustomer(_ context.Context, record *domain.CustomerIdentificationRecord) error {
	if record.CustomerID == "" {
		return domain.ErrMissingCustomerID
	}
	s.customersMu.Lock()
	s.customers[record.CustomerID] = record
	s.customersMu.Unlock()
	return nil
}

// GetCustomer returns the CIP record for the customer id, or an error when
// none exists.
func (s *MemoryStore) GetCustomer(_ context.Context, customerID string) (*domain.CustomerIdentificationRecord, error) {
	s.customersMu.RLock()
	defer s.customersMu.RUnlock()
	record, ok := s.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("customer %s not found", customerID)
	}
	return record, nil
}

// ListCustomers returns all CIP records.
func (s *MemoryStore) ListCustomers(_ context.Context) ([]*domain.CustomerIdentificationRecord, error) {
	s.customersMu.RLock()
	defer s.customersMu.RUnlock()
	records := make([]*domain.CustomerIdentificationRecord, 0, len(s.customers))
	for _, r := range s.customers {
		records = append(records, r)
	}
	return records, nil
}

// PutSAR stores a SAR record.
func (s *MemoryStore) PutSAR(_ context.Context, sar *domain.SuspiciousActivityReport) error {
	s.sarsMu.Lock()
	s.sars[sar.SARID] = sar
	s.sarsMu.Unlock()
	return nil
}

// ListSARs returns SARs whose report date falls within [start, end].
func (s *MemoryStore) ListSARs(_ context.Context, start, end time.Time) ([]*domain.SuspiciousActivityReport, error) {
	s.sarsMu.RLock()
	defer s.sarsMu.RUnlock()
	var out []*domain.SuspiciousActivityReport
	for _, sar := range s.sars {
		if inRange(sar.ReportDate, start, end) {
			out = append(out, sar)
		}
	}
	return out, nil
}

// PutCTR stores a CTR record.
func (s *MemoryStore) PutCTR(_ context.Context, ctr *domain.CurrencyTransactionReport) error {
	s.ctrsMu.Lock()
	s.ctrs[ctr.CTRID] = ctr
	s.ctrsMu.Unlock()
	return nil
}

// ListCTRs returns CTRs whose transaction date falls within [start, end].
func (s *MemoryStore) ListCTRs(_ context.Context, start, end time.Time) ([]*domain.CurrencyTransactionReport, error) {
	s.ctrsMu.RLock()
	defer s.ctrsMu.RUnlock()
	var out []*domain.CurrencyTransactionReport
	for _, ctr := range s.ctrs {
		if inRange(ctr.TransactionDate, start, end) {
			out = append(out, ctr)
		}
	}
	return out, nil
}

// AppendScreening stores a copy of the screening result. Stored results are
// never mutated; re-screening appends a new record.
func (s *MemoryStore) AppendScreening(_ context.Context, result *domain.SanctionsScreeningResult) error {
	copied := *result
	s.screeningsMu.Lock()
	s.screenings = append(s.screenings, &copied)
	s.screeningsMu.Unlock()
	return nil
}

// ListScreenings returns screening results dated within [start, end].
func (s *MemoryStore) ListScreenings(_ context.Context, start, end time.Time) ([]*domain.SanctionsScreeningResult, error) {
	s.screeningsMu.RLock()
	defer s.screeningsMu.RUnlock()
	var out []*domain.SanctionsScreeningResult
	for _, r := range s.screenings {
		if inRange(r.ScreeningDate, start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// RecordCash appends a cash activity entry.
func (s *MemoryStore) RecordCash(_ context.Context, entry *domain.CashActivity) error {
	s.cashMu.Lock()
	s.cash = append(s.cash, entry)
	s.cashMu.Unlock()
	return nil
}

// UnreportedTotal sums unreported cash entries for the customer and currency
// that occurred at or after since.
func (s *MemoryStore) UnreportedTotal(_ context.Context, customerID, currency string, since time.Time) (decimal.Decimal, error) {
	s.cashMu.Lock()
	defer s.cashMu.Unlock()
	total := decimal.Zero
	for _, e := range s.cash {
		if e.CustomerID == customerID && e.Currency == currency && e.ReportedCTRID == nil && !e.OccurredAt.Before(since) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// MarkReported stamps the unreported window entries with the CTR id.
func (s *MemoryStore) MarkReported(_ context.Context, customerID, currency string, since time.Time, ctrID uuid.UUID) error {
	s.cashMu.Lock()
	defer s.cashMu.Unlock()
	for _, e := range s.cash {
		if e.CustomerID == customerID && e.Currency == currency && e.ReportedCTRID == nil && !e.OccurredAt.Before(since) {
			id := ctrID
			e.ReportedCTRID = &id
		}
	}
	return nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
