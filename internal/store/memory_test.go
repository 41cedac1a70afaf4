package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/aml-compliance/internal/domain"
)

func TestCustomerPutOverwrites(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.PutCustomer(ctx, &domain.CustomerIdentificationRecord{
		CustomerID: "cust-1", CustomerName: "First",
	}))
	require.NoError(t, st.PutCustomer(ctx, &domain.CustomerIdentificationRecord{
		CustomerID: "cust-1", CustomerName: "Second",
	}))

	record, err := st.GetCustomer(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "Second", record.CustomerName)

	all, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetCustomerNotFound(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.GetCustomer(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListSARsWindow(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{-48 * time.Hour, 0, 24 * time.Hour} {
		sar := domain.NewSuspiciousActivityReport("cust-1", domain.ActivityFraud, decimal.NewFromInt(100), nil)
		sar.ReportDate = base.Add(offset)
		require.NoError(t, st.PutSAR(ctx, sar))
	}

	sars, err := st.ListSARs(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, sars, 2)
}

func TestUnreportedTotalSkipsReportedAndStale(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	ctrID := uuid.New()

	entries := []*domain.CashActivity{
		{EntryID: uuid.New(), CustomerID: "cust-1", Currency: "USD", Amount: decimal.NewFromInt(3000), OccurredAt: now},
		{EntryID: uuid.New(), CustomerID: "cust-1", Currency: "USD", Amount: decimal.NewFromInt(4000), OccurredAt: now, ReportedCTRID: &ctrID},
		{EntryID: uuid.New(), CustomerID: "cust-1", Currency: "USD", Amount: decimal.NewFromInt(5000), OccurredAt: now.Add(-48 * time.Hour)},
		{EntryID: uuid.New(), CustomerID: "cust-1", Currency: "EUR", Amount: decimal.NewFromInt(9000), OccurredAt: now},
		{EntryID: uuid.New(), CustomerID: "cust-2", Currency: "USD", Amount: decimal.NewFromInt(7000), OccurredAt: now},
	}
	for _, e := range entries {
		require.NoError(t, st.RecordCash(ctx, e))
	}

	total, err := st.UnreportedTotal(ctx, "cust-1", "USD", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(3000)), "got %s", total)
}

func TestMarkReportedStampsWindow(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.RecordCash(ctx, &domain.CashActivity{
		EntryID: uuid.New(), CustomerID: "cust-1", Currency: "USD",
		Amount: decimal.NewFromInt(6000), OccurredAt: now,
	}))
	require.NoError(t, st.RecordCash(ctx, &domain.CashActivity{
		EntryID: uuid.New(), CustomerID: "cust-1", Currency: "USD",
		Amount: decimal.NewFromInt(6000), OccurredAt: now,
	}))

	ctrID := uuid.New()
	require.NoError(t, st.MarkReported(ctx, "cust-1", "USD", now.Add(-time.Hour), ctrID))

	total, err := st.UnreportedTotal(ctx, "cust-1", "USD", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestAppendScreeningStoresCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	record := &domain.SanctionsScreeningResult{
		ScreeningID:   uuid.New(),
		SubjectID:     "cust-1",
		ScreeningDate: now,
		Notes:         "original",
	}
	require.NoError(t, st.AppendScreening(ctx, record))

	// mutating the caller's record must not rewrite history
	record.Notes = "tampered"

	all, err := st.ListScreenings(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "original", all[0].Notes)
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("cust-1|USD")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on independent key blocked")
	}
	unlockA()
}
