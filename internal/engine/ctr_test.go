package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/store"
)

func newEvaluator(st *store.MemoryStore) *CTREvaluator {
	return NewCTREvaluator(st, st, fakeSigner{}, 10000, 24*time.Hour, 15, zap.NewNop())
}

func listCTRs(t *testing.T, st *store.MemoryStore) []*domain.CurrencyTransactionReport {
	t.Helper()
	ctrs, err := st.ListCTRs(context.Background(), time.Time{}, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	return ctrs
}

func TestEvaluateMissingCustomerID(t *testing.T) {
	e := newEvaluator(store.NewMemoryStore())

	result := e.Evaluate(context.Background(), &domain.Transaction{
		Amount: decimal.NewFromInt(20000),
		IsCash: true,
	})

	assert.False(t, result.CTRRequired)
	assert.Equal(t, domain.ErrMissingCustomerID.Error(), result.Reason)
}

func TestEvaluateNonCashNeverReports(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(50000),
		IsCash:     false,
	})

	assert.False(t, result.CTRRequired)
	assert.Equal(t, "not a cash transaction", result.Reason)
	assert.Empty(t, listCTRs(t, st))
}

func TestEvaluateSingleCashAtThreshold(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(10000),
		IsCash:     true,
	})

	require.True(t, result.CTRRequired)
	require.NotNil(t, result.CTRID)
	assert.True(t, result.SingleTransaction)
	assert.False(t, result.MultipleTransactions)
	assert.True(t, result.AggregatedAmount.Equal(decimal.NewFromInt(10000)))
	require.NotNil(t, result.FilingDeadline)
	assert.Equal(t, ctrRequiredInformation, result.RequiredInformation)

	ctrs := listCTRs(t, st)
	require.Len(t, ctrs, 1)
	assert.True(t, ctrs[0].CashIn)
	assert.False(t, ctrs[0].CashOut)
	assert.NotEmpty(t, ctrs[0].DigitalSignature)
}

func TestEvaluateBelowThresholdRecordsButDoesNotReport(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(6000),
		IsCash:     true,
	})

	assert.False(t, result.CTRRequired)
	assert.Equal(t, "below reporting threshold", result.Reason)
	assert.True(t, result.AggregatedAmount.Equal(decimal.NewFromInt(6000)))
	assert.Empty(t, listCTRs(t, st))
}

func TestEvaluateAggregationAcrossTransactions(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	first := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(6000),
		IsCash:     true,
	})
	require.False(t, first.CTRRequired)

	second := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(6000),
		IsCash:     true,
	})

	require.True(t, second.CTRRequired)
	assert.False(t, second.SingleTransaction)
	assert.True(t, second.MultipleTransactions)
	assert.True(t, second.AggregatedAmount.Equal(decimal.NewFromInt(12000)))

	ctrs := listCTRs(t, st)
	require.Len(t, ctrs, 1)
	assert.True(t, ctrs[0].MultipleTransactions)
	assert.True(t, ctrs[0].AggregatedAmount.Equal(decimal.NewFromInt(12000)))
}

func TestEvaluateReportedEntriesDoNotCountAgain(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(12000), IsCash: true,
	})

	// next cash deposit starts a fresh aggregate
	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(6000), IsCash: true,
	})

	assert.False(t, result.CTRRequired)
	assert.True(t, result.AggregatedAmount.Equal(decimal.NewFromInt(6000)))
	assert.Len(t, listCTRs(t, st), 1)
}

func TestEvaluateWindowExcludesOldActivity(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	old := time.Now().UTC().Add(-25 * time.Hour)
	e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(6000), IsCash: true, OccurredAt: old,
	})

	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(6000), IsCash: true,
	})

	assert.False(t, result.CTRRequired)
	assert.True(t, result.AggregatedAmount.Equal(decimal.NewFromInt(6000)))
}

func TestEvaluateCurrenciesAggregateSeparately(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(6000), IsCash: true, Currency: "USD",
	})
	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(6000), IsCash: true, Currency: "EUR",
	})

	assert.False(t, result.CTRRequired)
	assert.True(t, result.AggregatedAmount.Equal(decimal.NewFromInt(6000)))
}

func TestEvaluateCashOutReflectedOnReport(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	result := e.Evaluate(context.Background(), &domain.Transaction{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(15000),
		IsCash:     true,
		CashOut:    true,
	})
	require.True(t, result.CTRRequired)

	ctrs := listCTRs(t, st)
	require.Len(t, ctrs, 1)
	assert.True(t, ctrs[0].CashOut)
	assert.False(t, ctrs[0].CashIn)
}

func TestEvaluateConcurrentCrossingFilesExactlyOneCTR(t *testing.T) {
	st := store.NewMemoryStore()
	e := newEvaluator(st)

	const workers = 4
	var wg sync.WaitGroup
	results := make([]*domain.CTRAssessment, workers)

	// four concurrent $3k deposits total $12k: the aggregate crosses $10k
	// exactly once, so exactly one evaluation must file a CTR
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Evaluate(context.Background(), &domain.Transaction{
				CustomerID: "cust-1",
				Amount:     decimal.NewFromInt(3000),
				IsCash:     true,
			})
		}(i)
	}
	wg.Wait()

	required := 0
	for _, r := range results {
		require.Empty(t, r.Error)
		if r.CTRRequired {
			required++
		}
	}
	assert.Equal(t, 1, required)

	ctrs := listCTRs(t, st)
	require.Len(t, ctrs, 1)
	assert.True(t, ctrs[0].AggregatedAmount.GreaterThanOrEqual(decimal.NewFromInt(10000)))
	assert.True(t, ctrs[0].AggregatedAmount.LessThanOrEqual(decimal.NewFromInt(12000)))
}
