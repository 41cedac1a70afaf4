package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/store"
)

func TestGenerateEmptyPeriod(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewReportAggregator(st, nil, zap.NewNop())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	report := agg.Generate(context.Background(), start, end)

	require.Empty(t, report.Error)
	assert.Equal(t, 0, report.Summary.TotalSARFilings)
	assert.Equal(t, 0, report.Summary.TotalCTRFilings)
	assert.Equal(t, 0, report.Summary.TotalSanctionsScreenings)

	// vacuous timeliness on empty record sets
	assert.Equal(t, 100.0, report.Metrics.SARFilingTimeliness)
	assert.Equal(t, 100.0, report.Metrics.CTRFilingTimeliness)
	assert.Equal(t, 0.0, report.Sanctions.MatchRate)
	assert.True(t, report.SARAnalysis.AverageAmount.IsZero())

	// distribution always carries every level
	for _, level := range domain.AllRiskLevels {
		count, ok := report.Metrics.RiskDistribution[level]
		assert.True(t, ok, "missing level %s", level)
		assert.Equal(t, 0, count)
	}
	assert.NotEmpty(t, report.Recommendations)
}

func TestGenerateAggregatesPeriodRecords(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	filed := now.Add(-time.Hour)
	sarFiled := domain.NewSuspiciousActivityReport("cust-1", domain.ActivityStructuring, decimal.NewFromInt(8000), []string{domain.IndicatorStructuring})
	sarFiled.ReportDate = now
	sarFiled.FiledWithRegulator = true
	sarFiled.FilingDate = &filed
	require.NoError(t, st.PutSAR(ctx, sarFiled))

	sarPending := domain.NewSuspiciousActivityReport("cust-2", domain.ActivityOtherSuspicious, decimal.NewFromInt(4000), []string{domain.IndicatorLargeAmount, domain.IndicatorUnusualFrequency})
	sarPending.ReportDate = now
	require.NoError(t, st.PutSAR(ctx, sarPending))

	require.NoError(t, st.PutCTR(ctx, &domain.CurrencyTransactionReport{
		CTRID:             uuid.New(),
		CustomerID:        "cust-1",
		TransactionDate:   now,
		TransactionAmount: decimal.NewFromInt(12000),
		AggregatedAmount:  decimal.NewFromInt(12000),
		CashIn:            true,
	}))

	require.NoError(t, st.AppendScreening(ctx, &domain.SanctionsScreeningResult{
		ScreeningID:   uuid.New(),
		SubjectID:     "cust-1",
		ScreeningDate: now,
		Match:         true,
		ListsMatched:  []string{"SDN"},
	}))
	require.NoError(t, st.AppendScreening(ctx, &domain.SanctionsScreeningResult{
		ScreeningID:   uuid.New(),
		SubjectID:     "cust-2",
		ScreeningDate: now,
	}))

	require.NoError(t, st.PutCustomer(ctx, &domain.CustomerIdentificationRecord{
		CustomerID: "cust-1", RiskLevel: domain.RiskLevelHigh,
	}))
	require.NoError(t, st.PutCustomer(ctx, &domain.CustomerIdentificationRecord{
		CustomerID: "cust-2", RiskLevel: domain.RiskLevelLow,
	}))

	agg := NewReportAggregator(st, nil, zap.NewNop())
	report := agg.Generate(ctx, now.Add(-24*time.Hour), now.Add(24*time.Hour))

	require.Empty(t, report.Error)
	assert.Equal(t, 2, report.Summary.TotalSARFilings)
	assert.Equal(t, 1, report.Summary.TotalCTRFilings)
	assert.Equal(t, 2, report.Summary.TotalSanctionsScreenings)
	assert.Equal(t, 1, report.Summary.SanctionsHits)
	assert.Equal(t, 1, report.Summary.HighRiskCustomers)

	assert.Equal(t, 1, report.SARAnalysis.ByActivityType[domain.ActivityStructuring])
	assert.Equal(t, 1, report.SARAnalysis.ByActivityType[domain.ActivityOtherSuspicious])
	assert.True(t, report.SARAnalysis.AverageAmount.Equal(decimal.NewFromInt(6000)))
	assert.Equal(t, 1, report.SARAnalysis.PendingFilings)

	assert.True(t, report.CTRAnalysis.TotalAmount.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, 1, report.CTRAnalysis.CashInTransactions)
	assert.Equal(t, 0, report.CTRAnalysis.CashOutTransactions)

	assert.Equal(t, 50.0, report.Sanctions.MatchRate)
	assert.Equal(t, []string{"SDN"}, report.Sanctions.ListsMatched)

	assert.Equal(t, 50.0, report.Metrics.SARFilingTimeliness)
	assert.Equal(t, 0.0, report.Metrics.CTRFilingTimeliness)
	assert.Equal(t, 1, report.Metrics.RiskDistribution[domain.RiskLevelHigh])
	assert.Equal(t, 1, report.Metrics.RiskDistribution[domain.RiskLevelLow])
	assert.Equal(t, 0, report.Metrics.RiskDistribution[domain.RiskLevelProhibited])
}

func TestGeneratePeriodBoundariesInclusive(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	onStart := domain.NewSuspiciousActivityReport("cust-1", domain.ActivityFraud, decimal.NewFromInt(100), nil)
	onStart.ReportDate = start
	require.NoError(t, st.PutSAR(ctx, onStart))

	onEnd := domain.NewSuspiciousActivityReport("cust-2", domain.ActivityFraud, decimal.NewFromInt(100), nil)
	onEnd.ReportDate = end
	require.NoError(t, st.PutSAR(ctx, onEnd))

	before := domain.NewSuspiciousActivityReport("cust-3", domain.ActivityFraud, decimal.NewFromInt(100), nil)
	before.ReportDate = start.Add(-time.Second)
	require.NoError(t, st.PutSAR(ctx, before))

	agg := NewReportAggregator(st, nil, zap.NewNop())
	report := agg.Generate(ctx, start, end)

	assert.Equal(t, 2, report.Summary.TotalSARFilings)
}

func TestGenerateAndArchive(t *testing.T) {
	st := store.NewMemoryStore()
	archiver := &recordingArchiver{}
	agg := NewReportAggregator(st, archiver, zap.NewNop())

	report := agg.GenerateAndArchive(context.Background(), time.Now().Add(-time.Hour), time.Now())

	require.Empty(t, report.Error)
	assert.Equal(t, 1, archiver.calls)
}

type recordingArchiver struct {
	calls int
}

func (a *recordingArchiver) StoreReport(_ context.Context, _ *domain.ComplianceReport) (string, error) {
	a.calls++
	return "reports/2026/test.json", nil
}
