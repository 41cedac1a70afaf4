package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/store"
)

// Standing recommendations attached to every generated report.
var reportRecommendations = []string{
	"Continue enhanced monitoring of high-risk customers",
	"Review and update AML policies quarterly",
	"Conduct staff training on new AML regulations",
	"Implement automated transaction monitoring",
	"Regular third-party AML compliance audit",
}

// ReportAggregator assembles compliance reports from the record stores and
// optionally archives them. Records dated exactly on a period boundary count
// as inside the period.
type ReportAggregator struct {
	records  store.RecordStore
	archiver ReportArchiver
	logger   *zap.Logger
}

// NewReportAggregator wires the aggregator. The archiver may be nil when no
// archive bucket is configured.
func NewReportAggregator(records store.RecordStore, archiver ReportArchiver, logger *zap.Logger) *ReportAggregator {
	return &ReportAggregator{
		records:  records,
		archiver: archiver,
		logger:   logger,
	}
}

// Generate builds the AML/BSA compliance report for the period. The four
// record sets load concurrently; a failure in any of them yields a report
// carrying only the period and an error.
func (a *ReportAggregator) Generate(ctx context.Context, start, end time.Time) (report *domain.ComplianceReport) {
	period := domain.ReportPeriod{
		StartDate:   start,
		EndDate:     end,
		GeneratedAt: time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("report generation panicked", zap.Any("panic", r))
			report = &domain.ComplianceReport{
				Period: period,
				Error:  "internal error during report generation",
			}
		}
	}()

	var (
		sars       []*domain.SuspiciousActivityReport
		ctrs       []*domain.CurrencyTransactionReport
		screenings []*domain.SanctionsScreeningResult
		customers  []*domain.CustomerIdentificationRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sars, err = a.records.ListSARs(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		ctrs, err = a.records.ListCTRs(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		screenings, err = a.records.ListScreenings(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		// Risk distribution covers the whole customer base, not the period.
		customers, err = a.records.ListCustomers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.Error("failed to load records for compliance report", zap.Error(err))
		return &domain.ComplianceReport{
			Period: period,
			Error:  "failed to load compliance records",
		}
	}

	sanctionsHits := 0
	listsSeen := make(map[string]struct{})
	for _, sc := range screenings {
		if sc.Match {
			sanctionsHits++
		}
		for _, list := range sc.ListsMatched {
			listsSeen[list] = struct{}{}
		}
	}
	var listsMatched []string
	for list := range listsSeen {
		listsMatched = append(listsMatched, list)
	}

	highRisk := 0
	riskDistribution := make(map[domain.RiskLevel]int, len(domain.AllRiskLevels))
	for _, level := range domain.AllRiskLevels {
		riskDistribution[level] = 0
	}
	for _, c := range customers {
		riskDistribution[c.RiskLevel]++
		if c.RiskLevel == domain.RiskLevelHigh {
			highRisk++
		}
	}

	matchRate := 0.0
	if len(screenings) > 0 {
		matchRate = float64(sanctionsHits) / float64(len(screenings)) * 100
	}

	return &domain.ComplianceReport{
		Period: period,
		Summary: domain.ExecutiveSummary{
			TotalSARFilings:          len(sars),
			TotalCTRFilings:          len(ctrs),
			TotalSanctionsScreenings: len(screenings),
			SanctionsHits:            sanctionsHits,
			HighRiskCustomers:        highRisk,
		},
		SARAnalysis: a.analyzeSARs(sars),
		CTRAnalysis: a.analyzeCTRs(ctrs),
		Sanctions: domain.SanctionsAnalysis{
			TotalScreenings: len(screenings),
			PositiveMatches: sanctionsHits,
			MatchRate:       matchRate,
			ListsMatched:    listsMatched,
		},
		Metrics: domain.ComplianceMetrics{
			SARFilingTimeliness: sarTimeliness(sars),
			CTRFilingTimeliness: ctrTimeliness(ctrs),
			ScreeningCoverage:   100.0,
			RiskDistribution:    riskDistribution,
		},
		Recommendations: reportRecommendations,
	}
}

// GenerateAndArchive generates the report and, when an archiver is wired and
// the report is clean, stores it. Archival failures are logged, not fatal.
func (a *ReportAggregator) GenerateAndArchive(ctx context.Context, start, end time.Time) *domain.ComplianceReport {
	report := a.Generate(ctx, start, end)
	if a.archiver == nil || report.Error != "" {
		return report
	}
	key, err := a.archiver.StoreReport(ctx, report)
	if err != nil {
		a.logger.Error("failed to archive compliance report", zap.Error(err))
		return report
	}
	a.logger.Info("compliance report archived", zap.String("archive_key", key))
	return report
}

func (a *ReportAggregator) analyzeSARs(sars []*domain.SuspiciousActivityReport) domain.SARAnalysis {
	byType := make(map[domain.SARActivityType]int)
	total := decimal.Zero
	pending := 0
	for _, sar := range sars {
		byType[sar.ActivityType]++
		total = total.Add(sar.SuspiciousAmount)
		if !sar.FiledWithRegulator {
			pending++
		}
	}
	average := decimal.Zero
	if len(sars) > 0 {
		average = total.Div(decimal.NewFromInt(int64(len(sars))))
	}
	return domain.SARAnalysis{
		TotalFiled:     len(sars),
		ByActivityType: byType,
		AverageAmount:  average,
		PendingFilings: pending,
	}
}

func (a *ReportAggregator) analyzeCTRs(ctrs []*domain.CurrencyTransactionReport) domain.CTRAnalysis {
	total := decimal.Zero
	cashIn, cashOut := 0, 0
	for _, ctr := range ctrs {
		total = total.Add(ctr.TransactionAmount)
		if ctr.CashIn {
			cashIn++
		}
		if ctr.CashOut {
			cashOut++
		}
	}
	return domain.CTRAnalysis{
		TotalFiled:          len(ctrs),
		TotalAmount:         total,
		CashInTransactions:  cashIn,
		CashOutTransactions: cashOut,
	}
}

// sarTimeliness is the percentage of SARs filed with a recorded filing date.
// An empty set is vacuously 100% timely.
func sarTimeliness(sars []*domain.SuspiciousActivityReport) float64 {
	if len(sars) == 0 {
		return 100.0
	}
	timely := 0
	for _, sar := range sars {
		if sar.FiledWithRegulator && sar.FilingDate != nil {
			timely++
		}
	}
	return float64(timely) / float64(len(sars)) * 100
}

func ctrTimeliness(ctrs []*domain.CurrencyTransactionReport) float64 {
	if len(ctrs) == 0 {
		return 100.0
	}
	timely := 0
	for _, ctr := range ctrs {
		if ctr.FiledWithRegulator && ctr.FilingDate != nil {
			timely++
		}
	}
	return float64(timely) / float64(len(ctrs)) * 100
}
