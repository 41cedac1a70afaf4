package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportPeriod bounds a compliance report. Records dated exactly on either
// boundary are included.
type ReportPeriod struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	GeneratedAt time.Time `json:"generated_date"`
}

// ExecutiveSummary holds the headline counts of a compliance report.
type ExecutiveSummary struct {
	TotalSARFilings          int `json:"total_sar_filings"`
	TotalCTRFilings          int `json:"total_ctr_filings"`
	TotalSanctionsScreenings int `json:"total_sanctions_screenings"`
	SanctionsHits            int `json:"sanctions_hits"`
	HighRiskCustomers        int `json:"high_risk_customers"`
}

// SARAnalysis breaks down SAR activity within the report window.
type SARAnalysis struct {
	TotalFiled     int                     `json:"total_filed"`
	ByActivityType map[SARActivityType]int `json:"by_activity_type"`
	AverageAmount  decimal.Decimal         `json:"average_amount"`
	PendingFilings int                     `json:"pending_filings"`
}

// CTRAnalysis summarizes currency transaction reporting within the window.
type CTRAnalysis struct {
	TotalFiled          int             `json:"total_filed"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	CashInTransactions  int             `json:"cash_in_transactions"`
	CashOutTransactions int             `json:"cash_out_transactions"`
}

// SanctionsAnalysis summarizes screening activity within the window.
// MatchRate is a percentage; 0 when there were no screenings.
type SanctionsAnalysis struct {
	TotalScreenings int      `json:"total_screenings"`
	PositiveMatches int      `json:"positive_matches"`
	MatchRate       float64  `json:"match_rate"`
	ListsMatched    []string `json:"lists_matched,omitempty"`
}

// ComplianceMetrics carries filing timeliness and the customer risk
// distribution. Timeliness percentages are 100.0 for empty record sets.
type ComplianceMetrics struct {
	SARFilingTimeliness float64           `json:"sar_filing_timeliness"`
	CTRFilingTimeliness float64           `json:"ctr_filing_timeliness"`
	ScreeningCoverage   float64           `json:"sanctions_screening_coverage"`
	RiskDistribution    map[RiskLevel]int `json:"customer_risk_distribution"`
}

// ComplianceReport is the aggregate AML/BSA report over a time window.
type ComplianceReport struct {
	Period          ReportPeriod      `json:"report_period"`
	Summary         ExecutiveSummary  `json:"executive_summary"`
	SARAnalysis     SARAnalysis       `json:"sar_analysis"`
	CTRAnalysis     CTRAnalysis       `json:"ctr_analysis"`
	Sanctions       SanctionsAnalysis `json:"sanctions_screening"`
	Metrics         ComplianceMetrics `json:"compliance_metrics"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Standard filing deadlines relative to detection / transaction date.
var FilingDeadlines = map[string]time.Duration{
	"SAR": 30 * 24 * time.Hour,
	"CTR": 15 * 24 * time.Hour,
}
