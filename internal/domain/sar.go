package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SARActivityType classifies the suspicious activity behind a SAR filing
type SARActivityType string

const (
	ActivityStructuring        SARActivityType = "structuring"
	ActivityMoneyLaundering    SARActivityType = "money_laundering"
	ActivityTerroristFinancing SARActivityType = "terrorist_financing"
	ActivityFraud              SARActivityType = "fraud"
	ActivityIdentityTheft      SARActivityType = "identity_theft"
	ActivityCyberCrime         SARActivityType = "cyber_crime"
	ActivityOtherSuspicious    SARActivityType = "other_suspicious"
)

// CaseStatus tracks the investigation state of a SAR
type CaseStatus string

const (
	CaseOpen               CaseStatus = "open"
	CaseUnderInvestigation CaseStatus = "under_investigation"
	CaseClosed             CaseStatus = "closed"
)

// Suspicion indicator names produced by the transaction monitor.
const (
	IndicatorLargeAmount       = "large_amount"
	IndicatorStructuring       = "structuring"
	IndicatorUnusualFrequency  = "unusual_frequency"
	IndicatorGeographicAnomaly = "geographic_anomaly"
	IndicatorBehavioralAnomaly = "behavioral_anomaly"
)

// SuspiciousActivityReport is a SAR record created when the monitor's decision
// rule fires. Filing with the regulator happens downstream; the engine tracks
// the deadline.
type SuspiciousActivityReport struct {
	SARID              uuid.UUID       `json:"sar_id" db:"sar_id"`
	CustomerID         string          `json:"customer_id" db:"customer_id"`
	ReportDate         time.Time       `json:"report_date" db:"report_date"`
	ActivityDate       time.Time       `json:"activity_date" db:"activity_date"`
	ActivityType       SARActivityType `json:"activity_type" db:"activity_type"`
	SuspiciousAmount   decimal.Decimal `json:"suspicious_amount" db:"suspicious_amount"`
	Narrative          string          `json:"narrative" db:"narrative"`
	Indicators         []string        `json:"indicators" db:"indicators"`
	FiledWithRegulator bool            `json:"filed_with_regulator" db:"filed_with_regulator"`
	FilingDate         *time.Time      `json:"filing_date,omitempty" db:"filing_date"`
	FilingDeadline     time.Time       `json:"filing_deadline" db:"filing_deadline"`
	CaseStatus         CaseStatus      `json:"case_status" db:"case_status"`
	DigitalSignature   string          `json:"digital_signature,omitempty" db:"digital_signature"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// NewSuspiciousActivityReport creates an open SAR with a generated id and
// UTC timestamps.
func NewSuspiciousActivityReport(customerID string, activity SARActivityType, amount decimal.Decimal, indicators []string) *SuspiciousActivityReport {
	now := time.Now().UTC()
	return &SuspiciousActivityReport{
		SARID:            uuid.New(),
		CustomerID:       customerID,
		ReportDate:       now,
		ActivityDate:     now,
		ActivityType:     activity,
		SuspiciousAmount: amount,
		Indicators:       indicators,
		CaseStatus:       CaseOpen,
		CreatedAt:        now,
	}
}

// SARAssessment is the outcome of monitoring one transaction.
type SARAssessment struct {
	SuspiciousActivityDetected bool       `json:"suspicious_activity_detected"`
	SARRequired                bool       `json:"sar_required"`
	SARID                      *uuid.UUID `json:"sar_id,omitempty"`
	Indicators                 []string   `json:"suspicious_indicators,omitempty"`
	RiskScore                  int        `json:"risk_score"` // 0-100
	RecommendedActions         []string   `json:"recommended_actions,omitempty"`
	FilingDeadline             *time.Time `json:"filing_deadline,omitempty"`
	MonitoringStatus           string     `json:"monitoring_status,omitempty"`
	Error                      string     `json:"error,omitempty"`
}
