package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyTransactionReport is a CTR record created when a cash transaction,
// alone or aggregated over the rolling window, reaches the reporting
// threshold.
type CurrencyTransactionReport struct {
	CTRID                uuid.UUID       `json:"ctr_id" db:"ctr_id"`
	CustomerID           string          `json:"customer_id" db:"customer_id"`
	TransactionDate      time.Time       `json:"transaction_date" db:"transaction_date"`
	TransactionAmount    decimal.Decimal `json:"transaction_amount" db:"transaction_amount"`
	AggregatedAmount     decimal.Decimal `json:"aggregated_amount" db:"aggregated_amount"`
	Currency             string          `json:"currency" db:"currency"`
	TransactionType      string          `json:"transaction_type" db:"transaction_type"`
	CashIn               bool            `json:"cash_in" db:"cash_in"`
	CashOut              bool            `json:"cash_out" db:"cash_out"`
	MultipleTransactions bool            `json:"multiple_transactions" db:"multiple_transactions"`
	FiledWithRegulator   bool            `json:"filed_with_regulator" db:"filed_with_regulator"`
	FilingDate           *time.Time      `json:"filing_date,omitempty" db:"filing_date"`
	FilingDeadline       time.Time       `json:"filing_deadline" db:"filing_deadline"`
	ExemptionApplied     bool            `json:"exemption_applied" db:"exemption_applied"`
	ExemptionReason      string          `json:"exemption_reason,omitempty" db:"exemption_reason"`
	DigitalSignature     string          `json:"digital_signature,omitempty" db:"digital_signature"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// CTRAssessment is the outcome of evaluating one transaction against the CTR
// rules.
type CTRAssessment struct {
	CTRRequired          bool            `json:"ctr_required"`
	CTRID                *uuid.UUID      `json:"ctr_id,omitempty"`
	AggregatedAmount     decimal.Decimal `json:"aggregated_amount"`
	SingleTransaction    bool            `json:"single_transaction"`
	MultipleTransactions bool            `json:"multiple_transactions"`
	FilingDeadline       *time.Time      `json:"filing_deadline,omitempty"`
	RequiredInformation  []string        `json:"required_information,omitempty"`
	Reason               string          `json:"reason,omitempty"`
	Error                string          `json:"error,omitempty"`
}
