package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the engine's view of a single monetary event. The host layer
// owns serialization; the engine treats the transaction id opaquely.
type Transaction struct {
	TransactionID   string          `json:"transaction_id,omitempty"`
	CustomerID      string          `json:"customer_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"` // defaults to USD
	TransactionType string          `json:"transaction_type,omitempty"`
	IsCash          bool            `json:"is_cash"`
	CashOut         bool            `json:"cash_out,omitempty"` // cash leaving the institution
	Country         string          `json:"country,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at,omitempty"`
}

// CashActivity is one cash transaction recorded for rolling-window CTR
// aggregation, grouped by customer id and currency. Once a CTR covers the
// entry, ReportedCTRID is set and the entry no longer counts toward new
// aggregates.
type CashActivity struct {
	EntryID       uuid.UUID       `json:"entry_id" db:"entry_id"`
	CustomerID    string          `json:"customer_id" db:"customer_id"`
	Currency      string          `json:"currency" db:"currency"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	CashOut       bool            `json:"cash_out" db:"cash_out"`
	OccurredAt    time.Time       `json:"occurred_at" db:"occurred_at"`
	ReportedCTRID *uuid.UUID      `json:"reported_ctr_id,omitempty" db:"reported_ctr_id"`
}
