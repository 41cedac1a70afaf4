// Package postgres implements the compliance record store on PostgreSQL.
// SAR, CTR, and screening tables are append-only; customers upsert.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/banking/aml-compliance/internal/config"
	"github.com/banking/aml-compliance/internal/domain"
)

// RecordStore implements store.RecordStore on a pgx connection pool.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore opens a connection pool from the database configuration.
func NewRecordStore(cfg config.DatabaseConfig) (*RecordStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &RecordStore{pool: pool}, nil
}

// Close releases the connection pool.
func (r *RecordStore) Close() {
	r.pool.Close()
}

// Ping verifies database connectivity.
func (r *RecordStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// PutCustomer upserts the identification record. Re-identification replaces
// the prior record.
func (r *RecordStore) PutCustomer(ctx context.Context, record *domain.CustomerIdentificationRecord) error {
	const query = `
		INSERT INTO customer_identification_records (
			customer_id, customer_name, date_of_birth, identification_type,
			identification_number, encryption_key_id, address, phone_number,
			email, verification_method, verification_date, verification_status,
			risk_level, risk_score, pep_status, sanctions_check_result,
			sanctions_match, edd_required, beneficial_owners, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (customer_id) DO UPDATE SET
			customer_name = EXCLUDED.customer_name,
			date_of_birth = EXCLUDED.date_of_birth,
			identification_type = EXCLUDED.identification_type,
			identification_number = EXCLUDED.identification_number,
			encryption_key_id = EXCLUDED.encryption_key_id,
			address = EXCLUDED.address,
			phone_number = EXCLUDED.phone_number,
			email = EXCLUDED.email,
			verification_method = EXCLUDED.verification_method,
			verification_date = EXCLUDED.verification_date,
			verification_status = EXCLUDED.verification_status,
			risk_level = EXCLUDED.risk_level,
			risk_score = EXCLUDED.risk_score,
			pep_status = EXCLUDED.pep_status,
			sanctions_check_result = EXCLUDED.sanctions_check_result,
			sanctions_match = EXCLUDED.sanctions_match,
			edd_required = EXCLUDED.edd_required,
			beneficial_owners = EXCLUDED.beneficial_owners,
			updated_at = EXCLUDED.updated_at
	`

	address, err := json.Marshal(record.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}
	owners, err := json.Marshal(record.BeneficialOwners)
	if err != nil {
		return fmt.Errorf("failed to marshal beneficial owners: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		record.CustomerID, record.CustomerName, record.DateOfBirth, record.IdentificationType,
		record.IdentificationNumber, record.EncryptionKeyID, address, record.PhoneNumber,
		record.Email, record.VerificationMethod, record.VerificationDate, record.VerificationStatus,
		record.RiskLevel, record.RiskScore, record.PEPStatus, record.SanctionsCheckResult,
		record.SanctionsMatch, record.EDDRequired, owners, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert customer record: %w", err)
	}
	return nil
}

// GetCustomer loads one identification record.
func (r *RecordStore) GetCustomer(ctx context.Context, customerID string) (*domain.CustomerIdentificationRecord, error) {
	const query = `
		SELECT customer_id, customer_name, date_of_birth, identification_type,
			identification_number, encryption_key_id, address, phone_number,
			email, verification_method, verification_date, verification_status,
			risk_level, risk_score, pep_status, sanctions_check_result,
			sanctions_match, edd_required, beneficial_owners, created_at, updated_at
		FROM customer_identification_records
		WHERE customer_id = $1
	`
	record, err := scanCustomer(r.pool.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %s not found", customerID)
		}
		return nil, fmt.Errorf("failed to load customer record: %w", err)
	}
	return record, nil
}

// ListCustomers loads every identification record.
func (r *RecordStore) ListCustomers(ctx context.Context) ([]*domain.CustomerIdentificationRecord, error) {
	const query = `
		SELECT customer_id, customer_name, date_of_birth, identification_type,
			identification_number, encryption_key_id, address, phone_number,
			email, verification_method, verification_date, verification_status,
			risk_level, risk_score, pep_status, sanctions_check_result,
			sanctions_match, edd_required, beneficial_owners, created_at, updated_at
		FROM customer_identification_records
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer records: %w", err)
	}
	defer rows.Close()

	var records []*domain.CustomerIdentificationRecord
	for rows.Next() {
		record, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanCustomer(row pgx.Row) (*domain.CustomerIdentificationRecord, error) {
	var record domain.CustomerIdentificationRecord
	var address, owners []byte
	err := row.Scan(
		&record.CustomerID, &record.CustomerName, &record.DateOfBirth, &record.IdentificationType,
		&record.IdentificationNumber, &record.EncryptionKeyID, &address, &record.PhoneNumber,
		&record.Email, &record.VerificationMethod, &record.VerificationDate, &record.VerificationStatus,
		&record.RiskLevel, &record.RiskScore, &record.PEPStatus, &record.SanctionsCheckResult,
		&record.SanctionsMatch, &record.EDDRequired, &owners, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &record.Address); err != nil {
			return nil, fmt.Errorf("failed to unmarshal address: %w", err)
		}
	}
	if len(owners) > 0 {
		if err := json.Unmarshal(owners, &record.BeneficialOwners); err != nil {
			return nil, fmt.Errorf("failed to unmarshal beneficial owners: %w", err)
		}
	}
	return &record, nil
}

// PutSAR appends a suspicious activity report.
func (r *RecordStore) PutSAR(ctx context.Context, sar *domain.SuspiciousActivityReport) error {
	const query = `
		INSERT INTO suspicious_activity_reports (
			sar_id, customer_id, report_date, activity_date, activity_type,
			suspicious_amount, narrative, indicators, filed_with_regulator,
			filing_date, filing_deadline, case_status, digital_signature, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	indicators, err := json.Marshal(sar.Indicators)
	if err != nil {
		return fmt.Errorf("failed to marshal indicators: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		sar.SARID, sar.CustomerID, sar.ReportDate, sar.ActivityDate, sar.ActivityType,
		sar.SuspiciousAmount, sar.Narrative, indicators, sar.FiledWithRegulator,
		sar.FilingDate, sar.FilingDeadline, sar.CaseStatus, sar.DigitalSignature, sar.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert SAR: %w", err)
	}
	return nil
}

// ListSARs loads SARs with a report date inside [start, end].
func (r *RecordStore) ListSARs(ctx context.Context, start, end time.Time) ([]*domain.SuspiciousActivityReport, error) {
	const query = `
		SELECT sar_id, customer_id, report_date, activity_date, activity_type,
			suspicious_amount, narrative, indicators, filed_with_regulator,
			filing_date, filing_deadline, case_status, digital_signature, created_at
		FROM suspicious_activity_reports
		WHERE report_date >= $1 AND report_date <= $2
		ORDER BY report_date
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list SARs: %w", err)
	}
	defer rows.Close()

	var sars []*domain.SuspiciousActivityReport
	for rows.Next() {
		var sar domain.SuspiciousActivityReport
		var indicators []byte
		err := rows.Scan(
			&sar.SARID, &sar.CustomerID, &sar.ReportDate, &sar.ActivityDate, &sar.ActivityType,
			&sar.SuspiciousAmount, &sar.Narrative, &indicators, &sar.FiledWithRegulator,
			&sar.FilingDate, &sar.FilingDeadline, &sar.CaseStatus, &sar.DigitalSignature, &sar.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan SAR: %w", err)
		}
		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &sar.Indicators); err != nil {
				return nil, fmt.Errorf("failed to unmarshal indicators: %w", err)
			}
		}
		sars = append(sars, &sar)
	}
	return sars, rows.Err()
}

// PutCTR appends a currency transaction report.
func (r *RecordStore) PutCTR(ctx context.Context, ctr *domain.CurrencyTransactionReport) error {
	const query = `
		INSERT INTO currency_transaction_reports (
			ctr_id, customer_id, transaction_date, transaction_amount, aggregated_amount,
			currency, transaction_type, cash_in, cash_out, multiple_transactions,
			filed_with_regulator, filing_date, filing_deadline, exemption_applied,
			exemption_reason, digital_signature, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.pool.Exec(ctx, query,
		ctr.CTRID, ctr.CustomerID, ctr.TransactionDate, ctr.TransactionAmount, ctr.AggregatedAmount,
		ctr.Currency, ctr.TransactionType, ctr.CashIn, ctr.CashOut, ctr.MultipleTransactions,
		ctr.FiledWithRegulator, ctr.FilingDate, ctr.FilingDeadline, ctr.ExemptionApplied,
		ctr.ExemptionReason, ctr.DigitalSignature, ctr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert CTR: %w", err)
	}
	return nil
}

// ListCTRs loads CTRs with a transaction date inside [start, end].
func (r *RecordStore) ListCTRs(ctx context.Context, start, end time.Time) ([]*domain.CurrencyTransactionReport, error) {
	const query = `
		SELECT ctr_id, customer_id, transaction_date, transaction_amount, aggregated_amount,
			currency, transaction_type, cash_in, cash_out, multiple_transactions,
			filed_with_regulator, filing_date, filing_deadline, exemption_applied,
			exemption_reason, digital_signature, created_at
		FROM currency_transaction_reports
		WHERE transaction_date >= $1 AND transaction_date <= $2
		ORDER BY transaction_date
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list CTRs: %w", err)
	}
	defer rows.Close()

	var ctrs []*domain.CurrencyTransactionReport
	for rows.Next() {
		var ctr domain.CurrencyTransactionReport
		err := rows.Scan(
			&ctr.CTRID, &ctr.CustomerID, &ctr.TransactionDate, &ctr.TransactionAmount, &ctr.AggregatedAmount,
			&ctr.Currency, &ctr.TransactionType, &ctr.CashIn, &ctr.CashOut, &ctr.MultipleTransactions,
			&ctr.FiledWithRegulator, &ctr.FilingDate, &ctr.FilingDeadline, &ctr.ExemptionApplied,
			&ctr.ExemptionReason, &ctr.DigitalSignature, &ctr.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan CTR: %w", err)
		}
		ctrs = append(ctrs, &ctr)
	}
	return ctrs, rows.Err()
}

// AppendScreening appends a screening result. The table carries no update
// path; clearance is a compliance-officer workflow outside this service.
func (r *RecordStore) AppendScreening(ctx context.Context, result *domain.SanctionsScreeningResult) error {
	const query = `
		INSERT INTO sanctions_screening_results (
			screening_id, subject_id, screening_date, screening_type, match,
			match_score, matched_names, lists_matched, action_taken,
			requires_manual_review, cleared_by, clearance_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	matchedNames, err := json.Marshal(result.MatchedNames)
	if err != nil {
		return fmt.Errorf("failed to marshal matched names: %w", err)
	}
	lists, err := json.Marshal(result.ListsMatched)
	if err != nil {
		return fmt.Errorf("failed to marshal lists: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		result.ScreeningID, result.SubjectID, result.ScreeningDate, result.ScreeningType, result.Match,
		result.MatchScore, matchedNames, lists, result.ActionTaken,
		result.RequiresManualReview, result.ClearedBy, result.ClearanceDate, result.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert screening result: %w", err)
	}
	return nil
}

// ListScreenings loads screening results dated inside [start, end].
func (r *RecordStore) ListScreenings(ctx context.Context, start, end time.Time) ([]*domain.SanctionsScreeningResult, error) {
	const query = `
		SELECT screening_id, subject_id, screening_date, screening_type, match,
			match_score, matched_names, lists_matched, action_taken,
			requires_manual_review, cleared_by, clearance_date, notes
		FROM sanctions_screening_results
		WHERE screening_date >= $1 AND screening_date <= $2
		ORDER BY screening_date
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list screening results: %w", err)
	}
	defer rows.Close()

	var results []*domain.SanctionsScreeningResult
	for rows.Next() {
		var result domain.SanctionsScreeningResult
		var matchedNames, lists []byte
		err := rows.Scan(
			&result.ScreeningID, &result.SubjectID, &result.ScreeningDate, &result.ScreeningType, &result.Match,
			&result.MatchScore, &matchedNames, &lists, &result.ActionTaken,
			&result.RequiresManualReview, &result.ClearedBy, &result.ClearanceDate, &result.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screening result: %w", err)
		}
		if len(matchedNames) > 0 {
			if err := json.Unmarshal(matchedNames, &result.MatchedNames); err != nil {
				return nil, fmt.Errorf("failed to unmarshal matched names: %w", err)
			}
		}
		if len(lists) > 0 {
			if err := json.Unmarshal(lists, &result.ListsMatched); err != nil {
				return nil, fmt.Errorf("failed to unmarshal lists: %w", err)
			}
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// RecordCash appends one cash activity entry.
func (r *RecordStore) RecordCash(ctx context.Context, entry *domain.CashActivity) error {
	const query = `
		INSERT INTO cash_activity (
			entry_id, customer_id, currency, amount, cash_out, occurred_at, reported_ctr_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.EntryID, entry.CustomerID, entry.Currency, entry.Amount,
		entry.CashOut, entry.OccurredAt, entry.ReportedCTRID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash activity: %w", err)
	}
	return nil
}

// UnreportedTotal sums unreported cash entries for the customer and currency
// at or after since.
func (r *RecordStore) UnreportedTotal(ctx context.Context, customerID, currency string, since time.Time) (decimal.Decimal, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0)
		FROM cash_activity
		WHERE customer_id = $1 AND currency = $2
			AND occurred_at >= $3 AND reported_ctr_id IS NULL
	`
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, customerID, currency, since).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate cash activity: %w", err)
	}
	return total, nil
}

// MarkReported stamps unreported entries in the window with the CTR id.
func (r *RecordStore) MarkReported(ctx context.Context, customerID, currency string, since time.Time, ctrID uuid.UUID) error {
	const query = `
		UPDATE cash_activity
		SET reported_ctr_id = $4
		WHERE customer_id = $1 AND currency = $2
			AND occurred_at >= $3 AND reported_ctr_id IS NULL
	`
	_, err := r.pool.Exec(ctx, query, customerID, currency, since, ctrID)
	if err != nil {
		return fmt.Errorf("failed to mark cash activity reported: %w", err)
	}
	return nil
}
