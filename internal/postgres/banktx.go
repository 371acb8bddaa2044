package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// BankTxRepo carries the SQL for the banking_transactions table.
type BankTxRepo struct {
	db DB
}

const bankTxColumns = `
	id, account_id, posted_on, description, amount, check_number,
	import_batch_id, match_status, matched_receipt_id, matched_payment_id,
	match_confidence, match_rule, created_at`

func scanBankTx(row pgx.Row) (models.BankTransaction, error) {
	var tx models.BankTransaction
	err := row.Scan(
		&tx.ID, &tx.AccountID, &tx.PostedOn, &tx.Description, &tx.Amount,
		&tx.CheckNumber, &tx.ImportBatchID, &tx.MatchStatus,
		&tx.MatchedReceiptID, &tx.MatchedPaymentID,
		&tx.MatchConfidence, &tx.MatchRule, &tx.CreatedAt,
	)
	return tx, err
}

// InsertBatch inserts statement lines in one round trip and reports how many
// were new. Re-importing the same statement is a no-op thanks to the unique
// constraint on (account_id, posted_on, amount, description).
func (r *BankTxRepo) InsertBatch(ctx context.Context, txs []models.BankTransaction) (inserted int, err error) {
	if len(txs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(`
			INSERT INTO banking_transactions (
				account_id, posted_on, description, amount,
				check_number, import_batch_id
			) VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (account_id, posted_on, amount, description) DO NOTHING`,
			tx.AccountID, tx.PostedOn, tx.Description, tx.Amount,
			tx.CheckNumber, tx.ImportBatchID,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		if cerr := results.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close insert batch: %w", cerr)
		}
	}()

	for range txs {
		tag, execErr := results.Exec()
		if execErr != nil {
			return inserted, fmt.Errorf("failed to insert bank transaction: %w", execErr)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListUnmatched returns unmatched transactions on the account inside the
// date range, oldest first. Account filter is skipped when empty.
func (r *BankTxRepo) ListUnmatched(ctx context.Context, accountID string, from, to time.Time) ([]models.BankTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankTxColumns+` FROM banking_transactions
		 WHERE match_status = 'unmatched'
		   AND posted_on BETWEEN $1 AND $2
		   AND ($3 = '' OR account_id = $3)
		 ORDER BY posted_on, id`, from, to, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.BankTransaction
	for rows.Next() {
		tx, err := scanBankTx(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListByStatus returns all transactions carrying the given match status.
func (r *BankTxRepo) ListByStatus(ctx context.Context, status models.MatchStatus) ([]models.BankTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankTxColumns+` FROM banking_transactions
		 WHERE match_status = $1 ORDER BY posted_on, id`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s transactions: %w", status, err)
	}
	defer rows.Close()

	var txs []models.BankTransaction
	for rows.Next() {
		tx, err := scanBankTx(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListStaleUnmatched returns transactions still unmatched after the cutoff
// number of days. The audit command flags them for manual review.
func (r *BankTxRepo) ListStaleUnmatched(ctx context.Context, olderThanDays int, now time.Time) ([]models.BankTransaction, error) {
	cutoff := now.AddDate(0, 0, -olderThanDays)
	rows, err := r.db.Query(ctx,
		`SELECT `+bankTxColumns+` FROM banking_transactions
		 WHERE match_status = 'unmatched' AND posted_on < $1
		 ORDER BY posted_on, id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale unmatched transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.BankTransaction
	for rows.Next() {
		tx, err := scanBankTx(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// MarkMatchedReceipt links a debit transaction to a receipt. Only unmatched
// rows may be linked so confirmed matches survive re-runs.
func (r *BankTxRepo) MarkMatchedReceipt(ctx context.Context, txID, receiptID int64, confidence float64, rule string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE banking_transactions
		SET match_status = 'matched', matched_receipt_id = $2,
		    matched_payment_id = NULL, match_confidence = $3, match_rule = $4
		WHERE id = $1 AND match_status = 'unmatched'`,
		txID, receiptID, confidence, rule)
	if err != nil {
		return fmt.Errorf("failed to link transaction %d to receipt %d: %w", txID, receiptID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}
	return nil
}

// MarkMatchedPayment links a credit transaction to a charter payment.
func (r *BankTxRepo) MarkMatchedPayment(ctx context.Context, txID, paymentID int64, confidence float64, rule string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE banking_transactions
		SET match_status = 'matched', matched_payment_id = $2,
		    matched_receipt_id = NULL, match_confidence = $3, match_rule = $4
		WHERE id = $1 AND match_status = 'unmatched'`,
		txID, paymentID, confidence, rule)
	if err != nil {
		return fmt.Errorf("failed to link transaction %d to payment %d: %w", txID, paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}
	return nil
}

// Confirm promotes a matched transaction to confirmed after human review.
func (r *BankTxRepo) Confirm(ctx context.Context, txID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE banking_transactions
		SET match_status = 'confirmed'
		WHERE id = $1 AND match_status = 'matched'`, txID)
	if err != nil {
		return fmt.Errorf("failed to confirm transaction %d: %w", txID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d is not in matched state: %w", txID, ErrNotFound)
	}
	return nil
}

// Unmatch clears an automatic match so the transaction re-enters the pool.
// Confirmed matches must be unmatched explicitly with force.
func (r *BankTxRepo) Unmatch(ctx context.Context, txID int64, force bool) error {
	var tag pgconn.CommandTag
	var err error
	if force {
		tag, err = r.db.Exec(ctx, `
			UPDATE banking_transactions
			SET match_status = 'unmatched', matched_receipt_id = NULL,
			    matched_payment_id = NULL, match_confidence = 0, match_rule = ''
			WHERE id = $1 AND match_status IN ('matched', 'confirmed')`, txID)
	} else {
		tag, err = r.db.Exec(ctx, `
			UPDATE banking_transactions
			SET match_status = 'unmatched', matched_receipt_id = NULL,
			    matched_payment_id = NULL, match_confidence = 0, match_rule = ''
			WHERE id = $1 AND match_status = 'matched'`, txID)
	}
	if err != nil {
		return fmt.Errorf("failed to unmatch transaction %d: %w", txID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d has no revocable match: %w", txID, ErrNotFound)
	}
	return nil
}

// Exclude removes a transaction from matching, recording why. Bank fees and
// transfers between own accounts fall here.
func (r *BankTxRepo) Exclude(ctx context.Context, txID int64, reason string) error {
	if reason == "" {
		return errors.New("an exclusion reason is required")
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE banking_transactions
		SET match_status = 'excluded', match_rule = $2
		WHERE id = $1 AND match_status = 'unmatched'`, txID, reason)
	if err != nil {
		return fmt.Errorf("failed to exclude transaction %d: %w", txID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
	}
	return nil
}

// CountByStatus reports how many transactions sit in each match status.
func (r *BankTxRepo) CountByStatus(ctx context.Context) (map[models.MatchStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT match_status, count(*) FROM banking_transactions GROUP BY match_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MatchStatus]int)
	for rows.Next() {
		var status models.MatchStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
