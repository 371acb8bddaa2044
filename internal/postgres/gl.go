package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// GLRepo carries the SQL for the general_ledger table.
type GLRepo struct {
	db DB
}

// Insert writes one ledger entry.
func (r *GLRepo) Insert(ctx context.Context, e models.GLEntry) (models.GLEntry, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO general_ledger (
			posted_on, account, debit, credit, memo, source_module
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		e.PostedOn, e.Account, e.Debit, e.Credit, e.Memo, e.SourceModule,
	)
	if err := row.Scan(&e.ID); err != nil {
		return models.GLEntry{}, fmt.Errorf("failed to insert ledger entry for %s: %w", e.Account, err)
	}
	return e, nil
}

// UnbalancedDay is a posting date whose debits and credits disagree.
type UnbalancedDay struct {
	PostedOn time.Time
	Debits   decimal.Decimal
	Credits  decimal.Decimal
}

// Difference returns debits minus credits.
func (d UnbalancedDay) Difference() decimal.Decimal {
	return d.Debits.Sub(d.Credits)
}

// ListUnbalancedDays returns posting dates where total debits and credits
// differ. A healthy double-entry ledger returns nothing.
func (r *GLRepo) ListUnbalancedDays(ctx context.Context, from, to time.Time) ([]UnbalancedDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT posted_on, COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM general_ledger
		WHERE posted_on BETWEEN $1 AND $2
		GROUP BY posted_on
		HAVING SUM(debit) <> SUM(credit)
		ORDER BY posted_on`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list unbalanced ledger days: %w", err)
	}
	defer rows.Close()

	var days []UnbalancedDay
	for rows.Next() {
		var d UnbalancedDay
		if err := rows.Scan(&d.PostedOn, &d.Debits, &d.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan unbalanced day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ListByAccount returns ledger entries for one account inside the range,
// oldest first. The payroll remittance audit reads the remittance liability
// account through this.
func (r *GLRepo) ListByAccount(ctx context.Context, account string, from, to time.Time) ([]models.GLEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, posted_on, account, debit, credit, memo, source_module
		FROM general_ledger
		WHERE account = $1 AND posted_on BETWEEN $2 AND $3
		ORDER BY posted_on, id`, account, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for %s: %w", account, err)
	}
	defer rows.Close()

	var entries []models.GLEntry
	for rows.Next() {
		var e models.GLEntry
		if err := rows.Scan(
			&e.ID, &e.PostedOn, &e.Account, &e.Debit, &e.Credit,
			&e.Memo, &e.SourceModule,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AccountActivity is one account's movement inside a reporting window.
type AccountActivity struct {
	Account string
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// ActivityByAccount sums ledger movement per account inside the range.
func (r *GLRepo) ActivityByAccount(ctx context.Context, from, to time.Time) ([]AccountActivity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT account, COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM general_ledger
		WHERE posted_on BETWEEN $1 AND $2
		GROUP BY account
		ORDER BY account`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger activity: %w", err)
	}
	defer rows.Close()

	var accounts []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.Account, &a.Debits, &a.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan account activity: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
