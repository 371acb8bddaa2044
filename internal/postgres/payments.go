package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// PaymentRepo carries the SQL for the payments table.
type PaymentRepo struct {
	db DB
}

const paymentColumns = `
	id, reserve_number, method, amount, received_on,
	check_number, reference, source, notes, created_at`

// ListByReserveNumber returns a charter's payments, oldest first.
func (r *PaymentRepo) ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE reserve_number = $1 ORDER BY received_on, id`, reserveNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for %s: %w", reserveNumber, err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.ReserveNumber, &p.Method, &p.Amount, &p.ReceivedOn,
			&p.CheckNumber, &p.Reference, &p.Source, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SumsByReserve returns the payment total per reserve number across the
// whole table. Charter balance verification consumes this in one pass
// instead of a query per charter.
func (r *PaymentRepo) SumsByReserve(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT reserve_number, COALESCE(SUM(amount), 0)
		 FROM payments GROUP BY reserve_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var reserve string
		var sum decimal.Decimal
		if err := rows.Scan(&reserve, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan payment sum: %w", err)
		}
		sums[reserve] = sum
	}
	return sums, rows.Err()
}

// ListUnlinkedInRange returns payments in the date range that no matched or
// confirmed bank transaction already points at. These are the candidates for
// credit-side reconciliation.
func (r *PaymentRepo) ListUnlinkedInRange(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments p
		 WHERE p.received_on BETWEEN $1 AND $2
		   AND NOT EXISTS (
			SELECT 1 FROM banking_transactions bt
			WHERE bt.matched_payment_id = p.id
			  AND bt.match_status IN ('matched', 'confirmed')
		   )
		 ORDER BY p.received_on, p.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.ReserveNumber, &p.Method, &p.Amount, &p.ReceivedOn,
			&p.CheckNumber, &p.Reference, &p.Source, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Create inserts a payment and returns it with the generated id.
func (r *PaymentRepo) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO payments (
			reserve_number, method, amount, received_on,
			check_number, reference, source, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`,
		p.ReserveNumber, p.Method, p.Amount, p.ReceivedOn,
		p.CheckNumber, p.Reference, p.Source, p.Notes,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return models.Payment{}, fmt.Errorf("failed to create payment for %s: %w", p.ReserveNumber, err)
	}
	return p, nil
}

// DuplicateGroup describes payments sharing reserve number, amount, and date.
type DuplicateGroup struct {
	ReserveNumber string
	Amount        decimal.Decimal
	ReceivedOn    time.Time
	PaymentIDs    []int64
}

// ListDuplicateGroups finds payments entered more than once. Double keying
// was a standing problem in the legacy system.
func (r *PaymentRepo) ListDuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT reserve_number, amount, received_on, array_agg(id ORDER BY id)
		FROM payments
		GROUP BY reserve_number, amount, received_on
		HAVING count(*) > 1
		ORDER BY reserve_number, received_on`)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate payments: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		if err := rows.Scan(&g.ReserveNumber, &g.Amount, &g.ReceivedOn, &g.PaymentIDs); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// MonthlyRevenue is one month's payment total.
type MonthlyRevenue struct {
	Month string
	Total decimal.Decimal
}

// RevenueByMonth totals payments per calendar month, oldest first.
func (r *PaymentRepo) RevenueByMonth(ctx context.Context, from, to time.Time) ([]MonthlyRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT to_char(received_on, 'YYYY-MM') AS month, COALESCE(SUM(amount), 0)
		FROM payments
		WHERE received_on BETWEEN $1 AND $2
		GROUP BY month
		ORDER BY month`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to total revenue by month: %w", err)
	}
	defer rows.Close()

	var months []MonthlyRevenue
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly revenue: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// RefundRepo carries the SQL for the charter_refunds table.
type RefundRepo struct {
	db DB
}

const refundColumns = `
	id, reserve_number, payment_id, amount, issued_on, method, reason, created_at`

// ListByReserveNumber returns a charter's refunds, oldest first.
func (r *RefundRepo) ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Refund, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+refundColumns+` FROM charter_refunds
		 WHERE reserve_number = $1 ORDER BY issued_on, id`, reserveNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds for %s: %w", reserveNumber, err)
	}
	defer rows.Close()

	var refunds []models.Refund
	for rows.Next() {
		var rf models.Refund
		if err := rows.Scan(
			&rf.ID, &rf.ReserveNumber, &rf.PaymentID, &rf.Amount,
			&rf.IssuedOn, &rf.Method, &rf.Reason, &rf.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

// SumsByReserve returns the refund total per reserve number.
func (r *RefundRepo) SumsByReserve(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT reserve_number, COALESCE(SUM(amount), 0)
		 FROM charter_refunds GROUP BY reserve_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum refunds: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var reserve string
		var sum decimal.Decimal
		if err := rows.Scan(&reserve, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan refund sum: %w", err)
		}
		sums[reserve] = sum
	}
	return sums, rows.Err()
}

// Create inserts a refund and returns it with the generated id.
func (r *RefundRepo) Create(ctx context.Context, rf models.Refund) (models.Refund, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO charter_refunds (
			reserve_number, payment_id, amount, issued_on, method, reason
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		rf.ReserveNumber, rf.PaymentID, rf.Amount, rf.IssuedOn, rf.Method, rf.Reason,
	)
	if err := row.Scan(&rf.ID, &rf.CreatedAt); err != nil {
		return models.Refund{}, fmt.Errorf("failed to create refund for %s: %w", rf.ReserveNumber, err)
	}
	return rf, nil
}

// ListOrphaned returns refunds whose reserve number no longer resolves to a
// charter. They show up when legacy rows were deleted by hand.
func (r *RefundRepo) ListOrphaned(ctx context.Context) ([]models.Refund, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+refundColumns+` FROM charter_refunds rf
		 WHERE NOT EXISTS (
			SELECT 1 FROM charters c WHERE c.reserve_number = rf.reserve_number
		 )
		 ORDER BY rf.issued_on, rf.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned refunds: %w", err)
	}
	defer rows.Close()

	var refunds []models.Refund
	for rows.Next() {
		var rf models.Refund
		if err := rows.Scan(
			&rf.ID, &rf.ReserveNumber, &rf.PaymentID, &rf.Amount,
			&rf.IssuedOn, &rf.Method, &rf.Reason, &rf.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}
