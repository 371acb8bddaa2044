package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// ReceiptRepo carries the SQL for the receipts table.
type ReceiptRepo struct {
	db DB
}

const receiptColumns = `
	id, vendor_raw, vendor_normalized, purchased_on, total, gst,
	check_number, category, category_source, notes, created_at`

func scanReceipt(row pgx.Row) (models.Receipt, error) {
	var rc models.Receipt
	err := row.Scan(
		&rc.ID, &rc.VendorRaw, &rc.VendorNormalized, &rc.PurchasedOn,
		&rc.Total, &rc.GST, &rc.CheckNumber, &rc.Category,
		&rc.CategorySource, &rc.Notes, &rc.CreatedAt,
	)
	return rc, err
}

// Create inserts a receipt and returns it with the generated id.
func (r *ReceiptRepo) Create(ctx context.Context, rc models.Receipt) (models.Receipt, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO receipts (
			vendor_raw, vendor_normalized, purchased_on, total, gst,
			check_number, category, category_source, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`,
		rc.VendorRaw, rc.VendorNormalized, rc.PurchasedOn, rc.Total, rc.GST,
		rc.CheckNumber, rc.Category, rc.CategorySource, rc.Notes,
	)
	if err := row.Scan(&rc.ID, &rc.CreatedAt); err != nil {
		return models.Receipt{}, fmt.Errorf("failed to create receipt for %s: %w", rc.VendorRaw, err)
	}
	return rc, nil
}

// ListUnlinkedInRange returns receipts in the range that no matched or
// confirmed bank transaction already points at. These are the candidates for
// debit-side reconciliation.
func (r *ReceiptRepo) ListUnlinkedInRange(ctx context.Context, from, to time.Time) ([]models.Receipt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+receiptColumns+` FROM receipts rc
		 WHERE rc.purchased_on BETWEEN $1 AND $2
		   AND NOT EXISTS (
			SELECT 1 FROM banking_transactions bt
			WHERE bt.matched_receipt_id = rc.id
			  AND bt.match_status IN ('matched', 'confirmed')
		   )
		 ORDER BY rc.purchased_on, rc.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

// ListUncategorized returns receipts still waiting for a category.
func (r *ReceiptRepo) ListUncategorized(ctx context.Context) ([]models.Receipt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+receiptColumns+` FROM receipts
		 WHERE category = '' ORDER BY purchased_on, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

// ListCategorized returns receipts that already carry a category. The
// classifier trains on them.
func (r *ReceiptRepo) ListCategorized(ctx context.Context) ([]models.Receipt, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+receiptColumns+` FROM receipts
		 WHERE category <> '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categorized receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

// UpdateCategory stamps a receipt with its category and where it came from.
func (r *ReceiptRepo) UpdateCategory(ctx context.Context, receiptID int64, category string, source models.CategorySource) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE receipts SET category = $2, category_source = $3
		WHERE id = $1`, receiptID, category, source)
	if err != nil {
		return fmt.Errorf("failed to categorize receipt %d: %w", receiptID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("receipt %d: %w", receiptID, ErrNotFound)
	}
	return nil
}

// CategoryTotal is one category's spend inside a reporting window.
type CategoryTotal struct {
	Category string
	Count    int
	Total    decimal.Decimal
}

// TotalsByCategory sums receipt spend per category inside the range,
// largest first. Uncategorized receipts group under the empty string.
func (r *ReceiptRepo) TotalsByCategory(ctx context.Context, from, to time.Time) ([]CategoryTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category, count(*), COALESCE(SUM(total), 0)
		FROM receipts
		WHERE purchased_on BETWEEN $1 AND $2
		GROUP BY category
		ORDER BY SUM(total) DESC, category`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to total receipts by category: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.Category, &t.Count, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
