package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// CharterRepo carries the SQL for the charters table.
type CharterRepo struct {
	db DB
}

const charterColumns = `
	id, reserve_number, client_id, vehicle_id, driver_id, pickup_at,
	pickup_address, dropoff_address, passengers, status,
	total_amount_due, paid_amount, balance, notes,
	confirmed_at, dispatched_at, completed_at, closed_at, cancelled_at,
	created_at, updated_at`

func scanCharter(row pgx.Row) (models.Charter, error) {
	var c models.Charter
	err := row.Scan(
		&c.ID, &c.ReserveNumber, &c.ClientID, &c.VehicleID, &c.DriverID, &c.PickupAt,
		&c.PickupAddr, &c.DropoffAddr, &c.Passengers, &c.Status,
		&c.TotalAmountDue, &c.PaidAmount, &c.Balance, &c.Notes,
		&c.ConfirmedAt, &c.DispatchedAt, &c.CompletedAt, &c.ClosedAt, &c.CancelledAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByReserveNumber fetches one charter by the office's business key.
func (r *CharterRepo) GetByReserveNumber(ctx context.Context, reserveNumber string) (models.Charter, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+charterColumns+` FROM charters WHERE reserve_number = $1`, reserveNumber)
	c, err := scanCharter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Charter{}, fmt.Errorf("charter %s: %w", reserveNumber, ErrNotFound)
	}
	if err != nil {
		return models.Charter{}, fmt.Errorf("failed to load charter %s: %w", reserveNumber, err)
	}
	return c, nil
}

// List returns all charters ordered by reserve number.
func (r *CharterRepo) List(ctx context.Context) ([]models.Charter, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+charterColumns+` FROM charters ORDER BY reserve_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list charters: %w", err)
	}
	defer rows.Close()

	var charters []models.Charter
	for rows.Next() {
		c, err := scanCharter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan charter: %w", err)
		}
		charters = append(charters, c)
	}
	return charters, rows.Err()
}

// Create inserts a charter and returns it with the generated id.
func (r *CharterRepo) Create(ctx context.Context, c models.Charter) (models.Charter, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO charters (
			reserve_number, client_id, vehicle_id, driver_id, pickup_at,
			pickup_address, dropoff_address, passengers, status,
			total_amount_due, paid_amount, balance, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`,
		c.ReserveNumber, c.ClientID, c.VehicleID, c.DriverID, c.PickupAt,
		c.PickupAddr, c.DropoffAddr, c.Passengers, c.Status,
		c.TotalAmountDue, c.PaidAmount, c.Balance, c.Notes,
	)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Charter{}, fmt.Errorf("failed to create charter %s: %w", c.ReserveNumber, err)
	}
	return c, nil
}

// UpdateTotals rewrites a charter's paid amount and balance. The balance
// repair path is the only caller.
func (r *CharterRepo) UpdateTotals(ctx context.Context, id int64, paid, balance decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE charters
		SET paid_amount = $2, balance = $3, updated_at = now()
		WHERE id = $1`,
		id, paid, balance)
	if err != nil {
		return fmt.Errorf("failed to update charter %d totals: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("charter %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateStatus persists a status change and its lifecycle timestamps.
func (r *CharterRepo) UpdateStatus(ctx context.Context, c models.Charter) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE charters
		SET status = $2, confirmed_at = $3, dispatched_at = $4,
		    completed_at = $5, closed_at = $6, cancelled_at = $7,
		    updated_at = now()
		WHERE id = $1`,
		c.ID, c.Status, c.ConfirmedAt, c.DispatchedAt,
		c.CompletedAt, c.ClosedAt, c.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to update charter %d status: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("charter %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Upsert inserts a charter or updates the existing row with the same reserve
// number. The LMS migration calls this for every legacy reservation.
func (r *CharterRepo) Upsert(ctx context.Context, c models.Charter) (models.Charter, bool, error) {
	var inserted bool
	row := r.db.QueryRow(ctx, `
		INSERT INTO charters (
			reserve_number, client_id, vehicle_id, driver_id, pickup_at,
			pickup_address, dropoff_address, passengers, status,
			total_amount_due, paid_amount, balance, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (reserve_number) DO UPDATE SET
			client_id        = EXCLUDED.client_id,
			vehicle_id       = EXCLUDED.vehicle_id,
			driver_id        = EXCLUDED.driver_id,
			pickup_at        = EXCLUDED.pickup_at,
			pickup_address   = EXCLUDED.pickup_address,
			dropoff_address  = EXCLUDED.dropoff_address,
			passengers       = EXCLUDED.passengers,
			status           = EXCLUDED.status,
			total_amount_due = EXCLUDED.total_amount_due,
			paid_amount      = EXCLUDED.paid_amount,
			balance          = EXCLUDED.balance,
			notes            = EXCLUDED.notes,
			updated_at       = now()
		RETURNING id, (xmax = 0), created_at, updated_at`,
		c.ReserveNumber, c.ClientID, c.VehicleID, c.DriverID, c.PickupAt,
		c.PickupAddr, c.DropoffAddr, c.Passengers, c.Status,
		c.TotalAmountDue, c.PaidAmount, c.Balance, c.Notes,
	)
	if err := row.Scan(&c.ID, &inserted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Charter{}, false, fmt.Errorf("failed to upsert charter %s: %w", c.ReserveNumber, err)
	}
	return c, inserted, nil
}

// Count returns the number of charters.
func (r *CharterRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM charters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count charters: %w", err)
	}
	return n, nil
}
