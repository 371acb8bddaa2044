package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// ClientRepo carries the SQL for the clients table.
type ClientRepo struct {
	db DB
}

const clientColumns = `
	id, name, company, email, phone, address, legacy_id, created_at, updated_at`

func scanClient(row pgx.Row) (models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone,
		&c.Address, &c.LegacyID, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByLegacyID looks a client up by its LMS customer number.
func (r *ClientRepo) GetByLegacyID(ctx context.Context, legacyID string) (models.Client, error) {
	if legacyID == "" {
		return models.Client{}, errors.New("legacy id is empty")
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE legacy_id = $1`, legacyID)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Client{}, fmt.Errorf("client with legacy id %s: %w", legacyID, ErrNotFound)
	}
	if err != nil {
		return models.Client{}, fmt.Errorf("failed to get client by legacy id %s: %w", legacyID, err)
	}
	return c, nil
}

// GetByID looks a client up by primary key.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (models.Client, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Client{}, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Client{}, fmt.Errorf("failed to get client %d: %w", id, err)
	}
	return c, nil
}

// Create inserts a client and returns it with the generated id.
func (r *ClientRepo) Create(ctx context.Context, c models.Client) (models.Client, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO clients (name, company, email, phone, address, legacy_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Company, c.Email, c.Phone, c.Address, c.LegacyID,
	)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Client{}, fmt.Errorf("failed to create client %s: %w", c.Name, err)
	}
	return c, nil
}

// UpsertByLegacyID inserts the client or refreshes the existing row keyed on
// the LMS customer number. Returns the stored client and whether a row was
// inserted rather than updated.
func (r *ClientRepo) UpsertByLegacyID(ctx context.Context, c models.Client) (models.Client, bool, error) {
	if c.LegacyID == "" {
		return models.Client{}, false, errors.New("legacy id is required for upsert")
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO clients (name, company, email, phone, address, legacy_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (legacy_id) WHERE legacy_id <> '' DO UPDATE SET
			name = EXCLUDED.name,
			company = EXCLUDED.company,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)`,
		c.Name, c.Company, c.Email, c.Phone, c.Address, c.LegacyID,
	)
	var inserted bool
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &inserted); err != nil {
		return models.Client{}, false, fmt.Errorf("failed to upsert client %s: %w", c.LegacyID, err)
	}
	return c, inserted, nil
}

// List returns all clients ordered by name.
func (r *ClientRepo) List(ctx context.Context) ([]models.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// EmployeeRepo carries the SQL for the employees and payroll_periods tables.
type EmployeeRepo struct {
	db DB
}

// List returns all employees, drivers and office staff alike.
func (r *EmployeeRepo) List(ctx context.Context) ([]models.Employee, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, is_driver, hired_on, left_on, created_at
		FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.IsDriver, &e.HiredOn, &e.LeftOn, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// Create inserts an employee and returns it with the generated id.
func (r *EmployeeRepo) Create(ctx context.Context, e models.Employee) (models.Employee, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO employees (name, is_driver, hired_on, left_on)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		e.Name, e.IsDriver, e.HiredOn, e.LeftOn,
	)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return models.Employee{}, fmt.Errorf("failed to create employee %s: %w", e.Name, err)
	}
	return e, nil
}

// ListPayPeriods returns payroll rows ending inside the range, ordered by
// period end then employee.
func (r *EmployeeRepo) ListPayPeriods(ctx context.Context, from, to time.Time) ([]models.PayPeriod, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, employee_id, period_start, period_end,
		       gross_pay, income_tax, cpp, ei, net_pay
		FROM payroll_periods
		WHERE period_end BETWEEN $1 AND $2
		ORDER BY period_end, employee_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay periods: %w", err)
	}
	defer rows.Close()

	var periods []models.PayPeriod
	for rows.Next() {
		var p models.PayPeriod
		if err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.PeriodStart, &p.PeriodEnd,
			&p.GrossPay, &p.IncomeTax, &p.CPP, &p.EI, &p.NetPay,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pay period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// CreatePayPeriod inserts one payroll row.
func (r *EmployeeRepo) CreatePayPeriod(ctx context.Context, p models.PayPeriod) (models.PayPeriod, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO payroll_periods (
			employee_id, period_start, period_end,
			gross_pay, income_tax, cpp, ei, net_pay
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		p.EmployeeID, p.PeriodStart, p.PeriodEnd,
		p.GrossPay, p.IncomeTax, p.CPP, p.EI, p.NetPay,
	)
	if err := row.Scan(&p.ID); err != nil {
		return models.PayPeriod{}, fmt.Errorf("failed to create pay period for employee %d: %w", p.EmployeeID, err)
	}
	return p, nil
}

// VehicleRepo carries the SQL for the vehicles table.
type VehicleRepo struct {
	db DB
}

// List returns the fleet ordered by unit number.
func (r *VehicleRepo) List(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, unit_number, plate, make, model, year, capacity, status, created_at
		FROM vehicles ORDER BY unit_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(
			&v.ID, &v.UnitNumber, &v.Plate, &v.Make, &v.Model,
			&v.Year, &v.Capacity, &v.Status, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// UpsertByUnitNumber inserts the vehicle or refreshes the row keyed on the
// fleet unit number.
func (r *VehicleRepo) UpsertByUnitNumber(ctx context.Context, v models.Vehicle) (models.Vehicle, bool, error) {
	if v.UnitNumber == "" {
		return models.Vehicle{}, false, errors.New("unit number is required for upsert")
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO vehicles (unit_number, plate, make, model, year, capacity, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (unit_number) DO UPDATE SET
			plate = EXCLUDED.plate,
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			year = EXCLUDED.year,
			capacity = EXCLUDED.capacity,
			status = EXCLUDED.status
		RETURNING id, created_at, (xmax = 0)`,
		v.UnitNumber, v.Plate, v.Make, v.Model, v.Year, v.Capacity, v.Status,
	)
	var inserted bool
	if err := row.Scan(&v.ID, &v.CreatedAt, &inserted); err != nil {
		return models.Vehicle{}, false, fmt.Errorf("failed to upsert vehicle %s: %w", v.UnitNumber, err)
	}
	return v, inserted, nil
}
