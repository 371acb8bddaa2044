package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents a customer who books charters.
type Client struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Company string `json:"company,omitempty" yaml:"company,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// LegacyID is the LMS customer number, kept for migration traceability.
	LegacyID  string    `json:"legacy_id,omitempty" yaml:"legacy_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Employee represents office staff and drivers.
type Employee struct {
	ID        int64      `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	IsDriver  bool       `json:"is_driver" yaml:"is_driver"`
	HiredOn   time.Time  `json:"hired_on" yaml:"hired_on"`
	LeftOn    *time.Time `json:"left_on,omitempty" yaml:"left_on,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}

// PayPeriod holds one employee's payroll figures for a single pay period.
// The audit command verifies source deductions against these rows.
type PayPeriod struct {
	ID          int64           `json:"id" yaml:"id"`
	EmployeeID  int64           `json:"employee_id" yaml:"employee_id"`
	PeriodStart time.Time       `json:"period_start" yaml:"period_start"`
	PeriodEnd   time.Time       `json:"period_end" yaml:"period_end"`
	GrossPay    decimal.Decimal `json:"gross_pay" yaml:"gross_pay"`
	IncomeTax   decimal.Decimal `json:"income_tax" yaml:"income_tax"`
	CPP         decimal.Decimal `json:"cpp" yaml:"cpp"`
	EI          decimal.Decimal `json:"ei" yaml:"ei"`
	NetPay      decimal.Decimal `json:"net_pay" yaml:"net_pay"`
}

// Deductions returns the sum of the employee-side source deductions.
func (p PayPeriod) Deductions() decimal.Decimal {
	return p.IncomeTax.Add(p.CPP).Add(p.EI)
}

// ExpectedNet returns gross pay minus employee-side deductions.
func (p PayPeriod) ExpectedNet() decimal.Decimal {
	return p.GrossPay.Sub(p.Deductions())
}

// VehicleStatus represents the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

// Vehicle represents a unit in the fleet.
type Vehicle struct {
	ID         int64         `json:"id" yaml:"id"`
	UnitNumber string        `json:"unit_number" yaml:"unit_number"`
	Plate      string        `json:"plate" yaml:"plate"`
	Make       string        `json:"make,omitempty" yaml:"make,omitempty"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
	Year       int           `json:"year,omitempty" yaml:"year,omitempty"`
	Capacity   int           `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Status     VehicleStatus `json:"status" yaml:"status"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
}
