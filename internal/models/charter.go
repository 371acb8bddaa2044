// Package models defines the domain types shared across the application:
// charters, payments, refunds, bank transactions, receipts, and the people
// and vehicles they reference.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CharterStatus represents the lifecycle state of a charter.
type CharterStatus string

const (
	StatusBooked     CharterStatus = "booked"
	StatusConfirmed  CharterStatus = "confirmed"
	StatusDispatched CharterStatus = "dispatched"
	StatusCompleted  CharterStatus = "completed"
	StatusClosed     CharterStatus = "closed"
	StatusCancelled  CharterStatus = "cancelled"
)

// Charter represents a booked trip. The reserve number is the business key
// the office uses everywhere: payments, refunds, and the legacy LMS rows all
// reference charters by reserve number rather than by database id.
type Charter struct {
	ID            int64         `json:"id" yaml:"id"`
	ReserveNumber string        `json:"reserve_number" yaml:"reserve_number"`
	ClientID      int64         `json:"client_id" yaml:"client_id"`
	VehicleID     *int64        `json:"vehicle_id,omitempty" yaml:"vehicle_id,omitempty"`
	DriverID      *int64        `json:"driver_id,omitempty" yaml:"driver_id,omitempty"`
	PickupAt      time.Time     `json:"pickup_at" yaml:"pickup_at"`
	PickupAddr    string        `json:"pickup_address" yaml:"pickup_address"`
	DropoffAddr   string        `json:"dropoff_address" yaml:"dropoff_address"`
	Passengers    int           `json:"passengers" yaml:"passengers"`
	Status        CharterStatus `json:"status" yaml:"status"`

	TotalAmountDue decimal.Decimal `json:"total_amount_due" yaml:"total_amount_due"`
	PaidAmount     decimal.Decimal `json:"paid_amount" yaml:"paid_amount"`
	Balance        decimal.Decimal `json:"balance" yaml:"balance"`

	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`

	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty" yaml:"confirmed_at,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty" yaml:"dispatched_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" yaml:"closed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" yaml:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ExpectedBalance returns the balance implied by the charter's own totals.
func (c Charter) ExpectedBalance() decimal.Decimal {
	return c.TotalAmountDue.Sub(c.PaidAmount)
}

// BalanceConsistent reports whether the recorded balance equals total due
// minus paid. Drift here is what the balance command repairs.
func (c Charter) BalanceConsistent() bool {
	return c.Balance.Equal(c.ExpectedBalance())
}

// IsTerminal reports whether the charter has reached a final state.
func (c Charter) IsTerminal() bool {
	return c.Status == StatusClosed || c.Status == StatusCancelled
}
