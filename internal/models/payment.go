package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was received.
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "cash"
	MethodCheck PaymentMethod = "check"
	MethodVisa  PaymentMethod = "visa"
	MethodMC    PaymentMethod = "mastercard"
	MethodAmex  PaymentMethod = "amex"
	MethodEFT   PaymentMethod = "eft"
	MethodOther PaymentMethod = "other"
)

// ValidMethods lists the payment methods the office accepts.
var ValidMethods = []PaymentMethod{
	MethodCash, MethodCheck, MethodVisa, MethodMC, MethodAmex, MethodEFT, MethodOther,
}

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	for _, v := range ValidMethods {
		if m == v {
			return true
		}
	}
	return false
}

// PaymentSource records which system a payment row originated from.
type PaymentSource string

const (
	SourceApp       PaymentSource = "app"
	SourceLMS       PaymentSource = "lms"
	SourceQuickBook PaymentSource = "quickbooks"
)

// Payment represents money received against a charter. Payments reference
// charters by reserve number, the office's business key.
type Payment struct {
	ID            int64           `json:"id" yaml:"id"`
	ReserveNumber string          `json:"reserve_number" yaml:"reserve_number"`
	Method        PaymentMethod   `json:"method" yaml:"method"`
	Amount        decimal.Decimal `json:"amount" yaml:"amount"`
	ReceivedOn    time.Time       `json:"received_on" yaml:"received_on"`
	CheckNumber   string          `json:"check_number,omitempty" yaml:"check_number,omitempty"`
	Reference     string          `json:"reference,omitempty" yaml:"reference,omitempty"`
	Source        PaymentSource   `json:"source" yaml:"source"`
	Notes         string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
}

// Refund represents money returned to a client against a charter.
// A refund may reference the payment it reverses, but legacy rows often
// don't, so the link is optional.
type Refund struct {
	ID            int64           `json:"id" yaml:"id"`
	ReserveNumber string          `json:"reserve_number" yaml:"reserve_number"`
	PaymentID     *int64          `json:"payment_id,omitempty" yaml:"payment_id,omitempty"`
	Amount        decimal.Decimal `json:"amount" yaml:"amount"`
	IssuedOn      time.Time       `json:"issued_on" yaml:"issued_on"`
	Method        PaymentMethod   `json:"method" yaml:"method"`
	Reason        string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
}
