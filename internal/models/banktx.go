package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus tracks where a bank transaction sits in the reconciliation
// workflow.
type MatchStatus string

const (
	MatchUnmatched MatchStatus = "unmatched"
	MatchMatched   MatchStatus = "matched"
	MatchConfirmed MatchStatus = "confirmed"
	MatchExcluded  MatchStatus = "excluded"
)

// BankTransaction represents one line from a bank statement. Amount is
// signed: negative for debits (money out, matched against receipts) and
// positive for credits (money in, matched against charter payments).
type BankTransaction struct {
	ID          int64           `json:"id" yaml:"id"`
	AccountID   string          `json:"account_id" yaml:"account_id"`
	PostedOn    time.Time       `json:"posted_on" yaml:"posted_on"`
	Description string          `json:"description" yaml:"description"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	CheckNumber string          `json:"check_number,omitempty" yaml:"check_number,omitempty"`

	// ImportBatchID groups the rows loaded by one statement import so a bad
	// import can be backed out as a unit.
	ImportBatchID string `json:"import_batch_id,omitempty" yaml:"import_batch_id,omitempty"`

	MatchStatus      MatchStatus `json:"match_status" yaml:"match_status"`
	MatchedReceiptID *int64      `json:"matched_receipt_id,omitempty" yaml:"matched_receipt_id,omitempty"`
	MatchedPaymentID *int64      `json:"matched_payment_id,omitempty" yaml:"matched_payment_id,omitempty"`
	MatchConfidence  float64     `json:"match_confidence,omitempty" yaml:"match_confidence,omitempty"`
	MatchRule        string      `json:"match_rule,omitempty" yaml:"match_rule,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IsDebit reports whether the transaction took money out of the account.
func (t BankTransaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit reports whether the transaction put money into the account.
func (t BankTransaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// AbsAmount returns the unsigned amount, which is what matching compares
// against receipt totals and payment amounts.
func (t BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}
