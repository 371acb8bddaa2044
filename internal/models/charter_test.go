package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCharterBalance(t *testing.T) {
	tests := []struct {
		name       string
		total      string
		paid       string
		balance    string
		consistent bool
	}{
		{"fully paid", "450.00", "450.00", "0.00", true},
		{"deposit taken", "450.00", "100.00", "350.00", true},
		{"overpaid shows credit", "450.00", "500.00", "-50.00", true},
		{"drifted balance", "450.00", "100.00", "450.00", false},
		{"stale zero balance", "450.00", "0.00", "0.00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Charter{
				ReserveNumber:  "41233",
				TotalAmountDue: dec(tt.total),
				PaidAmount:     dec(tt.paid),
				Balance:        dec(tt.balance),
			}
			assert.Equal(t, tt.consistent, c.BalanceConsistent())
			assert.True(t, c.ExpectedBalance().Equal(dec(tt.total).Sub(dec(tt.paid))))
		})
	}
}

func TestPaymentMethodIsValid(t *testing.T) {
	assert.True(t, MethodCheck.IsValid())
	assert.True(t, MethodEFT.IsValid())
	assert.False(t, PaymentMethod("bitcoin").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}

func TestBankTransactionDirection(t *testing.T) {
	debit := BankTransaction{Amount: dec("-82.50")}
	assert.True(t, debit.IsDebit())
	assert.False(t, debit.IsCredit())
	assert.True(t, debit.AbsAmount().Equal(dec("82.50")))

	credit := BankTransaction{Amount: dec("450.00")}
	assert.True(t, credit.IsCredit())
	assert.False(t, credit.IsDebit())

	zero := BankTransaction{Amount: decimal.Zero}
	assert.False(t, zero.IsDebit())
	assert.False(t, zero.IsCredit())
}

func TestPayPeriodDeductions(t *testing.T) {
	p := PayPeriod{
		GrossPay:  dec("2000.00"),
		IncomeTax: dec("300.00"),
		CPP:       dec("110.00"),
		EI:        dec("33.00"),
		NetPay:    dec("1557.00"),
	}
	assert.True(t, p.Deductions().Equal(dec("443.00")))
	assert.True(t, p.ExpectedNet().Equal(dec("1557.00")))
	assert.True(t, p.ExpectedNet().Equal(p.NetPay))
}

func TestCharterTimestampsNotRestamped(t *testing.T) {
	first := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

	c := &Charter{Status: StatusBooked}
	assert.NoError(t, ApplyTransition(c, StatusConfirmed, first))
	got := *c.ConfirmedAt

	// Re-applying the same status keeps the original timestamp
	second := first.Add(48 * time.Hour)
	assert.NoError(t, ApplyTransition(c, StatusConfirmed, second))
	assert.Equal(t, got, *c.ConfirmedAt)
}
