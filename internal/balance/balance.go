// Package balance verifies the money columns recorded on charters against
// the payment and refund tables, and repairs them when they drift. Years of
// ad-hoc edits in the legacy system left charters whose paid amount no
// longer agrees with the payments actually received.
package balance

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
)

// Kind classifies a verification finding.
type Kind string

const (
	// KindPaidDrift means the recorded paid amount disagrees with the sum
	// of payments minus refunds.
	KindPaidDrift Kind = "paid-drift"
	// KindBalanceDrift means the recorded balance disagrees with the total
	// amount due minus the recorded paid amount.
	KindBalanceDrift Kind = "balance-drift"
	// KindRefundExceedsPayments means more money was refunded against the
	// charter than was ever received.
	KindRefundExceedsPayments Kind = "refund-exceeds-payments"
	// KindOrphanedPayments means payments reference a reserve number with
	// no charter row.
	KindOrphanedPayments Kind = "payments-without-charter"
	// KindOrphanedRefunds means refunds reference a reserve number with no
	// charter row.
	KindOrphanedRefunds Kind = "refunds-without-charter"
)

// Finding is one discrepancy between a charter and its money trail.
type Finding struct {
	Kind          Kind            `json:"kind"`
	ReserveNumber string          `json:"reserve_number"`
	Recorded      decimal.Decimal `json:"recorded"`
	Expected      decimal.Decimal `json:"expected"`
	Detail        string          `json:"detail"`
}

// Difference returns recorded minus expected.
func (f Finding) Difference() decimal.Decimal {
	return f.Recorded.Sub(f.Expected)
}

// Report is the outcome of one verification pass.
type Report struct {
	CheckedCharters int       `json:"checked_charters"`
	Findings        []Finding `json:"findings"`
}

// Clean reports whether verification found nothing wrong.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

// CharterStore is the slice of the charter repository verification needs.
type CharterStore interface {
	List(ctx context.Context) ([]models.Charter, error)
	UpdateTotals(ctx context.Context, id int64, paid, balance decimal.Decimal) error
}

// SumStore returns per-reserve-number totals from a money table.
type SumStore interface {
	SumsByReserve(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Verifier recomputes charter money columns from their source tables.
type Verifier struct {
	charters CharterStore
	payments SumStore
	refunds  SumStore
	logger   logging.Logger
}

// NewVerifier creates a Verifier over the given stores.
func NewVerifier(charters CharterStore, payments, refunds SumStore, logger logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Verifier{
		charters: charters,
		payments: payments,
		refunds:  refunds,
		logger:   logger,
	}
}

// repair is a correction computed by assess but not yet applied.
type repair struct {
	charterID     int64
	reserveNumber string
	paid          decimal.Decimal
	balance       decimal.Decimal
}

func (v *Verifier) assess(ctx context.Context) (Report, []repair, error) {
	charters, err := v.charters.List(ctx)
	if err != nil {
		return Report{}, nil, fmt.Errorf("failed to load charters: %w", err)
	}
	paySums, err := v.payments.SumsByReserve(ctx)
	if err != nil {
		return Report{}, nil, fmt.Errorf("failed to load payment sums: %w", err)
	}
	refundSums, err := v.refunds.SumsByReserve(ctx)
	if err != nil {
		return Report{}, nil, fmt.Errorf("failed to load refund sums: %w", err)
	}

	report := Report{CheckedCharters: len(charters)}
	var repairs []repair
	known := make(map[string]bool, len(charters))

	for _, c := range charters {
		known[c.ReserveNumber] = true

		paid := paySums[c.ReserveNumber]
		refunded := refundSums[c.ReserveNumber]
		expectedPaid := paid.Sub(refunded)

		drifted := false
		if !c.PaidAmount.Equal(expectedPaid) {
			drifted = true
			report.Findings = append(report.Findings, Finding{
				Kind:          KindPaidDrift,
				ReserveNumber: c.ReserveNumber,
				Recorded:      c.PaidAmount,
				Expected:      expectedPaid,
				Detail:        "recorded paid amount disagrees with payments minus refunds",
			})
		}
		if !c.BalanceConsistent() {
			drifted = true
			report.Findings = append(report.Findings, Finding{
				Kind:          KindBalanceDrift,
				ReserveNumber: c.ReserveNumber,
				Recorded:      c.Balance,
				Expected:      c.ExpectedBalance(),
				Detail:        "recorded balance disagrees with total due minus paid amount",
			})
		}
		if refunded.GreaterThan(paid) {
			report.Findings = append(report.Findings, Finding{
				Kind:          KindRefundExceedsPayments,
				ReserveNumber: c.ReserveNumber,
				Recorded:      refunded,
				Expected:      paid,
				Detail:        "refunds exceed payments received",
			})
		}

		if drifted {
			repairs = append(repairs, repair{
				charterID:     c.ID,
				reserveNumber: c.ReserveNumber,
				paid:          expectedPaid,
				balance:       c.TotalAmountDue.Sub(expectedPaid),
			})
			v.logger.WithFields(
				logging.Field{Key: logging.FieldReserveNumber, Value: c.ReserveNumber},
				logging.Field{Key: "recorded_paid", Value: c.PaidAmount.StringFixed(2)},
				logging.Field{Key: "expected_paid", Value: expectedPaid.StringFixed(2)},
			).Debug("charter money columns drifted")
		}
	}

	report.Findings = append(report.Findings, orphanFindings(KindOrphanedPayments, paySums, known,
		"payments recorded against a reserve number with no charter")...)
	report.Findings = append(report.Findings, orphanFindings(KindOrphanedRefunds, refundSums, known,
		"refunds recorded against a reserve number with no charter")...)

	return report, repairs, nil
}

func orphanFindings(kind Kind, sums map[string]decimal.Decimal, known map[string]bool, detail string) []Finding {
	var reserves []string
	for reserve := range sums {
		if !known[reserve] {
			reserves = append(reserves, reserve)
		}
	}
	sort.Strings(reserves)

	findings := make([]Finding, 0, len(reserves))
	for _, reserve := range reserves {
		findings = append(findings, Finding{
			Kind:          kind,
			ReserveNumber: reserve,
			Recorded:      sums[reserve],
			Expected:      decimal.Zero,
			Detail:        detail,
		})
	}
	return findings
}

// Verify recomputes every charter's paid amount and balance and reports the
// discrepancies without touching the database.
func (v *Verifier) Verify(ctx context.Context) (Report, error) {
	report, _, err := v.assess(ctx)
	if err != nil {
		return Report{}, err
	}
	v.logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: report.CheckedCharters},
		logging.Field{Key: "findings", Value: len(report.Findings)},
	).Info("charter balance verification finished")
	return report, nil
}

// Repair recomputes drifted charters and writes the corrected paid amount
// and balance back. It returns the verification report and how many charters
// were corrected. Orphaned payments and refunds are reported, never deleted.
func (v *Verifier) Repair(ctx context.Context) (Report, int, error) {
	report, repairs, err := v.assess(ctx)
	if err != nil {
		return Report{}, 0, err
	}

	for _, fix := range repairs {
		if err := v.charters.UpdateTotals(ctx, fix.charterID, fix.paid, fix.balance); err != nil {
			return report, 0, fmt.Errorf("failed to repair charter %s: %w", fix.reserveNumber, err)
		}
		v.logger.WithFields(
			logging.Field{Key: logging.FieldReserveNumber, Value: fix.reserveNumber},
			logging.Field{Key: "paid", Value: fix.paid.StringFixed(2)},
			logging.Field{Key: "balance", Value: fix.balance.StringFixed(2)},
		).Info("repaired charter money columns")
	}

	return report, len(repairs), nil
}
