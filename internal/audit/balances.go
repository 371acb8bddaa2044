package audit

import (
	"context"
	"fmt"

	"github.com/coastline-livery/charterbooks/internal/balance"
)

// BalanceVerifier runs the charter money verification pass.
type BalanceVerifier interface {
	Verify(ctx context.Context) (balance.Report, error)
}

// CharterBalanceCheck surfaces balance verification findings in the audit
// report. Drifted columns are errors; over-refunded charters and orphaned
// payments are warnings. Orphaned refunds are left to the dedicated check,
// which reports them row by row.
type CharterBalanceCheck struct {
	verifier BalanceVerifier
}

// NewCharterBalanceCheck creates the check.
func NewCharterBalanceCheck(verifier BalanceVerifier) *CharterBalanceCheck {
	return &CharterBalanceCheck{verifier: verifier}
}

func (c *CharterBalanceCheck) Name() string { return "charter-balances" }

func (c *CharterBalanceCheck) Run(ctx context.Context) ([]Finding, error) {
	report, err := c.verifier.Verify(ctx)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, f := range report.Findings {
		var severity Severity
		switch f.Kind {
		case balance.KindPaidDrift, balance.KindBalanceDrift:
			severity = SeverityError
		case balance.KindRefundExceedsPayments, balance.KindOrphanedPayments:
			severity = SeverityWarning
		case balance.KindOrphanedRefunds:
			continue
		default:
			severity = SeverityWarning
		}

		findings = append(findings, Finding{
			Check:    c.Name(),
			Severity: severity,
			Message: fmt.Sprintf("%s on %s: recorded %s, expected %s",
				f.Kind, f.ReserveNumber, f.Recorded.StringFixed(2), f.Expected.StringFixed(2)),
			Details: map[string]interface{}{
				"kind":           string(f.Kind),
				"reserve_number": f.ReserveNumber,
				"recorded":       f.Recorded.StringFixed(2),
				"expected":       f.Expected.StringFixed(2),
				"detail":         f.Detail,
			},
		})
	}
	return findings, nil
}
