package audit

import (
	"context"
	"fmt"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/postgres"
)

// DuplicateGroupStore lists payments that were keyed more than once.
type DuplicateGroupStore interface {
	ListDuplicateGroups(ctx context.Context) ([]postgres.DuplicateGroup, error)
}

// DuplicatePaymentsCheck finds payments entered twice against the same
// charter on the same day for the same amount. These are warnings rather
// than errors: two identical payments in one day are occasionally real.
type DuplicatePaymentsCheck struct {
	payments DuplicateGroupStore
}

// NewDuplicatePaymentsCheck creates the check.
func NewDuplicatePaymentsCheck(payments DuplicateGroupStore) *DuplicatePaymentsCheck {
	return &DuplicatePaymentsCheck{payments: payments}
}

func (c *DuplicatePaymentsCheck) Name() string { return "duplicate-payments" }

func (c *DuplicatePaymentsCheck) Run(ctx context.Context) ([]Finding, error) {
	groups, err := c.payments.ListDuplicateGroups(ctx)
	if err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(groups))
	for _, g := range groups {
		findings = append(findings, Finding{
			Check:    c.Name(),
			Severity: SeverityWarning,
			Message: fmt.Sprintf("payment of %s on %s keyed %d times",
				amounts.FormatAmount(g.Amount), g.ReserveNumber, len(g.PaymentIDs)),
			Details: map[string]interface{}{
				"reserve_number": g.ReserveNumber,
				"amount":         g.Amount.StringFixed(2),
				"received_on":    g.ReceivedOn.Format("2006-01-02"),
				"payment_ids":    g.PaymentIDs,
			},
		})
	}
	return findings, nil
}
