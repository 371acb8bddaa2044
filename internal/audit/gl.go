package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/coastline-livery/charterbooks/internal/postgres"
)

// UnbalancedDayStore lists posting dates whose debits and credits disagree.
type UnbalancedDayStore interface {
	ListUnbalancedDays(ctx context.Context, from, to time.Time) ([]postgres.UnbalancedDay, error)
}

// DoubleEntryCheck verifies the ledger balances day by day. Any difference
// means an entry was posted one-sided, which the old scripts did constantly.
type DoubleEntryCheck struct {
	ledger UnbalancedDayStore
	from   time.Time
	to     time.Time
}

// NewDoubleEntryCheck creates the check over a posting date range.
func NewDoubleEntryCheck(ledger UnbalancedDayStore, from, to time.Time) *DoubleEntryCheck {
	return &DoubleEntryCheck{ledger: ledger, from: from, to: to}
}

func (c *DoubleEntryCheck) Name() string { return "ledger-double-entry" }

func (c *DoubleEntryCheck) Run(ctx context.Context) ([]Finding, error) {
	days, err := c.ledger.ListUnbalancedDays(ctx, c.from, c.to)
	if err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(days))
	for _, d := range days {
		findings = append(findings, Finding{
			Check:    c.Name(),
			Severity: SeverityError,
			Message: fmt.Sprintf("ledger out of balance on %s: debits %s, credits %s",
				d.PostedOn.Format("2006-01-02"), d.Debits.StringFixed(2), d.Credits.StringFixed(2)),
			Details: map[string]interface{}{
				"posted_on":  d.PostedOn.Format("2006-01-02"),
				"debits":     d.Debits.StringFixed(2),
				"credits":    d.Credits.StringFixed(2),
				"difference": d.Difference().StringFixed(2),
			},
		})
	}
	return findings, nil
}
