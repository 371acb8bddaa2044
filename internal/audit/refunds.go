package audit

import (
	"context"
	"fmt"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/models"
)

// OrphanedRefundStore lists refunds whose reserve number matches no charter.
type OrphanedRefundStore interface {
	ListOrphaned(ctx context.Context) ([]models.Refund, error)
}

// OrphanedRefundsCheck finds refunds pointing at charters that no longer
// exist. Money left the company against a trip nobody can look up, so every
// hit is an error.
type OrphanedRefundsCheck struct {
	refunds OrphanedRefundStore
}

// NewOrphanedRefundsCheck creates the check.
func NewOrphanedRefundsCheck(refunds OrphanedRefundStore) *OrphanedRefundsCheck {
	return &OrphanedRefundsCheck{refunds: refunds}
}

func (c *OrphanedRefundsCheck) Name() string { return "orphaned-refunds" }

func (c *OrphanedRefundsCheck) Run(ctx context.Context) ([]Finding, error) {
	orphans, err := c.refunds.ListOrphaned(ctx)
	if err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(orphans))
	for _, r := range orphans {
		findings = append(findings, Finding{
			Check:    c.Name(),
			Severity: SeverityError,
			Message: fmt.Sprintf("refund %d of %s references reserve %s which has no charter",
				r.ID, amounts.FormatAmount(r.Amount), r.ReserveNumber),
			Details: map[string]interface{}{
				"refund_id":      r.ID,
				"reserve_number": r.ReserveNumber,
				"amount":         r.Amount.StringFixed(2),
				"issued_on":      r.IssuedOn.Format("2006-01-02"),
			},
		})
	}
	return findings, nil
}
