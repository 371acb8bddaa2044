package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/models"
)

// defaultStaleDays is how old an unmatched bank row may get before the
// audit complains. Statements land monthly, so two cycles is the line.
const defaultStaleDays = 60

// StaleTxStore lists unmatched bank transactions older than a cutoff.
type StaleTxStore interface {
	ListStaleUnmatched(ctx context.Context, olderThanDays int, now time.Time) ([]models.BankTransaction, error)
}

// StaleUnmatchedCheck finds bank transactions that have sat unmatched long
// past the reconciliation cycle they arrived in.
type StaleUnmatchedCheck struct {
	txs  StaleTxStore
	days int
	now  func() time.Time
}

// NewStaleUnmatchedCheck creates the check. days <= 0 uses the default.
func NewStaleUnmatchedCheck(txs StaleTxStore, days int) *StaleUnmatchedCheck {
	if days <= 0 {
		days = defaultStaleDays
	}
	return &StaleUnmatchedCheck{txs: txs, days: days, now: time.Now}
}

func (c *StaleUnmatchedCheck) Name() string { return "stale-unmatched" }

func (c *StaleUnmatchedCheck) Run(ctx context.Context) ([]Finding, error) {
	stale, err := c.txs.ListStaleUnmatched(ctx, c.days, c.now())
	if err != nil {
		return nil, err
	}

	findings := make([]Finding, 0, len(stale))
	for _, tx := range stale {
		findings = append(findings, Finding{
			Check:    c.Name(),
			Severity: SeverityWarning,
			Message: fmt.Sprintf("bank transaction %d (%s, %s) unmatched for over %d days",
				tx.ID, amounts.FormatAmount(tx.Amount), tx.PostedOn.Format("2006-01-02"), c.days),
			Details: map[string]interface{}{
				"transaction_id": tx.ID,
				"account_id":     tx.AccountID,
				"posted_on":      tx.PostedOn.Format("2006-01-02"),
				"amount":         tx.Amount.StringFixed(2),
				"description":    tx.Description,
			},
		})
	}
	return findings, nil
}
