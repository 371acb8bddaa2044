// Package audit runs the month-end integrity checks the office used to do
// with a binder of one-off scripts: duplicate payments, orphaned refunds,
// drifted charter balances, stale bank transactions, payroll remittances,
// and ledger double-entry.
package audit

import (
	"context"
	"fmt"

	"github.com/coastline-livery/charterbooks/internal/logging"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a single issue discovered by a check.
type Finding struct {
	Check    string                 `json:"check"`
	Severity Severity               `json:"severity"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Check is one audit over the books. Checks carry their own parameters and
// date windows; Run only needs a context.
type Check interface {
	Name() string
	Run(ctx context.Context) ([]Finding, error)
}

// Report collects every finding from one audit run.
type Report struct {
	RanChecks int       `json:"ran_checks"`
	Findings  []Finding `json:"findings"`
}

// HasErrors reports whether any finding is error severity. The CLI exits
// nonzero when it does.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity tallies findings for the run summary.
func (r Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// Runner executes checks in order and aggregates their findings.
type Runner struct {
	checks []Check
	logger logging.Logger
}

// NewRunner creates a Runner over the given checks.
func NewRunner(logger logging.Logger, checks ...Check) *Runner {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Runner{checks: checks, logger: logger}
}

// Run executes every check. A check failing to run is an error; a check
// finding problems is not.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report
	for _, check := range r.checks {
		findings, err := check.Run(ctx)
		if err != nil {
			return report, fmt.Errorf("audit check %s failed: %w", check.Name(), err)
		}
		report.RanChecks++
		report.Findings = append(report.Findings, findings...)

		r.logger.Info("Audit check finished",
			logging.Field{Key: "check", Value: check.Name()},
			logging.Field{Key: "findings", Value: len(findings)})
	}
	return report, nil
}
