// Package audit holds the month-end audit command.
package audit

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/audit"
	"github.com/coastline-livery/charterbooks/internal/balance"
)

// earliestBooks is where the range defaults start: the first year on the
// books.
var earliestBooks = time.Date(2007, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	staleDays         int
	remittanceAccount string
)

// Cmd represents the audit command group.
var Cmd = &cobra.Command{
	Use:   "audit",
	Short: "Run integrity checks over the books",
	Long: `Run the month-end integrity checks: duplicate payments, orphaned
refunds, charter balance drift, stale unmatched bank transactions, payroll
remittance verification, and ledger double-entry balance. The command exits
nonzero when any error-severity finding exists.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every check and print the findings",
	RunE:  runFunc,
}

func init() {
	runCmd.Flags().IntVar(&staleDays, "stale-days", 0, "Age in days before an unmatched bank transaction is flagged (0 uses the default)")
	runCmd.Flags().StringVar(&remittanceAccount, "remittance-account", "", "Ledger account remittance payments post to")
	Cmd.AddCommand(runCmd)
}

func runFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	from, to, err := root.DateRange()
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = earliestBooks
	}
	if to.IsZero() {
		to = time.Now()
	}

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	repos := store.Repos()
	verifier := balance.NewVerifier(repos.Charters, repos.Payments, repos.Refunds, root.Log)
	runner := audit.NewRunner(root.Log,
		audit.NewDuplicatePaymentsCheck(repos.Payments),
		audit.NewOrphanedRefundsCheck(repos.Refunds),
		audit.NewCharterBalanceCheck(verifier),
		audit.NewStaleUnmatchedCheck(repos.BankTxs, staleDays),
		audit.NewPayrollCheck(repos.Employees, repos.GL, audit.PayrollConfig{
			RemittanceAccount: remittanceAccount,
			From:              from,
			To:                to,
		}),
		audit.NewDoubleEntryCheck(repos.GL, from, to),
	)

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printReport(report)
	if report.HasErrors() {
		return fmt.Errorf("audit found %d error findings", report.CountBySeverity()[audit.SeverityError])
	}
	return nil
}

func printReport(r audit.Report) {
	if len(r.Findings) == 0 {
		color.Green("ran %d checks: no findings", r.RanChecks)
		return
	}
	for _, f := range r.Findings {
		fmt.Printf("%s [%s] %s\n", severityTag(f.Severity), f.Check, f.Message)
	}
	counts := r.CountBySeverity()
	fmt.Printf("ran %d checks: %d errors, %d warnings, %d info\n",
		r.RanChecks, counts[audit.SeverityError], counts[audit.SeverityWarning], counts[audit.SeverityInfo])
}

func severityTag(s audit.Severity) string {
	switch s {
	case audit.SeverityError:
		return color.RedString("ERROR")
	case audit.SeverityWarning:
		return color.YellowString("WARN ")
	default:
		return color.CyanString("INFO ")
	}
}
