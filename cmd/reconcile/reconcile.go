// Package reconcile holds the bank reconciliation commands.
package reconcile

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/models"
	"github.com/coastline-livery/charterbooks/internal/postgres"
	"github.com/coastline-livery/charterbooks/internal/reconcile"
)

var (
	accountID string
	force     bool
)

// Cmd represents the reconcile command group.
var Cmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match bank transactions against receipts and charter payments",
	Long: `Run the fuzzy matching engine over unmatched bank transactions: debits
against receipts, credits against charter payments. A dry run prints what
would be linked; --write records the links. Split proposals are always
report-only and need a person to confirm them.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match unmatched transactions in the date range",
	RunE:  runFunc,
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <tx-id>",
	Short: "Confirm a matched transaction after review",
	Args:  cobra.ExactArgs(1),
	RunE:  confirmFunc,
}

var unmatchCmd = &cobra.Command{
	Use:   "unmatch <tx-id>",
	Short: "Clear a transaction's match link",
	Args:  cobra.ExactArgs(1),
	RunE:  unmatchFunc,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show transaction counts by match status",
	RunE:  statusFunc,
}

func init() {
	runCmd.Flags().StringVar(&accountID, "account", "", "Limit the run to one account")
	unmatchCmd.Flags().BoolVar(&force, "force", false, "Unmatch even a confirmed transaction")
	Cmd.AddCommand(runCmd)
	Cmd.AddCommand(confirmCmd)
	Cmd.AddCommand(unmatchCmd)
	Cmd.AddCommand(statusCmd)
}

func newReconciler(repos *postgres.Repos) (*reconcile.Reconciler, error) {
	cfg, err := root.MatchingConfig()
	if err != nil {
		return nil, err
	}
	return reconcile.NewReconciler(repos.BankTxs, repos.Receipts, repos.Payments, cfg, root.Log), nil
}

func runFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	from, to, err := root.DateRange()
	if err != nil {
		return err
	}

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var summary reconcile.Summary
	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		r, err := newReconciler(repos)
		if err != nil {
			return err
		}
		summary, err = r.Run(ctx, reconcile.Options{AccountID: accountID, From: from, To: to})
		return err
	})
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(s reconcile.Summary) {
	fmt.Printf("window: %s to %s\n", s.From.Format("2006-01-02"), s.To.Format("2006-01-02"))
	printSide("debits vs receipts", s.Debits)
	printSide("credits vs payments", s.Credits)
	fmt.Printf("total: %s matched, %s unmatched, %d split proposals\n",
		color.GreenString("%d", s.TotalMatched()),
		color.YellowString("%d", s.TotalUnmatched()),
		s.SplitProposals())
}

func printSide(label string, side reconcile.SideSummary) {
	fmt.Printf("%s: %d transactions, %d candidates\n", label, side.Transactions, side.Candidates)
	for _, m := range side.Result.Matches {
		fmt.Printf("  match tx %d -> %d  score %.2f  rule %s  %d days apart\n",
			m.TransactionID, m.CandidateID, m.Score, m.Rule, m.DaysApart)
	}
	for _, sp := range side.Result.Splits {
		fmt.Printf("  %s tx %d -> %v  score %.2f\n",
			color.CyanString("split?"), sp.TransactionID, sp.CandidateIDs, sp.Score)
	}
	for _, u := range side.Result.Unmatched {
		line := fmt.Sprintf("  unmatched tx %d: %s", u.TransactionID, u.Reason)
		if u.NearestID != 0 {
			line += fmt.Sprintf(" (nearest %d at %.2f)", u.NearestID, u.NearestScore)
		}
		fmt.Println(color.YellowString("%s", line))
	}
}

func txIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", arg)
	}
	return id, nil
}

func confirmFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	id, err := txIDArg(args[0])
	if err != nil {
		return err
	}

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		r, err := newReconciler(repos)
		if err != nil {
			return err
		}
		return r.Confirm(ctx, id)
	})
	if err != nil {
		return err
	}
	fmt.Printf("transaction %d confirmed\n", id)
	return nil
}

func unmatchFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	id, err := txIDArg(args[0])
	if err != nil {
		return err
	}

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		r, err := newReconciler(repos)
		if err != nil {
			return err
		}
		return r.Unmatch(ctx, id, force)
	})
	if err != nil {
		return err
	}
	fmt.Printf("transaction %d unmatched\n", id)
	return nil
}

func statusFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	repos := store.Repos()
	r, err := newReconciler(repos)
	if err != nil {
		return err
	}
	counts, err := r.Status(ctx)
	if err != nil {
		return err
	}
	for _, status := range []string{"unmatched", "matched", "confirmed", "excluded"} {
		fmt.Printf("%-10s %d\n", status, counts[models.MatchStatus(status)])
	}
	return nil
}
