// Package balance holds the charter balance verification commands.
package balance

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/balance"
	"github.com/coastline-livery/charterbooks/internal/postgres"
)

// Cmd represents the balance command group.
var Cmd = &cobra.Command{
	Use:   "balance",
	Short: "Verify and repair charter money columns",
	Long: `Recompute every charter's paid amount and balance from its payments and
refunds, and report rows whose stored columns drifted. verify only reports;
repair patches the drifted rows (with --write).`,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report charters whose stored totals disagree with their payments",
	RunE:  verifyFunc,
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Patch drifted charter totals",
	RunE:  repairFunc,
}

func init() {
	Cmd.AddCommand(verifyCmd)
	Cmd.AddCommand(repairCmd)
}

func verifyFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	repos := store.Repos()
	v := balance.NewVerifier(repos.Charters, repos.Payments, repos.Refunds, root.Log)
	report, err := v.Verify(ctx)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func repairFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var report balance.Report
	var repaired int
	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		v := balance.NewVerifier(repos.Charters, repos.Payments, repos.Refunds, root.Log)
		report, repaired, err = v.Repair(ctx)
		return err
	})
	if err != nil {
		return err
	}

	printReport(report)
	fmt.Printf("repaired %d charters\n", repaired)
	return nil
}

func printReport(r balance.Report) {
	if r.Clean() {
		color.Green("checked %d charters: all totals agree", r.CheckedCharters)
		return
	}
	fmt.Printf("checked %d charters, %d findings\n", r.CheckedCharters, len(r.Findings))
	for _, f := range r.Findings {
		fmt.Printf("  %s %s: recorded %s, expected %s (off by %s)",
			color.YellowString("%s", string(f.Kind)), f.ReserveNumber,
			f.Recorded.StringFixed(2), f.Expected.StringFixed(2), f.Difference().StringFixed(2))
		if f.Detail != "" {
			fmt.Printf("  %s", f.Detail)
		}
		fmt.Println()
	}
}
