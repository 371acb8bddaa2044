// Package categorize holds the receipt categorization commands.
package categorize

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/categorize"
	"github.com/coastline-livery/charterbooks/internal/postgres"
	"github.com/coastline-livery/charterbooks/internal/rules"
)

// Cmd represents the categorize command group.
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Assign expense categories to receipts",
	Long: `Categorize uncategorized receipts using the vendor mapping, keyword
rules, and a classifier trained on already-categorized history. Receipts no
strategy can place stay uncategorized for manual review.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Categorize every uncategorized receipt",
	RunE:  runFunc,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Check the classifier trains cleanly on current history",
	RunE:  trainFunc,
}

func init() {
	Cmd.AddCommand(runCmd)
	Cmd.AddCommand(trainCmd)
}

func newCategorizer() *categorize.Categorizer {
	opts := categorize.Options{
		ConfidenceThreshold: root.Cfg.Categorization.ConfidenceThreshold,
		// Learned mappings are only worth keeping from runs that committed.
		AutoLearn:     root.Cfg.Categorization.AutoLearn && root.Flags.Write,
		CaseSensitive: root.Cfg.Categorization.CaseSensitive,
	}
	return categorize.NewCategorizer(rules.NewStore("", "", ""), opts, root.Log)
}

func runFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	c := newCategorizer()
	var summary categorize.ApplySummary
	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		summary, err = c.Apply(ctx, repos.Receipts)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("processed:   %d\n", summary.Processed)
	fmt.Printf("categorized: %d\n", summary.Categorized)
	fmt.Printf("skipped:     %d\n", summary.Skipped)
	for source, count := range summary.BySource {
		fmt.Printf("  by %s: %d\n", source, count)
	}
	return nil
}

func trainFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.Repos().Receipts.ListCategorized(ctx)
	if err != nil {
		return err
	}

	c := newCategorizer()
	if err := c.Train(history); err != nil {
		return err
	}
	fmt.Printf("classifier trained on %d categorized receipts\n", len(history))
	return nil
}
