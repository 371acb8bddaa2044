// Package statement holds the bank statement import command.
package statement

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/postgres"
	"github.com/coastline-livery/charterbooks/internal/statement"
)

var accountID string

// Cmd represents the statement command group.
var Cmd = &cobra.Command{
	Use:   "statement",
	Short: "Import bank statement files",
	Long: `Import bank statement files into the banking_transactions table.
CSV exports, OFX/QBO downloads, and PDF statements are all accepted; the
format is detected from the file content. Re-importing the same statement
is safe: duplicate lines are dropped and reported.`,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Parse a statement file and load its transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  importFunc,
}

func init() {
	importCmd.Flags().StringVar(&accountID, "account", "", "Account the statement belongs to (default from config or the file itself)")
	Cmd.AddCommand(importCmd)
}

func importFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	account := accountID
	if account == "" {
		account = root.Cfg.Statement.DefaultAccount
	}
	opts := statement.Options{
		AccountID:  account,
		DateFormat: root.Cfg.Statement.DateFormat,
	}

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var summary *statement.Summary
	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		importer := statement.NewImporter(repos.BankTxs, nil, root.Log)
		summary, err = importer.ImportFile(ctx, args[0], opts)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("format:     %s\n", summary.Format)
	fmt.Printf("batch:      %s\n", summary.BatchID)
	fmt.Printf("parsed:     %d\n", summary.Parsed)
	fmt.Printf("inserted:   %d\n", summary.Inserted)
	fmt.Printf("duplicates: %d\n", summary.Duplicates)
	if !summary.From.IsZero() {
		fmt.Printf("range:      %s to %s\n", summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"))
	}
	return nil
}
