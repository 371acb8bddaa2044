// Package lms holds the legacy LMS migration command.
package lms

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/lms"
	"github.com/coastline-livery/charterbooks/internal/postgres"
)

var (
	mdbDSN    string
	exportDir string
)

// Cmd represents the lms command group.
var Cmd = &cobra.Command{
	Use:   "lms",
	Short: "Migrate data from the legacy LMS Access database",
	Long: `Import customers, reservations, and transactions from the legacy
Limousine Management System. The source is either the Access .mdb itself
(through an ODBC DSN) or the office's CSV/Excel exports of its tables.
Reruns are safe: rows upsert on their business keys and already-migrated
transactions are skipped.`,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run the migration from the configured source",
	RunE:  importFunc,
}

func init() {
	importCmd.Flags().StringVar(&mdbDSN, "mdb-dsn", "", "ODBC DSN for the LMS .mdb (default from config/LMS_ODBC_DSN)")
	importCmd.Flags().StringVar(&exportDir, "export", "", "Directory or workbook holding LMS table exports, used instead of ODBC")
	Cmd.AddCommand(importCmd)
}

func openSource() (lms.Source, error) {
	if exportDir != "" {
		return lms.NewExportSource(exportDir, root.Log)
	}
	dsn := mdbDSN
	if dsn == "" {
		dsn = root.Cfg.LMS.DSN
	}
	if dsn == "" {
		return nil, fmt.Errorf("no LMS source: set --mdb-dsn, --export, or LMS_ODBC_DSN")
	}
	return lms.OpenMDB(dsn, root.Log)
}

func importFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root.Banner()

	source, err := openSource()
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var summary lms.Summary
	err = store.RunInTx(ctx, root.Flags.Write, func(repos *postgres.Repos) error {
		m := lms.NewMigrator(source, repos.Clients, repos.Vehicles, repos.Charters, repos.Payments, repos.Refunds, root.Log)
		summary, err = m.Run(ctx)
		return err
	})
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
