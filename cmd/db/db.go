// Package db holds the database housekeeping commands.
package db

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
)

// Cmd represents the db command group.
var Cmd = &cobra.Command{
	Use:   "db",
	Short: "Database connectivity and schema commands",
	Long:  `Check connectivity to the office Postgres and apply schema migrations.`,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify the database is reachable",
	RunE:  pingFunc,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Apply the embedded schema migrations in order. Already-applied versions
are skipped, so running this twice is harmless.`,
	RunE: migrateFunc,
}

func init() {
	Cmd.AddCommand(pingCmd)
	Cmd.AddCommand(migrateCmd)
}

func pingFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return err
	}
	fmt.Printf("database %s on %s is reachable\n", root.Cfg.Database.Name, root.Cfg.Database.Host)
	return nil
}

func migrateFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := root.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	root.Log.Info("schema migrations applied")
	return nil
}
