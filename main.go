package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/coastline-livery/charterbooks/cmd/audit"
	"github.com/coastline-livery/charterbooks/cmd/balance"
	"github.com/coastline-livery/charterbooks/cmd/categorize"
	"github.com/coastline-livery/charterbooks/cmd/db"
	"github.com/coastline-livery/charterbooks/cmd/lms"
	"github.com/coastline-livery/charterbooks/cmd/reconcile"
	"github.com/coastline-livery/charterbooks/cmd/report"
	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/cmd/statement"
	"github.com/coastline-livery/charterbooks/cmd/vendors"
)

func init() {
	// Load .env before anything reads the environment. Logging is not
	// configured yet, so failures here stay silent; the config loader
	// reports real problems later.
	loadEnvSilently()

	root.Init()

	root.Cmd.AddCommand(db.Cmd)
	root.Cmd.AddCommand(statement.Cmd)
	root.Cmd.AddCommand(reconcile.Cmd)
	root.Cmd.AddCommand(balance.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(lms.Cmd)
	root.Cmd.AddCommand(audit.Cmd)
	root.Cmd.AddCommand(report.Cmd)
	root.Cmd.AddCommand(vendors.Cmd)
}

// loadEnvSilently loads environment variables without logging anything.
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
