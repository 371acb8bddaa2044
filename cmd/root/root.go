// Package root contains the root command and the shared state every
// subcommand reaches through: loaded configuration, the process logger, and
// the global dry-run/date-range flags.
package root

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/internal/config"
	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/matching"
	"github.com/coastline-livery/charterbooks/internal/postgres"
)

// dateLayout is the format every --from/--to flag accepts.
const dateLayout = "2006-01-02"

// GlobalFlags are the flags shared by every subcommand. Write defaults to
// false: like the scripts this tool replaces, nothing touches the database
// until the operator adds --write.
type GlobalFlags struct {
	Write   bool
	From    string
	To      string
	EnvFile string
}

var (
	// Log is the shared logger instance for commands.
	Log = logging.GetLogger()

	// Cfg is the loaded configuration, set by PersistentPreRunE.
	Cfg *config.Config

	// Flags holds the global flag values.
	Flags = GlobalFlags{}

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "charterbooks",
		Short: "Back-office maintenance tools for the charter books.",
		Long: `charterbooks consolidates the office's one-off maintenance scripts into a
single CLI: bank statement imports, fuzzy transaction reconciliation,
charter balance verification, receipt categorization, LMS migration,
month-end audits, and exports.

Every command that writes to the database is a dry run by default and
commits only with --write.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to charterbooks!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if Flags.EnvFile != "" {
				if err := godotenv.Load(Flags.EnvFile); err != nil {
					return fmt.Errorf("loading env file %s: %w", Flags.EnvFile, err)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			Cfg = cfg

			Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
			logging.SetLogger(Log)
			return nil
		},
	}
)

// Init registers the global flags. main calls this once before adding
// subcommands.
func Init() {
	Cmd.PersistentFlags().BoolVar(&Flags.Write, "write", false, "Commit changes to the database (default is dry run)")
	Cmd.PersistentFlags().StringVar(&Flags.From, "from", "", "Start of the date range, YYYY-MM-DD")
	Cmd.PersistentFlags().StringVar(&Flags.To, "to", "", "End of the date range, YYYY-MM-DD")
	Cmd.PersistentFlags().StringVar(&Flags.EnvFile, "env", "", "Load environment variables from this file before reading config")
}

// Banner prints the run mode so nobody mistakes a dry run for a commit, or
// the reverse.
func Banner() {
	if Flags.Write {
		color.New(color.FgRed, color.Bold).Println("== WRITE MODE: changes will be committed ==")
		return
	}
	color.New(color.FgYellow).Println("== dry run: no changes will be committed (use --write to commit) ==")
}

// DateRange parses the global --from/--to flags. Empty flags come back as
// zero times; each command applies its own default window.
func DateRange() (from, to time.Time, err error) {
	if Flags.From != "" {
		from, err = time.Parse(dateLayout, Flags.From)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD): %w", Flags.From, err)
		}
	}
	if Flags.To != "" {
		to, err = time.Parse(dateLayout, Flags.To)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD): %w", Flags.To, err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", Flags.To, Flags.From)
	}
	return from, to, nil
}

// OpenStore connects to Postgres using the loaded configuration. The caller
// owns the store and must Close it.
func OpenStore(ctx context.Context) (*postgres.Store, error) {
	if Cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return postgres.Connect(ctx, Cfg.DatabaseURL(), Log)
}

// MatchingConfig builds the engine tolerances from configuration.
func MatchingConfig() (matching.Config, error) {
	cfg := matching.DefaultConfig()
	if Cfg == nil {
		return cfg, nil
	}
	tolerance, err := decimal.NewFromString(Cfg.Matching.AmountTolerance)
	if err != nil {
		return cfg, fmt.Errorf("invalid matching.amount_tolerance %q: %w", Cfg.Matching.AmountTolerance, err)
	}
	cfg.DateWindowDays = Cfg.Matching.DateWindowDays
	cfg.AmountTolerance = tolerance
	cfg.MinConfidence = Cfg.Matching.MinConfidence
	cfg.AllowSplit = Cfg.Matching.AllowSplit
	cfg.MaxSplitParts = Cfg.Matching.MaxSplitParts
	cfg.NameDrift = Cfg.Matching.NameDrift
	return cfg, nil
}
