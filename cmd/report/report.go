// Package report holds the export commands.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coastline-livery/charterbooks/cmd/root"
	"github.com/coastline-livery/charterbooks/internal/postgres"
	"github.com/coastline-livery/charterbooks/internal/report"
)

// earliestBooks is where the range defaults start.
var earliestBooks = time.Date(2007, time.January, 1, 0, 0, 0, 0, time.UTC)

var output string

// Cmd represents the report command group.
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Export reports from the books",
	Long: `Export reports: monthly revenue, receipt category totals, unmatched
bank transactions, the month-end workbook, and per-charter statements,
invoices, and confirmations. CSV or Excel output is chosen by the output
file's extension; statements print to stdout when no output file is given.`,
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Collected revenue per calendar month",
	RunE:  revenueFunc,
}

var unmatchedCmd = &cobra.Command{
	Use:   "unmatched",
	Short: "Bank transactions still awaiting reconciliation",
	RunE:  unmatchedFunc,
}

var monthendCmd = &cobra.Command{
	Use:   "monthend",
	Short: "The month-end workbook: revenue, categories, unmatched",
	RunE:  monthendFunc,
}

var statementCmd = &cobra.Command{
	Use:     "statement <reserve-number>",
	Aliases: []string{"charter"},
	Short:   "Statement of account for one charter",
	Args:    cobra.ExactArgs(1),
	RunE:    statementFunc,
}

var invoiceCmd = &cobra.Command{
	Use:   "invoice <reserve-number>",
	Short: "Render a charter's invoice PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  invoiceFunc,
}

var confirmationCmd = &cobra.Command{
	Use:   "confirmation <reserve-number>",
	Short: "Render a charter's booking confirmation PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  confirmationFunc,
}

func init() {
	Cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output file (.csv, .xlsx, or .pdf depending on the report)")
	Cmd.AddCommand(revenueCmd)
	Cmd.AddCommand(unmatchedCmd)
	Cmd.AddCommand(monthendCmd)
	Cmd.AddCommand(statementCmd)
	Cmd.AddCommand(invoiceCmd)
	Cmd.AddCommand(confirmationCmd)
}

func letterhead() report.Letterhead {
	return report.Letterhead{
		Name:      root.Cfg.Company.Name,
		Address:   root.Cfg.Company.Address,
		Phone:     root.Cfg.Company.Phone,
		Email:     root.Cfg.Company.Email,
		GSTNumber: root.Cfg.Company.GSTNumber,
	}
}

func openService(cmd *cobra.Command) (*report.Service, *postgres.Store, error) {
	store, err := root.OpenStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	repos := store.Repos()
	svc := report.NewService(report.Stores{
		Payments: repos.Payments,
		Refunds:  repos.Refunds,
		Receipts: repos.Receipts,
		BankTxs:  repos.BankTxs,
		Charters: repos.Charters,
		Clients:  repos.Clients,
	}, root.Log)
	return svc, store, nil
}

func rangeOrDefault() (time.Time, time.Time, error) {
	from, to, err := root.DateRange()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = earliestBooks
	}
	if to.IsZero() {
		to = time.Now()
	}
	return from, to, nil
}

// writeSection writes one section as CSV or, for .xlsx outputs, a one-sheet
// workbook.
func writeSection(name string, rows interface{}) error {
	if output == "" {
		return fmt.Errorf("this report needs --output (.csv or .xlsx)")
	}
	if strings.EqualFold(filepath.Ext(output), ".xlsx") {
		return report.WriteWorkbook([]report.Section{{Name: name, Rows: rows}}, output, root.Log)
	}
	return report.WriteCSV(rows, output, root.Log)
}

func revenueFunc(cmd *cobra.Command, args []string) error {
	from, to, err := rangeOrDefault()
	if err != nil {
		return err
	}
	svc, store, err := openService(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := svc.Revenue(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	if err := writeSection("Revenue", rows); err != nil {
		return err
	}
	fmt.Printf("wrote %d months to %s\n", len(rows), output)
	return nil
}

func unmatchedFunc(cmd *cobra.Command, args []string) error {
	svc, store, err := openService(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := svc.Unmatched(cmd.Context())
	if err != nil {
		return err
	}
	if err := writeSection("Unmatched", rows); err != nil {
		return err
	}
	fmt.Printf("wrote %d unmatched transactions to %s\n", len(rows), output)
	return nil
}

func monthendFunc(cmd *cobra.Command, args []string) error {
	from, to, err := rangeOrDefault()
	if err != nil {
		return err
	}
	svc, store, err := openService(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	sections, err := svc.MonthEnd(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	if output == "" || !strings.EqualFold(filepath.Ext(output), ".xlsx") {
		return fmt.Errorf("monthend needs --output with a .xlsx extension")
	}
	if err := report.WriteWorkbook(sections, output, root.Log); err != nil {
		return err
	}
	fmt.Printf("wrote %d sections to %s\n", len(sections), output)
	return nil
}

func statementFunc(cmd *cobra.Command, args []string) error {
	svc, store, err := openService(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stmt, err := svc.Statement(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeSection("Statement "+args[0], stmt.Rows()); err != nil {
			return err
		}
		fmt.Printf("wrote statement for %s to %s\n", args[0], output)
		return nil
	}

	fmt.Printf("charter %s  total due %s\n", stmt.Charter.ReserveNumber, stmt.Charter.TotalAmountDue.StringFixed(2))
	for _, line := range stmt.Lines {
		fmt.Printf("  %s  %-8s %-12s %10s  balance %10s  %s\n",
			line.Date.Format("2006-01-02"), line.Kind, line.Method,
			line.Amount.StringFixed(2), line.Balance.StringFixed(2), line.Reference)
	}
	fmt.Printf("paid %s, refunded %s, owing %s\n",
		stmt.Paid.StringFixed(2), stmt.Refunded.StringFixed(2), stmt.Owing.StringFixed(2))
	return nil
}

func renderPDF(cmd *cobra.Command, reserve string, render func(report.Letterhead, report.Statement) ([]byte, error)) error {
	if output == "" {
		return fmt.Errorf("PDF output needs --output <file.pdf>")
	}
	svc, store, err := openService(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stmt, err := svc.Statement(cmd.Context(), reserve)
	if err != nil {
		return err
	}
	data, err := render(letterhead(), stmt)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func invoiceFunc(cmd *cobra.Command, args []string) error {
	return renderPDF(cmd, args[0], report.RenderInvoice)
}

func confirmationFunc(cmd *cobra.Command, args []string) error {
	return renderPDF(cmd, args[0], report.RenderConfirmation)
}
