// Package report builds the exports the office mails out or files at month
// end: revenue by month, receipt spend by category, unmatched bank
// transactions, audit findings, and the per-charter statement of account.
// The same sections render to CSV, an Excel workbook, or a PDF invoice.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/audit"
	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
	"github.com/coastline-livery/charterbooks/internal/postgres"
)

// PaymentStore is the slice of the payment repository reporting needs.
type PaymentStore interface {
	RevenueByMonth(ctx context.Context, from, to time.Time) ([]postgres.MonthlyRevenue, error)
	ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Payment, error)
}

// RefundStore lists refunds for a charter's statement.
type RefundStore interface {
	ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Refund, error)
}

// ReceiptStore totals receipt spend per category.
type ReceiptStore interface {
	TotalsByCategory(ctx context.Context, from, to time.Time) ([]postgres.CategoryTotal, error)
}

// BankTxStore lists bank transactions by match status.
type BankTxStore interface {
	ListByStatus(ctx context.Context, status models.MatchStatus) ([]models.BankTransaction, error)
}

// CharterStore looks up the charter a statement is drawn for.
type CharterStore interface {
	GetByReserveNumber(ctx context.Context, reserveNumber string) (models.Charter, error)
}

// ClientStore looks up the client a statement is addressed to.
type ClientStore interface {
	GetByID(ctx context.Context, id int64) (models.Client, error)
}

// Stores bundles the repositories the report service reads from.
type Stores struct {
	Payments PaymentStore
	Refunds  RefundStore
	Receipts ReceiptStore
	BankTxs  BankTxStore
	Charters CharterStore
	Clients  ClientStore
}

// Service assembles report sections from the database.
type Service struct {
	stores Stores
	logger logging.Logger
}

// NewService returns a report service over the given stores.
func NewService(stores Stores, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Service{stores: stores, logger: logger}
}

// RevenueRow is one month of collected revenue.
type RevenueRow struct {
	Month string `csv:"Month"`
	Total string `csv:"Total"`
}

// CategoryRow is one receipt category's spend inside the report range.
type CategoryRow struct {
	Category string `csv:"Category"`
	Receipts int    `csv:"Receipts"`
	Total    string `csv:"Total"`
}

// UnmatchedRow is one bank transaction still waiting on a match.
type UnmatchedRow struct {
	TxID        int64  `csv:"TxID"`
	Account     string `csv:"Account"`
	PostedOn    string `csv:"PostedOn"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	CheckNumber string `csv:"CheckNumber"`
}

// FindingRow is one audit finding flattened for export.
type FindingRow struct {
	Check    string `csv:"Check"`
	Severity string `csv:"Severity"`
	Message  string `csv:"Message"`
	Details  string `csv:"Details"`
}

// StatementRow is one statement line flattened for export.
type StatementRow struct {
	Date      string `csv:"Date"`
	Type      string `csv:"Type"`
	Method    string `csv:"Method"`
	Reference string `csv:"Reference"`
	Amount    string `csv:"Amount"`
	Balance   string `csv:"Balance"`
}

// Section is a titled block of rows. The Excel writer puts each section on
// its own sheet; the CSV writer wants exactly one.
type Section struct {
	Name string
	Rows interface{}
}

// Revenue returns collected revenue per calendar month inside the range.
func (s *Service) Revenue(ctx context.Context, from, to time.Time) ([]RevenueRow, error) {
	months, err := s.stores.Payments.RevenueByMonth(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading monthly revenue: %w", err)
	}
	rows := make([]RevenueRow, 0, len(months))
	for _, m := range months {
		rows = append(rows, RevenueRow{Month: m.Month, Total: m.Total.StringFixed(2)})
	}
	s.logger.Info("Built revenue report",
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// CategoryTotals returns receipt spend per category inside the range.
// Receipts never categorized group under "uncategorized".
func (s *Service) CategoryTotals(ctx context.Context, from, to time.Time) ([]CategoryRow, error) {
	totals, err := s.stores.Receipts.TotalsByCategory(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading category totals: %w", err)
	}
	rows := make([]CategoryRow, 0, len(totals))
	for _, t := range totals {
		name := t.Category
		if name == "" {
			name = "uncategorized"
		}
		rows = append(rows, CategoryRow{
			Category: name,
			Receipts: t.Count,
			Total:    t.Total.StringFixed(2),
		})
	}
	s.logger.Info("Built category totals report",
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// Unmatched returns every bank transaction still in the unmatched state.
func (s *Service) Unmatched(ctx context.Context) ([]UnmatchedRow, error) {
	txs, err := s.stores.BankTxs.ListByStatus(ctx, models.MatchUnmatched)
	if err != nil {
		return nil, fmt.Errorf("loading unmatched transactions: %w", err)
	}
	rows := make([]UnmatchedRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, UnmatchedRow{
			TxID:        tx.ID,
			Account:     tx.AccountID,
			PostedOn:    tx.PostedOn.Format("2006-01-02"),
			Description: tx.Description,
			Amount:      tx.Amount.StringFixed(2),
			CheckNumber: tx.CheckNumber,
		})
	}
	s.logger.Info("Built unmatched transaction report",
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// MonthEnd bundles the month-end sections into one workbook-shaped report:
// revenue, receipt categories, and whatever is still unmatched at the bank.
func (s *Service) MonthEnd(ctx context.Context, from, to time.Time) ([]Section, error) {
	revenue, err := s.Revenue(ctx, from, to)
	if err != nil {
		return nil, err
	}
	categories, err := s.CategoryTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	unmatched, err := s.Unmatched(ctx)
	if err != nil {
		return nil, err
	}
	return []Section{
		{Name: "Revenue", Rows: revenue},
		{Name: "Receipt Categories", Rows: categories},
		{Name: "Unmatched", Rows: unmatched},
	}, nil
}

// FindingRows flattens audit findings for export. Details render as
// "key=value" pairs in key order so diffs between runs stay readable.
func FindingRows(findings []audit.Finding) []FindingRow {
	rows := make([]FindingRow, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, FindingRow{
			Check:    f.Check,
			Severity: string(f.Severity),
			Message:  f.Message,
			Details:  detailString(f.Details),
		})
	}
	return rows
}

func detailString(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s=%v", k, details[k])
	}
	return out
}

// StatementLine is one money movement on a charter's statement of account.
// Amount is signed from the office's side: payments received are positive,
// refunds issued are negative. Balance is what the client still owes after
// the line.
type StatementLine struct {
	Date      time.Time
	Kind      string
	Method    models.PaymentMethod
	Reference string
	Amount    decimal.Decimal
	Balance   decimal.Decimal
}

// Statement is a charter's full statement of account. Totals are recomputed
// from the payment and refund rows rather than read off the charter, so a
// statement stays honest even when the charter's cached totals have drifted.
type Statement struct {
	Charter  models.Charter
	Client   models.Client
	Lines    []StatementLine
	Paid     decimal.Decimal
	Refunded decimal.Decimal
	Owing    decimal.Decimal
}

// Statement builds the statement of account for one reserve number.
func (s *Service) Statement(ctx context.Context, reserveNumber string) (Statement, error) {
	charter, err := s.stores.Charters.GetByReserveNumber(ctx, reserveNumber)
	if err != nil {
		return Statement{}, fmt.Errorf("loading charter %s: %w", reserveNumber, err)
	}
	client, err := s.stores.Clients.GetByID(ctx, charter.ClientID)
	if err != nil {
		return Statement{}, fmt.Errorf("loading client for charter %s: %w", reserveNumber, err)
	}
	payments, err := s.stores.Payments.ListByReserveNumber(ctx, charter.ReserveNumber)
	if err != nil {
		return Statement{}, fmt.Errorf("loading payments for charter %s: %w", reserveNumber, err)
	}
	refunds, err := s.stores.Refunds.ListByReserveNumber(ctx, charter.ReserveNumber)
	if err != nil {
		return Statement{}, fmt.Errorf("loading refunds for charter %s: %w", reserveNumber, err)
	}

	stmt := Statement{Charter: charter, Client: client}
	for _, p := range payments {
		ref := p.Reference
		if ref == "" && p.CheckNumber != "" {
			ref = "check " + p.CheckNumber
		}
		stmt.Lines = append(stmt.Lines, StatementLine{
			Date:      p.ReceivedOn,
			Kind:      "payment",
			Method:    p.Method,
			Reference: ref,
			Amount:    p.Amount,
		})
		stmt.Paid = stmt.Paid.Add(p.Amount)
	}
	for _, r := range refunds {
		stmt.Lines = append(stmt.Lines, StatementLine{
			Date:      r.IssuedOn,
			Kind:      "refund",
			Method:    r.Method,
			Reference: r.Reason,
			Amount:    r.Amount.Neg(),
		})
		stmt.Refunded = stmt.Refunded.Add(r.Amount)
	}

	// Payments sort ahead of refunds on the same day.
	sort.SliceStable(stmt.Lines, func(i, j int) bool {
		return stmt.Lines[i].Date.Before(stmt.Lines[j].Date)
	})

	running := charter.TotalAmountDue
	for i := range stmt.Lines {
		running = running.Sub(stmt.Lines[i].Amount)
		stmt.Lines[i].Balance = running
	}
	stmt.Owing = running

	s.logger.Info("Built charter statement",
		logging.Field{Key: logging.FieldReserveNumber, Value: charter.ReserveNumber},
		logging.Field{Key: logging.FieldCount, Value: len(stmt.Lines)},
		logging.Field{Key: "owing", Value: stmt.Owing.StringFixed(2)})
	return stmt, nil
}

// Rows flattens the statement for the CSV and Excel writers. The charter
// total due heads the list so the running balance column reads top to bottom.
func (st Statement) Rows() []StatementRow {
	rows := make([]StatementRow, 0, len(st.Lines)+1)
	rows = append(rows, StatementRow{
		Date:      st.Charter.PickupAt.Format("2006-01-02"),
		Type:      "charter",
		Reference: st.Charter.ReserveNumber,
		Amount:    st.Charter.TotalAmountDue.StringFixed(2),
		Balance:   st.Charter.TotalAmountDue.StringFixed(2),
	})
	for _, l := range st.Lines {
		rows = append(rows, StatementRow{
			Date:      l.Date.Format("2006-01-02"),
			Type:      l.Kind,
			Method:    string(l.Method),
			Reference: l.Reference,
			Amount:    l.Amount.StringFixed(2),
			Balance:   l.Balance.StringFixed(2),
		})
	}
	return rows
}
