package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/coastline-livery/charterbooks/internal/amounts"
)

// Letterhead is the company block printed at the top of invoices and
// confirmations. It comes from configuration; nothing company-specific
// lives in code.
type Letterhead struct {
	Name      string
	Address   string
	Phone     string
	Email     string
	GSTNumber string
}

// RenderInvoice renders a charter's statement of account as an invoice PDF.
func RenderInvoice(lh Letterhead, stmt Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", stmt.Charter.ReserveNumber), false)
	pdf.AddPage()

	writeLetterhead(pdf, lh)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Invoice no: INV-"+stmt.Charter.ReserveNumber)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Date: "+time.Now().Format("January 2, 2006"))
	pdf.Ln(10)

	writeClientBlock(pdf, stmt)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Charter")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Reserve no %s, pickup %s",
		stmt.Charter.ReserveNumber, stmt.Charter.PickupAt.Format("January 2, 2006 3:04 PM")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%s to %s, %d passengers",
		orDash(stmt.Charter.PickupAddr), orDash(stmt.Charter.DropoffAddr), stmt.Charter.Passengers))
	pdf.Ln(10)

	writeStatementTable(pdf, stmt)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Balance due: "+amounts.FormatAmount(stmt.Owing))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Please reference the reserve number on all payments.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice for %s: %w", stmt.Charter.ReserveNumber, err)
	}
	return buf.Bytes(), nil
}

// RenderConfirmation renders the booking confirmation the office sends when
// a charter is confirmed.
func RenderConfirmation(lh Letterhead, stmt Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Confirmation %s", stmt.Charter.ReserveNumber), false)
	pdf.AddPage()

	writeLetterhead(pdf, lh)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "CHARTER CONFIRMATION")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Reserve no : " + stmt.Charter.ReserveNumber,
		"Status     : " + string(stmt.Charter.Status),
		"Client     : " + orDash(clientDisplayName(stmt)),
		"Pickup     : " + stmt.Charter.PickupAt.Format("January 2, 2006 3:04 PM"),
		"From       : " + orDash(stmt.Charter.PickupAddr),
		"To         : " + orDash(stmt.Charter.DropoffAddr),
		"Passengers : " + fmt.Sprintf("%d", stmt.Charter.Passengers),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Charter total: "+amounts.FormatAmount(stmt.Charter.TotalAmountDue))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Received to date: "+amounts.FormatAmount(stmt.Paid))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Balance due: "+amounts.FormatAmount(stmt.Owing))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Please review the trip details and call the office with any corrections.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering confirmation for %s: %w", stmt.Charter.ReserveNumber, err)
	}
	return buf.Bytes(), nil
}

func writeLetterhead(pdf *gofpdf.Fpdf, lh Letterhead) {
	if lh.Name == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, lh.Name)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range []string{lh.Address, lh.Phone, lh.Email} {
		if l == "" {
			continue
		}
		pdf.Cell(0, 5, l)
		pdf.Ln(5)
	}
	if lh.GSTNumber != "" {
		pdf.Cell(0, 5, "GST/HST no "+lh.GSTNumber)
		pdf.Ln(5)
	}
	pdf.Ln(6)
}

func writeClientBlock(pdf *gofpdf.Fpdf, stmt Statement) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Billed to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range []string{clientDisplayName(stmt), stmt.Client.Address, stmt.Client.Phone, stmt.Client.Email} {
		if l == "" {
			continue
		}
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

func writeStatementTable(pdf *gofpdf.Fpdf, stmt Statement) {
	widths := []float64{26, 94, 35, 35}
	headers := []string{"Date", "Description", "Amount", "Balance"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(255, 255, 255)

	writeRow := func(date, desc string, amount, balance string) {
		pdf.CellFormat(widths[0], 7, date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(desc, 58), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, amount, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, balance, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	writeRow(
		stmt.Charter.PickupAt.Format("2006-01-02"),
		"Charter "+stmt.Charter.ReserveNumber,
		amounts.FormatAmount(stmt.Charter.TotalAmountDue),
		amounts.FormatAmount(stmt.Charter.TotalAmountDue),
	)
	for _, l := range stmt.Lines {
		desc := l.Kind
		if l.Method != "" {
			desc += " (" + string(l.Method) + ")"
		}
		if l.Reference != "" {
			desc += ", " + l.Reference
		}
		writeRow(
			l.Date.Format("2006-01-02"),
			desc,
			amounts.FormatAmount(l.Amount),
			amounts.FormatAmount(l.Balance),
		)
	}
}

func clientDisplayName(stmt Statement) string {
	if stmt.Client.Company != "" && stmt.Client.Company != stmt.Client.Name {
		if stmt.Client.Name == "" {
			return stmt.Client.Company
		}
		return stmt.Client.Name + ", " + stmt.Client.Company
	}
	return stmt.Client.Name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
