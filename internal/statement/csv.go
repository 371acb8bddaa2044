package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
)

// csvColumn identifies the role a CSV header plays. Every bank names its
// columns differently, so headers are matched against synonym lists instead
// of fixed names.
type csvColumn int

const (
	colNone csvColumn = iota
	colDate
	colDescription
	colAmount
	colDebit
	colCredit
	colCheckNumber
	colAccount
	colReference
)

// csvHeaderSynonyms maps normalized header names to column roles. Normalized
// means uppercased with punctuation stripped, so "Cheque #" and "CHEQUE NO"
// land on the same entry.
var csvHeaderSynonyms = map[string]csvColumn{
	"DATE":             colDate,
	"TRANSACTION DATE": colDate,
	"POSTED DATE":      colDate,
	"POST DATE":        colDate,

	"DESCRIPTION":             colDescription,
	"TRANSACTION DESCRIPTION": colDescription,
	"MEMO":                    colDescription,
	"PAYEE":                   colDescription,
	"DETAILS":                 colDescription,

	"AMOUNT":             colAmount,
	"TRANSACTION AMOUNT": colAmount,

	"DEBIT":       colDebit,
	"DEBITS":      colDebit,
	"WITHDRAWAL":  colDebit,
	"WITHDRAWALS": colDebit,
	"MONEY OUT":   colDebit,

	"CREDIT":   colCredit,
	"CREDITS":  colCredit,
	"DEPOSIT":  colCredit,
	"DEPOSITS": colCredit,
	"MONEY IN": colCredit,

	"CHEQUE":        colCheckNumber,
	"CHEQUE NO":     colCheckNumber,
	"CHEQUE NUMBER": colCheckNumber,
	"CHECK NO":      colCheckNumber,
	"CHECK NUMBER":  colCheckNumber,
	"CHQ":           colCheckNumber,

	"ACCOUNT":        colAccount,
	"ACCOUNT NO":     colAccount,
	"ACCOUNT NUMBER": colAccount,
	"ACCOUNT ID":     colAccount,

	"REFERENCE":        colReference,
	"REFERENCE NUMBER": colReference,
	"TRANSACTION ID":   colReference,
}

// normalizeHeader uppercases a header and strips the punctuation banks
// decorate their columns with.
func normalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\uFEFF")
	replacer := strings.NewReplacer("#", "", ".", "", ":", "", "(", "", ")", "", "$", "")
	h = replacer.Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// ParseCSV reads a bank CSV export from r into statement lines. dateFormat is
// the Go layout tried first for the date column; the common bank layouts are
// tried as fallbacks.
func ParseCSV(r io.Reader, dateFormat string, logger logging.Logger) ([]Line, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	logger.Info("Reading bank CSV from reader")

	// Buffer the reader content so validation and parsing work from the
	// same data.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	columns, err := validateCSVFormat(strings.NewReader(string(data)), logger)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1 // allow variable number of fields
	header, err := reader.Read()
	if err != nil {
		return nil, &errs.ParseError{
			Parser: "CSV",
			Field:  "header",
			Value:  "header row",
			Err:    err,
		}
	}

	var lines []Line
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			logger.WithError(err).Warn("Skipping malformed CSV row")
			continue
		}
		// Pad or truncate record to match header length
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		} else if len(record) > len(header) {
			record = record[:len(header)]
		}

		line, ok, err := csvRecordToLine(record, columns, dateFormat)
		if err != nil {
			logger.WithError(err).Warn("Skipping unparseable CSV row",
				logging.Field{Key: "row", Value: strings.Join(record, ",")})
			continue
		}
		if !ok {
			continue
		}
		lines = append(lines, line)
	}

	logger.Info("Parsed bank CSV",
		logging.Field{Key: "lines", Value: len(lines)})
	return lines, nil
}

// validateCSVFormat reads the header row and checks that it carries at least
// a date column and one of the amount columns. Returns the index-to-role map
// used to read the records.
func validateCSVFormat(r io.Reader, logger logging.Logger) (map[int]csvColumn, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &errs.InvalidFormatError{
				FilePath:       "(from reader)",
				ExpectedFormat: "bank CSV",
				Msg:            "file is empty",
			}
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[int]csvColumn)
	for i, h := range header {
		if role, ok := csvHeaderSynonyms[normalizeHeader(h)]; ok {
			columns[i] = role
		}
	}

	var hasDate, hasAmount bool
	for _, role := range columns {
		switch role {
		case colDate:
			hasDate = true
		case colAmount, colDebit, colCredit:
			hasAmount = true
		}
	}
	if !hasDate {
		return nil, &errs.InvalidFormatError{
			FilePath:       "(from reader)",
			ExpectedFormat: "bank CSV",
			Msg:            "no recognizable date column in header",
		}
	}
	if !hasAmount {
		return nil, &errs.InvalidFormatError{
			FilePath:       "(from reader)",
			ExpectedFormat: "bank CSV",
			Msg:            "no recognizable amount, debit, or credit column in header",
		}
	}

	return columns, nil
}

// csvRecordToLine converts one CSV record into a Line. The second return is
// false for blank filler rows, which bank exports sprinkle between sections.
func csvRecordToLine(record []string, columns map[int]csvColumn, dateFormat string) (Line, bool, error) {
	var (
		dateStr, amountStr, debitStr, creditStr string
		line                                    Line
	)
	for i, val := range record {
		val = strings.TrimSpace(val)
		switch columns[i] {
		case colDate:
			dateStr = val
		case colDescription:
			if line.Description != "" && val != "" {
				line.Description += " "
			}
			line.Description += val
		case colAmount:
			amountStr = val
		case colDebit:
			debitStr = val
		case colCredit:
			creditStr = val
		case colCheckNumber:
			line.CheckNumber = strings.TrimLeft(val, "0")
		case colAccount:
			line.AccountID = val
		case colReference:
			line.Reference = val
		}
	}

	if dateStr == "" && amountStr == "" && debitStr == "" && creditStr == "" {
		return Line{}, false, nil
	}

	postedOn, err := parseDate(dateStr, dateFormat)
	if err != nil {
		return Line{}, false, &errs.ParseError{
			Parser: "CSV", Field: "date", Value: dateStr, Err: err,
		}
	}
	line.PostedOn = postedOn
	line.Description = cleanDescription(line.Description)

	switch {
	case amountStr != "":
		amt, err := amounts.ParseAmount(amountStr)
		if err != nil {
			return Line{}, false, &errs.ParseError{
				Parser: "CSV", Field: "amount", Value: amountStr, Err: err,
			}
		}
		line.Amount = amt
	case debitStr != "":
		amt, err := amounts.ParseAmount(debitStr)
		if err != nil {
			return Line{}, false, &errs.ParseError{
				Parser: "CSV", Field: "debit", Value: debitStr, Err: err,
			}
		}
		// Debit columns hold unsigned money-out figures
		line.Amount = amt.Abs().Neg()
	case creditStr != "":
		amt, err := amounts.ParseAmount(creditStr)
		if err != nil {
			return Line{}, false, &errs.ParseError{
				Parser: "CSV", Field: "credit", Value: creditStr, Err: err,
			}
		}
		line.Amount = amt.Abs()
	default:
		// A date with no money on the row is a section marker
		return Line{}, false, nil
	}

	if line.CheckNumber == "" {
		line.CheckNumber = ExtractCheckNumber(line.Description)
	}

	return line, true, nil
}
