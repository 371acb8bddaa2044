package statement

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
)

// Extractor defines the interface for extracting text from PDF statements.
// The interface allows dependency injection so the PDF parser is testable
// without a pdftotext binary or real statement files.
type Extractor interface {
	// ExtractText extracts text content from a PDF file at the given path.
	ExtractText(pdfPath string) (string, error)
}

// RealExtractor implements Extractor using the pdftotext command. This is
// the production implementation and requires poppler-utils to be installed.
type RealExtractor struct{}

// NewRealExtractor creates a new RealExtractor instance.
func NewRealExtractor() *RealExtractor {
	return &RealExtractor{}
}

// ExtractText extracts text from a PDF file using the pdftotext command.
// The -layout flag keeps the statement's column positions, which the line
// parser relies on to find the amount and balance columns.
func (e *RealExtractor) ExtractText(pdfPath string) (string, error) {
	tempFile := pdfPath + ".txt"

	cmd := exec.Command("pdftotext", "-layout", pdfPath, tempFile)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running pdftotext: %w", err)
	}

	output, err := os.ReadFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("error reading extracted text: %w", err)
	}

	os.Remove(tempFile)

	return string(output), nil
}

// MockExtractor implements Extractor for testing. It returns predefined
// text instead of extracting from a real PDF file.
type MockExtractor struct {
	MockText string
	MockErr  error
}

// NewMockExtractor creates a new MockExtractor with the given mock data.
func NewMockExtractor(mockText string, mockErr error) *MockExtractor {
	return &MockExtractor{
		MockText: mockText,
		MockErr:  mockErr,
	}
}

// ExtractText returns the predefined mock text or error.
func (e *MockExtractor) ExtractText(pdfPath string) (string, error) {
	if e.MockErr != nil {
		return "", e.MockErr
	}
	return e.MockText, nil
}

// ParsePDF extracts and parses transaction lines from a PDF bank statement
// provided as an io.Reader, using the default RealExtractor.
func ParsePDF(r io.Reader, logger logging.Logger) ([]Line, error) {
	return ParsePDFWithExtractor(r, NewRealExtractor(), logger)
}

// ParsePDFWithExtractor extracts and parses transaction lines from a PDF
// bank statement using the provided extractor.
func ParsePDFWithExtractor(r io.Reader, extractor Extractor, logger logging.Logger) ([]Line, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	// pdftotext works on files, so the reader content goes through a
	// temporary file.
	tempFile, err := os.CreateTemp("", "*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary PDF file: %w", err)
	}
	defer func() {
		if err := os.Remove(tempFile.Name()); err != nil {
			logger.WithError(err).Warn("Failed to remove temporary file",
				logging.Field{Key: "file", Value: tempFile.Name()})
		}
	}()

	if _, err := io.Copy(tempFile, r); err != nil {
		tempFile.Close()
		return nil, fmt.Errorf("failed to write to temporary PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary PDF file: %w", err)
	}

	text, err := extractor.ExtractText(tempFile.Name())
	if err != nil {
		return nil, &errs.InvalidFormatError{
			FilePath:       tempFile.Name(),
			ExpectedFormat: "PDF",
			Msg:            fmt.Sprintf("text extraction failed: %v", err),
		}
	}

	logger.Info("Parsing PDF statement text")
	return parsePDFText(text, logger)
}

var (
	// pdfDatePattern anchors a transaction line: a month/day date, with or
	// without a year, at the start of the line.
	pdfDatePattern = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+`)

	// pdfAmountPattern matches money columns, including accounting
	// negatives and trailing-minus notation.
	pdfAmountPattern = regexp.MustCompile(`\(?\$?\d{1,3}(?:,\d{3})*\.\d{2}\)?-?`)

	// pdfBalanceForwardPattern marks the opening balance row. The running
	// balance seeds the debit/credit decision for every row after it.
	pdfBalanceForwardPattern = regexp.MustCompile(`(?i)\b(?:balance\s+forward|bal\s+fwd|opening\s+balance)\b`)

	// pdfStopPattern marks summary rows that end the transaction listing.
	pdfStopPattern = regexp.MustCompile(`(?i)^\s*(?:total|closing\s+balance|summary\b|\*{3,})`)

	// pdfCreditKeywordPattern names the descriptions that book as money in
	// when the statement layout leaves the direction ambiguous.
	pdfCreditKeywordPattern = regexp.MustCompile(`(?i)\b(?:DEPOSIT|CREDIT|TRANSFER\s+IN|INTEREST\s+PAID|REFUND|PAYMENT\s+RECEIVED|E-?TRANSFER\s+RECEIVED)\b`)
)

// statementPeriod is the date range a PDF statement covers, recovered from
// its header so month/day dates can be resolved to full dates.
type statementPeriod struct {
	start time.Time
	end   time.Time
	ok    bool
}

// parsePDFText parses the pdftotext output of a bank statement into lines.
//
// The format the banks print is a date column, a description, and one or two
// money columns. When both a transaction amount and a running balance are
// present, the balance delta decides debit versus credit; otherwise keyword
// heuristics decide. Lines between dated rows continue the description of
// the row above them.
func parsePDFText(text string, logger logging.Logger) ([]Line, error) {
	rawLines := strings.Split(text, "\n")
	period := findStatementPeriod(rawLines)

	var (
		lines       []Line
		current     *Line
		description strings.Builder
		prevBalance *decimal.Decimal
	)

	finalize := func() {
		if current == nil {
			return
		}
		current.Description = cleanDescription(description.String())
		if current.CheckNumber == "" {
			current.CheckNumber = ExtractCheckNumber(current.Description)
		}
		lines = append(lines, *current)
		current = nil
		description.Reset()
	}

	for _, raw := range rawLines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if pdfBalanceForwardPattern.MatchString(line) {
			finalize()
			if tokens := pdfAmountPattern.FindAllString(line, -1); len(tokens) > 0 {
				if bal, err := amounts.ParseAmount(tokens[len(tokens)-1]); err == nil {
					prevBalance = &bal
				}
			}
			continue
		}

		if pdfStopPattern.MatchString(line) {
			finalize()
			continue
		}

		m := pdfDatePattern.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				description.WriteString(" ")
				description.WriteString(line)
			}
			continue
		}

		finalize()

		postedOn, err := resolvePDFDate(m[1], period)
		if err != nil {
			logger.WithError(err).Warn("Skipping statement line with unresolvable date",
				logging.Field{Key: "line", Value: line})
			continue
		}

		rest := line[len(m[0]):]
		tokens := pdfAmountPattern.FindAllString(rest, -1)
		if len(tokens) == 0 {
			// A dated row with no money is a section heading
			continue
		}
		descPart := strings.TrimSpace(pdfAmountPattern.ReplaceAllString(rest, ""))

		amount, balance, err := splitAmountAndBalance(tokens)
		if err != nil {
			logger.WithError(err).Warn("Skipping statement line with unparseable amount",
				logging.Field{Key: "line", Value: line})
			continue
		}

		amount = resolveDirection(amount, balance, prevBalance, descPart)
		if balance != nil {
			prevBalance = balance
		}

		current = &Line{PostedOn: postedOn, Amount: amount}
		description.WriteString(descPart)
	}
	finalize()

	logger.Info("Parsed PDF statement",
		logging.Field{Key: "lines", Value: len(lines)})
	return lines, nil
}

// splitAmountAndBalance interprets the money tokens on a transaction row.
// With two or more tokens the last is the running balance and the one before
// it the transaction amount; with one token there is no balance column.
func splitAmountAndBalance(tokens []string) (decimal.Decimal, *decimal.Decimal, error) {
	if len(tokens) == 1 {
		amt, err := amounts.ParseAmount(tokens[0])
		return amt, nil, err
	}

	amt, err := amounts.ParseAmount(tokens[len(tokens)-2])
	if err != nil {
		return decimal.Zero, nil, err
	}
	bal, err := amounts.ParseAmount(tokens[len(tokens)-1])
	if err != nil {
		return decimal.Zero, nil, err
	}
	return amt, &bal, nil
}

// resolveDirection signs a statement amount. The balance delta is
// authoritative when both balances are known; explicit accounting negatives
// come next; after that, rows naming a deposit book as money in and
// everything else books as money out.
func resolveDirection(amount decimal.Decimal, balance, prevBalance *decimal.Decimal, description string) decimal.Decimal {
	if balance != nil && prevBalance != nil {
		delta := balance.Sub(*prevBalance)
		if delta.IsNegative() {
			return amount.Abs().Neg()
		}
		if delta.IsPositive() {
			return amount.Abs()
		}
	}

	if amount.IsNegative() {
		return amount
	}
	if pdfCreditKeywordPattern.MatchString(description) {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

var (
	pdfPeriodPattern = regexp.MustCompile(`(?i)(?:statement\s+)?period[:\s]+(.+?)\s+(?:to|through|-|–)\s+(.+?)\s*$`)
	pdfFromToPattern = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+?)\s*$`)
)

// findStatementPeriod scans the statement header for the period line, which
// supplies the year for the month/day dates in the transaction listing.
func findStatementPeriod(rawLines []string) statementPeriod {
	limit := len(rawLines)
	if limit > 40 {
		limit = 40
	}
	for _, raw := range rawLines[:limit] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, pattern := range []*regexp.Regexp{pdfPeriodPattern, pdfFromToPattern} {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			start, err1 := parseDate(m[1], "January 2, 2006")
			end, err2 := parseDate(m[2], "January 2, 2006")
			if err1 == nil && err2 == nil && !end.Before(start) {
				return statementPeriod{start: start, end: end, ok: true}
			}
		}
	}
	return statementPeriod{}
}

// resolvePDFDate turns a statement date token into a full date. Tokens
// without a year take it from the statement period: the period start's year
// when the months agree, the period end's otherwise. Statements span at most
// two months, so this also covers the December to January rollover.
func resolvePDFDate(token string, period statementPeriod) (time.Time, error) {
	if strings.Count(token, "/") == 2 {
		return parseDate(token, "01/02/2006")
	}

	if !period.ok {
		return time.Time{}, fmt.Errorf("date %q has no year and no statement period was found", token)
	}

	t, err := time.Parse("1/2", token)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date format: %s", token)
	}

	year := period.end.Year()
	if t.Month() == period.start.Month() {
		year = period.start.Year()
	}
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
