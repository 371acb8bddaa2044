// Package statement parses bank statement files into transaction lines and
// loads them into the banking_transactions table. Three formats cover every
// export the banks hand out: CSV downloads, OFX/QBO files, and the PDF
// statements that are all some months ever had.
package statement

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Format identifies the statement file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatOFX     Format = "ofx"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// Line is one transaction line parsed out of a statement file, before it is
// normalized into a models.BankTransaction. Amount is signed: negative for
// money out, positive for money in.
type Line struct {
	PostedOn    time.Time
	Description string
	Amount      decimal.Decimal
	CheckNumber string

	// AccountID is set when the file itself names the account (OFX does,
	// most CSV exports do not).
	AccountID string

	// Reference carries the bank's own transaction id when the format has
	// one (FITID in OFX).
	Reference string
}

// DetectFormat inspects the leading bytes of a statement file and reports
// which parser should handle it. CSV is the fallback because bank CSV exports
// have no reliable signature beyond their header row.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\uFEFF")

	if bytes.HasPrefix(trimmed, []byte("%PDF")) {
		return FormatPDF
	}

	head := trimmed
	if len(head) > 512 {
		head = head[:512]
	}
	upper := strings.ToUpper(string(head))
	if strings.Contains(upper, "OFXHEADER") || strings.Contains(upper, "<OFX>") ||
		strings.Contains(upper, "<?OFX ") {
		return FormatOFX
	}

	if bytes.Contains(trimmed, []byte(",")) || bytes.Contains(trimmed, []byte(";")) {
		return FormatCSV
	}

	return FormatUnknown
}

// checkNumberPattern matches the cheque references the banks print into
// descriptions, e.g. "CHEQUE 00214", "CHECK #214", "CHQ 214".
var checkNumberPattern = regexp.MustCompile(`(?i)\b(?:CHEQUE|CHECK|CHQ)\s*#?\s*0*(\d{1,6})\b`)

// ExtractCheckNumber pulls a cheque number out of a transaction description.
// Returns the number without leading zeros, or "" when the description does
// not reference a cheque.
func ExtractCheckNumber(description string) string {
	m := checkNumberPattern.FindStringSubmatch(description)
	if m == nil {
		return ""
	}
	return m[1]
}

// fallbackDateFormats are tried in order when the configured layout does not
// parse a date field. The set covers the layouts seen across the banks'
// exports.
var fallbackDateFormats = []string{
	"01/02/2006",
	"2006-01-02",
	"1/2/2006",
	"01/02/06",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// parseDate parses a statement date using the preferred layout first, then
// the known fallback layouts.
func parseDate(value, preferred string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if preferred != "" {
		if t, err := time.Parse(preferred, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range fallbackDateFormats {
		if layout == preferred {
			continue
		}
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", value)
}

// cleanDescription collapses runs of whitespace so descriptions from layouted
// PDF text and padded CSV fields compare cleanly against stored rows.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
