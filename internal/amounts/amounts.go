// Package amounts provides common money parsing and formatting operations
// used throughout the application.
package amounts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// ParseAmount parses a string representation of an amount into a decimal value.
// It handles the formats that appear in bank exports and statement PDFs:
// "1,234.56", "$ 45.00", "(45.00)" for accounting negatives, and "45.00-"
// with a trailing minus.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if amountStr == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts various currency string formats to a standard
// format that decimal.NewFromString accepts. Handles patterns like
// "$1,234.56", "CAD 45.00", "(45.00)", "45.00-", and "1 234.56".
func StandardizeAmount(amountStr string) string {
	amountStr = strings.TrimSpace(amountStr)

	// Accounting notation wraps negatives in parentheses
	negative := false
	if strings.HasPrefix(amountStr, "(") && strings.HasSuffix(amountStr, ")") {
		negative = true
		amountStr = amountStr[1 : len(amountStr)-1]
	}

	// Some bank exports put the minus sign after the number
	if strings.HasSuffix(amountStr, "-") {
		negative = true
		amountStr = strings.TrimSuffix(amountStr, "-")
	}

	// Remove currency symbols, codes, and whitespace
	re := regexp.MustCompile(`(?i)(CAD|USD|[€$£¥\s])`)
	amountStr = re.ReplaceAllString(amountStr, "")

	// Remove commas used as thousand separators (1,234.56)
	amountStr = strings.ReplaceAll(amountStr, ",", "")

	if negative && !strings.HasPrefix(amountStr, "-") {
		amountStr = "-" + amountStr
	}

	return amountStr
}

// FormatAmount formats a decimal amount with two decimal places and a leading
// dollar sign. Negative amounts render in accounting notation: ($45.00).
func FormatAmount(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "($" + amount.Neg().StringFixed(2) + ")"
	}
	return "$" + amount.StringFixed(2)
}

// IsNegative checks if an amount is negative
func IsNegative(amount decimal.Decimal) bool {
	return amount.LessThan(decimal.Zero)
}

// IsPositive checks if an amount is positive
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}

// IsZero checks if an amount is zero
func IsZero(amount decimal.Decimal) bool {
	return amount.Equal(decimal.Zero)
}

// PercentOf returns pct percent of amount, e.g. PercentOf(200, 5) is 10.
// Payroll verification uses this for percentage-based source deductions.
func PercentOf(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct.Div(decimal.NewFromInt(100)))
}
