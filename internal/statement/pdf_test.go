package statement

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
)

const pdfStatementText = `                COASTAL SAVINGS BANK
             Business Account Statement

Account: 00441-552317
Statement Period: July 1, 2024 to July 31, 2024

DATE     DESCRIPTION                          AMOUNT       BALANCE

         BALANCE FORWARD                                 12,000.00
07/03    CHEQUE 00214                         450.00     11,550.00
07/08    DEPOSIT                            1,200.00     12,750.00
07/12    SERVICE FEE                           15.00     12,735.00
         MONTHLY PLAN
07/15    E-TRANSFER RECEIVED                  300.00

TOTAL WITHDRAWALS                             465.00
`

func TestParsePDFStatement(t *testing.T) {
	extractor := NewMockExtractor(pdfStatementText, nil)
	lines, err := ParsePDFWithExtractor(strings.NewReader("%PDF-1.4 fake"), extractor, logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, lines, 4)

	cheque := lines[0]
	assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), cheque.PostedOn)
	assert.Equal(t, "CHEQUE 00214", cheque.Description)
	assert.Equal(t, "214", cheque.CheckNumber)
	// Balance went from 12,000.00 to 11,550.00, so the row is money out
	assert.True(t, cheque.Amount.Equal(decimal.RequireFromString("-450.00")))

	deposit := lines[1]
	assert.True(t, deposit.Amount.Equal(decimal.RequireFromString("1200.00")))

	fee := lines[2]
	assert.True(t, fee.Amount.Equal(decimal.RequireFromString("-15.00")))
	// The undated line under the fee row continues its description
	assert.Equal(t, "SERVICE FEE MONTHLY PLAN", fee.Description)

	transfer := lines[3]
	// No balance column on the row: the deposit keyword decides direction
	assert.True(t, transfer.Amount.Equal(decimal.RequireFromString("300.00")))
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), transfer.PostedOn)
}

func TestParsePDFDatesWithExplicitYears(t *testing.T) {
	text := `Some statement without a period header

03/15/2024   FUEL PURCHASE HARBOUR FUELS      80.00
03/18/2024   DEPOSIT                         200.00
`
	extractor := NewMockExtractor(text, nil)
	lines, err := ParsePDFWithExtractor(strings.NewReader("%PDF"), extractor, logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// Without a balance column, rows default to money out unless a
	// deposit keyword says otherwise
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("-80.00")))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), lines[0].PostedOn)
	assert.True(t, lines[1].Amount.Equal(decimal.RequireFromString("200.00")))
}

func TestParsePDFSkipsDatesWithoutResolvableYear(t *testing.T) {
	text := `No period header anywhere

07/03    CHEQUE 00214    450.00
`
	extractor := NewMockExtractor(text, nil)
	logger := logging.NewMockLogger()
	lines, err := ParsePDFWithExtractor(strings.NewReader("%PDF"), extractor, logger)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestParsePDFDecemberJanuaryRollover(t *testing.T) {
	text := `Statement Period: December 15, 2023 to January 14, 2024

12/28    YEAR END FUEL     50.00
01/05    NEW YEAR RUN      75.00
`
	extractor := NewMockExtractor(text, nil)
	lines, err := ParsePDFWithExtractor(strings.NewReader("%PDF"), extractor, logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 2023, lines[0].PostedOn.Year())
	assert.Equal(t, 2024, lines[1].PostedOn.Year())
}

func TestParsePDFExtractionFailure(t *testing.T) {
	extractor := NewMockExtractor("", errors.New("pdftotext not installed"))
	_, err := ParsePDFWithExtractor(strings.NewReader("%PDF"), extractor, logging.NewMockLogger())
	require.Error(t, err)

	var formatErr *errs.InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestResolveDirectionPrefersBalanceDelta(t *testing.T) {
	prev := decimal.RequireFromString("1000.00")
	up := decimal.RequireFromString("1200.00")
	down := decimal.RequireFromString("900.00")
	amount := decimal.RequireFromString("200.00")

	got := resolveDirection(amount, &up, &prev, "ANYTHING AT ALL")
	assert.True(t, got.Equal(decimal.RequireFromString("200.00")))

	got = resolveDirection(decimal.RequireFromString("100.00"), &down, &prev, "DEPOSIT")
	assert.True(t, got.Equal(decimal.RequireFromString("-100.00")))
}

func TestResolveDirectionKeywordFallback(t *testing.T) {
	amount := decimal.RequireFromString("45.00")

	assert.True(t, resolveDirection(amount, nil, nil, "E-TRANSFER RECEIVED").IsPositive())
	assert.True(t, resolveDirection(amount, nil, nil, "INTEREST PAID").IsPositive())
	assert.True(t, resolveDirection(amount, nil, nil, "POS PURCHASE").IsNegative())

	// Explicit accounting negatives are kept as-is
	neg := decimal.RequireFromString("-45.00")
	assert.True(t, resolveDirection(neg, nil, nil, "DEPOSIT").IsNegative())
}
