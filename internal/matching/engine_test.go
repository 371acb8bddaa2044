package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRun_ExactMatch(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}

	result := Run(txs, candidates, DefaultConfig())

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, int64(1), m.TransactionID)
	assert.Equal(t, int64(10), m.CandidateID)
	assert.InDelta(t, 1.0, m.Score, 1e-9)
	assert.Equal(t, RuleExact, m.Rule)
	assert.Equal(t, 0, m.DaysApart)
	assert.Empty(t, result.Unmatched)
}

func TestRun_CheckNumberShortCircuits(t *testing.T) {
	// The bank's descriptor shares nothing with the receipt vendor, but the
	// cleared check number agrees.
	txs := []Transaction{
		{ID: 1, Vendor: "CHEQUE 00412", Amount: dec("1500.00"), Date: day, CheckNumber: "412"},
	}
	candidates := []Candidate{
		{ID: 20, Vendor: "ACME TOWING", Amount: dec("1500.00"), Date: day.AddDate(0, 0, 4), CheckNumber: "412"},
	}

	result := Run(txs, candidates, DefaultConfig())

	require.Len(t, result.Matches, 1)
	assert.Equal(t, RuleCheckNumber, result.Matches[0].Rule)
	assert.InDelta(t, 1.0, result.Matches[0].Score, 1e-9)
}

func TestRun_AmountIsAGate(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.51"), Date: day},
	}

	result := Run(txs, candidates, DefaultConfig())

	assert.Empty(t, result.Matches)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "no candidate with a matching amount inside the date window", result.Unmatched[0].Reason)
	assert.Zero(t, result.Unmatched[0].NearestID)
}

func TestRun_AmountTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmountTolerance = dec("0.05")

	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.52"), Date: day},
	}

	result := Run(txs, candidates, cfg)

	require.Len(t, result.Matches, 1)
	// amount component decays linearly inside the tolerance
	expected := 0.55*(1.0-0.02/0.05) + 0.25 + 0.20
	assert.InDelta(t, expected, result.Matches[0].Score, 1e-9)
}

func TestRun_DateWindowIsAGate(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day.AddDate(0, 0, 6)},
	}

	result := Run(txs, candidates, DefaultConfig())

	assert.Empty(t, result.Matches)
	require.Len(t, result.Unmatched, 1)
}

func TestRun_DateProximityDecay(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day.AddDate(0, 0, 2)},
	}

	result := Run(txs, candidates, DefaultConfig())

	require.Len(t, result.Matches, 1)
	expected := 0.55 + 0.25*(1.0-2.0/5.0) + 0.20
	assert.InDelta(t, expected, result.Matches[0].Score, 1e-9)
	assert.Equal(t, RuleClose, result.Matches[0].Rule)
	assert.Equal(t, 2, result.Matches[0].DaysApart)
}

func TestRun_BelowConfidenceReportsNearestMiss(t *testing.T) {
	// Amount agrees but the date is at the window edge and the vendor is
	// unrecognizable: 0.55 + 0 + ~0 stays under the 0.70 floor.
	txs := []Transaction{
		{ID: 1, Vendor: "XZQJW", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day.AddDate(0, 0, 5)},
	}

	result := Run(txs, candidates, DefaultConfig())

	assert.Empty(t, result.Matches)
	require.Len(t, result.Unmatched, 1)
	u := result.Unmatched[0]
	assert.Contains(t, u.Reason, "below the 0.70 confidence floor")
	assert.Equal(t, int64(10), u.NearestID)
	assert.Greater(t, u.NearestScore, 0.5)
	assert.Less(t, u.NearestScore, 0.70)
}

func TestRun_GreedyConsumesEachSideOnce(t *testing.T) {
	// Two debits for the same amount, one receipt. The same-day debit wins;
	// the other reports the receipt as consumed.
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
		{ID: 2, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day.AddDate(0, 0, 1)},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}

	result := Run(txs, candidates, DefaultConfig())

	require.Len(t, result.Matches, 1)
	assert.Equal(t, int64(1), result.Matches[0].TransactionID)

	require.Len(t, result.Unmatched, 1)
	u := result.Unmatched[0]
	assert.Equal(t, int64(2), u.TransactionID)
	assert.Equal(t, "best candidate was consumed by a stronger match", u.Reason)
	assert.Equal(t, int64(10), u.NearestID)
}

func TestRun_TieBreaksOnLowerCandidateID(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 7, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
		{ID: 3, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}

	result := Run(txs, candidates, DefaultConfig())

	require.Len(t, result.Matches, 1)
	assert.Equal(t, int64(3), result.Matches[0].CandidateID)
}

func TestRun_ZeroAmountNeverMatches(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Vendor: "PETRO CANADA", Amount: decimal.Zero, Date: day},
	}
	candidates := []Candidate{
		{ID: 10, Vendor: "PETRO CANADA", Amount: decimal.Zero, Date: day},
	}

	result := Run(txs, candidates, DefaultConfig())

	assert.Empty(t, result.Matches)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "zero-amount transactions are never matched", result.Unmatched[0].Reason)
}

func TestRun_Deterministic(t *testing.T) {
	txs := []Transaction{
		{ID: 2, Vendor: "SHELL", Amount: dec("40.00"), Date: day},
		{ID: 1, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}
	candidates := []Candidate{
		{ID: 11, Vendor: "SHELL", Amount: dec("40.00"), Date: day},
		{ID: 10, Vendor: "PETRO CANADA", Amount: dec("82.50"), Date: day},
	}

	first := Run(txs, candidates, DefaultConfig())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Run(txs, candidates, DefaultConfig()))
	}
}
