// Package matching implements the fuzzy engine that pairs bank transactions
// with internal records: receipts for money out, charter payments for money
// in. The engine is pure; loading candidates and persisting links is the
// reconcile package's job.
package matching

import "github.com/shopspring/decimal"

// Config holds the tolerances and thresholds for a matching run.
// Different runs can use different configurations: month-end reconciliation
// is stricter than a first pass over a messy statement import.
type Config struct {
	// DateWindowDays is the maximum calendar-day distance between a bank
	// transaction and a candidate. 0 means same-day only.
	DateWindowDays int

	// AmountTolerance is the maximum absolute difference between the bank
	// amount and the candidate amount. Zero demands exact equality, which
	// is the office default: banks do not round.
	AmountTolerance decimal.Decimal

	// MinConfidence is the minimum composite score a pair must reach to be
	// linked automatically.
	MinConfidence float64

	// AllowSplit enables matching one bank transaction against several
	// same-vendor candidates whose amounts sum to the transaction amount.
	AllowSplit bool

	// MaxSplitParts caps how many candidates a split may combine.
	MaxSplitParts int

	// NameDrift is the minimum vendor-name similarity for candidates to be
	// grouped into a split.
	NameDrift float64
}

// DefaultConfig returns the tolerances used by the scheduled reconciliation
// runs.
func DefaultConfig() Config {
	return Config{
		DateWindowDays:  5,
		AmountTolerance: decimal.Zero,
		MinConfidence:   0.70,
		AllowSplit:      false,
		MaxSplitParts:   3,
		NameDrift:       0.85,
	}
}

// Composite score weights. Amount agreement dominates because the amount
// gate has already passed; date and vendor name break ties between
// same-amount candidates.
const (
	weightAmount = 0.55
	weightDate   = 0.25
	weightName   = 0.20
)

// Rule names recorded on persisted matches.
const (
	RuleCheckNumber = "check-number"
	RuleExact       = "exact"
	RuleClose       = "close"
	RuleFuzzy       = "fuzzy"
	RuleSplit       = "split"
)

// ruleForScore classifies a composite score into the rule bands the office
// reviews at different levels of scrutiny.
func ruleForScore(score float64) string {
	switch {
	case score >= 0.95:
		return RuleExact
	case score >= 0.85:
		return RuleClose
	default:
		return RuleFuzzy
	}
}
