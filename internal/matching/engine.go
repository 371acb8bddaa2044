package matching

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/dateutils"
	"github.com/coastline-livery/charterbooks/internal/vendor"
)

// Transaction is the engine's view of one bank statement line. Amount is the
// unsigned magnitude; the caller has already split debits from credits and
// chosen the candidate set accordingly.
type Transaction struct {
	ID          int64
	Vendor      string // normalized description
	Amount      decimal.Decimal
	Date        time.Time
	CheckNumber string
}

// Candidate is one internal record a transaction could match: a receipt for
// debits, a charter payment for credits.
type Candidate struct {
	ID          int64
	Vendor      string // normalized vendor or payer name
	Amount      decimal.Decimal
	Date        time.Time
	CheckNumber string
}

// Match links one transaction to one candidate.
type Match struct {
	TransactionID int64
	CandidateID   int64
	Score         float64
	Rule          string
	DaysApart     int
}

// Split links one transaction to several candidates whose amounts sum to the
// transaction amount.
type Split struct {
	TransactionID int64
	CandidateIDs  []int64
	Score         float64
}

// Unmatched describes a transaction the run could not link, with the nearest
// miss so the operator knows where to look.
type Unmatched struct {
	TransactionID int64
	Reason        string
	NearestID     int64 // 0 when no candidate was even close
	NearestScore  float64
}

// Result is the complete outcome of one matching run. Slices are ordered
// deterministically so repeated dry-runs print identically.
type Result struct {
	Matches   []Match
	Splits    []Split
	Unmatched []Unmatched
}

// pair is one gated transaction/candidate combination under consideration.
type pair struct {
	txIdx     int
	candIdx   int
	txID      int64
	candID    int64
	score     float64
	rule      string
	daysApart int
}

// Run matches transactions against candidates with the given tolerances.
// Every transaction and candidate is consumed at most once.
func Run(txs []Transaction, candidates []Candidate, cfg Config) Result {
	var result Result

	// Collect every pair that passes the amount and date gates.
	var pairs []pair
	// nearest[i] is the best-scoring gated pair for transaction i, kept for
	// diagnostics even when it falls below the confidence threshold.
	nearest := make(map[int]pair)

	for i, tx := range txs {
		if tx.Amount.IsZero() {
			continue
		}
		for j, cand := range candidates {
			score, days, rule, ok := scorePair(tx, cand, cfg)
			if !ok {
				continue
			}
			p := pair{
				txIdx: i, candIdx: j,
				txID: tx.ID, candID: cand.ID,
				score: score, rule: rule, daysApart: days,
			}
			if best, seen := nearest[i]; !seen || better(p, best) {
				nearest[i] = p
			}
			if score >= cfg.MinConfidence {
				pairs = append(pairs, p)
			}
		}
	}

	// Highest score first; ties go to the smaller date distance, then the
	// lower transaction id, then the lower candidate id.
	sort.Slice(pairs, func(a, b int) bool {
		return better(pairs[a], pairs[b])
	})

	usedTx := make(map[int]bool)
	usedCand := make(map[int]bool)
	consumed := make(map[int]bool) // tx had an eligible pair whose candidate went elsewhere

	for _, p := range pairs {
		if usedTx[p.txIdx] {
			continue
		}
		if usedCand[p.candIdx] {
			consumed[p.txIdx] = true
			continue
		}
		usedTx[p.txIdx] = true
		usedCand[p.candIdx] = true
		result.Matches = append(result.Matches, Match{
			TransactionID: txs[p.txIdx].ID,
			CandidateID:   candidates[p.candIdx].ID,
			Score:         p.score,
			Rule:          p.rule,
			DaysApart:     p.daysApart,
		})
	}

	if cfg.AllowSplit {
		result.Splits = findSplits(txs, candidates, cfg, usedTx, usedCand)
	}

	for i, tx := range txs {
		if usedTx[i] {
			continue
		}
		u := Unmatched{TransactionID: tx.ID}
		switch {
		case tx.Amount.IsZero():
			u.Reason = "zero-amount transactions are never matched"
		case consumed[i]:
			best := nearest[i]
			u.Reason = "best candidate was consumed by a stronger match"
			u.NearestID = candidates[best.candIdx].ID
			u.NearestScore = best.score
		default:
			best, seen := nearest[i]
			if !seen {
				u.Reason = "no candidate with a matching amount inside the date window"
			} else {
				u.Reason = fmt.Sprintf("best score %.2f is below the %.2f confidence floor",
					best.score, cfg.MinConfidence)
				u.NearestID = candidates[best.candIdx].ID
				u.NearestScore = best.score
			}
		}
		result.Unmatched = append(result.Unmatched, u)
	}

	sort.Slice(result.Unmatched, func(a, b int) bool {
		return result.Unmatched[a].TransactionID < result.Unmatched[b].TransactionID
	})

	return result
}

// better orders pairs for the greedy pass: higher score, then fewer days
// apart, then lower ids.
func better(a, b pair) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.daysApart != b.daysApart {
		return a.daysApart < b.daysApart
	}
	if a.txID != b.txID {
		return a.txID < b.txID
	}
	return a.candID < b.candID
}

// scorePair gates a transaction/candidate pair on amount and date, then
// scores it. A shared check number is treated as proof and short-circuits
// the composite score.
func scorePair(tx Transaction, cand Candidate, cfg Config) (score float64, days int, rule string, ok bool) {
	if tx.Amount.IsZero() || cand.Amount.IsZero() {
		return 0, 0, "", false
	}

	diff := tx.Amount.Sub(cand.Amount).Abs()
	if diff.GreaterThan(cfg.AmountTolerance) {
		return 0, 0, "", false
	}

	days = dateutils.DaysBetween(tx.Date, cand.Date)
	if days > cfg.DateWindowDays {
		return 0, days, "", false
	}

	if tx.CheckNumber != "" && tx.CheckNumber == cand.CheckNumber {
		return 1.0, days, RuleCheckNumber, true
	}

	amountScore := 1.0
	if cfg.AmountTolerance.IsPositive() {
		amountScore = 1.0 - diff.InexactFloat64()/cfg.AmountTolerance.InexactFloat64()
	}

	dateScore := 1.0
	if cfg.DateWindowDays > 0 {
		dateScore = 1.0 - float64(days)/float64(cfg.DateWindowDays)
	}

	nameScore := vendor.Similarity(tx.Vendor, cand.Vendor)

	score = weightAmount*amountScore + weightDate*dateScore + weightName*nameScore
	return score, days, ruleForScore(score), true
}
