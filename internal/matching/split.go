package matching

import (
	"sort"

	"github.com/coastline-livery/charterbooks/internal/dateutils"
	"github.com/coastline-livery/charterbooks/internal/vendor"
)

// findSplits attempts to cover leftover transactions with combinations of
// unconsumed same-vendor candidates. One bank debit for a batch of fuel
// receipts on the same card is the typical case.
//
// Transactions are processed in id order and the first covering combination
// wins, so results are deterministic. Consumed candidates are marked in
// usedCand, and covered transactions in usedTx.
func findSplits(txs []Transaction, candidates []Candidate, cfg Config, usedTx, usedCand map[int]bool) []Split {
	var splits []Split

	order := make([]int, 0, len(txs))
	for i := range txs {
		if !usedTx[i] && !txs[i].Amount.IsZero() {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		return txs[order[a]].ID < txs[order[b]].ID
	})

	for _, i := range order {
		tx := txs[i]

		// Pool: free candidates inside the window whose vendor agrees and
		// whose amount fits under the transaction amount.
		var pool []int
		for j, cand := range candidates {
			if usedCand[j] || cand.Amount.IsZero() {
				continue
			}
			if cand.Amount.GreaterThan(tx.Amount.Add(cfg.AmountTolerance)) {
				continue
			}
			if dateutils.DaysBetween(tx.Date, cand.Date) > cfg.DateWindowDays {
				continue
			}
			if vendor.Similarity(tx.Vendor, cand.Vendor) < cfg.NameDrift {
				continue
			}
			pool = append(pool, j)
		}
		if len(pool) < 2 {
			continue
		}

		sort.Slice(pool, func(a, b int) bool {
			ca, cb := candidates[pool[a]], candidates[pool[b]]
			if !ca.Date.Equal(cb.Date) {
				return ca.Date.Before(cb.Date)
			}
			return ca.ID < cb.ID
		})

		combo := searchCombination(tx, candidates, pool, cfg)
		if combo == nil {
			continue
		}

		split := Split{TransactionID: tx.ID}
		var score float64
		for _, j := range combo {
			split.CandidateIDs = append(split.CandidateIDs, candidates[j].ID)
			score += splitPartScore(tx, candidates[j], cfg)
		}
		score /= float64(len(combo))
		if score < cfg.MinConfidence {
			continue
		}
		split.Score = score

		for _, j := range combo {
			usedCand[j] = true
		}
		usedTx[i] = true
		splits = append(splits, split)
	}

	return splits
}

// searchCombination looks for the first set of 2..MaxSplitParts pool members
// whose amounts sum to the transaction amount within tolerance. Depth-first
// over the date-ordered pool keeps the search deterministic; MaxSplitParts
// keeps it small.
func searchCombination(tx Transaction, candidates []Candidate, pool []int, cfg Config) []int {
	var picked []int

	var dfs func(start int) []int
	dfs = func(start int) []int {
		if len(picked) >= 2 {
			var sum = candidates[picked[0]].Amount
			for _, j := range picked[1:] {
				sum = sum.Add(candidates[j].Amount)
			}
			if sum.Sub(tx.Amount).Abs().LessThanOrEqual(cfg.AmountTolerance) {
				combo := make([]int, len(picked))
				copy(combo, picked)
				return combo
			}
		}
		if len(picked) == cfg.MaxSplitParts {
			return nil
		}
		for p := start; p < len(pool); p++ {
			j := pool[p]
			// Prune: adding this part alone already overshoots
			sum := candidates[j].Amount
			for _, q := range picked {
				sum = sum.Add(candidates[q].Amount)
			}
			if sum.GreaterThan(tx.Amount.Add(cfg.AmountTolerance)) {
				continue
			}
			picked = append(picked, j)
			if combo := dfs(p + 1); combo != nil {
				return combo
			}
			picked = picked[:len(picked)-1]
		}
		return nil
	}

	return dfs(0)
}

// splitPartScore scores one candidate of a split the same way scorePair
// scores a one-to-one match, with the amount component pinned to the gate.
func splitPartScore(tx Transaction, cand Candidate, cfg Config) float64 {
	dateScore := 1.0
	if cfg.DateWindowDays > 0 {
		days := dateutils.DaysBetween(tx.Date, cand.Date)
		dateScore = 1.0 - float64(days)/float64(cfg.DateWindowDays)
	}
	nameScore := vendor.Similarity(tx.Vendor, cand.Vendor)
	return weightAmount*1.0 + weightDate*dateScore + weightName*nameScore
}
