// Package reconcile drives fuzzy matching between imported bank transactions
// and the books: debits against receipts, credits against charter payments.
// It replaces the pile of one-off matching scripts that each carried their
// own slightly different tolerances.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/matching"
	"github.com/coastline-livery/charterbooks/internal/models"
	"github.com/coastline-livery/charterbooks/internal/vendor"
)

// defaultRangeDays is how far back a run looks when no explicit range is
// given. Statements arrive monthly, so three months covers stragglers.
const defaultRangeDays = 90

// TxStore is the slice of the bank transaction repository a run needs.
type TxStore interface {
	ListUnmatched(ctx context.Context, accountID string, from, to time.Time) ([]models.BankTransaction, error)
	MarkMatchedReceipt(ctx context.Context, txID, receiptID int64, confidence float64, rule string) error
	MarkMatchedPayment(ctx context.Context, txID, paymentID int64, confidence float64, rule string) error
	Confirm(ctx context.Context, txID int64) error
	Unmatch(ctx context.Context, txID int64, force bool) error
	CountByStatus(ctx context.Context) (map[models.MatchStatus]int, error)
}

// ReceiptSource lists receipts available for debit-side matching.
type ReceiptSource interface {
	ListUnlinkedInRange(ctx context.Context, from, to time.Time) ([]models.Receipt, error)
}

// PaymentSource lists charter payments available for credit-side matching.
type PaymentSource interface {
	ListUnlinkedInRange(ctx context.Context, from, to time.Time) ([]models.Payment, error)
}

// Reconciler matches unmatched bank transactions against the books.
type Reconciler struct {
	txs      TxStore
	receipts ReceiptSource
	payments PaymentSource
	cfg      matching.Config
	logger   logging.Logger
	now      func() time.Time
}

// NewReconciler creates a Reconciler with the given matching tolerances.
func NewReconciler(txs TxStore, receipts ReceiptSource, payments PaymentSource, cfg matching.Config, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Reconciler{
		txs:      txs,
		receipts: receipts,
		payments: payments,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Options narrows a run to one account and date range. Zero values mean all
// accounts and the trailing ninety days.
type Options struct {
	AccountID string
	From      time.Time
	To        time.Time
}

// SideSummary is the outcome for one side of the books.
type SideSummary struct {
	Transactions int
	Candidates   int
	Result       matching.Result
}

// Summary is the complete outcome of one reconciliation run.
type Summary struct {
	From    time.Time
	To      time.Time
	Debits  SideSummary
	Credits SideSummary
}

// TotalMatched counts one-to-one links across both sides.
func (s Summary) TotalMatched() int {
	return len(s.Debits.Result.Matches) + len(s.Credits.Result.Matches)
}

// TotalUnmatched counts transactions neither side could link.
func (s Summary) TotalUnmatched() int {
	return len(s.Debits.Result.Unmatched) + len(s.Credits.Result.Unmatched)
}

// SplitProposals counts split matches awaiting manual review.
func (s Summary) SplitProposals() int {
	return len(s.Debits.Result.Splits) + len(s.Credits.Result.Splits)
}

// Run matches every unmatched transaction in the window and records the
// links. Split proposals are reported but never persisted automatically;
// a transaction links to at most one receipt or payment until a person
// reviews the split.
func (r *Reconciler) Run(ctx context.Context, opts Options) (Summary, error) {
	to := opts.To
	if to.IsZero() {
		to = r.now()
	}
	from := opts.From
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultRangeDays)
	}

	txs, err := r.txs.ListUnmatched(ctx, opts.AccountID, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load unmatched transactions: %w", err)
	}

	// Candidates get a window of slack on each side so a receipt dated just
	// outside the range still matches a transaction just inside it.
	candFrom := from.AddDate(0, 0, -r.cfg.DateWindowDays)
	candTo := to.AddDate(0, 0, r.cfg.DateWindowDays)

	receipts, err := r.receipts.ListUnlinkedInRange(ctx, candFrom, candTo)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load receipt candidates: %w", err)
	}
	payments, err := r.payments.ListUnlinkedInRange(ctx, candFrom, candTo)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load payment candidates: %w", err)
	}

	debits, credits := splitSides(txs)

	summary := Summary{
		From: from,
		To:   to,
		Debits: SideSummary{
			Transactions: len(debits),
			Candidates:   len(receipts),
			Result:       matching.Run(debits, receiptCandidates(receipts), r.cfg),
		},
		Credits: SideSummary{
			Transactions: len(credits),
			Candidates:   len(payments),
			Result:       matching.Run(credits, paymentCandidates(payments), r.cfg),
		},
	}

	for _, m := range summary.Debits.Result.Matches {
		if err := r.txs.MarkMatchedReceipt(ctx, m.TransactionID, m.CandidateID, m.Score, m.Rule); err != nil {
			return summary, err
		}
		r.logMatch("receipt", m)
	}
	for _, m := range summary.Credits.Result.Matches {
		if err := r.txs.MarkMatchedPayment(ctx, m.TransactionID, m.CandidateID, m.Score, m.Rule); err != nil {
			return summary, err
		}
		r.logMatch("payment", m)
	}

	r.logger.WithFields(
		logging.Field{Key: "matched", Value: summary.TotalMatched()},
		logging.Field{Key: "unmatched", Value: summary.TotalUnmatched()},
		logging.Field{Key: "split_proposals", Value: summary.SplitProposals()},
	).Info("reconciliation run finished")

	return summary, nil
}

func (r *Reconciler) logMatch(side string, m matching.Match) {
	r.logger.WithFields(
		logging.Field{Key: logging.FieldTransactionID, Value: m.TransactionID},
		logging.Field{Key: "candidate_id", Value: m.CandidateID},
		logging.Field{Key: logging.FieldConfidence, Value: m.Score},
		logging.Field{Key: logging.FieldRule, Value: m.Rule},
	).Debug("linked transaction to " + side)
}

// Confirm promotes an automatic match to confirmed.
func (r *Reconciler) Confirm(ctx context.Context, txID int64) error {
	if err := r.txs.Confirm(ctx, txID); err != nil {
		return err
	}
	r.logger.WithField(logging.FieldTransactionID, txID).Info("match confirmed")
	return nil
}

// Unmatch clears a link so the transaction re-enters the matching pool.
func (r *Reconciler) Unmatch(ctx context.Context, txID int64, force bool) error {
	if err := r.txs.Unmatch(ctx, txID, force); err != nil {
		return err
	}
	r.logger.WithField(logging.FieldTransactionID, txID).Info("match cleared")
	return nil
}

// Status reports how many transactions sit in each match state.
func (r *Reconciler) Status(ctx context.Context) (map[models.MatchStatus]int, error) {
	return r.txs.CountByStatus(ctx)
}

// splitSides divides transactions by sign. Zero-amount lines ride with the
// debits so the engine reports them instead of dropping them silently.
func splitSides(txs []models.BankTransaction) (debits, credits []matching.Transaction) {
	for _, tx := range txs {
		mt := matching.Transaction{
			ID:          tx.ID,
			Vendor:      vendor.Normalize(tx.Description),
			Amount:      tx.AbsAmount(),
			Date:        tx.PostedOn,
			CheckNumber: tx.CheckNumber,
		}
		if tx.IsCredit() {
			credits = append(credits, mt)
		} else {
			debits = append(debits, mt)
		}
	}
	return debits, credits
}

func receiptCandidates(receipts []models.Receipt) []matching.Candidate {
	candidates := make([]matching.Candidate, 0, len(receipts))
	for _, rc := range receipts {
		name := rc.VendorNormalized
		if name == "" {
			name = vendor.Normalize(rc.VendorRaw)
		}
		candidates = append(candidates, matching.Candidate{
			ID:          rc.ID,
			Vendor:      name,
			Amount:      rc.Total,
			Date:        rc.PurchasedOn,
			CheckNumber: rc.CheckNumber,
		})
	}
	return candidates
}

func paymentCandidates(payments []models.Payment) []matching.Candidate {
	candidates := make([]matching.Candidate, 0, len(payments))
	for _, p := range payments {
		candidates = append(candidates, matching.Candidate{
			ID:          p.ID,
			Vendor:      vendor.Normalize(p.Reference),
			Amount:      p.Amount,
			Date:        p.ReceivedOn,
			CheckNumber: p.CheckNumber,
		})
	}
	return candidates
}
