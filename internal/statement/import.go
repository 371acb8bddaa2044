package statement

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
)

// TxInserter loads parsed statement lines into storage. Satisfied by
// postgres.BankTxRepo.
type TxInserter interface {
	InsertBatch(ctx context.Context, txs []models.BankTransaction) (int, error)
}

// Options controls a statement import.
type Options struct {
	// AccountID is the account the lines belong to. When empty, the
	// account named inside the file is used; a file that names no account
	// fails the import.
	AccountID string

	// DateFormat is the Go layout tried first for CSV date columns.
	DateFormat string
}

// Summary reports what one import did.
type Summary struct {
	Format     Format
	BatchID    string
	Parsed     int
	Inserted   int
	Duplicates int
	From       time.Time
	To         time.Time
}

// Importer parses statement files and loads their lines into the
// banking_transactions table. Duplicate lines from re-imported statements
// are dropped by the storage layer and reported in the summary.
type Importer struct {
	txs       TxInserter
	extractor Extractor
	logger    logging.Logger
}

// NewImporter creates an Importer. A nil extractor falls back to the real
// pdftotext-backed one, and a nil logger falls back to the global logger.
func NewImporter(txs TxInserter, extractor Extractor, logger logging.Logger) *Importer {
	if extractor == nil {
		extractor = NewRealExtractor()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Importer{txs: txs, extractor: extractor, logger: logger}
}

// ImportFile imports the statement file at path.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (*Summary, error) {
	f, err := os.Open(path) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return nil, fmt.Errorf("error opening statement file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			im.logger.Warn("Failed to close statement file",
				logging.Field{Key: "file", Value: path},
				logging.Field{Key: "error", Value: err})
		}
	}()

	im.logger.Info("Importing bank statement",
		logging.Field{Key: "file", Value: filepath.Base(path)})
	return im.Import(ctx, f, opts)
}

// Import detects the statement format, parses it, and inserts the lines
// under a fresh import batch id.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (*Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading statement: %w", err)
	}

	format := DetectFormat(data)

	var lines []Line
	switch format {
	case FormatCSV:
		lines, err = ParseCSV(bytes.NewReader(data), opts.DateFormat, im.logger)
	case FormatOFX:
		lines, err = ParseOFX(bytes.NewReader(data), im.logger)
	case FormatPDF:
		lines, err = ParsePDFWithExtractor(bytes.NewReader(data), im.extractor, im.logger)
	default:
		return nil, &errs.InvalidFormatError{
			FilePath:       "(from reader)",
			ExpectedFormat: "CSV, OFX, or PDF bank statement",
			Msg:            "unrecognized statement format",
		}
	}
	if err != nil {
		return nil, err
	}

	summary := &Summary{Format: format, BatchID: uuid.New().String()}
	if len(lines) == 0 {
		im.logger.Warn("Statement contained no transaction lines")
		return summary, nil
	}

	txs := make([]models.BankTransaction, 0, len(lines))
	for _, line := range lines {
		accountID := opts.AccountID
		if accountID == "" {
			accountID = line.AccountID
		}
		if accountID == "" {
			return nil, &errs.ValidationError{
				Subject: "statement import",
				Reason:  "the file names no account: pass --account or set statement.default_account",
			}
		}

		txs = append(txs, models.BankTransaction{
			AccountID:     accountID,
			PostedOn:      line.PostedOn,
			Description:   line.Description,
			Amount:        line.Amount,
			CheckNumber:   line.CheckNumber,
			ImportBatchID: summary.BatchID,
			MatchStatus:   models.MatchUnmatched,
		})

		if summary.From.IsZero() || line.PostedOn.Before(summary.From) {
			summary.From = line.PostedOn
		}
		if line.PostedOn.After(summary.To) {
			summary.To = line.PostedOn
		}
	}

	inserted, err := im.txs.InsertBatch(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("failed to load statement lines: %w", err)
	}

	summary.Parsed = len(txs)
	summary.Inserted = inserted
	summary.Duplicates = len(txs) - inserted

	im.logger.Info("Imported bank statement",
		logging.Field{Key: "format", Value: string(summary.Format)},
		logging.Field{Key: "batch", Value: summary.BatchID},
		logging.Field{Key: "parsed", Value: summary.Parsed},
		logging.Field{Key: "inserted", Value: summary.Inserted},
		logging.Field{Key: "duplicates", Value: summary.Duplicates})
	return summary, nil
}
