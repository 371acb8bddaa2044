package statement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
)

type fakeInserter struct {
	txs      []models.BankTransaction
	inserted int // value returned from InsertBatch; -1 means all
	err      error
}

func newFakeInserter() *fakeInserter {
	return &fakeInserter{inserted: -1}
}

func (f *fakeInserter) InsertBatch(ctx context.Context, txs []models.BankTransaction) (int, error) {
	f.txs = append(f.txs, txs...)
	if f.err != nil {
		return 0, f.err
	}
	if f.inserted < 0 {
		return len(txs), nil
	}
	return f.inserted, nil
}

const csvFixture = `Date,Description,Amount
07/03/2024,HARBOUR FUELS #228,-84.50
07/08/2024,DEPOSIT BRANCH 0044,"1,200.00"
`

func TestImportAssignsBatchAndAccount(t *testing.T) {
	inserter := newFakeInserter()
	importer := NewImporter(inserter, NewMockExtractor("", nil), logging.NewMockLogger())

	summary, err := importer.Import(context.Background(), strings.NewReader(csvFixture),
		Options{AccountID: "OP-001", DateFormat: "01/02/2006"})
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, summary.Format)
	assert.Equal(t, 2, summary.Parsed)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), summary.From)
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), summary.To)
	assert.Len(t, summary.BatchID, 36)

	require.Len(t, inserter.txs, 2)
	for _, tx := range inserter.txs {
		assert.Equal(t, "OP-001", tx.AccountID)
		assert.Equal(t, summary.BatchID, tx.ImportBatchID)
		assert.Equal(t, models.MatchUnmatched, tx.MatchStatus)
	}
	assert.True(t, inserter.txs[0].Amount.Equal(decimal.RequireFromString("-84.50")))
}

func TestImportReportsDuplicates(t *testing.T) {
	inserter := newFakeInserter()
	inserter.inserted = 1
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	summary, err := importer.Import(context.Background(), strings.NewReader(csvFixture),
		Options{AccountID: "OP-001", DateFormat: "01/02/2006"})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Parsed)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicates)
}

func TestImportTakesAccountFromOFXFile(t *testing.T) {
	inserter := newFakeInserter()
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	summary, err := importer.Import(context.Background(), strings.NewReader(ofxSGMLFixture), Options{})
	require.NoError(t, err)

	assert.Equal(t, FormatOFX, summary.Format)
	require.Len(t, inserter.txs, 2)
	assert.Equal(t, "00441-552317", inserter.txs[0].AccountID)
	assert.Equal(t, "00441-552317", inserter.txs[1].AccountID)
}

func TestImportRequiresAnAccount(t *testing.T) {
	inserter := newFakeInserter()
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	_, err := importer.Import(context.Background(), strings.NewReader(csvFixture),
		Options{DateFormat: "01/02/2006"})
	require.Error(t, err)

	var validationErr *errs.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Empty(t, inserter.txs)
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	inserter := newFakeInserter()
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	_, err := importer.Import(context.Background(), strings.NewReader("nothing statement shaped"), Options{})
	require.Error(t, err)

	var formatErr *errs.InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestImportPDFThroughExtractor(t *testing.T) {
	inserter := newFakeInserter()
	importer := NewImporter(inserter, NewMockExtractor(pdfStatementText, nil), logging.NewMockLogger())

	summary, err := importer.Import(context.Background(), strings.NewReader("%PDF-1.4 fake"),
		Options{AccountID: "OP-001"})
	require.NoError(t, err)

	assert.Equal(t, FormatPDF, summary.Format)
	assert.Equal(t, 4, summary.Parsed)
	require.Len(t, inserter.txs, 4)
	assert.Equal(t, "214", inserter.txs[0].CheckNumber)
}

func TestImportEmptyStatementIsNotAnError(t *testing.T) {
	inserter := newFakeInserter()
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	data := "Date,Description,Amount\n"
	summary, err := importer.Import(context.Background(), strings.NewReader(data),
		Options{AccountID: "OP-001"})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Parsed)
	assert.Equal(t, 0, summary.Inserted)
	assert.NotEmpty(t, summary.BatchID)
	assert.Empty(t, inserter.txs)
}

func TestImportSurfacesStorageErrors(t *testing.T) {
	inserter := newFakeInserter()
	inserter.err = errors.New("connection refused")
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	_, err := importer.Import(context.Background(), strings.NewReader(csvFixture),
		Options{AccountID: "OP-001", DateFormat: "01/02/2006"})
	require.Error(t, err)
	assert.ErrorIs(t, err, inserter.err)
}

func TestImportFileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvFixture), 0600))

	inserter := newFakeInserter()
	importer := NewImporter(inserter, nil, logging.NewMockLogger())

	summary, err := importer.ImportFile(context.Background(), path,
		Options{AccountID: "OP-001", DateFormat: "01/02/2006"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Parsed)

	_, err = importer.ImportFile(context.Background(), filepath.Join(dir, "missing.csv"), Options{})
	assert.Error(t, err)
}
