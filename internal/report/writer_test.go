package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/coastline-livery/charterbooks/internal/logging"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revenue.csv")
	rows := []RevenueRow{
		{Month: "2024-06", Total: "4500.00"},
		{Month: "2024-07", Total: "6212.50"},
	}

	err := WriteCSV(rows, path, logging.NewMockLogger())
	require.NoError(t, err)

	data, err := os.ReadFile(path) // #nosec G304 -- test reads its own temp file
	require.NoError(t, err)
	assert.Contains(t, string(data), "Month,Total")
	assert.Contains(t, string(data), "2024-06,4500.00")
	assert.Contains(t, string(data), "2024-07,6212.50")
}

func TestWriteCSVCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "july", "unmatched.csv")

	err := WriteCSV([]UnmatchedRow{}, path, logging.NewMockLogger())
	require.NoError(t, err)

	data, err := os.ReadFile(path) // #nosec G304 -- test reads its own temp file
	require.NoError(t, err)
	assert.Contains(t, string(data), "TxID,Account,PostedOn,Description,Amount,CheckNumber")
}

func TestWriteCSVRejectsNonSliceRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")

	err := WriteCSV("not rows", path, logging.NewMockLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slice of structs")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "rejected input should not leave a file behind")
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "month-end.xlsx")
	sections := []Section{
		{Name: "Revenue", Rows: []RevenueRow{{Month: "2024-07", Total: "6212.50"}}},
		{Name: "Unmatched", Rows: []UnmatchedRow{
			{TxID: 9001, Account: "chequing", PostedOn: "2024-07-08", Description: "CHQ 214", Amount: "-725.00", CheckNumber: "214"},
		}},
	}

	err := WriteWorkbook(sections, path, logging.NewMockLogger())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	assert.Equal(t, []string{"Revenue", "Unmatched"}, f.GetSheetList())

	revenue, err := f.GetRows("Revenue")
	require.NoError(t, err)
	require.Len(t, revenue, 2)
	assert.Equal(t, []string{"Month", "Total"}, revenue[0])
	assert.Equal(t, []string{"2024-07", "6212.50"}, revenue[1])

	unmatched, err := f.GetRows("Unmatched")
	require.NoError(t, err)
	require.Len(t, unmatched, 2)
	assert.Equal(t, "9001", unmatched[1][0])
	assert.Equal(t, "-725.00", unmatched[1][4])
}

func TestWriteWorkbookHeaderOnlySections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	sections := []Section{{Name: "Revenue", Rows: []RevenueRow{}}}

	err := WriteWorkbook(sections, path, logging.NewMockLogger())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	rows, err := f.GetRows("Revenue")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Month", "Total"}, rows[0])
}

func TestWriteWorkbookRequiresSections(t *testing.T) {
	err := WriteWorkbook(nil, filepath.Join(t.TempDir(), "none.xlsx"), logging.NewMockLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one section")
}

func TestTableize(t *testing.T) {
	headers, cells, err := tableize([]StatementRow{
		{Date: "2024-07-01", Type: "payment", Method: "check", Reference: "check 214", Amount: "725.00", Balance: "725.00"},
	})
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"Date", "Type", "Method", "Reference", "Amount", "Balance"}, headers)
	require.Len(t, cells, 1)
	assert.Equal(t, []interface{}{"2024-07-01", "payment", "check", "check 214", "725.00", "725.00"}, cells[0])
}

func TestTableizeRejectsUntaggedStructs(t *testing.T) {
	type bare struct{ Name string }

	_, _, err := tableize([]bare{{Name: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no csv-tagged fields")
}
