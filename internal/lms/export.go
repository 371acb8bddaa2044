package lms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
)

// ExportSource reads LMS data from the export files the office produced over
// the years: either a directory holding Customers.csv, Reservations.csv, and
// Trxs.csv, or a single .xlsx workbook with one sheet per table.
type ExportSource struct {
	path   string
	xlsx   bool
	logger logging.Logger
}

// NewExportSource opens an export at path. A directory selects CSV mode, a
// .xlsx file selects workbook mode.
func NewExportSource(path string, logger logging.Logger) (*ExportSource, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open LMS export %s: %w", path, err)
	}

	if info.IsDir() {
		return &ExportSource{path: path, logger: logger}, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return &ExportSource{path: path, xlsx: true, logger: logger}, nil
	}
	return nil, &errs.InvalidFormatError{
		FilePath:       path,
		ExpectedFormat: "directory of LMS CSV exports or a .xlsx workbook",
		Msg:            "unsupported export type",
	}
}

// Close is a no-op; export files are opened per read.
func (s *ExportSource) Close() error { return nil }

// Customers reads the Customers export.
func (s *ExportSource) Customers(ctx context.Context) ([]LegacyCustomer, error) {
	if s.xlsx {
		records, err := s.sheetRecords("Customers")
		if err != nil {
			return nil, err
		}
		customers := make([]LegacyCustomer, 0, len(records))
		for _, rec := range records {
			customers = append(customers, LegacyCustomer{
				CustNo:  rec["CustNo"],
				Name:    rec["CustName"],
				Company: rec["Company"],
				Phone:   rec["Phone"],
				Email:   rec["Email"],
				Address: rec["Address"],
			})
		}
		return customers, nil
	}
	return readCSVTable[LegacyCustomer](filepath.Join(s.path, "Customers.csv"), s.logger)
}

// Reservations reads the Reservations export.
func (s *ExportSource) Reservations(ctx context.Context) ([]LegacyReservation, error) {
	if s.xlsx {
		records, err := s.sheetRecords("Reservations")
		if err != nil {
			return nil, err
		}
		reservations := make([]LegacyReservation, 0, len(records))
		for _, rec := range records {
			reservations = append(reservations, LegacyReservation{
				ResNo:      rec["ResNo"],
				CustNo:     rec["CustNo"],
				PickupDate: rec["PUDate"],
				PickupAddr: rec["PUAddress"],
				DropAddr:   rec["DOAddress"],
				Pax:        rec["Pax"],
				UnitNo:     rec["UnitNo"],
				Status:     rec["Status"],
				TotalDue:   rec["TotalDue"],
				AmtPaid:    rec["AmtPaid"],
				Balance:    rec["Balance"],
				Notes:      rec["Notes"],
			})
		}
		return reservations, nil
	}
	return readCSVTable[LegacyReservation](filepath.Join(s.path, "Reservations.csv"), s.logger)
}

// Transactions reads the Trxs export.
func (s *ExportSource) Transactions(ctx context.Context) ([]LegacyTrx, error) {
	if s.xlsx {
		records, err := s.sheetRecords("Trxs")
		if err != nil {
			return nil, err
		}
		trxs := make([]LegacyTrx, 0, len(records))
		for _, rec := range records {
			trxs = append(trxs, LegacyTrx{
				TrxNo:     rec["TrxNo"],
				ResNo:     rec["ResNo"],
				TrxDate:   rec["TrxDate"],
				TrxType:   rec["TrxType"],
				PayMethod: rec["PayMethod"],
				Amount:    rec["Amount"],
				CheckNo:   rec["CheckNo"],
				Memo:      rec["Memo"],
			})
		}
		return trxs, nil
	}
	return readCSVTable[LegacyTrx](filepath.Join(s.path, "Trxs.csv"), s.logger)
}

// readCSVTable reads one exported table into structs using gocsv.
func readCSVTable[T any](path string, logger logging.Logger) ([]T, error) {
	logger.Info("Reading LMS CSV export", logging.Field{Key: "file", Value: path})

	file, err := os.Open(path) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return nil, &errs.MigrationError{
			Source: "LMS CSV export",
			Err:    err,
		}
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close export file",
				logging.Field{Key: "file", Value: path},
				logging.Field{Key: "error", Value: err})
		}
	}()

	var rows []T
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, &errs.MigrationError{
			Source: "LMS CSV export",
			Err:    fmt.Errorf("error parsing %s: %w", filepath.Base(path), err),
		}
	}
	return rows, nil
}

// sheetRecords reads one worksheet into header-keyed records. Short rows are
// padded; Excel drops trailing empty cells when a row ends early.
func (s *ExportSource) sheetRecords(sheet string) ([]map[string]string, error) {
	s.logger.Info("Reading LMS workbook sheet",
		logging.Field{Key: "file", Value: s.path},
		logging.Field{Key: "sheet", Value: sheet})

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &errs.MigrationError{
			Source: "LMS Excel export",
			Err:    err,
		}
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook",
				logging.Field{Key: "error", Value: err})
		}
	}()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &errs.MigrationError{
			Source: "LMS Excel export",
			Err:    fmt.Errorf("sheet %s: %w", sheet, err),
		}
	}
	if len(rows) == 0 {
		return nil, &errs.InvalidFormatError{
			FilePath:       s.path,
			ExpectedFormat: "LMS export workbook",
			Msg:            fmt.Sprintf("sheet %s has no header row", sheet),
		}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
