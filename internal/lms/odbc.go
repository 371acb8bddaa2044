package lms

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Access .mdb files are reached through the system ODBC driver.
	_ "github.com/alexbrainman/odbc"

	"github.com/coastline-livery/charterbooks/internal/logging"
)

// MDBSource reads the LMS tables live over ODBC.
type MDBSource struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenMDB connects to the LMS database through the ODBC DSN, e.g.
// "Driver={Microsoft Access Driver (*.mdb)};Dbq=C:\\LMS\\LMSDATA.MDB;".
func OpenMDB(dsn string, logger logging.Logger) (*MDBSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no LMS DSN configured: set lms.dsn or LMS_ODBC_DSN")
	}
	db, err := sql.Open("odbc", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open LMS connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("LMS database unreachable: %w", err)
	}
	return NewMDBSource(db, logger), nil
}

// NewMDBSource wraps an already-open connection. Tests hand in a mock.
func NewMDBSource(db *sql.DB, logger logging.Logger) *MDBSource {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &MDBSource{db: db, logger: logger}
}

// Close releases the ODBC connection.
func (s *MDBSource) Close() error {
	return s.db.Close()
}

// Customers reads the LMS Customers table.
func (s *MDBSource) Customers(ctx context.Context) ([]LegacyCustomer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CustNo, CustName, Company, Phone, Email, Address FROM Customers`)
	if err != nil {
		return nil, fmt.Errorf("failed to read Customers: %w", err)
	}
	defer rows.Close()

	var customers []LegacyCustomer
	for rows.Next() {
		vals, err := scanStrings(rows, 6)
		if err != nil {
			return nil, fmt.Errorf("failed to scan Customers row: %w", err)
		}
		customers = append(customers, LegacyCustomer{
			CustNo:  vals[0],
			Name:    vals[1],
			Company: vals[2],
			Phone:   vals[3],
			Email:   vals[4],
			Address: vals[5],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading Customers: %w", err)
	}

	s.logger.Info("Read LMS customers", logging.Field{Key: "count", Value: len(customers)})
	return customers, nil
}

// Reservations reads the LMS Reservations table.
func (s *MDBSource) Reservations(ctx context.Context) ([]LegacyReservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ResNo, CustNo, PUDate, PUAddress, DOAddress, Pax, UnitNo,
		        Status, TotalDue, AmtPaid, Balance, Notes
		 FROM Reservations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read Reservations: %w", err)
	}
	defer rows.Close()

	var reservations []LegacyReservation
	for rows.Next() {
		vals, err := scanStrings(rows, 12)
		if err != nil {
			return nil, fmt.Errorf("failed to scan Reservations row: %w", err)
		}
		reservations = append(reservations, LegacyReservation{
			ResNo:      vals[0],
			CustNo:     vals[1],
			PickupDate: vals[2],
			PickupAddr: vals[3],
			DropAddr:   vals[4],
			Pax:        vals[5],
			UnitNo:     vals[6],
			Status:     vals[7],
			TotalDue:   vals[8],
			AmtPaid:    vals[9],
			Balance:    vals[10],
			Notes:      vals[11],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading Reservations: %w", err)
	}

	s.logger.Info("Read LMS reservations", logging.Field{Key: "count", Value: len(reservations)})
	return reservations, nil
}

// Transactions reads the LMS Trxs table.
func (s *MDBSource) Transactions(ctx context.Context) ([]LegacyTrx, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT TrxNo, ResNo, TrxDate, TrxType, PayMethod, Amount, CheckNo, Memo FROM Trxs`)
	if err != nil {
		return nil, fmt.Errorf("failed to read Trxs: %w", err)
	}
	defer rows.Close()

	var trxs []LegacyTrx
	for rows.Next() {
		vals, err := scanStrings(rows, 8)
		if err != nil {
			return nil, fmt.Errorf("failed to scan Trxs row: %w", err)
		}
		trxs = append(trxs, LegacyTrx{
			TrxNo:     vals[0],
			ResNo:     vals[1],
			TrxDate:   vals[2],
			TrxType:   vals[3],
			PayMethod: vals[4],
			Amount:    vals[5],
			CheckNo:   vals[6],
			Memo:      vals[7],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading Trxs: %w", err)
	}

	s.logger.Info("Read LMS transactions", logging.Field{Key: "count", Value: len(trxs)})
	return trxs, nil
}

// scanStrings scans n columns as nullable strings and trims them. Access
// pads CHAR columns with spaces and the ODBC driver passes the padding
// through; database/sql coerces the numeric and date columns to strings.
func scanStrings(rows *sql.Rows, n int) ([]string, error) {
	vals := make([]sql.NullString, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i, v := range vals {
		out[i] = strings.TrimSpace(v.String)
	}
	return out, nil
}
