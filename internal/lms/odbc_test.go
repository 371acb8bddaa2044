package lms

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastline-livery/charterbooks/internal/logging"
)

func newMockMDB(t *testing.T) (*MDBSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMDBSource(db, logging.NewMockLogger()), mock
}

func TestOpenMDBRequiresDSN(t *testing.T) {
	_, err := OpenMDB("", logging.NewMockLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lms.dsn")
}

func TestMDBSourceCustomers(t *testing.T) {
	source, mock := newMockMDB(t)

	mock.ExpectQuery("SELECT CustNo, CustName, Company, Phone, Email, Address FROM Customers").
		WillReturnRows(sqlmock.NewRows(
			[]string{"CustNo", "CustName", "Company", "Phone", "Email", "Address"}).
			AddRow("2041", "  Harbour Tours Ltd  ", "Harbour Tours", "604-555-0188", nil, "100 Water St").
			AddRow("2042", "Westside School Board", nil, nil, nil, nil))

	customers, err := source.Customers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)

	// Access pads CHAR columns; the reader trims every field.
	assert.Equal(t, "Harbour Tours Ltd", customers[0].Name)
	assert.Equal(t, "", customers[0].Email)
	assert.Equal(t, "2042", customers[1].CustNo)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMDBSourceReservationsCoercesColumnTypes(t *testing.T) {
	source, mock := newMockMDB(t)

	pickup := time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT ResNo, CustNo, PUDate, PUAddress, DOAddress, Pax, UnitNo,").
		WillReturnRows(sqlmock.NewRows(
			[]string{"ResNo", "CustNo", "PUDate", "PUAddress", "DOAddress", "Pax",
				"UnitNo", "Status", "TotalDue", "AmtPaid", "Balance", "Notes"}).
			AddRow("C-10442", "2041", pickup, "100 Water St", "YVR South Terminal",
				int64(6), "12", "F", 1450.00, 1450.00, 0.00, nil))

	reservations, err := source.Reservations(context.Background())
	require.NoError(t, err)
	require.Len(t, reservations, 1)

	row := reservations[0]
	assert.Equal(t, "C-10442", row.ResNo)
	assert.Equal(t, "6", row.Pax)
	assert.Equal(t, "1450", row.TotalDue)

	// DATETIME columns arrive as RFC 3339 text; the mapper must take it.
	parsed, err := parseLegacyDate(row.PickupDate)
	require.NoError(t, err)
	assert.True(t, pickup.Equal(parsed))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMDBSourceTransactions(t *testing.T) {
	source, mock := newMockMDB(t)

	mock.ExpectQuery("SELECT TrxNo, ResNo, TrxDate, TrxType, PayMethod, Amount, CheckNo, Memo FROM Trxs").
		WillReturnRows(sqlmock.NewRows(
			[]string{"TrxNo", "ResNo", "TrxDate", "TrxType", "PayMethod", "Amount", "CheckNo", "Memo"}).
			AddRow(int64(55012), "C-10442", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
				"PMT", "CK", 725.00, "214", "deposit"))

	trxs, err := source.Transactions(context.Background())
	require.NoError(t, err)
	require.Len(t, trxs, 1)
	assert.Equal(t, "55012", trxs[0].TrxNo)
	assert.Equal(t, "725", trxs[0].Amount)

	payment, err := MapPayment(trxs[0])
	require.NoError(t, err)
	assert.Equal(t, "LMS:55012", payment.Reference)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMDBSourceQueryError(t *testing.T) {
	source, mock := newMockMDB(t)

	mock.ExpectQuery("SELECT CustNo").
		WillReturnError(assert.AnError)

	_, err := source.Customers(context.Background())
	require.ErrorIs(t, err, assert.AnError)

	require.NoError(t, mock.ExpectationsWereMet())
}
