// Package lms migrates the legacy LMS bookkeeping data into Postgres. The
// LMS lived in an Access .mdb file; the office reaches it through ODBC when
// the old machine is up, and through the CSV or Excel exports it produced
// over the years when it is not. Reserve numbers are the join key between
// the two worlds.
package lms

import "context"

// LegacyCustomer is one row of the LMS Customers table, as exported. Every
// field is a string because the exports are strings and ODBC coerces the
// rest; the mapper owns the parsing.
type LegacyCustomer struct {
	CustNo  string `csv:"CustNo"`
	Name    string `csv:"CustName"`
	Company string `csv:"Company"`
	Phone   string `csv:"Phone"`
	Email   string `csv:"Email"`
	Address string `csv:"Address"`
}

// LegacyReservation is one row of the LMS Reservations table.
type LegacyReservation struct {
	ResNo      string `csv:"ResNo"`
	CustNo     string `csv:"CustNo"`
	PickupDate string `csv:"PUDate"`
	PickupAddr string `csv:"PUAddress"`
	DropAddr   string `csv:"DOAddress"`
	Pax        string `csv:"Pax"`
	UnitNo     string `csv:"UnitNo"`
	Status     string `csv:"Status"`
	TotalDue   string `csv:"TotalDue"`
	AmtPaid    string `csv:"AmtPaid"`
	Balance    string `csv:"Balance"`
	Notes      string `csv:"Notes"`
}

// LegacyTrx is one row of the LMS Trxs table. Payments and refunds share the
// table; TrxType and the amount sign tell them apart.
type LegacyTrx struct {
	TrxNo     string `csv:"TrxNo"`
	ResNo     string `csv:"ResNo"`
	TrxDate   string `csv:"TrxDate"`
	TrxType   string `csv:"TrxType"`
	PayMethod string `csv:"PayMethod"`
	Amount    string `csv:"Amount"`
	CheckNo   string `csv:"CheckNo"`
	Memo      string `csv:"Memo"`
}

// Source reads the three LMS tables. MDBSource reads them over ODBC,
// ExportSource from CSV or Excel export files.
type Source interface {
	Customers(ctx context.Context) ([]LegacyCustomer, error)
	Reservations(ctx context.Context) ([]LegacyReservation, error)
	Transactions(ctx context.Context) ([]LegacyTrx, error)
	Close() error
}
