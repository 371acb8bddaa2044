package lms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
)

type fakeSource struct {
	customers    []LegacyCustomer
	reservations []LegacyReservation
	trxs         []LegacyTrx
	err          error
}

func (f *fakeSource) Customers(ctx context.Context) ([]LegacyCustomer, error) {
	return f.customers, f.err
}

func (f *fakeSource) Reservations(ctx context.Context) ([]LegacyReservation, error) {
	return f.reservations, f.err
}

func (f *fakeSource) Transactions(ctx context.Context) ([]LegacyTrx, error) {
	return f.trxs, f.err
}

func (f *fakeSource) Close() error { return nil }

// fakeStores keeps everything in maps keyed on the business keys the real
// repositories upsert on.
type fakeStores struct {
	clients   map[string]models.Client
	vehicles  map[string]models.Vehicle
	charters  map[string]models.Charter
	payments  map[string][]models.Payment
	refunds   map[string][]models.Refund
	nextID    int64
	createErr error
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		clients:  make(map[string]models.Client),
		vehicles: make(map[string]models.Vehicle),
		charters: make(map[string]models.Charter),
		payments: make(map[string][]models.Payment),
		refunds:  make(map[string][]models.Refund),
	}
}

func (f *fakeStores) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStores) UpsertByLegacyID(ctx context.Context, c models.Client) (models.Client, bool, error) {
	if existing, ok := f.clients[c.LegacyID]; ok {
		c.ID = existing.ID
		f.clients[c.LegacyID] = c
		return c, false, nil
	}
	c.ID = f.id()
	f.clients[c.LegacyID] = c
	return c, true, nil
}

func (f *fakeStores) List(ctx context.Context) ([]models.Vehicle, error) {
	vehicles := make([]models.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

func (f *fakeStores) UpsertByUnitNumber(ctx context.Context, v models.Vehicle) (models.Vehicle, bool, error) {
	if existing, ok := f.vehicles[v.UnitNumber]; ok {
		v.ID = existing.ID
		f.vehicles[v.UnitNumber] = v
		return v, false, nil
	}
	v.ID = f.id()
	f.vehicles[v.UnitNumber] = v
	return v, true, nil
}

// fakeCharters wraps fakeStores because CharterStore and VehicleStore both
// declare a List method.
type fakeCharters struct{ s *fakeStores }

func (f fakeCharters) Upsert(ctx context.Context, c models.Charter) (models.Charter, bool, error) {
	if existing, ok := f.s.charters[c.ReserveNumber]; ok {
		c.ID = existing.ID
		f.s.charters[c.ReserveNumber] = c
		return c, false, nil
	}
	c.ID = f.s.id()
	f.s.charters[c.ReserveNumber] = c
	return c, true, nil
}

func (f fakeCharters) List(ctx context.Context) ([]models.Charter, error) {
	charters := make([]models.Charter, 0, len(f.s.charters))
	for _, c := range f.s.charters {
		charters = append(charters, c)
	}
	return charters, nil
}

type fakePayments struct{ s *fakeStores }

func (f fakePayments) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	if f.s.createErr != nil {
		return models.Payment{}, f.s.createErr
	}
	p.ID = f.s.id()
	f.s.payments[p.ReserveNumber] = append(f.s.payments[p.ReserveNumber], p)
	return p, nil
}

func (f fakePayments) ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Payment, error) {
	return f.s.payments[reserveNumber], nil
}

type fakeRefunds struct{ s *fakeStores }

func (f fakeRefunds) Create(ctx context.Context, r models.Refund) (models.Refund, error) {
	if f.s.createErr != nil {
		return models.Refund{}, f.s.createErr
	}
	r.ID = f.s.id()
	f.s.refunds[r.ReserveNumber] = append(f.s.refunds[r.ReserveNumber], r)
	return r, nil
}

func (f fakeRefunds) ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Refund, error) {
	return f.s.refunds[reserveNumber], nil
}

func newTestMigrator(source Source, stores *fakeStores) *Migrator {
	return NewMigrator(
		source,
		stores,
		stores,
		fakeCharters{stores},
		fakePayments{stores},
		fakeRefunds{stores},
		logging.NewMockLogger(),
	)
}

func sampleExport() *fakeSource {
	return &fakeSource{
		customers: []LegacyCustomer{
			{CustNo: "2041", Name: "Harbour Tours Ltd", Phone: "604-555-0188"},
			{CustNo: "2042", Company: "Westside School Board"},
		},
		reservations: []LegacyReservation{
			{
				ResNo: "C-10442", CustNo: "2041", PickupDate: "7/14/2024",
				Pax: "6", UnitNo: "12", Status: "F",
				TotalDue: "1450.00", AmtPaid: "1450.00", Balance: "0.00",
			},
			{
				ResNo: "C-10443", CustNo: "2042", PickupDate: "7/15/2024",
				Status: "B", TotalDue: "300.00", AmtPaid: "0.00", Balance: "300.00",
			},
		},
		trxs: []LegacyTrx{
			{TrxNo: "55012", ResNo: "C-10442", TrxDate: "7/01/2024", TrxType: "PMT", PayMethod: "CK", Amount: "725.00", CheckNo: "214"},
			{TrxNo: "55020", ResNo: "C-10442", TrxDate: "7/20/2024", TrxType: "REF", PayMethod: "CK", Amount: "150.00"},
			{TrxNo: "55030", ResNo: "C-99999", TrxDate: "7/05/2024", TrxType: "PMT", Amount: "80.00"},
		},
	}
}

func TestMigratorRun(t *testing.T) {
	stores := newFakeStores()
	migrator := newTestMigrator(sampleExport(), stores)

	summary, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{New: 2}, summary.Customers)
	assert.Equal(t, Counts{New: 2}, summary.Charters)
	assert.Equal(t, Counts{New: 1}, summary.Vehicles)
	assert.Equal(t, Counts{New: 1, Problems: 1}, summary.Payments)
	assert.Equal(t, Counts{New: 1}, summary.Refunds)

	require.Len(t, summary.Problems, 1)
	assert.Equal(t, "Trxs", summary.Problems[0].Table)
	assert.Equal(t, "55030", summary.Problems[0].Key)
	assert.Contains(t, summary.Problems[0].Reason, "no charter for reserve C-99999")

	charter, ok := stores.charters["C-10442"]
	require.True(t, ok)
	assert.Equal(t, stores.clients["2041"].ID, charter.ClientID)
	require.NotNil(t, charter.VehicleID)
	assert.Equal(t, stores.vehicles["12"].ID, *charter.VehicleID)

	payments := stores.payments["C-10442"]
	require.Len(t, payments, 1)
	assert.Equal(t, "LMS:55012", payments[0].Reference)
	assert.Equal(t, models.SourceLMS, payments[0].Source)
}

func TestMigratorRunIsIdempotent(t *testing.T) {
	stores := newFakeStores()
	migrator := newTestMigrator(sampleExport(), stores)

	_, err := migrator.Run(context.Background())
	require.NoError(t, err)

	summary, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{Updated: 2}, summary.Customers)
	assert.Equal(t, Counts{Updated: 2}, summary.Charters)
	assert.Equal(t, Counts{}, summary.Vehicles)
	assert.Equal(t, Counts{Skipped: 1, Problems: 1}, summary.Payments)
	assert.Equal(t, Counts{Skipped: 1}, summary.Refunds)

	assert.Len(t, stores.payments["C-10442"], 1)
	assert.Len(t, stores.refunds["C-10442"], 1)
}

func TestMigratorSkipsReservationWithoutCustomer(t *testing.T) {
	stores := newFakeStores()
	source := &fakeSource{
		reservations: []LegacyReservation{
			{ResNo: "C-1", CustNo: "777", PickupDate: "7/14/2024", Status: "B"},
		},
	}
	migrator := newTestMigrator(source, stores)

	summary, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{Problems: 1}, summary.Charters)
	assert.Empty(t, stores.charters)
	require.Len(t, summary.Problems, 1)
	assert.Contains(t, summary.Problems[0].Reason, "no customer 777")
}

func TestMigratorReportsBadRows(t *testing.T) {
	stores := newFakeStores()
	source := &fakeSource{
		customers: []LegacyCustomer{
			{Name: "No Number"},
			{CustNo: "1", Name: "Fine"},
		},
		reservations: []LegacyReservation{
			{ResNo: "C-1", CustNo: "1", PickupDate: "not a date", Status: "B"},
		},
	}
	migrator := newTestMigrator(source, stores)

	summary, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{New: 1, Problems: 1}, summary.Customers)
	assert.Equal(t, Counts{Problems: 1}, summary.Charters)
	assert.Len(t, summary.Problems, 2)
}

func TestMigratorReusesExistingVehicles(t *testing.T) {
	stores := newFakeStores()
	stores.vehicles["12"] = models.Vehicle{
		ID: 900, UnitNumber: "12", Plate: "LIV 012", Status: models.VehicleActive,
	}
	migrator := newTestMigrator(sampleExport(), stores)

	summary, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{}, summary.Vehicles)
	assert.Equal(t, "LIV 012", stores.vehicles["12"].Plate)

	charter := stores.charters["C-10442"]
	require.NotNil(t, charter.VehicleID)
	assert.Equal(t, int64(900), *charter.VehicleID)
}

func TestMigratorSurfacesSourceErrors(t *testing.T) {
	stores := newFakeStores()
	sourceErr := errors.New("mdb is offline")
	migrator := newTestMigrator(&fakeSource{err: sourceErr}, stores)

	_, err := migrator.Run(context.Background())
	require.ErrorIs(t, err, sourceErr)
}

func TestMigratorSurfacesStoreErrors(t *testing.T) {
	stores := newFakeStores()
	stores.createErr = errors.New("connection reset")
	migrator := newTestMigrator(sampleExport(), stores)

	_, err := migrator.Run(context.Background())
	require.ErrorIs(t, err, stores.createErr)
}

func TestMigratorNormalizesReserveNumbersAcrossTables(t *testing.T) {
	stores := newFakeStores()
	source := &fakeSource{
		customers: []LegacyCustomer{{CustNo: "1", Name: "A Client"}},
		reservations: []LegacyReservation{
			{ResNo: " c-7 ", CustNo: "1", PickupDate: "7/14/2024", Status: "B"},
		},
		trxs: []LegacyTrx{
			{TrxNo: "9", ResNo: "C - 7", TrxDate: "7/14/2024", TrxType: "PMT", Amount: "50.00"},
		},
	}
	migrator := newTestMigrator(source, stores)

	summary, err := migrator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{New: 1}, summary.Payments)
	assert.Len(t, stores.payments["C-7"], 1)
	assert.True(t, strings.HasPrefix(stores.payments["C-7"][0].Reference, "LMS:"))
}
