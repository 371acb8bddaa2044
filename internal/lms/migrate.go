package lms

import (
	"context"
	"strings"
	"time"

	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
)

// ClientStore is the slice of client storage the migration needs.
type ClientStore interface {
	UpsertByLegacyID(ctx context.Context, c models.Client) (models.Client, bool, error)
}

// VehicleStore is the slice of vehicle storage the migration needs. List
// comes first so existing fleet rows keep their plate and capacity data; the
// LMS export only knows unit numbers.
type VehicleStore interface {
	List(ctx context.Context) ([]models.Vehicle, error)
	UpsertByUnitNumber(ctx context.Context, v models.Vehicle) (models.Vehicle, bool, error)
}

// CharterStore is the slice of charter storage the migration needs.
type CharterStore interface {
	Upsert(ctx context.Context, c models.Charter) (models.Charter, bool, error)
	List(ctx context.Context) ([]models.Charter, error)
}

// PaymentStore is the slice of payment storage the migration needs.
type PaymentStore interface {
	Create(ctx context.Context, p models.Payment) (models.Payment, error)
	ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Payment, error)
}

// RefundStore is the slice of refund storage the migration needs.
type RefundStore interface {
	Create(ctx context.Context, r models.Refund) (models.Refund, error)
	ListByReserveNumber(ctx context.Context, reserveNumber string) ([]models.Refund, error)
}

// Counts tallies one table's migration outcomes.
type Counts struct {
	New      int `json:"new" yaml:"new"`
	Updated  int `json:"updated" yaml:"updated"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Problems int `json:"problems" yaml:"problems"`
}

// Problem records a legacy row the migration could not import. Problems are
// reported, not fixed: the office decides what to do with each one.
type Problem struct {
	Table  string `json:"table" yaml:"table"`
	Key    string `json:"key" yaml:"key"`
	Reason string `json:"reason" yaml:"reason"`
}

// Summary reports the outcome of one migration run.
type Summary struct {
	Customers Counts    `json:"customers" yaml:"customers"`
	Vehicles  Counts    `json:"vehicles" yaml:"vehicles"`
	Charters  Counts    `json:"charters" yaml:"charters"`
	Payments  Counts    `json:"payments" yaml:"payments"`
	Refunds   Counts    `json:"refunds" yaml:"refunds"`
	Problems  []Problem `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// Migrator copies LMS data into the application's tables. It is idempotent:
// customers, vehicles, and charters upsert on their business keys, and
// transactions are skipped when an already-migrated row matches.
type Migrator struct {
	source   Source
	clients  ClientStore
	vehicles VehicleStore
	charters CharterStore
	payments PaymentStore
	refunds  RefundStore
	logger   logging.Logger
}

// NewMigrator creates a Migrator over the given source and stores.
func NewMigrator(
	source Source,
	clients ClientStore,
	vehicles VehicleStore,
	charters CharterStore,
	payments PaymentStore,
	refunds RefundStore,
	logger logging.Logger,
) *Migrator {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Migrator{
		source:   source,
		clients:  clients,
		vehicles: vehicles,
		charters: charters,
		payments: payments,
		refunds:  refunds,
		logger:   logger,
	}
}

// Run migrates customers, then reservations, then transactions. Bad legacy
// rows become Problems in the summary; storage failures abort the run so the
// surrounding transaction rolls back.
func (m *Migrator) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	clientIDs, err := m.migrateCustomers(ctx, &summary)
	if err != nil {
		return summary, err
	}
	if err := m.migrateReservations(ctx, &summary, clientIDs); err != nil {
		return summary, err
	}
	if err := m.migrateTransactions(ctx, &summary); err != nil {
		return summary, err
	}

	m.logger.Info("LMS migration finished",
		logging.Field{Key: "customers_new", Value: summary.Customers.New},
		logging.Field{Key: "charters_new", Value: summary.Charters.New},
		logging.Field{Key: "payments_new", Value: summary.Payments.New},
		logging.Field{Key: "refunds_new", Value: summary.Refunds.New},
		logging.Field{Key: "problems", Value: len(summary.Problems)})
	return summary, nil
}

func (m *Migrator) addProblem(summary *Summary, counts *Counts, table, key, reason string) {
	counts.Problems++
	summary.Problems = append(summary.Problems, Problem{Table: table, Key: key, Reason: reason})
	m.logger.Warn("Skipping legacy row",
		logging.Field{Key: "table", Value: table},
		logging.Field{Key: "key", Value: key},
		logging.Field{Key: "reason", Value: reason})
}

// migrateCustomers upserts customers keyed on the LMS customer number and
// returns CustNo to client id for the reservation pass.
func (m *Migrator) migrateCustomers(ctx context.Context, summary *Summary) (map[string]int64, error) {
	customers, err := m.source.Customers(ctx)
	if err != nil {
		return nil, err
	}

	clientIDs := make(map[string]int64, len(customers))
	for _, lc := range customers {
		client, err := MapCustomer(lc)
		if err != nil {
			m.addProblem(summary, &summary.Customers, "Customers", lc.CustNo, err.Error())
			continue
		}

		saved, inserted, err := m.clients.UpsertByLegacyID(ctx, client)
		if err != nil {
			return nil, err
		}
		clientIDs[client.LegacyID] = saved.ID
		if inserted {
			summary.Customers.New++
		} else {
			summary.Customers.Updated++
		}
	}
	return clientIDs, nil
}

// migrateReservations upserts charters keyed on reserve number. Units named
// by reservations join the fleet as bare active vehicles unless a row with
// that unit number already exists.
func (m *Migrator) migrateReservations(ctx context.Context, summary *Summary, clientIDs map[string]int64) error {
	reservations, err := m.source.Reservations(ctx)
	if err != nil {
		return err
	}

	fleet, err := m.vehicles.List(ctx)
	if err != nil {
		return err
	}
	vehicleIDs := make(map[string]int64, len(fleet))
	for _, v := range fleet {
		vehicleIDs[strings.ToUpper(v.UnitNumber)] = v.ID
	}

	for _, lr := range reservations {
		charter, statusKnown, err := MapReservation(lr)
		if err != nil {
			m.addProblem(summary, &summary.Charters, "Reservations", lr.ResNo, err.Error())
			continue
		}
		if !statusKnown {
			m.logger.Warn("Unknown LMS status code, treating charter as booked",
				logging.Field{Key: "reserve_number", Value: charter.ReserveNumber},
				logging.Field{Key: "status", Value: lr.Status})
		}

		custNo := strings.TrimSpace(lr.CustNo)
		clientID, ok := clientIDs[custNo]
		if !ok {
			m.addProblem(summary, &summary.Charters, "Reservations", lr.ResNo,
				"no customer "+custNo+" in the export")
			continue
		}
		charter.ClientID = clientID

		if unit := strings.ToUpper(strings.TrimSpace(lr.UnitNo)); unit != "" {
			vehicleID, ok := vehicleIDs[unit]
			if !ok {
				saved, inserted, err := m.vehicles.UpsertByUnitNumber(ctx, models.Vehicle{
					UnitNumber: unit,
					Status:     models.VehicleActive,
				})
				if err != nil {
					return err
				}
				vehicleID = saved.ID
				vehicleIDs[unit] = vehicleID
				if inserted {
					summary.Vehicles.New++
				} else {
					summary.Vehicles.Updated++
				}
			}
			charter.VehicleID = &vehicleID
		}

		_, inserted, err := m.charters.Upsert(ctx, charter)
		if err != nil {
			return err
		}
		if inserted {
			summary.Charters.New++
		} else {
			summary.Charters.Updated++
		}
	}
	return nil
}

// migrateTransactions creates payments and refunds for LMS trx rows. A row
// whose reserve number matches no charter is reported, not imported. Rows
// that already exist, matched by LMS reference or by amount and date, are
// skipped so reruns don't double-post.
func (m *Migrator) migrateTransactions(ctx context.Context, summary *Summary) error {
	trxs, err := m.source.Transactions(ctx)
	if err != nil {
		return err
	}

	charters, err := m.charters.List(ctx)
	if err != nil {
		return err
	}
	reserves := make(map[string]struct{}, len(charters))
	for _, c := range charters {
		reserves[c.ReserveNumber] = struct{}{}
	}

	paymentCache := make(map[string][]models.Payment)
	refundCache := make(map[string][]models.Refund)

	for _, lt := range trxs {
		resNo := NormalizeReserveNumber(lt.ResNo)
		if _, ok := reserves[resNo]; !ok {
			m.addProblem(summary, trxCounts(summary, lt), "Trxs", lt.TrxNo,
				"no charter for reserve "+resNo)
			continue
		}

		if IsRefund(lt) {
			if err := m.migrateRefund(ctx, summary, lt, resNo, refundCache); err != nil {
				return err
			}
			continue
		}
		if err := m.migratePayment(ctx, summary, lt, resNo, paymentCache); err != nil {
			return err
		}
	}
	return nil
}

// trxCounts picks which tally a trx row belongs to.
func trxCounts(summary *Summary, lt LegacyTrx) *Counts {
	if IsRefund(lt) {
		return &summary.Refunds
	}
	return &summary.Payments
}

func (m *Migrator) migratePayment(
	ctx context.Context,
	summary *Summary,
	lt LegacyTrx,
	resNo string,
	cache map[string][]models.Payment,
) error {
	payment, err := MapPayment(lt)
	if err != nil {
		m.addProblem(summary, &summary.Payments, "Trxs", lt.TrxNo, err.Error())
		return nil
	}

	existing, ok := cache[resNo]
	if !ok {
		existing, err = m.payments.ListByReserveNumber(ctx, resNo)
		if err != nil {
			return err
		}
		cache[resNo] = existing
	}

	for _, p := range existing {
		if p.Reference == payment.Reference {
			summary.Payments.Skipped++
			return nil
		}
		if p.Source == models.SourceLMS &&
			p.Amount.Equal(payment.Amount) &&
			sameDay(p.ReceivedOn, payment.ReceivedOn) {
			summary.Payments.Skipped++
			return nil
		}
	}

	created, err := m.payments.Create(ctx, payment)
	if err != nil {
		return err
	}
	cache[resNo] = append(cache[resNo], created)
	summary.Payments.New++
	return nil
}

func (m *Migrator) migrateRefund(
	ctx context.Context,
	summary *Summary,
	lt LegacyTrx,
	resNo string,
	cache map[string][]models.Refund,
) error {
	refund, err := MapRefund(lt)
	if err != nil {
		m.addProblem(summary, &summary.Refunds, "Trxs", lt.TrxNo, err.Error())
		return nil
	}

	existing, ok := cache[resNo]
	if !ok {
		existing, err = m.refunds.ListByReserveNumber(ctx, resNo)
		if err != nil {
			return err
		}
		cache[resNo] = existing
	}

	for _, r := range existing {
		if r.Amount.Equal(refund.Amount) && sameDay(r.IssuedOn, refund.IssuedOn) {
			summary.Refunds.Skipped++
			return nil
		}
	}

	created, err := m.refunds.Create(ctx, refund)
	if err != nil {
		return err
	}
	cache[resNo] = append(cache[resNo], created)
	summary.Refunds.New++
	return nil
}

// sameDay compares calendar dates, ignoring the time-of-day noise Access
// DATETIME columns carry.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
