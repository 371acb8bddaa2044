// Package postgres implements the application's data access layer on a
// pgx/v5 connection pool. One Store wraps the pool; per-entity repositories
// carry the SQL. Write paths run inside transactions so a dry run is a
// rollback, never a diff-and-hope.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coastline-livery/charterbooks/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the subset of pgxpool.Pool and pgx.Tx the repositories use, so the
// same repository code serves pooled reads and transactional writes.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store wraps the connection pool and hands out repositories.
type Store struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// Connect opens a pool against dsn and registers shopspring decimal support
// on every connection, so NUMERIC columns scan straight into decimal.Decimal.
func Connect(ctx context.Context, dsn string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	store := &Store{pool: pool, logger: logger}
	if err := store.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Debug("connected to database")
	return store, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Repos bundles every repository over one DB handle. Store.Repos gives the
// pooled set; RunInTx gives a transactional set.
type Repos struct {
	Charters  *CharterRepo
	Payments  *PaymentRepo
	Refunds   *RefundRepo
	BankTxs   *BankTxRepo
	Receipts  *ReceiptRepo
	GL        *GLRepo
	Clients   *ClientRepo
	Employees *EmployeeRepo
	Vehicles  *VehicleRepo
}

func newRepos(db DB) *Repos {
	return &Repos{
		Charters:  &CharterRepo{db: db},
		Payments:  &PaymentRepo{db: db},
		Refunds:   &RefundRepo{db: db},
		BankTxs:   &BankTxRepo{db: db},
		Receipts:  &ReceiptRepo{db: db},
		GL:        &GLRepo{db: db},
		Clients:   &ClientRepo{db: db},
		Employees: &EmployeeRepo{db: db},
		Vehicles:  &VehicleRepo{db: db},
	}
}

// Repos returns repositories bound to the pool, for read paths.
func (s *Store) Repos() *Repos {
	return newRepos(s.pool)
}

// RunInTx runs fn inside a transaction. When write is false the transaction
// is rolled back after fn succeeds, which is how every command's dry-run
// mode works: same code path, no persisted rows.
func (s *Store) RunInTx(ctx context.Context, write bool, fn func(*Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is a no-op
		_ = tx.Rollback(ctx)
	}()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if !write {
		s.logger.Info("dry run: rolling back transaction",
			logging.Field{Key: logging.FieldWrite, Value: false})
		return tx.Rollback(ctx)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema migrations in filename order, tracking
// applied versions in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		applied, err := s.migrationApplied(ctx, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		sqlBytes, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}

		s.logger.Info("applied migration", logging.Field{Key: logging.FieldFile, Value: name})
	}

	return nil
}

func (s *Store) migrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return exists, nil
}
