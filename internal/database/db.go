package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver identifies the SQL backend
type Driver string

const (
	// DriverPostgres is the production backend (lib/pq)
	DriverPostgres Driver = "postgres"
	// DriverSQLite is the embedded backend used for local runs and tests (modernc.org/sqlite)
	DriverSQLite Driver = "sqlite"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// ParseDriver validates a driver name from configuration
func ParseDriver(name string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case DriverPostgres, "postgresql", "":
		return DriverPostgres, nil
	case DriverSQLite, "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q (must be 'postgres' or 'sqlite')", name)
	}
}

// DB wraps a connection pool together with its SQL dialect.
// Queries are written with '?' placeholders and rebound for Postgres.
type DB struct {
	sql    *sql.DB
	driver Driver
}

// New opens a connection pool, verifies it and applies the embedded schema
func New(driver Driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	switch driver {
	case DriverPostgres:
		sqlDB, err = sql.Open("postgres", dsn)
		if err == nil {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(5)
			sqlDB.SetConnMaxLifetime(5 * time.Minute)
		}
	case DriverSQLite:
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil {
			// One writer at a time; busy_timeout covers short contention
			sqlDB.SetMaxOpenConns(4)
			sqlDB.SetMaxIdleConns(2)
			sqlDB.SetConnMaxLifetime(time.Hour)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{sql: sqlDB, driver: driver}
	if err := db.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// sqliteDSN appends the pragmas every pooled connection needs
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_time_format=sqlite"
}

func (db *DB) migrate(ctx context.Context) error {
	schema := postgresSchema
	if db.driver == DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := db.sql.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Driver returns the backend this pool talks to
func (db *DB) Driver() Driver {
	return db.driver
}

// Close closes the underlying pool
func (db *DB) Close() error {
	return db.sql.Close()
}

// PingContext verifies the connection is alive
func (db *DB) PingContext(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// ExecContext runs a statement outside a transaction
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.sql.ExecContext(ctx, db.rebind(query), args...)
}

// QueryContext runs a query outside a transaction
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sql.QueryContext(ctx, db.rebind(query), args...)
}

// QueryRowContext runs a single-row query outside a transaction
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.sql.QueryRowContext(ctx, db.rebind(query), args...)
}

// Tx is a transaction bound to the pool's dialect
type Tx struct {
	tx *sql.Tx
	db *DB
}

// ExecContext runs a statement inside the transaction
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.db.rebind(query), args...)
}

// QueryRowContext runs a single-row query inside the transaction
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.db.rebind(query), args...)
}

// PrepareContext prepares a statement for repeated use inside the transaction
func (t *Tx) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return t.tx.PrepareContext(ctx, t.db.rebind(query))
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns nil
// and rolls back on error or panic, so callers never observe a partial write.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
			}
		}
	}()

	if err = fn(&Tx{tx: sqlTx, db: db}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rebind converts '?' placeholders to '$n' for Postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// containsExpr returns a case-sensitive substring predicate on column for one bound argument
func (db *DB) containsExpr(column string) string {
	if db.driver == DriverPostgres {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}
