package orm

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is what models and queries execute against: a *DB, a *Tx, or
// anything else that carries a Dialect.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	dialect() Dialect
}

// Logger receives every statement before it is sent to the database.
type Logger interface {
	Log(ctx context.Context, query string, args ...any)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(ctx context.Context, query string, args ...any)

func (f LoggerFunc) Log(ctx context.Context, query string, args ...any) { f(ctx, query, args...) }

// session is the state shared by DB and Tx.
type session struct {
	d      Dialect
	logger Logger
}

func (s session) trace(ctx context.Context, query string, args []any) {
	if s.logger != nil {
		s.logger.Log(ctx, query, args...)
	}
}

func (s session) dialect() Dialect { return s.d }

// DB is a connection pool bound to a Dialect.
type DB struct {
	session
	raw *sql.DB
}

// New binds an open *sql.DB to d.
func New(db *sql.DB, d Dialect) *DB {
	return &DB{session: session{d: d}, raw: db}
}

// Open opens a database/sql pool for driverName and binds it to d.
func Open(driverName, dsn string, d Dialect) (*DB, error) {
	raw, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("orm: open %s: %w", driverName, err)
	}
	return New(raw, d), nil
}

// Debug returns a copy of db that passes every statement to l.
func (db *DB) Debug(l Logger) *DB {
	return &DB{session: session{d: db.d, logger: l}, raw: db.raw}
}

// Raw returns the underlying pool.
func (db *DB) Raw() *sql.DB { return db.raw }

// Dialect returns the Dialect statements are rendered for.
func (db *DB) Dialect() Dialect { return db.d }

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db.trace(ctx, query, args)
	return db.raw.QueryContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db.trace(ctx, query, args)
	return db.raw.ExecContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

// Begin starts a transaction that inherits the Dialect and Logger.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	raw, err := db.raw.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("orm: begin: %w", err)
	}
	return &Tx{session: db.session, raw: raw}, nil
}

// Transaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back when fn returns an error or panics. The error from fn is
// returned unchanged.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("orm: commit: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (db *DB) Close() error { return db.raw.Close() } //nolint:wrapcheck // thin wrapper

// Tx is a transaction bound to a Dialect. Models built on a Tx run all
// their statements inside it.
type Tx struct {
	session
	raw *sql.Tx
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx.trace(ctx, query, args)
	return tx.raw.QueryContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx.trace(ctx, query, args)
	return tx.raw.ExecContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

// Commit commits the transaction.
func (tx *Tx) Commit() error { return tx.raw.Commit() } //nolint:wrapcheck // thin wrapper

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error { return tx.raw.Rollback() } //nolint:wrapcheck // thin wrapper
