// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction and a Transactor seam
// so services can be tested without a database.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
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
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Transactor runs fn inside a unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLTransactor is a Transactor backed by *sql.DB and WithTx. A unit that
// fails with a serialization failure or a deadlock is run again from the
// start, up to the configured number of attempts.
type SQLTransactor struct {
	db       *sql.DB
	opts     *sql.TxOptions
	attempts int
}

type TransactorOption func(*SQLTransactor)

// WithIsolation sets the isolation level of every transaction.
func WithIsolation(level sql.IsolationLevel) TransactorOption {
	return func(t *SQLTransactor) {
		t.opts = &sql.TxOptions{Isolation: level}
	}
}

// WithAttempts bounds how many times a retryable unit is run. Values below
// one mean a single attempt.
func WithAttempts(n int) TransactorOption {
	return func(t *SQLTransactor) {
		t.attempts = n
	}
}

func NewSQLTransactor(db *sql.DB, options ...TransactorOption) *SQLTransactor {
	t := &SQLTransactor{db: db, attempts: 3}
	for _, o := range options {
		o(t)
	}
	if t.attempts < 1 {
		t.attempts = 1
	}
	return t
}

func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	var err error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		err = WithTx(ctx, t.db, t.opts, fn)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
