// Package dbx holds the small DB abstractions shared by repositories: a
// minimal query interface satisfied by both *sql.DB and *sql.Tx, and a helper
// that scopes a function to a transaction with guaranteed release.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories use. Both *sql.DB and
// *sql.Tx satisfy it, so a repository bound to a transaction and one bound to
// the pool share the same code.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Runner runs a function inside a transaction. The postgres implementation is
// TxRunner; tests substitute a stub that passes their fake store through.
type Runner interface {
	InTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error
}

// TxRunner implements Runner over *sql.DB.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner returns a Runner backed by db.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// InTx begins a transaction with opts, runs fn with the transactional handle,
// and commits on success or rolls back on error. A panic in fn rolls back and
// is rethrown, so row locks are released on every exit path.
func (r *TxRunner) InTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := r.db.BeginTx(ctx, opts)
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

// Serializable is the TxOptions used for the refresh rotation path: the
// strongest isolation level the store offers, combined with the ledger's
// FOR UPDATE lookup.
var Serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}
