package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is implemented by both pgxpool.Pool and pgx.Tx, so repositories run
// the same against a pool in production and a rolled-back transaction in tests.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner can start a database transaction. Implemented by pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxPGXDB is a PGXDB that can also open a transaction. A pgx.Tx qualifies
// too; its Begin starts a savepoint.
type TxPGXDB interface {
	PGXDB
	TxBeginner
}

// Acquirer hands out a dedicated connection, used for LISTEN.
type Acquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

var (
	_ PGXDB      = (*pgxpool.Pool)(nil)
	_ PGXDB      = (pgx.Tx)(nil)
	_ TxBeginner = (*pgxpool.Pool)(nil)
	_ TxPGXDB    = (*pgxpool.Pool)(nil)
	_ TxPGXDB    = (pgx.Tx)(nil)
	_ Acquirer   = (*pgxpool.Pool)(nil)
)
