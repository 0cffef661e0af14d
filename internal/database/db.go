// Package database owns the PostgreSQL session used by an import run and the
// statements that write forum rows.
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by *pgx.Conn, *Session and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// DefaultBatchSize is the number of rows queued per round trip for list inserts.
const DefaultBatchSize = 100

// Queries issues the importer's statements against a DBTX.
type Queries struct {
	db        DBTX
	batchSize int
}

// New returns Queries bound to db using DefaultBatchSize.
func New(db DBTX) *Queries {
	return &Queries{db: db, batchSize: DefaultBatchSize}
}

// WithBatchSize returns a copy of q that pages batched inserts by n rows.
// Non-positive n keeps the current size.
func (q *Queries) WithBatchSize(n int) *Queries {
	c := *q
	if n > 0 {
		c.batchSize = n
	}
	return &c
}

// WithTx returns Queries bound to tx with the same batch size.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	c := *q
	c.db = tx
	return &c
}
