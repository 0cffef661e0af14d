// Package dbtest provides an in-memory stand-in for the importer's PostgreSQL
// session. It understands the INSERT ... ON CONFLICT statements the importer
// issues, keeps committed rows per table, and records every statement so
// tests can assert ordering and arguments without a live server.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTxDone mirrors pgx.ErrTxClosed for operations on a finished transaction.
var ErrTxDone = pgx.ErrTxClosed

var insertRe = regexp.MustCompile(`(?s)^INSERT INTO (\w+) \(([^)]*)\) VALUES \([^)]*\) ON CONFLICT \(([^)]*)\) DO (NOTHING|UPDATE)`)

// Statement is one recorded write.
type Statement struct {
	SQL     string
	Table   string
	Args    []any
	Batched bool
}

// Row is a stored row keyed by column name.
type Row map[string]any

// DB is a fake database holding committed rows. It satisfies the importer's
// Begin-only interface and database.DBTX for schema checks.
type DB struct {
	mu     sync.Mutex
	tables map[string]map[string]Row

	// FailOn, when set, is consulted before each statement; a non-nil
	// error fails that statement.
	FailOn func(st Statement) error

	// BeginErr fails every Begin call.
	BeginErr error

	// CommitErr fails every Commit call.
	CommitErr error

	// Missing lists tables reported absent by to_regclass.
	Missing map[string]bool

	Txs []*Tx
}

// NewDB returns an empty fake database.
func NewDB() *DB {
	return &DB{tables: make(map[string]map[string]Row)}
}

// Begin starts a transaction whose writes become visible on Commit.
func (db *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.BeginErr != nil {
		return nil, db.BeginErr
	}
	tx := &Tx{db: db, staged: make(map[string]map[string]Row)}
	db.mu.Lock()
	db.Txs = append(db.Txs, tx)
	db.mu.Unlock()
	return tx, nil
}

// Count returns the number of committed rows in table.
func (db *DB) Count(table string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.tables[table])
}

// Rows returns the committed rows of table in no particular order.
func (db *DB) Rows(table string) []Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]Row, 0, len(db.tables[table]))
	for _, r := range db.tables[table] {
		out = append(out, r)
	}
	return out
}

// Statements returns every statement issued across all transactions.
func (db *DB) Statements() []Statement {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []Statement
	for _, tx := range db.Txs {
		out = append(out, tx.Statements...)
	}
	return out
}

func (db *DB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("dbtest: exec outside a transaction is not supported")
}

func (db *DB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("dbtest: query not implemented")
}

// QueryRow answers the to_regclass existence query used by schema checks.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if !strings.Contains(sql, "to_regclass") || len(args) != 1 {
		return errRow{err: errors.New("dbtest: query row not implemented")}
	}
	name, _ := args[0].(string)
	return boolRow{v: !db.Missing[name]}
}

func (db *DB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return &batchResults{err: errors.New("dbtest: batch outside a transaction is not supported")}
}

// Tx is a fake transaction. It implements pgx.Tx.
type Tx struct {
	db     *DB
	staged map[string]map[string]Row

	Statements []Statement
	Committed  bool
	RolledBack bool
	aborted    error
}

func (tx *Tx) done() bool { return tx.Committed || tx.RolledBack }

func (tx *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("dbtest: nested transactions not supported")
}

func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done() {
		return ErrTxDone
	}
	if tx.aborted != nil {
		tx.RolledBack = true
		return pgx.ErrTxCommitRollback
	}
	if tx.db.CommitErr != nil {
		tx.RolledBack = true
		return tx.db.CommitErr
	}

	tx.db.mu.Lock()
	for table, rows := range tx.staged {
		if tx.db.tables[table] == nil {
			tx.db.tables[table] = make(map[string]Row)
		}
		for k, r := range rows {
			tx.db.tables[table][k] = r
		}
	}
	tx.db.mu.Unlock()

	tx.Committed = true
	return nil
}

func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.done() {
		return ErrTxDone
	}
	tx.staged = nil
	tx.RolledBack = true
	return nil
}

func (tx *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("dbtest: copy not implemented")
}

func (tx *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	results := &batchResults{}
	for _, qq := range b.QueuedQueries {
		tag, err := tx.exec(qq.SQL, qq.Arguments, true)
		results.items = append(results.items, batchItem{tag: tag, err: err})
	}
	return results
}

func (tx *Tx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (tx *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("dbtest: prepare not implemented")
}

func (tx *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return tx.exec(sql, arguments, false)
}

func (tx *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("dbtest: query not implemented")
}

func (tx *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.db.QueryRow(ctx, sql, args...)
}

func (tx *Tx) Conn() *pgx.Conn {
	return nil
}

func (tx *Tx) exec(sql string, args []any, batched bool) (pgconn.CommandTag, error) {
	if tx.done() {
		return pgconn.CommandTag{}, ErrTxDone
	}
	if tx.aborted != nil {
		return pgconn.CommandTag{}, fmt.Errorf("current transaction is aborted: %w", tx.aborted)
	}

	m := insertRe.FindStringSubmatch(sql)
	if m == nil {
		return pgconn.CommandTag{}, fmt.Errorf("dbtest: unsupported statement %q", sql)
	}
	table := m[1]
	columns := splitColumns(m[2])
	conflict := splitColumns(m[3])
	upsert := m[4] == "UPDATE"

	st := Statement{SQL: sql, Table: table, Args: args, Batched: batched}
	tx.Statements = append(tx.Statements, st)

	if tx.db.FailOn != nil {
		if err := tx.db.FailOn(st); err != nil {
			tx.aborted = err
			return pgconn.CommandTag{}, err
		}
	}
	if len(args) != len(columns) {
		err := fmt.Errorf("dbtest: %s expects %d arguments, got %d", table, len(columns), len(args))
		tx.aborted = err
		return pgconn.CommandTag{}, err
	}

	row := make(Row, len(columns))
	for i, col := range columns {
		row[col] = args[i]
	}
	key := rowKey(row, conflict)

	if tx.exists(table, key) && !upsert {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}

	if tx.staged[table] == nil {
		tx.staged[table] = make(map[string]Row)
	}
	tx.staged[table][key] = row
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *Tx) exists(table, key string) bool {
	if _, ok := tx.staged[table][key]; ok {
		return true
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	_, ok := tx.db.tables[table][key]
	return ok
}

func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func rowKey(row Row, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(row[c])
	}
	return strings.Join(parts, "\x00")
}

type batchItem struct {
	tag pgconn.CommandTag
	err error
}

type batchResults struct {
	items []batchItem
	idx   int
	err   error
}

func (r *batchResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	if r.idx >= len(r.items) {
		return pgconn.CommandTag{}, errors.New("dbtest: no more batch results")
	}
	item := r.items[r.idx]
	r.idx++
	return item.tag, item.err
}

func (r *batchResults) Query() (pgx.Rows, error) {
	return nil, errors.New("dbtest: batch query not implemented")
}

func (r *batchResults) QueryRow() pgx.Row {
	return errRow{err: errors.New("dbtest: batch query row not implemented")}
}

func (r *batchResults) Close() error {
	return r.err
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

type boolRow struct{ v bool }

func (r boolRow) Scan(dest ...any) error {
	if len(dest) != 1 {
		return fmt.Errorf("dbtest: expected 1 destination, got %d", len(dest))
	}
	p, ok := dest[0].(*bool)
	if !ok {
		return fmt.Errorf("dbtest: expected *bool destination, got %T", dest[0])
	}
	*p = r.v
	return nil
}
