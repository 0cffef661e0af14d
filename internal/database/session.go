package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bittib01/CS209A/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSchemaMissing is returned by CheckSchema when a target table is absent.
var ErrSchemaMissing = errors.New("required tables not found")

// Session is the single connection owned by one import run.
// Release it with Close; further calls to Close are no-ops.
type Session struct {
	conn *pgx.Conn

	closeOnce sync.Once
	closeErr  error
}

// Connect opens and verifies the run's connection.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Session, error) {
	connConfig, err := pgx.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Session{conn: conn}, nil
}

// Begin starts a transaction on the session's connection.
func (s *Session) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.conn.Begin(ctx)
}

func (s *Session) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return s.conn.Exec(ctx, sql, args...)
}

func (s *Session) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return s.conn.Query(ctx, sql, args...)
}

func (s *Session) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return s.conn.QueryRow(ctx, sql, args...)
}

func (s *Session) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return s.conn.SendBatch(ctx, b)
}

// Close releases the connection. Only the first call reaches the server.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			s.closeErr = s.conn.Close(ctx)
		}
	})
	return s.closeErr
}

// CheckSchema verifies every registered table is visible on db.
func CheckSchema(ctx context.Context, db DBTX) error {
	var missing []string

	for _, def := range All() {
		var exists bool
		if err := db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", def.Name).Scan(&exists); err != nil {
			return fmt.Errorf("check table %s: %w", def.Name, err)
		}
		if !exists {
			missing = append(missing, def.Name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}
