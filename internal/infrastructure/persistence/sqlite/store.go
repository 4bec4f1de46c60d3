package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
)

// querier is the subset of database/sql used inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite implementation of the board store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time verification that Store implements the board store port.
var _ board.Store = (*Store)(nil)

// NewStore wraps an open database. The connection must have been opened
// with the DSN built by Config.DSN.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Atomic executes fn within an immediate transaction.
// All operations inside the callback succeed together or fail together.
func (s *Store) Atomic(ctx context.Context, fn func(repo board.Repository) error) (err error) {
	start := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "transaction panic, rolling back", "panic", p)
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed", "panic", p, "rollback_error", rbErr)
			}
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback failed", "original_error", err, "rollback_error", rbErr)
				err = fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
			}
		} else if err = tx.Commit(); err != nil {
			slog.ErrorContext(ctx, "transaction commit failed", "error", err)
		}
		err = translateError(err)
		if err == nil {
			slog.DebugContext(ctx, "transaction completed", "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	err = fn(newRepository(tx, s.now))
	return
}
