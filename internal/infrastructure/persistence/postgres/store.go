package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/domain"
)

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store provides the PostgreSQL implementation of the board store.
//
// Every unit of work runs in a SERIALIZABLE transaction, so two units that
// read the same container cannot both commit a change to it. Position
// uniqueness is backed by deferred constraints checked at commit.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Compile-time verification that Store implements the board store port.
var _ board.Store = (*Store)(nil)

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// finalizeTx handles transaction cleanup for normal error/success cases.
// Rolls back on error, commits on success.
func finalizeTx(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.ErrorContext(ctx, "rollback failed",
				"original_error", *err,
				"rollback_error", rbErr)
			*err = fmt.Errorf("transaction failed: %w (rollback error: %v)", *err, rbErr)
		}
		return
	}
	*err = tx.Commit(ctx)
	if *err != nil && !isConflict(*err) {
		slog.ErrorContext(ctx, "transaction commit failed",
			"error", *err)
	}
}

// executeInTransaction runs fn in a serializable transaction with logging and panic recovery.
func (s *Store) executeInTransaction(ctx context.Context, operationName string, fn func(repo *repository) error) (err error) {
	start := time.Now().UTC()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		slog.ErrorContext(ctx, "failed to begin transaction",
			"operation", operationName,
			"error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "transaction panic, rolling back",
				"operation", operationName,
				"panic", p)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed",
					"operation", operationName,
					"panic", p,
					"rollback_error", rbErr)
			}
			panic(p)
		}

		finalizeTx(ctx, tx, &err)
		err = translateError(err)
		if err == nil {
			slog.DebugContext(ctx, "transaction completed",
				"operation", operationName,
				"duration_ms", time.Since(start).Milliseconds())
		}
	}()

	err = fn(newRepository(tx, s.now))
	return
}

// Atomic executes fn within a database transaction.
// All operations inside the callback succeed together or fail together.
func (s *Store) Atomic(ctx context.Context, fn func(repo board.Repository) error) error {
	return s.executeInTransaction(ctx, "atomic", func(repo *repository) error {
		return fn(repo)
	})
}

// translateError maps serialization failures and deferred uniqueness
// violations onto domain.ErrVersionConflict so callers can retry.
func translateError(err error) error {
	if err == nil || !isConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrVersionConflict, err)
}
