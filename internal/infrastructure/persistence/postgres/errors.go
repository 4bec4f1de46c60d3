package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rezkam/boardly/internal/domain"
)

// PostgreSQL error codes the store reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isConflict reports whether err means a concurrent unit won the race.
func isConflict(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}

// isForeignKeyViolation checks if an error is a PostgreSQL FK violation.
func isForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// checkID validates id as a UUID. Malformed ids can never match a row, so
// they surface as notFound while keeping the parse error in the chain.
func checkID(id string, notFound error) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w: %w", notFound, domain.ErrInvalidID, err)
	}
	return nil
}
