package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/boardly/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func sqliteCode(err error) int {
	var e *sqlite.Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return 0
}

// isConflict reports whether err means another unit holds or changed the rows.
func isConflict(err error) bool {
	switch code := sqliteCode(err); {
	case code == 0:
		return false
	case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
		return true
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// translateError maps lock timeouts and uniqueness violations onto
// domain.ErrVersionConflict so callers can retry.
func translateError(err error) error {
	if err == nil || !isConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrVersionConflict, err)
}
