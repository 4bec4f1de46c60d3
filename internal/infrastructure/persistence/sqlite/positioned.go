package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
)

// table describes one positioned child table.
type table[T domain.Positioned] struct {
	kind         domain.ContainerKind
	name         string
	parentTable  string
	parentColumn string
	columns      string
	scan         func(scanner) (T, error)
	insertSQL    string
	insertArgs   func(T) []any
}

// positioned implements ordering.Repository for one table inside a transaction.
type positioned[T domain.Positioned] struct {
	q    querier
	t    *table[T]
	now  func() time.Time
	noun string
}

var (
	_ ordering.Repository[*domain.BoardList] = (*positioned[*domain.BoardList])(nil)
	_ ordering.Repository[*domain.Card]      = (*positioned[*domain.Card])(nil)
)

func newPositioned[T domain.Positioned](q querier, t *table[T], now func() time.Time) *positioned[T] {
	return &positioned[T]{q: q, t: t, now: now, noun: t.kind.ChildNoun()}
}

func (r *positioned[T]) selectWhere(cond string) string {
	return `SELECT ` + r.t.columns + ` FROM ` + r.t.name + ` WHERE ` + cond
}

func (r *positioned[T]) collect(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.noun, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		child, err := r.t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.noun, err)
		}
		out = append(out, child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.noun, err)
	}
	return out, nil
}

func (r *positioned[T]) one(ctx context.Context, query string, args ...any) (T, error) {
	child, err := r.t.scan(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, r.t.kind.ErrChildNotFound()
		}
		return zero, fmt.Errorf("failed to get %s: %w", r.noun, err)
	}
	return child, nil
}

func (r *positioned[T]) exists(ctx context.Context, tableName, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s in %s: %w", id, tableName, err)
	}
	return exists, nil
}

func (r *positioned[T]) FindByID(ctx context.Context, id string) (T, error) {
	return r.one(ctx, r.selectWhere(`id = ?`), id)
}

func (r *positioned[T]) ContainerExists(ctx context.Context, parentID string) (bool, error) {
	return r.exists(ctx, r.t.parentTable, parentID)
}

func (r *positioned[T]) CountByParent(ctx context.Context, parentID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM `+r.t.name+` WHERE `+r.t.parentColumn+` = ?`, parentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.noun, err)
	}
	return n, nil
}

func (r *positioned[T]) FindOrderedByParent(ctx context.Context, parentID string) ([]T, error) {
	return r.collect(ctx, r.selectWhere(r.t.parentColumn+` = ? ORDER BY position, id`), parentID)
}

func (r *positioned[T]) FindByParentAndPosition(ctx context.Context, parentID string, position int) (T, error) {
	return r.one(ctx, r.selectWhere(r.t.parentColumn+` = ? AND position = ?`), parentID, position)
}

func (r *positioned[T]) FindByParentAndPositionRange(ctx context.Context, parentID string, lo, hi int) ([]T, error) {
	return r.collect(ctx, r.selectWhere(r.t.parentColumn+` = ? AND position BETWEEN ? AND ? ORDER BY position, id`), parentID, lo, hi)
}

func (r *positioned[T]) FindMaxPosition(ctx context.Context, parentID string) (int, bool, error) {
	var maxPos sql.NullInt64
	err := r.q.QueryRowContext(ctx, `SELECT max(position) FROM `+r.t.name+` WHERE `+r.t.parentColumn+` = ?`, parentID).Scan(&maxPos)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read max position of %s: %w", r.noun, err)
	}
	if !maxPos.Valid {
		return 0, false, nil
	}
	return int(maxPos.Int64), true, nil
}

func (r *positioned[T]) Insert(ctx context.Context, child T) error {
	slot := child.Slot()
	ok, err := r.exists(ctx, r.t.parentTable, slot.ParentID)
	if err != nil {
		return err
	}
	if !ok {
		return r.t.kind.ErrParentNotFound()
	}
	if _, err := r.q.ExecContext(ctx, r.t.insertSQL, r.t.insertArgs(child)...); err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", r.noun, slot.ID, err)
	}
	child.SetVersion(1)
	return nil
}

// SaveAll writes in two passes. The first parks every row on a distinct
// negative position, checking versions; the second writes final placements.
// No intermediate statement can then collide on (parent, position).
func (r *positioned[T]) SaveAll(ctx context.Context, children []T) error {
	if len(children) == 0 {
		return nil
	}

	park := `UPDATE ` + r.t.name + ` SET position = ? WHERE id = ? AND version = ?`
	for i, child := range children {
		s := child.Slot()
		res, err := r.q.ExecContext(ctx, park, -(i + 1), s.ID, s.Version)
		if err != nil {
			return fmt.Errorf("failed to save %s %s: %w", r.noun, s.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return fmt.Errorf("%s %s at version %d: %w", r.noun, s.ID, s.Version, domain.ErrVersionConflict)
		}
	}

	now := r.now()
	place := `UPDATE ` + r.t.name + ` SET ` + r.t.parentColumn + ` = ?, position = ?, updated_at = ?, version = version + 1 WHERE id = ?`
	for _, child := range children {
		s := child.Slot()
		if _, err := r.q.ExecContext(ctx, place, s.ParentID, s.Position, formatTime(now), s.ID); err != nil {
			return fmt.Errorf("failed to save %s %s: %w", r.noun, s.ID, err)
		}
	}

	for _, child := range children {
		child.SetVersion(child.Slot().Version + 1)
		if t, ok := any(child).(domain.Toucher); ok {
			t.Touch(now)
		}
	}
	return nil
}

func (r *positioned[T]) Delete(ctx context.Context, child T) error {
	s := child.Slot()
	res, err := r.q.ExecContext(ctx, `DELETE FROM `+r.t.name+` WHERE id = ? AND version = ?`, s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.noun, s.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	ok, err := r.exists(ctx, r.t.name, s.ID)
	if err != nil {
		return err
	}
	if !ok {
		return r.t.kind.ErrChildNotFound()
	}
	return fmt.Errorf("%s %s at version %d: %w", r.noun, s.ID, s.Version, domain.ErrVersionConflict)
}

func (r *positioned[T]) DeleteByParent(ctx context.Context, parentID string) (int, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM `+r.t.name+` WHERE `+r.t.parentColumn+` = ?`, parentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s of %s %s: %w", r.noun, r.t.kind.ParentNoun(), parentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted %s: %w", r.noun, err)
	}
	return int(n), nil
}
