package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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
	scan         func(pgx.Row) (T, error)
	insertSQL    string
	insertArgs   func(T) []any
}

// positioned implements ordering.Repository for a table inside a transaction.
type positioned[T domain.Positioned] struct {
	q     querier
	t     *table[T]
	now   func() time.Time
	noun  string
	query struct {
		byID, count, ordered, atPosition, inRange, maxPosition string
		exists, parentExists, update, delete, deleteByParent   string
	}
}

var (
	_ ordering.Repository[*domain.BoardList] = (*positioned[*domain.BoardList])(nil)
	_ ordering.Repository[*domain.Card]      = (*positioned[*domain.Card])(nil)
)

func newPositioned[T domain.Positioned](q querier, t *table[T], now func() time.Time) *positioned[T] {
	r := &positioned[T]{q: q, t: t, now: now, noun: t.kind.ChildNoun()}
	sel := `SELECT ` + t.columns + ` FROM ` + t.name + ` WHERE `
	r.query.byID = sel + `id = $1`
	r.query.count = `SELECT count(*) FROM ` + t.name + ` WHERE ` + t.parentColumn + ` = $1`
	r.query.ordered = sel + t.parentColumn + ` = $1 ORDER BY position, id`
	r.query.atPosition = sel + t.parentColumn + ` = $1 AND position = $2`
	r.query.inRange = sel + t.parentColumn + ` = $1 AND position BETWEEN $2 AND $3 ORDER BY position, id`
	r.query.maxPosition = `SELECT max(position) FROM ` + t.name + ` WHERE ` + t.parentColumn + ` = $1`
	r.query.exists = `SELECT EXISTS (SELECT 1 FROM ` + t.name + ` WHERE id = $1)`
	r.query.parentExists = `SELECT EXISTS (SELECT 1 FROM ` + t.parentTable + ` WHERE id = $1)`
	r.query.update = `UPDATE ` + t.name + ` SET ` + t.parentColumn + ` = $2, position = $3, updated_at = $4, version = version + 1
		WHERE id = $1 AND version = $5`
	r.query.delete = `DELETE FROM ` + t.name + ` WHERE id = $1 AND version = $2`
	r.query.deleteByParent = `DELETE FROM ` + t.name + ` WHERE ` + t.parentColumn + ` = $1`
	return r
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *positioned[T]) collect(ctx context.Context, sql string, args ...any) ([]T, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.noun, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return r.t.scan(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.noun, err)
	}
	return out, nil
}

func (r *positioned[T]) one(ctx context.Context, sql string, args ...any) (T, error) {
	child, err := r.t.scan(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, r.t.kind.ErrChildNotFound()
		}
		return zero, fmt.Errorf("failed to get %s: %w", r.noun, err)
	}
	return child, nil
}

func (r *positioned[T]) FindByID(ctx context.Context, id string) (T, error) {
	if err := checkID(id, r.t.kind.ErrChildNotFound()); err != nil {
		var zero T
		return zero, err
	}
	return r.one(ctx, r.query.byID, id)
}

func (r *positioned[T]) ContainerExists(ctx context.Context, parentID string) (bool, error) {
	if !validID(parentID) {
		return false, nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, r.query.parentExists, parentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", r.t.kind.ParentNoun(), parentID, err)
	}
	return exists, nil
}

func (r *positioned[T]) CountByParent(ctx context.Context, parentID string) (int, error) {
	if !validID(parentID) {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, r.query.count, parentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.noun, err)
	}
	return n, nil
}

func (r *positioned[T]) FindOrderedByParent(ctx context.Context, parentID string) ([]T, error) {
	if !validID(parentID) {
		return nil, nil
	}
	return r.collect(ctx, r.query.ordered, parentID)
}

func (r *positioned[T]) FindByParentAndPosition(ctx context.Context, parentID string, position int) (T, error) {
	if err := checkID(parentID, r.t.kind.ErrChildNotFound()); err != nil {
		var zero T
		return zero, err
	}
	return r.one(ctx, r.query.atPosition, parentID, position)
}

func (r *positioned[T]) FindByParentAndPositionRange(ctx context.Context, parentID string, lo, hi int) ([]T, error) {
	if !validID(parentID) {
		return nil, nil
	}
	return r.collect(ctx, r.query.inRange, parentID, lo, hi)
}

func (r *positioned[T]) FindMaxPosition(ctx context.Context, parentID string) (int, bool, error) {
	if !validID(parentID) {
		return 0, false, nil
	}
	var maxPos *int
	if err := r.q.QueryRow(ctx, r.query.maxPosition, parentID).Scan(&maxPos); err != nil {
		return 0, false, fmt.Errorf("failed to read max position of %s: %w", r.noun, err)
	}
	if maxPos == nil {
		return 0, false, nil
	}
	return *maxPos, true, nil
}

func (r *positioned[T]) Insert(ctx context.Context, child T) error {
	slot := child.Slot()
	if !validID(slot.ParentID) {
		return r.t.kind.ErrParentNotFound()
	}
	if _, err := r.q.Exec(ctx, r.t.insertSQL, r.t.insertArgs(child)...); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", r.t.kind.ErrParentNotFound(), err)
		}
		return fmt.Errorf("failed to insert %s %s: %w", r.noun, slot.ID, err)
	}
	child.SetVersion(1)
	return nil
}

func (r *positioned[T]) SaveAll(ctx context.Context, children []T) error {
	if len(children) == 0 {
		return nil
	}

	now := r.now()
	batch := &pgx.Batch{}
	for _, child := range children {
		s := child.Slot()
		batch.Queue(r.query.update, s.ID, s.ParentID, s.Position, now, s.Version)
	}
	if err := r.sendUpdates(ctx, batch, children); err != nil {
		return err
	}

	for _, child := range children {
		child.SetVersion(child.Slot().Version + 1)
		if t, ok := any(child).(domain.Toucher); ok {
			t.Touch(now)
		}
	}
	return nil
}

func (r *positioned[T]) sendUpdates(ctx context.Context, batch *pgx.Batch, children []T) (err error) {
	br := r.q.SendBatch(ctx, batch)
	defer func() {
		if closeErr := br.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to save %s: %w", r.noun, closeErr)
		}
	}()

	for _, child := range children {
		s := child.Slot()
		tag, err := br.Exec()
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%s %s moved to a missing %s: %w: %w", r.noun, s.ID, r.t.kind.ParentNoun(), domain.ErrVersionConflict, err)
			}
			return fmt.Errorf("failed to save %s %s: %w", r.noun, s.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s %s at version %d: %w", r.noun, s.ID, s.Version, domain.ErrVersionConflict)
		}
	}
	return nil
}

func (r *positioned[T]) Delete(ctx context.Context, child T) error {
	s := child.Slot()
	if err := checkID(s.ID, r.t.kind.ErrChildNotFound()); err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, r.query.delete, s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.noun, s.ID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, r.query.exists, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s %s: %w", r.noun, s.ID, err)
	}
	if !exists {
		return r.t.kind.ErrChildNotFound()
	}
	return fmt.Errorf("%s %s at version %d: %w", r.noun, s.ID, s.Version, domain.ErrVersionConflict)
}

func (r *positioned[T]) DeleteByParent(ctx context.Context, parentID string) (int, error) {
	if !validID(parentID) {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx, r.query.deleteByParent, parentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s of %s %s: %w", r.noun, r.t.kind.ParentNoun(), parentID, err)
	}
	return int(tag.RowsAffected()), nil
}
