package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
)

// repository implements board.Repository against one transaction.
type repository struct {
	q     querier
	now   func() time.Time
	lists *positioned[*domain.BoardList]
	cards *positioned[*domain.Card]
}

var _ board.Repository = (*repository)(nil)

func newRepository(q querier, now func() time.Time) *repository {
	return &repository{
		q:     q,
		now:   now,
		lists: newPositioned(q, &listTable, now),
		cards: newPositioned(q, &cardTable, now),
	}
}

func (r *repository) Lists() ordering.Repository[*domain.BoardList] { return r.lists }

func (r *repository) Cards() ordering.Repository[*domain.Card] { return r.cards }

// === Board Operations ===

func (r *repository) CreateBoard(ctx context.Context, b *domain.Board) (*domain.Board, error) {
	if err := checkID(b.ID, domain.ErrBoardNotFound); err != nil {
		return nil, err
	}
	created, err := scanBoard(r.q.QueryRow(ctx,
		`INSERT INTO boards (`+boardColumns+`) VALUES ($1, $2, $3, $4, $5, 1) RETURNING `+boardColumns,
		b.ID, b.Title, b.Archived, b.CreatedAt, b.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return created, nil
}

func (r *repository) FindBoardByID(ctx context.Context, id string) (*domain.Board, error) {
	if err := checkID(id, domain.ErrBoardNotFound); err != nil {
		return nil, err
	}
	b, err := scanBoard(r.q.QueryRow(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: board %s", domain.ErrBoardNotFound, id)
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return b, nil
}

func (r *repository) ListBoards(ctx context.Context) ([]*domain.Board, error) {
	rows, err := r.q.Query(ctx, `SELECT `+boardColumns+` FROM boards ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	boards, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Board, error) {
		return scanBoard(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read boards: %w", err)
	}
	return boards, nil
}

func (r *repository) UpdateBoard(ctx context.Context, b *domain.Board) (*domain.Board, error) {
	if err := checkID(b.ID, domain.ErrBoardNotFound); err != nil {
		return nil, err
	}
	updated, err := scanBoard(r.q.QueryRow(ctx,
		`UPDATE boards SET title = $2, archived = $3, updated_at = $4, version = version + 1
		 WHERE id = $1 AND version = $5
		 RETURNING `+boardColumns,
		b.ID, b.Title, b.Archived, r.now(), b.Version))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return nil, r.missOrConflict(ctx, "boards", b.ID, b.Version, domain.ErrBoardNotFound)
}

func (r *repository) DeleteBoard(ctx context.Context, id string) error {
	if err := checkID(id, domain.ErrBoardNotFound); err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: board %s", domain.ErrBoardNotFound, id)
	}
	return nil
}

// === Detail Operations ===

func (r *repository) UpdateListTitle(ctx context.Context, l *domain.BoardList) (*domain.BoardList, error) {
	if err := checkID(l.ID, domain.ErrListNotFound); err != nil {
		return nil, err
	}
	updated, err := scanList(r.q.QueryRow(ctx,
		`UPDATE board_lists SET title = $2, updated_at = $3, version = version + 1
		 WHERE id = $1 AND version = $4
		 RETURNING `+listColumns,
		l.ID, l.Title, r.now(), l.Version))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}
	return nil, r.missOrConflict(ctx, "board_lists", l.ID, l.Version, domain.ErrListNotFound)
}

func (r *repository) UpdateCardDetails(ctx context.Context, c *domain.Card) (*domain.Card, error) {
	if err := checkID(c.ID, domain.ErrCardNotFound); err != nil {
		return nil, err
	}
	updated, err := scanCard(r.q.QueryRow(ctx,
		`UPDATE cards SET title = $2, description = $3, completed = $4, due_at = $5, updated_at = $6, version = version + 1
		 WHERE id = $1 AND version = $7
		 RETURNING `+cardColumns,
		c.ID, c.Title, c.Description, c.Completed, c.DueAt, r.now(), c.Version))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	return nil, r.missOrConflict(ctx, "cards", c.ID, c.Version, domain.ErrCardNotFound)
}

// missOrConflict explains a conditional write that matched no row.
func (r *repository) missOrConflict(ctx context.Context, tableName, id string, version int, notFound error) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return fmt.Errorf("%s at version %d: %w", id, version, domain.ErrVersionConflict)
}
