package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const (
	boardColumns = `id, title, archived, created_at, updated_at, version`
	listColumns  = `id, board_id, title, position, created_at, updated_at, version`
	cardColumns  = `id, list_id, title, description, completed, due_at, position, created_at, updated_at, version`
)

func scanTimes(created, updated string, dst ...*time.Time) error {
	var err error
	if *dst[0], err = parseTime(created); err != nil {
		return err
	}
	*dst[1], err = parseTime(updated)
	return err
}

func scanBoard(row scanner) (*domain.Board, error) {
	var (
		b                domain.Board
		created, updated string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Archived, &created, &updated, &b.Version); err != nil {
		return nil, err
	}
	if err := scanTimes(created, updated, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanList(row scanner) (*domain.BoardList, error) {
	var (
		l                domain.BoardList
		created, updated string
	)
	if err := row.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &created, &updated, &l.Version); err != nil {
		return nil, err
	}
	if err := scanTimes(created, updated, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanCard(row scanner) (*domain.Card, error) {
	var (
		c                domain.Card
		due              sql.NullString
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Completed, &due,
		&c.Position, &created, &updated, &c.Version); err != nil {
		return nil, err
	}
	if err := scanTimes(created, updated, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t, err := parseTime(due.String)
		if err != nil {
			return nil, err
		}
		c.DueAt = &t
	}
	return &c, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

var listTable = table[*domain.BoardList]{
	kind:         domain.KindBoardLists,
	name:         "board_lists",
	parentTable:  "boards",
	parentColumn: "board_id",
	columns:      listColumns,
	scan:         scanList,
	insertSQL:    `INSERT INTO board_lists (` + listColumns + `) VALUES (?, ?, ?, ?, ?, ?, 1)`,
	insertArgs: func(l *domain.BoardList) []any {
		return []any{l.ID, l.BoardID, l.Title, l.Position, formatTime(l.CreatedAt), formatTime(l.UpdatedAt)}
	},
}

var cardTable = table[*domain.Card]{
	kind:         domain.KindCards,
	name:         "cards",
	parentTable:  "board_lists",
	parentColumn: "list_id",
	columns:      cardColumns,
	scan:         scanCard,
	insertSQL:    `INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
	insertArgs: func(c *domain.Card) []any {
		return []any{c.ID, c.ListID, c.Title, c.Description, c.Completed, nullableTime(c.DueAt),
			c.Position, formatTime(c.CreatedAt), formatTime(c.UpdatedAt)}
	},
}

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

func (r *repository) CreateBoard(ctx context.Context, b *domain.Board) (*domain.Board, error) {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO boards (`+boardColumns+`) VALUES (?, ?, ?, ?, ?, 1)`,
		b.ID, b.Title, b.Archived, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return r.FindBoardByID(ctx, b.ID)
}

func (r *repository) FindBoardByID(ctx context.Context, id string) (*domain.Board, error) {
	b, err := scanBoard(r.q.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: board %s", domain.ErrBoardNotFound, id)
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return b, nil
}

func (r *repository) ListBoards(ctx context.Context) ([]*domain.Board, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+boardColumns+` FROM boards ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []*domain.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read boards: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// conditionalUpdate runs an UPDATE guarded by version and explains a miss.
func (r *repository) conditionalUpdate(ctx context.Context, tableName, id string, version int, notFound error, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", tableName, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return fmt.Errorf("%s at version %d: %w", id, version, domain.ErrVersionConflict)
}

func (r *repository) UpdateBoard(ctx context.Context, b *domain.Board) (*domain.Board, error) {
	err := r.conditionalUpdate(ctx, "boards", b.ID, b.Version, domain.ErrBoardNotFound,
		`UPDATE boards SET title = ?, archived = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?`,
		b.Title, b.Archived, formatTime(r.now()), b.ID, b.Version)
	if err != nil {
		return nil, err
	}
	return r.FindBoardByID(ctx, b.ID)
}

func (r *repository) DeleteBoard(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return fmt.Errorf("%w: board %s", domain.ErrBoardNotFound, id)
	}
	return nil
}

func (r *repository) UpdateListTitle(ctx context.Context, l *domain.BoardList) (*domain.BoardList, error) {
	err := r.conditionalUpdate(ctx, "board_lists", l.ID, l.Version, domain.ErrListNotFound,
		`UPDATE board_lists SET title = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?`,
		l.Title, formatTime(r.now()), l.ID, l.Version)
	if err != nil {
		return nil, err
	}
	return r.lists.FindByID(ctx, l.ID)
}

func (r *repository) UpdateCardDetails(ctx context.Context, c *domain.Card) (*domain.Card, error) {
	err := r.conditionalUpdate(ctx, "cards", c.ID, c.Version, domain.ErrCardNotFound,
		`UPDATE cards SET title = ?, description = ?, completed = ?, due_at = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		c.Title, c.Description, c.Completed, nullableTime(c.DueAt), formatTime(r.now()), c.ID, c.Version)
	if err != nil {
		return nil, err
	}
	return r.cards.FindByID(ctx, c.ID)
}
