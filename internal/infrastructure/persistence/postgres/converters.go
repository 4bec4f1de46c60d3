package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rezkam/boardly/internal/domain"
)

const (
	boardColumns = `id, title, archived, created_at, updated_at, version`
	listColumns  = `id, board_id, title, position, created_at, updated_at, version`
	cardColumns  = `id, list_id, title, description, completed, due_at, position, created_at, updated_at, version`
)

func scanBoard(row pgx.Row) (*domain.Board, error) {
	var b domain.Board
	if err := row.Scan(&b.ID, &b.Title, &b.Archived, &b.CreatedAt, &b.UpdatedAt, &b.Version); err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func scanList(row pgx.Row) (*domain.BoardList, error) {
	var l domain.BoardList
	if err := row.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt, &l.Version); err != nil {
		return nil, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var (
		c   domain.Card
		due *time.Time
	)
	if err := row.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Completed, &due,
		&c.Position, &c.CreatedAt, &c.UpdatedAt, &c.Version); err != nil {
		return nil, err
	}
	if due != nil {
		utc := due.UTC()
		c.DueAt = &utc
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// listTable describes board_lists for the positioned repository.
var listTable = table[*domain.BoardList]{
	kind:         domain.KindBoardLists,
	name:         "board_lists",
	parentTable:  "boards",
	parentColumn: "board_id",
	columns:      listColumns,
	scan:         scanList,
	insertSQL:    `INSERT INTO board_lists (` + listColumns + `) VALUES ($1, $2, $3, $4, $5, $6, 1)`,
	insertArgs: func(l *domain.BoardList) []any {
		return []any{l.ID, l.BoardID, l.Title, l.Position, l.CreatedAt, l.UpdatedAt}
	},
}

// cardTable describes cards for the positioned repository.
var cardTable = table[*domain.Card]{
	kind:         domain.KindCards,
	name:         "cards",
	parentTable:  "board_lists",
	parentColumn: "list_id",
	columns:      cardColumns,
	scan:         scanCard,
	insertSQL:    `INSERT INTO cards (` + cardColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`,
	insertArgs: func(c *domain.Card) []any {
		return []any{c.ID, c.ListID, c.Title, c.Description, c.Completed, c.DueAt, c.Position, c.CreatedAt, c.UpdatedAt}
	},
}
