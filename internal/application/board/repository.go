package board

import (
	"context"

	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
)

// Repository defines storage operations for boards and the detail fields of
// lists and cards. Positions are only ever written through Lists() and Cards().
// All update operations are conditional on the version carried by the entity.
type Repository interface {
	// === Board Operations ===

	// CreateBoard stores a new board.
	// Returns the created board with version populated by persistence layer.
	CreateBoard(ctx context.Context, board *domain.Board) (*domain.Board, error)

	// FindBoardByID returns domain.ErrBoardNotFound if the board doesn't exist.
	FindBoardByID(ctx context.Context, id string) (*domain.Board, error)

	// ListBoards returns every board ordered by creation time.
	ListBoards(ctx context.Context) ([]*domain.Board, error)

	// UpdateBoard writes title and archived state.
	// Returns domain.ErrVersionConflict if board.Version doesn't match the stored version.
	UpdateBoard(ctx context.Context, board *domain.Board) (*domain.Board, error)

	// DeleteBoard removes the board. Lists and cards still attached are removed with it.
	DeleteBoard(ctx context.Context, id string) error

	// === Detail Operations ===

	// UpdateListTitle writes list.Title, conditional on list.Version.
	UpdateListTitle(ctx context.Context, list *domain.BoardList) (*domain.BoardList, error)

	// UpdateCardDetails writes title, description, completion and due date,
	// conditional on card.Version.
	UpdateCardDetails(ctx context.Context, card *domain.Card) (*domain.Card, error)

	// === Positioned Children ===

	Lists() ordering.Repository[*domain.BoardList]
	Cards() ordering.Repository[*domain.Card]
}

// Store runs repository work in all-or-nothing units.
type Store interface {
	// Atomic executes fn within a transaction.
	// Commits if fn returns nil, rolls back otherwise.
	Atomic(ctx context.Context, fn func(repo Repository) error) error
}

// ListTransactor adapts a Store to the ordering engine for lists. The engine
// sees a repository that refuses writes to archived boards.
func ListTransactor(store Store) ordering.Transactor[*domain.BoardList] {
	return ordering.TransactorFunc[*domain.BoardList](
		func(ctx context.Context, fn func(repo ordering.Repository[*domain.BoardList]) error) error {
			return store.Atomic(ctx, func(repo Repository) error {
				return fn(boardLists{Repository: repo.Lists(), repo: repo})
			})
		})
}

// CardTransactor adapts a Store to the ordering engine for cards. The engine
// sees a repository that refuses writes to lists of archived boards.
func CardTransactor(store Store) ordering.Transactor[*domain.Card] {
	return ordering.TransactorFunc[*domain.Card](
		func(ctx context.Context, fn func(repo ordering.Repository[*domain.Card]) error) error {
			return store.Atomic(ctx, func(repo Repository) error {
				return fn(listCards{Repository: repo.Cards(), repo: repo})
			})
		})
}

// boardLists guards list writes with the owning board's archived flag.
type boardLists struct {
	ordering.Repository[*domain.BoardList]
	repo Repository
}

func (l boardLists) CheckWritable(ctx context.Context, boardID string) error {
	return writableBoard(ctx, l.repo, boardID)
}

// listCards guards card writes with the archived flag of the list's board.
type listCards struct {
	ordering.Repository[*domain.Card]
	repo Repository
}

func (c listCards) CheckWritable(ctx context.Context, listID string) error {
	_, err := writableList(ctx, c.repo, listID)
	return err
}

var (
	_ ordering.WriteGuard = boardLists{}
	_ ordering.WriteGuard = listCards{}
)

// writableBoard fails with domain.ErrBoardArchived when the board is archived.
func writableBoard(ctx context.Context, repo Repository, boardID string) error {
	board, err := repo.FindBoardByID(ctx, boardID)
	if err != nil {
		return err
	}
	if board.Archived {
		return domain.ErrBoardArchived
	}
	return nil
}

// writableList returns the list when its board still accepts changes.
func writableList(ctx context.Context, repo Repository, listID string) (*domain.BoardList, error) {
	list, err := repo.Lists().FindByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := writableBoard(ctx, repo, list.BoardID); err != nil {
		return nil, err
	}
	return list, nil
}
