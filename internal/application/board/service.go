package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/ptr"
	"go.opentelemetry.io/otel/metric"
)

// Config holds configuration for the Service.
type Config struct {
	// Limits supplies container capacity. Defaults apply when nil.
	// When it also implements TextLimitSource it bounds content lengths.
	Limits ordering.LimitSource
	Retry  ordering.RetryConfig
	Meter  metric.Meter
}

// TextLimitSource supplies the content length limits read on every call.
type TextLimitSource interface {
	TextLimits() domain.TextLimits
}

// Service provides the board, list and card use cases.
// Every position change goes through one of the two ordering engines.
type Service struct {
	store  Store
	limits ordering.LimitSource
	lists  *ordering.Engine[*domain.BoardList]
	cards  *ordering.Engine[*domain.Card]
}

// NewService creates a new board service.
func NewService(store Store, cfg Config) *Service {
	return &Service{
		store:  store,
		limits: cfg.Limits,
		lists: ordering.NewEngine(ListTransactor(store), ordering.Config{
			Kind:   domain.KindBoardLists,
			Limits: cfg.Limits,
			Retry:  cfg.Retry,
			Meter:  cfg.Meter,
		}),
		cards: ordering.NewEngine(CardTransactor(store), ordering.Config{
			Kind:   domain.KindCards,
			Limits: cfg.Limits,
			Retry:  cfg.Retry,
			Meter:  cfg.Meter,
		}),
	}
}

// Lists exposes the list ordering engine for maintenance tooling.
func (s *Service) Lists() *ordering.Engine[*domain.BoardList] { return s.lists }

// Cards exposes the card ordering engine for maintenance tooling.
func (s *Service) Cards() *ordering.Engine[*domain.Card] { return s.cards }

func (s *Service) textLimits() domain.TextLimits {
	if src, ok := s.limits.(TextLimitSource); ok {
		return src.TextLimits().WithDefaults()
	}
	return domain.TextLimits{}.WithDefaults()
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// expectedVersion resolves an optional etag against the version just read.
func expectedVersion(etag *string, current int) error {
	if etag == nil {
		return nil
	}
	v, err := domain.ParseEtag(*etag)
	if err != nil {
		return err
	}
	if v != current {
		return domain.ErrVersionConflict
	}
	return nil
}

// === Boards ===

// CreateBoard creates a new, empty board.
func (s *Service) CreateBoard(ctx context.Context, titleStr string) (*domain.Board, error) {
	title, err := domain.NewTitle(titleStr)
	if err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	board := &domain.Board{ID: id, Title: title.String(), CreatedAt: now, UpdatedAt: now}

	var created *domain.Board
	err = s.store.Atomic(ctx, func(repo Repository) error {
		created, err = repo.CreateBoard(ctx, board)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return created, nil
}

// ListLayout is one list with its cards in order.
type ListLayout struct {
	List     *domain.BoardList
	Cards    []*domain.Card
	Capacity domain.Capacity
}

// Layout is a board with every list and card in position order.
type Layout struct {
	Board    *domain.Board
	Lists    []ListLayout
	Capacity domain.Capacity
}

// GetBoard returns the board with its full ordered layout, read in one unit.
func (s *Service) GetBoard(ctx context.Context, id string) (*Layout, error) {
	if id == "" {
		return nil, domain.ErrBoardNotFound
	}

	var layout Layout
	err := s.store.Atomic(ctx, func(repo Repository) error {
		board, err := repo.FindBoardByID(ctx, id)
		if err != nil {
			return err
		}
		lists, err := repo.Lists().FindOrderedByParent(ctx, id)
		if err != nil {
			return err
		}

		layout = Layout{Board: board, Lists: make([]ListLayout, 0, len(lists))}
		for _, list := range lists {
			cards, err := repo.Cards().FindOrderedByParent(ctx, list.ID)
			if err != nil {
				return err
			}
			layout.Lists = append(layout.Lists, ListLayout{
				List:     list,
				Cards:    cards,
				Capacity: s.cards.CapacityFor(list.ID, len(cards)),
			})
		}
		layout.Capacity = s.lists.CapacityFor(id, len(lists))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &layout, nil
}

// ListBoards returns all boards ordered by creation time.
func (s *Service) ListBoards(ctx context.Context) ([]*domain.Board, error) {
	var boards []*domain.Board
	err := s.store.Atomic(ctx, func(repo Repository) error {
		var err error
		boards, err = repo.ListBoards(ctx)
		return err
	})
	return boards, err
}

// RenameBoard changes a board's title. A non-nil etag must match the current version.
func (s *Service) RenameBoard(ctx context.Context, id, titleStr string, etag *string) (*domain.Board, error) {
	title, err := domain.NewTitle(titleStr)
	if err != nil {
		return nil, err
	}
	return s.updateBoard(ctx, id, etag, func(b *domain.Board) { b.Title = title.String() })
}

// ArchiveBoard freezes a board's lists and cards.
func (s *Service) ArchiveBoard(ctx context.Context, id string) (*domain.Board, error) {
	return s.updateBoard(ctx, id, nil, func(b *domain.Board) { b.Archived = true })
}

// UnarchiveBoard makes a board's lists and cards editable again.
func (s *Service) UnarchiveBoard(ctx context.Context, id string) (*domain.Board, error) {
	return s.updateBoard(ctx, id, nil, func(b *domain.Board) { b.Archived = false })
}

func (s *Service) updateBoard(ctx context.Context, id string, etag *string, apply func(*domain.Board)) (*domain.Board, error) {
	var updated *domain.Board
	err := s.store.Atomic(ctx, func(repo Repository) error {
		board, err := repo.FindBoardByID(ctx, id)
		if err != nil {
			return err
		}
		if err := expectedVersion(etag, board.Version); err != nil {
			return err
		}
		apply(board)
		updated, err = repo.UpdateBoard(ctx, board)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBoard removes a board with all of its lists and cards in one unit.
func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	return s.store.Atomic(ctx, func(repo Repository) error {
		if _, err := repo.FindBoardByID(ctx, id); err != nil {
			return err
		}
		if _, err := repo.Lists().DeleteByParent(ctx, id); err != nil {
			return err
		}
		return repo.DeleteBoard(ctx, id)
	})
}

// === Lists ===

// CreateList appends a new list to a board.
func (s *Service) CreateList(ctx context.Context, boardID, titleStr string) (*domain.BoardList, error) {
	title, err := domain.NewBoundedTitle(titleStr, s.textLimits().ListTitle)
	if err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.lists.Create(ctx, &domain.BoardList{
		ID:        id,
		BoardID:   boardID,
		Title:     title.String(),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// GetList returns a single list.
func (s *Service) GetList(ctx context.Context, listID string) (*domain.BoardList, error) {
	return s.lists.Get(ctx, listID)
}

// RenameList changes a list's title. A non-nil etag must match the current version.
func (s *Service) RenameList(ctx context.Context, listID, titleStr string, etag *string) (*domain.BoardList, error) {
	title, err := domain.NewBoundedTitle(titleStr, s.textLimits().ListTitle)
	if err != nil {
		return nil, err
	}

	var updated *domain.BoardList
	err = s.store.Atomic(ctx, func(repo Repository) error {
		list, err := writableList(ctx, repo, listID)
		if err != nil {
			return err
		}
		if err := expectedVersion(etag, list.Version); err != nil {
			return err
		}
		list.Title = title.String()
		updated, err = repo.UpdateListTitle(ctx, list)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveList places a list at position on targetBoardID, or on its own board
// when targetBoardID is empty.
func (s *Service) MoveList(ctx context.Context, listID string, position int, targetBoardID string) (*domain.BoardList, error) {
	return s.lists.Move(ctx, listID, targetBoardID, position)
}

// DeleteList removes a list with its cards and closes the gap on its board.
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	return s.lists.Delete(ctx, listID)
}

// ClearList removes every card of a list and returns how many were removed.
func (s *Service) ClearList(ctx context.Context, listID string) (int, error) {
	return s.cards.DeleteContainer(ctx, listID)
}

// === Cards ===

// CardInput carries the content of a new card.
type CardInput struct {
	Title       string
	Description string
	DueAt       *time.Time
}

// CreateCard appends a new card to a list.
func (s *Service) CreateCard(ctx context.Context, listID string, in CardInput) (*domain.Card, error) {
	limits := s.textLimits()
	title, err := domain.NewBoundedTitle(in.Title, limits.CardTitle)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckDescription(in.Description, limits.Description); err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.cards.Create(ctx, &domain.Card{
		ID:          id,
		ListID:      listID,
		Title:       title.String(),
		Description: in.Description,
		DueAt:       in.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// GetCard returns a single card.
func (s *Service) GetCard(ctx context.Context, cardID string) (*domain.Card, error) {
	return s.cards.Get(ctx, cardID)
}

// SearchCards returns the cards of a list whose title contains term, ignoring
// case, in position order and capped at the configured result limit.
func (s *Service) SearchCards(ctx context.Context, listID, term string) ([]*domain.Card, error) {
	term, err := domain.NewSearchTerm(term)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	limit := s.textLimits().SearchResults

	var found []*domain.Card
	err = s.store.Atomic(ctx, func(repo Repository) error {
		if _, err := repo.Lists().FindByID(ctx, listID); err != nil {
			return err
		}
		cards, err := repo.Cards().FindOrderedByParent(ctx, listID)
		if err != nil {
			return err
		}
		found = make([]*domain.Card, 0, min(len(cards), limit))
		for _, c := range cards {
			if len(found) == limit {
				break
			}
			if strings.Contains(strings.ToLower(c.Title), needle) {
				found = append(found, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateCardParams lists the card fields to change. Nil fields are left as is.
type UpdateCardParams struct {
	Title       *string
	Description *string
	Completed   *bool
	DueAt       *time.Time
	ClearDueAt  bool

	// Etag, when set, must match the card's current version.
	Etag *string
}

// UpdateCard changes a card's details without touching its position.
func (s *Service) UpdateCard(ctx context.Context, cardID string, params UpdateCardParams) (*domain.Card, error) {
	limits := s.textLimits()
	var title *domain.Title
	if params.Title != nil {
		t, err := domain.NewBoundedTitle(*params.Title, limits.CardTitle)
		if err != nil {
			return nil, err
		}
		title = &t
	}
	if params.Description != nil {
		if err := domain.CheckDescription(*params.Description, limits.Description); err != nil {
			return nil, err
		}
	}

	var updated *domain.Card
	err := s.store.Atomic(ctx, func(repo Repository) error {
		card, err := repo.Cards().FindByID(ctx, cardID)
		if err != nil {
			return err
		}
		if _, err := writableList(ctx, repo, card.ListID); err != nil {
			return err
		}
		if err := expectedVersion(params.Etag, card.Version); err != nil {
			return err
		}

		if title != nil {
			card.Title = title.String()
		}
		card.Description = ptr.Deref(params.Description, card.Description)
		card.Completed = ptr.Deref(params.Completed, card.Completed)
		if params.ClearDueAt {
			card.DueAt = nil
		} else if params.DueAt != nil {
			due := params.DueAt.UTC()
			card.DueAt = &due
		}

		updated, err = repo.UpdateCardDetails(ctx, card)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveCard places a card at position in targetListID, or in its own list
// when targetListID is empty.
func (s *Service) MoveCard(ctx context.Context, cardID string, position int, targetListID string) (*domain.Card, error) {
	return s.cards.Move(ctx, cardID, targetListID, position)
}

// CloneCard appends a copy of a card to targetListID, or to its own list when
// targetListID is empty. A nil title keeps the original title.
func (s *Service) CloneCard(ctx context.Context, cardID string, title *string, targetListID string) (*domain.Card, error) {
	var newTitle *domain.Title
	if title != nil {
		t, err := domain.NewBoundedTitle(*title, s.textLimits().CardTitle)
		if err != nil {
			return nil, err
		}
		newTitle = &t
	}

	return s.cards.Clone(ctx, cardID, targetListID, func(original *domain.Card, listID string, position int) (*domain.Card, error) {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		cloneTitle := original.Title
		if newTitle != nil {
			cloneTitle = newTitle.String()
		}
		clone := original.Clone(id, cloneTitle, listID, position)
		now := time.Now().UTC()
		clone.CreatedAt = now
		clone.UpdatedAt = now
		return clone, nil
	})
}

// DeleteCard removes a card and closes the gap in its list.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	return s.cards.Delete(ctx, cardID)
}
