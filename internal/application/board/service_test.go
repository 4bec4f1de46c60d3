package board_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/capacity"
	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/memory"
	"github.com/rezkam/boardly/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, limits capacity.Limits) (*board.Service, *capacity.Provider) {
	t.Helper()
	provider := capacity.NewProvider(limits)
	svc := board.NewService(memory.NewStore(), board.Config{Limits: provider})
	return svc, provider
}

func cardTitles(layout board.ListLayout) []string {
	out := make([]string, len(layout.Cards))
	for i, c := range layout.Cards {
		out[i] = c.Title
	}
	return out
}

func TestService_CreateBoard_ValidatesTitle(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()

	_, err := svc.CreateBoard(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrTitleRequired)

	b, err := svc.CreateBoard(ctx, "  Roadmap ")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", b.Title)
	assert.Equal(t, 1, b.Version)
	assert.NotEmpty(t, b.ID)
}

func TestService_GetBoard_Layout(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{MaxCardsPerList: 3})
	ctx := context.Background()

	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	todo, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)
	done, err := svc.CreateList(ctx, b.ID, "Done")
	require.NoError(t, err)
	assert.Equal(t, 0, todo.Position)
	assert.Equal(t, 1, done.Position)

	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.CreateCard(ctx, todo.ID, board.CardInput{Title: title})
		require.NoError(t, err)
	}

	layout, err := svc.GetBoard(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, layout.Lists, 2)
	assert.Equal(t, "Todo", layout.Lists[0].List.Title)
	assert.Equal(t, []string{"A", "B", "C"}, cardTitles(layout.Lists[0]))
	assert.Equal(t, domain.CapacityLimitReached, layout.Lists[0].Capacity.Status)
	assert.Equal(t, 0, layout.Lists[0].Capacity.Available)
	assert.Equal(t, 2, layout.Capacity.Count)
	assert.Equal(t, 18, layout.Capacity.Available)
	assert.Equal(t, domain.CapacityNormal, layout.Capacity.Status)

	_, err = svc.GetBoard(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
}

func TestService_RenameBoard_Etag(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Old")
	require.NoError(t, err)

	renamed, err := svc.RenameBoard(ctx, b.ID, "New", ptr.To(b.Etag()))
	require.NoError(t, err)
	assert.Equal(t, "New", renamed.Title)
	assert.Equal(t, 2, renamed.Version)

	_, err = svc.RenameBoard(ctx, b.ID, "Stale", ptr.To(b.Etag()))
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = svc.RenameBoard(ctx, b.ID, "Bad", ptr.To("abc"))
	assert.ErrorIs(t, err, domain.ErrInvalidEtag)
}

func TestService_ArchivedBoardRejectsChanges(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	list, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)
	card, err := svc.CreateCard(ctx, list.ID, board.CardInput{Title: "A"})
	require.NoError(t, err)

	archived, err := svc.ArchiveBoard(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	_, err = svc.CreateList(ctx, b.ID, "More")
	assert.ErrorIs(t, err, domain.ErrBoardArchived)
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "B"})
	assert.ErrorIs(t, err, domain.ErrBoardArchived)
	_, err = svc.MoveCard(ctx, card.ID, 0, "")
	assert.ErrorIs(t, err, domain.ErrBoardArchived)
	assert.ErrorIs(t, svc.DeleteCard(ctx, card.ID), domain.ErrBoardArchived)

	_, err = svc.UnarchiveBoard(ctx, b.ID)
	require.NoError(t, err)
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "B"})
	assert.NoError(t, err)
}

func TestService_DeleteBoard_RemovesEverything(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	list, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)
	card, err := svc.CreateCard(ctx, list.ID, board.CardInput{Title: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBoard(ctx, b.ID))

	_, err = svc.GetBoard(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
	_, err = svc.GetList(ctx, list.ID)
	assert.ErrorIs(t, err, domain.ErrListNotFound)
	_, err = svc.GetCard(ctx, card.ID)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)

	assert.ErrorIs(t, svc.DeleteBoard(ctx, b.ID), domain.ErrBoardNotFound)
}

func TestService_DeleteList_CascadesCardsAndClosesGap(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	first, err := svc.CreateList(ctx, b.ID, "First")
	require.NoError(t, err)
	second, err := svc.CreateList(ctx, b.ID, "Second")
	require.NoError(t, err)
	card, err := svc.CreateCard(ctx, first.ID, board.CardInput{Title: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteList(ctx, first.ID))

	_, err = svc.GetCard(ctx, card.ID)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
	moved, err := svc.GetList(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
}

func TestService_CardLifecycle(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	todo, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)
	done, err := svc.CreateList(ctx, b.ID, "Done")
	require.NoError(t, err)

	due := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	card, err := svc.CreateCard(ctx, todo.ID, board.CardInput{Title: "Ship", Description: "v1", DueAt: &due})
	require.NoError(t, err)
	_, err = svc.CreateCard(ctx, todo.ID, board.CardInput{Title: "Test"})
	require.NoError(t, err)

	updated, err := svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{
		Completed: ptr.To(true),
		Etag:      ptr.To(card.Etag()),
	})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Ship", updated.Title)
	assert.Equal(t, 0, updated.Position)

	_, err = svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{Title: ptr.To("x"), Etag: ptr.To(card.Etag())})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	cleared, err := svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{ClearDueAt: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueAt)

	moved, err := svc.MoveCard(ctx, card.ID, 0, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, moved.ListID)
	assert.Equal(t, 0, moved.Position)

	clone, err := svc.CloneCard(ctx, card.ID, ptr.To("Ship again"), todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, clone.ListID)
	assert.Equal(t, 1, clone.Position)
	assert.Equal(t, "Ship again", clone.Title)
	assert.Equal(t, "v1", clone.Description)
	assert.False(t, clone.Completed)

	sameList, err := svc.CloneCard(ctx, card.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, done.ID, sameList.ListID)
	assert.Equal(t, "Ship", sameList.Title)
	assert.Equal(t, 1, sameList.Position)

	removed, err := svc.ClearList(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	layout, err := svc.GetBoard(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, layout.Lists[0].Cards)
	assert.Equal(t, []string{"Ship", "Ship"}, cardTitles(layout.Lists[1]))
}

func TestService_MoveList_AcrossBoards(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	src, err := svc.CreateBoard(ctx, "Source")
	require.NoError(t, err)
	dst, err := svc.CreateBoard(ctx, "Target")
	require.NoError(t, err)
	a, err := svc.CreateList(ctx, src.ID, "A")
	require.NoError(t, err)
	_, err = svc.CreateList(ctx, src.ID, "B")
	require.NoError(t, err)
	_, err = svc.CreateList(ctx, dst.ID, "X")
	require.NoError(t, err)
	card, err := svc.CreateCard(ctx, a.ID, board.CardInput{Title: "travels along"})
	require.NoError(t, err)

	moved, err := svc.MoveList(ctx, a.ID, 0, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.BoardID)

	layout, err := svc.GetBoard(ctx, dst.ID)
	require.NoError(t, err)
	require.Len(t, layout.Lists, 2)
	assert.Equal(t, "A", layout.Lists[0].List.Title)
	assert.Equal(t, 1, layout.Lists[1].List.Position)

	got, err := svc.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ListID)

	srcLayout, err := svc.GetBoard(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, srcLayout.Lists, 1)
	assert.Equal(t, 0, srcLayout.Lists[0].List.Position)
}

func TestService_LimitsFollowProvider(t *testing.T) {
	svc, provider := newService(t, capacity.Limits{MaxCardsPerList: 1})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	list, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)

	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "A"})
	require.NoError(t, err)
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "B"})
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	provider.Set(capacity.Limits{MaxCardsPerList: 2})
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "B"})
	assert.NoError(t, err)
}

func TestService_RenameList(t *testing.T) {
	svc, _ := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	list, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)

	renamed, err := svc.RenameList(ctx, list.ID, "Doing", ptr.To(list.Etag()))
	require.NoError(t, err)
	assert.Equal(t, "Doing", renamed.Title)
	assert.Equal(t, list.Position, renamed.Position)

	_, err = svc.RenameList(ctx, list.ID, "", nil)
	assert.ErrorIs(t, err, domain.ErrTitleRequired)
}

// archivingStore archives a board right before its n-th unit runs.
type archivingStore struct {
	board.Store
	boardID string
	at      int
	calls   int
}

func (s *archivingStore) Atomic(ctx context.Context, fn func(repo board.Repository) error) error {
	s.calls++
	if s.calls == s.at {
		err := s.Store.Atomic(ctx, func(repo board.Repository) error {
			b, err := repo.FindBoardByID(ctx, s.boardID)
			if err != nil {
				return err
			}
			b.Archived = true
			_, err = repo.UpdateBoard(ctx, b)
			return err
		})
		if err != nil {
			return err
		}
	}
	return s.Store.Atomic(ctx, fn)
}

func TestService_ArchiveBetweenUnitsBlocksWrite(t *testing.T) {
	type fixture struct{ board, todo, done, card string }

	ops := map[string]func(ctx context.Context, svc *board.Service, f fixture) error{
		"create list": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.CreateList(ctx, f.board, "More")
			return err
		},
		"rename list": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.RenameList(ctx, f.todo, "Doing", nil)
			return err
		},
		"move list": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.MoveList(ctx, f.todo, 1, "")
			return err
		},
		"delete list": func(ctx context.Context, svc *board.Service, f fixture) error {
			return svc.DeleteList(ctx, f.done)
		},
		"clear list": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.ClearList(ctx, f.todo)
			return err
		},
		"create card": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.CreateCard(ctx, f.todo, board.CardInput{Title: "B"})
			return err
		},
		"update card": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.UpdateCard(ctx, f.card, board.UpdateCardParams{Completed: ptr.To(true)})
			return err
		},
		"move card": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.MoveCard(ctx, f.card, 0, f.done)
			return err
		},
		"clone card": func(ctx context.Context, svc *board.Service, f fixture) error {
			_, err := svc.CloneCard(ctx, f.card, nil, "")
			return err
		},
		"delete card": func(ctx context.Context, svc *board.Service, f fixture) error {
			return svc.DeleteCard(ctx, f.card)
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			for at := 1; ; at++ {
				ctx := context.Background()
				store := memory.NewStore()
				plain := board.NewService(store, board.Config{})

				b, err := plain.CreateBoard(ctx, "Roadmap")
				require.NoError(t, err)
				todo, err := plain.CreateList(ctx, b.ID, "Todo")
				require.NoError(t, err)
				done, err := plain.CreateList(ctx, b.ID, "Done")
				require.NoError(t, err)
				card, err := plain.CreateCard(ctx, todo.ID, board.CardInput{Title: "A"})
				require.NoError(t, err)

				wrapped := &archivingStore{Store: store, boardID: b.ID, at: at}
				err = op(ctx, board.NewService(wrapped, board.Config{}), fixture{b.ID, todo.ID, done.ID, card.ID})
				if wrapped.calls < at {
					break
				}
				require.ErrorIs(t, err, domain.ErrBoardArchived, "archived before unit %d", at)

				layout, err := plain.GetBoard(ctx, b.ID)
				require.NoError(t, err)
				assert.True(t, layout.Board.Archived)
				require.Len(t, layout.Lists, 2)
				assert.Equal(t, "Todo", layout.Lists[0].List.Title)
				assert.Equal(t, []string{"A"}, cardTitles(layout.Lists[0]))
				assert.False(t, layout.Lists[0].Cards[0].Completed)
				assert.Empty(t, layout.Lists[1].Cards)
			}
		})
	}
}

func TestService_TextLimits(t *testing.T) {
	svc, provider := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)

	_, err = svc.CreateList(ctx, b.ID, strings.Repeat("l", 101))
	assert.ErrorIs(t, err, domain.ErrTitleTooLong)
	list, err := svc.CreateList(ctx, b.ID, strings.Repeat("l", 100))
	require.NoError(t, err)
	_, err = svc.RenameList(ctx, list.ID, strings.Repeat("l", 101), nil)
	assert.ErrorIs(t, err, domain.ErrTitleTooLong)

	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: strings.Repeat("c", 201)})
	assert.ErrorIs(t, err, domain.ErrTitleTooLong)
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "A", Description: strings.Repeat("d", 2001)})
	assert.ErrorIs(t, err, domain.ErrDescriptionTooLong)
	card, err := svc.CreateCard(ctx, list.ID, board.CardInput{Title: strings.Repeat("c", 200), Description: strings.Repeat("d", 2000)})
	require.NoError(t, err)

	_, err = svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{Description: ptr.To(strings.Repeat("d", 2001))})
	assert.ErrorIs(t, err, domain.ErrDescriptionTooLong)
	_, err = svc.CloneCard(ctx, card.ID, ptr.To(strings.Repeat("c", 201)), "")
	assert.ErrorIs(t, err, domain.ErrTitleTooLong)

	provider.Set(capacity.Limits{MaxCardTitleLength: 5, MaxDescriptionLength: 3})
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "Sixsix"})
	assert.ErrorIs(t, err, domain.ErrTitleTooLong)
	_, err = svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{Description: ptr.To("four")})
	assert.ErrorIs(t, err, domain.ErrDescriptionTooLong)
	_, err = svc.CreateCard(ctx, list.ID, board.CardInput{Title: "Five5", Description: "ok"})
	assert.NoError(t, err)
}

func TestService_SearchCards(t *testing.T) {
	svc, provider := newService(t, capacity.Limits{})
	ctx := context.Background()
	b, err := svc.CreateBoard(ctx, "Roadmap")
	require.NoError(t, err)
	todo, err := svc.CreateList(ctx, b.ID, "Todo")
	require.NoError(t, err)
	other, err := svc.CreateList(ctx, b.ID, "Done")
	require.NoError(t, err)

	for _, title := range []string{"Deploy API", "Write docs", "deploy web", "Review"} {
		_, err := svc.CreateCard(ctx, todo.ID, board.CardInput{Title: title})
		require.NoError(t, err)
	}
	_, err = svc.CreateCard(ctx, other.ID, board.CardInput{Title: "Deploy elsewhere"})
	require.NoError(t, err)

	found, err := svc.SearchCards(ctx, todo.ID, "  DEPLOY ")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Deploy API", found[0].Title)
	assert.Equal(t, "deploy web", found[1].Title)

	none, err := svc.SearchCards(ctx, todo.ID, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	provider.Set(capacity.Limits{MaxSearchResults: 1})
	capped, err := svc.SearchCards(ctx, todo.ID, "deploy")
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, "Deploy API", capped[0].Title)

	_, err = svc.SearchCards(ctx, todo.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrSearchTermRequired)
	_, err = svc.SearchCards(ctx, "missing", "deploy")
	assert.ErrorIs(t, err, domain.ErrListNotFound)
}
