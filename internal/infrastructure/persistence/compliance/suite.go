// Package compliance holds the behaviour every board store must share.
// Each backend runs the same suite from its own tests.
package compliance

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStore returns an empty store for one subtest.
type NewStore func(t *testing.T) board.Store

// Run executes the store compliance suite.
func Run(t *testing.T, newStore NewStore) {
	t.Run("Boards", func(t *testing.T) { testBoards(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("RollbackOnPanic", func(t *testing.T) { testRollbackOnPanic(t, newStore(t)) })
	t.Run("RepositoryContract", func(t *testing.T) { testRepositoryContract(t, newStore(t)) })
	t.Run("ReorderWithinList", func(t *testing.T) { testReorder(t, newStore(t)) })
	t.Run("DeleteClosesGap", func(t *testing.T) { testDeleteClosesGap(t, newStore(t)) })
	t.Run("MoveAcrossLists", func(t *testing.T) { testMoveAcross(t, newStore(t)) })
	t.Run("CapacityLimit", func(t *testing.T) { testCapacity(t, newStore(t)) })
	t.Run("PositionValidation", func(t *testing.T) { testPositionValidation(t, newStore(t)) })
	t.Run("NoOpMove", func(t *testing.T) { testNoOpMove(t, newStore(t)) })
	t.Run("ListOrdering", func(t *testing.T) { testListOrdering(t, newStore(t)) })
	t.Run("CascadingDeletes", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("CardDetails", func(t *testing.T) { testCardDetails(t, newStore(t)) })
	t.Run("ConcurrentMoves", func(t *testing.T) { testConcurrentMoves(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
}

type fixture struct {
	svc   *board.Service
	board *domain.Board
}

func newFixture(t *testing.T, store board.Store, limits ordering.StaticLimits) fixture {
	t.Helper()
	svc := board.NewService(store, board.Config{
		Limits: limits,
		Retry:  ordering.RetryConfig{MaxRetries: 20, BaseDelay: time.Millisecond},
	})
	b, err := svc.CreateBoard(context.Background(), "Compliance")
	require.NoError(t, err)
	return fixture{svc: svc, board: b}
}

func (f fixture) list(t *testing.T, title string, cards ...string) *domain.BoardList {
	t.Helper()
	ctx := context.Background()
	l, err := f.svc.CreateList(ctx, f.board.ID, title)
	require.NoError(t, err)
	for _, c := range cards {
		_, err := f.svc.CreateCard(ctx, l.ID, board.CardInput{Title: c})
		require.NoError(t, err)
	}
	return l
}

// cards returns the titles of listID in position order and checks density.
func (f fixture) cards(t *testing.T, listID string) []string {
	t.Helper()
	cards, err := f.svc.Cards().Layout(context.Background(), listID)
	require.NoError(t, err)
	titles := make([]string, len(cards))
	for i, c := range cards {
		require.Equal(t, i, c.Position, "positions of list %s are not dense", listID)
		titles[i] = c.Title
	}
	return titles
}

func (f fixture) cardAt(t *testing.T, listID string, position int) *domain.Card {
	t.Helper()
	cards, err := f.svc.Cards().Layout(context.Background(), listID)
	require.NoError(t, err)
	require.Greater(t, len(cards), position)
	return cards[position]
}

func testBoards(t *testing.T, store board.Store) {
	ctx := context.Background()
	svc := board.NewService(store, board.Config{})

	first, err := svc.CreateBoard(ctx, "First")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.CreateBoard(ctx, "Second")
	require.NoError(t, err)

	boards, err := svc.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, first.ID, boards[0].ID)
	assert.Equal(t, second.ID, boards[1].ID)

	renamed, err := svc.RenameBoard(ctx, first.ID, "Renamed", ptr.To(first.Etag()))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)
	assert.Equal(t, first.Version+1, renamed.Version)

	_, err = svc.RenameBoard(ctx, first.ID, "Again", ptr.To(first.Etag()))
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	require.NoError(t, svc.DeleteBoard(ctx, first.ID))
	_, err = svc.GetBoard(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
	_, err = svc.GetBoard(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
	_, err = svc.GetBoard(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
}

func testRollback(t *testing.T, store board.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	id := uuid.NewString()

	err := store.Atomic(ctx, func(repo board.Repository) error {
		now := time.Now().UTC()
		if _, err := repo.CreateBoard(ctx, &domain.Board{ID: id, Title: "Doomed", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.Atomic(ctx, func(repo board.Repository) error {
		_, err := repo.FindBoardByID(ctx, id)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
}

// testRollbackOnPanic checks that a panicking callback is re-raised and
// leaves nothing behind.
func testRollbackOnPanic(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo", "A")

	assert.PanicsWithValue(t, "simulated panic", func() {
		_ = store.Atomic(ctx, func(repo board.Repository) error {
			now := time.Now().UTC()
			card := &domain.Card{ID: uuid.NewString(), ListID: l.ID, Title: "Ghost", Position: 1, CreatedAt: now, UpdatedAt: now}
			if err := repo.Cards().Insert(ctx, card); err != nil {
				return err
			}
			panic("simulated panic")
		})
	})

	cards, err := f.svc.Cards().Layout(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "A", cards[0].Title)
}

func testRepositoryContract(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo", "A", "B", "C")
	missing := uuid.NewString()

	err := store.Atomic(ctx, func(repo board.Repository) error {
		cards := repo.Cards()

		exists, err := cards.ContainerExists(ctx, l.ID)
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = cards.ContainerExists(ctx, missing)
		require.NoError(t, err)
		assert.False(t, exists)

		n, err := cards.CountByParent(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		maxPos, ok, err := cards.FindMaxPosition(ctx, l.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, maxPos)
		_, ok, err = cards.FindMaxPosition(ctx, missing)
		require.NoError(t, err)
		assert.False(t, ok)

		run, err := cards.FindByParentAndPositionRange(ctx, l.ID, 1, 2)
		require.NoError(t, err)
		require.Len(t, run, 2)
		assert.Equal(t, "B", run[0].Title)
		assert.Equal(t, "C", run[1].Title)

		atOne, err := cards.FindByParentAndPosition(ctx, l.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "B", atOne.Title)
		_, err = cards.FindByParentAndPosition(ctx, l.ID, 7)
		assert.ErrorIs(t, err, domain.ErrCardNotFound)
		_, err = cards.FindByID(ctx, missing)
		assert.ErrorIs(t, err, domain.ErrCardNotFound)
		return nil
	})
	require.NoError(t, err)

	err = store.Atomic(ctx, func(repo board.Repository) error {
		now := time.Now().UTC()
		return repo.Cards().Insert(ctx, &domain.Card{ID: uuid.NewString(), ListID: missing, Title: "Orphan", CreatedAt: now, UpdatedAt: now})
	})
	assert.ErrorIs(t, err, domain.ErrListNotFound)

	stale := f.cardAt(t, l.ID, 0)
	_, err = f.svc.UpdateCard(ctx, stale.ID, board.UpdateCardParams{Completed: ptr.To(true)})
	require.NoError(t, err)

	err = store.Atomic(ctx, func(repo board.Repository) error {
		stale.Place(l.ID, 0)
		return repo.Cards().SaveAll(ctx, []*domain.Card{stale})
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	err = store.Atomic(ctx, func(repo board.Repository) error {
		return repo.Cards().Delete(ctx, stale)
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, []string{"A", "B", "C"}, f.cards(t, l.ID))
}

func testReorder(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo", "A", "B", "C")
	a := f.cardAt(t, l.ID, 0)

	moved, err := f.svc.MoveCard(ctx, a.ID, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Position)
	assert.Equal(t, []string{"B", "C", "A"}, f.cards(t, l.ID))

	moved, err = f.svc.MoveCard(ctx, a.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
	assert.Equal(t, []string{"A", "B", "C"}, f.cards(t, l.ID))
}

func testDeleteClosesGap(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo", "A", "B", "C", "D", "E")

	require.NoError(t, f.svc.DeleteCard(ctx, f.cardAt(t, l.ID, 2).ID))
	assert.Equal(t, []string{"A", "B", "D", "E"}, f.cards(t, l.ID))
}

func testMoveAcross(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	source := f.list(t, "Source", "A", "B")
	target := f.list(t, "Target", "X", "Y")

	moved, err := f.svc.MoveCard(ctx, f.cardAt(t, source.ID, 0).ID, 1, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.ListID)
	assert.Equal(t, []string{"B"}, f.cards(t, source.ID))
	assert.Equal(t, []string{"X", "A", "Y"}, f.cards(t, target.ID))

	clone, err := f.svc.CloneCard(ctx, moved.ID, nil, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, clone.Position)
	assert.Equal(t, []string{"B", "A"}, f.cards(t, source.ID))
}

func testCapacity(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, ordering.StaticLimits{domain.KindCards: 2})
	full := f.list(t, "Full", "A", "B")
	other := f.list(t, "Other", "C")

	_, err := f.svc.CreateCard(ctx, full.ID, board.CardInput{Title: "Z"})
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	var limitErr *domain.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.Max)

	_, err = f.svc.MoveCard(ctx, f.cardAt(t, other.ID, 0).ID, 0, full.ID)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	_, err = f.svc.CloneCard(ctx, f.cardAt(t, other.ID, 0).ID, nil, full.ID)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	assert.Equal(t, []string{"A", "B"}, f.cards(t, full.ID))
	assert.Equal(t, []string{"C"}, f.cards(t, other.ID))
}

func testPositionValidation(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo", "A", "B", "C")
	a := f.cardAt(t, l.ID, 0)

	_, err := f.svc.MoveCard(ctx, a.ID, -1, "")
	assert.ErrorIs(t, err, domain.ErrPositionInvalid)
	_, err = f.svc.MoveCard(ctx, a.ID, 4, "")
	assert.ErrorIs(t, err, domain.ErrPositionOutOfRange)
	assert.Equal(t, []string{"A", "B", "C"}, f.cards(t, l.ID))

	// Moving to the container size appends.
	moved, err := f.svc.MoveCard(ctx, a.ID, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Position)
	assert.Equal(t, []string{"B", "C", "A"}, f.cards(t, l.ID))
}

func testNoOpMove(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo", "A", "B", "C")
	before, err := f.svc.Cards().Layout(ctx, l.ID)
	require.NoError(t, err)

	_, err = f.svc.MoveCard(ctx, before[1].ID, 1, "")
	require.NoError(t, err)

	after, err := f.svc.Cards().Layout(ctx, l.ID)
	require.NoError(t, err)
	for i := range before {
		assert.Equal(t, before[i].Version, after[i].Version)
	}
}

func testListOrdering(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	for _, title := range []string{"L0", "L1", "L2"} {
		f.list(t, title)
	}
	other, err := f.svc.CreateBoard(ctx, "Other")
	require.NoError(t, err)

	layout, err := f.svc.GetBoard(ctx, f.board.ID)
	require.NoError(t, err)
	first := layout.Lists[0].List

	_, err = f.svc.MoveList(ctx, first.ID, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2", "L0"}, listTitles(t, f.svc, f.board.ID))

	_, err = f.svc.MoveList(ctx, first.ID, 0, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, listTitles(t, f.svc, f.board.ID))
	assert.Equal(t, []string{"L0"}, listTitles(t, f.svc, other.ID))

	n, err := f.svc.Lists().Normalize(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func listTitles(t *testing.T, svc *board.Service, boardID string) []string {
	t.Helper()
	layout, err := svc.GetBoard(context.Background(), boardID)
	require.NoError(t, err)
	titles := make([]string, len(layout.Lists))
	for i, l := range layout.Lists {
		require.Equal(t, i, l.List.Position)
		titles[i] = l.List.Title
	}
	return titles
}

func testCascade(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	doomed := f.list(t, "Doomed", "A", "B")
	kept := f.list(t, "Kept", "C")
	card := f.cardAt(t, doomed.ID, 0)

	require.NoError(t, f.svc.DeleteList(ctx, doomed.ID))
	_, err := f.svc.GetCard(ctx, card.ID)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
	keptNow, err := f.svc.GetList(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, keptNow.Position)

	removed, err := f.svc.ClearList(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, f.cards(t, kept.ID))

	f.list(t, "More", "D")
	require.NoError(t, f.svc.DeleteBoard(ctx, f.board.ID))
	_, err = f.svc.GetList(ctx, kept.ID)
	assert.ErrorIs(t, err, domain.ErrListNotFound)
}

func testCardDetails(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Todo")
	due := time.Date(2026, 12, 24, 18, 30, 0, 0, time.UTC)

	card, err := f.svc.CreateCard(ctx, l.ID, board.CardInput{Title: "Ship", Description: "all of it", DueAt: &due})
	require.NoError(t, err)

	got, err := f.svc.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "all of it", got.Description)
	require.NotNil(t, got.DueAt)
	assert.True(t, due.Equal(*got.DueAt))

	updated, err := f.svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{
		Title:      ptr.To("Shipped"),
		Completed:  ptr.To(true),
		ClearDueAt: true,
		Etag:       ptr.To(got.Etag()),
	})
	require.NoError(t, err)
	assert.Equal(t, "Shipped", updated.Title)
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.DueAt)
	assert.Equal(t, got.Version+1, updated.Version)

	_, err = f.svc.UpdateCard(ctx, card.ID, board.UpdateCardParams{Title: ptr.To("Lost"), Etag: ptr.To(got.Etag())})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	renamed, err := f.svc.RenameList(ctx, l.ID, "Doing", ptr.To(l.Etag()))
	require.NoError(t, err)
	assert.Equal(t, "Doing", renamed.Title)
}

func testConcurrentMoves(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Busy", "A", "B", "C", "D", "E", "F")
	cards, err := f.svc.Cards().Layout(ctx, l.ID)
	require.NoError(t, err)

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers*5)
	for w := range workers {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, 99))
			for range 5 {
				card := cards[rng.IntN(len(cards))]
				if _, err := f.svc.MoveCard(ctx, card.ID, rng.IntN(len(cards)), ""); err != nil {
					errs <- err
				}
			}
		}(uint64(w))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E", "F"}, f.cards(t, l.ID))
}

func testConcurrentAppends(t *testing.T, store board.Store) {
	ctx := context.Background()
	f := newFixture(t, store, nil)
	l := f.list(t, "Inbox")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateCard(ctx, l.ID, board.CardInput{Title: "card"})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrVersionConflict)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, f.cards(t, l.ID), succeeded)
	assert.Positive(t, succeeded)
}
