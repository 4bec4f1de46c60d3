package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
)

// change is a buffered write. expected is the committed version the write
// was based on; inserted rows have none.
type change[V any] struct {
	value    V
	inserted bool
	deleted  bool
	expected int
}

// tx buffers writes until commit. Reads take the store lock briefly and merge
// committed rows with the buffer.
type tx struct {
	store    *Store
	boards   map[string]*change[domain.Board]
	lists    *children[domain.BoardList, *domain.BoardList]
	cards    *children[domain.Card, *domain.Card]
	observed map[stampKey]uint64
}

var _ board.Repository = (*tx)(nil)

func newTx(s *Store) *tx {
	t := &tx{
		store:    s,
		boards:   make(map[string]*change[domain.Board]),
		observed: make(map[stampKey]uint64),
	}
	t.lists = &children[domain.BoardList, *domain.BoardList]{
		tx:        t,
		kind:      domain.KindBoardLists,
		committed: func() map[string]domain.BoardList { return s.lists },
		changes:   make(map[string]*change[domain.BoardList]),
		parentExists: func(id string) bool {
			_, ok := t.currentBoard(id)
			return ok
		},
	}
	t.cards = &children[domain.Card, *domain.Card]{
		tx:        t,
		kind:      domain.KindCards,
		committed: func() map[string]domain.Card { return s.cards },
		changes:   make(map[string]*change[domain.Card]),
		parentExists: func(id string) bool {
			_, ok := t.lists.current(id)
			return ok
		},
	}
	return t
}

// observe records the stamp of a container the first time it is read.
// Must be called with the store lock held.
func (t *tx) observe(key stampKey) {
	if _, ok := t.observed[key]; !ok {
		t.observed[key] = t.store.stamps[key]
	}
}

func (t *tx) Lists() ordering.Repository[*domain.BoardList] { return t.lists }

func (t *tx) Cards() ordering.Repository[*domain.Card] { return t.cards }

// currentBoard must be called with the store lock held.
func (t *tx) currentBoard(id string) (domain.Board, bool) {
	if c, ok := t.boards[id]; ok {
		if c.deleted {
			return domain.Board{}, false
		}
		return c.value, true
	}
	b, ok := t.store.boards[id]
	return b, ok
}

func (t *tx) CreateBoard(_ context.Context, b *domain.Board) (*domain.Board, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, ok := t.currentBoard(b.ID); ok {
		return nil, fmt.Errorf("board %s already exists", b.ID)
	}
	created := *b
	created.Version = 1
	t.boards[b.ID] = &change[domain.Board]{value: created, inserted: true}
	return &created, nil
}

func (t *tx) FindBoardByID(_ context.Context, id string) (*domain.Board, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	b, ok := t.currentBoard(id)
	if !ok {
		return nil, domain.ErrBoardNotFound
	}
	return &b, nil
}

func (t *tx) ListBoards(_ context.Context) ([]*domain.Board, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	var out []*domain.Board
	for id := range t.store.boards {
		if _, changed := t.boards[id]; changed {
			continue
		}
		b := t.store.boards[id]
		out = append(out, &b)
	}
	for _, c := range t.boards {
		if c.deleted {
			continue
		}
		b := c.value
		out = append(out, &b)
	}
	slices.SortFunc(out, func(a, b *domain.Board) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) UpdateBoard(_ context.Context, b *domain.Board) (*domain.Board, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	cur, ok := t.currentBoard(b.ID)
	if !ok {
		return nil, domain.ErrBoardNotFound
	}
	if cur.Version != b.Version {
		return nil, domain.ErrVersionConflict
	}

	updated := cur
	updated.Title = b.Title
	updated.Archived = b.Archived
	updated.UpdatedAt = t.store.now()
	updated.Version = cur.Version + 1

	if c, ok := t.boards[b.ID]; ok {
		c.value = updated
	} else {
		t.boards[b.ID] = &change[domain.Board]{value: updated, expected: cur.Version}
	}
	return &updated, nil
}

func (t *tx) DeleteBoard(_ context.Context, id string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	cur, ok := t.currentBoard(id)
	if !ok {
		return domain.ErrBoardNotFound
	}
	if c, ok := t.boards[id]; ok {
		if c.inserted {
			delete(t.boards, id)
			return nil
		}
		c.deleted = true
		return nil
	}
	t.boards[id] = &change[domain.Board]{deleted: true, expected: cur.Version}
	return nil
}

func (t *tx) UpdateListTitle(_ context.Context, l *domain.BoardList) (*domain.BoardList, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	cur, ok := t.lists.current(l.ID)
	if !ok {
		return nil, domain.ErrListNotFound
	}
	if cur.Version != l.Version {
		return nil, domain.ErrVersionConflict
	}
	updated := cur
	updated.Title = l.Title
	updated.UpdatedAt = t.store.now()
	t.lists.write(&updated, cur.Version)
	return &updated, nil
}

func (t *tx) UpdateCardDetails(_ context.Context, c *domain.Card) (*domain.Card, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	cur, ok := t.cards.current(c.ID)
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	if cur.Version != c.Version {
		return nil, domain.ErrVersionConflict
	}
	updated := cur
	updated.Title = c.Title
	updated.Description = c.Description
	updated.Completed = c.Completed
	updated.DueAt = c.DueAt
	updated.UpdatedAt = t.store.now()
	t.cards.write(&updated, cur.Version)
	return &updated, nil
}
