// Package memory provides an in-process implementation of the board store.
//
// Transactions are optimistic: reads see the latest committed state, writes
// are buffered, and commit validates every written row's version and every
// container the transaction read from. Any mismatch aborts the commit with
// domain.ErrVersionConflict and leaves the committed state untouched.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/domain"
)

// Compile-time verification that Store implements the board store port.
var _ board.Store = (*Store)(nil)

// stampKey names one container. Its stamp changes whenever the set of
// children or their positions change.
type stampKey struct {
	kind     domain.ContainerKind
	parentID string
}

// Store is a thread-safe in-memory board store.
type Store struct {
	mu     sync.Mutex
	boards map[string]domain.Board
	lists  map[string]domain.BoardList
	cards  map[string]domain.Card
	stamps map[stampKey]uint64
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		boards: make(map[string]domain.Board),
		lists:  make(map[string]domain.BoardList),
		cards:  make(map[string]domain.Card),
		stamps: make(map[stampKey]uint64),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op kept for parity with the SQL stores.
func (s *Store) Close() error { return nil }

// Atomic executes fn within an optimistic transaction.
// The store lock is never held while fn runs.
func (s *Store) Atomic(ctx context.Context, fn func(repo board.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(t)
}

// commit validates t against the committed state and applies it.
// Must be called with s.mu held.
func (s *Store) commit(t *tx) error {
	for key, seen := range t.observed {
		if s.stamps[key] != seen {
			return fmt.Errorf("%s %s changed concurrently: %w", key.kind.ParentNoun(), key.parentID, domain.ErrVersionConflict)
		}
	}

	boards := maps.Clone(s.boards)
	lists := maps.Clone(s.lists)
	cards := maps.Clone(s.cards)
	touched := make(map[stampKey]struct{})

	for id, c := range t.boards {
		cur, ok := boards[id]
		switch {
		case c.inserted:
			if ok {
				return fmt.Errorf("board %s: %w", id, domain.ErrVersionConflict)
			}
			boards[id] = c.value
		case !ok || cur.Version != c.expected:
			return fmt.Errorf("board %s: %w", id, domain.ErrVersionConflict)
		case c.deleted:
			delete(boards, id)
			touched[stampKey{domain.KindBoardLists, id}] = struct{}{}
		default:
			boards[id] = c.value
		}
	}

	if err := applyChanges(lists, t.lists.changes, domain.KindBoardLists, touched); err != nil {
		return err
	}
	if err := applyChanges(cards, t.cards.changes, domain.KindCards, touched); err != nil {
		return err
	}

	// Rows written by this transaction must point at a live parent; rows that
	// merely belonged to a removed parent cascade away.
	if err := checkParents(lists, t.lists.changes, func(id string) bool { _, ok := boards[id]; return ok }); err != nil {
		return err
	}
	for id, l := range lists {
		if _, ok := boards[l.BoardID]; !ok {
			delete(lists, id)
			touched[stampKey{domain.KindBoardLists, l.BoardID}] = struct{}{}
		}
	}
	if err := checkParents(cards, t.cards.changes, func(id string) bool { _, ok := lists[id]; return ok }); err != nil {
		return err
	}
	for id, c := range cards {
		if _, ok := lists[c.ListID]; !ok {
			delete(cards, id)
			touched[stampKey{domain.KindCards, c.ListID}] = struct{}{}
		}
	}

	if err := checkUniquePositions(lists, domain.KindBoardLists, touched); err != nil {
		return err
	}
	if err := checkUniquePositions(cards, domain.KindCards, touched); err != nil {
		return err
	}

	for key := range touched {
		s.stamps[key]++
	}
	s.boards, s.lists, s.cards = boards, lists, cards
	return nil
}

// applyChanges merges buffered child writes into rows, recording every
// container whose membership or ordering changed.
func applyChanges[V any, P entity[V]](rows map[string]V, changes map[string]*change[V], kind domain.ContainerKind, touched map[stampKey]struct{}) error {
	for id, c := range changes {
		cur, exists := rows[id]
		if c.inserted {
			if exists {
				return fmt.Errorf("%s %s already exists: %w", kind.ChildNoun(), id, domain.ErrVersionConflict)
			}
		} else if !exists || P(&cur).Slot().Version != c.expected {
			return fmt.Errorf("%s %s: %w", kind.ChildNoun(), id, domain.ErrVersionConflict)
		}

		if c.deleted {
			delete(rows, id)
			touched[stampKey{kind, P(&cur).Slot().ParentID}] = struct{}{}
			continue
		}

		next := c.value
		after := P(&next).Slot()
		rows[id] = next
		if !exists {
			touched[stampKey{kind, after.ParentID}] = struct{}{}
			continue
		}
		before := P(&cur).Slot()
		if before.ParentID != after.ParentID || before.Position != after.Position {
			touched[stampKey{kind, before.ParentID}] = struct{}{}
			touched[stampKey{kind, after.ParentID}] = struct{}{}
		}
	}
	return nil
}

func checkParents[V any, P entity[V]](rows map[string]V, changes map[string]*change[V], parentExists func(string) bool) error {
	for id, c := range changes {
		if c.deleted {
			continue
		}
		v, ok := rows[id]
		if !ok {
			continue
		}
		if parent := P(&v).Slot().ParentID; !parentExists(parent) {
			return fmt.Errorf("parent %s of %s is gone: %w", parent, id, domain.ErrVersionConflict)
		}
	}
	return nil
}

func checkUniquePositions[V any, P entity[V]](rows map[string]V, kind domain.ContainerKind, touched map[stampKey]struct{}) error {
	seen := make(map[stampKey]map[int]string)
	for id, v := range rows {
		slot := P(&v).Slot()
		key := stampKey{kind, slot.ParentID}
		if _, ok := touched[key]; !ok {
			continue
		}
		positions := seen[key]
		if positions == nil {
			positions = make(map[int]string)
			seen[key] = positions
		}
		if other, dup := positions[slot.Position]; dup {
			return fmt.Errorf("%s %s and %s share position %d in %s %s: %w",
				kind.ChildNoun(), other, id, slot.Position, kind.ParentNoun(), slot.ParentID, domain.ErrVersionConflict)
		}
		positions[slot.Position] = id
	}
	return nil
}
