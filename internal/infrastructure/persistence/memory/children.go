package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
)

// entity is a positioned row stored by value.
type entity[V any] interface {
	*V
	domain.Positioned
}

// children is the transactional view over one positioned table.
type children[V any, P entity[V]] struct {
	tx           *tx
	kind         domain.ContainerKind
	committed    func() map[string]V
	changes      map[string]*change[V]
	parentExists func(parentID string) bool
}

var (
	_ ordering.Repository[*domain.BoardList] = (*children[domain.BoardList, *domain.BoardList])(nil)
	_ ordering.Repository[*domain.Card]      = (*children[domain.Card, *domain.Card])(nil)
)

func (r *children[V, P]) lock() func() {
	r.tx.store.mu.Lock()
	return r.tx.store.mu.Unlock
}

// current returns the row as this transaction sees it. Lock must be held.
func (r *children[V, P]) current(id string) (V, bool) {
	if c, ok := r.changes[id]; ok {
		if c.deleted {
			var zero V
			return zero, false
		}
		return c.value, true
	}
	v, ok := r.committed()[id]
	return v, ok
}

// view returns copies of every row under parentID ordered by position.
// Lock must be held.
func (r *children[V, P]) view(parentID string) []P {
	r.tx.observe(stampKey{r.kind, parentID})

	var out []P
	for id, v := range r.committed() {
		if _, changed := r.changes[id]; changed {
			continue
		}
		if P(&v).Slot().ParentID == parentID {
			out = append(out, P(&v))
		}
	}
	for _, c := range r.changes {
		if c.deleted {
			continue
		}
		v := c.value
		if P(&v).Slot().ParentID == parentID {
			out = append(out, P(&v))
		}
	}
	slices.SortFunc(out, func(a, b P) int {
		sa, sb := a.Slot(), b.Slot()
		return cmp.Or(cmp.Compare(sa.Position, sb.Position), cmp.Compare(sa.ID, sb.ID))
	})
	return out
}

// write buffers child as the next version after expected. Lock must be held.
func (r *children[V, P]) write(child P, expected int) {
	child.SetVersion(expected + 1)
	if t, ok := any(child).(domain.Toucher); ok {
		t.Touch(r.tx.store.now())
	}
	id := child.Slot().ID
	if c, ok := r.changes[id]; ok {
		c.value = *child
		return
	}
	r.changes[id] = &change[V]{value: *child, expected: expected}
}

func (r *children[V, P]) FindByID(_ context.Context, id string) (P, error) {
	defer r.lock()()

	v, ok := r.current(id)
	if !ok {
		return nil, r.kind.ErrChildNotFound()
	}
	return P(&v), nil
}

func (r *children[V, P]) ContainerExists(_ context.Context, parentID string) (bool, error) {
	defer r.lock()()

	r.tx.observe(stampKey{r.kind, parentID})
	return r.parentExists(parentID), nil
}

func (r *children[V, P]) CountByParent(_ context.Context, parentID string) (int, error) {
	defer r.lock()()
	return len(r.view(parentID)), nil
}

func (r *children[V, P]) FindOrderedByParent(_ context.Context, parentID string) ([]P, error) {
	defer r.lock()()
	return r.view(parentID), nil
}

func (r *children[V, P]) FindByParentAndPosition(_ context.Context, parentID string, position int) (P, error) {
	defer r.lock()()

	for _, child := range r.view(parentID) {
		if child.Slot().Position == position {
			return child, nil
		}
	}
	return nil, r.kind.ErrChildNotFound()
}

func (r *children[V, P]) FindByParentAndPositionRange(_ context.Context, parentID string, lo, hi int) ([]P, error) {
	defer r.lock()()

	var out []P
	for _, child := range r.view(parentID) {
		if pos := child.Slot().Position; pos >= lo && pos <= hi {
			out = append(out, child)
		}
	}
	return out, nil
}

func (r *children[V, P]) FindMaxPosition(_ context.Context, parentID string) (int, bool, error) {
	defer r.lock()()

	rows := r.view(parentID)
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[len(rows)-1].Slot().Position, true, nil
}

func (r *children[V, P]) Insert(_ context.Context, child P) error {
	defer r.lock()()

	slot := child.Slot()
	if !r.parentExists(slot.ParentID) {
		return r.kind.ErrParentNotFound()
	}
	if _, ok := r.current(slot.ID); ok {
		return fmt.Errorf("%s %s already exists", r.kind.ChildNoun(), slot.ID)
	}
	if _, ok := r.committed()[slot.ID]; ok {
		return fmt.Errorf("%s %s was removed in this transaction and cannot be reinserted", r.kind.ChildNoun(), slot.ID)
	}

	r.tx.observe(stampKey{r.kind, slot.ParentID})
	child.SetVersion(1)
	r.changes[slot.ID] = &change[V]{value: *child, inserted: true}
	return nil
}

func (r *children[V, P]) SaveAll(_ context.Context, children []P) error {
	if len(children) == 0 {
		return nil
	}
	defer r.lock()()

	for _, child := range children {
		slot := child.Slot()
		cur, ok := r.current(slot.ID)
		if !ok || P(&cur).Slot().Version != slot.Version {
			return fmt.Errorf("%s %s at version %d: %w", r.kind.ChildNoun(), slot.ID, slot.Version, domain.ErrVersionConflict)
		}
		r.write(child, slot.Version)
	}
	return nil
}

func (r *children[V, P]) Delete(_ context.Context, child P) error {
	defer r.lock()()

	slot := child.Slot()
	cur, ok := r.current(slot.ID)
	if !ok {
		return r.kind.ErrChildNotFound()
	}
	if P(&cur).Slot().Version != slot.Version {
		return fmt.Errorf("%s %s at version %d: %w", r.kind.ChildNoun(), slot.ID, slot.Version, domain.ErrVersionConflict)
	}
	r.remove(slot.ID, slot.Version)
	return nil
}

// remove buffers a delete. Lock must be held.
func (r *children[V, P]) remove(id string, version int) {
	if c, ok := r.changes[id]; ok {
		if c.inserted {
			delete(r.changes, id)
			return
		}
		c.deleted = true
		return
	}
	r.changes[id] = &change[V]{deleted: true, expected: version}
}

func (r *children[V, P]) DeleteByParent(_ context.Context, parentID string) (int, error) {
	defer r.lock()()

	rows := r.view(parentID)
	for _, child := range rows {
		r.remove(child.Slot().ID, child.Slot().Version)
	}
	return len(rows), nil
}
