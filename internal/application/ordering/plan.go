package ordering

import "github.com/rezkam/boardly/internal/domain"

// Planners mutate the children they are given in memory and return exactly
// the ones whose slot changed, ready for a single SaveAll.

// planReorder moves child to newPos inside its own container.
// siblings must contain every child positioned between the old and new
// positions inclusive; entries outside that window and the child itself are
// left untouched.
func planReorder[T domain.Positioned](child T, siblings []T, newPos int) []T {
	self := child.Slot()
	oldPos := self.Position
	changed := make([]T, 0, len(siblings)+1)

	for _, s := range siblings {
		slot := s.Slot()
		if slot.ID == self.ID {
			continue
		}
		switch {
		case newPos > oldPos && slot.Position > oldPos && slot.Position <= newPos:
			s.Place(self.ParentID, slot.Position-1)
		case newPos < oldPos && slot.Position >= newPos && slot.Position < oldPos:
			s.Place(self.ParentID, slot.Position+1)
		default:
			continue
		}
		changed = append(changed, s)
	}

	child.Place(self.ParentID, newPos)
	return append(changed, child)
}

// planMove re-parents child into targetParentID at newPos.
// sourceTail holds the source siblings after the child, targetTail the
// target children at or after newPos.
func planMove[T domain.Positioned](child T, sourceTail, targetTail []T, targetParentID string, newPos int) []T {
	self := child.Slot()
	changed := make([]T, 0, len(sourceTail)+len(targetTail)+1)

	for _, s := range sourceTail {
		slot := s.Slot()
		if slot.ID == self.ID || slot.Position <= self.Position {
			continue
		}
		s.Place(slot.ParentID, slot.Position-1)
		changed = append(changed, s)
	}
	for _, s := range targetTail {
		slot := s.Slot()
		if slot.Position < newPos {
			continue
		}
		s.Place(slot.ParentID, slot.Position+1)
		changed = append(changed, s)
	}

	child.Place(targetParentID, newPos)
	return append(changed, child)
}

// planRemoval closes the gap left at removedPos.
func planRemoval[T domain.Positioned](removedPos int, tail []T) []T {
	changed := make([]T, 0, len(tail))
	for _, s := range tail {
		slot := s.Slot()
		if slot.Position <= removedPos {
			continue
		}
		s.Place(slot.ParentID, slot.Position-1)
		changed = append(changed, s)
	}
	return changed
}

// planNormalize renumbers ordered to 0..n-1, keeping relative order.
func planNormalize[T domain.Positioned](ordered []T) []T {
	var changed []T
	for i, s := range ordered {
		slot := s.Slot()
		if slot.Position == i {
			continue
		}
		s.Place(slot.ParentID, i)
		changed = append(changed, s)
	}
	return changed
}
