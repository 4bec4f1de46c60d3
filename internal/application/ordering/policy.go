package ordering

import "github.com/rezkam/boardly/internal/domain"

// Policies are pure validators. Callers read the counts they need from the
// repository and pass them in explicitly.

// CreationPolicy decides whether a new child may be appended to a container.
type CreationPolicy struct {
	Kind domain.ContainerKind
	Max  int
}

// CanCreate succeeds iff count < Max.
func (p CreationPolicy) CanCreate(parentID string, count int) error {
	if count >= p.Max {
		return &domain.LimitExceededError{Kind: p.Kind, ParentID: parentID, Max: p.Max, Current: count}
	}
	return nil
}

// AvailableSlots returns how many more children fit.
func (p CreationPolicy) AvailableSlots(count int) int {
	return max(p.Max-count, 0)
}

// MovePolicy validates reorder and cross-container move targets.
type MovePolicy struct {
	Kind domain.ContainerKind
	Max  int
}

// CanMoveWithinContainer validates newPosition against the child's own container.
// The allowed range is [0, count]; count means "move to the end".
// No capacity check: the child already counts toward the container.
func (p MovePolicy) CanMoveWithinContainer(child domain.Slot, newPosition, count int) error {
	if newPosition < 0 {
		return domain.ErrPositionInvalid
	}
	if newPosition > count {
		return &domain.PositionError{Position: newPosition, Max: count}
	}
	return nil
}

// CanMoveToAnotherContainer validates a move into targetParentID.
// Checks run in order and stop at the first failure: position sign, target
// capacity, then the target range [0, targetCount]. targetCount excludes the
// moving child.
func (p MovePolicy) CanMoveToAnotherContainer(child domain.Slot, targetParentID string, newPosition, targetCount int) error {
	if newPosition < 0 {
		return domain.ErrPositionInvalid
	}
	if targetCount >= p.Max {
		return &domain.LimitExceededError{Kind: p.Kind, ParentID: targetParentID, Max: p.Max, Current: targetCount}
	}
	if newPosition > targetCount {
		return &domain.PositionError{Position: newPosition, Max: targetCount}
	}
	return nil
}

// HasPositionChanged reports whether newPosition differs from the child's position.
func (p MovePolicy) HasPositionChanged(child domain.Slot, newPosition int) bool {
	return child.Position != newPosition
}

// IsValidMove dispatches to the same-container or cross-container check.
// An empty targetParentID means the child's own container.
func (p MovePolicy) IsValidMove(child domain.Slot, targetParentID string, newPosition, count int) error {
	if targetParentID == "" || targetParentID == child.ParentID {
		return p.CanMoveWithinContainer(child, newPosition, count)
	}
	return p.CanMoveToAnotherContainer(child, targetParentID, newPosition, count)
}

// ClonePolicy validates duplicating a child. A clone is always appended, so
// only the capacity of the receiving container matters.
type ClonePolicy struct {
	Creation CreationPolicy
}

func (p ClonePolicy) CanCloneWithinSameContainer(original domain.Slot, sourceCount int) error {
	return p.Creation.CanCreate(original.ParentID, sourceCount)
}

func (p ClonePolicy) CanCloneToAnotherContainer(original domain.Slot, targetParentID string, targetCount int) error {
	return p.Creation.CanCreate(targetParentID, targetCount)
}

func BoardListCreationPolicy(maxLists int) CreationPolicy {
	return CreationPolicy{Kind: domain.KindBoardLists, Max: maxLists}
}

func BoardListMovePolicy(maxLists int) MovePolicy {
	return MovePolicy{Kind: domain.KindBoardLists, Max: maxLists}
}

func CardCreationPolicy(maxCards int) CreationPolicy {
	return CreationPolicy{Kind: domain.KindCards, Max: maxCards}
}

func CardMovePolicy(maxCards int) MovePolicy {
	return MovePolicy{Kind: domain.KindCards, Max: maxCards}
}

func CardClonePolicy(maxCards int) ClonePolicy {
	return ClonePolicy{Creation: CardCreationPolicy(maxCards)}
}
