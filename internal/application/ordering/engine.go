package ordering

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rezkam/boardly/internal/domain"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/metric"
)

// Default retry configuration for version conflicts.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 10 * time.Millisecond
)

// endOfContainer is the upper bound used for "everything after" range reads.
const endOfContainer = math.MaxInt32

// RetryConfig bounds how often a conflicting operation is re-run.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// Negative disables retries; zero applies DefaultMaxRetries.
	MaxRetries int
	BaseDelay  time.Duration
}

// Config holds configuration for an Engine.
type Config struct {
	Kind   domain.ContainerKind
	Limits LimitSource
	Retry  RetryConfig

	// Meter overrides the global meter. Optional.
	Meter metric.Meter
}

// CloneBuilder produces the new child for a clone, placed in parentID at position.
// It is called once per attempt.
type CloneBuilder[T domain.Positioned] func(original T, parentID string, position int) (T, error)

// Engine maintains dense zero-based positions for one container kind.
//
// Every mutating operation runs its read-validate-write cycle inside one
// Transactor unit. Repositories implementing WriteGuard are consulted in that
// same unit for every container written to; Normalize skips the guard because
// it never changes order. A domain.ErrVersionConflict from that unit re-runs the whole
// cycle with exponential backoff; every other error is returned as is.
type Engine[T domain.Positioned] struct {
	tx      Transactor[T]
	kind    domain.ContainerKind
	limits  LimitSource
	retry   RetryConfig
	metrics *engineMetrics
}

// NewEngine creates an ordering engine.
// Applies defaults for a missing limit source and zero retry settings.
func NewEngine[T domain.Positioned](tx Transactor[T], cfg Config) *Engine[T] {
	if cfg.Limits == nil {
		cfg.Limits = StaticLimits{}
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = DefaultMaxRetries
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = DefaultBaseDelay
	}

	return &Engine[T]{
		tx:      tx,
		kind:    cfg.Kind,
		limits:  cfg.Limits,
		retry:   cfg.Retry,
		metrics: newEngineMetrics(cfg.Meter, cfg.Kind),
	}
}

// Kind returns the container kind this engine manages.
func (e *Engine[T]) Kind() domain.ContainerKind { return e.kind }

func (e *Engine[T]) maxChildren() int {
	return e.limits.MaxChildren(e.kind)
}

func (e *Engine[T]) creationPolicy() CreationPolicy {
	return CreationPolicy{Kind: e.kind, Max: e.maxChildren()}
}

func (e *Engine[T]) movePolicy() MovePolicy {
	return MovePolicy{Kind: e.kind, Max: e.maxChildren()}
}

func (e *Engine[T]) clonePolicy() ClonePolicy {
	return ClonePolicy{Creation: e.creationPolicy()}
}

func (e *Engine[T]) backoff() retry.Backoff {
	b := retry.NewExponential(e.retry.BaseDelay)
	b = retry.WithJitter(max(e.retry.BaseDelay/2, time.Microsecond), b)
	return retry.WithMaxRetries(uint64(e.retry.MaxRetries), b)
}

// run executes fn in one atomic unit, retrying the whole unit on version conflicts.
// fn returns the number of children it wrote.
func (e *Engine[T]) run(ctx context.Context, op string, fn func(ctx context.Context, repo Repository[T]) (int, error)) error {
	var written int
	err := retry.Do(ctx, e.backoff(), func(ctx context.Context) error {
		err := e.tx.Atomic(ctx, func(repo Repository[T]) error {
			n, err := fn(ctx, repo)
			written = n
			return err
		})
		if errors.Is(err, domain.ErrVersionConflict) {
			e.metrics.conflict(ctx, op)
			return retry.RetryableError(err)
		}
		return err
	})

	e.metrics.outcome(ctx, op, err)
	if err == nil {
		e.metrics.written(ctx, op, written)
	}
	return err
}

func (e *Engine[T]) requireContainer(ctx context.Context, repo Repository[T], parentID string) error {
	if parentID == "" {
		return e.kind.ErrParentNotFound()
	}
	ok, err := repo.ContainerExists(ctx, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return e.kind.ErrParentNotFound()
	}
	return nil
}

// requireWritable asks a guarding repository whether each container accepts writes.
func (e *Engine[T]) requireWritable(ctx context.Context, repo Repository[T], parentIDs ...string) error {
	guard, ok := any(repo).(WriteGuard)
	if !ok {
		return nil
	}
	for _, id := range parentIDs {
		if err := guard.CheckWritable(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine[T]) nextPosition(ctx context.Context, repo Repository[T], parentID string) (int, error) {
	maxPos, ok, err := repo.FindMaxPosition(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return maxPos + 1, nil
}

// Create appends child to the container named by its parent ID.
// The child's position is assigned here; any incoming position is ignored.
func (e *Engine[T]) Create(ctx context.Context, child T) (T, error) {
	parentID := child.Slot().ParentID

	err := e.run(ctx, "create", func(ctx context.Context, repo Repository[T]) (int, error) {
		if err := e.requireContainer(ctx, repo, parentID); err != nil {
			return 0, err
		}
		if err := e.requireWritable(ctx, repo, parentID); err != nil {
			return 0, err
		}
		count, err := repo.CountByParent(ctx, parentID)
		if err != nil {
			return 0, err
		}
		if err := e.creationPolicy().CanCreate(parentID, count); err != nil {
			return 0, err
		}
		pos, err := e.nextPosition(ctx, repo, parentID)
		if err != nil {
			return 0, err
		}
		child.Place(parentID, pos)
		return 1, repo.Insert(ctx, child)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return child, nil
}

// Reorder moves a child to newPosition inside its current container.
// An unchanged position returns the child without writing anything.
func (e *Engine[T]) Reorder(ctx context.Context, childID string, newPosition int) (T, error) {
	var out T
	err := e.run(ctx, "reorder", func(ctx context.Context, repo Repository[T]) (int, error) {
		child, err := repo.FindByID(ctx, childID)
		if err != nil {
			return 0, err
		}
		out = child
		if err := e.requireWritable(ctx, repo, child.Slot().ParentID); err != nil {
			return 0, err
		}
		return e.reorder(ctx, repo, child, newPosition)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (e *Engine[T]) reorder(ctx context.Context, repo Repository[T], child T, newPosition int) (int, error) {
	slot := child.Slot()
	policy := e.movePolicy()

	if !policy.HasPositionChanged(slot, newPosition) {
		return 0, nil
	}

	count, err := repo.CountByParent(ctx, slot.ParentID)
	if err != nil {
		return 0, err
	}
	if err := policy.CanMoveWithinContainer(slot, newPosition, count); err != nil {
		return 0, err
	}

	// newPosition == count means "last"; once the child is lifted out the
	// last slot is count-1.
	target := min(newPosition, count-1)
	if !policy.HasPositionChanged(slot, target) {
		return 0, nil
	}

	siblings, err := repo.FindByParentAndPositionRange(ctx, slot.ParentID,
		min(slot.Position, target), max(slot.Position, target))
	if err != nil {
		return 0, err
	}

	changed := planReorder(child, siblings, target)
	if err := repo.SaveAll(ctx, changed); err != nil {
		return 0, err
	}
	return len(changed), nil
}

// Move places a child at newPosition in targetParentID.
// When targetParentID is empty or the child's own container, Move behaves like Reorder.
func (e *Engine[T]) Move(ctx context.Context, childID, targetParentID string, newPosition int) (T, error) {
	var out T
	err := e.run(ctx, "move", func(ctx context.Context, repo Repository[T]) (int, error) {
		child, err := repo.FindByID(ctx, childID)
		if err != nil {
			return 0, err
		}
		out = child

		slot := child.Slot()
		if err := e.requireWritable(ctx, repo, slot.ParentID); err != nil {
			return 0, err
		}
		if targetParentID == "" || targetParentID == slot.ParentID {
			return e.reorder(ctx, repo, child, newPosition)
		}

		if newPosition < 0 {
			return 0, domain.ErrPositionInvalid
		}
		if err := e.requireContainer(ctx, repo, targetParentID); err != nil {
			return 0, err
		}
		if err := e.requireWritable(ctx, repo, targetParentID); err != nil {
			return 0, err
		}
		targetCount, err := repo.CountByParent(ctx, targetParentID)
		if err != nil {
			return 0, err
		}
		if err := e.movePolicy().CanMoveToAnotherContainer(slot, targetParentID, newPosition, targetCount); err != nil {
			return 0, err
		}

		sourceTail, err := repo.FindByParentAndPositionRange(ctx, slot.ParentID, slot.Position+1, endOfContainer)
		if err != nil {
			return 0, err
		}
		targetTail, err := repo.FindByParentAndPositionRange(ctx, targetParentID, newPosition, endOfContainer)
		if err != nil {
			return 0, err
		}

		changed := planMove(child, sourceTail, targetTail, targetParentID, newPosition)
		if err := repo.SaveAll(ctx, changed); err != nil {
			return 0, err
		}
		return len(changed), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Clone appends a copy of a child to targetParentID, or to the child's own
// container when targetParentID is empty.
func (e *Engine[T]) Clone(ctx context.Context, childID, targetParentID string, build CloneBuilder[T]) (T, error) {
	var out T
	err := e.run(ctx, "clone", func(ctx context.Context, repo Repository[T]) (int, error) {
		original, err := repo.FindByID(ctx, childID)
		if err != nil {
			return 0, err
		}
		slot := original.Slot()
		policy := e.clonePolicy()
		if err := e.requireWritable(ctx, repo, slot.ParentID); err != nil {
			return 0, err
		}

		target := targetParentID
		if target == "" || target == slot.ParentID {
			target = slot.ParentID
			count, err := repo.CountByParent(ctx, target)
			if err != nil {
				return 0, err
			}
			if err := policy.CanCloneWithinSameContainer(slot, count); err != nil {
				return 0, err
			}
		} else {
			if err := e.requireContainer(ctx, repo, target); err != nil {
				return 0, err
			}
			if err := e.requireWritable(ctx, repo, target); err != nil {
				return 0, err
			}
			count, err := repo.CountByParent(ctx, target)
			if err != nil {
				return 0, err
			}
			if err := policy.CanCloneToAnotherContainer(slot, target, count); err != nil {
				return 0, err
			}
		}

		pos, err := e.nextPosition(ctx, repo, target)
		if err != nil {
			return 0, err
		}
		clone, err := build(original, target, pos)
		if err != nil {
			return 0, err
		}
		clone.Place(target, pos)
		if err := repo.Insert(ctx, clone); err != nil {
			return 0, err
		}
		out = clone
		return 1, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Delete removes a child and closes the gap it leaves in the same unit.
func (e *Engine[T]) Delete(ctx context.Context, childID string) error {
	return e.run(ctx, "delete", func(ctx context.Context, repo Repository[T]) (int, error) {
		child, err := repo.FindByID(ctx, childID)
		if err != nil {
			return 0, err
		}
		slot := child.Slot()
		if err := e.requireWritable(ctx, repo, slot.ParentID); err != nil {
			return 0, err
		}

		tail, err := repo.FindByParentAndPositionRange(ctx, slot.ParentID, slot.Position+1, endOfContainer)
		if err != nil {
			return 0, err
		}
		if err := repo.Delete(ctx, child); err != nil {
			return 0, err
		}

		changed := planRemoval(slot.Position, tail)
		if err := repo.SaveAll(ctx, changed); err != nil {
			return 0, err
		}
		return len(changed) + 1, nil
	})
}

// DeleteContainer removes every child of parentID. The container itself is untouched.
func (e *Engine[T]) DeleteContainer(ctx context.Context, parentID string) (int, error) {
	var removed int
	err := e.run(ctx, "delete_container", func(ctx context.Context, repo Repository[T]) (int, error) {
		if err := e.requireContainer(ctx, repo, parentID); err != nil {
			return 0, err
		}
		if err := e.requireWritable(ctx, repo, parentID); err != nil {
			return 0, err
		}
		n, err := repo.DeleteByParent(ctx, parentID)
		removed = n
		return n, err
	})
	return removed, err
}

// Normalize renumbers the children of parentID to 0..n-1 in their current
// order and returns how many were rewritten.
func (e *Engine[T]) Normalize(ctx context.Context, parentID string) (int, error) {
	var rewritten int
	err := e.run(ctx, "normalize", func(ctx context.Context, repo Repository[T]) (int, error) {
		if err := e.requireContainer(ctx, repo, parentID); err != nil {
			return 0, err
		}
		ordered, err := repo.FindOrderedByParent(ctx, parentID)
		if err != nil {
			return 0, err
		}
		changed := planNormalize(ordered)
		if err := repo.SaveAll(ctx, changed); err != nil {
			return 0, err
		}
		rewritten = len(changed)
		return rewritten, nil
	})
	return rewritten, err
}

// Get returns a single child.
func (e *Engine[T]) Get(ctx context.Context, childID string) (T, error) {
	var out T
	err := e.tx.Atomic(ctx, func(repo Repository[T]) error {
		child, err := repo.FindByID(ctx, childID)
		out = child
		return err
	})
	return out, err
}

// Layout returns the children of parentID ordered by position.
func (e *Engine[T]) Layout(ctx context.Context, parentID string) ([]T, error) {
	var out []T
	err := e.tx.Atomic(ctx, func(repo Repository[T]) error {
		if err := e.requireContainer(ctx, repo, parentID); err != nil {
			return err
		}
		children, err := repo.FindOrderedByParent(ctx, parentID)
		out = children
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Capacity reports how full parentID is.
func (e *Engine[T]) Capacity(ctx context.Context, parentID string) (domain.Capacity, error) {
	var count int
	err := e.tx.Atomic(ctx, func(repo Repository[T]) error {
		if err := e.requireContainer(ctx, repo, parentID); err != nil {
			return err
		}
		n, err := repo.CountByParent(ctx, parentID)
		count = n
		return err
	})
	if err != nil {
		return domain.Capacity{}, err
	}
	return e.CapacityFor(parentID, count), nil
}

// CapacityFor builds a capacity report for a container already known to hold count children.
func (e *Engine[T]) CapacityFor(parentID string, count int) domain.Capacity {
	policy := e.creationPolicy()
	status := domain.CapacityNormal
	if s, ok := e.limits.(StatusSource); ok {
		status = s.Status(e.kind, count)
	} else if count >= policy.Max {
		status = domain.CapacityLimitReached
	}
	return domain.Capacity{
		Kind:      e.kind,
		ParentID:  parentID,
		Count:     count,
		Max:       policy.Max,
		Available: policy.AvailableSlots(count),
		Status:    status,
	}
}
