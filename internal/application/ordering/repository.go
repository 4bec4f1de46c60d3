package ordering

import (
	"context"

	"github.com/rezkam/boardly/internal/domain"
)

// Repository defines the persistence operations the ordering engine needs for
// one container kind.
//
// Implementations must return domain errors:
//   - FindByID / FindByParentAndPosition: the kind's child not-found error
//   - Insert: the kind's parent not-found error if the parent is gone
//   - SaveAll / Delete: domain.ErrVersionConflict when a child's stored
//     version differs from the one it was read with
//
// Writes are only guaranteed atomic when issued through a Transactor.
type Repository[T domain.Positioned] interface {
	FindByID(ctx context.Context, id string) (T, error)
	ContainerExists(ctx context.Context, parentID string) (bool, error)
	CountByParent(ctx context.Context, parentID string) (int, error)

	// FindOrderedByParent returns every child of parentID ordered by position.
	FindOrderedByParent(ctx context.Context, parentID string) ([]T, error)
	FindByParentAndPosition(ctx context.Context, parentID string, position int) (T, error)

	// FindByParentAndPositionRange returns the children with lo <= position <= hi,
	// ordered by position.
	FindByParentAndPositionRange(ctx context.Context, parentID string, lo, hi int) ([]T, error)

	// FindMaxPosition returns the highest position in parentID, or false when empty.
	FindMaxPosition(ctx context.Context, parentID string) (int, bool, error)

	// Insert stores a new child and sets its version to 1.
	Insert(ctx context.Context, child T) error

	// SaveAll writes parent and position of every child, conditional on the
	// version each child carries, and increments those versions in place.
	SaveAll(ctx context.Context, children []T) error

	// Delete removes child, conditional on its version.
	Delete(ctx context.Context, child T) error

	// DeleteByParent removes every child of parentID and returns how many were removed.
	DeleteByParent(ctx context.Context, parentID string) (int, error)
}

// WriteGuard is optionally implemented by a Repository whose containers can
// refuse structural changes. The engine calls CheckWritable for every
// container an operation writes to, inside the same unit as the write.
type WriteGuard interface {
	CheckWritable(ctx context.Context, parentID string) error
}

// Transactor runs fn as one all-or-nothing unit against the backing store.
// Nothing fn writes is visible to other units unless fn returns nil and the
// commit succeeds.
type Transactor[T domain.Positioned] interface {
	Atomic(ctx context.Context, fn func(repo Repository[T]) error) error
}

// TransactorFunc adapts a function to the Transactor interface.
type TransactorFunc[T domain.Positioned] func(ctx context.Context, fn func(repo Repository[T]) error) error

func (f TransactorFunc[T]) Atomic(ctx context.Context, fn func(repo Repository[T]) error) error {
	return f(ctx, fn)
}

// LimitSource provides the maximum number of children per container.
type LimitSource interface {
	MaxChildren(kind domain.ContainerKind) int
}

// StatusSource optionally classifies a container's fill level. A LimitSource
// that also implements StatusSource drives Engine.Capacity reports.
type StatusSource interface {
	Status(kind domain.ContainerKind, count int) domain.CapacityStatus
}

// StaticLimits is a fixed LimitSource. Zero entries fall back to the kind's default.
type StaticLimits map[domain.ContainerKind]int

func (l StaticLimits) MaxChildren(kind domain.ContainerKind) int {
	if n := l[kind]; n > 0 {
		return n
	}
	return kind.DefaultMaxChildren()
}
