package domain

import (
	"errors"
	"fmt"
)

// Domain errors returned by repository implementations and the ordering engine.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrBoardNotFound indicates the specified board does not exist.
	ErrBoardNotFound = errors.New("board not found")

	// ErrListNotFound indicates the specified list does not exist.
	ErrListNotFound = errors.New("list not found")

	// ErrCardNotFound indicates the specified card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrTitleRequired indicates the title is empty after trimming.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong indicates the title exceeds the length allowed for its kind.
	ErrTitleTooLong = errors.New("title is too long")

	// ErrDescriptionTooLong indicates a card description over the configured length.
	ErrDescriptionTooLong = errors.New("description is too long")

	// ErrSearchTermRequired indicates an empty search term.
	ErrSearchTermRequired = errors.New("search term is required")

	// ErrInvalidEtag indicates the etag is not a version number.
	ErrInvalidEtag = errors.New("invalid etag format")

	// ErrBoardArchived indicates a structural change was attempted on an archived board.
	ErrBoardArchived = errors.New("board is archived")
)

// Ordering errors. All are recoverable by the caller; only ErrVersionConflict
// is retried automatically.
var (
	// ErrPositionInvalid indicates a negative target position.
	ErrPositionInvalid = errors.New("position must not be negative")

	// ErrPositionOutOfRange indicates a target position past the allowed bound.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrLimitExceeded indicates the target container is at capacity.
	ErrLimitExceeded = errors.New("container limit exceeded")

	// ErrVersionConflict indicates an optimistic concurrency mismatch at write time.
	ErrVersionConflict = errors.New("version conflict")
)

// LimitExceededError carries the configured maximum and the observed count.
type LimitExceededError struct {
	Kind     ContainerKind
	ParentID string
	Max      int
	Current  int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s %s already holds %d of at most %d %s",
		e.Kind.ParentNoun(), e.ParentID, e.Current, e.Max, e.Kind.ChildNoun())
}

func (e *LimitExceededError) Is(target error) bool { return target == ErrLimitExceeded }

// PositionError reports a rejected target position together with the allowed maximum.
type PositionError struct {
	Position int
	Max      int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position %d is outside [0, %d]", e.Position, e.Max)
}

func (e *PositionError) Is(target error) bool { return target == ErrPositionOutOfRange }
