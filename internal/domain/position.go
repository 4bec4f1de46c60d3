package domain

import "time"

// Slot is the projection of a positioned child the ordering engine works on.
type Slot struct {
	ID       string
	ParentID string
	Position int
	Version  int
}

// Positioned is implemented by every entity that holds a dense, zero-based
// position inside a parent container.
//
// Place re-parents and repositions the entity in memory only; persistence
// happens through a repository. SetVersion is called by repositories after a
// successful conditional write.
type Positioned interface {
	Slot() Slot
	Place(parentID string, position int)
	SetVersion(v int)
}

// ContainerKind names a parent/child relationship the ordering engine manages.
type ContainerKind string

const (
	KindBoardLists ContainerKind = "board_lists"
	KindCards      ContainerKind = "cards"
)

// ParentNoun is the human-readable name of the container side.
func (k ContainerKind) ParentNoun() string {
	switch k {
	case KindBoardLists:
		return "board"
	case KindCards:
		return "list"
	default:
		return "container"
	}
}

// ChildNoun is the human-readable plural name of the child side.
func (k ContainerKind) ChildNoun() string {
	switch k {
	case KindBoardLists:
		return "lists"
	case KindCards:
		return "cards"
	default:
		return "children"
	}
}

// Capacity defaults used when no limit is configured.
const (
	DefaultMaxListsPerBoard = 20
	DefaultMaxCardsPerList  = 100
)

// DefaultMaxChildren returns the documented default capacity for kind.
func (k ContainerKind) DefaultMaxChildren() int {
	if k == KindBoardLists {
		return DefaultMaxListsPerBoard
	}
	return DefaultMaxCardsPerList
}

// ErrParentNotFound is the not-found error for the container side of kind.
func (k ContainerKind) ErrParentNotFound() error {
	if k == KindBoardLists {
		return ErrBoardNotFound
	}
	return ErrListNotFound
}

// ErrChildNotFound is the not-found error for the child side of kind.
func (k ContainerKind) ErrChildNotFound() error {
	if k == KindBoardLists {
		return ErrListNotFound
	}
	return ErrCardNotFound
}

// Toucher is implemented by entities that track their modification time.
type Toucher interface {
	Touch(at time.Time)
}
