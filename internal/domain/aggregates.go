package domain

import (
	"strconv"
	"time"
)

// Board is an aggregate root holding an ordered set of lists.
//
// Lists are NOT included in this aggregate. They are fetched through the
// list repository ordered by position, so a board read never loads cards
// it does not need.
type Board struct {
	ID        string
	Title     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection
	Version int
}

// Etag returns the entity tag for this board.
// The etag is based on the version number and is used for optimistic concurrency control.
func (b *Board) Etag() string {
	return strconv.Itoa(b.Version)
}

// BoardList is a positioned child of a Board and the container of cards.
type BoardList struct {
	ID        string
	BoardID   string
	Title     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version, bumped on every write including pure position changes
	Version int
}

// Etag returns the entity tag for this list.
func (l *BoardList) Etag() string {
	return strconv.Itoa(l.Version)
}

func (l *BoardList) Slot() Slot {
	return Slot{ID: l.ID, ParentID: l.BoardID, Position: l.Position, Version: l.Version}
}

func (l *BoardList) Place(parentID string, position int) {
	l.BoardID = parentID
	l.Position = position
}

func (l *BoardList) SetVersion(v int) { l.Version = v }

// Touch records a modification time.
func (l *BoardList) Touch(at time.Time) { l.UpdatedAt = at }

// Card is a positioned child of a BoardList.
type Card struct {
	ID          string
	ListID      string
	Title       string
	Description string
	Completed   bool
	DueAt       *time.Time // Optional
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Optimistic locking version, bumped on every write including pure position changes
	Version int
}

// Etag returns the entity tag for this card.
// Returns the version as a string: "1", "2", "42", etc.
func (c *Card) Etag() string {
	return strconv.Itoa(c.Version)
}

func (c *Card) Slot() Slot {
	return Slot{ID: c.ID, ParentID: c.ListID, Position: c.Position, Version: c.Version}
}

func (c *Card) Place(parentID string, position int) {
	c.ListID = parentID
	c.Position = position
}

func (c *Card) SetVersion(v int) { c.Version = v }

// Touch records a modification time.
func (c *Card) Touch(at time.Time) { c.UpdatedAt = at }

// Clone returns a copy of the card's content under a new identity.
// The copy starts incomplete and unversioned; timestamps are left for the
// caller to stamp.
func (c *Card) Clone(id, title, listID string, position int) *Card {
	clone := &Card{
		ID:          id,
		ListID:      listID,
		Title:       title,
		Description: c.Description,
		Position:    position,
	}
	if c.DueAt != nil {
		due := *c.DueAt
		clone.DueAt = &due
	}
	return clone
}
