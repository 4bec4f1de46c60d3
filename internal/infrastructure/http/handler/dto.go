package handler

import (
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/domain"
)

// === Responses ===

type BoardDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Archived  bool      `json:"archived"`
	Etag      string    `json:"etag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListDTO struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Etag      string    `json:"etag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CardDTO struct {
	ID          string     `json:"id"`
	ListID      string     `json:"list_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Position    int        `json:"position"`
	Etag        string     `json:"etag"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CapacityDTO struct {
	Count                int    `json:"count"`
	Max                  int    `json:"max"`
	Available            int    `json:"available"`
	Status               string `json:"status"`
	RequiresNotification bool   `json:"requires_notification"`
}

type ListLayoutDTO struct {
	List     ListDTO     `json:"list"`
	Capacity CapacityDTO `json:"capacity"`
	Cards    []CardDTO   `json:"cards"`
}

type BoardLayoutDTO struct {
	Board    BoardDTO        `json:"board"`
	Capacity CapacityDTO     `json:"capacity"`
	Lists    []ListLayoutDTO `json:"lists"`
}

// === Requests ===

type TitleRequest struct {
	Title string  `json:"title"`
	Etag  *string `json:"etag,omitempty"`
}

type MoveRequest struct {
	Position *int `json:"position"`

	// Target is the destination board for lists and list for cards.
	// Empty keeps the current container.
	Target string `json:"target_id,omitempty"`
}

type CreateCardRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

type UpdateCardRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	ClearDueAt  bool       `json:"clear_due_at,omitempty"`
	Etag        *string    `json:"etag,omitempty"`
}

type CloneCardRequest struct {
	Title  *string `json:"title,omitempty"`
	Target string  `json:"target_id,omitempty"`
}

// === Domain → DTO mappers ===

func MapBoardToDTO(b *domain.Board) BoardDTO {
	return BoardDTO{
		ID:        b.ID,
		Title:     b.Title,
		Archived:  b.Archived,
		Etag:      b.Etag(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func MapListToDTO(l *domain.BoardList) ListDTO {
	return ListDTO{
		ID:        l.ID,
		BoardID:   l.BoardID,
		Title:     l.Title,
		Position:  l.Position,
		Etag:      l.Etag(),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func MapCardToDTO(c *domain.Card) CardDTO {
	return CardDTO{
		ID:          c.ID,
		ListID:      c.ListID,
		Title:       c.Title,
		Description: c.Description,
		Completed:   c.Completed,
		DueAt:       c.DueAt,
		Position:    c.Position,
		Etag:        c.Etag(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func MapCardsToDTO(cards []*domain.Card) []CardDTO {
	out := make([]CardDTO, len(cards))
	for i, c := range cards {
		out[i] = MapCardToDTO(c)
	}
	return out
}

func MapCapacityToDTO(c domain.Capacity) CapacityDTO {
	return CapacityDTO{
		Count:                c.Count,
		Max:                  c.Max,
		Available:            c.Available,
		Status:               string(c.Status),
		RequiresNotification: c.Status.RequiresNotification(),
	}
}

func MapLayoutToDTO(l *board.Layout) BoardLayoutDTO {
	lists := make([]ListLayoutDTO, len(l.Lists))
	for i, ll := range l.Lists {
		lists[i] = ListLayoutDTO{
			List:     MapListToDTO(ll.List),
			Capacity: MapCapacityToDTO(ll.Capacity),
			Cards:    MapCardsToDTO(ll.Cards),
		}
	}
	return BoardLayoutDTO{
		Board:    MapBoardToDTO(l.Board),
		Capacity: MapCapacityToDTO(l.Capacity),
		Lists:    lists,
	}
}
