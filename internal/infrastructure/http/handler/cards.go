package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/infrastructure/http/response"
)

// CreateCard handles POST /v1/lists/{listID}/cards. The card is appended.
func (h *BoardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	var req CreateCardRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.CreateCard(r.Context(), listID, board.CardInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		fail(w, r, "failed to create card via HTTP", err, "list_id", listID)
		return
	}

	slog.InfoContext(r.Context(), "card created via HTTP",
		"card_id", c.ID,
		"list_id", listID,
		"position", c.Position)
	setEtag(w, c.Etag())
	response.Created(w, map[string]CardDTO{"card": MapCardToDTO(c)})
}

// GetCard handles GET /v1/cards/{cardID}.
func (h *BoardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	c, err := h.svc.GetCard(r.Context(), cardID)
	if err != nil {
		fail(w, r, "failed to get card via HTTP", err, "card_id", cardID)
		return
	}

	setEtag(w, c.Etag())
	response.OK(w, map[string]CardDTO{"card": MapCardToDTO(c)})
}

// SearchCards handles GET /v1/lists/{listID}/cards?q=term.
func (h *BoardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	term := r.URL.Query().Get("q")

	cards, err := h.svc.SearchCards(r.Context(), listID, term)
	if err != nil {
		fail(w, r, "failed to search cards via HTTP", err, "list_id", listID)
		return
	}

	response.OK(w, map[string][]CardDTO{"cards": MapCardsToDTO(cards)})
}

// UpdateCard handles PATCH /v1/cards/{cardID}. Position is not changed here.
func (h *BoardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	var req UpdateCardRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.UpdateCard(r.Context(), cardID, board.UpdateCardParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueAt:       req.DueAt,
		ClearDueAt:  req.ClearDueAt,
		Etag:        etagFrom(r, req.Etag),
	})
	if err != nil {
		fail(w, r, "failed to update card via HTTP", err, "card_id", cardID)
		return
	}

	setEtag(w, c.Etag())
	response.OK(w, map[string]CardDTO{"card": MapCardToDTO(c)})
}

// MoveCard handles POST /v1/cards/{cardID}/move.
func (h *BoardHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Position == nil {
		response.ValidationError(w, "position", "position is required")
		return
	}

	c, err := h.svc.MoveCard(r.Context(), cardID, *req.Position, req.Target)
	if err != nil {
		fail(w, r, "failed to move card via HTTP", err,
			"card_id", cardID,
			"position", *req.Position,
			"target_list_id", req.Target)
		return
	}

	slog.InfoContext(r.Context(), "card moved via HTTP",
		"card_id", c.ID,
		"list_id", c.ListID,
		"position", c.Position)
	setEtag(w, c.Etag())
	response.OK(w, map[string]CardDTO{"card": MapCardToDTO(c)})
}

// CloneCard handles POST /v1/cards/{cardID}/clone. The copy is appended.
func (h *BoardHandler) CloneCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	var req CloneCardRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.CloneCard(r.Context(), cardID, req.Title, req.Target)
	if err != nil {
		fail(w, r, "failed to clone card via HTTP", err,
			"card_id", cardID,
			"target_list_id", req.Target)
		return
	}

	slog.InfoContext(r.Context(), "card cloned via HTTP",
		"source_card_id", cardID,
		"card_id", c.ID,
		"list_id", c.ListID)
	setEtag(w, c.Etag())
	response.Created(w, map[string]CardDTO{"card": MapCardToDTO(c)})
}

// DeleteCard handles DELETE /v1/cards/{cardID}.
func (h *BoardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	if err := h.svc.DeleteCard(r.Context(), cardID); err != nil {
		fail(w, r, "failed to delete card via HTTP", err, "card_id", cardID)
		return
	}

	slog.InfoContext(r.Context(), "card deleted via HTTP", "card_id", cardID)
	response.NoContent(w)
}
