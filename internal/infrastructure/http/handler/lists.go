package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/boardly/internal/infrastructure/http/response"
)

// CreateList handles POST /v1/boards/{boardID}/lists. The list is appended.
func (h *BoardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardID")
	var req TitleRequest
	if !decode(w, r, &req) {
		return
	}

	l, err := h.svc.CreateList(r.Context(), boardID, req.Title)
	if err != nil {
		fail(w, r, "failed to create list via HTTP", err, "board_id", boardID)
		return
	}

	slog.InfoContext(r.Context(), "list created via HTTP",
		"list_id", l.ID,
		"board_id", boardID,
		"position", l.Position)
	setEtag(w, l.Etag())
	response.Created(w, map[string]ListDTO{"list": MapListToDTO(l)})
}

// GetList handles GET /v1/lists/{listID}, returning the list with its ordered cards.
func (h *BoardHandler) GetList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	ctx := r.Context()

	l, err := h.svc.GetList(ctx, listID)
	if err != nil {
		fail(w, r, "failed to get list via HTTP", err, "list_id", listID)
		return
	}
	cards, err := h.svc.Cards().Layout(ctx, listID)
	if err != nil {
		fail(w, r, "failed to get list cards via HTTP", err, "list_id", listID)
		return
	}

	setEtag(w, l.Etag())
	response.OK(w, ListLayoutDTO{
		List:     MapListToDTO(l),
		Capacity: MapCapacityToDTO(h.svc.Cards().CapacityFor(listID, len(cards))),
		Cards:    MapCardsToDTO(cards),
	})
}

// RenameList handles PATCH /v1/lists/{listID}.
func (h *BoardHandler) RenameList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	var req TitleRequest
	if !decode(w, r, &req) {
		return
	}

	l, err := h.svc.RenameList(r.Context(), listID, req.Title, etagFrom(r, req.Etag))
	if err != nil {
		fail(w, r, "failed to rename list via HTTP", err, "list_id", listID)
		return
	}

	setEtag(w, l.Etag())
	response.OK(w, map[string]ListDTO{"list": MapListToDTO(l)})
}

// MoveList handles POST /v1/lists/{listID}/move.
func (h *BoardHandler) MoveList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Position == nil {
		response.ValidationError(w, "position", "position is required")
		return
	}

	l, err := h.svc.MoveList(r.Context(), listID, *req.Position, req.Target)
	if err != nil {
		fail(w, r, "failed to move list via HTTP", err,
			"list_id", listID,
			"position", *req.Position,
			"target_board_id", req.Target)
		return
	}

	slog.InfoContext(r.Context(), "list moved via HTTP",
		"list_id", l.ID,
		"board_id", l.BoardID,
		"position", l.Position)
	setEtag(w, l.Etag())
	response.OK(w, map[string]ListDTO{"list": MapListToDTO(l)})
}

// DeleteList handles DELETE /v1/lists/{listID}. Its cards go with it.
func (h *BoardHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	if err := h.svc.DeleteList(r.Context(), listID); err != nil {
		fail(w, r, "failed to delete list via HTTP", err, "list_id", listID)
		return
	}

	slog.InfoContext(r.Context(), "list deleted via HTTP", "list_id", listID)
	response.NoContent(w)
}

// ClearList handles DELETE /v1/lists/{listID}/cards.
func (h *BoardHandler) ClearList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	removed, err := h.svc.ClearList(r.Context(), listID)
	if err != nil {
		fail(w, r, "failed to clear list via HTTP", err, "list_id", listID)
		return
	}

	slog.InfoContext(r.Context(), "list cleared via HTTP",
		"list_id", listID,
		"removed", removed)
	response.OK(w, map[string]int{"removed": removed})
}
