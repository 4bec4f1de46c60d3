package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/infrastructure/http/response"
)

// CreateBoard handles POST /v1/boards.
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decode(w, r, &req) {
		return
	}

	b, err := h.svc.CreateBoard(r.Context(), req.Title)
	if err != nil {
		fail(w, r, "failed to create board via HTTP", err)
		return
	}

	slog.InfoContext(r.Context(), "board created via HTTP", "board_id", b.ID)
	setEtag(w, b.Etag())
	response.Created(w, map[string]BoardDTO{"board": MapBoardToDTO(b)})
}

// ListBoards handles GET /v1/boards.
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.ListBoards(r.Context())
	if err != nil {
		fail(w, r, "failed to list boards via HTTP", err)
		return
	}

	out := make([]BoardDTO, len(boards))
	for i, b := range boards {
		out[i] = MapBoardToDTO(b)
	}
	response.OK(w, map[string][]BoardDTO{"boards": out})
}

// GetBoard handles GET /v1/boards/{boardID}, returning the full ordered layout.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardID")

	layout, err := h.svc.GetBoard(r.Context(), boardID)
	if err != nil {
		fail(w, r, "failed to get board via HTTP", err, "board_id", boardID)
		return
	}

	setEtag(w, layout.Board.Etag())
	response.OK(w, MapLayoutToDTO(layout))
}

// RenameBoard handles PATCH /v1/boards/{boardID}.
func (h *BoardHandler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardID")
	var req TitleRequest
	if !decode(w, r, &req) {
		return
	}

	b, err := h.svc.RenameBoard(r.Context(), boardID, req.Title, etagFrom(r, req.Etag))
	if err != nil {
		fail(w, r, "failed to rename board via HTTP", err, "board_id", boardID)
		return
	}

	setEtag(w, b.Etag())
	response.OK(w, map[string]BoardDTO{"board": MapBoardToDTO(b)})
}

// ArchiveBoard handles POST /v1/boards/{boardID}/archive.
func (h *BoardHandler) ArchiveBoard(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, h.svc.ArchiveBoard)
}

// UnarchiveBoard handles POST /v1/boards/{boardID}/unarchive.
func (h *BoardHandler) UnarchiveBoard(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, h.svc.UnarchiveBoard)
}

func (h *BoardHandler) setArchived(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) (*domain.Board, error)) {
	boardID := chi.URLParam(r, "boardID")

	b, err := apply(r.Context(), boardID)
	if err != nil {
		fail(w, r, "failed to change board archive state via HTTP", err, "board_id", boardID)
		return
	}

	slog.InfoContext(r.Context(), "board archive state changed via HTTP",
		"board_id", b.ID,
		"archived", b.Archived)
	setEtag(w, b.Etag())
	response.OK(w, map[string]BoardDTO{"board": MapBoardToDTO(b)})
}

// DeleteBoard handles DELETE /v1/boards/{boardID}.
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardID")

	if err := h.svc.DeleteBoard(r.Context(), boardID); err != nil {
		fail(w, r, "failed to delete board via HTTP", err, "board_id", boardID)
		return
	}

	slog.InfoContext(r.Context(), "board deleted via HTTP", "board_id", boardID)
	response.NoContent(w)
}
