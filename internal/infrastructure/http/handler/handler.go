package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/infrastructure/http/response"
	"github.com/rezkam/boardly/internal/ptr"
)

// BoardHandler adapts HTTP requests to board service calls.
type BoardHandler struct {
	svc *board.Service
}

// NewBoardHandler creates a new HTTP API handler.
func NewBoardHandler(svc *board.Service) *BoardHandler {
	return &BoardHandler{svc: svc}
}

// NewRouter mounts every API route on a fresh router.
// Both production code and tests use this function so routing stays identical.
func NewRouter(svc *board.Service) http.Handler {
	h := NewBoardHandler(svc)
	r := chi.NewRouter()

	r.Route("/boards", func(r chi.Router) {
		r.Post("/", h.CreateBoard)
		r.Get("/", h.ListBoards)
		r.Route("/{boardID}", func(r chi.Router) {
			r.Get("/", h.GetBoard)
			r.Patch("/", h.RenameBoard)
			r.Delete("/", h.DeleteBoard)
			r.Post("/archive", h.ArchiveBoard)
			r.Post("/unarchive", h.UnarchiveBoard)
			r.Post("/lists", h.CreateList)
		})
	})

	r.Route("/lists/{listID}", func(r chi.Router) {
		r.Get("/", h.GetList)
		r.Patch("/", h.RenameList)
		r.Delete("/", h.DeleteList)
		r.Post("/move", h.MoveList)
		r.Post("/cards", h.CreateCard)
		r.Get("/cards", h.SearchCards)
		r.Delete("/cards", h.ClearList)
	})

	r.Route("/cards/{cardID}", func(r chi.Router) {
		r.Get("/", h.GetCard)
		r.Patch("/", h.UpdateCard)
		r.Delete("/", h.DeleteCard)
		r.Post("/move", h.MoveCard)
		r.Post("/clone", h.CloneCard)
	})

	return r
}

// decode reads a JSON body. An empty body decodes to the zero value.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid JSON")
		return false
	}
	return true
}

// etagFrom prefers the body etag and falls back to If-Match.
func etagFrom(r *http.Request, body *string) *string {
	if body != nil {
		return body
	}
	if v := r.Header.Get("If-Match"); v != "" {
		return ptr.To(v)
	}
	return nil
}

func setEtag(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", `"`+etag+`"`)
}

// fail logs a failed call and writes its error response. Expected outcomes
// are logged at info; FromDomainError reports anything unexpected.
func fail(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	if isExpected(err) {
		slog.InfoContext(r.Context(), msg, append(attrs, "error", err)...)
	}
	response.FromDomainError(w, r, err)
}

func isExpected(err error) bool {
	for _, target := range []error{
		domain.ErrBoardNotFound, domain.ErrListNotFound, domain.ErrCardNotFound,
		domain.ErrTitleRequired, domain.ErrTitleTooLong, domain.ErrDescriptionTooLong,
		domain.ErrSearchTermRequired, domain.ErrInvalidEtag, domain.ErrInvalidID,
		domain.ErrPositionInvalid, domain.ErrPositionOutOfRange, domain.ErrLimitExceeded,
		domain.ErrVersionConflict, domain.ErrBoardArchived,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
