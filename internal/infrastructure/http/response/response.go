// Package response writes JSON bodies and the shared error envelope.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/boardly/internal/domain"
)

// Error codes used in the error envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeLimitExceeded      = "LIMIT_EXCEEDED"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
	CodeInternal           = "INTERNAL_ERROR"
)

// encodeFailureJSON is written when a success body cannot be encoded.
const encodeFailureJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

// ErrorDetail points at the offending request field.
type ErrorDetail struct {
	Field string `json:"field,omitempty"`
	Issue string `json:"issue"`
}

// ErrorBody is the content of the error envelope.
type ErrorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// write marshals data before touching the response so an encoding failure
// can still turn into a 500.
func write(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailureJSON))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) { write(w, http.StatusOK, data) }

// Created writes a 201 response.
func Created(w http.ResponseWriter, data any) { write(w, http.StatusCreated, data) }

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error writes the error envelope.
func Error(w http.ResponseWriter, code, message string, status int, details ...ErrorDetail) {
	if details == nil {
		details = []ErrorDetail{}
	}
	write(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// BadRequest writes a 400 for malformed input.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, CodeInvalidInput, message, http.StatusBadRequest)
}

// ValidationError writes a 400 naming the invalid field.
func ValidationError(w http.ResponseWriter, field, issue string) {
	Error(w, CodeValidation, "validation failed", http.StatusBadRequest, ErrorDetail{Field: field, Issue: issue})
}

// FromDomainError maps a service error onto its HTTP representation.
// Unknown errors are logged and reported as 500 without leaking details.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var limitErr *domain.LimitExceededError

	switch {
	case errors.Is(err, domain.ErrBoardNotFound),
		errors.Is(err, domain.ErrListNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrNotFound):
		Error(w, CodeNotFound, notFoundMessage(err), http.StatusNotFound)

	case errors.Is(err, domain.ErrPositionInvalid), errors.Is(err, domain.ErrPositionOutOfRange):
		ValidationError(w, "position", err.Error())

	case errors.Is(err, domain.ErrTitleRequired), errors.Is(err, domain.ErrTitleTooLong):
		ValidationError(w, "title", err.Error())

	case errors.Is(err, domain.ErrDescriptionTooLong):
		ValidationError(w, "description", err.Error())

	case errors.Is(err, domain.ErrSearchTermRequired):
		ValidationError(w, "q", err.Error())

	case errors.Is(err, domain.ErrInvalidEtag):
		ValidationError(w, "etag", err.Error())

	case errors.Is(err, domain.ErrInvalidID):
		ValidationError(w, "id", err.Error())

	case errors.As(err, &limitErr):
		Error(w, CodeLimitExceeded, limitErr.Error(), http.StatusConflict)

	case errors.Is(err, domain.ErrVersionConflict):
		Error(w, CodeConflict, "the resource was modified concurrently; re-fetch and retry", http.StatusConflict)

	case errors.Is(err, domain.ErrBoardArchived):
		Error(w, CodeFailedPrecondition, err.Error(), http.StatusConflict)

	default:
		slog.ErrorContext(r.Context(), "unhandled error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		Error(w, CodeInternal, "internal server error", http.StatusInternalServerError)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrBoardNotFound):
		return domain.ErrBoardNotFound.Error()
	case errors.Is(err, domain.ErrListNotFound):
		return domain.ErrListNotFound.Error()
	case errors.Is(err, domain.ErrCardNotFound):
		return domain.ErrCardNotFound.Error()
	}
	return domain.ErrNotFound.Error()
}
