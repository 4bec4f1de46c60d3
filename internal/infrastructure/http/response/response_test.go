package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/infrastructure/http/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unencodable fails during JSON encoding.
type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) {
	return nil, errors.New("cannot encode")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var env response.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env.Error
}

func TestOK_EncodingFailureReturns500(t *testing.T) {
	w := httptest.NewRecorder()
	response.OK(w, unencodable{})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decodeError(t, w)
	assert.Equal(t, response.CodeInternal, body.Code)
	assert.Equal(t, "failed to encode response", body.Message)
}

func TestCreated_WritesJSON(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"123"}`, w.Body.String())
}

func TestError_AlwaysHasDetailsArray(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, response.CodeInvalidInput, "missing field", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":{"code":"INVALID_INPUT","message":"missing field","details":[]}}`, w.Body.String())
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"board not found", fmt.Errorf("%w: board x", domain.ErrBoardNotFound), http.StatusNotFound, response.CodeNotFound, ""},
		{"malformed card id", fmt.Errorf("%w: %w", domain.ErrCardNotFound, domain.ErrInvalidID), http.StatusNotFound, response.CodeNotFound, ""},
		{"negative position", domain.ErrPositionInvalid, http.StatusBadRequest, response.CodeValidation, "position"},
		{"position out of range", &domain.PositionError{Position: 9, Max: 3}, http.StatusBadRequest, response.CodeValidation, "position"},
		{"empty title", domain.ErrTitleRequired, http.StatusBadRequest, response.CodeValidation, "title"},
		{"long card title", fmt.Errorf("%w: at most 200 characters", domain.ErrTitleTooLong), http.StatusBadRequest, response.CodeValidation, "title"},
		{"long description", domain.ErrDescriptionTooLong, http.StatusBadRequest, response.CodeValidation, "description"},
		{"empty search", domain.ErrSearchTermRequired, http.StatusBadRequest, response.CodeValidation, "q"},
		{"bad etag", domain.ErrInvalidEtag, http.StatusBadRequest, response.CodeValidation, "etag"},
		{"limit", &domain.LimitExceededError{Kind: domain.KindCards, ParentID: "l1", Max: 2, Current: 2}, http.StatusConflict, response.CodeLimitExceeded, ""},
		{"conflict", fmt.Errorf("card c at version 3: %w", domain.ErrVersionConflict), http.StatusConflict, response.CodeConflict, ""},
		{"archived", domain.ErrBoardArchived, http.StatusConflict, response.CodeFailedPrecondition, ""},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, response.CodeInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/v1/cards/x", nil)
			response.FromDomainError(w, r, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			if tt.field != "" {
				require.Len(t, body.Details, 1)
				assert.Equal(t, tt.field, body.Details[0].Field)
			}
		})
	}
}

func TestFromDomainError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/boards", nil)
	response.FromDomainError(w, r, errors.New("password=hunter2"))

	assert.NotContains(t, w.Body.String(), "hunter2")
}
