package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/admission"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/upi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]int{"n": 1}).
		Write(w)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "value", w.Header().Get("X-Custom"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}

func TestResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(map[string]any{"f": func() {}}).Write(w)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeniedResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ResultResponse(services.Result{
		Decision: admission.Decision{Reason: admission.MonthlyLimitExceeded},
	}, http.StatusCreated).Write(w)

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "monthly_limit_exceeded", body["reason"])
	assert.Equal(t, "Monthly spending limit exceeded", body["message"])
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"bad request", badRequest("nope"), http.StatusBadRequest, "bad request: nope"},
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity, "invalid amount"},
		{"not found", fmt.Errorf("edit 9: %w", core.ErrTransactionNotFound), http.StatusNotFound, "transaction not found"},
		{"invalid code", upi.ErrInvalidCode, http.StatusUnprocessableEntity, "invalid code"},
		{"no code", fmt.Errorf("%w: blank", upi.ErrNoCodeFound), http.StatusUnprocessableEntity, "could not scan"},
		{"unreadable", upi.ErrUnreadableImage, http.StatusUnprocessableEntity, "could not scan"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "request cancelled"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			errorResponse(context.Background(), tt.err).Write(w)
			assert.Equal(t, tt.status, w.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}
