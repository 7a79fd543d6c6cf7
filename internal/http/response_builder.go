// Package http provides HTTP server and handler implementations.
//
// This file implements a small fluent builder for JSON responses and the
// mapping from ledger errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/admission"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/upi"
)

// ResponseBuilder collects status, headers and a body value, then writes
// them in one go.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"could not encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// deniedBody is returned with 409 when admission rejects a debit.
type deniedBody struct {
	Allowed bool                   `json:"allowed"`
	Reason  admission.DeniedReason `json:"reason"`
	Message string                 `json:"message"`
	Stats   services.StatsView     `json:"stats"`
}

func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// DeniedResponse reports a rejected debit. Nothing was recorded.
func DeniedResponse(d admission.Decision, st services.StatsView) *ResponseBuilder {
	return NewResponse().Status(http.StatusConflict).JSON(deniedBody{
		Allowed: false,
		Reason:  d.Reason,
		Message: d.Message(),
		Stats:   st,
	})
}

// ResultResponse writes a gated write result: 409 when denied, okStatus
// otherwise.
func ResultResponse(res services.Result, okStatus int) *ResponseBuilder {
	if !res.Decision.Allowed {
		return DeniedResponse(res.Decision, res.Stats)
	}
	return NewResponse().Status(okStatus).JSON(res)
}

// errorResponse maps service errors onto status codes. Unexpected errors are
// logged and hidden behind a generic 500.
func errorResponse(ctx context.Context, err error) *ResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, errBadRequest):
		return BadRequestError(err.Error())
	case errors.As(err, &verr):
		return NewResponse().Status(http.StatusUnprocessableEntity).
			JSON(errorBody{Error: verr.Err.Error(), Field: verr.Field})
	case errors.Is(err, core.ErrTransactionNotFound):
		return NotFoundError(core.ErrTransactionNotFound.Error())
	case errors.Is(err, upi.ErrInvalidCode):
		return UnprocessableEntityError("invalid code")
	case errors.Is(err, upi.ErrNoCodeFound), errors.Is(err, upi.ErrUnreadableImage):
		return UnprocessableEntityError("could not scan")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusServiceUnavailable, "request cancelled")
	}
	log.FromContext(ctx).ErrorContext(ctx, "Request failed", log.FieldError, err.Error())
	return InternalServerError()
}
