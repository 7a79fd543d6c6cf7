// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding and validating request data.
// Bodies are size-limited JSON; free text is sanitized before it reaches the
// ledger.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/txlog"

	"github.com/shopspring/decimal"
)

const defaultMaxBodyBytes = 64 << 10

// errBadRequest marks malformed requests, as opposed to invalid values.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// flexText accepts a JSON string or number and keeps its literal text, so
// `150`, `"150"` and `"12,50"` all reach amount validation unchanged.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexText(n.String())
	return nil
}

// flexAmount decodes a flexText into a validated positive amount.
func flexAmount(field string, f flexText) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(f))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// decodeJSON reads exactly one JSON value from the body into dst.
func decodeJSON(r *http.Request, dst any, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("content type %q is not application/json", ct)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes+1))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON value")
	}
	if dec.InputOffset() > maxBytes {
		return badRequest("request body exceeds %d bytes", maxBytes)
	}
	return nil
}

type transactionRequest struct {
	Date          string   `json:"date"`
	Amount        flexText `json:"amount"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	PaymentMethod string   `json:"paymentMethod"`
}

func (req transactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		Date:          sanitizeInput(req.Date),
		Amount:        sanitizeInput(string(req.Amount)),
		Kind:          core.Kind(sanitizeInput(req.Type)),
		Description:   sanitizeInput(req.Description),
		Category:      sanitizeInput(req.Category),
		PaymentMethod: sanitizeInput(req.PaymentMethod),
	}
}

type limitRequest struct {
	Limit flexText `json:"limit"`
}

type settingsRequest struct {
	InitialBalance       *flexText              `json:"initialBalance"`
	MonthlySpendingLimit *flexText              `json:"monthlySpendingLimit"`
	AlertPreferences     *core.AlertPreferences `json:"alertPreferences"`
}

// settings converts the request, validating each number that was sent. The
// initial balance may be zero; the limit must be positive.
func (req settingsRequest) settings() (services.Settings, error) {
	var out services.Settings
	if req.InitialBalance != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(string(*req.InitialBalance)))
		if err != nil {
			return out, &core.ValidationError{Field: "initialBalance", Err: core.ErrInvalidBalance}
		}
		out.InitialBalance = &d
	}
	if req.MonthlySpendingLimit != nil {
		d, err := flexAmount("monthlySpendingLimit", *req.MonthlySpendingLimit)
		if err != nil {
			return out, err
		}
		out.MonthlySpendingLimit = &d
	}
	out.AlertPreferences = req.AlertPreferences
	return out, nil
}

type qrTextRequest struct {
	Text string `json:"text"`
}

// qrPayRequest carries either raw payment text or an already parsed intent.
type qrPayRequest struct {
	Text     string   `json:"text"`
	Merchant string   `json:"merchant"`
	Amount   flexText `json:"amount"`
	UPIID    string   `json:"upiId"`
	Note     string   `json:"description"`
}

// ParseFilter reads q, type, sort and order from the query string. Unknown
// values are rejected rather than ignored.
func ParseFilter(query url.Values) (txlog.Filter, error) {
	f := txlog.DefaultFilter()
	f.Search = sanitizeInput(query.Get("q"))

	switch kind := core.Kind(strings.ToLower(strings.TrimSpace(query.Get("type")))); kind {
	case "", "all":
	case core.Credit, core.Debit:
		f.Kind = kind
	default:
		return f, badRequest("unknown type %q", kind)
	}

	switch field := txlog.SortField(strings.ToLower(strings.TrimSpace(query.Get("sort")))); field {
	case "":
	case txlog.SortByDate, txlog.SortByAmount:
		f.Sort = field
	default:
		return f, badRequest("unknown sort field %q", field)
	}

	switch order := txlog.SortOrder(strings.ToLower(strings.TrimSpace(query.Get("order")))); order {
	case "":
	case txlog.Ascending, txlog.Descending:
		f.Order = order
	default:
		return f, badRequest("unknown sort order %q", order)
	}
	return f, nil
}

// readImage returns the multipart "image" file, capped at maxBytes.
func readImage(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<10))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, badRequest("upload exceeds %d bytes", maxBytes)
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, badRequest("missing image field")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, badRequest("read image: %v", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, badRequest("upload exceeds %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return nil, badRequest("image is empty")
	}
	return data, nil
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
