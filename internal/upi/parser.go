// Package upi turns UPI-style payment URIs, typed or decoded from QR images,
// into payment intents.
package upi

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// ErrInvalidCode is returned when text is not a payment URI.
var ErrInvalidCode = errors.New("invalid code")

// FieldRule lists the query keys tried in order for one intent field and the
// value used when none of them carries a non-empty value.
type FieldRule struct {
	Keys    []string
	Default string
}

func (r FieldRule) lookup(q url.Values) string {
	for _, k := range r.Keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return r.Default
}

// ParserConfig maps query keys onto intent fields.
type ParserConfig struct {
	Payee       FieldRule
	Merchant    FieldRule
	Amount      FieldRule
	Description FieldRule
}

// DefaultConfig is the UPI key table: pa, pn|merchant, am|amount, tn|tr.
func DefaultConfig() ParserConfig {
	return ParserConfig{
		Payee:       FieldRule{Keys: []string{"pa"}, Default: "unknown@upi"},
		Merchant:    FieldRule{Keys: []string{"pn", "merchant"}, Default: "Unknown Merchant"},
		Amount:      FieldRule{Keys: []string{"am", "amount"}, Default: "0"},
		Description: FieldRule{Keys: []string{"tn", "tr"}, Default: "UPI Payment"},
	}
}

type Parser struct {
	cfg ParserConfig
}

func NewParser(cfg ParserConfig) *Parser {
	return &Parser{cfg: cfg}
}

// DefaultParser uses DefaultConfig.
var DefaultParser = NewParser(DefaultConfig())

// payURI matches "<scheme>://pay" followed by a query or the end of text, so
// hosts such as paypal.com or payments.example.com are not payment URIs.
var payURI = regexp.MustCompile(`(?i)[a-z][a-z0-9+.-]*://pay(\?|$)`)

// Parse extracts a payment intent from text. It reports false when the text
// is neither a "<scheme>://pay?" URI (any scheme, any case) nor carries a
// pa= key.
// Missing or empty fields take their defaults and an unparseable amount
// becomes zero, so a recognised text always yields an intent.
func (p *Parser) Parse(text string) (core.PaymentIntent, bool) {
	if !payURI.MatchString(text) && !strings.Contains(strings.ToLower(text), "pa=") {
		return core.PaymentIntent{}, false
	}

	q := queryValues(queryPart(text))
	return core.PaymentIntent{
		PayeeID:     p.cfg.Payee.lookup(q),
		Merchant:    p.cfg.Merchant.lookup(q),
		Amount:      leadingAmount(p.cfg.Amount.lookup(q)),
		Description: p.cfg.Description.lookup(q),
	}, true
}

// Parse uses DefaultParser.
func Parse(text string) (core.PaymentIntent, bool) {
	return DefaultParser.Parse(text)
}

// queryPart is the segment between the first and second '?', or the whole
// text when that segment is missing or empty.
func queryPart(text string) string {
	parts := strings.Split(text, "?")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return text
}

// queryValues decodes what it can. url.ParseQuery keeps every well-formed
// pair even when it reports an error for another one.
func queryValues(raw string) url.Values {
	q, _ := url.ParseQuery(raw)
	if q == nil {
		q = url.Values{}
	}
	return q
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingAmount reads the longest numeric prefix of s ("150abc" is 150).
// Anything unreadable or negative is zero.
func leadingAmount(s string) decimal.Decimal {
	m := numberPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
