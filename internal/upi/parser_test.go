package upi

import (
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	pi, ok := Parse("upi://pay?pa=merchant1@paytm&pn=Coffee Shop&am=150&tn=Coffee Purchase")
	require.True(t, ok)
	assert.Equal(t, "merchant1@paytm", pi.PayeeID)
	assert.Equal(t, "Coffee Shop", pi.Merchant)
	assert.True(t, pi.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "Coffee Purchase", pi.Description)
}

func TestParseRejectsNonPaymentText(t *testing.T) {
	for _, in := range []string{
		"not a payment uri",
		"",
		"https://example.com/?q=1",
		"upi://collect?x=1",
		"https://paypal.com/home",
		"https://payments.example.com/checkout?amount=500",
		"upi://payee?am=10",
	} {
		_, ok := Parse(in)
		assert.False(t, ok, "%q should not parse", in)
	}
}

func TestParseAcceptsAnySchemeCase(t *testing.T) {
	for _, in := range []string{"UPI://PAY?pa=a@b&am=5", "phonepe://pay?am=5", "Scanned: upi://pay?am=5"} {
		pi, ok := Parse(in)
		require.True(t, ok, "%q should parse", in)
		assert.True(t, pi.Amount.Equal(decimal.NewFromInt(5)), "%q amount", in)
	}
}

func TestParseFallbacksAndDefaults(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want core.PaymentIntent
	}{
		{
			name: "all defaults",
			in:   "upi://pay",
			want: core.PaymentIntent{PayeeID: "unknown@upi", Merchant: "Unknown Merchant", Amount: decimal.Zero, Description: "UPI Payment"},
		},
		{
			name: "secondary keys",
			in:   "upi://pay?pa=a@b&merchant=Kiosk&amount=12.5&tr=REF42",
			want: core.PaymentIntent{PayeeID: "a@b", Merchant: "Kiosk", Amount: decimal.RequireFromString("12.5"), Description: "REF42"},
		},
		{
			name: "empty primary falls through",
			in:   "upi://pay?pa=a@b&pn=&merchant=Kiosk&am=&amount=7",
			want: core.PaymentIntent{PayeeID: "a@b", Merchant: "Kiosk", Amount: decimal.NewFromInt(7), Description: "UPI Payment"},
		},
		{
			name: "bare query with pa key",
			in:   "pa=x@y&pn=Stall&am=30",
			want: core.PaymentIntent{PayeeID: "x@y", Merchant: "Stall", Amount: decimal.NewFromInt(30), Description: "UPI Payment"},
		},
		{
			name: "other scheme and case",
			in:   "PAYAPP://PAY?pa=z@q&am=5",
			want: core.PaymentIntent{PayeeID: "z@q", Merchant: "Unknown Merchant", Amount: decimal.NewFromInt(5), Description: "UPI Payment"},
		},
		{
			name: "percent and plus decoding",
			in:   "upi://pay?pa=a@b&pn=Caf%C3%A9+Blue&am=1",
			want: core.PaymentIntent{PayeeID: "a@b", Merchant: "Café Blue", Amount: decimal.NewFromInt(1), Description: "UPI Payment"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want.PayeeID, got.PayeeID)
			assert.Equal(t, tc.want.Merchant, got.Merchant)
			assert.Equal(t, tc.want.Description, got.Description)
			assert.True(t, tc.want.Amount.Equal(got.Amount), "amount %s, want %s", got.Amount, tc.want.Amount)
		})
	}
}

func TestParseAmountLeniency(t *testing.T) {
	cases := map[string]string{
		"150":    "150",
		"150abc": "150",
		"12.50":  "12.5",
		"99.":    "99",
		".5":     "0.5",
		"1e3":    "1000",
		"abc":    "0",
		"-40":    "0",
		" 8 ":    "8",
	}
	for in, want := range cases {
		pi, ok := Parse("upi://pay?pa=a@b&am=" + in)
		require.True(t, ok)
		assert.True(t, pi.Amount.Equal(decimal.RequireFromString(want)), "am=%q gave %s, want %s", in, pi.Amount, want)
	}
}

func TestParseMalformedEscapeKeepsOtherPairs(t *testing.T) {
	pi, ok := Parse("upi://pay?pa=a@b&pn=%zz&am=20")
	require.True(t, ok)
	assert.Equal(t, "a@b", pi.PayeeID)
	assert.Equal(t, "Unknown Merchant", pi.Merchant)
	assert.True(t, pi.Amount.Equal(decimal.NewFromInt(20)))
}

func TestCustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merchant.Default = "Somebody"
	p := NewParser(cfg)
	pi, ok := p.Parse("upi://pay?pa=a@b")
	require.True(t, ok)
	assert.Equal(t, "Somebody", pi.Merchant)
}

func TestSampleIntents(t *testing.T) {
	codes := SampleCodes()
	intents := SampleIntents()
	require.Len(t, codes, 5)
	require.Len(t, intents, 5)
	assert.Equal(t, "Electronics Store", intents[4].Merchant)
	assert.True(t, intents[4].Amount.Equal(decimal.NewFromInt(15000)))

	codes[0] = "mutated"
	assert.NotEqual(t, "mutated", SampleCodes()[0])
}
