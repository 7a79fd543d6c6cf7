package upi

import "fintrack/internal/core"

var sampleCodes = []string{
	"upi://pay?pa=merchant1@paytm&pn=Coffee Shop&am=150&tn=Coffee Purchase",
	"upi://pay?pa=store@phonepe&pn=Grocery Store&am=450&tn=Grocery Shopping",
	"upi://pay?pa=restaurant@gpay&pn=Pizza Palace&am=320&tn=Food Order",
	"upi://pay?pa=fuel@upi&pn=Petrol Pump&am=2000&tn=Fuel Payment",
	"upi://pay?pa=shop@paytm&pn=Electronics Store&am=15000&tn=Mobile Purchase",
}

// SampleCodes returns the demo payment URIs offered when no camera or image
// is available.
func SampleCodes() []string {
	return append([]string(nil), sampleCodes...)
}

// SampleIntents parses SampleCodes with the default key table.
func SampleIntents() []core.PaymentIntent {
	out := make([]core.PaymentIntent, 0, len(sampleCodes))
	for _, c := range sampleCodes {
		if pi, ok := Parse(c); ok {
			out = append(out, pi)
		}
	}
	return out
}
