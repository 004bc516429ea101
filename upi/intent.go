package upi

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Rhymond/go-money"
)

const DefaultCurrency = money.INR

// App is a payment application reachable through an intent URL scheme.
type App string

const (
	GENERIC App = "upi"
	GPAY    App = "gpay"
	PHONEPE App = "phonepe"
	PAYTM   App = "paytm"
	BHIM    App = "bhim"
)

var Apps = []App{GENERIC, GPAY, PHONEPE, PAYTM, BHIM}

var appPrefixes = map[App]string{
	GENERIC: "upi://pay",
	GPAY:    "tez://upi/pay",
	PHONEPE: "upi://pay",
	PAYTM:   "paytmmp://pay",
	BHIM:    "bhim://pay",
}

type IntentParams struct {
	PayeeVPA       string
	PayeeName      string
	Amount         *money.Money
	Note           string
	TransactionRef string
	Currency       string
}

// FormatAmount renders an amount with exactly two decimals, e.g. "200.00".
func FormatAmount(m *money.Money) string {
	if m == nil {
		return "0.00"
	}
	fraction := m.Currency().Fraction
	amount := m.Amount()
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	divisor := int64(1)
	for range fraction {
		divisor *= 10
	}
	major := amount / divisor
	minor := amount % divisor

	// normalise to two decimals whatever the currency's own fraction is
	var cents int64
	switch {
	case fraction == 2:
		cents = minor
	case fraction > 2:
		scale := divisor / 100
		cents = (minor + scale/2) / scale
		if cents == 100 {
			major++
			cents = 0
		}
	default:
		cents = minor * (100 / divisor)
	}

	return fmt.Sprintf("%s%d.%02d", sign, major, cents)
}

// BuildAppIntentURL builds the intent for app with the pa, pn, am, tn, tr and cu fields. Unknown
// apps get the generic upi://pay prefix.
func BuildAppIntentURL(app App, p IntentParams) string {
	prefix, ok := appPrefixes[app]
	if !ok {
		prefix = appPrefixes[GENERIC]
	}
	return prefix + "?" + encodeQuery(p)
}

// BuildAllIntentURLs returns one intent URL per supported app.
func BuildAllIntentURLs(p IntentParams) map[App]string {
	urls := make(map[App]string, len(Apps))
	for _, app := range Apps {
		urls[app] = BuildAppIntentURL(app, p)
	}
	return urls
}

// encodeQuery keeps the field order payment apps document instead of url.Values' sorted order.
func encodeQuery(p IntentParams) string {
	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	fields := [][2]string{
		{"pa", p.PayeeVPA},
		{"pn", p.PayeeName},
		{"am", FormatAmount(p.Amount)},
		{"tn", p.Note},
		{"tr", p.TransactionRef},
		{"cu", currency},
	}

	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(f[0])
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f[1]))
	}
	return sb.String()
}

// ManualPaymentDetails is the copy-able text shown when an intent URL cannot be opened.
func ManualPaymentDetails(p IntentParams) string {
	amount := "0"
	if p.Amount != nil {
		amount = p.Amount.Display()
	}
	return fmt.Sprintf("UPI ID: %s\nAmount: %s\nNote: %s", p.PayeeVPA, amount, p.Note)
}
