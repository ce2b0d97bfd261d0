// Package payment talks to the card processor used by the pay-first
// booking flow and normalises the payment-method labels clients send.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotPaid is returned by Verify when the processor has not captured the
// charge.
var ErrNotPaid = errors.New("charge not completed")

// ChargeRequest asks the gateway to open a charge for one payment row.
type ChargeRequest struct {
	PaymentID   uint64
	Amount      decimal.Decimal
	Currency    string
	Method      string
	Description string
}

// Charge is what the gateway reports back after opening a charge.
type Charge struct {
	Reference    string `json:"referencia"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"estado"`
}

// Gateway opens, verifies and cancels charges.
type Gateway interface {
	Name() string
	OpenCharge(ctx context.Context, req ChargeRequest) (Charge, error)
	// Verify returns nil when the charge identified by reference has been
	// paid, ErrNotPaid when it has not.
	Verify(ctx context.Context, reference string) error
	Cancel(ctx context.Context, reference string) error
}

// minorUnits converts an amount to the processor's integer minor units.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var methodAliases = map[string]string{
	"tarjeta":                "tarjeta",
	"tarjeta de credito":     "tarjeta",
	"tarjeta de debito":      "tarjeta",
	"tarjeta credito":        "tarjeta",
	"tarjeta debito":         "tarjeta",
	"credito":                "tarjeta",
	"debito":                 "tarjeta",
	"card":                   "tarjeta",
	"credit card":            "tarjeta",
	"debit card":             "tarjeta",
	"stripe":                 "tarjeta",
	"transferencia":          "transferencia",
	"transferencia bancaria": "transferencia",
	"spei":                   "transferencia",
	"transfer":               "transferencia",
	"bank transfer":          "transferencia",
	"efectivo":               "efectivo",
	"cash":                   "efectivo",
	"paypal":                 "paypal",
	"pay pal":                "paypal",
}

var accentFold = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"_", " ", "-", " ")

// NormalizeMethod maps a free-form payment method label onto one of the
// canonical methods.  ok is false for labels that match none.
func NormalizeMethod(label string) (method string, ok bool) {
	s := accentFold.Replace(strings.ToLower(strings.TrimSpace(label)))
	s = strings.Join(strings.Fields(s), " ")
	method, ok = methodAliases[s]
	return method, ok
}
