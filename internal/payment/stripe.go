package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

// Stripe opens a PaymentIntent per payment row.
type Stripe struct {
	sc       *stripe.Client
	currency string
}

// NewStripe returns a Stripe gateway for the given secret key.
func NewStripe(secretKey, currency string) *Stripe {
	return &Stripe{sc: stripe.NewClient(secretKey), currency: strings.ToLower(currency)}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) OpenCharge(ctx context.Context, req ChargeRequest) (Charge, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(currency)),
		Description: stripe.String(req.Description),
		Metadata: map[string]string{
			"id_pago":     strconv.FormatUint(req.PaymentID, 10),
			"metodo_pago": req.Method,
		},
	}
	pi, err := s.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return Charge{}, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return Charge{Reference: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (s *Stripe) Verify(ctx context.Context, reference string) error {
	pi, err := s.sc.V1PaymentIntents.Retrieve(ctx, reference, nil)
	if err != nil {
		return fmt.Errorf("stripe retrieve payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: %s", ErrNotPaid, pi.Status)
	}
	return nil
}

func (s *Stripe) Cancel(ctx context.Context, reference string) error {
	_, err := s.sc.V1PaymentIntents.Cancel(ctx, reference, nil)
	return err
}
