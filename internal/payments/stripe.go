package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe implements Provider with Stripe Checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe builds the adapter. With an empty webhookSecret every delivery is rejected.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(strconv.FormatUint(uint64(req.OrderID), 10)),
	}
	for _, l := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatUint(uint64(req.OrderID), 10))
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &Session{ID: cs.ID, URL: cs.URL}, nil
}

func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, ErrNoWebhookSecret
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}
	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}
	if ev.Data == nil {
		return nil, ErrMissingOrderID
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", ErrInvalidPayload, err)
	}
	id, err := strconv.ParseUint(cs.Metadata["order_id"], 10, 64)
	if err != nil || id == 0 {
		return nil, ErrMissingOrderID
	}
	out.SessionID = cs.ID
	out.OrderID = uint(id)
	out.AmountTotal = cs.AmountTotal
	return out, nil
}
