// Package payments is the boundary to the hosted card checkout provider.
package payments

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is sent once the payer finished a hosted checkout.
const EventCheckoutCompleted = "checkout.session.completed"

var (
	// ErrMissingOrderID is returned for a completed checkout without order metadata.
	ErrMissingOrderID = errors.New("checkout session has no order_id metadata")
	// ErrInvalidPayload is returned when a correctly signed event cannot be decoded.
	ErrInvalidPayload = errors.New("invalid event payload")
	// ErrNoWebhookSecret is returned for every delivery while no signing secret is configured.
	ErrNoWebhookSecret = errors.New("webhook signing secret is not configured")
)

// LineItem is one row of the hosted checkout page. UnitAmount is in minor units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	OrderID        uint
	Currency       string
	Lines          []LineItem
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// Session is a created hosted checkout.
type Session struct {
	ID  string
	URL string
}

// Event is a verified webhook event. OrderID and AmountTotal are only set for
// EventCheckoutCompleted.
type Event struct {
	ID          string
	Type        string
	SessionID   string
	OrderID     uint
	AmountTotal int64
}

// Provider creates checkout sessions and verifies webhook deliveries.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// ParseEvent verifies the signature header against the raw payload before decoding it.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
