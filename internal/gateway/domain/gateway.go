package domain

import (
	"context"
	"errors"
)

// IntentStatus mirrors the processor-side payment intent lifecycle.
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusRequiresAction        IntentStatus = "requires_action"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusCanceled              IntentStatus = "canceled"
)

// PaymentIntent is the gateway's view of a charge attempt. Amount is in
// currency minor units.
type PaymentIntent struct {
	ID           string
	Status       IntentStatus
	Amount       int64
	Currency     string
	ClientSecret string
	Metadata     map[string]string
}

// Gateway is the external payment processor consumed by checkout and
// settlement. Implementations must treat intents as opaque remote
// state; nothing here persists locally.
type Gateway interface {
	Provider() string
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

var (
	ErrIntentNotFound     = errors.New("intent_not_found")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrProviderNotFound   = errors.New("provider_not_found")
	ErrGatewayUnreachable = errors.New("gateway_unreachable")
)
