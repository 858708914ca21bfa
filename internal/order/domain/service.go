package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidID       = errors.New("invalid_order_id")
	ErrNotFound        = errors.New("order_not_found")
	ErrListingNotFound = errors.New("repo_not_found")
	ErrNotPurchasable  = errors.New("repo_not_purchasable")
	ErrOwnListing      = errors.New("cannot_buy_own_repo")
	ErrAlreadyOwned    = errors.New("repo_already_owned")
	ErrCheckoutOpen    = errors.New("checkout_already_open")
	ErrNotBuyer        = errors.New("not_order_buyer")
	ErrNotCancellable  = errors.New("order_not_cancellable")
	ErrUnavailable     = errors.New("order_unavailable")
)

type CheckoutRequest struct {
	ListingID string `json:"repo_id" binding:"required"`
}

// CheckoutSession is handed back to the client so it can drive the
// processor-side confirmation flow.
type CheckoutSession struct {
	OrderID         snowflake.ID `json:"order_id,string"`
	PaymentIntentID string       `json:"payment_intent_id"`
	ClientSecret    string       `json:"client_secret"`
	Amount          int64        `json:"amount"`
	Currency        string       `json:"currency"`
	Status          OrderStatus  `json:"status"`
}

type Service interface {
	// Checkout opens a pending order for the listing and creates the
	// backing payment intent at the gateway.
	Checkout(ctx context.Context, buyerID snowflake.ID, req CheckoutRequest) (*CheckoutSession, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID snowflake.ID) ([]Order, error)
	// Cancel abandons a buyer's own open order.
	Cancel(ctx context.Context, buyerID, orderID snowflake.ID) (*Order, error)
}
