package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrIntentNotFound     = errors.New("intent_not_found")
	ErrIntentNotSucceeded = errors.New("intent_not_succeeded")
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrAlreadyProcessed   = errors.New("already_processed")
	ErrOrderNotSettleable = errors.New("order_not_settleable")
	ErrRepoNotFound       = errors.New("repo_not_found")
	ErrSellerUnavailable  = errors.New("seller_unavailable")
	ErrAccessGrantFailed  = errors.New("access_grant_failed")
	ErrAmountMismatch     = errors.New("amount_mismatch")
	ErrSettlementFailed   = errors.New("settlement_failed")
)

type SettleRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

type SettleResult struct {
	OrderID snowflake.ID `json:"order_id,string"`
}

// Service finalizes a paid order: it verifies the processor-side
// intent, flips the order to succeeded exactly once, grants the buyer
// access and credits the seller's revenue, all in one transaction.
type Service interface {
	Settle(ctx context.Context, buyerID snowflake.ID, req SettleRequest) (*SettleResult, error)
}
