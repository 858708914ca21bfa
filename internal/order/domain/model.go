package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusRequiresAction OrderStatus = "requires_action"
	OrderStatusSucceeded      OrderStatus = "succeeded"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusFailed         OrderStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusSucceeded, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// Order records a buyer's purchase attempt for a single listing. Amount
// is captured in currency minor units at checkout time so later price
// edits never change what was charged.
type Order struct {
	ID              snowflake.ID `json:"id,string" gorm:"primaryKey"`
	BuyerID         snowflake.ID `json:"buyer_id,string"`
	ListingID       snowflake.ID `json:"listing_id,string"`
	SellerID        snowflake.ID `json:"seller_id,string"`
	PaymentIntentID string       `json:"payment_intent_id"`
	Amount          int64        `json:"amount"`
	Currency        string       `json:"currency"`
	Status          OrderStatus  `json:"status"`
	SettledAt       *time.Time   `json:"settled_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
