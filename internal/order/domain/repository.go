package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, order *Order) error
	FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Order, error)
	// FindByIntentID locates the order bound to a payment intent. When
	// forUpdate is set and the dialect supports it, the row is locked
	// for the duration of the surrounding transaction.
	FindByIntentID(ctx context.Context, tx *gorm.DB, intentID string, forUpdate bool) (*Order, error)
	FindOpenByBuyerListing(ctx context.Context, tx *gorm.DB, buyerID, listingID snowflake.ID) (*Order, error)
	ListByBuyer(ctx context.Context, tx *gorm.DB, buyerID snowflake.ID) ([]Order, error)
	// TransitionToSucceeded flips a non-terminal order to succeeded.
	// It returns false when the order was already terminal, which the
	// caller must treat as a lost idempotency race.
	TransitionToSucceeded(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error)
	MarkCancelled(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error)
	MarkRequiresAction(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error)
}
