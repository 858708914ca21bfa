package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// UpsertIncrement adds one sale of the given amount to the seller's
	// bucket in a single statement, creating the row when absent.
	UpsertIncrement(ctx context.Context, tx *gorm.DB, sellerID snowflake.ID, period time.Time, amount int64) error
	ListBySeller(ctx context.Context, tx *gorm.DB, sellerID snowflake.ID, from, to time.Time) ([]Aggregate, error)
}
