package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Aggregate is one seller's running revenue for a single day. Rows are
// only ever touched with atomic increments so concurrent settlements
// never lose a sale.
type Aggregate struct {
	SellerID   snowflake.ID `json:"seller_id,string" gorm:"primaryKey"`
	Period     time.Time    `json:"period" gorm:"primaryKey"`
	Revenue    int64        `json:"revenue"`
	SalesCount int64        `json:"sales_count"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (Aggregate) TableName() string { return "sales_aggregates" }

// PeriodFor truncates a settlement time to its aggregate bucket.
func PeriodFor(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
