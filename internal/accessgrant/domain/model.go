package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Grant gives a user permanent download access to one listing. The
// (user_id, listing_id) pair is unique so repeat settlements collapse
// into the existing row.
type Grant struct {
	ID        snowflake.ID `json:"id,string" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id,string"`
	ListingID snowflake.ID `json:"listing_id,string"`
	OrderID   snowflake.ID `json:"order_id,string"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Grant) TableName() string { return "access_grants" }
