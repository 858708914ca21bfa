package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusPublished ListingStatus = "published"
	ListingStatusSuspended ListingStatus = "suspended"
)

// Listing is a purchasable code repository offered by a seller.
// Price is in currency minor units.
type Listing struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	SellerID    snowflake.ID   `gorm:"not null;index" json:"seller_id"`
	Title       string         `gorm:"not null" json:"title"`
	Slug        string         `gorm:"not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"not null;default:''" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Currency    string         `gorm:"not null" json:"currency"`
	Status      ListingStatus  `gorm:"type:text;not null;default:'draft'" json:"status"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Listing) TableName() string { return "listings" }

// Sellable reports whether the listing can be checked out.
func (l Listing) Sellable() bool {
	return l.Status == ListingStatusPublished
}
