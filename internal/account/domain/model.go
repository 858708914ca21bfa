package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBanned  UserStatus = "banned"
	UserStatusDeleted UserStatus = "deleted"
)

// User is a marketplace account. Buyers and sellers are the same
// entity; a seller is a user who owns listings and has payouts enabled.
type User struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Email          string       `gorm:"not null" json:"email"`
	DisplayName    string       `gorm:"not null" json:"display_name"`
	Status         UserStatus   `gorm:"type:text;not null;default:'active'" json:"status"`
	PayoutsEnabled bool         `gorm:"not null;default:false" json:"payouts_enabled"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Purchasable reports whether the account may initiate purchases.
func (u User) Purchasable() bool {
	return u.Status == UserStatusActive
}
