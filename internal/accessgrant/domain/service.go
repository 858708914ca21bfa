package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrUnavailable = errors.New("library_unavailable")
)

// LibraryItem joins a grant with the listing it unlocks.
type LibraryItem struct {
	GrantID   snowflake.ID `json:"grant_id,string"`
	ListingID snowflake.ID `json:"repo_id,string"`
	OrderID   snowflake.ID `json:"order_id,string"`
	Title     string       `json:"title"`
	Slug      string       `json:"slug"`
	GrantedAt time.Time    `json:"granted_at"`
}

type Service interface {
	Library(ctx context.Context, userID snowflake.ID) ([]LibraryItem, error)
	HasAccess(ctx context.Context, userID, listingID snowflake.ID) (bool, error)
}
