package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/pkg/db/pagination"
)

type CreateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

type ListListingsRequest struct {
	PageToken string
	PageSize  int
}

type ListListingsResponse struct {
	pagination.PageInfo
	Listings []Listing `json:"listings"`
}

type Service interface {
	Create(ctx context.Context, sellerID snowflake.ID, req CreateListingRequest) (Listing, error)
	GetByID(ctx context.Context, id string) (Listing, error)
	GetBySlug(ctx context.Context, slug string) (Listing, error)
	List(ctx context.Context, req ListListingsRequest) (ListListingsResponse, error)
	Publish(ctx context.Context, sellerID snowflake.ID, id string) (Listing, error)
	Suspend(ctx context.Context, id string) (Listing, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrNotFound        = errors.New("repo_not_found")
	ErrNotOwner        = errors.New("not_listing_owner")
	ErrSlugTaken       = errors.New("slug_taken")
)
