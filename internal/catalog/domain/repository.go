package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	SellerID snowflake.ID
	Status   ListingStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, listing *Listing) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Listing, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Listing, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Listing, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ListingStatus) error
}
