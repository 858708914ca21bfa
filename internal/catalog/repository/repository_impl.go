package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/catalog/domain"
	"github.com/repomart/repomart/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, listing *domain.Listing) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO listings (id, seller_id, title, slug, description, price, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.SellerID,
		listing.Title,
		listing.Slug,
		listing.Description,
		listing.Price,
		listing.Currency,
		listing.Status,
		listing.CreatedAt,
		listing.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Listing, error) {
	var item domain.Listing
	err := db.WithContext(ctx).Raw(
		`SELECT id, seller_id, title, slug, description, price, currency, status, created_at, updated_at
		 FROM listings
		 WHERE id = ? AND deleted_at IS NULL
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Listing, error) {
	var item domain.Listing
	err := db.WithContext(ctx).Raw(
		`SELECT id, seller_id, title, slug, description, price, currency, status, created_at, updated_at
		 FROM listings
		 WHERE slug = ? AND deleted_at IS NULL
		 LIMIT 1`,
		slug,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Listing, error) {
	query := db.WithContext(ctx).
		Table("listings").
		Where("deleted_at IS NULL")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, err
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, cursorID)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 20
	}

	var items []*domain.Listing
	// Fetch one extra row to detect whether more pages exist.
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.ListingStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE listings
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		status,
		time.Now().UTC(),
		id,
	).Error
}
