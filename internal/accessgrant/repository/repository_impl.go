package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/accessgrant/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, grant *domain.Grant) (bool, error) {
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "listing_id"}},
		DoNothing: true,
	}).Create(grant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Exists(ctx context.Context, tx *gorm.DB, userID, listingID snowflake.ID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM access_grants WHERE user_id = ? AND listing_id = ?`,
		userID,
		listingID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) ([]domain.Grant, error) {
	var items []domain.Grant
	err := tx.WithContext(ctx).Raw(
		`SELECT id, user_id, listing_id, order_id, created_at
		 FROM access_grants
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListLibraryByUser(ctx context.Context, tx *gorm.DB, userID snowflake.ID) ([]domain.LibraryItem, error) {
	var items []domain.LibraryItem
	err := tx.WithContext(ctx).Raw(
		`SELECT g.id AS grant_id, g.listing_id, g.order_id, l.title, l.slug, g.created_at AS granted_at
		 FROM access_grants g
		 JOIN listings l ON l.id = g.listing_id
		 WHERE g.user_id = ?
		 ORDER BY g.created_at DESC, g.id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
