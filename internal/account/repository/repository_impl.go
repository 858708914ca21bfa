package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, email, display_name, status, payouts_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Status,
		user.PayoutsEnabled,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var item domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, display_name, status, payouts_enabled, created_at, updated_at
		 FROM users
		 WHERE id = ?
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

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.User, error) {
	var item domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT u.id, u.email, u.display_name, u.status, u.payouts_enabled, u.created_at, u.updated_at
		 FROM users u
		 JOIN api_tokens t ON t.user_id = u.id
		 WHERE t.token = ? AND t.revoked_at IS NULL
		 LIMIT 1`,
		token,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
