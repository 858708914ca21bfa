package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/outbox/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, event *domain.Event) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO outbox_events (id, topic, payload, created_at)
		 VALUES (?, ?, ?, ?)`,
		event.ID,
		event.Topic,
		event.Payload,
		event.CreatedAt,
	).Error
}

func (r *repo) FetchUnpublished(ctx context.Context, tx *gorm.DB, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var items []domain.Event
	err := tx.WithContext(ctx).Raw(
		`SELECT id, topic, payload, created_at, published_at
		 FROM outbox_events
		 WHERE published_at IS NULL
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkPublished(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Exec(
		`UPDATE outbox_events SET published_at = ? WHERE id IN (?)`,
		time.Now().UTC(),
		ids,
	).Error
}
