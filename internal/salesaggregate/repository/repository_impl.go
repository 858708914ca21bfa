package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/salesaggregate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// UpsertIncrement is a single statement so concurrent settlements
// serialize on the row instead of racing a read-modify-write. The
// unqualified columns in the assignments refer to the existing row on
// every dialect gorm renders the conflict clause for.
func (r *repo) UpsertIncrement(ctx context.Context, tx *gorm.DB, sellerID snowflake.ID, period time.Time, amount int64) error {
	now := time.Now().UTC()
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "seller_id"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"revenue":     gorm.Expr("revenue + ?", amount),
			"sales_count": gorm.Expr("sales_count + 1"),
			"updated_at":  now,
		}),
	}).Create(&domain.Aggregate{
		SellerID:   sellerID,
		Period:     period,
		Revenue:    amount,
		SalesCount: 1,
		UpdatedAt:  now,
	}).Error
}

func (r *repo) ListBySeller(ctx context.Context, tx *gorm.DB, sellerID snowflake.ID, from, to time.Time) ([]domain.Aggregate, error) {
	var items []domain.Aggregate
	err := tx.WithContext(ctx).Raw(
		`SELECT seller_id, period, revenue, sales_count, updated_at
		 FROM sales_aggregates
		 WHERE seller_id = ? AND period >= ? AND period <= ?
		 ORDER BY period ASC`,
		sellerID,
		from,
		to,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
