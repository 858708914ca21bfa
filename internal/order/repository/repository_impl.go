package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const orderColumns = `id, buyer_id, listing_id, seller_id, payment_intent_id, amount, currency, status, settled_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO orders (id, buyer_id, listing_id, seller_id, payment_intent_id, amount, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.BuyerID,
		order.ListingID,
		order.SellerID,
		order.PaymentIntentID,
		order.Amount,
		order.Currency,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var item domain.Order
	err := tx.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ? LIMIT 1`,
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

func (r *repo) FindByIntentID(ctx context.Context, tx *gorm.DB, intentID string, forUpdate bool) (*domain.Order, error) {
	query := tx.WithContext(ctx).
		Table("orders").
		Where("payment_intent_id = ?", intentID).
		Limit(1)
	if forUpdate && supportsRowLocks(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item domain.Order
	if err := query.Find(&item).Error; err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindOpenByBuyerListing(ctx context.Context, tx *gorm.DB, buyerID, listingID snowflake.ID) (*domain.Order, error) {
	var item domain.Order
	err := tx.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders
		 WHERE buyer_id = ? AND listing_id = ? AND status IN (?, ?)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		buyerID,
		listingID,
		domain.OrderStatusPending,
		domain.OrderStatusRequiresAction,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByBuyer(ctx context.Context, tx *gorm.DB, buyerID snowflake.ID) ([]domain.Order, error) {
	var items []domain.Order
	err := tx.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders
		 WHERE buyer_id = ?
		 ORDER BY created_at DESC, id DESC`,
		buyerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// TransitionToSucceeded guards the state machine in SQL so concurrent
// settlers cannot both win: only a non-terminal row is updated, and a
// zero row count tells the caller it lost.
func (r *repo) TransitionToSucceeded(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	now := time.Now().UTC()
	res := tx.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, settled_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		domain.OrderStatusSucceeded,
		now,
		now,
		id,
		domain.OrderStatusPending,
		domain.OrderStatusRequiresAction,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkCancelled(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	return r.markTerminal(ctx, tx, id, domain.OrderStatusCancelled)
}

func (r *repo) MarkFailed(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	return r.markTerminal(ctx, tx, id, domain.OrderStatusFailed)
}

func (r *repo) MarkRequiresAction(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	res := tx.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.OrderStatusRequiresAction,
		time.Now().UTC(),
		id,
		domain.OrderStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) markTerminal(ctx context.Context, tx *gorm.DB, id snowflake.ID, status domain.OrderStatus) (bool, error) {
	res := tx.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		status,
		time.Now().UTC(),
		id,
		domain.OrderStatusPending,
		domain.OrderStatusRequiresAction,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func supportsRowLocks(tx *gorm.DB) bool {
	if tx == nil || tx.Dialector == nil {
		return false
	}
	return tx.Dialector.Name() != "sqlite"
}
