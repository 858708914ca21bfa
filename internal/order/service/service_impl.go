package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	grantdomain "github.com/repomart/repomart/internal/accessgrant/domain"
	catalogdomain "github.com/repomart/repomart/internal/catalog/domain"
	gatewaydomain "github.com/repomart/repomart/internal/gateway/domain"
	"github.com/repomart/repomart/internal/observability/metrics"
	"github.com/repomart/repomart/internal/order/domain"
	"github.com/repomart/repomart/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const checkoutLockTTL = 15 * time.Second

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
	GrantRepo   grantdomain.Repository
	Gateway     gatewaydomain.Gateway
	Metrics     *metrics.Metrics
	Locker      *ratelimit.Locker `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
	grantRepo   grantdomain.Repository
	gateway     gatewaydomain.Gateway
	metrics     *metrics.Metrics
	locker      *ratelimit.Locker
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		grantRepo:   p.GrantRepo,
		gateway:     p.Gateway,
		metrics:     p.Metrics,
		locker:      p.Locker,
	}
}

func (s *Service) Checkout(ctx context.Context, buyerID snowflake.ID, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	listingID, err := snowflake.ParseString(strings.TrimSpace(req.ListingID))
	if err != nil || listingID == 0 {
		return nil, domain.ErrListingNotFound
	}

	if s.locker != nil {
		key := fmt.Sprintf("checkout:%s:%s", buyerID, listingID)
		token, ok, err := s.locker.TryLock(ctx, key, checkoutLockTTL)
		if err != nil {
			s.log.Warn("checkout lock unavailable", zap.Error(err))
		} else if !ok {
			return nil, domain.ErrCheckoutOpen
		} else {
			defer func() {
				if err := s.locker.Release(ctx, key, token); err != nil {
					s.log.Warn("checkout lock release", zap.Error(err))
				}
			}()
		}
	}

	listing, err := s.catalogRepo.FindByID(ctx, s.db, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	if !listing.Sellable() {
		return nil, domain.ErrNotPurchasable
	}
	if listing.SellerID == buyerID {
		return nil, domain.ErrOwnListing
	}

	owned, err := s.grantRepo.Exists(ctx, s.db, buyerID, listingID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, domain.ErrAlreadyOwned
	}

	// Resume an open checkout instead of stacking a second intent for
	// the same buyer and listing. Only a dead intent (cancelled at the
	// gateway, or gone entirely) fails the stale order; a succeeded
	// intent still belongs to a payment awaiting settlement and the
	// order must stay open for process-payment.
	if open, err := s.repo.FindOpenByBuyerListing(ctx, s.db, buyerID, listingID); err != nil {
		return nil, err
	} else if open != nil {
		intent, err := s.gateway.RetrieveIntent(ctx, open.PaymentIntentID)
		switch {
		case errors.Is(err, gatewaydomain.ErrIntentNotFound):
			if _, err := s.repo.MarkFailed(ctx, s.db, open.ID); err != nil {
				return nil, err
			}
		case err != nil:
			s.log.Error("retrieve payment intent",
				zap.String("order_id", open.ID.String()),
				zap.Error(err),
			)
			return nil, domain.ErrUnavailable
		case intent.Status == gatewaydomain.IntentStatusCanceled:
			if _, err := s.repo.MarkFailed(ctx, s.db, open.ID); err != nil {
				return nil, err
			}
		default:
			if intent.Status == gatewaydomain.IntentStatusRequiresAction && open.Status == domain.OrderStatusPending {
				if _, err := s.repo.MarkRequiresAction(ctx, s.db, open.ID); err != nil {
					return nil, err
				}
				open.Status = domain.OrderStatusRequiresAction
			}
			return &domain.CheckoutSession{
				OrderID:         open.ID,
				PaymentIntentID: open.PaymentIntentID,
				ClientSecret:    intent.ClientSecret,
				Amount:          open.Amount,
				Currency:        open.Currency,
				Status:          open.Status,
			}, nil
		}
	}

	orderID := s.genID.Generate()
	intent, err := s.gateway.CreateIntent(ctx, listing.Price, listing.Currency, map[string]string{
		"order_id": orderID.String(),
		"repo_id":  listingID.String(),
		"buyer_id": buyerID.String(),
	})
	if err != nil {
		s.log.Error("create payment intent",
			zap.String("listing_id", listingID.String()),
			zap.Error(err),
		)
		return nil, domain.ErrUnavailable
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:              orderID,
		BuyerID:         buyerID,
		ListingID:       listingID,
		SellerID:        listing.SellerID,
		PaymentIntentID: intent.ID,
		Amount:          listing.Price,
		Currency:        listing.Currency,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, s.db, &order); err != nil {
		return nil, err
	}

	s.metrics.RecordCheckoutInitiated()
	s.log.Info("checkout opened",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount", order.Amount),
	)

	return &domain.CheckoutSession{
		OrderID:         order.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          order.Status,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID snowflake.ID) ([]domain.Order, error) {
	items, err := s.repo.ListByBuyer(ctx, s.db, buyerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Order{}
	}
	return items, nil
}

func (s *Service) Cancel(ctx context.Context, buyerID, orderID snowflake.ID) (*domain.Order, error) {
	item, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.BuyerID != buyerID {
		return nil, domain.ErrNotBuyer
	}

	ok, err := s.repo.MarkCancelled(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotCancellable
	}
	item.Status = domain.OrderStatusCancelled

	return item, nil
}
