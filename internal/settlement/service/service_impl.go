package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	grantdomain "github.com/repomart/repomart/internal/accessgrant/domain"
	accountdomain "github.com/repomart/repomart/internal/account/domain"
	catalogdomain "github.com/repomart/repomart/internal/catalog/domain"
	gatewaydomain "github.com/repomart/repomart/internal/gateway/domain"
	"github.com/repomart/repomart/internal/observability/metrics"
	orderdomain "github.com/repomart/repomart/internal/order/domain"
	outboxdomain "github.com/repomart/repomart/internal/outbox/domain"
	salesdomain "github.com/repomart/repomart/internal/salesaggregate/domain"
	"github.com/repomart/repomart/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const settledTopic = "order.settled"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Gateway     gatewaydomain.Gateway
	OrderRepo   orderdomain.Repository
	CatalogRepo catalogdomain.Repository
	AccountRepo accountdomain.Repository
	GrantRepo   grantdomain.Repository
	SalesRepo   salesdomain.Repository
	OutboxRepo  outboxdomain.Repository
	Metrics     *metrics.Metrics
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	gateway     gatewaydomain.Gateway
	orderRepo   orderdomain.Repository
	catalogRepo catalogdomain.Repository
	accountRepo accountdomain.Repository
	grantRepo   grantdomain.Repository
	salesRepo   salesdomain.Repository
	outboxRepo  outboxdomain.Repository
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("settlement.service"),
		genID:       p.GenID,
		gateway:     p.Gateway,
		orderRepo:   p.OrderRepo,
		catalogRepo: p.CatalogRepo,
		accountRepo: p.AccountRepo,
		grantRepo:   p.GrantRepo,
		salesRepo:   p.SalesRepo,
		outboxRepo:  p.OutboxRepo,
		metrics:     p.Metrics,
	}
}

type settledEvent struct {
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	ListingID string    `json:"repo_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	SettledAt time.Time `json:"settled_at"`
}

func (s *Service) Settle(ctx context.Context, buyerID snowflake.ID, req domain.SettleRequest) (*domain.SettleResult, error) {
	intentID := strings.TrimSpace(req.PaymentIntentID)
	if intentID == "" {
		s.metrics.RecordSettlement("intent_not_found")
		return nil, domain.ErrIntentNotFound
	}

	log := s.log.With(
		zap.String("payment_intent_id", intentID),
		zap.String("buyer_id", buyerID.String()),
	)

	// The intent is remote state; verify it before touching our rows so
	// a failed verification never opens a transaction.
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gatewaydomain.ErrIntentNotFound) {
			s.metrics.RecordSettlement("intent_not_found")
			return nil, domain.ErrIntentNotFound
		}
		log.Error("retrieve payment intent", zap.Error(err))
		s.metrics.RecordSettlement("gateway_error")
		return nil, domain.ErrSettlementFailed
	}
	if intent.Status != gatewaydomain.IntentStatusSucceeded {
		log.Info("intent not succeeded", zap.String("intent_status", string(intent.Status)))
		s.metrics.RecordSettlement("intent_not_succeeded")
		return nil, domain.ErrIntentNotSucceeded
	}

	var orderID snowflake.ID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByIntentID(ctx, tx, intentID, true)
		if err != nil {
			return err
		}
		if order == nil || order.BuyerID != buyerID {
			return domain.ErrOrderNotFound
		}
		orderID = order.ID

		if order.Status == orderdomain.OrderStatusSucceeded {
			return domain.ErrAlreadyProcessed
		}
		if order.Status.Terminal() {
			return domain.ErrOrderNotSettleable
		}

		if intent.Amount != order.Amount || !strings.EqualFold(intent.Currency, order.Currency) {
			return domain.ErrAmountMismatch
		}

		listing, err := s.catalogRepo.FindByID(ctx, tx, order.ListingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return domain.ErrRepoNotFound
		}

		seller, err := s.accountRepo.FindByID(ctx, tx, listing.SellerID)
		if err != nil {
			return err
		}
		if seller == nil || seller.Status != accountdomain.UserStatusActive {
			return domain.ErrSellerUnavailable
		}

		ok, err := s.orderRepo.TransitionToSucceeded(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent settlement committed first.
			return domain.ErrAlreadyProcessed
		}

		now := time.Now().UTC()
		if _, err := s.grantRepo.Insert(ctx, tx, &grantdomain.Grant{
			ID:        s.genID.Generate(),
			UserID:    order.BuyerID,
			ListingID: order.ListingID,
			OrderID:   order.ID,
			CreatedAt: now,
		}); err != nil {
			log.Error("create access grant", zap.Error(err))
			return domain.ErrAccessGrantFailed
		}

		if err := s.salesRepo.UpsertIncrement(ctx, tx, listing.SellerID, salesdomain.PeriodFor(now), order.Amount); err != nil {
			return err
		}

		payload, err := json.Marshal(settledEvent{
			OrderID:   order.ID.String(),
			BuyerID:   order.BuyerID.String(),
			SellerID:  listing.SellerID.String(),
			ListingID: order.ListingID.String(),
			Amount:    order.Amount,
			Currency:  order.Currency,
			SettledAt: now,
		})
		if err != nil {
			return err
		}
		return s.outboxRepo.Insert(ctx, tx, &outboxdomain.Event{
			ID:        s.genID.Generate(),
			Topic:     settledTopic,
			Payload:   payload,
			CreatedAt: now,
		})
	})
	if err != nil {
		outcome := outcomeFor(err)
		s.metrics.RecordSettlement(outcome)
		if !knownSettlementErr(err) {
			log.Error("settlement transaction", zap.Error(err))
			return nil, domain.ErrSettlementFailed
		}
		return nil, err
	}

	s.metrics.RecordSettlement("succeeded")
	log.Info("order settled", zap.String("order_id", orderID.String()))

	return &domain.SettleResult{OrderID: orderID}, nil
}

func knownSettlementErr(err error) bool {
	for _, sentinel := range []error{
		domain.ErrOrderNotFound,
		domain.ErrAlreadyProcessed,
		domain.ErrOrderNotSettleable,
		domain.ErrAmountMismatch,
		domain.ErrRepoNotFound,
		domain.ErrSellerUnavailable,
		domain.ErrAccessGrantFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, domain.ErrOrderNotSettleable):
		return "order_not_settleable"
	case errors.Is(err, domain.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, domain.ErrRepoNotFound):
		return "repo_not_found"
	case errors.Is(err, domain.ErrSellerUnavailable):
		return "seller_unavailable"
	case errors.Is(err, domain.ErrAccessGrantFailed):
		return "access_grant_failed"
	default:
		return "error"
	}
}
