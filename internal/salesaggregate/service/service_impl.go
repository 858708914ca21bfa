package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/salesaggregate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultRevenueWindow = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("salesaggregate.service"),
		repo: p.Repo,
	}
}

func (s *Service) Revenue(ctx context.Context, sellerID snowflake.ID, req domain.RevenueRequest) (domain.RevenueReport, error) {
	to := domain.PeriodFor(time.Now())
	from := to.Add(-defaultRevenueWindow)

	if v := strings.TrimSpace(req.From); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return domain.RevenueReport{}, domain.ErrInvalidRange
		}
		from = parsed.UTC()
	}
	if v := strings.TrimSpace(req.To); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return domain.RevenueReport{}, domain.ErrInvalidRange
		}
		to = parsed.UTC()
	}
	if to.Before(from) {
		return domain.RevenueReport{}, domain.ErrInvalidRange
	}

	items, err := s.repo.ListBySeller(ctx, s.db, sellerID, from, to)
	if err != nil {
		s.log.Error("list seller revenue", zap.String("seller_id", sellerID.String()), zap.Error(err))
		return domain.RevenueReport{}, domain.ErrUnavailable
	}
	if items == nil {
		items = []domain.Aggregate{}
	}

	report := domain.RevenueReport{Periods: items}
	for _, item := range items {
		report.TotalRevenue += item.Revenue
		report.TotalSales += item.SalesCount
	}

	return report, nil
}
