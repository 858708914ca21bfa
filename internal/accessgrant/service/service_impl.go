package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/accessgrant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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
		log:  p.Log.Named("accessgrant.service"),
		repo: p.Repo,
	}
}

func (s *Service) Library(ctx context.Context, userID snowflake.ID) ([]domain.LibraryItem, error) {
	items, err := s.repo.ListLibraryByUser(ctx, s.db, userID)
	if err != nil {
		s.log.Error("list library", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, domain.ErrUnavailable
	}
	if items == nil {
		items = []domain.LibraryItem{}
	}
	return items, nil
}

func (s *Service) HasAccess(ctx context.Context, userID, listingID snowflake.ID) (bool, error) {
	return s.repo.Exists(ctx, s.db, userID, listingID)
}
