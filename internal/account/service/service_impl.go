package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/account/domain"
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
		log:  p.Log.Named("account.service"),
		repo: p.Repo,
	}
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrInvalidToken
	}
	if !user.Purchasable() {
		return domain.User{}, domain.ErrUnavailable
	}

	return *user, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetUserRequest) (domain.User, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.User{}, domain.ErrInvalidID
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}

	return *user, nil
}
