package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/repomart/repomart/internal/catalog/domain"
	"github.com/repomart/repomart/pkg/db"
	"github.com/repomart/repomart/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, sellerID snowflake.ID, req domain.CreateListingRequest) (domain.Listing, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Listing{}, domain.ErrInvalidTitle
	}
	if req.Price <= 0 {
		return domain.Listing{}, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return domain.Listing{}, domain.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	id := s.genID.Generate()
	listing := domain.Listing{
		ID:          id,
		SellerID:    sellerID,
		Title:       title,
		Slug:        fmt.Sprintf("%s-%s", slug.Make(title), id.Base36()),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Currency:    currency,
		Status:      domain.ListingStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &listing); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Listing{}, domain.ErrSlugTaken
		}
		return domain.Listing{}, err
	}

	return listing, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Listing{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Listing{}, err
	}
	if item == nil {
		return domain.Listing{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) GetBySlug(ctx context.Context, value string) (domain.Listing, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Listing{}, domain.ErrNotFound
	}

	item, err := s.repo.FindBySlug(ctx, s.db, value)
	if err != nil {
		return domain.Listing{}, err
	}
	if item == nil {
		return domain.Listing{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListListingsRequest) (domain.ListListingsResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{Status: domain.ListingStatusPublished}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListListingsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(listing *domain.Listing) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        listing.ID.String(),
			CreatedAt: listing.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	listings := make([]domain.Listing, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		listings = append(listings, *item)
	}

	return domain.ListListingsResponse{PageInfo: *pageInfo, Listings: listings}, nil
}

func (s *Service) Publish(ctx context.Context, sellerID snowflake.ID, id string) (domain.Listing, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Listing{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Listing{}, err
	}
	if item == nil {
		return domain.Listing{}, domain.ErrNotFound
	}
	if item.SellerID != sellerID {
		return domain.Listing{}, domain.ErrNotOwner
	}

	if err := s.repo.UpdateStatus(ctx, s.db, parsed, domain.ListingStatusPublished); err != nil {
		return domain.Listing{}, err
	}
	item.Status = domain.ListingStatusPublished

	return *item, nil
}

func (s *Service) Suspend(ctx context.Context, id string) (domain.Listing, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Listing{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Listing{}, err
	}
	if item == nil {
		return domain.Listing{}, domain.ErrNotFound
	}

	if err := s.repo.UpdateStatus(ctx, s.db, parsed, domain.ListingStatusSuspended); err != nil {
		return domain.Listing{}, err
	}
	item.Status = domain.ListingStatusSuspended

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
