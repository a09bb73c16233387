package service

import (
	"context"
	"time"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/repo/mongodb"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type BannerService interface {
	List(ctx context.Context) ([]domain.Banner, error)
	Get(ctx context.Context, id string) (*domain.Banner, error)
	Active(ctx context.Context) (*domain.Banner, error)
	Create(ctx context.Context, in domain.BannerInput) (domain.InsertResult, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
	// Activate makes id the only active banner. The two writes are not
	// atomic: a failure between them leaves no banner active, never two.
	Activate(ctx context.Context, id string) (domain.UpdateResult, error)
}

type bannerService struct {
	banners  mongodb.BannersRepo
	eventBus events.Publisher
	now      func() time.Time
}

func NewBannerService(banners mongodb.BannersRepo, eventBus events.Publisher) BannerService {
	if eventBus == nil {
		eventBus = events.NopBus{}
	}
	return &bannerService{banners: banners, eventBus: eventBus, now: time.Now}
}

func (s *bannerService) List(ctx context.Context) ([]domain.Banner, error) {
	return s.banners.List(ctx)
}

func (s *bannerService) Get(ctx context.Context, id string) (*domain.Banner, error) {
	return s.banners.FindByID(ctx, id)
}

func (s *bannerService) Active(ctx context.Context) (*domain.Banner, error) {
	return s.banners.FindActive(ctx)
}

func (s *bannerService) Create(ctx context.Context, in domain.BannerInput) (domain.InsertResult, error) {
	if err := in.Validate(); err != nil {
		return domain.InsertResult{}, err
	}
	b := &domain.Banner{
		Name:         in.Name,
		Image:        in.Image,
		Title:        in.Title,
		Description:  in.Description,
		CouponCode:   in.CouponCode,
		DiscountRate: in.DiscountRate,
		IsActive:     false,
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.banners.Insert(ctx, b)
	if err != nil {
		return domain.InsertResult{}, err
	}
	return domain.Inserted(id), nil
}

func (s *bannerService) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.banners.Delete(ctx, id)
}

func (s *bannerService) Activate(ctx context.Context, id string) (domain.UpdateResult, error) {
	if _, err := s.banners.FindByID(ctx, id); err != nil {
		return domain.UpdateResult{}, err
	}
	if _, err := s.banners.DeactivateAll(ctx); err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := s.banners.Activate(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "Banner activation incomplete, no banner is active", "error", err, "banner_id", id)
		return domain.UpdateResult{}, err
	}

	event := events.BannerActivatedEvent{BannerID: id, ActivatedAt: s.now().UTC()}
	if err := s.eventBus.Publish(ctx, events.BannerActivated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish banner activated event", "error", err, "banner_id", id)
	}
	return res, nil
}
