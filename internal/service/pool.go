package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/repository"
)

// PoolCache caches the active promotion pool with a bounded TTL. Implemented
// by cache.PoolCache; nil disables caching.
type PoolCache interface {
	Get(ctx context.Context) (*domain.ActivePromotions, bool, error)
	Set(ctx context.Context, pool *domain.ActivePromotions) error
	Invalidate(ctx context.Context) error
}

// PoolService builds the point-in-time view of active promotions. Read paths
// may serve from cache; validators and mutators call ActivePromotionsLive so
// a just-created promotion is always visible to exclusivity checks.
type PoolService struct {
	repo   repository.PromotionRepository
	cache  PoolCache
	logger *slog.Logger
}

// NewPoolService creates a new pool service. cache may be nil.
func NewPoolService(repo repository.PromotionRepository, cache PoolCache, logger *slog.Logger) *PoolService {
	return &PoolService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// ActivePromotions returns the active pool, serving from cache when possible.
// Cache failures degrade to a live read.
func (s *PoolService) ActivePromotions(ctx context.Context) (*domain.ActivePromotions, error) {
	if s.cache != nil {
		pool, hit, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "active pool cache read failed",
				slog.String("error", err.Error()),
			)
		} else if hit {
			return pool, nil
		}
	}

	pool, err := s.ActivePromotionsLive(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, pool); err != nil {
			s.logger.WarnContext(ctx, "active pool cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return pool, nil
}

// ActivePromotionsLive reads the active pool directly from the repository.
func (s *PoolService) ActivePromotionsLive(ctx context.Context) (*domain.ActivePromotions, error) {
	promotions, err := s.repo.ListActive(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list active promotions: %w", err)
	}
	return splitByKind(promotions), nil
}

// InvalidateCache drops the cached pool. Called after every mutation; cache
// failures are logged and swallowed since the TTL bounds staleness anyway.
func (s *PoolService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "active pool cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}

// splitByKind partitions promotions into events and campaigns, preserving
// order. Both slices are non-nil.
func splitByKind(promotions []domain.Promotion) *domain.ActivePromotions {
	pool := &domain.ActivePromotions{
		Events:    []domain.Promotion{},
		Campaigns: []domain.Promotion{},
	}
	for _, p := range promotions {
		switch p.Kind {
		case domain.PromotionKindEvent:
			pool.Events = append(pool.Events, p)
		case domain.PromotionKindCampaign:
			pool.Campaigns = append(pool.Campaigns, p)
		}
	}
	return pool
}
