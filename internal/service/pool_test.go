package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/promotion-service/internal/domain"
)

func TestActivePromotionsCacheHit(t *testing.T) {
	repo := new(mockPromotionRepo)
	cache := new(mockPoolCache)
	svc := NewPoolService(repo, cache, testLogger())

	cached := &domain.ActivePromotions{
		Events: []domain.Promotion{activePromotion("promo-e", domain.PromotionKindEvent, "Tet Sale 2026")},
	}
	cache.On("Get", mock.Anything).Return(cached, true, nil)

	pool, err := svc.ActivePromotions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, pool)
	repo.AssertNotCalled(t, "ListActive", mock.Anything, mock.Anything)
}

func TestActivePromotionsCacheMiss(t *testing.T) {
	repo := new(mockPromotionRepo)
	cache := new(mockPoolCache)
	svc := NewPoolService(repo, cache, testLogger())

	cache.On("Get", mock.Anything).Return(nil, false, nil)
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{
		activePromotion("promo-e", domain.PromotionKindEvent, "Tet Sale 2026"),
		activePromotion("promo-c", domain.PromotionKindCampaign, "Summer Glow"),
	}, nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("*domain.ActivePromotions")).Return(nil)

	pool, err := svc.ActivePromotions(context.Background())
	require.NoError(t, err)
	assert.Len(t, pool.Events, 1)
	assert.Len(t, pool.Campaigns, 1)
	cache.AssertExpectations(t)
}

func TestActivePromotionsCacheErrorDegradesToLive(t *testing.T) {
	repo := new(mockPromotionRepo)
	cache := new(mockPoolCache)
	svc := NewPoolService(repo, cache, testLogger())

	cache.On("Get", mock.Anything).Return(nil, false, errors.New("redis down"))
	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{}, nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("*domain.ActivePromotions")).Return(errors.New("redis down"))

	pool, err := svc.ActivePromotions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pool.Events)
	assert.Empty(t, pool.Campaigns)
}

func TestActivePromotionsLiveBypassesCache(t *testing.T) {
	repo := new(mockPromotionRepo)
	cache := new(mockPoolCache)
	svc := NewPoolService(repo, cache, testLogger())

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{}, nil)

	_, err := svc.ActivePromotionsLive(context.Background())
	require.NoError(t, err)
	cache.AssertNotCalled(t, "Get", mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestActivePromotionsNilCache(t *testing.T) {
	repo := new(mockPromotionRepo)
	svc := NewPoolService(repo, nil, testLogger())

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{}, nil)

	pool, err := svc.ActivePromotions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pool.Events)
	assert.NotNil(t, pool.Campaigns)

	// InvalidateCache on a nil cache is a no-op.
	svc.InvalidateCache(context.Background())
}

func TestInvalidateCacheSwallowsErrors(t *testing.T) {
	repo := new(mockPromotionRepo)
	cache := new(mockPoolCache)
	svc := NewPoolService(repo, cache, testLogger())

	cache.On("Invalidate", mock.Anything).Return(errors.New("redis down"))

	svc.InvalidateCache(context.Background())
	cache.AssertExpectations(t)
}

func TestSplitByKind(t *testing.T) {
	promotions := []domain.Promotion{
		activePromotion("promo-e1", domain.PromotionKindEvent, "Tet Sale 2026"),
		activePromotion("promo-c1", domain.PromotionKindCampaign, "Summer Glow"),
		activePromotion("promo-e2", domain.PromotionKindEvent, "Mid-Autumn Deals"),
	}

	pool := splitByKind(promotions)
	require.Len(t, pool.Events, 2)
	require.Len(t, pool.Campaigns, 1)
	assert.Equal(t, "promo-e1", pool.Events[0].ID)
	assert.Equal(t, "promo-e2", pool.Events[1].ID)
	assert.Equal(t, "promo-c1", pool.Campaigns[0].ID)
}
