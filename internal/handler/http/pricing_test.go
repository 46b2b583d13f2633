package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/service"
)

func pricedSample(adjusted int64) *domain.Promotion {
	p := samplePromotion(domain.PromotionKindEvent)
	p.Products[0].AdjustedPrice = &adjusted
	return p
}

// ============================================================================
// GET /api/v1/prices/{productId} - ResolvePrice
// ============================================================================

func TestResolvePrice_Success(t *testing.T) {
	repo := new(mockPromotionRepository)
	products := new(mockProductReader)
	router := setupRouter(repo, products)

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{*pricedSample(199000)}, nil)
	products.On("FindByIDs", mock.Anything, []string{"prod-100"}).Return(sampleCatalog(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/prod-100", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data service.EffectivePrice `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(199000), resp.Data.Price)
	assert.Equal(t, int64(250000), resp.Data.OriginalPrice)
	assert.Equal(t, 20, resp.Data.DiscountPercent)
	require.NotNil(t, resp.Data.Promotion)
	assert.Equal(t, domain.PromotionKindEvent, resp.Data.Promotion.Kind)
}

func TestResolvePrice_UnknownProduct(t *testing.T) {
	repo := new(mockPromotionRepository)
	products := new(mockProductReader)
	router := setupRouter(repo, products)

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{}, nil)
	products.On("FindByIDs", mock.Anything, []string{"prod-999"}).Return([]domain.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/prod-999", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// POST /api/v1/prices/resolve - ResolvePrices
// ============================================================================

func TestResolvePrices_Success(t *testing.T) {
	repo := new(mockPromotionRepository)
	products := new(mockProductReader)
	router := setupRouter(repo, products)

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{}, nil)
	products.On("FindByIDs", mock.Anything, []string{"prod-100"}).Return(sampleCatalog(), nil)

	body, _ := json.Marshal(ResolvePricesRequest{ProductIDs: []string{"prod-100"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []service.EffectivePrice `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(250000), resp.Data[0].Price)
	assert.Nil(t, resp.Data[0].Promotion)
}

func TestResolvePrices_EmptyList(t *testing.T) {
	repo := new(mockPromotionRepository)
	products := new(mockProductReader)
	router := setupRouter(repo, products)

	body, _ := json.Marshal(ResolvePricesRequest{ProductIDs: []string{}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// ============================================================================
// GET /api/v1/promotions/active - ActivePromotions
// ============================================================================

func TestActivePromotions_Success(t *testing.T) {
	repo := new(mockPromotionRepository)
	products := new(mockProductReader)
	router := setupRouter(repo, products)

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{
		*samplePromotion(domain.PromotionKindEvent),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/promotions/active", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.ActivePromotions `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data.Events, 1)
	assert.Empty(t, resp.Data.Campaigns)
}

func TestActiveByKind_FiltersCollection(t *testing.T) {
	repo := new(mockPromotionRepository)
	products := new(mockProductReader)
	router := setupRouter(repo, products)

	repo.On("ListActive", mock.Anything, mock.AnythingOfType("time.Time")).Return([]domain.Promotion{
		*samplePromotion(domain.PromotionKindEvent),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/active", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Promotion `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data)
}
