package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/repository"
	apperrors "github.com/glowcart/promotion-service/pkg/errors"
)

// PromotionRef identifies the promotion that produced an effective price.
type PromotionRef struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// EffectivePrice is the resolved selling price for a product.
type EffectivePrice struct {
	ProductID       string        `json:"product_id"`
	Price           int64         `json:"price"`
	OriginalPrice   int64         `json:"original_price"`
	DiscountPercent int           `json:"discount_percent"`
	Promotion       *PromotionRef `json:"promotion,omitempty"`
}

// PriceService resolves effective selling prices by overlaying the active
// promotion pool on catalog prices. Matching is at the product level: any
// adjusted price anywhere in a promotion's entry tree for the product
// participates, regardless of variant granularity.
type PriceService struct {
	pool     *PoolService
	products repository.ProductReader
	logger   *slog.Logger
}

// NewPriceService creates a new price service.
func NewPriceService(pool *PoolService, products repository.ProductReader, logger *slog.Logger) *PriceService {
	return &PriceService{
		pool:     pool,
		products: products,
		logger:   logger,
	}
}

// ResolvePrice resolves the effective price for a single product.
func (s *PriceService) ResolvePrice(ctx context.Context, productID string) (*EffectivePrice, error) {
	prices, err := s.ResolvePrices(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, apperrors.NotFound("product", productID)
	}
	return &prices[0], nil
}

// ResolvePrices resolves effective prices for a batch of products, in input
// order. Unknown product IDs are skipped. A pool read failure degrades to
// catalog prices; this path is read-only and non-authoritative.
func (s *PriceService) ResolvePrices(ctx context.Context, productIDs []string) ([]EffectivePrice, error) {
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch products for pricing: %w", err)
	}

	pool, err := s.pool.ActivePromotions(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "price resolution degraded to catalog prices",
			slog.String("error", err.Error()),
		)
		pool = &domain.ActivePromotions{}
	}

	prices := make([]EffectivePrice, 0, len(products))
	for i := range products {
		prices = append(prices, resolveForProduct(&products[i], pool))
	}
	return prices, nil
}

// resolveForProduct computes the effective price for one product against the
// pool. Events are scanned before campaigns and only a strictly lower price
// replaces the current best, so an event wins a tie with a campaign.
func resolveForProduct(product *domain.Product, pool *domain.ActivePromotions) EffectivePrice {
	var (
		best    int64
		bestRef *PromotionRef
	)

	consider := func(promotions []domain.Promotion, kind string) {
		for i := range promotions {
			price, ok := promotions[i].MinAdjustedPrice(product.ID)
			if !ok {
				continue
			}
			if bestRef == nil || price < best {
				best = price
				bestRef = &PromotionRef{
					Kind:  kind,
					ID:    promotions[i].ID,
					Title: promotions[i].Title,
				}
			}
		}
	}

	consider(pool.Events, domain.PromotionKindEvent)
	consider(pool.Campaigns, domain.PromotionKindCampaign)

	original := product.Price

	if bestRef == nil {
		return EffectivePrice{
			ProductID:     product.ID,
			Price:         product.BasePrice(),
			OriginalPrice: original,
		}
	}

	effective := best
	if effective < 0 {
		effective = 0
	}

	return EffectivePrice{
		ProductID:       product.ID,
		Price:           effective,
		OriginalPrice:   original,
		DiscountPercent: discountPercent(original, effective),
		Promotion:       bestRef,
	}
}

// discountPercent computes round((original - effective) / original * 100).
func discountPercent(original, effective int64) int {
	if original <= 0 || effective >= original {
		return 0
	}
	return int(math.Round(float64(original-effective) / float64(original) * 100))
}
