package repository

import (
	"context"
	"time"

	"github.com/glowcart/promotion-service/internal/domain"
)

// PromotionFilter defines filter criteria for listing promotions.
type PromotionFilter struct {
	Kind     *string
	Status   *string
	ActiveAt *time.Time
	Page     int
	PerPage  int
}

// PromotionRepository defines the interface for promotion persistence
// operations. Implementations keep the promotion_products claim table in
// sync with each promotion's product list so the database enforces the
// one-active-promotion-per-product rule even under concurrent writers.
type PromotionRepository interface {
	// Create inserts a new promotion and claims its products.
	Create(ctx context.Context, promotion *domain.Promotion) error

	// GetByID retrieves a promotion by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Promotion, error)

	// List returns promotions matching the given filter along with the total count.
	List(ctx context.Context, filter PromotionFilter) ([]domain.Promotion, int, error)

	// ListActive returns all promotions whose date window covers the given instant.
	ListActive(ctx context.Context, at time.Time) ([]domain.Promotion, error)

	// Update persists the promotion and reconciles its product claims.
	Update(ctx context.Context, promotion *domain.Promotion) error

	// Delete removes a promotion and releases its product claims.
	Delete(ctx context.Context, id string) error
}

// ProductReader looks up product catalog records used to enrich promotion
// entries. Missing IDs are skipped, not errored.
type ProductReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}
