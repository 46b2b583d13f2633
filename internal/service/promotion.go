package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/event"
	"github.com/glowcart/promotion-service/internal/repository"
	apperrors "github.com/glowcart/promotion-service/pkg/errors"
)

// PromotionService implements the business logic for promotion lifecycle and
// product list mutations.
type PromotionService struct {
	repo      repository.PromotionRepository
	products  repository.ProductReader
	validator *ExclusivityValidator
	pool      *PoolService
	producer  *event.Producer
	logger    *slog.Logger
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(
	repo repository.PromotionRepository,
	products repository.ProductReader,
	validator *ExclusivityValidator,
	pool *PoolService,
	producer *event.Producer,
	logger *slog.Logger,
) *PromotionService {
	return &PromotionService{
		repo:      repo,
		products:  products,
		validator: validator,
		pool:      pool,
		producer:  producer,
		logger:    logger,
	}
}

// CreatePromotionInput holds the parameters for creating a promotion.
type CreatePromotionInput struct {
	Kind        string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Products    []domain.ProductEntry
}

// UpdatePromotionInput holds the parameters for updating a promotion.
// Nil fields are left unchanged.
type UpdatePromotionInput struct {
	Title       *string
	Description *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreatePromotion creates a new promotion with an initial, exclusivity-checked
// product list.
func (s *PromotionService) CreatePromotion(ctx context.Context, input *CreatePromotionInput) (*domain.Promotion, error) {
	if !domain.IsValidKind(input.Kind) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid promotion kind %q, must be one of: %s", input.Kind, strings.Join(domain.ValidKinds(), ", ")))
	}
	if input.Title == "" {
		return nil, apperrors.InvalidInput("promotion title is required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, apperrors.InvalidInput("end date must not be before start date")
	}
	if err := validateEntries(input.Products); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	promotion := &domain.Promotion{
		ID:          uuid.New().String(),
		Kind:        input.Kind,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.PromotionStatusDraft,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Products:    []domain.ProductEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if len(input.Products) > 0 {
		candidateIDs := entryProductIDs(input.Products)
		if err := s.validator.CheckConflicts(ctx, candidateIDs, promotion.Kind, ""); err != nil {
			return nil, err
		}

		promotion.MergeEntries(input.Products)
		if err := s.enrichEntries(ctx, promotion, candidateIDs); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, promotion); err != nil {
		return nil, fmt.Errorf("create promotion: %w", err)
	}

	s.pool.InvalidateCache(ctx)

	if err := s.producer.PublishPromotionCreated(ctx, promotion); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.created event",
			slog.String("promotion_id", promotion.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "promotion created",
		slog.String("promotion_id", promotion.ID),
		slog.String("kind", promotion.Kind),
		slog.String("title", promotion.Title),
	)

	return promotion, nil
}

// GetPromotion retrieves a promotion by its ID, refreshing denormalized
// product fields opportunistically.
func (s *PromotionService) GetPromotion(ctx context.Context, id string) (*domain.Promotion, error) {
	promotion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion by id: %w", err)
	}

	s.populateProductDetails(ctx, promotion)

	return promotion, nil
}

// ListPromotions returns a filtered, paginated list of promotions.
func (s *PromotionService) ListPromotions(ctx context.Context, filter repository.PromotionFilter) ([]domain.Promotion, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	promotions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list promotions: %w", err)
	}

	return promotions, total, nil
}

// UpdatePromotion applies partial updates to a promotion's metadata. The
// promotion must belong to the collection the update came through.
func (s *PromotionService) UpdatePromotion(ctx context.Context, id, kind string, input *UpdatePromotionInput) (*domain.Promotion, error) {
	promotion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion for update: %w", err)
	}
	if err := requireKind(promotion, kind); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("promotion title must not be empty")
		}
		promotion.Title = *input.Title
	}

	if input.Description != nil {
		promotion.Description = *input.Description
	}

	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", *input.Status, strings.Join(domain.ValidStatuses(), ", ")))
		}
		promotion.Status = *input.Status
	}

	if input.StartDate != nil {
		promotion.StartDate = *input.StartDate
	}

	if input.EndDate != nil {
		promotion.EndDate = *input.EndDate
	}

	if promotion.EndDate.Before(promotion.StartDate) {
		return nil, apperrors.InvalidInput("end date must not be before start date")
	}

	if err := s.repo.Update(ctx, promotion); err != nil {
		return nil, fmt.Errorf("update promotion: %w", err)
	}

	s.pool.InvalidateCache(ctx)

	if err := s.producer.PublishPromotionUpdated(ctx, promotion); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.updated event",
			slog.String("promotion_id", promotion.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "promotion updated",
		slog.String("promotion_id", promotion.ID),
		slog.String("title", promotion.Title),
	)

	return promotion, nil
}

// DeletePromotion removes a promotion and releases its product claims.
func (s *PromotionService) DeletePromotion(ctx context.Context, id, kind string) error {
	promotion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get promotion for delete: %w", err)
	}
	if err := requireKind(promotion, kind); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}

	s.pool.InvalidateCache(ctx)

	if err := s.producer.PublishPromotionDeleted(ctx, promotion); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.deleted event",
			slog.String("promotion_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "promotion deleted",
		slog.String("promotion_id", id),
	)

	return nil
}

// AddProducts attaches new product entries to a promotion. Candidates are
// exclusivity-checked against live state (excluding the promotion itself),
// deduplicated against entries already present, and enriched from the
// product catalog before persisting.
func (s *PromotionService) AddProducts(ctx context.Context, promotionID, kind string, entries []domain.ProductEntry) (*domain.Promotion, error) {
	if len(entries) == 0 {
		return nil, apperrors.InvalidInput("product list must not be empty")
	}
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	promotion, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("get promotion for add products: %w", err)
	}
	if err := requireKind(promotion, kind); err != nil {
		return nil, err
	}

	candidateIDs := entryProductIDs(entries)
	if err := s.validator.CheckConflicts(ctx, candidateIDs, promotion.Kind, promotion.ID); err != nil {
		return nil, err
	}

	added := promotion.MergeEntries(entries)

	if err := s.enrichEntries(ctx, promotion, candidateIDs); err != nil {
		return nil, err
	}
	s.populateProductDetails(ctx, promotion)

	if err := s.repo.Update(ctx, promotion); err != nil {
		return nil, fmt.Errorf("persist added products: %w", err)
	}

	s.pool.InvalidateCache(ctx)

	if len(added) > 0 {
		addedIDs := entryProductIDs(added)
		if err := s.producer.PublishProductsAdded(ctx, promotion, addedIDs); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish promotion.products_added event",
				slog.String("promotion_id", promotion.ID),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "products added to promotion",
			slog.String("promotion_id", promotion.ID),
			slog.Int("count", len(addedIDs)),
		)
	}

	return promotion, nil
}

// RemoveProduct deletes a product entry, a single variant, or a single
// combination from a promotion, depending on how deep the ref points.
func (s *PromotionService) RemoveProduct(ctx context.Context, promotionID, kind string, ref domain.EntryRef) (*domain.Promotion, error) {
	if ref.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	promotion, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("get promotion for remove product: %w", err)
	}
	if err := requireKind(promotion, kind); err != nil {
		return nil, err
	}

	if !promotion.RemoveAt(ref) {
		return nil, apperrors.NotFound(refLevel(ref), refID(ref))
	}

	s.populateProductDetails(ctx, promotion)

	if err := s.repo.Update(ctx, promotion); err != nil {
		return nil, fmt.Errorf("persist product removal: %w", err)
	}

	s.pool.InvalidateCache(ctx)

	if err := s.producer.PublishProductRemoved(ctx, promotion, ref); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.product_removed event",
			slog.String("promotion_id", promotion.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product removed from promotion",
		slog.String("promotion_id", promotion.ID),
		slog.String("product_id", ref.ProductID),
	)

	return promotion, nil
}

// UpdateProductPrice overwrites the adjusted price at the exact level the ref
// addresses. Sibling levels keep their prices.
func (s *PromotionService) UpdateProductPrice(ctx context.Context, promotionID, kind string, ref domain.EntryRef, adjustedPrice int64) (*domain.Promotion, error) {
	if ref.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if adjustedPrice < 0 {
		return nil, apperrors.InvalidInput("adjusted price must not be negative")
	}

	promotion, err := s.repo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("get promotion for price update: %w", err)
	}
	if err := requireKind(promotion, kind); err != nil {
		return nil, err
	}

	if !promotion.UpdatePriceAt(ref, adjustedPrice) {
		return nil, apperrors.NotFound(refLevel(ref), refID(ref))
	}

	s.populateProductDetails(ctx, promotion)

	if err := s.repo.Update(ctx, promotion); err != nil {
		return nil, fmt.Errorf("persist price update: %w", err)
	}

	s.pool.InvalidateCache(ctx)

	if err := s.producer.PublishPriceUpdated(ctx, promotion, ref, adjustedPrice); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish promotion.price_updated event",
			slog.String("promotion_id", promotion.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "promotion price updated",
		slog.String("promotion_id", promotion.ID),
		slog.String("product_id", ref.ProductID),
		slog.Int64("adjusted_price", adjustedPrice),
	)

	return promotion, nil
}

// CheckProductsInPromotions exposes the validator's read-only membership
// check.
func (s *PromotionService) CheckProductsInPromotions(ctx context.Context, productIDs []string) []ProductMembership {
	return s.validator.CheckProductsInPromotions(ctx, productIDs)
}

// enrichEntries fills denormalized display fields for the given candidate
// products from the catalog. A candidate the catalog does not know fails the
// mutation; a promotion should never reference a nonexistent product.
func (s *PromotionService) enrichEntries(ctx context.Context, promotion *domain.Promotion, candidateIDs []string) error {
	products, err := s.products.FindByIDs(ctx, candidateIDs)
	if err != nil {
		return fmt.Errorf("fetch products for enrichment: %w", err)
	}

	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, id := range candidateIDs {
		if _, ok := byID[id]; !ok {
			return apperrors.NotFound("product", id)
		}
	}

	for i := range promotion.Products {
		if product, ok := byID[promotion.Products[i].ProductID]; ok {
			promotion.Products[i].ApplyProductDetails(product)
		}
	}

	return nil
}

// populateProductDetails opportunistically refreshes every entry's
// denormalized fields from the catalog, so stale names and images self-heal
// on each write. Catalog failures are logged, not fatal: this refresh is
// non-authoritative.
func (s *PromotionService) populateProductDetails(ctx context.Context, promotion *domain.Promotion) {
	ids := promotion.ProductIDs()
	if len(ids) == 0 {
		return
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "product detail refresh skipped",
			slog.String("promotion_id", promotion.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for i := range promotion.Products {
		if product, ok := byID[promotion.Products[i].ProductID]; ok {
			promotion.Products[i].ApplyProductDetails(product)
		}
	}
}

// requireKind guards mutations reached through a kind-scoped collection.
// A promotion of the other kind does not exist under this collection, so
// nothing may change before the check passes.
func requireKind(promotion *domain.Promotion, kind string) error {
	if promotion.Kind != kind {
		return apperrors.NotFound(kind, promotion.ID)
	}
	return nil
}

// validateEntries checks structural invariants on incoming product entries.
func validateEntries(entries []domain.ProductEntry) error {
	for _, entry := range entries {
		if entry.ProductID == "" {
			return apperrors.InvalidInput("product id is required on every entry")
		}
		if entry.AdjustedPrice != nil && *entry.AdjustedPrice < 0 {
			return apperrors.InvalidInput(fmt.Sprintf("adjusted price for product %s must not be negative", entry.ProductID))
		}
		for _, variant := range entry.Variants {
			if variant.VariantID == "" {
				return apperrors.InvalidInput(fmt.Sprintf("variant id is required on product %s", entry.ProductID))
			}
			if variant.AdjustedPrice != nil && *variant.AdjustedPrice < 0 {
				return apperrors.InvalidInput(fmt.Sprintf("adjusted price for variant %s must not be negative", variant.VariantID))
			}
			for _, combo := range variant.Combinations {
				if combo.CombinationID == "" {
					return apperrors.InvalidInput(fmt.Sprintf("combination id is required on variant %s", variant.VariantID))
				}
				if combo.AdjustedPrice != nil && *combo.AdjustedPrice < 0 {
					return apperrors.InvalidInput(fmt.Sprintf("adjusted price for combination %s must not be negative", combo.CombinationID))
				}
			}
		}
	}
	return nil
}

// entryProductIDs returns the distinct product IDs across entries, in order.
func entryProductIDs(entries []domain.ProductEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.ProductID]; ok {
			continue
		}
		seen[entry.ProductID] = struct{}{}
		ids = append(ids, entry.ProductID)
	}
	return ids
}

// refLevel names the deepest level an EntryRef addresses, for error messages.
func refLevel(ref domain.EntryRef) string {
	switch {
	case ref.CombinationID != "":
		return "combination"
	case ref.VariantID != "":
		return "variant"
	default:
		return "promotion product"
	}
}

// refID returns the identifier at the deepest addressed level.
func refID(ref domain.EntryRef) string {
	switch {
	case ref.CombinationID != "":
		return ref.CombinationID
	case ref.VariantID != "":
		return ref.VariantID
	default:
		return ref.ProductID
	}
}
