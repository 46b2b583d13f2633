package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glowcart/promotion-service/internal/domain"
	pkgkafka "github.com/glowcart/promotion-service/pkg/kafka"
)

// Kafka topic constants for promotion domain events.
const (
	TopicPromotionCreated        = "glowcart.promotion.created"
	TopicPromotionUpdated        = "glowcart.promotion.updated"
	TopicPromotionDeleted        = "glowcart.promotion.deleted"
	TopicPromotionProductsAdded  = "glowcart.promotion.products_added"
	TopicPromotionProductRemoved = "glowcart.promotion.product_removed"
	TopicPromotionPriceUpdated   = "glowcart.promotion.price_updated"
)

// Aggregate type constant.
const AggregateTypePromotion = "promotion"

// Source identifier for events originating from the promotion service.
const SourcePromotionService = "promotion-service"

// PromotionData is the payload for promotion lifecycle events.
type PromotionData struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	ProductCount int    `json:"product_count"`
}

// ProductsAddedData is the payload for a promotion.products_added event.
type ProductsAddedData struct {
	PromotionID string   `json:"promotion_id"`
	Kind        string   `json:"kind"`
	ProductIDs  []string `json:"product_ids"`
}

// ProductRemovedData is the payload for a promotion.product_removed event.
type ProductRemovedData struct {
	PromotionID   string `json:"promotion_id"`
	Kind          string `json:"kind"`
	ProductID     string `json:"product_id"`
	VariantID     string `json:"variant_id,omitempty"`
	CombinationID string `json:"combination_id,omitempty"`
}

// PriceUpdatedData is the payload for a promotion.price_updated event.
type PriceUpdatedData struct {
	PromotionID   string `json:"promotion_id"`
	Kind          string `json:"kind"`
	ProductID     string `json:"product_id"`
	VariantID     string `json:"variant_id,omitempty"`
	CombinationID string `json:"combination_id,omitempty"`
	AdjustedPrice int64  `json:"adjusted_price"`
}

// Producer publishes promotion domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the promotion service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// promotionData builds the shared lifecycle payload.
func promotionData(p *domain.Promotion) PromotionData {
	return PromotionData{
		ID:           p.ID,
		Kind:         p.Kind,
		Title:        p.Title,
		Status:       p.Status,
		StartDate:    p.StartDate.Format("2006-01-02T15:04:05Z07:00"),
		EndDate:      p.EndDate.Format("2006-01-02T15:04:05Z07:00"),
		ProductCount: len(p.Products),
	}
}

// publish wraps event construction and publishing for a promotion aggregate.
func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypePromotion, SourcePromotionService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published promotion event",
		slog.String("topic", topic),
		slog.String("promotion_id", aggregateID),
	)

	return nil
}

// PublishPromotionCreated publishes a promotion.created event.
func (p *Producer) PublishPromotionCreated(ctx context.Context, promotion *domain.Promotion) error {
	return p.publish(ctx, TopicPromotionCreated, promotion.ID, promotionData(promotion))
}

// PublishPromotionUpdated publishes a promotion.updated event.
func (p *Producer) PublishPromotionUpdated(ctx context.Context, promotion *domain.Promotion) error {
	return p.publish(ctx, TopicPromotionUpdated, promotion.ID, promotionData(promotion))
}

// PublishPromotionDeleted publishes a promotion.deleted event.
func (p *Producer) PublishPromotionDeleted(ctx context.Context, promotion *domain.Promotion) error {
	return p.publish(ctx, TopicPromotionDeleted, promotion.ID, promotionData(promotion))
}

// PublishProductsAdded publishes a promotion.products_added event.
func (p *Producer) PublishProductsAdded(ctx context.Context, promotion *domain.Promotion, productIDs []string) error {
	return p.publish(ctx, TopicPromotionProductsAdded, promotion.ID, ProductsAddedData{
		PromotionID: promotion.ID,
		Kind:        promotion.Kind,
		ProductIDs:  productIDs,
	})
}

// PublishProductRemoved publishes a promotion.product_removed event.
func (p *Producer) PublishProductRemoved(ctx context.Context, promotion *domain.Promotion, ref domain.EntryRef) error {
	return p.publish(ctx, TopicPromotionProductRemoved, promotion.ID, ProductRemovedData{
		PromotionID:   promotion.ID,
		Kind:          promotion.Kind,
		ProductID:     ref.ProductID,
		VariantID:     ref.VariantID,
		CombinationID: ref.CombinationID,
	})
}

// PublishPriceUpdated publishes a promotion.price_updated event.
func (p *Producer) PublishPriceUpdated(ctx context.Context, promotion *domain.Promotion, ref domain.EntryRef, adjustedPrice int64) error {
	return p.publish(ctx, TopicPromotionPriceUpdated, promotion.ID, PriceUpdatedData{
		PromotionID:   promotion.ID,
		Kind:          promotion.Kind,
		ProductID:     ref.ProductID,
		VariantID:     ref.VariantID,
		CombinationID: ref.CombinationID,
		AdjustedPrice: adjustedPrice,
	})
}
