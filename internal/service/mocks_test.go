package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/event"
	"github.com/glowcart/promotion-service/internal/repository"
	pkgkafka "github.com/glowcart/promotion-service/pkg/kafka"
)

type mockPromotionRepo struct {
	mock.Mock
}

func (m *mockPromotionRepo) Create(ctx context.Context, promotion *domain.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

func (m *mockPromotionRepo) GetByID(ctx context.Context, id string) (*domain.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Promotion), args.Error(1)
}

func (m *mockPromotionRepo) List(ctx context.Context, filter repository.PromotionFilter) ([]domain.Promotion, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Promotion), args.Int(1), args.Error(2)
}

func (m *mockPromotionRepo) ListActive(ctx context.Context, at time.Time) ([]domain.Promotion, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Promotion), args.Error(1)
}

func (m *mockPromotionRepo) Update(ctx context.Context, promotion *domain.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

func (m *mockPromotionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockProductReader struct {
	mock.Mock
}

func (m *mockProductReader) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockPoolCache struct {
	mock.Mock
}

func (m *mockPoolCache) Get(ctx context.Context) (*domain.ActivePromotions, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.ActivePromotions), args.Bool(1), args.Error(2)
}

func (m *mockPoolCache) Set(ctx context.Context, pool *domain.ActivePromotions) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *mockPoolCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testProducer builds a real producer pointed at an unreachable broker.
// Publish failures are logged and swallowed by the service, so tests pass
// without Kafka.
func testProducer(logger *slog.Logger) *event.Producer {
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestPromotionService(repo *mockPromotionRepo, products *mockProductReader) *PromotionService {
	logger := testLogger()
	pool := NewPoolService(repo, nil, logger)
	validator := NewExclusivityValidator(pool, logger)
	return NewPromotionService(repo, products, validator, pool, testProducer(logger), logger)
}

func int64Ptr(v int64) *int64 {
	return &v
}
