package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/service"
	"github.com/glowcart/promotion-service/pkg/health"
	"github.com/glowcart/promotion-service/pkg/middleware"
)

// NewRouter creates a chi router with all promotion service routes
// registered. Events and campaigns are separate collections over the same
// handler set.
func NewRouter(
	promotionService *service.PromotionService,
	priceService *service.PriceService,
	poolService *service.PoolService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("promotion"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("promotion"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	promotionHandler := NewPromotionHandler(promotionService, logger)
	pricingHandler := NewPricingHandler(priceService, poolService, logger)

	registerCollection := func(r chi.Router, kind string) {
		r.Use(ContentTypeJSON)

		r.Post("/", promotionHandler.CreatePromotion(kind))
		r.Get("/", promotionHandler.ListPromotions(kind))
		r.With(middleware.CacheControl(30)).Get("/active", pricingHandler.ActiveByKind(kind))
		r.Get("/{id}", promotionHandler.GetPromotion(kind))
		r.Get("/{id}/summary", promotionHandler.GetSummary(kind))
		r.Put("/{id}", promotionHandler.UpdatePromotion(kind))
		r.Delete("/{id}", promotionHandler.DeletePromotion(kind))
		r.Post("/{id}/products", promotionHandler.AddProducts(kind))
		r.Delete("/{id}/products/{productId}", promotionHandler.RemoveProduct(kind))
		r.Patch("/{id}/products/{productId}", promotionHandler.UpdateProductPrice(kind))
	}

	r.Route("/api/v1/events", func(r chi.Router) {
		registerCollection(r, domain.PromotionKindEvent)
	})

	r.Route("/api/v1/campaigns", func(r chi.Router) {
		registerCollection(r, domain.PromotionKindCampaign)
	})

	r.Route("/api/v1/promotions", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/check", promotionHandler.CheckProducts)
		r.With(middleware.CacheControl(30)).Get("/active", pricingHandler.ActivePromotions)
	})

	r.Route("/api/v1/prices", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/resolve", pricingHandler.ResolvePrices)
		r.With(middleware.CacheControl(30)).Get("/{productId}", pricingHandler.ResolvePrice)
	})

	return r
}
