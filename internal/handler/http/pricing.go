package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/service"
	"github.com/glowcart/promotion-service/pkg/httputil"
	"github.com/glowcart/promotion-service/pkg/validator"
)

// PricingHandler handles HTTP requests for effective price resolution and
// the active promotion pool.
type PricingHandler struct {
	prices *service.PriceService
	pool   *service.PoolService
	logger *slog.Logger
}

// NewPricingHandler creates a new pricing HTTP handler.
func NewPricingHandler(prices *service.PriceService, pool *service.PoolService, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{
		prices: prices,
		pool:   pool,
		logger: logger,
	}
}

// ResolvePricesRequest is the JSON request body for batch price resolution.
type ResolvePricesRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,max=200,dive,required"`
}

// ResolvePrice handles GET /api/v1/prices/{productId}
func (h *PricingHandler) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id is required"},
		})
		return
	}

	price, err := h.prices.ResolvePrice(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: price})
}

// ResolvePrices handles POST /api/v1/prices/resolve
func (h *PricingHandler) ResolvePrices(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ResolvePricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	prices, err := h.prices.ResolvePrices(r.Context(), req.ProductIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: prices})
}

// ActivePromotions handles GET /api/v1/promotions/active
func (h *PricingHandler) ActivePromotions(w http.ResponseWriter, r *http.Request) {
	pool, err := h.pool.ActivePromotions(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pool})
}

// ActiveByKind handles GET /api/v1/events/active and
// GET /api/v1/campaigns/active.
func (h *PricingHandler) ActiveByKind(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pool, err := h.pool.ActivePromotions(r.Context())
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		promotions := pool.Events
		if kind == domain.PromotionKindCampaign {
			promotions = pool.Campaigns
		}

		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotions})
	}
}
