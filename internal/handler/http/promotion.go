package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/repository"
	"github.com/glowcart/promotion-service/internal/service"
	apperrors "github.com/glowcart/promotion-service/pkg/errors"
	"github.com/glowcart/promotion-service/pkg/httputil"
	"github.com/glowcart/promotion-service/pkg/pagination"
	"github.com/glowcart/promotion-service/pkg/validator"
)

// PromotionHandler handles HTTP requests for the event and campaign
// collections. Both collections share one handler; the route wires in the
// promotion kind.
type PromotionHandler struct {
	service *service.PromotionService
	logger  *slog.Logger
}

// NewPromotionHandler creates a new promotion HTTP handler.
func NewPromotionHandler(svc *service.PromotionService, logger *slog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CombinationEntryRequest is the JSON shape of a combination inside a
// product entry.
type CombinationEntryRequest struct {
	CombinationID string            `json:"combination_id" validate:"required"`
	Attributes    map[string]string `json:"attributes"`
	AdjustedPrice *int64            `json:"adjusted_price" validate:"omitempty,gte=0"`
}

// VariantEntryRequest is the JSON shape of a variant inside a product entry.
type VariantEntryRequest struct {
	VariantID     string                    `json:"variant_id" validate:"required"`
	AdjustedPrice *int64                    `json:"adjusted_price" validate:"omitempty,gte=0"`
	Combinations  []CombinationEntryRequest `json:"combinations" validate:"omitempty,dive"`
}

// ProductEntryRequest is the JSON shape of a product entry on create and
// add-products requests.
type ProductEntryRequest struct {
	ProductID     string                `json:"product_id" validate:"required"`
	AdjustedPrice *int64                `json:"adjusted_price" validate:"omitempty,gte=0"`
	Variants      []VariantEntryRequest `json:"variants" validate:"omitempty,dive"`
}

// CreatePromotionRequest is the JSON request body for creating a promotion.
type CreatePromotionRequest struct {
	Title       string                `json:"title" validate:"required,min=1,max=255"`
	Description string                `json:"description"`
	StartDate   string                `json:"start_date" validate:"required"`
	EndDate     string                `json:"end_date" validate:"required"`
	Products    []ProductEntryRequest `json:"products" validate:"omitempty,dive"`
}

// UpdatePromotionRequest is the JSON request body for updating a promotion.
type UpdatePromotionRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft published archived"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// AddProductsRequest is the JSON request body for attaching products.
type AddProductsRequest struct {
	Products []ProductEntryRequest `json:"products" validate:"required,min=1,dive"`
}

// UpdatePriceRequest is the JSON request body for setting an adjusted price.
type UpdatePriceRequest struct {
	VariantID     string `json:"variant_id"`
	CombinationID string `json:"combination_id"`
	AdjustedPrice *int64 `json:"adjusted_price" validate:"required,gte=0"`
}

// CheckProductsRequest is the JSON request body for the membership check.
type CheckProductsRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
}

// --- Handlers ---

// CreatePromotion handles POST /api/v1/{events|campaigns}
func (h *PromotionHandler) CreatePromotion(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
		var req CreatePromotionRequest
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

		startDate, endDate, ok := parseDateWindow(w, req.StartDate, req.EndDate)
		if !ok {
			return
		}

		input := &service.CreatePromotionInput{
			Kind:        kind,
			Title:       req.Title,
			Description: req.Description,
			StartDate:   startDate,
			EndDate:     endDate,
			Products:    toDomainEntries(req.Products),
		}

		promotion, err := h.service.CreatePromotion(r.Context(), input)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: promotion})
	}
}

// ListPromotions handles GET /api/v1/{events|campaigns}
func (h *PromotionHandler) ListPromotions(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := pagination.FromRequest(r)
		filter := repository.PromotionFilter{
			Kind:    &kind,
			Page:    params.Page,
			PerPage: params.PerPage,
		}

		if v := r.URL.Query().Get("status"); v != "" {
			filter.Status = &v
		}

		if r.URL.Query().Get("active") == "true" {
			now := time.Now().UTC()
			filter.ActiveAt = &now
		}

		promotions, total, err := h.service.ListPromotions(r.Context(), filter)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(promotions, total, params))
	}
}

// GetPromotion handles GET /api/v1/{events|campaigns}/{id}
func (h *PromotionHandler) GetPromotion(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id is required"},
			})
			return
		}

		promotion, err := h.service.GetPromotion(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		// A campaign fetched through the events collection is not found.
		if promotion.Kind != kind {
			httputil.WriteError(w, r, apperrors.NotFound(kind, id), h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
	}
}

// GetSummary handles GET /api/v1/{events|campaigns}/{id}/summary
func (h *PromotionHandler) GetSummary(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id is required"},
			})
			return
		}

		promotion, err := h.service.GetPromotion(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		if promotion.Kind != kind {
			httputil.WriteError(w, r, apperrors.NotFound(kind, id), h.logger)
			return
		}

		summary := promotion.Summary(time.Now().UTC())
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
	}
}

// UpdatePromotion handles PUT /api/v1/{events|campaigns}/{id}
func (h *PromotionHandler) UpdatePromotion(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
		id := chi.URLParam(r, "id")
		if id == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id is required"},
			})
			return
		}

		var req UpdatePromotionRequest
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

		input := &service.UpdatePromotionInput{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
		}

		if req.StartDate != nil {
			startDate, err := time.Parse(time.RFC3339, *req.StartDate)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "start_date must be in RFC3339 format"},
				})
				return
			}
			input.StartDate = &startDate
		}

		if req.EndDate != nil {
			endDate, err := time.Parse(time.RFC3339, *req.EndDate)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "end_date must be in RFC3339 format"},
				})
				return
			}
			input.EndDate = &endDate
		}

		promotion, err := h.service.UpdatePromotion(r.Context(), id, kind, input)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
	}
}

// DeletePromotion handles DELETE /api/v1/{events|campaigns}/{id}
func (h *PromotionHandler) DeletePromotion(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id is required"},
			})
			return
		}

		if err := h.service.DeletePromotion(r.Context(), id, kind); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusNoContent, nil)
	}
}

// AddProducts handles POST /api/v1/{events|campaigns}/{id}/products
func (h *PromotionHandler) AddProducts(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
		id := chi.URLParam(r, "id")
		if id == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id is required"},
			})
			return
		}

		var req AddProductsRequest
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

		promotion, err := h.service.AddProducts(r.Context(), id, kind, toDomainEntries(req.Products))
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
	}
}

// RemoveProduct handles DELETE /api/v1/{events|campaigns}/{id}/products/{productId}
// Optional variant_id and combination_id query parameters narrow the removal
// to a single variant or combination.
func (h *PromotionHandler) RemoveProduct(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		productID := chi.URLParam(r, "productId")
		if id == "" || productID == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id and product id are required"},
			})
			return
		}

		ref := domain.EntryRef{
			ProductID:     productID,
			VariantID:     r.URL.Query().Get("variant_id"),
			CombinationID: r.URL.Query().Get("combination_id"),
		}

		if ref.CombinationID != "" && ref.VariantID == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "combination_id requires variant_id"},
			})
			return
		}

		promotion, err := h.service.RemoveProduct(r.Context(), id, kind, ref)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
	}
}

// UpdateProductPrice handles PATCH /api/v1/{events|campaigns}/{id}/products/{productId}
func (h *PromotionHandler) UpdateProductPrice(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
		id := chi.URLParam(r, "id")
		productID := chi.URLParam(r, "productId")
		if id == "" || productID == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "promotion id and product id are required"},
			})
			return
		}

		var req UpdatePriceRequest
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

		if req.CombinationID != "" && req.VariantID == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "combination_id requires variant_id"},
			})
			return
		}

		ref := domain.EntryRef{
			ProductID:     productID,
			VariantID:     req.VariantID,
			CombinationID: req.CombinationID,
		}

		promotion, err := h.service.UpdateProductPrice(r.Context(), id, kind, ref, *req.AdjustedPrice)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: promotion})
	}
}

// CheckProducts handles POST /api/v1/promotions/check
func (h *PromotionHandler) CheckProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CheckProductsRequest
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

	memberships := h.service.CheckProductsInPromotions(r.Context(), req.ProductIDs)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: memberships})
}

// --- Helpers ---

func parseDateWindow(w http.ResponseWriter, start, end string) (time.Time, time.Time, bool) {
	startDate, err := time.Parse(time.RFC3339, start)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "start_date must be in RFC3339 format"},
		})
		return time.Time{}, time.Time{}, false
	}

	endDate, err := time.Parse(time.RFC3339, end)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "end_date must be in RFC3339 format"},
		})
		return time.Time{}, time.Time{}, false
	}

	return startDate, endDate, true
}

func toDomainEntries(entries []ProductEntryRequest) []domain.ProductEntry {
	result := make([]domain.ProductEntry, 0, len(entries))
	for _, entry := range entries {
		domainEntry := domain.ProductEntry{
			ProductID:     entry.ProductID,
			AdjustedPrice: entry.AdjustedPrice,
		}
		for _, variant := range entry.Variants {
			domainVariant := domain.VariantEntry{
				VariantID:     variant.VariantID,
				AdjustedPrice: variant.AdjustedPrice,
			}
			for _, combo := range variant.Combinations {
				domainVariant.Combinations = append(domainVariant.Combinations, domain.CombinationEntry{
					CombinationID: combo.CombinationID,
					Attributes:    combo.Attributes,
					AdjustedPrice: combo.AdjustedPrice,
				})
			}
			domainEntry.Variants = append(domainEntry.Variants, domainVariant)
		}
		result = append(result, domainEntry)
	}
	return result
}
