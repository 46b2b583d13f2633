package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// *httpclient.Client and *httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ProductClient fetches product catalog records from the product service.
// It implements repository.ProductReader.
type ProductClient struct {
	httpClient HTTPDoer
	baseURL    string
	logger     *slog.Logger
}

// NewProductClient creates a product catalog client.
func NewProductClient(httpClient HTTPDoer, baseURL string, logger *slog.Logger) *ProductClient {
	return &ProductClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// FindByIDs fetches products by ID in a single batch call. IDs the catalog
// does not know are absent from the result, not an error.
func (c *ProductClient) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	type batchRequest struct {
		IDs []string `json:"ids"`
	}
	type batchResponse struct {
		Data []domain.Product `json:"data"`
	}

	body, err := json.Marshal(batchRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal product batch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/products/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create product batch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call product service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "product")
	}

	var batchResp batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batchResp); err != nil {
		return nil, fmt.Errorf("decode product batch response: %w", err)
	}

	c.logger.DebugContext(ctx, "fetched products",
		slog.Int("requested", len(ids)),
		slog.Int("returned", len(batchResp.Data)),
	)

	if batchResp.Data == nil {
		return []domain.Product{}, nil
	}
	return batchResp.Data, nil
}
