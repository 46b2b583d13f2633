package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("promotion", "promo-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "promo-1")
}

func TestAppError_Unwrap(t *testing.T) {
	err := InvalidInput("adjusted price must not be negative")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	wrapped := fmt.Errorf("add products: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
}

func TestPromotionConflict(t *testing.T) {
	err := PromotionConflict("prod-1", "evt-9", "event", "Tet Sale")

	assert.Equal(t, "PROMOTION_CONFLICT", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Contains(t, err.Message, "prod-1")
	assert.Contains(t, err.Message, "Tet Sale")
	assert.Contains(t, err.Message, "evt-9")
	assert.Contains(t, err.Message, "event")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"conflict", ErrConflict, http.StatusConflict},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"service unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"app error", Conflict("taken"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
