package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addProductsRequest struct {
	Products []productInput `validate:"required,min=1,dive"`
}

type productInput struct {
	ProductID     string `validate:"required,uuid"`
	AdjustedPrice int64  `validate:"gte=0"`
}

func TestValidate_Success(t *testing.T) {
	req := addProductsRequest{
		Products: []productInput{
			{ProductID: "a7f43d6c-91f4-4c71-b12e-0a4c7a3d9f01", AdjustedPrice: 150000},
		},
	}

	assert.NoError(t, Validate(req))
}

func TestValidate_EmptyList(t *testing.T) {
	err := Validate(addProductsRequest{Products: []productInput{}})

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Fields(), "Products")
}

func TestValidate_NegativePrice(t *testing.T) {
	req := addProductsRequest{
		Products: []productInput{
			{ProductID: "a7f43d6c-91f4-4c71-b12e-0a4c7a3d9f01", AdjustedPrice: -1},
		},
	}

	err := Validate(req)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Error(), "AdjustedPrice")
}

func TestValidationError_Fields(t *testing.T) {
	err := Validate(productInput{ProductID: "not-a-uuid", AdjustedPrice: 0})

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "must be a valid UUID", fields["ProductID"])
}
