package inventory

import (
	"math"
	"testing"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_MergesDuplicates(t *testing.T) {
	lines, err := Normalize([]models.OrderLineRequest{
		{ProductID: 4, Quantity: 1},
		{ProductID: 9, Quantity: 2},
		{ProductID: 4, Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []Line{
		{Index: 0, ProductID: 4, Quantity: 4},
		{Index: 1, ProductID: 9, Quantity: 2},
	}, lines)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		items []models.OrderLineRequest
		field string
	}{
		{"empty", nil, "items"},
		{"zero qty", []models.OrderLineRequest{{ProductID: 1, Quantity: 0}}, "items[0]"},
		{"bad product", []models.OrderLineRequest{{ProductID: 1, Quantity: 1}, {ProductID: -2, Quantity: 1}}, "items[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.items)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.field, apperr.Public(err).Field)
		})
	}
}

func TestCheck(t *testing.T) {
	line := Line{Index: 2, ProductID: 7, Quantity: 3}

	err := Check(line, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "items[2]", apperr.Public(err).Field)

	err = Check(line, &models.Product{ID: 7, Name: "Desk Lamp", Stock: 2})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Desk Lamp")

	assert.NoError(t, Check(line, &models.Product{ID: 7, Stock: 3}))
}

func TestNormalize_QuantityBounds(t *testing.T) {
	tests := []struct {
		name  string
		items []models.OrderLineRequest
		field string
	}{
		{"single line over cap", []models.OrderLineRequest{{ProductID: 1, Quantity: MaxLineQuantity + 1}}, "items[0]"},
		{"huge line", []models.OrderLineRequest{{ProductID: 1, Quantity: math.MaxInt}}, "items[0]"},
		{"merged sum over cap", []models.OrderLineRequest{
			{ProductID: 1, Quantity: MaxLineQuantity},
			{ProductID: 2, Quantity: 1},
			{ProductID: 1, Quantity: 1},
		}, "items[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.items)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.field, apperr.Public(err).Field)
		})
	}

	lines, err := Normalize([]models.OrderLineRequest{
		{ProductID: 1, Quantity: MaxLineQuantity - 1},
		{ProductID: 1, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, lines[0].Quantity)
}

func TestCheck_NonPositiveQuantity(t *testing.T) {
	err := Check(Line{Index: 1, ProductID: 7, Quantity: -5}, &models.Product{ID: 7, Stock: 10})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "items[1]", apperr.Public(err).Field)
}
