package inventory

import (
	"errors"
	"testing"

	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		item, err := NewItem(" Coque iPhone ", " CQ-01 ", decimal.RequireFromString("15.00"), decimal.RequireFromString("4.50"), 12)

		require.NoError(t, err)
		assert.Equal(t, "Coque iPhone", item.Name)
		assert.Equal(t, "CQ-01", item.SKU)
		assert.Equal(t, 12, item.Quantity)
		assert.True(t, decimal.RequireFromString("10.50").Equal(item.Margin()))
		assert.False(t, item.CreatedAt.IsZero())
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := NewItem("   ", "", decimal.Zero, decimal.Zero, 0)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("NegativeQuantity", func(t *testing.T) {
		_, err := NewItem("Câble", "", decimal.Zero, decimal.Zero, -1)
		assert.ErrorIs(t, err, ErrNegativeQuantity)
	})

	t.Run("NegativePrice", func(t *testing.T) {
		_, err := NewItem("Câble", "", decimal.RequireFromString("-2.00"), decimal.Zero, 1)

		var validationErr shared.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "sale_price", validationErr.Field)
	})

	t.Run("QuantityOverLimit", func(t *testing.T) {
		_, err := NewItem("Câble", "", decimal.Zero, decimal.Zero, shared.MaxQuantity+1)

		var validationErr shared.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "quantity", validationErr.Field)
	})

	t.Run("PriceOverLimit", func(t *testing.T) {
		_, err := NewItem("Câble", "", decimal.Zero, decimal.RequireFromString("1000000000000.00"), 1)

		var validationErr shared.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "purchase_price", validationErr.Field)
	})
}

func TestItem_IsLowStock(t *testing.T) {
	testCases := []struct {
		quantity  int
		threshold int
		expected  bool
	}{
		{0, 5, true},
		{4, 5, true},
		{5, 5, false},
		{20, 5, false},
	}

	for _, tc := range testCases {
		item := &Item{Quantity: tc.quantity}
		assert.Equal(t, tc.expected, item.IsLowStock(tc.threshold), "quantity %d threshold %d", tc.quantity, tc.threshold)
	}
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "insufficient stock for item 3: requested 4", ErrInsufficientStock{ItemID: 3, Requested: 4}.Error())
	assert.Equal(t, "inventory item not found: 9", ErrItemNotFound{ItemID: 9}.Error())
}
