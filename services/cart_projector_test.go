package services

import (
	"testing"

	"gpu-shop/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func lineItem(price string, qty int, selected *bool) models.CartLineItem {
	return models.CartLineItem{
		ID:        uuid.New(),
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
		Selected:  selected,
	}
}

func boolPtr(b bool) *bool { return &b }

func TestProjectSelectionTreatsNilAsSelected(t *testing.T) {
	items := []models.CartLineItem{
		lineItem("999.99", 3, nil),
		lineItem("549.00", 1, boolPtr(true)),
		lineItem("1299.00", 2, boolPtr(false)),
	}

	proj := ProjectSelection(items)

	require.Len(t, proj.SelectedItems, 2)
	require.Equal(t, "3548.97", proj.Total.StringFixed(2))
}

func TestProjectSelectionEmptyCart(t *testing.T) {
	proj := ProjectSelection(nil)

	require.Empty(t, proj.SelectedItems)
	require.True(t, proj.Total.IsZero())
}

func TestProjectSelectionAllDeselected(t *testing.T) {
	items := []models.CartLineItem{
		lineItem("999.99", 1, boolPtr(false)),
		lineItem("549.00", 2, boolPtr(false)),
	}

	proj := ProjectSelection(items)

	require.Empty(t, proj.SelectedItems)
	require.True(t, proj.Total.IsZero())
}

func TestProjectSelectionExactDecimalMath(t *testing.T) {
	// three at 999.99 must come out as 2999.97, not a float approximation
	items := []models.CartLineItem{lineItem("999.99", 3, nil)}

	proj := ProjectSelection(items)

	require.True(t, proj.Total.Equal(decimal.RequireFromString("2999.97")))
}
