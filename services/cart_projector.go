package services

import (
	"gpu-shop/models"

	"github.com/shopspring/decimal"
)

// Projection is the checkout-facing view of a cart: the items flagged for
// purchase and what they cost together.
type Projection struct {
	SelectedItems []models.CartLineItem `json:"selected_items"`
	Total         decimal.Decimal       `json:"total"`
}

// ProjectSelection derives the selection set from a line-item list. An item
// with no selection flag counts as selected, so rows freshly loaded from the
// remote table (which stores no such flag) come up pre-selected; only an
// explicit false excludes.
func ProjectSelection(items []models.CartLineItem) Projection {
	selected := []models.CartLineItem{}
	total := decimal.Zero

	for _, item := range items {
		if !item.IsSelected() {
			continue
		}
		selected = append(selected, item)
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return Projection{SelectedItems: selected, Total: total}
}
