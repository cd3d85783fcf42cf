package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLineItem is one row of a cart. The ID is generated client-side so an
// insert can be recognized when it comes back on the change feed.
//
// ImageURL and Selected exist only in memory and in guest-cart files; the
// cart_items table has no columns for them.
type CartLineItem struct {
	ID          uuid.UUID       `json:"id"`
	UserID      int             `json:"user_id,omitempty"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image_url,omitempty"`
	Selected    *bool           `json:"selected,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsSelected treats an unset flag as selected. Rows loaded from the remote
// table carry no selection state and must come up pre-selected.
func (i CartLineItem) IsSelected() bool {
	return i.Selected == nil || *i.Selected
}

// ProductSnapshot carries the catalog fields denormalized into a line item
// at add-to-cart time.
type ProductSnapshot struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url"`
}

const (
	CartEventInsert = "INSERT"
	CartEventUpdate = "UPDATE"
	CartEventDelete = "DELETE"
)

// CartChangeEvent is one message on a cart's change feed.
type CartChangeEvent struct {
	Type string       `json:"type"`
	Item CartLineItem `json:"item"`
}
