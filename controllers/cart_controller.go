package controllers

import (
	"net/http"

	"gpu-shop/models"
	"gpu-shop/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartController struct {
	carts    *services.CartManager
	products *services.ProductService
}

func NewCartController(carts *services.CartManager, products *services.ProductService) *CartController {
	return &CartController{carts: carts, products: products}
}

// store resolves the session's cart: signed-in users by token, guests by
// X-Guest-ID header.
func (ctrl *CartController) store(c *gin.Context) (*services.CartStore, bool) {
	if userID := c.GetInt("user_id"); userID != 0 {
		return ctrl.carts.ForUser(c.Request.Context(), userID), true
	}

	guestID := c.GetHeader("X-Guest-ID")
	if guestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "X-Guest-ID header required for anonymous carts",
		})
		return nil, false
	}
	return ctrl.carts.ForGuest(c.Request.Context(), guestID), true
}

// @Summary Get cart
// @Description Get the session's cart with the current selection and total
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Success 200 {object} models.Response
// @Router /cart [get]
func (ctrl *CartController) GetCart(c *gin.Context) {
	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	items := store.Items()
	projection := services.ProjectSelection(items)

	c.JSON(200, gin.H{
		"success": true,
		"message": "Cart retrieved",
		"data": gin.H{
			"items":          items,
			"selected_items": projection.SelectedItems,
			"total":          projection.Total,
		},
	})
}

// @Summary Add to cart
// @Description Add a product to the cart, merging into an existing line item
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Param body body models.AddToCartRequest true "Product and quantity"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /cart/items [post]
func (ctrl *CartController) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request", "error": err.Error()})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	snapshot, stock, err := ctrl.products.Snapshot(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(404, gin.H{"success": false, "message": "Product not found"})
		return
	}

	// stock clamping happens here, not in the cart store
	if stock < 1 {
		c.JSON(400, gin.H{"success": false, "message": "Product is out of stock"})
		return
	}
	if req.Quantity > stock {
		req.Quantity = stock
	}

	if err := store.AddToCart(c.Request.Context(), *snapshot, req.Quantity); err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to add to cart"})
		return
	}

	c.JSON(201, gin.H{
		"success": true,
		"message": "Added to cart",
		"data":    store.Items(),
	})
}

// @Summary Update quantity
// @Description Set a line item's quantity; values below 1 are ignored
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Param id path string true "Line item ID"
// @Param body body models.UpdateQuantityRequest true "New quantity"
// @Success 200 {object} models.Response
// @Router /cart/items/{id} [patch]
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid line item ID"})
		return
	}

	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request", "error": err.Error()})
		return
	}

	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	// clamp against current stock before the store sees the value
	for _, item := range store.Items() {
		if item.ID != id {
			continue
		}
		if _, stock, err := ctrl.products.Snapshot(c.Request.Context(), item.ProductID); err == nil && req.Quantity > stock {
			req.Quantity = stock
		}
		break
	}

	if err := store.UpdateQuantity(c.Request.Context(), id, req.Quantity); err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to update quantity"})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"message": "Quantity updated",
		"data":    store.Items(),
	})
}

// @Summary Toggle item selection
// @Description Flag or unflag one line item for checkout
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Param id path string true "Line item ID"
// @Param body body models.SelectionRequest true "Selection flag"
// @Success 200 {object} models.Response
// @Router /cart/items/{id}/selection [patch]
func (ctrl *CartController) ToggleItemSelection(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid line item ID"})
		return
	}

	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request", "error": err.Error()})
		return
	}

	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	store.ToggleItemSelection(id, req.Selected)
	projection := store.Projection()

	c.JSON(200, gin.H{
		"success": true,
		"message": "Selection updated",
		"data": gin.H{
			"items":          store.Items(),
			"selected_items": projection.SelectedItems,
			"total":          projection.Total,
		},
	})
}

// @Summary Select all items
// @Description Flag or unflag every line item for checkout
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Param body body models.SelectionRequest true "Selection flag"
// @Success 200 {object} models.Response
// @Router /cart/selection [post]
func (ctrl *CartController) SelectAllItems(c *gin.Context) {
	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request", "error": err.Error()})
		return
	}

	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	store.SelectAllItems(req.Selected)
	projection := store.Projection()

	c.JSON(200, gin.H{
		"success": true,
		"message": "Selection updated",
		"data": gin.H{
			"items":          store.Items(),
			"selected_items": projection.SelectedItems,
			"total":          projection.Total,
		},
	})
}

// @Summary Remove from cart
// @Description Delete one line item; removing an absent ID is a no-op
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Param id path string true "Line item ID"
// @Success 200 {object} models.Response
// @Router /cart/items/{id} [delete]
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid line item ID"})
		return
	}

	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	if err := store.RemoveFromCart(c.Request.Context(), id); err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to remove item"})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"message": "Item removed",
		"data":    store.Items(),
	})
}

// @Summary Clear cart
// @Description Remove every line item from the cart
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Param X-Guest-ID header string false "Guest session ID (anonymous carts)"
// @Success 200 {object} models.Response
// @Router /cart [delete]
func (ctrl *CartController) ClearCart(c *gin.Context) {
	store, ok := ctrl.store(c)
	if !ok {
		return
	}

	if err := store.ClearCart(c.Request.Context()); err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to clear cart"})
		return
	}

	c.JSON(200, gin.H{"success": true, "message": "Cart cleared"})
}
