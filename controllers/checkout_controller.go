package controllers

import (
	"fmt"
	"log"
	"time"

	"gpu-shop/models"
	"gpu-shop/repositories"
	"gpu-shop/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutController struct {
	carts *services.CartManager
	feed  repositories.CartFeed
	email *models.EmailService
}

func NewCheckoutController(carts *services.CartManager, feed repositories.CartFeed, email *models.EmailService) *CheckoutController {
	return &CheckoutController{carts: carts, feed: feed, email: email}
}

var freeShippingThreshold = decimal.NewFromInt(1000)
var standardShippingFee = decimal.RequireFromString("19.99")

// @Summary Checkout
// @Description Purchase the selected cart items in a single transaction
// @Tags Checkout
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CheckoutRequest false "Shipping details (defaults to profile)"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /checkout [post]
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetInt("user_id")
	if userID == 0 {
		c.JSON(401, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	store := ctrl.carts.ForUser(ctx, userID)
	projection := store.Projection()
	if len(projection.SelectedItems) == 0 {
		c.JSON(400, gin.H{"success": false, "message": "No items selected for checkout"})
		return
	}

	selectedIDs := make([]uuid.UUID, 0, len(projection.SelectedItems))
	for _, item := range projection.SelectedItems {
		selectedIDs = append(selectedIDs, item.ID)
	}

	var req models.CheckoutRequest
	_ = c.ShouldBindJSON(&req)

	tx, err := models.DB.Begin(ctx)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback(ctx)

	if req.Email == "" || req.FullName == "" || req.Address == "" {
		var pe, pn, pa string
		tx.QueryRow(ctx,
			"SELECT email, COALESCE(full_name,''), COALESCE(address,'') FROM users WHERE id=$1",
			userID).Scan(&pe, &pn, &pa)

		if req.Email == "" {
			req.Email = pe
		}
		if req.FullName == "" {
			req.FullName = pn
		}
		if req.Address == "" {
			req.Address = pa
		}
	}

	if req.Email == "" || req.FullName == "" || req.Address == "" {
		c.JSON(400, gin.H{"success": false, "message": "Email, full name, and address are required"})
		return
	}

	rows, err := tx.Query(ctx, `
		SELECT ci.id, ci.product_id, ci.product_name, ci.unit_price, ci.quantity, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = $1 AND ci.id = ANY($2)
		FOR UPDATE`,
		userID, selectedIDs)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Query error: %v", err)})
		return
	}

	type purchaseLine struct {
		ID          uuid.UUID
		ProductID   int
		ProductName string
		UnitPrice   decimal.Decimal
		Quantity    int
		Stock       int
	}

	lines := []purchaseLine{}
	for rows.Next() {
		var l purchaseLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.Stock); err != nil {
			rows.Close()
			c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Scan error: %v", err)})
			return
		}
		lines = append(lines, l)
	}
	rows.Close()

	if len(lines) == 0 {
		c.JSON(400, gin.H{"success": false, "message": "Selected items are no longer in the cart"})
		return
	}

	for _, l := range lines {
		if l.Stock < l.Quantity {
			c.JSON(400, gin.H{"success": false, "message": fmt.Sprintf("Insufficient stock for %s", l.ProductName)})
			return
		}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	shippingFee := decimal.Zero
	if subtotal.LessThan(freeShippingThreshold) {
		shippingFee = standardShippingFee
	}
	total := subtotal.Add(shippingFee)

	orderNum := fmt.Sprintf("ORD-%d", time.Now().Unix())
	now := time.Now()

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, status, email, full_name, address, subtotal, shipping_fee, total, created_at, updated_at)
		VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		orderNum, userID, req.Email, req.FullName, req.Address, subtotal, shippingFee, total, now, now).Scan(&orderID)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Failed to create order: %v", err)})
		return
	}

	for _, l := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice, now)
		if err != nil {
			c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Failed to create order items: %v", err)})
			return
		}

		_, err = tx.Exec(ctx, `UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3`,
			l.Quantity, now, l.ProductID)
		if err != nil {
			c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Failed to update stock: %v", err)})
			return
		}
	}

	purchasedIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		purchasedIDs = append(purchasedIDs, l.ID)
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)`, userID, purchasedIDs)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Failed to clear purchased items: %v", err)})
		return
	}

	if err = tx.Commit(ctx); err != nil {
		c.JSON(500, gin.H{"success": false, "message": fmt.Sprintf("Failed to commit: %v", err)})
		return
	}

	// other sessions learn about the purchase through the feed; this one
	// drops the rows directly
	if ctrl.feed != nil {
		for _, id := range purchasedIDs {
			ev := models.CartChangeEvent{
				Type: models.CartEventDelete,
				Item: models.CartLineItem{ID: id, UserID: userID},
			}
			if err := ctrl.feed.Publish(ctx, userID, ev); err != nil {
				log.Printf("checkout: feed publish error: %v", err)
			}
		}
	}
	store.DropItems(purchasedIDs)

	if ctrl.email != nil {
		go func(toEmail, orderNumber, totalStr string) {
			if err := ctrl.email.SendOrderConfirmationEmail(toEmail, orderNumber, totalStr); err != nil {
				log.Printf("checkout: confirmation email failed: %v", err)
			}
		}(req.Email, orderNum, total.StringFixed(2))
	}

	c.JSON(201, gin.H{
		"success": true,
		"message": "Order created successfully",
		"data": gin.H{
			"id":           orderID,
			"order_number": orderNum,
			"status":       "pending",
			"subtotal":     subtotal,
			"shipping_fee": shippingFee,
			"total":        total,
			"email":        req.Email,
			"full_name":    req.FullName,
			"address":      req.Address,
		},
	})
}
