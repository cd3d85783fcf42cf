package controllers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gpu-shop/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type HistoryController struct{}

// @Summary Get order history
// @Description Get the signed-in user's paginated order history
// @Tags History
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Param start_date query string false "Filter by start date (format: 2006-01-02)"
// @Param end_date query string false "Filter by end date (format: 2006-01-02)"
// @Success 200 {object} models.PaginationResponse
// @Router /history [get]
func (ctrl *HistoryController) GetHistory(c *gin.Context) {
	userID := c.GetInt("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	statusFilter := strings.TrimSpace(c.Query("status"))
	startDate := strings.TrimSpace(c.Query("start_date"))
	endDate := strings.TrimSpace(c.Query("end_date"))

	whereConditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	paramIndex := 2

	if statusFilter != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", paramIndex))
		args = append(args, statusFilter)
		paramIndex++
	}
	if startDate != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("DATE(created_at) >= $%d", paramIndex))
		args = append(args, startDate)
		paramIndex++
	}
	if endDate != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("DATE(created_at) <= $%d", paramIndex))
		args = append(args, endDate)
		paramIndex++
	}

	where := strings.Join(whereConditions, " AND ")

	var total int
	err := models.DB.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM orders WHERE "+where, args...).Scan(&total)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to count orders"})
		return
	}

	query := fmt.Sprintf(`
		SELECT id, order_number, status, subtotal, shipping_fee, total, address, created_at
		FROM orders WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := models.DB.Query(context.Background(), query, args...)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to get orders"})
		return
	}
	defer rows.Close()

	orders := []gin.H{}
	for rows.Next() {
		var id int
		var orderNumber, status, address string
		var subtotal, shippingFee, orderTotal decimal.Decimal
		var createdAt time.Time

		if err := rows.Scan(&id, &orderNumber, &status, &subtotal, &shippingFee, &orderTotal, &address, &createdAt); err != nil {
			continue
		}

		orders = append(orders, gin.H{
			"id":           id,
			"order_number": orderNumber,
			"status":       status,
			"subtotal":     subtotal,
			"shipping_fee": shippingFee,
			"total":        orderTotal,
			"address":      address,
			"created_at":   createdAt,
		})
	}

	c.JSON(200, models.PaginationResponse{
		Success: true,
		Message: "Order history retrieved",
		Data:    orders,
		Meta: models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// @Summary Get order detail
// @Description Get one of the signed-in user's orders with its items
// @Tags History
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /history/{id} [get]
func (ctrl *HistoryController) GetOrderDetail(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		c.JSON(400, gin.H{"success": false, "message": "Invalid order ID"})
		return
	}

	var order models.Order
	err := models.DB.QueryRow(context.Background(), `
		SELECT id, order_number, user_id, status, subtotal, shipping_fee, total, address, created_at, updated_at
		FROM orders WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Status, &order.Subtotal,
		&order.ShippingFee, &order.Total, &order.Address, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		c.JSON(404, gin.H{"success": false, "message": "Order not found"})
		return
	}

	rows, err := models.DB.Query(context.Background(), `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var item models.OrderItem
			if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
				&item.Quantity, &item.UnitPrice); err != nil {
				continue
			}
			order.Items = append(order.Items, item)
		}
	}

	c.JSON(200, gin.H{"success": true, "message": "Order retrieved", "data": order})
}
