package controllers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gpu-shop/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderController struct{}

var validOrderStatuses = map[string]bool{
	"pending":   true,
	"paid":      true,
	"shipped":   true,
	"delivered": true,
	"cancelled": true,
}

func (ctrl *OrderController) getPaginationParams(c *gin.Context, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}

	offset = (page - 1) * limit
	return page, limit, offset
}

func (ctrl *OrderController) generateLinks(c *gin.Context, page, limit, totalPages int) models.PaginationLinks {
	scheme := "https"
	if c.Request.TLS == nil {
		scheme = "http"
	}

	host := c.Request.Host
	path := c.Request.URL.Path
	queryParams := c.Request.URL.Query()

	makeURL := func(pageNum int) string {
		newParams := url.Values{}
		for key, values := range queryParams {
			if key != "page" {
				for _, value := range values {
					newParams.Add(key, value)
				}
			}
		}
		newParams.Set("page", strconv.Itoa(pageNum))
		newParams.Set("limit", strconv.Itoa(limit))
		return fmt.Sprintf("%s://%s%s?%s", scheme, host, path, newParams.Encode())
	}

	links := models.PaginationLinks{
		Self: makeURL(page),
	}

	if page > 1 {
		links.Prev = makeURL(page - 1)
	}
	if page < totalPages {
		links.Next = makeURL(page + 1)
	}

	return links
}

// @Summary Get all orders
// @Description Get all orders with pagination (Admin)
// @Tags Admin - Orders
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by order number"
// @Success 200 {object} models.HATEOASResponse
// @Router /admin/orders [get]
func (ctrl *OrderController) GetAllOrders(c *gin.Context) {
	page, limit, offset := ctrl.getPaginationParams(c, 10)

	status := c.Query("status")
	search := c.Query("search")

	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if status != "" && status != "All" {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}
	if search != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("order_number ILIKE $%d", argIndex))
		args = append(args, "%"+search+"%")
		argIndex++
	}

	where := ""
	if len(whereConditions) > 0 {
		where = " WHERE " + strings.Join(whereConditions, " AND ")
	}

	var total int
	err := models.DB.QueryRow(context.Background(), "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed count orders"})
		return
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.order_number, o.user_id, COALESCE(u.full_name, ''), o.status, o.subtotal, o.total, o.address, o.created_at
		FROM orders o
		LEFT JOIN users u ON o.user_id = u.id
		%s
		ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := models.DB.Query(context.Background(), query, args...)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Query error: " + err.Error()})
		return
	}
	defer rows.Close()

	orders := []gin.H{}
	for rows.Next() {
		var id, userID int
		var orderNumber, customerName, orderStatus, address string
		var subtotal, orderTotal decimal.Decimal
		var createdAt time.Time

		if err := rows.Scan(&id, &orderNumber, &userID, &customerName, &orderStatus,
			&subtotal, &orderTotal, &address, &createdAt); err != nil {
			continue
		}

		orders = append(orders, gin.H{
			"id":            id,
			"order_number":  orderNumber,
			"user_id":       userID,
			"customer_name": customerName,
			"status":        orderStatus,
			"subtotal":      subtotal,
			"total":         orderTotal,
			"address":       address,
			"created_at":    createdAt,
		})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	c.JSON(200, models.HATEOASResponse{
		Success: true,
		Message: "Orders retrieved successfully",
		Data:    orders,
		Meta: models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
		Links: ctrl.generateLinks(c, page, limit, totalPages),
	})
}

// @Summary Get order by ID
// @Description Get order details with items (Admin)
// @Tags Admin - Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/orders/{id} [get]
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		c.JSON(400, gin.H{"success": false, "message": "Invalid order ID"})
		return
	}

	var order models.Order
	err := models.DB.QueryRow(context.Background(), `
		SELECT id, order_number, user_id, status, subtotal, shipping_fee, total, address, created_at, updated_at
		FROM orders WHERE id = $1`, id).Scan(
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

	c.JSON(200, gin.H{"success": true, "message": "Order retrieved successfully", "data": order})
}

// @Summary Update order status
// @Description Update order status (Admin)
// @Tags Admin - Orders
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Order ID"
// @Param status formData string true "New status"
// @Success 200 {object} models.Response
// @Router /admin/orders/{id}/status [patch]
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	status := strings.TrimSpace(c.PostForm("status"))

	if id <= 0 {
		c.JSON(400, gin.H{"success": false, "message": "Invalid order ID"})
		return
	}
	if !validOrderStatuses[status] {
		c.JSON(400, gin.H{"success": false, "message": "Invalid status"})
		return
	}

	var exists int
	err := models.DB.QueryRow(context.Background(), "SELECT COUNT(*) FROM orders WHERE id=$1", id).Scan(&exists)
	if err != nil || exists == 0 {
		c.JSON(404, gin.H{"success": false, "message": "Order not found"})
		return
	}

	_, err = models.DB.Exec(context.Background(),
		"UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3",
		status, time.Now(), id)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to update order status"})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"message": "Order status updated successfully",
		"data":    gin.H{"id": id, "status": status},
	})
}

// @Summary Dashboard
// @Description Aggregate order and catalog figures (Admin)
// @Tags Admin - Dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /admin/dashboard [get]
func (ctrl *OrderController) GetDashboard(c *gin.Context) {
	ctx := context.Background()

	var totalOrders, totalUsers, totalProducts, lowStock int
	var revenue decimal.Decimal

	models.DB.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&totalOrders)
	models.DB.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&totalUsers)
	models.DB.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE is_active=true").Scan(&totalProducts)
	models.DB.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE is_active=true AND stock < 5").Scan(&lowStock)
	models.DB.QueryRow(ctx, "SELECT COALESCE(SUM(total), 0) FROM orders WHERE status != 'cancelled'").Scan(&revenue)

	statusCounts := gin.H{}
	rows, err := models.DB.Query(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err == nil {
				statusCounts[status] = count
			}
		}
	}

	c.JSON(200, gin.H{
		"success": true,
		"message": "Dashboard retrieved",
		"data": gin.H{
			"total_orders":     totalOrders,
			"total_users":      totalUsers,
			"total_products":   totalProducts,
			"low_stock":        lowStock,
			"revenue":          revenue,
			"orders_by_status": statusCounts,
		},
	})
}
