package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radsonline/marketplace-golang/internal/models"
)

// OrderItemInput is one submitted line item. A client may send a price
// field; it is ignored. The total always comes from the stored product
// price at order time.
type OrderItemInput struct {
	ProductID int64    `json:"productId" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required,gt=0"`
	Price     *float64 `json:"price"` // accepted but never trusted
}

// CreateOrderInput defines the JSON input for placing an order.
type CreateOrderInput struct {
	Items []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder is the handler for POST /api/orders.
// The whole order is one transaction: every referenced product row is
// locked, checked for approval, and priced inside it, so a product whose
// status or price changes mid-request cannot slip into the order.
func (h *Handlers) CreateOrder(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	// 1. --- Bind & Validate JSON ---
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Begin Transaction ---
	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback() // Safety net

	// 3. --- Lock & Validate Products, Accumulate Total ---
	now := time.Now()
	var total float64
	items := make([]models.OrderItem, 0, len(input.Items))

	for _, in := range input.Items {
		var productID int64
		var price float64
		var status string

		err := tx.QueryRow(
			"SELECT id, price, status FROM products WHERE id = ? FOR UPDATE",
			in.ProductID,
		).Scan(&productID, &price, &status)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product or product not approved"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking product"})
			return
		}
		if status != models.StatusApproved {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product or product not approved"})
			return
		}

		total += price * float64(in.Quantity)
		items = append(items, models.OrderItem{
			ProductID: productID,
			Quantity:  in.Quantity,
			Price:     price, // snapshot of the stored price
			CreatedAt: now,
		})
	}

	// 4. --- Insert Order ---
	result, err := tx.Exec(
		"INSERT INTO orders (user_id, total, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID, total, models.OrderStatusPending, now, now,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating order"})
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new order ID"})
		return
	}

	// 5. --- Insert Order Items ---
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
		VALUES (?, ?, ?, ?, ?)`

	for i := range items {
		items[i].OrderID = orderID
		res, err := tx.Exec(itemQuery, orderID, items[i].ProductID, items[i].Quantity, items[i].Price, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save order item"})
			return
		}
		if itemID, err := res.LastInsertId(); err == nil {
			items[i].ID = itemID
		}
	}

	// 6. --- Commit Transaction ---
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	// 7. --- Send Success Response ---
	order := models.Order{
		ID:        orderID,
		UserID:    userID,
		Total:     total,
		Status:    models.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     items,
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"order":   order,
	})
}

// fetchOrderItems loads the line items for one order, each with its product
// and the product's brand attached.
func (h *Handlers) fetchOrderItems(orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.created_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.affiliate_link,
		       p.brand_id, p.status, p.created_at, p.updated_at,
		       b.id, b.name, b.slug, b.description, b.owner_id, b.status, b.created_at, b.updated_at
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN brands b ON p.brand_id = b.id
		WHERE oi.order_id = ?`

	rows, err := h.DB.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var product models.Product
		var brand models.Brand
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt,
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.ImageURL, &product.AffiliateLink,
			&product.BrandID, &product.Status, &product.CreatedAt, &product.UpdatedAt,
			&brand.ID, &brand.Name, &brand.Slug, &brand.Description,
			&brand.OwnerID, &brand.Status, &brand.CreatedAt, &brand.UpdatedAt,
		); err != nil {
			return nil, err
		}
		product.Brand = &brand
		item.Product = &product
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetMyOrders is the handler for GET /api/orders/my-orders.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT id, user_id, total, status, created_at, updated_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching orders"})
		return
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order data"})
			return
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating order rows"})
		return
	}
	rows.Close()

	for i := range orders {
		items, err := h.fetchOrderItems(orders[i].ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching order items"})
			return
		}
		orders[i].Items = items
	}

	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails is the handler for GET /api/orders/:id.
// Absent order: 404. Someone else's order: 403.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	orderID := c.Param("id")

	// 1. --- Fetch Order ---
	var o models.Order
	err := h.DB.QueryRow(
		"SELECT id, user_id, total, status, created_at, updated_at FROM orders WHERE id = ?",
		orderID,
	).Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching order details"})
		return
	}

	// 2. --- Verify Ownership ---
	if o.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this order"})
		return
	}

	// 3. --- Fetch Items ---
	items, err := h.fetchOrderItems(o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching order items"})
		return
	}
	o.Items = items

	c.JSON(http.StatusOK, gin.H{"order": o})
}

// UpdateOrderStatus is the handler for PATCH /api/orders/:id/status (owner only).
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	orderID := c.Param("id")

	// 1. --- Bind & Validate JSON ---
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidOrderStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status %q: must be one of PENDING, PAID, SHIPPED, DELIVERED, CANCELLED", input.Status),
		})
		return
	}

	// 2. --- Verify Ownership ---
	var ordererID int64
	err := h.DB.QueryRow("SELECT user_id FROM orders WHERE id = ?", orderID).Scan(&ordererID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}
	if ordererID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this order"})
		return
	}

	// 3. --- Update Database ---
	if _, err := h.DB.Exec(
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?",
		input.Status, time.Now(), orderID,
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating order status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "status": input.Status})
}
