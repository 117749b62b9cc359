package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/radsonline/marketplace-golang/internal/models"
)

func orderRouter(h *Handlers, userID int64, role string) *gin.Engine {
	r := gin.New()
	r.POST("/api/orders", asUser(userID, role), h.CreateOrder)
	r.GET("/api/orders/my-orders", asUser(userID, role), h.GetMyOrders)
	r.GET("/api/orders/:id", asUser(userID, role), h.GetOrderDetails)
	r.PATCH("/api/orders/:id/status", asUser(userID, role), h.UpdateOrderStatus)
	return r
}

const (
	productLockQuery = "SELECT id, price, status FROM products WHERE id = ? FOR UPDATE"
	orderInsertQuery = "INSERT INTO orders (user_id, total, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
)

func TestCreateOrder_TotalFromStoredPrices(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productLockQuery)).
		WithArgs(int64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "status"}).
			AddRow(31, 10.25, models.StatusApproved))
	mock.ExpectQuery(regexp.QuoteMeta(productLockQuery)).
		WithArgs(int64(32)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "status"}).
			AddRow(32, 4.50, models.StatusApproved))
	mock.ExpectExec(regexp.QuoteMeta(orderInsertQuery)).
		WithArgs(int64(50), 34.0, models.OrderStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(501, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(501), int64(31), 2, 10.25, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(501), int64(32), 3, 4.50, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	// Client-submitted prices are lies; the stored prices must win.
	w := doJSON(t, r, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{
			{"productId": 31, "quantity": 2, "price": 0.01},
			{"productId": 32, "quantity": 3, "price": 0.01},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %v (%s)", w.Code, w.Body.String())
	}

	order := decodeBody(t, w)["order"].(map[string]any)
	if got := order["total"].(float64); got != 34.0 {
		t.Fatalf("total = %v, want 34", got)
	}
	if order["status"] != models.OrderStatusPending {
		t.Fatalf("new orders must start PENDING, got %v", order["status"])
	}
	items := order["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if got := items[0].(map[string]any)["price"].(float64); got != 10.25 {
		t.Fatalf("item price snapshot = %v, want 10.25", got)
	}
	expectationsMet(t, mock)
}

func TestCreateOrder_RejectsUnapprovedProduct(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productLockQuery)).
		WithArgs(int64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "status"}).
			AddRow(31, 9.99, models.StatusPending))
	mock.ExpectRollback()

	w := doJSON(t, r, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": 31, "quantity": 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v (%s)", w.Code, w.Body.String())
	}
	// No INSERT expectations were registered; if the handler had written an
	// order anyway, ExpectationsWereMet would flag the unexpected calls.
	expectationsMet(t, mock)
}

func TestCreateOrder_RejectsUnknownProduct(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productLockQuery)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "status"}))
	mock.ExpectRollback()

	w := doJSON(t, r, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": 404, "quantity": 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v (%s)", w.Code, w.Body.String())
	}
	expectationsMet(t, mock)
}

func TestCreateOrder_EmptyItemsRejected(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	w := doJSON(t, r, http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty order, got %v", w.Code)
	}
	expectationsMet(t, mock)
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs("777").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at", "updated_at"}))

	w := doJSON(t, r, http.MethodGet, "/api/orders/777", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
	expectationsMet(t, mock)
}

func TestGetOrderDetails_OtherUsersOrderForbidden(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 99, models.RoleCustomer)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs("501").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at", "updated_at"}).
			AddRow(501, 50, 31.98, models.OrderStatusPending, now, now))

	w := doJSON(t, r, http.MethodGet, "/api/orders/501", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", w.Code)
	}
	expectationsMet(t, mock)
}

func TestGetOrderDetails_OwnerSeesItems(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs("501").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at", "updated_at"}).
			AddRow(501, 50, 19.98, models.OrderStatusPaid, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).
		WithArgs(int64(501)).
		WillReturnRows(sqlmock.NewRows([]string{
			"oi_id", "oi_order_id", "oi_product_id", "oi_quantity", "oi_price", "oi_created_at",
			"p_id", "p_name", "p_description", "p_price", "p_image_url", "p_affiliate_link",
			"p_brand_id", "p_status", "p_created_at", "p_updated_at",
			"b_id", "b_name", "b_slug", "b_description", "b_owner_id", "b_status", "b_created_at", "b_updated_at",
		}).AddRow(
			1, 501, 31, 2, 9.99, now,
			31, "Widget", "A widget", 9.99, nil, nil, 11, models.StatusApproved, now, now,
			11, "Acme", "acme", "Rockets", 7, models.StatusApproved, now, now,
		))

	w := doJSON(t, r, http.MethodGet, "/api/orders/501", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %v (%s)", w.Code, w.Body.String())
	}
	order := decodeBody(t, w)["order"].(map[string]any)
	items := order["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	product := items[0].(map[string]any)["product"].(map[string]any)
	if product["name"] != "Widget" {
		t.Fatalf("expected product attached to item, got %v", product)
	}
	expectationsMet(t, mock)
}

func TestGetMyOrders_Empty(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at", "updated_at"}))

	w := doJSON(t, r, http.MethodGet, "/api/orders/my-orders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %v (%s)", w.Code, w.Body.String())
	}
	if orders := decodeBody(t, w)["orders"].([]any); len(orders) != 0 {
		t.Fatalf("expected empty order list, got %v", orders)
	}
	expectationsMet(t, mock)
}

func TestGetMyOrders_RowErrorIs500(t *testing.T) {
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "status", "created_at", "updated_at"}).
			AddRow(501, 50, 34.0, models.OrderStatusPending, now, now).
			RowError(0, errors.New("driver: bad connection")))

	w := doJSON(t, r, http.MethodGet, "/api/orders/my-orders", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("a mid-iteration failure must not look like a short list, got %v (%s)", w.Code, w.Body.String())
	}
	expectationsMet(t, mock)
}

func TestUpdateOrderStatus_ValidatesAndAuthorizes(t *testing.T) {
	// Unknown status value never reaches the database.
	h, mock, _ := newMockHandlers(t)
	r := orderRouter(h, 50, models.RoleCustomer)

	w := doJSON(t, r, http.MethodPatch, "/api/orders/501/status", map[string]any{
		"status": "APPROVED",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("moderation vocabulary must be rejected for orders, got %v", w.Code)
	}
	expectationsMet(t, mock)

	// Someone else's order.
	h, mock, _ = newMockHandlers(t)
	r = orderRouter(h, 99, models.RoleCustomer)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE id = ?")).
		WithArgs("501").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(50))

	w = doJSON(t, r, http.MethodPatch, "/api/orders/501/status", map[string]any{
		"status": models.OrderStatusCancelled,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", w.Code)
	}
	expectationsMet(t, mock)

	// Owner cancels their own order.
	h, mock, _ = newMockHandlers(t)
	r = orderRouter(h, 50, models.RoleCustomer)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM orders WHERE id = ?")).
		WithArgs("501").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(50))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?")).
		WithArgs(models.OrderStatusCancelled, sqlmock.AnyArg(), "501").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w = doJSON(t, r, http.MethodPatch, "/api/orders/501/status", map[string]any{
		"status": models.OrderStatusCancelled,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %v (%s)", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["status"] != models.OrderStatusCancelled {
		t.Fatalf("expected echoed status, got %v", body["status"])
	}
	expectationsMet(t, mock)
}
