package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	orderRowColumns = []string{"id", "buyer_id", "total_amount", "status", "created_at", "updated_at"}
	itemRowColumns  = []string{"order_id", "product_id", "vendor_id", "name", "qty", "price"}
)

func setupOrderRepo(t *testing.T) (*OrderRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrderRepository(db), mock
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(5, 85.5, models.OrderStatusPending).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(1, 5, 85.5, "Pending", now, now))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(1, 1, 10, "Lamp", 2, 20.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(1, 2, 11, "Chair", 1, 45.5).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	order := &models.Order{
		BuyerID:     5,
		TotalAmount: 85.5,
		Status:      models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: 1, VendorID: 10, Name: "Lamp", Quantity: 2, Price: 20},
			{ProductID: 2, VendorID: 11, Name: "Chair", Quantity: 1, Price: 45.5},
		},
	}
	if err := repo.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if order.ID != 1 || len(order.Items) != 2 {
		t.Errorf("Unexpected order after insert: %+v", order)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderRepository_GetOrder_WithItems(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + orderColumns + " FROM orders WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(1, 5, 85.5, "Approved", now, now))
	mock.ExpectQuery("SELECT order_id, product_id, vendor_id, name, qty, price FROM order_items").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow(1, 1, 10, "Lamp", 2, 20.0).
			AddRow(1, 2, 11, "Chair", 1, 45.5))

	order, err := repo.GetOrder(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if order.Status != models.OrderStatusApproved {
		t.Errorf("Expected status Approved, got %s", order.Status)
	}
	if len(order.Items) != 2 || order.Items[1].Name != "Chair" {
		t.Errorf("Unexpected items: %+v", order.Items)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderRepository_GetOrder_NotFound(t *testing.T) {
	repo, mock := setupOrderRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetOrder(context.Background(), 999)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderRepository_UpdateOrderStatus(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WithArgs(models.OrderStatusShipped, 1).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(1, 5, 40.0, "Shipped", now, now))
	mock.ExpectQuery("FROM order_items").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(1, 1, 10, "Lamp", 2, 20.0))

	order, err := repo.UpdateOrderStatus(context.Background(), 1, models.OrderStatusShipped)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if order.Status != models.OrderStatusShipped {
		t.Errorf("Expected status Shipped, got %s", order.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderRepository_ListBuyerOrders_Empty(t *testing.T) {
	repo, mock := setupOrderRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE buyer_id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	orders, err := repo.ListBuyerOrders(context.Background(), 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Expected no orders, got %d", len(orders))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

const transitionQuery = "UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3"

func TestOrderRepository_TransitionOrderStatus(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(transitionQuery)).
		WithArgs(models.OrderStatusApproved, 1, models.OrderStatusPending).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(1, 5, 40.0, "Approved", now, now))
	mock.ExpectQuery("FROM order_items").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemRowColumns))

	order, err := repo.TransitionOrderStatus(context.Background(), 1, models.OrderStatusPending, models.OrderStatusApproved)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if order.Status != models.OrderStatusApproved {
		t.Errorf("Expected status Approved, got %s", order.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderRepository_TransitionOrderStatus_Stale(t *testing.T) {
	repo, mock := setupOrderRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(transitionQuery)).
		WithArgs(models.OrderStatusApproved, 1, models.OrderStatusPending).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Cancelled"))

	_, err := repo.TransitionOrderStatus(context.Background(), 1, models.OrderStatusPending, models.OrderStatusApproved)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("Expected conflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderRepository_TransitionOrderStatus_NotFound(t *testing.T) {
	repo, mock := setupOrderRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(transitionQuery)).
		WithArgs(models.OrderStatusApproved, 42, models.OrderStatusPending).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = $1")).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.TransitionOrderStatus(context.Background(), 42, models.OrderStatusPending, models.OrderStatusApproved)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("Expected not found, got %v", err)
	}
}
