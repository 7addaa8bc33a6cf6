package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/models"

	"github.com/lib/pq"
)

const orderColumns = "id, buyer_id, total_amount, status, created_at, updated_at"

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row rowScanner, o *models.Order) error {
	return row.Scan(&o.ID, &o.BuyerID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
}

// CreateOrder inserts the order and its item snapshots in one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order insert: %w", err)
	}
	defer tx.Rollback()

	err = scanOrder(tx.QueryRowContext(ctx,
		"INSERT INTO orders (buyer_id, total_amount, status) VALUES ($1, $2, $3) RETURNING "+orderColumns,
		o.BuyerID, o.TotalAmount, o.Status,
	), o)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, vendor_id, name, qty, price) VALUES ($1, $2, $3, $4, $5, $6)",
			o.ID, item.ProductID, item.VendorID, item.Name, item.Quantity, item.Price,
		); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	var o models.Order
	err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id,
	), &o)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders := []models.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
}

func (r *OrderRepository) ListBuyerOrders(ctx context.Context, buyerID int) ([]models.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC, id DESC", buyerID)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus overwrites the status; concurrent writers are last-write-wins.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int, status models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := scanOrder(r.db.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING "+orderColumns,
		status, id,
	), &o)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	orders := []models.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// TransitionOrderStatus moves the order from one status to another only if it
// is still in the from status. A concurrent change yields a conflict.
func (r *OrderRepository) TransitionOrderStatus(ctx context.Context, id int, from, to models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := scanOrder(r.db.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3 RETURNING "+orderColumns,
		to, id, from,
	), &o)
	if errors.Is(err, sql.ErrNoRows) {
		var current models.OrderStatus
		err := r.db.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Order not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get order status: %w", err)
		}
		return nil, apperr.Conflict("Order status changed from %s to %s, please retry", from, current)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	orders := []models.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int]int, len(orders))
	for i, o := range orders {
		ids[i] = int64(o.ID)
		index[o.ID] = i
		orders[i].Items = make([]models.OrderItem, 0)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT order_id, product_id, vendor_id, name, qty, price FROM order_items WHERE order_id = ANY($1) ORDER BY id",
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int
		var item models.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.VendorID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}
