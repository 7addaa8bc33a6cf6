package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/inventory"
	"github.com/ABH36/Machine-test/models"

	"github.com/lib/pq"
)

const productColumns = "id, vendor_id, name, description, price, stock, category, image, created_at, updated_at"

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *models.Product) error {
	return row.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	err := scanProduct(r.db.QueryRowContext(ctx,
		"INSERT INTO products (vendor_id, name, description, price, stock, category, image) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+productColumns,
		p.VendorID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image,
	), p)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id,
	), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
}

func (r *ProductRepository) ListVendorProducts(ctx context.Context, vendorID int) ([]models.Product, error) {
	return r.list(ctx, "SELECT "+productColumns+" FROM products WHERE vendor_id = $1 ORDER BY created_at DESC, id DESC", vendorID)
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct writes the editable fields of p. Vendor ownership never changes.
func (r *ProductRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	err := scanProduct(r.db.QueryRowContext(ctx,
		"UPDATE products SET name = $1, description = $2, price = $3, stock = $4, category = $5, image = $6, updated_at = CURRENT_TIMESTAMP WHERE id = $7 RETURNING "+productColumns,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image, p.ID,
	), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Product not found")
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperr.NotFound("Product not found")
	}
	return nil
}

// Reserve decrements stock for every line inside one transaction. Each
// decrement is conditional on enough stock being left, so concurrent
// reservations can never drive stock below zero. Rows are locked in product
// id order so that overlapping reservations cannot deadlock. When any line
// fails the batch is rolled back and the failing line that comes first in the
// request is reported.
func (r *ProductRepository) Reserve(ctx context.Context, lines []inventory.Line) ([]models.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	reserved := make([]models.Product, len(lines))
	var failed *inventory.Line
	for _, i := range lockOrder(lines) {
		line := lines[i]
		err := scanProduct(tx.QueryRowContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND stock >= $1 RETURNING "+productColumns,
			line.Quantity, line.ProductID,
		), &reserved[i])
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, lockError(err, "failed to reserve stock")
		}
		if failed == nil || line.Index < failed.Index {
			failed = &lines[i]
		}
	}
	if failed != nil {
		return nil, r.explainRejection(ctx, tx, *failed)
	}

	if err := tx.Commit(); err != nil {
		return nil, lockError(err, "failed to commit reservation")
	}
	return reserved, nil
}

func (r *ProductRepository) explainRejection(ctx context.Context, tx *sql.Tx, line inventory.Line) error {
	var p models.Product
	err := tx.QueryRowContext(ctx,
		"SELECT id, name, stock FROM products WHERE id = $1", line.ProductID,
	).Scan(&p.ID, &p.Name, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Check(line, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect product: %w", err)
	}
	if err := inventory.Check(line, &p); err != nil {
		return err
	}
	// stock was replenished between the two statements; report it as contention
	return inventory.ErrInsufficientStock(line, p.Name, p.Stock)
}

func (r *ProductRepository) Release(ctx context.Context, lines []inventory.Line) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin release: %w", err)
	}
	defer tx.Rollback()

	for _, i := range lockOrder(lines) {
		line := lines[i]
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
			line.Quantity, line.ProductID,
		); err != nil {
			return lockError(err, "failed to release stock")
		}
	}
	if err := tx.Commit(); err != nil {
		return lockError(err, "failed to commit release")
	}
	return nil
}

// lockOrder returns the indexes of lines sorted by product id.
func lockOrder(lines []inventory.Line) []int {
	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lines[order[a]].ProductID < lines[order[b]].ProductID
	})
	return order
}

// lockError reports deadlocks and serialization failures as conflicts the
// caller may retry; anything else is wrapped as an internal error.
func lockError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40P01", "40001":
			return apperr.Conflict("Stock is being updated concurrently, please retry")
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
