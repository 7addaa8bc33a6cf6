// Package inventory holds the stock reservation contract shared by every
// storage backend.
package inventory

import (
	"context"
	"fmt"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/models"
)

// Line is one product/quantity pair to reserve. Index is the position of the
// line in the caller's request and is used when reporting failures.
type Line struct {
	Index     int
	ProductID int
	Quantity  int
}

// Ledger reserves stock for a batch of lines.
//
// Reserve is all-or-nothing: either every line is decremented or no stock
// changes. On success it returns the product state after the decrement, one
// entry per line and in line order. The error for a failed batch names the
// first line that could not be satisfied.
type Ledger interface {
	Reserve(ctx context.Context, lines []Line) ([]models.Product, error)
	Release(ctx context.Context, lines []Line) error
}

// MaxLineQuantity bounds the quantity of one line after duplicates are merged.
// It stays well inside the range of the stock column.
const MaxLineQuantity = 1_000_000

// Normalize validates a request and merges repeated product ids, keeping the
// index of the first occurrence.
func Normalize(items []models.OrderLineRequest) ([]Line, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("items", "No order items")
	}

	lines := make([]Line, 0, len(items))
	pos := make(map[int]int, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID <= 0 {
			return nil, apperr.Validation(field, "product_id must be positive")
		}
		if item.Quantity <= 0 {
			return nil, apperr.Validation(field, "qty must be greater than zero")
		}
		if item.Quantity > MaxLineQuantity {
			return nil, apperr.Validation(field, "qty must not exceed %d", MaxLineQuantity)
		}
		if at, ok := pos[item.ProductID]; ok {
			// both operands are capped, so the sum cannot overflow
			if lines[at].Quantity+item.Quantity > MaxLineQuantity {
				return nil, apperr.Validation(field, "total qty for product %d must not exceed %d", item.ProductID, MaxLineQuantity)
			}
			lines[at].Quantity += item.Quantity
			continue
		}
		pos[item.ProductID] = len(lines)
		lines = append(lines, Line{Index: i, ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines, nil
}

func lineField(line Line) string {
	return fmt.Sprintf("items[%d]", line.Index)
}

func ErrProductNotFound(line Line) error {
	return apperr.NotFound("Product not found: %d", line.ProductID).WithField(lineField(line))
}

func ErrInsufficientStock(line Line, name string, available int) error {
	return apperr.Conflict("Insufficient stock for %s (requested %d, available %d)",
		name, line.Quantity, available).WithField(lineField(line))
}

// Check returns the reservation error for line against p, or nil when the
// line can be satisfied. A nil p means the product does not exist.
func Check(line Line, p *models.Product) error {
	if p == nil {
		return ErrProductNotFound(line)
	}
	if line.Quantity <= 0 {
		return apperr.Validation(lineField(line), "qty must be greater than zero")
	}
	if p.Stock < line.Quantity {
		return ErrInsufficientStock(line, p.Name, p.Stock)
	}
	return nil
}
