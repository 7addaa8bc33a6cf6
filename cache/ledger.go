package cache

import (
	"context"

	"github.com/ABH36/Machine-test/inventory"
	"github.com/ABH36/Machine-test/models"
)

// Invalidator drops cached products.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...int)
}

// InvalidatingLedger evicts cached products whose stock a reservation or
// release touched, so product reads never show pre-order stock for longer
// than one request.
type InvalidatingLedger struct {
	inventory.Ledger
	cache Invalidator
}

func NewInvalidatingLedger(ledger inventory.Ledger, cache Invalidator) *InvalidatingLedger {
	return &InvalidatingLedger{Ledger: ledger, cache: cache}
}

func (l *InvalidatingLedger) Reserve(ctx context.Context, lines []inventory.Line) ([]models.Product, error) {
	products, err := l.Ledger.Reserve(ctx, lines)
	if err == nil {
		l.cache.Invalidate(ctx, lineIDs(lines)...)
	}
	return products, err
}

func (l *InvalidatingLedger) Release(ctx context.Context, lines []inventory.Line) error {
	err := l.Ledger.Release(ctx, lines)
	l.cache.Invalidate(ctx, lineIDs(lines)...)
	return err
}

func lineIDs(lines []inventory.Line) []int {
	ids := make([]int, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	return ids
}
