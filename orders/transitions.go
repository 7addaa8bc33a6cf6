package orders

import (
	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/models"
)

var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:  {models.OrderStatusApproved, models.OrderStatusCancelled},
	models.OrderStatusApproved: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:  {models.OrderStatusDelivered},
}

// Transitions validates status changes. The zero value is lenient and accepts
// any change between known statuses; Strict enforces the order lifecycle.
type Transitions struct {
	Strict bool
}

func (t Transitions) Check(from, to models.OrderStatus) error {
	if !to.Valid() {
		return apperr.Validation("status", "Invalid status %q", to)
	}
	if !t.Strict || from == to {
		return nil
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.Conflict("Cannot move order from %s to %s", from, to)
}
