package events

import (
	"context"
	"fmt"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/notify"

	"go.uber.org/zap"
)

type UserLookup interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// Dispatcher turns order events into notifications for the buyer and, for new
// orders, for every vendor with items in the order. It also implements the
// order service's publisher so events can be delivered in-process when Kafka
// is disabled.
type Dispatcher struct {
	users    UserLookup
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewDispatcher(users UserLookup, notifier notify.Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{users: users, notifier: notifier, logger: logger}
}

func (d *Dispatcher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	return d.Handle(ctx, event)
}

// Handle notifies the recipients of event. Notifier failures are logged and
// reported as upstream errors; unknown recipients are skipped.
func (d *Dispatcher) Handle(ctx context.Context, event models.OrderEvent) error {
	var msgs []notify.Message

	switch event.EventType {
	case models.EventOrderCreated:
		if buyer := d.lookup(ctx, event.BuyerID); buyer != nil {
			msgs = append(msgs, notify.Message{
				To:      buyer.Email,
				Subject: "Order Confirmation",
				Body: fmt.Sprintf("Your order #%d has been placed successfully! Total: %.2f. We'll notify you once it's confirmed.",
					event.OrderID, event.TotalAmount),
			})
		}
		for _, id := range event.VendorIDs {
			if vendor := d.lookup(ctx, id); vendor != nil {
				msgs = append(msgs, notify.Message{
					To:      vendor.Email,
					Subject: "New Order",
					Body:    fmt.Sprintf("Order #%d contains your products.", event.OrderID),
				})
			}
		}
	case models.EventOrderStatusChanged:
		if buyer := d.lookup(ctx, event.BuyerID); buyer != nil {
			msgs = append(msgs, notify.Message{
				To:      buyer.Email,
				Subject: "Order Update",
				Body:    fmt.Sprintf("Your order #%d is now %s.", event.OrderID, event.Status),
			})
		}
	default:
		d.logger.Debug("Unknown event type", zap.String("event_type", event.EventType))
		return nil
	}

	for _, msg := range msgs {
		if err := d.notifier.Send(ctx, msg); err != nil {
			d.logger.Warn("Notification failed",
				zap.String("trace_id", middleware.GetTraceID(ctx)),
				zap.Int("order_id", event.OrderID),
				zap.Error(err),
			)
			return apperr.Upstream(err, "Notifier unavailable")
		}
		middleware.RecordNotificationSent(event.EventType)
	}

	d.logger.Info("Order notifications sent",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("event_type", event.EventType),
		zap.Int("order_id", event.OrderID),
		zap.Int("recipients", len(msgs)),
	)
	return nil
}

func (d *Dispatcher) lookup(ctx context.Context, id int) *models.User {
	u, err := d.users.GetUser(ctx, id)
	if err != nil {
		d.logger.Warn("Skipping notification recipient", zap.Int("user_id", id), zap.Error(err))
		return nil
	}
	return u
}
