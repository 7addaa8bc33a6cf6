package orders

import (
	"context"
	"sort"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/inventory"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/policy"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Store persists orders. List methods return newest first.
type Store interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, status models.OrderStatus) (*models.Order, error)
	// TransitionOrderStatus updates the status only while it still equals from.
	TransitionOrderStatus(ctx context.Context, id int, from, to models.OrderStatus) (*models.Order, error)
}

// EventPublisher receives order lifecycle events. Publishing is best effort.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

type Options struct {
	StrictTransitions bool
	// TrustClientTotal stores the caller-supplied total instead of the sum of
	// the snapshot item prices.
	TrustClientTotal bool
}

type Service struct {
	store       Store
	ledger      inventory.Ledger
	publisher   EventPublisher
	transitions Transitions
	opts        Options
	logger      *zap.Logger
}

func NewService(store Store, ledger inventory.Ledger, publisher EventPublisher, opts Options, logger *zap.Logger) *Service {
	return &Service{
		store:       store,
		ledger:      ledger,
		publisher:   publisher,
		transitions: Transitions{Strict: opts.StrictTransitions},
		opts:        opts,
		logger:      logger,
	}
}

// Place reserves stock for every line and persists a Pending order. No order
// is stored and no stock changes when any line fails.
func (s *Service) Place(ctx context.Context, caller policy.Principal, req models.CreateOrderRequest) (*models.Order, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "PlaceOrder")
	defer span.End()

	if err := policy.Authorize(caller, policy.ActionPlaceOrder, policy.Resource{}); err != nil {
		return nil, err
	}

	lines, err := inventory.Normalize(req.Items)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("buyer.id", caller.UserID),
		attribute.Int("order.lines", len(lines)),
	)

	products, err := s.ledger.Reserve(ctx, lines)
	if err != nil {
		span.RecordError(err)
		middleware.RecordReservationRejected(string(apperr.KindOf(err)))
		s.logger.Warn("Stock reservation rejected",
			zap.Int("buyer_id", caller.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	order := &models.Order{
		BuyerID: caller.UserID,
		Items:   make([]models.OrderItem, len(lines)),
		Status:  models.OrderStatusPending,
	}
	for i, line := range lines {
		p := products[i]
		order.Items[i] = models.OrderItem{
			ProductID: p.ID,
			VendorID:  p.VendorID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Price:     p.Price,
		}
	}
	order.TotalAmount = order.ItemsTotal()
	if s.opts.TrustClientTotal {
		order.TotalAmount = req.TotalAmount
	} else if req.TotalAmount != 0 && req.TotalAmount != order.TotalAmount {
		s.logger.Info("Client total differs from item total",
			zap.Float64("client_total", req.TotalAmount),
			zap.Float64("items_total", order.TotalAmount),
		)
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		span.RecordError(err)
		if relErr := s.ledger.Release(ctx, lines); relErr != nil {
			s.logger.Error("Failed to release reserved stock", zap.Error(relErr))
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("order.id", order.ID))
	span.SetStatus(codes.Ok, "order placed")
	middleware.RecordOrderPlaced()
	s.logger.Info("Order placed",
		zap.Int("order_id", order.ID),
		zap.Int("buyer_id", order.BuyerID),
		zap.Float64("total_amount", order.TotalAmount),
	)

	s.publish(ctx, order, models.EventOrderCreated)
	return order, nil
}

// SetStatus changes the status of an order. In lenient mode any known status
// is accepted regardless of the current one.
func (s *Service) SetStatus(ctx context.Context, caller policy.Principal, orderID int, rawStatus string) (*models.Order, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "SetOrderStatus")
	defer span.End()

	if err := policy.Authorize(caller, policy.ActionSetOrderStatus, policy.Resource{}); err != nil {
		return nil, err
	}

	status, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, apperr.Validation("status", "Invalid status %q", rawStatus)
	}
	span.SetAttributes(
		attribute.Int("order.id", orderID),
		attribute.String("order.status", string(status)),
	)

	var order *models.Order
	if s.transitions.Strict {
		current, getErr := s.store.GetOrder(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		if err := s.transitions.Check(current.Status, status); err != nil {
			return nil, err
		}
		order, err = s.store.TransitionOrderStatus(ctx, orderID, current.Status, status)
	} else {
		order, err = s.store.UpdateOrderStatus(ctx, orderID, status)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	middleware.RecordOrderStatusChange(string(status))
	s.logger.Info("Order status updated",
		zap.Int("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.Int("updated_by", caller.UserID),
	)

	s.publish(ctx, order, models.EventOrderStatusChanged)
	return order, nil
}

func (s *Service) ListMine(ctx context.Context, caller policy.Principal) ([]models.Order, error) {
	if err := policy.Authorize(caller, policy.ActionListOwnOrders, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.store.ListBuyerOrders(ctx, caller.UserID)
}

// ListForVendor projects every order for the calling user. Callers without
// any items in an order simply do not see it.
func (s *Service) ListForVendor(ctx context.Context, caller policy.Principal) ([]models.VendorOrderView, error) {
	if err := policy.Authorize(caller, policy.ActionListVendorOrders, policy.Resource{}); err != nil {
		return nil, err
	}
	all, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return ProjectAll(all, caller.UserID), nil
}

func (s *Service) publish(ctx context.Context, order *models.Order, eventType string) {
	if s.publisher == nil {
		return
	}
	event := models.OrderEvent{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		VendorIDs:   vendorIDs(order.Items),
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		EventType:   eventType,
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func vendorIDs(items []models.OrderItem) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, item := range items {
		if !seen[item.VendorID] {
			seen[item.VendorID] = true
			ids = append(ids, item.VendorID)
		}
	}
	sort.Ints(ids)
	return ids
}
