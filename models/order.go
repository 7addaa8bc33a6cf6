package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusApproved  OrderStatus = "Approved"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusApproved,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// OrderStatuses returns every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

// OrderItem fields other than ProductID and Quantity are snapshots taken when
// the order was placed; they never follow later product edits.
type OrderItem struct {
	ProductID int     `json:"product_id"`
	VendorID  int     `json:"vendor_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	Price     float64 `json:"price"`
}

func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Order struct {
	ID          int         `json:"id"`
	BuyerID     int         `json:"buyer_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ItemsTotal sums price*qty over the order's items.
func (o Order) ItemsTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// VendorOrderView is the slice of an order visible to a single vendor.
type VendorOrderView struct {
	OrderID     int         `json:"order_id"`
	Customer    int         `json:"customer_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

type OrderLineRequest struct {
	ProductID int `json:"product_id" binding:"required"`
	Quantity  int `json:"qty" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items       []OrderLineRequest `json:"items" binding:"required,dive"`
	TotalAmount float64            `json:"total_amount" binding:"gte=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderEvent struct {
	OrderID     int         `json:"order_id"`
	BuyerID     int         `json:"buyer_id"`
	VendorIDs   []int       `json:"vendor_ids"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	EventType   string      `json:"event_type"` // order_created, order_status_changed
}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)
