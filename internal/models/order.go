package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending: {
		OrderConfirmed: true, OrderProcessing: true, OrderShipped: true,
		OrderDelivered: true, OrderCancelled: true,
	},
	OrderConfirmed:  {OrderProcessing: true, OrderShipped: true, OrderDelivered: true},
	OrderProcessing: {OrderShipped: true, OrderDelivered: true},
	OrderShipped:    {OrderDelivered: true},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// ParseOrderStatus accepts any case and surrounding whitespace.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := orderNext[s]; !ok {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := orderNext[s]
	return ok
}

// CanTransition reports whether an order in status s may move to status to.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return orderNext[s][to]
}

func (s OrderStatus) Terminal() bool {
	next, ok := orderNext[s]
	return ok && len(next) == 0
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	TotalItems      int             `json:"total_items"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PhoneNumber     string          `json:"phone_number"`
	Note            string          `json:"note"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int64           `json:"version"`
}

// OrderItem is the snapshot of a cart line taken at checkout.
type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// SnapshotCartItem freezes name and price of a cart line.
func SnapshotCartItem(item CartItem) OrderItem {
	return OrderItem{
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ProductPrice: item.ProductPrice,
		Quantity:     item.Quantity,
		Subtotal:     item.Subtotal(),
	}
}

// FreezeTotals computes TotalPrice and TotalItems from Items. It is called
// once, when the order is built at checkout.
func (o *Order) FreezeTotals() {
	o.TotalPrice = decimal.Zero
	o.TotalItems = 0
	for _, item := range o.Items {
		o.TotalPrice = o.TotalPrice.Add(item.Subtotal)
		o.TotalItems += item.Quantity
	}
}
