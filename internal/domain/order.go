package domain

import (
	"strings"
	"time"
)

// OrderStatus is the raw fulfilment status stored on an order. Values outside
// the known set are tolerated and classified as processing.
type OrderStatus string

const (
	OrderNotConfirmed OrderStatus = "not_confirmed"
	OrderConfirmed    OrderStatus = "confirmed"
	OrderProcessing   OrderStatus = "processing"
	OrderShipped      OrderStatus = "shipped"
	OrderDelivered    OrderStatus = "delivered"
	OrderReturned     OrderStatus = "returned"
	OrderCancelled    OrderStatus = "cancelled"
)

// Normalize lowercases and trims the raw status.
func (s OrderStatus) Normalize() OrderStatus {
	return OrderStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

const (
	RefundSuccess   = "Success"
	RefundInitiated = "Initiated"
)

// Refund is a refund record attached to an order.
type Refund struct {
	RefundID   string    `json:"refund_id" yaml:"refund_id"`
	Status     string    `json:"status" yaml:"status"`
	Amount     float64   `json:"amount" yaml:"amount"`
	ARNNumber  string    `json:"arn_number,omitempty" yaml:"arn_number,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	RefundedAt time.Time `json:"refunded_at" yaml:"refunded_at"`
}

// Succeeded reports whether the refund has been credited by the provider.
func (r Refund) Succeeded() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), RefundSuccess)
}

// Initiated reports whether the refund is in flight.
func (r Refund) Initiated() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), RefundInitiated)
}

// EffectiveDate prefers the refund completion time and falls back to the
// creation time. The zero time means neither is known.
func (r Refund) EffectiveDate() time.Time {
	if !r.RefundedAt.IsZero() {
		return r.RefundedAt
	}
	return r.CreatedAt
}

// Order is a customer order as supplied by the order source. Refunds are
// ordered most recent first.
type Order struct {
	OrderNumber      string      `json:"order_number" yaml:"order_number"`
	ShopifyOrderName string      `json:"shopify_order_name" yaml:"shopify_order_name"`
	OrderStatus      OrderStatus `json:"order_status" yaml:"order_status"`
	PaymentStatus    bool        `json:"payment_status" yaml:"payment_status"`
	PaymentMethod    string      `json:"payment_method" yaml:"payment_method"`
	TotalAmount      float64     `json:"total_amount" yaml:"total_amount"`
	Currency         string      `json:"currency,omitempty" yaml:"currency,omitempty"`
	DeliveryStatus   string      `json:"delivery_status" yaml:"delivery_status"`
	MerchantName     string      `json:"merchant_name,omitempty" yaml:"merchant_name,omitempty"`
	Refunds          []Refund    `json:"refunds" yaml:"refunds"`
}

// HasRefunds reports whether any refund record exists.
func (o Order) HasRefunds() bool {
	return len(o.Refunds) > 0
}

// LatestRefund returns the most recent refund, if any.
func (o Order) LatestRefund() (Refund, bool) {
	if len(o.Refunds) == 0 {
		return Refund{}, false
	}
	return o.Refunds[0], true
}

// DisplayName is the order name shown to customers, always with a single
// leading '#'. It falls back to the order number when no display name exists.
func (o Order) DisplayName() string {
	name := strings.TrimLeft(strings.TrimSpace(o.ShopifyOrderName), "#")
	if name == "" {
		name = strings.TrimSpace(o.OrderNumber)
	}
	return "#" + name
}

// DisplayStatus is the customer-facing order status after precedence rules
// have been applied to the raw order fields.
type DisplayStatus string

const (
	StatusConfirmed    DisplayStatus = "CONFIRMED"
	StatusNotConfirmed DisplayStatus = "NOT_CONFIRMED"
	StatusProcessing   DisplayStatus = "PROCESSING"
	StatusShipped      DisplayStatus = "SHIPPED"
	StatusDelivered    DisplayStatus = "DELIVERED"
	StatusReturned     DisplayStatus = "RETURNED"
	StatusCancelled    DisplayStatus = "CANCELLED"
	StatusRefunded     DisplayStatus = "REFUNDED"
)

// AllDisplayStatuses lists every display status.
func AllDisplayStatuses() []DisplayStatus {
	return []DisplayStatus{
		StatusConfirmed,
		StatusNotConfirmed,
		StatusProcessing,
		StatusShipped,
		StatusDelivered,
		StatusReturned,
		StatusCancelled,
		StatusRefunded,
	}
}

// Label renders the status for inline use in replies ("NOT CONFIRMED").
func (s DisplayStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}
