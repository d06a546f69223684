package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order fulfillment lifecycle. Admin may set any of these freely; the
// payment webhook drives pending -> processing and pending -> cancelled.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment lifecycle, written exclusively by the webhook.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	ImageURL      string
	CategoryID    *uuid.UUID
	CategoryName  string
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID                 uuid.UUID
	OrderNumber        string
	CustomerEmail      string
	CustomerFirstName  string
	CustomerLastName   string
	ShippingAddress    string
	ShippingCity       string
	ShippingPostalCode string
	Subtotal           decimal.Decimal
	ShippingCost       decimal.Decimal
	Total              decimal.Decimal
	Status             string
	PaymentStatus      string
	StripeSessionID    string
	PaymentIntentID    string
	Items              []OrderItem
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderItem captures product name and price at time of purchase so historical
// orders stay intact when the product changes later.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
	Subtotal     decimal.Decimal
	CreatedAt    time.Time
}

// OrderPaidMessage is published to RabbitMQ when a checkout completes, and
// consumed by the notification worker.
type OrderPaidMessage struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
}
