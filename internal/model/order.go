package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle states. Orders move forward only; cancellation is a
// terminal state reachable until the seller ships.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

const (
	PaymentInitiated = "initiated"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// OrderItem is one durable order record derived from one cart line of a
// captured payment. The composite key (order_group_id, product_id) is what
// makes webhook re-delivery idempotent: the same payment always re-derives
// the same key and the conditional insert rejects the duplicate.
type OrderItem struct {
	OrderGroupID string `gorm:"primaryKey;size:64;not null"` // provider order id, stable across re-delivery
	ProductID    string `gorm:"primaryKey;size:64;not null"`

	OrderID       string `gorm:"size:32;uniqueIndex;not null"` // display id, oid_*
	TransactionID string `gorm:"size:64;index"`

	UserID        string `gorm:"size:64;index;not null"`
	CustomerEmail string `gorm:"size:128"`

	SellerID    string `gorm:"size:64;index;not null"`
	SellerEmail string `gorm:"size:128"`
	SellerTaxID string `gorm:"size:32"`

	ProductName string `gorm:"size:256"`
	Quantity    int32  `gorm:"not null"`

	// Physical dimensions from the checkout-time product snapshot,
	// consumed by the shipping collaborator.
	WeightKg  float64
	LengthCm  float64
	BreadthCm float64
	HeightCm  float64
	Fragile   bool

	PickupLocation string `gorm:"size:256"`

	UnitPrice             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryUserPayable   decimal.Decimal `gorm:"type:decimal(12,2)"`
	DeliverySellerPayable decimal.Decimal `gorm:"type:decimal(12,2)"`
	ServiceCharge         decimal.Decimal `gorm:"type:decimal(12,2)"`
	SellerProfit          decimal.Decimal `gorm:"type:decimal(12,2)"`

	ShipName     string `gorm:"size:128"`
	ShipLine1    string `gorm:"size:256"`
	ShipLine2    string `gorm:"size:256"`
	ShipCity     string `gorm:"size:64"`
	ShipState    string `gorm:"size:64"`
	ShipPostcode string `gorm:"size:16"`
	ShipPhone    string `gorm:"size:20"`

	// Shipping sub-state, empty until the carrier collaborator fills it in.
	ShippingProvider string `gorm:"size:32"`
	ShippingAWB      string `gorm:"size:64;index"`
	TrackingURL      string `gorm:"size:512"`
	ShippingStatus   string `gorm:"size:32"`

	Status        string `gorm:"size:32;index;not null"`
	PaymentStatus string `gorm:"size:16;not null"`

	IsActive bool `gorm:"not null;default:true"`
	Version  int  `gorm:"not null;default:1"` // optimistic concurrency counter

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is one row per captured payment event, keyed by the provider's
// order id so a re-delivered webhook cannot record the payment twice.
type Payment struct {
	OrderGroupID      string `gorm:"primaryKey;size:64;not null"`
	ProviderPaymentID string `gorm:"size:64;index"`

	UserID        string          `gorm:"size:64;index;not null"`
	Status        string          `gorm:"size:16;index;not null"` // initiated, completed, failed
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"size:32"`
	FailureReason string          `gorm:"size:256"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WebhookEvent marks a fully processed delivery so an exact retry can be
// acknowledged without re-running expansion. The conditional order writes
// remain the actual idempotence guarantee.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventKind   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
