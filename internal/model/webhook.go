package model

import "github.com/shopspring/decimal"

// Webhook event kinds. Only payment.captured drives the materialization
// pipeline; everything else is acknowledged and dropped.
const (
	EventPaymentCaptured = "payment.captured"
)

// ProviderEvent is the decoded webhook envelope. It is decoded exactly once,
// after signature verification, and never persisted verbatim.
type ProviderEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentEntity is the provider's view of a captured payment. Amount is in
// minor currency units (paise).
type PaymentEntity struct {
	ID       string       `json:"id"`
	OrderID  string       `json:"order_id"`
	Amount   int64        `json:"amount"`
	Currency string       `json:"currency"`
	Method   string       `json:"method"`
	Email    string       `json:"email"`
	Notes    PaymentNotes `json:"notes"`
}

// PaymentNotes is the checkout metadata the client attached when creating
// the provider order. Items is a serialized JSON array of CartItem; it is
// decoded by the expander, and a decode failure there fails the whole group.
type PaymentNotes struct {
	UserID        string   `json:"userId"`
	CustomerEmail string   `json:"customerEmail"`
	AddressID     string   `json:"addressId"`
	Address       *Address `json:"address"`
	Items         string   `json:"items"`
}

type Address struct {
	Name     string `json:"name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Phone    string `json:"phone"`
}

// CartItem is one cart line with its checkout-time product snapshot. The
// snapshot is captured by the client at checkout and deliberately not
// re-fetched from the live catalog, so pricing stays stable even if the
// catalog changes mid-flight.
type CartItem struct {
	ProductID string           `json:"productId"`
	Quantity  int32            `json:"quantity"`
	Product   *ProductSnapshot `json:"product"`
}

type ProductSnapshot struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`

	SellerID    string `json:"sellerId"`
	SellerEmail string `json:"sellerEmail"`
	SellerTaxID string `json:"sellerTaxId"`

	DeliveryCharge       decimal.Decimal `json:"deliveryCharge"`       // payable by the buyer
	SellerDeliveryCharge decimal.Decimal `json:"sellerDeliveryCharge"` // payable by the seller
	ServiceCharge        decimal.Decimal `json:"serviceCharge"`

	WeightKg  float64 `json:"weightKg"`
	LengthCm  float64 `json:"lengthCm"`
	BreadthCm float64 `json:"breadthCm"`
	HeightCm  float64 `json:"heightCm"`
	Fragile   bool    `json:"fragile"`

	PickupLocation string `json:"pickupLocation"`
}
