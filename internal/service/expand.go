package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"marketplace-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingAddress = errors.New("no shipping address in payment notes")
	ErrNoItems        = errors.New("no cart items in payment notes")
)

// Catalog resolves a product snapshot when the checkout-time copy embedded
// in the webhook is incomplete. Normal deliveries never hit it.
type Catalog interface {
	GetProductSnapshot(ctx context.Context, productID string) (*model.ProductSnapshot, error)
}

// AddressBook resolves a stored address when notes carry only an address id.
type AddressBook interface {
	GetAddress(ctx context.Context, addressID string) (*model.Address, error)
}

// ItemError records one cart line that could not be turned into an order
// item. Siblings are unaffected.
type ItemError struct {
	Index     int
	ProductID string
	Reason    string
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %s", e.Index, e.ProductID, e.Reason)
}

// Expander turns one captured payment into one fully priced order item per
// cart line.
type Expander struct {
	catalog   Catalog
	addresses AddressBook
}

func NewExpander(catalog Catalog, addresses AddressBook) *Expander {
	return &Expander{
		catalog:   catalog,
		addresses: addresses,
	}
}

// Expand decodes the cart snapshot and builds the order items. The returned
// error is a whole-group failure (unusable address or item list); per-item
// problems land in the ItemError list while the remaining items proceed.
//
// Pricing: the provider-confirmed total for the whole payment is
// amount/100 in major units. A single-item group receives it wholesale; a
// multi-item group splits it proportionally to each item's
// unitPrice × quantity, rounding each share to two places and letting the
// last item absorb the remainder so the group always sums to the charged
// total exactly.
func (e *Expander) Expand(ctx context.Context, payment *model.PaymentEntity) ([]*model.OrderItem, []ItemError, error) {
	notes := payment.Notes

	address, err := e.resolveAddress(ctx, &notes)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(notes.Items) == "" {
		return nil, nil, ErrNoItems
	}
	var cart []model.CartItem
	if err := json.Unmarshal([]byte(notes.Items), &cart); err != nil {
		return nil, nil, fmt.Errorf("decode cart items: %w", err)
	}
	if len(cart) == 0 {
		return nil, nil, ErrNoItems
	}

	// Validate every line first; the proportional split needs the full set
	// of surviving weights before any item can be priced.
	var (
		valid     []model.CartItem
		itemErrs  []ItemError
		snapshots []*model.ProductSnapshot
	)
	for i, line := range cart {
		snapshot, reason := e.resolveSnapshot(ctx, line)
		if reason != "" {
			itemErrs = append(itemErrs, ItemError{
				Index:     i,
				ProductID: line.ProductID,
				Reason:    reason,
			})
			continue
		}
		valid = append(valid, line)
		snapshots = append(snapshots, snapshot)
	}

	if len(valid) == 0 {
		return nil, itemErrs, nil
	}

	total := decimal.NewFromInt(payment.Amount).Div(decimal.NewFromInt(100))
	shares := splitTotal(total, valid, snapshots)

	transactionID := "txn_" + shortID()
	items := make([]*model.OrderItem, len(valid))
	for i, line := range valid {
		items[i] = buildOrderItem(payment, line, snapshots[i], address, shares[i], transactionID)
	}

	return items, itemErrs, nil
}

func (e *Expander) resolveAddress(ctx context.Context, notes *model.PaymentNotes) (*model.Address, error) {
	if notes.Address != nil {
		return notes.Address, nil
	}
	if notes.AddressID == "" || e.addresses == nil {
		return nil, ErrMissingAddress
	}
	address, err := e.addresses.GetAddress(ctx, notes.AddressID)
	if err != nil {
		return nil, fmt.Errorf("resolve address %s: %w", notes.AddressID, err)
	}
	return address, nil
}

// resolveSnapshot validates one cart line, consulting the catalog once when
// the embedded snapshot is unusable. A non-empty reason fails the line.
func (e *Expander) resolveSnapshot(ctx context.Context, line model.CartItem) (*model.ProductSnapshot, string) {
	if line.ProductID == "" {
		return nil, "missing product id"
	}
	if line.Quantity <= 0 {
		return nil, "quantity must be positive"
	}

	snapshot := line.Product
	if !snapshotUsable(snapshot) && e.catalog != nil {
		resolved, err := e.catalog.GetProductSnapshot(ctx, line.ProductID)
		if err == nil {
			snapshot = resolved
		}
	}

	if snapshot == nil {
		return nil, "missing product snapshot"
	}
	if snapshot.SellerID == "" {
		return nil, "missing seller id"
	}
	if snapshot.Price.LessThanOrEqual(decimal.Zero) {
		return nil, "missing or non-positive price"
	}
	return snapshot, ""
}

func snapshotUsable(s *model.ProductSnapshot) bool {
	return s != nil && s.SellerID != "" && s.Price.GreaterThan(decimal.Zero)
}

// splitTotal apportions the charged total across items by unitPrice×quantity
// weight. Deterministic: items keep payload order and the last item takes
// the rounding remainder.
func splitTotal(total decimal.Decimal, items []model.CartItem, snapshots []*model.ProductSnapshot) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(items))
	if len(items) == 1 {
		shares[0] = total
		return shares
	}

	weightSum := decimal.Zero
	weights := make([]decimal.Decimal, len(items))
	for i, line := range items {
		weights[i] = snapshots[i].Price.Mul(decimal.NewFromInt32(line.Quantity))
		weightSum = weightSum.Add(weights[i])
	}

	allocated := decimal.Zero
	for i := range items {
		if i == len(items)-1 {
			shares[i] = total.Sub(allocated)
			break
		}
		shares[i] = total.Mul(weights[i]).Div(weightSum).Round(2)
		allocated = allocated.Add(shares[i])
	}
	return shares
}

func buildOrderItem(payment *model.PaymentEntity, line model.CartItem, snapshot *model.ProductSnapshot, address *model.Address, share decimal.Decimal, transactionID string) *model.OrderItem {
	quantity := decimal.NewFromInt32(line.Quantity)
	profit := snapshot.Price.Mul(quantity).
		Sub(snapshot.SellerDeliveryCharge).
		Sub(snapshot.ServiceCharge)

	customerEmail := payment.Notes.CustomerEmail
	if customerEmail == "" {
		customerEmail = payment.Email
	}

	return &model.OrderItem{
		OrderGroupID:  payment.OrderID,
		ProductID:     line.ProductID,
		OrderID:       "oid_" + shortID(),
		TransactionID: transactionID,

		UserID:        payment.Notes.UserID,
		CustomerEmail: customerEmail,

		SellerID:    snapshot.SellerID,
		SellerEmail: snapshot.SellerEmail,
		SellerTaxID: snapshot.SellerTaxID,

		ProductName: snapshot.Name,
		Quantity:    line.Quantity,

		WeightKg:  snapshot.WeightKg,
		LengthCm:  snapshot.LengthCm,
		BreadthCm: snapshot.BreadthCm,
		HeightCm:  snapshot.HeightCm,
		Fragile:   snapshot.Fragile,

		PickupLocation: snapshot.PickupLocation,

		UnitPrice:             snapshot.Price,
		TotalAmount:           share,
		DeliveryUserPayable:   snapshot.DeliveryCharge,
		DeliverySellerPayable: snapshot.SellerDeliveryCharge,
		ServiceCharge:         snapshot.ServiceCharge,
		SellerProfit:          profit,

		ShipName:     address.Name,
		ShipLine1:    address.Line1,
		ShipLine2:    address.Line2,
		ShipCity:     address.City,
		ShipState:    address.State,
		ShipPostcode: address.Postcode,
		ShipPhone:    address.Phone,

		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,

		IsActive: true,
		Version:  1,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
