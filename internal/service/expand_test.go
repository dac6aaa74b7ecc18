package service

import (
	"context"
	"errors"
	"testing"

	"marketplace-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStubNotFound = errors.New("not found")

func TestExpandSingleItemAssignsTotalWholesale(t *testing.T) {
	expander := NewExpander(nil, nil)

	// ₹1500.00 charged for one item priced at 1500 × 1.
	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 1, Product: testSnapshot("prod-1", "seller-1", 1500)},
	}
	payment := testPayment(t, "order_grp1", 150000, cart)

	items, itemErrs, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)
	require.Empty(t, itemErrs)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "order_grp1", item.OrderGroupID)
	assert.Equal(t, "prod-1", item.ProductID)
	assert.True(t, item.TotalAmount.Equal(decimal.NewFromInt(1500)),
		"totalAmount = %s", item.TotalAmount)
	assert.Equal(t, model.OrderStatusPending, item.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, item.PaymentStatus)
	assert.Equal(t, 1, item.Version)
	assert.True(t, item.IsActive)
	assert.Empty(t, item.ShippingAWB)
	assert.Equal(t, "seller-1", item.SellerID)
	assert.Equal(t, "560001", item.ShipPostcode)
}

func TestExpandSellerProfit(t *testing.T) {
	expander := NewExpander(nil, nil)

	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 2, Product: testSnapshot("prod-1", "seller-1", 500)},
	}
	payment := testPayment(t, "order_grp1", 100000, cart)

	items, _, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// 500×2 − 25 (seller delivery) − 30 (service charge)
	assert.True(t, items[0].SellerProfit.Equal(decimal.NewFromInt(945)),
		"sellerProfit = %s", items[0].SellerProfit)
}

func TestExpandProportionalSplitSumsToChargedTotal(t *testing.T) {
	expander := NewExpander(nil, nil)

	for _, n := range []int{1, 3, 7} {
		cart := make([]model.CartItem, n)
		var weightSum int64
		for i := range cart {
			price := int64(100*i + 33) // uneven prices force rounding
			qty := int32(i%3 + 1)
			cart[i] = model.CartItem{
				ProductID: string(rune('a'+i)) + "-prod",
				Quantity:  qty,
				Product:   testSnapshot(string(rune('a'+i))+"-prod", "seller-1", price),
			}
			weightSum += price * int64(qty)
		}

		// Charge slightly more than the cart sum (delivery etc) so shares
		// cannot trivially equal the weights.
		amountMinor := weightSum*100 + 4999
		payment := testPayment(t, "order_split", amountMinor, cart)

		items, itemErrs, err := expander.Expand(context.Background(), payment)
		require.NoError(t, err)
		require.Empty(t, itemErrs)
		require.Len(t, items, n)

		total := decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100))
		sum := decimal.Zero
		for _, item := range items {
			sum = sum.Add(item.TotalAmount)
		}
		assert.True(t, sum.Equal(total),
			"n=%d: group sum %s must equal charged total %s", n, sum, total)
	}
}

func TestExpandSplitIsDeterministic(t *testing.T) {
	expander := NewExpander(nil, nil)

	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 1, Product: testSnapshot("prod-1", "s1", 999)},
		{ProductID: "prod-2", Quantity: 2, Product: testSnapshot("prod-2", "s2", 123)},
		{ProductID: "prod-3", Quantity: 1, Product: testSnapshot("prod-3", "s3", 457)},
	}
	payment := testPayment(t, "order_det", 180200, cart)

	first, _, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)
	second, _, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ProductID, second[i].ProductID)
		assert.True(t, first[i].TotalAmount.Equal(second[i].TotalAmount))
	}
}

func TestExpandMissingSnapshotDropsOnlyThatItem(t *testing.T) {
	expander := NewExpander(nil, nil)

	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 1, Product: testSnapshot("prod-1", "seller-1", 100)},
		{ProductID: "prod-2", Quantity: 1}, // no snapshot
		{ProductID: "prod-3", Quantity: 1, Product: testSnapshot("prod-3", "seller-2", 300)},
	}
	payment := testPayment(t, "order_grp1", 40000, cart)

	items, itemErrs, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "prod-1", items[0].ProductID)
	assert.Equal(t, "prod-3", items[1].ProductID)

	require.Len(t, itemErrs, 1)
	assert.Equal(t, 1, itemErrs[0].Index)
	assert.Equal(t, "prod-2", itemErrs[0].ProductID)
}

func TestExpandAllItemsInvalid(t *testing.T) {
	expander := NewExpander(nil, nil)

	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 0, Product: testSnapshot("prod-1", "seller-1", 100)},
		{ProductID: "", Quantity: 1},
	}
	payment := testPayment(t, "order_grp1", 10000, cart)

	items, itemErrs, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err, "zero successes is not a group decode failure")
	assert.Empty(t, items)
	assert.Len(t, itemErrs, 2)
}

func TestExpandUnparsableItemsFailsWholeGroup(t *testing.T) {
	expander := NewExpander(nil, nil)

	payment := testPayment(t, "order_grp1", 10000, nil)
	payment.Notes.Items = `{"not":"a list"`

	_, _, err := expander.Expand(context.Background(), payment)
	assert.Error(t, err)
}

func TestExpandMissingAddressFailsWholeGroup(t *testing.T) {
	expander := NewExpander(nil, nil)

	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 1, Product: testSnapshot("prod-1", "seller-1", 100)},
	}
	payment := testPayment(t, "order_grp1", 10000, cart)
	payment.Notes.Address = nil

	_, _, err := expander.Expand(context.Background(), payment)
	assert.ErrorIs(t, err, ErrMissingAddress)
}

type stubAddressBook struct {
	address *model.Address
}

func (s *stubAddressBook) GetAddress(_ context.Context, _ string) (*model.Address, error) {
	if s.address == nil {
		return nil, errStubNotFound
	}
	return s.address, nil
}

func TestExpandResolvesAddressIDThroughCollaborator(t *testing.T) {
	expander := NewExpander(nil, &stubAddressBook{address: testAddress()})

	cart := []model.CartItem{
		{ProductID: "prod-1", Quantity: 1, Product: testSnapshot("prod-1", "seller-1", 100)},
	}
	payment := testPayment(t, "order_grp1", 10000, cart)
	payment.Notes.Address = nil
	payment.Notes.AddressID = "addr-9"

	items, _, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bengaluru", items[0].ShipCity)
}

type stubCatalog struct {
	snapshot *model.ProductSnapshot
}

func (s *stubCatalog) GetProductSnapshot(_ context.Context, _ string) (*model.ProductSnapshot, error) {
	if s.snapshot == nil {
		return nil, errStubNotFound
	}
	return s.snapshot, nil
}

func TestExpandBackfillsSnapshotFromCatalog(t *testing.T) {
	expander := NewExpander(&stubCatalog{snapshot: testSnapshot("prod-1", "seller-1", 250)}, nil)

	cart := []model.CartItem{{ProductID: "prod-1", Quantity: 1}}
	payment := testPayment(t, "order_grp1", 25000, cart)

	items, itemErrs, err := expander.Expand(context.Background(), payment)
	require.NoError(t, err)
	require.Empty(t, itemErrs)
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(250)))
}
