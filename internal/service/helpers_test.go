package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"marketplace-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.OrderItem{},
		&model.Payment{},
		&model.WebhookEvent{},
	))
	return db
}

func testAddress() *model.Address {
	return &model.Address{
		Name:     "Asha K",
		Line1:    "14 MG Road",
		City:     "Bengaluru",
		State:    "KA",
		Postcode: "560001",
		Phone:    "9900112233",
	}
}

func testSnapshot(productID, sellerID string, price int64) *model.ProductSnapshot {
	return &model.ProductSnapshot{
		ProductID:            productID,
		Name:                 "Product " + productID,
		Price:                decimal.NewFromInt(price),
		SellerID:             sellerID,
		SellerEmail:          sellerID + "@sellers.example",
		SellerTaxID:          "29ABCDE1234F1Z5",
		DeliveryCharge:       decimal.NewFromInt(40),
		SellerDeliveryCharge: decimal.NewFromInt(25),
		ServiceCharge:        decimal.NewFromInt(30),
		WeightKg:             0.5,
		PickupLocation:       "warehouse-blr",
	}
}

func serializeItems(t *testing.T, items []model.CartItem) string {
	t.Helper()
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	return string(raw)
}

// testPayment builds the decoded entity of a captured payment for
// amountMinor paise across the given cart lines.
func testPayment(t *testing.T, orderID string, amountMinor int64, cart []model.CartItem) *model.PaymentEntity {
	t.Helper()
	return &model.PaymentEntity{
		ID:       "pay_" + orderID,
		OrderID:  orderID,
		Amount:   amountMinor,
		Currency: "INR",
		Method:   "upi",
		Email:    "asha@buyers.example",
		Notes: model.PaymentNotes{
			UserID:        "user-1",
			CustomerEmail: "asha@buyers.example",
			Address:       testAddress(),
			Items:         serializeItems(t, cart),
		},
	}
}
