package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrOrderExists is returned when the conditional insert finds a record
	// already at (orderGroupID, productID). Callers treat it as a successful
	// no-op; it is how webhook re-delivery stays idempotent.
	ErrOrderExists = errors.New("order item already exists")

	ErrOrderNotFound = errors.New("order item not found")

	// ErrVersionConflict means a guarded update matched no row because the
	// expected version was stale: another collaborator mutated the record.
	ErrVersionConflict = errors.New("order item version conflict")
)

type OrderRepository interface {
	Create(ctx context.Context, item *model.OrderItem) error
	FindByKey(ctx context.Context, orderGroupID, productID string) (*model.OrderItem, error)
	ListByGroup(ctx context.Context, orderGroupID string) ([]*model.OrderItem, error)
	ListByUser(ctx context.Context, userID string) ([]*model.OrderItem, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*model.OrderItem, error)
	UpdateStatus(ctx context.Context, orderGroupID, productID, status string, expectedVersion int) error
	UpdateShipping(ctx context.Context, orderGroupID, productID string, shipping ShippingUpdate, expectedVersion int) error
	MarkGroupPaid(ctx context.Context, orderGroupID string) error
	Deactivate(ctx context.Context, orderGroupID, productID string, expectedVersion int) error
}

type ShippingUpdate struct {
	Provider    string
	AWB         string
	TrackingURL string
	Status      string
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

// Create inserts the record only if nothing exists at its composite key,
// mirroring a conditional put. RowsAffected == 0 means the key was taken.
func (r *orderRepoImpl) Create(ctx context.Context, item *model.OrderItem) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderExists
	}
	return nil
}

func (r *orderRepoImpl) FindByKey(ctx context.Context, orderGroupID, productID string) (*model.OrderItem, error) {
	var item model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_group_id = ? AND product_id = ?", orderGroupID, productID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderRepoImpl) ListByGroup(ctx context.Context, orderGroupID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_group_id = ?", orderGroupID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Limit(100).
		Find(&items).Error

	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepoImpl) ListBySeller(ctx context.Context, sellerID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND is_active = ?", sellerID, true).
		Order("created_at DESC").
		Limit(100).
		Find(&items).Error

	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, orderGroupID, productID, status string, expectedVersion int) error {
	return r.guardedUpdate(ctx, orderGroupID, productID, expectedVersion, map[string]interface{}{
		"status": status,
	})
}

func (r *orderRepoImpl) UpdateShipping(ctx context.Context, orderGroupID, productID string, shipping ShippingUpdate, expectedVersion int) error {
	return r.guardedUpdate(ctx, orderGroupID, productID, expectedVersion, map[string]interface{}{
		"shipping_provider": shipping.Provider,
		"shipping_awb":      shipping.AWB,
		"tracking_url":      shipping.TrackingURL,
		"shipping_status":   shipping.Status,
	})
}

func (r *orderRepoImpl) Deactivate(ctx context.Context, orderGroupID, productID string, expectedVersion int) error {
	return r.guardedUpdate(ctx, orderGroupID, productID, expectedVersion, map[string]interface{}{
		"is_active": false,
		"status":    model.OrderStatusCancelled,
	})
}

// guardedUpdate applies updates only when the caller's version is current,
// bumping the counter so concurrent mutators are detected.
func (r *orderRepoImpl) guardedUpdate(ctx context.Context, orderGroupID, productID string, expectedVersion int, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("order_group_id = ? AND product_id = ? AND version = ?",
			orderGroupID, productID, expectedVersion).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
			Where("order_group_id = ? AND product_id = ?", orderGroupID, productID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOrderNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// MarkGroupPaid flips paymentStatus for every item of a group, called when
// the payment reconciler confirms the payment.
func (r *orderRepoImpl) MarkGroupPaid(ctx context.Context, orderGroupID string) error {
	return r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("order_group_id = ?", orderGroupID).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now(),
		}).Error
}
