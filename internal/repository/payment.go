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
	ErrPaymentExists   = errors.New("payment already recorded")
	ErrPaymentNotFound = errors.New("payment not found")
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByGroup(ctx context.Context, orderGroupID string) (*model.Payment, error)
	MarkCompleted(ctx context.Context, orderGroupID, providerPaymentID string) error
	MarkFailed(ctx context.Context, orderGroupID, reason string) error
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

// Create records the payment once per group; a re-delivered webhook hits the
// existing row and gets ErrPaymentExists, which callers treat as a no-op.
func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.Payment) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(payment)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentExists
	}
	return nil
}

func (r *paymentRepoImpl) FindByGroup(ctx context.Context, orderGroupID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("order_group_id = ?", orderGroupID).
		First(&payment).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepoImpl) MarkCompleted(ctx context.Context, orderGroupID, providerPaymentID string) error {
	return r.flipStatus(ctx, orderGroupID, model.PaymentCompleted, map[string]interface{}{
		"status":              model.PaymentCompleted,
		"provider_payment_id": providerPaymentID,
		"updated_at":          time.Now(),
	})
}

func (r *paymentRepoImpl) MarkFailed(ctx context.Context, orderGroupID, reason string) error {
	return r.flipStatus(ctx, orderGroupID, model.PaymentFailed, map[string]interface{}{
		"status":         model.PaymentFailed,
		"failure_reason": reason,
		"updated_at":     time.Now(),
	})
}

// flipStatus moves a payment out of "initiated". A row already in the target
// state is left alone; a missing row is reported.
func (r *paymentRepoImpl) flipStatus(ctx context.Context, orderGroupID, target string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_group_id = ? AND status = ?", orderGroupID, model.PaymentInitiated).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		payment, err := r.FindByGroup(ctx, orderGroupID)
		if err != nil {
			return err
		}
		if payment.Status == target {
			return nil
		}
		return ErrPaymentNotFound
	}
	return nil
}
