package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/signature"

	"go.uber.org/zap"
)

// ErrSignatureMismatch rejects a client-side payment confirmation whose
// signature does not match the independently recomputed one.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// VerifyPaymentInput is the client's assertion that a payment succeeded.
// It is advisory only; the webhook remains authoritative.
type VerifyPaymentInput struct {
	ProviderOrderID   string
	ProviderPaymentID string
	ClientSignature   string
	OrderGroupID      string
}

type PaymentService interface {
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) error
	ReportFailure(ctx context.Context, userID, orderGroupID, reason string) error
	GetPayment(ctx context.Context, userID, orderGroupID string) (*model.Payment, error)
}

type paymentServiceImpl struct {
	keySecret string
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	logger    *zap.Logger
}

func NewPaymentService(
	keySecret string,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		keySecret: keySecret,
		payments:  payments,
		orders:    orders,
		logger:    logger,
	}
}

// VerifyPayment re-derives the expected signature from the provider ids and
// only then flips the payment to completed and the group's items to paid.
// A mismatch leaves the payment in "initiated"; the webhook path, which is
// authoritative, is unaffected either way.
func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, input VerifyPaymentInput) error {
	if !signature.VerifyPayment(input.ProviderOrderID, input.ProviderPaymentID, input.ClientSignature, s.keySecret) {
		s.logger.Warn("client payment verification rejected",
			zap.String("order_group_id", input.OrderGroupID),
			zap.String("provider_order_id", input.ProviderOrderID))
		return ErrSignatureMismatch
	}

	orderGroupID := input.OrderGroupID
	if orderGroupID == "" {
		orderGroupID = input.ProviderOrderID
	}

	if err := s.payments.MarkCompleted(ctx, orderGroupID, input.ProviderPaymentID); err != nil {
		return fmt.Errorf("mark payment completed: %w", err)
	}
	if err := s.orders.MarkGroupPaid(ctx, orderGroupID); err != nil {
		return fmt.Errorf("mark order group paid: %w", err)
	}

	s.logger.Info("payment verified",
		zap.String("order_group_id", orderGroupID),
		zap.String("provider_payment_id", input.ProviderPaymentID))
	return nil
}

// ReportFailure records a checkout the client abandoned or the provider
// declined. Failure reports need no signature: they can only move a payment
// from initiated to failed, never complete one, and only for the caller's
// own payment.
func (s *paymentServiceImpl) ReportFailure(ctx context.Context, userID, orderGroupID, reason string) error {
	payment, err := s.payments.FindByGroup(ctx, orderGroupID)
	if err != nil {
		return err
	}
	if payment.UserID != userID {
		return repository.ErrPaymentNotFound
	}
	if payment.Status != model.PaymentInitiated {
		return nil
	}

	if err := s.payments.MarkFailed(ctx, orderGroupID, reason); err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	s.logger.Info("payment reported failed",
		zap.String("order_group_id", orderGroupID),
		zap.String("reason", reason))
	return nil
}

func (s *paymentServiceImpl) GetPayment(ctx context.Context, userID, orderGroupID string) (*model.Payment, error) {
	payment, err := s.payments.FindByGroup(ctx, orderGroupID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, repository.ErrPaymentNotFound
	}
	return payment, nil
}
