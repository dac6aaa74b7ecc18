package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-backend/internal/model"
	"marketplace-backend/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrNotOwner = errors.New("caller does not own this order")

	// ErrOrderShipped rejects a cancellation once the item left the seller.
	ErrOrderShipped = errors.New("order already shipped or delivered")

	ErrInvalidStatus = errors.New("invalid order status")
)

var sellerStatuses = map[string]bool{
	model.OrderStatusConfirmed: true,
	model.OrderStatusShipped:   true,
	model.OrderStatusDelivered: true,
	model.OrderStatusCancelled: true,
}

type OrderService interface {
	ListUserOrders(ctx context.Context, userID string) ([]*model.OrderItem, error)
	ListSellerOrders(ctx context.Context, sellerID string) ([]*model.OrderItem, error)
	GetGroup(ctx context.Context, userID, orderGroupID string) ([]*model.OrderItem, error)
	UpdateSellerStatus(ctx context.Context, sellerID, orderGroupID, productID, status string) error
	UpdateShipping(ctx context.Context, orderGroupID, productID string, shipping repository.ShippingUpdate) error
	CancelOrder(ctx context.Context, userID, orderGroupID string) error
}

type orderServiceImpl struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderServiceImpl{
		orders: orders,
		logger: logger,
	}
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string) ([]*model.OrderItem, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *orderServiceImpl) ListSellerOrders(ctx context.Context, sellerID string) ([]*model.OrderItem, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

func (s *orderServiceImpl) GetGroup(ctx context.Context, userID, orderGroupID string) ([]*model.OrderItem, error) {
	items, err := s.orders.ListByGroup(ctx, orderGroupID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrOrderNotFound
	}
	if items[0].UserID != userID {
		return nil, ErrNotOwner
	}
	return items, nil
}

// UpdateSellerStatus lets a seller move one of their items through the
// lifecycle. The version read here guards against a concurrent shipping
// webhook mutating the same record.
func (s *orderServiceImpl) UpdateSellerStatus(ctx context.Context, sellerID, orderGroupID, productID, status string) error {
	if !sellerStatuses[status] {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	item, err := s.orders.FindByKey(ctx, orderGroupID, productID)
	if err != nil {
		return err
	}
	if item.SellerID != sellerID {
		return ErrNotOwner
	}

	return s.orders.UpdateStatus(ctx, orderGroupID, productID, status, item.Version)
}

// UpdateShipping is the entry point for the shipping-carrier collaborator.
func (s *orderServiceImpl) UpdateShipping(ctx context.Context, orderGroupID, productID string, shipping repository.ShippingUpdate) error {
	item, err := s.orders.FindByKey(ctx, orderGroupID, productID)
	if err != nil {
		return err
	}
	return s.orders.UpdateShipping(ctx, orderGroupID, productID, shipping, item.Version)
}

// CancelOrder soft-deactivates every item of the group the caller owns,
// refused once any item has shipped.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, userID, orderGroupID string) error {
	items, err := s.GetGroup(ctx, userID, orderGroupID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Status == model.OrderStatusShipped || item.Status == model.OrderStatusDelivered {
			return ErrOrderShipped
		}
	}

	for _, item := range items {
		if err := s.orders.Deactivate(ctx, orderGroupID, item.ProductID, item.Version); err != nil {
			return fmt.Errorf("cancel item %s: %w", item.ProductID, err)
		}
	}

	s.logger.Info("order group cancelled",
		zap.String("order_group_id", orderGroupID),
		zap.String("user_id", userID),
		zap.Int("items", len(items)))
	return nil
}
