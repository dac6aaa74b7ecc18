package dto

import "marketplace-backend/internal/model"

type VerifyPaymentRequest struct {
	ProviderOrderID   string `json:"provider_order_id"`
	ProviderPaymentID string `json:"provider_payment_id"`
	ClientSignature   string `json:"client_signature"`
	OrderGroupID      string `json:"order_group_id"`
}

type PaymentFailureRequest struct {
	OrderGroupID string `json:"order_group_id"`
	Reason       string `json:"reason"`
}

type UpdateStatusRequest struct {
	OrderGroupID string `json:"order_group_id"`
	ProductID    string `json:"product_id"`
	Status       string `json:"status"`
}

type ShippingUpdateRequest struct {
	OrderGroupID string `json:"order_group_id"`
	ProductID    string `json:"product_id"`
	Provider     string `json:"provider"`
	AWB          string `json:"awb"`
	TrackingURL  string `json:"tracking_url"`
	Status       string `json:"status"`
}

type OrdersResponse struct {
	Orders []*model.OrderItem `json:"orders"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
