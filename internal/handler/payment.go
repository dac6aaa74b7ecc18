package handler

import (
	"errors"
	"net/http"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// VerifyPayment handles the client's payment confirmation. The signature is
// re-derived server-side; the client's word alone never completes a payment.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.paymentService.VerifyPayment(ctx, service.VerifyPaymentInput{
		ProviderOrderID:   req.ProviderOrderID,
		ProviderPaymentID: req.ProviderPaymentID,
		ClientSignature:   req.ClientSignature,
		OrderGroupID:      req.OrderGroupID,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "payment verified"})
	case errors.Is(err, service.ErrSignatureMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, "signature verification failed")
	case errors.Is(err, repository.ErrPaymentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	default:
		return err
	}
}

func (h *PaymentHandler) ReportFailure(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	var req dto.PaymentFailureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.paymentService.ReportFailure(ctx, userID, req.OrderGroupID, req.Reason)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "payment marked failed"})
}

func (h *PaymentHandler) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	payment, err := h.paymentService.GetPayment(ctx, userID, c.Param("groupId"))
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}
