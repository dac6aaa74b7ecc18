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

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) GetUserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	orders, err := h.orderService.ListUserOrders(ctx, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OrdersResponse{Orders: orders})
}

func (h *OrderHandler) GetSellerOrders(c echo.Context) error {
	ctx := c.Request().Context()
	// Sellers authenticate with the same token scheme; their subject is the
	// seller id.
	sellerID := middleware.UserID(c)

	orders, err := h.orderService.ListSellerOrders(ctx, sellerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.OrdersResponse{Orders: orders})
}

func (h *OrderHandler) GetOrderGroup(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	orders, err := h.orderService.GetGroup(ctx, userID, c.Param("groupId"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.OrdersResponse{Orders: orders})
	case errors.Is(err, repository.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	default:
		return err
	}
}

func (h *OrderHandler) UpdateSellerStatus(c echo.Context) error {
	ctx := c.Request().Context()
	sellerID := middleware.UserID(c)

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.orderService.UpdateSellerStatus(ctx, sellerID, req.OrderGroupID, req.ProductID, req.Status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "status updated"})
	case errors.Is(err, repository.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	case errors.Is(err, service.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, "order was modified concurrently, retry")
	default:
		return err
	}
}

// UpdateShipping is called by the shipping collaborator once a label/AWB
// exists for an item.
func (h *OrderHandler) UpdateShipping(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ShippingUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.orderService.UpdateShipping(ctx, req.OrderGroupID, req.ProductID, repository.ShippingUpdate{
		Provider:    req.Provider,
		AWB:         req.AWB,
		TrackingURL: req.TrackingURL,
		Status:      req.Status,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "shipping updated"})
	case errors.Is(err, repository.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, "order was modified concurrently, retry")
	default:
		return err
	}
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	err := h.orderService.CancelOrder(ctx, userID, c.Param("groupId"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "order cancelled"})
	case errors.Is(err, repository.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	case errors.Is(err, service.ErrOrderShipped):
		return echo.NewHTTPError(http.StatusConflict, "order already shipped or delivered")
	default:
		return err
	}
}
