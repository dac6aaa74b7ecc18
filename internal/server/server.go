package server

import (
	"marketplace-backend/internal/handler"
	appmw "marketplace-backend/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	webhookHandler *handler.WebhookHandler
	paymentHandler *handler.PaymentHandler
	orderHandler   *handler.OrderHandler
	sseHandler     *handler.SSEHandler
	jwtSecret      string
}

func NewServer(
	webhookHandler *handler.WebhookHandler,
	paymentHandler *handler.PaymentHandler,
	orderHandler *handler.OrderHandler,
	sseHandler *handler.SSEHandler,
	jwtSecret string,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		webhookHandler: webhookHandler,
		paymentHandler: paymentHandler,
		orderHandler:   orderHandler,
		sseHandler:     sseHandler,
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- provider webhooks / callbacks --------
	// No auth and no body binding here; the raw bytes are the signature input.
	webhooks := api.Group("/webhooks")
	webhooks.POST("/provider", s.webhookHandler.HandleProviderWebhook)

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/verify", s.paymentHandler.VerifyPayment)
	payments.POST("/failed", s.paymentHandler.ReportFailure, appmw.Auth(s.jwtSecret))
	payments.GET("/:groupId", s.paymentHandler.GetPayment, appmw.Auth(s.jwtSecret))

	// -------- orders --------
	orders := api.Group("/orders", appmw.Auth(s.jwtSecret))
	orders.GET("", s.orderHandler.GetUserOrders)
	orders.GET("/stream", s.sseHandler.StreamOrderEvents)
	orders.GET("/:groupId", s.orderHandler.GetOrderGroup)
	orders.POST("/:groupId/cancel", s.orderHandler.CancelOrder)

	sellers := api.Group("/sellers", appmw.Auth(s.jwtSecret))
	sellers.GET("/orders", s.orderHandler.GetSellerOrders)
	sellers.PATCH("/orders/status", s.orderHandler.UpdateSellerStatus)

	// shipping collaborator callback
	api.PATCH("/shipping/orders", s.orderHandler.UpdateShipping)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
