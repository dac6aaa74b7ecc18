package handler

import (
	"errors"
	"io"
	"net/http"

	"marketplace-backend/internal/service"

	"github.com/labstack/echo/v4"
)

// SignatureHeader carries the provider's HMAC for the delivery.
const SignatureHeader = "X-Provider-Signature"

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleProviderWebhook accepts one delivery from the payment provider. The
// body is read raw, before any binding, because signature verification needs
// the exact bytes the provider signed. Response bodies stay terse: the
// provider only needs to know whether to retry, and per-item business
// failures are not its concern.
func (h *WebhookHandler) HandleProviderWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.webhookService.HandleWebhook(ctx, c.Request().Header.Get(SignatureHeader), body)
	switch {
	case err == nil:
		return c.NoContent(http.StatusOK)
	case errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrMalformedPayload):
		return c.NoContent(http.StatusBadRequest)
	default:
		c.Logger().Error(err)
		return c.NoContent(http.StatusInternalServerError)
	}
}
