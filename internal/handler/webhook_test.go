package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-backend/internal/model"
	"marketplace-backend/internal/notify"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"
	"marketplace-backend/internal/signature"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "whsec_handler_test"

func newTestHandler(t *testing.T) (*WebhookHandler, service.WebhookService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.OrderItem{}, &model.Payment{}, &model.WebhookEvent{}))

	svc := service.NewWebhookService(
		service.WebhookConfig{WebhookSecret: testSecret, FanOut: 2, Timeout: 5 * time.Second},
		service.NewExpander(nil, nil),
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewWebhookEventRepository(db),
		notify.NewHub(zap.NewNop()),
		zap.NewNop(),
	)
	return NewWebhookHandler(svc), svc
}

func postWebhook(t *testing.T, h *WebhookHandler, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/provider", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, sig)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleProviderWebhook(e.NewContext(req, rec)))
	return rec
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	h, _ := newTestHandler(t)

	body := []byte(`{"event":"payment.captured"}`)
	rec := postWebhook(t, h, body, "not-the-signature")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postWebhook(t, h, body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpointAcknowledgesIgnoredKinds(t *testing.T) {
	h, _ := newTestHandler(t)

	// The provider must not be made to retry events this pipeline ignores.
	body := []byte(`{"event":"refund.processed","payload":{"payment":{"entity":{"id":"pay_1","order_id":"grp-1"}}}}`)
	rec := postWebhook(t, h, body, signature.SignWebhook(body, testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String(), "webhook responses stay terse")
}

func TestWebhookEndpointMalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)

	body := []byte(`{"event": broken`)
	rec := postWebhook(t, h, body, signature.SignWebhook(body, testSecret))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpointAcknowledgesBusinessFailures(t *testing.T) {
	h, svc := newTestHandler(t)

	// Valid, signed delivery whose notes cannot produce a single order item:
	// materialization fails downstream but the provider still gets its 200.
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{` +
		`"id":"pay_1","order_id":"grp-1","amount":10000,` +
		`"notes":{"userId":"user-1","items":"not json"}}}}}`)
	rec := postWebhook(t, h, body, signature.SignWebhook(body, testSecret))
	svc.Drain()
	assert.Equal(t, http.StatusOK, rec.Code)
}
