package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-backend/internal/model"
	"marketplace-backend/internal/notify"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/signature"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSignature rejects a delivery before any of its JSON is parsed.
	ErrInvalidSignature = errors.New("webhook signature mismatch")

	ErrMalformedPayload = errors.New("malformed webhook payload")
)

type WebhookService interface {
	// HandleWebhook authenticates and classifies one delivery. A nil return
	// means the delivery was acknowledged; materialization may still be in
	// flight when it returns, with the live notifier carrying the outcome.
	HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error

	// Drain blocks until all in-flight materializations finish.
	Drain()
}

type WebhookConfig struct {
	WebhookSecret string
	FanOut        int
	Timeout       time.Duration
}

type webhookServiceImpl struct {
	cfg       WebhookConfig
	expander  *Expander
	orderRepo repository.OrderRepository
	payments  repository.PaymentRepository
	events    repository.WebhookEventRepository
	notifier  notify.Notifier
	logger    *zap.Logger

	inflight sync.WaitGroup
}

func NewWebhookService(
	cfg WebhookConfig,
	expander *Expander,
	orderRepo repository.OrderRepository,
	payments repository.PaymentRepository,
	events repository.WebhookEventRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) WebhookService {
	if cfg.FanOut <= 0 {
		cfg.FanOut = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &webhookServiceImpl{
		cfg:       cfg,
		expander:  expander,
		orderRepo: orderRepo,
		payments:  payments,
		events:    events,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error {
	if !signature.VerifyWebhook(body, signatureHeader, s.cfg.WebhookSecret) {
		return ErrInvalidSignature
	}

	var event model.ProviderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if event.Event != model.EventPaymentCaptured {
		s.logger.Debug("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}

	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" {
		return fmt.Errorf("%w: captured payment without order id", ErrMalformedPayload)
	}

	// Exact retry of an already-completed delivery: acknowledge and stop.
	// The conditional writes below would reject every row anyway; this just
	// skips the re-expansion.
	processed, err := s.events.Exists(ctx, payment.ID)
	if err != nil {
		return fmt.Errorf("check processed events: %w", err)
	}
	if processed {
		s.logger.Info("duplicate webhook delivery acknowledged",
			zap.String("payment_id", payment.ID),
			zap.String("order_group_id", payment.OrderID))
		return nil
	}

	total := decimal.NewFromInt(payment.Amount).Div(decimal.NewFromInt(100))
	method := payment.Method
	if method == "" {
		method = "provider"
	}
	err = s.payments.Create(ctx, &model.Payment{
		OrderGroupID:  payment.OrderID,
		UserID:        payment.Notes.UserID,
		Status:        model.PaymentInitiated,
		TotalAmount:   total,
		PaymentMethod: method,
	})
	if err != nil && !errors.Is(err, repository.ErrPaymentExists) {
		return fmt.Errorf("record payment: %w", err)
	}

	s.notifier.Publish(ctx, payment.Notes.UserID, notify.Event{
		Type:         notify.EventOrderCreating,
		OrderGroupID: payment.OrderID,
	})

	// The provider gets its acknowledgment now; expansion and persistence
	// continue on their own clock with the terminal notifier event as the
	// completion signal.
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		s.materialize(bgCtx, &payment, total)
	}()

	return nil
}

func (s *webhookServiceImpl) Drain() {
	s.inflight.Wait()
}

// materialize fans the payment out into order records and reports exactly
// one terminal event. Already-written items survive a partial failure; there
// is no rollback.
func (s *webhookServiceImpl) materialize(ctx context.Context, payment *model.PaymentEntity, total decimal.Decimal) {
	userID := payment.Notes.UserID
	log := s.logger.With(
		zap.String("order_group_id", payment.OrderID),
		zap.String("payment_id", payment.ID),
		zap.String("user_id", userID),
	)

	items, itemErrs, err := s.expander.Expand(ctx, payment)
	if err != nil {
		log.Error("order expansion failed for whole group", zap.Error(err))
		s.notifier.Publish(ctx, userID, notify.Event{
			Type:    notify.EventOrderFailed,
			Message: "order could not be created from this payment",
		})
		return
	}
	for _, itemErr := range itemErrs {
		log.Warn("cart item dropped", zap.Int("index", itemErr.Index),
			zap.String("product_id", itemErr.ProductID),
			zap.String("reason", itemErr.Reason))
	}

	created, storeErrs := s.persistAll(ctx, items)
	for _, storeErr := range storeErrs {
		log.Error("order item write failed", zap.Int("index", storeErr.Index),
			zap.String("product_id", storeErr.ProductID),
			zap.String("reason", storeErr.Reason))
	}

	if created == 0 {
		s.notifier.Publish(ctx, userID, notify.Event{
			Type:         notify.EventOrderFailed,
			OrderGroupID: payment.OrderID,
			Message:      fmt.Sprintf("no order items could be created (%d item errors)", len(itemErrs)+len(storeErrs)),
		})
		return
	}

	if err := s.events.MarkProcessed(ctx, payment.ID, model.EventPaymentCaptured); err != nil {
		// Not fatal: a retry will re-run into the conditional writes.
		log.Warn("mark webhook processed", zap.Error(err))
	}

	log.Info("order group materialized",
		zap.Int("items_created", created),
		zap.Int("items_failed", len(itemErrs)+len(storeErrs)))

	s.notifier.Publish(ctx, userID, notify.Event{
		Type:         notify.EventOrderCreated,
		OrderGroupID: payment.OrderID,
		TotalAmount:  total.StringFixed(2),
	})
}

// persistAll writes every item concurrently under the fan-out cap, joining
// before the terminal event can fire. A duplicate-key rejection counts as
// created: that is the re-delivery no-op, not a failure.
func (s *webhookServiceImpl) persistAll(ctx context.Context, items []*model.OrderItem) (int, []ItemError) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []ItemError
	)
	sem := make(chan struct{}, s.cfg.FanOut)

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item *model.OrderItem) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.orderRepo.Create(ctx, item)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil, errors.Is(err, repository.ErrOrderExists):
				created++
			default:
				errs = append(errs, ItemError{
					Index:     i,
					ProductID: item.ProductID,
					Reason:    err.Error(),
				})
			}
		}(i, item)
	}

	wg.Wait()
	return created, errs
}
