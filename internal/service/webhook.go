package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/vapestore/storefront-api/internal/model"
	"github.com/vapestore/storefront-api/internal/payment"
	"github.com/vapestore/storefront-api/internal/repository"
)

const (
	// PaidOrdersQueue carries order-paid messages to the notification worker.
	PaidOrdersQueue = "orders.paid"

	webhookDedupTTL = 24 * time.Hour
)

// WebhookService applies payment-provider events to orders. Events arrive
// already signature-verified; redelivery of the same event must never apply
// twice, which is guaranteed by the pending-guard inside ConfirmCheckout and
// short-circuited earlier by a Redis event-id key.
type WebhookService struct {
	orderRepo   repository.OrderRepository
	redisClient *redis.Client
	amqpCh      *amqp.Channel
	log         *slog.Logger
}

func NewWebhookService(orderRepo repository.OrderRepository, redisClient *redis.Client, amqpCh *amqp.Channel, log *slog.Logger) *WebhookService {
	return &WebhookService{orderRepo: orderRepo, redisClient: redisClient, amqpCh: amqpCh, log: log}
}

func (s *WebhookService) Process(ctx context.Context, ev *payment.Event) error {
	if s.seen(ctx, ev.ID) {
		s.log.Info("webhook event already seen, skipping", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	var err error
	switch ev.Type {
	case payment.EventCheckoutCompleted:
		err = s.checkoutCompleted(ctx, ev)
	case payment.EventPaymentSucceeded:
		err = s.paymentStatusByIntent(ctx, ev.PaymentIntentID, model.PaymentStatusConfirmed)
	case payment.EventPaymentFailed:
		err = s.paymentFailed(ctx, ev.PaymentIntentID)
	case payment.EventChargeRefunded:
		err = s.paymentStatusByIntent(ctx, ev.PaymentIntentID, model.PaymentStatusRefunded)
	default:
		// Acknowledge anything we don't care about so the provider stops
		// retrying it.
		s.log.Info("ignoring webhook event", "type", ev.Type)
		return nil
	}
	if err != nil {
		return err
	}

	s.remember(ctx, ev.ID)
	return nil
}

func (s *WebhookService) checkoutCompleted(ctx context.Context, ev *payment.Event) error {
	if ev.OrderID == "" {
		s.log.Warn("checkout completed without order metadata", "event_id", ev.ID)
		return nil
	}
	orderID, err := uuid.Parse(ev.OrderID)
	if err != nil {
		s.log.Warn("checkout completed with bad order id", "event_id", ev.ID, "order_id", ev.OrderID)
		return nil
	}

	applied, err := s.orderRepo.ConfirmCheckout(ctx, orderID, ev.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("confirm checkout: %w", err)
	}
	if !applied {
		s.log.Info("order already paid, redelivery ignored", "order_id", orderID)
		return nil
	}
	s.log.Info("order paid", "order_id", orderID, "payment_intent", ev.PaymentIntentID)

	s.publishPaid(ctx, orderID)
	return nil
}

func (s *WebhookService) paymentStatusByIntent(ctx context.Context, paymentIntentID, status string) error {
	if paymentIntentID == "" {
		return nil
	}
	orderID, err := s.orderRepo.FindIDByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("find order: %w", err)
	}
	if orderID == nil {
		s.log.Warn("no order for payment intent", "payment_intent", paymentIntentID)
		return nil
	}
	if err := s.orderRepo.UpdatePaymentStatus(ctx, *orderID, status); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	s.log.Info("payment status updated", "order_id", *orderID, "payment_status", status)
	return nil
}

func (s *WebhookService) paymentFailed(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return nil
	}
	orderID, err := s.orderRepo.FindIDByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("find order: %w", err)
	}
	if orderID == nil {
		s.log.Warn("no order for payment intent", "payment_intent", paymentIntentID)
		return nil
	}
	if err := s.orderRepo.MarkPaymentFailed(ctx, *orderID); err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	s.log.Info("order cancelled after failed payment", "order_id", *orderID)
	return nil
}

// publishPaid hands the order to the notification worker. Best effort: a
// broker hiccup must not fail the webhook, the payment is already recorded.
func (s *WebhookService) publishPaid(ctx context.Context, orderID uuid.UUID) {
	if s.amqpCh == nil {
		return
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil || order == nil {
		s.log.Error("load paid order for publish", "order_id", orderID, "error", err)
		return
	}
	msg, _ := json.Marshal(model.OrderPaidMessage{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerFirstName + " " + order.CustomerLastName,
		Total:         order.Total,
	})
	err = s.amqpCh.PublishWithContext(ctx, "", PaidOrdersQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Error("publish paid order", "order_id", orderID, "error", err)
	}
}

func (s *WebhookService) seen(ctx context.Context, eventID string) bool {
	if s.redisClient == nil || eventID == "" {
		return false
	}
	n, err := s.redisClient.Exists(ctx, "webhook_event:"+eventID).Result()
	if err != nil {
		// Redis being down only costs the fast path; ConfirmCheckout's
		// pending-guard still keeps the handling idempotent.
		return false
	}
	return n > 0
}

func (s *WebhookService) remember(ctx context.Context, eventID string) {
	if s.redisClient == nil || eventID == "" {
		return
	}
	if err := s.redisClient.Set(ctx, "webhook_event:"+eventID, "1", webhookDedupTTL).Err(); err != nil {
		s.log.Error("set webhook dedup key", "event_id", eventID, "error", err)
	}
}
