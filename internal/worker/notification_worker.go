package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/vapestore/storefront-api/internal/model"
	"github.com/vapestore/storefront-api/internal/notifier"
	"github.com/vapestore/storefront-api/internal/service"
)

const (
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.paid.dlq"
	idempotencyTTL = 24 * time.Hour
)

// NotificationWorker consumes paid-order messages and sends the customer a
// confirmation email. Broker redelivery is absorbed by a Redis key per
// order, so a customer never gets the same confirmation twice.
type NotificationWorker struct {
	channel     *amqp.Channel
	notifier    notifier.Notifier
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewNotificationWorker(
	ch *amqp.Channel,
	n notifier.Notifier,
	redisClient *redis.Client,
	log *slog.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		channel:     ch,
		notifier:    n,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, service.PaidOrdersQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(service.PaidOrdersQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": service.PaidOrdersQueue,
	}); err != nil {
		return fmt.Errorf("declare paid orders queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(service.PaidOrdersQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Stop() { close(w.done) }

func (w *NotificationWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var paid model.OrderPaidMessage
	if err := json.Unmarshal(msg.Body, &paid); err != nil {
		w.log.Error("unmarshal paid order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", paid.OrderID, "order_number", paid.OrderNumber)

	idempotencyKey := "order_notified:" + paid.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("confirmation already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.notifier.OrderConfirmation(ctx, paid); err != nil {
		log.Error("send order confirmation failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order confirmation sent")
}
