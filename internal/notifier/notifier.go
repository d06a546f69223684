// Package notifier sends customer-facing notifications for paid orders.
package notifier

import (
	"context"
	"log/slog"

	"github.com/vapestore/storefront-api/internal/model"
)

type Notifier interface {
	OrderConfirmation(ctx context.Context, msg model.OrderPaidMessage) error
}

// Noop is used when no email provider is configured; the order flow works
// the same, customers just get no mail.
type Noop struct {
	log *slog.Logger
}

func NewNoop(log *slog.Logger) *Noop {
	return &Noop{log: log}
}

func (n *Noop) OrderConfirmation(_ context.Context, msg model.OrderPaidMessage) error {
	n.log.Info("email disabled, skipping order confirmation", "order_number", msg.OrderNumber)
	return nil
}
