package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vapestore/storefront-api/internal/payment"
	"github.com/vapestore/storefront-api/internal/service"
)

// Webhook payloads are small; anything beyond this is not a payment event.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment provider callbacks. The signature is
// verified before the payload is parsed or acted on; requests without a
// valid signature are rejected with 400 and never touch an order.
type WebhookHandler struct {
	provider       payment.Provider
	webhookService *service.WebhookService
	log            *slog.Logger
}

func NewWebhookHandler(provider payment.Provider, webhookService *service.WebhookService, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{provider: provider, webhookService: webhookService, log: log}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	ev, err := h.provider.ParseEvent(payload, signature)
	if err != nil {
		h.log.Warn("webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.webhookService.Process(c.Request.Context(), ev); err != nil {
		h.log.Error("webhook processing failed", "event_id", ev.ID, "type", ev.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
