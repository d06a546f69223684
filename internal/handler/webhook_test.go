package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vapestore/storefront-api/internal/payment"
	"github.com/vapestore/storefront-api/internal/service"
)

type fakeProvider struct {
	event    *payment.Event
	parseErr error
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, _ payment.CheckoutSessionInput) (*payment.CheckoutSession, error) {
	return nil, nil
}

func (f *fakeProvider) ParseEvent(_ []byte, _ string) (*payment.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

func webhookRouter(provider payment.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewWebhookHandler(provider, service.NewWebhookService(nil, nil, nil, log), log)
	r := gin.New()
	r.POST("/api/webhook", h.Handle)
	return r
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	r := webhookRouter(&fakeProvider{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader("{}"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	r := webhookRouter(&fakeProvider{parseErr: errors.New("signature verification failed")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader("{}"))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_IgnoredEventAcknowledged(t *testing.T) {
	r := webhookRouter(&fakeProvider{event: &payment.Event{ID: "evt_1", Type: "customer.created"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader("{}"))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}
