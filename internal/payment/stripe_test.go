package payment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func rawEvent(t *testing.T, eventType string, object any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{
		ID:   "evt_123",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestMapEvent_CheckoutCompleted(t *testing.T) {
	ev := rawEvent(t, EventCheckoutCompleted, map[string]any{
		"id":             "cs_test_1",
		"metadata":       map[string]string{"order_id": "ord-1", "order_number": "VP1"},
		"payment_intent": "pi_123",
	})

	got, err := mapEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, got.Type)
	assert.Equal(t, "ord-1", got.OrderID)
	assert.Equal(t, "pi_123", got.PaymentIntentID)
}

func TestMapEvent_PaymentIntentEvents(t *testing.T) {
	for _, typ := range []string{EventPaymentSucceeded, EventPaymentFailed} {
		ev := rawEvent(t, typ, map[string]any{"id": "pi_456"})
		got, err := mapEvent(ev)
		require.NoError(t, err)
		assert.Equal(t, typ, got.Type)
		assert.Equal(t, "pi_456", got.PaymentIntentID)
		assert.Empty(t, got.OrderID)
	}
}

func TestMapEvent_ChargeRefunded(t *testing.T) {
	ev := rawEvent(t, EventChargeRefunded, map[string]any{
		"id":             "ch_1",
		"payment_intent": "pi_789",
	})
	got, err := mapEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, "pi_789", got.PaymentIntentID)
}

func TestMapEvent_UnknownTypePassesThrough(t *testing.T) {
	ev := rawEvent(t, "customer.created", map[string]any{"id": "cus_1"})
	got, err := mapEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", got.Type)
	assert.Empty(t, got.OrderID)
	assert.Empty(t, got.PaymentIntentID)
}

func TestMapEvent_MalformedPayload(t *testing.T) {
	ev := stripe.Event{
		ID:   "evt_bad",
		Type: stripe.EventType(EventCheckoutCompleted),
		Data: &stripe.EventData{Raw: []byte(`{`)},
	}
	_, err := mapEvent(ev)
	assert.Error(t, err)
}
