package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vapestore/storefront-api/internal/dto"
	"github.com/vapestore/storefront-api/internal/model"
	"github.com/vapestore/storefront-api/internal/payment"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	items  map[uuid.UUID][]model.OrderItem
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[uuid.UUID]*model.Order),
		items:  make(map[uuid.UUID][]model.OrderItem),
	}
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.Status = model.OrderStatusPending
	order.PaymentStatus = model.PaymentStatusPending
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	m.items[order.ID] = order.Items
	return nil
}

func (m *mockOrderRepo) SetStripeSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	if o, ok := m.orders[orderID]; ok {
		o.StripeSessionID = sessionID
	}
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (m *mockOrderRepo) ListItems(_ context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) ConfirmCheckout(_ context.Context, orderID uuid.UUID, paymentIntentID string) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusProcessing
	o.PaymentStatus = model.PaymentStatusPaid
	o.PaymentIntentID = paymentIntentID
	return true, nil
}

func (m *mockOrderRepo) FindIDByPaymentIntent(_ context.Context, paymentIntentID string) (*uuid.UUID, error) {
	for id, o := range m.orders {
		if o.PaymentIntentID == paymentIntentID {
			id := id
			return &id, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, paymentStatus string) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.PaymentStatus = paymentStatus
	return nil
}

func (m *mockOrderRepo) MarkPaymentFailed(_ context.Context, id uuid.UUID) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = model.OrderStatusCancelled
	o.PaymentStatus = model.PaymentStatusFailed
	return nil
}

type mockProvider struct {
	lastInput *payment.CheckoutSessionInput
	err       error
}

func (m *mockProvider) CreateCheckoutSession(_ context.Context, input payment.CheckoutSessionInput) (*payment.CheckoutSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastInput = &input
	return &payment.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.example.com/cs_test_123"}, nil
}

func (m *mockProvider) ParseEvent(_ []byte, _ string) (*payment.Event, error) {
	return nil, nil
}

func validCustomer() dto.CustomerInfo {
	return dto.CustomerInfo{
		Email:      "jane@example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
		Address:    "1 Main St",
		City:       "Berlin",
		PostalCode: "10115",
	}
}

func TestCheckoutService_Place_EmptyCart(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo, &mockProvider{}, "https://shop.example.com", decimal.NewFromFloat(4.99))

	_, err := svc.Place(context.Background(), dto.CheckoutRequest{CustomerInfo: validCustomer()})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, repo.orders)
}

func TestCheckoutService_Place_MissingCustomerInfo(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo, &mockProvider{}, "https://shop.example.com", decimal.NewFromFloat(4.99))

	info := validCustomer()
	info.PostalCode = ""
	_, err := svc.Place(context.Background(), dto.CheckoutRequest{
		Items: []dto.CheckoutItem{
			{ID: uuid.New(), Name: "Mango Ice", Price: decimal.NewFromFloat(10), Quantity: 1},
		},
		CustomerInfo: info,
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.orders)
}

func TestCheckoutService_Place_Totals(t *testing.T) {
	repo := newMockOrderRepo()
	provider := &mockProvider{}
	svc := NewCheckoutService(repo, provider, "https://shop.example.com", decimal.NewFromFloat(4.99))

	resp, err := svc.Place(context.Background(), dto.CheckoutRequest{
		Items: []dto.CheckoutItem{
			{ID: uuid.New(), Name: "Mango Ice", Price: decimal.NewFromFloat(10.00), Quantity: 2},
			{ID: uuid.New(), Name: "Cool Mint", Price: decimal.NewFromFloat(5.50), Quantity: 1},
		},
		CustomerInfo: validCustomer(),
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", resp.SessionID)

	require.Len(t, repo.orders, 1)
	var order *model.Order
	for _, o := range repo.orders {
		order = o
	}
	assert.True(t, order.Subtotal.Equal(decimal.NewFromFloat(25.50)), "subtotal %s", order.Subtotal)
	assert.True(t, order.Total.Equal(decimal.NewFromFloat(30.49)), "total %s", order.Total)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "cs_test_123", order.StripeSessionID)

	items := repo.items[order.ID]
	require.Len(t, items, 2)
	assert.True(t, items[0].Subtotal.Equal(decimal.NewFromFloat(20.00)))
	assert.True(t, items[1].Subtotal.Equal(decimal.NewFromFloat(5.50)))
}

func TestCheckoutService_Place_DuplicateItemsMerged(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo, &mockProvider{}, "https://shop.example.com", decimal.NewFromFloat(4.99))

	productID := uuid.New()
	_, err := svc.Place(context.Background(), dto.CheckoutRequest{
		Items: []dto.CheckoutItem{
			{ID: productID, Name: "Mango Ice", Price: decimal.NewFromFloat(10), Quantity: 1},
			{ID: productID, Name: "Mango Ice", Price: decimal.NewFromFloat(10), Quantity: 2},
		},
		CustomerInfo: validCustomer(),
	})
	require.NoError(t, err)

	for _, items := range repo.items {
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
	}
}

func TestCheckoutService_Place_SessionLineItems(t *testing.T) {
	repo := newMockOrderRepo()
	provider := &mockProvider{}
	svc := NewCheckoutService(repo, provider, "https://shop.example.com/", decimal.NewFromFloat(4.99))

	_, err := svc.Place(context.Background(), dto.CheckoutRequest{
		Items: []dto.CheckoutItem{
			{ID: uuid.New(), Name: "Mango Ice", Price: decimal.NewFromFloat(12.34), Quantity: 1, ImageURL: "/products/mango.png"},
		},
		CustomerInfo: validCustomer(),
	})
	require.NoError(t, err)

	require.NotNil(t, provider.lastInput)
	require.Len(t, provider.lastInput.LineItems, 2)

	line := provider.lastInput.LineItems[0]
	assert.Equal(t, int64(1234), line.UnitAmount)
	assert.Equal(t, "https://shop.example.com/products/mango.png", line.ImageURL)

	shipping := provider.lastInput.LineItems[1]
	assert.Equal(t, "Shipping", shipping.Name)
	assert.Equal(t, int64(499), shipping.UnitAmount)

	assert.Contains(t, provider.lastInput.SuccessURL, "{CHECKOUT_SESSION_ID}")
	assert.Equal(t, "jane@example.com", provider.lastInput.CustomerEmail)
}

func TestGenerateOrderNumber_Prefix(t *testing.T) {
	n := generateOrderNumber()
	assert.Regexp(t, `^VP\d+$`, n)
}
