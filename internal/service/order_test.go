package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vapestore/storefront-api/internal/model"
)

func TestOrderService_UpdateStatus(t *testing.T) {
	repo := newMockOrderRepo()
	order := pendingOrder(repo)
	svc := NewOrderService(repo)

	err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, order.Status)
}

func TestOrderService_UpdateStatus_InvalidStatus(t *testing.T) {
	repo := newMockOrderRepo()
	order := pendingOrder(repo)
	svc := NewOrderService(repo)

	err := svc.UpdateStatus(context.Background(), order.ID, "teleported")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, model.OrderStatusPending, order.Status)
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())
	err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListItems(t *testing.T) {
	repo := newMockOrderRepo()
	order := pendingOrder(repo)
	repo.items[order.ID] = []model.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductName: "Mango Ice", Quantity: 2},
	}
	svc := NewOrderService(repo)

	items, err := svc.ListItems(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mango Ice", items[0].ProductName)
}

func TestOrderService_ListItems_OrderNotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())
	_, err := svc.ListItems(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
