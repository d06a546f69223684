package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vapestore/storefront-api/internal/service"
)

func checkoutRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	// Requests below fail binding, so the service never reaches its deps.
	svc := service.NewCheckoutService(nil, nil, "https://shop.example.com", decimal.NewFromFloat(4.99))
	r := gin.New()
	r.POST("/api/checkout", NewCheckoutHandler(svc).Checkout)
	return r
}

func postCheckout(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutHandler_RejectsZeroQuantityItem(t *testing.T) {
	r := checkoutRouter()

	body := fmt.Sprintf(`{
		"items": [{"id": %q, "name": "Mango Ice", "price": "10.00", "quantity": 0}],
		"customerInfo": {"email": "jane@example.com", "firstName": "Jane", "lastName": "Doe",
			"address": "1 Main St", "city": "Berlin", "postalCode": "10115"}
	}`, uuid.New())

	w := postCheckout(r, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandler_RejectsItemWithoutName(t *testing.T) {
	r := checkoutRouter()

	body := fmt.Sprintf(`{
		"items": [{"id": %q, "price": "10.00", "quantity": 1}],
		"customerInfo": {"email": "jane@example.com", "firstName": "Jane", "lastName": "Doe",
			"address": "1 Main St", "city": "Berlin", "postalCode": "10115"}
	}`, uuid.New())

	w := postCheckout(r, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
