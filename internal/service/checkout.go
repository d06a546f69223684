package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vapestore/storefront-api/internal/cart"
	"github.com/vapestore/storefront-api/internal/dto"
	"github.com/vapestore/storefront-api/internal/model"
	"github.com/vapestore/storefront-api/internal/payment"
	"github.com/vapestore/storefront-api/internal/repository"
)

var ErrEmptyCart = errors.New("cart is empty")

// CheckoutService turns a submitted cart into a pending order and a hosted
// payment session. Totals are always recomputed server-side from the line
// prices; the client's numbers are never trusted.
type CheckoutService struct {
	orderRepo    repository.OrderRepository
	provider     payment.Provider
	baseURL      string
	shippingCost decimal.Decimal
}

func NewCheckoutService(orderRepo repository.OrderRepository, provider payment.Provider, baseURL string, shippingCost decimal.Decimal) *CheckoutService {
	return &CheckoutService{
		orderRepo:    orderRepo,
		provider:     provider,
		baseURL:      strings.TrimRight(baseURL, "/"),
		shippingCost: shippingCost,
	}
}

func (s *CheckoutService) Place(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	c := cart.New()
	for _, it := range req.Items {
		c = c.Add(cart.Item{
			ProductID:   it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			ImageURL:    it.ImageURL,
			Quantity:    it.Quantity,
		})
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := validateCustomerInfo(req.CustomerInfo); err != nil {
		return nil, err
	}

	subtotal := c.Total
	total := subtotal.Add(s.shippingCost)

	order := &model.Order{
		OrderNumber:        generateOrderNumber(),
		CustomerEmail:      req.CustomerInfo.Email,
		CustomerFirstName:  req.CustomerInfo.FirstName,
		CustomerLastName:   req.CustomerInfo.LastName,
		ShippingAddress:    req.CustomerInfo.Address,
		ShippingCity:       req.CustomerInfo.City,
		ShippingPostalCode: req.CustomerInfo.PostalCode,
		Subtotal:           subtotal,
		ShippingCost:       s.shippingCost,
		Total:              total,
	}
	for _, it := range c.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.Name,
			ProductPrice: it.Price,
			Quantity:     it.Quantity,
			Subtotal:     it.Subtotal(),
		})
	}

	if err := s.orderRepo.CreateWithItems(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	lines := make([]payment.LineItem, 0, len(c.Items)+1)
	for _, it := range c.Items {
		description := it.Description
		if description == "" {
			description = it.Name
		}
		if len(description) > 255 {
			description = description[:255]
		}
		lines = append(lines, payment.LineItem{
			Name:        it.Name,
			Description: description,
			UnitAmount:  toMinorUnits(it.Price),
			Quantity:    int64(it.Quantity),
			ImageURL:    s.absoluteImageURL(it.ImageURL),
		})
	}
	lines = append(lines, payment.LineItem{
		Name:        "Shipping",
		Description: "Standard shipping",
		UnitAmount:  toMinorUnits(s.shippingCost),
		Quantity:    1,
	})

	sess, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutSessionInput{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		LineItems:     lines,
		SuccessURL:    s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.baseURL + "/checkout/cancel",
	})
	if err != nil {
		return nil, fmt.Errorf("create payment session: %w", err)
	}

	if err := s.orderRepo.SetStripeSession(ctx, order.ID, sess.ID); err != nil {
		return nil, fmt.Errorf("store session id: %w", err)
	}

	return &dto.CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

func validateCustomerInfo(info dto.CustomerInfo) error {
	if info.Email == "" || info.FirstName == "" || info.LastName == "" ||
		info.Address == "" || info.City == "" || info.PostalCode == "" {
		return ErrValidation
	}
	return nil
}

// generateOrderNumber builds a human-readable unique-ish number from the
// current time plus a random suffix. The UNIQUE constraint on order_number
// turns the (unlikely) collision into a loud failure instead of silent reuse.
func generateOrderNumber() string {
	return fmt.Sprintf("VP%d%03d", time.Now().UnixMilli(), rand.IntN(1000))
}

func toMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *CheckoutService) absoluteImageURL(image string) string {
	switch {
	case image == "" || strings.Contains(image, "placeholder"):
		return ""
	case strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://"):
		return image
	case strings.HasPrefix(image, "/"):
		return s.baseURL + image
	default:
		return s.baseURL + "/" + image
	}
}
