package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Admin auth ---

type LoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Product ---

type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	ImageURL      string           `json:"image_url"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	StockQuantity int              `json:"stock_quantity" binding:"min=0"`
	IsActive      *bool            `json:"is_active"`
}

// Product updates are full replacements, same required fields as create.
type UpdateProductRequest = CreateProductRequest

type ListProductsRequest struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	SortBy   string `form:"sortBy"`
}

type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	CategoryName  string          `json:"category_name,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// --- Checkout ---

type CheckoutItem struct {
	ID          uuid.UUID       `json:"id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
}

type CustomerInfo struct {
	Email      string `json:"email" binding:"required,email"`
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
}

type CheckoutRequest struct {
	Items        []CheckoutItem `json:"items" binding:"dive"`
	CustomerInfo CustomerInfo   `json:"customerInfo"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// --- Orders (admin) ---

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID                 uuid.UUID       `json:"id"`
	OrderNumber        string          `json:"order_number"`
	CustomerEmail      string          `json:"customer_email"`
	CustomerFirstName  string          `json:"customer_first_name"`
	CustomerLastName   string          `json:"customer_last_name"`
	ShippingAddress    string          `json:"shipping_address"`
	ShippingCity       string          `json:"shipping_city"`
	ShippingPostalCode string          `json:"shipping_postal_code"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"payment_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type OrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// --- Stats ---

type MonthlyStat struct {
	Month   string          `json:"month"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TopProduct struct {
	Name      string          `json:"name"`
	TotalSold int             `json:"totalSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type StatsResponse struct {
	TotalProducts    int             `json:"totalProducts"`
	TotalCategories  int             `json:"totalCategories"`
	TotalOrders      int             `json:"totalOrders"`
	Revenue          decimal.Decimal `json:"revenue"`
	LowStockProducts int             `json:"lowStockProducts"`
	RecentOrders     int             `json:"recentOrders"`
	MonthlyStats     []MonthlyStat   `json:"monthlyStats"`
	TopProducts      []TopProduct    `json:"topProducts"`
}

// --- Upload ---

type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}
