package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vapestore/storefront-api/internal/model"
)

type OrderRepository interface {
	// CreateWithItems persists the order header and all line items in one
	// transaction; either everything lands or nothing does.
	CreateWithItems(ctx context.Context, order *model.Order) error
	SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// ConfirmCheckout flips a pending order to processing/paid, records the
	// payment intent and decrements stock for every line item, all in one
	// transaction. Returns false when the order was already paid, in which
	// case nothing is changed - this is what makes webhook redelivery safe.
	ConfirmCheckout(ctx context.Context, orderID uuid.UUID, paymentIntentID string) (bool, error)
	FindIDByPaymentIntent(ctx context.Context, paymentIntentID string) (*uuid.UUID, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) error
	// MarkPaymentFailed cancels the order alongside recording the failure.
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, order_number, customer_email, customer_first_name, customer_last_name,
	shipping_address, shipping_city, shipping_postal_code, subtotal, shipping_cost, total,
	status, payment_status, stripe_session_id, payment_intent_id, created_at, updated_at`

func (r *pgOrderRepo) CreateWithItems(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	order.Status = model.OrderStatusPending
	order.PaymentStatus = model.PaymentStatusPending
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, customer_email, customer_first_name, customer_last_name,
			shipping_address, shipping_city, shipping_postal_code, subtotal, shipping_cost, total,
			status, payment_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.CustomerEmail, order.CustomerFirstName, order.CustomerLastName,
		order.ShippingAddress, order.ShippingCity, order.ShippingPostalCode,
		order.Subtotal, order.ShippingCost, order.Total, order.Status, order.PaymentStatus,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, product_price, quantity, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			order.Items[i].ID, order.Items[i].OrderID, order.Items[i].ProductID,
			order.Items[i].ProductName, order.Items[i].ProductPrice,
			order.Items[i].Quantity, order.Items[i].Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *pgOrderRepo) SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET stripe_session_id = $2, updated_at = NOW() WHERE id = $1`,
		orderID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("set stripe session: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	).Scan(
		&o.ID, &o.OrderNumber, &o.CustomerEmail, &o.CustomerFirstName, &o.CustomerLastName,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingPostalCode,
		&o.Subtotal, &o.ShippingCost, &o.Total,
		&o.Status, &o.PaymentStatus, &o.StripeSessionID, &o.PaymentIntentID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepo) List(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.CustomerEmail, &o.CustomerFirstName, &o.CustomerLastName,
			&o.ShippingAddress, &o.ShippingCity, &o.ShippingPostalCode,
			&o.Subtotal, &o.ShippingCost, &o.Total,
			&o.Status, &o.PaymentStatus, &o.StripeSessionID, &o.PaymentIntentID,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, product_price, quantity, subtotal, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY created_at`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.ProductPrice, &it.Quantity, &it.Subtotal, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) ConfirmCheckout(ctx context.Context, orderID uuid.UUID, paymentIntentID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The payment_status guard is the idempotency mechanism: a redelivered
	// event matches zero rows and we bail before touching stock.
	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, payment_intent_id = $4, updated_at = NOW()
		 WHERE id = $1 AND payment_status = $5`,
		orderID, model.OrderStatusProcessing, model.PaymentStatusPaid,
		paymentIntentID, model.PaymentStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("load order items: %w", err)
	}
	type line struct {
		productID uuid.UUID
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("load order items: %w", err)
	}

	for _, l := range lines {
		_, err = tx.Exec(ctx,
			`UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW() WHERE id = $1`,
			l.productID, l.quantity,
		)
		if err != nil {
			return false, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (r *pgOrderRepo) FindIDByPaymentIntent(ctx context.Context, paymentIntentID string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM orders WHERE payment_intent_id = $1`, paymentIntentID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order by payment intent: %w", err)
	}
	return &id, nil
}

func (r *pgOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`, id, paymentStatus,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) MarkPaymentFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`,
		id, model.OrderStatusCancelled, model.PaymentStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return nil
}
