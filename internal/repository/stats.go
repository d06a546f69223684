package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StatsTotals struct {
	TotalProducts    int
	TotalCategories  int
	TotalOrders      int
	Revenue          decimal.Decimal
	LowStockProducts int
	RecentOrders     int
}

type MonthlyStatRow struct {
	Month   string
	Orders  int
	Revenue decimal.Decimal
}

type TopProductRow struct {
	Name      string
	TotalSold int
	Revenue   decimal.Decimal
}

type StatsRepository interface {
	Totals(ctx context.Context) (*StatsTotals, error)
	Monthly(ctx context.Context) ([]MonthlyStatRow, error)
	TopProducts(ctx context.Context, limit int) ([]TopProductRow, error)
}

type pgStatsRepo struct{ pool *pgxpool.Pool }

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &pgStatsRepo{pool: pool}
}

const lowStockThreshold = 10

func (r *pgStatsRepo) Totals(ctx context.Context) (*StatsTotals, error) {
	t := &StatsTotals{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE is_active),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'),
			(SELECT COUNT(*) FROM products WHERE stock_quantity < $1 AND is_active),
			(SELECT COUNT(*) FROM orders WHERE created_at >= NOW() - INTERVAL '7 days')
	`, lowStockThreshold).Scan(
		&t.TotalProducts, &t.TotalCategories, &t.TotalOrders,
		&t.Revenue, &t.LowStockProducts, &t.RecentOrders,
	)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}
	return t, nil
}

func (r *pgStatsRepo) Monthly(ctx context.Context) ([]MonthlyStatRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM') AS month,
		       COUNT(*) AS orders,
		       COALESCE(SUM(total), 0) AS revenue
		FROM orders
		WHERE created_at >= NOW() - INTERVAL '6 months'
		  AND status <> 'cancelled'
		GROUP BY to_char(created_at, 'YYYY-MM')
		ORDER BY month DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}
	defer rows.Close()

	var stats []MonthlyStatRow
	for rows.Next() {
		var s MonthlyStatRow
		if err := rows.Scan(&s.Month, &s.Orders, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan monthly stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *pgStatsRepo) TopProducts(ctx context.Context, limit int) ([]TopProductRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_name,
		       SUM(oi.quantity) AS total_sold,
		       COALESCE(SUM(oi.subtotal), 0) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> 'cancelled'
		GROUP BY oi.product_id, oi.product_name
		ORDER BY total_sold DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var top []TopProductRow
	for rows.Next() {
		var p TopProductRow
		if err := rows.Scan(&p.Name, &p.TotalSold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		top = append(top, p)
	}
	return top, rows.Err()
}
