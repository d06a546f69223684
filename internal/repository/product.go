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

type ProductRepository interface {
	ListPublic(ctx context.Context, categoryID *uuid.UUID, search, sortBy string) ([]model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `p.id, p.name, p.description, p.price, p.image_url, p.category_id,
	COALESCE(c.name, '') AS category_name, p.stock_quantity, p.is_active, p.created_at, p.updated_at`

// Sort keys the public catalog accepts; anything else falls back to name.
var productSorts = map[string]string{
	"name":       "LOWER(p.name) ASC",
	"price_asc":  "p.price ASC",
	"price_desc": "p.price DESC",
}

func (r *pgProductRepo) ListPublic(ctx context.Context, categoryID *uuid.UUID, search, sortBy string) ([]model.Product, error) {
	orderBy, ok := productSorts[sortBy]
	if !ok {
		orderBy = productSorts["name"]
	}

	query := fmt.Sprintf(`SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active
		  AND ($1::uuid IS NULL OR p.category_id = $1)
		  AND ($2 = '' OR p.name ILIKE '%%' || $2 || '%%')
		ORDER BY %s`, productColumns, orderBy)

	rows, err := r.pool.Query(ctx, query, categoryID, search)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *pgProductRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at DESC`, productColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productColumns)

	p := &model.Product{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CategoryID,
		&p.CategoryName, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, name, description, price, image_url, category_id, stock_quantity, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		product.ID, product.Name, product.Description, product.Price, product.ImageURL,
		product.CategoryID, product.StockQuantity, product.IsActive,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, image_url = $5,
			category_id = $6, stock_quantity = $7, is_active = $8, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		product.ID, product.Name, product.Description, product.Price, product.ImageURL,
		product.CategoryID, product.StockQuantity, product.IsActive,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CategoryID,
			&p.CategoryName, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
