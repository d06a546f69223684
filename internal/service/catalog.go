package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vapestore/storefront-api/internal/dto"
	"github.com/vapestore/storefront-api/internal/repository"
)

// CatalogService serves the public storefront reads: categories and active
// products with optional filter/search/sort.
type CatalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{categoryRepo: categoryRepo, productRepo: productRepo}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(&c))
	}
	return out, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, req dto.ListProductsRequest) ([]dto.ProductResponse, error) {
	// A malformed category id means "no filter", not an error.
	var categoryID *uuid.UUID
	if req.Category != "" {
		if id, err := uuid.Parse(req.Category); err == nil {
			categoryID = &id
		}
	}

	products, err := s.productRepo.ListPublic(ctx, categoryID, req.Search, req.SortBy)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(&p))
	}
	return out, nil
}
