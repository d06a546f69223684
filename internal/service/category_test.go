package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vapestore/storefront-api/internal/dto"
	"github.com/vapestore/storefront-api/internal/model"
)

type mockCategoryRepo struct {
	categories    map[uuid.UUID]*model.Category
	productCounts map[uuid.UUID]int
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		categories:    make(map[uuid.UUID]*model.Category),
		productCounts: make(map[uuid.UUID]int),
	}
}

func (m *mockCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	return m.categories[id], nil
}

func (m *mockCategoryRepo) Create(_ context.Context, category *model.Category) error {
	category.ID = uuid.New()
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepo) Update(_ context.Context, category *model.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) CountProducts(_ context.Context, id uuid.UUID) (int, error) {
	return m.productCounts[id], nil
}

func TestCategoryService_CreateAndList(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{
		Name:        "Disposables",
		Description: "Single use vapes",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	categories, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Disposables", categories[0].Name)
}

func TestCategoryService_Update_NotFound(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())
	_, err := svc.Update(context.Background(), uuid.New(), dto.UpdateCategoryRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_Delete_InUse(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewCategoryService(repo)

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Liquids"})
	require.NoError(t, err)
	repo.productCounts[created.ID] = 3

	err = svc.Delete(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrCategoryInUse)
	assert.Contains(t, repo.categories, created.ID, "category must survive a refused delete")
}

func TestCategoryService_Delete_Empty(t *testing.T) {
	repo := newMockCategoryRepo()
	svc := NewCategoryService(repo)

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Empty"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.NotContains(t, repo.categories, created.ID)
}

func TestCategoryService_Delete_NotFound(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo())
	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
