package service

import (
	"context"
	"fmt"

	"github.com/vapestore/storefront-api/internal/dto"
	"github.com/vapestore/storefront-api/internal/repository"
)

const topProductsLimit = 5

// StatsService assembles the admin dashboard numbers.
type StatsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

func (s *StatsService) Dashboard(ctx context.Context) (*dto.StatsResponse, error) {
	totals, err := s.statsRepo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}
	monthly, err := s.statsRepo.Monthly(ctx)
	if err != nil {
		return nil, fmt.Errorf("load monthly stats: %w", err)
	}
	top, err := s.statsRepo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("load top products: %w", err)
	}

	resp := &dto.StatsResponse{
		TotalProducts:    totals.TotalProducts,
		TotalCategories:  totals.TotalCategories,
		TotalOrders:      totals.TotalOrders,
		Revenue:          totals.Revenue,
		LowStockProducts: totals.LowStockProducts,
		RecentOrders:     totals.RecentOrders,
		MonthlyStats:     make([]dto.MonthlyStat, 0, len(monthly)),
		TopProducts:      make([]dto.TopProduct, 0, len(top)),
	}
	for _, m := range monthly {
		resp.MonthlyStats = append(resp.MonthlyStats, dto.MonthlyStat{
			Month:   m.Month,
			Orders:  m.Orders,
			Revenue: m.Revenue,
		})
	}
	for _, t := range top {
		resp.TopProducts = append(resp.TopProducts, dto.TopProduct{
			Name:      t.Name,
			TotalSold: t.TotalSold,
			Revenue:   t.Revenue,
		})
	}
	return resp, nil
}
