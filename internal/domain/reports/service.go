package reports

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetCompanyOverview returns the company dashboard figures.
func (s *Service) GetCompanyOverview(ctx context.Context) (*CompanyOverview, error) {
	overview, err := s.repo.GetCompanyOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("get company overview: %w", err)
	}
	return overview, nil
}

// GetSalesSummary aggregates sales over a period.
func (s *Service) GetSalesSummary(ctx context.Context, filter SalesSummaryFilter) (*SalesSummary, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperror.NewValidation("from must be before to")
	}

	summary, err := s.repo.GetSalesSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get sales summary: %w", err)
	}
	return summary, nil
}

// GetWarehouseStock returns a warehouse's inventory rows with totals.
func (s *Service) GetWarehouseStock(ctx context.Context, filter WarehouseStockFilter) (*WarehouseStockReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetWarehouseStock(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get warehouse stock: %w", err)
	}
	return report, nil
}

// GetOutletOverview returns the per-outlet dashboard.
func (s *Service) GetOutletOverview(ctx context.Context, filter OutletOverviewFilter) (*OutletOverview, error) {
	if filter.Day.IsZero() {
		filter.Day = time.Now()
	}
	if filter.TopLimit <= 0 {
		filter.TopLimit = 5
	}
	if filter.TopLimit > 50 {
		filter.TopLimit = 50
	}

	overview, err := s.repo.GetOutletOverview(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get outlet overview: %w", err)
	}
	return overview, nil
}
