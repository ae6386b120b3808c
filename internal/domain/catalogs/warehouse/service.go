// Package warehouse manages the warehouse catalog. Deletion cascades
// through the purge package.
package warehouse

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/ledger"
	"stockflow/pkg/logger"
)

// Filter narrows warehouse listings.
type Filter struct {
	Status *string
	Limit  int
	Offset int
}

// Repository defines warehouse persistence.
type Repository interface {
	Create(ctx context.Context, w *entity.Warehouse) error
	GetByID(ctx context.Context, warehouseID id.ID) (*entity.Warehouse, error)
	UpdateInfo(ctx context.Context, w *entity.Warehouse) error
	Delete(ctx context.Context, warehouseID id.ID) error
	List(ctx context.Context, f Filter) ([]entity.Warehouse, error)
}

// Service provides warehouse operations.
type Service struct {
	repo      Repository
	ledger    ledger.Repository
	txManager tx.Manager
}

// NewService creates a new warehouse service.
func NewService(repo Repository, l ledger.Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, ledger: l, txManager: txManager}
}

// CreateInput describes a new warehouse.
type CreateInput struct {
	Name        string
	Location    string
	Address     string
	ManagerID   string
	ManagerName string
}

// Create registers a warehouse and bumps the company counter.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Warehouse, error) {
	if in.Name == "" {
		return nil, apperror.NewValidation("warehouse name is required")
	}

	w := &entity.Warehouse{
		BaseEntity:  entity.NewBaseEntity(),
		Name:        in.Name,
		Location:    in.Location,
		Address:     in.Address,
		ManagerID:   in.ManagerID,
		ManagerName: in.ManagerName,
		Status:      "active",
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, w); err != nil {
			return fmt.Errorf("create warehouse: %w", err)
		}
		return s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{TotalWarehouses: 1})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse created", "id", w.ID, "name", w.Name)
	return w, nil
}

// UpdateInput carries editable warehouse info.
type UpdateInput struct {
	Name        string
	Location    string
	Address     string
	ManagerID   string
	ManagerName string
}

// Update edits descriptive fields. Counters belong to the ledger.
func (s *Service) Update(ctx context.Context, warehouseID id.ID, in UpdateInput) (*entity.Warehouse, error) {
	var w *entity.Warehouse
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.repo.GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if in.Name != "" {
			w.Name = in.Name
		}
		if in.Location != "" {
			w.Location = in.Location
		}
		if in.Address != "" {
			w.Address = in.Address
		}
		if in.ManagerID != "" {
			w.ManagerID = in.ManagerID
			w.ManagerName = in.ManagerName
		}
		w.Touch()
		return s.repo.UpdateInfo(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse updated", "id", warehouseID)
	return w, nil
}

// GetByID retrieves one warehouse.
func (s *Service) GetByID(ctx context.Context, warehouseID id.ID) (*entity.Warehouse, error) {
	return s.repo.GetByID(ctx, warehouseID)
}

// List returns warehouses matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]entity.Warehouse, error) {
	return s.repo.List(ctx, f)
}

// WarehouseName resolves a warehouse's display name.
func (s *Service) WarehouseName(ctx context.Context, warehouseID id.ID) (string, error) {
	w, err := s.repo.GetByID(ctx, warehouseID)
	if err != nil {
		return "", err
	}
	return w.Name, nil
}
