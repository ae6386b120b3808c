// Package outlet manages the outlet catalog: points of sale attached to a
// parent warehouse, staffed by reps. Deletion cascades through the purge
// package.
package outlet

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

// Filter narrows outlet listings.
type Filter struct {
	WarehouseID *id.ID
	RepID       *id.ID
	Limit       int
	Offset      int
}

// Repository defines outlet persistence.
type Repository interface {
	Create(ctx context.Context, o *entity.Outlet) error
	GetByID(ctx context.Context, outletID id.ID) (*entity.Outlet, error)
	UpdateInfo(ctx context.Context, o *entity.Outlet) error
	Delete(ctx context.Context, outletID id.ID) error
	List(ctx context.Context, f Filter) ([]entity.Outlet, error)
	ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]entity.Outlet, error)
}

// WarehouseDirectory resolves the parent warehouse.
type WarehouseDirectory interface {
	WarehouseName(ctx context.Context, warehouseID id.ID) (string, error)
}

// Service provides outlet operations.
type Service struct {
	repo       Repository
	ledger     ledger.Repository
	warehouses WarehouseDirectory
	txManager  tx.Manager
}

// NewService creates a new outlet service.
func NewService(repo Repository, l ledger.Repository, warehouses WarehouseDirectory, txManager tx.Manager) *Service {
	return &Service{
		repo:       repo,
		ledger:     l,
		warehouses: warehouses,
		txManager:  txManager,
	}
}

// CreateInput describes a new outlet.
type CreateInput struct {
	Name        string
	WarehouseID id.ID
	Location    string
	Address     string
	Phone       string
	RepIDs      []id.ID
}

// Create registers an outlet under its parent warehouse and bumps the
// company and warehouse counters.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Outlet, error) {
	if in.Name == "" {
		return nil, apperror.NewValidation("outlet name is required")
	}
	if id.IsNil(in.WarehouseID) {
		return nil, apperror.NewValidation("warehouse_id is required")
	}

	o := &entity.Outlet{
		BaseEntity:  entity.NewBaseEntity(),
		Name:        in.Name,
		WarehouseID: in.WarehouseID,
		Location:    in.Location,
		Address:     in.Address,
		Phone:       in.Phone,
		RepIDs:      in.RepIDs,
		Status:      "active",
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		name, err := s.warehouses.WarehouseName(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		o.WarehouseName = name

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create outlet: %w", err)
		}
		if err := s.ledger.IncrementWarehouse(ctx, in.WarehouseID, ledger.WarehouseDelta{TotalOutlets: 1}); err != nil {
			return err
		}
		return s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{TotalOutlets: 1})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "outlet created", "id", o.ID, "name", o.Name, "warehouse", o.WarehouseName)
	return o, nil
}

// UpdateInput carries editable outlet info.
type UpdateInput struct {
	Name     string
	Location string
	Address  string
	Phone    string
}

// Update edits descriptive fields.
func (s *Service) Update(ctx context.Context, outletID id.ID, in UpdateInput) (*entity.Outlet, error) {
	var o *entity.Outlet
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, outletID)
		if err != nil {
			return err
		}
		if in.Name != "" {
			o.Name = in.Name
		}
		if in.Location != "" {
			o.Location = in.Location
		}
		if in.Address != "" {
			o.Address = in.Address
		}
		if in.Phone != "" {
			o.Phone = in.Phone
		}
		o.Touch()
		return s.repo.UpdateInfo(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "outlet updated", "id", outletID)
	return o, nil
}

// AssignRep adds a rep to the outlet. Idempotent per rep.
func (s *Service) AssignRep(ctx context.Context, outletID, repID id.ID) (*entity.Outlet, error) {
	if id.IsNil(repID) {
		return nil, apperror.NewValidation("rep_id is required")
	}

	var o *entity.Outlet
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, outletID)
		if err != nil {
			return err
		}
		for _, existing := range o.RepIDs {
			if existing == repID {
				return nil
			}
		}
		o.RepIDs = append(o.RepIDs, repID)
		o.Touch()
		return s.repo.UpdateInfo(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rep assigned to outlet", "outlet_id", outletID, "rep_id", repID)
	return o, nil
}

// UnassignRep removes a rep from the outlet.
func (s *Service) UnassignRep(ctx context.Context, outletID, repID id.ID) (*entity.Outlet, error) {
	var o *entity.Outlet
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, outletID)
		if err != nil {
			return err
		}
		kept := o.RepIDs[:0]
		for _, existing := range o.RepIDs {
			if existing != repID {
				kept = append(kept, existing)
			}
		}
		o.RepIDs = kept
		o.Touch()
		return s.repo.UpdateInfo(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "rep unassigned from outlet", "outlet_id", outletID, "rep_id", repID)
	return o, nil
}

// GetByID retrieves one outlet.
func (s *Service) GetByID(ctx context.Context, outletID id.ID) (*entity.Outlet, error) {
	return s.repo.GetByID(ctx, outletID)
}

// List returns outlets matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]entity.Outlet, error) {
	return s.repo.List(ctx, f)
}

// OutletName resolves an outlet's display name.
func (s *Service) OutletName(ctx context.Context, outletID id.ID) (string, error) {
	o, err := s.repo.GetByID(ctx, outletID)
	if err != nil {
		return "", err
	}
	return o.Name, nil
}
