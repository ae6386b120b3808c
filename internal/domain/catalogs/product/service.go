// Package product manages the product catalog: creation, info edits with
// company snapshot sync, and restocks with an append-only audit log.
// Force deletion lives in the purge package.
package product

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/pkg/logger"
)

// Filter narrows product listings.
type Filter struct {
	SKU    *string
	Status *entity.StockStatus
	Limit  int
	Offset int
}

// Repository defines product persistence.
type Repository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, productID id.ID) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	UpdateInfo(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, productID id.ID) error
	List(ctx context.Context, f Filter) ([]entity.Product, error)

	CreateRestockLog(ctx context.Context, log *entity.RestockLog) error
	ListRestockLogs(ctx context.Context, productID id.ID, limit, offset int) ([]entity.RestockLog, error)
}

// Service provides product operations.
type Service struct {
	repo      Repository
	ledger    ledger.Repository
	txManager tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, l ledger.Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, ledger: l, txManager: txManager}
}

// CreateInput describes a new product. Qty is the initial company-held
// stock.
type CreateInput struct {
	SKU       string
	Name      string
	Qty       types.Quantity
	UnitPrice types.Money
}

// Create registers a product, its company snapshot row, and the company
// counters in one transaction. SKU must be unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Product, error) {
	if in.SKU == "" {
		return nil, apperror.NewValidation("sku is required")
	}
	if in.Name == "" {
		return nil, apperror.NewValidation("name is required")
	}
	if in.Qty.IsNegative() {
		return nil, apperror.NewValidation("qty must not be negative")
	}
	if in.UnitPrice.IsNegative() {
		return nil, apperror.NewValidation("unit_price must not be negative")
	}

	company, err := s.ledger.GetCompany(ctx)
	if err != nil {
		return nil, err
	}

	product := &entity.Product{
		BaseEntity: entity.NewBaseEntity(),
		SKU:        in.SKU,
		Name:       in.Name,
		Qty:        in.Qty,
		CompanyID:  company.ID,
		UnitPrice:  in.UnitPrice,
		Status:     entity.StatusForQty(in.Qty.Int64()),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.GetBySKU(ctx, in.SKU); err == nil && existing != nil {
			return apperror.NewDuplicate("product", "sku", in.SKU)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		if err := s.repo.Create(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if err := s.ledger.InsertCompanyProduct(ctx, entity.CompanyProduct{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Qty:       product.Qty,
		}); err != nil {
			return err
		}
		return s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
			TotalStock:    product.Qty,
			TotalProducts: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "id", product.ID, "sku", product.SKU, "qty", product.Qty)
	return product, nil
}

// UpdateInput carries editable product info. Quantity changes go through
// Restock, never through here.
type UpdateInput struct {
	Name      string
	UnitPrice *types.Money
}

// Update edits product info and keeps the company snapshot in sync.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*entity.Product, error) {
	var product *entity.Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if in.Name != "" {
			product.Name = in.Name
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return apperror.NewValidation("unit_price must not be negative")
			}
			product.UnitPrice = *in.UnitPrice
		}
		product.Touch()
		if err := s.repo.UpdateInfo(ctx, product); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return s.ledger.UpdateCompanyProductInfo(ctx, productID, product.Name, product.UnitPrice)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product updated", "id", productID)
	return product, nil
}

// RestockInput describes an inbound replenishment at company level.
type RestockInput struct {
	AddedQty      types.Quantity
	RestockedBy   string
	RestockedByID string
	Notes         string
}

// Restock adds company-held stock and appends an immutable restock log
// entry. The log is an audit trail; it participates in no invariant.
func (s *Service) Restock(ctx context.Context, productID id.ID, in RestockInput) (*entity.Product, error) {
	if !in.AddedQty.IsPositive() {
		return nil, apperror.NewValidation("added_qty must be positive")
	}

	var product *entity.Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.ledger.IncrementProductQty(ctx, productID, in.AddedQty); err != nil {
			return err
		}
		if err := s.ledger.IncrementCompanyProduct(ctx, productID, in.AddedQty, 0); err != nil {
			return err
		}
		if err := s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{TotalStock: in.AddedQty}); err != nil {
			return err
		}

		product.Qty += in.AddedQty
		product.Status = entity.StatusForQty(product.Qty.Int64())

		return s.repo.CreateRestockLog(ctx, &entity.RestockLog{
			ID:            id.New(),
			ProductID:     productID,
			ProductName:   product.Name,
			AddedQty:      in.AddedQty,
			RestockedBy:   in.RestockedBy,
			RestockedByID: in.RestockedByID,
			Date:          time.Now().UTC(),
			Notes:         in.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product restocked",
		"id", productID,
		"added_qty", in.AddedQty,
		"restocked_by", in.RestockedBy,
	)
	return product, nil
}

// GetByID retrieves one product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*entity.Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]entity.Product, error) {
	return s.repo.List(ctx, f)
}

// RestockHistory returns the restock log for one product, newest first.
func (s *Service) RestockHistory(ctx context.Context, productID id.ID, limit, offset int) ([]entity.RestockLog, error) {
	return s.repo.ListRestockLogs(ctx, productID, limit, offset)
}
