// Package company manages the singleton company record. It is created once
// at bootstrap and never deleted; all of its counters are maintained by the
// movement engine.
package company

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/tx"
	"stockflow/pkg/logger"
)

// Repository defines company persistence.
type Repository interface {
	Create(ctx context.Context, c *entity.Company) error
	Get(ctx context.Context) (*entity.Company, error)
	Exists(ctx context.Context) (bool, error)

	// UpdateInfo updates descriptive fields only; counters belong to the
	// ledger primitives.
	UpdateInfo(ctx context.Context, c *entity.Company) error
}

// Service provides company operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new company service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// BootstrapInput describes the company created at first start.
type BootstrapInput struct {
	Name      string
	Location  string
	Address   string
	AdminID   string
	AdminName string
}

// EnsureCompany creates the company if none exists yet and returns it.
// The existence check and insert share one transaction, so concurrent
// bootstrap attempts cannot create a second row.
func (s *Service) EnsureCompany(ctx context.Context, in BootstrapInput) (*entity.Company, error) {
	var company *entity.Company
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx)
		if err != nil {
			return fmt.Errorf("check company: %w", err)
		}
		if exists {
			company, err = s.repo.Get(ctx)
			return err
		}

		if in.Name == "" {
			return apperror.NewValidation("company name is required")
		}
		company = &entity.Company{
			BaseEntity: entity.NewBaseEntity(),
			Name:       in.Name,
			Location:   in.Location,
			Address:    in.Address,
			AdminID:    in.AdminID,
			AdminName:  in.AdminName,
		}
		if err := s.repo.Create(ctx, company); err != nil {
			return fmt.Errorf("create company: %w", err)
		}
		logger.Info(ctx, "company created", "id", company.ID, "name", company.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// Get returns the company.
func (s *Service) Get(ctx context.Context) (*entity.Company, error) {
	return s.repo.Get(ctx)
}

// UpdateInput carries the editable descriptive fields.
type UpdateInput struct {
	Name     string
	Location string
	Address  string
}

// Update changes descriptive fields. Counters are not editable.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Company, error) {
	var company *entity.Company
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.repo.Get(ctx)
		if err != nil {
			return err
		}
		if in.Name != "" {
			company.Name = in.Name
		}
		if in.Location != "" {
			company.Location = in.Location
		}
		if in.Address != "" {
			company.Address = in.Address
		}
		company.Touch()
		return s.repo.UpdateInfo(ctx, company)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "company updated", "id", company.ID)
	return company, nil
}
