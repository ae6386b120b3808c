package shipment

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/movement"
	"stockflow/pkg/logger"
)

// Directory resolves display names for shipment endpoints.
type Directory interface {
	WarehouseName(ctx context.Context, warehouseID id.ID) (string, error)
	OutletName(ctx context.Context, outletID id.ID) (string, error)
}

// Service provides shipment lifecycle operations. Every operation runs as
// one transaction: validation reads first, guarded status update, then
// movement application, so a failure anywhere rolls back everything.
type Service struct {
	repo      Repository
	ledger    ledger.Repository
	engine    *movement.Engine
	dir       Directory
	txManager tx.Manager
}

// NewService creates a new shipment service.
func NewService(repo Repository, l ledger.Repository, engine *movement.Engine, dir Directory, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    l,
		engine:    engine,
		dir:       dir,
		txManager: txManager,
	}
}

// LineInput is one requested product line. Snapshot fields are frozen from
// the source row at create time, never taken from the caller.
type LineInput struct {
	ProductID id.ID
	Qty       types.Quantity
}

// CreateInput describes a new shipment.
type CreateInput struct {
	FromType  entity.LocationType
	FromID    id.ID
	ToType    entity.LocationType
	ToID      id.ID
	Lines     []LineInput
	CreatedBy string
	Notes     string
}

// Create validates the request, deducts every line from the source, and
// reserves the same quantities in the source's in-transit counter. The
// shipment starts in_transit; the destination is untouched until receive.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Shipment, error) {
	sh := &Shipment{
		BaseEntity: entity.NewBaseEntity(),
		From:       Endpoint{Type: in.FromType, ID: in.FromID},
		To:         Endpoint{Type: in.ToType, ID: in.ToID},
		Status:     StatusInTransit,
		CreatedBy:  in.CreatedBy,
		Notes:      in.Notes,
	}
	for _, l := range in.Lines {
		sh.Lines = append(sh.Lines, Line{ProductID: l.ProductID, Qty: l.Qty})
	}
	if err := sh.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.resolveEndpointNames(ctx, sh); err != nil {
			return err
		}
		for i := range sh.Lines {
			if err := s.freezeLine(ctx, sh, &sh.Lines[i]); err != nil {
				return err
			}
		}
		for _, l := range sh.Lines {
			if err := s.engine.Apply(ctx, movement.Move{
				Kind:       movement.KindShipmentDispatch,
				ProductID:  l.ProductID,
				Qty:        l.Qty,
				SourceType: sh.From.Type,
				SourceID:   sh.From.ID,
				DestType:   sh.To.Type,
				DestID:     sh.To.ID,
			}); err != nil {
				return err
			}
		}
		if err := s.repo.Create(ctx, sh); err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		if err := s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{TotalShipments: 1}); err != nil {
			return err
		}
		if sh.From.Type == entity.LocationWarehouse {
			if err := s.ledger.IncrementWarehouse(ctx, sh.From.ID, ledger.WarehouseDelta{TotalShipments: 1}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shipment created",
		"id", sh.ID,
		"from", sh.From.Name,
		"to", sh.To.Name,
		"lines", len(sh.Lines),
		"total_qty", sh.TotalQty(),
	)
	return sh, nil
}

// Transition applies receive, reject, or cancel. The status update is an
// atomic conditional match on in_transit, so a concurrent double transition
// resolves to one success and one ALREADY_PROCESSED failure.
func (s *Service) Transition(ctx context.Context, shipmentID id.ID, action Action) (*Shipment, error) {
	target, err := action.Target()
	if err != nil {
		return nil, err
	}

	var sh *Shipment
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sh, err = s.repo.GetByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if sh.Status != StatusInTransit {
			return apperror.NewInvalidStateTransition("shipment", string(sh.Status), string(target))
		}
		if err := s.repo.UpdateStatusIf(ctx, shipmentID, StatusInTransit, target); err != nil {
			return err
		}

		for _, l := range sh.Lines {
			mv := movement.Move{
				ProductID:  l.ProductID,
				Qty:        l.Qty,
				SourceType: sh.From.Type,
				SourceID:   sh.From.ID,
				DestType:   sh.To.Type,
				DestID:     sh.To.ID,
				Snapshot: ledger.ItemSnapshot{
					SKU:       l.SKU,
					Name:      l.Name,
					UnitPrice: l.UnitPrice,
				},
			}
			if action == ActionReceive {
				mv.Kind = movement.KindShipmentReceive
			} else {
				mv.Kind = movement.KindShipmentCancel
			}
			if err := s.engine.Apply(ctx, mv); err != nil {
				return err
			}
		}
		sh.Status = target
		sh.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shipment transitioned",
		"id", shipmentID,
		"action", action,
		"status", sh.Status,
	)
	return sh, nil
}

// EditInput carries the administrative fields editable while in transit.
// Line quantities are fixed at create time and cannot be edited; resending
// requires cancelling and creating a new shipment.
type EditInput struct {
	ToType entity.LocationType
	ToID   id.ID
	Notes  string
}

// Edit redirects an in-transit shipment to a different destination and
// updates notes. Source and lines are immutable, so reservations stay
// consistent with shipment contents.
func (s *Service) Edit(ctx context.Context, shipmentID id.ID, in EditInput) (*Shipment, error) {
	var sh *Shipment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sh, err = s.repo.GetByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if sh.Status != StatusInTransit {
			return apperror.NewInvalidStateTransition("shipment", string(sh.Status), string(sh.Status))
		}

		to := Endpoint{Type: in.ToType, ID: in.ToID}
		if to.Type != entity.LocationWarehouse && to.Type != entity.LocationOutlet {
			return apperror.NewValidation(fmt.Sprintf("invalid destination type %q", to.Type))
		}
		if id.IsNil(to.ID) {
			return apperror.NewValidation("destination id is required")
		}
		if sh.From.Same(to) {
			return apperror.NewValidation("shipment source and destination must differ")
		}
		switch to.Type {
		case entity.LocationWarehouse:
			to.Name, err = s.dir.WarehouseName(ctx, to.ID)
		case entity.LocationOutlet:
			to.Name, err = s.dir.OutletName(ctx, to.ID)
		}
		if err != nil {
			return err
		}

		if err := s.repo.UpdateDestination(ctx, shipmentID, to, in.Notes); err != nil {
			return err
		}
		sh.To = to
		sh.Notes = in.Notes
		sh.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shipment edited", "id", shipmentID, "to", sh.To.Name)
	return sh, nil
}

// GetByID retrieves one shipment.
func (s *Service) GetByID(ctx context.Context, shipmentID id.ID) (*Shipment, error) {
	return s.repo.GetByID(ctx, shipmentID)
}

// List returns shipments matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Shipment, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) resolveEndpointNames(ctx context.Context, sh *Shipment) error {
	var err error
	switch sh.From.Type {
	case entity.LocationCompany:
		company, cerr := s.ledger.GetCompany(ctx)
		if cerr != nil {
			return cerr
		}
		sh.From.Name = company.Name
	case entity.LocationWarehouse:
		sh.From.Name, err = s.dir.WarehouseName(ctx, sh.From.ID)
		if err != nil {
			return err
		}
	}
	switch sh.To.Type {
	case entity.LocationWarehouse:
		sh.To.Name, err = s.dir.WarehouseName(ctx, sh.To.ID)
	case entity.LocationOutlet:
		sh.To.Name, err = s.dir.OutletName(ctx, sh.To.ID)
	}
	return err
}

// freezeLine snapshots sku, name, and unitPrice from the source row onto the
// line. Later product edits or deletes do not affect a shipment in flight.
func (s *Service) freezeLine(ctx context.Context, sh *Shipment, l *Line) error {
	switch sh.From.Type {
	case entity.LocationCompany:
		product, err := s.ledger.GetProductForUpdate(ctx, l.ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation(fmt.Sprintf("unknown product %s", l.ProductID))
			}
			return err
		}
		l.SKU, l.Name, l.UnitPrice = product.SKU, product.Name, product.UnitPrice
	case entity.LocationWarehouse:
		row, err := s.ledger.GetWarehouseItemForUpdate(ctx, sh.From.ID, l.ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation(fmt.Sprintf("product %s is not stocked at source warehouse", l.ProductID))
			}
			return err
		}
		l.SKU, l.Name, l.UnitPrice = row.SKU, row.Name, row.UnitPrice
	}
	return nil
}
