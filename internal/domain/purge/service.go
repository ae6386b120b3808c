// Package purge implements cascading deletion: force-deleting a product,
// outlet, or warehouse unwinds all dependent inventory rows and running
// totals in one transaction. This is structural cleanup of current state,
// not a historical rewrite; committed revenue figures at company level
// stay as they were.
package purge

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/catalogs/outlet"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/domain/layaway"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/movement"
	"stockflow/internal/domain/sales"
	"stockflow/internal/domain/shipment"
	"stockflow/pkg/logger"
)

// Trail receives a record of each completed purge. Recording runs inside
// the purge transaction, so a rollback discards the record with the rest.
type Trail interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error
}

// Service performs cascading deletions.
type Service struct {
	ledger     ledger.Repository
	engine     *movement.Engine
	products   product.Repository
	warehouses warehouse.Repository
	outlets    outlet.Repository
	shipments  shipment.Repository
	sales      sales.Repository
	layaways   layaway.Repository
	txManager  tx.Manager
	trail      Trail
}

// NewService creates a new purge service.
func NewService(
	l ledger.Repository,
	engine *movement.Engine,
	products product.Repository,
	warehouses warehouse.Repository,
	outlets outlet.Repository,
	shipments shipment.Repository,
	salesRepo sales.Repository,
	layaways layaway.Repository,
	txManager tx.Manager,
) *Service {
	return &Service{
		ledger:     l,
		engine:     engine,
		products:   products,
		warehouses: warehouses,
		outlets:    outlets,
		shipments:  shipments,
		sales:      salesRepo,
		layaways:   layaways,
		txManager:  txManager,
	}
}

// SetTrail attaches an audit trail. Without one purges are not recorded.
func (s *Service) SetTrail(t Trail) {
	s.trail = t
}

func (s *Service) record(ctx context.Context, entityType string, entityID id.ID, details map[string]any) error {
	if s.trail == nil {
		return nil
	}
	return s.trail.RecordChange(ctx, entityType, entityID, "purge", details)
}

// ForceDeleteProduct removes a product and every trace of it: inventory
// rows at all warehouses and outlets, the company snapshot row, sale
// history, and its lines in any shipment. Aggregate stock counters drop by
// the holdings removed.
func (s *Service) ForceDeleteProduct(ctx context.Context, productID id.ID) error {
	var rowsPurged, salesDeleted, shipmentsTouched int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.ledger.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		var reserve types.Quantity
		cp, err := s.ledger.GetCompanyProduct(ctx, productID)
		if err == nil {
			reserve = cp.InTransit
		} else if !apperror.IsNotFound(err) {
			return err
		}

		warehouseRows, err := s.ledger.ListWarehouseItemsByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("list warehouse rows: %w", err)
		}
		for _, row := range warehouseRows {
			if err := s.engine.Apply(ctx, movement.Move{
				Kind:         movement.KindProductPurge,
				ProductID:    productID,
				Qty:          row.Qty,
				Revenue:      row.Revenue,
				RowInTransit: row.InTransit,
				SourceType:   entity.LocationWarehouse,
				SourceID:     row.WarehouseID,
			}); err != nil {
				return err
			}
		}

		outletRows, err := s.ledger.ListOutletItemsByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("list outlet rows: %w", err)
		}
		for _, row := range outletRows {
			if err := s.engine.Apply(ctx, movement.Move{
				Kind:       movement.KindProductPurge,
				ProductID:  productID,
				Qty:        row.Qty,
				Revenue:    row.Revenue,
				SourceType: entity.LocationOutlet,
				SourceID:   row.OutletID,
			}); err != nil {
				return err
			}
		}
		rowsPurged = len(warehouseRows) + len(outletRows)

		if err := s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
			TotalStock:    (p.Qty + reserve).Neg(),
			TotalProducts: -1,
			InTransit:     reserve.Neg(),
		}); err != nil {
			return err
		}
		if err := s.ledger.DeleteCompanyProduct(ctx, productID); err != nil {
			return err
		}
		if err := s.products.Delete(ctx, productID); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}

		salesDeleted, err = s.sales.DeleteByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("delete sale history: %w", err)
		}
		shipmentsTouched, err = s.shipments.StripProductLines(ctx, productID)
		if err != nil {
			return fmt.Errorf("strip shipment lines: %w", err)
		}
		return s.record(ctx, "product", productID, map[string]any{
			"sku":               p.SKU,
			"inventory_rows":    rowsPurged,
			"sales_deleted":     salesDeleted,
			"shipments_touched": shipmentsTouched,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product force-deleted",
		"id", productID,
		"inventory_rows", rowsPurged,
		"sales_deleted", salesDeleted,
		"shipments_touched", shipmentsTouched,
	)
	return nil
}

// DeleteOutlet removes an outlet: in-transit shipments destined to it are
// cancelled (stock returns to the source), its inventory rows and sale and
// layaway history are deleted, and parent counters decrement.
func (s *Service) DeleteOutlet(ctx context.Context, outletID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.outlets.GetByID(ctx, outletID)
		if err != nil {
			return err
		}
		if err := s.deleteOutletInTx(ctx, o); err != nil {
			return err
		}
		return s.record(ctx, "outlet", outletID, map[string]any{
			"name":         o.Name,
			"warehouse_id": o.WarehouseID,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "outlet deleted", "id", outletID)
	return nil
}

// DeleteWarehouse removes a warehouse and cascades over its outlets first,
// so outlet-bound shipments unwind into the warehouse rows before those
// rows are written off.
func (s *Service) DeleteWarehouse(ctx context.Context, warehouseID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.warehouses.GetByID(ctx, warehouseID); err != nil {
			return err
		}

		children, err := s.outlets.ListByWarehouse(ctx, warehouseID)
		if err != nil {
			return fmt.Errorf("list outlets: %w", err)
		}
		for i := range children {
			if err := s.deleteOutletInTx(ctx, &children[i]); err != nil {
				return err
			}
		}

		if err := s.cancelInboundShipments(ctx, warehouseID); err != nil {
			return err
		}

		rows, err := s.ledger.DeleteWarehouseItemsByWarehouse(ctx, warehouseID)
		if err != nil {
			return fmt.Errorf("delete warehouse rows: %w", err)
		}
		var removed types.Quantity
		for _, row := range rows {
			removed += row.Qty + row.InTransit
		}
		if err := s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
			TotalStock:      removed.Neg(),
			TotalWarehouses: -1,
		}); err != nil {
			return err
		}

		if _, err := s.shipments.DeleteByLocation(ctx, warehouseID); err != nil {
			return fmt.Errorf("delete shipments: %w", err)
		}
		if err := s.warehouses.Delete(ctx, warehouseID); err != nil {
			return err
		}
		return s.record(ctx, "warehouse", warehouseID, map[string]any{
			"outlets_cascaded": len(children),
			"stock_removed":    removed,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "warehouse deleted", "id", warehouseID)
	return nil
}

// deleteOutletInTx removes one outlet inside the caller's transaction.
func (s *Service) deleteOutletInTx(ctx context.Context, o *entity.Outlet) error {
	if err := s.cancelInboundShipments(ctx, o.ID); err != nil {
		return err
	}

	rows, err := s.ledger.DeleteOutletItemsByOutlet(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("delete outlet rows: %w", err)
	}
	var removed types.Quantity
	for _, row := range rows {
		removed += row.Qty
	}

	if err := s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
		TotalStock:   removed.Neg(),
		TotalOutlets: -1,
	}); err != nil {
		return err
	}
	if err := s.ledger.IncrementWarehouse(ctx, o.WarehouseID, ledger.WarehouseDelta{TotalOutlets: -1}); err != nil {
		return err
	}

	if _, err := s.sales.DeleteByOutlet(ctx, o.ID); err != nil {
		return fmt.Errorf("delete sale history: %w", err)
	}
	if _, err := s.layaways.DeleteByOutlet(ctx, o.ID); err != nil {
		return fmt.Errorf("delete layaways: %w", err)
	}
	if _, err := s.shipments.DeleteByLocation(ctx, o.ID); err != nil {
		return fmt.Errorf("delete shipments: %w", err)
	}
	return s.outlets.Delete(ctx, o.ID)
}

// cancelInboundShipments unwinds in-transit shipments destined to the
// location, returning their stock to the source. Shipments sourced at the
// location keep their reserve in rows that the caller writes off wholesale.
func (s *Service) cancelInboundShipments(ctx context.Context, locationID id.ID) error {
	active, err := s.shipments.ListActiveByLocation(ctx, locationID)
	if err != nil {
		return fmt.Errorf("list active shipments: %w", err)
	}
	for _, sh := range active {
		if sh.To.ID != locationID {
			continue
		}
		for _, l := range sh.Lines {
			if err := s.engine.Apply(ctx, movement.Move{
				Kind:       movement.KindShipmentCancel,
				ProductID:  l.ProductID,
				Qty:        l.Qty,
				SourceType: sh.From.Type,
				SourceID:   sh.From.ID,
			}); err != nil {
				return err
			}
		}
		if err := s.shipments.UpdateStatusIf(ctx, sh.ID, shipment.StatusInTransit, shipment.StatusCancelled); err != nil {
			return err
		}
	}
	return nil
}
