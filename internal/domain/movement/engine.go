// Package movement applies one line item's quantity and revenue delta
// across every aggregate on its path. The topology is a closed enumeration
// of movement kinds with a single exhaustive dispatch site, so adding a
// kind forces a decision about every aggregate it touches.
package movement

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
)

// Kind is a tagged category of inventory-affecting operation with a fixed
// set of aggregate touches.
type Kind string

const (
	KindOutletSale         Kind = "outlet_sale"
	KindOutletSaleReversal Kind = "outlet_sale_reversal"
	KindShipmentDispatch   Kind = "shipment_dispatch"
	KindShipmentCancel     Kind = "shipment_cancel"
	KindShipmentReceive    Kind = "shipment_receive"
	KindProductPurge       Kind = "product_purge"
)

// Move describes one line item's worth of movement. Qty is always positive;
// the engine signs the deltas per kind. Revenue is the monetary effect of
// the line (sale amount for sale kinds, row revenue for purge kinds).
type Move struct {
	Kind      Kind
	ProductID id.ID
	Qty       types.Quantity
	Revenue   types.Money

	// Snapshot freezes product identity onto inventory rows created by
	// a receive upsert.
	Snapshot ledger.ItemSnapshot

	// Shipment and purge moves. SourceID/DestID are warehouse or outlet
	// IDs; they are ignored when the corresponding type is company.
	SourceType entity.LocationType
	SourceID   id.ID
	DestType   entity.LocationType
	DestID     id.ID

	// Sale moves: the selling outlet and its parent warehouse.
	OutletID    id.ID
	WarehouseID id.ID

	// Purge moves over a warehouse row also unwind its reserve.
	RowInTransit types.Quantity
}

// Engine applies Moves through ledger primitives. All write paths that
// mutate stock or revenue counters go through Apply; nothing else in the
// codebase increments these counters directly.
type Engine struct {
	ledger ledger.Repository
}

func NewEngine(l ledger.Repository) *Engine {
	return &Engine{ledger: l}
}

// Apply validates availability at the deducting aggregate, then applies
// every touched aggregate's delta in fixed order: inventory row first,
// then outlet/warehouse totals, then company totals. Callers run Apply
// inside one transaction; any error aborts the whole operation.
func (e *Engine) Apply(ctx context.Context, mv Move) error {
	if !mv.Qty.IsPositive() && mv.Kind != KindProductPurge {
		return apperror.NewValidation(fmt.Sprintf("movement qty must be positive, got %s", mv.Qty))
	}
	if mv.Revenue.IsNegative() {
		return apperror.NewValidation("movement revenue must not be negative")
	}

	switch mv.Kind {
	case KindOutletSale:
		return e.applyOutletSale(ctx, mv, false)
	case KindOutletSaleReversal:
		return e.applyOutletSale(ctx, mv, true)
	case KindShipmentDispatch:
		return e.applyDispatch(ctx, mv)
	case KindShipmentCancel:
		return e.applyCancel(ctx, mv)
	case KindShipmentReceive:
		return e.applyReceive(ctx, mv)
	case KindProductPurge:
		return e.applyPurge(ctx, mv)
	default:
		return apperror.NewInternal(fmt.Errorf("unknown movement kind %q", mv.Kind))
	}
}

// applyOutletSale deducts sold stock from the outlet row and propagates
// revenue up the chain. A reversal is the exact negation of a sale.
func (e *Engine) applyOutletSale(ctx context.Context, mv Move, reversal bool) error {
	qty, rev, sales := mv.Qty, mv.Revenue, types.Quantity(1)
	if reversal {
		qty, rev, sales = qty.Neg(), rev.Neg(), -1
	} else {
		row, err := e.ledger.GetOutletItemForUpdate(ctx, mv.OutletID, mv.ProductID)
		if err != nil {
			return err
		}
		if row.Qty < qty {
			return apperror.NewInsufficientStock(mv.ProductID.String(), qty, row.Qty)
		}
	}

	if err := e.ledger.IncrementOutletItem(ctx, mv.OutletID, mv.ProductID, ledger.ItemDelta{
		Qty:       qty.Neg(),
		TotalSold: qty,
		Revenue:   rev,
	}); err != nil {
		return err
	}
	if err := e.ledger.IncrementOutlet(ctx, mv.OutletID, ledger.OutletDelta{
		TotalStock: qty.Neg(),
		TotalSales: sales,
		Revenue:    rev,
	}); err != nil {
		return err
	}
	// Stock shipped straight from the company carries no provenance
	// warehouse; its revenue accrues at the outlet and company levels only.
	// When provenance is set the warehouse row must exist: the stock being
	// sold flowed through it.
	if !id.IsNil(mv.WarehouseID) {
		if err := e.ledger.IncrementWarehouseItem(ctx, mv.WarehouseID, mv.ProductID, ledger.ItemDelta{
			Revenue: rev,
		}); err != nil {
			return asConsistency(err, "warehouse inventory", mv.ProductID)
		}
		if err := e.ledger.IncrementWarehouse(ctx, mv.WarehouseID, ledger.WarehouseDelta{
			TotalRevenue: rev,
		}); err != nil {
			return err
		}
	}
	return e.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
		TotalStock:     qty.Neg(),
		TotalUnitsSold: qty,
		TotalRevenue:   rev,
	})
}

// applyDispatch deducts shipped stock at the source and reserves the same
// amount in the source's in-transit counter. The stock is in flight: not at
// the destination yet, not available for further dispatch.
func (e *Engine) applyDispatch(ctx context.Context, mv Move) error {
	switch mv.SourceType {
	case entity.LocationCompany:
		product, err := e.ledger.GetProductForUpdate(ctx, mv.ProductID)
		if err != nil {
			return err
		}
		if product.Qty < mv.Qty {
			return apperror.NewInsufficientStock(mv.ProductID.String(), mv.Qty, product.Qty)
		}
		if err := e.ledger.IncrementProductQty(ctx, mv.ProductID, mv.Qty.Neg()); err != nil {
			return err
		}
		if err := e.ledger.IncrementCompanyProduct(ctx, mv.ProductID, mv.Qty.Neg(), mv.Qty); err != nil {
			return err
		}
		return e.ledger.IncrementCompany(ctx, ledger.CompanyDelta{InTransit: mv.Qty})

	case entity.LocationWarehouse:
		row, err := e.ledger.GetWarehouseItemForUpdate(ctx, mv.SourceID, mv.ProductID)
		if err != nil {
			return err
		}
		if row.Qty < mv.Qty {
			return apperror.NewInsufficientStock(mv.ProductID.String(), mv.Qty, row.Qty)
		}
		if err := e.ledger.IncrementWarehouseItem(ctx, mv.SourceID, mv.ProductID, ledger.ItemDelta{
			Qty:       mv.Qty.Neg(),
			InTransit: mv.Qty,
		}); err != nil {
			return err
		}
		return e.ledger.IncrementWarehouse(ctx, mv.SourceID, ledger.WarehouseDelta{
			TotalStock: mv.Qty.Neg(),
		})

	default:
		return apperror.NewValidation(fmt.Sprintf("invalid shipment source type %q", mv.SourceType))
	}
}

// applyCancel returns dispatched stock to the source and releases the
// in-transit reserve. Covers both reject and cancel; the destination was
// never touched, so nothing unwinds there.
func (e *Engine) applyCancel(ctx context.Context, mv Move) error {
	switch mv.SourceType {
	case entity.LocationCompany:
		if err := e.ledger.IncrementProductQty(ctx, mv.ProductID, mv.Qty); err != nil {
			return err
		}
		if err := e.ledger.IncrementCompanyProduct(ctx, mv.ProductID, mv.Qty, mv.Qty.Neg()); err != nil {
			return err
		}
		return e.ledger.IncrementCompany(ctx, ledger.CompanyDelta{InTransit: mv.Qty.Neg()})

	case entity.LocationWarehouse:
		if err := e.ledger.IncrementWarehouseItem(ctx, mv.SourceID, mv.ProductID, ledger.ItemDelta{
			Qty:       mv.Qty,
			InTransit: mv.Qty.Neg(),
		}); err != nil {
			return asConsistency(err, "warehouse inventory", mv.ProductID)
		}
		return e.ledger.IncrementWarehouse(ctx, mv.SourceID, ledger.WarehouseDelta{
			TotalStock: mv.Qty,
		})

	default:
		return apperror.NewValidation(fmt.Sprintf("invalid shipment source type %q", mv.SourceType))
	}
}

// applyReceive upserts the destination inventory row, releases the source's
// in-transit reserve, and updates destination totals. The source's on-hand
// deduction already happened at dispatch; only the reservation unwinds here.
func (e *Engine) applyReceive(ctx context.Context, mv Move) error {
	var created bool
	switch mv.DestType {
	case entity.LocationWarehouse:
		var err error
		created, err = e.ledger.UpsertWarehouseItem(ctx, mv.DestID, mv.ProductID, mv.Snapshot, ledger.ItemDelta{
			Qty:           mv.Qty,
			TotalReceived: mv.Qty,
		})
		if err != nil {
			return err
		}
		delta := ledger.WarehouseDelta{TotalStock: mv.Qty}
		if created {
			delta.TotalProducts = 1
		}
		if err := e.ledger.IncrementWarehouse(ctx, mv.DestID, delta); err != nil {
			return err
		}

	case entity.LocationOutlet:
		var err error
		created, err = e.ledger.UpsertOutletItem(ctx, mv.DestID, mv.ProductID, mv.SourceID, mv.Snapshot, ledger.ItemDelta{
			Qty:           mv.Qty,
			TotalReceived: mv.Qty,
		})
		if err != nil {
			return err
		}
		delta := ledger.OutletDelta{TotalStock: mv.Qty}
		if created {
			delta.TotalProducts = 1
		}
		if err := e.ledger.IncrementOutlet(ctx, mv.DestID, delta); err != nil {
			return err
		}

	default:
		return apperror.NewValidation(fmt.Sprintf("invalid shipment destination type %q", mv.DestType))
	}

	switch mv.SourceType {
	case entity.LocationCompany:
		if err := e.ledger.IncrementCompanyProduct(ctx, mv.ProductID, 0, mv.Qty.Neg()); err != nil {
			return err
		}
		return e.ledger.IncrementCompany(ctx, ledger.CompanyDelta{InTransit: mv.Qty.Neg()})

	case entity.LocationWarehouse:
		if err := e.ledger.IncrementWarehouseItem(ctx, mv.SourceID, mv.ProductID, ledger.ItemDelta{
			InTransit:    mv.Qty.Neg(),
			TotalShipped: mv.Qty,
		}); err != nil {
			return asConsistency(err, "warehouse inventory", mv.ProductID)
		}
		return nil

	default:
		return apperror.NewValidation(fmt.Sprintf("invalid shipment source type %q", mv.SourceType))
	}
}

// applyPurge removes one inventory row during force-delete and decrements
// its parent's totals by the row's holdings. Company totalStock drops by the
// row's on-hand plus reserved quantity; past revenue figures at company
// level are left untouched (structural cleanup, not historical rewrite).
func (e *Engine) applyPurge(ctx context.Context, mv Move) error {
	switch mv.SourceType {
	case entity.LocationWarehouse:
		if err := e.ledger.DeleteWarehouseItem(ctx, mv.SourceID, mv.ProductID); err != nil {
			return err
		}
		if err := e.ledger.IncrementWarehouse(ctx, mv.SourceID, ledger.WarehouseDelta{
			TotalStock:    mv.Qty.Neg(),
			TotalProducts: -1,
			TotalRevenue:  mv.Revenue.Neg(),
		}); err != nil {
			return err
		}
		return e.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
			TotalStock: (mv.Qty + mv.RowInTransit).Neg(),
		})

	case entity.LocationOutlet:
		if err := e.ledger.DeleteOutletItem(ctx, mv.SourceID, mv.ProductID); err != nil {
			return err
		}
		if err := e.ledger.IncrementOutlet(ctx, mv.SourceID, ledger.OutletDelta{
			TotalStock:    mv.Qty.Neg(),
			TotalProducts: -1,
			Revenue:       mv.Revenue.Neg(),
		}); err != nil {
			return err
		}
		return e.ledger.IncrementCompany(ctx, ledger.CompanyDelta{
			TotalStock: mv.Qty.Neg(),
		})

	default:
		return apperror.NewValidation(fmt.Sprintf("invalid purge row type %q", mv.SourceType))
	}
}

// asConsistency remaps a missing aggregate that prior movements must have
// created into a consistency failure instead of a caller-facing not-found.
func asConsistency(err error, ent string, key id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewConsistency(ent, key)
	}
	return err
}
