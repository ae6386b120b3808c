package movement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
)

type fixture struct {
	mem    *ledger.Memory
	engine *Engine

	productID   id.ID
	warehouseID id.ID
	outletID    id.ID
}

// newFixture seeds a company holding 100 units of one product priced at 10,
// an empty warehouse, and an outlet attached to that warehouse.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := ledger.NewMemory()
	f := &fixture{
		mem:         mem,
		engine:      NewEngine(mem),
		productID:   id.New(),
		warehouseID: id.New(),
		outletID:    id.New(),
	}

	price := types.MustMoney("10")

	company := entity.Company{BaseEntity: entity.NewBaseEntity(), Name: "Acme"}
	company.TotalStock = 100
	company.TotalProducts = 1
	mem.SeedCompany(company)

	product := entity.Product{BaseEntity: entity.NewBaseEntity(), SKU: "SKU-1", Name: "Widget", Qty: 100, UnitPrice: price, Status: entity.StockStatusIn}
	product.ID = f.productID
	mem.SeedProduct(product)
	mem.SeedCompanyProduct(entity.CompanyProduct{
		ProductID: f.productID,
		SKU:       "SKU-1",
		Name:      "Widget",
		UnitPrice: price,
		Qty:       100,
	})

	warehouse := entity.Warehouse{BaseEntity: entity.NewBaseEntity(), Name: "Main"}
	warehouse.ID = f.warehouseID
	mem.SeedWarehouse(warehouse)

	outlet := entity.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Downtown", WarehouseID: f.warehouseID}
	outlet.ID = f.outletID
	mem.SeedOutlet(outlet)

	return f
}

func (f *fixture) snapshot() ledger.ItemSnapshot {
	return ledger.ItemSnapshot{SKU: "SKU-1", Name: "Widget", UnitPrice: types.MustMoney("10")}
}

// dispatchAndReceive runs a full company->warehouse shipment of qty units.
func (f *fixture) shipToWarehouse(t *testing.T, qty types.Quantity) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        qty,
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationWarehouse,
		DestID:     f.warehouseID,
	}))
	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentReceive,
		ProductID:  f.productID,
		Qty:        qty,
		Snapshot:   f.snapshot(),
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationWarehouse,
		DestID:     f.warehouseID,
	}))
}

func (f *fixture) shipToOutlet(t *testing.T, qty types.Quantity) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        qty,
		SourceType: entity.LocationWarehouse,
		SourceID:   f.warehouseID,
		DestType:   entity.LocationOutlet,
		DestID:     f.outletID,
	}))
	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentReceive,
		ProductID:  f.productID,
		Qty:        qty,
		Snapshot:   f.snapshot(),
		SourceType: entity.LocationWarehouse,
		SourceID:   f.warehouseID,
		DestType:   entity.LocationOutlet,
		DestID:     f.outletID,
	}))
}

func TestDispatchFromCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        40,
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationWarehouse,
		DestID:     f.warehouseID,
	})
	require.NoError(t, err)

	product, ok := f.mem.Product(f.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(60), product.Qty)

	company := f.mem.Company()
	assert.Equal(t, types.Quantity(40), company.InTransit)
	assert.Equal(t, types.Quantity(100), company.TotalStock, "dispatch moves stock into reserve, total is unchanged")

	cp, ok := f.mem.CompanyProduct(f.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(60), cp.Qty)
	assert.Equal(t, types.Quantity(40), cp.InTransit)
}

func TestDispatchInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        150,
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationWarehouse,
		DestID:     f.warehouseID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	product, _ := f.mem.Product(f.productID)
	assert.Equal(t, types.Quantity(100), product.Qty, "failed dispatch must not touch stock")
	assert.Equal(t, types.Quantity(0), f.mem.Company().InTransit)
}

func TestReceiveAtWarehouse(t *testing.T) {
	f := newFixture(t)
	f.shipToWarehouse(t, 40)

	item, ok := f.mem.WarehouseItem(f.warehouseID, f.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(40), item.Qty)
	assert.Equal(t, types.Quantity(40), item.TotalReceived)
	assert.Equal(t, "SKU-1", item.SKU)

	warehouse, _ := f.mem.Warehouse(f.warehouseID)
	assert.Equal(t, types.Quantity(40), warehouse.TotalStock)
	assert.Equal(t, 1, warehouse.TotalProducts)

	company := f.mem.Company()
	assert.Equal(t, types.Quantity(0), company.InTransit)
	assert.Equal(t, types.Quantity(100), company.TotalStock)
}

func TestCancelReturnsStockToSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        25,
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationWarehouse,
		DestID:     f.warehouseID,
	}))
	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentCancel,
		ProductID:  f.productID,
		Qty:        25,
		SourceType: entity.LocationCompany,
	}))

	product, _ := f.mem.Product(f.productID)
	assert.Equal(t, types.Quantity(100), product.Qty)
	assert.Equal(t, types.Quantity(0), f.mem.Company().InTransit)

	_, ok := f.mem.WarehouseItem(f.warehouseID, f.productID)
	assert.False(t, ok, "cancelled shipment must not create a destination row")
}

func TestWarehouseToOutletFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.shipToWarehouse(t, 40)

	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        20,
		SourceType: entity.LocationWarehouse,
		SourceID:   f.warehouseID,
		DestType:   entity.LocationOutlet,
		DestID:     f.outletID,
	}))

	item, _ := f.mem.WarehouseItem(f.warehouseID, f.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.Equal(t, types.Quantity(20), item.InTransit)

	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentReceive,
		ProductID:  f.productID,
		Qty:        20,
		Snapshot:   f.snapshot(),
		SourceType: entity.LocationWarehouse,
		SourceID:   f.warehouseID,
		DestType:   entity.LocationOutlet,
		DestID:     f.outletID,
	}))

	item, _ = f.mem.WarehouseItem(f.warehouseID, f.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.Equal(t, types.Quantity(0), item.InTransit)
	assert.Equal(t, types.Quantity(20), item.TotalShipped)

	outletItem, ok := f.mem.OutletItem(f.outletID, f.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(20), outletItem.Qty)
	assert.Equal(t, f.warehouseID, outletItem.WarehouseID)

	outlet, _ := f.mem.Outlet(f.outletID)
	assert.Equal(t, types.Quantity(20), outlet.TotalStock)
	assert.Equal(t, 1, outlet.TotalProducts)

	warehouse, _ := f.mem.Warehouse(f.warehouseID)
	assert.Equal(t, types.Quantity(20), warehouse.TotalStock)
}

func TestStockConservation(t *testing.T) {
	f := newFixture(t)

	f.shipToWarehouse(t, 40)
	f.shipToOutlet(t, 20)

	product, _ := f.mem.Product(f.productID)
	warehouseItem, _ := f.mem.WarehouseItem(f.warehouseID, f.productID)
	outletItem, _ := f.mem.OutletItem(f.outletID, f.productID)
	company := f.mem.Company()

	total := product.Qty + warehouseItem.Qty + warehouseItem.InTransit + outletItem.Qty + company.InTransit
	assert.Equal(t, company.TotalStock, total, "stock is moved, never created or destroyed")
}

func TestOutletSaleAndReversalSymmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.shipToWarehouse(t, 40)
	f.shipToOutlet(t, 20)

	before := struct {
		item    entity.OutletItem
		outlet  entity.Outlet
		company entity.Company
	}{}
	before.item, _ = f.mem.OutletItem(f.outletID, f.productID)
	before.outlet, _ = f.mem.Outlet(f.outletID)
	before.company = f.mem.Company()

	sale := Move{
		Kind:        KindOutletSale,
		ProductID:   f.productID,
		Qty:         5,
		Revenue:     types.MustMoney("50"),
		OutletID:    f.outletID,
		WarehouseID: f.warehouseID,
	}
	require.NoError(t, f.engine.Apply(ctx, sale))

	item, _ := f.mem.OutletItem(f.outletID, f.productID)
	assert.Equal(t, types.Quantity(15), item.Qty)
	assert.Equal(t, types.Quantity(5), item.TotalSold)
	assert.Equal(t, "50", item.Revenue.String())

	outlet, _ := f.mem.Outlet(f.outletID)
	assert.Equal(t, "50", outlet.Revenue.String())
	assert.Equal(t, types.Quantity(1), outlet.TotalSales)

	company := f.mem.Company()
	assert.Equal(t, "50", company.TotalRevenue.String())
	assert.Equal(t, types.Quantity(5), company.TotalUnitsSold)
	assert.Equal(t, before.company.TotalStock-5, company.TotalStock)

	reversal := sale
	reversal.Kind = KindOutletSaleReversal
	require.NoError(t, f.engine.Apply(ctx, reversal))

	item, _ = f.mem.OutletItem(f.outletID, f.productID)
	assert.Equal(t, before.item.Qty, item.Qty)
	assert.Equal(t, before.item.TotalSold, item.TotalSold)
	assert.True(t, before.item.Revenue.Equal(item.Revenue))

	outlet, _ = f.mem.Outlet(f.outletID)
	assert.Equal(t, before.outlet.TotalSales, outlet.TotalSales)
	assert.True(t, before.outlet.Revenue.Equal(outlet.Revenue))

	company = f.mem.Company()
	assert.Equal(t, before.company.TotalStock, company.TotalStock)
	assert.Equal(t, before.company.TotalUnitsSold, company.TotalUnitsSold)
	assert.True(t, before.company.TotalRevenue.Equal(company.TotalRevenue))

	warehouse, _ := f.mem.Warehouse(f.warehouseID)
	assert.True(t, warehouse.TotalRevenue.IsZero())
}

func TestCompanyToOutletThenSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Ship straight from the company to the outlet, bypassing warehouses.
	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentDispatch,
		ProductID:  f.productID,
		Qty:        20,
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationOutlet,
		DestID:     f.outletID,
	}))
	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:       KindShipmentReceive,
		ProductID:  f.productID,
		Qty:        20,
		Snapshot:   f.snapshot(),
		SourceType: entity.LocationCompany,
		DestType:   entity.LocationOutlet,
		DestID:     f.outletID,
	}))

	item, ok := f.mem.OutletItem(f.outletID, f.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.True(t, id.IsNil(item.WarehouseID), "company-sourced rows have no provenance warehouse")

	sale := Move{
		Kind:        KindOutletSale,
		ProductID:   f.productID,
		Qty:         5,
		Revenue:     types.MustMoney("50"),
		OutletID:    f.outletID,
		WarehouseID: item.WarehouseID,
	}
	require.NoError(t, f.engine.Apply(ctx, sale))

	item, _ = f.mem.OutletItem(f.outletID, f.productID)
	assert.Equal(t, types.Quantity(15), item.Qty)
	assert.Equal(t, types.Quantity(5), item.TotalSold)

	company := f.mem.Company()
	assert.Equal(t, "50", company.TotalRevenue.String())
	assert.Equal(t, types.Quantity(95), company.TotalStock)

	warehouse, _ := f.mem.Warehouse(f.warehouseID)
	assert.True(t, warehouse.TotalRevenue.IsZero(), "no warehouse in the path, no warehouse revenue")

	reversal := sale
	reversal.Kind = KindOutletSaleReversal
	require.NoError(t, f.engine.Apply(ctx, reversal))

	item, _ = f.mem.OutletItem(f.outletID, f.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.True(t, f.mem.Company().TotalRevenue.IsZero())
}

func TestOutletSaleInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.shipToWarehouse(t, 40)
	f.shipToOutlet(t, 20)

	err := f.engine.Apply(ctx, Move{
		Kind:        KindOutletSale,
		ProductID:   f.productID,
		Qty:         21,
		Revenue:     types.MustMoney("210"),
		OutletID:    f.outletID,
		WarehouseID: f.warehouseID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	item, _ := f.mem.OutletItem(f.outletID, f.productID)
	assert.Equal(t, types.Quantity(20), item.Qty, "failed sale must leave stock untouched")
	assert.True(t, f.mem.Company().TotalRevenue.IsZero())
}

func TestReceiveUpsertIsIdempotentPerRow(t *testing.T) {
	f := newFixture(t)

	f.shipToWarehouse(t, 30)
	f.shipToWarehouse(t, 20)

	item, ok := f.mem.WarehouseItem(f.warehouseID, f.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(50), item.Qty)
	assert.Equal(t, types.Quantity(50), item.TotalReceived)

	warehouse, _ := f.mem.Warehouse(f.warehouseID)
	assert.Equal(t, 1, warehouse.TotalProducts, "second receive must reuse the existing row")
	assert.Equal(t, types.Quantity(50), warehouse.TotalStock)
}

func TestPurgeWarehouseRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.shipToWarehouse(t, 40)
	companyBefore := f.mem.Company()

	item, _ := f.mem.WarehouseItem(f.warehouseID, f.productID)
	require.NoError(t, f.engine.Apply(ctx, Move{
		Kind:         KindProductPurge,
		ProductID:    f.productID,
		Qty:          item.Qty,
		Revenue:      item.Revenue,
		RowInTransit: item.InTransit,
		SourceType:   entity.LocationWarehouse,
		SourceID:     f.warehouseID,
	}))

	_, ok := f.mem.WarehouseItem(f.warehouseID, f.productID)
	assert.False(t, ok)

	warehouse, _ := f.mem.Warehouse(f.warehouseID)
	assert.Equal(t, types.Quantity(0), warehouse.TotalStock)
	assert.Equal(t, 0, warehouse.TotalProducts)

	assert.Equal(t, companyBefore.TotalStock-40, f.mem.Company().TotalStock)
}

func TestUnknownKindRejected(t *testing.T) {
	f := newFixture(t)

	err := f.engine.Apply(context.Background(), Move{Kind: "teleport", ProductID: f.productID, Qty: 1})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
}
