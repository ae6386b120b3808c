package purge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
)

// --- compact repository fakes; only the paths the purge engine uses ---

type fakeProducts struct {
	deleted []id.ID
}

func (f *fakeProducts) Create(ctx context.Context, p *entity.Product) error { return nil }
func (f *fakeProducts) GetByID(ctx context.Context, productID id.ID) (*entity.Product, error) {
	return nil, apperror.NewNotFound("product", productID)
}
func (f *fakeProducts) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return nil, apperror.NewNotFound("product", sku)
}
func (f *fakeProducts) UpdateInfo(ctx context.Context, p *entity.Product) error { return nil }
func (f *fakeProducts) Delete(ctx context.Context, productID id.ID) error {
	f.deleted = append(f.deleted, productID)
	return nil
}
func (f *fakeProducts) List(ctx context.Context, filter product.Filter) ([]entity.Product, error) {
	return nil, nil
}
func (f *fakeProducts) CreateRestockLog(ctx context.Context, log *entity.RestockLog) error {
	return nil
}
func (f *fakeProducts) ListRestockLogs(ctx context.Context, productID id.ID, limit, offset int) ([]entity.RestockLog, error) {
	return nil, nil
}

type fakeWarehouses struct {
	rows map[id.ID]*entity.Warehouse
}

func (f *fakeWarehouses) Create(ctx context.Context, w *entity.Warehouse) error { return nil }
func (f *fakeWarehouses) GetByID(ctx context.Context, warehouseID id.ID) (*entity.Warehouse, error) {
	w, ok := f.rows[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return w, nil
}
func (f *fakeWarehouses) UpdateInfo(ctx context.Context, w *entity.Warehouse) error { return nil }
func (f *fakeWarehouses) Delete(ctx context.Context, warehouseID id.ID) error {
	delete(f.rows, warehouseID)
	return nil
}
func (f *fakeWarehouses) List(ctx context.Context, filter warehouse.Filter) ([]entity.Warehouse, error) {
	return nil, nil
}

type fakeOutlets struct {
	rows map[id.ID]*entity.Outlet
}

func (f *fakeOutlets) Create(ctx context.Context, o *entity.Outlet) error { return nil }
func (f *fakeOutlets) GetByID(ctx context.Context, outletID id.ID) (*entity.Outlet, error) {
	o, ok := f.rows[outletID]
	if !ok {
		return nil, apperror.NewNotFound("outlet", outletID)
	}
	return o, nil
}
func (f *fakeOutlets) UpdateInfo(ctx context.Context, o *entity.Outlet) error { return nil }
func (f *fakeOutlets) Delete(ctx context.Context, outletID id.ID) error {
	delete(f.rows, outletID)
	return nil
}
func (f *fakeOutlets) List(ctx context.Context, filter outlet.Filter) ([]entity.Outlet, error) {
	return nil, nil
}
func (f *fakeOutlets) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]entity.Outlet, error) {
	var out []entity.Outlet
	for _, o := range f.rows {
		if o.WarehouseID == warehouseID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeShipments struct {
	rows map[id.ID]*shipment.Shipment
}

func (f *fakeShipments) Create(ctx context.Context, sh *shipment.Shipment) error {
	c := *sh
	f.rows[sh.ID] = &c
	return nil
}
func (f *fakeShipments) GetByID(ctx context.Context, shipmentID id.ID) (*shipment.Shipment, error) {
	sh, ok := f.rows[shipmentID]
	if !ok {
		return nil, apperror.NewNotFound("shipment", shipmentID)
	}
	return sh, nil
}
func (f *fakeShipments) List(ctx context.Context, filter shipment.Filter) ([]shipment.Shipment, error) {
	return nil, nil
}
func (f *fakeShipments) UpdateStatusIf(ctx context.Context, shipmentID id.ID, from, to shipment.Status) error {
	sh, ok := f.rows[shipmentID]
	if !ok {
		return apperror.NewNotFound("shipment", shipmentID)
	}
	if sh.Status != from {
		return apperror.NewAlreadyProcessed("shipment", shipmentID)
	}
	sh.Status = to
	return nil
}
func (f *fakeShipments) UpdateDestination(ctx context.Context, shipmentID id.ID, to shipment.Endpoint, notes string) error {
	return nil
}
func (f *fakeShipments) StripProductLines(ctx context.Context, productID id.ID) (int, error) {
	touched := 0
	for key, sh := range f.rows {
		var kept []shipment.Line
		for _, l := range sh.Lines {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		if len(kept) != len(sh.Lines) {
			touched++
			if len(kept) == 0 {
				delete(f.rows, key)
			} else {
				sh.Lines = kept
			}
		}
	}
	return touched, nil
}
func (f *fakeShipments) ListActiveByLocation(ctx context.Context, locationID id.ID) ([]shipment.Shipment, error) {
	var out []shipment.Shipment
	for _, sh := range f.rows {
		if sh.Status == shipment.StatusInTransit && (sh.From.ID == locationID || sh.To.ID == locationID) {
			out = append(out, *sh)
		}
	}
	return out, nil
}
func (f *fakeShipments) DeleteByLocation(ctx context.Context, locationID id.ID) (int, error) {
	deleted := 0
	for key, sh := range f.rows {
		if sh.From.ID == locationID || sh.To.ID == locationID {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeSales struct {
	rows map[id.ID]*sales.Sale
}

func (f *fakeSales) CreateBatch(ctx context.Context, batch []sales.Sale) error { return nil }
func (f *fakeSales) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return nil, apperror.NewNotFound("sale", saleID)
}
func (f *fakeSales) GetByTransaction(ctx context.Context, transactionID id.ID) ([]sales.Sale, error) {
	return nil, nil
}
func (f *fakeSales) List(ctx context.Context, filter sales.Filter) ([]sales.Sale, error) {
	return nil, nil
}
func (f *fakeSales) HasReversal(ctx context.Context, saleID id.ID) (bool, error) { return false, nil }
func (f *fakeSales) HasReversalsInTransaction(ctx context.Context, transactionID id.ID) (bool, error) {
	return false, nil
}
func (f *fakeSales) DeleteByTransaction(ctx context.Context, transactionID id.ID) (int, error) {
	return 0, nil
}
func (f *fakeSales) DeleteByProduct(ctx context.Context, productID id.ID) (int, error) {
	deleted := 0
	for key, s := range f.rows {
		if s.ProductID == productID {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}
func (f *fakeSales) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	deleted := 0
	for key, s := range f.rows {
		if s.OutletID == outletID {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeLayaways struct {
	rows map[id.ID]*layaway.Layaway
}

func (f *fakeLayaways) Create(ctx context.Context, l *layaway.Layaway) error { return nil }
func (f *fakeLayaways) GetByID(ctx context.Context, layawayID id.ID) (*layaway.Layaway, error) {
	return nil, apperror.NewNotFound("layaway", layawayID)
}
func (f *fakeLayaways) Update(ctx context.Context, l *layaway.Layaway) error { return nil }
func (f *fakeLayaways) List(ctx context.Context, filter layaway.Filter) ([]layaway.Layaway, error) {
	return nil, nil
}
func (f *fakeLayaways) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	deleted := 0
	for key, l := range f.rows {
		if l.OutletID == outletID {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

type env struct {
	mem        *ledger.Memory
	products   *fakeProducts
	warehouses *fakeWarehouses
	outlets    *fakeOutlets
	shipments  *fakeShipments
	sales      *fakeSales
	layaways   *fakeLayaways
	service    *Service

	productID   id.ID
	warehouseID id.ID
	outletID    id.ID
}

// newEnv seeds a chain mid-flow: 60 units at company, 20 at the warehouse,
// 15 at the outlet (5 were sold), company totals consistent with that.
func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		mem:         ledger.NewMemory(),
		products:    &fakeProducts{},
		warehouses:  &fakeWarehouses{rows: make(map[id.ID]*entity.Warehouse)},
		outlets:     &fakeOutlets{rows: make(map[id.ID]*entity.Outlet)},
		shipments:   &fakeShipments{rows: make(map[id.ID]*shipment.Shipment)},
		sales:       &fakeSales{rows: make(map[id.ID]*sales.Sale)},
		layaways:    &fakeLayaways{rows: make(map[id.ID]*layaway.Layaway)},
		productID:   id.New(),
		warehouseID: id.New(),
		outletID:    id.New(),
	}
	e.service = NewService(
		e.mem, movement.NewEngine(e.mem),
		e.products, e.warehouses, e.outlets,
		e.shipments, e.sales, e.layaways,
		tx.Nop{},
	)

	price := types.MustMoney("10")

	company := entity.Company{BaseEntity: entity.NewBaseEntity(), Name: "Acme"}
	company.TotalStock = 95
	company.TotalProducts = 1
	company.TotalWarehouses = 1
	company.TotalOutlets = 1
	company.TotalUnitsSold = 5
	company.TotalRevenue = types.MustMoney("50")
	e.mem.SeedCompany(company)

	p := entity.Product{BaseEntity: entity.NewBaseEntity(), SKU: "SKU-1", Name: "Widget", Qty: 60, UnitPrice: price, Status: entity.StockStatusIn}
	p.ID = e.productID
	e.mem.SeedProduct(p)
	e.mem.SeedCompanyProduct(entity.CompanyProduct{ProductID: e.productID, SKU: "SKU-1", Name: "Widget", UnitPrice: price, Qty: 60})

	w := entity.Warehouse{BaseEntity: entity.NewBaseEntity(), Name: "Main"}
	w.ID = e.warehouseID
	w.TotalStock = 20
	w.TotalProducts = 1
	w.TotalOutlets = 1
	w.TotalRevenue = types.MustMoney("50")
	e.mem.SeedWarehouse(w)
	e.warehouses.rows[e.warehouseID] = &w

	o := entity.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Downtown", WarehouseID: e.warehouseID}
	o.ID = e.outletID
	o.TotalStock = 15
	o.TotalProducts = 1
	o.Revenue = types.MustMoney("50")
	e.mem.SeedOutlet(o)
	e.outlets.rows[e.outletID] = &o

	e.mem.SeedWarehouseItem(entity.WarehouseItem{
		WarehouseID: e.warehouseID, ProductID: e.productID,
		SKU: "SKU-1", Name: "Widget", Qty: 20, UnitPrice: price,
		TotalShipped: 20, TotalReceived: 40, Revenue: types.MustMoney("50"),
	})
	e.mem.SeedOutletItem(entity.OutletItem{
		OutletID: e.outletID, ProductID: e.productID,
		SKU: "SKU-1", Name: "Widget", Qty: 15, UnitPrice: price,
		TotalReceived: 20, TotalSold: 5, Revenue: types.MustMoney("50"),
		WarehouseID: e.warehouseID,
	})

	return e
}

func TestForceDeleteProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sale := sales.Sale{BaseEntity: entity.NewBaseEntity(), ProductID: e.productID, OutletID: e.outletID}
	e.sales.rows[sale.ID] = &sale

	sh := shipment.Shipment{
		BaseEntity: entity.NewBaseEntity(),
		From:       shipment.Endpoint{Type: entity.LocationCompany, Name: "Acme"},
		To:         shipment.Endpoint{Type: entity.LocationWarehouse, ID: e.warehouseID, Name: "Main"},
		Lines:      []shipment.Line{{ProductID: e.productID, Qty: 5}},
		Status:     shipment.StatusReceived,
	}
	e.shipments.rows[sh.ID] = &sh

	require.NoError(t, e.service.ForceDeleteProduct(ctx, e.productID))

	_, ok := e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.False(t, ok)
	_, ok = e.mem.OutletItem(e.outletID, e.productID)
	assert.False(t, ok)
	_, ok = e.mem.CompanyProduct(e.productID)
	assert.False(t, ok)

	company := e.mem.Company()
	assert.Equal(t, types.Quantity(0), company.TotalStock, "all holdings removed")
	assert.Equal(t, 0, company.TotalProducts)

	w, _ := e.mem.Warehouse(e.warehouseID)
	assert.Equal(t, types.Quantity(0), w.TotalStock)
	assert.Equal(t, 0, w.TotalProducts)

	o, _ := e.mem.Outlet(e.outletID)
	assert.Equal(t, types.Quantity(0), o.TotalStock)

	assert.Contains(t, e.products.deleted, e.productID)
	assert.Empty(t, e.sales.rows, "sale history deleted")
	assert.Empty(t, e.shipments.rows, "single-line shipments removed with their last line")
}

func TestForceDeleteProductWithReserve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// An in-flight company-sourced shipment of 10 units: product stock
	// drops to 50 and the units sit in the company reserve.
	p, _ := e.mem.Product(e.productID)
	p.Qty = 50
	e.mem.SeedProduct(p)
	e.mem.SeedCompanyProduct(entity.CompanyProduct{
		ProductID: e.productID, SKU: "SKU-1", Name: "Widget",
		UnitPrice: types.MustMoney("10"), Qty: 50, InTransit: 10,
	})
	c := e.mem.Company()
	c.InTransit = 10
	e.mem.SeedCompany(c)

	require.NoError(t, e.service.ForceDeleteProduct(ctx, e.productID))

	company := e.mem.Company()
	assert.Equal(t, types.Quantity(0), company.TotalStock, "held and reserved units both written off")
	assert.Equal(t, types.Quantity(0), company.InTransit)
	assert.Equal(t, 0, company.TotalProducts)
}

func TestDeleteOutlet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// An in-transit shipment of 5 more units to the outlet.
	require.NoError(t, e.mem.IncrementWarehouseItem(ctx, e.warehouseID, e.productID, ledger.ItemDelta{Qty: -5, InTransit: 5}))
	require.NoError(t, e.mem.IncrementWarehouse(ctx, e.warehouseID, ledger.WarehouseDelta{TotalStock: -5}))
	sh := shipment.Shipment{
		BaseEntity: entity.NewBaseEntity(),
		From:       shipment.Endpoint{Type: entity.LocationWarehouse, ID: e.warehouseID, Name: "Main"},
		To:         shipment.Endpoint{Type: entity.LocationOutlet, ID: e.outletID, Name: "Downtown"},
		Lines:      []shipment.Line{{ProductID: e.productID, Qty: 5}},
		Status:     shipment.StatusInTransit,
	}
	e.shipments.rows[sh.ID] = &sh

	sale := sales.Sale{BaseEntity: entity.NewBaseEntity(), ProductID: e.productID, OutletID: e.outletID}
	e.sales.rows[sale.ID] = &sale

	require.NoError(t, e.service.DeleteOutlet(ctx, e.outletID))

	_, ok := e.outlets.rows[e.outletID]
	assert.False(t, ok)
	_, ok = e.mem.OutletItem(e.outletID, e.productID)
	assert.False(t, ok)

	// Cancelled inbound shipment returned its 5 units to the warehouse.
	item, _ := e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.Equal(t, types.Quantity(0), item.InTransit)

	company := e.mem.Company()
	assert.Equal(t, types.Quantity(80), company.TotalStock, "outlet holdings written off")
	assert.Equal(t, 0, company.TotalOutlets)

	w, _ := e.mem.Warehouse(e.warehouseID)
	assert.Equal(t, 0, w.TotalOutlets)

	assert.Empty(t, e.sales.rows)
	assert.Empty(t, e.shipments.rows)
}

func TestDeleteWarehouseCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.service.DeleteWarehouse(ctx, e.warehouseID))

	_, ok := e.warehouses.rows[e.warehouseID]
	assert.False(t, ok)
	_, ok = e.outlets.rows[e.outletID]
	assert.False(t, ok, "child outlets cascade")
	_, ok = e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.False(t, ok)

	company := e.mem.Company()
	assert.Equal(t, types.Quantity(60), company.TotalStock, "only company-held stock remains")
	assert.Equal(t, 0, company.TotalWarehouses)
	assert.Equal(t, 0, company.TotalOutlets)
}

func TestDeleteUnknownTargets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.True(t, apperror.IsNotFound(e.service.ForceDeleteProduct(ctx, id.New())))
	assert.True(t, apperror.IsNotFound(e.service.DeleteOutlet(ctx, id.New())))
	assert.True(t, apperror.IsNotFound(e.service.DeleteWarehouse(ctx, id.New())))
}

type recordingTrail struct {
	entityTypes []string
	entityIDs   []id.ID
	details     []map[string]any
}

func (r *recordingTrail) RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error {
	r.entityTypes = append(r.entityTypes, entityType)
	r.entityIDs = append(r.entityIDs, entityID)
	r.details = append(r.details, details)
	return nil
}

func TestPurgeRecordsTrail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	trail := &recordingTrail{}
	e.service.SetTrail(trail)

	require.NoError(t, e.service.ForceDeleteProduct(ctx, e.productID))

	require.Len(t, trail.entityTypes, 1)
	assert.Equal(t, "product", trail.entityTypes[0])
	assert.Equal(t, e.productID, trail.entityIDs[0])
	assert.Equal(t, "SKU-1", trail.details[0]["sku"])

	require.NoError(t, e.service.DeleteWarehouse(ctx, e.warehouseID))

	// Cascaded outlets are part of the warehouse record, not separate rows.
	require.Len(t, trail.entityTypes, 2)
	assert.Equal(t, "warehouse", trail.entityTypes[1])
	assert.Equal(t, 1, trail.details[1]["outlets_cascaded"])
}
