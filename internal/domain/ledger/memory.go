package ledger

import (
	"context"
	"sync"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// itemKey is the compound key for inventory rows.
type itemKey struct {
	parent  id.ID
	product id.ID
}

// Memory is an in-memory Repository used by tests and local demos.
// It mirrors the guarded-decrement semantics of the PostgreSQL
// implementation: decrements that would drive qty or in_transit negative
// fail with CONSISTENCY_ERROR, absent targets fail with NOT_FOUND.
type Memory struct {
	mu sync.Mutex

	company         *entity.Company
	companyProducts map[id.ID]*entity.CompanyProduct
	products        map[id.ID]*entity.Product
	warehouses      map[id.ID]*entity.Warehouse
	warehouseItems  map[itemKey]*entity.WarehouseItem
	outlets         map[id.ID]*entity.Outlet
	outletItems     map[itemKey]*entity.OutletItem
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		companyProducts: make(map[id.ID]*entity.CompanyProduct),
		products:        make(map[id.ID]*entity.Product),
		warehouses:      make(map[id.ID]*entity.Warehouse),
		warehouseItems:  make(map[itemKey]*entity.WarehouseItem),
		outlets:         make(map[id.ID]*entity.Outlet),
		outletItems:     make(map[itemKey]*entity.OutletItem),
	}
}

var _ Repository = (*Memory)(nil)

// --- Seeding helpers (tests / demo bootstrap) ---

func (m *Memory) SeedCompany(c entity.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.company = &c
}

func (m *Memory) SeedCompanyProduct(cp entity.CompanyProduct) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companyProducts[cp.ProductID] = &cp
}

func (m *Memory) SeedProduct(p entity.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

func (m *Memory) SeedWarehouse(w entity.Warehouse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warehouses[w.ID] = &w
}

func (m *Memory) SeedOutlet(o entity.Outlet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outlets[o.ID] = &o
}

func (m *Memory) SeedWarehouseItem(it entity.WarehouseItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warehouseItems[itemKey{it.WarehouseID, it.ProductID}] = &it
}

func (m *Memory) SeedOutletItem(it entity.OutletItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outletItems[itemKey{it.OutletID, it.ProductID}] = &it
}

// --- Read-back helpers for assertions ---

func (m *Memory) Company() entity.Company {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.company
}

func (m *Memory) Product(productID id.ID) (entity.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return entity.Product{}, false
	}
	return *p, true
}

func (m *Memory) Warehouse(warehouseID id.ID) (entity.Warehouse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.warehouses[warehouseID]
	if !ok {
		return entity.Warehouse{}, false
	}
	return *w, true
}

func (m *Memory) Outlet(outletID id.ID) (entity.Outlet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outlets[outletID]
	if !ok {
		return entity.Outlet{}, false
	}
	return *o, true
}

func (m *Memory) WarehouseItem(warehouseID, productID id.ID) (entity.WarehouseItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.warehouseItems[itemKey{warehouseID, productID}]
	if !ok {
		return entity.WarehouseItem{}, false
	}
	return *it, true
}

func (m *Memory) OutletItem(outletID, productID id.ID) (entity.OutletItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.outletItems[itemKey{outletID, productID}]
	if !ok {
		return entity.OutletItem{}, false
	}
	return *it, true
}

func (m *Memory) CompanyProduct(productID id.ID) (entity.CompanyProduct, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.companyProducts[productID]
	if !ok {
		return entity.CompanyProduct{}, false
	}
	return *cp, true
}

// --- Repository implementation ---

func (m *Memory) GetCompany(ctx context.Context) (*entity.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.company == nil {
		return nil, apperror.NewNotFound("company", nil)
	}
	c := *m.company
	return &c, nil
}

func (m *Memory) IncrementCompany(ctx context.Context, delta CompanyDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.company == nil {
		return apperror.NewNotFound("company", nil)
	}
	c := m.company
	if c.InTransit+delta.InTransit < 0 {
		return apperror.NewConsistency("company", "in_transit")
	}
	c.TotalStock += delta.TotalStock
	c.TotalUnitsSold += delta.TotalUnitsSold
	c.InTransit += delta.InTransit
	c.TotalProducts += delta.TotalProducts
	c.TotalShipments += delta.TotalShipments
	c.TotalWarehouses += delta.TotalWarehouses
	c.TotalOutlets += delta.TotalOutlets
	c.TotalWorkers += delta.TotalWorkers
	c.TotalRevenue = c.TotalRevenue.Add(delta.TotalRevenue)
	c.Touch()
	return nil
}

func (m *Memory) InsertCompanyProduct(ctx context.Context, row entity.CompanyProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.companyProducts[row.ProductID]; exists {
		return apperror.NewDuplicate("company product", "product_id", row.ProductID.String())
	}
	row.LastUpdated = time.Now().UTC()
	m.companyProducts[row.ProductID] = &row
	return nil
}

func (m *Memory) GetCompanyProduct(ctx context.Context, productID id.ID) (*entity.CompanyProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.companyProducts[productID]
	if !ok {
		return nil, apperror.NewNotFound("company product", productID)
	}
	c := *cp
	return &c, nil
}

func (m *Memory) IncrementCompanyProduct(ctx context.Context, productID id.ID, qty, inTransit types.Quantity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.companyProducts[productID]
	if !ok {
		return apperror.NewConsistency("company product", productID)
	}
	if cp.Qty+qty < 0 || cp.InTransit+inTransit < 0 {
		return apperror.NewConsistency("company product", productID)
	}
	cp.Qty += qty
	cp.InTransit += inTransit
	cp.LastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) UpdateCompanyProductInfo(ctx context.Context, productID id.ID, name string, unitPrice types.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.companyProducts[productID]
	if !ok {
		return apperror.NewConsistency("company product", productID)
	}
	cp.Name = name
	cp.UnitPrice = unitPrice
	cp.LastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) SetCompanyProductQty(ctx context.Context, productID id.ID, qty types.Quantity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.companyProducts[productID]
	if !ok {
		return apperror.NewConsistency("company product", productID)
	}
	cp.Qty = qty
	cp.LastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) DeleteCompanyProduct(ctx context.Context, productID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.companyProducts, productID)
	return nil
}

func (m *Memory) GetProductForUpdate(ctx context.Context, productID id.ID) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) IncrementProductQty(ctx context.Context, productID id.ID, delta types.Quantity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	if p.Qty+delta < 0 {
		return apperror.NewConsistency("product", productID)
	}
	p.Qty += delta
	p.Status = entity.StatusForQty(p.Qty.Int64())
	p.Touch()
	return nil
}

func (m *Memory) IncrementWarehouse(ctx context.Context, warehouseID id.ID, delta WarehouseDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.warehouses[warehouseID]
	if !ok {
		return apperror.NewNotFound("warehouse", warehouseID)
	}
	w.TotalStock += delta.TotalStock
	w.TotalProducts += delta.TotalProducts
	w.TotalShipments += delta.TotalShipments
	w.TotalOutlets += delta.TotalOutlets
	w.TotalRevenue = w.TotalRevenue.Add(delta.TotalRevenue)
	w.Touch()
	return nil
}

func (m *Memory) GetWarehouseItem(ctx context.Context, warehouseID, productID id.ID) (*entity.WarehouseItem, error) {
	return m.GetWarehouseItemForUpdate(ctx, warehouseID, productID)
}

func (m *Memory) GetWarehouseItemForUpdate(ctx context.Context, warehouseID, productID id.ID) (*entity.WarehouseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.warehouseItems[itemKey{warehouseID, productID}]
	if !ok {
		return nil, apperror.NewNotFound("warehouse inventory", productID)
	}
	c := *it
	return &c, nil
}

func (m *Memory) IncrementWarehouseItem(ctx context.Context, warehouseID, productID id.ID, delta ItemDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.warehouseItems[itemKey{warehouseID, productID}]
	if !ok {
		return apperror.NewNotFound("warehouse inventory", productID)
	}
	return applyItemDelta(&it.Qty, &it.InTransit, &it.TotalShipped, &it.TotalReceived, nil, &it.Revenue, &it.Status, &it.LastUpdated, delta)
}

func (m *Memory) UpsertWarehouseItem(ctx context.Context, warehouseID, productID id.ID, snap ItemSnapshot, delta ItemDelta) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey{warehouseID, productID}
	it, ok := m.warehouseItems[key]
	if !ok {
		now := time.Now().UTC()
		it = &entity.WarehouseItem{
			WarehouseID: warehouseID,
			ProductID:   productID,
			SKU:         snap.SKU,
			Name:        snap.Name,
			UnitPrice:   snap.UnitPrice,
			Status:      entity.StockStatusOut,
			CreatedAt:   now,
			LastUpdated: now,
		}
		m.warehouseItems[key] = it
	}
	err := applyItemDelta(&it.Qty, &it.InTransit, &it.TotalShipped, &it.TotalReceived, nil, &it.Revenue, &it.Status, &it.LastUpdated, delta)
	return !ok, err
}

func (m *Memory) IncrementOutlet(ctx context.Context, outletID id.ID, delta OutletDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outlets[outletID]
	if !ok {
		return apperror.NewNotFound("outlet", outletID)
	}
	o.TotalStock += delta.TotalStock
	o.TotalProducts += delta.TotalProducts
	o.TotalSales += delta.TotalSales
	o.Revenue = o.Revenue.Add(delta.Revenue)
	o.Touch()
	return nil
}

func (m *Memory) GetOutletItem(ctx context.Context, outletID, productID id.ID) (*entity.OutletItem, error) {
	return m.GetOutletItemForUpdate(ctx, outletID, productID)
}

func (m *Memory) GetOutletItemForUpdate(ctx context.Context, outletID, productID id.ID) (*entity.OutletItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.outletItems[itemKey{outletID, productID}]
	if !ok {
		return nil, apperror.NewNotFound("outlet inventory", productID)
	}
	c := *it
	return &c, nil
}

func (m *Memory) IncrementOutletItem(ctx context.Context, outletID, productID id.ID, delta ItemDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.outletItems[itemKey{outletID, productID}]
	if !ok {
		return apperror.NewNotFound("outlet inventory", productID)
	}
	return applyItemDelta(&it.Qty, nil, nil, &it.TotalReceived, &it.TotalSold, &it.Revenue, &it.Status, &it.LastUpdated, delta)
}

func (m *Memory) UpsertOutletItem(ctx context.Context, outletID, productID, warehouseID id.ID, snap ItemSnapshot, delta ItemDelta) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey{outletID, productID}
	it, ok := m.outletItems[key]
	if !ok {
		now := time.Now().UTC()
		it = &entity.OutletItem{
			OutletID:    outletID,
			ProductID:   productID,
			SKU:         snap.SKU,
			Name:        snap.Name,
			UnitPrice:   snap.UnitPrice,
			WarehouseID: warehouseID,
			Status:      entity.StockStatusOut,
			CreatedAt:   now,
			LastUpdated: now,
		}
		m.outletItems[key] = it
	}
	err := applyItemDelta(&it.Qty, nil, nil, &it.TotalReceived, &it.TotalSold, &it.Revenue, &it.Status, &it.LastUpdated, delta)
	return !ok, err
}

func (m *Memory) ListWarehouseItemsByProduct(ctx context.Context, productID id.ID) ([]entity.WarehouseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.WarehouseItem
	for k, it := range m.warehouseItems {
		if k.product == productID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *Memory) ListOutletItemsByProduct(ctx context.Context, productID id.ID) ([]entity.OutletItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.OutletItem
	for k, it := range m.outletItems {
		if k.product == productID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *Memory) DeleteWarehouseItem(ctx context.Context, warehouseID, productID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.warehouseItems, itemKey{warehouseID, productID})
	return nil
}

func (m *Memory) DeleteOutletItem(ctx context.Context, outletID, productID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.outletItems, itemKey{outletID, productID})
	return nil
}

func (m *Memory) DeleteWarehouseItemsByWarehouse(ctx context.Context, warehouseID id.ID) ([]entity.WarehouseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.WarehouseItem
	for k, it := range m.warehouseItems {
		if k.parent == warehouseID {
			out = append(out, *it)
			delete(m.warehouseItems, k)
		}
	}
	return out, nil
}

func (m *Memory) DeleteOutletItemsByOutlet(ctx context.Context, outletID id.ID) ([]entity.OutletItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.OutletItem
	for k, it := range m.outletItems {
		if k.parent == outletID {
			out = append(out, *it)
			delete(m.outletItems, k)
		}
	}
	return out, nil
}

// applyItemDelta applies a guarded delta to an inventory row in place.
// Nil counters are absent on the row kind (outlet rows have no in_transit).
func applyItemDelta(qty, inTransit, totalShipped, totalReceived, totalSold *types.Quantity, revenue *types.Money, status *entity.StockStatus, lastUpdated *time.Time, delta ItemDelta) error {
	if *qty+delta.Qty < 0 {
		return apperror.NewConsistency("inventory row", "qty")
	}
	if inTransit != nil && *inTransit+delta.InTransit < 0 {
		return apperror.NewConsistency("inventory row", "in_transit")
	}
	*qty += delta.Qty
	if inTransit != nil {
		*inTransit += delta.InTransit
	}
	if totalShipped != nil {
		*totalShipped += delta.TotalShipped
	}
	if totalReceived != nil {
		*totalReceived += delta.TotalReceived
	}
	if totalSold != nil {
		*totalSold += delta.TotalSold
	}
	*revenue = revenue.Add(delta.Revenue)
	*status = entity.StatusForQty(qty.Int64())
	*lastUpdated = time.Now().UTC()
	return nil
}
