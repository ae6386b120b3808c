package shipment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/movement"
)

// memRepo is an in-memory Repository used by the service tests.
type memRepo struct {
	mu        sync.Mutex
	shipments map[id.ID]*Shipment
}

func newMemRepo() *memRepo {
	return &memRepo{shipments: make(map[id.ID]*Shipment)}
}

func (r *memRepo) Create(ctx context.Context, sh *Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *sh
	r.shipments[sh.ID] = &c
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, shipmentID id.ID) (*Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shipments[shipmentID]
	if !ok {
		return nil, apperror.NewNotFound("shipment", shipmentID)
	}
	c := *sh
	return &c, nil
}

func (r *memRepo) List(ctx context.Context, f Filter) ([]Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Shipment
	for _, sh := range r.shipments {
		if f.Status != nil && sh.Status != *f.Status {
			continue
		}
		out = append(out, *sh)
	}
	return out, nil
}

func (r *memRepo) UpdateStatusIf(ctx context.Context, shipmentID id.ID, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shipments[shipmentID]
	if !ok {
		return apperror.NewNotFound("shipment", shipmentID)
	}
	if sh.Status != from {
		return apperror.NewAlreadyProcessed("shipment", shipmentID)
	}
	sh.Status = to
	return nil
}

func (r *memRepo) UpdateDestination(ctx context.Context, shipmentID id.ID, to Endpoint, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shipments[shipmentID]
	if !ok {
		return apperror.NewNotFound("shipment", shipmentID)
	}
	sh.To = to
	sh.Notes = notes
	return nil
}

func (r *memRepo) StripProductLines(ctx context.Context, productID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	touched := 0
	for key, sh := range r.shipments {
		var kept []Line
		for _, l := range sh.Lines {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		if len(kept) != len(sh.Lines) {
			touched++
			if len(kept) == 0 {
				delete(r.shipments, key)
			} else {
				sh.Lines = kept
			}
		}
	}
	return touched, nil
}

func (r *memRepo) ListActiveByLocation(ctx context.Context, locationID id.ID) ([]Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Shipment
	for _, sh := range r.shipments {
		if sh.Status == StatusInTransit && (sh.From.ID == locationID || sh.To.ID == locationID) {
			out = append(out, *sh)
		}
	}
	return out, nil
}

func (r *memRepo) DeleteByLocation(ctx context.Context, locationID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key, sh := range r.shipments {
		if sh.From.ID == locationID || sh.To.ID == locationID {
			delete(r.shipments, key)
			deleted++
		}
	}
	return deleted, nil
}

// staleRepo simulates a concurrent reader: GetByID always reports the
// shipment as still in transit, leaving the conditional status update as
// the only double-approval guard.
type staleRepo struct {
	*memRepo
}

func (r *staleRepo) GetByID(ctx context.Context, shipmentID id.ID) (*Shipment, error) {
	sh, err := r.memRepo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	sh.Status = StatusInTransit
	return sh, nil
}

type fakeDirectory struct {
	warehouses map[id.ID]string
	outlets    map[id.ID]string
}

func (d *fakeDirectory) WarehouseName(ctx context.Context, warehouseID id.ID) (string, error) {
	name, ok := d.warehouses[warehouseID]
	if !ok {
		return "", apperror.NewNotFound("warehouse", warehouseID)
	}
	return name, nil
}

func (d *fakeDirectory) OutletName(ctx context.Context, outletID id.ID) (string, error) {
	name, ok := d.outlets[outletID]
	if !ok {
		return "", apperror.NewNotFound("outlet", outletID)
	}
	return name, nil
}

type env struct {
	mem     *ledger.Memory
	repo    *memRepo
	service *Service

	productID   id.ID
	warehouseID id.ID
	outletID    id.ID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		mem:         ledger.NewMemory(),
		repo:        newMemRepo(),
		productID:   id.New(),
		warehouseID: id.New(),
		outletID:    id.New(),
	}
	e.service = e.newService(e.repo)

	price := types.MustMoney("10")

	company := entity.Company{BaseEntity: entity.NewBaseEntity(), Name: "Acme"}
	company.TotalStock = 100
	e.mem.SeedCompany(company)

	product := entity.Product{BaseEntity: entity.NewBaseEntity(), SKU: "SKU-1", Name: "Widget", Qty: 100, UnitPrice: price, Status: entity.StockStatusIn}
	product.ID = e.productID
	e.mem.SeedProduct(product)
	e.mem.SeedCompanyProduct(entity.CompanyProduct{ProductID: e.productID, SKU: "SKU-1", Name: "Widget", UnitPrice: price, Qty: 100})

	warehouse := entity.Warehouse{BaseEntity: entity.NewBaseEntity(), Name: "Main"}
	warehouse.ID = e.warehouseID
	e.mem.SeedWarehouse(warehouse)

	outlet := entity.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Downtown", WarehouseID: e.warehouseID}
	outlet.ID = e.outletID
	e.mem.SeedOutlet(outlet)

	return e
}

func (e *env) newService(repo Repository) *Service {
	dir := &fakeDirectory{
		warehouses: map[id.ID]string{e.warehouseID: "Main"},
		outlets:    map[id.ID]string{e.outletID: "Downtown"},
	}
	return NewService(repo, e.mem, movement.NewEngine(e.mem), dir, tx.Nop{})
}

func (e *env) createToWarehouse(t *testing.T, qty types.Quantity) *Shipment {
	t.Helper()
	sh, err := e.service.Create(context.Background(), CreateInput{
		FromType: entity.LocationCompany,
		ToType:   entity.LocationWarehouse,
		ToID:     e.warehouseID,
		Lines:    []LineInput{{ProductID: e.productID, Qty: qty}},
	})
	require.NoError(t, err)
	return sh
}

func TestCreateFromCompany(t *testing.T) {
	e := newEnv(t)

	sh := e.createToWarehouse(t, 40)

	assert.Equal(t, StatusInTransit, sh.Status)
	assert.Equal(t, "Acme", sh.From.Name)
	assert.Equal(t, "Main", sh.To.Name)
	require.Len(t, sh.Lines, 1)
	assert.Equal(t, "SKU-1", sh.Lines[0].SKU, "line identity is frozen from the product")
	assert.Equal(t, "10", sh.Lines[0].UnitPrice.String())

	product, _ := e.mem.Product(e.productID)
	assert.Equal(t, types.Quantity(60), product.Qty)

	company := e.mem.Company()
	assert.Equal(t, types.Quantity(40), company.InTransit)
	assert.Equal(t, 1, company.TotalShipments)

	stored, err := e.repo.GetByID(context.Background(), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInTransit, stored.Status)
}

func TestCreateSelfShipmentRejected(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), CreateInput{
		FromType: entity.LocationWarehouse,
		FromID:   e.warehouseID,
		ToType:   entity.LocationWarehouse,
		ToID:     e.warehouseID,
		Lines:    []LineInput{{ProductID: e.productID, Qty: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateUnknownProduct(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), CreateInput{
		FromType: entity.LocationCompany,
		ToType:   entity.LocationWarehouse,
		ToID:     e.warehouseID,
		Lines:    []LineInput{{ProductID: id.New(), Qty: 5}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateInsufficientStock(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), CreateInput{
		FromType: entity.LocationCompany,
		ToType:   entity.LocationWarehouse,
		ToID:     e.warehouseID,
		Lines:    []LineInput{{ProductID: e.productID, Qty: 500}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	product, _ := e.mem.Product(e.productID)
	assert.Equal(t, types.Quantity(100), product.Qty)
	assert.Empty(t, e.repo.shipments)
}

func TestReceive(t *testing.T) {
	e := newEnv(t)
	sh := e.createToWarehouse(t, 40)

	got, err := e.service.Transition(context.Background(), sh.ID, ActionReceive)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)

	item, ok := e.mem.WarehouseItem(e.warehouseID, e.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(40), item.Qty)
	assert.Equal(t, "SKU-1", item.SKU)

	assert.Equal(t, types.Quantity(0), e.mem.Company().InTransit)

	warehouse, _ := e.mem.Warehouse(e.warehouseID)
	assert.Equal(t, types.Quantity(40), warehouse.TotalStock)
}

func TestRejectReturnsStock(t *testing.T) {
	e := newEnv(t)
	sh := e.createToWarehouse(t, 40)

	_, err := e.service.Transition(context.Background(), sh.ID, ActionReject)
	require.NoError(t, err)

	product, _ := e.mem.Product(e.productID)
	assert.Equal(t, types.Quantity(100), product.Qty)
	assert.Equal(t, types.Quantity(0), e.mem.Company().InTransit)

	_, ok := e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.False(t, ok)
}

func TestTransitionFromTerminalState(t *testing.T) {
	e := newEnv(t)
	sh := e.createToWarehouse(t, 10)

	_, err := e.service.Transition(context.Background(), sh.ID, ActionReceive)
	require.NoError(t, err)

	_, err = e.service.Transition(context.Background(), sh.ID, ActionCancel)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestDoubleApprovalGuard(t *testing.T) {
	e := newEnv(t)
	sh := e.createToWarehouse(t, 40)

	// Simulate two racing approvals: both see in_transit, the conditional
	// status update lets exactly one through.
	racing := e.newService(&staleRepo{memRepo: e.repo})

	_, err := racing.Transition(context.Background(), sh.ID, ActionReceive)
	require.NoError(t, err)

	_, err = racing.Transition(context.Background(), sh.ID, ActionReceive)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyProcessed))

	item, _ := e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.Equal(t, types.Quantity(40), item.Qty, "destination must reflect the lines exactly once")
}

func TestEditDestination(t *testing.T) {
	e := newEnv(t)
	sh := e.createToWarehouse(t, 10)

	got, err := e.service.Edit(context.Background(), sh.ID, EditInput{
		ToType: entity.LocationOutlet,
		ToID:   e.outletID,
		Notes:  "redirected",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.LocationOutlet, got.To.Type)
	assert.Equal(t, "Downtown", got.To.Name)

	stored, _ := e.repo.GetByID(context.Background(), sh.ID)
	assert.Equal(t, e.outletID, stored.To.ID)
	assert.Equal(t, "redirected", stored.Notes)
}

func TestEditAfterReceiveRejected(t *testing.T) {
	e := newEnv(t)
	sh := e.createToWarehouse(t, 10)

	_, err := e.service.Transition(context.Background(), sh.ID, ActionReceive)
	require.NoError(t, err)

	_, err = e.service.Edit(context.Background(), sh.ID, EditInput{
		ToType: entity.LocationOutlet,
		ToID:   e.outletID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestWarehouseSourcedShipment(t *testing.T) {
	e := newEnv(t)

	// Stock the warehouse first.
	sh := e.createToWarehouse(t, 40)
	_, err := e.service.Transition(context.Background(), sh.ID, ActionReceive)
	require.NoError(t, err)

	out, err := e.service.Create(context.Background(), CreateInput{
		FromType: entity.LocationWarehouse,
		FromID:   e.warehouseID,
		ToType:   entity.LocationOutlet,
		ToID:     e.outletID,
		Lines:    []LineInput{{ProductID: e.productID, Qty: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Main", out.From.Name)

	item, _ := e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.Equal(t, types.Quantity(20), item.InTransit)

	warehouse, _ := e.mem.Warehouse(e.warehouseID)
	assert.Equal(t, 1, warehouse.TotalShipments)

	_, err = e.service.Transition(context.Background(), out.ID, ActionReceive)
	require.NoError(t, err)

	outletItem, ok := e.mem.OutletItem(e.outletID, e.productID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(20), outletItem.Qty)

	item, _ = e.mem.WarehouseItem(e.warehouseID, e.productID)
	assert.Equal(t, types.Quantity(0), item.InTransit)
	assert.Equal(t, types.Quantity(20), item.TotalShipped)
}
