package layaway

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
	"stockflow/internal/domain/sales"
)

type memLayaways struct {
	mu   sync.Mutex
	rows map[id.ID]*Layaway
}

func newMemLayaways() *memLayaways {
	return &memLayaways{rows: make(map[id.ID]*Layaway)}
}

func (r *memLayaways) Create(ctx context.Context, l *Layaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *l
	r.rows[l.ID] = &c
	return nil
}

func (r *memLayaways) GetByID(ctx context.Context, layawayID id.ID) (*Layaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[layawayID]
	if !ok {
		return nil, apperror.NewNotFound("layaway", layawayID)
	}
	c := *l
	return &c, nil
}

func (r *memLayaways) Update(ctx context.Context, l *Layaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[l.ID]; !ok {
		return apperror.NewNotFound("layaway", l.ID)
	}
	c := *l
	r.rows[l.ID] = &c
	return nil
}

func (r *memLayaways) List(ctx context.Context, f Filter) ([]Layaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Layaway
	for _, l := range r.rows {
		if f.OutletID != nil && l.OutletID != *f.OutletID {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *memLayaways) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key, l := range r.rows {
		if l.OutletID == outletID {
			delete(r.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

// memSales is the minimal sales.Repository needed by completion.
type memSales struct {
	mu   sync.Mutex
	rows map[id.ID]*sales.Sale
}

func newMemSales() *memSales {
	return &memSales{rows: make(map[id.ID]*sales.Sale)}
}

func (r *memSales) CreateBatch(ctx context.Context, batch []sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range batch {
		s := batch[i]
		r.rows[s.ID] = &s
	}
	return nil
}

func (r *memSales) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	c := *s
	return &c, nil
}

func (r *memSales) GetByTransaction(ctx context.Context, transactionID id.ID) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.Sale
	for _, s := range r.rows {
		if s.TransactionID == transactionID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSales) List(ctx context.Context, f sales.Filter) ([]sales.Sale, error) {
	return nil, nil
}

func (r *memSales) HasReversal(ctx context.Context, saleID id.ID) (bool, error) {
	return false, nil
}

func (r *memSales) HasReversalsInTransaction(ctx context.Context, transactionID id.ID) (bool, error) {
	return false, nil
}

func (r *memSales) DeleteByTransaction(ctx context.Context, transactionID id.ID) (int, error) {
	return 0, nil
}

func (r *memSales) DeleteByProduct(ctx context.Context, productID id.ID) (int, error) {
	return 0, nil
}

func (r *memSales) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	return 0, nil
}

type env struct {
	mem      *ledger.Memory
	repo     *memLayaways
	salesRep *memSales
	service  *Service

	productID   id.ID
	warehouseID id.ID
	outletID    id.ID
}

// newEnv seeds an outlet holding 10 units priced at 10.
func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		mem:         ledger.NewMemory(),
		repo:        newMemLayaways(),
		salesRep:    newMemSales(),
		productID:   id.New(),
		warehouseID: id.New(),
		outletID:    id.New(),
	}
	engine := movement.NewEngine(e.mem)
	salesService := sales.NewService(e.salesRep, e.mem, engine, tx.Nop{})
	e.service = NewService(e.repo, e.mem, salesService, tx.Nop{})

	price := types.MustMoney("10")

	company := entity.Company{BaseEntity: entity.NewBaseEntity(), Name: "Acme"}
	company.TotalStock = 10
	e.mem.SeedCompany(company)

	warehouse := entity.Warehouse{BaseEntity: entity.NewBaseEntity(), Name: "Main"}
	warehouse.ID = e.warehouseID
	e.mem.SeedWarehouse(warehouse)

	outlet := entity.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Downtown", WarehouseID: e.warehouseID}
	outlet.ID = e.outletID
	outlet.TotalStock = 10
	e.mem.SeedOutlet(outlet)

	e.mem.SeedWarehouseItem(entity.WarehouseItem{
		WarehouseID: e.warehouseID,
		ProductID:   e.productID,
		SKU:         "SKU-1",
		Name:        "Widget",
		UnitPrice:   price,
	})
	e.mem.SeedOutletItem(entity.OutletItem{
		OutletID:    e.outletID,
		ProductID:   e.productID,
		SKU:         "SKU-1",
		Name:        "Widget",
		Qty:         10,
		UnitPrice:   price,
		WarehouseID: e.warehouseID,
		Status:      entity.StockStatusIn,
	})

	return e
}

func (e *env) create(t *testing.T, qty types.Quantity) *Layaway {
	t.Helper()
	l, err := e.service.Create(context.Background(), CreateInput{
		OutletID:     e.outletID,
		CustomerName: "Ada",
		Items:        []ItemInput{{ProductID: e.productID, Qty: qty}},
	})
	require.NoError(t, err)
	return l
}

func TestPartialPaymentLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	l := e.create(t, 3)
	assert.Equal(t, StatusPendingPayment, l.Status)
	assert.Equal(t, "30", l.TotalAmount.String())
	assert.Equal(t, "30", l.Balance.String())
	assert.Equal(t, "SKU-1", l.Items[0].SKU, "items are frozen from the outlet row")
	assert.Equal(t, "10", l.Items[0].UnitPrice.String())

	// Stock is not deducted by the reservation.
	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(10), item.Qty)

	l, err := e.service.AddPayment(ctx, l.ID, PaymentInput{Amount: types.MustMoney("15")})
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, l.Status)
	assert.Equal(t, "15", l.Balance.String())

	l, err = e.service.AddPayment(ctx, l.ID, PaymentInput{Amount: types.MustMoney("15")})
	require.NoError(t, err)
	assert.Equal(t, StatusFullPaid, l.Status)
	assert.True(t, l.Balance.IsZero())

	receipt, err := e.service.Complete(ctx, l.ID, "rep-1")
	require.NoError(t, err)
	assert.Equal(t, "30", receipt.TotalAmount.String())

	item, _ = e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(7), item.Qty, "completion deducts stock")

	stored, _ := e.repo.GetByID(ctx, l.ID)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, receipt.TransactionID, stored.SaleTransactionID)

	_, err = e.service.Complete(ctx, l.ID, "rep-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyCompleted))
}

func TestCreateInsufficientStock(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Create(context.Background(), CreateInput{
		OutletID:     e.outletID,
		CustomerName: "Ada",
		Items:        []ItemInput{{ProductID: e.productID, Qty: 11}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestCompleteWithOutstandingBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	l := e.create(t, 3)
	_, err := e.service.AddPayment(ctx, l.ID, PaymentInput{Amount: types.MustMoney("10")})
	require.NoError(t, err)

	_, err = e.service.Complete(ctx, l.ID, "rep-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOutstandingBalance))

	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(10), item.Qty, "failed completion must not deduct stock")
}

func TestCancelClosesLayaway(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	l := e.create(t, 2)
	cancelled, err := e.service.Cancel(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = e.service.AddPayment(ctx, l.ID, PaymentInput{Amount: types.MustMoney("5")})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))

	_, err = e.service.Complete(ctx, l.ID, "rep-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestUpdateItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	l := e.create(t, 3)
	_, err := e.service.AddPayment(ctx, l.ID, PaymentInput{Amount: types.MustMoney("20")})
	require.NoError(t, err)

	// Shrinking the order below the paid amount flips to fully paid.
	l, err = e.service.UpdateItems(ctx, l.ID, []ItemInput{{ProductID: e.productID, Qty: 2}})
	require.NoError(t, err)
	assert.Equal(t, "20", l.TotalAmount.String())
	assert.Equal(t, StatusFullPaid, l.Status)
	assert.True(t, l.Balance.IsZero())
}

func TestGetStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.create(t, 3)
	_, err := e.service.AddPayment(ctx, first.ID, PaymentInput{Amount: types.MustMoney("10")})
	require.NoError(t, err)

	second := e.create(t, 2)
	_, err = e.service.AddPayment(ctx, second.ID, PaymentInput{Amount: types.MustMoney("20")})
	require.NoError(t, err)

	stats, err := e.service.GetStats(ctx, &e.outletID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.PendingPayment)
	assert.Equal(t, 1, stats.FullPaid)
	assert.Equal(t, "20", stats.OutstandingBalance.String())
	assert.Equal(t, "30", stats.CollectedAmount.String())
}
