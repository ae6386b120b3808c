package sales

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

type memRepo struct {
	mu    sync.Mutex
	sales map[id.ID]*Sale
	order []id.ID

	// staleReversalReads makes HasReversal answer from a snapshot taken
	// before any reversal landed, the view a concurrent transaction sees.
	staleReversalReads bool
}

func newMemRepo() *memRepo {
	return &memRepo{sales: make(map[id.ID]*Sale)}
}

func (r *memRepo) CreateBatch(ctx context.Context, sales []Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range sales {
		s := sales[i]
		// Same guard the partial unique index on reversed_sale_id gives
		// the real store: one reversal per sale.
		if s.IsReversal {
			for _, existing := range r.sales {
				if existing.IsReversal && existing.ReversedSaleID == s.ReversedSaleID {
					return apperror.NewAlreadyReversed(s.ReversedSaleID)
				}
			}
		}
		r.sales[s.ID] = &s
		r.order = append(r.order, s.ID)
	}
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	c := *s
	return &c, nil
}

func (r *memRepo) GetByTransaction(ctx context.Context, transactionID id.ID) ([]Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sale
	for _, key := range r.order {
		if s, ok := r.sales[key]; ok && s.TransactionID == transactionID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memRepo) List(ctx context.Context, f Filter) ([]Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sale
	for _, key := range r.order {
		s, ok := r.sales[key]
		if !ok {
			continue
		}
		if f.OutletID != nil && s.OutletID != *f.OutletID {
			continue
		}
		if f.ProductID != nil && s.ProductID != *f.ProductID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *memRepo) HasReversal(ctx context.Context, saleID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staleReversalReads {
		return false, nil
	}
	for _, s := range r.sales {
		if s.IsReversal && s.ReversedSaleID == saleID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) HasReversalsInTransaction(ctx context.Context, transactionID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make(map[id.ID]bool)
	for _, s := range r.sales {
		if s.TransactionID == transactionID {
			if s.IsReversal {
				return true, nil
			}
			members[s.ID] = true
		}
	}
	for _, s := range r.sales {
		if s.IsReversal && members[s.ReversedSaleID] {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) DeleteByTransaction(ctx context.Context, transactionID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key, s := range r.sales {
		if s.TransactionID == transactionID {
			delete(r.sales, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memRepo) DeleteByProduct(ctx context.Context, productID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key, s := range r.sales {
		if s.ProductID == productID {
			delete(r.sales, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memRepo) DeleteByOutlet(ctx context.Context, outletID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key, s := range r.sales {
		if s.OutletID == outletID {
			delete(r.sales, key)
			deleted++
		}
	}
	return deleted, nil
}

type env struct {
	mem     *ledger.Memory
	repo    *memRepo
	service *Service

	productID   id.ID
	warehouseID id.ID
	outletID    id.ID
}

// newEnv seeds an outlet holding 20 units priced at 10, stocked from a
// warehouse whose row already exists.
func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		mem:         ledger.NewMemory(),
		repo:        newMemRepo(),
		productID:   id.New(),
		warehouseID: id.New(),
		outletID:    id.New(),
	}
	e.service = NewService(e.repo, e.mem, movement.NewEngine(e.mem), tx.Nop{})

	price := types.MustMoney("10")

	company := entity.Company{BaseEntity: entity.NewBaseEntity(), Name: "Acme"}
	company.TotalStock = 20
	e.mem.SeedCompany(company)

	warehouse := entity.Warehouse{BaseEntity: entity.NewBaseEntity(), Name: "Main"}
	warehouse.ID = e.warehouseID
	e.mem.SeedWarehouse(warehouse)

	outlet := entity.Outlet{BaseEntity: entity.NewBaseEntity(), Name: "Downtown", WarehouseID: e.warehouseID}
	outlet.ID = e.outletID
	outlet.TotalStock = 20
	e.mem.SeedOutlet(outlet)

	e.mem.SeedWarehouseItem(entity.WarehouseItem{
		WarehouseID: e.warehouseID,
		ProductID:   e.productID,
		SKU:         "SKU-1",
		Name:        "Widget",
		UnitPrice:   price,
		Status:      entity.StockStatusOut,
	})
	e.mem.SeedOutletItem(entity.OutletItem{
		OutletID:    e.outletID,
		ProductID:   e.productID,
		SKU:         "SKU-1",
		Name:        "Widget",
		Qty:         20,
		UnitPrice:   price,
		WarehouseID: e.warehouseID,
		Status:      entity.StockStatusIn,
	})

	return e
}

func (e *env) sell(t *testing.T, qty types.Quantity, price string) *Receipt {
	t.Helper()
	receipt, err := e.service.RecordSale(context.Background(), RecordInput{
		OutletID: e.outletID,
		SoldBy:   "rep-1",
		Lines:    []LineInput{{ProductID: e.productID, QtySold: qty, UnitPrice: types.MustMoney(price)}},
	})
	require.NoError(t, err)
	return receipt
}

func TestRecordSale(t *testing.T) {
	e := newEnv(t)

	receipt := e.sell(t, 5, "10")

	assert.Equal(t, "50", receipt.TotalAmount.String())
	require.Len(t, receipt.Sales, 1)
	sale := receipt.Sales[0]
	assert.Equal(t, receipt.TransactionID, sale.TransactionID)
	assert.Equal(t, e.warehouseID, sale.WarehouseID, "provenance is frozen from the outlet row")
	assert.Equal(t, "SKU-1", sale.SKU)
	assert.False(t, sale.IsReversal)

	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(15), item.Qty)
	assert.Equal(t, types.Quantity(5), item.TotalSold)

	outlet, _ := e.mem.Outlet(e.outletID)
	assert.Equal(t, "50", outlet.Revenue.String())
	assert.Equal(t, types.Quantity(1), outlet.TotalSales)

	company := e.mem.Company()
	assert.Equal(t, "50", company.TotalRevenue.String())
	assert.Equal(t, types.Quantity(5), company.TotalUnitsSold)
}

func TestRecordSaleMultiLineSharesTransaction(t *testing.T) {
	e := newEnv(t)

	// Second product stocked at the same outlet.
	otherID := id.New()
	e.mem.SeedWarehouseItem(entity.WarehouseItem{
		WarehouseID: e.warehouseID, ProductID: otherID,
		SKU: "SKU-2", Name: "Gadget", UnitPrice: types.MustMoney("4"),
	})
	e.mem.SeedOutletItem(entity.OutletItem{
		OutletID: e.outletID, ProductID: otherID,
		SKU: "SKU-2", Name: "Gadget", Qty: 10,
		UnitPrice: types.MustMoney("4"), WarehouseID: e.warehouseID,
	})

	receipt, err := e.service.RecordSale(context.Background(), RecordInput{
		OutletID: e.outletID,
		Lines: []LineInput{
			{ProductID: e.productID, QtySold: 2, UnitPrice: types.MustMoney("10")},
			{ProductID: otherID, QtySold: 3, UnitPrice: types.MustMoney("4")},
		},
	})
	require.NoError(t, err)

	require.Len(t, receipt.Sales, 2)
	assert.Equal(t, receipt.Sales[0].TransactionID, receipt.Sales[1].TransactionID)
	assert.Equal(t, "32", receipt.TotalAmount.String())

	outlet, _ := e.mem.Outlet(e.outletID)
	assert.Equal(t, types.Quantity(2), outlet.TotalSales, "one sales counter tick per line")
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.RecordSale(context.Background(), RecordInput{
		OutletID: e.outletID,
		Lines:    []LineInput{{ProductID: e.productID, QtySold: 21, UnitPrice: types.MustMoney("10")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)
	assert.Empty(t, e.repo.sales)
}

func TestRecordSaleValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RecordInput
	}{
		{"no lines", RecordInput{OutletID: e.outletID}},
		{"zero qty", RecordInput{OutletID: e.outletID, Lines: []LineInput{{ProductID: e.productID, QtySold: 0, UnitPrice: types.MustMoney("10")}}}},
		{"negative price", RecordInput{OutletID: e.outletID, Lines: []LineInput{{ProductID: e.productID, QtySold: 1, UnitPrice: types.MustMoney("-1")}}}},
		{"nil outlet", RecordInput{Lines: []LineInput{{ProductID: e.productID, QtySold: 1, UnitPrice: types.MustMoney("10")}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.service.RecordSale(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestReverseRestoresAggregates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	itemBefore, _ := e.mem.OutletItem(e.outletID, e.productID)
	companyBefore := e.mem.Company()

	receipt := e.sell(t, 5, "10")
	saleID := receipt.Sales[0].ID

	reversal, err := e.service.Reverse(ctx, saleID, "admin")
	require.NoError(t, err)
	assert.True(t, reversal.IsReversal)
	assert.Equal(t, saleID, reversal.ReversedSaleID)
	assert.Equal(t, types.Quantity(-5), reversal.QtySold)
	assert.Equal(t, "-50", reversal.TotalAmount.String())

	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, itemBefore.Qty, item.Qty)
	assert.Equal(t, itemBefore.TotalSold, item.TotalSold)
	assert.True(t, itemBefore.Revenue.Equal(item.Revenue))

	company := e.mem.Company()
	assert.True(t, companyBefore.TotalRevenue.Equal(company.TotalRevenue))
	assert.Equal(t, companyBefore.TotalUnitsSold, company.TotalUnitsSold)
	assert.Equal(t, companyBefore.TotalStock, company.TotalStock)
}

func TestReverseTwice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	receipt := e.sell(t, 5, "10")
	saleID := receipt.Sales[0].ID

	_, err := e.service.Reverse(ctx, saleID, "admin")
	require.NoError(t, err)

	_, err = e.service.Reverse(ctx, saleID, "admin")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyReversed))
}

func TestReverseRaceLoserConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	receipt := e.sell(t, 5, "10")
	saleID := receipt.Sales[0].ID

	_, err := e.service.Reverse(ctx, saleID, "admin")
	require.NoError(t, err)

	// A concurrent reversal reads a snapshot from before the first one
	// committed, passes the existence check, and must still fail at the
	// insert.
	e.repo.staleReversalReads = true
	_, err = e.service.Reverse(ctx, saleID, "admin")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyReversed))
}

func TestReverseAReversal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	receipt := e.sell(t, 5, "10")
	reversal, err := e.service.Reverse(ctx, receipt.Sales[0].ID, "admin")
	require.NoError(t, err)

	_, err = e.service.Reverse(ctx, reversal.ID, "admin")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestEditTransaction(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	receipt := e.sell(t, 5, "10")

	edited, err := e.service.EditTransaction(ctx, receipt.TransactionID, []LineInput{
		{ProductID: e.productID, QtySold: 3, UnitPrice: types.MustMoney("10")},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, receipt.TransactionID, edited.TransactionID, "edit keeps the transaction id")
	assert.Equal(t, "30", edited.TotalAmount.String())

	// Net effect equals having sold 3 directly.
	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(17), item.Qty)
	assert.Equal(t, types.Quantity(3), item.TotalSold)

	company := e.mem.Company()
	assert.Equal(t, "30", company.TotalRevenue.String())
	assert.Equal(t, types.Quantity(3), company.TotalUnitsSold)

	rows, _ := e.repo.GetByTransaction(ctx, receipt.TransactionID)
	require.Len(t, rows, 1)
	assert.Equal(t, types.Quantity(3), rows[0].QtySold)
}

func TestEditReversedTransactionConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	receipt := e.sell(t, 5, "10")
	_, err := e.service.Reverse(ctx, receipt.Sales[0].ID, "admin")
	require.NoError(t, err)

	_, err = e.service.EditTransaction(ctx, receipt.TransactionID, []LineInput{
		{ProductID: e.productID, QtySold: 1, UnitPrice: types.MustMoney("10")},
	}, "admin")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestDeleteTransaction(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	companyBefore := e.mem.Company()
	receipt := e.sell(t, 5, "10")

	require.NoError(t, e.service.DeleteTransaction(ctx, receipt.TransactionID))

	item, _ := e.mem.OutletItem(e.outletID, e.productID)
	assert.Equal(t, types.Quantity(20), item.Qty)

	company := e.mem.Company()
	assert.True(t, companyBefore.TotalRevenue.Equal(company.TotalRevenue))
	assert.Equal(t, companyBefore.TotalStock, company.TotalStock)

	rows, _ := e.repo.GetByTransaction(ctx, receipt.TransactionID)
	assert.Empty(t, rows)
}

func TestDeleteUnknownTransaction(t *testing.T) {
	e := newEnv(t)

	err := e.service.DeleteTransaction(context.Background(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListTransactionsGroupsByTransaction(t *testing.T) {
	e := newEnv(t)

	first := e.sell(t, 2, "10")
	second := e.sell(t, 3, "10")

	transactions, err := e.service.ListTransactions(context.Background(), Filter{OutletID: &e.outletID})
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	seen := map[id.ID]types.Quantity{}
	for _, tr := range transactions {
		seen[tr.TransactionID] = tr.TotalQty
	}
	assert.Equal(t, types.Quantity(2), seen[first.TransactionID])
	assert.Equal(t, types.Quantity(3), seen[second.TransactionID])
}
