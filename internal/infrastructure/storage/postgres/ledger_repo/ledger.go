// Package ledger_repo provides the PostgreSQL implementation of the
// ledger increment primitives. Every delta lands as one guarded UPDATE;
// there is no read-modify-write and no recomputation on read.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	companyTable         = "company"
	companyProductsTable = "company_products"
	productsTable        = "products"
	warehousesTable      = "warehouses"
	warehouseItemsTable  = "warehouse_items"
	outletsTable         = "outlets"
	outletItemsTable     = "outlet_items"
)

var warehouseItemCols = []string{
	"warehouse_id", "product_id", "sku", "name",
	"qty", "unit_price", "in_transit",
	"total_shipped", "total_received", "revenue",
	"status", "created_at", "last_updated",
}

var outletItemCols = []string{
	"outlet_id", "product_id", "sku", "name",
	"qty", "unit_price",
	"total_received", "total_sold", "revenue",
	"warehouse_id", "status", "created_at", "last_updated",
}

// Compile-time check.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetCompany returns the singleton company row.
func (r *LedgerRepo) GetCompany(ctx context.Context) (*entity.Company, error) {
	q := r.builder.Select(
		"id", "name", "location", "address", "admin_id", "admin_name",
		"total_stock", "total_products", "total_units_sold", "total_shipments",
		"total_warehouses", "total_outlets", "total_workers", "total_revenue",
		"in_transit", "created_at", "last_updated",
	).From(companyTable).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c entity.Company
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company", nil)
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// IncrementCompany applies a signed delta to the company totals.
// The in_transit reserve may never go below zero.
func (r *LedgerRepo) IncrementCompany(ctx context.Context, delta ledger.CompanyDelta) error {
	sql := `
		UPDATE company SET
			total_stock      = total_stock + $1,
			total_units_sold = total_units_sold + $2,
			in_transit       = in_transit + $3,
			total_products   = total_products + $4,
			total_shipments  = total_shipments + $5,
			total_warehouses = total_warehouses + $6,
			total_outlets    = total_outlets + $7,
			total_workers    = total_workers + $8,
			total_revenue    = total_revenue + $9,
			last_updated     = now()
		WHERE in_transit + $3 >= 0
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql,
		delta.TotalStock, delta.TotalUnitsSold, delta.InTransit,
		delta.TotalProducts, delta.TotalShipments, delta.TotalWarehouses,
		delta.TotalOutlets, delta.TotalWorkers, delta.TotalRevenue,
	)
	if err != nil {
		return fmt.Errorf("increment company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if delta.InTransit < 0 {
			return apperror.NewConsistency("company", "in_transit")
		}
		return apperror.NewNotFound("company", nil)
	}
	return nil
}

// InsertCompanyProduct inserts the company-level snapshot row.
func (r *LedgerRepo) InsertCompanyProduct(ctx context.Context, row entity.CompanyProduct) error {
	q := r.builder.Insert(companyProductsTable).
		Columns("product_id", "sku", "name", "unit_price", "qty", "in_transit", "last_updated").
		Values(row.ProductID, row.SKU, row.Name, row.UnitPrice, row.Qty, row.InTransit, row.LastUpdated)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert company product: %w", err)
	}
	return nil
}

// GetCompanyProduct returns the snapshot row for a product.
func (r *LedgerRepo) GetCompanyProduct(ctx context.Context, productID id.ID) (*entity.CompanyProduct, error) {
	q := r.builder.Select(
		"product_id", "sku", "name", "unit_price", "qty", "in_transit", "last_updated",
	).From(companyProductsTable).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row entity.CompanyProduct
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("company product", productID)
		}
		return nil, fmt.Errorf("get company product: %w", err)
	}
	return &row, nil
}

// IncrementCompanyProduct adjusts the snapshot qty and reserve.
func (r *LedgerRepo) IncrementCompanyProduct(ctx context.Context, productID id.ID, qty, inTransit types.Quantity) error {
	sql := `
		UPDATE company_products SET
			qty          = qty + $2,
			in_transit   = in_transit + $3,
			last_updated = now()
		WHERE product_id = $1 AND qty + $2 >= 0 AND in_transit + $3 >= 0
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, productID, qty, inTransit)
	if err != nil {
		return fmt.Errorf("increment company product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if qty < 0 || inTransit < 0 {
			return apperror.NewConsistency("company product", productID)
		}
		return apperror.NewNotFound("company product", productID)
	}
	return nil
}

// UpdateCompanyProductInfo syncs name and unit price into the snapshot.
func (r *LedgerRepo) UpdateCompanyProductInfo(ctx context.Context, productID id.ID, name string, unitPrice types.Money) error {
	q := r.builder.Update(companyProductsTable).
		Set("name", name).
		Set("unit_price", unitPrice).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update company product info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("company product", productID)
	}
	return nil
}

// SetCompanyProductQty overwrites the snapshot qty.
func (r *LedgerRepo) SetCompanyProductQty(ctx context.Context, productID id.ID, qty types.Quantity) error {
	q := r.builder.Update(companyProductsTable).
		Set("qty", qty).
		Set("last_updated", squirrel.Expr("now()")).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set company product qty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("company product", productID)
	}
	return nil
}

// DeleteCompanyProduct removes the snapshot row.
func (r *LedgerRepo) DeleteCompanyProduct(ctx context.Context, productID id.ID) error {
	q := r.builder.Delete(companyProductsTable).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete company product: %w", err)
	}
	return nil
}

// GetProductForUpdate returns the product row with a pessimistic lock.
func (r *LedgerRepo) GetProductForUpdate(ctx context.Context, productID id.ID) (*entity.Product, error) {
	sql := `
		SELECT id, sku, name, qty, company_id, unit_price, status, created_at, last_updated
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	var p entity.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, productID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	return &p, nil
}

// IncrementProductQty adjusts company-held stock, recomputing status.
func (r *LedgerRepo) IncrementProductQty(ctx context.Context, productID id.ID, delta types.Quantity) error {
	sql := `
		UPDATE products SET
			qty          = qty + $2,
			status       = CASE WHEN qty + $2 > 0 THEN 'inStock' ELSE 'outOfStock' END,
			last_updated = now()
		WHERE id = $1 AND qty + $2 >= 0
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, productID, delta)
	if err != nil {
		return fmt.Errorf("increment product qty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if delta < 0 {
			return apperror.NewConsistency("product", productID)
		}
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// IncrementWarehouse applies a signed delta to warehouse totals.
func (r *LedgerRepo) IncrementWarehouse(ctx context.Context, warehouseID id.ID, delta ledger.WarehouseDelta) error {
	sql := `
		UPDATE warehouses SET
			total_stock     = total_stock + $2,
			total_products  = total_products + $3,
			total_shipments = total_shipments + $4,
			total_outlets   = total_outlets + $5,
			total_revenue   = total_revenue + $6,
			last_updated    = now()
		WHERE id = $1
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, warehouseID,
		delta.TotalStock, delta.TotalProducts, delta.TotalShipments,
		delta.TotalOutlets, delta.TotalRevenue,
	)
	if err != nil {
		return fmt.Errorf("increment warehouse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("warehouse", warehouseID)
	}
	return nil
}

// GetWarehouseItem returns one inventory row.
func (r *LedgerRepo) GetWarehouseItem(ctx context.Context, warehouseID, productID id.ID) (*entity.WarehouseItem, error) {
	return r.getWarehouseItem(ctx, warehouseID, productID, false)
}

// GetWarehouseItemForUpdate returns one inventory row with a pessimistic lock.
func (r *LedgerRepo) GetWarehouseItemForUpdate(ctx context.Context, warehouseID, productID id.ID) (*entity.WarehouseItem, error) {
	return r.getWarehouseItem(ctx, warehouseID, productID, true)
}

func (r *LedgerRepo) getWarehouseItem(ctx context.Context, warehouseID, productID id.ID, forUpdate bool) (*entity.WarehouseItem, error) {
	sql := `
		SELECT warehouse_id, product_id, sku, name,
		       qty, unit_price, in_transit,
		       total_shipped, total_received, revenue,
		       status, created_at, last_updated
		FROM warehouse_items
		WHERE warehouse_id = $1 AND product_id = $2
	`
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var it entity.WarehouseItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, warehouseID, productID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse item", productID)
		}
		return nil, fmt.Errorf("get warehouse item: %w", err)
	}
	return &it, nil
}

// IncrementWarehouseItem applies a signed delta to one inventory row.
func (r *LedgerRepo) IncrementWarehouseItem(ctx context.Context, warehouseID, productID id.ID, delta ledger.ItemDelta) error {
	sql := `
		UPDATE warehouse_items SET
			qty            = qty + $3,
			in_transit     = in_transit + $4,
			total_shipped  = total_shipped + $5,
			total_received = total_received + $6,
			revenue        = revenue + $7,
			status         = CASE WHEN qty + $3 > 0 THEN 'inStock' ELSE 'outOfStock' END,
			last_updated   = now()
		WHERE warehouse_id = $1 AND product_id = $2
		  AND qty + $3 >= 0 AND in_transit + $4 >= 0
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, warehouseID, productID,
		delta.Qty, delta.InTransit, delta.TotalShipped, delta.TotalReceived, delta.Revenue,
	)
	if err != nil {
		return fmt.Errorf("increment warehouse item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if delta.Qty < 0 || delta.InTransit < 0 {
			return apperror.NewConsistency("warehouse item", productID)
		}
		return apperror.NewNotFound("warehouse item", productID)
	}
	return nil
}

// UpsertWarehouseItem creates the row on first receive (freezing the
// product snapshot) or applies the delta to the existing row. The
// (xmax = 0) check reports whether the INSERT path was taken.
func (r *LedgerRepo) UpsertWarehouseItem(ctx context.Context, warehouseID, productID id.ID, snap ledger.ItemSnapshot, delta ledger.ItemDelta) (bool, error) {
	sql := `
		INSERT INTO warehouse_items (
			warehouse_id, product_id, sku, name,
			qty, unit_price, in_transit,
			total_shipped, total_received, revenue,
			status, created_at, last_updated
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			CASE WHEN $5::bigint > 0 THEN 'inStock' ELSE 'outOfStock' END,
			now(), now()
		)
		ON CONFLICT (warehouse_id, product_id) DO UPDATE SET
			qty            = warehouse_items.qty + EXCLUDED.qty,
			in_transit     = warehouse_items.in_transit + EXCLUDED.in_transit,
			total_shipped  = warehouse_items.total_shipped + EXCLUDED.total_shipped,
			total_received = warehouse_items.total_received + EXCLUDED.total_received,
			revenue        = warehouse_items.revenue + EXCLUDED.revenue,
			status         = CASE WHEN warehouse_items.qty + EXCLUDED.qty > 0 THEN 'inStock' ELSE 'outOfStock' END,
			last_updated   = now()
		RETURNING (xmax = 0) AS created
	`

	var created bool
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql,
		warehouseID, productID, snap.SKU, snap.Name,
		delta.Qty, snap.UnitPrice, delta.InTransit,
		delta.TotalShipped, delta.TotalReceived, delta.Revenue,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert warehouse item: %w", err)
	}
	return created, nil
}

// IncrementOutlet applies a signed delta to outlet totals.
func (r *LedgerRepo) IncrementOutlet(ctx context.Context, outletID id.ID, delta ledger.OutletDelta) error {
	sql := `
		UPDATE outlets SET
			total_stock    = total_stock + $2,
			total_products = total_products + $3,
			total_sales    = total_sales + $4,
			revenue        = revenue + $5,
			last_updated   = now()
		WHERE id = $1
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, outletID,
		delta.TotalStock, delta.TotalProducts, delta.TotalSales, delta.Revenue,
	)
	if err != nil {
		return fmt.Errorf("increment outlet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("outlet", outletID)
	}
	return nil
}

// GetOutletItem returns one inventory row.
func (r *LedgerRepo) GetOutletItem(ctx context.Context, outletID, productID id.ID) (*entity.OutletItem, error) {
	return r.getOutletItem(ctx, outletID, productID, false)
}

// GetOutletItemForUpdate returns one inventory row with a pessimistic lock.
func (r *LedgerRepo) GetOutletItemForUpdate(ctx context.Context, outletID, productID id.ID) (*entity.OutletItem, error) {
	return r.getOutletItem(ctx, outletID, productID, true)
}

func (r *LedgerRepo) getOutletItem(ctx context.Context, outletID, productID id.ID, forUpdate bool) (*entity.OutletItem, error) {
	sql := `
		SELECT outlet_id, product_id, sku, name,
		       qty, unit_price,
		       total_received, total_sold, revenue,
		       warehouse_id, status, created_at, last_updated
		FROM outlet_items
		WHERE outlet_id = $1 AND product_id = $2
	`
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var it entity.OutletItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, outletID, productID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("outlet item", productID)
		}
		return nil, fmt.Errorf("get outlet item: %w", err)
	}
	return &it, nil
}

// IncrementOutletItem applies a signed delta to one inventory row.
func (r *LedgerRepo) IncrementOutletItem(ctx context.Context, outletID, productID id.ID, delta ledger.ItemDelta) error {
	sql := `
		UPDATE outlet_items SET
			qty            = qty + $3,
			total_received = total_received + $4,
			total_sold     = total_sold + $5,
			revenue        = revenue + $6,
			status         = CASE WHEN qty + $3 > 0 THEN 'inStock' ELSE 'outOfStock' END,
			last_updated   = now()
		WHERE outlet_id = $1 AND product_id = $2 AND qty + $3 >= 0
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, outletID, productID,
		delta.Qty, delta.TotalReceived, delta.TotalSold, delta.Revenue,
	)
	if err != nil {
		return fmt.Errorf("increment outlet item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if delta.Qty < 0 {
			return apperror.NewConsistency("outlet item", productID)
		}
		return apperror.NewNotFound("outlet item", productID)
	}
	return nil
}

// UpsertOutletItem creates the row on first receive, recording the source
// warehouse as provenance, or applies the delta to the existing row.
func (r *LedgerRepo) UpsertOutletItem(ctx context.Context, outletID, productID, warehouseID id.ID, snap ledger.ItemSnapshot, delta ledger.ItemDelta) (bool, error) {
	sql := `
		INSERT INTO outlet_items (
			outlet_id, product_id, sku, name,
			qty, unit_price,
			total_received, total_sold, revenue,
			warehouse_id, status, created_at, last_updated
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9,
			$10,
			CASE WHEN $5::bigint > 0 THEN 'inStock' ELSE 'outOfStock' END,
			now(), now()
		)
		ON CONFLICT (outlet_id, product_id) DO UPDATE SET
			qty            = outlet_items.qty + EXCLUDED.qty,
			total_received = outlet_items.total_received + EXCLUDED.total_received,
			total_sold     = outlet_items.total_sold + EXCLUDED.total_sold,
			revenue        = outlet_items.revenue + EXCLUDED.revenue,
			status         = CASE WHEN outlet_items.qty + EXCLUDED.qty > 0 THEN 'inStock' ELSE 'outOfStock' END,
			last_updated   = now()
		RETURNING (xmax = 0) AS created
	`

	var created bool
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql,
		outletID, productID, snap.SKU, snap.Name,
		delta.Qty, snap.UnitPrice,
		delta.TotalReceived, delta.TotalSold, delta.Revenue,
		warehouseID,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert outlet item: %w", err)
	}
	return created, nil
}

// ListWarehouseItemsByProduct returns all warehouse rows for a product.
func (r *LedgerRepo) ListWarehouseItemsByProduct(ctx context.Context, productID id.ID) ([]entity.WarehouseItem, error) {
	q := r.builder.Select(warehouseItemCols...).
		From(warehouseItemsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("warehouse_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []entity.WarehouseItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouse items: %w", err)
	}
	return items, nil
}

// ListOutletItemsByProduct returns all outlet rows for a product.
func (r *LedgerRepo) ListOutletItemsByProduct(ctx context.Context, productID id.ID) ([]entity.OutletItem, error) {
	q := r.builder.Select(outletItemCols...).
		From(outletItemsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("outlet_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []entity.OutletItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select outlet items: %w", err)
	}
	return items, nil
}

// DeleteWarehouseItem removes one inventory row.
func (r *LedgerRepo) DeleteWarehouseItem(ctx context.Context, warehouseID, productID id.ID) error {
	q := r.builder.Delete(warehouseItemsTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete warehouse item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("warehouse item", productID)
	}
	return nil
}

// DeleteOutletItem removes one inventory row.
func (r *LedgerRepo) DeleteOutletItem(ctx context.Context, outletID, productID id.ID) error {
	q := r.builder.Delete(outletItemsTable).
		Where(squirrel.Eq{"outlet_id": outletID, "product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete outlet item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("outlet item", productID)
	}
	return nil
}

// DeleteWarehouseItemsByWarehouse removes all rows of a warehouse and
// returns them so the caller can unwind aggregate totals.
func (r *LedgerRepo) DeleteWarehouseItemsByWarehouse(ctx context.Context, warehouseID id.ID) ([]entity.WarehouseItem, error) {
	sql := `
		DELETE FROM warehouse_items
		WHERE warehouse_id = $1
		RETURNING warehouse_id, product_id, sku, name,
		          qty, unit_price, in_transit,
		          total_shipped, total_received, revenue,
		          status, created_at, last_updated
	`

	var items []entity.WarehouseItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, warehouseID); err != nil {
		return nil, fmt.Errorf("delete warehouse items: %w", err)
	}
	return items, nil
}

// DeleteOutletItemsByOutlet removes all rows of an outlet and returns
// them so the caller can unwind aggregate totals.
func (r *LedgerRepo) DeleteOutletItemsByOutlet(ctx context.Context, outletID id.ID) ([]entity.OutletItem, error) {
	sql := `
		DELETE FROM outlet_items
		WHERE outlet_id = $1
		RETURNING outlet_id, product_id, sku, name,
		          qty, unit_price,
		          total_received, total_sold, revenue,
		          warehouse_id, status, created_at, last_updated
	`

	var items []entity.OutletItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, outletID); err != nil {
		return nil, fmt.Errorf("delete outlet items: %w", err)
	}
	return items, nil
}
