package sales

import (
	"context"
	"fmt"
	"sort"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/movement"
	"stockflow/pkg/logger"
)

// Service processes sale transactions. Every operation is one atomic unit:
// a multi-line checkout either commits all lines and all aggregate deltas
// or none of them.
type Service struct {
	repo      Repository
	ledger    ledger.Repository
	engine    *movement.Engine
	txManager tx.Manager
}

// NewService creates a new sales service.
func NewService(repo Repository, l ledger.Repository, engine *movement.Engine, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    l,
		engine:    engine,
		txManager: txManager,
	}
}

// RecordInput describes one checkout at an outlet.
type RecordInput struct {
	OutletID id.ID
	SoldBy   string
	SoldByID id.ID
	Lines    []LineInput
}

// RecordSale commits a checkout: every line deducts outlet stock and adds
// revenue up the chain, then one Sale record per line is persisted under a
// freshly generated transaction id.
func (s *Service) RecordSale(ctx context.Context, in RecordInput) (*Receipt, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}

	transactionID := id.New()
	var receipt *Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.applyLines(ctx, transactionID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"transaction_id", receipt.TransactionID,
		"outlet_id", in.OutletID,
		"lines", len(receipt.Sales),
		"total_amount", receipt.TotalAmount,
	)
	return receipt, nil
}

// Reverse negates one sale line exactly: stock returns to the outlet,
// revenue and counters unwind, and a reversal record with a back-reference
// is persisted. A sale can be reversed at most once.
func (s *Service) Reverse(ctx context.Context, saleID id.ID, reversedBy string) (*Sale, error) {
	var reversal *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.repo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if original.IsReversal {
			return apperror.NewValidation("cannot reverse a reversal record")
		}
		reversed, err := s.repo.HasReversal(ctx, saleID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if reversed {
			return apperror.NewAlreadyReversed(saleID)
		}

		if err := s.engine.Apply(ctx, movement.Move{
			Kind:        movement.KindOutletSaleReversal,
			ProductID:   original.ProductID,
			Qty:         original.QtySold,
			Revenue:     original.TotalAmount,
			OutletID:    original.OutletID,
			WarehouseID: original.WarehouseID,
		}); err != nil {
			return err
		}

		reversal = &Sale{
			BaseEntity:     entity.NewBaseEntity(),
			TransactionID:  id.New(),
			OutletID:       original.OutletID,
			WarehouseID:    original.WarehouseID,
			ProductID:      original.ProductID,
			SKU:            original.SKU,
			Name:           original.Name,
			QtySold:        original.QtySold.Neg(),
			UnitPrice:      original.UnitPrice,
			TotalAmount:    original.TotalAmount.Neg(),
			SoldBy:         reversedBy,
			IsReversal:     true,
			ReversedSaleID: original.ID,
		}
		return s.repo.CreateBatch(ctx, []Sale{*reversal})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale reversed", "sale_id", saleID, "reversal_id", reversal.ID)
	return reversal, nil
}

// EditTransaction replaces a checkout wholesale: the existing lines are
// unwound as if individually reversed, then the new lines are applied under
// the same transaction id. Transactions touched by a reversal cannot be
// edited; the reversal already rewrote part of their effect.
func (s *Service) EditTransaction(ctx context.Context, transactionID id.ID, lines []LineInput, editedBy string) (*Receipt, error) {
	var receipt *Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.loadEditableTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if err := s.unwind(ctx, existing); err != nil {
			return err
		}
		if _, err := s.repo.DeleteByTransaction(ctx, transactionID); err != nil {
			return fmt.Errorf("delete sale lines: %w", err)
		}

		in := RecordInput{
			OutletID: existing[0].OutletID,
			SoldBy:   editedBy,
			Lines:    lines,
		}
		if err := validateInput(ctx, in); err != nil {
			return err
		}
		receipt, err = s.applyLines(ctx, transactionID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale transaction edited",
		"transaction_id", transactionID,
		"lines", len(receipt.Sales),
		"total_amount", receipt.TotalAmount,
	)
	return receipt, nil
}

// DeleteTransaction unwinds every line's effects and hard-deletes all sale
// records of the transaction.
func (s *Service) DeleteTransaction(ctx context.Context, transactionID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.loadEditableTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if err := s.unwind(ctx, existing); err != nil {
			return err
		}
		_, err = s.repo.DeleteByTransaction(ctx, transactionID)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale transaction deleted", "transaction_id", transactionID)
	return nil
}

// GetTransaction returns one grouped checkout.
func (s *Service) GetTransaction(ctx context.Context, transactionID id.ID) (*Transaction, error) {
	rows, err := s.repo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("sale transaction", transactionID)
	}
	t := groupRows(rows)
	return &t[0], nil
}

// ListTransactions returns checkouts matching the filter, newest first.
// Every sale record carries a transaction id; there is no timestamp-bucket
// fallback for grouping.
func (s *Service) ListTransactions(ctx context.Context, f Filter) ([]Transaction, error) {
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return groupRows(rows), nil
}

// applyLines runs the per-line checkout logic under a given transaction id.
// Caller must already be inside a transaction.
func (s *Service) applyLines(ctx context.Context, transactionID id.ID, in RecordInput) (*Receipt, error) {
	receipt := &Receipt{TransactionID: transactionID, TotalAmount: types.ZeroMoney()}

	for _, l := range in.Lines {
		row, err := s.ledger.GetOutletItem(ctx, in.OutletID, l.ProductID)
		if err != nil {
			return nil, err
		}
		lineTotal := l.QtySold.LineTotal(l.UnitPrice)

		if err := s.engine.Apply(ctx, movement.Move{
			Kind:        movement.KindOutletSale,
			ProductID:   l.ProductID,
			Qty:         l.QtySold,
			Revenue:     lineTotal,
			OutletID:    in.OutletID,
			WarehouseID: row.WarehouseID,
		}); err != nil {
			return nil, err
		}

		receipt.Sales = append(receipt.Sales, Sale{
			BaseEntity:    entity.NewBaseEntity(),
			TransactionID: transactionID,
			OutletID:      in.OutletID,
			WarehouseID:   row.WarehouseID,
			ProductID:     l.ProductID,
			SKU:           row.SKU,
			Name:          row.Name,
			QtySold:       l.QtySold,
			UnitPrice:     l.UnitPrice,
			TotalAmount:   lineTotal,
			SoldBy:        in.SoldBy,
			SoldByID:      in.SoldByID,
		})
		receipt.TotalAmount = receipt.TotalAmount.Add(lineTotal)
	}

	if err := s.repo.CreateBatch(ctx, receipt.Sales); err != nil {
		return nil, fmt.Errorf("persist sale lines: %w", err)
	}
	return receipt, nil
}

// loadEditableTransaction loads all lines of a transaction and rejects
// transactions entangled with reversals.
func (s *Service) loadEditableTransaction(ctx context.Context, transactionID id.ID) ([]Sale, error) {
	rows, err := s.repo.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound("sale transaction", transactionID)
	}
	entangled, err := s.repo.HasReversalsInTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("check reversals: %w", err)
	}
	if entangled {
		return nil, apperror.NewConflict("transaction has reversals and cannot be edited or deleted")
	}
	return rows, nil
}

// unwind negates every line's aggregate effects.
func (s *Service) unwind(ctx context.Context, rows []Sale) error {
	for _, row := range rows {
		if err := s.engine.Apply(ctx, movement.Move{
			Kind:        movement.KindOutletSaleReversal,
			ProductID:   row.ProductID,
			Qty:         row.QtySold,
			Revenue:     row.TotalAmount,
			OutletID:    row.OutletID,
			WarehouseID: row.WarehouseID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func validateInput(ctx context.Context, in RecordInput) error {
	if id.IsNil(in.OutletID) {
		return apperror.NewValidation("outlet_id is required")
	}
	if len(in.Lines) == 0 {
		return apperror.NewValidation("sale requires at least one line")
	}
	for i, l := range in.Lines {
		if err := l.Validate(ctx); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return apperror.NewValidation(fmt.Sprintf("line %d: %s", i, appErr.Message))
			}
			return err
		}
	}
	return nil
}

func groupRows(rows []Sale) []Transaction {
	byTx := make(map[id.ID]*Transaction)
	var order []id.ID
	for _, row := range rows {
		t, ok := byTx[row.TransactionID]
		if !ok {
			t = &Transaction{
				TransactionID: row.TransactionID,
				OutletID:      row.OutletID,
				Date:          row.CreatedAt,
				SoldBy:        row.SoldBy,
				TotalAmount:   types.ZeroMoney(),
			}
			byTx[row.TransactionID] = t
			order = append(order, row.TransactionID)
		}
		t.Sales = append(t.Sales, row)
		t.TotalQty += row.QtySold
		t.TotalAmount = t.TotalAmount.Add(row.TotalAmount)
		if row.CreatedAt.Before(t.Date) {
			t.Date = row.CreatedAt
		}
	}

	out := make([]Transaction, 0, len(order))
	for _, txID := range order {
		out = append(out, *byTx[txID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
