package layaway

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/sales"
	"stockflow/pkg/logger"
)

// Service provides layaway operations. Completion reuses the sales service
// so the converted checkout takes the same write path as a direct sale.
type Service struct {
	repo      Repository
	ledger    ledger.Repository
	sales     *sales.Service
	txManager tx.Manager
}

// NewService creates a new layaway service.
func NewService(repo Repository, l ledger.Repository, salesService *sales.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    l,
		sales:     salesService,
		txManager: txManager,
	}
}

// ItemInput is one requested layaway line. A zero UnitPrice means "use the
// outlet row's current price"; a positive one overrides it and is frozen.
type ItemInput struct {
	ProductID id.ID
	Qty       types.Quantity
	UnitPrice types.Money
}

// PaymentInput is one payment entry.
type PaymentInput struct {
	Amount     types.Money
	Method     string
	ReceivedBy string
}

// CreateInput describes a new layaway.
type CreateInput struct {
	OutletID       id.ID
	CustomerName   string
	CustomerPhone  string
	CreatedBy      string
	Items          []ItemInput
	InitialPayment *PaymentInput
}

// Create validates availability for every item and freezes the item list.
// Stock is not deducted; the reservation is of intent only.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Layaway, error) {
	l := &Layaway{
		BaseEntity:    entity.NewBaseEntity(),
		OutletID:      in.OutletID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CreatedBy:     in.CreatedBy,
		Status:        StatusPendingPayment,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.freezeItems(ctx, in.OutletID, in.Items)
		if err != nil {
			return err
		}
		l.Items = items

		if in.InitialPayment != nil {
			if !in.InitialPayment.Amount.IsPositive() {
				return apperror.NewValidation("payment amount must be positive")
			}
			l.Payments = append(l.Payments, Payment{
				Amount:     in.InitialPayment.Amount,
				Method:     in.InitialPayment.Method,
				ReceivedBy: in.InitialPayment.ReceivedBy,
				Date:       time.Now().UTC(),
			})
		}

		l.Recalculate()
		if err := l.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, l); err != nil {
			return fmt.Errorf("create layaway: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "layaway created",
		"id", l.ID,
		"outlet_id", l.OutletID,
		"total_amount", l.TotalAmount,
		"status", l.Status,
	)
	return l, nil
}

// AddPayment records a payment and advances the status to
// full_paid_pending_pickup once the balance reaches zero.
func (s *Service) AddPayment(ctx context.Context, layawayID id.ID, in PaymentInput) (*Layaway, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive")
	}

	var l *Layaway
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.loadOpen(ctx, layawayID)
		if err != nil {
			return err
		}
		l.Payments = append(l.Payments, Payment{
			Amount:     in.Amount,
			Method:     in.Method,
			ReceivedBy: in.ReceivedBy,
			Date:       time.Now().UTC(),
		})
		l.Recalculate()
		l.Touch()
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "layaway payment recorded",
		"id", layawayID,
		"amount", in.Amount,
		"balance", l.Balance,
		"status", l.Status,
	)
	return l, nil
}

// UpdateItems replaces the item list of an open layaway, revalidating
// availability and refreezing prices.
func (s *Service) UpdateItems(ctx context.Context, layawayID id.ID, items []ItemInput) (*Layaway, error) {
	var l *Layaway
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.loadOpen(ctx, layawayID)
		if err != nil {
			return err
		}
		frozen, err := s.freezeItems(ctx, l.OutletID, items)
		if err != nil {
			return err
		}
		l.Items = frozen
		l.Recalculate()
		if err := l.Validate(ctx); err != nil {
			return err
		}
		l.Touch()
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "layaway items updated", "id", layawayID, "total_amount", l.TotalAmount)
	return l, nil
}

// Complete converts a fully paid layaway into a sale transaction using the
// frozen item list. Stock is deducted here, through the same path as a
// direct checkout; the layaway keeps the resulting transaction id.
func (s *Service) Complete(ctx context.Context, layawayID id.ID, completedBy string) (*sales.Receipt, error) {
	var receipt *sales.Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		l, err := s.repo.GetByID(ctx, layawayID)
		if err != nil {
			return err
		}
		switch l.Status {
		case StatusCompleted:
			return apperror.NewAlreadyCompleted(layawayID)
		case StatusCancelled:
			return apperror.NewInvalidStateTransition("layaway", string(l.Status), string(StatusCompleted))
		}
		if l.Balance.GreaterThan(types.ZeroMoney()) {
			return apperror.NewOutstandingBalance(layawayID, l.Balance)
		}

		lines := make([]sales.LineInput, 0, len(l.Items))
		for _, item := range l.Items {
			lines = append(lines, sales.LineInput{
				ProductID: item.ProductID,
				QtySold:   item.Qty,
				UnitPrice: item.UnitPrice,
			})
		}
		receipt, err = s.sales.RecordSale(ctx, sales.RecordInput{
			OutletID: l.OutletID,
			SoldBy:   completedBy,
			Lines:    lines,
		})
		if err != nil {
			return err
		}

		l.Status = StatusCompleted
		l.SaleTransactionID = receipt.TransactionID
		l.Touch()
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "layaway completed",
		"id", layawayID,
		"transaction_id", receipt.TransactionID,
		"total_amount", receipt.TotalAmount,
	)
	return receipt, nil
}

// Cancel closes an open layaway without touching stock.
func (s *Service) Cancel(ctx context.Context, layawayID id.ID) (*Layaway, error) {
	var l *Layaway
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.loadOpen(ctx, layawayID)
		if err != nil {
			return err
		}
		l.Status = StatusCancelled
		l.Touch()
		return s.repo.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "layaway cancelled", "id", layawayID)
	return l, nil
}

// GetByID retrieves one layaway.
func (s *Service) GetByID(ctx context.Context, layawayID id.ID) (*Layaway, error) {
	return s.repo.GetByID(ctx, layawayID)
}

// List returns layaways matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Layaway, error) {
	return s.repo.List(ctx, f)
}

// Stats summarizes layaway state for one outlet or the whole chain.
type Stats struct {
	Total              int         `json:"total"`
	PendingPayment     int         `json:"pendingPayment"`
	FullPaid           int         `json:"fullPaidPendingPickup"`
	Completed          int         `json:"completed"`
	Cancelled          int         `json:"cancelled"`
	OutstandingBalance types.Money `json:"outstandingBalance"`
	CollectedAmount    types.Money `json:"collectedAmount"`
}

// GetStats aggregates layaway counters.
func (s *Service) GetStats(ctx context.Context, outletID *id.ID) (*Stats, error) {
	layaways, err := s.repo.List(ctx, Filter{OutletID: outletID})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		OutstandingBalance: types.ZeroMoney(),
		CollectedAmount:    types.ZeroMoney(),
	}
	for _, l := range layaways {
		stats.Total++
		switch l.Status {
		case StatusPendingPayment:
			stats.PendingPayment++
			stats.OutstandingBalance = stats.OutstandingBalance.Add(l.Balance)
		case StatusFullPaid:
			stats.FullPaid++
		case StatusCompleted:
			stats.Completed++
		case StatusCancelled:
			stats.Cancelled++
		}
		stats.CollectedAmount = stats.CollectedAmount.Add(l.PaidAmount)
	}
	return stats, nil
}

// loadOpen loads a layaway and rejects terminal states.
func (s *Service) loadOpen(ctx context.Context, layawayID id.ID) (*Layaway, error) {
	l, err := s.repo.GetByID(ctx, layawayID)
	if err != nil {
		return nil, err
	}
	if !l.Status.Open() {
		if l.Status == StatusCompleted {
			return nil, apperror.NewAlreadyCompleted(layawayID)
		}
		return nil, apperror.NewInvalidStateTransition("layaway", string(l.Status), string(l.Status))
	}
	return l, nil
}

// freezeItems validates availability at the outlet and snapshots identity
// and price onto each item.
func (s *Service) freezeItems(ctx context.Context, outletID id.ID, items []ItemInput) ([]Item, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("layaway requires at least one item")
	}
	frozen := make([]Item, 0, len(items))
	for i, in := range items {
		if id.IsNil(in.ProductID) {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: product_id is required", i))
		}
		if !in.Qty.IsPositive() {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: qty must be positive", i))
		}
		if in.UnitPrice.IsNegative() {
			return nil, apperror.NewValidation(fmt.Sprintf("item %d: unit_price must not be negative", i))
		}

		row, err := s.ledger.GetOutletItem(ctx, outletID, in.ProductID)
		if err != nil {
			return nil, err
		}
		if row.Qty < in.Qty {
			return nil, apperror.NewInsufficientStock(in.ProductID.String(), in.Qty, row.Qty)
		}

		price := in.UnitPrice
		if price.IsZero() {
			price = row.UnitPrice
		}
		frozen = append(frozen, Item{
			ProductID: in.ProductID,
			SKU:       row.SKU,
			Name:      row.Name,
			Qty:       in.Qty,
			UnitPrice: price,
		})
	}
	return frozen, nil
}
