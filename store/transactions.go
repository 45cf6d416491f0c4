package store

import (
	"context"
	"time"

	"github.com/goliatone/go-customer-ledger/model"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListTransactions returns transactions ordered by date with their owning
// customer attached.
func (s *Store) ListTransactions(ctx context.Context, includeDeleted bool) ([]*model.Transaction, error) {
	return s.listTransactions(ctx, uuid.Nil, includeDeleted)
}

// ListCustomerTransactions returns the transactions owned by customerID.
func (s *Store) ListCustomerTransactions(ctx context.Context, customerID uuid.UUID, includeDeleted bool) ([]*model.Transaction, error) {
	return s.listTransactions(ctx, customerID, includeDeleted)
}

func (s *Store) listTransactions(ctx context.Context, customerID uuid.UUID, includeDeleted bool) ([]*model.Transaction, error) {
	txns := make([]*model.Transaction, 0)

	q := s.db.NewSelect().
		Model(&txns).
		OrderExpr("t.date ASC, t.id ASC")
	if customerID != uuid.Nil {
		q = q.Where("t.customer_id = ?", customerID)
	}
	if includeDeleted {
		q = q.WhereAllWithDeleted()
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if err := attachCustomers(ctx, s.db, txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// GetTransaction loads a single transaction with its owning customer.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Transaction, error) {
	txn := new(model.Transaction)

	q := s.db.NewSelect().
		Model(txn).
		Where("t.id = ?", id)
	if includeDeleted {
		q = q.WhereAllWithDeleted()
	}

	if err := q.Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	if err := attachCustomers(ctx, s.db, []*model.Transaction{txn}); err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateTransaction inserts txn for an active customer and runs hooks in the
// same database transaction. ErrNotFound when the customer is missing or deleted.
func (s *Store) CreateTransaction(ctx context.Context, txn *model.Transaction, hooks ...TransactionHook) (*model.Transaction, error) {
	now := s.now()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.Date.IsZero() {
		txn.Date = now
	}
	txn.Amount = txn.Amount.Round(model.AmountScale)
	txn.DeletedAt = time.Time{}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*model.Customer)(nil)).
			Where("c.id = ?", txn.CustomerID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		if _, err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
			return err
		}

		for _, hook := range hooks {
			if err := hook(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, txn.ID, false)
}

// SoftDeleteTransaction marks a single active transaction deleted. The owner's
// loyalty score is left untouched.
func (s *Store) SoftDeleteTransaction(ctx context.Context, id uuid.UUID) (time.Time, error) {
	now := s.now()

	res, err := s.db.NewUpdate().
		Model((*model.Transaction)(nil)).
		Set("deleted_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return time.Time{}, err
	}
	n, err := rowsAffected(res)
	if err != nil {
		return time.Time{}, err
	}
	if n == 0 {
		return time.Time{}, ErrNotFound
	}
	return now, nil
}

// RestoreTransaction clears the deletion mark of a single transaction. It
// fails with ErrParentDeleted while the owning customer is deleted.
func (s *Store) RestoreTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txn := new(model.Transaction)
		if err := tx.NewSelect().
			Model(txn).
			WhereDeleted().
			Where("t.id = ?", id).
			Scan(ctx); err != nil {
			return notFound(err)
		}

		active, err := tx.NewSelect().
			Model((*model.Customer)(nil)).
			Where("c.id = ?", txn.CustomerID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !active {
			return ErrParentDeleted
		}

		_, err = tx.NewUpdate().
			Model((*model.Transaction)(nil)).
			WhereDeleted().
			Set("deleted_at = NULL").
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, id, false)
}

// attachCustomers loads the owners of txns through the all-records path so
// admin listings of deleted transactions still carry customer details.
func attachCustomers(ctx context.Context, db bun.IDB, txns []*model.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(txns))
	ids := make([]uuid.UUID, 0, len(txns))
	for _, txn := range txns {
		if _, ok := seen[txn.CustomerID]; ok {
			continue
		}
		seen[txn.CustomerID] = struct{}{}
		ids = append(ids, txn.CustomerID)
	}

	customers := make([]*model.Customer, 0, len(ids))
	if err := db.NewSelect().
		Model(&customers).
		WhereAllWithDeleted().
		Where("c.id IN (?)", bun.In(ids)).
		Scan(ctx); err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*model.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	for _, txn := range txns {
		txn.Customer = byID[txn.CustomerID]
	}
	return nil
}
