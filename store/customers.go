package store

import (
	"context"
	"time"

	"github.com/goliatone/go-customer-ledger/model"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListCustomers returns customers ordered by creation.
func (s *Store) ListCustomers(ctx context.Context, includeDeleted bool) ([]*model.Customer, error) {
	customers := make([]*model.Customer, 0)

	q := s.db.NewSelect().
		Model(&customers).
		OrderExpr("c.created_at ASC, c.id ASC")
	if includeDeleted {
		q = q.WhereAllWithDeleted()
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetCustomer loads a single customer, ErrNotFound when it is missing from the access path.
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Customer, error) {
	customer := new(model.Customer)

	q := s.db.NewSelect().
		Model(customer).
		Where("c.id = ?", id)
	if includeDeleted {
		q = q.WhereAllWithDeleted()
	}

	if err := q.Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return customer, nil
}

// EmailTaken reports whether any customer, deleted or not, other than
// exclude already uses email.
func (s *Store) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	q := s.db.NewSelect().
		Model((*model.Customer)(nil)).
		WhereAllWithDeleted().
		Where("lower(c.email) = lower(?)", email)
	if exclude != uuid.Nil {
		q = q.Where("c.id <> ?", exclude)
	}
	return q.Exists(ctx)
}

// CreateCustomer inserts a new customer with a zero loyalty score.
func (s *Store) CreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	now := s.now()
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.LoyaltyScore = 0
	customer.CreatedAt = now
	customer.UpdatedAt = now
	customer.DeletedAt = time.Time{}

	if _, err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, customer.ID, false)
}

// UpdateCustomer writes the editable fields of an active customer. The
// loyalty score column is never written here so concurrent increments are kept.
func (s *Store) UpdateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	if _, err := s.GetCustomer(ctx, customer.ID, false); err != nil {
		return nil, err
	}

	customer.UpdatedAt = s.now()
	if _, err := s.customers.Update(ctx, customer, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Column("name", "email", "phone", "updated_at")
	}); err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, customer.ID, false)
}

// SoftDeleteCustomer marks the customer and all of its transactions deleted
// with one shared timestamp, in a single database transaction.
func (s *Store) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (time.Time, error) {
	now := s.now()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*model.Customer)(nil)).
			Set("deleted_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		_, err = tx.NewUpdate().
			Model((*model.Transaction)(nil)).
			WhereAllWithDeleted().
			Set("deleted_at = ?", now).
			Where("customer_id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// RestoreCustomer clears the deletion mark of the customer and all of its
// transactions in a single database transaction.
func (s *Store) RestoreCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	now := s.now()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*model.Customer)(nil)).
			WhereDeleted().
			Set("deleted_at = NULL").
			Set("updated_at = ?", now).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		_, err = tx.NewUpdate().
			Model((*model.Transaction)(nil)).
			WhereAllWithDeleted().
			Set("deleted_at = NULL").
			Where("customer_id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, id, false)
}

// PurgeCustomer removes the customer row, its transactions go with it
// through the foreign key cascade.
func (s *Store) PurgeCustomer(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*model.Customer)(nil)).
		WhereAllWithDeleted().
		Where("id = ?", id).
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
