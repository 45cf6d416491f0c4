package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-customer-ledger/model"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a record is missing from the requested access path.
	ErrNotFound = errors.New("store: record not found")
	// ErrParentDeleted is returned when restoring a transaction of a soft-deleted customer.
	ErrParentDeleted = errors.New("store: owning customer is deleted")
)

// TransactionHook runs inside the database transaction that creates txn.
// A hook error rolls the creation back.
type TransactionHook func(ctx context.Context, db bun.IDB, txn *model.Transaction) error

// Store is the record store for customers and transactions. Every read takes
// an includeDeleted flag: false is the default access path (active rows
// only), true is the all-records path used by admin and sync tooling.
type Store struct {
	db           *bun.DB
	customers    repository.Repository[*model.Customer]
	transactions repository.Repository[*model.Transaction]
	now          func() time.Time
}

// New creates a Store on top of db.
func New(db *bun.DB) *Store {
	return &Store{
		db:           db,
		customers:    NewCustomerRepository(db),
		transactions: NewTransactionRepository(db),
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// NewCustomerRepository returns the generic bun repository for customers.
func NewCustomerRepository(db *bun.DB) repository.Repository[*model.Customer] {
	return repository.NewRepository[*model.Customer](db, repository.ModelHandlers[*model.Customer]{
		NewRecord: func() *model.Customer {
			return &model.Customer{}
		},
		GetID: func(record *model.Customer) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *model.Customer, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	})
}

// NewTransactionRepository returns the generic bun repository for transactions.
func NewTransactionRepository(db *bun.DB) repository.Repository[*model.Transaction] {
	return repository.NewRepository[*model.Transaction](db, repository.ModelHandlers[*model.Transaction]{
		NewRecord: func() *model.Transaction {
			return &model.Transaction{}
		},
		GetID: func(record *model.Transaction) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *model.Transaction, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
	})
}

// DB exposes the underlying handle.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*model.Customer)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create customers table: %w", err)
	}

	if _, err := s.db.NewCreateTable().
		Model((*model.Transaction)(nil)).
		IfNotExists().
		ForeignKey(`("customer_id") REFERENCES "customers" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*model.Customer)(nil), "customers_deleted_at_idx", "deleted_at"},
		{(*model.Transaction)(nil), "transactions_deleted_at_idx", "deleted_at"},
		{(*model.Transaction)(nil), "transactions_customer_id_idx", "customer_id"},
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
