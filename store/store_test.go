package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-customer-ledger/model"
	"github.com/goliatone/go-customer-ledger/pkg/testsupport"
	"github.com/goliatone/go-customer-ledger/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New(testsupport.NewTestDB(t))
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func createCustomer(t *testing.T, s *store.Store, name, email string) *model.Customer {
	t.Helper()

	c, err := s.CreateCustomer(context.Background(), &model.Customer{
		Name:  name,
		Email: email,
		Phone: "09120000000",
	})
	if err != nil {
		t.Fatalf("create customer %s: %v", name, err)
	}
	return c
}

func createTransaction(t *testing.T, s *store.Store, customerID uuid.UUID, amount string) *model.Transaction {
	t.Helper()

	txn, err := s.CreateTransaction(context.Background(), &model.Transaction{
		CustomerID: customerID,
		Amount:     decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return txn
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestCreateCustomer_Defaults(t *testing.T) {
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")

	if c.ID == uuid.Nil {
		t.Error("expected an id to be assigned")
	}
	if c.LoyaltyScore != 0 {
		t.Errorf("expected loyalty score 0, got %d", c.LoyaltyScore)
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if c.IsDeleted() {
		t.Error("new customer should be active")
	}
}

func TestCreateCustomer_DuplicateEmailRejected(t *testing.T) {
	s := newStore(t)
	createCustomer(t, s, "milad", "milad@example.com")

	_, err := s.CreateCustomer(context.Background(), &model.Customer{
		Name:  "other",
		Email: "milad@example.com",
		Phone: "1",
	})
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
	if !store.IsUniqueViolation(err) {
		t.Errorf("expected IsUniqueViolation to recognise %v", err)
	}
	if store.IsUniqueViolation(errors.New("other")) {
		t.Error("expected plain errors not to be unique violations")
	}
}

func TestEmailTaken_IncludesDeleted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")

	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	taken, err := s.EmailTaken(ctx, "MILAD@example.com", uuid.Nil)
	if err != nil {
		t.Fatalf("email taken: %v", err)
	}
	if !taken {
		t.Error("expected email of a deleted customer to stay reserved")
	}

	taken, err = s.EmailTaken(ctx, "milad@example.com", c.ID)
	if err != nil {
		t.Fatalf("email taken: %v", err)
	}
	if taken {
		t.Error("expected own email to be excluded")
	}
}

func TestUpdateCustomer_WritesEditableFields(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	createdAt := c.CreatedAt

	c.Name = "milad updated"
	c.Phone = "555"
	c.CreatedAt = createdAt.Add(-time.Hour)
	updated, err := s.UpdateCustomer(ctx, c)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "milad updated" || updated.Phone != "555" {
		t.Errorf("expected editable fields to change, got %q %q", updated.Name, updated.Phone)
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Errorf("expected created_at to stay %v, got %v", createdAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.Before(createdAt) {
		t.Errorf("expected updated_at to be refreshed, got %v", updated.UpdatedAt)
	}
}

func TestUpdateCustomer_Deleted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	c.Name = "ghost"
	if _, err := s.UpdateCustomer(ctx, c); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteCustomer_CascadesWithSameTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	createTransaction(t, s, c.ID, "110000")
	createTransaction(t, s, c.ID, "19.99")
	other := createCustomer(t, s, "sara", "sara@example.com")
	createTransaction(t, s, other.ID, "5")

	deletedAt, err := s.SoftDeleteCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := s.GetCustomer(ctx, c.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected deleted customer hidden from default path, got %v", err)
	}

	stored, err := s.GetCustomer(ctx, c.ID, true)
	if err != nil {
		t.Fatalf("get with deleted: %v", err)
	}
	if !stored.DeletedAt.Equal(deletedAt) {
		t.Errorf("expected customer deleted_at %v, got %v", deletedAt, stored.DeletedAt)
	}

	all, err := s.ListCustomerTransactions(ctx, c.ID, true)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(all))
	}
	for _, txn := range all {
		if !txn.DeletedAt.Equal(deletedAt) {
			t.Errorf("transaction %s: expected deleted_at %v, got %v", txn.ID, deletedAt, txn.DeletedAt)
		}
	}

	active, err := s.ListTransactions(ctx, false)
	if err != nil {
		t.Fatalf("list active transactions: %v", err)
	}
	if len(active) != 1 || active[0].CustomerID != other.ID {
		t.Errorf("expected only the other customer's transaction, got %d", len(active))
	}
}

func TestSoftDeleteCustomer_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if _, err := s.SoftDeleteCustomer(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing customer, got %v", err)
	}

	c := createCustomer(t, s, "milad", "milad@example.com")
	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := s.SoftDeleteCustomer(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for already deleted customer, got %v", err)
	}
}

func TestRestoreCustomer_RestoresTransactions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	createTransaction(t, s, c.ID, "10")

	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	restored, err := s.RestoreCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.IsDeleted() {
		t.Error("expected restored customer to be active")
	}

	txns, err := s.ListCustomerTransactions(ctx, c.ID, false)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("expected transaction to be restored, got %d active", len(txns))
	}

	if _, err := s.RestoreCustomer(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound restoring an active customer, got %v", err)
	}
}

func TestPurgeCustomer_CascadesTransactions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	txn := createTransaction(t, s, c.ID, "10")

	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := s.PurgeCustomer(ctx, c.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if _, err := s.GetCustomer(ctx, c.ID, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected purged customer to be gone, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, txn.ID, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected transaction removed by cascade, got %v", err)
	}
	if err := s.PurgeCustomer(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound purging twice, got %v", err)
	}
}

func TestCreateTransaction_Defaults(t *testing.T) {
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")

	txn := createTransaction(t, s, c.ID, "110000")

	if txn.AmountString() != "110000.00" {
		t.Errorf("expected amount 110000.00, got %s", txn.AmountString())
	}
	if txn.Date.IsZero() {
		t.Error("expected date to default to creation time")
	}
	if txn.Description != "" {
		t.Errorf("expected empty description, got %q", txn.Description)
	}
	if txn.Customer == nil || txn.Customer.ID != c.ID {
		t.Fatal("expected owning customer to be attached")
	}
}

func TestCreateTransaction_CustomerMissingOrDeleted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateTransaction(ctx, &model.Transaction{CustomerID: uuid.New(), Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing customer, got %v", err)
	}

	c := createCustomer(t, s, "milad", "milad@example.com")
	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	_, err = s.CreateTransaction(ctx, &model.Transaction{CustomerID: c.ID, Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted customer, got %v", err)
	}
}

func TestCreateTransaction_HookRunsInTransaction(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")

	var calls int
	hook := func(ctx context.Context, db bun.IDB, txn *model.Transaction) error {
		calls++
		if txn.CustomerID != c.ID {
			t.Errorf("hook received transaction for %s", txn.CustomerID)
		}
		return nil
	}

	if _, err := s.CreateTransaction(ctx, &model.Transaction{CustomerID: c.ID, Amount: decimal.NewFromInt(3)}, hook); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected hook to run once, ran %d times", calls)
	}
}

func TestCreateTransaction_HookErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")

	boom := errors.New("boom")
	hook := func(ctx context.Context, db bun.IDB, txn *model.Transaction) error {
		return boom
	}

	_, err := s.CreateTransaction(ctx, &model.Transaction{CustomerID: c.ID, Amount: decimal.NewFromInt(3)}, hook)
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}

	txns, err := s.ListTransactions(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("expected insert to be rolled back, found %d transactions", len(txns))
	}
}

func TestSoftDeleteAndRestoreTransaction(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	txn := createTransaction(t, s, c.ID, "42.5")

	if _, err := s.SoftDeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("soft delete transaction: %v", err)
	}
	if _, err := s.GetTransaction(ctx, txn.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected deleted transaction hidden, got %v", err)
	}
	if _, err := s.SoftDeleteTransaction(ctx, txn.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}

	restored, err := s.RestoreTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("restore transaction: %v", err)
	}
	if restored.AmountString() != "42.50" {
		t.Errorf("expected amount 42.50, got %s", restored.AmountString())
	}
}

func TestRestoreTransaction_ParentDeleted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	txn := createTransaction(t, s, c.ID, "1")

	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := s.RestoreTransaction(ctx, txn.ID); !errors.Is(err, store.ErrParentDeleted) {
		t.Errorf("expected ErrParentDeleted, got %v", err)
	}
}

func TestListTransactions_AttachesDeletedOwners(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := createCustomer(t, s, "milad", "milad@example.com")
	createTransaction(t, s, c.ID, "1")

	if _, err := s.SoftDeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	txns, err := s.ListTransactions(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Customer == nil || txns[0].Customer.Email != "milad@example.com" {
		t.Error("expected deleted owner to be attached on the all-records path")
	}
}
