package loyalty_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-customer-ledger/loyalty"
	"github.com/goliatone/go-customer-ledger/model"
	"github.com/goliatone/go-customer-ledger/pkg/testsupport"
	"github.com/goliatone/go-customer-ledger/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func setup(t *testing.T) (*store.Store, *model.Customer) {
	t.Helper()

	s := store.New(testsupport.NewTestDB(t))
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c, err := s.CreateCustomer(context.Background(), &model.Customer{
		Name:  "milad",
		Email: "milad@example.com",
		Phone: "09120000000",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return s, c
}

func newTransaction(customerID uuid.UUID) *model.Transaction {
	return &model.Transaction{CustomerID: customerID, Amount: decimal.NewFromInt(100)}
}

func TestOnTransactionCreated_Increments(t *testing.T) {
	ctx := context.Background()
	s, c := setup(t)
	agg := loyalty.NewAggregator(nil)

	for i := 0; i < 3; i++ {
		if _, err := s.CreateTransaction(ctx, newTransaction(c.ID), agg.OnTransactionCreated); err != nil {
			t.Fatalf("create transaction %d: %v", i, err)
		}
	}

	got, err := s.GetCustomer(ctx, c.ID, false)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if got.LoyaltyScore != 3 {
		t.Errorf("expected loyalty score 3, got %d", got.LoyaltyScore)
	}
	if !got.UpdatedAt.After(c.UpdatedAt) && !got.UpdatedAt.Equal(c.UpdatedAt) {
		t.Errorf("expected updated_at to move forward, got %v", got.UpdatedAt)
	}
}

func TestOnTransactionCreated_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, c := setup(t)
	agg := loyalty.NewAggregator(nil)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateTransaction(ctx, newTransaction(c.ID), agg.OnTransactionCreated); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent create failed: %v", err)
	}

	got, err := s.GetCustomer(ctx, c.ID, false)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if got.LoyaltyScore != n {
		t.Errorf("expected loyalty score %d, got %d", n, got.LoyaltyScore)
	}
}

func TestLoyalty_NotDecremented(t *testing.T) {
	ctx := context.Background()
	s, c := setup(t)
	agg := loyalty.NewAggregator(nil)

	txn, err := s.CreateTransaction(ctx, newTransaction(c.ID), agg.OnTransactionCreated)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if _, err := s.SoftDeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("soft delete transaction: %v", err)
	}
	if _, err := s.RestoreTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("restore transaction: %v", err)
	}

	got, err := s.GetCustomer(ctx, c.ID, false)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if got.LoyaltyScore != 1 {
		t.Errorf("expected loyalty score to stay 1, got %d", got.LoyaltyScore)
	}
}

func TestLoyalty_CustomerUpdateKeepsScore(t *testing.T) {
	ctx := context.Background()
	s, c := setup(t)
	agg := loyalty.NewAggregator(nil)

	if _, err := s.CreateTransaction(ctx, newTransaction(c.ID), agg.OnTransactionCreated); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	// c is a stale copy with score 0
	c.Name = "renamed"
	updated, err := s.UpdateCustomer(ctx, c)
	if err != nil {
		t.Fatalf("update customer: %v", err)
	}
	if updated.LoyaltyScore != 1 {
		t.Errorf("expected update to keep loyalty score 1, got %d", updated.LoyaltyScore)
	}
}

func TestOnTransactionCreated_MissingCustomer(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	agg := loyalty.NewAggregator(nil)

	err := agg.OnTransactionCreated(ctx, s.DB(), newTransaction(uuid.New()))
	if !errors.Is(err, loyalty.ErrCustomerMissing) {
		t.Errorf("expected ErrCustomerMissing, got %v", err)
	}
}
