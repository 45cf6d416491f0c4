package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/goliatone/go-customer-ledger/model"
	"github.com/goliatone/go-customer-ledger/responsecache"
	"github.com/goliatone/go-customer-ledger/search"
	"github.com/goliatone/go-customer-ledger/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionStore is the part of the record store the transaction service uses.
type TransactionStore interface {
	ListTransactions(ctx context.Context, includeDeleted bool) ([]*model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction, hooks ...store.TransactionHook) (*model.Transaction, error)
	SoftDeleteTransaction(ctx context.Context, id uuid.UUID) (time.Time, error)
	RestoreTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
}

// Transactions orchestrates transaction reads and writes.
type Transactions struct {
	store     TransactionStore
	cache     *responsecache.Layer
	mirror    search.Mirror
	notifier  Notifier
	onCreated store.TransactionHook
	logger    *zap.Logger
}

// NewTransactions creates the transaction service. onCreated runs inside the
// creating database transaction, it is how the loyalty score is kept.
func NewTransactions(s TransactionStore, layer *responsecache.Layer, mirror search.Mirror, notifier Notifier, onCreated store.TransactionHook, logger *zap.Logger) *Transactions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transactions{
		store:     s,
		cache:     layer,
		mirror:    mirror,
		notifier:  notifier,
		onCreated: onCreated,
		logger:    logger.Named("transactions"),
	}
}

// List returns the serialized list of active transactions, cached.
func (s *Transactions) List(ctx context.Context) ([]byte, error) {
	return s.cache.List(ctx, TransactionResource, func(ctx context.Context) ([]byte, error) {
		txns, err := s.store.ListTransactions(ctx, false)
		if err != nil {
			return nil, storeError(err, "Transaction")
		}
		return marshal(transactionList(txns, false))
	})
}

// Get returns the serialized detail of an active transaction, cached.
func (s *Transactions) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.cache.Detail(ctx, TransactionResource, id, func(ctx context.Context) ([]byte, error) {
		txn, err := s.store.GetTransaction(ctx, id, false)
		if err != nil {
			return nil, storeError(err, "Transaction")
		}
		return marshal(NewTransactionView(txn, false))
	})
}

// Create stores a transaction for an active customer and bumps its loyalty
// score in the same database transaction. Only the transaction list is
// invalidated: the cached customer detail keeps its old score until it
// expires.
func (s *Transactions) Create(ctx context.Context, customerID uuid.UUID, in TransactionInput) (TransactionView, error) {
	if err := in.Validate(); err != nil {
		return TransactionView{}, wrapValidation(err)
	}

	txn := in.model()
	txn.CustomerID = customerID

	var hooks []store.TransactionHook
	if s.onCreated != nil {
		hooks = append(hooks, s.onCreated)
	}

	created, err := s.store.CreateTransaction(ctx, txn, hooks...)
	if err != nil {
		return TransactionView{}, storeError(err, "Customer")
	}

	s.cache.InvalidateAfterCreate(ctx, TransactionResource)
	s.notifier.NotifyTransaction(created.ID)

	s.logger.Info("transaction created",
		zap.String("id", created.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("amount", created.AmountString()),
	)
	return NewTransactionView(created, false), nil
}

// Search parses the filter parameters and queries the search mirror.
func (s *Transactions) Search(ctx context.Context, params url.Values) (ListView[TransactionHit], error) {
	q, err := search.ParseTransactionQuery(params)
	if err != nil {
		var qe *search.QueryError
		if errors.As(err, &qe) {
			return ListView[TransactionHit]{}, fieldError(qe.Param, qe.Reason)
		}
		return ListView[TransactionHit]{}, internalError(err, "invalid transaction query")
	}

	docs, err := s.mirror.SearchTransactions(ctx, q)
	if err != nil {
		return ListView[TransactionHit]{}, internalError(err, "transaction search failed")
	}
	return transactionHits(docs), nil
}

// ListAll returns every transaction including soft-deleted ones. Never cached.
func (s *Transactions) ListAll(ctx context.Context) ([]byte, error) {
	txns, err := s.store.ListTransactions(ctx, true)
	if err != nil {
		return nil, storeError(err, "Transaction")
	}
	return marshal(transactionList(txns, true))
}

// Delete soft-deletes a single transaction. The owner's loyalty score is kept.
func (s *Transactions) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.SoftDeleteTransaction(ctx, id); err != nil {
		return storeError(err, "Transaction")
	}

	s.cache.InvalidateAfterDelete(ctx, TransactionResource, id)
	s.notifier.NotifyTransaction(id)
	return nil
}

// Restore brings a soft-deleted transaction back.
func (s *Transactions) Restore(ctx context.Context, id uuid.UUID) (TransactionView, error) {
	txn, err := s.store.RestoreTransaction(ctx, id)
	if err != nil {
		return TransactionView{}, storeError(err, "Transaction")
	}

	s.cache.InvalidateAfterRestore(ctx, TransactionResource, id)
	s.notifier.NotifyTransaction(id)
	return NewTransactionView(txn, false), nil
}
