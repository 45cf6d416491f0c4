package search

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-customer-ledger/model"
	"github.com/goliatone/go-customer-ledger/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQueueSize bounds the number of pending index events.
const DefaultQueueSize = 1024

// ErrIndexerClosed is returned by Flush after Close.
var ErrIndexerClosed = errors.New("search: indexer closed")

// Entity names the kind of record an Event refers to.
type Entity string

const (
	EntityCustomer    Entity = "customer"
	EntityTransaction Entity = "transaction"
)

// Event asks the indexer to resynchronise one record.
type Event struct {
	Entity Entity
	ID     uuid.UUID

	barrier chan struct{}
}

// Source reads records from the source of truth, deleted ones included.
type Source interface {
	GetCustomer(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Customer, error)
	GetTransaction(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Transaction, error)
	ListCustomers(ctx context.Context, includeDeleted bool) ([]*model.Customer, error)
	ListTransactions(ctx context.Context, includeDeleted bool) ([]*model.Transaction, error)
	ListCustomerTransactions(ctx context.Context, customerID uuid.UUID, includeDeleted bool) ([]*model.Transaction, error)
}

// Indexer copies records into a search Writer on a single background worker.
// Notify never blocks the caller: when the queue is full the event is
// dropped and logged, Rebuild brings the mirror back in line.
type Indexer struct {
	source Source
	writer Writer
	logger *zap.Logger

	queue chan Event
	done  chan struct{}

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewIndexer creates an Indexer. Start must be called before events are processed.
func NewIndexer(source Source, writer Writer, logger *zap.Logger, queueSize int) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Indexer{
		source: source,
		writer: writer,
		logger: logger.Named("indexer"),
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the worker. Calling it more than once has no effect.
func (i *Indexer) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.closed {
		return
	}
	i.started = true

	go i.run(context.WithoutCancel(ctx))
}

func (i *Indexer) run(ctx context.Context) {
	defer close(i.done)

	for ev := range i.queue {
		if ev.barrier != nil {
			close(ev.barrier)
			continue
		}
		if err := i.Sync(ctx, ev); err != nil {
			i.logger.Error("index sync failed",
				zap.String("entity", string(ev.Entity)),
				zap.String("id", ev.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// Notify enqueues ev and reports whether it was accepted.
func (i *Indexer) Notify(ev Event) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return false
	}

	select {
	case i.queue <- ev:
		return true
	default:
		i.logger.Warn("index queue full, dropping event",
			zap.String("entity", string(ev.Entity)),
			zap.String("id", ev.ID.String()),
		)
		return false
	}
}

// NotifyCustomer enqueues a resync of the customer with id.
func (i *Indexer) NotifyCustomer(id uuid.UUID) bool {
	return i.Notify(Event{Entity: EntityCustomer, ID: id})
}

// NotifyTransaction enqueues a resync of the transaction with id.
func (i *Indexer) NotifyTransaction(id uuid.UUID) bool {
	return i.Notify(Event{Entity: EntityTransaction, ID: id})
}

// Flush waits until every event accepted before the call has been processed.
func (i *Indexer) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	i.mu.RLock()
	if i.closed {
		i.mu.RUnlock()
		return ErrIndexerClosed
	}
	select {
	case i.queue <- Event{barrier: barrier}:
	case <-ctx.Done():
		i.mu.RUnlock()
		return ctx.Err()
	}
	i.mu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for the queued ones to be processed.
func (i *Indexer) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	started := i.started
	close(i.queue)
	i.mu.Unlock()

	if started {
		<-i.done
	}
	return nil
}

// Sync resynchronises the record named by ev right away.
func (i *Indexer) Sync(ctx context.Context, ev Event) error {
	switch ev.Entity {
	case EntityCustomer:
		return i.syncCustomer(ctx, ev.ID)
	case EntityTransaction:
		return i.syncTransaction(ctx, ev.ID)
	}
	return errors.New("search: unknown entity " + string(ev.Entity))
}

// syncCustomer refreshes the customer and the summaries embedded in its transactions.
func (i *Indexer) syncCustomer(ctx context.Context, id uuid.UUID) error {
	c, err := i.source.GetCustomer(ctx, id, true)
	if errors.Is(err, store.ErrNotFound) {
		return i.writer.DeleteCustomer(ctx, id.String())
	}
	if err != nil {
		return err
	}

	if err := i.writer.SaveCustomers(ctx, NewCustomerDocument(c)); err != nil {
		return err
	}

	txns, err := i.source.ListCustomerTransactions(ctx, id, true)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return nil
	}
	return i.writer.SaveTransactions(ctx, transactionDocuments(txns)...)
}

// syncTransaction refreshes the transaction and its owner, whose loyalty
// score changes with every creation.
func (i *Indexer) syncTransaction(ctx context.Context, id uuid.UUID) error {
	txn, err := i.source.GetTransaction(ctx, id, true)
	if errors.Is(err, store.ErrNotFound) {
		return i.writer.DeleteTransaction(ctx, id.String())
	}
	if err != nil {
		return err
	}

	if err := i.writer.SaveTransactions(ctx, NewTransactionDocument(txn)); err != nil {
		return err
	}
	if txn.Customer == nil {
		return nil
	}
	return i.writer.SaveCustomers(ctx, NewCustomerDocument(txn.Customer))
}

// Rebuild rewrites every document from the source of truth.
func (i *Indexer) Rebuild(ctx context.Context) error {
	customers, err := i.source.ListCustomers(ctx, true)
	if err != nil {
		return err
	}
	docs := make([]CustomerDocument, 0, len(customers))
	for _, c := range customers {
		docs = append(docs, NewCustomerDocument(c))
	}
	if len(docs) > 0 {
		if err := i.writer.SaveCustomers(ctx, docs...); err != nil {
			return err
		}
	}

	txns, err := i.source.ListTransactions(ctx, true)
	if err != nil {
		return err
	}
	if len(txns) > 0 {
		if err := i.writer.SaveTransactions(ctx, transactionDocuments(txns)...); err != nil {
			return err
		}
	}

	i.logger.Info("search index rebuilt",
		zap.Int("customers", len(docs)),
		zap.Int("transactions", len(txns)),
	)
	return nil
}

func transactionDocuments(txns []*model.Transaction) []TransactionDocument {
	docs := make([]TransactionDocument, 0, len(txns))
	for _, t := range txns {
		docs = append(docs, NewTransactionDocument(t))
	}
	return docs
}
