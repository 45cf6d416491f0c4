package service

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-customer-ledger/cache"
	"github.com/goliatone/go-customer-ledger/model"
	"github.com/goliatone/go-customer-ledger/responsecache"
	"github.com/goliatone/go-customer-ledger/search"
	"github.com/goliatone/go-customer-ledger/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const duplicateEmailMessage = "customer with this email already exists."

var (
	// CustomerResource names the customer cache keys: customers_list and customer_<id>.
	CustomerResource = cache.ResourceOf[model.Customer]()
	// TransactionResource names the transaction cache keys: transactions_list and transaction_<id>.
	TransactionResource = cache.ResourceOf[model.Transaction]()
)

// CustomerStore is the part of the record store the customer service uses.
type CustomerStore interface {
	ListCustomers(ctx context.Context, includeDeleted bool) ([]*model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID, includeDeleted bool) (*model.Customer, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	CreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (time.Time, error)
	RestoreCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	PurgeCustomer(ctx context.Context, id uuid.UUID) error
}

// Notifier receives change notifications for the search mirror.
type Notifier interface {
	NotifyCustomer(id uuid.UUID) bool
	NotifyTransaction(id uuid.UUID) bool
}

// Customers orchestrates customer reads and writes.
type Customers struct {
	store    CustomerStore
	cache    *responsecache.Layer
	mirror   search.Mirror
	notifier Notifier
	logger   *zap.Logger
}

// NewCustomers creates the customer service.
func NewCustomers(s CustomerStore, layer *responsecache.Layer, mirror search.Mirror, notifier Notifier, logger *zap.Logger) *Customers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Customers{
		store:    s,
		cache:    layer,
		mirror:   mirror,
		notifier: notifier,
		logger:   logger.Named("customers"),
	}
}

// List returns the serialized list of active customers, cached.
func (s *Customers) List(ctx context.Context) ([]byte, error) {
	return s.cache.List(ctx, CustomerResource, func(ctx context.Context) ([]byte, error) {
		customers, err := s.store.ListCustomers(ctx, false)
		if err != nil {
			return nil, storeError(err, "Customer")
		}
		return marshal(customerList(customers, false))
	})
}

// Get returns the serialized detail of an active customer, cached.
func (s *Customers) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.cache.Detail(ctx, CustomerResource, id, func(ctx context.Context) ([]byte, error) {
		c, err := s.store.GetCustomer(ctx, id, false)
		if err != nil {
			return nil, storeError(err, "Customer")
		}
		return marshal(NewCustomerView(c, false))
	})
}

// Create validates in and stores a new customer.
func (s *Customers) Create(ctx context.Context, in CustomerInput) (CustomerView, error) {
	in = in.normalized()
	if err := s.validate(ctx, in, uuid.Nil); err != nil {
		return CustomerView{}, err
	}

	c, err := s.store.CreateCustomer(ctx, &model.Customer{
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return CustomerView{}, fieldError("email", duplicateEmailMessage)
		}
		return CustomerView{}, storeError(err, "Customer")
	}

	s.cache.InvalidateAfterCreate(ctx, CustomerResource)
	s.notifier.NotifyCustomer(c.ID)

	s.logger.Info("customer created", zap.String("id", c.ID.String()))
	return NewCustomerView(c, false), nil
}

// Update replaces the editable fields of an active customer.
func (s *Customers) Update(ctx context.Context, id uuid.UUID, in CustomerInput) (CustomerView, error) {
	if _, err := s.store.GetCustomer(ctx, id, false); err != nil {
		return CustomerView{}, storeError(err, "Customer")
	}

	in = in.normalized()
	if err := s.validate(ctx, in, id); err != nil {
		return CustomerView{}, err
	}

	c, err := s.store.UpdateCustomer(ctx, &model.Customer{
		ID:    id,
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return CustomerView{}, fieldError("email", duplicateEmailMessage)
		}
		return CustomerView{}, storeError(err, "Customer")
	}

	s.cache.InvalidateAfterUpdate(ctx, CustomerResource, id)
	s.notifier.NotifyCustomer(id)

	return NewCustomerView(c, false), nil
}

// Delete soft-deletes the customer and its transactions. Transaction cache
// entries are left to expire.
func (s *Customers) Delete(ctx context.Context, id uuid.UUID) error {
	deletedAt, err := s.store.SoftDeleteCustomer(ctx, id)
	if err != nil {
		return storeError(err, "Customer")
	}

	s.cache.InvalidateAfterDelete(ctx, CustomerResource, id)
	s.notifier.NotifyCustomer(id)

	s.logger.Info("customer deleted",
		zap.String("id", id.String()),
		zap.Time("deleted_at", deletedAt),
	)
	return nil
}

// Search queries the search mirror. An empty query yields search.ErrEmptyQuery.
func (s *Customers) Search(ctx context.Context, query string) (ListView[CustomerHit], error) {
	docs, err := s.mirror.SearchCustomers(ctx, query)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return ListView[CustomerHit]{}, err
		}
		return ListView[CustomerHit]{}, internalError(err, "customer search failed")
	}
	return customerHits(docs), nil
}

// ListAll returns every customer including soft-deleted ones. Never cached.
func (s *Customers) ListAll(ctx context.Context) ([]byte, error) {
	customers, err := s.store.ListCustomers(ctx, true)
	if err != nil {
		return nil, storeError(err, "Customer")
	}
	return marshal(customerList(customers, true))
}

// Restore brings a soft-deleted customer and its transactions back.
func (s *Customers) Restore(ctx context.Context, id uuid.UUID) (CustomerView, error) {
	c, err := s.store.RestoreCustomer(ctx, id)
	if err != nil {
		return CustomerView{}, storeError(err, "Customer")
	}

	s.cache.InvalidateAfterRestore(ctx, CustomerResource, id)
	s.notifier.NotifyCustomer(id)

	s.logger.Info("customer restored", zap.String("id", id.String()))
	return NewCustomerView(c, false), nil
}

// Purge hard-deletes the customer, its transactions go with it.
func (s *Customers) Purge(ctx context.Context, id uuid.UUID) error {
	if err := s.store.PurgeCustomer(ctx, id); err != nil {
		return storeError(err, "Customer")
	}

	s.cache.InvalidateAfterDelete(ctx, CustomerResource, id)
	s.notifier.NotifyCustomer(id)

	s.logger.Warn("customer purged", zap.String("id", id.String()))
	return nil
}

func (s *Customers) validate(ctx context.Context, in CustomerInput, exclude uuid.UUID) error {
	if err := in.Validate(); err != nil {
		return wrapValidation(err)
	}

	taken, err := s.store.EmailTaken(ctx, in.Email, exclude)
	if err != nil {
		return storeError(err, "Customer")
	}
	if taken {
		return fieldError("email", duplicateEmailMessage)
	}
	return nil
}
