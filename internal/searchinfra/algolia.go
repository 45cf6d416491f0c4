// Package searchinfra adapts hosted search engines to the search.Backend contract.
package searchinfra

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	ledgersearch "github.com/goliatone/go-customer-ledger/search"
	"go.uber.org/zap"
)

const (
	activeFilter   = "deleted_at = 0"
	maxHitsPerPage = 1000
)

var _ ledgersearch.Backend = (*AlgoliaBackend)(nil)

// AlgoliaConfig names the application and indices used by AlgoliaBackend.
type AlgoliaConfig struct {
	AppID             string
	APIKey            string
	CustomersIndex    string
	TransactionsIndex string
}

// Validate checks the required settings.
func (c AlgoliaConfig) Validate() error {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, "AppID")
	}
	if c.APIKey == "" {
		missing = append(missing, "APIKey")
	}
	if c.CustomersIndex == "" {
		missing = append(missing, "CustomersIndex")
	}
	if c.TransactionsIndex == "" {
		missing = append(missing, "TransactionsIndex")
	}
	if len(missing) > 0 {
		return fmt.Errorf("algolia: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// IndexOpener returns the index with the given name.
type IndexOpener func(name string) search.IndexInterface

// AlgoliaBackend stores documents in Algolia indices. Transaction orderings
// other than the default read from replica indices named
// <transactions index>_<field>_<asc|desc>, which must be configured with the
// matching sort ranking.
type AlgoliaBackend struct {
	config       AlgoliaConfig
	open         IndexOpener
	customers    search.IndexInterface
	transactions search.IndexInterface
	logger       *zap.Logger
}

// NewAlgoliaBackend connects to Algolia with cfg.
func NewAlgoliaBackend(cfg AlgoliaConfig, logger *zap.Logger) (*AlgoliaBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := search.NewClientWithConfig(search.Configuration{
		AppID:  cfg.AppID,
		APIKey: cfg.APIKey,
	})

	return NewAlgoliaBackendWithOpener(cfg, func(name string) search.IndexInterface {
		return client.InitIndex(name)
	}, logger), nil
}

// NewAlgoliaBackendWithOpener builds a backend over indices returned by open.
func NewAlgoliaBackendWithOpener(cfg AlgoliaConfig, open IndexOpener, logger *zap.Logger) *AlgoliaBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlgoliaBackend{
		config:       cfg,
		open:         open,
		customers:    open(cfg.CustomersIndex),
		transactions: open(cfg.TransactionsIndex),
		logger:       logger.Named("algolia"),
	}
}

func (a *AlgoliaBackend) SaveCustomers(_ context.Context, docs ...ledgersearch.CustomerDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := a.customers.SaveObjects(docs); err != nil {
		return fmt.Errorf("algolia: save customers: %w", err)
	}
	return nil
}

func (a *AlgoliaBackend) SaveTransactions(_ context.Context, docs ...ledgersearch.TransactionDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := a.transactions.SaveObjects(docs); err != nil {
		return fmt.Errorf("algolia: save transactions: %w", err)
	}
	return nil
}

func (a *AlgoliaBackend) DeleteCustomer(_ context.Context, id string) error {
	if _, err := a.customers.DeleteObject(id); err != nil {
		return fmt.Errorf("algolia: delete customer %s: %w", id, err)
	}
	if _, err := a.transactions.DeleteBy(opt.Filters(fmt.Sprintf("customer.id:%q", id))); err != nil {
		return fmt.Errorf("algolia: delete transactions of %s: %w", id, err)
	}
	return nil
}

func (a *AlgoliaBackend) DeleteTransaction(_ context.Context, id string) error {
	if _, err := a.transactions.DeleteObject(id); err != nil {
		return fmt.Errorf("algolia: delete transaction %s: %w", id, err)
	}
	return nil
}

func (a *AlgoliaBackend) SearchCustomers(_ context.Context, text string) ([]ledgersearch.CustomerDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ledgersearch.ErrEmptyQuery
	}

	res, err := a.customers.Search(text,
		opt.Filters(activeFilter),
		opt.RestrictSearchableAttributes("name", "email"),
		opt.HitsPerPage(maxHitsPerPage),
	)
	if err != nil {
		return nil, fmt.Errorf("algolia: search customers: %w", err)
	}

	docs := make([]ledgersearch.CustomerDocument, 0)
	if err := res.UnmarshalHits(&docs); err != nil {
		return nil, fmt.Errorf("algolia: decode customer hits: %w", err)
	}
	return docs, nil
}

func (a *AlgoliaBackend) SearchTransactions(_ context.Context, q ledgersearch.TransactionQuery) ([]ledgersearch.TransactionDocument, error) {
	index := a.transactionIndexFor(q.Orderings)

	res, err := index.Search(q.Text,
		opt.Filters(TransactionFilters(q.Filters)),
		opt.HitsPerPage(maxHitsPerPage),
	)
	if err != nil {
		return nil, fmt.Errorf("algolia: search transactions: %w", err)
	}

	docs := make([]ledgersearch.TransactionDocument, 0)
	if err := res.UnmarshalHits(&docs); err != nil {
		return nil, fmt.Errorf("algolia: decode transaction hits: %w", err)
	}
	return docs, nil
}

// ReplicaName returns the index holding transactions sorted by o.
func ReplicaName(primary string, o ledgersearch.Ordering) string {
	dir := "asc"
	if o.Desc {
		dir = "desc"
	}
	return primary + "_" + o.Field + "_" + dir
}

// transactionIndexFor picks the replica of the primary ordering. Algolia
// sorts by one replica ranking, so secondary orderings are ignored.
func (a *AlgoliaBackend) transactionIndexFor(orderings []ledgersearch.Ordering) search.IndexInterface {
	if len(orderings) == 0 || orderings[0] == ledgersearch.DefaultOrdering {
		return a.transactions
	}
	if len(orderings) > 1 {
		a.logger.Debug("ignoring secondary transaction orderings", zap.Int("count", len(orderings)-1))
	}
	return a.open(ReplicaName(a.config.TransactionsIndex, orderings[0]))
}

// TransactionFilters renders filters as an Algolia numeric filter expression
// restricted to active documents.
func TransactionFilters(filters []ledgersearch.Filter) string {
	parts := []string{activeFilter}
	for _, f := range filters {
		if f.Lower != nil {
			op := ">"
			if f.Lower.Inclusive {
				op = ">="
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", f.Field, op, formatNumber(f.Lower.Value)))
		}
		if f.Upper != nil {
			op := "<"
			if f.Upper.Inclusive {
				op = "<="
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", f.Field, op, formatNumber(f.Upper.Value)))
		}
	}
	return strings.Join(parts, " AND ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
