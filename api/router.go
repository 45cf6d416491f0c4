// Package api exposes the customer ledger over HTTP.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-customer-ledger/responsecache"
	"github.com/goliatone/go-customer-ledger/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService is what the customer handlers need.
type CustomerService interface {
	List(ctx context.Context) ([]byte, error)
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)
	Create(ctx context.Context, in service.CustomerInput) (service.CustomerView, error)
	Update(ctx context.Context, id uuid.UUID, in service.CustomerInput) (service.CustomerView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) (service.ListView[service.CustomerHit], error)
	ListAll(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, id uuid.UUID) (service.CustomerView, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

// TransactionService is what the transaction handlers need.
type TransactionService interface {
	List(ctx context.Context) ([]byte, error)
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)
	Create(ctx context.Context, customerID uuid.UUID, in service.TransactionInput) (service.TransactionView, error)
	Search(ctx context.Context, params url.Values) (service.ListView[service.TransactionHit], error)
	ListAll(ctx context.Context) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (service.TransactionView, error)
}

// StatsProvider reports response cache usage.
type StatsProvider interface {
	Stats() responsecache.Stats
}

// Dependencies groups what the router serves.
type Dependencies struct {
	Customers    CustomerService
	Transactions TransactionService
	CacheStats   StatsProvider
	Logger       *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	r := gin.New()
	r.Use(Recovery(logger), RequestLogger(logger))

	customers := &customerHandlers{svc: deps.Customers}
	transactions := &transactionHandlers{svc: deps.Transactions}
	admin := &adminHandlers{customers: deps.Customers, transactions: deps.Transactions, stats: deps.CacheStats}

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	c := r.Group("/customers")
	c.GET("/", wrap(logger, customers.list))
	c.POST("/", wrap(logger, customers.create))
	c.GET("/search/", wrap(logger, customers.search))
	c.GET("/:id/", wrap(logger, customers.get))
	c.PUT("/:id/", wrap(logger, customers.update))
	c.DELETE("/:id/", wrap(logger, customers.delete))
	c.POST("/:id/transactions/", wrap(logger, transactions.create))

	t := r.Group("/transactions")
	t.GET("/", wrap(logger, transactions.list))
	t.GET("/search/", wrap(logger, transactions.search))
	t.GET("/:id/", wrap(logger, transactions.get))

	a := r.Group("/admin")
	a.GET("/customers/", wrap(logger, admin.listCustomers))
	a.POST("/customers/:id/restore/", wrap(logger, admin.restoreCustomer))
	a.DELETE("/customers/:id/", wrap(logger, admin.purgeCustomer))
	a.GET("/transactions/", wrap(logger, admin.listTransactions))
	a.DELETE("/transactions/:id/", wrap(logger, admin.deleteTransaction))
	a.POST("/transactions/:id/restore/", wrap(logger, admin.restoreTransaction))
	a.GET("/cache/stats/", wrap(logger, admin.cacheStats))

	return r
}

// parseID reads the :id path parameter. Malformed ids are answered as missing records.
func parseID(ctx *gin.Context, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, notFound(resource)
	}
	return id, nil
}
