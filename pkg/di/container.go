package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-customer-ledger/api"
	"github.com/goliatone/go-customer-ledger/cache"
	"github.com/goliatone/go-customer-ledger/config"
	"github.com/goliatone/go-customer-ledger/internal/searchinfra"
	"github.com/goliatone/go-customer-ledger/loyalty"
	"github.com/goliatone/go-customer-ledger/responsecache"
	"github.com/goliatone/go-customer-ledger/search"
	"github.com/goliatone/go-customer-ledger/service"
	"github.com/goliatone/go-customer-ledger/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	"go.uber.org/zap"
)

// Container builds and owns every component of the service. Components are
// created once and shared.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db            *bun.DB
	store         *store.Store
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	layer         *responsecache.Layer
	searchBackend search.Backend
	indexer       *search.Indexer
	customers     *service.Customers
	transactions  *service.Transactions
	router        *gin.Engine
}

// NewContainer opens the database described by cfg and wires the components on top of it.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := OpenDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	c, err := NewContainerWithDB(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithDB wires the components on top of an already open database.
func NewContainerWithDB(cfg *config.Config, db *bun.DB, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheService, err := cache.NewCacheService(cache.Config{
		Capacity:           cfg.Cache.Capacity,
		NumShards:          cfg.Cache.NumShards,
		TTL:                cfg.Cache.TTL,
		EvictionPercentage: cfg.Cache.EvictionPercentage,
		EvictionInterval:   cfg.Cache.EvictionInterval,
	})
	if err != nil {
		return nil, err
	}

	backend, err := newSearchBackend(cfg.Search, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		config:        cfg,
		logger:        logger,
		db:            db,
		store:         store.New(db),
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		searchBackend: backend,
	}

	c.layer = responsecache.New(c.cacheService, c.keySerializer, logger)
	c.indexer = search.NewIndexer(c.store, c.searchBackend, logger, cfg.Search.QueueSize)

	aggregator := loyalty.NewAggregator(logger.Named("loyalty"))
	c.customers = service.NewCustomers(c.store, c.layer, c.searchBackend, c.indexer, logger)
	c.transactions = service.NewTransactions(c.store, c.layer, c.searchBackend, c.indexer, aggregator.OnTransactionCreated, logger)

	gin.SetMode(cfg.Server.GinMode)
	c.router = api.NewRouter(api.Dependencies{
		Customers:    c.customers,
		Transactions: c.transactions,
		CacheStats:   c.layer,
		Logger:       logger,
	})

	return c, nil
}

// OpenDB opens a bun database for the configured driver. With Debug set
// every query is logged through logger.
func OpenDB(cfg config.DatabaseConfig, logger *zap.Logger) (*bun.DB, error) {
	var dialect schema.Dialect
	switch cfg.Driver {
	case config.DriverSQLite:
		dialect = sqlitedialect.New()
	case config.DriverPostgres:
		dialect = pgdialect.New()
	default:
		return nil, &config.ConfigError{Field: "DB_DRIVER", Value: cfg.Driver, Message: "unsupported driver"}
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := bun.NewDB(sqldb, dialect)
	if cfg.Debug {
		db.AddQueryHook(store.NewQueryLogger(logger))
	}
	return db, nil
}

func newSearchBackend(cfg config.SearchConfig, logger *zap.Logger) (search.Backend, error) {
	if cfg.Backend != config.SearchAlgolia {
		return search.NewMemoryBackend(), nil
	}
	return searchinfra.NewAlgoliaBackend(searchinfra.AlgoliaConfig{
		AppID:             cfg.AlgoliaAppID,
		APIKey:            cfg.AlgoliaAPIKey,
		CustomersIndex:    cfg.CustomersIndex,
		TransactionsIndex: cfg.TransactionsIndex,
	}, logger)
}

// Start migrates the schema when enabled, starts the search indexer and
// optionally rebuilds the search mirror.
func (c *Container) Start(ctx context.Context) error {
	if c.config.Database.Migrate {
		if err := c.store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	c.indexer.Start(ctx)

	if c.config.Search.ReindexOnStart {
		if err := c.indexer.Rebuild(ctx); err != nil {
			// the mirror catches up through later events
			c.logger.Error("search rebuild failed", zap.Error(err))
		}
	}
	return nil
}

// Close drains the indexer and closes the database.
func (c *Container) Close() error {
	return errors.Join(c.indexer.Close(), c.db.Close())
}

func (c *Container) Config() *config.Config { return c.config }
func (c *Container) Logger() *zap.Logger { return c.logger }
func (c *Container) DB() *bun.DB { return c.db }
func (c *Container) Store() *store.Store { return c.store }
func (c *Container) CacheService() cache.CacheService { return c.cacheService }
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }
func (c *Container) ResponseCache() *responsecache.Layer { return c.layer }
func (c *Container) SearchBackend() search.Backend { return c.searchBackend }
func (c *Container) Indexer() *search.Indexer { return c.indexer }
func (c *Container) Customers() *service.Customers { return c.customers }
func (c *Container) Transactions() *service.Transactions { return c.transactions }
func (c *Container) Router() *gin.Engine { return c.router }
