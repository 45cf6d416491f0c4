// Package config loads service settings from the environment. An optional
// .env file is read first, real environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	SearchMemory  = "memory"
	SearchAlgolia = "algolia"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Search   SearchConfig
}

type ServerConfig struct {
	Addr            string
	GinMode         string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
	Debug           bool // log every statement
}

type CacheConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

type SearchConfig struct {
	Backend           string
	AlgoliaAppID      string
	AlgoliaAPIKey     string
	CustomersIndex    string
	TransactionsIndex string
	QueueSize         int
	ReindexOnStart    bool
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// Load reads the given dotenv files (".env" when none are given), ignoring
// missing ones, then builds the configuration from the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := LoadEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv builds the configuration from environment variables and defaults.
func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8000"),
			GinMode:         getEnv("GIN_MODE", "release"),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", DriverSQLite),
			DSN:             getEnv("DB_DSN", "file:ledger.db?cache=shared&_fk=1"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
			Migrate:         getEnvBool("DB_MIGRATE", true),
			Debug:           getEnvBool("DB_DEBUG", false),
		},
		Cache: CacheConfig{
			Capacity:           getEnvInt("CACHE_CAPACITY", 10000),
			NumShards:          getEnvInt("CACHE_SHARDS", 64),
			TTL:                getEnvDuration("CACHE_TTL", 300*time.Second),
			EvictionPercentage: getEnvInt("CACHE_EVICTION_PERCENTAGE", 10),
			EvictionInterval:   getEnvDuration("CACHE_EVICTION_INTERVAL", 0),
		},
		Search: SearchConfig{
			Backend:           strings.ToLower(getEnv("SEARCH_BACKEND", SearchMemory)),
			AlgoliaAppID:      getEnv("ALGOLIA_APP_ID", ""),
			AlgoliaAPIKey:     getEnv("ALGOLIA_API_KEY", ""),
			CustomersIndex:    getEnv("SEARCH_CUSTOMERS_INDEX", "customers"),
			TransactionsIndex: getEnv("SEARCH_TRANSACTIONS_INDEX", "transactions"),
			QueueSize:         getEnvInt("SEARCH_QUEUE_SIZE", 1024),
			ReindexOnStart:    getEnvBool("SEARCH_REINDEX_ON_START", true),
		},
	}
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "SERVER_ADDR", Value: c.Server.Addr, Message: "must not be empty"}
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return &ConfigError{Field: "DB_DRIVER", Value: c.Database.Driver, Message: "must be sqlite3 or postgres"}
	}
	if c.Database.DSN == "" {
		return &ConfigError{Field: "DB_DSN", Value: c.Database.DSN, Message: "must not be empty"}
	}
	if c.Cache.TTL <= 0 {
		return &ConfigError{Field: "CACHE_TTL", Value: c.Cache.TTL, Message: "must be positive"}
	}
	switch c.Search.Backend {
	case SearchMemory:
	case SearchAlgolia:
		if c.Search.AlgoliaAppID == "" || c.Search.AlgoliaAPIKey == "" {
			return &ConfigError{Field: "ALGOLIA_APP_ID", Value: c.Search.AlgoliaAppID, Message: "algolia backend needs app id and api key"}
		}
	default:
		return &ConfigError{Field: "SEARCH_BACKEND", Value: c.Search.Backend, Message: "must be memory or algolia"}
	}
	if c.Search.QueueSize <= 0 {
		return &ConfigError{Field: "SEARCH_QUEUE_SIZE", Value: c.Search.QueueSize, Message: "must be positive"}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5m") or plain seconds ("300").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
