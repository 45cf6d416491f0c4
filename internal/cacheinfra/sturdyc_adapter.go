// Package cacheinfra backs the response cache with an in-process sturdyc client.
package cacheinfra

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/viccon/sturdyc"
)

// Config sizes the sturdyc client. Capacity, NumShards, TTL and
// EvictionPercentage go straight to sturdyc.New.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	// EvictionInterval is how often expired entries are swept, zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig holds payloads for 300s. Early refreshes and missing record
// storage stay off: an entry lives until it expires or is invalidated.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                300 * time.Second,
		EvictionPercentage: 10,
	}
}

func (c Config) options() []sturdyc.Option {
	if c.EvictionInterval <= 0 {
		return nil
	}
	return []sturdyc.Option{sturdyc.WithEvictionInterval(c.EvictionInterval)}
}

// Validate reports the first setting sturdyc would reject.
func (c Config) Validate() error {
	checks := []struct {
		ok      bool
		field   string
		message string
	}{
		{c.Capacity > 0, "Capacity", "must be positive"},
		{c.NumShards > 0, "NumShards", "must be positive"},
		{c.TTL > 0, "TTL", "must be positive"},
		{c.EvictionPercentage >= 1 && c.EvictionPercentage <= 100, "EvictionPercentage", "must be within 1..100"},
		{c.EvictionInterval >= 0, "EvictionInterval", "must not be negative"},
	}
	for _, check := range checks {
		if !check.ok {
			return &ConfigError{Field: check.field, Message: check.message}
		}
	}
	return nil
}

// ConfigError names an invalid cache setting or argument.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cacheinfra: %s %s", e.Field, e.Message)
}

// SturdycService implements the cache service on top of sturdyc.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and creates the client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SturdycService{
		client: sturdyc.New[any](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, cfg.options()...),
	}, nil
}

// noValue stands in for a nil fetch result. sturdyc type-asserts every
// value it handles and a nil interface fails that assertion.
type noValue struct{}

func fromStored(value any) any {
	if _, ok := value.(noValue); ok {
		return nil
	}
	return value
}

// Get returns the live entry for key.
func (s *SturdycService) Get(_ context.Context, key string) (any, bool, error) {
	value, ok := s.client.Get(key)
	return fromStored(value), ok, nil
}

// GetOrFetch serves key from the cache or stores what fetchFn returns.
// fetchFn must look like func(context.Context) (T, error). Failed fetches
// are not stored and concurrent misses on one key share a single call.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	fetch, err := adaptFetch(fetchFn)
	if err != nil {
		return nil, err
	}
	value, err := s.client.GetOrFetch(ctx, key, fetch)
	if err != nil {
		return nil, err
	}
	return fromStored(value), nil
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// adaptFetch turns a typed fetch function into the untyped one the client stores.
func adaptFetch(fetchFn any) (sturdyc.FetchFn[any], error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return func(ctx context.Context) (any, error) {
			return toStored(fn(ctx))
		}, nil
	}

	fn := reflect.ValueOf(fetchFn)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, &ConfigError{Field: "fetchFn", Message: fmt.Sprintf("must be a function, got %T", fetchFn)}
	}

	t := fn.Type()
	if t.NumIn() != 1 || t.NumOut() != 2 || !t.In(0).Implements(contextType) || t.Out(1) != errorType {
		return nil, &ConfigError{Field: "fetchFn", Message: fmt.Sprintf("must be func(context.Context) (T, error), got %s", t)}
	}

	return func(ctx context.Context) (any, error) {
		out := fn.Call([]reflect.Value{reflect.ValueOf(ctx)})
		var err error
		if !out[1].IsNil() {
			err = out[1].Interface().(error)
		}
		return toStored(out[0].Interface(), err)
	}, nil
}

// toStored keeps the fetch error intact on its way through sturdyc, which
// only passes it along when the value is non-nil.
func toStored(value any, err error) (any, error) {
	if value == nil {
		return noValue{}, err
	}
	return value, err
}

// Delete drops key.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// InvalidateKeys drops every key in keys. Unknown keys are ignored.
func (s *SturdycService) InvalidateKeys(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Size is the number of entries held, expired ones included until swept.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
