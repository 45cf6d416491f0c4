// Package cache provides the caching primitives behind the response cache layer.
//
// # Overview
//
// The package exports:
//
//   - CacheService: a key-value service with read-through GetOrFetch, Get and
//     explicit invalidation (Delete, InvalidateKeys)
//   - KeySerializer: builds deterministic keys from a prefix and arguments
//   - Resource: the singular/plural names of a cached resource and its keys
//   - Config: backend configuration, TTL defaults to DefaultTTL (300s)
//
// # Keys
//
// Every cached resource owns exactly two kinds of keys:
//
//	customers_list          the full list payload
//	customer_<id>           one detail payload
//
// Resource names are derived from the model type, so ResourceOf[*model.Customer]()
// yields customer/customers.
//
// # Basic Usage
//
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	keys := cache.NewDefaultKeySerializer()
//	res := cache.NewResource("Customer")
//
//	payload, err := cache.GetOrFetch(ctx, svc, res.ListKey(keys), func(ctx context.Context) ([]byte, error) {
//		return renderCustomerList(ctx)
//	})
//
// Fetch errors are never cached. Values are cached for the configured TTL or
// until they are explicitly invalidated.
package cache
