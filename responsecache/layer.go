package responsecache

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/goliatone/go-customer-ledger/cache"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Stats reports how the layer has been used since it was created.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// fetchError marks errors produced by the compute function so they can be
// told apart from cache backend failures.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// Layer caches serialized response payloads of list and detail reads and
// applies the invalidation policy for writes.
type Layer struct {
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	logger        *zap.Logger

	hits          *xsync.Counter
	misses        *xsync.Counter
	invalidations *xsync.Counter
}

// New creates a Layer on top of the given cache service.
func New(cacheService cache.CacheService, keySerializer cache.KeySerializer, logger *zap.Logger) *Layer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layer{
		cache:         cacheService,
		keySerializer: keySerializer,
		logger:        logger.Named("responsecache"),
		hits:          xsync.NewCounter(),
		misses:        xsync.NewCounter(),
		invalidations: xsync.NewCounter(),
	}
}

// ListKey returns the key of the list payload of res.
func (l *Layer) ListKey(res cache.Resource) string {
	return res.ListKey(l.keySerializer)
}

// DetailKey returns the key of the detail payload of res with the given id.
func (l *Layer) DetailKey(res cache.Resource, id any) string {
	return res.DetailKey(l.keySerializer, id)
}

// List returns the cached list payload of res, computing and storing it on a miss.
func (l *Layer) List(ctx context.Context, res cache.Resource, compute cache.FetchFn[[]byte]) ([]byte, error) {
	return l.read(ctx, l.ListKey(res), compute)
}

// Detail returns the cached detail payload of one record, computing and storing it on a miss.
func (l *Layer) Detail(ctx context.Context, res cache.Resource, id any, compute cache.FetchFn[[]byte]) ([]byte, error) {
	return l.read(ctx, l.DetailKey(res, id), compute)
}

// Peek returns the payload cached under key without computing anything.
func (l *Layer) Peek(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := l.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	payload, ok := value.([]byte)
	return payload, ok
}

func (l *Layer) read(ctx context.Context, key string, compute cache.FetchFn[[]byte]) ([]byte, error) {
	var computed atomic.Bool

	payload, err := cache.GetOrFetch(ctx, l.cache, key, func(ctx context.Context) ([]byte, error) {
		computed.Store(true)
		p, err := compute(ctx)
		if err != nil {
			return nil, &fetchError{err: err}
		}
		return p, nil
	})
	if err == nil {
		if computed.Load() {
			l.misses.Inc()
		} else {
			l.hits.Inc()
		}
		return payload, nil
	}

	var fe *fetchError
	if errors.As(err, &fe) {
		return nil, fe.err
	}

	// backend failure, serve from the source of truth without caching
	l.logger.Warn("cache read failed, computing payload directly",
		zap.String("key", key),
		zap.Error(err),
	)
	l.misses.Inc()
	return compute(ctx)
}

// InvalidateAfterCreate drops the list payload of res. Detail payloads are
// unaffected since the new record had none.
func (l *Layer) InvalidateAfterCreate(ctx context.Context, res cache.Resource) {
	l.invalidate(ctx, l.ListKey(res))
}

// InvalidateAfterUpdate drops the list payload and the detail payload of id.
func (l *Layer) InvalidateAfterUpdate(ctx context.Context, res cache.Resource, id any) {
	l.invalidate(ctx, l.ListKey(res), l.DetailKey(res, id))
}

// InvalidateAfterDelete drops the list payload and the detail payload of id.
func (l *Layer) InvalidateAfterDelete(ctx context.Context, res cache.Resource, id any) {
	l.InvalidateAfterUpdate(ctx, res, id)
}

// InvalidateAfterRestore drops the list payload and the detail payload of id.
func (l *Layer) InvalidateAfterRestore(ctx context.Context, res cache.Resource, id any) {
	l.InvalidateAfterUpdate(ctx, res, id)
}

// invalidate is best effort, a failure leaves entries to expire with the TTL
func (l *Layer) invalidate(ctx context.Context, keys ...string) {
	if err := l.cache.InvalidateKeys(ctx, keys); err != nil {
		l.logger.Error("cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
		return
	}
	l.invalidations.Add(int64(len(keys)))
}

// Stats returns a snapshot of the layer counters.
func (l *Layer) Stats() Stats {
	return Stats{
		Hits:          l.hits.Value(),
		Misses:        l.misses.Value(),
		Invalidations: l.invalidations.Value(),
	}
}
