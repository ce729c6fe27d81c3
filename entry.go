package invcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/invcache/codec"
)

// Entry is a typed read-through view over the Store for values of type V.
type Entry[V any] struct {
	store *Store
	codec c.Codec[V]
	ttl   time.Duration
}

// NewEntry binds a codec to the store. ttl <= 0 uses the store default.
func NewEntry[V any](store *Store, codec c.Codec[V], ttl time.Duration) *Entry[V] {
	return &Entry[V]{store: store, codec: codec, ttl: ttl}
}

// Get returns the cached value under key. An entry that no longer decodes is
// deleted and reported as a miss.
func (e *Entry[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, ok := e.store.Get(ctx, key)
	if !ok {
		return zero, false
	}
	v, err := e.codec.Decode(raw)
	if err != nil {
		e.store.log.Warn("cached value undecodable; dropping", keyFields(key, err))
		e.store.hooks.StoreError("decode", key, err)
		_ = e.store.Delete(ctx, key) // self-heal
		return zero, false
	}
	return v, true
}

// Set encodes v and stores it with the entry TTL.
func (e *Entry[V]) Set(ctx context.Context, key string, v V) error {
	return e.SetWithTTL(ctx, key, v, e.ttl)
}

func (e *Entry[V]) SetWithTTL(ctx context.Context, key string, v V, ttl time.Duration) error {
	raw, err := e.codec.Encode(v)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, key, raw, ttl)
}

// GetOrLoad serves key from the cache, or calls load, caches its result and
// returns it. Hits are returned verbatim with no revalidation. On a miss the
// caller gets the freshly loaded value, not a cache round-trip. Load errors
// are returned as-is and nothing is cached.
//
// A load that races with an invalidation may still write its (now one
// generation stale) value after the delete. That window is accepted and
// bounded by the TTL.
func (e *Entry[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := e.Get(ctx, key); ok {
		e.store.hooks.Hit(key)
		return v, nil
	}
	e.store.hooks.Miss(key)

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	if err := e.Set(ctx, key, v); err != nil {
		e.store.log.Debug("read-through populate failed", keyFields(key, err))
	}
	return v, nil
}
