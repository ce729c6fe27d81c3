package invcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A read-through lookup was served from the cache.
	Hit(key string)
	// A read-through lookup fell through to the loader.
	// Store errors and undecodable entries count as misses too.
	Miss(key string)

	// A provider call failed. op ∈ {"get", "set", "delete", "decode"}.
	StoreError(op, key string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(key string)

	// A delete on the invalidation path failed after all retries.
	// The entry may be served stale until its TTL lapses.
	InvalidateFailed(key string, err error)

	// A tag index was resolved and its members deleted.
	TagInvalidated(tag string, count int)

	// A timed operation finished (see Timed).
	Observe(label string, elapsed time.Duration)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                       {}
func (NopHooks) Miss(string)                      {}
func (NopHooks) StoreError(string, string, error) {}
func (NopHooks) ProviderSetRejected(string)       {}
func (NopHooks) InvalidateFailed(string, error)   {}
func (NopHooks) TagInvalidated(string, int)       {}
func (NopHooks) Observe(string, time.Duration)    {}

// MultiHooks fans every event out to each element in order.
type MultiHooks []Hooks

func (m MultiHooks) Hit(key string) {
	for _, h := range m {
		h.Hit(key)
	}
}

func (m MultiHooks) Miss(key string) {
	for _, h := range m {
		h.Miss(key)
	}
}

func (m MultiHooks) StoreError(op, key string, err error) {
	for _, h := range m {
		h.StoreError(op, key, err)
	}
}

func (m MultiHooks) ProviderSetRejected(key string) {
	for _, h := range m {
		h.ProviderSetRejected(key)
	}
}

func (m MultiHooks) InvalidateFailed(key string, err error) {
	for _, h := range m {
		h.InvalidateFailed(key, err)
	}
}

func (m MultiHooks) TagInvalidated(tag string, count int) {
	for _, h := range m {
		h.TagInvalidated(tag, count)
	}
}

func (m MultiHooks) Observe(label string, elapsed time.Duration) {
	for _, h := range m {
		h.Observe(label, elapsed)
	}
}
