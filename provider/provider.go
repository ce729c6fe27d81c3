// Package provider defines the storage abstraction used by invcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. Expiry is owned by
// the provider; invcache never tracks TTLs itself.
//
// Admin capabilities (key enumeration, global flush, introspection) are optional
// and discovered with type assertions on Scanner and Inspector.
package provider

import (
	"context"
	"errors"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Scanner is implemented by providers that can enumerate their keyspace.
// Both operations are O(total keys) and meant for admin tooling only.
type Scanner interface {
	// Keys returns up to limit keys matching a glob pattern ("*" for all).
	// limit <= 0 means no limit.
	Keys(ctx context.Context, pattern string, limit int) ([]string, error)

	// DeleteAll removes every key in the store and returns how many were removed.
	DeleteAll(ctx context.Context) (int, error)
}

// Inspector is implemented by providers that expose server-side statistics.
type Inspector interface {
	Info(ctx context.Context) (Info, error)
}

// Info is a provider-neutral snapshot of store statistics.
// Fields a provider cannot fill are left zero.
type Info struct {
	Version          string
	TotalKeys        int64
	Hits             uint64
	Misses           uint64
	MemoryUsed       string
	MemoryPeak       string
	ConnectedClients int64
	TotalConnections int64
	TotalCommands    int64
	Uptime           time.Duration
}

// ErrNilClient is returned by constructors that wrap an externally owned client.
var ErrNilClient = errors.New("provider: nil client")
