package invcache

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker"

	pr "github.com/unkn0wn-root/invcache/provider"
)

// Store is the key-value adapter every cache component shares.
//
// It never fails a caller because the cache is unavailable: Get degrades to a
// miss, Set reports but callers on the read path ignore it, and Delete retries
// before logging the failure as a consistency incident.
type Store struct {
	p              pr.Provider
	log            Logger
	hooks          Hooks
	enabled        bool
	ttl            time.Duration
	timeout        time.Duration
	adminTimeout   time.Duration
	attempts       uint
	retryDelay     time.Duration
	computeSetCost SetCostFunc
	cb             *gobreaker.CircuitBreaker
}

func (s *Store) Enabled() bool                   { return s.enabled }
func (s *Store) DefaultTTL() time.Duration       { return s.ttl }
func (s *Store) Logger() Logger                  { return s.log }
func (s *Store) Hooks() Hooks                    { return s.hooks }
func (s *Store) Provider() pr.Provider           { return s.p }
func (s *Store) Close(ctx context.Context) error { return s.p.Close(ctx) }

// Get returns the raw entry for key. Any provider error, timeout or open
// breaker is reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.enabled {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		raw []byte
		ok  bool
	)
	err := s.guard(func() error {
		var err error
		raw, ok, err = s.p.Get(ctx, key)
		return err
	})
	if err != nil {
		s.log.Warn("cache get failed; treating as miss", keyFields(key, err))
		s.hooks.StoreError("get", key, err)
		return nil, false
	}
	return raw, ok
}

// Set stores value under key. ttl <= 0 uses the default TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var ok bool
	err := s.guard(func() error {
		var err error
		ok, err = s.p.Set(ctx, key, value, s.computeSetCost(key, value), ttl)
		return err
	})
	if err != nil {
		s.log.Warn("cache set failed", keyFields(key, err))
		s.hooks.StoreError("set", key, err)
		return &StoreError{Op: "set", Key: key, Err: err}
	}
	if !ok {
		s.log.Debug("cache set rejected by provider (pressure)", Fields{"key": key})
		s.hooks.ProviderSetRejected(key)
	}
	return nil
}

// Delete removes key. Missing keys are a no-op.
// Failed attempts are retried with backoff; the final failure is logged as a
// consistency incident because the entry may now outlive the write that
// should have removed it.
//
// Delete ignores cancellation and deadlines on ctx: it runs after a write has
// committed, so a caller giving up must not leave the entry behind. Each
// attempt is still bounded by the operation timeout.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	var attempts uint
	err := retry.Do(
		func() error {
			attempts++
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.p.Del(cctx, key)
		},
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug("cache delete failed; retrying", Fields{"key": key, "attempt": n + 1, "err": err})
		}),
	)
	if err != nil {
		s.log.Error("cache invalidation failed; stale reads possible until TTL expiry", Fields{
			"key":      key,
			"attempts": attempts,
			"err":      err,
		})
		s.hooks.StoreError("delete", key, err)
		s.hooks.InvalidateFailed(key, err)
		return &StoreError{Op: "delete", Key: key, Attempts: attempts, Err: err}
	}
	return nil
}

// DeleteMany deletes every key, continuing past failures.
func (s *Store) DeleteMany(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Keys enumerates up to limit keys matching pattern. Admin use only: the
// provider has to walk its whole keyspace.
func (s *Store) Keys(ctx context.Context, pattern string, limit int) ([]string, error) {
	sc, ok := s.p.(pr.Scanner)
	if !ok {
		return nil, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, s.adminTimeout)
	defer cancel()
	keys, err := sc.Keys(ctx, pattern, limit)
	if err != nil {
		return nil, &StoreError{Op: "keys", Err: err}
	}
	return keys, nil
}

// Inspect returns provider statistics.
func (s *Store) Inspect(ctx context.Context) (pr.Info, error) {
	in, ok := s.p.(pr.Inspector)
	if !ok {
		return pr.Info{}, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, s.adminTimeout)
	defer cancel()
	info, err := in.Info(ctx)
	if err != nil {
		return pr.Info{}, &StoreError{Op: "info", Err: err}
	}
	return info, nil
}

// Flush deletes every key in the store, not only the ones this package wrote.
func (s *Store) Flush(ctx context.Context) (int, error) {
	sc, ok := s.p.(pr.Scanner)
	if !ok {
		return 0, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, s.adminTimeout)
	defer cancel()
	n, err := sc.DeleteAll(ctx)
	if err != nil {
		return n, &StoreError{Op: "flush", Err: err}
	}
	return n, nil
}

func (s *Store) guard(fn func() error) error {
	if s.cb == nil {
		return fn()
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
