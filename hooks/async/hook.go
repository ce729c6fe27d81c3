// Package asynchook moves hook delivery off the request path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{MissEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	store, _ := invcache.NewStore(invcache.Options{
//	    Provider: provider,
//	    Hooks:    hooks,
//	})
//
// Events are dropped, not queued unboundedly, when the buffer is full.
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/invcache"
)

type Hooks struct {
	inner   invcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ invcache.Hooks = (*Hooks)(nil)

func New(inner invcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Hooks must not be
// called after Close.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string)                 { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)                { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) ProviderSetRejected(k string) { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) InvalidateFailed(k string, err error) {
	h.try(func() { h.inner.InvalidateFailed(k, err) })
}
func (h *Hooks) StoreError(op, k string, err error) {
	h.try(func() { h.inner.StoreError(op, k, err) })
}
func (h *Hooks) TagInvalidated(tag string, n int) {
	h.try(func() { h.inner.TagInvalidated(tag, n) })
}
func (h *Hooks) Observe(label string, d time.Duration) {
	h.try(func() { h.inner.Observe(label, d) })
}
