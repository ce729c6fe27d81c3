package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/invcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
	// Slower timed operations are logged at warn level; 0 disables.
	SlowThreshold time.Duration
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ invcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("invcache.hit", "key", h.redact(key))
}

func (h *Hooks) Miss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("invcache.miss", "key", h.redact(key))
}

func (h *Hooks) StoreError(op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("invcache.store_error",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ProviderSetRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("invcache.provider_set_rejected", "key", h.redact(key))
}

func (h *Hooks) InvalidateFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("invcache.invalidate_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) TagInvalidated(tag string, count int) {
	if h.l == nil {
		return
	}
	h.l.Info("invcache.tag_invalidated",
		"tag", tag,
		"count", count)
}

func (h *Hooks) Observe(label string, elapsed time.Duration) {
	if h.l == nil || h.opts.SlowThreshold <= 0 || elapsed < h.opts.SlowThreshold {
		return
	}
	h.l.Warn("invcache.slow_operation",
		"label", label,
		"elapsed", elapsed)
}
