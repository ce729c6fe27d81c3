// Package promhooks exports cache events as Prometheus metrics.
package promhooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/invcache"
)

// Hooks holds the collectors. Keys are never used as label values; only the
// key prefix is, to keep cardinality bounded.
type Hooks struct {
	requests         *prometheus.CounterVec
	storeErrors      *prometheus.CounterVec
	setRejected      prometheus.Counter
	invalidateFailed prometheus.Counter
	tagInvalidated   *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

var _ invcache.Hooks = (*Hooks)(nil)

// New creates the collectors and registers them on reg.
func New(namespace string, reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Read-through lookups by key prefix and result (hit/miss).",
			},
			[]string{"prefix", "result"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_store_errors_total",
				Help:      "Failed provider calls by operation.",
			},
			[]string{"op"},
		),
		setRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_set_rejected_total",
				Help:      "Writes the provider refused under pressure.",
			},
		),
		invalidateFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidate_failed_total",
				Help:      "Invalidation deletes that failed after all retries.",
			},
		),
		tagInvalidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_tag_invalidated_keys_total",
				Help:      "Keys deleted through tag invalidation.",
			},
			[]string{"tag"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_operation_duration_seconds",
				Help:      "Duration of timed cache operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"label"},
		),
	}
	for _, c := range []prometheus.Collector{
		h.requests, h.storeErrors, h.setRejected, h.invalidateFailed, h.tagInvalidated, h.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(key string)  { h.requests.WithLabelValues(prefix(key), "hit").Inc() }
func (h *Hooks) Miss(key string) { h.requests.WithLabelValues(prefix(key), "miss").Inc() }

func (h *Hooks) StoreError(op, _ string, _ error) { h.storeErrors.WithLabelValues(op).Inc() }
func (h *Hooks) ProviderSetRejected(string)       { h.setRejected.Inc() }
func (h *Hooks) InvalidateFailed(string, error)   { h.invalidateFailed.Inc() }

func (h *Hooks) TagInvalidated(tag string, count int) {
	h.tagInvalidated.WithLabelValues(tag).Add(float64(count))
}

func (h *Hooks) Observe(label string, elapsed time.Duration) {
	h.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// prefix maps "user_42" to "user" and "user_list" to itself.
func prefix(key string) string {
	if key == invcache.ListKey() {
		return key
	}
	for i := 0; i < len(key); i++ {
		if key[i] == '_' {
			return key[:i]
		}
	}
	return key
}
