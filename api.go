package invcache

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	pr "github.com/unkn0wn-root/invcache/provider"
)

type SetCostFunc func(key string, raw []byte) int64

// Options tune the Store. Only Provider is required; others have sensible defaults.
type Options struct {
	// Required
	Provider pr.Provider

	Logger             Logger         // if nil, NopLogger is used
	Hooks              Hooks          // if nil, NopHooks is used
	DefaultTTL         time.Duration  // 0 => 300s
	OpTimeout          time.Duration  // per provider call; 0 => 250ms
	AdminTimeout       time.Duration  // Keys/Info/DeleteAll; 0 => 5s
	InvalidateAttempts uint           // total delete attempts; 0 => 3, never below 2
	RetryDelay         time.Duration  // base backoff between delete attempts; 0 => 20ms
	ComputeSetCost     SetCostFunc    // default 1
	Breaker            *BreakerConfig // nil => no circuit breaker
	Disabled           bool           // default false (enabled)
}

// BreakerConfig configures the circuit breaker guarding reads and writes.
// Deletes bypass the breaker: invalidation is always attempted.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // allowed in half-open state
	Interval         time.Duration // closed-state window for counting failures
	Timeout          time.Duration // open-state duration before half-open
	FailureThreshold float64       // failure ratio that trips the breaker
	MinRequests      uint32        // requests needed before the ratio is evaluated
}

// DefaultBreakerConfig trips after 5 requests at 80% failures and probes again after 10s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

func NewStore(opts Options) (*Store, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("invcache: provider is required")
	}

	s := &Store{
		p:       opts.Provider,
		enabled: !opts.Disabled,
	}

	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.ttl = coalesce(opts.DefaultTTL, defaultTTL)
	s.timeout = coalesce(opts.OpTimeout, defaultOpTimeout)
	s.adminTimeout = coalesce(opts.AdminTimeout, defaultAdminTimeout)
	s.attempts = max(coalesce[uint](opts.InvalidateAttempts, defaultInvalidateAttempts), 2)
	s.retryDelay = coalesce(opts.RetryDelay, defaultRetryDelay)

	if opts.ComputeSetCost != nil {
		s.computeSetCost = opts.ComputeSetCost
	} else {
		s.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	if opts.Breaker != nil {
		s.cb = newBreaker(*opts.Breaker, s.log)
	}
	return s, nil
}

func newBreaker(cfg BreakerConfig, log Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        coalesce(cfg.Name, "invcache"),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("cache circuit breaker state changed", Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
}
