package invcache

import (
	"fmt"
	"time"
)

// TimedValue runs fn and logs how long it took under label.
// The elapsed time is also reported to hooks.Observe.
func TimedValue[T any](log Logger, hooks Hooks, label string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	elapsed := time.Since(start)

	log.Info(fmt.Sprintf("[CACHE PERF] %s: %.4fs", label, elapsed.Seconds()), Fields{
		"label":      label,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	hooks.Observe(label, elapsed)
	return v, err
}

// Timed is TimedValue for operations without a result.
func Timed(log Logger, hooks Hooks, label string, fn func() error) error {
	_, err := TimedValue(log, hooks, label, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
