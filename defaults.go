package invcache

import "time"

const (
	defaultTTL                = 300 * time.Second
	defaultOpTimeout          = 250 * time.Millisecond
	defaultAdminTimeout       = 5 * time.Second
	defaultInvalidateAttempts = 3
	defaultRetryDelay         = 20 * time.Millisecond
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
