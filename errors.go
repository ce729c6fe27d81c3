package invcache

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by admin operations the configured provider cannot serve.
var ErrUnsupported = errors.New("invcache: operation not supported by provider")

// StoreError wraps a failed provider call.
// Attempts is only set for deletes, which are retried.
type StoreError struct {
	Op       string
	Key      string
	Attempts uint
	Err      error
}

func (e *StoreError) Error() string {
	switch {
	case e.Attempts > 1:
		return fmt.Sprintf("invcache: %s %q failed after %d attempts: %v", e.Op, e.Key, e.Attempts, e.Err)
	case e.Key == "":
		return fmt.Sprintf("invcache: %s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("invcache: %s %q: %v", e.Op, e.Key, e.Err)
	}
}

func (e *StoreError) Unwrap() error { return e.Err }
