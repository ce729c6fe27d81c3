package promhooks

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersByPrefix(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New("invcache", reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h.Hit("user_1")
	h.Hit("user_2")
	h.Miss("user_list")
	h.StoreError("delete", "user_1", errors.New("x"))
	h.InvalidateFailed("user_1", errors.New("x"))
	h.TagInvalidated("users", 3)
	h.Observe("user_list_cache", 5*time.Millisecond)

	if got := testutil.ToFloat64(h.requests.WithLabelValues("user", "hit")); got != 2 {
		t.Fatalf("user hits = %v", got)
	}
	if got := testutil.ToFloat64(h.requests.WithLabelValues("user_list", "miss")); got != 1 {
		t.Fatalf("list misses = %v", got)
	}
	if got := testutil.ToFloat64(h.invalidateFailed); got != 1 {
		t.Fatalf("invalidate failed = %v", got)
	}
	if got := testutil.ToFloat64(h.tagInvalidated.WithLabelValues("users")); got != 3 {
		t.Fatalf("tag invalidated = %v", got)
	}
	if n := testutil.CollectAndCount(h.duration); n != 1 {
		t.Fatalf("histogram series = %d", n)
	}
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New("invcache", reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New("invcache", reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestPrefix(t *testing.T) {
	for in, want := range map[string]string{
		"user_list": "user_list",
		"user_42":   "user",
		"tag_users": "tag",
		"plain":     "plain",
	} {
		if got := prefix(in); got != want {
			t.Fatalf("prefix(%q) = %q, want %q", in, got, want)
		}
	}
}
