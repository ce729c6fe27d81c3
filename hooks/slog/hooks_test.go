package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newBuffered(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestKeysAreRedacted(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.StoreError("get", "user_42", errors.New("timeout"))
	if strings.Contains(buf.String(), "user_42") {
		t.Fatalf("raw key logged: %s", buf)
	}
	if !strings.Contains(buf.String(), "invcache.store_error") {
		t.Fatalf("missing event: %s", buf)
	}
}

func TestHitSampling(t *testing.T) {
	h, buf := newBuffered(Options{HitEvery: 10, Redact: func(s string) string { return s }})
	for i := 0; i < 30; i++ {
		h.Hit("user_1")
	}
	if n := strings.Count(buf.String(), "invcache.hit"); n != 3 {
		t.Fatalf("logged %d hits", n)
	}
}

func TestSlowThreshold(t *testing.T) {
	h, buf := newBuffered(Options{SlowThreshold: 100 * time.Millisecond})
	h.Observe("fast", time.Millisecond)
	h.Observe("slow", time.Second)
	out := buf.String()
	if strings.Contains(out, "label=fast") || !strings.Contains(out, "label=slow") {
		t.Fatalf("output: %s", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.Hit("k")
	h.InvalidateFailed("k", errors.New("x"))
	h.Observe("x", time.Hour)
}
