package invcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/invcache/internal/testkit"
)

type logLine struct {
	level string
	msg   string
	f     Fields
}

type recLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recLogger) add(level, msg string, f Fields) {
	l.mu.Lock()
	l.lines = append(l.lines, logLine{level, msg, f})
	l.mu.Unlock()
}

func (l *recLogger) Debug(msg string, f Fields) { l.add("debug", msg, f) }
func (l *recLogger) Info(msg string, f Fields)  { l.add("info", msg, f) }
func (l *recLogger) Warn(msg string, f Fields)  { l.add("warn", msg, f) }
func (l *recLogger) Error(msg string, f Fields) { l.add("error", msg, f) }

func (l *recLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ln := range l.lines {
		if ln.level == level {
			n++
		}
	}
	return n
}

type recHooks struct {
	NopHooks
	mu          sync.Mutex
	hits        []string
	misses      []string
	storeErrs   []string
	invFailed   []string
	tagged      map[string]int
	observed    []string
	setRejected int
}

func (h *recHooks) Hit(k string)  { h.mu.Lock(); h.hits = append(h.hits, k); h.mu.Unlock() }
func (h *recHooks) Miss(k string) { h.mu.Lock(); h.misses = append(h.misses, k); h.mu.Unlock() }

func (h *recHooks) StoreError(op, _ string, _ error) {
	h.mu.Lock()
	h.storeErrs = append(h.storeErrs, op)
	h.mu.Unlock()
}

func (h *recHooks) InvalidateFailed(k string, _ error) {
	h.mu.Lock()
	h.invFailed = append(h.invFailed, k)
	h.mu.Unlock()
}

func (h *recHooks) TagInvalidated(tag string, n int) {
	h.mu.Lock()
	if h.tagged == nil {
		h.tagged = make(map[string]int)
	}
	h.tagged[tag] += n
	h.mu.Unlock()
}

func (h *recHooks) Observe(label string, _ time.Duration) {
	h.mu.Lock()
	h.observed = append(h.observed, label)
	h.mu.Unlock()
}

func newTestStore(t *testing.T, p *testkit.MemProvider, mutate func(*Options)) *Store {
	t.Helper()
	opts := Options{
		Provider:   p,
		RetryDelay: time.Millisecond,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewStore(opts)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
