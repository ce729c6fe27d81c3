package invcache

import (
	"errors"
	"strings"
	"testing"
)

func TestTimedValueLogsAndObserves(t *testing.T) {
	log := &recLogger{}
	hooks := &recHooks{}

	v, err := TimedValue(log, hooks, "user_list_cache", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("TimedValue = %d, %v", v, err)
	}
	if len(log.lines) != 1 || !strings.HasPrefix(log.lines[0].msg, "[CACHE PERF] user_list_cache: ") ||
		!strings.HasSuffix(log.lines[0].msg, "s") {
		t.Fatalf("log = %+v", log.lines)
	}
	if len(hooks.observed) != 1 || hooks.observed[0] != "user_list_cache" {
		t.Fatalf("observed = %v", hooks.observed)
	}
}

func TestTimedPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if err := Timed(NopLogger{}, NopHooks{}, "x", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
