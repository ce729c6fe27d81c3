package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/invcache"
)

func TestFieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Error("cache invalidation failed", invcache.Fields{"key": "user_5", "err": errors.New("timeout")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["key"] != "user_5" || ctx["err"] != "timeout" {
		t.Fatalf("context = %v", ctx)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := New("debug", true); err != nil {
		t.Fatalf("New: %v", err)
	}
}
