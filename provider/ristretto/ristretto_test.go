package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestProviderBasics(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64, Metrics: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if ok, err := p.Set(ctx, "user_1", []byte("a"), 1, time.Minute); !ok || err != nil {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	p.Wait()
	if v, ok, _ := p.Get(ctx, "user_1"); !ok || string(v) != "a" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok, _ := p.Get(ctx, "user_2"); ok {
		t.Fatalf("unexpected hit")
	}
	_ = p.Del(ctx, "user_1")
	if _, ok, _ := p.Get(ctx, "user_1"); ok {
		t.Fatalf("Del left the key")
	}

	info, err := p.Info(ctx)
	if err != nil || info.Hits != 1 || info.Misses != 2 {
		t.Fatalf("Info = %+v, %v", info, err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
