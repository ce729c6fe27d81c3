// Package testkit holds in-memory fakes shared by tests across packages.
package testkit

import (
	"context"
	"errors"
	"path"
	"sort"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/invcache/provider"
)

// ErrDown is returned by MemProvider calls while the provider is marked down.
var ErrDown = errors.New("testkit: provider unreachable")

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

// MemProvider is a map-backed provider with a controllable clock and
// failure injection. It implements Scanner and Inspector like Redis does.
// Get and Del fail on a done context, as a network client would.
type MemProvider struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now time.Time

	down      bool
	failDels  int // next N Del calls fail
	getCalls  int
	delCalls  int
	hits      uint64
	misses    uint64
	infoErr   error
	beforeSet func(key string)
}

var (
	_ pr.Provider  = (*MemProvider)(nil)
	_ pr.Scanner   = (*MemProvider)(nil)
	_ pr.Inspector = (*MemProvider)(nil)
)

func NewMemProvider() *MemProvider {
	return &MemProvider{m: make(map[string]memEntry), now: time.Unix(1_700_000_000, 0)}
}

// Advance moves the fake clock forward.
func (p *MemProvider) Advance(d time.Duration) {
	p.mu.Lock()
	p.now = p.now.Add(d)
	p.mu.Unlock()
}

// SetDown makes every call fail with ErrDown until cleared.
func (p *MemProvider) SetDown(down bool) {
	p.mu.Lock()
	p.down = down
	p.mu.Unlock()
}

// FailDeletes makes the next n Del calls fail.
func (p *MemProvider) FailDeletes(n int) {
	p.mu.Lock()
	p.failDels = n
	p.mu.Unlock()
}

// FailInfo makes Info return err.
func (p *MemProvider) FailInfo(err error) {
	p.mu.Lock()
	p.infoErr = err
	p.mu.Unlock()
}

// BeforeSet registers fn to run (without the lock held) before each Set lands.
func (p *MemProvider) BeforeSet(fn func(key string)) {
	p.mu.Lock()
	p.beforeSet = fn
	p.mu.Unlock()
}

func (p *MemProvider) GetCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getCalls
}

func (p *MemProvider) DelCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.delCalls
}

// Has reports whether key is present and unexpired, without touching stats.
func (p *MemProvider) Has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live(key)
	return ok
}

// Put writes a raw value directly, bypassing failure injection.
func (p *MemProvider) Put(key string, v []byte) {
	p.mu.Lock()
	p.m[key] = memEntry{v: v}
	p.mu.Unlock()
}

// Len counts unexpired keys.
func (p *MemProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for k := range p.m {
		if _, ok := p.live(k); ok {
			n++
		}
	}
	return n
}

func (p *MemProvider) live(key string) ([]byte, bool) {
	e, ok := p.m[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && !p.now.Before(e.exp) {
		delete(p.m, key)
		return nil, false
	}
	return e.v, true
}

func (p *MemProvider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	if p.down {
		return nil, false, ErrDown
	}
	v, ok := p.live(key)
	if !ok {
		p.misses++
		return nil, false, nil
	}
	p.hits++
	return v, true, nil
}

func (p *MemProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	hook := p.beforeSet
	p.mu.Unlock()
	if hook != nil {
		hook(key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return false, ErrDown
	}
	var exp time.Time
	if ttl > 0 {
		exp = p.now.Add(ttl)
	}
	p.m[key] = memEntry{v: append([]byte(nil), value...), exp: exp}
	return true, nil
}

func (p *MemProvider) Del(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.down {
		return ErrDown
	}
	if p.failDels > 0 {
		p.failDels--
		return ErrDown
	}
	delete(p.m, key)
	return nil
}

func (p *MemProvider) Keys(_ context.Context, pattern string, limit int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return nil, ErrDown
	}
	all := make([]string, 0, len(p.m))
	for k := range p.m {
		if _, ok := p.live(k); !ok {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			all = append(all, k)
		}
	}
	sort.Strings(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (p *MemProvider) DeleteAll(_ context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return 0, ErrDown
	}
	n := 0
	for k := range p.m {
		if _, ok := p.live(k); ok {
			n++
		}
	}
	p.m = make(map[string]memEntry)
	return n, nil
}

func (p *MemProvider) Info(_ context.Context) (pr.Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return pr.Info{}, ErrDown
	}
	if p.infoErr != nil {
		return pr.Info{}, p.infoErr
	}
	n := int64(0)
	for k := range p.m {
		if _, ok := p.live(k); ok {
			n++
		}
	}
	return pr.Info{
		Version:    "testkit",
		TotalKeys:  n,
		Hits:       p.hits,
		Misses:     p.misses,
		MemoryUsed: "1.00M",
		Uptime:     42 * time.Second,
	}, nil
}

func (p *MemProvider) Close(context.Context) error { return nil }
