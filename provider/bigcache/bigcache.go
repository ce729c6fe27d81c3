package bigcache

import (
	"context"
	"errors"
	"path"
	"time"

	bc "github.com/allegro/bigcache/v3"
	"github.com/dustin/go-humanize"

	pr "github.com/unkn0wn-root/invcache/provider"
)

type Provider struct {
	c       *bc.BigCache
	started time.Time
}

var (
	_ pr.Provider  = (*Provider)(nil)
	_ pr.Scanner   = (*Provider)(nil)
	_ pr.Inspector = (*Provider)(nil)
)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, started: time.Now()}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	return b, err == nil, err
}

// Set ignores ttl: BigCache only supports the global LifeWindow.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	return true, p.c.Set(key, value)
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) Keys(_ context.Context, pattern string, limit int) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	var out []string
	it := p.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry evicted between SetNext and Value
			continue
		}
		if ok, _ := path.Match(pattern, e.Key()); !ok {
			continue
		}
		out = append(out, e.Key())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (p *Provider) DeleteAll(_ context.Context) (int, error) {
	n := p.c.Len()
	return n, p.c.Reset()
}

func (p *Provider) Info(_ context.Context) (pr.Info, error) {
	s := p.c.Stats()
	return pr.Info{
		Version:    "bigcache/v3",
		TotalKeys:  int64(p.c.Len()),
		Hits:       uint64(s.Hits),
		Misses:     uint64(s.Misses),
		MemoryUsed: humanize.IBytes(uint64(p.c.Capacity())),
		Uptime:     time.Since(p.started),
	}, nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
