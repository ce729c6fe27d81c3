package cli

import (
	"context"
	"errors"
	"fmt"
	stdslog "log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/invcache"
	asynchook "github.com/unkn0wn-root/invcache/hooks/async"
	promhooks "github.com/unkn0wn-root/invcache/hooks/prom"
	sloghooks "github.com/unkn0wn-root/invcache/hooks/slog"
	"github.com/unkn0wn-root/invcache/internal/config"
	"github.com/unkn0wn-root/invcache/internal/users"
	logruslog "github.com/unkn0wn-root/invcache/log/logrus"
	sloglog "github.com/unkn0wn-root/invcache/log/slog"
	zaplog "github.com/unkn0wn-root/invcache/log/zap"
	pr "github.com/unkn0wn-root/invcache/provider"
	bcprov "github.com/unkn0wn-root/invcache/provider/bigcache"
	redisprov "github.com/unkn0wn-root/invcache/provider/redis"
	rprov "github.com/unkn0wn-root/invcache/provider/ristretto"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      config.Config
	log      invcache.Logger
	store    *invcache.Store
	tagger   *invcache.Tagger
	admin    *invcache.Admin
	repo     users.Repository
	service  *users.CachedService
	registry *prometheus.Registry

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	if a.log, err = newLogger(cfg.Log, &a.closers); err != nil {
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ph, err := promhooks.New("invcache", a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	eventLog := asynchook.New(sloghooks.New(eventLogger(cfg.Log.Level), sloghooks.Options{
		HitEvery:      100,
		MissEvery:     10,
		SlowThreshold: cfg.Cache.OpTimeout,
	}), 1, 1024)
	a.closers = append(a.closers, func(context.Context) error { eventLog.Close(); return nil })

	p, err := newProvider(ctx, cfg, a.log)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Provider == "bigcache" {
		a.log.Info("bigcache ignores per-entry TTLs; entries expire after cache.ttl", invcache.Fields{
			"life_window": cfg.Cache.TTLDuration().String(),
		})
	}
	opts := invcache.Options{
		Provider:           p,
		Logger:             a.log,
		Hooks:              invcache.MultiHooks{ph, eventLog},
		DefaultTTL:         cfg.Cache.TTLDuration(),
		OpTimeout:          cfg.Cache.OpTimeout,
		InvalidateAttempts: cfg.Cache.InvalidateAttempts,
		Disabled:           cfg.Cache.Disabled,
	}
	if cfg.Cache.Breaker {
		bc := invcache.DefaultBreakerConfig("invcache-" + cfg.Cache.Provider)
		opts.Breaker = &bc
	}
	if a.store, err = invcache.NewStore(opts); err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)
	a.tagger = invcache.NewTagger(a.store)
	a.admin = invcache.NewAdmin(a.store)

	listener := newListener(cfg.Cache, a.store, a.tagger)
	switch cfg.Store.Driver {
	case "postgres":
		db, err := users.OpenPostgres(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.repo = users.NewGormRepository(db, listener)
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	default:
		a.repo = users.NewMemoryRepository(listener)
	}

	a.service, err = users.NewCachedService(a.repo, a.store, users.ServiceOptions{
		Codec:     cfg.Cache.Codec,
		MaxDecode: cfg.Cache.MaxDecodeBytes,
		TTL:       cfg.Cache.TTLDuration(),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// newListener drops the list and the changed record on every write. With
// cache.invalidate_tags it also drops everything warm-cache tagged.
func newListener(cfg config.Cache, store *invcache.Store, tagger *invcache.Tagger) *invcache.Invalidator {
	iv := invcache.NewInvalidator(store)
	if cfg.InvalidateTags {
		iv.WithTags(tagger, users.TagUsers)
	}
	return iv
}

// Close runs the closers in reverse order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newLogger(cfg config.Log, closers *[]func(context.Context) error) (invcache.Logger, error) {
	switch cfg.Backend {
	case "logrus":
		l, err := logruslog.New(cfg.Level)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "slog":
		return sloglog.Logger{L: stdslog.New(stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{
			Level: slogLevel(cfg.Level),
		}))}, nil
	default:
		zl, err := zaplog.New(cfg.Level, cfg.Development)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func(context.Context) error {
			_ = zl.Sync()
			return nil
		})
		return zaplog.ZapLogger{L: zl.With(zap.String("component", "invcache"))}, nil
	}
}

// eventLogger receives sampled cache events from the hooks.
func eventLogger(level string) *stdslog.Logger {
	return stdslog.New(stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: slogLevel(level)})).
		With("component", "invcache.events")
}

func slogLevel(level string) stdslog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return stdslog.LevelDebug
	case "warn", "warning":
		return stdslog.LevelWarn
	case "error":
		return stdslog.LevelError
	default:
		return stdslog.LevelInfo
	}
}

func newProvider(ctx context.Context, cfg config.Config, log invcache.Logger) (pr.Provider, error) {
	switch cfg.Cache.Provider {
	case "bigcache":
		return bcprov.New(ctx, bcprov.Config{
			LifeWindow:         cfg.Cache.TTLDuration(),
			HardMaxCacheSizeMB: cfg.BigCache.HardMaxMB,
		})
	case "ristretto":
		return rprov.New(rprov.Config{
			NumCounters: cfg.Ristretto.NumCounters,
			MaxCost:     cfg.Ristretto.MaxCost,
			BufferItems: cfg.Ristretto.BufferItems,
			Metrics:     true,
		})
	default:
		p, err := redisprov.Dial(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if p == nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		if err != nil {
			// Not fatal: reads degrade to misses until the server is back.
			log.Warn("redis unreachable at startup", invcache.Fields{"url": redactURL(cfg.Redis.URL), "err": err})
		}
		return p, nil
	}
}

// redactURL drops any userinfo from a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	u.User = nil
	return u.String()
}
