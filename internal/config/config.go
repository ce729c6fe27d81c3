// Package config loads the service configuration: defaults in code, an
// optional YAML file on top, then INVCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvPrefix = "INVCACHE_"

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Cache     Cache     `yaml:"cache"`
	Redis     Redis     `yaml:"redis"`
	BigCache  BigCache  `yaml:"bigcache"`
	Ristretto Ristretto `yaml:"ristretto"`
	Store     Store     `yaml:"store"`
	Log       Log       `yaml:"log"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Cache struct {
	TTL                int           `yaml:"ttl"` // seconds
	Provider           string        `yaml:"provider"`
	Codec              string        `yaml:"codec"`
	OpTimeout          time.Duration `yaml:"op_timeout"`
	InvalidateAttempts uint          `yaml:"invalidate_attempts"`
	Breaker            bool          `yaml:"breaker"`
	MaxDecodeBytes     int           `yaml:"max_decode_bytes"`
	Disabled           bool          `yaml:"disabled"`
	// InvalidateTags makes every user write also drop all entries tagged
	// "users" by warm-cache, not only the list and the changed record.
	InvalidateTags     bool          `yaml:"invalidate_tags"`
}

func (c Cache) TTLDuration() time.Duration { return time.Duration(c.TTL) * time.Second }

type Redis struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BigCache struct {
	HardMaxMB int `yaml:"hard_max_mb"`
}

type Ristretto struct {
	NumCounters int64 `yaml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost"`
	BufferItems int64 `yaml:"buffer_items"`
}

type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Log struct {
	Level       string `yaml:"level"`
	Backend     string `yaml:"backend"`
	Development bool   `yaml:"development"`
}

func Default() Config {
	return Config{
		HTTP: HTTP{Addr: ":8000"},
		Cache: Cache{
			TTL:                300,
			Provider:           "redis",
			Codec:              "json",
			OpTimeout:          250 * time.Millisecond,
			InvalidateAttempts: 3,
			Breaker:            true,
		},
		Redis:     Redis{URL: "redis://localhost:6379/0"},
		BigCache:  BigCache{HardMaxMB: 256},
		Ristretto: Ristretto{NumCounters: 1_000_000, MaxCost: 1 << 28, BufferItems: 64},
		Store:     Store{Driver: "memory"},
		Log:       Log{Level: "info", Backend: "zap"},
	}
}

// Load reads path (may be empty) and applies environment overrides.
func Load(path string) (Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("HTTP_ADDR", &cfg.HTTP.Addr)
	integer("CACHE_TTL", &cfg.Cache.TTL)
	str("CACHE_PROVIDER", &cfg.Cache.Provider)
	str("CACHE_CODEC", &cfg.Cache.Codec)
	boolean("CACHE_BREAKER", &cfg.Cache.Breaker)
	boolean("CACHE_DISABLED", &cfg.Cache.Disabled)
	boolean("CACHE_INVALIDATE_TAGS", &cfg.Cache.InvalidateTags)
	if v, ok := lookup(EnvPrefix + "CACHE_OP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCACHE_OP_TIMEOUT: %w", EnvPrefix, err))
		} else {
			cfg.Cache.OpTimeout = d
		}
	}
	str("REDIS_URL", &cfg.Redis.URL)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	integer("REDIS_DB", &cfg.Redis.DB)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_DSN", &cfg.Store.DSN)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_BACKEND", &cfg.Log.Backend)
	boolean("LOG_DEVELOPMENT", &cfg.Log.Development)
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	switch c.Cache.Provider {
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis provider"))
		}
	case "bigcache":
		if c.BigCache.HardMaxMB <= 0 {
			errs = append(errs, errors.New("bigcache.hard_max_mb must be positive"))
		}
	case "ristretto":
		if c.Ristretto.NumCounters <= 0 || c.Ristretto.MaxCost <= 0 || c.Ristretto.BufferItems <= 0 {
			errs = append(errs, errors.New("ristretto sizes must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.provider %q", c.Cache.Provider))
	}
	switch c.Cache.Codec {
	case "", "json", "msgpack", "cbor":
	default:
		errs = append(errs, fmt.Errorf("unknown cache.codec %q", c.Cache.Codec))
	}
	if c.Cache.OpTimeout < 0 {
		errs = append(errs, errors.New("cache.op_timeout must not be negative"))
	}
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Log.Backend {
	case "zap", "logrus", "slog":
	default:
		errs = append(errs, fmt.Errorf("unknown log.backend %q", c.Log.Backend))
	}
	return errors.Join(errs...)
}
