package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadWith("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Cache.TTL)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTLDuration())
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.OpTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.False(t, cfg.Cache.InvalidateTags)
}

func TestInvalidateTagsOptIn(t *testing.T) {
	cfg, err := LoadWith("", env(map[string]string{"INVCACHE_CACHE_INVALIDATE_TAGS": "true"}))
	require.NoError(t, err)
	assert.True(t, cfg.Cache.InvalidateTags)
}

func TestFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  ttl: 60
  provider: bigcache
  codec: msgpack
  op_timeout: 100ms
log:
  level: debug
`), 0o600))

	cfg, err := LoadWith(path, env(map[string]string{
		"INVCACHE_CACHE_TTL":   "120",
		"INVCACHE_LOG_BACKEND": "logrus",
	}))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Cache.TTL)
	assert.Equal(t, "bigcache", cfg.Cache.Provider)
	assert.Equal(t, "msgpack", cfg.Cache.Codec)
	assert.Equal(t, 100*time.Millisecond, cfg.Cache.OpTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logrus", cfg.Log.Backend)
	assert.Equal(t, uint(3), cfg.Cache.InvalidateAttempts, "unset keys keep defaults")
}

func TestBadEnvValue(t *testing.T) {
	_, err := LoadWith("", env(map[string]string{"INVCACHE_CACHE_TTL": "soon"}))
	assert.ErrorContains(t, err, "INVCACHE_CACHE_TTL")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"ttl":      func(c *Config) { c.Cache.TTL = 0 },
		"provider": func(c *Config) { c.Cache.Provider = "memcached" },
		"codec":    func(c *Config) { c.Cache.Codec = "xml" },
		"postgres": func(c *Config) { c.Store.Driver = "postgres" },
		"backend":  func(c *Config) { c.Log.Backend = "stdout" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestMissingFile(t *testing.T) {
	_, err := LoadWith(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.Error(t, err)
}
