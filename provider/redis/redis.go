package redis

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/invcache/provider"
)

const scanBatch = 1000

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var (
	_ pr.Provider  = (*Redis)(nil)
	_ pr.Scanner   = (*Redis)(nil)
	_ pr.Inspector = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, pr.ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Dial parses a redis:// URL, applies password/db overrides and pings the server.
// A failed ping is returned alongside a usable provider: reads degrade to misses
// until the server comes back.
func Dial(ctx context.Context, url, password string, db int) (*Redis, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	if db > 0 {
		opts.DB = db
	}
	client := goredis.NewClient(opts)
	p := &Redis{rdb: client, closeClient: true}
	return p, client.Ping(ctx).Err()
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // non-positive TTL means no expiry
	}
	if err := p.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Del is DEL, which already treats missing keys as a no-op.
func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Keys walks the keyspace with SCAN rather than KEYS so a large database
// does not block the server. On a cluster client only one node is scanned.
func (p *Redis) Keys(ctx context.Context, pattern string, limit int) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			out = append(out, k)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// DeleteAll unlinks every key batch by batch and counts what went away.
func (p *Redis) DeleteAll(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, "*", scanBatch).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := p.rdb.Unlink(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (p *Redis) Info(ctx context.Context) (pr.Info, error) {
	raw, err := p.rdb.Info(ctx).Result()
	if err != nil {
		return pr.Info{}, err
	}
	size, err := p.rdb.DBSize(ctx).Result()
	if err != nil {
		return pr.Info{}, err
	}
	fields := parseInfo(raw)
	return pr.Info{
		Version:          fields["redis_version"],
		TotalKeys:        size,
		Hits:             uint64(atoi(fields["keyspace_hits"])),
		Misses:           uint64(atoi(fields["keyspace_misses"])),
		MemoryUsed:       fields["used_memory_human"],
		MemoryPeak:       fields["used_memory_peak_human"],
		ConnectedClients: atoi(fields["connected_clients"]),
		TotalConnections: atoi(fields["total_connections_received"]),
		TotalCommands:    atoi(fields["total_commands_processed"]),
		Uptime:           time.Duration(atoi(fields["uptime_in_seconds"])) * time.Second,
	}, nil
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// parseInfo turns the INFO bulk reply ("# Section" headers, "k:v" lines) into a flat map.
func parseInfo(raw string) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

func atoi(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
