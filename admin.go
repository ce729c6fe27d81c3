package invcache

import (
	"context"
	"encoding/json"
	"fmt"
)

// SampleKeys bounds the key listing in a stats report.
const SampleKeys = 100

// StatsReport is the read-only view served by the stats endpoint.
// When Error is set the report marshals to {error, total_keys: 0, keys: []}.
type StatsReport struct {
	Error            string   `json:"error,omitempty"`
	TotalKeys        int64    `json:"total_keys"`
	Keys             []string `json:"keys"`
	Version          string   `json:"redis_version"`
	ConnectedClients int64    `json:"connected_clients"`
	MemoryUsed       string   `json:"used_memory_human"`
	MemoryPeak       string   `json:"used_memory_peak_human"`
	TotalConnections int64    `json:"total_connections_received"`
	TotalCommands    int64    `json:"total_commands_processed"`
	HitCount         uint64   `json:"keyspace_hits"`
	MissCount        uint64   `json:"keyspace_misses"`
	HitRate          string   `json:"hit_rate"`
	UptimeSeconds    int64    `json:"uptime_in_seconds"`
}

func (r StatsReport) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error     string   `json:"error"`
			TotalKeys int64    `json:"total_keys"`
			Keys      []string `json:"keys"`
		}{r.Error, 0, []string{}})
	}
	type plain StatsReport
	return json.Marshal(plain(r))
}

// HitRate formats hits/(hits+misses) as a percentage.
func HitRate(hits, misses uint64) string {
	total := hits + misses
	if total == 0 {
		return "N/A (no requests yet)"
	}
	return fmt.Sprintf("%.2f%%", float64(hits)/float64(total)*100)
}

// Admin is the operational surface over the store: stats and global flush.
type Admin struct {
	store *Store
}

func NewAdmin(store *Store) *Admin { return &Admin{store: store} }

// Stats never returns an error; failures are folded into the report.
func (a *Admin) Stats(ctx context.Context) StatsReport {
	info, err := a.store.Inspect(ctx)
	if err != nil {
		return a.failed(err)
	}
	keys, err := a.store.Keys(ctx, "*", SampleKeys)
	if err != nil {
		return a.failed(err)
	}
	if keys == nil {
		keys = []string{}
	}
	return StatsReport{
		TotalKeys:        info.TotalKeys,
		Keys:             keys,
		Version:          info.Version,
		ConnectedClients: info.ConnectedClients,
		MemoryUsed:       info.MemoryUsed,
		MemoryPeak:       info.MemoryPeak,
		TotalConnections: info.TotalConnections,
		TotalCommands:    info.TotalCommands,
		HitCount:         info.Hits,
		MissCount:        info.Misses,
		HitRate:          HitRate(info.Hits, info.Misses),
		UptimeSeconds:    int64(info.Uptime.Seconds()),
	}
}

func (a *Admin) failed(err error) StatsReport {
	a.store.log.Error("error getting cache stats", Fields{"err": err})
	return StatsReport{Error: err.Error(), Keys: []string{}}
}

// ClearAll deletes every key in the store, including keys other applications
// wrote. Returns the number removed, or 0 when the flush failed.
func (a *Admin) ClearAll(ctx context.Context) int {
	n, err := a.store.Flush(ctx)
	if err != nil {
		a.store.log.Error("error clearing cache", Fields{"err": err, "removed": n})
		return 0
	}
	a.store.log.Info("cleared cache entries", Fields{"count": n})
	return n
}
