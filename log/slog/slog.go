package slog

import (
	"context"
	stdslog "log/slog"
	"sort"

	"github.com/unkn0wn-root/invcache"
)

var _ invcache.Logger = Logger{}

// Logger forwards to a *slog.Logger. Attributes are emitted in key order so
// output is stable across runs.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f invcache.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f invcache.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f invcache.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f invcache.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f invcache.Fields) {
	if s.L == nil {
		return
	}
	s.L.LogAttrs(context.Background(), level, msg, attrs(f)...)
}

func attrs(f invcache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range keys {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}
