package users

import (
	"context"
	"time"

	"github.com/unkn0wn-root/invcache"
	"github.com/unkn0wn-root/invcache/codec"
)

// TagUsers indexes every warmed entry so it can be dropped in one call.
const TagUsers = "users"

const warmProgressEvery = 100

type WarmOptions struct {
	TTL    time.Duration // 0 => store default
	Clear  bool          // flush the whole store first
	Codec  string
	Tagger *invcache.Tagger // optional; indexes warmed keys under TagUsers
}

type WarmResult struct {
	Cleared int
	Users   int
	Entries int // users plus the list entry
}

// Warm pre-populates the list entry and one entry per user.
func Warm(ctx context.Context, repo Repository, store *invcache.Store, opts WarmOptions) (WarmResult, error) {
	log := store.Logger()
	var res WarmResult

	if opts.Clear {
		res.Cleared = invcache.NewAdmin(store).ClearAll(ctx)
		log.Warn("cleared cache before warm-up", invcache.Fields{"count": res.Cleared})
	}

	lc, err := codec.ByName[[]Payload](opts.Codec, 0)
	if err != nil {
		return res, err
	}
	oc, err := codec.ByName[Payload](opts.Codec, 0)
	if err != nil {
		return res, err
	}
	list := invcache.NewEntry(store, lc, opts.TTL)
	one := invcache.NewEntry(store, oc, opts.TTL)

	us, err := repo.List(ctx)
	if err != nil {
		return res, err
	}
	log.Info("starting cache warm-up", invcache.Fields{"users": len(us)})

	if err := list.Set(ctx, invcache.ListKey(), SerializeMany(us)); err != nil {
		return res, err
	}
	tag := func(key string) {
		if opts.Tagger != nil {
			_ = opts.Tagger.Add(ctx, key, []string{TagUsers}, opts.TTL)
		}
	}
	tag(invcache.ListKey())

	for _, u := range us {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := invcache.UserKey(u.ID)
		if err := one.Set(ctx, key, Serialize(u)); err != nil {
			return res, err
		}
		tag(key)
		res.Users++
		if res.Users%warmProgressEvery == 0 {
			log.Info("warm-up progress", invcache.Fields{"cached": res.Users, "total": len(us)})
		}
	}
	res.Entries = res.Users + 1
	log.Info("cache warm-up complete", invcache.Fields{"entries": res.Entries, "ttl": opts.TTL.String()})
	return res, nil
}
