package invcache

import (
	"context"
	"errors"
	"sort"
	"time"

	c "github.com/unkn0wn-root/invcache/codec"
)

const tagPrefix = "tag_"

// TagKey returns the key under which the member set of tag is stored.
func TagKey(tag string) string { return tagPrefix + tag }

// Tagger maintains tag indexes: one entry per tag holding the set of cache
// keys labelled with it, so a group can be dropped in one call.
//
// Expiry caveat: every Add rewrites the whole member set with the TTL of the
// entry being added. The index therefore expires with the most recent write,
// not with the longest-lived member. Once it lapses, InvalidateByTag for that
// tag returns 0 and older members survive until their own TTL. Invalidation by
// tag is eventually complete, bounded by the entries' TTL, never guaranteed.
type Tagger struct {
	store *Store
	codec c.Codec[[]string]
}

func NewTagger(store *Store) *Tagger {
	return &Tagger{store: store, codec: c.Msgpack[[]string]{}}
}

// SetWithTags stores value under key, then records key under every tag.
func (t *Tagger) SetWithTags(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	if err := t.store.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := t.Add(ctx, key, tags, ttl); err != nil {
		return err
	}
	t.store.log.Debug("cached with tags", Fields{"key": key, "tags": tags})
	return nil
}

// Add records key as a member of each tag, writing each index back with ttl.
func (t *Tagger) Add(ctx context.Context, key string, tags []string, ttl time.Duration) error {
	var errs []error
	for _, tag := range tags {
		set := make(map[string]struct{})
		for _, m := range t.Members(ctx, tag) {
			set[m] = struct{}{}
		}
		set[key] = struct{}{}

		members := make([]string, 0, len(set))
		for m := range set {
			members = append(members, m)
		}
		sort.Strings(members)

		raw, err := t.codec.Encode(members)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.store.Set(ctx, TagKey(tag), raw, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Members returns the keys currently indexed under tag. An absent, expired or
// unreadable index yields nil.
func (t *Tagger) Members(ctx context.Context, tag string) []string {
	raw, ok := t.store.Get(ctx, TagKey(tag))
	if !ok {
		return nil
	}
	members, err := t.codec.Decode(raw)
	if err != nil {
		t.store.log.Warn("tag index undecodable; dropping", Fields{"tag": tag, "err": err})
		t.store.hooks.StoreError("decode", TagKey(tag), err)
		_ = t.store.Delete(ctx, TagKey(tag))
		return nil
	}
	return members
}

// InvalidateByTag deletes every member of tag and the index itself.
// It returns how many members were deleted; 0 when the index is absent.
func (t *Tagger) InvalidateByTag(ctx context.Context, tag string) (int, error) {
	members := t.Members(ctx, tag)

	var (
		count int
		errs  []error
	)
	for _, k := range members {
		if err := t.store.Delete(ctx, k); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
		t.store.log.Debug("invalidated cache key", Fields{"key": k, "tag": tag})
	}
	if err := t.store.Delete(ctx, TagKey(tag)); err != nil {
		errs = append(errs, err)
	}

	t.store.log.Info("invalidated cache entries for tag", Fields{"tag": tag, "count": count})
	t.store.hooks.TagInvalidated(tag, count)
	return count, errors.Join(errs...)
}
