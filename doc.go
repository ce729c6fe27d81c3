// Package invcache implements read-through / write-invalidate caching for the
// users resource on top of a pluggable key-value provider.
//
// Components:
//   - Store: provider adapter with per-call timeouts. Reads degrade to misses,
//     invalidation deletes are retried and failures logged as incidents.
//   - Key policy: Key / KeyFor, with ListKey ("user_list") and UserKey ("user_{id}").
//   - Entry[V]: typed read-through access (GetOrLoad) using a codec.Codec[V].
//   - Invalidator: ChangeListener handed to the system of record; drops the
//     list and record keys after every committed write.
//   - Tagger: tag indexes ("tag_{tag}") for group invalidation.
//   - Admin: stats and global flush.
//
// Read path:
//
//	v, err := entry.GetOrLoad(ctx, invcache.UserKey(id), loadFromDB)
//
// Write path:
//
//	repo.Update(ctx, id, in) // commits, then calls invalidator.RecordChanged
//
// A read that misses and a concurrent write can interleave so that the reader
// repopulates the cache after the writer's delete. That entry is one write
// behind and lives until its TTL; nothing here versions entries to prevent it.
package invcache
